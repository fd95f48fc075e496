// Package actions implements the closed set of rule actions: the side
// effects a matched rule dispatches against the chat platform, the case
// store, and the alerting pipeline. The set of kinds is sealed; adding
// one means touching ParseConfig and Apply together.
package actions

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/flosch/pongo2/v6"

	"github.com/havenchat/warden/event"
	"github.com/havenchat/warden/notify"
	"github.com/havenchat/warden/platform"
)

// Config is an action configuration. The interface is sealed: only types
// in this package implement it, so dispatch can be an exhaustive type
// switch.
type Config interface {
	Kind() string
	Validate() error
	actionConfig()
}

// Deps carries the collaborators actions need. Fields other than Chat
// may be nil when the corresponding action kinds are not configured.
type Deps struct {
	Logger   *slog.Logger
	Chat     platform.ChatAPI
	Cases    platform.CaseStore
	Audit    platform.AuditLog
	Notifier notify.Notifier
}

func (d *Deps) logger() *slog.Logger {
	if d.Logger != nil {
		return d.Logger
	}
	return slog.Default()
}

// Input is what a matched rule hands each of its actions: the full set
// of matched contexts (the triggering event plus any correlated prior
// events) and the trigger's match summary.
type Input struct {
	RuleName     string
	MatchSummary string
	Contexts     []*event.MatchContext
}

// GuildID returns the guild the matched events belong to.
func (in *Input) GuildID() string {
	for _, mc := range in.Contexts {
		if mc.GuildID != "" {
			return mc.GuildID
		}
	}
	return ""
}

// Users returns the distinct user ids across all matched contexts, in
// first-seen order.
func (in *Input) Users() []string {
	seen := make(map[string]bool, len(in.Contexts))
	var out []string
	for _, mc := range in.Contexts {
		uid := mc.UserID()
		if uid == "" || seen[uid] {
			continue
		}
		seen[uid] = true
		out = append(out, uid)
	}
	return out
}

// ChannelID returns the channel of the most recent matched context that
// has one.
func (in *Input) ChannelID() string {
	for i := len(in.Contexts) - 1; i >= 0; i-- {
		if cid := in.Contexts[i].ChannelID(); cid != "" {
			return cid
		}
	}
	return ""
}

// Apply executes one configured action against the matched input. Errors
// are returned to the caller; isolation between a rule's actions is the
// engine's job, not ours.
func Apply(ctx context.Context, cfg Config, in *Input, deps *Deps) error {
	switch c := cfg.(type) {
	case *BanConfig:
		return c.apply(ctx, in, deps)
	case *KickConfig:
		return c.apply(ctx, in, deps)
	case *MuteConfig:
		return c.apply(ctx, in, deps)
	case *WarnConfig:
		return c.apply(ctx, in, deps)
	case *CleanConfig:
		return c.apply(ctx, in, deps)
	case *ReplyConfig:
		return c.apply(ctx, in, deps)
	case *ChangePermsConfig:
		return c.apply(ctx, in, deps)
	case *ThreadStateConfig:
		return c.apply(ctx, in, deps)
	case *StartThreadConfig:
		return c.apply(ctx, in, deps)
	case *CrosspostConfig:
		return c.apply(ctx, in, deps)
	case *PauseInvitesConfig:
		return c.apply(ctx, in, deps)
	case *AlertConfig:
		return c.apply(ctx, in, deps)
	default:
		return fmt.Errorf("unhandled action config type: %T", cfg)
	}
}

// ParseConfig decodes and validates one action config by kind. Unknown
// kinds and unknown fields are rejected so a typo never becomes a no-op
// action.
func ParseConfig(kind string, raw json.RawMessage) (Config, error) {
	var cfg Config
	switch kind {
	case KindBan:
		cfg = &BanConfig{}
	case KindKick:
		cfg = &KickConfig{}
	case KindMute:
		cfg = &MuteConfig{}
	case KindWarn:
		cfg = &WarnConfig{}
	case KindClean:
		cfg = &CleanConfig{}
	case KindReply:
		cfg = &ReplyConfig{}
	case KindChangePerms:
		cfg = &ChangePermsConfig{}
	case KindArchiveThread, KindUnarchiveThread, KindLockThread, KindUnlockThread:
		cfg = &ThreadStateConfig{kind: kind}
	case KindStartThread:
		cfg = &StartThreadConfig{}
	case KindCrosspost:
		cfg = &CrosspostConfig{}
	case KindPauseInvites:
		cfg = &PauseInvitesConfig{}
	case KindAlert:
		cfg = &AlertConfig{}
	default:
		return nil, fmt.Errorf("unknown action kind: %q", kind)
	}

	if len(raw) > 0 {
		dec := json.NewDecoder(bytes.NewReader(raw))
		dec.DisallowUnknownFields()
		if err := dec.Decode(cfg); err != nil {
			return nil, fmt.Errorf("malformed %s action config: %w", kind, err)
		}
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid %s action config: %w", kind, err)
	}
	return cfg, nil
}

// Duration unmarshals from a JSON string like "10m".
type Duration time.Duration

func (d *Duration) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	dur, err := time.ParseDuration(s)
	if err != nil {
		return err
	}
	*d = Duration(dur)
	return nil
}

func (d Duration) Std() time.Duration { return time.Duration(d) }

// renderTemplate evaluates an admin-supplied pongo2 template against the
// standard action variables.
func renderTemplate(tpl *pongo2.Template, in *Input, extra pongo2.Context) (string, error) {
	pctx := pongo2.Context{
		"rule":    in.RuleName,
		"summary": in.MatchSummary,
		"guild":   in.GuildID(),
		"channel": in.ChannelID(),
	}
	if users := in.Users(); len(users) > 0 {
		pctx["user"] = users[0]
		pctx["users"] = users
	}
	for k, v := range extra {
		pctx[k] = v
	}
	out, err := tpl.Execute(pctx)
	if err != nil {
		return "", fmt.Errorf("rendering template: %w", err)
	}
	return out, nil
}

func compileTemplate(raw, field string) (*pongo2.Template, error) {
	tpl, err := pongo2.FromString(raw)
	if err != nil {
		return nil, fmt.Errorf("%s template: %w", field, err)
	}
	return tpl, nil
}

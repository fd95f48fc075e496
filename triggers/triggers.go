// Package triggers implements the closed set of trigger kinds a rule can
// be configured with. Each kind validates its own configuration shape at
// load time and exposes a uniform match contract; the dispatcher never
// inspects configuration shape at match time.
package triggers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/havenchat/warden/archivestore"
	"github.com/havenchat/warden/correlator"
	"github.com/havenchat/warden/event"
	"github.com/havenchat/warden/reputation"
	"github.com/havenchat/warden/sandbox"
)

// Config is the tagged union over trigger kinds. Exactly one kind per
// configured trigger instance; the set is closed (sealed interface) so
// the Match dispatch below is exhaustive.
type Config interface {
	Kind() string
	// Validate checks configuration shape and precompiles patterns.
	// Malformed configuration is rejected here, never at match time.
	Validate() error

	triggerConfig()
}

// Deps exposes read-only engine facilities to trigger matching.
type Deps struct {
	Logger     *slog.Logger
	Sandbox    *sandbox.Pool
	Correlator correlator.Correlator
	Reputation reputation.Client
	Archives   archivestore.ArchiveStore
	// Deadline for a single sandboxed pattern match.
	PatternTimeout time.Duration
}

func (d *Deps) logger() *slog.Logger {
	if d.Logger != nil {
		return d.Logger
	}
	return slog.Default()
}

func (d *Deps) patternTimeout() time.Duration {
	if d.PatternTimeout > 0 {
		return d.PatternTimeout
	}
	return 250 * time.Millisecond
}

// Result of a trigger match. A nil *Result from Match means no match.
type Result struct {
	// Silent means "record evidence but do not run the rule's actions or
	// post a log"; used while an ongoing flood has already been handled.
	Silent bool
	// Human-readable explanation of what matched.
	Summary string
	// Additional contexts to fold into the action stage (eg, the prior
	// messages of a spam burst).
	Extra []*event.MatchContext
}

// Match evaluates one trigger config against one context. Returns nil for
// no match; errors are genuine configuration/internal failures only and
// abort evaluation of the containing rule.
func Match(ctx context.Context, mc *event.MatchContext, cfg Config, deps *Deps) (*Result, error) {
	switch c := cfg.(type) {
	case *MatchWordsConfig:
		return c.match(ctx, mc, deps)
	case *MatchRegexConfig:
		return c.match(ctx, mc, deps)
	case *MatchLinksConfig:
		return c.match(ctx, mc, deps)
	case *MatchInvitesConfig:
		return c.match(ctx, mc, deps)
	case *MatchAttachmentTypeConfig:
		return c.match(mc)
	case *MatchMimeTypeConfig:
		return c.match(mc)
	case *SpamConfig:
		return c.match(ctx, mc, deps)
	case *AnyMessageConfig:
		return c.match(mc)
	case *ThreadEventConfig:
		return c.match(mc)
	case *VoiceEventConfig:
		return c.match(mc)
	case *ModActionConfig:
		return c.match(mc)
	default:
		return nil, fmt.Errorf("unhandled trigger config type: %T", cfg)
	}
}

// ParseConfig decodes one serialized trigger definition into its typed,
// validated form. `kind` is the union discriminator.
func ParseConfig(kind string, raw json.RawMessage) (Config, error) {
	var cfg Config
	switch kind {
	case KindMatchWords:
		cfg = &MatchWordsConfig{}
	case KindMatchRegex:
		cfg = &MatchRegexConfig{}
	case KindMatchLinks:
		cfg = &MatchLinksConfig{}
	case KindMatchInvites:
		cfg = &MatchInvitesConfig{}
	case KindMatchAttachmentType:
		cfg = &MatchAttachmentTypeConfig{}
	case KindMatchMimeType:
		cfg = &MatchMimeTypeConfig{}
	case KindMessageSpam, KindMentionSpam, KindLinkSpam, KindAttachmentSpam,
		KindEmojiSpam, KindLineSpam, KindCharacterSpam:
		cfg = &SpamConfig{kind: kind}
	case KindAnyMessage:
		cfg = &AnyMessageConfig{}
	case KindThreadCreate, KindThreadDelete, KindThreadArchive,
		KindThreadUnarchive, KindThreadLock, KindThreadUnlock:
		cfg = &ThreadEventConfig{kind: kind}
	case KindVoiceJoin, KindVoiceLeave:
		cfg = &VoiceEventConfig{kind: kind}
	case KindModAction:
		cfg = &ModActionConfig{}
	default:
		return nil, fmt.Errorf("unknown trigger kind: %q", kind)
	}

	if len(raw) > 0 {
		dec := json.NewDecoder(bytes.NewReader(raw))
		dec.DisallowUnknownFields()
		if err := dec.Decode(cfg); err != nil {
			return nil, fmt.Errorf("malformed %s trigger config: %w", kind, err)
		}
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid %s trigger config: %w", kind, err)
	}
	return cfg, nil
}

// Duration unmarshals from a JSON string like "10s".
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

func (d Duration) MarshalJSON() ([]byte, error) {
	return json.Marshal(time.Duration(d).String())
}

func (d Duration) Std() time.Duration {
	return time.Duration(d)
}

// optional bool with a non-false default
func boolDefault(p *bool, def bool) bool {
	if p == nil {
		return def
	}
	return *p
}

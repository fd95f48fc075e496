package actions

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/flosch/pongo2/v6"

	"github.com/havenchat/warden/platform"
)

const KindChangePerms = "change_perms"

var permNames = map[string]platform.Permissions{
	"send_messages":    platform.PermSendMessages,
	"embed_links":      platform.PermEmbedLinks,
	"manage_messages":  platform.PermManageMessages,
	"manage_threads":   platform.PermManageThreads,
	"manage_channels":  platform.PermManageChannels,
	"mention_everyone": platform.PermMentionEveryone,
}

// ChangePermsConfig edits a channel permission overwrite for the matched
// user (or a templated target). New bits are merged into any existing
// overwrite; a permission both allowed and denied ends up denied.
type ChangePermsConfig struct {
	// Target is a template resolving to the member or role id. Defaults
	// to the matched user.
	Target string `json:"target,omitempty"`
	// ChannelID limits the edit to a fixed channel; defaults to the
	// channel of the matched event.
	ChannelID     string                 `json:"channel_id,omitempty"`
	OverwriteKind platform.OverwriteKind `json:"overwrite_kind,omitempty"`
	Allow         []string               `json:"allow,omitempty"`
	Deny          []string               `json:"deny,omitempty"`

	compileOnce sync.Once
	compileErr  error
	targetTpl   *pongo2.Template
}

func (c *ChangePermsConfig) Kind() string  { return KindChangePerms }
func (c *ChangePermsConfig) actionConfig() {}

func (c *ChangePermsConfig) Validate() error {
	if len(c.Allow) == 0 && len(c.Deny) == 0 {
		return errors.New("at least one of allow or deny is required")
	}
	if _, err := permBits(c.Allow); err != nil {
		return err
	}
	if _, err := permBits(c.Deny); err != nil {
		return err
	}
	switch c.OverwriteKind {
	case "", platform.OverwriteMember, platform.OverwriteRole:
	default:
		return fmt.Errorf("unknown overwrite kind: %q", c.OverwriteKind)
	}
	return c.compile()
}

func (c *ChangePermsConfig) compile() error {
	c.compileOnce.Do(func() {
		if c.Target == "" {
			return
		}
		c.targetTpl, c.compileErr = compileTemplate(c.Target, "target")
	})
	return c.compileErr
}

func permBits(names []string) (platform.Permissions, error) {
	var bits platform.Permissions
	for _, name := range names {
		bit, ok := permNames[name]
		if !ok {
			return 0, fmt.Errorf("unknown permission: %q", name)
		}
		bits |= bit
	}
	return bits, nil
}

func (c *ChangePermsConfig) apply(ctx context.Context, in *Input, deps *Deps) error {
	if err := c.compile(); err != nil {
		return err
	}

	target := ""
	if c.targetTpl != nil {
		rendered, err := renderTemplate(c.targetTpl, in, nil)
		if err != nil {
			return err
		}
		target = rendered
	} else if users := in.Users(); len(users) > 0 {
		target = users[0]
	}
	if target == "" {
		deps.logger().Warn("change_perms action skipped, no target", "rule", in.RuleName)
		return nil
	}

	channelID := c.ChannelID
	if channelID == "" {
		channelID = in.ChannelID()
	}
	if channelID == "" {
		deps.logger().Warn("change_perms action skipped, no channel", "rule", in.RuleName)
		return nil
	}

	kind := c.OverwriteKind
	if kind == "" {
		kind = platform.OverwriteMember
	}
	allow, _ := permBits(c.Allow)
	deny, _ := permBits(c.Deny)

	existing, err := deps.Chat.PermissionOverwrite(ctx, channelID, target)
	if err != nil {
		return fmt.Errorf("fetching overwrite for %s: %w", target, err)
	}
	ow := platform.Overwrite{TargetID: target, Kind: kind}
	if existing != nil {
		ow = *existing
	}
	ow.Allow |= allow
	ow.Deny |= deny
	// deny wins over allow for any bit present in both
	ow.Allow &^= ow.Deny

	if err := deps.Chat.EditPermissionOverwrite(ctx, channelID, ow); err != nil {
		return fmt.Errorf("editing overwrite for %s: %w", target, err)
	}
	deps.logger().Info("edited permission overwrite", "rule", in.RuleName, "channel", channelID, "target", target)
	return nil
}

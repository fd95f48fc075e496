package actions

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/flosch/pongo2/v6"

	"github.com/havenchat/warden/platform"
)

const KindReply = "reply"

// ReplyConfig posts a templated message in the channel where the match
// happened. The send is skipped with a log line (not an error) when the
// bot lacks send permission there, so a locked-down channel does not
// poison the rest of the rule's actions.
type ReplyConfig struct {
	Text string `json:"text"`
	// AutoDeleteAfter removes the reply again after the given duration.
	AutoDeleteAfter Duration `json:"auto_delete_after,omitempty"`

	compileOnce sync.Once
	compileErr  error
	tpl         *pongo2.Template
}

func (c *ReplyConfig) Kind() string  { return KindReply }
func (c *ReplyConfig) actionConfig() {}

func (c *ReplyConfig) Validate() error {
	if c.Text == "" {
		return errors.New("text is required")
	}
	if c.AutoDeleteAfter.Std() < 0 {
		return errors.New("auto_delete_after must not be negative")
	}
	return c.compile()
}

func (c *ReplyConfig) compile() error {
	c.compileOnce.Do(func() {
		c.tpl, c.compileErr = compileTemplate(c.Text, "text")
	})
	return c.compileErr
}

func (c *ReplyConfig) apply(ctx context.Context, in *Input, deps *Deps) error {
	if err := c.compile(); err != nil {
		return err
	}
	channelID := in.ChannelID()
	if channelID == "" {
		deps.logger().Warn("reply action skipped, no channel in matched contexts", "rule", in.RuleName)
		return nil
	}

	ok, err := deps.Chat.HasPermissions(ctx, channelID, platform.PermSendMessages|platform.PermEmbedLinks)
	if err != nil {
		return fmt.Errorf("checking reply permissions: %w", err)
	}
	if !ok {
		deps.logger().Warn("reply action skipped, missing send permission", "rule", in.RuleName, "channel", channelID)
		return nil
	}

	text, err := renderTemplate(c.tpl, in, nil)
	if err != nil {
		return err
	}
	msgID, err := deps.Chat.SendMessage(ctx, channelID, text)
	if err != nil {
		return fmt.Errorf("sending reply: %w", err)
	}
	deps.logger().Info("posted reply", "rule", in.RuleName, "channel", channelID, "message", msgID)

	if after := c.AutoDeleteAfter.Std(); after > 0 {
		// outlives the event's context on purpose
		go func() {
			time.Sleep(after)
			dctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			if err := deps.Chat.DeleteMessage(dctx, channelID, msgID); err != nil {
				deps.logger().Warn("auto-deleting reply failed", "channel", channelID, "message", msgID, "err", err)
			}
		}()
	}
	return nil
}

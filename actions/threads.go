package actions

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/flosch/pongo2/v6"

	"github.com/havenchat/warden/event"
)

const (
	KindArchiveThread   = "archive_thread"
	KindUnarchiveThread = "unarchive_thread"
	KindLockThread      = "lock_thread"
	KindUnlockThread    = "unlock_thread"
	KindStartThread     = "start_thread"
	KindCrosspost       = "crosspost"
	KindPauseInvites    = "pause_invites"
	KindAlert           = "alert"
)

// ThreadStateConfig flips a state bit on every thread in the matched
// contexts. Used with the thread lifecycle triggers (eg, auto-lock
// archived threads).
type ThreadStateConfig struct {
	kind string
}

func (c *ThreadStateConfig) Kind() string  { return c.kind }
func (c *ThreadStateConfig) actionConfig() {}

func (c *ThreadStateConfig) Validate() error {
	switch c.kind {
	case KindArchiveThread, KindUnarchiveThread, KindLockThread, KindUnlockThread:
		return nil
	}
	return errors.New("thread action kind not set")
}

func (c *ThreadStateConfig) apply(ctx context.Context, in *Input, deps *Deps) error {
	for _, tid := range threadIDs(in) {
		var err error
		switch c.kind {
		case KindArchiveThread:
			err = deps.Chat.SetThreadArchived(ctx, tid, true)
		case KindUnarchiveThread:
			err = deps.Chat.SetThreadArchived(ctx, tid, false)
		case KindLockThread:
			err = deps.Chat.SetThreadLocked(ctx, tid, true)
		case KindUnlockThread:
			err = deps.Chat.SetThreadLocked(ctx, tid, false)
		}
		if err != nil {
			return fmt.Errorf("%s on %s: %w", c.kind, tid, err)
		}
		deps.logger().Info("changed thread state", "rule", in.RuleName, "action", c.kind, "thread", tid)
	}
	return nil
}

func threadIDs(in *Input) []string {
	var out []string
	seen := make(map[string]bool)
	for _, mc := range in.Contexts {
		if mc.Thread == nil || seen[mc.Thread.ThreadID] {
			continue
		}
		seen[mc.Thread.ThreadID] = true
		out = append(out, mc.Thread.ThreadID)
	}
	return out
}

// StartThreadConfig starts a thread off the matched message.
type StartThreadConfig struct {
	Name string `json:"name"`

	compileOnce sync.Once
	compileErr  error
	nameTpl     *pongo2.Template
}

func (c *StartThreadConfig) Kind() string  { return KindStartThread }
func (c *StartThreadConfig) actionConfig() {}

func (c *StartThreadConfig) Validate() error {
	if c.Name == "" {
		return errors.New("name is required")
	}
	return c.compile()
}

func (c *StartThreadConfig) compile() error {
	c.compileOnce.Do(func() {
		c.nameTpl, c.compileErr = compileTemplate(c.Name, "name")
	})
	return c.compileErr
}

func (c *StartThreadConfig) apply(ctx context.Context, in *Input, deps *Deps) error {
	if err := c.compile(); err != nil {
		return err
	}
	msg := latestMessage(in)
	if msg == nil {
		deps.logger().Warn("start_thread action skipped, no message in matched contexts", "rule", in.RuleName)
		return nil
	}
	name, err := renderTemplate(c.nameTpl, in, nil)
	if err != nil {
		return err
	}
	threadID, err := deps.Chat.StartThread(ctx, msg.ChannelID, msg.ID, name)
	if err != nil {
		return fmt.Errorf("starting thread: %w", err)
	}
	deps.logger().Info("started thread", "rule", in.RuleName, "thread", threadID, "message", msg.ID)
	return nil
}

func latestMessage(in *Input) *event.Message {
	for i := len(in.Contexts) - 1; i >= 0; i-- {
		if m := in.Contexts[i].Message; m != nil && m.ID != "" {
			return m
		}
	}
	return nil
}

// CrosspostConfig publishes the matched message to following channels.
type CrosspostConfig struct{}

func (c *CrosspostConfig) Kind() string    { return KindCrosspost }
func (c *CrosspostConfig) actionConfig()   {}
func (c *CrosspostConfig) Validate() error { return nil }

func (c *CrosspostConfig) apply(ctx context.Context, in *Input, deps *Deps) error {
	msg := latestMessage(in)
	if msg == nil {
		deps.logger().Warn("crosspost action skipped, no message in matched contexts", "rule", in.RuleName)
		return nil
	}
	if err := deps.Chat.CrosspostMessage(ctx, msg.ChannelID, msg.ID); err != nil {
		return fmt.Errorf("crossposting %s: %w", msg.ID, err)
	}
	deps.logger().Info("crossposted message", "rule", in.RuleName, "channel", msg.ChannelID, "message", msg.ID)
	return nil
}

// PauseInvitesConfig pauses (or resumes) guild invites, the circuit
// breaker for a raid in progress.
type PauseInvitesConfig struct {
	Paused *bool `json:"paused,omitempty"`
}

func (c *PauseInvitesConfig) Kind() string    { return KindPauseInvites }
func (c *PauseInvitesConfig) actionConfig()   {}
func (c *PauseInvitesConfig) Validate() error { return nil }

func (c *PauseInvitesConfig) apply(ctx context.Context, in *Input, deps *Deps) error {
	guildID := in.GuildID()
	if guildID == "" {
		deps.logger().Warn("pause_invites action skipped, no guild", "rule", in.RuleName)
		return nil
	}
	paused := true
	if c.Paused != nil {
		paused = *c.Paused
	}
	if err := deps.Chat.SetInvitesPaused(ctx, guildID, paused); err != nil {
		return fmt.Errorf("setting invites paused=%v: %w", paused, err)
	}
	deps.logger().Info("set invites paused", "rule", in.RuleName, "guild", guildID, "paused", paused)
	return nil
}

// AlertConfig posts a templated alert, either to a channel or to the
// out-of-band notifier (log or webhook).
type AlertConfig struct {
	Text string `json:"text"`
	// ChannelID posts the alert in-platform instead of via the notifier.
	ChannelID string `json:"channel_id,omitempty"`

	compileOnce sync.Once
	compileErr  error
	tpl         *pongo2.Template
}

func (c *AlertConfig) Kind() string  { return KindAlert }
func (c *AlertConfig) actionConfig() {}

func (c *AlertConfig) Validate() error {
	if c.Text == "" {
		return errors.New("text is required")
	}
	return c.compile()
}

func (c *AlertConfig) compile() error {
	c.compileOnce.Do(func() {
		c.tpl, c.compileErr = compileTemplate(c.Text, "text")
	})
	return c.compileErr
}

func (c *AlertConfig) apply(ctx context.Context, in *Input, deps *Deps) error {
	if err := c.compile(); err != nil {
		return err
	}
	text, err := renderTemplate(c.tpl, in, nil)
	if err != nil {
		return err
	}
	if c.ChannelID != "" {
		if _, err := deps.Chat.SendMessage(ctx, c.ChannelID, text); err != nil {
			return fmt.Errorf("posting alert: %w", err)
		}
		return nil
	}
	if deps.Notifier == nil {
		deps.logger().Warn("alert action has no notifier configured", "rule", in.RuleName, "text", text)
		return nil
	}
	if err := deps.Notifier.Alert(ctx, text); err != nil {
		return fmt.Errorf("sending alert: %w", err)
	}
	return nil
}

package triggers

import (
	"errors"
	"fmt"

	"github.com/havenchat/warden/event"
)

const (
	KindAnyMessage = "any_message"

	KindThreadCreate    = "thread_create"
	KindThreadDelete    = "thread_delete"
	KindThreadArchive   = "thread_archive"
	KindThreadUnarchive = "thread_unarchive"
	KindThreadLock      = "thread_lock"
	KindThreadUnlock    = "thread_unlock"

	KindVoiceJoin  = "voice_join"
	KindVoiceLeave = "voice_leave"

	KindModAction = "mod_action"
)

// AnyMessageConfig matches every message event, for catch-all rules.
type AnyMessageConfig struct{}

func (c *AnyMessageConfig) Kind() string    { return KindAnyMessage }
func (c *AnyMessageConfig) triggerConfig()  {}
func (c *AnyMessageConfig) Validate() error { return nil }

func (c *AnyMessageConfig) match(mc *event.MatchContext) (*Result, error) {
	if mc.Message == nil {
		return nil, nil
	}
	return &Result{Summary: "message"}, nil
}

// ThreadEventConfig is a pure predicate over thread lifecycle
// transitions, with optional parent-channel and origin filters.
type ThreadEventConfig struct {
	kind string

	// Restrict to threads under these parent channels.
	ParentChannelIDs []string `json:"parent_channel_ids,omitempty"`
	// For archive/unarchive: filter on automatic vs manual transitions.
	Automatic *bool `json:"automatic,omitempty"`
}

var threadKindToChange = map[string]event.ThreadChangeKind{
	KindThreadCreate:    event.ThreadCreated,
	KindThreadDelete:    event.ThreadDeleted,
	KindThreadArchive:   event.ThreadArchived,
	KindThreadUnarchive: event.ThreadUnarchived,
	KindThreadLock:      event.ThreadLocked,
	KindThreadUnlock:    event.ThreadUnlocked,
}

func (c *ThreadEventConfig) Kind() string   { return c.kind }
func (c *ThreadEventConfig) triggerConfig() {}

func (c *ThreadEventConfig) Validate() error {
	if _, ok := threadKindToChange[c.kind]; !ok {
		return errors.New("thread trigger kind not set")
	}
	return nil
}

func (c *ThreadEventConfig) match(mc *event.MatchContext) (*Result, error) {
	th := mc.Thread
	if th == nil || th.Change != threadKindToChange[c.kind] {
		return nil, nil
	}
	if len(c.ParentChannelIDs) > 0 && !listContainsFold(c.ParentChannelIDs, th.ParentID) {
		return nil, nil
	}
	if c.Automatic != nil && th.Automatic != *c.Automatic {
		return nil, nil
	}
	return &Result{Summary: fmt.Sprintf("thread %s: %s", th.Change, th.ThreadID)}, nil
}

// VoiceEventConfig matches voice channel joins or leaves, optionally
// restricted to specific channels.
type VoiceEventConfig struct {
	kind string

	ChannelIDs []string `json:"channel_ids,omitempty"`
}

func (c *VoiceEventConfig) Kind() string   { return c.kind }
func (c *VoiceEventConfig) triggerConfig() {}

func (c *VoiceEventConfig) Validate() error {
	if c.kind != KindVoiceJoin && c.kind != KindVoiceLeave {
		return errors.New("voice trigger kind not set")
	}
	return nil
}

func (c *VoiceEventConfig) match(mc *event.MatchContext) (*Result, error) {
	v := mc.Voice
	if v == nil {
		return nil, nil
	}
	if c.kind == KindVoiceJoin && !v.Joined {
		return nil, nil
	}
	if c.kind == KindVoiceLeave && !v.Left {
		return nil, nil
	}
	if len(c.ChannelIDs) > 0 && !listContainsFold(c.ChannelIDs, v.ChannelID) {
		return nil, nil
	}
	return &Result{Summary: fmt.Sprintf("voice %s: %s", c.kind, v.ChannelID)}, nil
}

// ModActionConfig matches replayed manual moderation actions, so rules
// can chain off moderator activity (eg, alert when someone is banned).
type ModActionConfig struct {
	// Kinds of action to match (ban, warn, mute, kick, note). Empty
	// matches all.
	Kinds []string `json:"kinds,omitempty"`
}

func (c *ModActionConfig) Kind() string    { return KindModAction }
func (c *ModActionConfig) triggerConfig()  {}
func (c *ModActionConfig) Validate() error { return nil }

func (c *ModActionConfig) match(mc *event.MatchContext) (*Result, error) {
	ma := mc.ModAction
	if ma == nil {
		return nil, nil
	}
	if len(c.Kinds) > 0 && !listContainsFold(c.Kinds, ma.Kind) {
		return nil, nil
	}
	return &Result{Summary: fmt.Sprintf("mod action %s on %s", ma.Kind, ma.TargetID)}, nil
}

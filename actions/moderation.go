package actions

import (
	"context"
	"errors"
	"fmt"

	"github.com/havenchat/warden/platform"
)

const (
	KindBan  = "ban"
	KindKick = "kick"
	KindMute = "mute"
	KindWarn = "warn"
)

// The punitive actions all create a moderation case per distinct user in
// the matched contexts, so a spam burst spanning several accounts
// punishes every participant.

func caseOpts(in *Input, userID, reason string, contact bool) platform.CaseOpts {
	return platform.CaseOpts{
		GuildID:      in.GuildID(),
		UserID:       userID,
		Reason:       reason,
		MatchSummary: in.MatchSummary,
		Automatic:    true,
		ContactUser:  contact,
	}
}

type BanConfig struct {
	Reason string `json:"reason,omitempty"`
	// DeleteMessageDays additionally purges the user's recent messages.
	DeleteMessageDays int  `json:"delete_message_days,omitempty"`
	ContactUser       bool `json:"contact_user,omitempty"`
}

func (c *BanConfig) Kind() string  { return KindBan }
func (c *BanConfig) actionConfig() {}

func (c *BanConfig) Validate() error {
	if c.DeleteMessageDays < 0 || c.DeleteMessageDays > 7 {
		return errors.New("delete_message_days must be between 0 and 7")
	}
	return nil
}

func (c *BanConfig) apply(ctx context.Context, in *Input, deps *Deps) error {
	for _, uid := range in.Users() {
		caseID, err := deps.Cases.BanUser(ctx, caseOpts(in, uid, c.Reason, c.ContactUser), c.DeleteMessageDays)
		if err != nil {
			return fmt.Errorf("banning %s: %w", uid, err)
		}
		deps.logger().Info("banned user", "rule", in.RuleName, "user", uid, "case", caseID)
	}
	return nil
}

type KickConfig struct {
	Reason      string `json:"reason,omitempty"`
	ContactUser bool   `json:"contact_user,omitempty"`
}

func (c *KickConfig) Kind() string    { return KindKick }
func (c *KickConfig) actionConfig()   {}
func (c *KickConfig) Validate() error { return nil }

func (c *KickConfig) apply(ctx context.Context, in *Input, deps *Deps) error {
	for _, uid := range in.Users() {
		caseID, err := deps.Cases.KickUser(ctx, caseOpts(in, uid, c.Reason, c.ContactUser))
		if err != nil {
			return fmt.Errorf("kicking %s: %w", uid, err)
		}
		deps.logger().Info("kicked user", "rule", in.RuleName, "user", uid, "case", caseID)
	}
	return nil
}

type MuteConfig struct {
	Reason string `json:"reason,omitempty"`
	// Duration of the mute; zero means indefinite.
	Duration    Duration `json:"duration,omitempty"`
	ContactUser bool     `json:"contact_user,omitempty"`
}

func (c *MuteConfig) Kind() string  { return KindMute }
func (c *MuteConfig) actionConfig() {}

func (c *MuteConfig) Validate() error {
	if c.Duration.Std() < 0 {
		return errors.New("duration must not be negative")
	}
	return nil
}

func (c *MuteConfig) apply(ctx context.Context, in *Input, deps *Deps) error {
	for _, uid := range in.Users() {
		caseID, err := deps.Cases.MuteUser(ctx, caseOpts(in, uid, c.Reason, c.ContactUser), c.Duration.Std())
		if err != nil {
			return fmt.Errorf("muting %s: %w", uid, err)
		}
		deps.logger().Info("muted user", "rule", in.RuleName, "user", uid, "case", caseID, "duration", c.Duration.Std())
	}
	return nil
}

type WarnConfig struct {
	Reason      string `json:"reason,omitempty"`
	ContactUser bool   `json:"contact_user,omitempty"`
}

func (c *WarnConfig) Kind() string    { return KindWarn }
func (c *WarnConfig) actionConfig()   {}
func (c *WarnConfig) Validate() error { return nil }

func (c *WarnConfig) apply(ctx context.Context, in *Input, deps *Deps) error {
	for _, uid := range in.Users() {
		caseID, err := deps.Cases.WarnUser(ctx, caseOpts(in, uid, c.Reason, c.ContactUser))
		if err != nil {
			return fmt.Errorf("warning %s: %w", uid, err)
		}
		deps.logger().Info("warned user", "rule", in.RuleName, "user", uid, "case", caseID)
	}
	return nil
}

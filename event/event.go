package event

import (
	"fmt"
	"time"
)

// MatchContext is an immutable snapshot of a single community event, as
// assembled by the upstream gateway. One of the optional sub-records is
// populated per event; rule evaluation never mutates a context, and a
// single rule match may end up associated with several contexts (eg, every
// message of a spam burst).
type MatchContext struct {
	// Event timestamp, as reported by the gateway. All window math uses
	// this rather than wall-clock time at processing.
	At time.Time `json:"at"`
	// Community (guild) the event belongs to.
	GuildID string `json:"guild_id"`

	Message   *Message      `json:"message,omitempty"`
	User      *User         `json:"user,omitempty"`
	Voice     *VoiceChange  `json:"voice,omitempty"`
	Thread    *ThreadChange `json:"thread,omitempty"`
	ModAction *ModAction    `json:"mod_action,omitempty"`
}

// Key returns a stable identity for the context, used to de-duplicate the
// matched-context set before actions run.
func (mc *MatchContext) Key() string {
	switch {
	case mc.Message != nil:
		return "msg/" + mc.Message.ChannelID + "/" + mc.Message.ID
	case mc.Thread != nil:
		return fmt.Sprintf("thread/%s/%s/%d", mc.Thread.ThreadID, mc.Thread.Change, mc.At.UnixMilli())
	case mc.Voice != nil:
		return fmt.Sprintf("voice/%s/%d", mc.Voice.UserID, mc.At.UnixMilli())
	case mc.ModAction != nil:
		return fmt.Sprintf("mod/%s/%s/%d", mc.ModAction.Kind, mc.ModAction.TargetID, mc.At.UnixMilli())
	default:
		return fmt.Sprintf("event/%s/%d", mc.GuildID, mc.At.UnixMilli())
	}
}

// UserID returns the acting user for the event, or empty if the event has
// no associated user.
func (mc *MatchContext) UserID() string {
	switch {
	case mc.Message != nil:
		return mc.Message.AuthorID
	case mc.User != nil:
		return mc.User.ID
	case mc.Voice != nil:
		return mc.Voice.UserID
	case mc.ModAction != nil:
		return mc.ModAction.TargetID
	default:
		return ""
	}
}

// ChannelID returns the channel the event occurred in, or empty for
// guild-level events.
func (mc *MatchContext) ChannelID() string {
	switch {
	case mc.Message != nil:
		return mc.Message.ChannelID
	case mc.Voice != nil:
		return mc.Voice.ChannelID
	case mc.Thread != nil:
		return mc.Thread.ParentID
	default:
		return ""
	}
}

type Message struct {
	ID          string       `json:"id"`
	ChannelID   string       `json:"channel_id"`
	AuthorID    string       `json:"author_id"`
	Content     string       `json:"content"`
	Attachments []Attachment `json:"attachments,omitempty"`
	Embeds      []Embed      `json:"embeds,omitempty"`
}

type Attachment struct {
	ID          string `json:"id"`
	FileName    string `json:"file_name"`
	ContentType string `json:"content_type"`
	Size        int64  `json:"size"`
}

type Embed struct {
	Title       string `json:"title,omitempty"`
	Description string `json:"description,omitempty"`
	URL         string `json:"url,omitempty"`
}

// User carries the identity fields text triggers can optionally match
// against (visible name, username, nickname, custom status).
type User struct {
	ID           string `json:"id"`
	Username     string `json:"username"`
	Nickname     string `json:"nickname,omitempty"`
	CustomStatus string `json:"custom_status,omitempty"`
}

// VisibleName is the nickname when set, otherwise the username.
func (u *User) VisibleName() string {
	if u.Nickname != "" {
		return u.Nickname
	}
	return u.Username
}

// VoiceChange records a voice channel join or leave. Exactly one of
// Joined/Left is true.
type VoiceChange struct {
	UserID    string `json:"user_id"`
	ChannelID string `json:"channel_id"`
	Joined    bool   `json:"joined"`
	Left      bool   `json:"left"`
}

type ThreadChangeKind string

const (
	ThreadCreated    ThreadChangeKind = "created"
	ThreadDeleted    ThreadChangeKind = "deleted"
	ThreadArchived   ThreadChangeKind = "archived"
	ThreadUnarchived ThreadChangeKind = "unarchived"
	ThreadLocked     ThreadChangeKind = "locked"
	ThreadUnlocked   ThreadChangeKind = "unlocked"
)

// ThreadChange records a thread lifecycle transition.
type ThreadChange struct {
	ThreadID string           `json:"thread_id"`
	ParentID string           `json:"parent_id"`
	Name     string           `json:"name,omitempty"`
	Change   ThreadChangeKind `json:"change"`
	// True when the transition was performed automatically (eg, inactivity
	// auto-archive) rather than by a member.
	Automatic bool `json:"automatic,omitempty"`
}

// ModAction is a replayed manual moderation action (ban, warn, etc) so
// rules can react to moderator activity the same way they react to
// organic events.
type ModAction struct {
	Kind        string `json:"kind"`
	TargetID    string `json:"target_id"`
	ModeratorID string `json:"moderator_id"`
	Reason      string `json:"reason,omitempty"`
}

// Dedupe returns the contexts with duplicates (by Key) removed, first
// occurrence wins, order otherwise preserved.
func Dedupe(contexts []*MatchContext) []*MatchContext {
	seen := make(map[string]bool, len(contexts))
	var out []*MatchContext
	for _, mc := range contexts {
		if mc == nil {
			continue
		}
		k := mc.Key()
		if !seen[k] {
			out = append(out, mc)
			seen[k] = true
		}
	}
	return out
}

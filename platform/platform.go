// Package platform declares the interfaces the engine consumes from the
// surrounding chat platform: the gateway-facing chat API, the moderation
// case store, and the audit log pipeline. Implementations live outside
// this repository.
package platform

import (
	"context"
	"time"
)

// Permissions is a bitfield of channel permissions, matching the
// platform's wire representation.
type Permissions uint64

const (
	PermSendMessages Permissions = 1 << iota
	PermEmbedLinks
	PermManageMessages
	PermManageThreads
	PermManageChannels
	PermMentionEveryone
)

type OverwriteKind string

const (
	OverwriteMember OverwriteKind = "member"
	OverwriteRole   OverwriteKind = "role"
)

// Overwrite is a channel permission overwrite for one member or role.
type Overwrite struct {
	TargetID string
	Kind     OverwriteKind
	Allow    Permissions
	Deny     Permissions
}

// ChatAPI is the outbound surface actions use to mutate platform state.
// Implementations may be rate-limited; calls can block on context.
type ChatAPI interface {
	SendMessage(ctx context.Context, channelID, content string) (messageID string, err error)
	DeleteMessage(ctx context.Context, channelID, messageID string) error
	DeleteMessages(ctx context.Context, channelID string, messageIDs []string) error
	HasPermissions(ctx context.Context, channelID string, perms Permissions) (bool, error)

	PermissionOverwrite(ctx context.Context, channelID, targetID string) (*Overwrite, error)
	EditPermissionOverwrite(ctx context.Context, channelID string, ow Overwrite) error

	SetThreadArchived(ctx context.Context, threadID string, archived bool) error
	SetThreadLocked(ctx context.Context, threadID string, locked bool) error
	StartThread(ctx context.Context, channelID, messageID, name string) (threadID string, err error)
	CrosspostMessage(ctx context.Context, channelID, messageID string) error
	SetInvitesPaused(ctx context.Context, guildID string, paused bool) error
}

// CaseOpts carries the shared fields of a moderation case created by the
// engine.
type CaseOpts struct {
	GuildID string
	UserID  string
	// Rendered reason shown to the target user, subject to their contact
	// preferences.
	Reason string
	// Human-readable explanation of what matched, attached as a case note.
	MatchSummary string
	// Marks the case as created by automation rather than a moderator.
	Automatic bool
	// Whether to attempt direct notification of the user.
	ContactUser bool
}

// CaseStore persists moderation cases and executes the associated
// platform action. Every call returns a case identifier used in
// operator-facing confirmations.
type CaseStore interface {
	CreateCase(ctx context.Context, opts CaseOpts) (caseID string, err error)
	BanUser(ctx context.Context, opts CaseOpts, deleteMessageDays int) (caseID string, err error)
	MuteUser(ctx context.Context, opts CaseOpts, duration time.Duration) (caseID string, err error)
	KickUser(ctx context.Context, opts CaseOpts) (caseID string, err error)
	WarnUser(ctx context.Context, opts CaseOpts) (caseID string, err error)
}

type LogKind string

const (
	LogMessageDelete     LogKind = "message_delete"
	LogMessageDeleteBulk LogKind = "message_delete_bulk"
)

// AuditLog is the general audit pipeline. The engine signals it to skip
// re-logging side effects the engine itself already accounts for (eg, a
// clean action's deletions).
type AuditLog interface {
	// IgnoreNextLog suppresses the next audit entry of the given kind for
	// the given id. A zero `within` applies the implementation default.
	IgnoreNextLog(kind LogKind, id string, within time.Duration)
}

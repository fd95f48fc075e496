// Package reputation provides the external domain-classification and
// invite-resolution lookups consumed by link and invite triggers.
//
// Lookup failures are "could not confirm": callers must never treat a
// failed lookup as a positive match.
package reputation

import (
	"context"
)

type Category string

const (
	CategoryUnknown    Category = "unknown"
	CategorySafe       Category = "safe"
	CategorySuspicious Category = "suspicious"
	CategoryMalicious  Category = "malicious"
	CategoryPhishing   Category = "phishing"
)

// Bad reports whether a category warrants a link-trigger match.
func (c Category) Bad() bool {
	return c == CategoryMalicious || c == CategoryPhishing
}

// GuildInfo is the resolved identity of an invite code.
type GuildInfo struct {
	GuildID   string `json:"guild_id"`
	Name      string `json:"name"`
	IsGroupDM bool   `json:"is_group_dm"`
}

type Client interface {
	// ClassifyDomain returns the reputation category for a host.
	ClassifyDomain(ctx context.Context, host string) (Category, error)
	// ResolveInvite resolves an invite code to guild identity. Returns
	// nil (without error) for invites that no longer resolve.
	ResolveInvite(ctx context.Context, code string) (*GuildInfo, error)
}

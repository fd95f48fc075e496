// Package archivestore collects the evidence contexts of a rule match
// (eg, every message of a spam burst) so repeated silent matches append
// to a single archive instead of creating a new one per event.
package archivestore

import (
	"context"

	"github.com/havenchat/warden/event"
)

type ArchiveStore interface {
	// Create opens a new archive holding the given contexts and returns
	// its id.
	Create(ctx context.Context, contexts []*event.MatchContext) (string, error)
	// Append adds contexts to an existing archive.
	Append(ctx context.Context, archiveID string, contexts []*event.MatchContext) error
	// Get returns the archived contexts, oldest first.
	Get(ctx context.Context, archiveID string) ([]*event.MatchContext, error)
}

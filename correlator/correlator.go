// Package correlator tracks recent matching events per identifier in a
// bounded sliding time window, for rate-based spam triggers.
//
// One Correlator instance belongs to one moderated community; it is
// constructed when the community's rule set loads and torn down on
// unload. Operations on distinct identifiers never block each other.
package correlator

import (
	"context"
	"time"

	"github.com/havenchat/warden/event"
)

// Record is one qualifying event inside an identifier's window. Weight
// lets occurrence-counting triggers (eg mention spam) count one message
// as several units toward the threshold.
type Record struct {
	At      time.Time           `json:"at"`
	Weight  int                 `json:"weight"`
	Context *event.MatchContext `json:"context"`
}

type State int

const (
	// StateBelow: record inserted, threshold not reached.
	StateBelow State = iota
	// StateMatched: this record pushed the window over the threshold.
	StateMatched
	// StateSilent: an earlier record already triggered for this window;
	// the new record was kept as evidence but must not re-alert.
	StateSilent
)

// Outcome reports the window state after observing one record.
type Outcome struct {
	State State
	// Prior records of the window, oldest first, excluding the observed
	// record. Only populated for StateMatched.
	Prior []Record
	// Evidence archive attached to the active burst, if any. Populated
	// for StateSilent once SetBurstArchive has been called.
	ArchiveID string
}

type Correlator interface {
	// Observe inserts a record for kind/ident and reports whether the
	// configured threshold (total weight >= threshold within the duration
	// ending at rec.At) has been reached. While a previously-matched
	// burst is still active the record is kept as evidence and the
	// outcome is StateSilent.
	Observe(ctx context.Context, kind, ident string, rec Record, threshold int, within time.Duration) (Outcome, error)

	// SetBurstArchive attaches an evidence archive id to the active burst
	// for kind/ident, so later silent observations can append to it.
	SetBurstArchive(ctx context.Context, kind, ident, archiveID string) error

	// Close releases any background resources (sweepers, connections).
	Close()
}

package correlator

import (
	"context"
	"sync"
	"time"

	"github.com/puzpuzpuz/xsync/v3"
)

// windows older than this with no activity get dropped by the sweeper
const sweepIdle = 10 * time.Minute

// MemCorrelator keeps windows in process memory, sharded by identifier
// via xsync.MapOf so that only same-identifier operations contend.
type MemCorrelator struct {
	windows *xsync.MapOf[string, *window]
	stop    chan struct{}
	once    sync.Once
}

type window struct {
	mu   sync.Mutex
	recs []Record
	// active burst: suppress re-triggering until this instant
	matched   bool
	expires   time.Time
	archiveID string
	// last Observe, for the sweeper
	touched time.Time
}

func NewMemCorrelator() *MemCorrelator {
	c := &MemCorrelator{
		windows: xsync.NewMapOf[string, *window](),
		stop:    make(chan struct{}),
	}
	go c.sweep()
	return c
}

func windowKey(kind, ident string) string {
	return kind + "/" + ident
}

func (c *MemCorrelator) Observe(ctx context.Context, kind, ident string, rec Record, threshold int, within time.Duration) (Outcome, error) {
	if rec.Weight <= 0 {
		rec.Weight = 1
	}
	w, _ := c.windows.LoadOrCompute(windowKey(kind, ident), func() *window {
		return &window{}
	})

	w.mu.Lock()
	defer w.mu.Unlock()
	w.touched = time.Now()

	if w.matched {
		if rec.At.Before(w.expires) {
			// ongoing handled burst: keep evidence, stay quiet
			w.recs = append(w.recs, rec)
			return Outcome{State: StateSilent, ArchiveID: w.archiveID}, nil
		}
		// burst expired, start a fresh window
		w.matched = false
		w.archiveID = ""
		w.recs = nil
	}

	cutoff := rec.At.Add(-within)
	w.prune(cutoff)
	w.recs = append(w.recs, rec)

	total := 0
	for _, r := range w.recs {
		total += r.Weight
	}
	if total < threshold {
		return Outcome{State: StateBelow}, nil
	}

	prior := make([]Record, len(w.recs)-1)
	copy(prior, w.recs[:len(w.recs)-1])
	w.matched = true
	w.expires = rec.At.Add(within)
	return Outcome{State: StateMatched, Prior: prior}, nil
}

func (c *MemCorrelator) SetBurstArchive(ctx context.Context, kind, ident, archiveID string) error {
	w, ok := c.windows.Load(windowKey(kind, ident))
	if !ok {
		return nil
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.matched {
		w.archiveID = archiveID
	}
	return nil
}

func (c *MemCorrelator) Close() {
	c.once.Do(func() { close(c.stop) })
}

// drop records past their window, lazily on access
func (w *window) prune(cutoff time.Time) {
	i := 0
	for i < len(w.recs) && w.recs[i].At.Before(cutoff) {
		i++
	}
	if i > 0 {
		w.recs = append([]Record(nil), w.recs[i:]...)
	}
}

// periodic sweep so idle identifiers do not accumulate forever
func (c *MemCorrelator) sweep() {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()
	for {
		select {
		case <-c.stop:
			return
		case now := <-ticker.C:
			c.windows.Range(func(key string, w *window) bool {
				w.mu.Lock()
				idle := now.Sub(w.touched) > sweepIdle
				w.mu.Unlock()
				if idle {
					c.windows.Delete(key)
				}
				return true
			})
		}
	}
}

package engine

import (
	"context"
	"encoding/json"
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/havenchat/warden/actions"
	"github.com/havenchat/warden/archivestore"
	"github.com/havenchat/warden/correlator"
	"github.com/havenchat/warden/countstore"
	"github.com/havenchat/warden/event"
	"github.com/havenchat/warden/platform"
	"github.com/havenchat/warden/reputation"
	"github.com/havenchat/warden/sandbox"
	"github.com/havenchat/warden/triggers"
)

// AlertRecorder is a Notifier that captures alerts for assertions.
type AlertRecorder struct {
	Mu     sync.Mutex
	Alerts []string
}

func (r *AlertRecorder) Alert(ctx context.Context, text string) error {
	r.Mu.Lock()
	defer r.Mu.Unlock()
	r.Alerts = append(r.Alerts, text)
	return nil
}

// TestFixture wires an Engine to in-memory backends and recording
// fakes.
type TestFixture struct {
	Engine     *Engine
	Chat       *platform.FakeChatAPI
	Cases      *platform.FakeCaseStore
	Audit      *platform.FakeAuditLog
	Alerts     *AlertRecorder
	Archives   *archivestore.MemArchiveStore
	Counters   *countstore.MemCountStore
	Reputation *reputation.MockClient

	pool *sandbox.Pool
	corr *correlator.MemCorrelator
}

func EngineTestFixture() *TestFixture {
	f := &TestFixture{
		Chat:       platform.NewFakeChatAPI(),
		Cases:      platform.NewFakeCaseStore(),
		Audit:      &platform.FakeAuditLog{},
		Alerts:     &AlertRecorder{},
		Archives:   archivestore.NewMemArchiveStore(),
		Counters:   countstore.NewMemCountStore(),
		Reputation: reputation.NewMockClient(),
		pool:       sandbox.NewPool(2, 8, nil),
		corr:       correlator.NewMemCorrelator(),
	}
	logger := slog.Default()
	f.Engine = &Engine{
		Logger: logger,
		TriggerDeps: &triggers.Deps{
			Logger:         logger,
			Sandbox:        f.pool,
			Correlator:     f.corr,
			Reputation:     f.Reputation,
			Archives:       f.Archives,
			PatternTimeout: time.Second,
		},
		ActionDeps: &actions.Deps{
			Logger:   logger,
			Chat:     f.Chat,
			Cases:    f.Cases,
			Audit:    f.Audit,
			Notifier: f.Alerts,
		},
		Counters: f.Counters,
		Notifier: f.Alerts,
	}
	return f
}

func (f *TestFixture) Close() {
	f.pool.Close()
	f.corr.Close()
}

// MustLoadRuleSet parses a serialized rule set, panicking on validation
// errors. Test and diagnostic use only.
func MustLoadRuleSet(raw string) *RuleSet {
	rs, err := LoadRuleSet([]byte(raw))
	if err != nil {
		panic(err)
	}
	return rs
}

// MustLoadContext reads a captured event context from a JSON file, for
// replaying historical events through DebugEvaluate.
func MustLoadContext(capPath string) *event.MatchContext {
	raw, err := os.ReadFile(capPath)
	if err != nil {
		panic(err)
	}
	var mc event.MatchContext
	if err := json.Unmarshal(raw, &mc); err != nil {
		panic(err)
	}
	return &mc
}

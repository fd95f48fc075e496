package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"golang.org/x/time/rate"

	"github.com/havenchat/warden/actions"
	"github.com/havenchat/warden/archivestore"
	"github.com/havenchat/warden/correlator"
	"github.com/havenchat/warden/countstore"
	"github.com/havenchat/warden/engine"
	"github.com/havenchat/warden/notify"
	"github.com/havenchat/warden/reputation"
	"github.com/havenchat/warden/sandbox"
	"github.com/havenchat/warden/triggers"
)

const defaultPatternTimeout = 250 * time.Millisecond

type Server struct {
	gatewayURL string
	logger     *slog.Logger
	engine     *engine.Engine
	rdb        *redis.Client

	pool *sandbox.Pool
	corr correlator.Correlator

	// unix millis of the last consumed event, for resuming after restart
	lastEventMS int64
}

type Config struct {
	GatewayURL     string
	PlatformAPIURL string
	RedisURL       string
	ReputationHost string
	WebhookURL     string
	RulesPath      string
	// RuleSet overrides RulesPath when already loaded (dry-run path).
	RuleSet         *engine.RuleSet
	SandboxWorkers  int
	SandboxQueue    int
	PatternTimeout  time.Duration
	ActionRateLimit int
	Logger          *slog.Logger
}

func NewServer(config Config) (*Server, error) {
	logger := config.Logger
	if logger == nil {
		logger = slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
			Level: slog.LevelInfo,
		}))
	}

	if config.GatewayURL != "" && !strings.HasPrefix(config.GatewayURL, "ws") {
		return nil, fmt.Errorf("gateway URL must include 'ws://' or 'wss://'")
	}

	rs := config.RuleSet
	if rs == nil {
		raw, err := os.ReadFile(config.RulesPath)
		if err != nil {
			return nil, fmt.Errorf("reading rule set: %w", err)
		}
		rs, err = engine.LoadRuleSet(raw)
		if err != nil {
			return nil, err
		}
		logger.Info("loaded rule set", "path", config.RulesPath, "rules", len(rs.Rules))
	}

	var counters countstore.CountStore
	var corr correlator.Correlator
	var archives archivestore.ArchiveStore
	var rdb *redis.Client
	if config.RedisURL != "" {
		// generic client, for cursor state
		opt, err := redis.ParseURL(config.RedisURL)
		if err != nil {
			return nil, fmt.Errorf("parsing redis URL: %v", err)
		}
		rdb = redis.NewClient(opt)
		// check redis connection
		if _, err := rdb.Ping(context.TODO()).Result(); err != nil {
			return nil, fmt.Errorf("redis ping failed: %v", err)
		}

		cnt, err := countstore.NewRedisCountStore(config.RedisURL)
		if err != nil {
			return nil, fmt.Errorf("initializing redis countstore: %v", err)
		}
		counters = cnt

		crl, err := correlator.NewRedisCorrelator(config.RedisURL)
		if err != nil {
			return nil, fmt.Errorf("initializing redis correlator: %v", err)
		}
		corr = crl

		arc, err := archivestore.NewRedisArchiveStore(config.RedisURL)
		if err != nil {
			return nil, fmt.Errorf("initializing redis archivestore: %v", err)
		}
		archives = arc
	} else {
		counters = countstore.NewMemCountStore()
		corr = correlator.NewMemCorrelator()
		archives = archivestore.NewMemArchiveStore()
	}

	var repClient reputation.Client
	if config.ReputationHost != "" {
		logger.Info("configuring domain/invite reputation client", "host", config.ReputationHost)
		repClient = reputation.NewCachedClient(
			reputation.NewHTTPClient(config.ReputationHost), 5_000, 30*time.Minute)
	}

	var notifier notify.Notifier
	if config.WebhookURL != "" {
		notifier = notify.NewWebhookNotifier(config.WebhookURL, 10, logger)
	} else {
		notifier = &notify.LogNotifier{Logger: logger}
	}

	pool := sandbox.NewPool(config.SandboxWorkers, config.SandboxQueue, logger)

	actionDeps := &actions.Deps{
		Logger:   logger,
		Notifier: notifier,
	}
	if config.PlatformAPIURL != "" {
		pc := newPlatformClient(config.PlatformAPIURL)
		actionDeps.Chat = pc
		actionDeps.Cases = pc
		actionDeps.Audit = pc
	}

	var limiter *rate.Limiter
	if config.ActionRateLimit > 0 {
		limiter = rate.NewLimiter(rate.Limit(config.ActionRateLimit), config.ActionRateLimit)
	}

	eng := &engine.Engine{
		Logger: logger,
		TriggerDeps: &triggers.Deps{
			Logger:         logger,
			Sandbox:        pool,
			Correlator:     corr,
			Reputation:     repClient,
			Archives:       archives,
			PatternTimeout: config.PatternTimeout,
		},
		ActionDeps:    actionDeps,
		Counters:      counters,
		Notifier:      notifier,
		ActionLimiter: limiter,
	}
	eng.SetRuleSet(rs)

	s := &Server{
		gatewayURL: config.GatewayURL,
		logger:     logger,
		engine:     eng,
		rdb:        rdb,
		pool:       pool,
		corr:       corr,
	}
	return s, nil
}

func (s *Server) Shutdown() {
	s.pool.Close()
	if s.corr != nil {
		s.corr.Close()
	}
	if s.rdb != nil {
		_ = s.rdb.Close()
	}
}

func (s *Server) RunMetrics(listen string) error {
	http.Handle("/metrics", promhttp.Handler())
	return http.ListenAndServe(listen, nil)
}

var cursorKey = "warden/cursor"

func (s *Server) ReadLastCursor(ctx context.Context) (int64, error) {
	// if redis isn't configured, just skip
	if s.rdb == nil {
		s.logger.Info("redis not configured, skipping cursor read")
		return 0, nil
	}

	val, err := s.rdb.Get(ctx, cursorKey).Int64()
	if err == redis.Nil {
		s.logger.Info("no pre-existing cursor in redis")
		return 0, nil
	}
	s.logger.Info("found prior event cursor in redis", "cursor", val)
	return val, err
}

func (s *Server) PersistCursor(ctx context.Context) error {
	// if redis isn't configured, just skip
	if s.rdb == nil {
		return nil
	}
	cur := atomic.LoadInt64(&s.lastEventMS)
	if cur <= 0 {
		return nil
	}
	return s.rdb.Set(ctx, cursorKey, cur, 14*24*time.Hour).Err()
}

// this method runs in a loop, persisting the current cursor state every 5 seconds
func (s *Server) RunPersistCursor(ctx context.Context) error {
	if s.rdb == nil {
		return nil
	}
	ticker := time.NewTicker(5 * time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			if atomic.LoadInt64(&s.lastEventMS) >= 1 {
				s.logger.Info("persisting final cursor value", "cursor", s.lastEventMS)
				if err := s.PersistCursor(context.Background()); err != nil {
					s.logger.Error("failed to persist cursor", "err", err)
				}
			}
			return nil
		case <-ticker.C:
			if atomic.LoadInt64(&s.lastEventMS) >= 1 {
				if err := s.PersistCursor(ctx); err != nil {
					s.logger.Error("failed to persist cursor", "err", err)
				}
			}
		}
	}
}

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"

	"github.com/carlmjohnson/versioninfo"
	_ "github.com/joho/godotenv/autoload"
	cli "github.com/urfave/cli/v2"

	"github.com/havenchat/warden/engine"
)

func main() {
	if err := run(os.Args); err != nil {
		slog.Error("exiting", "err", err)
		os.Exit(-1)
	}
}

func run(args []string) error {

	app := cli.App{
		Name:    "wardend",
		Usage:   "chat moderation rules daemon",
		Version: versioninfo.Short(),
	}

	app.Flags = []cli.Flag{
		&cli.StringFlag{
			Name:    "rules",
			Usage:   "path to the serialized rule set (JSON)",
			Value:   "rules.json",
			EnvVars: []string{"WARDEN_RULES"},
		},
	}

	app.Commands = []*cli.Command{
		runCmd,
		checkCmd,
	}

	return app.Run(args)
}

var runCmd = &cli.Command{
	Name:  "run",
	Usage: "run the service",
	Flags: []cli.Flag{
		&cli.StringFlag{
			Name:    "gateway-url",
			Usage:   "websocket URL of the event gateway to subscribe to",
			Value:   "ws://localhost:6820",
			EnvVars: []string{"WARDEN_GATEWAY_URL"},
		},
		&cli.StringFlag{
			Name:    "platform-api-url",
			Usage:   "base URL of the platform HTTP API (outbound actions)",
			Value:   "http://localhost:6821",
			EnvVars: []string{"WARDEN_PLATFORM_API_URL"},
		},
		&cli.StringFlag{
			Name:    "redis-url",
			Usage:   "redis URL for counters, correlation windows, and archives; empty runs in-memory",
			EnvVars: []string{"WARDEN_REDIS_URL"},
		},
		&cli.StringFlag{
			Name:    "reputation-host",
			Usage:   "base URL of the domain/invite reputation service",
			EnvVars: []string{"WARDEN_REPUTATION_HOST"},
		},
		&cli.StringFlag{
			Name:    "webhook-url",
			Usage:   "operator alert webhook; empty logs alerts instead",
			EnvVars: []string{"WARDEN_WEBHOOK_URL"},
		},
		&cli.StringFlag{
			Name:    "metrics-listen",
			Usage:   "IP or address, and port, to listen on for metrics APIs",
			Value:   ":6880",
			EnvVars: []string{"WARDEN_METRICS_LISTEN"},
		},
		&cli.IntFlag{
			Name:    "sandbox-workers",
			Usage:   "size of the pattern sandbox worker pool",
			Value:   8,
			EnvVars: []string{"WARDEN_SANDBOX_WORKERS"},
		},
		&cli.IntFlag{
			Name:    "sandbox-queue",
			Usage:   "bounded queue depth for sandbox jobs",
			Value:   64,
			EnvVars: []string{"WARDEN_SANDBOX_QUEUE"},
		},
		&cli.DurationFlag{
			Name:    "pattern-timeout",
			Usage:   "hard wall-clock deadline per pattern match",
			Value:   defaultPatternTimeout,
			EnvVars: []string{"WARDEN_PATTERN_TIMEOUT"},
		},
		&cli.IntFlag{
			Name:    "action-rate-limit",
			Usage:   "max moderation API actions per second",
			Value:   10,
			EnvVars: []string{"WARDEN_ACTION_RATE_LIMIT"},
		},
	},
	Action: func(cctx *cli.Context) error {
		ctx := context.Background()
		logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
			Level: slog.LevelInfo,
		}))
		slog.SetDefault(logger)

		srv, err := NewServer(Config{
			GatewayURL:      cctx.String("gateway-url"),
			PlatformAPIURL:  cctx.String("platform-api-url"),
			RedisURL:        cctx.String("redis-url"),
			ReputationHost:  cctx.String("reputation-host"),
			WebhookURL:      cctx.String("webhook-url"),
			RulesPath:       cctx.String("rules"),
			SandboxWorkers:  cctx.Int("sandbox-workers"),
			SandboxQueue:    cctx.Int("sandbox-queue"),
			PatternTimeout:  cctx.Duration("pattern-timeout"),
			ActionRateLimit: cctx.Int("action-rate-limit"),
			Logger:          logger,
		})
		if err != nil {
			return err
		}

		go func() {
			if err := srv.RunMetrics(cctx.String("metrics-listen")); err != nil {
				logger.Error("failed to start metrics endpoint", "err", err)
				panic(fmt.Errorf("failed to start metrics endpoint: %w", err))
			}
		}()
		go func() {
			if err := srv.RunPersistCursor(ctx); err != nil {
				logger.Error("cursor persistence failed", "err", err)
			}
		}()

		if err := srv.RunConsumer(ctx); err != nil {
			return fmt.Errorf("running event consumer: %w", err)
		}
		return nil
	},
}

var checkCmd = &cli.Command{
	Name:      "check",
	Usage:     "dry-run the rule set against a captured event context (JSON file)",
	ArgsUsage: "<event.json>",
	Action: func(cctx *cli.Context) error {
		if cctx.NArg() != 1 {
			return fmt.Errorf("expected one event capture file argument")
		}
		logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
			Level: slog.LevelWarn,
		}))
		slog.SetDefault(logger)

		raw, err := os.ReadFile(cctx.String("rules"))
		if err != nil {
			return fmt.Errorf("reading rule set: %w", err)
		}
		rs, err := engine.LoadRuleSet(raw)
		if err != nil {
			return err
		}

		srv, err := NewServer(Config{
			RuleSet:        rs,
			SandboxWorkers: 2,
			SandboxQueue:   16,
			Logger:         logger,
		})
		if err != nil {
			return err
		}
		defer srv.Shutdown()

		mc := engine.MustLoadContext(cctx.Args().First())
		outcomes := srv.engine.DebugEvaluate(context.Background(), mc)

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(outcomes)
	},
}

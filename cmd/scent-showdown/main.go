package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/akashkarthik473/scent-showdown/assets"
	"github.com/akashkarthik473/scent-showdown/challenge"
	"github.com/akashkarthik473/scent-showdown/config"
	"github.com/akashkarthik473/scent-showdown/extract"
	"github.com/akashkarthik473/scent-showdown/identity"
	"github.com/akashkarthik473/scent-showdown/navigator"
	"github.com/akashkarthik473/scent-showdown/pipeline"
	"github.com/akashkarthik473/scent-showdown/session"
	"github.com/akashkarthik473/scent-showdown/store"
)

func main() {
	// ── 1. Load configuration ───────────────────────────────────────
	cfg := config.Load()

	// ── 2. Initialise structured logging ────────────────────────────
	initLogger(cfg.Log)
	slog.Info("scent-showdown starting",
		"target", cfg.Target.URL,
		"maxAttempts", cfg.Retry.MaxAttempts,
		"maxRecords", cfg.Extract.MaxRecords,
		"db", cfg.Store.Path,
	)

	// Cancel the run on SIGINT/SIGTERM so the browser and the store shut
	// down cleanly.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg); err != nil {
		slog.Error("run failed", "error", err)
		os.Exit(1)
	}
	slog.Info("scent-showdown finished")
}

func run(ctx context.Context, cfg *config.Config) error {
	// ── 3. Open the store ───────────────────────────────────────────
	st, err := store.Open(cfg.Store.Path)
	if err != nil {
		return err
	}
	defer func() {
		if err := st.Close(); err != nil {
			slog.Error("store close failed", "error", err)
		}
	}()

	// ── 4. Compile extraction selectors up front ────────────────────
	engine, err := extract.NewEngine(cfg.Extract)
	if err != nil {
		return err
	}

	// ── 5. Pick a browsing identity and open the stealth session ────
	id := identity.Pick()
	slog.Info("identity selected", "userAgent", id.UserAgent, "timezone", id.Timezone)

	sess, err := session.Open(cfg.Browser, id)
	if err != nil {
		return err
	}
	defer sess.Close()

	// ── 6. Assemble the pipeline ────────────────────────────────────
	fetcher, err := assets.New(cfg.Assets, id.UserAgent)
	if err != nil {
		return err
	}

	nav := navigator.New(sess, challenge.New(cfg.Challenge), cfg.Target, cfg.Retry, cfg.Extract.CardSelectors)
	p := pipeline.New(nav, engine, fetcher, st, cfg.Store.BatchSize, cfg.Assets.Concurrency)

	// ── 7. Run one acquisition cycle ────────────────────────────────
	summary, err := p.Run(ctx)
	if err != nil {
		return err
	}

	total, err := st.Count(ctx)
	if err != nil {
		return err
	}
	slog.Info("ingest summary",
		"extracted", summary.Extracted,
		"stored", summary.Stored,
		"withImages", summary.WithImages,
		"attempts", len(summary.Attempts),
		"totalInStore", total,
	)
	return nil
}

// initLogger configures slog based on the LogConfig.
func initLogger(cfg config.LogConfig) {
	var level slog.Level
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: level}

	var handler slog.Handler
	if cfg.Format == "json" {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}

	slog.SetDefault(slog.New(handler))
}

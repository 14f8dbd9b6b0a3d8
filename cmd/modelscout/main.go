package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/use-agent/modelscout/browser"
	"github.com/use-agent/modelscout/config"
	"github.com/use-agent/modelscout/logging"
	"github.com/use-agent/modelscout/models"
	"github.com/use-agent/modelscout/pipeline"
	"github.com/use-agent/modelscout/scraper"
	"github.com/use-agent/modelscout/webhook"
)

func main() {
	os.Exit(run())
}

func run() (code int) {
	// ── 1. Load configuration ───────────────────────────────────────
	cfg := config.Load()

	// ── 2. Initialise structured logging ────────────────────────────
	logging.Init(cfg.Log)

	defer func() {
		if r := recover(); r != nil {
			slog.Error("unexpected failure", "panic", r)
			code = 1
		}
	}()

	slog.Info("modelscout starting",
		"cdp_endpoint", cfg.Browser.CDPEndpoint,
		"listing_url", cfg.Scraper.ListingURL,
		"api_url", cfg.Scraper.APIURL,
		"extract_mode", cfg.Scraper.ExtractMode,
		"api_fetch_mode", cfg.Scraper.APIFetchMode,
		"output_dir", cfg.Output.Dir,
	)

	// ── 3. Cancel on SIGINT / SIGTERM ───────────────────────────────
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// ── 4. Wire the run ─────────────────────────────────────────────
	conn := browser.NewConnector(cfg.Browser)
	source := scraper.NewTableScraper(conn, cfg.Scraper)
	payloads := scraper.NewAPIFetcher(conn, cfg.Scraper)
	notifier := webhook.New(cfg.Webhook)

	start := time.Now()
	summary, err := pipeline.Run(ctx, cfg.Output, source, payloads, notifier)

	switch {
	case errors.Is(err, context.Canceled) || (err != nil && ctx.Err() != nil):
		slog.Warn("interrupted by user")
		return 0
	case err != nil:
		slog.Error("run failed", "code", models.CodeOf(err), "error", err)
		return 1
	}

	logging.Success("run completed",
		"models", summary.Total,
		"api_models", summary.APIModelCount,
		"elapsed", time.Since(start).Round(time.Millisecond),
	)
	return 0
}

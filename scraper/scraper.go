package scraper

import (
	"context"
	"log/slog"

	"github.com/use-agent/modelscout/browser"
	"github.com/use-agent/modelscout/cleaner"
	"github.com/use-agent/modelscout/config"
	"github.com/use-agent/modelscout/models"
	"github.com/ysmood/gson"
)

// Connector opens a browser session. *browser.Connector satisfies it.
type Connector interface {
	Connect(ctx context.Context) (*browser.Session, error)
}

// TableScraper reads model rows from the listing page's table.
type TableScraper struct {
	conn Connector
	cfg  config.ScraperConfig
}

// NewTableScraper creates a TableScraper.
func NewTableScraper(conn Connector, cfg config.ScraperConfig) *TableScraper {
	return &TableScraper{conn: conn, cfg: cfg}
}

// Scrape returns the normalized records of the listing page. Every failure
// (browser unavailable, navigation, evaluation) is logged and yields an
// empty slice; partial results are never returned.
func (t *TableScraper) Scrape(ctx context.Context) []models.ModelRecord {
	records, err := t.scrape(ctx)
	if err != nil {
		slog.Error("scraping the models table failed",
			"url", t.cfg.ListingURL,
			"error", err,
		)
		return []models.ModelRecord{}
	}
	slog.Info("models extracted", "count", len(records))
	return records
}

// scrape runs one session against the listing page.
//
// Lifecycle:
//
//  1. Connect   – attach to the external browser
//  2. DEFER     – release the session (never the browser)
//  3. Navigate  – load the listing and wait for network idle
//  4. Settle    – give client-side rendering time to finish
//  5. Row wait  – wait for a table row; a miss is only a warning
//  6. Extract   – in-page script, or parse the rendered HTML
//  7. Normalize – dedup and clean
func (t *TableScraper) scrape(ctx context.Context) ([]models.ModelRecord, error) {
	// ── 1. Connect ────────────────────────────────────────────────────
	s, err := t.conn.Connect(ctx)
	if err != nil {
		return nil, err
	}
	// ── 2. Release on every path ──────────────────────────────────────
	defer s.Release()

	// ── 3. Navigate ───────────────────────────────────────────────────
	slog.Info("opening listing page", "url", t.cfg.ListingURL)
	if err := s.Navigate(ctx, t.cfg.ListingURL, t.cfg.NavigationTimeout); err != nil {
		return nil, err
	}

	// ── 4. Settle ─────────────────────────────────────────────────────
	if err := s.Settle(ctx, t.cfg.ListingSettle); err != nil {
		return nil, err
	}

	// ── 5. Row wait ───────────────────────────────────────────────────
	if err := s.WaitFor(ctx, t.cfg.RowSelector, t.cfg.RowWaitTimeout); err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		slog.Warn("table rows did not appear, extracting anyway",
			"selector", t.cfg.RowSelector,
			"error", err,
		)
	} else {
		slog.Debug("table rows found", "selector", t.cfg.RowSelector)
	}

	// ── 6. Extract ────────────────────────────────────────────────────
	slog.Info("extracting models from table", "mode", t.cfg.ExtractMode)
	raw, err := t.extract(ctx, s)
	if err != nil {
		return nil, err
	}
	if len(raw) == 0 {
		slog.Warn("extraction returned no rows")
		return []models.ModelRecord{}, nil
	}

	// ── 7. Normalize ──────────────────────────────────────────────────
	records := cleaner.Normalize(raw)
	slog.Debug("rows normalized", "raw", len(raw), "valid", len(records))
	return records, nil
}

func (t *TableScraper) extract(ctx context.Context, s *browser.Session) ([]any, error) {
	if t.cfg.ExtractMode == config.ExtractModeHTML {
		html, err := s.HTML(ctx)
		if err != nil {
			return nil, err
		}
		return cleaner.ExtractTableRows(html)
	}

	v, err := s.Eval(ctx, extractModelsJS)
	if err != nil {
		return nil, err
	}
	return rowsFromJSON(v), nil
}

// rowsFromJSON unwraps the script result. Anything but an array is no rows.
func rowsFromJSON(v gson.JSON) []any {
	arr, ok := v.Val().([]interface{})
	if !ok {
		return nil
	}
	return arr
}

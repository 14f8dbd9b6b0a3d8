package pipeline

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"

	"github.com/use-agent/modelscout/config"
	"github.com/use-agent/modelscout/models"
	"github.com/use-agent/modelscout/report"
	"github.com/use-agent/modelscout/webhook"
)

// ModelSource produces normalized model records. It reports failure as an
// empty result.
type ModelSource interface {
	Scrape(ctx context.Context) []models.ModelRecord
}

// PayloadSource produces the raw API document. It reports failure as {}.
type PayloadSource interface {
	Fetch(ctx context.Context) json.RawMessage
}

// Notifier is told about a finished run.
type Notifier interface {
	Notify(ctx context.Context, eventType string, data any)
}

// Run scrapes the records, writes them, fetches the API payload, writes
// it, and logs a summary, strictly in that order.
//
// It returns a NO_RECORDS error without fetching the API when nothing was
// scraped, and a PERSISTENCE_FAILED error when either file could not be
// written; a failed records write does not stop the API fetch and write.
// If ctx is cancelled between steps, ctx.Err() is returned.
func Run(ctx context.Context, out config.OutputConfig, source ModelSource, payloads PayloadSource, notify Notifier) (*models.Summary, error) {
	report.Section("scraping free text-to-text models")

	records := source.Scrape(ctx)
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if len(records) == 0 {
		slog.Warn("no model information extracted")
		return nil, models.NewScrapeError(models.ErrCodeNoRecords, "no model information extracted", nil)
	}

	summary := report.Summarize(records)
	summary.ModelsPath = out.ModelsPath()
	summary.APIPath = out.APIPath()

	var writeErr error
	if err := report.WriteModels(summary.ModelsPath, records); err != nil {
		slog.Error("failed to save models", "path", summary.ModelsPath, "error", err)
		writeErr = err
	} else {
		report.LogModelsSaved(summary.ModelsPath, len(records))
	}
	report.LogSummary(summary)

	report.Section("fetching models API")

	payload := payloads.Fetch(ctx)
	if err := ctx.Err(); err != nil {
		return &summary, err
	}
	if isEmptyObject(payload) {
		slog.Warn("no API model data received")
	}
	summary.APIModelCount = report.APIModelCount(payload)

	if err := report.WriteAPIPayload(summary.APIPath, payload); err != nil {
		slog.Error("failed to save API models data", "path", summary.APIPath, "error", err)
		writeErr = errors.Join(writeErr, err)
	} else {
		report.LogAPISaved(summary.APIPath, summary.APIModelCount)
	}

	if writeErr != nil {
		return &summary, writeErr
	}

	if notify != nil {
		notify.Notify(ctx, webhook.EventRunCompleted, summary)
	}
	return &summary, nil
}

func isEmptyObject(payload json.RawMessage) bool {
	trimmed := bytes.TrimSpace(payload)
	return len(trimmed) == 0 || bytes.Equal(trimmed, []byte("{}"))
}

package report

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/tidwall/gjson"
	"github.com/use-agent/modelscout/logging"
	"github.com/use-agent/modelscout/models"
)

// previewSize is how many records the summary shows.
const previewSize = 3

// WriteModels writes records to path as an indented JSON array. The
// parent directory is created if needed. Non-ASCII and HTML characters
// are written as-is.
func WriteModels(path string, records []models.ModelRecord) error {
	if records == nil {
		records = []models.ModelRecord{}
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(records); err != nil {
		return models.NewScrapeError(models.ErrCodePersistence, "failed to encode records", err)
	}
	return writeFile(path, buf.Bytes())
}

// WriteAPIPayload writes the API document to path, re-indented but
// otherwise unchanged. An empty payload is written as {}.
func WriteAPIPayload(path string, payload json.RawMessage) error {
	if len(bytes.TrimSpace(payload)) == 0 {
		payload = json.RawMessage(`{}`)
	}

	var buf bytes.Buffer
	if err := json.Indent(&buf, payload, "", "  "); err != nil {
		return models.NewScrapeError(models.ErrCodePersistence, "API payload is not valid JSON", err)
	}
	buf.WriteByte('\n')
	return writeFile(path, buf.Bytes())
}

func writeFile(path string, data []byte) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return models.NewScrapeError(models.ErrCodePersistence, "failed to create output directory "+dir, err)
		}
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return models.NewScrapeError(models.ErrCodePersistence, "failed to write "+path, err)
	}
	return nil
}

// Summarize computes the record statistics of a run.
func Summarize(records []models.ModelRecord) models.Summary {
	s := models.Summary{Total: len(records)}
	for _, r := range records {
		if r.ID != "" {
			s.WithID++
		}
		if r.Context != "" {
			s.WithContext++
		}
	}
	n := min(previewSize, len(records))
	s.Preview = append([]models.ModelRecord(nil), records[:n]...)
	return s
}

// APIModelCount returns the length of the payload's top-level "data"
// array, or 0 when there is no such array.
func APIModelCount(payload json.RawMessage) int {
	data := gjson.GetBytes(payload, "data")
	if !data.IsArray() {
		return 0
	}
	return len(data.Array())
}

// LogSummary prints the record statistics and a short preview.
func LogSummary(s models.Summary) {
	banner()
	slog.Info("scrape statistics",
		"total", s.Total,
		"with_id", s.WithID,
		"with_context", s.WithContext,
	)
	banner()

	if len(s.Preview) == 0 {
		return
	}
	slog.Info(fmt.Sprintf("first %d models", len(s.Preview)))
	for i, r := range s.Preview {
		args := []any{"n", i + 1, "model", r.Model}
		if r.ID != "" {
			args = append(args, "id", r.ID)
		}
		if r.Context != "" {
			args = append(args, "context_tokens", r.Context)
		}
		slog.Info("model", args...)
	}
}

// LogModelsSaved reports a successful write of the records file.
func LogModelsSaved(path string, count int) {
	logging.Success("saved models", "count", count, "path", path)
}

// LogAPISaved reports a successful write of the API payload file.
func LogAPISaved(path string, count int) {
	logging.Success("saved API models data", "path", path)
	slog.Info("API model count", "count", count)
}

// Section logs a titled separator block.
func Section(title string) {
	banner()
	slog.Info(title)
	banner()
}

func banner() {
	slog.Info(strings.Repeat("=", 60))
}

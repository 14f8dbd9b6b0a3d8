package cleaner

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/use-agent/modelscout/models"
)

var reDigits = regexp.MustCompile(`[0-9]+`)

// Normalize validates, deduplicates and cleans raw extracted rows.
//
// Each element is expected to be a map with "model", "id" and "context"
// keys. Elements of any other shape are skipped, as are rows where both
// model and id are blank. Rows are deduplicated by models.DedupKey; the
// first occurrence wins and input order is preserved. The context is
// reduced to its first run of digits, or "" if it has none.
func Normalize(raw []any) []models.ModelRecord {
	out := make([]models.ModelRecord, 0, len(raw))
	seen := make(map[string]struct{}, len(raw))

	for _, item := range raw {
		row, ok := item.(map[string]any)
		if !ok {
			continue
		}

		name := strings.TrimSpace(field(row, "model"))
		id := strings.TrimSpace(field(row, "id"))
		if name == "" && id == "" {
			continue
		}

		key := models.DedupKey(name, id)
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}

		if name == "" {
			name = id
		}
		out = append(out, models.ModelRecord{
			Model:   name,
			ID:      id,
			Context: contextDigits(field(row, "context")),
		})
	}
	return out
}

// NormalizeRecords runs already-typed records through Normalize.
func NormalizeRecords(records []models.ModelRecord) []models.ModelRecord {
	raw := make([]any, len(records))
	for i, r := range records {
		raw[i] = map[string]any{"model": r.Model, "id": r.ID, "context": r.Context}
	}
	return Normalize(raw)
}

func contextDigits(s string) string {
	return reDigits.FindString(strings.TrimSpace(s))
}

// field coerces a loosely-typed value to a string. Missing and null are "".
func field(row map[string]any, key string) string {
	switch v := row[key].(type) {
	case nil:
		return ""
	case string:
		return v
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	default:
		return fmt.Sprint(v)
	}
}

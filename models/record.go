package models

import "strings"

// ModelRecord is one normalized row of the models listing.
type ModelRecord struct {
	// Model is the human-readable display name.
	Model string `json:"model"`

	// ID is the machine identifier, e.g. "openai/gpt-4o". May be empty.
	ID string `json:"id"`

	// Context is the context-window size as a digit-only string. May be empty.
	Context string `json:"context"`
}

// Key returns the dedup key: the lowercased ID if present, else the
// lowercased display name.
func (r ModelRecord) Key() string {
	return DedupKey(r.Model, r.ID)
}

// DedupKey computes the dedup key for a display name and identifier.
func DedupKey(model, id string) string {
	if id != "" {
		return strings.ToLower(id)
	}
	return strings.ToLower(model)
}

// Summary describes the outcome of one run.
type Summary struct {
	Total         int           `json:"total"`
	WithID        int           `json:"with_id"`
	WithContext   int           `json:"with_context"`
	Preview       []ModelRecord `json:"preview"`
	APIModelCount int           `json:"api_model_count"`
	ModelsPath    string        `json:"models_path"`
	APIPath       string        `json:"api_path"`
}

package report

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/use-agent/modelscout/models"
)

func TestWriteModels(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "data", "models.json")
	records := []models.ModelRecord{
		{Model: "GPT-X <preview>", ID: "openai/gpt-x", Context: "128000"},
		{Model: "通义千问", ID: "", Context: ""},
	}

	if err := WriteModels(path, records); err != nil {
		t.Fatalf("WriteModels: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read back: %v", err)
	}
	text := string(data)

	if !strings.Contains(text, "通义千问") {
		t.Error("non-ASCII characters should be written unescaped")
	}
	if !strings.Contains(text, "<preview>") {
		t.Error("HTML characters should be written unescaped")
	}
	if !strings.Contains(text, "\n  {\n    \"model\"") {
		t.Errorf("expected 2-space indentation, got:\n%s", text)
	}

	var back []models.ModelRecord
	if err := json.Unmarshal(data, &back); err != nil {
		t.Fatalf("output is not valid JSON: %v", err)
	}
	if !reflect.DeepEqual(back, records) {
		t.Errorf("round trip = %+v, want %+v", back, records)
	}
}

func TestWriteModels_EmptyIsArray(t *testing.T) {
	path := filepath.Join(t.TempDir(), "models.json")
	if err := WriteModels(path, nil); err != nil {
		t.Fatalf("WriteModels: %v", err)
	}
	data, _ := os.ReadFile(path)
	if strings.TrimSpace(string(data)) != "[]" {
		t.Errorf("expected [], got %q", data)
	}
}

func TestWriteModels_Unwritable(t *testing.T) {
	dir := t.TempDir()
	blocker := filepath.Join(dir, "file")
	if err := os.WriteFile(blocker, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}

	// The parent "directory" is a regular file, so MkdirAll fails.
	err := WriteModels(filepath.Join(blocker, "models.json"), []models.ModelRecord{{Model: "a"}})
	if err == nil {
		t.Fatal("expected an error")
	}
	var se *models.ScrapeError
	if !errors.As(err, &se) || se.Code != models.ErrCodePersistence {
		t.Errorf("expected PERSISTENCE_FAILED, got %v", err)
	}
}

func TestWriteAPIPayload(t *testing.T) {
	tests := []struct {
		name    string
		payload json.RawMessage
		want    string
	}{
		{"object", json.RawMessage(`{"data":[{"id":"a"}]}`), "{\n  \"data\": [\n    {\n      \"id\": \"a\"\n    }\n  ]\n}\n"},
		{"empty object", json.RawMessage(`{}`), "{}\n"},
		{"nil", nil, "{}\n"},
		{"unicode kept", json.RawMessage(`{"name":"模型"}`), "{\n  \"name\": \"模型\"\n}\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "out", "api.json")
			if err := WriteAPIPayload(path, tt.payload); err != nil {
				t.Fatalf("WriteAPIPayload: %v", err)
			}
			data, err := os.ReadFile(path)
			if err != nil {
				t.Fatal(err)
			}
			if string(data) != tt.want {
				t.Errorf("file = %q, want %q", data, tt.want)
			}
		})
	}
}

func TestSummarize(t *testing.T) {
	records := []models.ModelRecord{
		{Model: "A", ID: "x/a", Context: "1000"},
		{Model: "B", ID: "", Context: "2000"},
		{Model: "C", ID: "x/c", Context: ""},
		{Model: "D", ID: "x/d", Context: "4000"},
	}

	s := Summarize(records)
	if s.Total != 4 || s.WithID != 3 || s.WithContext != 3 {
		t.Errorf("Summarize() = %+v", s)
	}
	if len(s.Preview) != 3 || s.Preview[2].Model != "C" {
		t.Errorf("Preview = %+v, want first three", s.Preview)
	}

	// The preview must not alias the caller's slice.
	s.Preview[0].Model = "changed"
	if records[0].Model != "A" {
		t.Error("Summarize preview aliases the input slice")
	}

	if empty := Summarize(nil); empty.Total != 0 || len(empty.Preview) != 0 {
		t.Errorf("Summarize(nil) = %+v", empty)
	}
}

func TestAPIModelCount(t *testing.T) {
	tests := []struct {
		name    string
		payload string
		want    int
	}{
		{"data array", `{"data":[{"id":"a"},{"id":"b"},{"id":"c"}]}`, 3},
		{"empty array", `{"data":[]}`, 0},
		{"no data", `{}`, 0},
		{"data not array", `{"data":{"id":"a"}}`, 0},
		{"top-level array", `[{"id":"a"}]`, 0},
		{"empty payload", ``, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := APIModelCount(json.RawMessage(tt.payload)); got != tt.want {
				t.Errorf("APIModelCount() = %d, want %d", got, tt.want)
			}
		})
	}
}

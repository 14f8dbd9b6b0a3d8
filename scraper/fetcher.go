package scraper

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/tidwall/gjson"
	"github.com/use-agent/modelscout/cleaner"
	"github.com/use-agent/modelscout/config"
	"github.com/use-agent/modelscout/models"
)

// APIFetcher retrieves the models JSON API, through the attached browser
// or over plain HTTP.
type APIFetcher struct {
	conn Connector
	cfg  config.ScraperConfig
	http *httpFetcher
}

// NewAPIFetcher creates an APIFetcher.
func NewAPIFetcher(conn Connector, cfg config.ScraperConfig) *APIFetcher {
	return &APIFetcher{
		conn: conn,
		cfg:  cfg,
		http: newHTTPFetcher(cfg.Proxy),
	}
}

// EmptyPayload is what Fetch returns when anything goes wrong.
func EmptyPayload() json.RawMessage {
	return json.RawMessage(`{}`)
}

// Fetch returns the API response document. Failures are logged and yield
// an empty JSON object; nothing is retried and partial bodies are never
// parsed.
func (f *APIFetcher) Fetch(ctx context.Context) json.RawMessage {
	payload, err := f.fetch(ctx)
	if err != nil {
		slog.Error("fetching the models API failed",
			"url", f.cfg.APIURL,
			"mode", f.cfg.APIFetchMode,
			"error", err,
		)
		return EmptyPayload()
	}
	slog.Info("API data fetched", "bytes", len(payload))
	return payload
}

func (f *APIFetcher) fetch(ctx context.Context) (json.RawMessage, error) {
	slog.Info("requesting models API", "url", f.cfg.APIURL, "mode", f.cfg.APIFetchMode)

	var text string
	if f.cfg.APIFetchMode == config.FetchModeHTTP {
		body, err := f.http.fetch(ctx, f.cfg.APIURL)
		if err != nil {
			return nil, models.NewScrapeError(models.ErrCodeNavigation, "API request failed", err)
		}
		text = string(body)
	} else {
		var err error
		if text, err = f.fetchViaBrowser(ctx); err != nil {
			return nil, err
		}
	}
	return decodePayload(text)
}

func (f *APIFetcher) fetchViaBrowser(ctx context.Context) (string, error) {
	s, err := f.conn.Connect(ctx)
	if err != nil {
		return "", err
	}
	defer s.Release()

	if err := s.Navigate(ctx, f.cfg.APIURL, f.cfg.NavigationTimeout); err != nil {
		return "", err
	}
	if err := s.Settle(ctx, f.cfg.APISettle); err != nil {
		return "", err
	}

	v, err := s.Eval(ctx, bodyTextJS)
	if err != nil {
		return "", err
	}
	text, _ := v.Val().(string)
	if strings.TrimSpace(text) != "" {
		return text, nil
	}

	// innerText can come back empty while the document still holds the
	// JSON, e.g. in a <pre> the page has not laid out yet.
	html, err := s.HTML(ctx)
	if err != nil {
		return "", err
	}
	slog.Debug("body text empty, falling back to document HTML")
	return cleaner.BodyText([]byte(html)), nil
}

// decodePayload accepts text only if the whole of it is one valid JSON
// document.
func decodePayload(text string) (json.RawMessage, error) {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return nil, models.NewScrapeError(models.ErrCodeExtractionEmpty, "API response body is empty", nil)
	}
	if !gjson.Valid(trimmed) {
		return nil, models.NewScrapeError(
			models.ErrCodeExtractionEmpty,
			"API response is not valid JSON",
			fmt.Errorf("body starts with %q", snippet(trimmed, 64)),
		)
	}
	return json.RawMessage(trimmed), nil
}

func snippet(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "…"
}

package config

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

// Default targets. The listing URL selects free, text-to-text models sorted by newest.
const (
	DefaultListingURL = "https://openrouter.ai/models?fmt=table&input_modalities=text&order=newest&output_modalities=text&q=%3Afree"
	DefaultAPIURL     = "https://openrouter.ai/api/v1/models?use_rss=true"
)

// Extraction and fetch modes.
const (
	ExtractModeScript = "script"
	ExtractModeHTML   = "html"

	FetchModeBrowser = "browser"
	FetchModeHTTP    = "http"
)

// Config holds all application configuration.
type Config struct {
	Browser BrowserConfig
	Scraper ScraperConfig
	Output  OutputConfig
	Webhook WebhookConfig
	Log     LogConfig
}

// BrowserConfig controls how we attach to the operator's browser.
type BrowserConfig struct {
	// CDPEndpoint is the remote debugging address of an already running browser.
	CDPEndpoint string // default: "http://localhost:9222"

	// DefaultTimeout bounds every single page operation.
	DefaultTimeout time.Duration // default: 60s

	// Stealth injects go-rod/stealth evasions before navigation.
	Stealth bool // default: false

	// BlockedResourceTypes lists resource types to block while scraping.
	// Accepted: "Image", "Stylesheet", "Font", "Media". default: none
	BlockedResourceTypes []string
}

// ScraperConfig controls the listing scrape and the API fetch.
type ScraperConfig struct {
	ListingURL string
	APIURL     string

	// NavigationTimeout is the max time for navigation plus network idle.
	NavigationTimeout time.Duration // default: 60s

	// ListingSettle is the pause after the listing page loads.
	ListingSettle time.Duration // default: 5s

	// APISettle is the pause after the API page loads.
	APISettle time.Duration // default: 2s

	// RowWaitTimeout bounds the wait for the first table row.
	RowWaitTimeout time.Duration // default: 15s

	RowSelector string // default: "table tbody tr"

	// ExtractMode is "script" (in-page routine) or "html" (parse rendered HTML).
	ExtractMode string // default: "script"

	// APIFetchMode is "browser" (through the attached browser) or "http".
	APIFetchMode string // default: "browser"

	// Proxy is used by the http fetch mode only.
	Proxy string
}

// OutputConfig controls where results are written.
type OutputConfig struct {
	Dir        string // default: "data"
	ModelsFile string // default: "openrouter-free-text-to-text.json"
	APIFile    string // default: "openrouter-models.json"
}

// ModelsPath is the full path of the normalized records file.
func (o OutputConfig) ModelsPath() string {
	return filepath.Join(o.Dir, o.ModelsFile)
}

// APIPath is the full path of the raw API payload file.
func (o OutputConfig) APIPath() string {
	return filepath.Join(o.Dir, o.APIFile)
}

// WebhookConfig controls the optional completion notification.
type WebhookConfig struct {
	URL    string
	Secret string
}

// LogConfig controls structured logging.
type LogConfig struct {
	Level  string // default: "info"
	Format string // "json" or "text"; default: "text"
}

// Load reads configuration from environment variables with sane defaults.
func Load() *Config {
	return &Config{
		Browser: BrowserConfig{
			CDPEndpoint:          envOr("MODELSCOUT_CDP_ENDPOINT", "http://localhost:9222"),
			DefaultTimeout:       envDurationOr("MODELSCOUT_DEFAULT_TIMEOUT", 60*time.Second),
			Stealth:              envBoolOr("MODELSCOUT_STEALTH", false),
			BlockedResourceTypes: envSliceOr("MODELSCOUT_BLOCKED_RESOURCES", nil),
		},
		Scraper: ScraperConfig{
			ListingURL:        envOr("MODELSCOUT_LISTING_URL", DefaultListingURL),
			APIURL:            envOr("MODELSCOUT_API_URL", DefaultAPIURL),
			NavigationTimeout: envDurationOr("MODELSCOUT_NAV_TIMEOUT", 60*time.Second),
			ListingSettle:     envDurationOr("MODELSCOUT_LISTING_SETTLE", 5*time.Second),
			APISettle:         envDurationOr("MODELSCOUT_API_SETTLE", 2*time.Second),
			RowWaitTimeout:    envDurationOr("MODELSCOUT_ROW_WAIT_TIMEOUT", 15*time.Second),
			RowSelector:       envOr("MODELSCOUT_ROW_SELECTOR", "table tbody tr"),
			ExtractMode:       envOneOf("MODELSCOUT_EXTRACT_MODE", ExtractModeScript, ExtractModeHTML),
			APIFetchMode:      envOneOf("MODELSCOUT_API_FETCH_MODE", FetchModeBrowser, FetchModeHTTP),
			Proxy:             os.Getenv("MODELSCOUT_PROXY"),
		},
		Output: OutputConfig{
			Dir:        envOr("MODELSCOUT_OUTPUT_DIR", "data"),
			ModelsFile: envOr("MODELSCOUT_MODELS_FILE", "openrouter-free-text-to-text.json"),
			APIFile:    envOr("MODELSCOUT_API_FILE", "openrouter-models.json"),
		},
		Webhook: WebhookConfig{
			URL:    os.Getenv("MODELSCOUT_WEBHOOK_URL"),
			Secret: os.Getenv("MODELSCOUT_WEBHOOK_SECRET"),
		},
		Log: LogConfig{
			Level:  envOr("MODELSCOUT_LOG_LEVEL", "info"),
			Format: envOr("MODELSCOUT_LOG_FORMAT", "text"),
		},
	}
}

// --- helper functions ---

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// envOneOf returns the env value if it is one of allowed, otherwise allowed[0].
func envOneOf(key string, allowed ...string) string {
	v := strings.ToLower(strings.TrimSpace(os.Getenv(key)))
	for _, a := range allowed {
		if v == a {
			return v
		}
	}
	return allowed[0]
}

func envBoolOr(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}

func envDurationOr(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}

func envSliceOr(key string, fallback []string) []string {
	if v := os.Getenv(key); v != "" {
		parts := strings.Split(v, ",")
		result := make([]string, 0, len(parts))
		for _, p := range parts {
			if trimmed := strings.TrimSpace(p); trimmed != "" {
				result = append(result, trimmed)
			}
		}
		return result
	}
	return fallback
}

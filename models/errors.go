package models

import (
	"errors"
	"fmt"
)

// Error codes used in logs and for the process exit decision.
const (
	ErrCodeBrowserUnavailable = "BROWSER_UNAVAILABLE"
	ErrCodeNavigation         = "NAVIGATION_FAILED"
	ErrCodeTimeout            = "SCRAPE_TIMEOUT"
	ErrCodeExtractionEmpty    = "EXTRACTION_EMPTY"
	ErrCodePersistence        = "PERSISTENCE_FAILED"
	ErrCodeNoRecords          = "NO_RECORDS"
)

// ErrNoBrowserContext is returned when the attached browser exposes no
// browser context at all.
var ErrNoBrowserContext = errors.New("browser has no available context")

// ScrapeError is the internal error type carrying an error code.
// It implements the error interface and supports error wrapping via Unwrap.
type ScrapeError struct {
	Code    string
	Message string
	Err     error // wrapped original error
}

func (e *ScrapeError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *ScrapeError) Unwrap() error {
	return e.Err
}

// NewScrapeError creates a new ScrapeError.
func NewScrapeError(code, message string, err error) *ScrapeError {
	return &ScrapeError{Code: code, Message: message, Err: err}
}

// CodeOf returns the code of the first ScrapeError in err's chain, or "".
func CodeOf(err error) string {
	var se *ScrapeError
	if errors.As(err, &se) {
		return se.Code
	}
	return ""
}

package browser

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/cdp"
	"github.com/use-agent/modelscout/models"
	"github.com/ysmood/gson"
)

// idleQuiet is how long the network must stay quiet to count as idle.
const idleQuiet = 500 * time.Millisecond

// Session is one automation session on an external browser. Release drops
// the session's websocket and nothing else: the browser, its contexts and
// its pages stay as they are.
type Session struct {
	// Page is the selected page, without any context bound.
	Page *rod.Page

	ws            *cdp.WebSocket
	timeout       time.Duration
	router        *rod.HijackRouter
	removeStealth func() error
	released      bool
}

// Navigate loads url and waits until the network is idle, all within
// timeout. When resource blocking is active the idle wait is replaced by a
// DOM-stable wait, because request hijacking and idle tracking both use
// the Fetch domain.
func (s *Session) Navigate(ctx context.Context, url string, timeout time.Duration) error {
	navCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	p := s.Page.Context(navCtx)

	// The idle listener MUST be armed before Navigate or in-flight
	// requests are missed and the wait returns instantly.
	var waitIdle func()
	if s.router == nil {
		waitIdle = p.WaitRequestIdle(idleQuiet, nil, nil, nil)
	}

	if err := p.Navigate(url); err != nil {
		return categorizeError(err, "navigation to "+url+" failed")
	}

	if waitIdle != nil {
		waitIdle()
	} else if err := p.WaitDOMStable(300*time.Millisecond, 0.1); err != nil {
		return categorizeError(err, "page did not settle")
	}

	if err := navCtx.Err(); err != nil {
		return categorizeError(err, "network did not become idle")
	}
	return nil
}

// Settle pauses for d, or less if ctx ends first.
func (s *Session) Settle(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// WaitFor blocks until at least one element matches selector or timeout
// elapses.
func (s *Session) WaitFor(ctx context.Context, selector string, timeout time.Duration) error {
	waitCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	if _, err := s.Page.Context(waitCtx).Element(selector); err != nil {
		return categorizeError(err, "no element matched "+selector)
	}
	return nil
}

// Eval runs a JS function in the page and returns its JSON value.
func (s *Session) Eval(ctx context.Context, js string) (gson.JSON, error) {
	opCtx, cancel := s.opContext(ctx)
	defer cancel()

	res, err := s.Page.Context(opCtx).Eval(js)
	if err != nil {
		return gson.New(nil), categorizeError(err, "page evaluation failed")
	}
	return res.Value, nil
}

// HTML returns the rendered document HTML.
func (s *Session) HTML(ctx context.Context) (string, error) {
	opCtx, cancel := s.opContext(ctx)
	defer cancel()

	html, err := s.Page.Context(opCtx).HTML()
	if err != nil {
		return "", categorizeError(err, "failed to read page HTML")
	}
	return html, nil
}

// opContext applies the session's default operation timeout.
func (s *Session) opContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, s.timeout)
}

// Release undoes what the session installed on the page and closes the
// session's websocket. It never closes pages or the browser. Calling it
// more than once is harmless.
func (s *Session) Release() {
	if s == nil || s.released {
		return
	}
	s.released = true

	if s.router != nil {
		if err := s.router.Stop(); err != nil {
			slog.Warn("release: failed to stop request hijacking", "error", err)
		}
	}
	if s.removeStealth != nil {
		if err := s.removeStealth(); err != nil {
			slog.Warn("release: failed to remove stealth script", "error", err)
		}
	}
	if s.ws != nil {
		if err := s.ws.Close(); err != nil {
			slog.Debug("release: websocket close", "error", err)
		}
	}
	slog.Debug("browser session released")
}

// categorizeError wraps raw errors into typed ScrapeErrors.
func categorizeError(err error, msg string) *models.ScrapeError {
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return models.NewScrapeError(models.ErrCodeTimeout, msg, err)
	case errors.Is(err, context.Canceled):
		return models.NewScrapeError(models.ErrCodeTimeout, "operation canceled", err)
	default:
		return models.NewScrapeError(models.ErrCodeNavigation, msg, err)
	}
}

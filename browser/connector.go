package browser

import (
	"context"
	"errors"
	"log/slog"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/cdp"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
	"github.com/go-rod/stealth"
	"github.com/use-agent/modelscout/config"
	"github.com/use-agent/modelscout/models"
)

// Connector attaches to a browser that is already listening on a remote
// debugging port. It never launches or closes that browser.
type Connector struct {
	cfg config.BrowserConfig
}

// NewConnector creates a Connector for the configured endpoint.
func NewConnector(cfg config.BrowserConfig) *Connector {
	return &Connector{cfg: cfg}
}

// Connect opens a CDP session and selects a page to work in.
//
// Steps:
//
//  1. Resolve     – turn the HTTP endpoint into the DevTools websocket URL
//  2. Dial        – open our own websocket so Release can drop just that
//  3. Contexts    – fail if the browser exposes no browser context
//  4. Page        – first page of the first context, or a new blank one
//  5. Extras      – stealth script and resource blocking, if configured
//
// On failure the partially built session is released and a
// BROWSER_UNAVAILABLE error is returned. There is no retry.
func (c *Connector) Connect(ctx context.Context) (*Session, error) {
	slog.Info("connecting to browser over CDP", "endpoint", c.cfg.CDPEndpoint)

	s, err := c.connect(ctx)
	if err != nil {
		slog.Error("failed to connect to browser",
			"endpoint", c.cfg.CDPEndpoint,
			"error", err,
		)
		slog.Error("make sure the browser is running with remote debugging enabled, e.g. chrome --remote-debugging-port=9222")
		if s != nil {
			s.Release()
		}
		return nil, models.NewScrapeError(models.ErrCodeBrowserUnavailable, "failed to connect to browser", err)
	}
	return s, nil
}

func (c *Connector) connect(ctx context.Context) (*Session, error) {
	// ── 1. Resolve websocket URL ──────────────────────────────────────
	wsURL, err := launcher.ResolveURL(c.cfg.CDPEndpoint)
	if err != nil {
		return nil, err
	}
	if wsURL == "" {
		return nil, errors.New("endpoint did not report a websocket debugger URL")
	}

	// ── 2. Dial ───────────────────────────────────────────────────────
	ws := &cdp.WebSocket{}
	if err := ws.Connect(ctx, wsURL, nil); err != nil {
		return nil, err
	}
	s := &Session{ws: ws, timeout: c.cfg.DefaultTimeout}

	b := rod.New().Client(cdp.New().Start(ws)).Context(ctx)
	if err := b.Connect(); err != nil {
		return s, err
	}

	// ── 3. Browser contexts ───────────────────────────────────────────
	targets, err := proto.TargetGetTargets{}.Call(b)
	if err != nil {
		return s, err
	}
	contexts := browserContexts(targets.TargetInfos)
	if len(contexts) == 0 {
		return s, models.ErrNoBrowserContext
	}

	// ── 4. Select or create page ──────────────────────────────────────
	page, reused, err := selectPage(b, contexts[0], targets.TargetInfos)
	if err != nil {
		return s, err
	}
	s.Page = page
	if reused {
		info, infoErr := page.Info()
		if infoErr == nil {
			slog.Info("using existing page", "url", info.URL)
		} else {
			slog.Info("using existing page")
		}
	} else {
		slog.Info("created new page")
	}

	// ── 5. Stealth and resource blocking ──────────────────────────────
	if c.cfg.Stealth {
		remove, evalErr := page.EvalOnNewDocument(stealth.JS)
		if evalErr != nil {
			slog.Warn("stealth injection failed, proceeding without stealth", "error", evalErr)
		} else {
			s.removeStealth = remove
		}
	}
	s.router = setupHijack(page, c.cfg.BlockedResourceTypes)

	return s, nil
}

// browserContexts returns the distinct browser context IDs of the given
// targets in order of first appearance.
func browserContexts(infos []*proto.TargetTargetInfo) []proto.BrowserBrowserContextID {
	var ids []proto.BrowserBrowserContextID
	seen := make(map[proto.BrowserBrowserContextID]struct{})
	for _, info := range infos {
		if info == nil || info.BrowserContextID == "" {
			continue
		}
		if _, ok := seen[info.BrowserContextID]; ok {
			continue
		}
		seen[info.BrowserContextID] = struct{}{}
		ids = append(ids, info.BrowserContextID)
	}
	return ids
}

// firstPageTarget returns the first page target that lives in browserCtx.
func firstPageTarget(infos []*proto.TargetTargetInfo, browserCtx proto.BrowserBrowserContextID) (proto.TargetTargetID, bool) {
	for _, info := range infos {
		if info == nil || info.Type != proto.TargetTargetInfoTypePage {
			continue
		}
		if info.BrowserContextID == browserCtx {
			return info.TargetID, true
		}
	}
	return "", false
}

func selectPage(b *rod.Browser, browserCtx proto.BrowserBrowserContextID, infos []*proto.TargetTargetInfo) (*rod.Page, bool, error) {
	if id, ok := firstPageTarget(infos, browserCtx); ok {
		page, err := b.PageFromTarget(id)
		if err == nil {
			return page, true, nil
		}
		slog.Warn("existing page is not usable, opening a new one", "target", id, "error", err)
	}

	page, err := b.Page(proto.TargetCreateTarget{
		URL:              "about:blank",
		BrowserContextID: browserCtx,
	})
	if err != nil {
		return nil, false, err
	}
	return page, false, nil
}

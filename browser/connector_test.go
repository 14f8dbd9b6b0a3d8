package browser

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-rod/rod/lib/proto"
	"github.com/use-agent/modelscout/config"
	"github.com/use-agent/modelscout/models"
)

func TestConnect_UnreachableEndpoint(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	endpoint := srv.URL
	srv.Close() // nothing listens there any more

	c := NewConnector(config.BrowserConfig{CDPEndpoint: endpoint, DefaultTimeout: time.Second})
	s, err := c.Connect(context.Background())
	if err == nil {
		s.Release()
		t.Fatal("expected an error for an unreachable endpoint")
	}
	if s != nil {
		t.Errorf("expected nil session on failure, got %+v", s)
	}
	if code := models.CodeOf(err); code != models.ErrCodeBrowserUnavailable {
		t.Errorf("error code = %q, want %q (err: %v)", code, models.ErrCodeBrowserUnavailable, err)
	}
}

func TestConnect_NotADevToolsServer(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"Browser":"definitely-not-chrome"}`)
	}))
	defer srv.Close()

	c := NewConnector(config.BrowserConfig{CDPEndpoint: srv.URL, DefaultTimeout: time.Second})
	_, err := c.Connect(context.Background())
	if err == nil {
		t.Fatal("expected an error when the endpoint has no websocket debugger URL")
	}
	if code := models.CodeOf(err); code != models.ErrCodeBrowserUnavailable {
		t.Errorf("error code = %q, want %q", code, models.ErrCodeBrowserUnavailable)
	}
}

func TestBrowserContexts(t *testing.T) {
	infos := []*proto.TargetTargetInfo{
		{TargetID: "sw", Type: "service_worker", BrowserContextID: "ctx-a"},
		{TargetID: "p1", Type: proto.TargetTargetInfoTypePage, BrowserContextID: "ctx-b"},
		nil,
		{TargetID: "p2", Type: proto.TargetTargetInfoTypePage, BrowserContextID: "ctx-a"},
		{TargetID: "orphan", Type: proto.TargetTargetInfoTypePage},
	}

	got := browserContexts(infos)
	want := []proto.BrowserBrowserContextID{"ctx-a", "ctx-b"}
	if len(got) != len(want) {
		t.Fatalf("browserContexts() = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("context[%d] = %q, want %q", i, got[i], want[i])
		}
	}

	if ids := browserContexts(nil); len(ids) != 0 {
		t.Errorf("expected no contexts for no targets, got %v", ids)
	}
}

func TestFirstPageTarget(t *testing.T) {
	infos := []*proto.TargetTargetInfo{
		{TargetID: "sw", Type: "service_worker", BrowserContextID: "ctx-a"},
		{TargetID: "p1", Type: proto.TargetTargetInfoTypePage, BrowserContextID: "ctx-b"},
		{TargetID: "p2", Type: proto.TargetTargetInfoTypePage, BrowserContextID: "ctx-a"},
		{TargetID: "p3", Type: proto.TargetTargetInfoTypePage, BrowserContextID: "ctx-a"},
	}

	tests := []struct {
		name   string
		ctx    proto.BrowserBrowserContextID
		wantID proto.TargetTargetID
		wantOK bool
	}{
		{"first page in context", "ctx-a", "p2", true},
		{"other context", "ctx-b", "p1", true},
		{"no pages", "ctx-c", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			id, ok := firstPageTarget(infos, tt.ctx)
			if id != tt.wantID || ok != tt.wantOK {
				t.Errorf("firstPageTarget(%q) = (%q, %v), want (%q, %v)", tt.ctx, id, ok, tt.wantID, tt.wantOK)
			}
		})
	}
}

func TestBlockedSet(t *testing.T) {
	set := blockedSet([]string{"Image", "Font", "Video"})
	if len(set) != 2 {
		t.Fatalf("expected 2 known types, got %d", len(set))
	}
	if _, ok := set[proto.NetworkResourceTypeImage]; !ok {
		t.Error("Image should be blocked")
	}
	if _, ok := set[proto.NetworkResourceTypeStylesheet]; ok {
		t.Error("Stylesheet should not be blocked")
	}
}

func TestSession_Settle(t *testing.T) {
	s := &Session{}

	start := time.Now()
	if err := s.Settle(context.Background(), 20*time.Millisecond); err != nil {
		t.Fatalf("Settle: %v", err)
	}
	if time.Since(start) < 20*time.Millisecond {
		t.Error("Settle returned before the delay elapsed")
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := s.Settle(ctx, time.Hour); !errors.Is(err, context.Canceled) {
		t.Errorf("Settle on cancelled ctx = %v, want context.Canceled", err)
	}

	if err := s.Settle(context.Background(), 0); err != nil {
		t.Errorf("Settle(0) = %v, want nil", err)
	}
}

func TestSession_ReleaseIsIdempotent(t *testing.T) {
	var nilSession *Session
	nilSession.Release()

	s := &Session{}
	s.Release()
	s.Release()
	if !s.released {
		t.Error("session should be marked released")
	}
}

func TestCategorizeError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"deadline", fmt.Errorf("wait: %w", context.DeadlineExceeded), models.ErrCodeTimeout},
		{"canceled", context.Canceled, models.ErrCodeTimeout},
		{"other", errors.New("net::ERR_NAME_NOT_RESOLVED"), models.ErrCodeNavigation},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := categorizeError(tt.err, "nav")
			if got.Code != tt.want {
				t.Errorf("code = %q, want %q", got.Code, tt.want)
			}
			if !errors.Is(got, tt.err) {
				t.Error("categorized error should wrap the original")
			}
		})
	}
}

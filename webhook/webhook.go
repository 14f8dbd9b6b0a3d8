package webhook

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/use-agent/modelscout/config"
)

// SignatureHeader carries the HMAC-SHA256 of the request body.
const SignatureHeader = "X-Modelscout-Signature"

// EventRunCompleted is sent after a run that produced records.
const EventRunCompleted = "run.completed"

// Event is the payload sent to webhook endpoints.
type Event struct {
	Type      string `json:"type"`
	Timestamp int64  `json:"timestamp"`
	Data      any    `json:"data"`
}

// Notifier posts events to the configured URL. A Notifier with an empty
// URL does nothing.
type Notifier struct {
	url    string
	secret string
	client *http.Client
}

// New creates a Notifier from cfg.
func New(cfg config.WebhookConfig) *Notifier {
	return &Notifier{
		url:    cfg.URL,
		secret: cfg.Secret,
		client: &http.Client{Timeout: 10 * time.Second},
	}
}

// Notify sends one event and logs the outcome. Delivery is attempted once.
func (n *Notifier) Notify(ctx context.Context, eventType string, data any) {
	if n == nil || n.url == "" {
		return
	}
	event := &Event{Type: eventType, Timestamp: time.Now().Unix(), Data: data}
	if err := n.deliver(ctx, event); err != nil {
		slog.Warn("webhook delivery failed", "url", n.url, "event", eventType, "error", err)
		return
	}
	slog.Info("webhook delivered", "url", n.url, "event", eventType)
}

// deliver sends an event synchronously. The request body is signed with
// HMAC-SHA256 if secret is non-empty.
// Header: X-Modelscout-Signature: sha256=<hex>
func (n *Notifier) deliver(ctx context.Context, event *Event) error {
	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("webhook: marshal event: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("webhook: create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", "Modelscout-Webhook/1.0")

	if n.secret != "" {
		req.Header.Set(SignatureHeader, "sha256="+Sign(n.secret, body))
	}

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("webhook: deliver: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return fmt.Errorf("webhook: endpoint returned status %d", resp.StatusCode)
	}
	return nil
}

// Sign returns the hex HMAC-SHA256 of body under secret.
func Sign(secret string, body []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}

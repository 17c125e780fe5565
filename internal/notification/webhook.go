package notification

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/Akshit358/Finsage/internal/logger"
	"github.com/Akshit358/Finsage/internal/model"
)

const (
	// SignatureHeader carries hex(HMAC-SHA256(secret, body)) when a secret is set.
	SignatureHeader = "X-Papertrader-Signature"
	eventHeader     = "X-Papertrader-Event"
	traceHeader     = "X-Request-ID"
)

// WebhookConfig configures a WebhookNotifier.
type WebhookConfig struct {
	URL     string
	Secret  string        // optional body signing key
	Events  []string      // event types to forward; empty forwards all
	Timeout time.Duration // default 10s
}

// WebhookNotifier POSTs order events as JSON to an HTTP endpoint.
type WebhookNotifier struct {
	url    string
	secret []byte
	events map[string]bool
	client *http.Client
	now    func() time.Time
}

type webhookPayload struct {
	Type  string      `json:"type"`
	Order model.Order `json:"order"`
	TS    string      `json:"ts"`
}

// NewWebhookNotifier forwards every event to url, unsigned.
func NewWebhookNotifier(url string) *WebhookNotifier {
	return NewWebhook(WebhookConfig{URL: url})
}

// NewWebhook creates a webhook notifier from cfg.
func NewWebhook(cfg WebhookConfig) *WebhookNotifier {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	w := &WebhookNotifier{
		url:    cfg.URL,
		client: &http.Client{Timeout: cfg.Timeout},
		now:    time.Now,
	}
	if cfg.Secret != "" {
		w.secret = []byte(cfg.Secret)
	}
	if len(cfg.Events) > 0 {
		w.events = make(map[string]bool, len(cfg.Events))
		for _, e := range cfg.Events {
			w.events[e] = true
		}
	}
	return w
}

func (w *WebhookNotifier) Name() string { return "webhook" }

// Sign returns the signature header value for body.
func Sign(secret, body []byte) string {
	mac := hmac.New(sha256.New, secret)
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}

// Send implements Notifier. Filtered-out event types are skipped silently.
func (w *WebhookNotifier) Send(ctx context.Context, ev model.OrderEvent) error {
	if w.events != nil && !w.events[ev.Type] {
		return nil
	}
	body, err := json.Marshal(webhookPayload{
		Type:  ev.Type,
		Order: ev.Order,
		TS:    w.now().UTC().Format(time.RFC3339Nano),
	})
	if err != nil {
		return fmt.Errorf("webhook: marshal: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, w.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("webhook: create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(eventHeader, ev.Type)
	if id := logger.TraceID(ctx); id != "" {
		req.Header.Set(traceHeader, id)
	}
	if w.secret != nil {
		req.Header.Set(SignatureHeader, Sign(w.secret, body))
	}

	resp, err := w.client.Do(req)
	if err != nil {
		return fmt.Errorf("webhook: send %s: %w", ev.Order.OrderID, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("webhook: unexpected status %d", resp.StatusCode)
	}
	return nil
}

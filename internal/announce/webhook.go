package announce

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/manav03panchal/alarmd/internal/logging"
)

// DefaultTimeout bounds one webhook or command delivery.
const DefaultTimeout = 30 * time.Second

// webhookPayload is the JSON body posted for each briefing.
type webhookPayload struct {
	Type      string `json:"type"`
	Title     string `json:"title"`
	Message   string `json:"message"`
	TimeSpec  string `json:"time_spec"`
	Label     string `json:"label"`
	News      bool   `json:"news"`
	Weather   bool   `json:"weather"`
	Timestamp string `json:"timestamp"`
}

// WebhookAnnouncer posts briefings as JSON. There is one attempt per
// briefing; a failed delivery is reported and not retried.
type WebhookAnnouncer struct {
	url    string
	client *http.Client
}

// NewWebhookAnnouncer creates an announcer posting to url.
func NewWebhookAnnouncer(url string, timeout time.Duration) *WebhookAnnouncer {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &WebhookAnnouncer{
		url:    url,
		client: &http.Client{Timeout: timeout},
	}
}

// Announce posts b to the webhook.
func (w *WebhookAnnouncer) Announce(ctx context.Context, b Briefing) error {
	body, err := json.Marshal(webhookPayload{
		Type:      "alarm",
		Title:     b.Title,
		Message:   b.Text(),
		TimeSpec:  b.TimeSpec,
		Label:     b.Label,
		News:      b.News,
		Weather:   b.Weather,
		Timestamp: b.FiredAt.UTC().Format(time.RFC3339),
	})
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, w.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", "alarmd/1.0")

	start := time.Now()
	resp, err := w.client.Do(req)
	if err != nil {
		return fmt.Errorf("webhook %s: request failed: %w", logging.MaskURL(w.url), err)
	}
	defer resp.Body.Close()
	snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("webhook %s: HTTP %d: %s", logging.MaskURL(w.url), resp.StatusCode, bytes.TrimSpace(snippet))
	}

	logging.DebugLog("webhook delivered",
		logging.KeyWebhook, logging.MaskURL(w.url),
		logging.KeyStatus, resp.StatusCode,
		logging.KeyDuration, time.Since(start).Milliseconds(),
	)
	return nil
}

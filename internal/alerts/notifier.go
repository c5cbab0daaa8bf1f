package alerts

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// Notifier delivers batched trigger events to webhook endpoints.
// Delivery is fire-and-forget; retrying belongs to the receiving
// channel, not this engine.
type Notifier struct {
	httpClient  *http.Client
	webhookURLs []string
	enabled     bool
	logger      zerolog.Logger
}

// NewNotifier creates a webhook notifier; with no URLs configured it is
// a no-op
func NewNotifier(webhookURLs []string, logger zerolog.Logger) *Notifier {
	return &Notifier{
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
		webhookURLs: webhookURLs,
		enabled:     len(webhookURLs) > 0,
		logger:      logger.With().Str("component", "notifier").Logger(),
	}
}

// SendBatch posts one symbol's batch to every configured webhook. A
// failing webhook is logged and skipped; the rest still receive it.
func (n *Notifier) SendBatch(symbol string, events []*TriggerEvent) error {
	if !n.enabled || len(events) == 0 {
		return nil
	}

	payload, err := json.Marshal(n.formatPayload(symbol, events))
	if err != nil {
		return fmt.Errorf("marshal webhook payload: %w", err)
	}

	for _, url := range n.webhookURLs {
		if err := n.post(url, payload); err != nil {
			n.logger.Error().
				Err(err).
				Str("webhook", url).
				Str("symbol", symbol).
				Int("events", len(events)).
				Msg("failed to send webhook")
			continue
		}

		n.logger.Debug().
			Str("webhook", url).
			Str("symbol", symbol).
			Int("events", len(events)).
			Msg("webhook sent")
	}

	return nil
}

func (n *Notifier) post(url string, payload []byte) error {
	req, err := http.NewRequest(http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := n.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return fmt.Errorf("webhook returned status %d", resp.StatusCode)
	}
	return nil
}

// formatPayload renders the batch as a Discord-style embed, which most
// webhook receivers accept
func (n *Notifier) formatPayload(symbol string, events []*TriggerEvent) map[string]interface{} {
	latest := events[len(events)-1]

	var reasons []string
	for _, ev := range events {
		reasons = append(reasons, ev.Reason)
	}

	fields := []map[string]interface{}{
		{
			"name":   "Price",
			"value":  fmt.Sprintf("$%.2f", latest.Price),
			"inline": true,
		},
		{
			"name":   "Triggers",
			"value":  fmt.Sprintf("%d", len(events)),
			"inline": true,
		},
		{
			"name":   "Time",
			"value":  latest.TriggeredAt.UTC().Format("15:04:05 UTC"),
			"inline": true,
		},
	}

	if latest.NewsSentiment != nil {
		fields = append(fields, map[string]interface{}{
			"name":   "News Sentiment",
			"value":  fmt.Sprintf("%.2f", *latest.NewsSentiment),
			"inline": true,
		})
	}

	return map[string]interface{}{
		"embeds": []map[string]interface{}{
			{
				"title":       fmt.Sprintf("🔔 %s", symbol),
				"description": strings.Join(reasons, "\n"),
				"fields":      fields,
				"timestamp":   latest.TriggeredAt.Format(time.RFC3339),
				"footer": map[string]interface{}{
					"text": "Stock Alert",
				},
			},
		},
	}
}

package subscriptions

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"
)

// Notifier delivers notifications to webhooks
type Notifier struct {
	httpClient *http.Client
	logger     *slog.Logger
	attempts   int
	backoff    time.Duration
}

// NewNotifier creates a new notifier
func NewNotifier(logger *slog.Logger) *Notifier {
	return &Notifier{
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		logger:   logger,
		attempts: 3,
		backoff:  time.Second,
	}
}

// WebhookError is returned when a webhook answers with a non-2xx status
type WebhookError struct {
	URL        string
	StatusCode int
}

func (e *WebhookError) Error() string {
	return fmt.Sprintf("webhook %s returned status %d", e.URL, e.StatusCode)
}

// SendWebhook sends a notification via HTTP POST, retrying with
// quadratic backoff
func (n *Notifier) SendWebhook(ctx context.Context, url string, notification Notification) error {
	payload, err := json.Marshal(notification)
	if err != nil {
		return fmt.Errorf("marshaling notification: %w", err)
	}

	var lastErr error
	for attempt := 0; attempt < n.attempts; attempt++ {
		if attempt > 0 {
			select {
			case <-time.After(time.Duration(attempt*attempt) * n.backoff):
			case <-ctx.Done():
				return ctx.Err()
			}
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
		if err != nil {
			return fmt.Errorf("building webhook request: %w", err)
		}
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("X-Dagoba-Event", notification.Event.Type)
		req.Header.Set("X-Dagoba-Subscription", notification.SubscriptionID)

		resp, err := n.httpClient.Do(req)
		if err != nil {
			lastErr = err
			n.logger.Debug("webhook delivery failed", slog.Int("attempt", attempt+1), slog.Any("error", err))
			continue
		}
		resp.Body.Close()

		if resp.StatusCode >= 200 && resp.StatusCode < 300 {
			return nil
		}
		lastErr = &WebhookError{URL: url, StatusCode: resp.StatusCode}
		n.logger.Debug("webhook delivery rejected", slog.Int("attempt", attempt+1), slog.Int("status", resp.StatusCode))
	}

	return fmt.Errorf("webhook delivery failed after %d attempts: %w", n.attempts, lastErr)
}

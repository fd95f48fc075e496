// Package notify delivers operator-visible alerts (sandbox timeouts,
// action failures, runaway patterns) to a configured webhook channel.
package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/RussellLuo/slidingwindow"
	"github.com/hashicorp/go-retryablehttp"
)

// Notifier sends an operator alert. Implementations must be safe for
// concurrent use.
type Notifier interface {
	Alert(ctx context.Context, text string) error
}

// LogNotifier just logs alerts; the default when no webhook is
// configured.
type LogNotifier struct {
	Logger *slog.Logger
}

func (n *LogNotifier) Alert(ctx context.Context, text string) error {
	logger := n.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger.Warn("operator alert", "text", text)
	return nil
}

// WebhookNotifier posts alerts to an "incoming webhook" style endpoint.
// Alerts are rate-limited with a sliding window so a message flood cannot
// also flood the operators; dropped alerts are logged instead.
type WebhookNotifier struct {
	URL     string
	Logger  *slog.Logger
	client  *retryablehttp.Client
	limiter *slidingwindow.Limiter
}

// NewWebhookNotifier allows up to maxPerMinute webhook posts per sliding
// minute.
func NewWebhookNotifier(url string, maxPerMinute int64, logger *slog.Logger) *WebhookNotifier {
	if logger == nil {
		logger = slog.Default()
	}
	client := retryablehttp.NewClient()
	client.RetryMax = 2
	client.Logger = nil
	lim, _ := slidingwindow.NewLimiter(time.Minute, maxPerMinute, func() (slidingwindow.Window, slidingwindow.StopFunc) {
		return slidingwindow.NewLocalWindow()
	})
	return &WebhookNotifier{
		URL:     url,
		Logger:  logger.With("system", "notify"),
		client:  client,
		limiter: lim,
	}
}

type webhookBody struct {
	Text string `json:"text"`
}

func (n *WebhookNotifier) Alert(ctx context.Context, text string) error {
	if !n.limiter.Allow() {
		alertsDropped.Inc()
		n.Logger.Warn("operator alert dropped by rate limit", "text", text)
		return nil
	}

	body, err := json.Marshal(webhookBody{Text: text})
	if err != nil {
		return err
	}
	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodPost, n.URL, bytes.NewBuffer(body))
	if err != nil {
		return err
	}
	req.Header.Add("Content-Type", "application/json")
	resp, err := n.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("failed alert webhook POST request. status=%d", resp.StatusCode)
	}
	alertsSent.Inc()
	return nil
}

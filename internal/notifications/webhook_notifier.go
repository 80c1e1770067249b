package notifications

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/sony/gobreaker/v2"
)

// WebhookConfig configures the webhook notifier behavior.
type WebhookConfig struct {
	// Endpoint is the collaborator's webhook URL.
	Endpoint string

	// Secret, when set, is sent as the X-Reserva-Secret header.
	Secret string

	// RequestTimeout bounds a single delivery attempt.
	RequestTimeout time.Duration

	// MaxRequests is the maximum number of requests allowed in half-open state.
	MaxRequests uint32

	// Interval is the cyclic period of the closed state.
	Interval time.Duration

	// Timeout is the period of the open state.
	Timeout time.Duration

	// FailureThreshold is the consecutive failure count that trips the
	// breaker.
	FailureThreshold uint32
}

// DefaultWebhookConfig returns a sensible default configuration.
func DefaultWebhookConfig(endpoint string) WebhookConfig {
	return WebhookConfig{
		Endpoint:         endpoint,
		RequestTimeout:   10 * time.Second,
		MaxRequests:      1,
		Interval:         60 * time.Second,
		Timeout:          30 * time.Second,
		FailureThreshold: 5,
	}
}

// WebhookNotifier POSTs notifications to the collaborator endpoint behind a
// circuit breaker, so a dead endpoint sheds load fast instead of tying up
// delivery workers on timeouts.
type WebhookNotifier struct {
	config  WebhookConfig
	client  *http.Client
	breaker *gobreaker.CircuitBreaker[struct{}]
	logger  *slog.Logger
}

// NewWebhookNotifier creates a new WebhookNotifier.
func NewWebhookNotifier(config WebhookConfig, logger *slog.Logger) *WebhookNotifier {
	if logger == nil {
		logger = slog.Default()
	}

	settings := gobreaker.Settings{
		Name:        "webhook-notifier",
		MaxRequests: config.MaxRequests,
		Interval:    config.Interval,
		Timeout:     config.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= config.FailureThreshold
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Info("circuit breaker state changed",
				"breaker", name,
				"from", from.String(),
				"to", to.String(),
			)
		},
	}

	return &WebhookNotifier{
		config:  config,
		client:  &http.Client{Timeout: config.RequestTimeout},
		breaker: gobreaker.NewCircuitBreaker[struct{}](settings),
		logger:  logger,
	}
}

// Notify delivers one notification. An open breaker or a non-2xx response is
// an error; the caller decides whether to redeliver.
func (n *WebhookNotifier) Notify(ctx context.Context, notification Notification) error {
	_, err := n.breaker.Execute(func() (struct{}, error) {
		return struct{}{}, n.deliver(ctx, notification)
	})
	if err != nil {
		n.logger.Warn("webhook delivery failed",
			"event", notification.Event,
			"commitment_id", notification.CommitmentID,
			"error", err,
		)
		return err
	}

	n.logger.Debug("webhook delivered",
		"event", notification.Event,
		"commitment_id", notification.CommitmentID,
	)
	return nil
}

func (n *WebhookNotifier) deliver(ctx context.Context, notification Notification) error {
	payload, err := json.Marshal(notification)
	if err != nil {
		return fmt.Errorf("failed to marshal notification: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.config.Endpoint, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("failed to build webhook request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if n.config.Secret != "" {
		req.Header.Set("X-Reserva-Secret", n.config.Secret)
	}

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("webhook request failed: %w", err)
	}
	defer func() {
		io.Copy(io.Discard, resp.Body)
		resp.Body.Close()
	}()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("webhook returned status %d", resp.StatusCode)
	}
	return nil
}

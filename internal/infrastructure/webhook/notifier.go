// Package webhook provides signed outgoing webhook delivery of alert
// notifications.
package webhook

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/felixgeelhaar/fortify/retry"
	"golang.org/x/sync/errgroup"

	"github.com/felixgeelhaar/pulse/pkg/domain/messaging"
)

// SignatureHeader carries the HMAC-SHA256 of the request body.
const SignatureHeader = "X-Pulse-Signature"

var _ messaging.MessageAdapter = (*Notifier)(nil)

// Notifier delivers notifications to every enabled, matching endpoint.
type Notifier struct {
	endpoints  []messaging.WebhookEndpoint
	client     *http.Client
	deadLetter *DeadLetterStore
	logger     *slog.Logger
	now        func() time.Time
}

// NewNotifier creates a notifier. deadLetter and logger may be nil.
func NewNotifier(endpoints []messaging.WebhookEndpoint, deadLetter *DeadLetterStore, logger *slog.Logger) *Notifier {
	if logger == nil {
		logger = slog.Default()
	}
	return &Notifier{
		endpoints: endpoints,
		client: &http.Client{
			Timeout: 10 * time.Second,
		},
		deadLetter: deadLetter,
		logger:     logger,
		now:        time.Now,
	}
}

// Payload is the JSON body sent to webhook endpoints.
type Payload struct {
	EventType string                  `json:"event_type"`
	Timestamp time.Time               `json:"timestamp"`
	Data      *messaging.Notification `json:"data"`
}

func (n *Notifier) Name() string { return "webhooks" }
func (n *Notifier) Type() string { return "webhook" }

// Send posts the notification to all matching endpoints in parallel and
// waits for every delivery. Endpoints that still fail after their retries
// are dead-lettered and reported in the joined error.
func (n *Notifier) Send(ctx context.Context, note *messaging.Notification) error {
	body, err := json.Marshal(Payload{
		EventType: note.Type,
		Timestamp: note.Timestamp,
		Data:      note,
	})
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}

	errs := make([]error, len(n.endpoints))
	var g errgroup.Group
	for i, ep := range n.endpoints {
		if !ep.Enabled || !messaging.Matches(ep.EventFilters, note.Type) {
			continue
		}
		g.Go(func() error {
			errs[i] = n.deliver(ctx, ep, note.Type, body)
			return nil
		})
	}
	_ = g.Wait()
	return errors.Join(errs...)
}

func (n *Notifier) deliver(ctx context.Context, ep messaging.WebhookEndpoint, eventType string, body []byte) error {
	maxRetries := ep.MaxRetries
	if maxRetries <= 0 {
		maxRetries = 3
	}
	retryDelay := ep.RetryDelay
	if retryDelay <= 0 {
		retryDelay = time.Second
	}

	retryer := retry.New[struct{}](retry.Config{
		MaxAttempts:   maxRetries,
		InitialDelay:  retryDelay,
		BackoffPolicy: retry.BackoffExponential,
	})
	_, err := retryer.Do(ctx, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, n.send(ctx, ep, body)
	})
	if err == nil {
		return nil
	}

	n.logger.Warn("webhook delivery failed", "webhook", ep.Name, "type", eventType, "error", err)
	if n.deadLetter != nil {
		dl := messaging.DeadLetter{
			Timestamp:   n.now().UTC(),
			WebhookName: ep.Name,
			URL:         ep.URL,
			Type:        eventType,
			Payload:     string(body),
			Error:       err.Error(),
			Attempts:    maxRetries,
		}
		if dlErr := n.deadLetter.Append(dl); dlErr != nil {
			n.logger.Error("dead letter append failed", "webhook", ep.Name, "error", dlErr)
		}
	}
	return fmt.Errorf("webhook %s: %w", ep.Name, err)
}

func (n *Notifier) send(ctx context.Context, ep messaging.WebhookEndpoint, body []byte) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, ep.URL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", "Pulse-Webhook/1.0")

	if ep.Secret != "" {
		req.Header.Set(SignatureHeader, Sign(body, ep.Secret))
	}

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode >= 300 {
		return fmt.Errorf("webhook returned status %d", resp.StatusCode)
	}

	return nil
}

// Sign computes the HMAC-SHA256 of the payload using the secret.
func Sign(payload []byte, secret string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(payload)
	return "sha256=" + hex.EncodeToString(mac.Sum(nil))
}

// Verify reports whether signature is Sign(payload, secret), in constant time.
func Verify(payload []byte, secret, signature string) bool {
	return hmac.Equal([]byte(signature), []byte(Sign(payload, secret)))
}

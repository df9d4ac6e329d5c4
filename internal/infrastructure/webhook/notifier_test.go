package webhook

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/felixgeelhaar/pulse/pkg/domain/messaging"
	"github.com/felixgeelhaar/pulse/pkg/domain/warning"
)

func note(typ string) *messaging.Notification {
	return &messaging.Notification{
		Type:      typ,
		InsightID: "ai-warning",
		Severity:  warning.SeverityHigh,
		Title:     "Portfolio warnings",
		Timestamp: time.Date(2026, 5, 10, 9, 0, 0, 0, time.UTC),
	}
}

func TestNotifier_DeliverySuccess(t *testing.T) {
	var received atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		received.Add(1)
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	eps := []messaging.WebhookEndpoint{
		{Name: "a", URL: server.URL, Enabled: true},
		{Name: "b", URL: server.URL, Enabled: true},
		{Name: "off", URL: server.URL},
	}
	n := NewNotifier(eps, nil, nil)
	if err := n.Send(context.Background(), note(messaging.TypeAlertEscalated)); err != nil {
		t.Fatal(err)
	}
	if received.Load() != 2 {
		t.Errorf("expected 2 deliveries, got %d", received.Load())
	}
}

func TestNotifier_HMACSignature(t *testing.T) {
	secret := "test-secret"
	var receivedSig string
	var receivedBody []byte

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		receivedSig = r.Header.Get(SignatureHeader)
		receivedBody, _ = io.ReadAll(r.Body)
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	ep := messaging.WebhookEndpoint{Name: "test", URL: server.URL, Secret: secret, Enabled: true}
	n := NewNotifier([]messaging.WebhookEndpoint{ep}, nil, nil)
	if err := n.Send(context.Background(), note(messaging.TypeAlertEscalated)); err != nil {
		t.Fatal(err)
	}

	if receivedSig == "" {
		t.Fatalf("expected %s header", SignatureHeader)
	}
	if want := Sign(receivedBody, secret); receivedSig != want {
		t.Errorf("signature mismatch: got %s, want %s", receivedSig, want)
	}
	if !Verify(receivedBody, secret, receivedSig) {
		t.Error("Verify should accept the delivered signature")
	}
	if Verify(receivedBody, "other", receivedSig) {
		t.Error("Verify should reject a different secret")
	}
}

func TestNotifier_RetryAndDeadLetter(t *testing.T) {
	var attempts atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	dlStore := NewDeadLetterStore(filepath.Join(t.TempDir(), "deadletters.jsonl"))
	ep := messaging.WebhookEndpoint{
		Name:       "test",
		URL:        server.URL,
		Enabled:    true,
		MaxRetries: 2,
		RetryDelay: 10 * time.Millisecond,
	}

	n := NewNotifier([]messaging.WebhookEndpoint{ep}, dlStore, nil)
	if err := n.Send(context.Background(), note(messaging.TypeAlertEscalated)); err == nil {
		t.Fatal("expected delivery error")
	}

	if attempts.Load() != 2 {
		t.Errorf("expected 2 attempts, got %d", attempts.Load())
	}
	entries, err := dlStore.ReadAll()
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 || entries[0].Attempts != 2 {
		t.Errorf("expected 1 dead letter with 2 attempts, got %+v", entries)
	}
}

func TestNotifier_EventFilter(t *testing.T) {
	var received atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		received.Add(1)
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	ep := messaging.WebhookEndpoint{
		Name:         "test",
		URL:          server.URL,
		Enabled:      true,
		EventFilters: []string{messaging.TypeAlertEscalated},
	}
	n := NewNotifier([]messaging.WebhookEndpoint{ep}, nil, nil)

	tests := []struct {
		typ  string
		want int32
	}{
		{messaging.TypeAlertRecovered, 0},
		{messaging.TypeAlertEscalated, 1},
	}
	for _, tt := range tests {
		t.Run(tt.typ, func(t *testing.T) {
			received.Store(0)
			if err := n.Send(context.Background(), note(tt.typ)); err != nil {
				t.Fatal(err)
			}
			if received.Load() != tt.want {
				t.Errorf("expected %d deliveries, got %d", tt.want, received.Load())
			}
		})
	}
}

func TestPayloadFormat(t *testing.T) {
	var receivedPayload Payload

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(body, &receivedPayload)
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	ep := messaging.WebhookEndpoint{Name: "test", URL: server.URL, Enabled: true}
	n := NewNotifier([]messaging.WebhookEndpoint{ep}, nil, nil)
	if err := n.Send(context.Background(), note(messaging.TypeSummary)); err != nil {
		t.Fatal(err)
	}

	if receivedPayload.EventType != messaging.TypeSummary {
		t.Errorf("expected event_type %s, got %s", messaging.TypeSummary, receivedPayload.EventType)
	}
	if receivedPayload.Data == nil || receivedPayload.Data.InsightID != "ai-warning" {
		t.Errorf("unexpected data %+v", receivedPayload.Data)
	}
}

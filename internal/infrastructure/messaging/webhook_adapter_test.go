package messaging_test

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/felixgeelhaar/pulse/internal/infrastructure/messaging"
	"github.com/felixgeelhaar/pulse/internal/infrastructure/webhook"
	domainmsg "github.com/felixgeelhaar/pulse/pkg/domain/messaging"
)

func TestWebhookAdapter_Send_Success(t *testing.T) {
	var body []byte
	var sig string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("expected POST, got %s", r.Method)
		}
		sig = r.Header.Get(webhook.SignatureHeader)
		body, _ = io.ReadAll(r.Body)
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	adapter := messaging.NewWebhookAdapter(domainmsg.AdapterConfig{Name: "hook", URL: server.URL, Secret: "s3cret", Enabled: true})
	n := &domainmsg.Notification{Type: domainmsg.TypeAlertEscalated, InsightID: "approvals-pending", Timestamp: time.Now()}
	if err := adapter.Send(context.Background(), n); err != nil {
		t.Fatalf("send failed: %v", err)
	}

	var payload webhook.Payload
	if err := json.Unmarshal(body, &payload); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if payload.EventType != domainmsg.TypeAlertEscalated || payload.Data.InsightID != "approvals-pending" {
		t.Errorf("unexpected payload %+v", payload)
	}
	if sig != webhook.Sign(body, "s3cret") {
		t.Errorf("unexpected signature %q", sig)
	}
}

func TestWebhookAdapter_Send_HTTPError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	adapter := messaging.NewWebhookAdapter(domainmsg.AdapterConfig{Name: "hook", URL: server.URL})
	if err := adapter.Send(context.Background(), &domainmsg.Notification{Type: domainmsg.TypeSummary}); err == nil {
		t.Error("expected error for 500 response")
	}
}

func TestWebhookAdapter_Send_ContextCanceled(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	adapter := messaging.NewWebhookAdapter(domainmsg.AdapterConfig{Name: "hook", URL: server.URL})
	if err := adapter.Send(ctx, &domainmsg.Notification{Type: domainmsg.TypeSummary}); err == nil {
		t.Error("expected error for canceled context")
	}
}

func TestWebhookAdapter_NameAndType(t *testing.T) {
	adapter := messaging.NewWebhookAdapter(domainmsg.AdapterConfig{Name: "my-hook"})
	if adapter.Name() != "my-hook" || adapter.Type() != "webhook" {
		t.Errorf("unexpected name/type %s/%s", adapter.Name(), adapter.Type())
	}
}

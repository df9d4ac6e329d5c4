package messaging_test

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/felixgeelhaar/pulse/internal/infrastructure/messaging"
	domainmsg "github.com/felixgeelhaar/pulse/pkg/domain/messaging"
	"github.com/felixgeelhaar/pulse/pkg/domain/warning"
)

func TestSlackAdapter_Send(t *testing.T) {
	tests := []struct {
		name     string
		note     domainmsg.Notification
		contains []string
		excludes []string
	}{
		{
			name:     "escalated",
			note:     domainmsg.Notification{Type: domainmsg.TypeAlertEscalated, Severity: warning.SeverityHigh, Title: "Portfolio warnings", Body: "High: 2 blocked items.", Href: "/insights/flow?days=30"},
			contains: []string{":red_circle:", "*Escalated:* Portfolio warnings", "High: 2 blocked items.", "</insights/flow?days=30|Open>"},
		},
		{
			name:     "eased",
			note:     domainmsg.Notification{Type: domainmsg.TypeAlertEased, Severity: warning.SeverityMedium, Title: "Approvals pending"},
			contains: []string{":large_yellow_circle:", "*Eased:* Approvals pending"},
		},
		{
			name:     "recovered drops body",
			note:     domainmsg.Notification{Type: domainmsg.TypeAlertRecovered, Title: "WBS pulse", Body: "old detail"},
			contains: []string{":white_check_mark:", "*Recovered:* WBS pulse"},
			excludes: []string{"old detail"},
		},
		{
			name:     "summary",
			note:     domainmsg.Notification{Type: domainmsg.TypeSummary, Severity: warning.SeverityInfo, Title: "Portfolio pulse"},
			contains: []string{":large_blue_circle:", "*Portfolio summary:*"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var receivedBody []byte
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				receivedBody, _ = io.ReadAll(r.Body)
				w.WriteHeader(http.StatusOK)
			}))
			defer server.Close()

			adapter := messaging.NewSlackAdapter(domainmsg.AdapterConfig{Name: "test-slack", Type: "slack", URL: server.URL, Enabled: true})
			if err := adapter.Send(context.Background(), &tt.note); err != nil {
				t.Fatalf("send failed: %v", err)
			}

			var payload struct {
				Text string `json:"text"`
			}
			if err := json.Unmarshal(receivedBody, &payload); err != nil {
				t.Fatalf("invalid JSON: %v", err)
			}
			for _, s := range tt.contains {
				if !strings.Contains(payload.Text, s) {
					t.Errorf("text %q missing %q", payload.Text, s)
				}
			}
			for _, s := range tt.excludes {
				if strings.Contains(payload.Text, s) {
					t.Errorf("text %q should not contain %q", payload.Text, s)
				}
			}
		})
	}
}

func TestSlackAdapter_HTTPError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer server.Close()

	adapter := messaging.NewSlackAdapter(domainmsg.AdapterConfig{Name: "s", URL: server.URL})
	if err := adapter.Send(context.Background(), &domainmsg.Notification{Type: domainmsg.TypeSummary}); err == nil {
		t.Error("expected error for 403")
	}
}

func TestSlackAdapter_NameAndType(t *testing.T) {
	adapter := messaging.NewSlackAdapter(domainmsg.AdapterConfig{Name: "my-slack", Type: "slack"})
	if adapter.Name() != "my-slack" || adapter.Type() != "slack" {
		t.Errorf("unexpected name/type %s/%s", adapter.Name(), adapter.Type())
	}
}

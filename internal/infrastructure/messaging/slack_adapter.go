package messaging

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/felixgeelhaar/pulse/pkg/domain/messaging"
	"github.com/felixgeelhaar/pulse/pkg/domain/warning"
)

// SlackAdapter sends notifications to a Slack incoming webhook URL.
type SlackAdapter struct {
	config messaging.AdapterConfig
	client *http.Client
}

// NewSlackAdapter creates a Slack adapter from config.
func NewSlackAdapter(config messaging.AdapterConfig) *SlackAdapter {
	return &SlackAdapter{
		config: config,
		client: &http.Client{Timeout: 10 * time.Second},
	}
}

func (a *SlackAdapter) Name() string { return a.config.Name }
func (a *SlackAdapter) Type() string { return "slack" }

func (a *SlackAdapter) Send(ctx context.Context, n *messaging.Notification) error {
	text := formatSlackMessage(n)

	payload := map[string]interface{}{
		"text": text,
		"blocks": []map[string]interface{}{
			{
				"type": "section",
				"text": map[string]string{
					"type": "mrkdwn",
					"text": text,
				},
			},
		},
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal slack payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.config.URL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")

	resp, err := a.client.Do(req)
	if err != nil {
		return fmt.Errorf("send to slack: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return fmt.Errorf("slack returned status %d", resp.StatusCode)
	}

	return nil
}

func severityEmoji(s warning.Severity) string {
	switch s {
	case warning.SeverityHigh:
		return ":red_circle:"
	case warning.SeverityMedium:
		return ":large_yellow_circle:"
	default:
		return ":large_blue_circle:"
	}
}

func formatSlackMessage(n *messaging.Notification) string {
	var head string
	switch n.Type {
	case messaging.TypeAlertEscalated:
		head = fmt.Sprintf("%s *Escalated:* %s", severityEmoji(n.Severity), n.Title)
	case messaging.TypeAlertEased:
		head = fmt.Sprintf("%s *Eased:* %s", severityEmoji(n.Severity), n.Title)
	case messaging.TypeAlertRecovered:
		head = fmt.Sprintf(":white_check_mark: *Recovered:* %s", n.Title)
	case messaging.TypeSummary:
		head = fmt.Sprintf("%s *Portfolio summary:* %s", severityEmoji(n.Severity), n.Title)
	default:
		head = fmt.Sprintf("Pulse notification: %s", n.Type)
	}

	parts := []string{head}
	if body := strings.TrimSpace(n.Body); body != "" && n.Type != messaging.TypeAlertRecovered {
		parts = append(parts, body)
	}
	if n.Href != "" {
		parts = append(parts, "<"+n.Href+"|Open>")
	}
	return strings.Join(parts, "\n")
}

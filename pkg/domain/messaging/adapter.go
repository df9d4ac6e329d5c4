// Package messaging defines alert notifications and the adapters that carry
// them to external channels.
package messaging

import (
	"context"
	"time"

	"github.com/felixgeelhaar/pulse/pkg/domain/alerting"
	"github.com/felixgeelhaar/pulse/pkg/domain/warning"
)

// Notification types.
const (
	TypeAlertEscalated = "alert.escalated"
	TypeAlertEased     = "alert.eased"
	TypeAlertRecovered = "alert.recovered"
	TypeSummary        = "report.summary"
)

// Notification is the payload delivered to adapters and webhooks.
type Notification struct {
	Type      string           `json:"type"`
	ReportID  string           `json:"report_id,omitempty"`
	InsightID string           `json:"insight_id,omitempty"`
	Severity  warning.Severity `json:"severity"`
	Title     string           `json:"title"`
	Body      string           `json:"body"`
	Href      string           `json:"href,omitempty"`
	From      string           `json:"from,omitempty"`
	To        string           `json:"to,omitempty"`
	Timestamp time.Time        `json:"timestamp"`
}

// FromTransition builds the notification for an alert state change.
func FromTransition(reportID string, tr alerting.Transition, at time.Time) Notification {
	typ := TypeAlertEased
	switch {
	case tr.To == alerting.StateOK:
		typ = TypeAlertRecovered
	case tr.Escalated():
		typ = TypeAlertEscalated
	}
	return Notification{
		Type:      typ,
		ReportID:  reportID,
		InsightID: tr.InsightID,
		Severity:  tr.Insight.Severity,
		Title:     tr.Insight.Title,
		Body:      tr.Insight.Body,
		Href:      tr.Insight.Href,
		From:      tr.From,
		To:        tr.To,
		Timestamp: at,
	}
}

// Matches reports whether typ passes filters. Empty filters match everything.
func Matches(filters []string, typ string) bool {
	if len(filters) == 0 {
		return true
	}
	for _, f := range filters {
		if f == typ {
			return true
		}
	}
	return false
}

// MessageAdapter sends notifications to an external channel.
type MessageAdapter interface {
	Send(ctx context.Context, n *Notification) error
	Name() string
	Type() string
}

// AdapterConfig configures one messaging adapter.
type AdapterConfig struct {
	Name         string            `yaml:"name" json:"name"`
	Type         string            `yaml:"type" json:"type"` // "webhook", "slack"
	URL          string            `yaml:"url" json:"url"`
	Secret       string            `yaml:"secret,omitempty" json:"secret,omitempty"`
	EventFilters []string          `yaml:"event_filters,omitempty" json:"event_filters,omitempty"`
	Enabled      bool              `yaml:"enabled" json:"enabled"`
	Options      map[string]string `yaml:"options,omitempty" json:"options,omitempty"`
}

// MessagingConfig is the content of messaging.yaml.
type MessagingConfig struct {
	Adapters []AdapterConfig `yaml:"adapters" json:"adapters"`
}

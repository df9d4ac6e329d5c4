// Package activity holds the small portfolio signals gathered next to flow
// telemetry: update cadence, pending approvals and change requests.
package activity

import (
	"strings"
	"time"
)

// Feed summarizes project update cadence. Table is the backing activity source;
// nil means the deployment has no activity feed at all.
type Feed struct {
	Table            *string   `json:"table" yaml:"table"`
	StaleProjects7d  int       `json:"stale_projects_7d" yaml:"stale_projects_7d"`
	ActiveProjects7d int       `json:"active_projects_7d" yaml:"active_projects_7d"`
	Events7d         int       `json:"events_7d" yaml:"events_7d"`
	LastEventAt      time.Time `json:"last_event_at,omitempty" yaml:"last_event_at,omitempty"`
}

// HasTable reports whether an activity source exists.
func (f Feed) HasTable() bool {
	return f.Table != nil && strings.TrimSpace(*f.Table) != ""
}

// Approvals is the pending approval backlog over a reporting window.
type Approvals struct {
	Pending int `json:"pending" yaml:"pending"`
	Days    int `json:"days" yaml:"days"`
}

// ChangeRequests is the open change-request backlog.
type ChangeRequests struct {
	Open       int `json:"open" yaml:"open"`
	Critical   int `json:"critical" yaml:"critical"`
	OldestDays int `json:"oldest_days,omitempty" yaml:"oldest_days,omitempty"`
}

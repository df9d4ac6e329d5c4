// Package flow reduces per-project flow telemetry (cycle-time outliers,
// blocked items, bottleneck WIP, 30-day forecast) into one portfolio aggregate.
package flow

import (
	"strings"

	"github.com/felixgeelhaar/pulse/pkg/domain/guard"
)

// Signals is the bundle a flow collector returns. OK=false means "no signal"
// and is never treated as a hard error.
type Signals struct {
	OK       bool            `json:"ok"`
	Days     int             `json:"days"`
	Projects []ProjectSignal `json:"projects"`
	Error    string          `json:"error,omitempty"`
}

// Unavailable builds a degraded bundle carrying the collector's error.
func Unavailable(days int, err error) Signals {
	s := Signals{Days: days}
	if err != nil {
		s.Error = err.Error()
	}
	return s
}

// ProjectSignal is one project's telemetry record. Every group is optional.
type ProjectSignal struct {
	ProjectID            string       `json:"project_id,omitempty"`
	Name                 string       `json:"name,omitempty"`
	AgeCycleOutliers     *Outliers    `json:"age_cycle_outliers,omitempty"`
	CycleTimeVariancePct guard.Number `json:"cycle_time_variance_pct"`
	Blocked              *Blocked     `json:"blocked,omitempty"`
	Bottleneck           *Bottleneck  `json:"bottleneck,omitempty"`
	Forecast             *Forecast    `json:"forecast,omitempty"`
}

// Label returns the best human name for the project.
func (p ProjectSignal) Label() string {
	if s := strings.TrimSpace(p.Name); s != "" {
		return s
	}
	return p.ProjectID
}

// Outliers counts items whose age exceeds the cycle-time distribution.
type Outliers struct {
	Count guard.Number `json:"count"`
}

// Blocked describes blocked work in a project.
type Blocked struct {
	BlockedCount     guard.Number `json:"blocked_count"`
	OpenCount        guard.Number `json:"open_count"`
	BlockedLongCount guard.Number `json:"blocked_long_count"`
}

// Bottleneck names the stage holding the largest WIP share in a project.
type Bottleneck struct {
	TopStage      string       `json:"top_stage"`
	TopStageShare guard.Number `json:"top_stage_share"`
	TopStageWIP   guard.Number `json:"top_stage_wip"`
	TotalWIP      guard.Number `json:"total_wip"`
}

// Forecast is a project's 30-day throughput outlook.
type Forecast struct {
	Due30Open       guard.Number `json:"due_30_open"`
	ExpectedDone30d guard.Number `json:"expected_done_30d"`
	SlipProbability guard.Number `json:"slip_probability"`
}

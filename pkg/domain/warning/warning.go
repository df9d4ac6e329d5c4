// Package warning turns portfolio aggregates into typed, ranked warnings and
// synthesizes the executive narrative from that same ranked list.
package warning

// Kind identifies the rule that produced a warning.
type Kind string

const (
	KindCycleTimeOutliers  Kind = "cycle_time_outliers"
	KindBlockers           Kind = "blockers"
	KindBottleneck         Kind = "bottleneck"
	KindWIPQueueExpansion  Kind = "wip_queue_expansion"
	KindThroughputForecast Kind = "throughput_forecast"
	KindApprovals          Kind = "approvals"
	KindWBSQuality         Kind = "wbs_quality"
	KindFeedCadence        Kind = "feed_cadence"
)

// Kinds lists every kind in priority order.
var Kinds = []Kind{
	KindCycleTimeOutliers,
	KindBlockers,
	KindBottleneck,
	KindWIPQueueExpansion,
	KindThroughputForecast,
	KindApprovals,
	KindWBSQuality,
	KindFeedCadence,
}

// Score returns the fixed priority of a kind. It is the primary sort key and
// does not depend on severity.
func (k Kind) Score() int {
	switch k {
	case KindCycleTimeOutliers:
		return 100
	case KindBlockers:
		return 90
	case KindBottleneck:
		return 80
	case KindWIPQueueExpansion:
		return 75
	case KindThroughputForecast:
		return 70
	case KindApprovals:
		return 40
	case KindWBSQuality:
		return 35
	case KindFeedCadence:
		return 30
	default:
		return 0
	}
}

// IsValid returns true if the kind is a known value.
func (k Kind) IsValid() bool {
	return k.Score() > 0
}

// Severity is the urgency of a warning or insight.
type Severity string

const (
	SeverityHigh   Severity = "high"
	SeverityMedium Severity = "medium"
	SeverityInfo   Severity = "info"
)

// Rank orders severities for tie-breaking: high=3, medium=2, info=1.
func (s Severity) Rank() int {
	switch s {
	case SeverityHigh:
		return 3
	case SeverityMedium:
		return 2
	case SeverityInfo:
		return 1
	default:
		return 0
	}
}

// IsValid returns true if the severity is a known value.
func (s Severity) IsValid() bool {
	return s.Rank() > 0
}

// Max returns the more severe of s and o.
func (s Severity) Max(o Severity) Severity {
	if o.Rank() > s.Rank() {
		return o
	}
	return s
}

// Warning is one ranked finding. Warnings are built once and not mutated.
type Warning struct {
	Kind     Kind           `json:"kind"`
	Severity Severity       `json:"severity"`
	Title    string         `json:"title"`
	Detail   string         `json:"detail"`
	Evidence map[string]any `json:"evidence,omitempty"`
	Href     string         `json:"href,omitempty"`
	Score    int            `json:"score"`
}

func newWarning(kind Kind, sev Severity, title, detail, href string, evidence map[string]any) Warning {
	return Warning{
		Kind:     kind,
		Severity: sev,
		Title:    title,
		Detail:   detail,
		Evidence: evidence,
		Href:     href,
		Score:    kind.Score(),
	}
}

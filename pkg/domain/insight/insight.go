// Package insight assembles the ordered, executive-facing insight list from
// the portfolio aggregates and the ranked warnings.
package insight

import "github.com/felixgeelhaar/pulse/pkg/domain/warning"

// Insight ids emitted by the assembler.
const (
	IDWarnings         = "ai-warning"
	IDChangeRequests   = "change-requests"
	IDApprovals        = "approvals-pending"
	IDWBSEmpty         = "wbs-empty"
	IDWBSMissingEffort = "wbs-missing-effort"
	IDWBSStalled       = "wbs-stalled"
	IDWBSPulse         = "wbs-pulse"
	IDAllClear         = "all-clear"
)

// Insight is one finding shown to the caller. It is built once per request
// and never mutated.
type Insight struct {
	ID       string           `json:"id"`
	Severity warning.Severity `json:"severity"`
	Title    string           `json:"title"`
	Body     string           `json:"body"`
	Href     string           `json:"href,omitempty"`
	Meta     map[string]any   `json:"meta,omitempty"`
}

// TopSeverity returns the most severe level in the list, or info when empty.
func TopSeverity(list []Insight) warning.Severity {
	sev := warning.SeverityInfo
	for _, in := range list {
		sev = sev.Max(in.Severity)
	}
	return sev
}

// Find returns the insight with the given id.
func Find(list []Insight, id string) (Insight, bool) {
	for _, in := range list {
		if in.ID == id {
			return in, true
		}
	}
	return Insight{}, false
}

// Section names a group of insights that can be switched off in config.
type Section string

const (
	SectionWarnings       Section = "warnings"
	SectionChangeRequests Section = "change_requests"
	SectionApprovals      Section = "approvals"
	SectionWBS            Section = "wbs"
)

// AllSections lists every section in output order.
var AllSections = []Section{SectionWarnings, SectionChangeRequests, SectionApprovals, SectionWBS}

// IsValid returns true if the section is a known value.
func (s Section) IsValid() bool {
	for _, v := range AllSections {
		if v == s {
			return true
		}
	}
	return false
}

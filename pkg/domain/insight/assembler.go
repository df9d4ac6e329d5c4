package insight

import (
	"fmt"
	"strings"

	"github.com/felixgeelhaar/pulse/pkg/domain/activity"
	"github.com/felixgeelhaar/pulse/pkg/domain/flow"
	"github.com/felixgeelhaar/pulse/pkg/domain/warning"
	"github.com/felixgeelhaar/pulse/pkg/domain/wbs"
)

// Input is the aggregated snapshot the assembler works from.
type Input struct {
	Flow           flow.Agg
	WBS            wbs.Portfolio
	Approvals      activity.Approvals
	Activity       activity.Feed
	ChangeRequests activity.ChangeRequests
}

// Output is one assembly run. Warnings is the exact ranked list the
// ai-warning insight was narrated from.
type Output struct {
	Insights  []Insight
	Warnings  warning.Ranked
	Narrative string
}

// Assembler builds the insight list. An empty Sections enables everything.
type Assembler struct {
	Sections []Section
	Engine   *warning.Engine
}

func (a Assembler) enabled(s Section) bool {
	if len(a.Sections) == 0 {
		return true
	}
	for _, v := range a.Sections {
		if v == s {
			return true
		}
	}
	return false
}

// Assemble returns the ordered insight list for in.
func (a Assembler) Assemble(in Input) []Insight {
	return a.Build(in).Insights
}

// Build ranks the warnings once, narrates them and appends the independent
// sections. The result always holds at least one insight.
func (a Assembler) Build(in Input) Output {
	engine := a.Engine
	if engine == nil {
		engine = warning.NewEngine()
	}
	ranked := engine.Build(warning.Inputs{
		Flow:      in.Flow,
		Approvals: in.Approvals,
		WBS:       in.WBS,
		Activity:  in.Activity,
	})
	narrative := warning.Narrate(ranked, in.Flow.SlipProbabilityPct)

	var list []Insight
	if a.enabled(SectionWarnings) {
		list = append(list, warningInsight(in, ranked, narrative))
	}
	if a.enabled(SectionChangeRequests) {
		if ins, ok := changeRequestInsight(in.ChangeRequests); ok {
			list = append(list, ins)
		}
	}
	if a.enabled(SectionApprovals) {
		if ins, ok := approvalsInsight(in.Approvals); ok {
			list = append(list, ins)
		}
	}
	if a.enabled(SectionWBS) {
		list = append(list, wbsInsights(in.WBS)...)
	}
	if len(list) == 0 {
		list = append(list, Insight{
			ID:       IDAllClear,
			Severity: warning.SeverityInfo,
			Title:    "All clear",
			Body:     "No open risks, approvals or change requests need attention.",
		})
	}
	return Output{Insights: list, Warnings: ranked, Narrative: narrative}
}

func warningInsight(in Input, ranked warning.Ranked, narrative string) Insight {
	title := "Delivery outlook"
	if top, ok := ranked.Top(); ok {
		title = "Delivery risk: " + top.Title
	}
	return Insight{
		ID:       IDWarnings,
		Severity: ranked.Severity(),
		Title:    title,
		Body:     narrative,
		Href:     warning.FlowHref,
		Meta: map[string]any{
			"flow":      in.Flow,
			"wbs":       in.WBS.Computed,
			"approvals": in.Approvals,
			"activity":  in.Activity,
			"warnings":  ranked,
			"counts": map[string]int{
				"high":   ranked.Count(warning.SeverityHigh),
				"medium": ranked.Count(warning.SeverityMedium),
				"info":   ranked.Count(warning.SeverityInfo),
			},
		},
	}
}

func changeRequestInsight(cr activity.ChangeRequests) (Insight, bool) {
	if cr.Open <= 0 {
		return Insight{}, false
	}
	var sev warning.Severity
	switch {
	case cr.Critical > 0:
		sev = warning.SeverityHigh
	case cr.Open >= 5:
		sev = warning.SeverityMedium
	default:
		sev = warning.SeverityInfo
	}
	body := fmt.Sprintf("%d open, %d critical.", cr.Open, cr.Critical)
	if cr.OldestDays > 0 {
		body += fmt.Sprintf(" Oldest has been open %d days.", cr.OldestDays)
	}
	return Insight{
		ID:       IDChangeRequests,
		Severity: sev,
		Title:    fmt.Sprintf("%d change %s open", cr.Open, plural(cr.Open, "request", "requests")),
		Body:     body,
		Href:     "/change-requests",
		Meta: map[string]any{
			"open":        cr.Open,
			"critical":    cr.Critical,
			"oldest_days": cr.OldestDays,
		},
	}, true
}

func approvalsInsight(a activity.Approvals) (Insight, bool) {
	if a.Pending <= 0 {
		return Insight{}, false
	}
	sev := warning.SeverityMedium
	if a.Pending >= 10 {
		sev = warning.SeverityHigh
	}
	days := warning.NormalizeApprovalDays(a.Days)
	return Insight{
		ID:       IDApprovals,
		Severity: sev,
		Title:    fmt.Sprintf("%d pending %s", a.Pending, plural(a.Pending, "approval", "approvals")),
		Body:     fmt.Sprintf("Requested within the last %d days and still waiting for a decision.", days),
		Href:     warning.ApprovalsHref(a.Days),
		Meta: map[string]any{
			"pending": a.Pending,
			"days":    days,
		},
	}, true
}

func wbsInsights(p wbs.Portfolio) []Insight {
	if p.TotalLeaves == 0 {
		return []Insight{{
			ID:       IDWBSEmpty,
			Severity: warning.SeverityInfo,
			Title:    "No scheduled work packages",
			Body:     "No WBS leaf has a due date in the selected horizon. Add due dates to track delivery pressure.",
			Href:     "/wbs",
			Meta: map[string]any{
				"documents": p.Documents,
				"skipped":   p.Skipped,
			},
		}}
	}

	var out []Insight
	if p.MissingEffort > 0 {
		meta := map[string]any{"missing_effort": p.MissingEffort}
		if p.Sample != nil {
			meta["sample_project"] = p.Sample.ProjectID
			meta["sample_document"] = p.Sample.DocumentID
			meta["sample_rows"] = p.Sample.RowIDs
		}
		out = append(out, Insight{
			ID:       IDWBSMissingEffort,
			Severity: warning.SeverityInfo,
			Title:    fmt.Sprintf("%d %s without effort", p.MissingEffort, plural(p.MissingEffort, "work package", "work packages")),
			Body:     "Estimate hours or a size (S/M/L) so capacity can be planned.",
			Href:     warning.WBSHref(p.Sample),
			Meta:     meta,
		})
	}
	if p.Stalled > 0 {
		out = append(out, Insight{
			ID:       IDWBSStalled,
			Severity: warning.SeverityMedium,
			Title:    fmt.Sprintf("%d stalled %s", p.Stalled, plural(p.Stalled, "work package", "work packages")),
			Body:     "Blocked or on-hold work packages: " + strings.Join(p.StalledIDs, ", ") + ".",
			Href:     "/wbs",
			Meta: map[string]any{
				"stalled":     p.Stalled,
				"stalled_ids": p.StalledIDs,
			},
		})
	}
	out = append(out, pulseInsight(p))
	return out
}

func pulseInsight(p wbs.Portfolio) Insight {
	var sev warning.Severity
	switch {
	case p.Overdue > 0:
		sev = warning.SeverityHigh
	case p.DueSoon() > 0:
		sev = warning.SeverityMedium
	default:
		sev = warning.SeverityInfo
	}
	return Insight{
		ID:       IDWBSPulse,
		Severity: sev,
		Title:    fmt.Sprintf("WBS pulse: %d of %d done", p.Done, p.TotalLeaves),
		Body: fmt.Sprintf("%d remaining, %d overdue. Due in 7 days: %d, 14 days: %d, 30 days: %d, 60 days: %d.",
			p.Remaining, p.Overdue, p.Due7, p.Due14, p.Due30, p.Due60),
		Href: "/wbs",
		Meta: map[string]any{
			"total_leaves": p.TotalLeaves,
			"done":         p.Done,
			"remaining":    p.Remaining,
			"overdue":      p.Overdue,
			"due_7":        p.Due7,
			"due_14":       p.Due14,
			"due_30":       p.Due30,
			"due_60":       p.Due60,
			"documents":    p.Documents,
			"projects":     p.Projects,
		},
	}
}

func plural(n int, one, many string) string {
	if n == 1 {
		return one
	}
	return many
}

package warning

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/felixgeelhaar/pulse/pkg/domain/activity"
	"github.com/felixgeelhaar/pulse/pkg/domain/flow"
	"github.com/felixgeelhaar/pulse/pkg/domain/wbs"
)

// Inputs are the portfolio aggregates every rule evaluates against.
type Inputs struct {
	Flow      flow.Agg           `json:"flow"`
	Approvals activity.Approvals `json:"approvals"`
	WBS       wbs.Portfolio      `json:"wbs"`
	Activity  activity.Feed      `json:"activity"`
}

// Rule inspects the inputs and emits zero or more warnings of one kind.
type Rule interface {
	Kind() Kind
	Evaluate(in Inputs) []Warning
}

// DefaultRules returns the fixed rule table in evaluation order.
func DefaultRules() []Rule {
	return []Rule{
		CycleTimeOutliersRule{},
		BlockersRule{},
		BottleneckRule{},
		WIPQueueExpansionRule{},
		ThroughputForecastRule{},
		ApprovalsRule{},
		WBSQualityRule{},
		FeedCadenceRule{},
	}
}

// FlowHref is the deep link for flow-derived warnings.
const FlowHref = "/insights/flow?days=30"

var approvalWindows = []int{7, 14, 30, 60, 90}

// ApprovalsHref links to the approvals page. That page has no "all" option,
// so the window snaps up to the nearest supported value and defaults to 30.
func ApprovalsHref(days int) string {
	return "/approvals?days=" + strconv.Itoa(NormalizeApprovalDays(days))
}

// NormalizeApprovalDays snaps days to a window the approvals page supports.
func NormalizeApprovalDays(days int) int {
	if days <= 0 {
		return 30
	}
	for _, w := range approvalWindows {
		if days <= w {
			return w
		}
	}
	return approvalWindows[len(approvalWindows)-1]
}

// CycleTimeOutliersRule flags items aging past the cycle-time distribution.
type CycleTimeOutliersRule struct{}

func (CycleTimeOutliersRule) Kind() Kind { return KindCycleTimeOutliers }

func (r CycleTimeOutliersRule) Evaluate(in Inputs) []Warning {
	f := in.Flow
	if f.OutlierCount <= 0 {
		return nil
	}
	sev := SeverityMedium
	if f.CycleTimeVariancePct >= 25 || f.OutlierCount >= 5 {
		sev = SeverityHigh
	}
	return []Warning{newWarning(r.Kind(), sev,
		fmt.Sprintf("%d aging work %s outside normal cycle time", f.OutlierCount, plural(f.OutlierCount, "item", "items")),
		fmt.Sprintf("Cycle-time variance peaks at %s%% across the portfolio.", pct(f.CycleTimeVariancePct)),
		FlowHref,
		map[string]any{
			"outlier_count":           f.OutlierCount,
			"cycle_time_variance_pct": f.CycleTimeVariancePct,
		},
	)}
}

// BlockersRule flags blocked work, long-blocked items first.
type BlockersRule struct{}

func (BlockersRule) Kind() Kind { return KindBlockers }

func (r BlockersRule) Evaluate(in Inputs) []Warning {
	f := in.Flow
	if f.BlockedCount <= 0 && f.BlockedLongCount <= 0 {
		return nil
	}
	var sev Severity
	switch {
	case f.BlockedLongCount > 0 || f.BlockedRatioPct >= 15:
		sev = SeverityHigh
	case f.BlockedRatioPct >= 10:
		sev = SeverityMedium
	default:
		sev = SeverityInfo
	}
	detail := fmt.Sprintf("%d of %d open items are blocked (%s%%).", f.BlockedCount, f.BlockedOpenCount, pct(f.BlockedRatioPct))
	if f.BlockedLongCount > 0 {
		detail += fmt.Sprintf(" %d %s been blocked for a long time.", f.BlockedLongCount, plural(f.BlockedLongCount, "has", "have"))
	}
	return []Warning{newWarning(r.Kind(), sev,
		fmt.Sprintf("%d blocked %s", f.BlockedCount, plural(f.BlockedCount, "item", "items")),
		detail,
		FlowHref,
		map[string]any{
			"blocked_count":      f.BlockedCount,
			"blocked_open_count": f.BlockedOpenCount,
			"blocked_long_count": f.BlockedLongCount,
			"blocked_ratio_pct":  f.BlockedRatioPct,
		},
	)}
}

// BottleneckRule reports the stage with the highest WIP share in the portfolio.
type BottleneckRule struct{}

func (BottleneckRule) Kind() Kind { return KindBottleneck }

func (r BottleneckRule) Evaluate(in Inputs) []Warning {
	f := in.Flow
	if !f.HasBottleneck() {
		return nil
	}
	var sev Severity
	switch {
	case f.TopStageSharePct >= 55:
		sev = SeverityHigh
	case f.TopStageSharePct >= 40:
		sev = SeverityMedium
	default:
		sev = SeverityInfo
	}
	return []Warning{newWarning(r.Kind(), sev,
		fmt.Sprintf("Bottleneck in %q", f.TopStage),
		fmt.Sprintf("%s holds %s of its WIP in %q. Portfolio WIP is %d.",
			projectName(f.TopStageProject), f.BottleneckRatio(), f.TopStage, f.PortfolioWIP),
		FlowHref,
		map[string]any{
			"top_stage":           f.TopStage,
			"top_stage_project":   f.TopStageProject,
			"top_stage_share_pct": f.TopStageSharePct,
			"top_stage_wip":       f.TopStageWIP,
			"top_stage_total_wip": f.TopStageTotalWIP,
			"portfolio_wip":       f.PortfolioWIP,
		},
	)}
}

// WIPQueueExpansionRule escalates a bottleneck that is both dominant and large.
// It only fires when BottleneckRule fires.
type WIPQueueExpansionRule struct{}

func (WIPQueueExpansionRule) Kind() Kind { return KindWIPQueueExpansion }

func (r WIPQueueExpansionRule) Evaluate(in Inputs) []Warning {
	f := in.Flow
	if !f.HasBottleneck() || f.TopStageSharePct < 60 || f.TopStageTotalWIP < 10 {
		return nil
	}
	return []Warning{newWarning(r.Kind(), SeverityHigh,
		fmt.Sprintf("Queue expanding in %q", f.TopStage),
		fmt.Sprintf("%s of WIP is queued in one stage; new work will wait behind it.", f.BottleneckRatio()),
		FlowHref,
		map[string]any{
			"top_stage":           f.TopStage,
			"top_stage_share_pct": f.TopStageSharePct,
			"top_stage_total_wip": f.TopStageTotalWIP,
		},
	)}
}

// ThroughputForecastRule compares open 30-day commitments with expected throughput.
type ThroughputForecastRule struct{}

func (ThroughputForecastRule) Kind() Kind { return KindThroughputForecast }

func (r ThroughputForecastRule) Evaluate(in Inputs) []Warning {
	f := in.Flow
	if f.Due30Open <= 0 {
		return nil
	}
	var sev Severity
	switch {
	case f.SlipProbabilityPct >= 70:
		sev = SeverityHigh
	case f.SlipProbabilityPct >= 45:
		sev = SeverityMedium
	default:
		sev = SeverityInfo
	}
	return []Warning{newWarning(r.Kind(), sev,
		fmt.Sprintf("%d %s due in the next 30 days", f.Due30Open, plural(f.Due30Open, "item", "items")),
		fmt.Sprintf("Expected throughput is %s items; slip probability is %s%%.",
			pct(f.ExpectedDone30d), pct(f.SlipProbabilityPct)),
		FlowHref,
		map[string]any{
			"due_30_open":          f.Due30Open,
			"expected_done_30d":    f.ExpectedDone30d,
			"slip_probability_pct": f.SlipProbabilityPct,
		},
	)}
}

// ApprovalsRule flags a pending approval backlog.
type ApprovalsRule struct{}

func (ApprovalsRule) Kind() Kind { return KindApprovals }

func (r ApprovalsRule) Evaluate(in Inputs) []Warning {
	a := in.Approvals
	if a.Pending <= 0 {
		return nil
	}
	sev := SeverityMedium
	if a.Pending >= 10 {
		sev = SeverityHigh
	}
	return []Warning{newWarning(r.Kind(), sev,
		fmt.Sprintf("%d %s waiting", a.Pending, plural(a.Pending, "approval", "approvals")),
		"Pending approvals hold work that is otherwise ready to move.",
		ApprovalsHref(a.Days),
		map[string]any{
			"pending": a.Pending,
			"days":    NormalizeApprovalDays(a.Days),
		},
	)}
}

// WBSQualityRule flags leaves without effort and stalled work packages.
type WBSQualityRule struct{}

func (WBSQualityRule) Kind() Kind { return KindWBSQuality }

func (r WBSQualityRule) Evaluate(in Inputs) []Warning {
	w := in.WBS
	if w.MissingEffort <= 0 && w.Stalled <= 0 {
		return nil
	}
	sev := SeverityInfo
	if w.Stalled > 0 {
		sev = SeverityMedium
	}
	var parts []string
	if w.MissingEffort > 0 {
		parts = append(parts, fmt.Sprintf("%d %s no effort estimate", w.MissingEffort, plural(w.MissingEffort, "work package has", "work packages have")))
	}
	if w.Stalled > 0 {
		parts = append(parts, fmt.Sprintf("%d %s stalled", w.Stalled, plural(w.Stalled, "is", "are")))
	}
	evidence := map[string]any{
		"missing_effort": w.MissingEffort,
		"stalled":        w.Stalled,
		"total_leaves":   w.TotalLeaves,
	}
	if w.Sample != nil {
		evidence["sample_project"] = w.Sample.ProjectID
		evidence["sample_document"] = w.Sample.DocumentID
	}
	return []Warning{newWarning(r.Kind(), sev,
		"WBS hygiene gaps",
		strings.Join(parts, "; ")+".",
		WBSHref(w.Sample),
		evidence,
	)}
}

// WBSHref links to the sample document when there is one.
func WBSHref(s *wbs.Sample) string {
	if s == nil || s.ProjectID == "" || s.DocumentID == "" {
		return "/wbs"
	}
	return fmt.Sprintf("/projects/%s/wbs/%s", s.ProjectID, s.DocumentID)
}

// FeedCadenceRule flags projects that stopped posting updates.
type FeedCadenceRule struct{}

func (FeedCadenceRule) Kind() Kind { return KindFeedCadence }

func (r FeedCadenceRule) Evaluate(in Inputs) []Warning {
	a := in.Activity
	if !a.HasTable() || a.StaleProjects7d <= 0 {
		return nil
	}
	return []Warning{newWarning(r.Kind(), SeverityMedium,
		fmt.Sprintf("%d %s without updates this week", a.StaleProjects7d, plural(a.StaleProjects7d, "project", "projects")),
		"No activity was recorded in the last 7 days.",
		"/activity?days=7",
		map[string]any{
			"stale_projects_7d":  a.StaleProjects7d,
			"active_projects_7d": a.ActiveProjects7d,
		},
	)}
}

func plural(n int, one, many string) string {
	if n == 1 {
		return one
	}
	return many
}

func pct(f float64) string {
	return strings.TrimSuffix(strconv.FormatFloat(f, 'f', 1, 64), ".0")
}

func projectName(p string) string {
	if p == "" {
		return "One project"
	}
	return "Project " + p
}

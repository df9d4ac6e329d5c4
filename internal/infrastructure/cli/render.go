package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/felixgeelhaar/pulse/pkg/application"
	"github.com/felixgeelhaar/pulse/pkg/domain/flow"
	"github.com/felixgeelhaar/pulse/pkg/domain/warning"
	"github.com/felixgeelhaar/pulse/pkg/domain/wbs"
)

var (
	titleStyle  = lipgloss.NewStyle().Bold(true)
	mutedStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	highStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Bold(true)
	mediumStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("214")).Bold(true)
	infoStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	errorStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	hintStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("245")).Italic(true)
)

func severityStyle(s warning.Severity) lipgloss.Style {
	switch s {
	case warning.SeverityHigh:
		return highStyle
	case warning.SeverityMedium:
		return mediumStyle
	default:
		return infoStyle
	}
}

func severityBadge(s warning.Severity) string {
	return severityStyle(s).Render("[" + strings.ToUpper(string(s)) + "]")
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func reportHeader(w io.Writer, r *application.Report) {
	_, _ = fmt.Fprintf(w, "%s %s\n", titleStyle.Render("Portfolio pulse"), severityBadge(r.Severity))
	_, _ = fmt.Fprintln(w, mutedStyle.Render(fmt.Sprintf("window %dd, horizon %s, generated %s",
		r.Days, r.Horizon, r.GeneratedAt.Format("2006-01-02 15:04 MST"))))
}

func reportFooter(w io.Writer, r *application.Report) {
	if len(r.Degraded) > 0 {
		_, _ = fmt.Fprintln(w, mutedStyle.Render("Degraded collectors: "+strings.Join(r.Degraded, ", ")))
	}
}

func renderReport(w io.Writer, r *application.Report) {
	reportHeader(w, r)
	_, _ = fmt.Fprintln(w)
	for _, in := range r.Insights {
		_, _ = fmt.Fprintf(w, "%s %s\n", severityBadge(in.Severity), titleStyle.Render(in.Title))
		if in.Body != "" {
			_, _ = fmt.Fprintf(w, "    %s\n", strings.ReplaceAll(in.Body, "\n", "\n    "))
		}
		if in.Href != "" {
			_, _ = fmt.Fprintf(w, "    %s\n", mutedStyle.Render("-> "+in.Href))
		}
	}
	reportFooter(w, r)
}

func renderWarnings(w io.Writer, r *application.Report) {
	reportHeader(w, r)
	_, _ = fmt.Fprintf(w, "\n%s\n\n", r.Narrative)
	list := r.Warnings.Warnings()
	if len(list) == 0 {
		_, _ = fmt.Fprintln(w, infoStyle.Render("No warnings."))
	}
	for i, wn := range list {
		_, _ = fmt.Fprintf(w, "%2d. %s %s %s\n", i+1, severityBadge(wn.Severity), titleStyle.Render(wn.Title),
			mutedStyle.Render(fmt.Sprintf("(%s, score %d)", wn.Kind, wn.Score)))
		if wn.Detail != "" {
			_, _ = fmt.Fprintf(w, "    %s\n", wn.Detail)
		}
	}
	reportFooter(w, r)
}

func renderWBS(w io.Writer, p wbs.Portfolio, horizon string) {
	_, _ = fmt.Fprintf(w, "%s %s\n", titleStyle.Render("WBS hygiene"), mutedStyle.Render("horizon "+horizon))
	rows := []struct {
		label string
		value int
	}{
		{"Projects", p.Projects},
		{"Documents", p.Documents},
		{"Skipped documents", p.Skipped},
		{"Leaves in scope", p.TotalLeaves},
		{"Done", p.Done},
		{"Remaining", p.Remaining},
		{"Overdue", p.Overdue},
		{"Due in 7 days", p.Due7},
		{"Due in 8-14 days", p.Due14},
		{"Due in 15-30 days", p.Due30},
		{"Due in 31-60 days", p.Due60},
		{"Missing effort", p.MissingEffort},
		{"Stalled", p.Stalled},
	}
	for _, row := range rows {
		_, _ = fmt.Fprintf(w, "  %-20s %d\n", row.label, row.value)
	}
	if p.Sample != nil && len(p.Sample.RowIDs) > 0 {
		_, _ = fmt.Fprintf(w, "  %-20s %s/%s: %s\n", "Sample", p.Sample.ProjectID, p.Sample.DocumentID, strings.Join(p.Sample.RowIDs, ", "))
	}
}

func renderFlow(w io.Writer, a flow.Agg) {
	_, _ = fmt.Fprintf(w, "%s %s\n", titleStyle.Render("Flow"), mutedStyle.Render(fmt.Sprintf("last %d days", a.Days)))
	if !a.OK {
		msg := "flow telemetry unavailable"
		if a.Error != "" {
			msg += ": " + a.Error
		}
		_, _ = fmt.Fprintln(w, "  "+mediumStyle.Render(msg))
		return
	}
	_, _ = fmt.Fprintf(w, "  %-22s %d\n", "Projects", a.Projects)
	_, _ = fmt.Fprintf(w, "  %-22s %d (variance %.1f%%)\n", "Cycle-time outliers", a.OutlierCount, a.CycleTimeVariancePct)
	_, _ = fmt.Fprintf(w, "  %-22s %d open, %d long, %.1f%% of WIP\n", "Blocked", a.BlockedOpenCount, a.BlockedLongCount, a.BlockedRatioPct)
	if a.HasBottleneck() {
		_, _ = fmt.Fprintf(w, "  %-22s %s in %s, %s\n", "Bottleneck", a.TopStage, a.TopStageProject, a.BottleneckRatio())
	} else {
		_, _ = fmt.Fprintf(w, "  %-22s none\n", "Bottleneck")
	}
	_, _ = fmt.Fprintf(w, "  %-22s %d\n", "Portfolio WIP", a.PortfolioWIP)
	_, _ = fmt.Fprintf(w, "  %-22s %d open, %.1f expected, %.1f%% slip risk\n", "Due in 30 days", a.Due30Open, a.ExpectedDone30d, a.SlipProbabilityPct)
}

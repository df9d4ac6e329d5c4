package warning

import (
	"fmt"
	"strings"
)

// NoRisksNarrative is returned when nothing was ranked.
const NoRisksNarrative = "Portfolio delivery looks stable. No major risks detected in the current signals; keep the weekly review cadence."

// Narrate writes the executive summary for a ranked list. High warnings are
// listed first, then medium ones; info warnings are never narrated. The
// closing action follows the kind of the single top-ranked warning.
// slipPct is quoted verbatim when the top warning is the throughput forecast.
func Narrate(r Ranked, slipPct float64) string {
	top, ok := r.Top()
	if !ok {
		return NoRisksNarrative
	}

	var paragraphs []string
	if lines := narrateSeverity(r, SeverityHigh, "High"); lines != "" {
		paragraphs = append(paragraphs, lines)
	}
	if lines := narrateSeverity(r, SeverityMedium, "Watch"); lines != "" {
		paragraphs = append(paragraphs, lines)
	}
	paragraphs = append(paragraphs, actionLine(top.Kind, slipPct))
	return strings.Join(paragraphs, "\n\n")
}

func narrateSeverity(r Ranked, sev Severity, label string) string {
	var b strings.Builder
	for _, w := range r.items {
		if w.Severity != sev {
			continue
		}
		if b.Len() > 0 {
			b.WriteByte('\n')
		}
		fmt.Fprintf(&b, "%s: %s. %s", label, w.Title, w.Detail)
	}
	return b.String()
}

func actionLine(kind Kind, slipPct float64) string {
	switch kind {
	case KindBlockers, KindCycleTimeOutliers:
		return "Action: escalate blocked and aging items with their owners this week."
	case KindBottleneck, KindWIPQueueExpansion:
		return "Action: reduce WIP in the bottleneck stage before starting new work."
	case KindThroughputForecast:
		return fmt.Sprintf("Action: re-plan the 30-day commitments; slip probability is %s%%.", pct(slipPct))
	case KindApprovals:
		return "Action: clear the pending approvals so ready work can move."
	case KindWBSQuality:
		return "Action: improve estimates and unblock stalled work packages in the WBS."
	case KindFeedCadence:
		return "Action: restore weekly status updates on the quiet projects."
	default:
		return "Action: review the ranked warnings with project leads."
	}
}

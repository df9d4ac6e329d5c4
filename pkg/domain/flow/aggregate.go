package flow

import (
	"fmt"
	"strings"

	"github.com/felixgeelhaar/pulse/pkg/domain/guard"
)

// Agg is the portfolio reduction of Signals.
//
// TopStageTotalWIP is the WIP of the project that produced the winning
// bottleneck share. PortfolioWIP is the sum across all projects and is only
// context; it is never the denominator of the bottleneck ratio.
type Agg struct {
	OK       bool   `json:"ok"`
	Days     int    `json:"days"`
	Projects int    `json:"projects"`
	Error    string `json:"error,omitempty"`

	OutlierCount         int     `json:"outlier_count"`
	CycleTimeVariancePct float64 `json:"cycle_time_variance_pct"`

	BlockedCount     int     `json:"blocked_count"`
	BlockedOpenCount int     `json:"blocked_open_count"`
	BlockedLongCount int     `json:"blocked_long_count"`
	BlockedRatioPct  float64 `json:"blocked_ratio_pct"`

	TopStage         string  `json:"top_stage,omitempty"`
	TopStageProject  string  `json:"top_stage_project,omitempty"`
	TopStageSharePct float64 `json:"top_stage_share_pct"`
	TopStageWIP      int     `json:"top_stage_wip"`
	TopStageTotalWIP int     `json:"top_stage_total_wip"`
	PortfolioWIP     int     `json:"portfolio_wip"`

	Due30Open          int     `json:"due_30_open"`
	ExpectedDone30d    float64 `json:"expected_done_30d"`
	SlipProbabilityPct float64 `json:"slip_probability_pct"`
}

// HasBottleneck reports whether a winning stage with non-zero project WIP exists.
func (a Agg) HasBottleneck() bool {
	return a.TopStage != "" && a.TopStageTotalWIP > 0
}

// BottleneckRatio renders the winning stage's WIP against its own project's
// total, e.g. "7/10 (70%)".
func (a Agg) BottleneckRatio() string {
	return fmt.Sprintf("%d/%d (%s%%)", a.TopStageWIP, a.TopStageTotalWIP, formatPct(a.TopStageSharePct))
}

func formatPct(f float64) string {
	s := fmt.Sprintf("%.1f", f)
	return strings.TrimSuffix(s, ".0")
}

// Aggregate reduces s into an Agg. A failed or empty bundle yields a zero
// aggregate that still echoes OK, Days and Error.
func Aggregate(s Signals) Agg {
	agg := Agg{OK: s.OK, Days: s.Days, Error: s.Error}
	if !s.OK || len(s.Projects) == 0 {
		return agg
	}
	agg.Projects = len(s.Projects)

	// Two accumulators share this loop: the best-so-far bottleneck holder
	// (strict >, first seen wins ties) and the unconditional portfolio WIP sum.
	var (
		haveWinner bool
		bestShare  float64
	)
	for _, p := range s.Projects {
		if p.AgeCycleOutliers != nil {
			agg.OutlierCount += guard.NonNegInt(p.AgeCycleOutliers.Count)
		}
		if v := guard.Round1(p.CycleTimeVariancePct.Float()); v > agg.CycleTimeVariancePct {
			agg.CycleTimeVariancePct = v
		}

		if b := p.Blocked; b != nil {
			agg.BlockedCount += guard.NonNegInt(b.BlockedCount)
			agg.BlockedOpenCount += guard.NonNegInt(b.OpenCount)
			agg.BlockedLongCount += guard.NonNegInt(b.BlockedLongCount)
		}

		if bn := p.Bottleneck; bn != nil {
			total := guard.NonNegInt(bn.TotalWIP)
			agg.PortfolioWIP += total

			stage := strings.TrimSpace(bn.TopStage)
			share := guard.Pct(bn.TopStageShare)
			if stage != "" && (!haveWinner || share > bestShare) {
				haveWinner = true
				bestShare = share
				agg.TopStage = stage
				agg.TopStageProject = p.Label()
				agg.TopStageSharePct = share
				agg.TopStageWIP = guard.NonNegInt(bn.TopStageWIP)
				agg.TopStageTotalWIP = total
			}
		}

		if f := p.Forecast; f != nil {
			agg.Due30Open += guard.NonNegInt(f.Due30Open)
			if v := f.ExpectedDone30d.Float(); v > 0 {
				agg.ExpectedDone30d += v
			}
			if slip := guard.Pct(f.SlipProbability); slip > agg.SlipProbabilityPct {
				agg.SlipProbabilityPct = slip
			}
		}
	}

	agg.ExpectedDone30d = guard.Round1(agg.ExpectedDone30d)
	agg.BlockedRatioPct = guard.Ratio(float64(agg.BlockedCount), float64(agg.BlockedOpenCount))
	return agg
}

package flow_test

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/felixgeelhaar/pulse/pkg/domain/flow"
)

func TestAggregate_NotOK(t *testing.T) {
	agg := flow.Aggregate(flow.Unavailable(30, errors.New("collector down")))
	if agg.OK {
		t.Error("expected OK=false to be echoed")
	}
	if agg.Error != "collector down" || agg.Days != 30 {
		t.Errorf("unexpected echo: %+v", agg)
	}
	zero := flow.Agg{OK: false, Days: 30, Error: "collector down"}
	if agg != zero {
		t.Errorf("expected all-zero aggregate, got %+v", agg)
	}
}

func TestAggregate_EmptyProjects(t *testing.T) {
	agg := flow.Aggregate(flow.Signals{OK: true, Days: 14})
	if agg.Projects != 0 || agg.OutlierCount != 0 || agg.TopStage != "" {
		t.Errorf("expected zero aggregate, got %+v", agg)
	}
}

func TestAggregate_BottleneckWinnerUsesOwnWIP(t *testing.T) {
	s := flow.Signals{
		OK: true,
		Projects: []flow.ProjectSignal{
			{ProjectID: "A", Bottleneck: &flow.Bottleneck{TopStage: "review", TopStageShare: 0.7, TopStageWIP: 7, TotalWIP: 10}},
			{ProjectID: "B", Bottleneck: &flow.Bottleneck{TopStage: "build", TopStageShare: 0.5, TopStageWIP: 20, TotalWIP: 40}},
		},
	}

	agg := flow.Aggregate(s)

	if agg.TopStage != "review" || agg.TopStageProject != "A" {
		t.Errorf("expected project A's review stage to win, got %s/%s", agg.TopStageProject, agg.TopStage)
	}
	if agg.TopStageTotalWIP != 10 {
		t.Errorf("ratio denominator = %d, want winner's WIP 10", agg.TopStageTotalWIP)
	}
	if agg.PortfolioWIP != 50 {
		t.Errorf("portfolio WIP = %d, want 50", agg.PortfolioWIP)
	}
	if got := agg.BottleneckRatio(); got != "7/10 (70%)" {
		t.Errorf("BottleneckRatio() = %q, want %q", got, "7/10 (70%)")
	}
}

func TestAggregate_BottleneckTieKeepsFirst(t *testing.T) {
	s := flow.Signals{
		OK: true,
		Projects: []flow.ProjectSignal{
			{ProjectID: "first", Bottleneck: &flow.Bottleneck{TopStage: "qa", TopStageShare: 45, TopStageWIP: 9, TotalWIP: 20}},
			{ProjectID: "second", Bottleneck: &flow.Bottleneck{TopStage: "dev", TopStageShare: 45, TopStageWIP: 18, TotalWIP: 40}},
			{ProjectID: "nostage", Bottleneck: &flow.Bottleneck{TopStageShare: 90, TotalWIP: 5}},
		},
	}
	agg := flow.Aggregate(s)
	if agg.TopStageProject != "first" || agg.TopStage != "qa" {
		t.Errorf("expected first-seen winner on tie, got %s/%s", agg.TopStageProject, agg.TopStage)
	}
	if agg.PortfolioWIP != 65 {
		t.Errorf("portfolio WIP must include every project, got %d", agg.PortfolioWIP)
	}
}

func TestAggregate_SumsAndMaxima(t *testing.T) {
	s := flow.Signals{
		OK:   true,
		Days: 30,
		Projects: []flow.ProjectSignal{
			{
				AgeCycleOutliers:     &flow.Outliers{Count: 3},
				CycleTimeVariancePct: 18,
				Blocked:              &flow.Blocked{BlockedCount: 2, OpenCount: 10, BlockedLongCount: 1},
				Forecast:             &flow.Forecast{Due30Open: 4, ExpectedDone30d: 2.5, SlipProbability: 0.4},
			},
			{
				AgeCycleOutliers:     &flow.Outliers{Count: 1},
				CycleTimeVariancePct: 31.26,
				Blocked:              &flow.Blocked{BlockedCount: 1, OpenCount: 10},
				Forecast:             &flow.Forecast{Due30Open: 6, ExpectedDone30d: 3, SlipProbability: 72},
			},
			{},
		},
	}

	agg := flow.Aggregate(s)

	if agg.Projects != 3 {
		t.Errorf("projects = %d, want 3", agg.Projects)
	}
	if agg.OutlierCount != 4 {
		t.Errorf("outliers = %d, want 4", agg.OutlierCount)
	}
	if agg.CycleTimeVariancePct != 31.3 {
		t.Errorf("variance = %v, want max 31.3", agg.CycleTimeVariancePct)
	}
	if agg.BlockedCount != 3 || agg.BlockedOpenCount != 20 || agg.BlockedLongCount != 1 {
		t.Errorf("unexpected blocked sums: %+v", agg)
	}
	if agg.BlockedRatioPct != 15 {
		t.Errorf("blocked ratio = %v, want 15", agg.BlockedRatioPct)
	}
	if agg.Due30Open != 10 || agg.ExpectedDone30d != 5.5 {
		t.Errorf("unexpected forecast sums: %+v", agg)
	}
	if agg.SlipProbabilityPct != 72 {
		t.Errorf("slip = %v, want 72", agg.SlipProbabilityPct)
	}
}

func TestAggregate_BlockedRatioZeroDenominator(t *testing.T) {
	agg := flow.Aggregate(flow.Signals{OK: true, Projects: []flow.ProjectSignal{
		{Blocked: &flow.Blocked{BlockedCount: 4}},
	}})
	if agg.BlockedRatioPct != 0 {
		t.Errorf("ratio = %v, want 0 when open count is zero", agg.BlockedRatioPct)
	}
}

func TestSignals_DecodeLenient(t *testing.T) {
	raw := `{
	  "ok": true,
	  "days": 30,
	  "projects": [
	    {
	      "project_id": "p1",
	      "age_cycle_outliers": {"count": "2"},
	      "cycle_time_variance_pct": null,
	      "bottleneck": {"top_stage": "review", "top_stage_share": "0.6", "top_stage_wip": 6, "total_wip": 10}
	    }
	  ]
	}`
	var s flow.Signals
	if err := json.Unmarshal([]byte(raw), &s); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	agg := flow.Aggregate(s)
	if agg.OutlierCount != 2 {
		t.Errorf("outliers = %d, want 2", agg.OutlierCount)
	}
	if agg.TopStageSharePct != 60 {
		t.Errorf("share = %v, want 60", agg.TopStageSharePct)
	}
	if agg.CycleTimeVariancePct != 0 {
		t.Errorf("null variance should be zero, got %v", agg.CycleTimeVariancePct)
	}
}

// Exactly 1 is read as the fraction 1.0, so it means 100%.
func TestAggregate_OneIsAWholeFraction(t *testing.T) {
	s := flow.Signals{
		OK: true,
		Projects: []flow.ProjectSignal{
			{ProjectID: "pct", Bottleneck: &flow.Bottleneck{TopStage: "review", TopStageShare: 60, TopStageWIP: 6, TotalWIP: 10},
				Forecast: &flow.Forecast{SlipProbability: 60}},
			{ProjectID: "frac", Bottleneck: &flow.Bottleneck{TopStage: "deploy", TopStageShare: 1, TopStageWIP: 4, TotalWIP: 4},
				Forecast: &flow.Forecast{SlipProbability: 1}},
		},
	}

	agg := flow.Aggregate(s)

	if agg.TopStageProject != "frac" || agg.TopStageSharePct != 100 {
		t.Errorf("winner = %s at %v%%, want frac at 100%%", agg.TopStageProject, agg.TopStageSharePct)
	}
	if agg.SlipProbabilityPct != 100 {
		t.Errorf("slip = %v, want 100", agg.SlipProbabilityPct)
	}
}

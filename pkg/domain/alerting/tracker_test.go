package alerting_test

import (
	"testing"

	"github.com/felixgeelhaar/pulse/pkg/domain/alerting"
	"github.com/felixgeelhaar/pulse/pkg/domain/insight"
	"github.com/felixgeelhaar/pulse/pkg/domain/warning"
)

func TestMachine_Transitions(t *testing.T) {
	tests := []struct {
		name    string
		initial string
		event   string
		want    string
		changed bool
	}{
		{"ok warn", alerting.StateOK, alerting.EventWarn, alerting.StateWatch, true},
		{"ok escalate", alerting.StateOK, alerting.EventEscalate, alerting.StateAlert, true},
		{"ok recover", alerting.StateOK, alerting.EventRecover, alerting.StateOK, false},
		{"watch escalate", alerting.StateWatch, alerting.EventEscalate, alerting.StateAlert, true},
		{"watch warn", alerting.StateWatch, alerting.EventWarn, alerting.StateWatch, false},
		{"alert warn", alerting.StateAlert, alerting.EventWarn, alerting.StateWatch, true},
		{"alert recover", alerting.StateAlert, alerting.EventRecover, alerting.StateOK, true},
		{"alert escalate", alerting.StateAlert, alerting.EventEscalate, alerting.StateAlert, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, err := alerting.NewMachine("x", tt.initial)
			if err != nil {
				t.Fatalf("NewMachine: %v", err)
			}
			if changed := m.Send(tt.event); changed != tt.changed {
				t.Errorf("changed = %v, want %v", changed, tt.changed)
			}
			if got := m.Current(); got != tt.want {
				t.Errorf("state = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestTracker_NotifiesOnlyOnChange(t *testing.T) {
	tr := alerting.NewTracker()
	high := []insight.Insight{{ID: "ai-warning", Severity: warning.SeverityHigh}}

	first, err := tr.Observe(high)
	if err != nil {
		t.Fatal(err)
	}
	if len(first) != 1 || first[0].To != alerting.StateAlert || !first[0].Escalated() {
		t.Fatalf("first observe = %+v", first)
	}

	again, err := tr.Observe(high)
	if err != nil {
		t.Fatal(err)
	}
	if len(again) != 0 {
		t.Errorf("unchanged severity must not transition, got %+v", again)
	}

	down, err := tr.Observe([]insight.Insight{{ID: "ai-warning", Severity: warning.SeverityMedium}})
	if err != nil {
		t.Fatal(err)
	}
	if len(down) != 1 || down[0].From != alerting.StateAlert || down[0].To != alerting.StateWatch || down[0].Escalated() {
		t.Errorf("downgrade = %+v", down)
	}
}

func TestTracker_MissingInsightRecovers(t *testing.T) {
	tr := alerting.NewTracker()
	if _, err := tr.Observe([]insight.Insight{
		{ID: "wbs-pulse", Severity: warning.SeverityHigh},
		{ID: "approvals-pending", Severity: warning.SeverityMedium},
	}); err != nil {
		t.Fatal(err)
	}

	got, err := tr.Observe([]insight.Insight{{ID: "wbs-pulse", Severity: warning.SeverityHigh}})
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 1 || got[0].InsightID != "approvals-pending" || got[0].To != alerting.StateOK {
		t.Errorf("got %+v", got)
	}
	if s := tr.State("approvals-pending"); s != alerting.StateOK {
		t.Errorf("state = %s", s)
	}
	if s := tr.State("unknown"); s != alerting.StateOK {
		t.Errorf("unknown state = %s", s)
	}
}

package application_test

import (
	"context"
	"errors"
	"testing"

	"github.com/felixgeelhaar/pulse/pkg/application"
	"github.com/felixgeelhaar/pulse/pkg/domain"
	"github.com/felixgeelhaar/pulse/pkg/domain/alerting"
	"github.com/felixgeelhaar/pulse/pkg/domain/insight"
	"github.com/felixgeelhaar/pulse/pkg/domain/messaging"
	"github.com/felixgeelhaar/pulse/pkg/domain/warning"
)

func reportWith(id string, sev warning.Severity) *application.Report {
	return &application.Report{
		ID:        id,
		Severity:  sev,
		Narrative: "narrative " + id,
		Insights: []insight.Insight{
			{ID: insight.IDWarnings, Severity: sev, Title: "Delivery risk", Href: warning.FlowHref},
		},
	}
}

func TestAlertService_ProcessNotifiesOnTransitions(t *testing.T) {
	adapter := &MockAdapter{AdapterName: "slack"}
	repo := &MockAuditRepo{}
	svc := application.NewAlertService([]messaging.MessageAdapter{adapter}, application.NewAuditService(repo), nil)
	ctx := context.Background()

	trs, err := svc.Process(ctx, reportWith("r1", warning.SeverityHigh))
	if err != nil {
		t.Fatal(err)
	}
	if len(trs) != 1 || trs[0].To != alerting.StateAlert {
		t.Fatalf("transitions = %+v", trs)
	}

	if trs, _ = svc.Process(ctx, reportWith("r2", warning.SeverityHigh)); len(trs) != 0 {
		t.Errorf("repeated severity should be silent, got %+v", trs)
	}

	if _, err := svc.Process(ctx, reportWith("r3", warning.SeverityInfo)); err != nil {
		t.Fatal(err)
	}

	if len(adapter.Sent) != 2 {
		t.Fatalf("expected 2 notifications, got %d", len(adapter.Sent))
	}
	if adapter.Sent[0].Type != messaging.TypeAlertEscalated || adapter.Sent[0].ReportID != "r1" {
		t.Errorf("first = %+v", adapter.Sent[0])
	}
	if adapter.Sent[1].Type != messaging.TypeAlertRecovered {
		t.Errorf("second = %+v", adapter.Sent[1])
	}
	if svc.State(insight.IDWarnings) != alerting.StateOK {
		t.Errorf("state = %s", svc.State(insight.IDWarnings))
	}
	if len(repo.Events) != 2 || repo.Events[0].Action != domain.ActionAlertSent {
		t.Errorf("audit events = %+v", repo.Events)
	}
}

func TestAlertService_SummaryReportsFailures(t *testing.T) {
	ok := &MockAdapter{AdapterName: "ok"}
	bad := &MockAdapter{AdapterName: "bad", Err: errBoom}
	repo := &MockAuditRepo{}
	svc := application.NewAlertService([]messaging.MessageAdapter{ok, bad}, application.NewAuditService(repo), nil)

	err := svc.Summary(context.Background(), reportWith("r1", warning.SeverityMedium))
	if !errors.Is(err, errBoom) {
		t.Fatalf("expected adapter error, got %v", err)
	}
	if len(ok.Sent) != 1 || ok.Sent[0].Type != messaging.TypeSummary || ok.Sent[0].Body != "narrative r1" {
		t.Errorf("summary = %+v", ok.Sent)
	}
	if len(repo.Events) != 2 || repo.Events[1].Action != domain.ActionAlertFailed {
		t.Errorf("audit events = %+v", repo.Events)
	}
}

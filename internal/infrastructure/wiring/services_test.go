package wiring

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/felixgeelhaar/pulse/internal/infrastructure/sse"
	"github.com/felixgeelhaar/pulse/pkg/domain"
	"github.com/felixgeelhaar/pulse/pkg/domain/insight"
)

func TestBuildAppServicesUninitialized(t *testing.T) {
	svc, err := BuildAppServices(context.Background(), t.TempDir(), nil)
	if err != nil {
		t.Fatal(err)
	}
	defer svc.Close()

	if !errors.Is(svc.RequireInitialized(), domain.ErrNotInitialized) {
		t.Error("expected ErrNotInitialized")
	}
	if _, err := svc.Refresh(context.Background(), svc.DefaultRequest("test")); !errors.Is(err, domain.ErrNotInitialized) {
		t.Errorf("expected ErrNotInitialized from refresh, got %v", err)
	}
}

func TestRefreshPublishesReportAndAlerts(t *testing.T) {
	root := t.TempDir()
	ctx := context.Background()

	bootstrap, err := BuildAppServices(ctx, root, nil)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := bootstrap.Init.InitializeProject("apollo"); err != nil {
		t.Fatal(err)
	}
	_ = bootstrap.Close()

	svc, err := BuildAppServices(ctx, root, nil)
	if err != nil {
		t.Fatal(err)
	}
	defer svc.Close()
	if err := svc.RequireInitialized(); err != nil {
		t.Fatal(err)
	}

	events, unsubscribe := svc.Hub.Subscribe()
	defer unsubscribe()

	req := svc.DefaultRequest("test")
	if req.Days != 30 {
		t.Errorf("seeded config should set 30 days, got %d", req.Days)
	}
	report, err := svc.Refresh(ctx, req)
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := insight.Find(report.Insights, insight.IDWarnings); !ok {
		t.Error("expected ai-warning insight")
	}

	// Refresh publishes synchronously, so every event is already buffered.
	reports, alerts := drain(events)
	if reports != 1 {
		t.Errorf("first refresh published %d reports, want 1", reports)
	}
	if len(alerts) == 0 {
		t.Fatal("expected alert transitions on the first refresh")
	}
	for _, id := range alerts {
		if !strings.HasPrefix(id, report.ID+":") {
			t.Errorf("alert %s does not belong to report %s", id, report.ID)
		}
	}

	// A second refresh over the same snapshot changes no alert state.
	if _, err := svc.Refresh(ctx, req); err != nil {
		t.Fatal(err)
	}
	reports, alerts = drain(events)
	if reports != 1 {
		t.Errorf("second refresh published %d reports, want 1", reports)
	}
	if len(alerts) != 0 {
		t.Errorf("unexpected alerts on unchanged snapshot: %v", alerts)
	}
}

// drain empties ch without blocking and returns the report count and the
// alert event ids.
func drain(ch <-chan sse.Event) (int, []string) {
	var reports int
	var alerts []string
	for {
		select {
		case e := <-ch:
			switch e.Type {
			case sse.TypeReport:
				reports++
			case sse.TypeAlert:
				alerts = append(alerts, e.ID)
			}
		default:
			return reports, alerts
		}
	}
}


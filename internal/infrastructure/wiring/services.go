package wiring

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/felixgeelhaar/pulse/internal/infrastructure/config"
	"github.com/felixgeelhaar/pulse/internal/infrastructure/sse"
	"github.com/felixgeelhaar/pulse/internal/infrastructure/webhook"
	"github.com/felixgeelhaar/pulse/pkg/application"
	"github.com/felixgeelhaar/pulse/pkg/domain"
)

// AppServices exposes the application layer services wired together with a workspace.
type AppServices struct {
	Workspace *Workspace
	Init      *application.InitService
	Insights  *application.InsightService
	Alerts    *application.AlertService
	Audit     *application.AuditService
	Hub       *sse.Hub
	Logger    *slog.Logger

	// Webhooks is nil when webhooks.yaml lists no endpoints.
	Webhooks *webhook.Notifier
}

// BuildAppServices loads pulse.yaml and constructs every service for root.
// Callers must Close the returned services.
func BuildAppServices(ctx context.Context, root string, logger *slog.Logger) (*AppServices, error) {
	if logger == nil {
		logger = slog.Default()
	}
	cfg, err := config.Load(root)
	if err != nil {
		return nil, err
	}
	ws, err := NewWorkspace(ctx, root, cfg)
	if err != nil {
		return nil, err
	}

	var alerts *application.AlertService
	var hooks *webhook.Notifier
	if ws.Repo.IsInitialized() {
		adapters, err := BuildAdapters(ws.Repo, logger)
		if err != nil {
			_ = ws.Close()
			return nil, fmt.Errorf("messaging config: %w", err)
		}
		for _, a := range adapters {
			if n, ok := a.(*webhook.Notifier); ok {
				hooks = n
			}
		}
		alerts = application.NewAlertService(adapters, ws.Audit, logger)
	} else {
		alerts = application.NewAlertService(nil, ws.Audit, logger)
	}

	return &AppServices{
		Workspace: ws,
		Init:      application.NewInitService(ws.Repo, ws.Repo, ws.Audit),
		Insights:  application.NewInsightService(ws.Source, ws.Audit, cfg.InsightConfig(), logger),
		Alerts:    alerts,
		Audit:     ws.Audit,
		Hub:       sse.NewHub(),
		Logger:    logger,
		Webhooks:  hooks,
	}, nil
}

// Close releases workspace resources.
func (s *AppServices) Close() error {
	return s.Workspace.Close()
}

// DefaultRequest builds a request from pulse.yaml.
func (s *AppServices) DefaultRequest(actor string) application.Request {
	cfg := s.Workspace.Config
	return application.Request{Days: cfg.Days, Horizon: cfg.Horizon(), Actor: actor}
}

// Refresh generates a report, publishes it to live clients and feeds the
// alert tracker. Alert delivery failures never fail a refresh.
func (s *AppServices) Refresh(ctx context.Context, req application.Request) (*application.Report, error) {
	report, err := s.Insights.Generate(ctx, req)
	if err != nil {
		return nil, err
	}
	s.Hub.Publish(sse.Event{
		ID:        report.ID,
		Type:      sse.TypeReport,
		Timestamp: report.GeneratedAt,
		Data:      report,
	})

	transitions, err := s.Alerts.Process(ctx, report)
	if err != nil {
		s.Logger.Warn("alert processing failed", "report_id", report.ID, "error", err)
		return report, nil
	}
	for _, tr := range transitions {
		s.Hub.Publish(sse.Event{
			ID:        report.ID + ":" + tr.InsightID,
			Type:      sse.TypeAlert,
			Timestamp: time.Now().UTC(),
			Data:      tr,
		})
	}
	return report, nil
}

// RequireInitialized returns domain.ErrNotInitialized when .pulse is missing.
func (s *AppServices) RequireInitialized() error {
	if !s.Workspace.Repo.IsInitialized() {
		return domain.ErrNotInitialized
	}
	return nil
}

package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/felixgeelhaar/pulse/pkg/domain"
	"github.com/felixgeelhaar/pulse/pkg/domain/alerting"
	"github.com/felixgeelhaar/pulse/pkg/domain/insight"
	"github.com/felixgeelhaar/pulse/pkg/domain/messaging"
)

// AlertService turns report changes into notifications.
type AlertService struct {
	tracker  *alerting.Tracker
	adapters []messaging.MessageAdapter
	audit    domain.AuditLogger
	logger   *slog.Logger
	now      func() time.Time
}

// NewAlertService creates an alert service over the given adapters.
func NewAlertService(adapters []messaging.MessageAdapter, audit domain.AuditLogger, logger *slog.Logger) *AlertService {
	if logger == nil {
		logger = slog.Default()
	}
	return &AlertService{
		tracker:  alerting.NewTracker(),
		adapters: adapters,
		audit:    audit,
		logger:   logger,
		now:      time.Now,
	}
}

// Process feeds a report into the alert tracker and dispatches every state
// change. Delivery failures are logged and audited, not returned.
func (s *AlertService) Process(ctx context.Context, r *Report) ([]alerting.Transition, error) {
	transitions, err := s.tracker.Observe(r.Insights)
	if err != nil {
		return nil, fmt.Errorf("observe insights: %w", err)
	}
	for _, tr := range transitions {
		n := messaging.FromTransition(r.ID, tr, s.now().UTC())
		s.dispatch(ctx, &n)
	}
	return transitions, nil
}

// Summary sends the report's top insight to every adapter regardless of
// alert state.
func (s *AlertService) Summary(ctx context.Context, r *Report) error {
	top, ok := insight.Find(r.Insights, insight.IDWarnings)
	if !ok && len(r.Insights) > 0 {
		top = r.Insights[0]
	}
	n := messaging.Notification{
		Type:      messaging.TypeSummary,
		ReportID:  r.ID,
		InsightID: top.ID,
		Severity:  r.Severity,
		Title:     top.Title,
		Body:      r.Narrative,
		Href:      top.Href,
		Timestamp: s.now().UTC(),
	}
	if errs := s.dispatch(ctx, &n); len(errs) > 0 {
		return errors.Join(errs...)
	}
	return nil
}

// State exposes the tracked state of one insight.
func (s *AlertService) State(insightID string) string {
	return s.tracker.State(insightID)
}

func (s *AlertService) dispatch(ctx context.Context, n *messaging.Notification) []error {
	var errs []error
	for _, a := range s.adapters {
		err := a.Send(ctx, n)
		action := domain.ActionAlertSent
		meta := map[string]any{
			"adapter":    a.Name(),
			"type":       n.Type,
			"insight_id": n.InsightID,
			"report_id":  n.ReportID,
		}
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", a.Name(), err))
			action = domain.ActionAlertFailed
			meta["error"] = err.Error()
			s.logger.Warn("notification failed", "adapter", a.Name(), "type", n.Type, "error", err)
		} else {
			s.logger.Info("notification sent", "adapter", a.Name(), "type", n.Type, "insight", n.InsightID)
		}
		if s.audit != nil {
			if aerr := s.audit.Log(action, "alerts", meta); aerr != nil {
				s.logger.Warn("failed to record audit event", "error", aerr)
			}
		}
	}
	return errs
}

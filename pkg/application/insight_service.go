package application

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/felixgeelhaar/fortify/retry"
	"github.com/felixgeelhaar/fortify/timeout"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/felixgeelhaar/pulse/pkg/domain"
	"github.com/felixgeelhaar/pulse/pkg/domain/activity"
	"github.com/felixgeelhaar/pulse/pkg/domain/flow"
	"github.com/felixgeelhaar/pulse/pkg/domain/guard"
	"github.com/felixgeelhaar/pulse/pkg/domain/insight"
	"github.com/felixgeelhaar/pulse/pkg/domain/warning"
	"github.com/felixgeelhaar/pulse/pkg/domain/wbs"
)

// Collector names used in Report.Degraded and logs.
const (
	CollectorFlow           = "flow"
	CollectorArtifacts      = "artifacts"
	CollectorApprovals      = "approvals"
	CollectorActivity       = "activity"
	CollectorChangeRequests = "change_requests"
)

// DefaultDays is the reporting window when none is configured.
const DefaultDays = 30

// Request selects the reporting window and WBS horizon.
type Request struct {
	Days    int
	Horizon wbs.Horizon
	Actor   string
}

// Report is one generated insight snapshot.
type Report struct {
	ID          string            `json:"id"`
	GeneratedAt time.Time         `json:"generated_at"`
	Today       time.Time         `json:"today"`
	Days        int               `json:"days"`
	Horizon     string            `json:"horizon"`
	Severity    warning.Severity  `json:"severity"`
	Narrative   string            `json:"narrative"`
	Insights    []insight.Insight `json:"insights"`
	Warnings    warning.Ranked    `json:"warnings"`
	Flow        flow.Agg          `json:"flow"`
	WBS         wbs.Portfolio     `json:"wbs"`
	Degraded    []string          `json:"degraded,omitempty"`
}

// InsightConfig tunes collection.
type InsightConfig struct {
	Days             int
	CollectorTimeout time.Duration
	RetryAttempts    int
	Sections         []insight.Section
}

// InsightService gathers signals in parallel and assembles reports.
type InsightService struct {
	source    SnapshotSource
	audit     domain.AuditLogger
	assembler insight.Assembler
	cfg       InsightConfig
	logger    *slog.Logger
	now       func() time.Time
}

// NewInsightService creates an insight service. audit and logger may be nil.
func NewInsightService(source SnapshotSource, audit domain.AuditLogger, cfg InsightConfig, logger *slog.Logger) *InsightService {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.Days <= 0 {
		cfg.Days = DefaultDays
	}
	if cfg.CollectorTimeout <= 0 {
		cfg.CollectorTimeout = 10 * time.Second
	}
	if cfg.RetryAttempts <= 0 {
		cfg.RetryAttempts = 2
	}
	return &InsightService{
		source:    source,
		audit:     audit,
		assembler: insight.Assembler{Sections: cfg.Sections},
		cfg:       cfg,
		logger:    logger,
		now:       time.Now,
	}
}

// SetClock replaces the time source.
func (s *InsightService) SetClock(now func() time.Time) {
	s.now = now
}

// Generate builds a report. Only a failure to list projects is returned as
// an error; every other collector degrades to its zero value.
func (s *InsightService) Generate(ctx context.Context, req Request) (*Report, error) {
	days := req.Days
	if days <= 0 {
		days = s.cfg.Days
	}
	generatedAt := s.now().UTC()
	today := guard.DayUTC(generatedAt)

	ids, err := collect(ctx, s.cfg, s.source.ProjectIDs)
	if err != nil {
		return nil, fmt.Errorf("load projects: %w", err)
	}
	if len(ids) == 0 {
		return nil, domain.ErrNoProjects
	}

	var (
		mu        sync.Mutex
		degraded  []string
		signals   flow.Signals
		artifacts []wbs.Artifact
		approvals activity.Approvals
		feed      activity.Feed
		changes   activity.ChangeRequests
	)
	degrade := func(name string, err error) {
		mu.Lock()
		degraded = append(degraded, name)
		mu.Unlock()
		s.logger.Warn("collector degraded", "collector", name, "error", &domain.CollectorError{Collector: name, Err: err})
	}

	eg, egCtx := errgroup.WithContext(ctx)
	eg.Go(func() error {
		v, err := collect(egCtx, s.cfg, func(ctx context.Context) (flow.Signals, error) {
			return s.source.FlowSignals(ctx, days)
		})
		if err != nil {
			degrade(CollectorFlow, err)
			signals = flow.Unavailable(days, err)
			return nil
		}
		if v.Days == 0 {
			v.Days = days
		}
		signals = v
		return nil
	})
	eg.Go(func() error {
		v, err := collect(egCtx, s.cfg, func(ctx context.Context) ([]wbs.Artifact, error) {
			return s.source.Artifacts(ctx, ids)
		})
		if err != nil {
			degrade(CollectorArtifacts, err)
			return nil
		}
		artifacts = v
		return nil
	})
	eg.Go(func() error {
		v, err := collect(egCtx, s.cfg, func(ctx context.Context) (activity.Approvals, error) {
			return s.source.PendingApprovals(ctx, days)
		})
		if err != nil {
			degrade(CollectorApprovals, err)
			v = activity.Approvals{}
		}
		if v.Days == 0 {
			v.Days = days
		}
		approvals = v
		return nil
	})
	eg.Go(func() error {
		v, err := collect(egCtx, s.cfg, s.source.Activity)
		if err != nil {
			degrade(CollectorActivity, err)
			return nil
		}
		feed = v
		return nil
	})
	eg.Go(func() error {
		v, err := collect(egCtx, s.cfg, s.source.ChangeRequests)
		if err != nil {
			degrade(CollectorChangeRequests, err)
			return nil
		}
		changes = v
		return nil
	})
	if err := eg.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	portfolio := wbs.Reduce(ids, artifacts, today, req.Horizon)
	agg := flow.Aggregate(signals)
	out := s.assembler.Build(insight.Input{
		Flow:           agg,
		WBS:            portfolio,
		Approvals:      approvals,
		Activity:       feed,
		ChangeRequests: changes,
	})

	report := &Report{
		ID:          uuid.New().String(),
		GeneratedAt: generatedAt,
		Today:       today,
		Days:        days,
		Horizon:     req.Horizon.String(),
		Severity:    out.Warnings.Severity(),
		Narrative:   out.Narrative,
		Insights:    out.Insights,
		Warnings:    out.Warnings,
		Flow:        agg,
		WBS:         portfolio,
		Degraded:    sortedCopy(degraded),
	}

	s.logger.Info("report generated",
		"report_id", report.ID,
		"projects", len(ids),
		"insights", len(report.Insights),
		"warnings", report.Warnings.Len(),
		"severity", report.Severity,
	)
	s.record(report, req.Actor)
	return report, nil
}

func (s *InsightService) record(r *Report, actor string) {
	if s.audit == nil {
		return
	}
	if actor == "" {
		actor = "cli"
	}
	err := s.audit.Log(domain.ActionReportGenerated, actor, map[string]any{
		"report_id": r.ID,
		"severity":  string(r.Severity),
		"insights":  len(r.Insights),
		"warnings":  r.Warnings.Len(),
		"degraded":  r.Degraded,
	})
	if err != nil {
		s.logger.Warn("failed to record audit event", "error", err)
	}
}

// collect runs fn under the configured timeout with retries.
func collect[T any](ctx context.Context, cfg InsightConfig, fn func(context.Context) (T, error)) (T, error) {
	r := retry.New[T](retry.Config{
		MaxAttempts:   cfg.RetryAttempts,
		InitialDelay:  50 * time.Millisecond,
		BackoffPolicy: retry.BackoffExponential,
	})
	t := timeout.New[T](timeout.Config{
		DefaultTimeout: cfg.CollectorTimeout,
	})
	return t.Execute(ctx, cfg.CollectorTimeout, func(ctx context.Context) (T, error) {
		return r.Do(ctx, fn)
	})
}

func sortedCopy(in []string) []string {
	if len(in) == 0 {
		return nil
	}
	out := append([]string(nil), in...)
	sort.Strings(out)
	return out
}

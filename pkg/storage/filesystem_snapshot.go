package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path"
	"strings"
	"time"

	"github.com/felixgeelhaar/pulse/pkg/domain"
	"github.com/felixgeelhaar/pulse/pkg/domain/activity"
	"github.com/felixgeelhaar/pulse/pkg/domain/flow"
	"github.com/felixgeelhaar/pulse/pkg/domain/guard"
)

// ProjectEntry is one row of projects.yaml.
type ProjectEntry struct {
	ID       string `yaml:"id"`
	Name     string `yaml:"name,omitempty"`
	Archived bool   `yaml:"archived,omitempty"`
}

// ProjectsConfig is the content of projects.yaml.
type ProjectsConfig struct {
	Projects []ProjectEntry `yaml:"projects"`
}

// ApprovalRecord is one row of approvals.yaml.
type ApprovalRecord struct {
	ID          string    `yaml:"id"`
	ProjectID   string    `yaml:"project_id"`
	Status      string    `yaml:"status"`
	RequestedAt time.Time `yaml:"requested_at"`
}

// ChangeRequestRecord is one row of change_requests.yaml.
type ChangeRequestRecord struct {
	ID        string    `yaml:"id"`
	ProjectID string    `yaml:"project_id"`
	Status    string    `yaml:"status"`
	Priority  string    `yaml:"priority"`
	OpenedAt  time.Time `yaml:"opened_at"`
}

// ActivityLog is the content of activity.json.
type ActivityLog struct {
	Source string          `json:"source"`
	Events []ActivityEvent `json:"events"`
}

// ActivityEvent is one project update.
type ActivityEvent struct {
	ProjectID string `json:"project_id"`
	At        any    `json:"at"`
}

// LoadProjects reads projects.yaml.
func (r *FilesystemRepository) LoadProjects() (*ProjectsConfig, error) {
	var cfg ProjectsConfig
	if _, err := r.loadYAML(ProjectsFile, &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// SaveProjects writes projects.yaml.
func (r *FilesystemRepository) SaveProjects(cfg *ProjectsConfig) error {
	return r.saveYAML(ProjectsFile, cfg)
}

// ProjectIDs returns the ids of all active projects, each once, in file order.
func (r *FilesystemRepository) ProjectIDs(ctx context.Context) ([]string, error) {
	cfg, err := r.LoadProjects()
	if err != nil {
		return nil, err
	}
	ids := make([]string, 0, len(cfg.Projects))
	seen := make(map[string]bool, len(cfg.Projects))
	for _, p := range cfg.Projects {
		if p.Archived {
			continue
		}
		id, err := domain.NewProjectID(p.ID)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", ProjectsFile, err)
		}
		if seen[id.String()] {
			continue
		}
		seen[id.String()] = true
		ids = append(ids, id.String())
	}
	return ids, nil
}

// FlowSignals reads flow.json. A missing file means no signal, not an error.
func (r *FilesystemRepository) FlowSignals(ctx context.Context, days int) (flow.Signals, error) {
	data, err := r.readFile(FlowFile)
	if errors.Is(err, os.ErrNotExist) {
		return flow.Signals{Days: days, Error: FlowFile + " not found"}, nil
	}
	if err != nil {
		return flow.Signals{}, err
	}
	var s flow.Signals
	if err := json.Unmarshal(data, &s); err != nil {
		return flow.Signals{}, fmt.Errorf("failed to unmarshal %s: %w", FlowFile, err)
	}
	s.Days = days
	return s, nil
}

// PendingApprovals counts pending approvals requested within the window.
// days <= 0 counts every pending approval.
func (r *FilesystemRepository) PendingApprovals(ctx context.Context, days int) (activity.Approvals, error) {
	var file struct {
		Approvals []ApprovalRecord `yaml:"approvals"`
	}
	if _, err := r.loadYAML(ApprovalsFile, &file); err != nil {
		return activity.Approvals{}, err
	}

	out := activity.Approvals{Days: days}
	cutoff := guard.AddDays(guard.DayUTC(r.now()), -days)
	for _, a := range file.Approvals {
		if !strings.EqualFold(strings.TrimSpace(a.Status), "pending") {
			continue
		}
		if days > 0 && !a.RequestedAt.IsZero() && a.RequestedAt.Before(cutoff) {
			continue
		}
		out.Pending++
	}
	return out, nil
}

// ChangeRequests summarizes open change requests.
func (r *FilesystemRepository) ChangeRequests(ctx context.Context) (activity.ChangeRequests, error) {
	var file struct {
		ChangeRequests []ChangeRequestRecord `yaml:"change_requests"`
	}
	if _, err := r.loadYAML(ChangeRequestsFile, &file); err != nil {
		return activity.ChangeRequests{}, err
	}

	var out activity.ChangeRequests
	today := guard.DayUTC(r.now())
	for _, cr := range file.ChangeRequests {
		switch strings.ToLower(strings.TrimSpace(cr.Status)) {
		case "closed", "done", "rejected", "approved", "implemented":
			continue
		}
		out.Open++
		if strings.EqualFold(strings.TrimSpace(cr.Priority), "critical") {
			out.Critical++
		}
		if !cr.OpenedAt.IsZero() {
			if age := guard.DaysBetween(guard.DayUTC(cr.OpenedAt), today); age > out.OldestDays {
				out.OldestDays = age
			}
		}
	}
	return out, nil
}

// Activity derives update cadence from activity.json over the active
// projects. A missing file means the workspace has no activity feed.
func (r *FilesystemRepository) Activity(ctx context.Context) (activity.Feed, error) {
	data, err := r.readFile(ActivityFile)
	if errors.Is(err, os.ErrNotExist) {
		return activity.Feed{}, nil
	}
	if err != nil {
		return activity.Feed{}, err
	}
	var feedLog ActivityLog
	if err := json.Unmarshal(data, &feedLog); err != nil {
		return activity.Feed{}, fmt.Errorf("failed to unmarshal %s: %w", ActivityFile, err)
	}
	ids, err := r.ProjectIDs(ctx)
	if err != nil {
		return activity.Feed{}, err
	}

	source := strings.TrimSpace(feedLog.Source)
	if source == "" {
		source = strings.TrimSuffix(path.Base(ActivityFile), path.Ext(ActivityFile))
	}
	feed := activity.Feed{Table: &source}

	since := guard.AddDays(guard.DayUTC(r.now()), -7)
	active := make(map[string]bool)
	for _, e := range feedLog.Events {
		at, ok := guard.ParseDate(e.At)
		if !ok {
			continue
		}
		if at.After(feed.LastEventAt) {
			feed.LastEventAt = at
		}
		if at.Before(since) {
			continue
		}
		feed.Events7d++
		active[e.ProjectID] = true
	}
	for _, id := range ids {
		if active[id] {
			feed.ActiveProjects7d++
		} else {
			feed.StaleProjects7d++
		}
	}
	return feed, nil
}

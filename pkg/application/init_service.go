package application

import (
	"fmt"
	"time"

	"github.com/felixgeelhaar/pulse/pkg/domain"
)

// Seeder writes an example snapshot for a project.
type Seeder interface {
	Seed(projectID string, today time.Time) ([]string, error)
}

// InitService creates a .pulse workspace.
type InitService struct {
	repo   domain.WorkspaceRepository
	seeder Seeder
	audit  domain.AuditLogger
	now    func() time.Time
}

// NewInitService creates an init service. seeder may be nil, in which case
// only the directory layout is created.
func NewInitService(repo domain.WorkspaceRepository, seeder Seeder, audit domain.AuditLogger) *InitService {
	return &InitService{repo: repo, seeder: seeder, audit: audit, now: time.Now}
}

// InitializeProject creates the workspace and seeds it for projectID. It
// returns the files written.
func (s *InitService) InitializeProject(projectID string) ([]string, error) {
	pid, err := domain.NewProjectID(projectID)
	if err != nil {
		return nil, err
	}
	if s.repo.IsInitialized() {
		return nil, domain.ErrAlreadyInitialized
	}
	if err := s.repo.Initialize(); err != nil {
		return nil, fmt.Errorf("failed to initialize workspace: %w", err)
	}

	var written []string
	if s.seeder != nil {
		written, err = s.seeder.Seed(pid.String(), s.now())
		if err != nil {
			return written, fmt.Errorf("failed to seed workspace: %w", err)
		}
	}

	if s.audit != nil {
		if err := s.audit.Log(domain.ActionInit, "cli", map[string]any{
			"project_id": pid.String(),
			"files":      len(written),
		}); err != nil {
			return written, fmt.Errorf("failed to record init: %w", err)
		}
	}
	return written, nil
}

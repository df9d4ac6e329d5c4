package application

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/felixgeelhaar/pulse/pkg/domain"
)

// AuditService appends hash-chained events to the audit trail.
type AuditService struct {
	repo domain.AuditRepository
	mu   sync.Mutex
	now  func() time.Time
}

// Compile-time check that AuditService implements AuditLogger
var _ domain.AuditLogger = (*AuditService)(nil)

func NewAuditService(repo domain.AuditRepository) *AuditService {
	return &AuditService{repo: repo, now: time.Now}
}

// Log records an event chained to the latest one on disk.
func (s *AuditService) Log(action, actor string, metadata map[string]any) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	events, err := s.repo.LoadEvents()
	if err != nil {
		return err
	}
	prevHash := ""
	if len(events) > 0 {
		prevHash = events[len(events)-1].Hash
	}

	event := domain.Event{
		ID:        uuid.New().String(),
		Timestamp: s.now().UTC(),
		Action:    action,
		Actor:     actor,
		Metadata:  metadata,
	}
	event.Seal(prevHash)
	return s.repo.RecordEvent(event)
}

// Timeline returns every recorded event, oldest first.
func (s *AuditService) Timeline() ([]domain.Event, error) {
	return s.repo.LoadEvents()
}

// VerifyIntegrity returns one violation per broken link or altered event.
func (s *AuditService) VerifyIntegrity() ([]string, error) {
	events, err := s.repo.LoadEvents()
	if err != nil {
		return nil, err
	}
	return domain.VerifyChain(events), nil
}

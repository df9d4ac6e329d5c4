package application_test

import (
	"context"
	"errors"
	"sync"

	"github.com/felixgeelhaar/pulse/pkg/domain"
	"github.com/felixgeelhaar/pulse/pkg/domain/activity"
	"github.com/felixgeelhaar/pulse/pkg/domain/flow"
	"github.com/felixgeelhaar/pulse/pkg/domain/messaging"
	"github.com/felixgeelhaar/pulse/pkg/domain/wbs"
)

type MockSource struct {
	IDs           []string
	IDsErr        error
	ArtifactList  []wbs.Artifact
	ArtifactErr   error
	Signals       flow.Signals
	SignalsErr    error
	Approvals     activity.Approvals
	ApprovalsErr  error
	Feed          activity.Feed
	FeedErr       error
	Changes       activity.ChangeRequests
	ChangesErr    error
	Block         bool
	RequestedIDs  []string
	RequestedDays int
	mu            sync.Mutex
}

func (m *MockSource) ProjectIDs(ctx context.Context) ([]string, error) { return m.IDs, m.IDsErr }

func (m *MockSource) Artifacts(ctx context.Context, ids []string) ([]wbs.Artifact, error) {
	m.mu.Lock()
	m.RequestedIDs = ids
	m.mu.Unlock()
	return m.ArtifactList, m.ArtifactErr
}

func (m *MockSource) FlowSignals(ctx context.Context, days int) (flow.Signals, error) {
	m.mu.Lock()
	m.RequestedDays = days
	m.mu.Unlock()
	if m.Block {
		<-ctx.Done()
		return flow.Signals{}, ctx.Err()
	}
	return m.Signals, m.SignalsErr
}

func (m *MockSource) PendingApprovals(ctx context.Context, days int) (activity.Approvals, error) {
	return m.Approvals, m.ApprovalsErr
}

func (m *MockSource) Activity(ctx context.Context) (activity.Feed, error) { return m.Feed, m.FeedErr }

func (m *MockSource) ChangeRequests(ctx context.Context) (activity.ChangeRequests, error) {
	return m.Changes, m.ChangesErr
}

type MockAuditRepo struct {
	Events    []domain.Event
	SaveError error
	LoadError error
}

func (m *MockAuditRepo) RecordEvent(e domain.Event) error {
	if m.SaveError != nil {
		return m.SaveError
	}
	m.Events = append(m.Events, e)
	return nil
}

func (m *MockAuditRepo) LoadEvents() ([]domain.Event, error) { return m.Events, m.LoadError }

type MockAdapter struct {
	AdapterName string
	Err         error
	Sent        []messaging.Notification
	mu          sync.Mutex
}

func (m *MockAdapter) Name() string { return m.AdapterName }
func (m *MockAdapter) Type() string { return "mock" }

func (m *MockAdapter) Send(ctx context.Context, n *messaging.Notification) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Sent = append(m.Sent, *n)
	return m.Err
}

var errBoom = errors.New("boom")

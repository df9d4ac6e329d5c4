package wiring

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/felixgeelhaar/pulse/internal/infrastructure/config"
	infmsg "github.com/felixgeelhaar/pulse/internal/infrastructure/messaging"
	"github.com/felixgeelhaar/pulse/internal/infrastructure/webhook"
	"github.com/felixgeelhaar/pulse/pkg/application"
	"github.com/felixgeelhaar/pulse/pkg/domain/messaging"
	"github.com/felixgeelhaar/pulse/pkg/storage"
	"github.com/felixgeelhaar/pulse/pkg/storage/postgres"
)

// Workspace bundles core infrastructure dependencies.
type Workspace struct {
	Root   string
	Config *config.Config
	Repo   *storage.FilesystemRepository
	Source application.SnapshotSource
	Audit  *application.AuditService

	closers []func() error
}

// NewWorkspace opens the workspace at root. When cfg carries a database URL,
// WBS artifacts are read from Postgres and everything else from .pulse.
func NewWorkspace(ctx context.Context, root string, cfg *config.Config) (*Workspace, error) {
	if cfg == nil {
		cfg = config.Default()
	}
	repo := storage.NewFilesystemRepository(root)
	ws := &Workspace{
		Root:   root,
		Config: cfg,
		Repo:   repo,
		Source: repo,
		Audit:  application.NewAuditService(repo),
	}

	if cfg.DatabaseURL != "" {
		store, err := postgres.New(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, fmt.Errorf("artifact database: %w", err)
		}
		ws.Source = storage.NewCompositeSource(repo, store)
		ws.closers = append(ws.closers, store.Close)
	}
	return ws, nil
}

// Close releases database connections.
func (w *Workspace) Close() error {
	var first error
	for _, c := range w.closers {
		if err := c(); err != nil && first == nil {
			first = err
		}
	}
	w.closers = nil
	return first
}

// BuildAdapters creates the messaging adapters from messaging.yaml plus a
// signed webhook notifier when webhooks.yaml lists endpoints.
func BuildAdapters(repo *storage.FilesystemRepository, logger *slog.Logger) ([]messaging.MessageAdapter, error) {
	msgCfg, err := repo.LoadMessagingConfig()
	if err != nil {
		return nil, err
	}
	registry, err := infmsg.NewRegistry(msgCfg)
	if err != nil {
		return nil, err
	}
	adapters := registry.Adapters()

	hooks, err := repo.LoadWebhookConfig()
	if err != nil {
		return nil, err
	}
	if len(hooks.Webhooks) > 0 {
		dlPath, err := repo.DeadLetterPath()
		if err != nil {
			return nil, err
		}
		adapters = append(adapters, webhook.NewNotifier(hooks.Webhooks, webhook.NewDeadLetterStore(dlPath), logger))
	}
	return adapters, nil
}

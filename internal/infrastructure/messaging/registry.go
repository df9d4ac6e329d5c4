package messaging

import (
	"context"
	"fmt"

	"github.com/felixgeelhaar/pulse/pkg/domain/messaging"
)

// Registry creates messaging adapters from configuration.
type Registry struct {
	adapters []messaging.MessageAdapter
}

// NewRegistry creates adapters from a MessagingConfig. Adapters with event
// filters only receive matching notification types.
func NewRegistry(config *messaging.MessagingConfig) (*Registry, error) {
	if config == nil {
		return &Registry{}, nil
	}

	var adapters []messaging.MessageAdapter
	for _, cfg := range config.Adapters {
		if !cfg.Enabled {
			continue
		}

		adapter, err := createAdapter(cfg)
		if err != nil {
			return nil, fmt.Errorf("create adapter %q: %w", cfg.Name, err)
		}
		if len(cfg.EventFilters) > 0 {
			adapter = &filtered{MessageAdapter: adapter, filters: cfg.EventFilters}
		}
		adapters = append(adapters, adapter)
	}

	return &Registry{adapters: adapters}, nil
}

// Adapters returns all active adapters.
func (r *Registry) Adapters() []messaging.MessageAdapter {
	return r.adapters
}

func createAdapter(cfg messaging.AdapterConfig) (messaging.MessageAdapter, error) {
	if cfg.URL == "" {
		return nil, fmt.Errorf("url is required")
	}
	switch cfg.Type {
	case "webhook":
		return NewWebhookAdapter(cfg), nil
	case "slack":
		return NewSlackAdapter(cfg), nil
	default:
		return nil, fmt.Errorf("unknown adapter type: %s", cfg.Type)
	}
}

type filtered struct {
	messaging.MessageAdapter
	filters []string
}

func (f *filtered) Send(ctx context.Context, n *messaging.Notification) error {
	if !messaging.Matches(f.filters, n.Type) {
		return nil
	}
	return f.MessageAdapter.Send(ctx, n)
}

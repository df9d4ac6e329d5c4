package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/felixgeelhaar/pulse/internal/infrastructure/config"
	"github.com/felixgeelhaar/pulse/internal/infrastructure/wiring"
)

func loadServices(ctx context.Context, root string) (*wiring.AppServices, error) {
	services, err := wiring.BuildAppServices(ctx, root, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to build services: %w", err)
	}
	return services, nil
}

func getProjectRoot() (string, error) {
	root := config.ResolveRoot(projectPath)
	abs, err := filepath.Abs(root)
	if err != nil {
		return "", fmt.Errorf("invalid project path %q: %w", root, err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return "", fmt.Errorf("project path %q: %w", abs, err)
	}
	if !info.IsDir() {
		return "", fmt.Errorf("project path %q is not a directory", abs)
	}
	return abs, nil
}

// loadInitializedServices resolves the root and fails with
// domain.ErrNotInitialized when .pulse is missing.
func loadInitializedServices(ctx context.Context) (*wiring.AppServices, error) {
	root, err := getProjectRoot()
	if err != nil {
		return nil, err
	}
	services, err := loadServices(ctx, root)
	if err != nil {
		return nil, err
	}
	if err := services.RequireInitialized(); err != nil {
		_ = services.Close()
		return nil, err
	}
	return services, nil
}

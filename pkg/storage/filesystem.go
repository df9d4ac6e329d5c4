package storage

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/felixgeelhaar/fortify/retry"
	lru "github.com/hashicorp/golang-lru/v2"
	"gopkg.in/yaml.v3"

	"github.com/felixgeelhaar/pulse/pkg/domain"
)

const PulseDir = ".pulse"
const ConfigFile = "pulse.yaml"
const ProjectsFile = "projects.yaml"
const FlowFile = "flow.json"
const ApprovalsFile = "approvals.yaml"
const ActivityFile = "activity.json"
const ChangeRequestsFile = "change_requests.yaml"
const WBSDir = "wbs"
const EventsFile = "events.jsonl"
const WebhookFile = "webhooks.yaml"
const MessagingFile = "messaging.yaml"
const DeadLetterFile = "deadletters.jsonl"

const artifactCacheSize = 512

var _ domain.WorkspaceRepository = (*FilesystemRepository)(nil)

type FilesystemRepository struct {
	root        string
	retryConfig retry.Config
	artifacts   *lru.Cache[string, cachedArtifact]
	now         func() time.Time
}

func NewFilesystemRepository(root string) *FilesystemRepository {
	cache, err := lru.New[string, cachedArtifact](artifactCacheSize)
	if err != nil {
		// Only a non-positive size fails.
		panic(err)
	}
	return &FilesystemRepository{
		root: root,
		retryConfig: retry.Config{
			MaxAttempts:   3,
			InitialDelay:  10 * time.Millisecond,
			BackoffPolicy: retry.BackoffExponential,
		},
		artifacts: cache,
		now:       time.Now,
	}
}

// SetClock replaces the time source used for window calculations.
func (r *FilesystemRepository) SetClock(now func() time.Time) {
	r.now = now
}

// Root returns the workspace root directory.
func (r *FilesystemRepository) Root() string {
	return r.root
}

// Dir returns the .pulse directory.
func (r *FilesystemRepository) Dir() string {
	return filepath.Join(r.root, PulseDir)
}

// ResolvePath maps a slash-separated name to a path inside .pulse. Names are
// either a direct child of .pulse or a wbs/<project>/<doc>.json document.
func (r *FilesystemRepository) ResolvePath(name string) (string, error) {
	if name == "" {
		return "", fmt.Errorf("filename cannot be empty")
	}

	baseDir := r.Dir()
	cleanPath := filepath.Clean(filepath.Join(baseDir, filepath.FromSlash(name)))
	rel, err := filepath.Rel(baseDir, cleanPath)
	if err != nil || rel == "." || strings.HasPrefix(rel, "..") {
		return "", fmt.Errorf("invalid file path: %s", name)
	}

	parts := strings.Split(filepath.ToSlash(rel), "/")
	switch {
	case len(parts) == 1:
	case parts[0] == WBSDir && len(parts) <= 3:
	default:
		return "", fmt.Errorf("invalid file path: %s", name)
	}
	return cleanPath, nil
}

func (r *FilesystemRepository) Initialize() error {
	// G301: Use 0700 for directories
	if err := os.MkdirAll(filepath.Join(r.Dir(), WBSDir), 0700); err != nil {
		return fmt.Errorf("failed to create %s directory: %w", PulseDir, err)
	}
	return nil
}

func (r *FilesystemRepository) IsInitialized() bool {
	info, err := os.Stat(r.Dir())
	return err == nil && info.IsDir()
}

// readFile reads a .pulse file with retries. A missing file returns
// os.ErrNotExist without retrying.
func (r *FilesystemRepository) readFile(name string) ([]byte, error) {
	path, err := r.ResolvePath(name)
	if err != nil {
		return nil, err
	}
	if !r.IsInitialized() {
		return nil, domain.ErrNotInitialized
	}
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return nil, err
	}

	retryer := retry.New[[]byte](r.retryConfig)
	return retryer.Do(context.Background(), func(ctx context.Context) ([]byte, error) {
		// #nosec G304 -- Path is resolved and validated via ResolvePath
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", name, err)
		}
		return data, nil
	})
}

// loadYAML decodes a yaml file into v. It reports false when the file does
// not exist.
func (r *FilesystemRepository) loadYAML(name string, v any) (bool, error) {
	data, err := r.readFile(name)
	if errors.Is(err, os.ErrNotExist) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if err := yaml.Unmarshal(data, v); err != nil {
		return false, fmt.Errorf("failed to unmarshal %s: %w", name, err)
	}
	return true, nil
}

func (r *FilesystemRepository) saveYAML(name string, v any) error {
	path, err := r.ResolvePath(name)
	if err != nil {
		return err
	}
	data, err := yaml.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to marshal %s: %w", name, err)
	}
	// G306: Use 0600 for files
	return os.WriteFile(path, data, 0600)
}

// WriteFile stores raw content under .pulse, creating the wbs subdirectory
// for documents.
func (r *FilesystemRepository) WriteFile(name string, data []byte) error {
	path, err := r.ResolvePath(name)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return fmt.Errorf("failed to create directory for %s: %w", name, err)
	}
	return os.WriteFile(path, data, 0600)
}

package webhook

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/felixgeelhaar/pulse/pkg/domain/messaging"
)

// DefaultDeadLetterLimit is the number of undelivered notifications kept in
// deadletters.jsonl. Older entries are dropped first.
const DefaultDeadLetterLimit = 500

// DeadLetterStore keeps notifications that exhausted their retries so that
// 'pulse notify redeliver' can replay them later.
type DeadLetterStore struct {
	path  string
	limit int
	mu    sync.Mutex
}

// NewDeadLetterStore opens the store at path with the default limit.
func NewDeadLetterStore(path string) *DeadLetterStore {
	return &DeadLetterStore{path: path, limit: DefaultDeadLetterLimit}
}

// WithLimit changes how many entries are retained. Values below 1 are ignored.
func (s *DeadLetterStore) WithLimit(limit int) *DeadLetterStore {
	if limit > 0 {
		s.limit = limit
	}
	return s
}

// Append records dl as the newest entry.
func (s *DeadLetterStore) Append(dl messaging.DeadLetter) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	entries, err := s.load()
	if err != nil {
		return err
	}
	return s.store(append(entries, dl))
}

// ReadAll returns the stored entries, oldest first. Unreadable lines are
// skipped.
func (s *DeadLetterStore) ReadAll() ([]messaging.DeadLetter, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.load()
}

// Redelivery summarizes one replay of the dead letter store.
type Redelivery struct {
	Delivered int `json:"delivered"`
	Remaining int `json:"remaining"`
}

// Redeliver replays every dead letter once against its endpoint. Delivered
// entries leave the store; failures stay with their attempt count raised.
// Entries whose endpoint is gone or disabled are kept as they are.
func (n *Notifier) Redeliver(ctx context.Context) (Redelivery, error) {
	if n.deadLetter == nil {
		return Redelivery{}, nil
	}
	s := n.deadLetter
	s.mu.Lock()
	defer s.mu.Unlock()

	entries, err := s.load()
	if err != nil {
		return Redelivery{}, err
	}

	var result Redelivery
	var errs []error
	kept := entries[:0]
	for _, dl := range entries {
		if ctx.Err() != nil {
			kept = append(kept, dl)
			continue
		}
		ep, ok := n.endpoint(dl.WebhookName)
		if !ok {
			kept = append(kept, dl)
			errs = append(errs, fmt.Errorf("webhook %s: endpoint not configured", dl.WebhookName))
			continue
		}
		if err := n.send(ctx, ep, []byte(dl.Payload)); err != nil {
			dl.Attempts++
			dl.Error = err.Error()
			dl.Timestamp = n.now().UTC()
			kept = append(kept, dl)
			errs = append(errs, fmt.Errorf("webhook %s: %w", dl.WebhookName, err))
			continue
		}
		result.Delivered++
		n.logger.Info("dead letter redelivered", "webhook", dl.WebhookName, "type", dl.Type)
	}
	result.Remaining = len(kept)

	if len(entries) > 0 {
		if err := s.store(kept); err != nil {
			return result, err
		}
	}
	if err := ctx.Err(); err != nil {
		errs = append(errs, err)
	}
	return result, errors.Join(errs...)
}

func (n *Notifier) endpoint(name string) (messaging.WebhookEndpoint, bool) {
	for _, ep := range n.endpoints {
		if ep.Name == name && ep.Enabled {
			return ep, true
		}
	}
	return messaging.WebhookEndpoint{}, false
}

func (s *DeadLetterStore) load() ([]messaging.DeadLetter, error) {
	f, err := os.Open(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("open dead letters: %w", err)
	}
	defer f.Close()

	var entries []messaging.DeadLetter
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 4<<20)
	for scanner.Scan() {
		line := bytes.TrimSpace(scanner.Bytes())
		if len(line) == 0 {
			continue
		}
		var dl messaging.DeadLetter
		if err := json.Unmarshal(line, &dl); err != nil {
			continue
		}
		entries = append(entries, dl)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read dead letters: %w", err)
	}
	return entries, nil
}

// store rewrites the file through a temp file so readers never see a
// partial list.
func (s *DeadLetterStore) store(entries []messaging.DeadLetter) error {
	if over := len(entries) - s.limit; s.limit > 0 && over > 0 {
		entries = entries[over:]
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	for _, dl := range entries {
		if err := enc.Encode(dl); err != nil {
			return fmt.Errorf("marshal dead letter: %w", err)
		}
	}

	tmp, err := os.CreateTemp(filepath.Dir(s.path), ".deadletters-*.tmp")
	if err != nil {
		return fmt.Errorf("write dead letters: %w", err)
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.Write(buf.Bytes()); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("write dead letters: %w", err)
	}
	if err := tmp.Chmod(0o600); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("write dead letters: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("write dead letters: %w", err)
	}
	return os.Rename(tmp.Name(), s.path)
}

// Package webhook receives snapshot pushes from upstream exporters and
// stores them under .pulse, where the watch loop picks them up.
package webhook

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"gopkg.in/yaml.v3"

	notify "github.com/felixgeelhaar/pulse/internal/infrastructure/webhook"
	"github.com/felixgeelhaar/pulse/pkg/domain"
	"github.com/felixgeelhaar/pulse/pkg/domain/wbs"
	"github.com/felixgeelhaar/pulse/pkg/storage"
)

// MaxBodyBytes caps a single push.
const MaxBodyBytes = 4 << 20

const recentLimit = 100

// pushable lists the snapshot files that may be replaced by a push.
var pushable = map[string]bool{
	storage.ProjectsFile:       true,
	storage.FlowFile:           true,
	storage.ApprovalsFile:      true,
	storage.ChangeRequestsFile: true,
	storage.ActivityFile:       true,
}

// Store persists pushed snapshots.
type Store interface {
	SaveDocument(projectID, documentID string, body []byte) error
	WriteFile(name string, data []byte) error
}

// Receipt records one accepted push.
type Receipt struct {
	Name       string    `json:"name"`
	Bytes      int       `json:"bytes"`
	ReceivedAt time.Time `json:"received_at"`
}

// Receiver is the HTTP handler for snapshot pushes. Every push must carry
// an X-Pulse-Signature HMAC of the body when a secret is set.
type Receiver struct {
	store  Store
	secret string
	audit  domain.AuditLogger
	logger *slog.Logger
	now    func() time.Time

	mu     sync.RWMutex
	recent []Receipt
}

// NewReceiver creates a receiver. audit and logger may be nil.
func NewReceiver(store Store, secret string, audit domain.AuditLogger, logger *slog.Logger) *Receiver {
	if logger == nil {
		logger = slog.Default()
	}
	return &Receiver{
		store:  store,
		secret: secret,
		audit:  audit,
		logger: logger,
		now:    time.Now,
		recent: make([]Receipt, 0, recentLimit),
	}
}

// Handler returns the /ingest routes.
func (r *Receiver) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /ingest/wbs/{project}/{document}", r.handleDocument)
	mux.HandleFunc("POST /ingest/{file}", r.handleFile)
	mux.HandleFunc("GET /ingest/recent", r.handleRecent)
	return mux
}

// ValidateSignature checks the signature header against body.
func (r *Receiver) ValidateSignature(req *http.Request, body []byte) bool {
	if r.secret == "" {
		return true
	}
	got := req.Header.Get(notify.SignatureHeader)
	if got == "" {
		return false
	}
	return notify.Verify(body, r.secret, got)
}

func (r *Receiver) readBody(w http.ResponseWriter, req *http.Request) ([]byte, bool) {
	body, err := io.ReadAll(http.MaxBytesReader(w, req.Body, MaxBodyBytes))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, err)
			return nil, false
		}
		writeError(w, http.StatusBadRequest, err)
		return nil, false
	}
	if !r.ValidateSignature(req, body) {
		r.logger.Warn("rejected push with invalid signature", "path", req.URL.Path, "remote", req.RemoteAddr)
		writeError(w, http.StatusUnauthorized, fmt.Errorf("invalid signature"))
		return nil, false
	}
	return body, true
}

func (r *Receiver) handleDocument(w http.ResponseWriter, req *http.Request) {
	body, ok := r.readBody(w, req)
	if !ok {
		return
	}
	project, document := req.PathValue("project"), req.PathValue("document")
	if err := r.store.SaveDocument(project, document, body); err != nil {
		status := http.StatusBadRequest
		if errors.Is(err, wbs.ErrNotWBS) {
			status = http.StatusUnprocessableEntity
		}
		writeError(w, status, err)
		return
	}
	r.accepted(w, storage.DocumentName(project, document), len(body))
}

func (r *Receiver) handleFile(w http.ResponseWriter, req *http.Request) {
	name := req.PathValue("file")
	if !pushable[name] {
		writeError(w, http.StatusNotFound, fmt.Errorf("%s cannot be pushed", name))
		return
	}
	body, ok := r.readBody(w, req)
	if !ok {
		return
	}
	if err := validateSnapshot(name, body); err != nil {
		writeError(w, http.StatusUnprocessableEntity, err)
		return
	}
	if err := r.store.WriteFile(name, body); err != nil {
		r.logger.Error("failed to store push", "name", name, "error", err)
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	r.accepted(w, name, len(body))
}

func validateSnapshot(name string, body []byte) error {
	var v any
	if strings.HasSuffix(name, ".json") {
		if err := json.Unmarshal(body, &v); err != nil {
			return fmt.Errorf("%s: %w", name, err)
		}
		return nil
	}
	if err := yaml.Unmarshal(body, &v); err != nil {
		return fmt.Errorf("%s: %w", name, err)
	}
	return nil
}

func (r *Receiver) accepted(w http.ResponseWriter, name string, n int) {
	receipt := Receipt{Name: name, Bytes: n, ReceivedAt: r.now().UTC()}
	r.mu.Lock()
	if len(r.recent) >= recentLimit {
		r.recent = r.recent[1:]
	}
	r.recent = append(r.recent, receipt)
	r.mu.Unlock()

	r.logger.Info("snapshot pushed", "name", name, "bytes", n)
	if r.audit != nil {
		if err := r.audit.Log(domain.ActionSnapshotPushed, "ingest", map[string]any{"name": name, "bytes": n}); err != nil {
			r.logger.Warn("failed to record audit event", "error", err)
		}
	}
	writeJSON(w, http.StatusAccepted, receipt)
}

func (r *Receiver) handleRecent(w http.ResponseWriter, req *http.Request) {
	writeJSON(w, http.StatusOK, r.Recent())
}

// Recent returns the last accepted pushes, oldest first.
func (r *Receiver) Recent() []Receipt {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Receipt, len(r.recent))
	copy(out, r.recent)
	return out
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

package dashboard

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/felixgeelhaar/pulse/pkg/application"
	"github.com/felixgeelhaar/pulse/pkg/domain"
	"github.com/felixgeelhaar/pulse/pkg/domain/insight"
	"github.com/felixgeelhaar/pulse/pkg/domain/warning"
)

// stubGenerator implements Generator for testing.
type stubGenerator struct {
	report *application.Report
	err    error
	last   application.Request
}

func (g *stubGenerator) Generate(ctx context.Context, req application.Request) (*application.Report, error) {
	g.last = req
	if g.err != nil {
		return nil, g.err
	}
	return g.report, nil
}

func sampleReport() *application.Report {
	return &application.Report{
		ID:          "r-1",
		GeneratedAt: time.Date(2026, 5, 10, 9, 0, 0, 0, time.UTC),
		Days:        30,
		Horizon:     "all",
		Severity:    warning.SeverityMedium,
		Narrative:   "Watch: 2 approvals pending.",
		Insights: []insight.Insight{
			{ID: insight.IDWarnings, Severity: warning.SeverityMedium, Title: "Portfolio warnings", Body: "Watch: 2 approvals pending.", Href: "/insights/flow?days=30"},
			{ID: insight.IDApprovals, Severity: warning.SeverityMedium, Title: "2 approvals pending", Href: "/approvals?days=30"},
		},
	}
}

func newTestServer(t *testing.T, gen Generator, opts Options) http.Handler {
	t.Helper()
	s, err := NewServer(":0", gen, opts)
	if err != nil {
		t.Fatalf("NewServer failed: %v", err)
	}
	return s.Handler()
}

func TestHandleHealth(t *testing.T) {
	h := newTestServer(t, &stubGenerator{}, Options{})
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), `"ok"`) {
		t.Errorf("unexpected health response %d %s", rec.Code, rec.Body.String())
	}
}

func TestHandleAPIInsights(t *testing.T) {
	gen := &stubGenerator{report: sampleReport()}
	h := newTestServer(t, gen, Options{Defaults: application.Request{Days: 14}})

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/insights?horizon=60d", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if gen.last.Days != 14 || gen.last.Horizon.String() != "60d" || gen.last.Actor != "http" {
		t.Errorf("unexpected request %+v", gen.last)
	}

	var body struct {
		ID       string            `json:"id"`
		Insights []insight.Insight `json:"insights"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if body.ID != "r-1" || len(body.Insights) != 2 || body.Insights[0].ID != insight.IDWarnings {
		t.Errorf("unexpected body %+v", body)
	}
}

func TestHandleAPIWarnings(t *testing.T) {
	h := newTestServer(t, &stubGenerator{report: sampleReport()}, Options{})

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/warnings?days=7", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var view WarningsView
	if err := json.Unmarshal(rec.Body.Bytes(), &view); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if view.Severity != warning.SeverityMedium || view.Narrative == "" || view.ReportID != "r-1" {
		t.Errorf("unexpected view %+v", view)
	}
}

func TestHandleAPI_Errors(t *testing.T) {
	tests := []struct {
		name string
		gen  *stubGenerator
		path string
		want int
	}{
		{"bad days", &stubGenerator{report: sampleReport()}, "/api/insights?days=abc", http.StatusBadRequest},
		{"bad horizon", &stubGenerator{report: sampleReport()}, "/api/warnings?horizon=soon", http.StatusBadRequest},
		{"not initialized", &stubGenerator{err: domain.ErrNotInitialized}, "/api/insights", http.StatusServiceUnavailable},
		{"no projects", &stubGenerator{err: domain.ErrNoProjects}, "/api/warnings", http.StatusServiceUnavailable},
		{"deadline", &stubGenerator{err: context.DeadlineExceeded}, "/api/insights", http.StatusGatewayTimeout},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			newTestServer(t, tt.gen, Options{}).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, tt.path, nil))
			if rec.Code != tt.want {
				t.Errorf("expected %d, got %d", tt.want, rec.Code)
			}
		})
	}
}

func TestHandleIndex(t *testing.T) {
	h := newTestServer(t, &stubGenerator{report: sampleReport()}, Options{})
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	body := rec.Body.String()
	for _, want := range []string{"Portfolio pulse", `id="ai-warning"`, "severity-medium", "2 approvals pending"} {
		if !strings.Contains(body, want) {
			t.Errorf("page missing %q", want)
		}
	}
}

func TestHandleIndex_ShowsError(t *testing.T) {
	h := newTestServer(t, &stubGenerator{err: domain.ErrNoProjects}, Options{})
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	if !strings.Contains(rec.Body.String(), domain.ErrNoProjects.Error()) {
		t.Errorf("expected error on page, got %s", rec.Body.String())
	}
}

func TestOptionalRoutes(t *testing.T) {
	stream := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusTeapot) })

	with := newTestServer(t, &stubGenerator{}, Options{Stream: stream, Socket: stream, Ingest: stream})
	without := newTestServer(t, &stubGenerator{}, Options{})

	for _, path := range []string{"/api/stream", "/ws", "/ingest/recent"} {
		rec := httptest.NewRecorder()
		with.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
		if rec.Code != http.StatusTeapot {
			t.Errorf("%s: expected mounted handler, got %d", path, rec.Code)
		}
		rec = httptest.NewRecorder()
		without.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
		if rec.Code != http.StatusNotFound {
			t.Errorf("%s: expected 404 when not configured, got %d", path, rec.Code)
		}
	}
}

func TestShutdownBeforeStart(t *testing.T) {
	s, err := NewServer(":0", &stubGenerator{}, Options{})
	if err != nil {
		t.Fatal(err)
	}
	if err := s.Shutdown(context.Background()); err != nil {
		t.Errorf("expected nil, got %v", err)
	}
}

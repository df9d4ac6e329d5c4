// Package dashboard serves the portfolio insight report over HTTP.
package dashboard

import (
	"context"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"html/template"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/felixgeelhaar/pulse/pkg/application"
	"github.com/felixgeelhaar/pulse/pkg/domain"
	"github.com/felixgeelhaar/pulse/pkg/domain/warning"
	"github.com/felixgeelhaar/pulse/pkg/domain/wbs"
)

//go:embed templates/*
var templatesFS embed.FS

// Generator produces reports on demand.
type Generator interface {
	Generate(ctx context.Context, req application.Request) (*application.Report, error)
}

// Options wires optional live-update handlers and request defaults.
type Options struct {
	Defaults application.Request
	Stream   http.Handler
	Socket   http.Handler
	// Ingest serves everything under /ingest/.
	Ingest http.Handler
	Logger *slog.Logger
}

// Server is the dashboard HTTP server.
type Server struct {
	addr   string
	gen    Generator
	opts   Options
	server *http.Server
	tmpl   *template.Template
	logger *slog.Logger
}

// NewServer creates a new dashboard server.
func NewServer(addr string, gen Generator, opts Options) (*Server, error) {
	funcMap := template.FuncMap{
		"severityClass": severityClass,
		"formatTime":    formatTime,
		"join":          strings.Join,
	}

	tmpl, err := template.New("").Funcs(funcMap).ParseFS(templatesFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("parse templates: %w", err)
	}

	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	s := &Server{
		addr:   addr,
		gen:    gen,
		opts:   opts,
		tmpl:   tmpl,
		logger: logger,
	}
	s.server = &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 15 * time.Second,
	}
	return s, nil
}

// Handler returns the route table.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /{$}", s.handleIndex)
	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /api/insights", s.handleAPIInsights)
	mux.HandleFunc("GET /api/warnings", s.handleAPIWarnings)
	if s.opts.Stream != nil {
		mux.Handle("GET /api/stream", s.opts.Stream)
	}
	if s.opts.Socket != nil {
		mux.Handle("GET /ws", s.opts.Socket)
	}
	if s.opts.Ingest != nil {
		mux.Handle("/ingest/", s.opts.Ingest)
	}
	return mux
}

// Start starts the dashboard server. It returns http.ErrServerClosed after
// Shutdown.
func (s *Server) Start() error {
	s.logger.Info("dashboard server starting", "addr", s.addr)
	return s.server.ListenAndServe()
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}

// PageData holds data for template rendering.
type PageData struct {
	Title  string
	Report *application.Report
	Error  string
}

// WarningsView is the /api/warnings body.
type WarningsView struct {
	ReportID  string            `json:"report_id"`
	Severity  warning.Severity  `json:"severity"`
	Narrative string            `json:"narrative"`
	Warnings  []warning.Warning `json:"warnings"`
	Degraded  []string          `json:"degraded,omitempty"`
}

// NewWarningsView projects r onto the warnings body.
func NewWarningsView(r *application.Report) WarningsView {
	return WarningsView{
		ReportID:  r.ID,
		Severity:  r.Severity,
		Narrative: r.Narrative,
		Warnings:  r.Warnings.Warnings(),
		Degraded:  r.Degraded,
	}
}

func (s *Server) request(r *http.Request) (application.Request, error) {
	req := s.opts.Defaults
	q := r.URL.Query()
	if v := q.Get("days"); v != "" {
		days, err := strconv.Atoi(v)
		if err != nil || days < 0 {
			return req, fmt.Errorf("invalid days %q", v)
		}
		req.Days = days
	}
	if v := q.Get("horizon"); v != "" {
		h, err := wbs.ParseHorizon(v)
		if err != nil {
			return req, err
		}
		req.Horizon = h
	}
	req.Actor = "http"
	return req, nil
}

func (s *Server) generate(w http.ResponseWriter, r *http.Request) (*application.Report, bool) {
	req, err := s.request(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return nil, false
	}
	report, err := s.gen.Generate(r.Context(), req)
	if err != nil {
		s.logger.Error("report generation failed", "error", err)
		writeError(w, statusFor(err), err)
		return nil, false
	}
	return report, true
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	data := PageData{Title: "Portfolio pulse"}
	if req, err := s.request(r); err != nil {
		data.Error = err.Error()
	} else if report, err := s.gen.Generate(r.Context(), req); err != nil {
		data.Error = err.Error()
	} else {
		data.Report = report
	}
	s.render(w, "index.html", data)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleAPIInsights(w http.ResponseWriter, r *http.Request) {
	report, ok := s.generate(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, report)
}

func (s *Server) handleAPIWarnings(w http.ResponseWriter, r *http.Request) {
	report, ok := s.generate(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, NewWarningsView(report))
}

func (s *Server) render(w http.ResponseWriter, name string, data interface{}) {
	if err := s.tmpl.ExecuteTemplate(w, name, data); err != nil {
		s.logger.Error("template error", "template", name, "error", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
	}
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrNotInitialized), errors.Is(err, domain.ErrNoProjects):
		return http.StatusServiceUnavailable
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

func severityClass(s warning.Severity) string {
	if !s.IsValid() {
		return "severity-info"
	}
	return "severity-" + string(s)
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.Format("2006-01-02 15:04")
}

// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package dashboard

import (
	"bytes"
	"context"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"html/template"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/pdiddy/pubdash/internal/observability"
	"github.com/pdiddy/pubdash/internal/pipeline"
	"github.com/pdiddy/pubdash/internal/table"
	"github.com/pdiddy/pubdash/pkg/types"
)

//go:embed templates/*.html
var templateFS embed.FS

var pageTemplate = template.Must(template.New("dashboard.html").Funcs(template.FuncMap{
	"yes": func(b bool) string {
		if b {
			return "Yes"
		}
		return "No"
	},
}).ParseFS(templateFS, "templates/dashboard.html"))

// Loader produces snapshots. *pipeline.Loader implements it.
type Loader interface {
	Load(ctx context.Context, req pipeline.Request) *pipeline.Snapshot
}

// Server serves the dashboard.
type Server struct {
	router     chi.Router
	httpServer *http.Server
	loader     Loader
	request    pipeline.Request
	cfg        types.DashboardConfig
	metrics    *observability.Metrics
	gatherer   prometheus.Gatherer
	logger     zerolog.Logger
}

// NewServer creates a dashboard server for req. gatherer backs /metrics and
// may be nil to omit the endpoint.
func NewServer(
	cfg types.DashboardConfig,
	loader Loader,
	req pipeline.Request,
	metrics *observability.Metrics,
	gatherer prometheus.Gatherer,
	logger zerolog.Logger,
) *Server {
	s := &Server{
		loader:   loader,
		request:  req,
		cfg:      cfg,
		metrics:  metrics,
		gatherer: gatherer,
		logger:   observability.Component(logger, "dashboard"),
	}
	s.router = s.buildRouter()
	s.httpServer = &http.Server{
		Addr:              cfg.Address,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

// Handler returns the root HTTP handler.
func (s *Server) Handler() http.Handler { return s.router }

func (s *Server) buildRouter() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(s.requestLogger)

	r.Get("/", s.handleDashboard)
	r.Get("/export.csv", s.handleExport)
	r.Get("/api/view", s.handleViewJSON)
	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	if s.gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{}))
	}
	return r
}

// Start listens on the configured address and serves until Shutdown.
func (s *Server) Start() error {
	ln, err := net.Listen("tcp", s.httpServer.Addr)
	if err != nil {
		return fmt.Errorf("listen on dashboard address: %w", err)
	}
	s.logger.Info().Str("address", ln.Addr().String()).Msg("dashboard listening")
	if err := s.httpServer.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// render runs one pass of the pipeline for r's year selection.
func (s *Server) render(r *http.Request, route string) View {
	s.metrics.ObserveRender(route)
	in, notices := ParseRangeInput(r.URL.Query())
	snap := s.loader.Load(r.Context(), s.request)
	v := BuildView(snap, in, s.cfg)
	v.Notices = append(notices, v.Notices...)
	return v
}

func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	v := s.render(r, "dashboard")

	var buf bytes.Buffer
	if err := pageTemplate.Execute(&buf, v); err != nil {
		s.logger.Error().Err(err).Msg("rendering dashboard")
		http.Error(w, "failed to render dashboard", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = buf.WriteTo(w)
}

func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	v := s.render(r, "export")

	var buf bytes.Buffer
	if err := table.WriteCSV(&buf, v.Filtered()); err != nil {
		s.logger.Error().Err(err).Msg("writing CSV export")
		http.Error(w, "failed to export CSV", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, ExportFilename(v.Selected)))
	_, _ = buf.WriteTo(w)
}

func (s *Server) handleViewJSON(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.render(r, "api"))
}

// ExportFilename names the CSV download for a selection.
func ExportFilename(r table.YearRange) string {
	return fmt.Sprintf("publications_%d-%d.csv", r.Lo, r.Hi)
}

// requestLogger logs each request with its chi request id.
func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		s.logger.Debug().
			Str("request_id", middleware.GetReqID(r.Context())).
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", ww.Status()).
			Dur("duration", time.Since(start)).
			Msg("request")
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	_ = enc.Encode(v)
}

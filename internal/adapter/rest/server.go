package rest

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/dealscout/dealscout-backend/internal/usecase/acquisition"
	"github.com/dealscout/dealscout-backend/internal/usecase/analyzer"
)

// Server is the REST surface of the analysis engine
type Server struct {
	Analyzer    *analyzer.Service
	Acquisition *acquisition.Service

	router chi.Router
	logger *slog.Logger
}

// NewServer creates a new Server instance and mounts its routes.
// authToken guards /api/v1; /healthz and /metrics stay open.
func NewServer(
	analyzerSvc *analyzer.Service,
	acquisitionSvc *acquisition.Service,
	authToken string,
	logger *slog.Logger,
) *Server {
	s := &Server{
		Analyzer:    analyzerSvc,
		Acquisition: acquisitionSvc,
		logger:      logger,
	}

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(RequestLogger(logger))

	r.Get("/healthz", s.handleHealthz)
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(BearerAuth(authToken))
		r.Post("/analyze", s.handleAnalyze)
		r.Get("/quota", s.handleQuotaStatus)
		r.Post("/quota/reset", s.handleQuotaReset)
	})

	s.router = r
	return s
}

// Handler returns the mounted router
func (s *Server) Handler() http.Handler {
	return s.router
}

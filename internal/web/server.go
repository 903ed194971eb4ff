package web

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-playground/validator/v10"

	"github.com/emiliopalmerini/agentlab/internal/adapters/otel"
	"github.com/emiliopalmerini/agentlab/internal/ports"
	"github.com/emiliopalmerini/agentlab/internal/rating"
	"github.com/emiliopalmerini/agentlab/internal/realtime"
)

const defaultHeartbeat = 15 * time.Second

// Config holds server-specific configuration.
type Config struct {
	Addr            string
	ShutdownTimeout time.Duration
}

// Deps are the collaborators the HTTP API is built on.
type Deps struct {
	Experiments ports.ExperimentRepository
	Battles     ports.BattleRepository
	Rating      *rating.Service
	Hub         *realtime.Hub
	Metrics     ports.MetricsExporter
	Logger      ports.Logger
}

type Server struct {
	cfg         Config
	router      chi.Router
	experiments ports.ExperimentRepository
	battles     ports.BattleRepository
	rating      *rating.Service
	hub         *realtime.Hub
	metrics     ports.MetricsExporter
	logger      ports.Logger
	validate    *validator.Validate
	now         func() time.Time
	heartbeat   time.Duration
}

func NewServer(cfg Config, deps Deps) *Server {
	s := &Server{
		cfg:         cfg,
		router:      chi.NewRouter(),
		experiments: deps.Experiments,
		battles:     deps.Battles,
		rating:      deps.Rating,
		hub:         deps.Hub,
		metrics:     deps.Metrics,
		logger:      deps.Logger,
		validate:    newValidator(),
		now:         time.Now,
		heartbeat:   defaultHeartbeat,
	}
	if s.metrics == nil {
		s.metrics = otel.NewNoOpExporter()
	}
	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	r := s.router

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.requestLogger)
	r.Use(middleware.Recoverer)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	r.Route("/api", func(r chi.Router) {
		r.Get("/dashboard", s.handleDashboard)

		r.Route("/experiments", func(r chi.Router) {
			r.Get("/", s.handleListExperiments)
			r.Post("/", s.handleCreateExperiment)
			r.Get("/{id}", s.handleGetExperiment)
			r.Put("/{id}/rating", s.handleRateExperiment)
			r.Delete("/{id}", s.handleDeleteExperiment)
		})

		r.Get("/battles", s.handleListBattles)
		r.Post("/battles", s.handleCreateBattle)
		r.Get("/leaderboard", s.handleLeaderboard)
		r.Get("/changes", s.handleChanges)
	})
}

// Handler exposes the router, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Start(ctx context.Context) error {
	server := &http.Server{
		Addr:        s.cfg.Addr,
		Handler:     s.router,
		ReadTimeout: 15 * time.Second,
		// No WriteTimeout: /api/changes streams indefinitely.
		IdleTimeout: 60 * time.Second,
	}

	s.logger.Info("starting server", "addr", s.cfg.Addr)

	go func() {
		<-ctx.Done()
		timeout := s.cfg.ShutdownTimeout
		if timeout <= 0 {
			timeout = 5 * time.Second
		}
		shutdownCtx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			s.logger.Error("server shutdown error", "error", err)
		}
	}()

	err := server.ListenAndServe()
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		s.logger.Debug("http request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"bytes", ww.BytesWritten(),
			"duration", time.Since(start),
			"request_id", middleware.GetReqID(r.Context()))
	})
}

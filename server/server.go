// Package server exposes the calendar feed over HTTP.
package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"

	"github.com/s0up4200/animecal/calendar"
	"github.com/s0up4200/animecal/metrics"
)

// errorBody is the response body of a failed feed build
const errorBody = "An error occurred"

// Builder produces the encoded calendar feed
type Builder interface {
	Build(ctx context.Context) ([]byte, error)
}

// Config holds listener settings
type Config struct {
	Addr              string
	ReadHeaderTimeout time.Duration
	SlowRequest       time.Duration
}

// Server is a thin wrapper over chi + stdlib http.Server
type Server struct {
	addr    string
	mux     *chi.Mux
	srv     *http.Server
	builder Builder
	logger  zerolog.Logger
}

// New creates the server and mounts its routes. gatherer may be nil to
// disable /metrics.
func New(cfg Config, builder Builder, gatherer prometheus.Gatherer, logger zerolog.Logger) *Server {
	logger = logger.With().Str("component", "http").Logger()
	if cfg.ReadHeaderTimeout <= 0 {
		cfg.ReadHeaderTimeout = 10 * time.Second
	}

	s := &Server{
		addr:    cfg.Addr,
		mux:     chi.NewRouter(),
		builder: builder,
		logger:  logger,
	}

	s.mux.Use(requestLogger(logger))
	s.mux.Use(accessLog(cfg.SlowRequest))
	s.mux.Use(chimw.Recoverer)

	s.mux.Get("/", s.handleCalendar)
	s.mux.Get("/calendar.ics", s.handleCalendar)
	s.mux.Get("/healthz", handleHealth)
	if gatherer != nil {
		s.mux.Method(http.MethodGet, "/metrics", metrics.Handler(gatherer))
	}

	s.srv = &http.Server{
		Addr:              cfg.Addr,
		Handler:           s.mux,
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
	}
	return s
}

// Handler returns the routed handler
func (s *Server) Handler() http.Handler { return s.mux }

// Run starts the server and blocks until it is shut down
func (s *Server) Run() error {
	s.logger.Info().Str("addr", s.addr).Msg("http listening")
	err := s.srv.ListenAndServe()
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

// Shutdown stops the server gracefully
func (s *Server) Shutdown(ctx context.Context) error {
	return s.srv.Shutdown(ctx)
}

func (s *Server) handleCalendar(w http.ResponseWriter, r *http.Request) {
	body, err := s.builder.Build(r.Context())
	if err != nil {
		zerolog.Ctx(r.Context()).Error().Err(err).Msg("Failed to build calendar feed")
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(errorBody))
		return
	}

	w.Header().Set("Content-Type", calendar.ContentType)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(body)
}

func handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

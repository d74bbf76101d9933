// Package server implements flowtoy's read-only status HTTP API,
// grounded on original_source/flowtoy/runner_api.py for the /status and
// /outputs handler shapes, and on the teacher's internal/server/server.go
// for the Go HTTP server scaffolding (gorilla/mux routing, configurable
// timeouts, graceful shutdown).
package server

import (
	"context"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/flowtoy/flowtoy/internal/scheduler"
)

// Config controls the HTTP server's bind address and timeouts.
type Config struct {
	Host            string
	Port            int
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	ShutdownTimeout time.Duration
}

// DefaultConfig returns sane defaults, matching the teacher's
// internal/server.DefaultConfig.
func DefaultConfig() Config {
	return Config{
		Host:            "127.0.0.1",
		Port:            0,
		ReadTimeout:     15 * time.Second,
		WriteTimeout:    15 * time.Second,
		IdleTimeout:     60 * time.Second,
		ShutdownTimeout: 5 * time.Second,
	}
}

// Server exposes /status, /outputs, /status/stream, /metrics and
// /healthz for a single in-process run. The scheduler can be attached
// after the server starts (the "serve" CLI command starts the server and
// the run concurrently), in which case /status reports
// {"status": "no-runner"} and /outputs returns {} until Attach is called,
// matching the original API's `runner is None` branch.
type Server struct {
	cfg    Config
	log    zerolog.Logger
	router *mux.Router
	http   *http.Server

	mu   sync.RWMutex
	sched *scheduler.Scheduler

	upgrader websocket.Upgrader
}

// New builds a Server; call Attach once a run's Scheduler exists and
// ListenAndServe to start serving.
func New(cfg Config, log zerolog.Logger) *Server {
	s := &Server{
		cfg:      cfg,
		log:      log,
		router:   mux.NewRouter(),
		upgrader: websocket.Upgrader{CheckOrigin: func(r *http.Request) bool { return true }},
	}
	s.routes()
	return s
}

func (s *Server) routes() {
	s.router.HandleFunc("/status", s.handleStatus).Methods(http.MethodGet)
	s.router.HandleFunc("/outputs", s.handleOutputs).Methods(http.MethodGet)
	s.router.HandleFunc("/status/stream", s.handleStream).Methods(http.MethodGet)
	s.router.HandleFunc("/healthz", s.handleHealthz).Methods(http.MethodGet)
	s.router.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet)
}

// Attach makes sched visible to every handler. Safe to call once, before
// or after ListenAndServe.
func (s *Server) Attach(sched *scheduler.Scheduler) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sched = sched
}

func (s *Server) scheduler() *scheduler.Scheduler {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.sched
}

// Addr returns the bind address the server listens on once started.
func (s *Server) Addr() string {
	if s.http != nil {
		return s.http.Addr
	}
	return ""
}

// ListenAndServe blocks serving HTTP until ctx is cancelled.
func (s *Server) ListenAndServe(ctx context.Context) error {
	addr := hostPort(s.cfg)
	s.http = &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  s.cfg.ReadTimeout,
		WriteTimeout: s.cfg.WriteTimeout,
		IdleTimeout:  s.cfg.IdleTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.Info().Str("addr", addr).Msg("status server listening")
		errCh <- s.http.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err == http.ErrServerClosed {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), s.cfg.ShutdownTimeout)
		defer cancel()
		return s.http.Shutdown(shutdownCtx)
	}
}

func hostPort(cfg Config) string {
	return cfg.Host + ":" + strconv.Itoa(cfg.Port)
}

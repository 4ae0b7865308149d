// Package server exposes the alarm service over HTTP.
package server

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/manav03panchal/alarmd/internal/alarm"
	"github.com/manav03panchal/alarmd/internal/logging"
	"github.com/manav03panchal/alarmd/internal/model"
)

// ShutdownTimeout bounds the graceful drain of in-flight requests.
const ShutdownTimeout = 10 * time.Second

// RequestIDHeader carries the request ID in both directions.
const RequestIDHeader = "X-Request-ID"

// Alarms is the part of alarm.Service the API drives.
type Alarms interface {
	Set(ctx context.Context, req alarm.Request) (alarm.Result, error)
	Cancel(ctx context.Context, label string) (*model.Alarm, bool)
	CancelTimeSpec(ctx context.Context, timeSpec string) (*model.Alarm, bool)
	List() []model.Alarm
}

// Ticker fires due timers. *scheduler.Scheduler implements it.
type Ticker interface {
	RunDue(ctx context.Context) int
}

// Config wires a Server.
type Config struct {
	Addr   string
	Alarms Alarms

	// Ticker, when set, is run before every request. This is cooperative
	// mode: alarms fire only as often as the API is called.
	Ticker Ticker

	// Health and Metrics render the bodies of GET /health and GET /metrics.
	Health  func() any
	Metrics func() any
}

// Server is the alarmd HTTP API.
type Server struct {
	config     Config
	router     *mux.Router
	httpServer *http.Server
}

// New creates a Server with its routes registered.
func New(config Config) *Server {
	s := &Server{
		config: config,
		router: mux.NewRouter(),
	}
	s.setupRoutes()
	return s
}

// Handler returns the routed handler, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

// ListenAndServe serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.config.Addr)
	if err != nil {
		return err
	}
	return s.Serve(ctx, ln)
}

// Serve is ListenAndServe on an existing listener.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	s.httpServer = &http.Server{
		Handler:           s.router,
		ReadHeaderTimeout: 5 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- s.httpServer.Serve(ln)
	}()
	logging.Info("http api listening", "addr", ln.Addr().String(), "cooperative", s.config.Ticker != nil)

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), ShutdownTimeout)
	defer cancel()
	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		return err
	}
	logging.Info("http api stopped")
	return nil
}

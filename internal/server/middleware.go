package server

import (
	"context"
	"net/http"
	"time"

	"github.com/manav03panchal/alarmd/internal/logging"
)

// requestIDMiddleware attaches a request ID to the context, reusing the
// caller's X-Request-ID when present.
func requestIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(RequestIDHeader)
		if id == "" {
			id = logging.GenerateRequestID()
		}
		w.Header().Set(RequestIDHeader, id)
		next.ServeHTTP(w, r.WithContext(logging.WithRequestID(r.Context(), id)))
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func accessLogMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		logging.LoggerFromContext(r.Context()).Debug("http request",
			"method", r.Method,
			"path", r.URL.Path,
			logging.KeyStatus, rec.status,
			logging.KeyDuration, time.Since(start).Milliseconds(),
		)
	})
}

// cooperativeMiddleware fires whatever is due before the request is served,
// so a listing never shows an alarm that should already have gone off.
// Callbacks run detached from the request: a client that hangs up must not
// cut short an announcement whose alarm has already left the registry.
func (s *Server) cooperativeMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if n := s.config.Ticker.RunDue(context.WithoutCancel(r.Context())); n > 0 {
			logging.LoggerFromContext(r.Context()).Debug("fired due alarms", logging.KeyCount, n)
		}
		next.ServeHTTP(w, r)
	})
}

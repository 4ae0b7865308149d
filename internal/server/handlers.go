package server

import (
	"encoding/json"
	"net/http"
	"net/url"

	"github.com/gorilla/mux"

	"github.com/manav03panchal/alarmd/internal/alarm"
	apperrors "github.com/manav03panchal/alarmd/internal/errors"
	"github.com/manav03panchal/alarmd/internal/logging"
	"github.com/manav03panchal/alarmd/internal/model"
)

// ListResponse is the body of GET /alarms.
type ListResponse struct {
	Alarms []model.Alarm `json:"alarms"`
	Count  int           `json:"count"`
}

// CancelResponse is the body of a successful DELETE.
type CancelResponse struct {
	Cancelled *model.Alarm `json:"cancelled"`
}

// ErrorResponse is the body of every non-2xx answer.
type ErrorResponse struct {
	Error      string `json:"error"`
	Category   string `json:"category"`
	Suggestion string `json:"suggestion,omitempty"`
}

func (s *Server) setupRoutes() {
	// Match on the escaped path so a label such as "at/home" is not taken
	// for the timespec route.
	s.router.UseEncodedPath()
	s.router.Use(requestIDMiddleware, accessLogMiddleware)
	if s.config.Ticker != nil {
		s.router.Use(s.cooperativeMiddleware)
	}

	s.router.HandleFunc("/health", s.health).Methods(http.MethodGet)
	s.router.HandleFunc("/metrics", s.metrics).Methods(http.MethodGet)

	alarms := s.router.PathPrefix("/alarms").Subrouter()
	alarms.HandleFunc("", s.listAlarms).Methods(http.MethodGet)
	alarms.HandleFunc("", s.setAlarm).Methods(http.MethodPost)
	alarms.HandleFunc("/at/{timespec}", s.cancelTimeSpec).Methods(http.MethodDelete)
	// Labels may be empty or contain slashes.
	alarms.HandleFunc("/{label:.*}", s.cancelLabel).Methods(http.MethodDelete)
}

func (s *Server) listAlarms(w http.ResponseWriter, r *http.Request) {
	list := s.config.Alarms.List()
	writeJSON(w, http.StatusOK, ListResponse{Alarms: list, Count: len(list)})
}

func (s *Server) setAlarm(w http.ResponseWriter, r *http.Request) {
	var req alarm.Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, r, apperrors.NewUserError("Invalid request body: "+err.Error(),
			`Send JSON like {"time_spec":"2030-01-01T07:30","label":"wake up"}.`))
		return
	}

	res, err := s.config.Alarms.Set(r.Context(), req)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, resultStatus(res.Status), res)
}

// resultStatus maps a Set outcome onto an HTTP status. Rejections that are
// not boundary errors still carry the Result body.
func resultStatus(st alarm.Status) int {
	switch st {
	case alarm.StatusScheduled:
		return http.StatusCreated
	case alarm.StatusDuplicate:
		return http.StatusOK
	default:
		return http.StatusUnprocessableEntity
	}
}

func (s *Server) cancelLabel(w http.ResponseWriter, r *http.Request) {
	label, err := pathVar(r, "label")
	if err != nil {
		writeError(w, r, err)
		return
	}
	a, ok := s.config.Alarms.Cancel(r.Context(), label)
	if !ok {
		writeError(w, r, apperrors.Wrapf(apperrors.ErrAlarmNotFound, "no alarm labelled %q", label))
		return
	}
	writeJSON(w, http.StatusOK, CancelResponse{Cancelled: a})
}

func (s *Server) cancelTimeSpec(w http.ResponseWriter, r *http.Request) {
	spec, err := pathVar(r, "timespec")
	if err != nil {
		writeError(w, r, err)
		return
	}
	a, ok := s.config.Alarms.CancelTimeSpec(r.Context(), spec)
	if !ok {
		writeError(w, r, apperrors.Wrapf(apperrors.ErrAlarmNotFound, "no alarm set for %s", spec))
		return
	}
	writeJSON(w, http.StatusOK, CancelResponse{Cancelled: a})
}

// pathVar returns the unescaped route variable name.
func pathVar(r *http.Request, name string) (string, error) {
	v, err := url.PathUnescape(mux.Vars(r)[name])
	if err != nil {
		return "", apperrors.NewUserError("Invalid "+name+" in path: "+err.Error(),
			"Escape the value with URL path encoding.")
	}
	return v, nil
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	if s.config.Health == nil {
		writeJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
		return
	}
	writeJSON(w, http.StatusOK, s.config.Health())
}

func (s *Server) metrics(w http.ResponseWriter, r *http.Request) {
	if s.config.Metrics == nil {
		writeJSON(w, http.StatusOK, map[string]any{})
		return
	}
	writeJSON(w, http.StatusOK, s.config.Metrics())
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logging.Warn("failed to encode response", logging.KeyError, err)
	}
}

func writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := apperrors.HTTPStatus(err)
	log := logging.LoggerFromContext(r.Context())
	if status >= http.StatusInternalServerError {
		log.Error("request failed", logging.KeyError, err)
	} else {
		log.Debug("request rejected", logging.KeyError, err, logging.KeyStatus, status)
	}
	writeJSON(w, status, ErrorResponse{
		Error:      err.Error(),
		Category:   apperrors.Classify(err).String(),
		Suggestion: apperrors.GetSuggestion(err),
	})
}

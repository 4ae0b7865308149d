// Package alarm owns the lifecycle of briefing alarms.
//
// A Service validates submissions, suppresses duplicates, arms a scheduler
// timer per alarm, records every mutation in an event sink and removes the
// alarm again when its timer fires or the user cancels it. On startup,
// Restore rebuilds the same state from the event log.
package alarm

import (
	"context"
	"strings"
	"sync"
	"time"

	apperrors "github.com/manav03panchal/alarmd/internal/errors"
	"github.com/manav03panchal/alarmd/internal/announce"
	"github.com/manav03panchal/alarmd/internal/eventlog"
	"github.com/manav03panchal/alarmd/internal/logging"
	"github.com/manav03panchal/alarmd/internal/model"
	"github.com/manav03panchal/alarmd/internal/scheduler"
	"github.com/manav03panchal/alarmd/internal/timespec"
)

// Config wires a Service to its collaborators. Timers is required.
type Config struct {
	Timers    Timers
	Sink      EventSink          // defaults to NopSink
	Announcer announce.Announcer // defaults to LogAnnouncer
	Now       func() time.Time   // defaults to time.Now
}

// Service is the single owner of the registry and the timers. Set, Cancel
// and the removal on fire are serialised so the duplicate check and the
// insert happen atomically.
type Service struct {
	mu        sync.Mutex
	registry  *Registry
	timers    Timers
	sink      EventSink
	announcer announce.Announcer
	now       func() time.Time
	stats     Stats
}

// NewService creates a Service with an empty registry.
func NewService(cfg Config) *Service {
	if cfg.Timers == nil {
		panic("alarm: Config.Timers is required")
	}
	s := &Service{
		registry:  NewRegistry(),
		timers:    cfg.Timers,
		sink:      cfg.Sink,
		announcer: cfg.Announcer,
		now:       cfg.Now,
	}
	if s.sink == nil {
		s.sink = NopSink{}
	}
	if s.announcer == nil {
		s.announcer = announce.LogAnnouncer{}
	}
	if s.now == nil {
		s.now = time.Now
	}
	return s
}

// Set schedules an alarm. Past, unrepresentable and duplicate submissions
// are not errors: they come back as a Status and nothing changes. Only a
// malformed time spec or an unusable label returns an error, always a
// *errors.UserError.
func (s *Service) Set(ctx context.Context, req Request) (Result, error) {
	return s.set(ctx, req, false)
}

func (s *Service) set(ctx context.Context, req Request, restoring bool) (Result, error) {
	log := logging.LoggerFromContext(ctx).With(
		logging.KeyTimeSpec, req.TimeSpec,
		logging.KeyLabel, req.Label,
	)

	if err := ValidateLabel(req.Label); err != nil {
		s.reject()
		return Result{Status: StatusInvalidLabel}, err
	}
	spec, err := timespec.Parse(req.TimeSpec)
	if err != nil {
		s.reject()
		return Result{Status: StatusMalformed}, apperrors.NewFieldError("time_spec", req.TimeSpec, apperrors.ErrMalformedTimeSpec, "")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	switch timespec.Classify(spec, now) {
	case timespec.Unrepresentable:
		s.stats.Rejected++
		log.Warn("alarm time is not a calendar instant")
		return Result{Status: StatusUnrepresentable}, nil
	case timespec.Past:
		s.stats.Rejected++
		log.Info("alarm time is not in the future")
		return Result{Status: StatusPast}, nil
	}

	if s.registry.IsSet(req.TimeSpec) {
		s.stats.Duplicates++
		log.Info("alarm already set")
		res := Result{Status: StatusDuplicate}
		if existing, ok := s.registry.FindByTimeSpec(req.TimeSpec); ok {
			out := *existing
			res.Alarm = &out
		}
		return res, nil
	}

	a := &model.Alarm{
		TimeSpec:  req.TimeSpec,
		Label:     req.Label,
		News:      req.News,
		Weather:   req.Weather,
		Title:     timespec.Title(spec),
		Due:       spec.Due(),
		CreatedAt: now,
		Restored:  restoring,
	}
	a.Handle = s.timers.Schedule(timespec.Delay(spec, now), s.fire).String()
	s.registry.Add(a)
	s.stats.Scheduled++

	if !restoring {
		if err := s.sink.Scheduled(a); err != nil {
			s.stats.SinkFailures++
			log.Error("failed to record alarm",
				logging.KeyOperation, "scheduled",
				logging.KeyError, err,
			)
		}
	}

	log.Info("alarm scheduled",
		logging.KeyHandle, a.Handle,
		logging.KeyDue, a.Due.Format(time.RFC3339),
		"restored", restoring,
	)
	out := *a
	return Result{Status: StatusScheduled, Alarm: &out}, nil
}

func (s *Service) reject() {
	s.mu.Lock()
	s.stats.Rejected++
	s.mu.Unlock()
}

// ValidateLabel rejects labels that would corrupt an event log line.
func ValidateLabel(label string) error {
	if strings.Contains(label, eventlog.Separator) {
		return apperrors.NewFieldError("label", label, apperrors.ErrLabelSeparator, "")
	}
	if strings.ContainsAny(label, "\r\n") {
		return apperrors.NewFieldError("label", label, apperrors.ErrLabelLineBreak, "")
	}
	return nil
}

// Cancel removes the first alarm carrying label and disarms its timer.
// An unknown label, including one whose alarm already fired or was
// cancelled, returns false and changes nothing.
func (s *Service) Cancel(ctx context.Context, label string) (*model.Alarm, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	a, ok := s.registry.RemoveByLabel(label)
	if !ok {
		logging.InfoContext(ctx, "no alarm to cancel", logging.KeyLabel, label)
		return nil, false
	}
	return s.cancelLocked(ctx, a), true
}

// CancelTimeSpec is Cancel keyed by time spec instead of label.
func (s *Service) CancelTimeSpec(ctx context.Context, timeSpec string) (*model.Alarm, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	a, ok := s.registry.RemoveByTimeSpec(timeSpec)
	if !ok {
		logging.InfoContext(ctx, "no alarm to cancel", logging.KeyTimeSpec, timeSpec)
		return nil, false
	}
	return s.cancelLocked(ctx, a), true
}

func (s *Service) cancelLocked(ctx context.Context, a *model.Alarm) *model.Alarm {
	s.timers.Cancel(scheduler.Handle(a.Handle))
	s.stats.Cancelled++

	if err := s.sink.Cancelled(a); err != nil {
		s.stats.SinkFailures++
		logging.ErrorContext(ctx, "failed to record cancellation",
			logging.KeyOperation, "cancelled",
			logging.KeyTimeSpec, a.TimeSpec,
			logging.KeyError, err,
		)
	}
	logging.InfoContext(ctx, "alarm cancelled",
		logging.KeyTimeSpec, a.TimeSpec,
		logging.KeyLabel, a.Label,
	)
	out := *a
	return &out
}

// fire runs on the scheduler goroutine. The alarm leaves the registry
// before the announcement, which runs with no lock held.
func (s *Service) fire(ctx context.Context, h scheduler.Handle) {
	s.mu.Lock()
	a, ok := s.registry.RemoveByHandle(h.String())
	if ok {
		s.stats.Fired++
	}
	firedAt := s.now()
	s.mu.Unlock()

	if !ok {
		logging.WarnContext(ctx, "fired timer has no alarm", logging.KeyHandle, h)
		return
	}

	if err := s.announcer.Announce(ctx, announce.NewBriefing(a, firedAt)); err != nil {
		s.mu.Lock()
		s.stats.AnnounceFailures++
		s.mu.Unlock()
		logging.ErrorContext(ctx, "announcement failed",
			logging.KeyOperation, "announce",
			logging.KeyTimeSpec, a.TimeSpec,
			logging.KeyLabel, a.Label,
			logging.KeyError, err,
		)
	}
}

// List returns the outstanding alarms in insertion order.
func (s *Service) List() []model.Alarm {
	return s.registry.List()
}

// Len returns the number of outstanding alarms.
func (s *Service) Len() int {
	return s.registry.Len()
}

// Stats returns a snapshot of the service counters.
func (s *Service) Stats() Stats {
	s.mu.Lock()
	defer s.mu.Unlock()
	st := s.stats
	st.Pending = s.registry.Len()
	return st
}

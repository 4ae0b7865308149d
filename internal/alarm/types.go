package alarm

import (
	"time"

	"github.com/manav03panchal/alarmd/internal/model"
	"github.com/manav03panchal/alarmd/internal/scheduler"
)

// Status is the outcome of a Set call.
type Status string

const (
	StatusScheduled       Status = "scheduled"
	StatusDuplicate       Status = "duplicate"
	StatusPast            Status = "past"
	StatusUnrepresentable Status = "unrepresentable"
	StatusMalformed       Status = "malformed"
	StatusInvalidLabel    Status = "invalid_label"
)

// Request is a boundary submission, already split into primitives.
type Request struct {
	TimeSpec string `json:"time_spec"`
	Label    string `json:"label"`
	News     bool   `json:"news"`
	Weather  bool   `json:"weather"`
}

// Result reports what Set did. Alarm is set for scheduled and duplicate
// outcomes; for a duplicate it is the alarm already registered.
type Result struct {
	Status Status       `json:"status"`
	Alarm  *model.Alarm `json:"alarm,omitempty"`
}

// RestoreReport summarises a Restore run.
type RestoreReport struct {
	Restored        int `json:"restored"`
	Lapsed          int `json:"lapsed"`
	Unrepresentable int `json:"unrepresentable"`
	Cancelled       int `json:"cancelled"`
	Duplicates      int `json:"duplicates"`
	Skipped         int `json:"skipped"`
}

// Stats are cumulative Service counters.
type Stats struct {
	Scheduled        uint64 `json:"scheduled"`
	Duplicates       uint64 `json:"duplicates"`
	Rejected         uint64 `json:"rejected"`
	Cancelled        uint64 `json:"cancelled"`
	Fired            uint64 `json:"fired"`
	AnnounceFailures uint64 `json:"announce_failures"`
	SinkFailures     uint64 `json:"sink_failures"`
	Pending          int    `json:"pending"`
}

// EventSink durably records mutations. *eventlog.Log implements it.
type EventSink interface {
	Scheduled(a *model.Alarm) error
	Cancelled(a *model.Alarm) error
}

// NopSink discards events. Used by offline tools and tests.
type NopSink struct{}

// Scheduled does nothing.
func (NopSink) Scheduled(*model.Alarm) error { return nil }

// Cancelled does nothing.
func (NopSink) Cancelled(*model.Alarm) error { return nil }

// Timers is the slice of the scheduler the service uses.
type Timers interface {
	Schedule(delay time.Duration, fn scheduler.Callback) scheduler.Handle
	Cancel(h scheduler.Handle) bool
}

var _ Timers = (*scheduler.Scheduler)(nil)

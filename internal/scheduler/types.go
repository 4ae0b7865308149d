package scheduler

import (
	"context"
	"time"
)

// DefaultMaxSleep bounds a single wait of the run loop so that wall-clock
// jumps and host suspend are noticed within a minute.
const DefaultMaxSleep = 60 * time.Second

// DefaultHistory is how many fired or cancelled handles State remembers.
const DefaultHistory = 1024

// Handle identifies one scheduled timer. Handles are never reused.
type Handle string

// String returns the handle as text.
func (h Handle) String() string {
	return string(h)
}

// Callback is invoked on the scheduler goroutine when a timer fires.
// It receives the handle it was scheduled under.
type Callback func(ctx context.Context, h Handle)

// TimerState is the lifecycle state of a handle.
type TimerState int

const (
	// Unknown means the handle was never issued by this scheduler, or it
	// finished so long ago that it dropped out of the history.
	Unknown TimerState = iota
	// Pending timers are waiting for their due instant.
	Pending
	// Fired timers have run their callback. Terminal.
	Fired
	// Cancelled timers were removed before firing. Terminal.
	Cancelled
)

// String returns the lower-case state name.
func (s TimerState) String() string {
	switch s {
	case Pending:
		return "pending"
	case Fired:
		return "fired"
	case Cancelled:
		return "cancelled"
	default:
		return "unknown"
	}
}

// Options configures a Scheduler. Zero values select the defaults.
type Options struct {
	// Now supplies the current time. Defaults to time.Now.
	Now func() time.Time
	// MaxSleep caps one wait of Run. Defaults to DefaultMaxSleep.
	MaxSleep time.Duration
	// History bounds the finished handles kept for State. Defaults to
	// DefaultHistory.
	History int
}

// Stats are cumulative counters since the scheduler was created.
type Stats struct {
	Scheduled uint64 `json:"scheduled"`
	Fired     uint64 `json:"fired"`
	Cancelled uint64 `json:"cancelled"`
	Panicked  uint64 `json:"panicked"`
	Pending   int    `json:"pending"`
}

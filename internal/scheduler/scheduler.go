// Package scheduler runs one-shot timers for the daemon.
//
// Timers live in a min-heap ordered by due instant. RunDue fires every timer
// that is due, one at a time on the calling goroutine; Run wraps it in a
// background loop that sleeps until the earliest due instant. Handles move
// from Pending to either Fired or Cancelled and never come back.
package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/manav03panchal/alarmd/internal/logging"
)

// Scheduler manages pending one-shot timers.
type Scheduler struct {
	mu       sync.Mutex
	heap     timerHeap
	pending  map[Handle]*timer
	finished map[Handle]TimerState
	history  []Handle // finished handles, oldest first
	limit    int
	seq      uint64
	stats    Stats

	now      func() time.Time
	maxSleep time.Duration
	wake     chan struct{}
}

// New creates a scheduler. It does nothing until Run or RunDue is called.
func New(opts Options) *Scheduler {
	s := &Scheduler{
		pending:  make(map[Handle]*timer),
		finished: make(map[Handle]TimerState),
		now:      opts.Now,
		maxSleep: opts.MaxSleep,
		limit:    opts.History,
		wake:     make(chan struct{}, 1),
	}
	if s.now == nil {
		s.now = time.Now
	}
	if s.maxSleep <= 0 {
		s.maxSleep = DefaultMaxSleep
	}
	if s.limit <= 0 {
		s.limit = DefaultHistory
	}
	return s
}

// Schedule arranges for fn to run once delay has elapsed and returns the
// timer's handle. A delay of zero or less makes the timer due immediately;
// it still only runs from RunDue, never inline.
func (s *Scheduler) Schedule(delay time.Duration, fn Callback) Handle {
	if fn == nil {
		panic("scheduler: nil callback")
	}

	s.mu.Lock()
	s.seq++
	t := &timer{
		handle: Handle(uuid.NewString()),
		due:    s.now().Add(delay),
		seq:    s.seq,
		fn:     fn,
	}
	heapPush(&s.heap, t)
	s.pending[t.handle] = t
	s.stats.Scheduled++
	s.mu.Unlock()

	logging.DebugLog("timer scheduled",
		logging.KeyHandle, t.handle,
		logging.KeyDue, t.due.Format(time.RFC3339),
	)
	s.signal()
	return t.handle
}

// Cancel removes a pending timer. It reports whether the timer was pending;
// cancelling an unknown, fired or already cancelled handle is a no-op.
func (s *Scheduler) Cancel(h Handle) bool {
	s.mu.Lock()
	t, ok := s.pending[h]
	if !ok {
		state := s.stateLocked(h)
		s.mu.Unlock()
		logging.Info("cancel ignored",
			logging.KeyHandle, h,
			logging.KeyStatus, state.String(),
		)
		return false
	}
	heapRemove(&s.heap, t)
	delete(s.pending, h)
	s.finishLocked(h, Cancelled)
	s.stats.Cancelled++
	s.mu.Unlock()

	logging.DebugLog("timer cancelled", logging.KeyHandle, h)
	s.signal()
	return true
}

// RunDue fires every timer whose due instant has been reached, earliest
// first, and returns how many fired. Callbacks run synchronously with no
// lock held. It stops early if ctx is done.
func (s *Scheduler) RunDue(ctx context.Context) int {
	fired := 0
	for ctx.Err() == nil {
		t := s.popDue()
		if t == nil {
			break
		}
		s.invoke(ctx, t)
		fired++
	}
	return fired
}

func (s *Scheduler) popDue() *timer {
	s.mu.Lock()
	defer s.mu.Unlock()

	next := s.heap.peek()
	if next == nil || next.due.After(s.now()) {
		return nil
	}
	t := heapPop(&s.heap)
	delete(s.pending, t.handle)
	s.finishLocked(t.handle, Fired)
	s.stats.Fired++
	return t
}

// finishLocked records a terminal state, forgetting the oldest finished
// handle once the history is full.
func (s *Scheduler) finishLocked(h Handle, state TimerState) {
	if len(s.history) >= s.limit {
		delete(s.finished, s.history[0])
		s.history = append(s.history[:0], s.history[1:]...)
	}
	s.finished[h] = state
	s.history = append(s.history, h)
}

// invoke runs one callback under a fresh request ID so the log lines of one
// firing can be told apart. A panic is logged and the timer stays Fired.
func (s *Scheduler) invoke(ctx context.Context, t *timer) {
	defer func() {
		if r := recover(); r != nil {
			s.mu.Lock()
			s.stats.Panicked++
			s.mu.Unlock()
			logging.Error("timer callback panicked",
				logging.KeyHandle, t.handle,
				logging.KeyError, fmt.Sprint(r),
			)
		}
	}()
	t.fn(logging.NewRequestContext(ctx), t.handle)
}

// Run drives the scheduler until ctx is done. It sleeps until the earliest
// due instant, capped by MaxSleep, and wakes early when timers are added or
// cancelled.
func (s *Scheduler) Run(ctx context.Context) error {
	logging.Info("scheduler started", "max_sleep", s.maxSleep.String())
	defer logging.Info("scheduler stopped")

	for {
		s.RunDue(ctx)

		wait := time.NewTimer(s.sleepFor())
		select {
		case <-ctx.Done():
			wait.Stop()
			return ctx.Err()
		case <-s.wake:
			wait.Stop()
		case <-wait.C:
		}
	}
}

func (s *Scheduler) sleepFor() time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()

	next := s.heap.peek()
	if next == nil {
		return s.maxSleep
	}
	d := next.due.Sub(s.now())
	if d > s.maxSleep {
		d = s.maxSleep
	}
	if d < 0 {
		d = 0
	}
	return d
}

func (s *Scheduler) signal() {
	select {
	case s.wake <- struct{}{}:
	default:
	}
}

// State reports the lifecycle state of h.
func (s *Scheduler) State(h Handle) TimerState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stateLocked(h)
}

func (s *Scheduler) stateLocked(h Handle) TimerState {
	if _, ok := s.pending[h]; ok {
		return Pending
	}
	return s.finished[h]
}

// Pending returns the number of timers waiting to fire.
func (s *Scheduler) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.pending)
}

// Next returns the earliest due instant, if any timer is pending.
func (s *Scheduler) Next() (time.Time, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if t := s.heap.peek(); t != nil {
		return t.due, true
	}
	return time.Time{}, false
}

// Stats returns a snapshot of the scheduler counters.
func (s *Scheduler) Stats() Stats {
	s.mu.Lock()
	defer s.mu.Unlock()
	st := s.stats
	st.Pending = len(s.pending)
	return st
}

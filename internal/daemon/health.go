package daemon

import (
	"runtime"
	"sort"
	"sync"
	"time"
)

// Health states reported by GET /health.
const (
	StatusHealthy   = "healthy"
	StatusUnhealthy = "unhealthy"
)

// TimerQueue is the view of the scheduler health needs.
// *scheduler.Scheduler implements it.
type TimerQueue interface {
	Pending() int
	Next() (time.Time, bool)
}

// HealthStatus represents the current health state of the daemon.
type HealthStatus struct {
	Status        string        `json:"status"`
	Version       string        `json:"version,omitempty"`
	UptimeSeconds int64         `json:"uptime_seconds"`
	PendingTimers int           `json:"pending_timers"`
	NextDue       *time.Time    `json:"next_due,omitempty"`
	MemoryMB      float64       `json:"memory_mb"`
	Goroutines    int           `json:"goroutines"`
	LastCheck     time.Time     `json:"last_check"`
	Checks        []CheckResult `json:"checks,omitempty"`
}

// CheckResult represents the result of a single named check.
type CheckResult struct {
	Name    string `json:"name"`
	Healthy bool   `json:"healthy"`
	Error   string `json:"error,omitempty"`
}

// HealthChecker provides health status for the daemon.
type HealthChecker struct {
	mu        sync.RWMutex
	startTime time.Time
	lastCheck time.Time
	version   string
	timers    TimerQueue
	checks    map[string]func() error
	now       func() time.Time
}

// NewHealthChecker creates a health checker. timers may be nil.
func NewHealthChecker(version string, timers TimerQueue) *HealthChecker {
	return &HealthChecker{
		startTime: time.Now(),
		version:   version,
		timers:    timers,
		checks:    make(map[string]func() error),
		now:       time.Now,
	}
}

// AddCheck registers a named check. Any failing check marks the daemon
// unhealthy.
func (h *HealthChecker) AddCheck(name string, check func() error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.checks[name] = check
}

// RemoveCheck removes a named check.
func (h *HealthChecker) RemoveCheck(name string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.checks, name)
}

// Uptime returns how long the daemon has been running.
func (h *HealthChecker) Uptime() time.Duration {
	return h.now().Sub(h.startTime)
}

// Check runs every registered check and reports the result.
func (h *HealthChecker) Check() *HealthStatus {
	now := h.now()
	h.mu.Lock()
	h.lastCheck = now
	names := make([]string, 0, len(h.checks))
	for name := range h.checks {
		names = append(names, name)
	}
	h.mu.Unlock()
	sort.Strings(names)

	var mem runtime.MemStats
	runtime.ReadMemStats(&mem)

	status := &HealthStatus{
		Status:        StatusHealthy,
		Version:       h.version,
		UptimeSeconds: int64(now.Sub(h.startTime).Seconds()),
		MemoryMB:      float64(mem.Alloc) / 1024 / 1024,
		Goroutines:    runtime.NumGoroutine(),
		LastCheck:     now,
	}
	if h.timers != nil {
		status.PendingTimers = h.timers.Pending()
		if next, ok := h.timers.Next(); ok {
			status.NextDue = &next
		}
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, name := range names {
		check, ok := h.checks[name]
		if !ok {
			continue
		}
		result := CheckResult{Name: name, Healthy: true}
		if err := check(); err != nil {
			result.Healthy = false
			result.Error = err.Error()
			status.Status = StatusUnhealthy
		}
		status.Checks = append(status.Checks, result)
	}
	return status
}

// IsHealthy returns true if every check passes.
func (h *HealthChecker) IsHealthy() bool {
	return h.Check().Status == StatusHealthy
}

package daemon

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/manav03panchal/alarmd/internal/alarm"
	"github.com/manav03panchal/alarmd/internal/announce"
	apperrors "github.com/manav03panchal/alarmd/internal/errors"
	"github.com/manav03panchal/alarmd/internal/scheduler"
)

// Metrics tracks announcement delivery. Alarm and timer counters live in
// their owners and are merged into the snapshot by the daemon.
type Metrics struct {
	sent   atomic.Int64
	failed atomic.Int64

	mu               sync.RWMutex
	lastLatencyMs    int64
	lastAnnouncedAt  time.Time
	lastError        string
	lastErrorAt      time.Time
	errorsByCategory map[string]int64
}

// NewMetrics creates a new metrics tracker.
func NewMetrics() *Metrics {
	return &Metrics{errorsByCategory: make(map[string]int64)}
}

// MetricsSnapshot is a point-in-time view served by GET /metrics.
type MetricsSnapshot struct {
	AnnouncementsSent   int64            `json:"announcements_sent_total"`
	AnnouncementsFailed int64            `json:"announcements_failed_total"`
	LastLatencyMs       int64            `json:"last_announce_latency_ms"`
	LastAnnouncedAt     *time.Time       `json:"last_announced_at,omitempty"`
	LastError           string           `json:"last_error,omitempty"`
	LastErrorAt         *time.Time       `json:"last_error_at,omitempty"`
	ErrorsByCategory    map[string]int64 `json:"errors_by_category,omitempty"`

	Alarms alarm.Stats     `json:"alarms"`
	Timers scheduler.Stats `json:"timers"`
}

// Snapshot returns a copy of the delivery metrics.
func (m *Metrics) Snapshot() MetricsSnapshot {
	m.mu.RLock()
	defer m.mu.RUnlock()

	snap := MetricsSnapshot{
		AnnouncementsSent:   m.sent.Load(),
		AnnouncementsFailed: m.failed.Load(),
		LastLatencyMs:       m.lastLatencyMs,
		LastError:           m.lastError,
		ErrorsByCategory:    make(map[string]int64, len(m.errorsByCategory)),
	}
	if !m.lastAnnouncedAt.IsZero() {
		t := m.lastAnnouncedAt
		snap.LastAnnouncedAt = &t
	}
	if !m.lastErrorAt.IsZero() {
		t := m.lastErrorAt
		snap.LastErrorAt = &t
	}
	for k, v := range m.errorsByCategory {
		snap.ErrorsByCategory[k] = v
	}
	return snap
}

// RecordAnnounced records a delivered briefing.
func (m *Metrics) RecordAnnounced(latency time.Duration) {
	m.sent.Add(1)
	m.mu.Lock()
	m.lastLatencyMs = latency.Milliseconds()
	m.lastAnnouncedAt = time.Now()
	m.mu.Unlock()
}

// RecordAnnounceFailed records a failed delivery.
func (m *Metrics) RecordAnnounceFailed(err error) {
	m.failed.Add(1)
	m.RecordError(err)
}

// RecordError records an error under its category.
func (m *Metrics) RecordError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.lastError = err.Error()
	m.lastErrorAt = time.Now()
	m.errorsByCategory[apperrors.Classify(err).String()]++
}

// Instrument wraps next so every delivery is counted and timed.
func (m *Metrics) Instrument(next announce.Announcer) announce.Announcer {
	return announce.Func(func(ctx context.Context, b announce.Briefing) error {
		start := time.Now()
		err := next.Announce(ctx, b)
		if err != nil {
			m.RecordAnnounceFailed(err)
			return err
		}
		m.RecordAnnounced(time.Since(start))
		return nil
	})
}

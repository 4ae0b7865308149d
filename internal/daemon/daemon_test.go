package daemon

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/manav03panchal/alarmd/internal/announce"
	"github.com/manav03panchal/alarmd/internal/config"
	apperrors "github.com/manav03panchal/alarmd/internal/errors"
	"github.com/manav03panchal/alarmd/internal/logging"
)

type fakeQueue struct {
	pending int
	next    time.Time
}

func (q fakeQueue) Pending() int { return q.pending }

func (q fakeQueue) Next() (time.Time, bool) { return q.next, !q.next.IsZero() }

func testConfig(t *testing.T) config.Config {
	t.Helper()
	dir := t.TempDir()
	cfg := config.Default()
	cfg.Listen = "127.0.0.1:0"
	cfg.EventLog = filepath.Join(dir, "events.log")
	cfg.Log.File = filepath.Join(dir, "alarmd.log")
	cfg.Scheduler.MaxSleep = time.Second
	return cfg
}

func testDaemon(t *testing.T, cfg config.Config) *Daemon {
	t.Helper()
	t.Cleanup(func() { logging.Init(logging.DefaultConfig()) })
	dir := t.TempDir()
	return New(Options{
		Config:    cfg,
		Version:   "test",
		Stderr:    io.Discard,
		PIDFile:   NewPIDFileAt(filepath.Join(dir, PIDFileName)),
		StatePath: filepath.Join(dir, "daemon.json"),
	})
}

// =============================================================================
// HealthChecker Tests
// =============================================================================

func TestHealthCheckerCheck(t *testing.T) {
	due := time.Date(2099, 1, 1, 7, 0, 0, 0, time.UTC)
	checker := NewHealthChecker("1.0.0", fakeQueue{pending: 2, next: due})

	status := checker.Check()
	assert.Equal(t, StatusHealthy, status.Status)
	assert.Equal(t, "1.0.0", status.Version)
	assert.Equal(t, 2, status.PendingTimers)
	require.NotNil(t, status.NextDue)
	assert.True(t, status.NextDue.Equal(due))
	assert.GreaterOrEqual(t, status.Goroutines, 1)
}

func TestHealthCheckerIdleQueue(t *testing.T) {
	status := NewHealthChecker("", fakeQueue{}).Check()
	assert.Zero(t, status.PendingTimers)
	assert.Nil(t, status.NextDue)

	status = NewHealthChecker("", nil).Check()
	assert.Equal(t, StatusHealthy, status.Status)
}

func TestHealthCheckerAddRemoveCheck(t *testing.T) {
	checker := NewHealthChecker("1.0.0", nil)
	checker.AddCheck("b_ok", func() error { return nil })
	checker.AddCheck("a_fail", func() error { return errors.New("disk gone") })

	status := checker.Check()
	assert.Equal(t, StatusUnhealthy, status.Status)
	require.Len(t, status.Checks, 2)
	assert.Equal(t, "a_fail", status.Checks[0].Name)
	assert.Equal(t, "disk gone", status.Checks[0].Error)
	assert.True(t, status.Checks[1].Healthy)
	assert.False(t, checker.IsHealthy())

	checker.RemoveCheck("a_fail")
	assert.True(t, checker.IsHealthy())
}

func TestHealthCheckerUptime(t *testing.T) {
	checker := NewHealthChecker("1.0.0", nil)
	checker.now = func() time.Time { return checker.startTime.Add(90 * time.Second) }
	assert.Equal(t, 90*time.Second, checker.Uptime())
	assert.Equal(t, int64(90), checker.Check().UptimeSeconds)
}

// =============================================================================
// Metrics Tests
// =============================================================================

func TestMetricsInstrument(t *testing.T) {
	m := NewMetrics()
	fail := false
	next := announce.Func(func(context.Context, announce.Briefing) error {
		if fail {
			return apperrors.Wrap(apperrors.ErrDaemonUnreachable, "webhook")
		}
		return nil
	})
	wrapped := m.Instrument(next)

	require.NoError(t, wrapped.Announce(context.Background(), announce.Briefing{}))
	fail = true
	require.Error(t, wrapped.Announce(context.Background(), announce.Briefing{}))

	snap := m.Snapshot()
	assert.Equal(t, int64(1), snap.AnnouncementsSent)
	assert.Equal(t, int64(1), snap.AnnouncementsFailed)
	assert.NotNil(t, snap.LastAnnouncedAt)
	assert.NotNil(t, snap.LastErrorAt)
	assert.Contains(t, snap.LastError, "webhook")
	assert.Equal(t, int64(1), snap.ErrorsByCategory["unavailable"])
}

func TestMetricsRecordErrorByCategory(t *testing.T) {
	m := NewMetrics()
	m.RecordError(apperrors.ErrAlarmNotFound)
	m.RecordError(apperrors.NewUserError("bad label", ""))
	m.RecordError(errors.New("boom"))
	m.RecordError(errors.New("boom again"))

	snap := m.Snapshot()
	assert.Equal(t, int64(1), snap.ErrorsByCategory["not_found"])
	assert.Equal(t, int64(1), snap.ErrorsByCategory["user"])
	assert.Equal(t, int64(2), snap.ErrorsByCategory["unknown"])
	assert.Equal(t, "boom again", snap.LastError)

	// The snapshot is a copy.
	snap.ErrorsByCategory["user"] = 99
	assert.Equal(t, int64(1), m.Snapshot().ErrorsByCategory["user"])
}

func TestMetricsSnapshotEmpty(t *testing.T) {
	snap := NewMetrics().Snapshot()
	assert.Nil(t, snap.LastAnnouncedAt)
	assert.Nil(t, snap.LastErrorAt)
	assert.Empty(t, snap.LastError)
}

// =============================================================================
// Log File and Housekeeping Tests
// =============================================================================

func TestLogFileRotate(t *testing.T) {
	path := filepath.Join(t.TempDir(), "alarmd.log")
	lf, err := OpenLogFile(path)
	require.NoError(t, err)
	defer lf.Close()

	_, err = lf.Write([]byte("0123456789"))
	require.NoError(t, err)

	rotated, err := lf.RotateIfLarger(100)
	require.NoError(t, err)
	assert.False(t, rotated)

	rotated, err = lf.RotateIfLarger(0)
	require.NoError(t, err)
	assert.False(t, rotated)

	rotated, err = lf.RotateIfLarger(10)
	require.NoError(t, err)
	assert.True(t, rotated)

	old, err := os.ReadFile(path + ".old")
	require.NoError(t, err)
	assert.Equal(t, "0123456789", string(old))

	_, err = lf.Write([]byte("fresh"))
	require.NoError(t, err)
	current, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "fresh", string(current))
}

func TestLogFileClosed(t *testing.T) {
	lf, err := OpenLogFile(filepath.Join(t.TempDir(), "x", "alarmd.log"))
	require.NoError(t, err)
	require.NoError(t, lf.Close())
	require.NoError(t, lf.Close())

	_, err = lf.Write([]byte("late"))
	assert.ErrorIs(t, err, os.ErrClosed)
}

func TestHousekeeper(t *testing.T) {
	t.Run("jobs", func(t *testing.T) {
		lf, err := OpenLogFile(filepath.Join(t.TempDir(), "alarmd.log"))
		require.NoError(t, err)
		defer lf.Close()

		h, err := NewHousekeeper("@hourly", lf, 10, func() []any { return nil })
		require.NoError(t, err)
		assert.Equal(t, 2, h.Jobs())

		h, err = NewHousekeeper("", nil, 10, nil)
		require.NoError(t, err)
		assert.Zero(t, h.Jobs())
	})

	t.Run("invalid_schedule", func(t *testing.T) {
		lf, err := OpenLogFile(filepath.Join(t.TempDir(), "alarmd.log"))
		require.NoError(t, err)
		defer lf.Close()

		_, err = NewHousekeeper("not a schedule", lf, 10, nil)
		assert.Error(t, err)
	})

	t.Run("rotate_and_stats", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "alarmd.log")
		lf, err := OpenLogFile(path)
		require.NoError(t, err)
		defer lf.Close()
		_, err = lf.Write([]byte("some log output"))
		require.NoError(t, err)

		var buf bytes.Buffer
		logging.Init(logging.Config{Output: &buf})
		defer logging.Init(logging.DefaultConfig())

		h, err := NewHousekeeper("@hourly", lf, 1, func() []any { return []any{"pending", 3} })
		require.NoError(t, err)
		h.maxBytes = 4
		h.Rotate()
		h.LogStats()

		_, err = os.Stat(path + ".old")
		assert.NoError(t, err)
		assert.Contains(t, buf.String(), "diagnostic log rotated")
		assert.Contains(t, buf.String(), "pending=3")
	})

	t.Run("start_stop", func(t *testing.T) {
		h, err := NewHousekeeper("", nil, 0, nil)
		require.NoError(t, err)
		h.Start()
		h.Stop()
	})
}

// =============================================================================
// PID File Tests
// =============================================================================

func TestPIDFile(t *testing.T) {
	p := NewPIDFileAt(filepath.Join(t.TempDir(), "state", PIDFileName))

	_, err := p.Read()
	assert.ErrorIs(t, err, apperrors.ErrNotRunning)
	assert.Zero(t, p.RunningPID())

	require.NoError(t, p.Write())
	pid, err := p.Read()
	require.NoError(t, err)
	assert.Equal(t, os.Getpid(), pid)
	assert.Equal(t, os.Getpid(), p.RunningPID())

	require.NoError(t, p.Remove())
	require.NoError(t, p.Remove())
	assert.Zero(t, p.RunningPID())
}

func TestPIDFileGarbage(t *testing.T) {
	p := NewPIDFileAt(filepath.Join(t.TempDir(), PIDFileName))
	require.NoError(t, os.WriteFile(p.Path(), []byte("not-a-pid"), 0o644))

	_, err := p.Read()
	assert.Error(t, err)
	assert.Zero(t, p.RunningPID())
}

func TestIsProcessRunning(t *testing.T) {
	assert.True(t, IsProcessRunning(os.Getpid()))
	assert.False(t, IsProcessRunning(0))
	assert.False(t, IsProcessRunning(-1))
}

// =============================================================================
// Daemon Tests
// =============================================================================

func TestBuildAnnouncer(t *testing.T) {
	a, err := BuildAnnouncer(config.AnnounceConfig{})
	require.NoError(t, err)
	assert.Len(t, a, 1)

	a, err = BuildAnnouncer(config.AnnounceConfig{
		WebhookURL: "http://127.0.0.1:9/hook",
		Command:    "notify-send alarm",
		Timeout:    time.Second,
	})
	require.NoError(t, err)
	assert.Len(t, a, 3)

	_, err = BuildAnnouncer(config.AnnounceConfig{Command: "   "})
	assert.Error(t, err)
}

func TestDaemonOpenRestoresEventLog(t *testing.T) {
	cfg := testConfig(t)
	log := strings.Join([]string{
		"2090-01-01T10:00:00Z Set alarm&2099-01-01T07:30&wake&news",
		"2090-01-01T10:01:00Z Set alarm&2001-01-01T07:30&lapsed",
		"2090-01-01T10:02:00Z Set alarm&2099-01-02T07:30&gone",
		"2090-01-01T10:03:00Z Alarm cancel&2099-01-02T07:30&gone",
		"",
	}, "\n")
	require.NoError(t, os.WriteFile(cfg.EventLog, []byte(log), 0o644))

	d := testDaemon(t, cfg)
	c, err := d.open(context.Background())
	require.NoError(t, err)
	defer c.close()

	assert.Equal(t, 1, c.restored.Restored)
	assert.Equal(t, 1, c.restored.Lapsed)
	assert.Equal(t, 1, c.restored.Cancelled)

	alarms := c.service.List()
	require.Len(t, alarms, 1)
	assert.Equal(t, "wake", alarms[0].Label)
	assert.True(t, alarms[0].News)
	assert.Equal(t, 1, c.scheduler.Pending())
	assert.True(t, c.health.IsHealthy())

	// Restoring writes nothing back.
	data, err := os.ReadFile(cfg.EventLog)
	require.NoError(t, err)
	assert.Equal(t, log, string(data))
}

func TestDaemonOpenRejectsBadLevel(t *testing.T) {
	cfg := testConfig(t)
	cfg.Log.Level = "loud"
	_, err := testDaemon(t, cfg).open(context.Background())
	require.Error(t, err)
	assert.Equal(t, apperrors.CategoryUser, apperrors.Classify(err))
}

func TestDaemonRunLifecycle(t *testing.T) {
	cfg := testConfig(t)
	d := testDaemon(t, cfg)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- d.Run(ctx) }()

	require.Eventually(t, func() bool {
		return d.Status().Running
	}, 5*time.Second, 20*time.Millisecond)

	status := d.Status()
	assert.Equal(t, os.Getpid(), status.PID)
	assert.Equal(t, cfg.Listen, status.Listen)
	assert.Equal(t, cfg.EventLog, status.EventLog)
	assert.False(t, status.StartedAt.IsZero())

	cancel()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(15 * time.Second):
		t.Fatal("daemon did not stop")
	}

	assert.False(t, d.Status().Running)
	_, err := os.Stat(d.statePath)
	assert.True(t, os.IsNotExist(err))
}

func TestDaemonRunAlreadyRunning(t *testing.T) {
	d := testDaemon(t, testConfig(t))
	require.NoError(t, d.pidFile.WritePID(os.Getppid()))

	err := d.Run(context.Background())
	assert.ErrorIs(t, err, apperrors.ErrAlreadyRunning)
}

func TestDaemonStopNotRunning(t *testing.T) {
	d := testDaemon(t, testConfig(t))
	assert.ErrorIs(t, d.Stop(), apperrors.ErrNotRunning)
	assert.False(t, d.Status().Running)
}

func TestFormatUptime(t *testing.T) {
	tests := []struct {
		in   time.Duration
		want string
	}{
		{30 * time.Second, "30s"},
		{5 * time.Minute, "5m"},
		{2 * time.Hour, "2h"},
		{2*time.Hour + 15*time.Minute, "2h 15m"},
		{48 * time.Hour, "2d"},
		{50 * time.Hour, "2d 2h"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, formatUptime(tt.in))
	}
}

// =============================================================================
// Service Installer Tests
// =============================================================================

func TestServiceManagerRender(t *testing.T) {
	m := &ServiceManager{
		executablePath: "/usr/local/bin/alarmd",
		configPath:     "/home/u/.config/alarmd/config.yaml",
		logPath:        "/home/u/.local/state/alarmd/service.log",
	}

	var unit bytes.Buffer
	require.NoError(t, m.RenderSystemd(&unit))
	assert.Contains(t, unit.String(), "ExecStart=/usr/local/bin/alarmd serve --config /home/u/.config/alarmd/config.yaml")
	assert.Contains(t, unit.String(), "StandardOutput=append:/home/u/.local/state/alarmd/service.log")

	var plist bytes.Buffer
	require.NoError(t, m.RenderLaunchd(&plist))
	assert.Contains(t, plist.String(), "<string>com.alarmd.daemon</string>")
	assert.Contains(t, plist.String(), "<string>serve</string>")
	assert.Contains(t, plist.String(), "<string>--config</string>")

	m.configPath = ""
	unit.Reset()
	require.NoError(t, m.RenderSystemd(&unit))
	assert.Contains(t, unit.String(), "ExecStart=/usr/local/bin/alarmd serve\n")
}

package daemon

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/manav03panchal/alarmd/internal/alarm"
	"github.com/manav03panchal/alarmd/internal/announce"
	"github.com/manav03panchal/alarmd/internal/config"
	apperrors "github.com/manav03panchal/alarmd/internal/errors"
	"github.com/manav03panchal/alarmd/internal/eventlog"
	"github.com/manav03panchal/alarmd/internal/logging"
	"github.com/manav03panchal/alarmd/internal/scheduler"
	"github.com/manav03panchal/alarmd/internal/server"
)

// StopTimeout is how long Stop waits for the process to exit before
// killing it.
const StopTimeout = 5 * time.Second

// Options configure a Daemon. Zero values select the defaults.
type Options struct {
	Config  config.Config
	Version string
	Debug   bool

	// Stderr receives log output alongside the log file. Defaults to
	// os.Stderr.
	Stderr io.Writer

	// PIDFile and StatePath default to files under config.StateDir.
	PIDFile   *PIDFile
	StatePath string
}

// Daemon runs the alarm service in the foreground.
type Daemon struct {
	cfg       config.Config
	version   string
	debug     bool
	stderr    io.Writer
	pidFile   *PIDFile
	statePath string
}

// Status represents the daemon status.
type Status struct {
	Running   bool      `json:"running"`
	PID       int       `json:"pid,omitempty"`
	StartedAt time.Time `json:"started_at,omitempty"`
	Uptime    string    `json:"uptime,omitempty"`
	Listen    string    `json:"listen,omitempty"`
	EventLog  string    `json:"event_log,omitempty"`
}

// State is persisted next to the pid file while the daemon runs.
type State struct {
	StartedAt time.Time `json:"started_at"`
	Listen    string    `json:"listen"`
	EventLog  string    `json:"event_log"`
	Version   string    `json:"version,omitempty"`
}

// New creates a daemon manager.
func New(opts Options) *Daemon {
	if opts.Stderr == nil {
		opts.Stderr = os.Stderr
	}
	if opts.PIDFile == nil {
		opts.PIDFile = NewPIDFile()
	}
	if opts.StatePath == "" {
		opts.StatePath = filepath.Join(config.StateDir(), "daemon.json")
	}
	return &Daemon{
		cfg:       opts.Config,
		version:   opts.Version,
		debug:     opts.Debug,
		stderr:    opts.Stderr,
		pidFile:   opts.PIDFile,
		statePath: opts.StatePath,
	}
}

// components are the live parts of a running daemon.
type components struct {
	logFile   *LogFile
	events    *eventlog.Log
	scheduler *scheduler.Scheduler
	service   *alarm.Service
	metrics   *Metrics
	health    *HealthChecker
	chores    *Housekeeper
	server    *server.Server
	restored  alarm.RestoreReport
}

func (c *components) close() {
	if c.chores != nil {
		c.chores.Stop()
	}
	if c.events != nil {
		if err := c.events.Close(); err != nil {
			logging.Warn("failed to close event log", logging.KeyError, err)
		}
	}
	if c.logFile != nil {
		logging.Init(logging.DefaultConfig())
		c.logFile.Close()
	}
}

// Run starts the daemon and blocks until ctx is cancelled or a shutdown
// signal arrives.
func (d *Daemon) Run(ctx context.Context) error {
	if pid := d.pidFile.RunningPID(); pid > 0 && pid != os.Getpid() {
		return fmt.Errorf("%w (pid %d)", apperrors.ErrAlreadyRunning, pid)
	}

	ctx, stop := WithShutdownSignals(ctx)
	defer stop()

	c, err := d.open(ctx)
	if err != nil {
		return err
	}
	defer c.close()

	if err := d.pidFile.Write(); err != nil {
		return err
	}
	defer d.pidFile.Remove()

	if err := d.writeState(State{
		StartedAt: time.Now(),
		Listen:    d.cfg.Listen,
		EventLog:  d.cfg.EventLog,
		Version:   d.version,
	}); err != nil {
		return err
	}
	defer d.removeState()

	c.chores.Start()

	loopDone := make(chan error, 1)
	if d.cfg.Scheduler.Cooperative {
		loopDone <- nil
	} else {
		go func() { loopDone <- c.scheduler.Run(ctx) }()
	}

	logging.Info("daemon started",
		"pid", os.Getpid(),
		"listen", d.cfg.Listen,
		"cooperative", d.cfg.Scheduler.Cooperative,
		"restored", c.restored.Restored,
	)

	serveErr := c.server.ListenAndServe(ctx)
	stop()
	if err := <-loopDone; err != nil && !errors.Is(err, context.Canceled) {
		logging.Warn("scheduler loop stopped", logging.KeyError, err)
	}
	logging.Info("daemon stopped", logging.KeyCount, c.service.Len())

	if serveErr != nil {
		return apperrors.NewSystemErrorWithOp("serve", "cannot listen on "+d.cfg.Listen, serveErr)
	}
	return nil
}

// open builds every component and restores the registry from the event
// log. On error everything opened so far is closed again.
func (d *Daemon) open(ctx context.Context) (_ *components, err error) {
	c := &components{}
	defer func() {
		if err != nil {
			c.close()
		}
	}()

	if err := d.initLogging(c); err != nil {
		return nil, err
	}

	c.events, err = eventlog.Open(d.cfg.EventLog)
	if err != nil {
		return nil, err
	}
	scan, err := eventlog.ScanFile(d.cfg.EventLog)
	if err != nil {
		return nil, err
	}

	c.scheduler = scheduler.New(scheduler.Options{MaxSleep: d.cfg.Scheduler.MaxSleep})
	c.metrics = NewMetrics()

	announcer, err := BuildAnnouncer(d.cfg.Announce)
	if err != nil {
		return nil, err
	}

	c.service = alarm.NewService(alarm.Config{
		Timers:    c.scheduler,
		Sink:      c.events,
		Announcer: c.metrics.Instrument(announcer),
	})
	c.restored = c.service.RestoreEntries(ctx, scan)
	logging.DebugLog("event log scanned",
		logging.KeyPath, d.cfg.EventLog,
		"lines", scan.Lines,
		"ignored", scan.Ignored,
	)

	c.health = NewHealthChecker(d.version, c.scheduler)
	eventLogPath := d.cfg.EventLog
	c.health.AddCheck("event_log", func() error {
		_, err := os.Stat(eventLogPath)
		return err
	})

	c.chores, err = NewHousekeeper(d.cfg.Log.RotateSchedule, c.logFile, d.cfg.Log.MaxSizeMB, func() []any {
		st := c.service.Stats()
		return []any{
			"pending", st.Pending,
			"scheduled", st.Scheduled,
			"fired", st.Fired,
			"cancelled", st.Cancelled,
		}
	})
	if err != nil {
		return nil, err
	}

	srvCfg := server.Config{
		Addr:   d.cfg.Listen,
		Alarms: c.service,
		Health: func() any { return c.health.Check() },
		Metrics: func() any {
			snap := c.metrics.Snapshot()
			snap.Alarms = c.service.Stats()
			snap.Timers = c.scheduler.Stats()
			return snap
		},
	}
	if d.cfg.Scheduler.Cooperative {
		srvCfg.Ticker = c.scheduler
	}
	c.server = server.New(srvCfg)
	return c, nil
}

// initLogging sends the process log to stderr and the diagnostic log file.
func (d *Daemon) initLogging(c *components) error {
	level, err := logging.ParseLevel(d.cfg.Log.Level)
	if err != nil {
		return apperrors.NewUserError(err.Error(), "use one of debug, info, warn, error")
	}
	if d.debug {
		level = logging.DebugConfig().Level
	}

	out := d.stderr
	if d.cfg.Log.File != "" {
		c.logFile, err = OpenLogFile(d.cfg.Log.File)
		if err != nil {
			return err
		}
		out = io.MultiWriter(d.stderr, c.logFile)
	}

	logging.Init(logging.Config{
		Level:     level,
		JSON:      d.cfg.Log.JSON,
		Output:    out,
		AddSource: d.debug,
	})
	return nil
}

// BuildAnnouncer assembles the delivery chain: fired alarms are always
// logged, then posted to the webhook and handed to the command when those
// are configured.
func BuildAnnouncer(cfg config.AnnounceConfig) (announce.Announcer, error) {
	chain := announce.Multi{announce.LogAnnouncer{}}
	if cfg.WebhookURL != "" {
		chain = append(chain, announce.NewWebhookAnnouncer(cfg.WebhookURL, cfg.Timeout))
	}
	if cfg.Command != "" {
		cmd, err := announce.NewCommandAnnouncer(cfg.Command, cfg.Timeout)
		if err != nil {
			return nil, err
		}
		chain = append(chain, cmd)
	}
	return chain, nil
}

// Status reports whether a daemon is running and since when.
func (d *Daemon) Status() *Status {
	status := &Status{}
	pid := d.pidFile.RunningPID()
	if pid == 0 {
		return status
	}

	status.Running = true
	status.PID = pid
	if state, err := d.readState(); err == nil {
		status.StartedAt = state.StartedAt
		status.Uptime = formatUptime(time.Since(state.StartedAt))
		status.Listen = state.Listen
		status.EventLog = state.EventLog
	}
	return status
}

// Stop signals the running daemon and waits for it to exit.
func (d *Daemon) Stop() error {
	pid := d.pidFile.RunningPID()
	if pid == 0 {
		return apperrors.ErrNotRunning
	}

	process, err := os.FindProcess(pid)
	if err != nil {
		return fmt.Errorf("failed to find process: %w", err)
	}
	if err := process.Signal(os.Interrupt); err != nil {
		if err := process.Kill(); err != nil {
			return fmt.Errorf("failed to stop daemon: %w", err)
		}
	}

	deadline := time.Now().Add(StopTimeout)
	for IsProcessRunning(pid) {
		if time.Now().After(deadline) {
			process.Kill()
			break
		}
		time.Sleep(50 * time.Millisecond)
	}

	d.pidFile.Remove()
	d.removeState()
	return nil
}

func (d *Daemon) writeState(state State) error {
	if err := os.MkdirAll(filepath.Dir(d.statePath), 0o755); err != nil {
		return err
	}
	data, err := json.Marshal(state)
	if err != nil {
		return err
	}
	return os.WriteFile(d.statePath, data, 0o644)
}

func (d *Daemon) readState() (*State, error) {
	data, err := os.ReadFile(d.statePath)
	if err != nil {
		return nil, err
	}
	var state State
	if err := json.Unmarshal(data, &state); err != nil {
		return nil, err
	}
	return &state, nil
}

func (d *Daemon) removeState() {
	if err := os.Remove(d.statePath); err != nil && !os.IsNotExist(err) {
		logging.Warn("failed to remove daemon state file", logging.KeyError, err, logging.KeyPath, d.statePath)
	}
}

// formatUptime formats a duration as uptime.
func formatUptime(d time.Duration) string {
	if d < time.Minute {
		return fmt.Sprintf("%ds", int(d.Seconds()))
	}
	if d < time.Hour {
		return fmt.Sprintf("%dm", int(d.Minutes()))
	}
	if d < 24*time.Hour {
		hours := int(d.Hours())
		minutes := int(d.Minutes()) % 60
		if minutes > 0 {
			return fmt.Sprintf("%dh %dm", hours, minutes)
		}
		return fmt.Sprintf("%dh", hours)
	}

	days := int(d.Hours() / 24)
	hours := int(d.Hours()) % 24
	if hours > 0 {
		return fmt.Sprintf("%dd %dh", days, hours)
	}
	return fmt.Sprintf("%dd", days)
}

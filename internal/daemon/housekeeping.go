package daemon

import (
	"fmt"

	"github.com/robfig/cron/v3"

	"github.com/manav03panchal/alarmd/internal/logging"
)

// StatsFunc returns key/value pairs for the periodic stats line.
type StatsFunc func() []any

// Housekeeper runs the daemon's periodic chores on a cron schedule:
// rotating the diagnostic log and logging a stats line.
type Housekeeper struct {
	cron     *cron.Cron
	logFile  *LogFile
	maxBytes int64
	stats    StatsFunc
}

// NewHousekeeper registers the chores. logFile and stats may be nil; a nil
// logFile or an empty schedule disables rotation.
func NewHousekeeper(schedule string, logFile *LogFile, maxSizeMB int, stats StatsFunc) (*Housekeeper, error) {
	h := &Housekeeper{
		cron:     cron.New(cron.WithSeconds()),
		logFile:  logFile,
		maxBytes: int64(maxSizeMB) * 1024 * 1024,
		stats:    stats,
	}

	if schedule != "" && logFile != nil {
		if _, err := h.cron.AddFunc(schedule, h.Rotate); err != nil {
			return nil, fmt.Errorf("invalid log rotate schedule %q: %w", schedule, err)
		}
	}
	if stats != nil {
		if _, err := h.cron.AddFunc("@every 15m", h.LogStats); err != nil {
			return nil, err
		}
	}
	return h, nil
}

// Start begins running chores in the background.
func (h *Housekeeper) Start() {
	h.cron.Start()
}

// Stop halts the schedule and waits for a running chore to finish.
func (h *Housekeeper) Stop() {
	<-h.cron.Stop().Done()
}

// Jobs returns the number of registered chores.
func (h *Housekeeper) Jobs() int {
	return len(h.cron.Entries())
}

// Rotate rotates the diagnostic log if it has outgrown its limit.
func (h *Housekeeper) Rotate() {
	if h.logFile == nil {
		return
	}
	rotated, err := h.logFile.RotateIfLarger(h.maxBytes)
	if err != nil {
		logging.Warn("log rotation failed", logging.KeyPath, h.logFile.Path(), logging.KeyError, err)
		return
	}
	if rotated {
		logging.Info("diagnostic log rotated", logging.KeyPath, h.logFile.Path())
	}
}

// LogStats writes one stats line.
func (h *Housekeeper) LogStats() {
	if h.stats == nil {
		return
	}
	logging.Info("daemon stats", h.stats()...)
}

package output

import (
	"time"

	"github.com/manav03panchal/alarmd/internal/alarm"
	"github.com/manav03panchal/alarmd/internal/eventlog"
	"github.com/manav03panchal/alarmd/internal/model"
	"github.com/manav03panchal/alarmd/internal/timespec"
)

// AlarmOutput represents an alarm in JSON output.
type AlarmOutput struct {
	TimeSpec     string   `json:"time_spec"`
	Label        string   `json:"label"`
	Title        string   `json:"title"`
	Sections     []string `json:"sections,omitempty"`
	Due          string   `json:"due"`
	SecondsUntil int64    `json:"seconds_until"`
	Handle       string   `json:"handle,omitempty"`
	Restored     bool     `json:"restored,omitempty"`
}

// NewAlarmOutput creates an AlarmOutput from an Alarm.
func NewAlarmOutput(a *model.Alarm, now time.Time) *AlarmOutput {
	return &AlarmOutput{
		TimeSpec:     a.TimeSpec,
		Label:        a.Label,
		Title:        a.Title,
		Sections:     a.Sections(),
		Due:          a.Due.Format(time.RFC3339),
		SecondsUntil: int64(a.TimeUntil(now).Seconds()),
		Handle:       a.Handle,
		Restored:     a.Restored,
	}
}

// AlarmsResponse represents the alarm list output in JSON.
type AlarmsResponse struct {
	Alarms []*AlarmOutput `json:"alarms"`
	Count  int            `json:"count"`
}

// NewAlarmsResponse creates an AlarmsResponse from alarms.
func NewAlarmsResponse(alarms []model.Alarm, now time.Time) *AlarmsResponse {
	out := make([]*AlarmOutput, len(alarms))
	for i := range alarms {
		out[i] = NewAlarmOutput(&alarms[i], now)
	}
	return &AlarmsResponse{Alarms: out, Count: len(out)}
}

// SetResponse represents the set command output in JSON.
type SetResponse struct {
	Status string       `json:"status"`
	Alarm  *AlarmOutput `json:"alarm,omitempty"`
}

// NewSetResponse creates a SetResponse from a Set result.
func NewSetResponse(res alarm.Result, now time.Time) *SetResponse {
	out := &SetResponse{Status: string(res.Status)}
	if res.Alarm != nil {
		out.Alarm = NewAlarmOutput(res.Alarm, now)
	}
	return out
}

// CancelResponse represents the cancel command output in JSON.
type CancelResponse struct {
	Status string       `json:"status"`
	Alarm  *AlarmOutput `json:"alarm"`
}

// ErrorResponse represents an error in JSON.
type ErrorResponse struct {
	Status     string `json:"status"`
	Error      string `json:"error"`
	Category   string `json:"category,omitempty"`
	Suggestion string `json:"suggestion,omitempty"`
}

// CheckOutput describes one time spec without touching any alarm state.
type CheckOutput struct {
	TimeSpec     string  `json:"time_spec"`
	Valid        bool    `json:"valid"`
	Outcome      string  `json:"outcome,omitempty"`
	Title        string  `json:"title,omitempty"`
	Due          string  `json:"due,omitempty"`
	DelaySeconds float64 `json:"delay_seconds,omitempty"`
	Error        string  `json:"error,omitempty"`
}

// NewCheckOutput runs raw through the same parse and classification steps
// that Set uses.
func NewCheckOutput(raw string, now time.Time) *CheckOutput {
	out := &CheckOutput{TimeSpec: raw}
	spec, err := timespec.Parse(raw)
	if err != nil {
		out.Error = err.Error()
		return out
	}
	out.Valid = true
	out.Title = timespec.Title(spec)

	outcome := timespec.Classify(spec, now)
	out.Outcome = outcome.String()
	if outcome != timespec.Unrepresentable {
		out.Due = spec.Due().Format(time.RFC3339)
	}
	if outcome == timespec.Future {
		out.DelaySeconds = timespec.DelaySeconds(spec, now)
	}
	return out
}

// ReplayEntry is one surviving log entry and what a restart would do with it.
type ReplayEntry struct {
	TimeSpec string `json:"time_spec"`
	Label    string `json:"label"`
	News     bool   `json:"news,omitempty"`
	Weather  bool   `json:"weather,omitempty"`
	Logged   string `json:"logged,omitempty"`
	Outcome  string `json:"outcome"`
	Legacy   bool   `json:"legacy,omitempty"`
}

// ReplayResponse represents the replay command output in JSON.
type ReplayResponse struct {
	Path    string         `json:"path"`
	Lines   int            `json:"lines"`
	Ignored int            `json:"ignored"`
	Skipped int            `json:"skipped"`
	Entries []*ReplayEntry `json:"entries"`

	// Restore is filled in by callers that dry-run the restore.
	Restore *alarm.RestoreReport `json:"restore,omitempty"`
}

// NewReplayResponse classifies every entry that survives replay of scan.
func NewReplayResponse(path string, scan eventlog.ScanResult, now time.Time) *ReplayResponse {
	survivors := eventlog.Replay(scan.Entries)
	out := &ReplayResponse{
		Path:    path,
		Lines:   scan.Lines,
		Ignored: scan.Ignored,
		Skipped: scan.Skipped,
		Entries: make([]*ReplayEntry, 0, len(survivors)),
	}
	for _, e := range survivors {
		re := &ReplayEntry{
			TimeSpec: e.TimeSpec,
			Label:    e.Label,
			News:     e.News,
			Weather:  e.Weather,
			Legacy:   e.Legacy,
		}
		if !e.Logged.IsZero() {
			re.Logged = e.Logged.Format(time.RFC3339)
		}
		if spec, err := timespec.Parse(e.TimeSpec); err == nil {
			re.Outcome = timespec.Classify(spec, now).String()
		} else {
			re.Outcome = "malformed"
		}
		out.Entries = append(out.Entries, re)
	}
	return out
}

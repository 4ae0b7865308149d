// Package announce delivers a fired alarm to the outside world.
package announce

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/manav03panchal/alarmd/internal/logging"
	"github.com/manav03panchal/alarmd/internal/model"
)

// Briefing is what an announcer receives when an alarm fires.
type Briefing struct {
	TimeSpec string    `json:"time_spec"`
	Label    string    `json:"label"`
	Title    string    `json:"title"`
	News     bool      `json:"news"`
	Weather  bool      `json:"weather"`
	FiredAt  time.Time `json:"fired_at"`
}

// NewBriefing builds the briefing for a fired alarm.
func NewBriefing(a *model.Alarm, firedAt time.Time) Briefing {
	return Briefing{
		TimeSpec: a.TimeSpec,
		Label:    a.Label,
		Title:    a.Title,
		News:     a.News,
		Weather:  a.Weather,
		FiredAt:  firedAt,
	}
}

// Text renders the spoken form of the briefing.
func (b Briefing) Text() string {
	var sb strings.Builder
	sb.WriteString("Here is your scheduled briefing.")
	if b.Label != "" {
		sb.WriteString(" " + b.Label + ".")
	}
	switch {
	case b.News && b.Weather:
		sb.WriteString(" Your news and weather updates follow.")
	case b.News:
		sb.WriteString(" Your news update follows.")
	case b.Weather:
		sb.WriteString(" Your weather update follows.")
	}
	return sb.String()
}

// Announcer delivers a briefing. Implementations may block for as long as
// delivery takes; the scheduler waits for them.
type Announcer interface {
	Announce(ctx context.Context, b Briefing) error
}

// Func adapts a plain function to Announcer.
type Func func(ctx context.Context, b Briefing) error

// Announce calls f.
func (f Func) Announce(ctx context.Context, b Briefing) error {
	return f(ctx, b)
}

// LogAnnouncer writes the briefing to the structured log. It is the
// fallback when nothing else is configured.
type LogAnnouncer struct{}

// Announce logs b at info level.
func (LogAnnouncer) Announce(ctx context.Context, b Briefing) error {
	logging.InfoContext(ctx, "alarm fired",
		logging.KeyTimeSpec, b.TimeSpec,
		logging.KeyLabel, b.Label,
		"news", b.News,
		"weather", b.Weather,
		"text", b.Text(),
	)
	return nil
}

// Multi fans a briefing out to every announcer in order. All of them run
// even if an earlier one fails; the errors are joined.
type Multi []Announcer

// Announce calls every announcer.
func (m Multi) Announce(ctx context.Context, b Briefing) error {
	var errs []error
	for _, a := range m {
		if err := a.Announce(ctx, b); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Package model defines the domain models for alarmd.
package model

import (
	"time"
)

// Alarm is one scheduled, not yet fired briefing alarm. The TimeSpec string
// is the registry key; an Alarm is never mutated after it is scheduled.
type Alarm struct {
	TimeSpec  string    `json:"time_spec" yaml:"time_spec"`
	Label     string    `json:"label" yaml:"label"`
	News      bool      `json:"news" yaml:"news"`
	Weather   bool      `json:"weather" yaml:"weather"`
	Title     string    `json:"title" yaml:"title"` // derived from TimeSpec, never logged
	Due       time.Time `json:"due" yaml:"due"`
	Handle    string    `json:"handle" yaml:"handle"`
	CreatedAt time.Time `json:"created_at" yaml:"created_at"`
	Restored  bool      `json:"restored,omitempty" yaml:"restored,omitempty"`
}

// TimeUntil returns the duration between now and the due instant.
// Negative once the alarm is overdue.
func (a *Alarm) TimeUntil(now time.Time) time.Duration {
	return a.Due.Sub(now)
}

// Sections lists the optional briefing sections requested, in the order
// they are announced.
func (a *Alarm) Sections() []string {
	var out []string
	if a.News {
		out = append(out, "news")
	}
	if a.Weather {
		out = append(out, "weather")
	}
	return out
}

// ShortHandle returns the first 8 characters of the handle for display.
func (a *Alarm) ShortHandle() string {
	if len(a.Handle) > 8 {
		return a.Handle[:8]
	}
	return a.Handle
}

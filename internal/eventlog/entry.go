// Package eventlog is the durable, append-only record of alarm mutations.
//
// Each scheduling or cancellation writes one text line:
//
//	2030-01-01T06:00:00Z Set alarm&2030-01-01T07:00&wake up&news&weather
//
// The reader also understands lines written by the Python logging module
// ("INFO:root:Set alarm:news&wake up&2030-01-01T07:00") so old logs still
// restore. The log is the only state that survives a restart; Replay turns
// it back into the set of alarms that were still outstanding.
package eventlog

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/manav03panchal/alarmd/internal/model"
)

// Separator joins the fields of a line. Labels must not contain it.
const Separator = "&"

// Line tags.
const (
	TagScheduled = "Set alarm"
	TagCancelled = "Alarm cancel"
)

const (
	tokenNews    = "news"
	tokenWeather = "weather"
	legacyPrefix = "INFO:root:"
)

// ErrMalformedLine marks a line with a known tag whose fields do not split
// as expected.
var ErrMalformedLine = errors.New("malformed event log line")

// Kind says what a line records.
type Kind int

const (
	// KindScheduled lines record an accepted alarm.
	KindScheduled Kind = iota + 1
	// KindCancelled lines record a user cancellation.
	KindCancelled
)

// String returns the line tag for k.
func (k Kind) String() string {
	switch k {
	case KindScheduled:
		return TagScheduled
	case KindCancelled:
		return TagCancelled
	default:
		return "unknown"
	}
}

// Entry is one parsed line.
type Entry struct {
	Kind     Kind
	Logged   time.Time // zero for legacy lines
	TimeSpec string
	Label    string
	News     bool
	Weather  bool
	Line     int  // 1-based line number, set by Scan
	Legacy   bool // written by the Python logging module
}

// NewEntry builds the entry recording kind for a.
func NewEntry(kind Kind, a *model.Alarm, at time.Time) Entry {
	return Entry{
		Kind:     kind,
		Logged:   at,
		TimeSpec: a.TimeSpec,
		Label:    a.Label,
		News:     a.News,
		Weather:  a.Weather,
	}
}

// String renders e in the current line format, without a newline.
func (e Entry) String() string {
	var b strings.Builder
	b.WriteString(e.Logged.Format(time.RFC3339))
	b.WriteByte(' ')
	b.WriteString(e.Kind.String())
	b.WriteString(Separator)
	b.WriteString(e.TimeSpec)
	b.WriteString(Separator)
	b.WriteString(e.Label)
	if e.News {
		b.WriteString(Separator + tokenNews)
	}
	if e.Weather {
		b.WriteString(Separator + tokenWeather)
	}
	return b.String()
}

// Parse decodes one line. ok is false for lines that carry neither tag;
// those belong to other writers sharing the file and are not errors. A
// tagged line that cannot be split returns ok true and an error wrapping
// ErrMalformedLine.
func Parse(line string) (e Entry, ok bool, err error) {
	line = strings.TrimRight(line, "\r\n")
	if rest, found := strings.CutPrefix(line, legacyPrefix); found {
		return parseLegacy(rest)
	}

	stamp, rest, found := strings.Cut(line, " ")
	if !found {
		return Entry{}, false, nil
	}
	logged, perr := time.Parse(time.RFC3339, stamp)
	if perr != nil {
		return Entry{}, false, nil
	}

	tag, body, _ := strings.Cut(rest, Separator)
	switch tag {
	case TagScheduled:
		e.Kind = KindScheduled
	case TagCancelled:
		e.Kind = KindCancelled
	default:
		return Entry{}, false, nil
	}
	e.Logged = logged

	fields := strings.Split(body, Separator)
	if len(fields) < 2 || fields[0] == "" {
		return Entry{}, true, fmt.Errorf("%w: want time spec and label, got %d fields", ErrMalformedLine, len(fields))
	}
	e.TimeSpec, e.Label = fields[0], fields[1]
	if err := applyFlags(&e, fields[2:]); err != nil {
		return Entry{}, true, err
	}
	return e, true, nil
}

// parseLegacy handles "Set alarm:[news&][weather&]label&spec" and
// "Alarm cancel:spec". The character after the tag is ':' in files written
// by the Python app; '&' is accepted too.
func parseLegacy(rest string) (Entry, bool, error) {
	e := Entry{Legacy: true}

	if body, ok := cutTag(rest, TagScheduled); ok {
		e.Kind = KindScheduled
		fields := strings.Split(body, Separator)
		if len(fields) < 2 {
			return Entry{}, true, fmt.Errorf("%w: legacy schedule line has %d fields", ErrMalformedLine, len(fields))
		}
		n := len(fields)
		e.TimeSpec, e.Label = fields[n-1], fields[n-2]
		if e.TimeSpec == "" {
			return Entry{}, true, fmt.Errorf("%w: empty time spec", ErrMalformedLine)
		}
		if err := applyFlags(&e, fields[:n-2]); err != nil {
			return Entry{}, true, err
		}
		return e, true, nil
	}

	if body, ok := cutTag(rest, TagCancelled); ok {
		e.Kind = KindCancelled
		e.TimeSpec = strings.TrimSpace(body)
		if e.TimeSpec == "" {
			return Entry{}, true, fmt.Errorf("%w: empty time spec", ErrMalformedLine)
		}
		return e, true, nil
	}

	return Entry{}, false, nil
}

func cutTag(s, tag string) (string, bool) {
	body, ok := strings.CutPrefix(s, tag)
	if !ok || body == "" {
		return "", false
	}
	if body[0] != ':' && body[0] != Separator[0] {
		return "", false
	}
	return body[1:], true
}

func applyFlags(e *Entry, tokens []string) error {
	for _, tok := range tokens {
		switch {
		case tok == tokenNews && !e.News:
			e.News = true
		case tok == tokenWeather && !e.Weather:
			e.Weather = true
		default:
			return fmt.Errorf("%w: unexpected field %q", ErrMalformedLine, tok)
		}
	}
	return nil
}

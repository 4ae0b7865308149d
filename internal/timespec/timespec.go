// Package timespec parses and evaluates the fixed-format alarm time token
// YYYY-MM-DDTHH:MM.
//
// Validation happens in two layers. Parse only checks the shape of the token
// (length, separators, digits). Calendar validity is decided later by
// Classify, which reports an unrepresentable date as its own outcome instead
// of failing.
package timespec

import (
	"errors"
	"fmt"
	"time"
)

// Length is the exact length of a canonical token.
const Length = 16

// Layout is the time layout of a canonical token.
const Layout = "2006-01-02T15:04"

// ErrMalformed is returned by Parse for tokens with the wrong shape.
var ErrMalformed = errors.New("malformed time spec")

// Spec is a syntactically valid time token.
type Spec struct {
	Year   int
	Month  int
	Day    int
	Hour   int
	Minute int

	raw string
}

// separators maps fixed offsets to the byte expected there.
var separators = map[int]byte{
	4:  '-',
	7:  '-',
	10: 'T',
	13: ':',
}

// Parse checks the shape of s and extracts its digit groups.
// Out-of-range values such as month 13 are accepted here.
func Parse(s string) (Spec, error) {
	if len(s) != Length {
		return Spec{}, fmt.Errorf("%w: length %d, want %d", ErrMalformed, len(s), Length)
	}
	for i := 0; i < Length; i++ {
		want, isSep := separators[i]
		switch {
		case isSep && s[i] != want:
			return Spec{}, fmt.Errorf("%w: expected %q at offset %d", ErrMalformed, want, i)
		case !isSep && (s[i] < '0' || s[i] > '9'):
			return Spec{}, fmt.Errorf("%w: non-digit %q at offset %d", ErrMalformed, s[i], i)
		}
	}
	return Spec{
		Year:   atoi(s[0:4]),
		Month:  atoi(s[5:7]),
		Day:    atoi(s[8:10]),
		Hour:   atoi(s[11:13]),
		Minute: atoi(s[14:16]),
		raw:    s,
	}, nil
}

// MustParse is like Parse but panics on malformed input. Intended for tests
// and constants.
func MustParse(s string) Spec {
	spec, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return spec
}

// Valid reports whether s has the canonical shape.
func Valid(s string) bool {
	_, err := Parse(s)
	return err == nil
}

// FromTime renders t as a canonical token in the local clock. Seconds are
// truncated. Years outside 1..9999 have no four-digit token and fail with
// ErrMalformed.
func FromTime(t time.Time) (Spec, error) {
	t = t.In(time.Local)
	if y := t.Year(); y < 1 || y > 9999 {
		return Spec{}, fmt.Errorf("%w: year %d out of range", ErrMalformed, y)
	}
	return Parse(t.Format(Layout))
}

// String returns the canonical token.
func (s Spec) String() string {
	return s.raw
}

// IsZero reports whether s was never parsed.
func (s Spec) IsZero() bool {
	return s.raw == ""
}

// atoi converts a run of ASCII digits already checked by Parse.
func atoi(s string) int {
	n := 0
	for i := 0; i < len(s); i++ {
		n = n*10 + int(s[i]-'0')
	}
	return n
}

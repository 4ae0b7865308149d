package timespec

import (
	"strings"
	"time"

	"github.com/markusmobius/go-dateparser"
)

// Title renders the display label for s, e.g.
// "Date: 02/12/2025   Time: 02:14".
func Title(s Spec) string {
	return TitleString(s.raw)
}

// TitleString formats a raw token without validating it. Tokens that do not
// contain a 'T' are returned unchanged.
func TitleString(raw string) string {
	datePart, clock, ok := strings.Cut(raw, "T")
	if !ok {
		return raw
	}
	fields := strings.Split(datePart, "-")
	if len(fields) != 3 {
		return raw
	}
	return "Date: " + fields[2] + "/" + fields[1] + "/" + fields[0] + "   Time: " + clock
}

// FromNatural turns user input into a canonical Spec. Canonical tokens pass
// through untouched; anything else ("tomorrow 7am", "friday 18:30") is
// resolved relative to now with go-dateparser.
func FromNatural(input string, now time.Time) (Spec, error) {
	input = strings.TrimSpace(input)
	if spec, err := Parse(input); err == nil {
		return spec, nil
	}

	cfg := &dateparser.Configuration{
		CurrentTime: now,
	}
	result, err := dateparser.Parse(cfg, input)
	if err != nil {
		return Spec{}, err
	}

	// "7am" typed after 7am means tomorrow.
	t := result.Time
	if !t.After(now) && sameDay(t, now) {
		t = t.AddDate(0, 0, 1)
	}
	return FromTime(t)
}

func sameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}

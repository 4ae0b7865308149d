package eventlog

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/manav03panchal/alarmd/internal/logging"
)

// maxLineSize bounds one log line. Longer lines abort the scan.
const maxLineSize = 1 << 20

// ScanResult is everything Scan pulled out of a log.
type ScanResult struct {
	Entries []Entry `json:"-"`
	Lines   int     `json:"lines"`
	Ignored int     `json:"ignored"` // lines without a recognised tag
	Skipped int     `json:"skipped"` // tagged lines that failed to parse
}

// Scheduled counts scheduling entries.
func (r ScanResult) Scheduled() int {
	n := 0
	for _, e := range r.Entries {
		if e.Kind == KindScheduled {
			n++
		}
	}
	return n
}

// Scan reads a log line by line. Unrecognised lines are ignored and
// malformed tagged lines are skipped with a warning; only a read error
// fails the scan.
func Scan(r io.Reader) (ScanResult, error) {
	var res ScanResult

	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), maxLineSize)
	for sc.Scan() {
		res.Lines++
		e, ok, err := Parse(sc.Text())
		switch {
		case !ok:
			res.Ignored++
		case err != nil:
			res.Skipped++
			logging.Warn("skipping event log line",
				logging.KeyLine, res.Lines,
				logging.KeyError, err,
			)
		default:
			e.Line = res.Lines
			res.Entries = append(res.Entries, e)
		}
	}
	if err := sc.Err(); err != nil {
		return res, fmt.Errorf("scan event log: %w", err)
	}
	return res, nil
}

// ScanFile scans the log at path. A missing file is an empty log.
func ScanFile(path string) (ScanResult, error) {
	f, err := os.Open(path)
	if errors.Is(err, os.ErrNotExist) {
		return ScanResult{}, nil
	}
	if err != nil {
		return ScanResult{}, err
	}
	defer f.Close()
	return Scan(f)
}

// Replay returns the scheduling entries that no later cancellation with the
// same time spec supersedes, in log order. A spec scheduled again after its
// cancellation survives through the newer entry.
func Replay(entries []Entry) []Entry {
	alive := make([]bool, len(entries))
	open := make(map[string][]int)

	for i, e := range entries {
		switch e.Kind {
		case KindScheduled:
			alive[i] = true
			open[e.TimeSpec] = append(open[e.TimeSpec], i)
		case KindCancelled:
			for _, j := range open[e.TimeSpec] {
				alive[j] = false
			}
			delete(open, e.TimeSpec)
		}
	}

	var out []Entry
	for i, e := range entries {
		if alive[i] {
			out = append(out, e)
		}
	}
	return out
}

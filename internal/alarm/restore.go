package alarm

import (
	"context"
	"io"

	"github.com/manav03panchal/alarmd/internal/eventlog"
	"github.com/manav03panchal/alarmd/internal/logging"
)

// Restore replays an event log into the service. Every entry that survives
// replay goes through the same path as Set, so lapsed alarms drop out on
// the futurity check and repeats on the duplicate guard. Restored alarms
// are not written back to the sink.
func (s *Service) Restore(ctx context.Context, r io.Reader) (RestoreReport, error) {
	scan, err := eventlog.Scan(r)
	if err != nil {
		return RestoreReport{}, err
	}
	return s.RestoreEntries(ctx, scan), nil
}

// RestoreEntries is Restore for a log that has already been scanned.
func (s *Service) RestoreEntries(ctx context.Context, scan eventlog.ScanResult) RestoreReport {
	survivors := eventlog.Replay(scan.Entries)
	report := RestoreReport{
		Skipped:   scan.Skipped,
		Cancelled: scan.Scheduled() - len(survivors),
	}

	for _, e := range survivors {
		res, err := s.set(ctx, Request{
			TimeSpec: e.TimeSpec,
			Label:    e.Label,
			News:     e.News,
			Weather:  e.Weather,
		}, true)
		if err != nil {
			report.Skipped++
			logging.WarnContext(ctx, "cannot restore event log entry",
				logging.KeyLine, e.Line,
				logging.KeyError, err,
			)
			continue
		}
		switch res.Status {
		case StatusScheduled:
			report.Restored++
		case StatusPast:
			report.Lapsed++
		case StatusUnrepresentable:
			report.Unrepresentable++
		case StatusDuplicate:
			report.Duplicates++
		}
	}

	logging.InfoContext(ctx, "alarms restored",
		"restored", report.Restored,
		"lapsed", report.Lapsed,
		"cancelled", report.Cancelled,
		"duplicates", report.Duplicates,
		"unrepresentable", report.Unrepresentable,
		"skipped", report.Skipped,
	)
	return report
}

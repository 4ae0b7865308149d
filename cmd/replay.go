package cmd

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/manav03panchal/alarmd/internal/alarm"
	"github.com/manav03panchal/alarmd/internal/eventlog"
	"github.com/manav03panchal/alarmd/internal/output"
	"github.com/manav03panchal/alarmd/internal/scheduler"
)

// replayCmd shows what a restart would restore from the event log.
var replayCmd = &cobra.Command{
	Use:   "replay [EVENT_LOG]",
	Short: "Show what a restart would restore",
	Long: `Read an event log and show which alarms a restarted daemon would re-arm.

This is a dry run: the log is only read, so it is safe to use while the
daemon is running. EVENT_LOG defaults to the configured event log.

Examples:
  alarmd replay
  alarmd replay ./old-events.log --format json`,
	Args: cobra.MaximumNArgs(1),
	RunE: runReplay,
}

func init() {
	rootCmd.AddCommand(replayCmd)
}

func runReplay(cmd *cobra.Command, args []string) error {
	path := ctx.Config.EventLog
	if len(args) == 1 {
		path = args[0]
	}

	scan, err := eventlog.ScanFile(path)
	if err != nil {
		return err
	}

	now := ctx.Now()
	resp := output.NewReplayResponse(path, scan, now)
	report := dryRunRestore(cmd.Context(), scan)
	resp.Restore = &report

	if ctx.IsJSON() {
		return ctx.Formatter.JSON(resp)
	}
	cli := ctx.CLIFormatter()
	cli.PrintReplay(resp)
	cli.PrintRestoreReport(report)
	return nil
}

// dryRunRestore restores scan into a throwaway service whose timers never
// run and whose mutations go nowhere.
func dryRunRestore(c context.Context, scan eventlog.ScanResult) alarm.RestoreReport {
	timers := scheduler.New(scheduler.Options{Now: ctx.Now})
	svc := alarm.NewService(alarm.Config{
		Timers: timers,
		Sink:   alarm.NopSink{},
		Now:    ctx.Now,
	})
	return svc.RestoreEntries(c, scan)
}

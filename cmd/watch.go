package cmd

import (
	"time"

	"github.com/spf13/cobra"

	"github.com/manav03panchal/alarmd/internal/tui"
)

var watchFlagPoll time.Duration

// watchCmd opens the live countdown view.
var watchCmd = &cobra.Command{
	Use:     "watch",
	Aliases: []string{"w", "dash"},
	Short:   "Live countdown to the next alarm",
	Long: `Open a full-screen view with a countdown to the next alarm and the list of
pending alarms. The list is refreshed from the daemon periodically.

Keys: r refresh, q quit.`,
	Args: cobra.NoArgs,
	RunE: runWatch,
}

func init() {
	watchCmd.Flags().DurationVar(&watchFlagPoll, "poll", 5*time.Second, "How often to refresh from the daemon")

	rootCmd.AddCommand(watchCmd)
}

func runWatch(cmd *cobra.Command, args []string) error {
	return tui.RunWatch(tui.WatchConfig{
		Source:       ctx.Client(),
		PollInterval: watchFlagPoll,
		Now:          ctx.Now,
	})
}

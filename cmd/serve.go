package cmd

import (
	"github.com/spf13/cobra"

	"github.com/manav03panchal/alarmd/internal/daemon"
)

// serveCmd runs the daemon in the foreground.
var serveCmd = &cobra.Command{
	Use:     "serve",
	Aliases: []string{"daemon-run", "run"},
	Short:   "Run the alarm daemon in the foreground",
	Long: `Run the alarm daemon in the foreground.

On start the daemon replays the event log and re-arms every alarm that is
still in the future. It then serves the HTTP API until interrupted.

Examples:
  alarmd serve
  alarmd serve --listen 127.0.0.1:9000
  alarmd serve --cooperative
  alarmd serve --announce-command "espeak"`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().String("listen", "", "Address for the HTTP API")
	serveCmd.Flags().String("event-log", "", "Event log path")
	serveCmd.Flags().Bool("cooperative", false, "Fire due alarms only while serving API requests")
	serveCmd.Flags().String("log-level", "", "Log level: debug, info, warn, error")
	serveCmd.Flags().String("webhook", "", "POST fired briefings to this URL")
	serveCmd.Flags().String("announce-command", "", "Run this command with each fired briefing")

	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	d := daemon.New(daemon.Options{
		Config:  ctx.Config,
		Version: Version,
		Debug:   ctx.Debug,
		Stderr:  cmd.ErrOrStderr(),
	})
	return d.Run(cmd.Context())
}

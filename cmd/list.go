package cmd

import (
	"github.com/spf13/cobra"

	"github.com/manav03panchal/alarmd/internal/output"
)

// listCmd shows the pending alarms.
var listCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"ls", "l"},
	Short:   "List pending alarms",
	Long: `List pending alarms in the order they were set.

Examples:
  alarmd list
  alarmd list --format json`,
	Args: cobra.NoArgs,
	RunE: runList,
}

func init() {
	rootCmd.AddCommand(listCmd)
}

func runList(cmd *cobra.Command, args []string) error {
	alarms, err := ctx.Client().List(cmd.Context())
	if err != nil {
		return err
	}

	now := ctx.Now()
	if ctx.IsJSON() {
		return ctx.Formatter.JSON(output.NewAlarmsResponse(alarms, now))
	}
	ctx.CLIFormatter().PrintAlarms(alarms, now)
	return nil
}

package cmd

import (
	"github.com/spf13/cobra"

	apperrors "github.com/manav03panchal/alarmd/internal/errors"
	"github.com/manav03panchal/alarmd/internal/output"
)

// checkCmd validates a time spec without contacting the daemon.
var checkCmd = &cobra.Command{
	Use:   "check TIMESPEC",
	Short: "Validate a time spec offline",
	Long: `Validate a time spec and show what set would do with it: its title, whether
it is in the future, and how long until it is due. The daemon is not
contacted.

Examples:
  alarmd check 2030-01-01T07:30
  alarmd check 2030-02-30T07:30 --format json`,
	Args: cobra.ExactArgs(1),
	RunE: runCheck,
}

func init() {
	rootCmd.AddCommand(checkCmd)
}

func runCheck(cmd *cobra.Command, args []string) error {
	out := output.NewCheckOutput(args[0], ctx.Now())
	if ctx.IsJSON() {
		return ctx.Formatter.JSON(out)
	}
	if !out.Valid {
		return apperrors.NewFieldError("timespec", args[0], apperrors.ErrMalformedTimeSpec,
			"Use the form YYYY-MM-DDTHH:MM, e.g. 2030-01-01T07:30.")
	}
	ctx.CLIFormatter().PrintCheck(out)
	return nil
}

package cmd

import (
	"strings"

	"github.com/spf13/cobra"

	"github.com/manav03panchal/alarmd/internal/alarm"
	apperrors "github.com/manav03panchal/alarmd/internal/errors"
	"github.com/manav03panchal/alarmd/internal/output"
	"github.com/manav03panchal/alarmd/internal/timespec"
)

// Set command flags.
var (
	setFlagNews    bool
	setFlagWeather bool
)

// setCmd schedules an alarm on the daemon.
var setCmd = &cobra.Command{
	Use:     "set WHEN [LABEL...]",
	Aliases: []string{"add", "s"},
	Short:   "Set a briefing alarm",
	Long: `Set a one-shot briefing alarm.

WHEN is either a time spec (YYYY-MM-DDTHH:MM, local time) or a phrase such
as "tomorrow 7am" or "friday 18:30". The remaining arguments form the label.
Setting the same time spec twice is a no-op.

Examples:
  alarmd set 2030-01-01T07:30 wake up
  alarmd set "tomorrow 6:45" --news --weather
  alarmd set "in 20 minutes" tea`,
	Args: cobra.MinimumNArgs(1),
	RunE: runSet,
}

func init() {
	setCmd.Flags().BoolVarP(&setFlagNews, "news", "n", false, "Include the news in the briefing")
	setCmd.Flags().BoolVarP(&setFlagWeather, "weather", "w", false, "Include the weather in the briefing")

	rootCmd.AddCommand(setCmd)
}

func runSet(cmd *cobra.Command, args []string) error {
	now := ctx.Now()
	spec, err := resolveWhen(args[0])
	if err != nil {
		return err
	}

	res, err := ctx.Client().Set(cmd.Context(), alarm.Request{
		TimeSpec: spec.String(),
		Label:    strings.Join(args[1:], " "),
		News:     setFlagNews,
		Weather:  setFlagWeather,
	})
	if err != nil {
		return err
	}

	if ctx.IsJSON() {
		return ctx.Formatter.JSON(output.NewSetResponse(res, now))
	}
	ctx.CLIFormatter().PrintSetResult(res, now)
	return nil
}

// resolveWhen accepts a canonical time spec or a natural-language phrase.
func resolveWhen(when string) (timespec.Spec, error) {
	spec, err := timespec.FromNatural(when, ctx.Now())
	if err != nil {
		return timespec.Spec{}, apperrors.NewFieldError("when", when, apperrors.ErrMalformedTimeSpec,
			"Use YYYY-MM-DDTHH:MM or a phrase like 'tomorrow 7am'.")
	}
	return spec, nil
}

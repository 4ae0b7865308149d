package cmd

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	apperrors "github.com/manav03panchal/alarmd/internal/errors"
	"github.com/manav03panchal/alarmd/internal/model"
	"github.com/manav03panchal/alarmd/internal/output"
)

// Cancel command flags.
var (
	cancelFlagAt  string
	cancelFlagYes bool
)

// isInteractive reports whether stdin is a terminal. Replaced in tests.
var isInteractive = func() bool {
	return term.IsTerminal(int(os.Stdin.Fd()))
}

// cancelCmd cancels an alarm by label or time spec.
var cancelCmd = &cobra.Command{
	Use:     "cancel [LABEL...]",
	Aliases: []string{"rm", "unset"},
	Short:   "Cancel a pending alarm",
	Long: `Cancel a pending alarm.

By default the first alarm (in the order they were set) carrying LABEL is
cancelled. Use --at to cancel the alarm set for a time spec instead. Pass ""
to cancel an alarm that has no label.

Examples:
  alarmd cancel wake up
  alarmd cancel --at 2030-01-01T07:30
  alarmd cancel --at "tomorrow 7am" -y`,
	RunE: runCancel,
}

func init() {
	cancelCmd.Flags().StringVar(&cancelFlagAt, "at", "", "Cancel the alarm set for this time")
	cancelCmd.Flags().BoolVarP(&cancelFlagYes, "yes", "y", false, "Do not ask for confirmation")

	rootCmd.AddCommand(cancelCmd)
}

func runCancel(cmd *cobra.Command, args []string) error {
	if cancelFlagAt == "" && len(args) == 0 {
		return apperrors.NewUserError("nothing to cancel", "Give a label, or --at WHEN for a time spec.")
	}

	var target string
	var spec string
	if cancelFlagAt != "" {
		s, err := resolveWhen(cancelFlagAt)
		if err != nil {
			return err
		}
		spec = s.String()
		target = "the alarm at " + spec
	} else {
		target = fmt.Sprintf("the alarm labelled %q", strings.Join(args, " "))
	}

	if !cancelFlagYes && !ctx.IsJSON() && isInteractive() {
		ok, err := confirm(cmd, "Cancel "+target+"?")
		if err != nil {
			return err
		}
		if !ok {
			ctx.CLIFormatter().Muted("Nothing cancelled.")
			return nil
		}
	}

	var cancelled *model.Alarm
	var err error
	if spec != "" {
		cancelled, err = ctx.Client().CancelTimeSpec(cmd.Context(), spec)
	} else {
		cancelled, err = ctx.Client().Cancel(cmd.Context(), strings.Join(args, " "))
	}
	if err != nil {
		return err
	}

	if ctx.IsJSON() {
		return ctx.Formatter.JSON(&output.CancelResponse{
			Status: "cancelled",
			Alarm:  output.NewAlarmOutput(cancelled, ctx.Now()),
		})
	}
	ctx.CLIFormatter().PrintCancelled(cancelled)
	return nil
}

// confirm asks a yes/no question on the command's input.
func confirm(cmd *cobra.Command, question string) (bool, error) {
	fmt.Fprintf(cmd.OutOrStdout(), "%s [y/N] ", question)
	line, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
	if err != nil && line == "" {
		return false, nil
	}
	answer := strings.ToLower(strings.TrimSpace(line))
	return answer == "y" || answer == "yes", nil
}

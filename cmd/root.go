// Package cmd provides the CLI commands for alarmd.
package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/manav03panchal/alarmd/internal/config"
	"github.com/manav03panchal/alarmd/internal/logging"
	"github.com/manav03panchal/alarmd/internal/output"
	"github.com/manav03panchal/alarmd/internal/runtime"
)

// Version information (set at build time via ldflags).
var (
	Version   = "dev"
	Commit    = "unknown"
	BuildTime = "unknown"
)

// Global flags.
var (
	flagConfig string
	flagFormat string
	flagColor  string
	flagDebug  bool
	flagServer string
)

// annotationSkipContext marks commands that must run without loading the
// configuration, e.g. because they repair it.
const annotationSkipContext = "alarmd/skip-context"

// flagKeys binds command-line flags to config keys. A flag only overrides
// the key when the running command defines it.
var flagKeys = map[string]string{
	"server":           config.KeyServer,
	"listen":           config.KeyListen,
	"event-log":        config.KeyEventLog,
	"cooperative":      config.KeySchedulerCooperative,
	"log-level":        config.KeyLogLevel,
	"webhook":          config.KeyAnnounceWebhookURL,
	"announce-command": config.KeyAnnounceCommand,
}

// ctx is the shared runtime context.
var ctx *runtime.Context

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "alarmd",
	Short: "Briefing alarms that survive restarts",
	Long: `alarmd schedules one-shot briefing alarms. Every alarm is written to an
append-only event log, so a restarted daemon picks up exactly the alarms
that were still pending.

Examples:
  alarmd serve
  alarmd set 2030-01-01T07:30 wake up --news --weather
  alarmd set "tomorrow 7am" standup
  alarmd list
  alarmd cancel standup
  alarmd replay`,
	SilenceUsage:      true,
	SilenceErrors:     true,
	PersistentPreRunE: setupContext,
	RunE:              runList,
}

// setupContext initialises logging and resolves configuration for every
// command except help, completion and the annotated ones.
func setupContext(cmd *cobra.Command, args []string) error {
	logCfg := logging.DefaultConfig()
	if flagDebug {
		logCfg = logging.DebugConfig()
	}
	logCfg.Output = cmd.ErrOrStderr()
	logging.Init(logCfg)

	if cmd.Name() == "completion" || cmd.Name() == "help" || cmd.Annotations[annotationSkipContext] != "" {
		return nil
	}

	format, err := output.ParseFormat(flagFormat)
	if err != nil {
		return err
	}

	v := config.New()
	if err := bindFlags(v, cmd); err != nil {
		return err
	}

	opts := runtime.DefaultOptions()
	opts.ConfigPath = flagConfig
	opts.Viper = v
	opts.Format = format
	opts.ColorMode = output.ColorMode(flagColor)
	opts.Debug = flagDebug
	opts.Writer = cmd.OutOrStdout()

	ctx, err = runtime.New(opts)
	return err
}

// bindFlags ties the running command's flags to their config keys.
func bindFlags(v *viper.Viper, cmd *cobra.Command) error {
	for name, key := range flagKeys {
		if f := cmd.Flags().Lookup(name); f != nil {
			if err := v.BindPFlag(key, f); err != nil {
				return err
			}
		}
	}
	return nil
}

// Execute runs the CLI and returns the process exit code.
func Execute() int {
	err := rootCmd.Execute()
	if err == nil {
		return runtime.ExitOK
	}
	runtime.PrintError(rootCmd.ErrOrStderr(), ctx != nil && ctx.IsJSON(), err)
	return runtime.ExitCode(err)
}

func init() {
	// Global flags
	rootCmd.PersistentFlags().StringVarP(&flagConfig, "config", "c", "",
		"Config file (default "+config.DefaultConfigPath()+")")
	rootCmd.PersistentFlags().StringVarP(&flagFormat, "format", "f", "cli",
		"Output format: cli, json, plain")
	rootCmd.PersistentFlags().StringVar(&flagColor, "color", "auto",
		"Color output: auto, always, never")
	rootCmd.PersistentFlags().BoolVar(&flagDebug, "debug", false,
		"Enable debug output")
	rootCmd.PersistentFlags().StringVar(&flagServer, "server", "",
		"Daemon URL (default from config)")

	rootCmd.AddCommand(versionCmd)
}

// versionCmd shows version information.
var versionCmd = &cobra.Command{
	Use:         "version",
	Short:       "Print version information",
	Annotations: map[string]string{annotationSkipContext: "true"},
	Run: func(cmd *cobra.Command, args []string) {
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "alarmd %s\n", Version)
		fmt.Fprintf(out, "  commit: %s\n", Commit)
		fmt.Fprintf(out, "  built: %s\n", BuildTime)
	},
}

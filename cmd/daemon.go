package cmd

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/manav03panchal/alarmd/internal/config"
	"github.com/manav03panchal/alarmd/internal/daemon"
)

var daemonInstallFlagForce bool

// daemonCmd represents the daemon command.
var daemonCmd = &cobra.Command{
	Use:     "daemon [command]",
	Aliases: []string{"d", "service"},
	Short:   "Manage the alarm daemon",
	Long: `Inspect, stop and install the alarm daemon. Run it with 'alarmd serve'.

Examples:
  alarmd daemon status
  alarmd daemon health
  alarmd daemon stop
  alarmd daemon install`,
	RunE: runDaemonStatus,
}

// daemonStatusCmd shows daemon status.
var daemonStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show daemon status",
	Args:  cobra.NoArgs,
	RunE:  runDaemonStatus,
}

// daemonStopCmd stops the daemon.
var daemonStopCmd = &cobra.Command{
	Use:   "stop",
	Short: "Stop the daemon",
	Args:  cobra.NoArgs,
	RunE:  runDaemonStop,
}

// daemonHealthCmd fetches GET /health.
var daemonHealthCmd = &cobra.Command{
	Use:   "health",
	Short: "Query the daemon's health endpoint",
	Args:  cobra.NoArgs,
	RunE:  runDaemonHealth,
}

// daemonMetricsCmd fetches GET /metrics.
var daemonMetricsCmd = &cobra.Command{
	Use:   "metrics",
	Short: "Query the daemon's metrics endpoint",
	Args:  cobra.NoArgs,
	RunE:  runDaemonMetrics,
}

// daemonInstallCmd installs the daemon as a system service.
var daemonInstallCmd = &cobra.Command{
	Use:   "install",
	Short: "Install the daemon as a user service",
	Long: `Install alarmd as a per-user service that starts on login.

On macOS, this creates a launchd agent in ~/Library/LaunchAgents.
On Linux, this creates a systemd user service in ~/.config/systemd/user.`,
	Args: cobra.NoArgs,
	RunE: runDaemonInstall,
}

// daemonUninstallCmd removes the service.
var daemonUninstallCmd = &cobra.Command{
	Use:   "uninstall",
	Short: "Remove the user service",
	Args:  cobra.NoArgs,
	RunE:  runDaemonUninstall,
}

func init() {
	daemonInstallCmd.Flags().BoolVar(&daemonInstallFlagForce, "force", false,
		"Force reinstall if already installed")

	daemonCmd.AddCommand(daemonStatusCmd)
	daemonCmd.AddCommand(daemonStopCmd)
	daemonCmd.AddCommand(daemonHealthCmd)
	daemonCmd.AddCommand(daemonMetricsCmd)
	daemonCmd.AddCommand(daemonInstallCmd)
	daemonCmd.AddCommand(daemonUninstallCmd)

	rootCmd.AddCommand(daemonCmd)
}

func newDaemon() *daemon.Daemon {
	return daemon.New(daemon.Options{Config: ctx.Config, Version: Version})
}

func runDaemonStatus(cmd *cobra.Command, args []string) error {
	status := newDaemon().Status()
	if ctx.IsJSON() {
		return ctx.Formatter.JSON(status)
	}

	cli := ctx.CLIFormatter()
	cli.Title("alarmd daemon")
	if !status.Running {
		ctx.Formatter.Println("  Status:    stopped")
		ctx.Formatter.Println("")
		cli.Muted("Start with: alarmd serve")
		return nil
	}
	ctx.Formatter.Printf("  Status:    running\n")
	ctx.Formatter.Printf("  PID:       %d\n", status.PID)
	if status.Uptime != "" {
		ctx.Formatter.Printf("  Uptime:    %s\n", status.Uptime)
	}
	if status.Listen != "" {
		ctx.Formatter.Printf("  Listen:    %s\n", status.Listen)
	}
	if status.EventLog != "" {
		ctx.Formatter.Printf("  Event log: %s\n", status.EventLog)
	}
	return nil
}

func runDaemonStop(cmd *cobra.Command, args []string) error {
	d := newDaemon()
	status := d.Status()
	if !status.Running {
		ctx.Formatter.Println("Daemon is not running")
		return nil
	}
	if err := d.Stop(); err != nil {
		return err
	}
	ctx.CLIFormatter().Success(fmt.Sprintf("Daemon stopped (was PID %d)", status.PID))
	return nil
}

func runDaemonHealth(cmd *cobra.Command, args []string) error {
	health, err := ctx.Client().Health(cmd.Context())
	if err != nil {
		return err
	}
	return ctx.Formatter.JSON(health)
}

func runDaemonMetrics(cmd *cobra.Command, args []string) error {
	metrics, err := ctx.Client().Metrics(cmd.Context())
	if err != nil {
		return err
	}
	return ctx.Formatter.JSON(metrics)
}

func serviceManager() (*daemon.ServiceManager, error) {
	mgr, err := daemon.NewServiceManager(flagConfig, filepath.Join(config.StateDir(), "service.log"))
	if err != nil {
		return nil, err
	}
	mgr.SetDebug(ctx.Debug)
	return mgr, nil
}

func runDaemonInstall(cmd *cobra.Command, args []string) error {
	mgr, err := serviceManager()
	if err != nil {
		return err
	}

	if mgr.IsInstalled() && !daemonInstallFlagForce {
		if ctx.IsJSON() {
			return ctx.Formatter.JSON(map[string]any{"status": "already_installed"})
		}
		ctx.Formatter.Println("Service is already installed.")
		ctx.Formatter.Println("Use --force to reinstall.")
		return nil
	}

	if mgr.IsInstalled() {
		if err := mgr.Uninstall(); err != nil {
			return fmt.Errorf("failed to remove existing service: %w", err)
		}
	}
	if err := mgr.Install(); err != nil {
		return err
	}

	if ctx.IsJSON() {
		return ctx.Formatter.JSON(map[string]any{"status": "installed"})
	}
	ctx.CLIFormatter().Success("Service installed")
	ctx.Formatter.Println("The daemon now starts when you log in and restores pending alarms.")
	ctx.Formatter.Println("To remove: alarmd daemon uninstall")
	return nil
}

func runDaemonUninstall(cmd *cobra.Command, args []string) error {
	mgr, err := serviceManager()
	if err != nil {
		return err
	}

	if !mgr.IsInstalled() {
		if ctx.IsJSON() {
			return ctx.Formatter.JSON(map[string]any{"status": "not_installed"})
		}
		ctx.Formatter.Println("Service is not installed.")
		return nil
	}
	if err := mgr.Uninstall(); err != nil {
		return err
	}

	if ctx.IsJSON() {
		return ctx.Formatter.JSON(map[string]any{"status": "uninstalled"})
	}
	ctx.CLIFormatter().Success("Service uninstalled")
	return nil
}

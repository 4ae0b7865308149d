package daemon

import (
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
	"text/template"

	"github.com/adrg/xdg"

	"github.com/manav03panchal/alarmd/internal/logging"
)

// Service names used by the installers.
const (
	LaunchdLabel = "com.alarmd.daemon"
	SystemdUnit  = "alarmd.service"
)

// ServiceManager installs alarmd as a per-user system service so the
// daemon, and with it every restored alarm, comes back after a reboot.
type ServiceManager struct {
	executablePath string
	configPath     string
	logPath        string
	debug          bool
}

// NewServiceManager creates a service manager for the running binary.
// configPath is passed to 'alarmd serve --config' when non-empty; logPath
// receives the service's stdout and stderr.
func NewServiceManager(configPath, logPath string) (*ServiceManager, error) {
	execPath, err := os.Executable()
	if err != nil {
		return nil, fmt.Errorf("failed to get executable path: %w", err)
	}

	return &ServiceManager{
		executablePath: execPath,
		configPath:     configPath,
		logPath:        logPath,
	}, nil
}

// args is the command line the service runs.
func (m *ServiceManager) args() []string {
	args := []string{m.executablePath, "serve"}
	if m.configPath != "" {
		args = append(args, "--config", m.configPath)
	}
	return args
}

type serviceData struct {
	Args             []string
	LogPath          string
	WorkingDirectory string
	HomeDirectory    string
	ConfigHome       string
	StateHome        string
}

func (m *ServiceManager) templateData() serviceData {
	return serviceData{
		Args:             m.args(),
		LogPath:          m.logPath,
		WorkingDirectory: filepath.Dir(m.executablePath),
		HomeDirectory:    os.Getenv("HOME"),
		ConfigHome:       xdg.ConfigHome,
		StateHome:        xdg.StateHome,
	}
}

// RenderLaunchd writes the launchd property list.
func (m *ServiceManager) RenderLaunchd(w io.Writer) error {
	return render(w, "plist", launchdPlist, m.templateData())
}

// RenderSystemd writes the systemd user unit.
func (m *ServiceManager) RenderSystemd(w io.Writer) error {
	return render(w, "unit", systemdUnit, m.templateData())
}

func render(w io.Writer, name, text string, data serviceData) error {
	tmpl, err := template.New(name).Funcs(template.FuncMap{"join": strings.Join}).Parse(text)
	if err != nil {
		return fmt.Errorf("failed to parse %s template: %w", name, err)
	}
	if err := tmpl.Execute(w, data); err != nil {
		return fmt.Errorf("failed to write %s: %w", name, err)
	}
	return nil
}

// SetDebug enables debug output.
func (m *ServiceManager) SetDebug(debug bool) {
	m.debug = debug
}

// Install installs the daemon as a system service.
func (m *ServiceManager) Install() error {
	switch runtime.GOOS {
	case "darwin":
		return m.installLaunchd()
	case "linux":
		return m.installSystemd()
	case "windows":
		return fmt.Errorf("service installation is not supported on windows")
	default:
		return fmt.Errorf("unsupported operating system: %s", runtime.GOOS)
	}
}

// Uninstall removes the daemon from system services.
func (m *ServiceManager) Uninstall() error {
	switch runtime.GOOS {
	case "darwin":
		return m.uninstallLaunchd()
	case "linux":
		return m.uninstallSystemd()
	case "windows":
		return fmt.Errorf("service uninstallation is not supported on windows")
	default:
		return fmt.Errorf("unsupported operating system: %s", runtime.GOOS)
	}
}

// IsInstalled checks if the service is installed.
func (m *ServiceManager) IsInstalled() bool {
	switch runtime.GOOS {
	case "darwin":
		return m.isLaunchdInstalled()
	case "linux":
		return m.isSystemdInstalled()
	default:
		return false
	}
}

// macOS launchd support

const launchdPlist = `<?xml version="1.0" encoding="UTF-8"?>
<!DOCTYPE plist PUBLIC "-//Apple//DTD PLIST 1.0//EN" "http://www.apple.com/DTDs/PropertyList-1.0.dtd">
<plist version="1.0">
<dict>
    <key>Label</key>
    <string>com.alarmd.daemon</string>
    <key>ProgramArguments</key>
    <array>
{{- range .Args}}
        <string>{{.}}</string>
{{- end}}
    </array>
    <key>RunAtLoad</key>
    <true/>
    <key>KeepAlive</key>
    <true/>
    <key>StandardOutPath</key>
    <string>{{.LogPath}}</string>
    <key>StandardErrorPath</key>
    <string>{{.LogPath}}</string>
    <key>WorkingDirectory</key>
    <string>{{.WorkingDirectory}}</string>
</dict>
</plist>
`

func (m *ServiceManager) getLaunchdPath() string {
	return filepath.Join(os.Getenv("HOME"), "Library", "LaunchAgents", LaunchdLabel+".plist")
}

func (m *ServiceManager) installLaunchd() error {
	plistPath := m.getLaunchdPath()

	// Ensure directory exists
	if err := os.MkdirAll(filepath.Dir(plistPath), 0755); err != nil {
		return fmt.Errorf("failed to create LaunchAgents directory: %w", err)
	}

	file, err := os.Create(plistPath)
	if err != nil {
		return fmt.Errorf("failed to create plist file: %w", err)
	}
	defer file.Close()

	if err := m.RenderLaunchd(file); err != nil {
		return err
	}

	// Load the service
	cmd := exec.Command("launchctl", "load", plistPath)
	if output, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("failed to load service: %w: %s", err, string(output))
	}

	if m.debug {
		logging.DebugLog("installed launchd service", logging.KeyPath, plistPath)
	}

	return nil
}

func (m *ServiceManager) uninstallLaunchd() error {
	plistPath := m.getLaunchdPath()

	// Unload the service first
	cmd := exec.Command("launchctl", "unload", plistPath)
	cmd.Run() // Ignore error if not loaded

	// Remove the plist file
	if err := os.Remove(plistPath); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove plist file: %w", err)
	}

	if m.debug {
		logging.DebugLog("uninstalled launchd service", logging.KeyPath, plistPath)
	}

	return nil
}

func (m *ServiceManager) isLaunchdInstalled() bool {
	_, err := os.Stat(m.getLaunchdPath())
	return err == nil
}

// Linux systemd support

const systemdUnit = `[Unit]
Description=alarmd briefing alarm daemon
After=network.target

[Service]
Type=simple
ExecStart={{join .Args " "}}
Restart=on-failure
RestartSec=5
StandardOutput=append:{{.LogPath}}
StandardError=append:{{.LogPath}}
Environment="HOME={{.HomeDirectory}}"
Environment="XDG_CONFIG_HOME={{.ConfigHome}}"
Environment="XDG_STATE_HOME={{.StateHome}}"

[Install]
WantedBy=default.target
`

func (m *ServiceManager) getSystemdPath() string {
	return filepath.Join(xdg.ConfigHome, "systemd", "user", SystemdUnit)
}

func (m *ServiceManager) installSystemd() error {
	unitPath := m.getSystemdPath()

	// Ensure directory exists
	if err := os.MkdirAll(filepath.Dir(unitPath), 0755); err != nil {
		return fmt.Errorf("failed to create systemd user directory: %w", err)
	}

	file, err := os.Create(unitPath)
	if err != nil {
		return fmt.Errorf("failed to create unit file: %w", err)
	}
	defer file.Close()

	if err := m.RenderSystemd(file); err != nil {
		return err
	}

	// Reload systemd
	cmd := exec.Command("systemctl", "--user", "daemon-reload")
	if output, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("failed to reload systemd: %w: %s", err, string(output))
	}

	// Enable the service
	cmd = exec.Command("systemctl", "--user", "enable", SystemdUnit)
	if output, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("failed to enable service: %w: %s", err, string(output))
	}

	// Start the service
	cmd = exec.Command("systemctl", "--user", "start", SystemdUnit)
	if output, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("failed to start service: %w: %s", err, string(output))
	}

	if m.debug {
		logging.DebugLog("installed systemd user service", logging.KeyPath, unitPath)
	}

	return nil
}

func (m *ServiceManager) uninstallSystemd() error {
	unitPath := m.getSystemdPath()

	// Stop the service
	cmd := exec.Command("systemctl", "--user", "stop", SystemdUnit)
	cmd.Run() // Ignore error if not running

	// Disable the service
	cmd = exec.Command("systemctl", "--user", "disable", SystemdUnit)
	cmd.Run() // Ignore error if not enabled

	// Remove the unit file
	if err := os.Remove(unitPath); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove unit file: %w", err)
	}

	// Reload systemd
	cmd = exec.Command("systemctl", "--user", "daemon-reload")
	cmd.Run() // Ignore reload errors

	if m.debug {
		logging.DebugLog("uninstalled systemd user service", logging.KeyPath, unitPath)
	}

	return nil
}

func (m *ServiceManager) isSystemdInstalled() bool {
	_, err := os.Stat(m.getSystemdPath())
	return err == nil
}

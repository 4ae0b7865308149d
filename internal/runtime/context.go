// Package runtime holds the per-invocation state shared by alarmd's CLI
// commands: resolved configuration, output formatting and the daemon
// client.
package runtime

import (
	"io"
	"os"
	"time"

	"github.com/spf13/viper"

	"github.com/manav03panchal/alarmd/internal/client"
	"github.com/manav03panchal/alarmd/internal/config"
	"github.com/manav03panchal/alarmd/internal/logging"
	"github.com/manav03panchal/alarmd/internal/output"
)

// Context holds the application runtime context.
type Context struct {
	Config     config.Config
	ConfigPath string
	Formatter  *output.Formatter
	Debug      bool

	// Now is the CLI's clock. Defaults to time.Now.
	Now func() time.Time

	client *client.Client
}

// Options configures the runtime context.
type Options struct {
	// ConfigPath is the --config flag; empty means the default location.
	ConfigPath string
	// Viper carries flag bindings. Defaults to config.New().
	Viper     *viper.Viper
	Format    output.Format
	ColorMode output.ColorMode
	Debug     bool
	Writer    io.Writer
}

// DefaultOptions returns default runtime options.
func DefaultOptions() Options {
	return Options{
		Format:    output.FormatCLI,
		ColorMode: output.ColorAuto,
		Writer:    os.Stdout,
	}
}

// New resolves configuration and builds the formatter.
func New(opts Options) (*Context, error) {
	v := opts.Viper
	if v == nil {
		v = config.New()
	}
	if err := config.ReadFile(v, opts.ConfigPath); err != nil {
		return nil, err
	}
	cfg, err := config.Load(v)
	if err != nil {
		return nil, err
	}

	formatter := output.NewFormatter()
	formatter.Format = opts.Format
	formatter.ColorMode = opts.ColorMode
	if opts.Writer != nil {
		formatter.Writer = opts.Writer
	}

	return &Context{
		Config:     cfg,
		ConfigPath: opts.ConfigPath,
		Formatter:  formatter,
		Debug:      opts.Debug,
		Now:        time.Now,
	}, nil
}

// Client returns the daemon client for the configured server.
func (c *Context) Client() *client.Client {
	if c.client == nil {
		c.client = client.New(c.Config.Server, c.Config.Client.Timeout)
		logging.DebugLog("daemon client ready", "server", logging.MaskURL(c.Config.Server))
	}
	return c.client
}

// CLIFormatter returns a CLI formatter.
func (c *Context) CLIFormatter() *output.CLIFormatter {
	return output.NewCLIFormatter(c.Formatter)
}

// IsJSON returns true if output format is JSON.
func (c *Context) IsJSON() bool {
	return c.Formatter.IsJSON()
}

// IsCLI returns true if output format is CLI.
func (c *Context) IsCLI() bool {
	return c.Formatter.Format == output.FormatCLI
}

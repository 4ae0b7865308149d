// Package config loads alarmd settings.
//
// Values are layered by viper: built-in defaults, then the YAML config
// file, then ALARMD_* environment variables, then bound command-line flags.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/adrg/xdg"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/manav03panchal/alarmd/internal/logging"
)

// AppName names the XDG subdirectories.
const AppName = "alarmd"

// EnvPrefix prefixes every environment override, e.g. ALARMD_LISTEN.
const EnvPrefix = "ALARMD"

// Config keys, shared with cmd for flag binding.
const (
	KeyListen               = "listen"
	KeyServer               = "server"
	KeyEventLog             = "event_log"
	KeyLogLevel             = "log.level"
	KeyLogJSON              = "log.json"
	KeyLogFile              = "log.file"
	KeyLogMaxSizeMB         = "log.max_size_mb"
	KeyLogRotateSchedule    = "log.rotate_schedule"
	KeySchedulerMaxSleep    = "scheduler.max_sleep"
	KeySchedulerCooperative = "scheduler.cooperative"
	KeyAnnounceWebhookURL   = "announce.webhook_url"
	KeyAnnounceCommand      = "announce.command"
	KeyAnnounceTimeout      = "announce.timeout"
	KeyClientTimeout        = "client.timeout"
)

// Config is the resolved configuration.
type Config struct {
	Listen    string          `mapstructure:"listen"`
	Server    string          `mapstructure:"server"`
	EventLog  string          `mapstructure:"event_log"`
	Log       LogConfig       `mapstructure:"log"`
	Scheduler SchedulerConfig `mapstructure:"scheduler"`
	Announce  AnnounceConfig  `mapstructure:"announce"`
	Client    ClientConfig    `mapstructure:"client"`
}

// LogConfig controls the diagnostic log, not the event log.
type LogConfig struct {
	Level          string `mapstructure:"level"`
	JSON           bool   `mapstructure:"json"`
	File           string `mapstructure:"file"`
	MaxSizeMB      int    `mapstructure:"max_size_mb"`
	RotateSchedule string `mapstructure:"rotate_schedule"` // cron spec
}

// SchedulerConfig tunes the timer loop.
type SchedulerConfig struct {
	MaxSleep    time.Duration `mapstructure:"max_sleep"`
	Cooperative bool          `mapstructure:"cooperative"` // fire from HTTP requests instead of a background loop
}

// AnnounceConfig selects where fired alarms go. Both may be set.
type AnnounceConfig struct {
	WebhookURL string        `mapstructure:"webhook_url"`
	Command    string        `mapstructure:"command"`
	Timeout    time.Duration `mapstructure:"timeout"`
}

// ClientConfig is used by CLI commands talking to the daemon.
type ClientConfig struct {
	Timeout time.Duration `mapstructure:"timeout"`
}

// StateDir holds the event log, pid file and diagnostic log.
func StateDir() string {
	return filepath.Join(xdg.StateHome, AppName)
}

// DefaultConfigPath is where the config file is looked up when --config is
// not given.
func DefaultConfigPath() string {
	return filepath.Join(xdg.ConfigHome, AppName, "config.yaml")
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Listen:   "127.0.0.1:8642",
		Server:   "http://127.0.0.1:8642",
		EventLog: filepath.Join(StateDir(), "events.log"),
		Log: LogConfig{
			Level:          "info",
			File:           filepath.Join(StateDir(), "alarmd.log"),
			MaxSizeMB:      10,
			RotateSchedule: "@hourly",
		},
		Scheduler: SchedulerConfig{
			MaxSleep: 60 * time.Second,
		},
		Announce: AnnounceConfig{
			Timeout: 30 * time.Second,
		},
		Client: ClientConfig{
			Timeout: 10 * time.Second,
		},
	}
}

// SetDefaults registers every key on v so env overrides and Unmarshal see
// the full key set.
func SetDefaults(v *viper.Viper) {
	for key, value := range Default().settings() {
		v.SetDefault(key, value)
	}
}

// New returns a viper instance with defaults and environment binding.
func New() *viper.Viper {
	v := viper.New()
	SetDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

// ReadFile merges the YAML file at path into v. An empty path means the
// default location, which may be absent.
func ReadFile(v *viper.Viper, path string) error {
	explicit := path != ""
	if !explicit {
		path = DefaultConfigPath()
		if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
			return nil
		}
	}
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	if err := v.ReadInConfig(); err != nil {
		return fmt.Errorf("read config %s: %w", path, err)
	}
	logging.DebugLog("config file loaded", logging.KeyPath, path)
	return nil
}

// Load resolves v into a validated Config.
func Load(v *viper.Viper) (Config, error) {
	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return Config{}, fmt.Errorf("decode config: %w", err)
	}
	if err := c.Validate(); err != nil {
		return Config{}, err
	}
	return c, nil
}

// Validate reports the first unusable setting.
func (c Config) Validate() error {
	switch {
	case strings.TrimSpace(c.Listen) == "":
		return fmt.Errorf("%s must not be empty", KeyListen)
	case strings.TrimSpace(c.EventLog) == "":
		return fmt.Errorf("%s must not be empty", KeyEventLog)
	case c.Scheduler.MaxSleep <= 0:
		return fmt.Errorf("%s must be positive", KeySchedulerMaxSleep)
	case c.Announce.Timeout <= 0:
		return fmt.Errorf("%s must be positive", KeyAnnounceTimeout)
	case c.Client.Timeout <= 0:
		return fmt.Errorf("%s must be positive", KeyClientTimeout)
	case c.Log.MaxSizeMB < 0:
		return fmt.Errorf("%s must not be negative", KeyLogMaxSizeMB)
	}
	if _, err := logging.ParseLevel(c.Log.Level); err != nil {
		return fmt.Errorf("%s: %w", KeyLogLevel, err)
	}
	if c.Server != "" {
		if u, err := url.Parse(c.Server); err != nil || u.Scheme == "" || u.Host == "" {
			return fmt.Errorf("%s must be an absolute URL, got %q", KeyServer, c.Server)
		}
	}
	if c.Announce.WebhookURL != "" {
		if u, err := url.Parse(c.Announce.WebhookURL); err != nil || (u.Scheme != "http" && u.Scheme != "https") {
			return fmt.Errorf("%s must be an http(s) URL", KeyAnnounceWebhookURL)
		}
	}
	return nil
}

// settings flattens c into dotted viper keys.
func (c Config) settings() map[string]any {
	return map[string]any{
		KeyListen:               c.Listen,
		KeyServer:               c.Server,
		KeyEventLog:             c.EventLog,
		KeyLogLevel:             c.Log.Level,
		KeyLogJSON:              c.Log.JSON,
		KeyLogFile:              c.Log.File,
		KeyLogMaxSizeMB:         c.Log.MaxSizeMB,
		KeyLogRotateSchedule:    c.Log.RotateSchedule,
		KeySchedulerMaxSleep:    c.Scheduler.MaxSleep,
		KeySchedulerCooperative: c.Scheduler.Cooperative,
		KeyAnnounceWebhookURL:   c.Announce.WebhookURL,
		KeyAnnounceCommand:      c.Announce.Command,
		KeyAnnounceTimeout:      c.Announce.Timeout,
		KeyClientTimeout:        c.Client.Timeout,
	}
}

// Document nests the settings the way the YAML file lays them out, with
// durations as strings ("60s") rather than nanosecond integers.
func (c Config) Document() map[string]any {
	doc := make(map[string]any)
	for key, value := range c.settings() {
		if d, ok := value.(time.Duration); ok {
			value = d.String()
		}
		section, leaf, nested := strings.Cut(key, ".")
		if !nested {
			doc[key] = value
			continue
		}
		m, _ := doc[section].(map[string]any)
		if m == nil {
			m = make(map[string]any)
			doc[section] = m
		}
		m[leaf] = value
	}
	return doc
}

// Marshal renders c as YAML.
func (c Config) Marshal() ([]byte, error) {
	return yaml.Marshal(c.Document())
}

// Write saves c as YAML at path, creating parent directories.
func Write(path string, c Config) error {
	data, err := c.Marshal()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

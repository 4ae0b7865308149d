package cmd

import (
	"bytes"
	"encoding/json"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/manav03panchal/alarmd/internal/alarm"
	apperrors "github.com/manav03panchal/alarmd/internal/errors"
	"github.com/manav03panchal/alarmd/internal/output"
	"github.com/manav03panchal/alarmd/internal/scheduler"
	"github.com/manav03panchal/alarmd/internal/server"
)

type result struct {
	stdout string
	stderr string
	err    error
}

func resetFlags(c *cobra.Command) {
	reset := func(f *pflag.Flag) {
		f.Value.Set(f.DefValue)
		f.Changed = false
	}
	c.Flags().VisitAll(reset)
	c.PersistentFlags().VisitAll(reset)
	for _, sub := range c.Commands() {
		resetFlags(sub)
	}
}

// run executes the CLI with an empty config file and colours off.
func run(t *testing.T, stdin string, args ...string) result {
	t.Helper()
	resetFlags(rootCmd)
	ctx = nil

	cfgPath := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(cfgPath, []byte("{}\n"), 0o644))

	var stdout, stderr bytes.Buffer
	rootCmd.SetOut(&stdout)
	rootCmd.SetErr(&stderr)
	rootCmd.SetIn(strings.NewReader(stdin))
	rootCmd.SetArgs(append([]string{"--config", cfgPath, "--color", "never"}, args...))
	err := rootCmd.Execute()
	return result{stdout: stdout.String(), stderr: stderr.String(), err: err}
}

// startDaemon serves a real alarm service whose timers never run.
func startDaemon(t *testing.T) (*alarm.Service, string) {
	t.Helper()
	svc := alarm.NewService(alarm.Config{Timers: scheduler.New(scheduler.Options{})})
	ts := httptest.NewServer(server.New(server.Config{Alarms: svc}).Handler())
	t.Cleanup(ts.Close)
	return svc, ts.URL
}

func withInteractive(t *testing.T, interactive bool) {
	t.Helper()
	prev := isInteractive
	isInteractive = func() bool { return interactive }
	t.Cleanup(func() { isInteractive = prev })
}

// =============================================================================
// Offline Command Tests
// =============================================================================

func TestVersion(t *testing.T) {
	res := run(t, "", "version")
	require.NoError(t, res.err)
	assert.Contains(t, res.stdout, "alarmd dev")
}

func TestCheck(t *testing.T) {
	t.Run("future", func(t *testing.T) {
		res := run(t, "", "check", "2099-01-01T07:30")
		require.NoError(t, res.err)
		assert.Contains(t, res.stdout, "Date: 01/01/2099   Time: 07:30")
		assert.Contains(t, res.stdout, "In the future")
	})

	t.Run("past", func(t *testing.T) {
		res := run(t, "", "check", "2001-01-01T07:30")
		require.NoError(t, res.err)
		assert.Contains(t, res.stdout, "Not in the future")
	})

	t.Run("malformed", func(t *testing.T) {
		res := run(t, "", "check", "tomorrow")
		require.Error(t, res.err)
		assert.Equal(t, apperrors.CategoryUser, apperrors.Classify(res.err))
	})

	t.Run("json", func(t *testing.T) {
		res := run(t, "", "check", "2099-02-30T07:30", "--format", "json")
		require.NoError(t, res.err)
		var out output.CheckOutput
		require.NoError(t, json.Unmarshal([]byte(res.stdout), &out))
		assert.True(t, out.Valid)
		assert.Equal(t, "unrepresentable", out.Outcome)
	})
}

func TestReplay(t *testing.T) {
	path := filepath.Join(t.TempDir(), "events.log")
	log := strings.Join([]string{
		"2090-01-01T10:00:00Z Set alarm&2099-01-01T07:30&wake",
		"2090-01-01T10:01:00Z Set alarm&2001-01-01T07:30&lapsed",
		"2090-01-01T10:02:00Z Set alarm&2099-01-02T07:30&gone",
		"2090-01-01T10:03:00Z Alarm cancel&2099-01-02T07:30&gone",
	}, "\n")
	require.NoError(t, os.WriteFile(path, []byte(log), 0o644))

	res := run(t, "", "replay", path)
	require.NoError(t, res.err)
	assert.Contains(t, res.stdout, "ON RESTART")
	assert.Contains(t, res.stdout, "wake")
	assert.NotContains(t, res.stdout, "gone")
	assert.Contains(t, res.stdout, "Restored 1 alarm(s) (1 lapsed, 1 cancelled)")

	// Replay only reads.
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, log, string(data))

	res = run(t, "", "replay", path, "--format", "json")
	require.NoError(t, res.err)
	var resp output.ReplayResponse
	require.NoError(t, json.Unmarshal([]byte(res.stdout), &resp))
	require.NotNil(t, resp.Restore)
	assert.Equal(t, 1, resp.Restore.Restored)
	assert.Len(t, resp.Entries, 2)
}

func TestReplayMissingLog(t *testing.T) {
	res := run(t, "", "replay", filepath.Join(t.TempDir(), "none.log"))
	require.NoError(t, res.err)
	assert.Contains(t, res.stdout, "Nothing would be restored.")
}

func TestConfigCommands(t *testing.T) {
	path := filepath.Join(t.TempDir(), "alarmd", "config.yaml")

	resetFlags(rootCmd)
	rootCmd.SetOut(new(bytes.Buffer))
	rootCmd.SetArgs([]string{"config", "init", "--config", path})
	require.NoError(t, rootCmd.Execute())
	_, err := os.Stat(path)
	require.NoError(t, err)

	resetFlags(rootCmd)
	rootCmd.SetArgs([]string{"config", "init", "--config", path})
	err = rootCmd.Execute()
	require.Error(t, err)
	assert.Equal(t, apperrors.CategoryUser, apperrors.Classify(err))

	var out bytes.Buffer
	resetFlags(rootCmd)
	rootCmd.SetOut(&out)
	rootCmd.SetArgs([]string{"config", "show", "--config", path})
	require.NoError(t, rootCmd.Execute())
	assert.Contains(t, out.String(), "listen: 127.0.0.1:8642")
	assert.Contains(t, out.String(), "max_sleep: 1m0s")

	out.Reset()
	resetFlags(rootCmd)
	rootCmd.SetArgs([]string{"config", "path", "--config", path})
	require.NoError(t, rootCmd.Execute())
	assert.Equal(t, path+"\n", out.String())
}

// =============================================================================
// Daemon Client Command Tests
// =============================================================================

func TestSetListCancel(t *testing.T) {
	svc, url := startDaemon(t)
	withInteractive(t, false)

	res := run(t, "", "--server", url, "set", "2099-01-01T07:30", "wake", "up", "--news")
	require.NoError(t, res.err)
	assert.Contains(t, res.stdout, "✓ Alarm set: Date: 01/01/2099   Time: 07:30")
	assert.Contains(t, res.stdout, "wake up")

	res = run(t, "", "--server", url, "set", "2099-01-01T07:30", "again")
	require.NoError(t, res.err)
	assert.Contains(t, res.stdout, "already set")
	require.Equal(t, 1, svc.Len())

	res = run(t, "", "--server", url, "set", "2001-01-01T07:30")
	require.NoError(t, res.err)
	assert.Contains(t, res.stdout, "not in the future")

	res = run(t, "", "--server", url, "list")
	require.NoError(t, res.err)
	assert.Contains(t, res.stdout, "wake up")
	assert.Contains(t, res.stdout, "1 alarm(s)")

	res = run(t, "", "--server", url, "list", "--format", "json")
	require.NoError(t, res.err)
	var listed output.AlarmsResponse
	require.NoError(t, json.Unmarshal([]byte(res.stdout), &listed))
	require.Equal(t, 1, listed.Count)
	assert.Equal(t, []string{"news"}, listed.Alarms[0].Sections)

	res = run(t, "", "--server", url, "cancel", "wake", "up")
	require.NoError(t, res.err)
	assert.Contains(t, res.stdout, "Alarm cancelled")
	assert.Zero(t, svc.Len())

	res = run(t, "", "--server", url, "cancel", "wake", "up")
	require.Error(t, res.err)
	assert.ErrorIs(t, res.err, apperrors.ErrAlarmNotFound)
}

func TestSetRejectsBadLabel(t *testing.T) {
	_, url := startDaemon(t)
	res := run(t, "", "--server", url, "set", "2099-01-01T07:30", "tea&biscuits")
	require.Error(t, res.err)
	assert.Equal(t, apperrors.CategoryUser, apperrors.Classify(res.err))
}

func TestCancelAt(t *testing.T) {
	svc, url := startDaemon(t)
	withInteractive(t, false)

	require.NoError(t, run(t, "", "--server", url, "set", "2099-01-01T07:30").err)
	res := run(t, "", "--server", url, "cancel", "--at", "2099-01-01T07:30", "--format", "json")
	require.NoError(t, res.err)

	var resp output.CancelResponse
	require.NoError(t, json.Unmarshal([]byte(res.stdout), &resp))
	assert.Equal(t, "cancelled", resp.Status)
	assert.Equal(t, "2099-01-01T07:30", resp.Alarm.TimeSpec)
	assert.Zero(t, svc.Len())
}

func TestCancelNeedsTarget(t *testing.T) {
	res := run(t, "", "cancel")
	require.Error(t, res.err)
	assert.Equal(t, apperrors.CategoryUser, apperrors.Classify(res.err))
}

func TestCancelConfirmation(t *testing.T) {
	svc, url := startDaemon(t)
	withInteractive(t, true)
	require.NoError(t, run(t, "", "--server", url, "set", "2099-01-01T07:30", "wake").err)

	res := run(t, "n\n", "--server", url, "cancel", "wake")
	require.NoError(t, res.err)
	assert.Contains(t, res.stdout, "[y/N]")
	assert.Contains(t, res.stdout, "Nothing cancelled.")
	assert.Equal(t, 1, svc.Len())

	res = run(t, "y\n", "--server", url, "cancel", "wake")
	require.NoError(t, res.err)
	assert.Contains(t, res.stdout, "Alarm cancelled")
	assert.Zero(t, svc.Len())
}

func TestDaemonUnreachable(t *testing.T) {
	res := run(t, "", "--server", "http://127.0.0.1:1", "list")
	require.Error(t, res.err)
	assert.ErrorIs(t, res.err, apperrors.ErrDaemonUnreachable)
}

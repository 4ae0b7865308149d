package output

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/manav03panchal/alarmd/internal/alarm"
	"github.com/manav03panchal/alarmd/internal/model"
)

// Styles for CLI output.
var (
	colorPrimary = lipgloss.Color("#7C3AED") // Purple
	colorMuted   = lipgloss.Color("#6B7280") // Gray
	colorWarning = lipgloss.Color("#F59E0B") // Yellow
	colorError   = lipgloss.Color("#EF4444") // Red
	colorSuccess = lipgloss.Color("#10B981") // Green

	styleTitle = lipgloss.NewStyle().
			Bold(true).
			Foreground(colorPrimary)

	styleSuccess = lipgloss.NewStyle().
			Foreground(colorSuccess)

	styleWarning = lipgloss.NewStyle().
			Foreground(colorWarning)

	styleError = lipgloss.NewStyle().
			Foreground(colorError)

	styleMuted = lipgloss.NewStyle().
			Foreground(colorMuted)

	styleBold = lipgloss.NewStyle().
			Bold(true)

	styleLabel = lipgloss.NewStyle().
			Bold(true).
			Foreground(colorPrimary)

	styleDuration = lipgloss.NewStyle().
			Bold(true)
)

// CLIFormatter provides CLI-specific formatting.
type CLIFormatter struct {
	*Formatter
}

// NewCLIFormatter creates a new CLI formatter.
func NewCLIFormatter(f *Formatter) *CLIFormatter {
	return &CLIFormatter{Formatter: f}
}

func (c *CLIFormatter) render(style lipgloss.Style, text string) string {
	if c.IsColorEnabled() {
		return style.Render(text)
	}
	return text
}

// Title prints a title.
func (c *CLIFormatter) Title(text string) {
	c.Println(c.render(styleTitle, text))
}

// Success prints a success message.
func (c *CLIFormatter) Success(text string) {
	c.Println(c.render(styleSuccess, "✓ "+text))
}

// Warning prints a warning message.
func (c *CLIFormatter) Warning(text string) {
	c.Println(c.render(styleWarning, "⚠ "+text))
}

// Error prints an error message.
func (c *CLIFormatter) Error(text string) {
	c.Println(c.render(styleError, "✗ "+text))
}

// Muted prints muted text.
func (c *CLIFormatter) Muted(text string) {
	c.Println(c.render(styleMuted, text))
}

// Label formats an alarm label. Empty labels show as "(no label)".
func (c *CLIFormatter) Label(label string) string {
	if label == "" {
		return c.render(styleMuted, "(no label)")
	}
	return c.render(styleLabel, label)
}

// Duration formats a duration.
func (c *CLIFormatter) Duration(d time.Duration) string {
	return c.render(styleDuration, FormatDuration(d))
}

// PrintSetResult prints the outcome of an alarm submission.
func (c *CLIFormatter) PrintSetResult(res alarm.Result, now time.Time) {
	switch res.Status {
	case alarm.StatusScheduled:
		c.Success("Alarm set: " + res.Alarm.Title)
		c.printAlarmDetails(res.Alarm, now)
	case alarm.StatusDuplicate:
		c.Warning("An alarm is already set for " + res.Alarm.Title)
		c.Printf("  Label: %s\n", c.Label(res.Alarm.Label))
	case alarm.StatusPast:
		c.Warning("That time is not in the future. Nothing was scheduled.")
	case alarm.StatusUnrepresentable:
		c.Warning("That time is not a real calendar date. Nothing was scheduled.")
	default:
		c.Error("Alarm rejected: " + string(res.Status))
	}
}

func (c *CLIFormatter) printAlarmDetails(a *model.Alarm, now time.Time) {
	c.Printf("  Label: %s\n", c.Label(a.Label))
	if sections := a.Sections(); len(sections) > 0 {
		c.Printf("  Briefing: %s\n", strings.Join(sections, ", "))
	}
	c.Printf("  Due: %s (in %s)\n", FormatTimeShort(a.Due), c.Duration(a.TimeUntil(now)))
}

// PrintCancelled prints a cancellation confirmation.
func (c *CLIFormatter) PrintCancelled(a *model.Alarm) {
	c.Success("Alarm cancelled: " + a.Title)
	c.Printf("  Label: %s\n", c.Label(a.Label))
}

// PrintAlarms prints pending alarms as a table in insertion order.
func (c *CLIFormatter) PrintAlarms(alarms []model.Alarm, now time.Time) {
	if len(alarms) == 0 {
		c.Muted("No alarms set.")
		c.Muted("Use 'alarmd set <when> [label]' to add one.")
		return
	}

	rows := make([]TableRow, 0, len(alarms))
	for i := range alarms {
		a := &alarms[i]
		label := a.Label
		if label == "" {
			label = "-"
		}
		briefing := strings.Join(a.Sections(), "+")
		if briefing == "" {
			briefing = "-"
		}
		rows = append(rows, TableRow{Columns: []string{
			a.TimeSpec,
			label,
			briefing,
			FormatDuration(a.TimeUntil(now)),
			a.ShortHandle(),
		}})
	}
	c.PrintTable([]string{"WHEN", "LABEL", "BRIEFING", "IN", "HANDLE"}, rows)
	c.Muted(fmt.Sprintf("%d alarm(s)", len(alarms)))
}

// PrintCheck prints what Set would do with a time spec.
func (c *CLIFormatter) PrintCheck(out *CheckOutput) {
	if !out.Valid {
		c.Error(fmt.Sprintf("%q is malformed: %s", out.TimeSpec, out.Error))
		return
	}
	c.Title(out.Title)
	switch out.Outcome {
	case "future":
		c.Success(fmt.Sprintf("In the future (%s from now, %.0f seconds)",
			FormatDuration(time.Duration(out.DelaySeconds*float64(time.Second))), out.DelaySeconds))
	case "past":
		c.Warning("Not in the future; Set would schedule nothing")
	default:
		c.Warning("Not a calendar date; Set would schedule nothing")
	}
}

// PrintReplay prints what a restart would restore from an event log.
func (c *CLIFormatter) PrintReplay(out *ReplayResponse) {
	c.Title("Event log: " + out.Path)
	c.Muted(fmt.Sprintf("%d line(s), %d ignored, %d unreadable", out.Lines, out.Ignored, out.Skipped))
	if len(out.Entries) == 0 {
		c.Muted("Nothing would be restored.")
		return
	}
	rows := make([]TableRow, 0, len(out.Entries))
	for _, e := range out.Entries {
		label := e.Label
		if label == "" {
			label = "-"
		}
		rows = append(rows, TableRow{Columns: []string{e.TimeSpec, label, e.Outcome}})
	}
	c.PrintTable([]string{"WHEN", "LABEL", "ON RESTART"}, rows)
}

// PrintRestoreReport summarises a restore run.
func (c *CLIFormatter) PrintRestoreReport(r alarm.RestoreReport) {
	c.Printf("Restored %d alarm(s)", r.Restored)
	var extra []string
	if r.Lapsed > 0 {
		extra = append(extra, fmt.Sprintf("%d lapsed", r.Lapsed))
	}
	if r.Cancelled > 0 {
		extra = append(extra, fmt.Sprintf("%d cancelled", r.Cancelled))
	}
	if r.Duplicates > 0 {
		extra = append(extra, fmt.Sprintf("%d duplicate", r.Duplicates))
	}
	if r.Unrepresentable+r.Skipped > 0 {
		extra = append(extra, fmt.Sprintf("%d unusable", r.Unrepresentable+r.Skipped))
	}
	if len(extra) > 0 {
		c.Printf(" (%s)", strings.Join(extra, ", "))
	}
	c.Println()
}

// TableRow is one row for PrintTable.
type TableRow struct {
	Columns []string
}

// PrintTable prints a simple table.
func (c *CLIFormatter) PrintTable(headers []string, rows []TableRow) {
	if len(rows) == 0 {
		return
	}

	widths := make([]int, len(headers))
	for i, h := range headers {
		widths[i] = lipgloss.Width(h)
	}
	for _, row := range rows {
		for i, col := range row.Columns {
			if i < len(widths) && lipgloss.Width(col) > widths[i] {
				widths[i] = lipgloss.Width(col)
			}
		}
	}

	var headerLine strings.Builder
	for i, h := range headers {
		headerLine.WriteString(pad(h, widths[i]) + "  ")
	}
	c.Println(c.render(styleBold, strings.TrimRight(headerLine.String(), " ")))

	var sep strings.Builder
	for _, w := range widths {
		sep.WriteString(strings.Repeat("─", w) + "  ")
	}
	c.Println(strings.TrimRight(sep.String(), " "))

	for _, row := range rows {
		var line strings.Builder
		for i, col := range row.Columns {
			if i < len(widths) {
				line.WriteString(pad(col, widths[i]) + "  ")
			}
		}
		c.Println(strings.TrimRight(line.String(), " "))
	}
}

// pad right-pads s to w display cells.
func pad(s string, w int) string {
	if n := lipgloss.Width(s); n < w {
		return s + strings.Repeat(" ", w-n)
	}
	return s
}

package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/manav03panchal/alarmd/internal/model"
	"github.com/manav03panchal/alarmd/internal/output"
)

// NextComponent shows a countdown to the earliest pending alarm.
type NextComponent struct {
	Alarm *model.Alarm
	Now   time.Time
	Width int
}

// Progress is how much of the wait since the alarm was set has elapsed, in
// percent. Alarms without a creation time report 0.
func (c *NextComponent) Progress() float64 {
	if c.Alarm == nil || c.Alarm.CreatedAt.IsZero() {
		return 0
	}
	total := c.Alarm.Due.Sub(c.Alarm.CreatedAt)
	if total <= 0 {
		return 100
	}
	return 100 * float64(c.Now.Sub(c.Alarm.CreatedAt)) / float64(total)
}

// View renders the component.
func (c *NextComponent) View() string {
	var content strings.Builder

	if c.Alarm == nil {
		content.WriteString(StyleSubtitle.Render("No alarms pending"))
		content.WriteString("\n\n")
		content.WriteString(StyleSubtitle.Render("Use 'alarmd set <when> [label]' to add one"))
		return StyleIdleBox.Width(c.Width - 4).Render(content.String())
	}

	a := c.Alarm
	content.WriteString(StyleSubtitle.Render("NEXT ALARM"))
	content.WriteString("\n\n")
	content.WriteString(labelOrPlaceholder(a.Label))
	if sections := a.Sections(); len(sections) > 0 {
		content.WriteString("  ")
		content.WriteString(StyleSections.Render(strings.Join(sections, " + ")))
	}
	content.WriteString("\n\n")
	content.WriteString(StyleCountdown.Render(output.FormatDuration(a.TimeUntil(c.Now))))
	content.WriteString("\n")

	barWidth := c.Width - 12
	if barWidth < 10 {
		barWidth = 10
	}
	content.WriteString(ProgressBar(c.Progress(), barWidth))
	content.WriteString("\n\n")
	content.WriteString(StyleSubtitle.Render(a.Title))

	return StyleNextBox.Width(c.Width - 4).Render(content.String())
}

// ListComponent shows every pending alarm in insertion order.
type ListComponent struct {
	Alarms []model.Alarm
	Now    time.Time
	Width  int
}

// View renders the component.
func (c *ListComponent) View() string {
	var content strings.Builder
	content.WriteString(StyleTitle.Render(fmt.Sprintf("Pending (%d)", len(c.Alarms))))
	content.WriteString("\n")

	if len(c.Alarms) == 0 {
		content.WriteString(StyleSubtitle.Render("Nothing scheduled"))
	}
	for i := range c.Alarms {
		a := &c.Alarms[i]
		if i > 0 {
			content.WriteString("\n")
		}
		content.WriteString(a.TimeSpec)
		content.WriteString("  ")
		content.WriteString(labelOrPlaceholder(a.Label))
		content.WriteString("  ")
		content.WriteString(StyleCountdown.Render(output.FormatDuration(a.TimeUntil(c.Now))))
	}

	return StyleListBox.Width(c.Width - 4).Render(content.String())
}

func labelOrPlaceholder(label string) string {
	if label == "" {
		return StyleSubtitle.Render("(no label)")
	}
	return StyleLabel.Render(label)
}

// HelpBar renders the key bindings.
func HelpBar() string {
	keys := []struct {
		key  string
		desc string
	}{
		{"r", "refresh"},
		{"q", "quit"},
	}

	var parts []string
	for _, k := range keys {
		parts = append(parts, StyleHelpKey.Render(k.key)+" "+StyleHelpDesc.Render(k.desc))
	}
	return StyleHelp.Render(strings.Join(parts, "  •  "))
}

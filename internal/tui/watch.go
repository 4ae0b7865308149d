package tui

import (
	"context"
	"fmt"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/manav03panchal/alarmd/internal/model"
)

// Source lists the pending alarms. *client.Client implements it.
type Source interface {
	List(ctx context.Context) ([]model.Alarm, error)
}

// tickMsg redraws the countdown.
type tickMsg time.Time

// alarmsMsg carries a fresh listing.
type alarmsMsg struct {
	alarms []model.Alarm
}

// errMsg is sent when a listing fails.
type errMsg struct {
	err error
}

// WatchConfig holds configuration for the watch view.
type WatchConfig struct {
	Source Source

	// TickInterval redraws the countdown; PollInterval refetches the list.
	TickInterval time.Duration
	PollInterval time.Duration

	// Now defaults to time.Now.
	Now func() time.Time
}

// WatchModel is the bubbletea model behind 'alarmd watch'.
type WatchModel struct {
	source       Source
	now          func() time.Time
	tickInterval time.Duration
	pollInterval time.Duration

	alarms   []model.Alarm
	lastPoll time.Time
	width    int
	err      error
	message  string
}

// NewWatchModel creates the watch model.
func NewWatchModel(config WatchConfig) *WatchModel {
	if config.TickInterval <= 0 {
		config.TickInterval = time.Second
	}
	if config.PollInterval <= 0 {
		config.PollInterval = 5 * time.Second
	}
	if config.Now == nil {
		config.Now = time.Now
	}
	return &WatchModel{
		source:       config.Source,
		now:          config.Now,
		tickInterval: config.TickInterval,
		pollInterval: config.PollInterval,
	}
}

// Init fetches the first listing and starts the clock.
func (m *WatchModel) Init() tea.Cmd {
	return tea.Batch(m.tickCmd(), m.fetchCmd())
}

// Update handles messages and updates the model.
func (m *WatchModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			return m, tea.Quit
		case "r":
			m.message = "Refreshing..."
			return m, m.fetchCmd()
		}
		return m, nil

	case tea.WindowSizeMsg:
		m.width = msg.Width
		return m, nil

	case tickMsg:
		cmds := []tea.Cmd{m.tickCmd()}
		if m.now().Sub(m.lastPoll) >= m.pollInterval {
			cmds = append(cmds, m.fetchCmd())
		}
		return m, tea.Batch(cmds...)

	case alarmsMsg:
		m.alarms = msg.alarms
		m.err = nil
		m.message = ""
		return m, nil

	case errMsg:
		m.err = msg.err
		m.message = ""
		return m, nil
	}
	return m, nil
}

// Next returns the pending alarm due soonest.
func (m *WatchModel) Next() *model.Alarm {
	var next *model.Alarm
	for i := range m.alarms {
		if next == nil || m.alarms[i].Due.Before(next.Due) {
			next = &m.alarms[i]
		}
	}
	return next
}

// View renders the watch screen.
func (m *WatchModel) View() string {
	if m.width == 0 {
		return "Loading..."
	}
	now := m.now()

	sections := []string{m.renderHeader(now)}
	if m.err != nil {
		sections = append(sections, StyleError.Render(fmt.Sprintf("Error: %v", m.err)))
	}
	if m.message != "" {
		sections = append(sections, StyleWarning.Render(m.message))
	}

	next := &NextComponent{Alarm: m.Next(), Now: now, Width: m.width}
	list := &ListComponent{Alarms: m.alarms, Now: now, Width: m.width}
	sections = append(sections, next.View(), list.View(), HelpBar())

	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

func (m *WatchModel) renderHeader(now time.Time) string {
	title := StyleTitle.Render("alarmd")
	clock := StyleSubtitle.Render(now.Format("Mon Jan 2, 15:04:05"))
	return lipgloss.JoinHorizontal(lipgloss.Top, title, "  ", clock) + "\n"
}

func (m *WatchModel) tickCmd() tea.Cmd {
	return tea.Tick(m.tickInterval, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func (m *WatchModel) fetchCmd() tea.Cmd {
	m.lastPoll = m.now()
	source := m.source
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		alarms, err := source.List(ctx)
		if err != nil {
			return errMsg{err: err}
		}
		return alarmsMsg{alarms: alarms}
	}
}

// RunWatch starts the watch TUI and blocks until the user quits.
func RunWatch(config WatchConfig) error {
	p := tea.NewProgram(NewWatchModel(config), tea.WithAltScreen())
	_, err := p.Run()
	return err
}

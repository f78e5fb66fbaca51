package ui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/muurk/froeling/internal/boiler"
)

// FetchFunc reads the values shown by the watch dashboard
type FetchFunc func() (*boiler.Values, error)

type watchKeyMap struct {
	Refresh key.Binding
	Quit    key.Binding
}

// ShortHelp implements help.KeyMap
func (k watchKeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Refresh, k.Quit}
}

// FullHelp implements help.KeyMap
func (k watchKeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{k.ShortHelp()}
}

// valuesMsg carries the outcome of one fetch
type valuesMsg struct {
	values *boiler.Values
	err    error
	at     time.Time
}

// tickMsg asks for the next scheduled fetch
type tickMsg time.Time

// WatchModel is a dashboard that polls boiler values at a fixed interval.
// At most one fetch runs at a time.
type WatchModel struct {
	fetch    FetchFunc
	interval time.Duration
	source   string

	spinner spinner.Model
	help    help.Model
	keys    watchKeyMap

	readings []boiler.Reading
	err      error
	fetching bool
	updated  time.Time
	width    int
}

// NewWatchModel creates the dashboard. source names where values come from
// (a TTY or relay address) and is shown in the title.
func NewWatchModel(fetch FetchFunc, interval time.Duration, source string) WatchModel {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(PrimaryColor)

	return WatchModel{
		fetch:    fetch,
		interval: interval,
		source:   source,
		spinner:  s,
		help:     help.New(),
		keys: watchKeyMap{
			Refresh: key.NewBinding(
				key.WithKeys("r"),
				key.WithHelp("r", "refresh"),
			),
			Quit: key.NewBinding(
				key.WithKeys("q", "ctrl+c", "esc"),
				key.WithHelp("q", "quit"),
			),
		},
		fetching: true,
		width:    GetTerminalWidth(),
	}
}

// Init starts the first fetch
func (m WatchModel) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.fetchCmd())
}

func (m WatchModel) fetchCmd() tea.Cmd {
	fetch := m.fetch
	return func() tea.Msg {
		values, err := fetch()
		return valuesMsg{values: values, err: err, at: time.Now()}
	}
}

func (m WatchModel) tickCmd() tea.Cmd {
	return tea.Tick(m.interval, func(t time.Time) tea.Msg { return tickMsg(t) })
}

// Update implements tea.Model
func (m WatchModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keys.Quit):
			return m, tea.Quit
		case key.Matches(msg, m.keys.Refresh):
			return m.startFetch()
		}

	case tea.WindowSizeMsg:
		m.width = clampWidth(msg.Width, nil)
		m.help.Width = msg.Width

	case valuesMsg:
		m.fetching = false
		m.err = msg.err
		if msg.err == nil {
			m.readings = msg.values.Readings
			m.updated = msg.at
		}
		return m, m.tickCmd()

	case tickMsg:
		return m.startFetch()

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}

	return m, nil
}

func (m WatchModel) startFetch() (tea.Model, tea.Cmd) {
	if m.fetching {
		return m, nil
	}
	m.fetching = true
	return m, tea.Batch(m.spinner.Tick, m.fetchCmd())
}

// View implements tea.Model
func (m WatchModel) View() string {
	header := NewHeader("Boiler values", "froeling watch",
		Param{Key: "Source", Value: m.source},
		Param{Key: "Interval", Value: m.interval.String()},
	).SetWidth(m.width).Render()

	var b strings.Builder
	b.WriteString(header)
	b.WriteString("\n\n")

	valueStyle := ResultValueStyle
	if m.err != nil {
		valueStyle = StaleStyle
	}

	labelWidth := 0
	for _, r := range m.readings {
		labelWidth = max(labelWidth, lipgloss.Width(r.Label))
	}
	for _, r := range m.readings {
		label := ResultKeyStyle.Width(labelWidth + 4).Render("  " + r.Label)
		b.WriteString(label + " " + valueStyle.Render(r.Text) + "\n")
	}
	if len(m.readings) > 0 {
		b.WriteString("\n")
	}

	b.WriteString("  " + m.status() + "\n\n")
	b.WriteString(HelpStyle.Render(m.help.View(m.keys)))
	b.WriteString("\n")
	return b.String()
}

func (m WatchModel) status() string {
	switch {
	case m.fetching:
		return m.spinner.View() + " Reading values..."
	case m.err != nil:
		return ErrorMessageStyle.Render(FailureMarker + " " + m.err.Error())
	case !m.updated.IsZero():
		return SuccessTitleStyle.Render(SuccessMarker) + " " +
			ResultKeyStyle.Render(fmt.Sprintf("Updated %s", m.updated.Format("15:04:05")))
	}
	return ""
}

// RunWatch runs the dashboard until the user quits
func RunWatch(fetch FetchFunc, interval time.Duration, source string) error {
	_, err := tea.NewProgram(NewWatchModel(fetch, interval, source)).Run()
	return err
}

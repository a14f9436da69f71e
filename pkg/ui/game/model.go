package game

import (
	"fmt"
	"strings"

	"mudlink/pkg/batch"
	"mudlink/pkg/bus"
	"mudlink/pkg/status"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

const vitalsBarWidth = 20

type busEventMsg struct {
	event bus.Event
	ok    bool
}

type model struct {
	hooks Hooks

	theme     theme
	spinner   spinner.Model
	input     textinput.Model
	viewport  viewport.Model
	lines     []string
	width     int
	height    int
	isReady   bool
	connected bool
	lastErr   string
	followLog bool
	vitals    *status.Status
}

func newModel(hooks Hooks) *model {
	spin := spinner.New()
	spin.Spinner = spinner.Points
	spin.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("222"))

	in := textinput.New()
	in.Prompt = ""
	in.Placeholder = "Type a command..."
	in.Focus()
	in.CharLimit = 0

	vp := viewport.New(80, 16)

	return &model{
		hooks:     hooks,
		theme:     defaultTheme(),
		spinner:   spin,
		input:     in,
		viewport:  vp,
		width:     100,
		height:    28,
		followLog: true,
	}
}

func (m *model) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, waitForEvent(m.hooks.Events), textinput.Blink)
}

func (m *model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch typed := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = typed.Width
		m.height = typed.Height
		m.resizeComponents()
		m.refreshViewport(false)
		m.isReady = true
		return m, nil
	case busEventMsg:
		if !typed.ok {
			// Bus closed: the pipeline is gone, leave the screen up but
			// stop waiting for events.
			m.connected = false
			return m, nil
		}
		m.applyEvent(typed.event)
		return m, waitForEvent(m.hooks.Events)
	case tea.KeyMsg:
		switch typed.String() {
		case "ctrl+c", "esc":
			return m, tea.Quit
		}

		if handled := m.handleViewportKey(typed); handled {
			return m, nil
		}

		if typed.String() == "enter" {
			text := strings.TrimSpace(m.input.Value())
			if text == "" {
				return m, nil
			}
			if isExitCommand(text) {
				return m, tea.Quit
			}

			m.input.SetValue("")
			if m.hooks.Send != nil {
				m.hooks.Send(text)
			}
			return m, nil
		}
	case spinner.TickMsg:
		if m.connected {
			return m, nil
		}
		m.spinner, cmd = m.spinner.Update(typed)
		return m, cmd
	}

	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m *model) View() string {
	if !m.isReady {
		m.resizeComponents()
		m.refreshViewport(false)
	}

	header := m.theme.header.Width(m.width - 2).Render("⚔ mudlink — " + displayOrNA(m.hooks.ServerName))
	meta := m.theme.headerMeta.Render(m.vitalsLine())
	line := m.theme.divider.Width(m.width - 2).Render(strings.Repeat("═", maxInt(8, m.width-2)))

	statusLine := m.theme.status.Render("💡 Enter send  ·  PgUp/PgDn scroll  ·  End jump latest  ·  Ctrl+C/Esc quit")
	if !m.connected {
		statusLine = m.theme.statusBusy.Render(fmt.Sprintf("%s connecting...", m.spinner.View()))
	}
	if m.lastErr != "" {
		statusLine = m.theme.statusErr.Render("🚨 " + m.lastErr)
	}

	return lipgloss.JoinVertical(lipgloss.Left,
		header,
		meta,
		line,
		m.theme.viewport.Width(m.width-2).Render(m.viewport.View()),
		statusLine,
		m.theme.inputLabel.Render("You")+" "+m.theme.hint.Render("(type /exit or :q to leave)"),
		m.theme.input.Width(m.width-2).Render(m.input.View()),
	)
}

// applyEvent folds one pipeline event into the screen state.
func (m *model) applyEvent(event bus.Event) {
	switch event.Type {
	case bus.EventFrameReceived:
		m.connected = true
	case bus.EventBatchReleased:
		units, ok := event.Payload["units"].([]batch.Unit)
		if !ok {
			return
		}
		for _, unit := range units {
			m.lines = append(m.lines, m.renderUnit(unit))
		}
		m.refreshViewport(false)
	case bus.EventStatusChanged:
		if st, ok := event.Payload["status"].(status.Status); ok {
			m.vitals = &st
		}
	case bus.EventErrorReceived:
		m.lastErr = event.Error
	}
}

// renderUnit styles one batched unit as a log line.
func (m *model) renderUnit(unit batch.Unit) string {
	switch unit.Type {
	case batch.UnitChat:
		if channel := unit.Metadata["channel"]; channel != "" {
			return m.theme.chatTag.Render(channel) + " " + m.theme.chatLine.Render(unit.Content)
		}
		return m.theme.chatLine.Render(unit.Content)
	case batch.UnitError:
		return m.theme.errorLine.Render("✖ " + unit.Content)
	case batch.UnitMove:
		return m.theme.moveLine.Render(unit.Content)
	default:
		return m.theme.systemLine.Render(unit.Content)
	}
}

// vitalsLine renders the vitality bar, tier label and combat flags.
func (m *model) vitalsLine() string {
	if m.vitals == nil {
		return "vitals: awaiting first update"
	}

	st := m.vitals
	filled := 0
	if st.Max > 0 {
		filled = int(st.Current / st.Max * vitalsBarWidth)
	}
	filled = minInt(maxInt(filled, 0), vitalsBarWidth)
	bar := strings.Repeat("█", filled) + strings.Repeat("░", vitalsBarWidth-filled)

	style := m.theme.vitalsOK
	switch st.Tier {
	case status.TierWounded:
		style = m.theme.vitalsLow
	case status.TierCritical, status.TierIncapacitated:
		style = m.theme.vitalsDown
	}

	parts := []string{style.Render(fmt.Sprintf("DP %.0f/%.0f [%s] %s", st.Current, st.Max, bar, st.Tier))}
	if st.Posture != "" {
		parts = append(parts, st.Posture)
	}
	if st.InCombat != nil && *st.InCombat {
		parts = append(parts, "⚔ in combat")
	}

	return strings.Join(parts, " · ")
}

func (m *model) resizeComponents() {
	w := m.width - 6
	if w < 50 {
		w = 50
	}
	h := m.height - 9
	if h < 8 {
		h = 8
	}

	m.viewport.Width = w
	m.viewport.Height = h
	m.input.Width = w - 2
}

func (m *model) refreshViewport(forceBottom bool) {
	previousOffset := m.viewport.YOffset
	m.viewport.SetContent(strings.Join(m.lines, "\n"))

	if m.followLog || forceBottom {
		m.viewport.GotoBottom()
		m.followLog = true
		return
	}

	maxOffset := m.viewport.TotalLineCount() - m.viewport.Height
	if maxOffset < 0 {
		maxOffset = 0
	}
	if previousOffset > maxOffset {
		previousOffset = maxOffset
	}
	m.viewport.SetYOffset(previousOffset)
}

func (m *model) handleViewportKey(msg tea.KeyMsg) bool {
	switch msg.String() {
	case "pgup", "ctrl+b", "alt+up", "ctrl+up":
		m.viewport.ViewUp()
		m.followLog = false
		return true
	case "pgdown", "ctrl+f", "alt+down", "ctrl+down":
		m.viewport.ViewDown()
		if m.viewport.AtBottom() {
			m.followLog = true
		}
		return true
	case "home":
		m.viewport.GotoTop()
		m.followLog = false
		return true
	case "end":
		m.viewport.GotoBottom()
		m.followLog = true
		return true
	default:
		return false
	}
}

func waitForEvent(events <-chan bus.Event) tea.Cmd {
	return func() tea.Msg {
		event, ok := <-events
		return busEventMsg{event: event, ok: ok}
	}
}

func isExitCommand(input string) bool {
	switch strings.ToLower(strings.TrimSpace(input)) {
	case "/exit", ":q", "/quit":
		return true
	default:
		return false
	}
}

func displayOrNA(value string) string {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return "unnamed realm"
	}

	return trimmed
}

func maxInt(a int, b int) int {
	if a > b {
		return a
	}

	return b
}

func minInt(a int, b int) int {
	if a < b {
		return a
	}

	return b
}

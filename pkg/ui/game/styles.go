package game

import "github.com/charmbracelet/lipgloss"

// theme groups reusable styles for the game screen regions.
type theme struct {
	header     lipgloss.Style
	headerMeta lipgloss.Style
	divider    lipgloss.Style
	chatLine   lipgloss.Style
	chatTag    lipgloss.Style
	systemLine lipgloss.Style
	errorLine  lipgloss.Style
	moveLine   lipgloss.Style
	vitalsOK   lipgloss.Style
	vitalsLow  lipgloss.Style
	vitalsDown lipgloss.Style
	status     lipgloss.Style
	statusBusy lipgloss.Style
	statusErr  lipgloss.Style
	hint       lipgloss.Style
	inputLabel lipgloss.Style
	input      lipgloss.Style
	viewport   lipgloss.Style
}

// defaultTheme defines the parchment-and-torchlight palette of the game
// screen.
func defaultTheme() theme {
	return theme{
		header: lipgloss.NewStyle().
			Bold(true).
			Padding(0, 1).
			Foreground(lipgloss.Color("230")).
			Background(lipgloss.Color("22")),
		headerMeta: lipgloss.NewStyle().
			Foreground(lipgloss.Color("151")),
		divider: lipgloss.NewStyle().
			Foreground(lipgloss.Color("65")),
		chatLine: lipgloss.NewStyle().
			Foreground(lipgloss.Color("222")),
		chatTag: lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("16")).
			Background(lipgloss.Color("222")).
			Padding(0, 1),
		systemLine: lipgloss.NewStyle().
			Foreground(lipgloss.Color("249")),
		errorLine: lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("203")),
		moveLine: lipgloss.NewStyle().
			Foreground(lipgloss.Color("109")),
		vitalsOK: lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("114")),
		vitalsLow: lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("214")),
		vitalsDown: lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("203")),
		status: lipgloss.NewStyle().
			Foreground(lipgloss.Color("250")).
			Bold(true),
		statusBusy: lipgloss.NewStyle().
			Foreground(lipgloss.Color("222")).
			Bold(true),
		statusErr: lipgloss.NewStyle().
			Foreground(lipgloss.Color("203")).
			Bold(true),
		hint: lipgloss.NewStyle().
			Foreground(lipgloss.Color("244")),
		inputLabel: lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("229")),
		input: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("65")).
			Padding(0, 1),
		viewport: lipgloss.NewStyle().
			Border(lipgloss.ThickBorder()).
			BorderForeground(lipgloss.Color("22")).
			Padding(0, 1),
	}
}

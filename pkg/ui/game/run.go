package game

import (
	"context"

	"mudlink/pkg/bus"

	tea "github.com/charmbracelet/bubbletea"
)

// Hooks connects the screen to the pipeline: an event subscription to read
// from and a command sink to write to.
type Hooks struct {
	ServerName string
	Events     <-chan bus.Event
	Send       func(text string) bool
}

// Run drives the interactive game screen until the player quits or ctx
// ends.
func Run(ctx context.Context, hooks Hooks) error {
	program := tea.NewProgram(newModel(hooks), tea.WithContext(ctx))
	_, err := program.Run()

	return err
}

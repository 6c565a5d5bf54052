// Package tui shows a live view of a running scan.
package tui

import (
	"context"
	"errors"
	"fmt"
	"io"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/beejak/MCP-Sentinel/internal/progress"
)

// ErrInterrupted is returned when the user closes the view before the scan
// finished.
var ErrInterrupted = errors.New("scan view interrupted")

type Options struct {
	// Events is closed by the producer once the scan has returned.
	Events <-chan progress.Event
	Output io.Writer
	// Input enables keyboard handling (q or ctrl+c to stop). Nil disables it.
	Input io.Reader
}

// Run renders the view until Events is closed, the user interrupts, or ctx
// ends. The last frame stays on Output.
func Run(ctx context.Context, opts Options) error {
	if opts.Events == nil {
		return errors.New("tui: events channel is required")
	}
	p := tea.NewProgram(newModel(opts.Events),
		tea.WithContext(ctx),
		tea.WithOutput(opts.Output),
		tea.WithInput(opts.Input),
		tea.WithoutSignalHandler(),
	)
	final, err := p.Run()
	if err != nil {
		return fmt.Errorf("tui: %w", err)
	}
	if m, ok := final.(model); ok && m.interrupted {
		return ErrInterrupted
	}
	return nil
}

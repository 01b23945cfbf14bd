package main

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/tunebridge/tunebridge/internal/converter"
	"github.com/tunebridge/tunebridge/internal/shared"
	"github.com/tunebridge/tunebridge/internal/ui"
	"github.com/urfave/cli/v3"
)

// TUI launches the interactive terminal UI for playlist conversion.
func (r *Runner) TUI(ctx context.Context, cmd *cli.Command) error {
	if r.spotify == nil {
		return fmt.Errorf("%w: spotify is not configured, run 'tunebridge auth login'", shared.ErrServiceUnavailable)
	}

	// Redirect logs to file to avoid interfering with TUI rendering
	fileLogger, err := shared.NewFileLogger("./tmp/tunebridge-tui.log")
	if err != nil {
		return fmt.Errorf("failed to create file logger: %w", err)
	}
	r.SetLogger(fileLogger)

	var store converter.ResolutionStore
	if r.config.Converter.Cache {
		db, err := r.openDatabase()
		if err != nil {
			r.logger.Warnf("cache disabled, database unavailable: %v", err)
		} else {
			defer db.Close()
			store = r.newResolutionStore(db)
		}
	}

	conv := r.newConverter(store)
	model := ui.NewModel(ctx, r.ytmusic, conv, r.converterOptions())
	p := tea.NewProgram(model)

	if _, err := p.Run(); err != nil {
		return fmt.Errorf("error running TUI: %w", err)
	}

	return nil
}

func tuiCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "tui",
		Aliases: []string{"interactive", "ui"},
		Usage:   "Browse playlists and convert interactively",
		Action:  r.TUI,
	}
}

package main

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/imanmossavat/litstage/internal/session"
	"github.com/imanmossavat/litstage/internal/shared"
	"github.com/imanmossavat/litstage/internal/ui"
	"github.com/urfave/cli/v3"
)

// TUI launches the interactive staging review.
func (r *Runner) TUI(ctx context.Context, cmd *cli.Command) error {
	if _, err := r.requireSession(); err != nil {
		return err
	}

	// Redirect logs to file to avoid interfering with TUI rendering
	fileLogger, err := shared.NewFileLogger("./tmp/litstage-tui.log")
	if err != nil {
		return fmt.Errorf("failed to create file logger: %w", err)
	}
	r.SetLogger(fileLogger)

	model := ui.NewModel(ui.ModelOpts{
		Context:   ctx,
		Backend:   r.client,
		Matcher:   r.client,
		Libraries: r.libraries,
		Registry:  r.registry,
		Logger:    fileLogger,
	})
	p := tea.NewProgram(model, tea.WithAltScreen())

	// Session recovery must land on the UI loop, not stdout, while the
	// program runs. The coordinator built here replaces the CLI one for the
	// lifetime of the program.
	coordinator := session.NewCoordinator(session.CoordinatorOpts{
		Registry:  r.registry,
		Starter:   r.client,
		Navigator: ui.NewRecoveryNavigator(p),
		Logger:    fileLogger,
	})
	r.client.SetRecoverer(coordinator)

	if _, err := p.Run(); err != nil {
		return fmt.Errorf("error running TUI: %w", err)
	}
	return nil
}

package cli

import (
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/lulu-health/lulu/internal/seed"
	"github.com/lulu-health/lulu/internal/tui"
)

type TuiCmd struct{}

func (c *TuiCmd) Run(ctx *Context) error {
	if err := ctx.Store.Load(); err != nil {
		return err
	}

	ctx.PerformAutomaticBackup()

	session, err := ctx.activeSession()
	if err != nil {
		return err
	}

	// Top up today's question set in the background so the TUI comes up
	// immediately; the model reports the outcome when it lands.
	seedDone := seed.Run(ctx.Store, ctx.Config.PatientID, today())

	controller := ctx.newController(session.SessionID)
	p := tea.NewProgram(tui.NewModel(ctx.Store, controller, session.SessionID, seedDone), tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		fmt.Printf("Alas, there's been an error: %v", err)
		os.Exit(1)
	}
	return nil
}

package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/alecthomas/kong"

	"github.com/lulu-health/lulu/internal/backend"
	"github.com/lulu-health/lulu/internal/cli"
	"github.com/lulu-health/lulu/internal/config"
	"github.com/lulu-health/lulu/internal/storage"
)

var CLI struct {
	Version kong.VersionFlag
	Config  string `help:"Journal file path." type:"path" default:"~/.config/lulu/lulu.db"`

	Init     cli.InitCmd     `cmd:"" help:"Initialize lulu storage."`
	Tui      cli.TuiCmd      `cmd:"" help:"Launch the interactive TUI." default:"1"`
	Chat     cli.ChatCmd     `cmd:"" help:"Run the daily check-in in plain text mode."`
	Messages cli.MessagesCmd `cmd:"" help:"Print today's chat log."`
	Report   cli.ReportCmd   `cmd:"" help:"Generate a symptom report."`
	Session  struct {
		Start  cli.SessionStartCmd  `cmd:"" help:"Start a new tracking session."`
		Close  cli.SessionCloseCmd  `cmd:"" help:"Close the active session."`
		List   cli.SessionListCmd   `cmd:"" help:"List all sessions."`
		Delete cli.SessionDeleteCmd `cmd:"" help:"Delete a session and its data."`
	} `cmd:"" help:"Manage tracking sessions."`
	Backup struct {
		Create  cli.BackupCreateCmd  `cmd:"" help:"Create a journal backup."`
		List    cli.BackupListCmd    `cmd:"" help:"List available backups."`
		Restore cli.BackupRestoreCmd `cmd:"" help:"Restore the journal from a backup."`
	} `cmd:"" help:"Manage journal backups."`
}

func main() {
	ctx := kong.Parse(&CLI,
		kong.Name("lulu"),
		kong.Description("Daily symptom journal and check-in companion"),
		kong.UsageOnError(),
		kong.Vars{"version": "v0.1.0"},
	)

	// Storage format follows the journal file extension.
	var store storage.Provider
	if strings.HasSuffix(CLI.Config, ".json") {
		store = storage.NewJSONStore(CLI.Config)
	} else {
		store = storage.NewSQLiteStore(CLI.Config)
	}

	cfg := config.Load()
	appCtx := &cli.Context{
		Store:   store,
		Backend: backend.NewClient(cfg.ServerURL),
		Config:  cfg,
	}

	if err := ctx.Run(appCtx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

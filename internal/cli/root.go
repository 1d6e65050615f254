package cli

import (
	"fmt"
	"os"
	"time"

	"github.com/lulu-health/lulu/internal/backend"
	"github.com/lulu-health/lulu/internal/backup"
	"github.com/lulu-health/lulu/internal/chat"
	"github.com/lulu-health/lulu/internal/config"
	"github.com/lulu-health/lulu/internal/models"
	"github.com/lulu-health/lulu/internal/seed"
	"github.com/lulu-health/lulu/internal/storage"
)

type Context struct {
	Store   storage.Provider
	Backend *backend.Client
	Config  config.Config
}

func today() string {
	return time.Now().Format("2006-01-02")
}

// activeSession returns the patient's current session, seeding a default one
// when none exists yet.
func (ctx *Context) activeSession() (models.Session, error) {
	session, err := ctx.Store.GetActiveSession(ctx.Config.PatientID)
	if err == nil {
		return session, nil
	}
	if err := seed.Seed(ctx.Store, ctx.Config.PatientID, today()); err != nil {
		return models.Session{}, err
	}
	return ctx.Store.GetActiveSession(ctx.Config.PatientID)
}

func (ctx *Context) newController(sessionID string) *chat.Controller {
	return chat.NewController(ctx.Store, ctx.Backend, ctx.Config.UserID, ctx.Config.PatientDescription, sessionID, today())
}

// PerformAutomaticBackup snapshots the journal on startup. Failures are
// reported but never block the app.
func (ctx *Context) PerformAutomaticBackup() {
	mgr := backup.NewManager(ctx.Store.GetConfigPath())
	if _, err := mgr.Create(); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: automatic backup failed: %v\n", err)
	}
}

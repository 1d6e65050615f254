package cli

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/lulu-health/lulu/internal/models"
	"github.com/lulu-health/lulu/internal/validation"
)

type SessionStartCmd struct {
	StartDate string `help:"Session start date (YYYY-MM-DD), defaults to today." default:""`
}

func (c *SessionStartCmd) Run(ctx *Context) error {
	if err := ctx.Store.Load(); err != nil {
		return err
	}

	if existing, err := ctx.Store.GetActiveSession(ctx.Config.PatientID); err == nil {
		return fmt.Errorf("an active session already exists: %s (close it first)", existing.SessionID)
	}

	startDate := c.StartDate
	if startDate == "" {
		startDate = today()
	}
	if err := validation.Day(startDate); err != nil {
		return err
	}

	session := models.Session{
		SessionID: uuid.New().String(),
		PatientID: ctx.Config.PatientID,
		StartDate: startDate,
		Active:    true,
		CreatedAt: time.Now().UTC(),
	}
	if err := ctx.Store.SaveSession(session); err != nil {
		return err
	}

	fmt.Printf("Started session %s on %s\n", session.SessionID, session.StartDate)
	return nil
}

type SessionCloseCmd struct {
	EndDate string `help:"Session end date (YYYY-MM-DD), defaults to today." default:""`
}

func (c *SessionCloseCmd) Run(ctx *Context) error {
	if err := ctx.Store.Load(); err != nil {
		return err
	}

	session, err := ctx.Store.GetActiveSession(ctx.Config.PatientID)
	if err != nil {
		return fmt.Errorf("no active session to close")
	}

	endDate := c.EndDate
	if endDate == "" {
		endDate = today()
	}
	if err := validation.Day(endDate); err != nil {
		return err
	}
	if err := ctx.Store.CloseSession(session.SessionID, endDate); err != nil {
		return err
	}

	fmt.Printf("Closed session %s on %s\n", session.SessionID, endDate)
	return nil
}

type SessionListCmd struct{}

func (c *SessionListCmd) Run(ctx *Context) error {
	if err := ctx.Store.Load(); err != nil {
		return err
	}

	sessions, err := ctx.Store.GetAllSessions()
	if err != nil {
		return err
	}
	if len(sessions) == 0 {
		fmt.Println("No sessions found.")
		return nil
	}

	for _, s := range sessions {
		status := "closed"
		end := ""
		if s.Active {
			status = "active"
		}
		if s.Closed() {
			end = " → " + *s.EndDate
		}
		fmt.Printf("  %s  %s%s  (%s)\n", s.SessionID, s.StartDate, end, status)
	}
	return nil
}

type SessionDeleteCmd struct {
	SessionID string `arg:"" help:"ID of the session to delete."`
}

func (c *SessionDeleteCmd) Run(ctx *Context) error {
	if err := ctx.Store.Load(); err != nil {
		return err
	}

	if err := ctx.Store.DeleteSession(c.SessionID); err != nil {
		return err
	}
	fmt.Printf("Deleted session %s and all of its questions and answers.\n", c.SessionID)
	return nil
}

package cli

import (
	"context"
	"fmt"

	"github.com/lulu-health/lulu/internal/report"
	"github.com/lulu-health/lulu/internal/validation"
)

type ReportCmd struct {
	Start  string `help:"Start date (YYYY-MM-DD)." default:""`
	End    string `help:"End date (YYYY-MM-DD)." default:""`
	Remote bool   `help:"Fetch the report from the backend instead of local storage."`
	Pdf    string `help:"Download a PDF report from the backend to this path." type:"path" default:""`
}

func (c *ReportCmd) Run(ctx *Context) error {
	if err := ctx.Store.Load(); err != nil {
		return err
	}
	if err := validation.DateRange(c.Start, c.End); err != nil {
		return err
	}

	if c.Pdf != "" {
		if err := ctx.Backend.ReportPDF(context.Background(), ctx.Config.UserID, c.Start, c.End, c.Pdf); err != nil {
			return err
		}
		fmt.Printf("Report saved to %s\n", c.Pdf)
		return nil
	}

	if c.Remote {
		return c.printRemote(ctx)
	}
	return c.printLocal(ctx)
}

func (c *ReportCmd) printRemote(ctx *Context) error {
	remote, err := ctx.Backend.ReportJSON(context.Background(), ctx.Config.UserID, c.Start, c.End)
	if err != nil {
		return err
	}
	if len(remote.Data) == 0 {
		fmt.Println("No answers recorded in this range.")
		return nil
	}
	fmt.Print(report.FormatRemote(remote.Data))
	return nil
}

func (c *ReportCmd) printLocal(ctx *Context) error {
	session, err := ctx.activeSession()
	if err != nil {
		return err
	}

	timelines, err := report.Build(ctx.Store, session.SessionID, c.Start, c.End)
	if err != nil {
		return err
	}
	if len(timelines) == 0 {
		fmt.Println("No answers recorded in this range.")
		return nil
	}
	fmt.Print(report.FormatTimeline(timelines))
	return nil
}

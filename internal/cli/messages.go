package cli

import (
	"context"
	"fmt"
)

// MessagesCmd prints today's chat log, refreshed from the backend when
// reachable and reconstructed locally when not.
type MessagesCmd struct{}

func (c *MessagesCmd) Run(ctx *Context) error {
	if err := ctx.Store.Load(); err != nil {
		return err
	}

	session, err := ctx.activeSession()
	if err != nil {
		return err
	}

	controller := ctx.newController(session.SessionID)
	snap := controller.ReloadMessages(context.Background())
	if snap.LastError != nil {
		fmt.Printf("! %s (showing local copy)\n\n", snap.LastError.Display)
	}
	if len(snap.Messages) == 0 {
		fmt.Println("No messages for today.")
		return nil
	}

	printLog(snap)
	return nil
}

package cli

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/lulu-health/lulu/internal/chat"
)

// ChatCmd runs the daily check-in as a plain stdin/stdout conversation, for
// terminals where the full TUI is unwanted.
type ChatCmd struct{}

func (c *ChatCmd) Run(ctx *Context) error {
	if err := ctx.Store.Load(); err != nil {
		return err
	}

	session, err := ctx.activeSession()
	if err != nil {
		return err
	}

	controller := ctx.newController(session.SessionID)
	snap := controller.Initialize(context.Background())
	printLog(snap)

	reader := bufio.NewReader(os.Stdin)
	for {
		if snap.LastError != nil {
			fmt.Printf("! %s\n", snap.LastError.Display)
		}
		if snap.Exhausted {
			fmt.Println("All questions answered for today. See you tomorrow!")
			return nil
		}
		if snap.ActiveQuestionID == nil {
			// Fetch failed; offer a retry before giving up.
			fmt.Print("Press enter to retry, or type 'q' to quit: ")
			line, err := reader.ReadString('\n')
			if err != nil || strings.TrimSpace(line) == "q" {
				return nil
			}
			snap = controller.Advance(context.Background())
			continue
		}

		fmt.Printf("\nLulu: %s\n> ", snap.ActiveQuestion)
		line, err := reader.ReadString('\n')
		if err != nil {
			return nil
		}
		answer := strings.TrimSpace(line)
		if answer == "q" {
			return nil
		}

		snap = controller.Submit(context.Background(), *snap.ActiveQuestionID, answer)
	}
}

func printLog(snap chat.Snapshot) {
	for _, msg := range snap.Messages {
		if msg.IsUser() {
			fmt.Printf("You: %s\n", msg.Content)
		} else {
			fmt.Printf("Lulu: %s\n", msg.Content)
		}
	}
}

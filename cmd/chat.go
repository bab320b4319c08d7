package cmd

import (
	"bufio"
	"context"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/silacode/customer-support-agent/internal/agent"
	"github.com/silacode/customer-support-agent/internal/ui"
)

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Start an interactive support session",
	RunE:  runChat,
}

func init() {
	rootCmd.AddCommand(chatCmd)
}

func runChat(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	console := ui.NewConsole()
	console.Info("Starting up...")

	a, err := setupApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	if added, err := a.EnsurePolicies(ctx); err != nil {
		return err
	} else if added > 0 {
		console.Info("Indexed policy documents.")
	}

	ag, err := a.CreateAgent(
		agent.WithToolCallObserver(func(name string, args map[string]any) {
			console.ToolCall(name, args)
		}),
		agent.WithActivityObserver(func(component, stage string, details map[string]any) {
			console.Activity(component, stage, details)
		}),
	)
	if err != nil {
		return err
	}

	console.Welcome()

	scanner := bufio.NewScanner(os.Stdin)
	for {
		console.Prompt()
		if !scanner.Scan() {
			console.Goodbye()
			return scanner.Err()
		}

		input := strings.TrimSpace(scanner.Text())
		if input == "" {
			continue
		}

		switch strings.ToLower(input) {
		case "quit", "exit":
			console.Goodbye()
			return nil
		case "clear":
			ag.Reset()
			console.Info("Conversation history cleared.")
			continue
		case "help":
			console.Welcome()
			continue
		}

		console.Thinking()
		answer, err := ag.Send(ctx, input)
		if err != nil {
			console.Error(err)
			continue
		}
		console.Answer(answer)
	}
}

package cmd

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

var askCmd = &cobra.Command{
	Use:   "ask [question]",
	Short: "Ask a single question and exit",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runAsk,
}

func init() {
	rootCmd.AddCommand(askCmd)
}

func runAsk(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	a, err := setupApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	if _, err := a.EnsurePolicies(ctx); err != nil {
		return err
	}

	ag, err := a.CreateAgent()
	if err != nil {
		return err
	}

	answer, err := ag.Send(ctx, strings.Join(args, " "))
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), answer)
	return nil
}

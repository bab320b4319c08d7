// Package cmd implements the command-line interface.
package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/silacode/customer-support-agent/internal/app"
	"github.com/silacode/customer-support-agent/internal/config"
	"github.com/silacode/customer-support-agent/internal/log"
)

var rootCmd = &cobra.Command{
	Use:   "support-agent",
	Short: "Terminal customer support agent for an e-commerce store",
	Long: `support-agent answers order, product, and policy questions in the
terminal. It queries the orders database through a self-correcting
text-to-SQL loop and searches company policies with vector retrieval.

Running support-agent with no arguments starts an interactive session.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runChat(cmd, args)
	},
	SilenceUsage: true,
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

// setupApp loads configuration and initializes the application.
func setupApp(ctx context.Context) (*app.App, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("loading configuration: %w", err)
	}

	logger := log.New(log.Config{Level: log.ParseLevel(cfg.LogLevel), JSON: cfg.LogJSON})

	a, err := app.Setup(ctx, cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("initializing application: %w", err)
	}
	return a, nil
}

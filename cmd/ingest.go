package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

var ingestForce bool

var ingestCmd = &cobra.Command{
	Use:   "ingest",
	Short: "Index policy documents into the vector store",
	Long: `ingest chunks every Markdown document in the policies directory and
embeds the chunks into the policy index. By default documents are only
ingested when the index is empty; --force clears and rebuilds it.`,
	RunE: runIngest,
}

func init() {
	ingestCmd.Flags().BoolVar(&ingestForce, "force", false, "clear the index and re-ingest everything")
	rootCmd.AddCommand(ingestCmd)
}

func runIngest(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	a, err := setupApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	if ingestForce {
		if err := a.PolicyStore.Clear(ctx); err != nil {
			return fmt.Errorf("clearing policy index: %w", err)
		}
	}

	added, err := a.EnsurePolicies(ctx)
	if err != nil {
		return err
	}
	if added == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "Policy index already populated; use --force to rebuild.")
		return nil
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Indexed %d policy chunks.\n", added)
	return nil
}

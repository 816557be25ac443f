package commands

import (
	"fmt"

	"github.com/spf13/cobra"
)

// NewIngestCmd creates the re-ingestion command
func NewIngestCmd(deps *Dependencies) *cobra.Command {
	return &cobra.Command{
		Use:   "ingest",
		Short: "Trigger re-ingestion of the construction documents",
		Long: `Ask the backend to rebuild its document index.

The request returns as soon as the backend accepts it; indexing itself
continues on the server.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			backend, err := deps.NewBackend(deps.Config, deps.Logger)
			if err != nil {
				return fmt.Errorf("failed to create client: %w", err)
			}

			ctx, cancel := withTimeout(cmd, deps)
			defer cancel()

			if err := backend.Ingest(ctx); err != nil {
				return fmt.Errorf("ingestion failed: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), successStyle.Render("✓ Re-ingestion triggered"))
			return nil
		},
	}
}

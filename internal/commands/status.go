package commands

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

// NewStatusCmd creates the backend health command
func NewStatusCmd(deps *Dependencies) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Check that the backend is reachable",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			backend, err := deps.NewBackend(deps.Config, deps.Logger)
			if err != nil {
				return fmt.Errorf("failed to create client: %w", err)
			}

			ctx, cancel := withTimeout(cmd, deps)
			defer cancel()

			status, err := backend.Health(ctx)
			if err != nil {
				return fmt.Errorf("backend %s is not reachable: %w", backend.BaseURL(), err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n", backend.BaseURL(), successStyle.Render(status))
			return nil
		},
	}
}

// withTimeout bounds a single backend call by the configured timeout
func withTimeout(cmd *cobra.Command, deps *Dependencies) (context.Context, context.CancelFunc) {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithTimeout(ctx, deps.Config.Timeout())
}

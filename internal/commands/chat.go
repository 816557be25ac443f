package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/diogo/projectbrain/internal/render"
	"github.com/diogo/projectbrain/internal/tui"
)

// NewChatCmd creates the interactive chat command
func NewChatCmd(deps *Dependencies) *cobra.Command {
	return &cobra.Command{
		Use:   "chat",
		Short: "Start an interactive chat session",
		Long: `Start an interactive chat with Project Brain.

Commands inside the chat:
  /ingest          Re-index the construction documents
  /export <file>   Save the conversation (.md or .json)
  exit, quit       End the session (Esc or Ctrl+C also work)`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runChat(cmd, deps)
		},
	}
}

func runChat(cmd *cobra.Command, deps *Dependencies) error {
	backend, err := deps.NewBackend(deps.Config, deps.Logger)
	if err != nil {
		return fmt.Errorf("failed to create client: %w", err)
	}

	tui.SetTheme(deps.Config.TUITheme)
	sess := deps.newSession(backend)
	opts := render.OptionsFromConfig(deps.Config)

	deps.Logger.Info("chat started")
	return deps.TUI.RunChat(cmd.Context(), sess, backend, backend.BaseURL(), opts)
}

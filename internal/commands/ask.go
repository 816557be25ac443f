package commands

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/diogo/projectbrain/internal/config"
	apierrors "github.com/diogo/projectbrain/internal/errors"
	"github.com/diogo/projectbrain/internal/models"
	"github.com/diogo/projectbrain/internal/render"
)

// askOptions are the flags shared by the root command and ask
type askOptions struct {
	file   string
	output string
	raw    bool
	copy   bool
}

func addAskFlags(cmd *cobra.Command, opts *askOptions) {
	cmd.Flags().StringVarP(&opts.file, "file", "f", "", "Read the question from file")
	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "Save the reply to file")
	cmd.Flags().BoolVar(&opts.raw, "raw", false, "Print the reply message as JSON")
	cmd.Flags().BoolVar(&opts.copy, "copy", false, "Copy the reply to the clipboard")
}

// NewAskCmd creates the one-shot question command
func NewAskCmd(deps *Dependencies) *cobra.Command {
	var opts askOptions

	cmd := &cobra.Command{
		Use:   "ask [question]",
		Short: "Ask a single question",
		Long: `Send one question to the backend and print the reply.

Questions containing "list" or "schedule" are answered with a table
extracted from the documents; all other questions get a text answer
with the documents it was drawn from.`,
		Args: cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			text, err := deps.readInput(args, opts.file)
			if err != nil {
				return err
			}
			if text == "" {
				return fmt.Errorf("question cannot be empty")
			}
			return runAsk(cmd, deps, text, opts)
		},
	}
	addAskFlags(cmd, &opts)
	return cmd
}

// runAsk runs one conversation turn and prints the reply. When the backend
// fails the fallback reply is still printed and the cause is returned.
func runAsk(cmd *cobra.Command, deps *Dependencies, text string, opts askOptions) error {
	backend, err := deps.NewBackend(deps.Config, deps.Logger)
	if err != nil {
		return fmt.Errorf("failed to create client: %w", err)
	}

	sess := deps.newSession(backend)
	turn, err := sess.Start(text)
	if err != nil {
		return err
	}

	stderr := cmd.ErrOrStderr()
	decorated := !opts.raw && deps.IsTTY()

	var spin *spinner
	if decorated {
		spin = newSpinner(stderr, "Consulting "+turn.Intent.Endpoint())
		spin.start()
	}

	reply, turnErr := turn.Resolve(cmd.Context())
	if spin != nil {
		if turnErr != nil {
			spin.stopWithError()
		} else {
			spin.stopWithSuccess("Done")
		}
	}

	var out string
	switch {
	case opts.raw:
		data, err := json.MarshalIndent(reply, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to encode reply: %w", err)
		}
		out = string(data) + "\n"
	case decorated && opts.output == "":
		out = decorate(reply, deps.Config, renderWidth()) + "\n"
	default:
		out = plainReply(reply)
	}

	if opts.output != "" {
		if err := os.WriteFile(opts.output, []byte(out), 0o644); err != nil {
			return fmt.Errorf("failed to write output file: %w", err)
		}
		if !opts.raw {
			fmt.Fprintln(stderr, successStyle.Render(fmt.Sprintf("✓ Reply saved to %s", opts.output)))
		}
	} else {
		fmt.Fprint(cmd.OutOrStdout(), out)
	}

	if (opts.copy || deps.Config.CopyToClipboard) && turnErr == nil {
		copyReply(stderr, deps, reply)
	}

	if turnErr != nil {
		return fmt.Errorf("%s failed: %w", turn.Intent.Endpoint(), turnErr)
	}
	return nil
}

// decorate renders the reply the way the chat TUI shows it
func decorate(reply models.Message, cfg config.Config, width int) string {
	bubbleWidth := width - 4
	if bubbleWidth < 40 {
		bubbleWidth = 40
	}
	if bubbleWidth > 120 {
		bubbleWidth = 120
	}

	opts := render.OptionsFromConfig(cfg).WithWidth(bubbleWidth - 4)

	label := assistantLabelStyle.Render("◆ Project Brain")
	body := render.Message(reply, opts, render.ThemeOrDefault(cfg.TUITheme))
	return label + "\n" + assistantBubbleStyle.Width(bubbleWidth).Render(body)
}

// plainReply is the terminal-free rendition used for pipes and files
func plainReply(reply models.Message) string {
	var sb strings.Builder
	sb.WriteString(reply.PlainText())
	sb.WriteString("\n")
	if len(reply.Sources) > 0 {
		labels := make([]string, len(reply.Sources))
		for i, s := range reply.Sources {
			labels[i] = render.SourceLabel(s)
		}
		sb.WriteString("\nSources: " + strings.Join(labels, ", ") + "\n")
	}
	return sb.String()
}

func copyReply(w io.Writer, deps *Dependencies, reply models.Message) {
	if err := deps.CopyToClipboard(reply.PlainText()); err != nil {
		// Log warning but don't fail
		fmt.Fprintln(w, warningStyle.Render(fmt.Sprintf("⚠ Failed to copy to clipboard: %v", err)))
		return
	}
	fmt.Fprintln(w, successStyle.Render("✓ Copied to clipboard"))
}

func copyToClipboard(text string) error {
	return clipboard.WriteAll(text)
}

// renderWidth returns the terminal width or a default value
func renderWidth() int {
	width, _, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil || width <= 0 {
		return 80
	}
	return width
}

// isStdoutTTY returns true if stdout is connected to a terminal
func isStdoutTTY() bool {
	return term.IsTerminal(int(os.Stdout.Fd()))
}

// formatErrorMessage formats an error with additional context from structured errors
func formatErrorMessage(err error, context string) string {
	if err == nil {
		return ""
	}

	errorStyle := lipgloss.NewStyle().Foreground(colorError)
	dimStyle := lipgloss.NewStyle().Foreground(colorTextDim)

	var sb strings.Builder
	sb.WriteString(errorStyle.Render(fmt.Sprintf("✗ %s: %v", context, err)))

	if status := apierrors.GetHTTPStatus(err); status > 0 {
		sb.WriteString(dimStyle.Render(fmt.Sprintf("\n  HTTP Status: %d", status)))
	}

	switch {
	case apierrors.IsTimeoutError(err):
		sb.WriteString(dimStyle.Render("\n  Hint: The backend took too long. Try --timeout with a larger value"))
	case apierrors.IsNetworkError(err):
		sb.WriteString(dimStyle.Render("\n  Hint: Start the backend (or 'projectbrain mock-server') and check --api-url"))
	case apierrors.IsDecodeError(err):
		sb.WriteString(dimStyle.Render("\n  Hint: The backend at --api-url does not speak the Project Brain API"))
	}

	return sb.String()
}

// Package tui provides the interactive chat interface for projectbrain.
package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/diogo/projectbrain/internal/errors"
	"github.com/diogo/projectbrain/internal/render"
)

// Color variables (updated from theme)
var (
	colorBorder    lipgloss.Color
	colorPrimary   lipgloss.Color
	colorSecondary lipgloss.Color
	colorAccent    lipgloss.Color
	colorWarning   lipgloss.Color
	colorError     lipgloss.Color
	colorText      lipgloss.Color
	colorTextDim   lipgloss.Color
)

// Style variables (rebuilt when theme changes)
var (
	headerStyle         lipgloss.Style
	titleStyle          lipgloss.Style
	subtitleStyle       lipgloss.Style
	hintStyle           lipgloss.Style
	messagesAreaStyle   lipgloss.Style
	userBubbleStyle     lipgloss.Style
	userLabelStyle      lipgloss.Style
	assistantBubble     lipgloss.Style
	assistantLabelStyle lipgloss.Style
	inputPanelStyle     lipgloss.Style
	inputLabelStyle     lipgloss.Style
	loadingStyle        lipgloss.Style
	statusBarStyle      lipgloss.Style
	statusKeyStyle      lipgloss.Style
	statusDescStyle     lipgloss.Style
	noticeStyle         lipgloss.Style
	errorStyle          lipgloss.Style
)

var currentTheme = render.DarkTheme

func init() {
	SetTheme(render.DarkTheme.Name)
}

// SetTheme switches the active theme; unknown names fall back to dark
func SetTheme(name string) {
	currentTheme = render.ThemeOrDefault(name)

	colorBorder = currentTheme.Border
	colorPrimary = currentTheme.Primary
	colorSecondary = currentTheme.Secondary
	colorAccent = currentTheme.Accent
	colorWarning = currentTheme.Warning
	colorError = currentTheme.Error
	colorText = currentTheme.Text
	colorTextDim = currentTheme.TextDim

	rebuildStyles()
}

func rebuildStyles() {
	headerStyle = lipgloss.NewStyle().
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(colorBorder).
		Padding(0, 2)

	titleStyle = lipgloss.NewStyle().
		Foreground(colorPrimary).
		Bold(true)

	subtitleStyle = lipgloss.NewStyle().
		Foreground(colorTextDim)

	hintStyle = lipgloss.NewStyle().
		Foreground(colorTextDim).
		Italic(true)

	messagesAreaStyle = lipgloss.NewStyle().
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(colorBorder).
		Padding(0, 1)

	userBubbleStyle = lipgloss.NewStyle().
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(colorSecondary).
		Padding(0, 1).
		MarginLeft(4)

	userLabelStyle = lipgloss.NewStyle().
		Foreground(colorSecondary).
		Bold(true).
		MarginLeft(4)

	assistantBubble = lipgloss.NewStyle().
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(colorPrimary).
		Foreground(colorText).
		Padding(0, 1).
		MarginRight(4)

	assistantLabelStyle = lipgloss.NewStyle().
		Foreground(colorPrimary).
		Bold(true)

	inputPanelStyle = lipgloss.NewStyle().
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(colorBorder).
		Padding(0, 1)

	inputLabelStyle = lipgloss.NewStyle().
		Foreground(colorPrimary).
		Bold(true)

	loadingStyle = lipgloss.NewStyle().
		Foreground(colorAccent).
		Bold(true)

	statusBarStyle = lipgloss.NewStyle().
		Foreground(colorTextDim)

	statusKeyStyle = lipgloss.NewStyle().
		Foreground(colorText).
		Bold(true)

	statusDescStyle = lipgloss.NewStyle().
		Foreground(colorTextDim)

	noticeStyle = lipgloss.NewStyle().
		Foreground(colorSecondary).
		Italic(true)

	errorStyle = lipgloss.NewStyle().
		Foreground(colorError).
		Bold(true)
}

// FormatError returns a styled error message with hints for known failures.
func FormatError(err error) string {
	if err == nil {
		return ""
	}

	errStyle := lipgloss.NewStyle().Foreground(colorError)
	dimStyle := lipgloss.NewStyle().Foreground(colorTextDim)

	var sb strings.Builder
	sb.WriteString(errStyle.Render(fmt.Sprintf("✗ %v", err)))

	if status := errors.GetHTTPStatus(err); status > 0 {
		sb.WriteString(dimStyle.Render(fmt.Sprintf("\n  HTTP Status: %d", status)))
	}

	switch {
	case errors.IsTimeoutError(err):
		sb.WriteString(dimStyle.Render("\n  Hint: The backend took too long. Raise timeout_seconds or try again"))
	case errors.IsNetworkError(err):
		sb.WriteString(dimStyle.Render("\n  Hint: Ensure the Project Brain server is running and api_url is correct"))
	case errors.IsDecodeError(err):
		sb.WriteString(dimStyle.Render("\n  Hint: The backend answered in an unexpected format"))
	}

	return sb.String()
}

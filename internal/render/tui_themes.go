package render

import (
	"github.com/charmbracelet/lipgloss"
)

// TUITheme defines the color scheme for the chat interface and tables
type TUITheme struct {
	Name        string
	Description string

	Border    lipgloss.Color
	Primary   lipgloss.Color
	Secondary lipgloss.Color
	Accent    lipgloss.Color
	Warning   lipgloss.Color
	Error     lipgloss.Color

	Text    lipgloss.Color
	TextDim lipgloss.Color
}

var (
	// DarkTheme is the default theme
	DarkTheme = TUITheme{
		Name:        "dark",
		Description: "Slate background with blue and emerald accents",

		Border:    lipgloss.Color("#475569"),
		Primary:   lipgloss.Color("#60a5fa"),
		Secondary: lipgloss.Color("#34d399"),
		Accent:    lipgloss.Color("#a78bfa"),
		Warning:   lipgloss.Color("#fbbf24"),
		Error:     lipgloss.Color("#f87171"),

		Text:    lipgloss.Color("#e2e8f0"),
		TextDim: lipgloss.Color("#94a3b8"),
	}

	// LightTheme suits light terminal backgrounds
	LightTheme = TUITheme{
		Name:        "light",
		Description: "Dark text on light backgrounds",

		Border:    lipgloss.Color("#cbd5e1"),
		Primary:   lipgloss.Color("#2563eb"),
		Secondary: lipgloss.Color("#059669"),
		Accent:    lipgloss.Color("#7c3aed"),
		Warning:   lipgloss.Color("#b45309"),
		Error:     lipgloss.Color("#dc2626"),

		Text:    lipgloss.Color("#1e293b"),
		TextDim: lipgloss.Color("#64748b"),
	}

	// BlueprintTheme mimics drawing sheets
	BlueprintTheme = TUITheme{
		Name:        "blueprint",
		Description: "White linework on blueprint blue",

		Border:    lipgloss.Color("#93c5fd"),
		Primary:   lipgloss.Color("#f8fafc"),
		Secondary: lipgloss.Color("#bae6fd"),
		Accent:    lipgloss.Color("#fde68a"),
		Warning:   lipgloss.Color("#fde68a"),
		Error:     lipgloss.Color("#fca5a5"),

		Text:    lipgloss.Color("#e0f2fe"),
		TextDim: lipgloss.Color("#7dd3fc"),
	}
)

// GetTUIThemeByName returns a theme by its name
func GetTUIThemeByName(name string) (TUITheme, bool) {
	for _, t := range AvailableTUIThemes() {
		if t.Name == name {
			return t, true
		}
	}
	return TUITheme{}, false
}

// ThemeOrDefault returns the named theme, falling back to DarkTheme
func ThemeOrDefault(name string) TUITheme {
	if t, ok := GetTUIThemeByName(name); ok {
		return t
	}
	return DarkTheme
}

// AvailableTUIThemes returns all built-in themes
func AvailableTUIThemes() []TUITheme {
	return []TUITheme{DarkTheme, LightTheme, BlueprintTheme}
}

// TUIThemeNames returns the theme names for selection
func TUIThemeNames() []string {
	themes := AvailableTUIThemes()
	names := make([]string, len(themes))
	for i, t := range themes {
		names[i] = t.Name
	}
	return names
}

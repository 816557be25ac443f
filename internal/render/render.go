package render

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/diogo/projectbrain/internal/models"
)

// Markdown renders markdown content for terminal display.
func Markdown(content string, opts Options) (string, error) {
	renderer, err := globalPool.get(opts)
	if err != nil {
		return "", err
	}
	defer globalPool.put(opts, renderer)

	return renderer.Render(content)
}

// Message renders one conversation message. Assistant text goes through
// markdown, falling back to the raw text when the renderer fails; tabular
// replies become a table.
func Message(msg models.Message, opts Options, theme TUITheme) string {
	var body string
	switch {
	case msg.IsUser():
		body = msg.Text
	case msg.Kind == models.KindData:
		label := lipgloss.NewStyle().Bold(true).Foreground(theme.Secondary).Render("EXTRACTED DATA")
		body = label + "\n" + Table(msg.Rows, opts.Width, theme)
	default:
		out, err := Markdown(msg.Text, opts)
		if err != nil {
			body = msg.Text
		} else {
			body = strings.Trim(out, "\n")
		}
	}

	if line := Sources(msg.Sources, theme); line != "" {
		body += "\n\n" + line
	}
	return body
}

// Table renders rows with headers taken from the first row. Cells missing
// from later rows are left blank and extra keys are not shown.
func Table(rows []models.Row, width int, theme TUITheme) string {
	if len(rows) == 0 {
		return lipgloss.NewStyle().Italic(true).Foreground(theme.Error).Render(models.NoDataText)
	}

	headers := rows[0].Columns()
	data := make([][]string, 0, len(rows))
	for _, row := range rows {
		cells := make([]string, len(headers))
		for i, h := range headers {
			v, _ := row.Get(h)
			cells[i] = models.FormatValue(v)
		}
		data = append(data, cells)
	}

	headerStyle := lipgloss.NewStyle().Bold(true).Foreground(theme.Primary).Padding(0, 1)
	cellStyle := lipgloss.NewStyle().Foreground(theme.Text).Padding(0, 1)

	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(theme.Border)).
		Headers(headers...).
		Rows(data...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			return cellStyle
		})

	out := t.String()
	if width > 0 && lipgloss.Width(out) > width {
		out = t.Width(width).String()
	}
	return out
}

// Sources renders the citation line, or "" when there are none.
func Sources(sources []models.Source, theme TUITheme) string {
	if len(sources) == 0 {
		return ""
	}
	labels := make([]string, len(sources))
	for i, s := range sources {
		labels[i] = SourceLabel(s)
	}
	label := lipgloss.NewStyle().Bold(true).Foreground(theme.TextDim).Render("Sources:")
	return label + " " + lipgloss.NewStyle().Foreground(theme.TextDim).Render(strings.Join(labels, " · "))
}

// SourceLabel formats a single citation as "name p.N"
func SourceLabel(s models.Source) string {
	name := s.Source
	if name == "" {
		name = "File"
	}
	if s.Page != "" {
		name += " p." + s.Page
	}
	return name
}

// Package history exports a conversation transcript to disk.
package history

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/diogo/projectbrain/internal/models"
)

// ExportFormat represents the format for exporting conversations
type ExportFormat string

const (
	ExportFormatMarkdown ExportFormat = "markdown"
	ExportFormatJSON     ExportFormat = "json"
)

// ExportOptions configures how conversations are exported
type ExportOptions struct {
	Format         ExportFormat
	Title          string
	IncludeSources bool
	// Now stamps the export; zero means time.Now
	Now time.Time
}

// DefaultExportOptions returns sensible defaults for export
func DefaultExportOptions() ExportOptions {
	return ExportOptions{
		Format:         ExportFormatMarkdown,
		Title:          "Project Brain conversation",
		IncludeSources: true,
	}
}

// FormatFromPath picks the export format from a file extension
func FormatFromPath(path string) ExportFormat {
	if strings.EqualFold(filepath.Ext(path), ".json") {
		return ExportFormatJSON
	}
	return ExportFormatMarkdown
}

func (o ExportOptions) now() time.Time {
	if o.Now.IsZero() {
		return time.Now()
	}
	return o.Now
}

// ExportToMarkdown renders the transcript as Markdown. Tabular replies
// become Markdown tables.
func ExportToMarkdown(messages []models.Message, opts ExportOptions) string {
	var sb strings.Builder

	sb.WriteString("# ")
	sb.WriteString(opts.Title)
	sb.WriteString("\n\n")
	sb.WriteString("**Exported:** ")
	sb.WriteString(opts.now().Format("2006-01-02 15:04:05"))
	sb.WriteString("\n")
	sb.WriteString(fmt.Sprintf("**Messages:** %d", len(messages)))
	sb.WriteString("\n\n---\n\n")

	for i, msg := range messages {
		role := "Assistant"
		if msg.IsUser() {
			role = "User"
		}

		sb.WriteString("## ")
		sb.WriteString(role)
		if !msg.CreatedAt.IsZero() {
			sb.WriteString(" (")
			sb.WriteString(msg.CreatedAt.Format("15:04:05"))
			sb.WriteString(")")
		}
		sb.WriteString("\n\n")

		if msg.Kind == models.KindData {
			sb.WriteString(markdownTable(msg))
		} else {
			sb.WriteString(msg.Text)
		}
		sb.WriteString("\n")

		if opts.IncludeSources && len(msg.Sources) > 0 {
			labels := make([]string, len(msg.Sources))
			for j, s := range msg.Sources {
				labels[j] = sourceLabel(s)
			}
			sb.WriteString("\n*Sources: ")
			sb.WriteString(strings.Join(labels, ", "))
			sb.WriteString("*\n")
		}

		if i < len(messages)-1 {
			sb.WriteString("\n---\n\n")
		}
	}

	return sb.String()
}

func markdownTable(msg models.Message) string {
	if len(msg.Rows) == 0 {
		return "_" + models.NoDataText + "_"
	}

	headers := msg.Headers()
	var sb strings.Builder
	writeRow := func(cells []string) {
		sb.WriteString("|")
		for _, c := range cells {
			sb.WriteString(" ")
			sb.WriteString(escapeCell(c))
			sb.WriteString(" |")
		}
		sb.WriteString("\n")
	}

	writeRow(headers)
	sep := make([]string, len(headers))
	for i := range sep {
		sep[i] = "---"
	}
	writeRow(sep)

	for _, row := range msg.Rows {
		cells := make([]string, len(headers))
		for i, h := range headers {
			v, _ := row.Get(h)
			cells[i] = models.FormatValue(v)
		}
		writeRow(cells)
	}
	return strings.TrimSuffix(sb.String(), "\n")
}

func escapeCell(s string) string {
	s = strings.ReplaceAll(s, "|", `\|`)
	return strings.ReplaceAll(s, "\n", " ")
}

func sourceLabel(s models.Source) string {
	name := s.Source
	if name == "" {
		name = "File"
	}
	if s.Page != "" {
		name += " p." + s.Page
	}
	return name
}

type exportConversation struct {
	Title      string           `json:"title"`
	ExportedAt time.Time        `json:"exported_at"`
	Messages   []models.Message `json:"messages"`
}

// ExportToJSON renders the transcript as indented JSON. Rows keep the column
// order of the backend response.
func ExportToJSON(messages []models.Message, opts ExportOptions) ([]byte, error) {
	out := make([]models.Message, len(messages))
	copy(out, messages)
	if !opts.IncludeSources {
		for i := range out {
			out[i].Sources = nil
		}
	}

	data, err := json.MarshalIndent(exportConversation{
		Title:      opts.Title,
		ExportedAt: opts.now(),
		Messages:   out,
	}, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal conversation: %w", err)
	}
	return data, nil
}

// WriteExport writes the transcript to path in the format given by opts
func WriteExport(path string, messages []models.Message, opts ExportOptions) error {
	var data []byte
	switch opts.Format {
	case ExportFormatJSON:
		var err error
		data, err = ExportToJSON(messages, opts)
		if err != nil {
			return err
		}
	case ExportFormatMarkdown, "":
		data = []byte(ExportToMarkdown(messages, opts))
	default:
		return fmt.Errorf("unsupported export format: %s", opts.Format)
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create export directory: %w", err)
		}
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write export: %w", err)
	}
	return nil
}

package mockbackend

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/diogo/projectbrain/internal/models"
)

// Fixture is one canned reply. Match is a case-insensitive substring of the
// user text; an empty Match catches everything.
type Fixture struct {
	Match   string          `yaml:"match"`
	Answer  string          `yaml:"answer,omitempty"`
	Data    []yaml.Node     `yaml:"data,omitempty"`
	Sources []models.Source `yaml:"sources,omitempty"`

	rows []models.Row
}

// Rows returns the fixture's table rows in file order
func (f Fixture) Rows() []models.Row {
	return f.rows
}

// Fixtures holds the replies for both capabilities
type Fixtures struct {
	Chat    []Fixture `yaml:"chat"`
	Extract []Fixture `yaml:"extract"`

	// DefaultAnswer is used when no chat fixture matches
	DefaultAnswer string `yaml:"default_answer"`
}

const defaultAnswer = "I could not find that in the indexed construction documents."

// DefaultFixtures returns the built-in replies
func DefaultFixtures() Fixtures {
	return Fixtures{
		Chat: []Fixture{
			{
				Match:   "fire rating",
				Answer:  "2-hour rated",
				Sources: []models.Source{{Source: "spec_09.pdf", Page: "12"}},
			},
			{
				Match:   "hello",
				Answer:  "Hi! Ask me about schedules, ratings or specifications.",
				Sources: []models.Source{},
			},
		},
		Extract: []Fixture{
			{
				Match: "door",
				rows: []models.Row{
					{{Column: "Door", Value: "D1"}, {Column: "Width", Value: "36in"}, {Column: "Rating", Value: "90 min"}},
					{{Column: "Door", Value: "D2"}, {Column: "Width", Value: "30in"}, {Column: "Rating", Value: "20 min"}},
				},
				Sources: []models.Source{{Source: "A-601 Door Schedule.pdf", Page: "1"}},
			},
			{
				Match: "window",
				rows: []models.Row{
					{{Column: "Mark", Value: "W1"}, {Column: "Type", Value: "Fixed"}, {Column: "Glazing", Value: "Insulated"}},
				},
				Sources: []models.Source{{Source: "A-602 Window Schedule.pdf"}},
			},
		},
		DefaultAnswer: defaultAnswer,
	}
}

// LoadFixtures reads a YAML fixture file
func LoadFixtures(path string) (Fixtures, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Fixtures{}, fmt.Errorf("failed to read fixtures: %w", err)
	}
	return ParseFixtures(data)
}

// ParseFixtures decodes YAML fixtures. Table rows keep their key order.
func ParseFixtures(data []byte) (Fixtures, error) {
	var f Fixtures
	if err := yaml.Unmarshal(data, &f); err != nil {
		return Fixtures{}, fmt.Errorf("failed to parse fixtures: %w", err)
	}
	for i := range f.Extract {
		rows, err := decodeRows(f.Extract[i].Data)
		if err != nil {
			return Fixtures{}, fmt.Errorf("extract fixture %d: %w", i, err)
		}
		f.Extract[i].rows = rows
	}
	if f.DefaultAnswer == "" {
		f.DefaultAnswer = defaultAnswer
	}
	return f, nil
}

func decodeRows(nodes []yaml.Node) ([]models.Row, error) {
	rows := make([]models.Row, 0, len(nodes))
	for i, n := range nodes {
		if n.Kind != yaml.MappingNode {
			return nil, fmt.Errorf("row %d: expected a mapping", i)
		}
		row := make(models.Row, 0, len(n.Content)/2)
		for j := 0; j+1 < len(n.Content); j += 2 {
			var v any
			if err := n.Content[j+1].Decode(&v); err != nil {
				return nil, fmt.Errorf("row %d column %q: %w", i, n.Content[j].Value, err)
			}
			row = append(row, models.Cell{Column: n.Content[j].Value, Value: v})
		}
		rows = append(rows, row)
	}
	return rows, nil
}

func match(fixtures []Fixture, text string) (Fixture, bool) {
	lower := strings.ToLower(text)
	for _, f := range fixtures {
		if f.Match == "" || strings.Contains(lower, strings.ToLower(f.Match)) {
			return f, true
		}
	}
	return Fixture{}, false
}

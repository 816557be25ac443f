package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Role identifies who authored a message
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Kind tags which content variant a message carries
type Kind string

const (
	KindText Kind = "text"
	KindData Kind = "data"
)

// Source is a citation attached to a retrieval-backed answer
type Source struct {
	Source string `json:"source"`
	Page   string `json:"page,omitempty"`
}

// Cell is one column of a tabular row. Value holds a JSON scalar
// (string, float64, bool or nil).
type Cell struct {
	Column string
	Value  any
}

// Row is an ordered set of cells; order follows the backend response.
type Row []Cell

// Get returns the value stored under column
func (r Row) Get(column string) (any, bool) {
	for _, c := range r {
		if c.Column == column {
			return c.Value, true
		}
	}
	return nil, false
}

// Columns returns the column names in order
func (r Row) Columns() []string {
	cols := make([]string, 0, len(r))
	for _, c := range r {
		cols = append(cols, c.Column)
	}
	return cols
}

// MarshalJSON encodes the row as a JSON object keeping column order
func (r Row) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, c := range r {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(c.Column)
		if err != nil {
			return nil, err
		}
		val, err := json.Marshal(c.Value)
		if err != nil {
			return nil, fmt.Errorf("column %q: %w", c.Column, err)
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// FormatValue renders a cell value for display
func FormatValue(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	default:
		return fmt.Sprint(val)
	}
}

// Message is one entry of the conversation. Kind selects which of Text or
// Rows is meaningful.
type Message struct {
	ID        string    `json:"id"`
	Role      Role      `json:"role"`
	Kind      Kind      `json:"kind"`
	Text      string    `json:"text,omitempty"`
	Rows      []Row     `json:"rows,omitempty"`
	Sources   []Source  `json:"sources,omitempty"`
	Intent    Intent    `json:"intent,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

func newMessage(role Role, kind Kind) Message {
	return Message{
		ID:        uuid.NewString(),
		Role:      role,
		Kind:      kind,
		CreatedAt: time.Now(),
	}
}

// NewUserMessage creates a user message carrying raw text
func NewUserMessage(text string) Message {
	m := newMessage(RoleUser, KindText)
	m.Text = text
	return m
}

// NewAssistantText creates a plain-text assistant message
func NewAssistantText(text string, sources []Source) Message {
	m := newMessage(RoleAssistant, KindText)
	m.Text = text
	m.Sources = sources
	return m
}

// NewAssistantTable creates a tabular assistant message
func NewAssistantTable(rows []Row, sources []Source) Message {
	m := newMessage(RoleAssistant, KindData)
	m.Rows = rows
	m.Sources = sources
	return m
}

// IsUser reports whether the message was authored by the user
func (m Message) IsUser() bool {
	return m.Role == RoleUser
}

// Headers returns the table headers, taken from the first row only.
func (m Message) Headers() []string {
	if len(m.Rows) == 0 {
		return nil
	}
	return m.Rows[0].Columns()
}

// Equal compares two messages structurally, ignoring ID and CreatedAt.
func (m Message) Equal(other Message) bool {
	a, b := m, other
	a.ID, b.ID = "", ""
	a.CreatedAt, b.CreatedAt = time.Time{}, time.Time{}
	return reflect.DeepEqual(a, b)
}

// PlainText returns a terminal-free rendition of the content, used for
// clipboard copies.
func (m Message) PlainText() string {
	if m.Kind != KindData {
		return m.Text
	}
	if len(m.Rows) == 0 {
		return NoDataText
	}

	headers := m.Headers()
	var sb strings.Builder
	sb.WriteString(strings.Join(headers, "\t"))
	for _, row := range m.Rows {
		sb.WriteString("\n")
		for i, h := range headers {
			if i > 0 {
				sb.WriteString("\t")
			}
			v, _ := row.Get(h)
			sb.WriteString(FormatValue(v))
		}
	}
	return sb.String()
}

package models

import (
	"encoding/json"
	"testing"
)

func TestIntentEndpoint(t *testing.T) {
	if IntentQA.Endpoint() != "/chat" {
		t.Errorf("IntentQA.Endpoint() = %s", IntentQA.Endpoint())
	}
	if IntentExtract.Endpoint() != "/extract" {
		t.Errorf("IntentExtract.Endpoint() = %s", IntentExtract.Endpoint())
	}
}

func TestNewMessages(t *testing.T) {
	user := NewUserMessage("hello")
	if user.Role != RoleUser || user.Kind != KindText || user.Text != "hello" {
		t.Errorf("unexpected user message: %+v", user)
	}
	if user.ID == "" || user.CreatedAt.IsZero() {
		t.Error("Expected ID and CreatedAt to be set")
	}
	if !user.IsUser() {
		t.Error("Expected IsUser() to be true")
	}

	text := NewAssistantText("2-hour rated", []Source{{Source: "spec_09.pdf"}})
	if text.Role != RoleAssistant || text.Kind != KindText || len(text.Sources) != 1 {
		t.Errorf("unexpected assistant text: %+v", text)
	}

	table := NewAssistantTable([]Row{{{Column: "Door", Value: "D1"}}}, nil)
	if table.Kind != KindData || len(table.Rows) != 1 || table.Sources != nil {
		t.Errorf("unexpected assistant table: %+v", table)
	}
}

func TestMessageEqual(t *testing.T) {
	a := NewAssistantText("x", nil)
	b := NewAssistantText("x", nil)
	if a.ID == b.ID {
		t.Fatal("Expected distinct IDs")
	}
	if !a.Equal(b) {
		t.Error("Expected messages with same content to be equal")
	}

	c := NewAssistantText("y", nil)
	if a.Equal(c) {
		t.Error("Expected messages with different text to differ")
	}

	d := NewAssistantText("x", []Source{{Source: "a.pdf"}})
	if a.Equal(d) {
		t.Error("Expected messages with different sources to differ")
	}
}

func TestRow(t *testing.T) {
	row := Row{
		{Column: "Door", Value: "D1"},
		{Column: "Width", Value: "36in"},
		{Column: "Count", Value: float64(2)},
	}

	if v, ok := row.Get("Width"); !ok || v != "36in" {
		t.Errorf("Get(Width) = %v, %v", v, ok)
	}
	if _, ok := row.Get("Height"); ok {
		t.Error("Expected missing column")
	}

	cols := row.Columns()
	if len(cols) != 3 || cols[0] != "Door" || cols[2] != "Count" {
		t.Errorf("Columns() = %v", cols)
	}

	data, err := json.Marshal(row)
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}
	if string(data) != `{"Door":"D1","Width":"36in","Count":2}` {
		t.Errorf("Marshal = %s", data)
	}
}

func TestFormatValue(t *testing.T) {
	tests := []struct {
		in   any
		want string
	}{
		{nil, ""},
		{"36in", "36in"},
		{float64(36), "36"},
		{2.5, "2.5"},
		{true, "true"},
	}
	for _, tt := range tests {
		if got := FormatValue(tt.in); got != tt.want {
			t.Errorf("FormatValue(%v) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestHeadersFromFirstRow(t *testing.T) {
	msg := NewAssistantTable([]Row{
		{{Column: "Door", Value: "D1"}},
		{{Column: "Door", Value: "D2"}, {Column: "Width", Value: "30in"}},
	}, nil)

	headers := msg.Headers()
	if len(headers) != 1 || headers[0] != "Door" {
		t.Errorf("Headers() = %v, want [Door]", headers)
	}

	if NewAssistantTable(nil, nil).Headers() != nil {
		t.Error("Expected nil headers for empty table")
	}
}

func TestPlainText(t *testing.T) {
	if got := NewAssistantText("answer", nil).PlainText(); got != "answer" {
		t.Errorf("PlainText() = %q", got)
	}
	if got := NewAssistantTable(nil, nil).PlainText(); got != NoDataText {
		t.Errorf("PlainText() = %q", got)
	}

	table := NewAssistantTable([]Row{
		{{Column: "Door", Value: "D1"}, {Column: "Width", Value: "36in"}},
		{{Column: "Door", Value: "D2"}},
	}, nil)
	want := "Door\tWidth\nD1\t36in\nD2\t"
	if got := table.PlainText(); got != want {
		t.Errorf("PlainText() = %q, want %q", got, want)
	}
}

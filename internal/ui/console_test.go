package ui

import (
	"bytes"
	"errors"
	"strings"
	"testing"
	"unicode/utf8"
)

func TestConsoleWelcome(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	c := NewConsoleTo(&buf)
	c.Welcome()

	out := buf.String()
	for _, want := range []string{"Customer Support Agent", "quit", "clear", "help"} {
		if !strings.Contains(out, want) {
			t.Errorf("Welcome() output missing %q", want)
		}
	}
}

func TestConsoleToolCall(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		tool string
		args map[string]any
		want []string
	}{
		{
			name: "database tool shows the query",
			tool: "query_orders_database",
			args: map[string]any{"query": "status of order 1"},
			want: []string{"query_orders_database", "status of order 1"},
		},
		{
			name: "policy tool shows the question",
			tool: "search_policies",
			args: map[string]any{"question": "return window"},
			want: []string{"search_policies", "return window"},
		},
		{
			name: "unknown tool shows its name",
			tool: "other_tool",
			args: nil,
			want: []string{"other_tool"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			var buf bytes.Buffer
			NewConsoleTo(&buf).ToolCall(tt.tool, tt.args)
			for _, want := range tt.want {
				if !strings.Contains(buf.String(), want) {
					t.Errorf("ToolCall() output missing %q in %q", want, buf.String())
				}
			}
		})
	}
}

func TestConsoleToolCallTruncatesLongQueries(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	long := strings.Repeat("x", 120)
	NewConsoleTo(&buf).ToolCall("query_orders_database", map[string]any{"query": long})
	if !strings.Contains(buf.String(), "...") {
		t.Error("long query was not truncated")
	}
	if strings.Contains(buf.String(), long) {
		t.Error("full 120-char query should not be printed")
	}
}

func TestConsoleToolCallTruncatesOnRuneBoundaries(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	long := strings.Repeat("ü", 120)
	NewConsoleTo(&buf).ToolCall("query_orders_database", map[string]any{"query": long})
	if strings.ContainsRune(buf.String(), utf8.RuneError) {
		t.Errorf("truncation split a multi-byte rune: %q", buf.String())
	}
	if !strings.Contains(buf.String(), "...") {
		t.Error("long query was not truncated")
	}
}

func TestConsoleActivity(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	c := NewConsoleTo(&buf)

	c.Activity("sql-generator", "generating", map[string]any{"attempt": 1})
	if strings.Contains(buf.String(), "retry") {
		t.Error("first attempt should not show a retry marker")
	}

	buf.Reset()
	c.Activity("sql-generator", "generating", map[string]any{"attempt": 3})
	if !strings.Contains(buf.String(), "retry 3") {
		t.Errorf("Activity() = %q, want retry marker", buf.String())
	}
}

func TestConsoleAnswerAndError(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	c := NewConsoleTo(&buf)
	c.Answer("Your order shipped.")
	if !strings.Contains(buf.String(), "Your order shipped.") {
		t.Errorf("Answer() output missing text: %q", buf.String())
	}

	buf.Reset()
	c.Error(errors.New("database unavailable"))
	if !strings.Contains(buf.String(), "database unavailable") {
		t.Errorf("Error() output missing message: %q", buf.String())
	}

	buf.Reset()
	c.Thinking()
	if !strings.Contains(buf.String(), "Thinking...") {
		t.Errorf("Thinking() output missing indicator: %q", buf.String())
	}
}

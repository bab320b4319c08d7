// Package ui renders the terminal surface: the welcome panel, live
// tool-call and activity lines, and agent answers.
package ui

import (
	"fmt"
	"io"
	"os"
	"strings"
	"unicode/utf8"

	"github.com/charmbracelet/lipgloss"
)

var (
	titleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#00BCD4")).
			Bold(true)

	panelStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#00BCD4")).
			Padding(1, 2)

	commandStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#34A853"))

	dimStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#808080"))

	activityStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#808080")).
			Italic(true)

	answerStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#E8EAED"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#EA4335")).
			Bold(true)

	promptStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FBBC04")).
			Bold(true)
)

// Console writes styled output for the interactive session.
type Console struct {
	w io.Writer
}

// NewConsole creates a console writing to stdout.
func NewConsole() *Console {
	return &Console{w: os.Stdout}
}

// NewConsoleTo creates a console writing to w.
func NewConsoleTo(w io.Writer) *Console {
	return &Console{w: w}
}

// Welcome prints the startup panel with the available commands.
func (c *Console) Welcome() {
	body := titleStyle.Render("Customer Support Agent") + "\n\n" +
		"Ask me about orders, products, stock levels, or company policies.\n\n" +
		dimStyle.Render("Commands:") + "\n" +
		"  " + commandStyle.Render("quit") + " or " + commandStyle.Render("exit") + " - Exit the agent\n" +
		"  " + commandStyle.Render("clear") + " - Clear conversation history\n" +
		"  " + commandStyle.Render("help") + " - Show this message"
	fmt.Fprintln(c.w, panelStyle.Render(body))
	fmt.Fprintln(c.w)
}

// Prompt prints the input prompt.
func (c *Console) Prompt() {
	fmt.Fprint(c.w, promptStyle.Render("You: "))
}

// ToolCall shows a tool request as it happens.
func (c *Console) ToolCall(name string, args map[string]any) {
	switch name {
	case "query_orders_database":
		query, _ := args["query"].(string)
		fmt.Fprintln(c.w, dimStyle.Render("  ⚡ Tool: query_orders_database"))
		fmt.Fprintln(c.w, activityStyle.Render("     "+truncate(query, 80)))
	case "search_policies":
		question, _ := args["question"].(string)
		fmt.Fprintln(c.w, dimStyle.Render("  📋 Tool: search_policies"))
		fmt.Fprintln(c.w, activityStyle.Render("     "+truncate(question, 80)))
	default:
		fmt.Fprintln(c.w, dimStyle.Render("  ⚡ Tool: "+name))
	}
}

// Activity shows a sub-agent progress event.
func (c *Console) Activity(component, stage string, details map[string]any) {
	var retry string
	if attempt, ok := asInt(details["attempt"]); ok && attempt > 1 {
		retry = fmt.Sprintf(" (retry %d)", attempt)
	}
	fmt.Fprintln(c.w, dimStyle.Render(fmt.Sprintf("     → %s: %s%s", component, stage, retry)))
}

// Thinking prints the wait indicator shown while the agent works.
func (c *Console) Thinking() {
	fmt.Fprintln(c.w, dimStyle.Render("Thinking..."))
}

// Answer prints the agent's reply.
func (c *Console) Answer(text string) {
	fmt.Fprintln(c.w)
	fmt.Fprintln(c.w, titleStyle.Render("Agent:"))
	fmt.Fprintln(c.w, answerStyle.Render(text))
	fmt.Fprintln(c.w)
}

// Info prints a dim status line.
func (c *Console) Info(msg string) {
	fmt.Fprintln(c.w, dimStyle.Render(msg))
}

// Error prints an error line.
func (c *Console) Error(err error) {
	fmt.Fprintln(c.w, errorStyle.Render("Error: ")+err.Error())
}

// Goodbye prints the exit message.
func (c *Console) Goodbye() {
	fmt.Fprintln(c.w, dimStyle.Render("Goodbye!"))
}

// truncate shortens s to at most n runes, cutting on rune boundaries
// so multi-byte characters are never split.
func truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	runes := []rune(s)
	return strings.TrimSpace(string(runes[:n])) + "..."
}

func asInt(v any) (int, bool) {
	switch n := v.(type) {
	case int:
		return n, true
	case int64:
		return int(n), true
	case float64:
		return int(n), true
	default:
		return 0, false
	}
}

package agent

import (
	"testing"

	"github.com/firebase/genkit/go/ai"
)

func user(text string) *ai.Message  { return ai.NewUserMessage(ai.NewTextPart(text)) }
func model(text string) *ai.Message { return ai.NewModelMessage(ai.NewTextPart(text)) }

func toolResult(name string) *ai.Message {
	return ai.NewMessage(ai.RoleTool, nil, ai.NewToolResponsePart(&ai.ToolResponse{
		Name:   name,
		Output: "ok",
	}))
}

func TestTrimHistory(t *testing.T) {
	t.Parallel()

	t.Run("under the bound is untouched", func(t *testing.T) {
		t.Parallel()
		msgs := []*ai.Message{user("a"), model("b")}
		got := trimHistory(msgs, 10)
		if len(got) != 2 {
			t.Errorf("len = %d, want 2", len(got))
		}
	})

	t.Run("zero bound means unbounded", func(t *testing.T) {
		t.Parallel()
		msgs := []*ai.Message{user("a"), model("b"), user("c"), model("d")}
		if got := trimHistory(msgs, 0); len(got) != 4 {
			t.Errorf("len = %d, want 4", len(got))
		}
	})

	t.Run("keeps the most recent messages", func(t *testing.T) {
		t.Parallel()
		msgs := []*ai.Message{user("a"), model("b"), user("c"), model("d")}
		got := trimHistory(msgs, 2)
		if len(got) != 2 {
			t.Fatalf("len = %d, want 2", len(got))
		}
		if got[0].Text() != "c" || got[1].Text() != "d" {
			t.Errorf("kept %q, %q; want c, d", got[0].Text(), got[1].Text())
		}
	})

	t.Run("drops orphaned leading tool results", func(t *testing.T) {
		t.Parallel()
		msgs := []*ai.Message{
			user("question"),
			model("requesting tools"),
			toolResult("query_orders_database"),
			model("answer"),
			user("next"),
			model("reply"),
		}
		// A bound of 4 would start the window at the tool result.
		got := trimHistory(msgs, 4)
		if len(got) != 3 {
			t.Fatalf("len = %d, want 3", len(got))
		}
		if got[0].Role == ai.RoleTool {
			t.Error("window starts with an orphaned tool message")
		}
	})
}

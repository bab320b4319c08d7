package agent

import "github.com/firebase/genkit/go/ai"

// trimHistory bounds the conversation to the most recent max messages
// without breaking tool-call pairing. After cutting to the window, any
// leading tool-result messages are dropped too: a tool message whose
// requesting model message fell outside the window would otherwise
// reach the provider orphaned.
func trimHistory(msgs []*ai.Message, max int) []*ai.Message {
	if max <= 0 || len(msgs) <= max {
		return msgs
	}
	start := len(msgs) - max
	for start < len(msgs) && msgs[start].Role == ai.RoleTool {
		start++
	}
	return msgs[start:]
}

package tools

import (
	"fmt"

	"github.com/firebase/genkit/go/ai"
	"github.com/firebase/genkit/go/genkit"
)

// OrdersQueryInput is the model-facing argument schema for the orders
// database tool.
type OrdersQueryInput struct {
	Query string `json:"query" jsonschema_description:"Natural language question about orders, customers, products, or stock"`
}

// PolicyQueryInput is the model-facing argument schema for the policy
// search tool.
type PolicyQueryInput struct {
	Question string `json:"question" jsonschema_description:"The policy-related question to search for"`
}

// Declare registers every routed tool with Genkit so the model can
// request it. The Genkit tool functions delegate back to the router;
// the orchestrator normally intercepts tool requests and dispatches
// them itself, so these bodies only run under automatic execution.
func Declare(g *genkit.Genkit, router *Router) error {
	for _, reg := range router.Registrations() {
		switch reg.Name {
		case OrdersToolName:
			genkit.DefineTool(g, reg.Name, reg.Description,
				func(tc *ai.ToolContext, input OrdersQueryInput) (string, error) {
					return router.Dispatch(tc.Context, OrdersToolName, map[string]any{"query": input.Query}, nil)
				})
		case PoliciesToolName:
			genkit.DefineTool(g, reg.Name, reg.Description,
				func(tc *ai.ToolContext, input PolicyQueryInput) (string, error) {
					return router.Dispatch(tc.Context, PoliciesToolName, map[string]any{"question": input.Question}, nil)
				})
		default:
			return fmt.Errorf("tools: no schema declared for %q", reg.Name)
		}
	}
	return nil
}

// Refs looks up the declared tools for passing to generation options.
func Refs(g *genkit.Genkit, router *Router) []ai.ToolRef {
	names := router.Names()
	refs := make([]ai.ToolRef, 0, len(names))
	for _, name := range names {
		if tool := genkit.LookupTool(g, name); tool != nil {
			refs = append(refs, tool)
		}
	}
	return refs
}

// Package sqlgen turns natural-language questions into verified SQL results.
//
// The resolver drives a bounded generate → execute → review loop: a
// generator model proposes a read-only query, the orders store executes it,
// and a reviewer model judges whether the result actually answers the
// question. Failures at any stage become concrete feedback for the next
// generation attempt, which converges much faster than blind resampling.
package sqlgen

import "context"

// Activity receives advisory progress events (component, stage, details).
// Implementations must not block; events never gate control flow.
type Activity func(component, stage string, details map[string]any)

// Generator produces a SQL query for a question, optionally steered by
// feedback from a previous failed attempt. feedback is empty on the first
// attempt.
type Generator interface {
	Generate(ctx context.Context, question, feedback string) (string, error)
}

// Reviewer judges whether an executed query answers the question.
// It returns empty feedback when the query is accepted, or a description
// of the defect otherwise.
type Reviewer interface {
	Review(ctx context.Context, question, query, result string) (string, error)
}

// Executor runs read-only queries against the orders store.
// orders.Store satisfies this interface.
type Executor interface {
	ExecuteQuery(ctx context.Context, query string) ([]map[string]any, error)
}

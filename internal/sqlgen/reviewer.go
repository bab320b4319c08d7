package sqlgen

import (
	"context"
	"fmt"
	"strings"

	"github.com/firebase/genkit/go/ai"
	"github.com/firebase/genkit/go/genkit"
)

// acceptToken is the exact response the reviewer model returns when the
// query passes review. Anything else is treated as feedback.
const acceptToken = "CORRECT"

const reviewerInstructions = `You are a SQL query reviewer.

Think step by step:
1. Understand what the original question is asking for
2. Analyze if the SQL query logic matches the question intent
3. Verify the query results actually answer the question
4. Check for common issues: wrong JOINs, missing WHERE clauses, incorrect aggregations

Output:
- If correct: respond with exactly "CORRECT"
- If incorrect: provide specific, actionable feedback on what's wrong and how to fix it

Database Schema:
%s`

const reviewPrompt = `Original Question: %s

Generated SQL Query:
%s

Query Results:
%s

Evaluate whether this SQL query correctly answers the original question.`

// LLMReviewer validates executed queries with a language model
// (LLM-as-judge).
type LLMReviewer struct {
	g         *genkit.Genkit
	modelName string
	schema    string
}

// NewLLMReviewer creates a reviewer using the given model.
func NewLLMReviewer(g *genkit.Genkit, modelName, schema string) *LLMReviewer {
	return &LLMReviewer{g: g, modelName: modelName, schema: schema}
}

// Review returns empty feedback when the query is accepted.
func (l *LLMReviewer) Review(ctx context.Context, question, query, result string) (string, error) {
	opts := []ai.GenerateOption{
		ai.WithSystem(fmt.Sprintf(reviewerInstructions, l.schema)),
		ai.WithPrompt(reviewPrompt, question, query, result),
	}
	if l.modelName != "" {
		opts = append(opts, ai.WithModelName(l.modelName))
	}

	resp, err := genkit.Generate(ctx, l.g, opts...)
	if err != nil {
		return "", fmt.Errorf("reviewing query: %w", err)
	}

	verdict := strings.TrimSpace(resp.Text())
	if strings.EqualFold(verdict, acceptToken) {
		return "", nil
	}
	return verdict, nil
}

package sqlgen

import (
	"context"
	"fmt"
	"strings"

	"github.com/firebase/genkit/go/ai"
	"github.com/firebase/genkit/go/genkit"
)

const generatorInstructions = `You are a SQL query generator for SQLite.

Think step by step:
1. Analyze the user's question to understand what data they need
2. Identify which tables and columns are relevant from the schema
3. Determine the appropriate JOINs, WHERE clauses, and aggregations
4. Generate the correct SQL query

Rules:
- Only SELECT queries allowed (no INSERT, UPDATE, DELETE)
- Output ONLY the raw SQL query - no explanations, no markdown, no code blocks
- Use exact table and column names from the schema
- If feedback is provided, analyze what went wrong and fix it

Database Schema:
%s`

// LLMGenerator generates SQL queries with a language model.
// The database schema is bound at construction.
type LLMGenerator struct {
	g         *genkit.Genkit
	modelName string
	schema    string
}

// NewLLMGenerator creates a generator using the given model.
func NewLLMGenerator(g *genkit.Genkit, modelName, schema string) *LLMGenerator {
	return &LLMGenerator{g: g, modelName: modelName, schema: schema}
}

// Generate asks the model for a single raw SQL query.
func (l *LLMGenerator) Generate(ctx context.Context, question, feedback string) (string, error) {
	messages := []*ai.Message{
		ai.NewUserMessage(ai.NewTextPart("Question: " + question)),
	}
	if feedback != "" {
		messages = append(messages, ai.NewUserMessage(ai.NewTextPart(
			"Your previous query was incorrect. Feedback: "+feedback+
				"\n\nPlease generate a corrected SQL query.")))
	}

	opts := []ai.GenerateOption{
		ai.WithSystem(fmt.Sprintf(generatorInstructions, l.schema)),
		ai.WithMessages(messages...),
	}
	if l.modelName != "" {
		opts = append(opts, ai.WithModelName(l.modelName))
	}

	resp, err := genkit.Generate(ctx, l.g, opts...)
	if err != nil {
		return "", fmt.Errorf("generating query: %w", err)
	}

	return strings.TrimSpace(resp.Text()), nil
}

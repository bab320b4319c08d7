package tools

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/silacode/customer-support-agent/internal/policy"
)

// PoliciesToolName is the tool the model calls for policy questions.
const PoliciesToolName = "search_policies"

const policiesToolDescription = "Search company policies for information about returns, shipping, warranties, " +
	"and other customer service policies. Use this when customers ask about " +
	"policies, procedures, or general company rules. " +
	"Results include similarity scores; higher is better (0.8 is better than 0.4)."

// noPolicies is returned when the search matches nothing relevant.
const noPolicies = "No relevant policies found."

// PolicySearcher performs semantic search over ingested policy documents.
type PolicySearcher interface {
	Search(ctx context.Context, query string, topK int) ([]policy.Snippet, error)
}

// PoliciesTool returns the registration for the policy-search tool.
// topK caps how many snippets each search returns.
func PoliciesTool(searcher PolicySearcher, topK int) Registration {
	return Registration{
		Name:        PoliciesToolName,
		Description: policiesToolDescription,
		Handler: func(ctx context.Context, args map[string]any, _ ActivityFunc) (string, error) {
			question, ok := args["question"].(string)
			if !ok || question == "" {
				return "", errors.New("missing required argument: question")
			}
			snippets, err := searcher.Search(ctx, question, topK)
			if err != nil {
				return "", fmt.Errorf("searching policies: %w", err)
			}
			return formatSnippets(snippets), nil
		},
	}
}

func formatSnippets(snippets []policy.Snippet) string {
	if len(snippets) == 0 {
		return noPolicies
	}
	blocks := make([]string, 0, len(snippets))
	for _, s := range snippets {
		blocks = append(blocks, fmt.Sprintf("**%s** (score: %.2f)\n%s", s.Title, s.Score, s.Content))
	}
	return strings.Join(blocks, "\n\n---\n\n")
}

package sqlgen

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/silacode/customer-support-agent/internal/orders"
)

// DefaultMaxAttempts bounds the generate-execute-review loop.
const DefaultMaxAttempts = 4

// noResults is returned when no attempt produced any rows.
const noResults = "No results found."

// Result carries the outcome of a resolution loop.
type Result struct {
	// Text is the formatted query result handed back to the caller.
	Text string
	// Query is the last SQL statement that executed successfully,
	// empty when none did.
	Query string
	// Verified reports whether the reviewer accepted the query.
	Verified bool
	// Attempts is the number of generation cycles consumed.
	Attempts int
}

// Resolver runs the reflective text-to-SQL loop: generate a query,
// execute it, have a reviewer judge the result, and feed rejections
// back into the next generation. The loop is bounded; on exhaustion
// the last successfully executed result is returned unverified.
type Resolver struct {
	generator   Generator
	reviewer    Reviewer
	executor    Executor
	maxAttempts int
	logger      *slog.Logger
}

// ResolverOption configures a Resolver.
type ResolverOption func(*Resolver)

// WithMaxAttempts overrides the attempt bound. Values below 1 are ignored.
func WithMaxAttempts(n int) ResolverOption {
	return func(r *Resolver) {
		if n >= 1 {
			r.maxAttempts = n
		}
	}
}

// NewResolver creates a resolver from its three collaborators.
func NewResolver(gen Generator, rev Reviewer, exec Executor, logger *slog.Logger, opts ...ResolverOption) (*Resolver, error) {
	if gen == nil {
		return nil, errors.New("sqlgen: generator is required")
	}
	if rev == nil {
		return nil, errors.New("sqlgen: reviewer is required")
	}
	if exec == nil {
		return nil, errors.New("sqlgen: executor is required")
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	r := &Resolver{
		generator:   gen,
		reviewer:    rev,
		executor:    exec,
		maxAttempts: DefaultMaxAttempts,
		logger:      logger,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r, nil
}

// Resolve answers a natural-language question against the database.
// The returned error is non-nil only for infrastructure failures
// (context cancellation, model errors); bad queries are handled by
// the feedback loop.
func (r *Resolver) Resolve(ctx context.Context, question string, activity Activity) (Result, error) {
	var (
		feedback string
		last     Result
	)

	for attempt := 1; attempt <= r.maxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return last, err
		}

		emit(activity, "sql-generator", "generating", map[string]any{
			"attempt":  attempt,
			"feedback": feedback,
		})

		query, err := r.generator.Generate(ctx, question, feedback)
		if err != nil {
			return last, fmt.Errorf("generating query (attempt %d): %w", attempt, err)
		}
		r.logger.Debug("generated query", "attempt", attempt, "query", query)

		emit(activity, "database", "executing", map[string]any{
			"attempt": attempt,
			"query":   query,
		})

		rows, err := r.executor.ExecuteQuery(ctx, query)
		if err != nil {
			if errors.Is(err, orders.ErrNotReadOnly) {
				feedback = fmt.Sprintf("Query error: %v. Please generate a valid read-only query.", err)
			} else {
				feedback = fmt.Sprintf("Database error: %v. Please fix the query.", err)
			}
			r.logger.Debug("query rejected", "attempt", attempt, "reason", err)
			last.Attempts = attempt
			continue
		}

		text, err := formatRows(rows)
		if err != nil {
			return last, fmt.Errorf("formatting results: %w", err)
		}
		last = Result{Text: text, Query: query, Attempts: attempt}

		emit(activity, "sql-reviewer", "reviewing", map[string]any{
			"query": query,
			"rows":  len(rows),
		})

		verdict, err := r.reviewer.Review(ctx, question, query, text)
		if err != nil {
			return last, fmt.Errorf("reviewing query (attempt %d): %w", attempt, err)
		}
		if verdict == "" {
			last.Verified = true
			r.logger.Debug("query verified", "attempt", attempt)
			return last, nil
		}

		feedback = verdict
		r.logger.Debug("reviewer rejected query", "attempt", attempt, "feedback", verdict)
	}

	// Exhausted. Hand back the best we have rather than nothing.
	if last.Query == "" {
		last.Text = noResults
		last.Attempts = r.maxAttempts
	}
	r.logger.Warn("resolution exhausted without verification",
		"attempts", last.Attempts, "have_result", last.Query != "")
	return last, nil
}

func emit(activity Activity, component, stage string, details map[string]any) {
	if activity != nil {
		activity(component, stage, details)
	}
}

func formatRows(rows []map[string]any) (string, error) {
	if len(rows) == 0 {
		return noResults, nil
	}
	b, err := json.MarshalIndent(rows, "", "  ")
	if err != nil {
		return "", err
	}
	return string(b), nil
}

package sqlgen

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/silacode/customer-support-agent/internal/orders"
)

type stubGenerator struct {
	queries []string
	calls   int
	// feedbacks records the feedback passed to each call.
	feedbacks []string
}

func (s *stubGenerator) Generate(_ context.Context, _ string, feedback string) (string, error) {
	s.feedbacks = append(s.feedbacks, feedback)
	q := s.queries[min(s.calls, len(s.queries)-1)]
	s.calls++
	return q, nil
}

type stubReviewer struct {
	verdicts []string
	calls    int
}

func (s *stubReviewer) Review(_ context.Context, _, _, _ string) (string, error) {
	v := s.verdicts[min(s.calls, len(s.verdicts)-1)]
	s.calls++
	return v, nil
}

type stubExecutor struct {
	rows map[string][]map[string]any
	errs map[string]error
}

func (s *stubExecutor) ExecuteQuery(_ context.Context, query string) ([]map[string]any, error) {
	if err, ok := s.errs[query]; ok {
		return nil, err
	}
	return s.rows[query], nil
}

func newTestResolver(t *testing.T, gen Generator, rev Reviewer, exec Executor, opts ...ResolverOption) *Resolver {
	t.Helper()
	r, err := NewResolver(gen, rev, exec, nil, opts...)
	if err != nil {
		t.Fatalf("NewResolver() error = %v", err)
	}
	return r
}

func TestResolverAcceptsFirstAttempt(t *testing.T) {
	t.Parallel()

	gen := &stubGenerator{queries: []string{"SELECT status FROM orders WHERE id = 1"}}
	rev := &stubReviewer{verdicts: []string{""}}
	exec := &stubExecutor{rows: map[string][]map[string]any{
		"SELECT status FROM orders WHERE id = 1": {{"status": "delivered"}},
	}}

	r := newTestResolver(t, gen, rev, exec)
	got, err := r.Resolve(context.Background(), "What is the status of order 1?", nil)
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if !got.Verified {
		t.Error("Verified = false, want true")
	}
	if got.Attempts != 1 {
		t.Errorf("Attempts = %d, want 1", got.Attempts)
	}
	if gen.calls != 1 || rev.calls != 1 {
		t.Errorf("generator calls = %d, reviewer calls = %d, want 1 each", gen.calls, rev.calls)
	}
	if !strings.Contains(got.Text, "delivered") {
		t.Errorf("Text = %q, want it to contain %q", got.Text, "delivered")
	}
}

func TestResolverFeedsBackWriteRejection(t *testing.T) {
	t.Parallel()

	writeErr := fmt.Errorf("%w: only SELECT statements are allowed", orders.ErrNotReadOnly)
	gen := &stubGenerator{queries: []string{
		"DELETE FROM orders",
		"SELECT id FROM orders",
	}}
	rev := &stubReviewer{verdicts: []string{""}}
	exec := &stubExecutor{
		rows: map[string][]map[string]any{"SELECT id FROM orders": {{"id": int64(1)}}},
		errs: map[string]error{"DELETE FROM orders": writeErr},
	}

	r := newTestResolver(t, gen, rev, exec)
	got, err := r.Resolve(context.Background(), "List order ids", nil)
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if !got.Verified {
		t.Error("Verified = false, want true after recovery")
	}
	if got.Attempts != 2 {
		t.Errorf("Attempts = %d, want 2", got.Attempts)
	}
	if len(gen.feedbacks) != 2 {
		t.Fatalf("generator called %d times, want 2", len(gen.feedbacks))
	}
	if gen.feedbacks[0] != "" {
		t.Errorf("first feedback = %q, want empty", gen.feedbacks[0])
	}
	fb := gen.feedbacks[1]
	if !strings.HasPrefix(fb, "Query error:") || !strings.Contains(fb, "read-only") {
		t.Errorf("second feedback = %q, want a read-only query error", fb)
	}
}

func TestResolverFeedsBackExecutionError(t *testing.T) {
	t.Parallel()

	gen := &stubGenerator{queries: []string{
		"SELECT nope FROM orders",
		"SELECT id FROM orders",
	}}
	rev := &stubReviewer{verdicts: []string{""}}
	exec := &stubExecutor{
		rows: map[string][]map[string]any{"SELECT id FROM orders": {{"id": int64(1)}}},
		errs: map[string]error{"SELECT nope FROM orders": errors.New("no such column: nope")},
	}

	r := newTestResolver(t, gen, rev, exec)
	got, err := r.Resolve(context.Background(), "List order ids", nil)
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if got.Attempts != 2 {
		t.Errorf("Attempts = %d, want 2", got.Attempts)
	}
	fb := gen.feedbacks[1]
	if !strings.HasPrefix(fb, "Database error:") || !strings.Contains(fb, "no such column") {
		t.Errorf("second feedback = %q, want a database error with the cause", fb)
	}
}

func TestResolverExhaustionWithoutAnyResult(t *testing.T) {
	t.Parallel()

	gen := &stubGenerator{queries: []string{"DROP TABLE orders"}}
	rev := &stubReviewer{verdicts: []string{""}}
	exec := &stubExecutor{errs: map[string]error{
		"DROP TABLE orders": orders.ErrNotReadOnly,
	}}

	r := newTestResolver(t, gen, rev, exec)
	got, err := r.Resolve(context.Background(), "Delete everything", nil)
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if got.Verified {
		t.Error("Verified = true, want false")
	}
	if got.Text != "No results found." {
		t.Errorf("Text = %q, want %q", got.Text, "No results found.")
	}
	if got.Attempts != DefaultMaxAttempts {
		t.Errorf("Attempts = %d, want %d", got.Attempts, DefaultMaxAttempts)
	}
	if gen.calls != DefaultMaxAttempts {
		t.Errorf("generator calls = %d, want %d", gen.calls, DefaultMaxAttempts)
	}
}

func TestResolverExhaustionKeepsLastResult(t *testing.T) {
	t.Parallel()

	// Reviewer never accepts; the last executed result is still returned.
	gen := &stubGenerator{queries: []string{"SELECT id FROM orders"}}
	rev := &stubReviewer{verdicts: []string{"the query ignores the date filter"}}
	exec := &stubExecutor{rows: map[string][]map[string]any{
		"SELECT id FROM orders": {{"id": int64(7)}},
	}}

	r := newTestResolver(t, gen, rev, exec, WithMaxAttempts(2))
	got, err := r.Resolve(context.Background(), "Orders from last week", nil)
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if got.Verified {
		t.Error("Verified = true, want false")
	}
	if got.Attempts != 2 {
		t.Errorf("Attempts = %d, want 2", got.Attempts)
	}
	if !strings.Contains(got.Text, "7") {
		t.Errorf("Text = %q, want the last executed rows", got.Text)
	}
	if gen.feedbacks[1] != "the query ignores the date filter" {
		t.Errorf("feedback = %q, want the reviewer verdict passed through", gen.feedbacks[1])
	}
}

func TestResolverEmitsActivity(t *testing.T) {
	t.Parallel()

	gen := &stubGenerator{queries: []string{"SELECT id FROM orders"}}
	rev := &stubReviewer{verdicts: []string{""}}
	exec := &stubExecutor{rows: map[string][]map[string]any{
		"SELECT id FROM orders": {{"id": int64(1)}},
	}}

	var events []string
	attempts := make(map[string]any)
	observe := func(component, stage string, details map[string]any) {
		events = append(events, component+"/"+stage)
		attempts[component+"/"+stage] = details["attempt"]
	}

	r := newTestResolver(t, gen, rev, exec)
	if _, err := r.Resolve(context.Background(), "List order ids", observe); err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}

	want := []string{"sql-generator/generating", "database/executing", "sql-reviewer/reviewing"}
	if len(events) != len(want) {
		t.Fatalf("events = %v, want %v", events, want)
	}
	for i := range want {
		if events[i] != want[i] {
			t.Errorf("events[%d] = %q, want %q", i, events[i], want[i])
		}
	}

	// Generating and executing events both carry the attempt number so
	// the console can show its retry marker on either line.
	for _, stage := range []string{"sql-generator/generating", "database/executing"} {
		if got := attempts[stage]; got != 1 {
			t.Errorf("%s attempt = %v, want 1", stage, got)
		}
	}
}

func TestResolverRespectsContextCancellation(t *testing.T) {
	t.Parallel()

	gen := &stubGenerator{queries: []string{"SELECT 1"}}
	rev := &stubReviewer{verdicts: []string{"try again"}}
	exec := &stubExecutor{rows: map[string][]map[string]any{"SELECT 1": {{"1": int64(1)}}}}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	r := newTestResolver(t, gen, rev, exec)
	if _, err := r.Resolve(ctx, "anything", nil); !errors.Is(err, context.Canceled) {
		t.Errorf("Resolve() error = %v, want context.Canceled", err)
	}
}

func TestNewResolverValidation(t *testing.T) {
	t.Parallel()

	gen := &stubGenerator{queries: []string{"SELECT 1"}}
	rev := &stubReviewer{verdicts: []string{""}}
	exec := &stubExecutor{}

	tests := []struct {
		name string
		gen  Generator
		rev  Reviewer
		exec Executor
	}{
		{"nil generator", nil, rev, exec},
		{"nil reviewer", gen, nil, exec},
		{"nil executor", gen, rev, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if _, err := NewResolver(tt.gen, tt.rev, tt.exec, nil); err == nil {
				t.Error("NewResolver() error = nil, want error")
			}
		})
	}
}

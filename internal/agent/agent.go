// Package agent implements the conversation orchestrator: it owns the
// message history, calls the model, and runs the tool-calling loop
// until the model produces a plain-text answer.
package agent

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/firebase/genkit/go/ai"
	"github.com/firebase/genkit/go/genkit"
	"github.com/google/uuid"
	"golang.org/x/time/rate"

	"github.com/silacode/customer-support-agent/internal/tools"
)

const systemPrompt = `You are a customer support agent for an e-commerce company.

Your scope is limited to:
- Order inquiries (status, tracking, history)
- Product questions (stock, pricing, details)
- Company policies (returns, shipping, warranty)

Think step by step:
1. Understand what the customer is asking
2. Decide which tool(s) to use to get the information
3. Use the tools to retrieve accurate data
4. Provide a helpful, concise response based on the results

Guidelines:
- Always use tools to verify information before responding
- Never guess or make up data
- Be friendly, professional, and concise
- If the customer asks something outside your scope, politely redirect them to customer support topics
- Do not engage in general conversation, jokes, or off-topic discussions
- If you cannot find the requested information, acknowledge it and offer alternatives`

// ErrToolRoundsExceeded is returned when the model keeps requesting
// tools past the configured round bound.
var ErrToolRoundsExceeded = errors.New("tool-calling rounds exceeded")

// Sentinel errors for configuration validation.
var (
	ErrNilGenkit     = errors.New("genkit instance is required")
	ErrNilDispatcher = errors.New("tool dispatcher is required")
)

// Dispatcher executes a tool call requested by the model. It is
// satisfied by *tools.Router.
type Dispatcher interface {
	Dispatch(ctx context.Context, name string, args map[string]any, activity tools.ActivityFunc) (string, error)
}

// ToolCallObserver is notified when the model requests a tool call.
type ToolCallObserver func(name string, args map[string]any)

// ActivityObserver receives progress events from activity-aware tools.
type ActivityObserver func(component, stage string, details map[string]any)

// Config holds orchestrator settings.
type Config struct {
	// ModelName selects the provider model, e.g. "googleai/gemini-2.5-flash".
	ModelName string
	// MaxHistoryMessages bounds the retained conversation. Zero picks the
	// default (200); a negative value disables trimming.
	MaxHistoryMessages int
	// MaxToolRounds bounds tool-calling rounds per user turn.
	MaxToolRounds int
	// ToolTimeout caps each individual tool execution.
	ToolTimeout time.Duration
	// Retry configures model-call retries. Zero value means defaults.
	Retry RetryConfig
	// RequestsPerSecond throttles model calls. 0 disables throttling.
	RequestsPerSecond float64
}

func (c *Config) applyDefaults() {
	if c.MaxHistoryMessages == 0 {
		c.MaxHistoryMessages = 200
	}
	if c.MaxToolRounds <= 0 {
		c.MaxToolRounds = 10
	}
	if c.ToolTimeout <= 0 {
		c.ToolTimeout = 30 * time.Second
	}
	if c.Retry == (RetryConfig{}) {
		c.Retry = DefaultRetryConfig()
	}
}

// Agent is the conversation orchestrator. One Agent holds one
// conversation; Send serializes turns.
type Agent struct {
	id         uuid.UUID
	g          *genkit.Genkit
	dispatcher Dispatcher
	toolRefs   []ai.ToolRef
	cfg        Config
	logger     *slog.Logger

	limiter *rate.Limiter
	breaker *CircuitBreaker
	retry   RetryConfig

	onToolCall ToolCallObserver
	onActivity ActivityObserver

	mu      sync.Mutex
	history []*ai.Message
}

// Option configures an Agent.
type Option func(*Agent)

// WithToolCallObserver sets the tool-call notification callback.
func WithToolCallObserver(fn ToolCallObserver) Option {
	return func(a *Agent) { a.onToolCall = fn }
}

// WithActivityObserver sets the sub-agent activity callback.
func WithActivityObserver(fn ActivityObserver) Option {
	return func(a *Agent) { a.onActivity = fn }
}

// WithCircuitBreaker guards model calls with the given breaker.
func WithCircuitBreaker(cb *CircuitBreaker) Option {
	return func(a *Agent) { a.breaker = cb }
}

// New creates an orchestrator. toolRefs are the declared tools offered
// to the model on every generation; dispatch of the resulting requests
// goes through dispatcher.
func New(g *genkit.Genkit, dispatcher Dispatcher, toolRefs []ai.ToolRef, cfg Config, logger *slog.Logger, opts ...Option) (*Agent, error) {
	if g == nil {
		return nil, ErrNilGenkit
	}
	if dispatcher == nil {
		return nil, ErrNilDispatcher
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	cfg.applyDefaults()

	id := uuid.New()
	a := &Agent{
		id:         id,
		g:          g,
		dispatcher: dispatcher,
		toolRefs:   toolRefs,
		cfg:        cfg,
		logger:     logger.With("conversation", id),
		retry:      cfg.Retry,
	}
	if cfg.RequestsPerSecond > 0 {
		a.limiter = rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), 1)
	}
	for _, opt := range opts {
		opt(a)
	}
	return a, nil
}

// Send processes one user message and returns the agent's answer.
// The tool-calling loop runs until the model answers in plain text or
// the round bound is hit.
func (a *Agent) Send(ctx context.Context, userMessage string) (string, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	// Trim before the turn starts so indices stay stable while the
	// turn's own messages accumulate.
	a.history = trimHistory(a.history, a.cfg.MaxHistoryMessages)
	turnStart := len(a.history)
	a.history = append(a.history, ai.NewUserMessage(ai.NewTextPart(userMessage)))

	for round := 0; round < a.cfg.MaxToolRounds; round++ {
		opts := []ai.GenerateOption{
			ai.WithSystem(systemPrompt),
			ai.WithMessages(a.history...),
			ai.WithTools(a.toolRefs...),
			ai.WithReturnToolRequests(true),
		}
		if a.cfg.ModelName != "" {
			opts = append(opts, ai.WithModelName(a.cfg.ModelName))
		}

		resp, err := a.generateWithRetry(ctx, opts)
		if err != nil {
			// Drop the whole failed turn so it can be retried cleanly.
			a.history = a.history[:turnStart]
			return "", err
		}

		requests := resp.ToolRequests()
		if len(requests) == 0 {
			answer := resp.Text()
			a.history = append(a.history, ai.NewModelMessage(ai.NewTextPart(answer)))
			a.history = trimHistory(a.history, a.cfg.MaxHistoryMessages)
			return answer, nil
		}

		a.logger.Debug("model requested tools", "round", round+1, "count", len(requests))
		beforeRound := len(a.history)
		a.history = append(a.history, resp.Message)

		results, err := a.runTools(ctx, requests)
		if err != nil {
			// Unwind the unanswered request message so the retained
			// history never carries a request without its responses.
			a.history = a.history[:beforeRound]
			return "", err
		}
		a.history = append(a.history, ai.NewMessage(ai.RoleTool, nil, results...))
	}

	a.history = trimHistory(a.history, a.cfg.MaxHistoryMessages)
	return "", fmt.Errorf("%w: %d rounds", ErrToolRoundsExceeded, a.cfg.MaxToolRounds)
}

// runTools dispatches the requested tool calls concurrently. Each call
// gets its own timeout; results keep request order so every request
// part is answered by a matching response part. A call that outlives
// its timeout is abandoned and reported as a timed-out result, so one
// stuck tool never hangs the turn or cancels its siblings.
func (a *Agent) runTools(ctx context.Context, requests []*ai.ToolRequest) ([]*ai.Part, error) {
	parts := make([]*ai.Part, len(requests))
	errs := make([]error, len(requests))

	var wg sync.WaitGroup
	for i, req := range requests {
		wg.Add(1)
		go func(i int, req *ai.ToolRequest) {
			defer wg.Done()
			out, err := a.runTool(ctx, req)
			if err != nil {
				errs[i] = err
				return
			}
			parts[i] = ai.NewToolResponsePart(&ai.ToolResponse{
				Name:   req.Name,
				Ref:    req.Ref,
				Output: out,
			})
		}(i, req)
	}
	wg.Wait()

	if err := errors.Join(errs...); err != nil {
		return nil, err
	}
	return parts, nil
}

type dispatchOutcome struct {
	out string
	err error
}

func (a *Agent) runTool(ctx context.Context, req *ai.ToolRequest) (string, error) {
	args := toolArgs(req.Input)
	if a.onToolCall != nil {
		a.onToolCall(req.Name, args)
	}

	callCtx, cancel := context.WithTimeout(ctx, a.cfg.ToolTimeout)
	defer cancel()

	// Buffered so an abandoned dispatch can still deliver and exit.
	done := make(chan dispatchOutcome, 1)
	go func() {
		out, err := a.dispatcher.Dispatch(callCtx, req.Name, args, tools.ActivityFunc(a.onActivity))
		done <- dispatchOutcome{out: out, err: err}
	}()

	select {
	case res := <-done:
		if res.err != nil {
			return "", fmt.Errorf("dispatching %q: %w", req.Name, res.err)
		}
		return res.out, nil
	case <-callCtx.Done():
		a.logger.Warn("tool call timed out", "tool", req.Name, "timeout", a.cfg.ToolTimeout)
		return fmt.Sprintf("Error executing %s: operation timed out after %s", req.Name, a.cfg.ToolTimeout), nil
	}
}

// ID returns the conversation identifier used in log output.
func (a *Agent) ID() uuid.UUID {
	return a.id
}

// Reset clears the conversation history.
func (a *Agent) Reset() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.history = nil
}

// HistoryLen returns the number of retained messages.
func (a *Agent) HistoryLen() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.history)
}

// History returns a copy of the retained messages.
func (a *Agent) History() []*ai.Message {
	a.mu.Lock()
	defer a.mu.Unlock()
	cp := make([]*ai.Message, len(a.history))
	copy(cp, a.history)
	return cp
}

// toolArgs normalizes a tool request input to a string-keyed map.
func toolArgs(input any) map[string]any {
	switch v := input.(type) {
	case map[string]any:
		return v
	case nil:
		return map[string]any{}
	default:
		// Providers occasionally hand back raw JSON.
		b, err := json.Marshal(v)
		if err != nil {
			return map[string]any{}
		}
		var m map[string]any
		if err := json.Unmarshal(b, &m); err != nil {
			return map[string]any{}
		}
		return m
	}
}

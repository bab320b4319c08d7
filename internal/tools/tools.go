// Package tools provides tool registration and dispatch for the support agent.
//
// Tools are declared with Genkit so the model can request them, but
// execution is owned by the Router: the orchestrator hands each tool
// request to Dispatch, which resolves the handler, runs it, and
// contains any failure as a plain-text result so a single bad tool
// call never aborts the conversation turn.
package tools

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"
)

// ErrUnknownTool is returned by Dispatch when no handler is registered
// under the requested name.
var ErrUnknownTool = errors.New("unknown tool")

// ActivityFunc receives progress events from activity-aware tools.
// component names the emitting part, stage names the phase within it.
type ActivityFunc func(component, stage string, details map[string]any)

// Handler executes a tool call. args carries the model-provided
// arguments; activity may be nil when no observer is attached.
type Handler func(ctx context.Context, args map[string]any, activity ActivityFunc) (string, error)

// Registration describes a dispatchable tool.
type Registration struct {
	// Name is the tool name the model calls it by.
	Name string
	// Description is shown to the model when the tool is declared.
	Description string
	// ActivityAware marks tools that emit progress events.
	ActivityAware bool
	// Handler runs the tool.
	Handler Handler
}

// Router dispatches tool requests to registered handlers.
// Safe for concurrent use.
type Router struct {
	mu       sync.RWMutex
	handlers map[string]Registration
	logger   *slog.Logger
}

// NewRouter creates an empty router.
func NewRouter(logger *slog.Logger) *Router {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Router{
		handlers: make(map[string]Registration),
		logger:   logger,
	}
}

// Register adds a tool. Registering an existing name replaces it.
func (r *Router) Register(reg Registration) error {
	if reg.Name == "" {
		return errors.New("tools: registration requires a name")
	}
	if reg.Handler == nil {
		return fmt.Errorf("tools: registration %q requires a handler", reg.Name)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.handlers[reg.Name] = reg
	return nil
}

// Names returns the registered tool names in sorted order.
func (r *Router) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.handlers))
	for name := range r.handlers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Registrations returns a snapshot of all registrations.
func (r *Router) Registrations() []Registration {
	r.mu.RLock()
	defer r.mu.RUnlock()
	regs := make([]Registration, 0, len(r.handlers))
	for _, reg := range r.handlers {
		regs = append(regs, reg)
	}
	sort.Slice(regs, func(i, j int) bool { return regs[i].Name < regs[j].Name })
	return regs
}

// Dispatch runs the named tool. Handler errors and panics are contained:
// the returned string describes the failure and the conversation keeps
// going. Only an unknown tool name yields a non-nil error, since that
// signals a wiring bug rather than a bad call.
func (r *Router) Dispatch(ctx context.Context, name string, args map[string]any, activity ActivityFunc) (result string, err error) {
	r.mu.RLock()
	reg, ok := r.handlers[name]
	r.mu.RUnlock()
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownTool, name)
	}

	defer func() {
		if rec := recover(); rec != nil {
			r.logger.Error("tool handler panicked", "tool", name, "panic", rec)
			result = fmt.Sprintf("Error executing %s: %v", name, rec)
			err = nil
		}
	}()

	if !reg.ActivityAware {
		activity = nil
	}

	out, herr := reg.Handler(ctx, args, activity)
	if herr != nil {
		r.logger.Warn("tool execution failed", "tool", name, "error", herr)
		return fmt.Sprintf("Error executing %s: %v", name, herr), nil
	}
	return out, nil
}

// Package testutil provides deterministic fakes for tests: a mock
// language model, a mock embedder, and logging helpers.
package testutil

import (
	"context"
	"crypto/sha256"
	"encoding/binary"
	"math"
	"strings"
	"sync"

	"github.com/firebase/genkit/go/ai"
	"github.com/firebase/genkit/go/genkit"
)

// MockModelName is the dotted name the mock model registers under.
const MockModelName = "mock/support-model"

// MockLLM provides deterministic model responses for testing.
// It matches the last user message against registered patterns and
// returns the corresponding response. Tool rules fire once: after the
// tool requests are emitted, the same rule answers with its text,
// which lets a tool-calling loop converge.
//
// Thread-safe for concurrent use.
type MockLLM struct {
	mu       sync.Mutex
	rules    []mockRule
	fallback string
	calls    []MockCall
	err      error
}

type mockRule struct {
	pattern string            // substring match, lower-cased
	text    string            // text response
	tools   []*ai.ToolRequest // tool calls to request before answering
	fired   bool              // tool requests already emitted
}

// MockCall records a single generation request.
type MockCall struct {
	UserMessage string
	Response    string
	// SawToolResult reports whether the request carried tool responses.
	SawToolResult bool
}

// NewMockLLM creates a mock model with the given fallback response.
func NewMockLLM(fallback string) *MockLLM {
	return &MockLLM{fallback: fallback}
}

// AddResponse registers a pattern-response pair. Patterns match
// case-insensitively against the last user message, first match wins.
func (m *MockLLM) AddResponse(pattern, response string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rules = append(m.rules, mockRule{pattern: strings.ToLower(pattern), text: response})
}

// AddToolResponse registers a pattern whose first match requests the
// given tools; the follow-up generation (after tool results arrive)
// returns text.
func (m *MockLLM) AddToolResponse(pattern string, tools []*ai.ToolRequest, text string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rules = append(m.rules, mockRule{pattern: strings.ToLower(pattern), text: text, tools: tools})
}

// FailWith makes every generation return err until cleared with nil.
func (m *MockLLM) FailWith(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = err
}

// Calls returns a copy of all recorded generation requests.
func (m *MockLLM) Calls() []MockCall {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := make([]MockCall, len(m.calls))
	copy(cp, m.calls)
	return cp
}

// Register registers the mock as a Genkit model.
func (m *MockLLM) Register(g *genkit.Genkit) ai.Model {
	return genkit.DefineModel(g, MockModelName, &ai.ModelOptions{
		Label: "Mock Support Model",
		Supports: &ai.ModelSupports{
			Multiturn:  true,
			Tools:      true,
			SystemRole: true,
		},
	}, m.generate)
}

func (m *MockLLM) generate(ctx context.Context, req *ai.ModelRequest, cb ai.ModelStreamCallback) (*ai.ModelResponse, error) {
	var userText string
	for i := len(req.Messages) - 1; i >= 0; i-- {
		if req.Messages[i].Role == ai.RoleUser {
			userText = req.Messages[i].Text()
			break
		}
	}
	sawToolResult := len(req.Messages) > 0 && req.Messages[len(req.Messages)-1].Role == ai.RoleTool

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.err != nil {
		return nil, m.err
	}

	var matched *mockRule
	lower := strings.ToLower(userText)
	for i := range m.rules {
		r := &m.rules[i]
		if !strings.Contains(lower, r.pattern) {
			continue
		}
		// Spent tool rules with no follow-up text yield to later rules.
		if len(r.tools) > 0 && r.fired && r.text == "" {
			continue
		}
		matched = r
		break
	}

	text := m.fallback
	var parts []*ai.Part
	if matched != nil {
		text = matched.text
		if len(matched.tools) > 0 && !matched.fired {
			matched.fired = true
			for _, tr := range matched.tools {
				parts = append(parts, &ai.Part{Kind: ai.PartToolRequest, ToolRequest: tr})
			}
			text = ""
		}
	}

	m.calls = append(m.calls, MockCall{
		UserMessage:   userText,
		Response:      text,
		SawToolResult: sawToolResult,
	})

	if cb != nil && text != "" {
		_ = cb(ctx, &ai.ModelResponseChunk{Content: []*ai.Part{ai.NewTextPart(text)}})
	}

	if text != "" {
		parts = append(parts, ai.NewTextPart(text))
	}

	return &ai.ModelResponse{
		Request: req,
		Message: &ai.Message{Role: ai.RoleModel, Content: parts},
	}, nil
}

// MockEmbedderName is the dotted name the mock embedder registers under.
const MockEmbedderName = "mock/support-embedder"

// MockEmbedder produces deterministic embedding vectors. By default a
// vector is derived from the content hash; explicit mappings give
// precise control over similarity between inputs.
type MockEmbedder struct {
	mu      sync.Mutex
	vectors map[string][]float32
	dim     int
}

// NewMockEmbedder creates a mock embedder with the given dimensions.
func NewMockEmbedder(dim int) *MockEmbedder {
	return &MockEmbedder{vectors: make(map[string][]float32), dim: dim}
}

// SetVector registers an explicit vector for a content string.
func (e *MockEmbedder) SetVector(content string, vec []float32) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.vectors[content] = vec
}

// Register registers the mock as a Genkit embedder.
func (e *MockEmbedder) Register(g *genkit.Genkit) ai.Embedder {
	return genkit.DefineEmbedder(g, MockEmbedderName, &ai.EmbedderOptions{
		Label:      "Mock Support Embedder",
		Dimensions: e.dim,
	}, e.embed)
}

func (e *MockEmbedder) embed(_ context.Context, req *ai.EmbedRequest) (*ai.EmbedResponse, error) {
	embeddings := make([]*ai.Embedding, len(req.Input))
	for i, doc := range req.Input {
		embeddings[i] = &ai.Embedding{Embedding: e.vectorFor(documentText(doc))}
	}
	return &ai.EmbedResponse{Embeddings: embeddings}, nil
}

func (e *MockEmbedder) vectorFor(content string) []float32 {
	e.mu.Lock()
	if v, ok := e.vectors[content]; ok {
		e.mu.Unlock()
		return v
	}
	e.mu.Unlock()
	return deterministicVector(content, e.dim)
}

func documentText(doc *ai.Document) string {
	var sb strings.Builder
	for _, p := range doc.Content {
		if p.Kind == ai.PartText {
			sb.WriteString(p.Text)
		}
	}
	return sb.String()
}

// deterministicVector generates a unit vector from the SHA-256 of
// content. Same content, same vector.
func deterministicVector(content string, dim int) []float32 {
	hash := sha256.Sum256([]byte(content))
	vec := make([]float32, dim)
	for i := range vec {
		idx := (i * 4) % len(hash)
		bits := binary.LittleEndian.Uint32([]byte{
			hash[idx%32], hash[(idx+1)%32], hash[(idx+2)%32], hash[(idx+3)%32],
		})
		vec[i] = (float32(bits)/float32(math.MaxUint32))*2 - 1
	}
	var norm float32
	for _, v := range vec {
		norm += v * v
	}
	norm = float32(math.Sqrt(float64(norm)))
	if norm > 0 {
		for i := range vec {
			vec[i] /= norm
		}
	}
	return vec
}

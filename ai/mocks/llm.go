// Package mocks provides scripted providers for tests.
package mocks

import (
	"context"
	"strings"
	"sync"

	"github.com/hrygo/ticketsense/ai/core/llm"
)

// MockLLM is a configurable llm.Service that records every prompt it receives.
type MockLLM struct {
	mu              sync.Mutex
	responses       map[string]string
	prefixes        []prefixResponse
	handler         func(prompt string) (string, error)
	defaultResponse string
	calls           []string
	callStats       *llm.LLMCallStats
}

type prefixResponse struct {
	prefix string
	output string
}

// NewMockLLM creates a MockLLM answering "Mock response" by default.
func NewMockLLM() *MockLLM {
	return &MockLLM{
		responses: make(map[string]string),
		callStats: &llm.LLMCallStats{
			PromptTokens:     100,
			CompletionTokens: 50,
			TotalTokens:      150,
		},
		defaultResponse: "Mock response",
	}
}

// WithResponse sets the reply for an exact prompt.
func (m *MockLLM) WithResponse(prompt, output string) *MockLLM {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.responses[prompt] = output
	return m
}

// WithPrefixResponse sets the reply for prompts starting with prefix.
// Prefixes are checked in registration order after exact matches.
func (m *MockLLM) WithPrefixResponse(prefix, output string) *MockLLM {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.prefixes = append(m.prefixes, prefixResponse{prefix: prefix, output: output})
	return m
}

// WithDefaultResponse sets the reply used when nothing else matches.
func (m *MockLLM) WithDefaultResponse(output string) *MockLLM {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.defaultResponse = output
	return m
}

// WithHandler replaces all scripted replies with fn.
func (m *MockLLM) WithHandler(fn func(prompt string) (string, error)) *MockLLM {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.handler = fn
	return m
}

// Generate implements llm.Generator.
func (m *MockLLM) Generate(ctx context.Context, prompt string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	m.mu.Lock()
	m.calls = append(m.calls, prompt)
	handler := m.handler
	m.mu.Unlock()

	if handler != nil {
		return handler(prompt)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if out, ok := m.responses[prompt]; ok {
		return out, nil
	}
	for _, p := range m.prefixes {
		if strings.HasPrefix(prompt, p.prefix) {
			return p.output, nil
		}
	}
	return m.defaultResponse, nil
}

// Chat implements llm.Service using the last user message as the prompt.
func (m *MockLLM) Chat(ctx context.Context, msgs []llm.Message) (string, *llm.LLMCallStats, error) {
	prompt := ""
	for i := len(msgs) - 1; i >= 0; i-- {
		if msgs[i].Role == "user" {
			prompt = msgs[i].Content
			break
		}
	}
	out, err := m.Generate(ctx, prompt)
	if err != nil {
		return "", nil, err
	}
	return out, m.callStats, nil
}

// Warmup implements llm.Service.
func (m *MockLLM) Warmup(context.Context) {}

// Calls returns a copy of every prompt received so far.
func (m *MockLLM) Calls() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.calls...)
}

// CallsWithPrefix counts prompts starting with prefix.
func (m *MockLLM) CallsWithPrefix(prefix string) int {
	n := 0
	for _, c := range m.Calls() {
		if strings.HasPrefix(c, prefix) {
			n++
		}
	}
	return n
}

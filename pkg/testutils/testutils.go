// Package testutils provides shared test doubles for the tutoring service.
package testutils

import (
	"context"
	"sync"

	"github.com/Javi111003/OlivIA-RAG/pkg/config"
	"github.com/Javi111003/OlivIA-RAG/pkg/llms"
)

// TestConfig returns a minimal valid configuration for testing.
func TestConfig() *config.Config {
	cfg := &config.Config{
		LLMs: map[string]*config.LLMConfig{
			"default": {
				Provider: config.LLMProviderOllama,
				Model:    "llama3.1",
			},
		},
		Embedders: map[string]*config.EmbedderConfig{
			"default": {
				Provider: config.LLMProviderOllama,
				Model:    "nomic-embed-text",
			},
		},
	}
	cfg.SetDefaults()
	return cfg
}

// MockLLM implements llms.LLMProvider with a script of canned replies.
// Replies are consumed in order; the last one repeats once the script
// runs out. With an empty script it returns the empty string.
type MockLLM struct {
	mu      sync.Mutex
	script  []string
	respond func(messages []llms.Message) string
	err     error
	calls   int
	history [][]llms.Message
}

// NewMockLLM creates a mock with the given reply script.
func NewMockLLM(script ...string) *MockLLM {
	return &MockLLM{script: script}
}

// FailWith makes every subsequent Generate call return err.
func (m *MockLLM) FailWith(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = err
}

// RespondWith installs a function computing the reply from the request
// messages. It takes precedence over the script.
func (m *MockLLM) RespondWith(fn func(messages []llms.Message) string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.respond = fn
}

func (m *MockLLM) Generate(ctx context.Context, messages []llms.Message) (string, int, error) {
	if err := ctx.Err(); err != nil {
		return "", 0, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	copied := append([]llms.Message{}, messages...)
	m.history = append(m.history, copied)
	call := m.calls
	m.calls++

	if m.err != nil {
		return "", 0, m.err
	}
	if m.respond != nil {
		return m.respond(copied), 0, nil
	}
	if len(m.script) == 0 {
		return "", 0, nil
	}
	if call >= len(m.script) {
		call = len(m.script) - 1
	}
	return m.script[call], 0, nil
}

func (m *MockLLM) GetModelName() string { return "mock" }

func (m *MockLLM) GetMaxTokens() int { return 4096 }

func (m *MockLLM) GetTemperature() float64 { return 0.7 }

func (m *MockLLM) Close() error { return nil }

// Calls returns how many times Generate ran.
func (m *MockLLM) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

// LastMessages returns the messages of the most recent call.
func (m *MockLLM) LastMessages() []llms.Message {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.history) == 0 {
		return nil
	}
	return m.history[len(m.history)-1]
}

// Package utils provides token accounting helpers shared across the
// tutoring service.
package utils

import (
	"log/slog"
	"sync"

	"github.com/pkoukk/tiktoken-go"

	"github.com/Javi111003/OlivIA-RAG/pkg/llms"
)

// fallbackCharsPerToken is the rough ratio used when no encoding is
// available.
const fallbackCharsPerToken = 4

var (
	encodingCache = map[string]*tiktoken.Tiktoken{}
	cacheMu       sync.RWMutex
)

// TokenCounter counts tokens for a model. With no encoding loaded it
// estimates at four characters per token.
type TokenCounter struct {
	encoding *tiktoken.Tiktoken
	model    string
}

// NewTokenCounter loads the encoding for a model, falling back to
// cl100k_base and finally to estimation when no encoding can be loaded.
func NewTokenCounter(model string) *TokenCounter {
	cacheMu.RLock()
	cached, ok := encodingCache[model]
	cacheMu.RUnlock()
	if ok {
		return &TokenCounter{encoding: cached, model: model}
	}

	encoding, err := tiktoken.EncodingForModel(model)
	if err != nil {
		encoding, err = tiktoken.GetEncoding("cl100k_base")
	}
	if err != nil {
		slog.Warn("No token encoding available, estimating counts", "model", model)
		return &TokenCounter{model: model}
	}

	cacheMu.Lock()
	encodingCache[model] = encoding
	cacheMu.Unlock()

	return &TokenCounter{encoding: encoding, model: model}
}

// NewEstimator returns a counter that only estimates. It never touches
// encoding data, which keeps it safe for offline use.
func NewEstimator() *TokenCounter {
	return &TokenCounter{model: "estimator"}
}

// Count returns the token count for a text.
func (tc *TokenCounter) Count(text string) int {
	if tc == nil || tc.encoding == nil {
		return len(text) / fallbackCharsPerToken
	}
	return len(tc.encoding.Encode(text, nil, nil))
}

// CountMessages counts tokens in a message list including the per
// message role overhead of the OpenAI chat format.
func (tc *TokenCounter) CountMessages(messages []llms.Message) int {
	const tokensPerMessage = 3

	total := 0
	for _, msg := range messages {
		total += tokensPerMessage
		total += tc.Count(string(msg.Role))
		total += tc.Count(msg.Content)
	}
	// reply priming
	total += 3

	return total
}

// FitWithinLimit keeps the most recent messages that fit the budget.
func (tc *TokenCounter) FitWithinLimit(messages []llms.Message, maxTokens int) []llms.Message {
	if len(messages) == 0 {
		return messages
	}

	fitted := []llms.Message{}
	current := 3

	for i := len(messages) - 1; i >= 0; i-- {
		cost := tc.CountMessages(messages[i : i+1])
		if current+cost > maxTokens {
			break
		}
		fitted = append([]llms.Message{messages[i]}, fitted...)
		current += cost
	}

	return fitted
}

// Model returns the model this counter was built for.
func (tc *TokenCounter) Model() string {
	return tc.model
}

package utils

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/Javi111003/OlivIA-RAG/pkg/llms"
)

func TestEstimatorCountsByCharRatio(t *testing.T) {
	tc := NewEstimator()

	assert.Equal(t, 0, tc.Count(""))
	assert.Equal(t, 3, tc.Count("abcdefghijklm"))
	assert.Equal(t, 25, tc.Count(strings.Repeat("x", 100)))
}

func TestNilCounterEstimates(t *testing.T) {
	var tc *TokenCounter
	assert.Equal(t, 2, tc.Count("12345678"))
}

func TestCountMessagesIncludesOverhead(t *testing.T) {
	tc := NewEstimator()
	messages := []llms.Message{
		llms.User("hello there"),
		llms.Assistant("hi"),
	}

	// two messages at 3 tokens overhead each, plus 3 priming tokens
	perContent := tc.Count(string(llms.RoleUser)) + tc.Count("hello there") +
		tc.Count(string(llms.RoleAssistant)) + tc.Count("hi")
	assert.Equal(t, perContent+9, tc.CountMessages(messages))
}

func TestFitWithinLimitKeepsMostRecent(t *testing.T) {
	tc := NewEstimator()
	messages := []llms.Message{
		llms.User(strings.Repeat("a", 400)),
		llms.User(strings.Repeat("b", 400)),
		llms.User(strings.Repeat("c", 40)),
	}

	fitted := tc.FitWithinLimit(messages, 120)

	assert.Len(t, fitted, 1)
	assert.Contains(t, fitted[0].Content, "c")
}

func TestFitWithinLimitKeepsAllWhenBudgetAllows(t *testing.T) {
	tc := NewEstimator()
	messages := []llms.Message{llms.User("short"), llms.User("texts")}

	assert.Equal(t, messages, tc.FitWithinLimit(messages, 1000))
}

func TestFitWithinLimitEmpty(t *testing.T) {
	tc := NewEstimator()
	assert.Empty(t, tc.FitWithinLimit(nil, 100))
}

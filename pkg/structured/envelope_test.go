package structured

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Javi111003/OlivIA-RAG/pkg/llms"
	"github.com/Javi111003/OlivIA-RAG/pkg/testutils"
)

type toyDecision struct {
	Next   string `json:"next" jsonschema:"description=Agent to route to"`
	Reason string `json:"reason"`
}

func TestInvokeStructuredDirectJSON(t *testing.T) {
	mock := testutils.NewMockLLM(`{"next":"math_expert","reason":"algebra question"}`)
	env := New(mock)

	var decision toyDecision
	err := env.InvokeStructured(context.Background(), []llms.Message{llms.User("route this")}, &decision)
	require.NoError(t, err)
	assert.Equal(t, "math_expert", decision.Next)

	// schema instructions are appended as a trailing system message
	last := mock.LastMessages()
	require.NotEmpty(t, last)
	assert.Equal(t, llms.RoleSystem, last[len(last)-1].Role)
	assert.Contains(t, last[len(last)-1].Content, "JSON schema")
}

func TestInvokeStructuredEmbeddedJSON(t *testing.T) {
	mock := testutils.NewMockLLM("Sure! Here is the routing decision:\n```json\n{\"next\":\"evaluator\",\"reason\":\"a {weird} one\"}\n```\nHope that helps.")
	env := New(mock)

	var decision toyDecision
	err := env.InvokeStructured(context.Background(), nil, &decision)
	require.NoError(t, err)
	assert.Equal(t, "evaluator", decision.Next)
}

func TestInvokeStructuredMalformedKeepsDefaults(t *testing.T) {
	mock := testutils.NewMockLLM("I cannot answer that in JSON, sorry.")
	env := New(mock)

	decision := toyDecision{Next: "math_expert", Reason: "default"}
	err := env.InvokeStructured(context.Background(), nil, &decision)
	require.ErrorIs(t, err, ErrMalformed)
	assert.Equal(t, "math_expert", decision.Next)
	assert.Equal(t, "default", decision.Reason)
}

func TestInvokeStructuredProviderError(t *testing.T) {
	mock := testutils.NewMockLLM()
	mock.FailWith(assert.AnError)
	env := New(mock)

	var decision toyDecision
	err := env.InvokeStructured(context.Background(), nil, &decision)
	assert.ErrorIs(t, err, ErrMalformed)
}

func TestExtractJSONObject(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
		ok    bool
	}{
		{"bare object", `{"a":1}`, `{"a":1}`, true},
		{"leading prose", `reply: {"a":1} done`, `{"a":1}`, true},
		{"nested braces", `x {"a":{"b":2}} y`, `{"a":{"b":2}}`, true},
		{"brace inside string", `{"a":"}{"}`, `{"a":"}{"}`, true},
		{"escaped quote in string", `{"a":"say \"}\" loud"}`, `{"a":"say \"}\" loud"}`, true},
		{"unbalanced", `{"a":1`, "", false},
		{"no object", "plain text", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := extractJSONObject(tt.input)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

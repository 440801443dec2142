package agents

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Javi111003/OlivIA-RAG/pkg/conversation"
	"github.com/Javi111003/OlivIA-RAG/pkg/knowledge"
	"github.com/Javi111003/OlivIA-RAG/pkg/structured"
	"github.com/Javi111003/OlivIA-RAG/pkg/testutils"
)

func TestMathExpertRendersStructuredExplanation(t *testing.T) {
	mock := testutils.NewMockLLM(`{
		"explanation": "A derivative measures instantaneous change.",
		"formulas": ["f'(x) = lim h->0 (f(x+h)-f(x))/h"],
		"difficulty_level": "basic",
		"related_concepts": ["limits", "slope"]
	}`)
	expert := NewMathExpert(structured.New(mock), nil)
	state := conversation.NewState("Explain what is a derivative")

	require.NoError(t, expert.Run(context.Background(), state))

	rendered := state.Responses[AgentMathExpert]
	assert.Contains(t, rendered, "instantaneous change")
	assert.Contains(t, rendered, "**Formulas:**")
	assert.Contains(t, rendered, "**Related concepts:** limits, slope")
	assert.Equal(t, "math_expert_done", state.Control.CurrentStateTag)

	last := state.ChatHistory[len(state.ChatHistory)-1]
	assert.Equal(t, conversation.RoleMathExpert, last.Role)
}

func TestMathExpertFallbackOnMalformedOutput(t *testing.T) {
	expert := NewMathExpert(structured.New(testutils.NewMockLLM("not json at all")), nil)
	state := conversation.NewState("Explain logarithms")

	require.NoError(t, expert.Run(context.Background(), state))

	rendered := state.Responses[AgentMathExpert]
	assert.Contains(t, rendered, "could not generate a full explanation")
	assert.Contains(t, rendered, "Explain logarithms")
	assert.Equal(t, "math_expert_done", state.Control.CurrentStateTag)
}

func TestMathExpertAnaphoricQueryIgnoresRetrievedContext(t *testing.T) {
	mock := testutils.NewMockLLM(`{"explanation":"As discussed, the theorem states a*a + b*b = c*c.","difficulty_level":"basic"}`)
	expert := NewMathExpert(structured.New(mock), nil)

	state := conversation.NewState("Can you expand on the theorem we mentioned earlier?")
	state.RetrievedContext = []conversation.Document{
		{Content: "Totally unrelated retrieved passage about statistics."},
	}
	state.AppendTurn(conversation.RoleMathExpert, "The Pythagorean theorem relates the sides of a right triangle.", nil)

	require.NoError(t, expert.Run(context.Background(), state))

	prompt := mock.LastMessages()
	require.NotEmpty(t, prompt)
	text := prompt[0].Content
	assert.Contains(t, text, "do NOT use retrieved material")
	assert.Contains(t, text, "Pythagorean theorem")
	assert.NotContains(t, text, "unrelated retrieved passage")
}

func TestMathExpertNonAnaphoricQueryUsesRetrievedContext(t *testing.T) {
	mock := testutils.NewMockLLM(`{"explanation":"ok","difficulty_level":"basic"}`)
	expert := NewMathExpert(structured.New(mock), nil)

	state := conversation.NewState("Explain quadratic equations")
	state.RetrievedContext = []conversation.Document{
		{Content: "A quadratic equation has the form ax^2+bx+c=0."},
	}

	require.NoError(t, expert.Run(context.Background(), state))

	text := mock.LastMessages()[0].Content
	assert.Contains(t, text, "Reference material")
	assert.Contains(t, text, "ax^2+bx+c=0")
}

func TestIsAnaphoric(t *testing.T) {
	assert.True(t, isAnaphoric("what about the formula we talked about?"))
	assert.True(t, isAnaphoric("no entiendo lo que mencionamos antes"))
	assert.False(t, isAnaphoric("explain matrix multiplication"))
}

func TestMathExpertUpdatesKnowledgeProfile(t *testing.T) {
	// explainer succeeds, analyzer degrades to deterministic drift
	expert := NewMathExpert(
		structured.New(testutils.NewMockLLM(`{"explanation":"Linear equations have degree one.","difficulty_level":"basic"}`)),
		knowledge.NewUpdater(structured.New(testutils.NewMockLLM("garbled"))),
	)

	state := conversation.NewState("I don't understand linear equations")
	before := state.StudentProfile.Knowledge.Areas["linear_equations"].Score

	require.NoError(t, expert.Run(context.Background(), state))

	after := state.StudentProfile.Knowledge.Areas["linear_equations"].Score
	assert.InDelta(t, before-1, after, 1e-9)
	assert.Contains(t, state.StudentProfile.ErrorHistory, "general comprehension gap")
}

func TestPromoteComprehension(t *testing.T) {
	p := conversation.NewStudentProfile()
	require.Equal(t, conversation.LevelBeginner, p.ComprehensionLevel)

	promoteComprehension(p, "basic")
	assert.Equal(t, conversation.LevelBeginner, p.ComprehensionLevel)

	promoteComprehension(p, "advanced")
	assert.Equal(t, conversation.LevelIntermediate, p.ComprehensionLevel)

	// never promotes past intermediate on a single interaction
	promoteComprehension(p, "advanced")
	assert.Equal(t, conversation.LevelIntermediate, p.ComprehensionLevel)
}

func TestDifficultyFor(t *testing.T) {
	assert.Equal(t, "advanced", difficultyFor(conversation.LevelAdvanced))
	assert.Equal(t, "intermediate", difficultyFor(conversation.LevelIntermediate))
	assert.Equal(t, "basic", difficultyFor(conversation.LevelBeginner))
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", truncate("short", 10))
	long := strings.Repeat("x", 20)
	assert.Equal(t, long[:10]+"...", truncate(long, 10))
}

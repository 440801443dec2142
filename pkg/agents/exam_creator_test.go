package agents

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Javi111003/OlivIA-RAG/pkg/conversation"
	"github.com/Javi111003/OlivIA-RAG/pkg/structured"
	"github.com/Javi111003/OlivIA-RAG/pkg/testutils"
)

func TestExamCreatorRendersStructuredExam(t *testing.T) {
	mock := testutils.NewMockLLM(`{
		"exam_title": "Fractions practice",
		"questions": ["Add 1/2 + 1/3", "Simplify 6/8"],
		"difficulty_level": "basic",
		"estimated_time_minutes": 30,
		"topics_covered": ["fractions"]
	}`)
	creator := NewExamCreator(structured.New(mock))
	state := conversation.NewState("Create a quiz about fractions")

	require.NoError(t, creator.Run(context.Background(), state))

	rendered := state.Responses[AgentExamCreator]
	assert.Contains(t, rendered, "# Fractions practice")
	assert.Contains(t, rendered, "1. Add 1/2 + 1/3")
	assert.Contains(t, rendered, "**Estimated time:** 30 minutes")
	assert.Contains(t, rendered, "**Topics covered:** fractions")
	assert.Contains(t, rendered, "_Generated by OlivIA_")
	assert.Equal(t, "exam_creator_done", state.Control.CurrentStateTag)
}

func TestExamCreatorRejectsExamWithoutQuestions(t *testing.T) {
	mock := testutils.NewMockLLM(`{"exam_title":"Empty","questions":[],"estimated_time_minutes":60}`)
	creator := NewExamCreator(structured.New(mock))
	state := conversation.NewState("Create a quiz about fractions")

	require.NoError(t, creator.Run(context.Background(), state))

	assert.Contains(t, state.Responses[AgentExamCreator], "Practice exam: Create a quiz about fractions")
}

func TestExamCreatorFallbackByLevel(t *testing.T) {
	tests := []struct {
		level     conversation.ComprehensionLevel
		questions int
		minutes   int
	}{
		{conversation.LevelBeginner, 3, 45},
		{conversation.LevelIntermediate, 4, 75},
		{conversation.LevelAdvanced, 4, 90},
	}

	for _, tt := range tests {
		t.Run(string(tt.level), func(t *testing.T) {
			exam := fallbackExam("derivatives", tt.level)
			assert.Len(t, exam.Questions, tt.questions)
			assert.Equal(t, tt.minutes, exam.EstimatedTimeMinutes)
			assert.Equal(t, []string{"derivatives"}, exam.TopicsCovered)
		})
	}
}

func TestExamCreatorFallbackQuestionMix(t *testing.T) {
	beginner := fallbackExam("limits", conversation.LevelBeginner)
	for _, q := range beginner.Questions {
		assert.Contains(t, q, "limits")
	}
	assert.Equal(t, "basic", beginner.DifficultyLevel)

	advanced := fallbackExam("limits", conversation.LevelAdvanced)
	assert.Equal(t, "advanced", advanced.DifficultyLevel)
	assert.Contains(t, advanced.Questions[0], "Apply the main method")
	assert.Contains(t, advanced.Questions[2], "Prove or justify")
}

func TestExamCreatorPromptSizesToLevel(t *testing.T) {
	mock := testutils.NewMockLLM(`{"exam_title":"t","questions":["q"],"estimated_time_minutes":10}`)
	creator := NewExamCreator(structured.New(mock))

	state := conversation.NewState("Generate an exam on trigonometry")
	state.StudentProfile.ComprehensionLevel = conversation.LevelAdvanced

	require.NoError(t, creator.Run(context.Background(), state))

	assert.Contains(t, mock.LastMessages()[0].Content, "2 intermediate and 2 advanced questions")
}

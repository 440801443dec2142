package agents

import (
	"context"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Javi111003/OlivIA-RAG/pkg/config"
	"github.com/Javi111003/OlivIA-RAG/pkg/conversation"
	"github.com/Javi111003/OlivIA-RAG/pkg/planner"
	"github.com/Javi111003/OlivIA-RAG/pkg/structured"
	"github.com/Javi111003/OlivIA-RAG/pkg/testutils"
)

func planningOptimizer() *planner.Optimizer {
	cfg := &config.PlannerConfig{}
	cfg.SetDefaults()
	cfg.Generations = 3
	return planner.NewOptimizer(cfg, rand.New(rand.NewSource(11)))
}

func TestPlanningFallsBackToDirectPlan(t *testing.T) {
	agent := NewPlanning(structured.New(testutils.NewMockLLM("not json")), planningOptimizer())
	state := conversation.NewState("I need a study plan")

	require.NoError(t, agent.Run(context.Background(), state))

	rendered := state.Responses[AgentPlanning]
	assert.Contains(t, rendered, "# Personalized study plan")
	assert.Contains(t, rendered, "**Total time:**")
	assert.Contains(t, rendered, "**Plan score:**")
	assert.Equal(t, "planning_done", state.Control.CurrentStateTag)
}

func TestPlanningUsesLLMDescriptions(t *testing.T) {
	agent := NewPlanning(structured.New(testutils.NewMockLLM(
		`{"plan":[{"topic":"basic_arithmetic","topic_description":"Drill mental arithmetic daily.","time_allocated":3.5}],"score":0.82}`,
	)), planningOptimizer())
	state := conversation.NewState("make me a schedule")

	require.NoError(t, agent.Run(context.Background(), state))

	rendered := state.Responses[AgentPlanning]
	assert.Contains(t, rendered, "Drill mental arithmetic daily.")
	assert.Contains(t, rendered, "basic_arithmetic")
}

func TestPlanInputsScalesProfileToOptimizerRanges(t *testing.T) {
	state := conversation.NewState("plan")
	topics, student := planInputs(state.StudentProfile.Knowledge)

	require.Len(t, topics, len(state.StudentProfile.Knowledge.Areas))
	for id, topic := range topics {
		assert.Equal(t, id, topic.Name)
		assert.GreaterOrEqual(t, topic.ExamWeight, 0.0)
		assert.LessOrEqual(t, topic.ExamWeight, 1.0)
		assert.GreaterOrEqual(t, topic.BaseDifficulty, 0.0)
		assert.LessOrEqual(t, topic.BaseDifficulty, 1.0)
	}
	// fresh profiles start every area at 5.0
	for _, mastery := range student.TopicMastery {
		assert.InDelta(t, 5.0, mastery, 1e-9)
	}
}

func TestDirectPlanUsesAreaDisplayNames(t *testing.T) {
	state := conversation.NewState("plan")
	topics, student := planInputs(state.StudentProfile.Knowledge)
	result := planningOptimizer().Optimize(topics, student)

	response := directPlan(&result, state.StudentProfile.Knowledge)
	require.NotEmpty(t, response.Plan)
	assert.Equal(t, result.BestScore, response.Score)
	for _, item := range response.Plan {
		assert.NotEmpty(t, item.TopicDescription)
		assert.Greater(t, item.TimeAllocated, 0.0)
	}
}

package pipeline

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Javi111003/OlivIA-RAG/pkg/agents"
	"github.com/Javi111003/OlivIA-RAG/pkg/databases"
	"github.com/Javi111003/OlivIA-RAG/pkg/llms"
	"github.com/Javi111003/OlivIA-RAG/pkg/testutils"
)

type stubEmbedder struct{}

func (stubEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	return []float32{0.1, 0.2, 0.3}, nil
}
func (stubEmbedder) GetDimension() int { return 3 }

func (stubEmbedder) GetModelName() string { return "stub-embedder" }

func (stubEmbedder) Close() error { return nil }

type failingEmbedder struct{ stubEmbedder }

func (failingEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	return nil, errors.New("embedder offline")
}

type stubDatabase struct {
	results []databases.SearchResult
}

func (s *stubDatabase) Upsert(ctx context.Context, collection, id string, vector []float32, metadata map[string]interface{}) error {
	return nil
}

func (s *stubDatabase) Search(ctx context.Context, collection string, vector []float32, topK int) ([]databases.SearchResult, error) {
	return s.results, nil
}

func (s *stubDatabase) CreateCollection(ctx context.Context, collection string, vectorSize uint64) error {
	return nil
}

func (s *stubDatabase) DeleteCollection(ctx context.Context, collection string) error {
	return nil
}

func (s *stubDatabase) Close() error { return nil }

// scriptedTutor answers each agent prompt by recognizing its preamble.
// The supervisor replies come from the given sequence, repeating the
// last one.
func scriptedTutor(supervisorReplies ...string) *testutils.MockLLM {
	mock := testutils.NewMockLLM()
	supervisorCall := 0

	mock.RespondWith(func(messages []llms.Message) string {
		prompt := messages[0].Content
		switch {
		case strings.Contains(prompt, "You are the supervisor"):
			idx := supervisorCall
			if idx >= len(supervisorReplies) {
				idx = len(supervisorReplies) - 1
			}
			supervisorCall++
			return supervisorReplies[idx]

		case strings.Contains(prompt, "patient mathematics tutor"):
			return `{"explanation":"A linear equation has degree one and a single solution.","formulas":["ax + b = 0"],"difficulty_level":"basic"}`

		case strings.Contains(prompt, "practice exams"):
			return `{"exam_title":"Algebra check","questions":["Solve 2x+3=7","Solve x-4=1"],"difficulty_level":"basic","estimated_time_minutes":40,"topics_covered":["algebra"]}`

		case strings.Contains(prompt, "optimized study plan"):
			return `{"plan":[{"topic":"elementary_algebra","topic_description":"Review symbol manipulation.","time_allocated":3}],"score":0.7}`

		case strings.Contains(prompt, "evaluating a tutoring system response"):
			return `{"correctness_score":0.9,"clarity_score":0.9,"completeness_score":0.9,"relevance_score":0.9,"adaptation_score":0.9,"overall_quality":"good","is_sufficient":true,"needs_more_context":false}`

		case strings.Contains(prompt, "assessing a student's mathematical knowledge"):
			return `{"areas_analyzed":["linear_equations"],"knowledge_updates":{"linear_equations":{"new_score":6,"confidence":"medium"}},"overall_assessment":"improving"}`

		default:
			return ""
		}
	})
	return mock
}

func chooseAgent(name string) string {
	return `{"next_agent":"` + name + `","reasoning":"scripted","confidence":0.9}`
}

func newTestPipeline(t *testing.T, llm llms.LLMProvider) *Pipeline {
	t.Helper()
	p, err := NewWithComponents(testutils.TestConfig(), Components{
		LLM:      llm,
		Embedder: stubEmbedder{},
		Database: &stubDatabase{results: []databases.SearchResult{
			{ID: "1", Score: 0.9, Content: "A linear equation is a first degree polynomial equation."},
		}},
	})
	require.NoError(t, err)
	return p
}

func TestPipelineExplanationFlow(t *testing.T) {
	llm := scriptedTutor(
		chooseAgent(agents.AgentMathExpert),
		chooseAgent(agents.AgentEvaluator),
		chooseAgent(agents.AgentFinish),
	)
	p := newTestPipeline(t, llm)

	result, err := p.Run(context.Background(), "Explain linear equations")

	require.NoError(t, err)
	assert.Contains(t, result.Answer, "degree one")
	assert.Contains(t, result.Answer, "**Formulas:**")
	assert.False(t, result.Degraded)
	// retriever + 3 supervisor turns + math expert + evaluator
	assert.Equal(t, 6, result.Steps)
	assert.Equal(t, "FINISH", result.State.Control.CurrentStateTag)
	assert.NotEmpty(t, result.State.RetrievedContext)
}

func TestPipelineExamFlow(t *testing.T) {
	llm := scriptedTutor(
		chooseAgent(agents.AgentExamCreator),
		chooseAgent(agents.AgentEvaluator),
		chooseAgent(agents.AgentFinish),
	)
	p := newTestPipeline(t, llm)

	result, err := p.Run(context.Background(), "Create a quiz about algebra")

	require.NoError(t, err)
	assert.Contains(t, result.Answer, "# Algebra check")
	assert.Contains(t, result.Answer, "Solve 2x+3=7")
	assert.True(t, result.State.HasResponse(agents.AgentExamCreator))
}

func TestPipelinePlanningFlow(t *testing.T) {
	llm := scriptedTutor(
		chooseAgent(agents.AgentPlanning),
		chooseAgent(agents.AgentEvaluator),
		chooseAgent(agents.AgentFinish),
	)
	p := newTestPipeline(t, llm)

	result, err := p.Run(context.Background(), "I need a study plan")

	require.NoError(t, err)
	assert.Contains(t, result.Answer, "# Personalized study plan")
	assert.Contains(t, result.Answer, "Review symbol manipulation.")
}

func TestPipelineFullyDegradedStillAnswers(t *testing.T) {
	llm := testutils.NewMockLLM()
	llm.FailWith(errors.New("provider unavailable"))
	p := newTestPipeline(t, llm)

	result, err := p.Run(context.Background(), "Explain linear equations")

	require.NoError(t, err)
	assert.Contains(t, result.Answer, "could not generate a full explanation")
	assert.Equal(t, "FINISH", result.State.Control.CurrentStateTag)
}

func TestPipelineDegradedRetrievalTagsState(t *testing.T) {
	// a one-step run stops right after the retriever, before any
	// later node can overwrite the state tag
	cfg := testutils.TestConfig()
	cfg.Tutor.MaxSteps = 1
	p, err := NewWithComponents(cfg, Components{
		LLM:      scriptedTutor(chooseAgent(agents.AgentFinish)),
		Embedder: failingEmbedder{},
		Database: &stubDatabase{},
	})
	require.NoError(t, err)

	result, err := p.Run(context.Background(), "Explain derivatives")

	require.NoError(t, err)
	assert.Equal(t, tagRetrieverDegraded, result.State.Control.CurrentStateTag)
	// placeholder documents keep the run going
	require.Len(t, result.State.RetrievedContext, 2)
	assert.Contains(t, result.State.RetrievedContext[0].Content, "derivatives")
}

func TestPipelineOscillationIsCapped(t *testing.T) {
	// a supervisor that never finishes
	llm := scriptedTutor(chooseAgent(agents.AgentMathExpert))
	p := newTestPipeline(t, llm)

	result, err := p.Run(context.Background(), "Explain linear equations")

	require.NoError(t, err)
	assert.True(t, result.Degraded)
	assert.Equal(t, p.cfg.Tutor.MaxSteps, result.Steps)
	assert.True(t, strings.HasSuffix(result.Answer, agents.IncompleteNote))
}

func TestPipelineNoResponseFallsBackToApology(t *testing.T) {
	// the supervisor immediately finishes without any specialist running
	llm := scriptedTutor(chooseAgent(agents.AgentFinish))
	p := newTestPipeline(t, llm)

	result, err := p.Run(context.Background(), "hello there")

	require.NoError(t, err)
	assert.Equal(t, agents.NoAdequateResponse, result.Answer)
}

func TestPipelineMermaidTopology(t *testing.T) {
	p := newTestPipeline(t, testutils.NewMockLLM())

	rendered, err := p.Mermaid()
	require.NoError(t, err)

	for _, node := range []string{"retriever", "supervisor", "math_expert", "exam_creator", "planning", "evaluator"} {
		assert.Contains(t, rendered, node)
	}
	assert.Contains(t, rendered, "retriever --> supervisor")
	assert.Contains(t, rendered, "supervisor -.-> FINISH")
}

func TestPipelineCapsRetrievedContextByTokens(t *testing.T) {
	huge := strings.Repeat("polynomial ", 1000)
	llm := scriptedTutor(chooseAgent(agents.AgentFinish))
	p, err := NewWithComponents(testutils.TestConfig(), Components{
		LLM:      llm,
		Embedder: stubEmbedder{},
		Database: &stubDatabase{results: []databases.SearchResult{
			{ID: "1", Score: 0.9, Content: huge},
			{ID: "2", Score: 0.8, Content: "short follow-up"},
		}},
	})
	require.NoError(t, err)

	result, err := p.Run(context.Background(), "Explain polynomials")

	require.NoError(t, err)
	// the first document blows the budget on its own, the second is dropped
	require.Len(t, result.State.RetrievedContext, 1)
	assert.Contains(t, result.State.RetrievedContext[0].Content, "polynomial")
}

func TestPipelineWithoutLLMFails(t *testing.T) {
	_, err := NewWithComponents(testutils.TestConfig(), Components{})
	assert.Error(t, err)
}

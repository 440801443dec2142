package agents

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/Javi111003/OlivIA-RAG/pkg/conversation"
	"github.com/Javi111003/OlivIA-RAG/pkg/llms"
	"github.com/Javi111003/OlivIA-RAG/pkg/structured"
)

// Evaluation state tags.
const (
	TagMathEvaluated = "math_expert_evaluated"
	TagExamEvaluated = "exam_creator_evaluated"
	TagEvaluatorDone = "evaluator_done"
)

// Evaluator scores the latest specialist response along five axes.
type Evaluator struct {
	envelope *structured.Envelope
}

// NewEvaluator creates the evaluator.
func NewEvaluator(envelope *structured.Envelope) *Evaluator {
	return &Evaluator{envelope: envelope}
}

// Run selects the response to score, evaluates it, and records the
// verdict on the state.
func (e *Evaluator) Run(ctx context.Context, state *conversation.State) error {
	content, kind := e.selectResponse(state)
	if content == "" {
		slog.Warn("Evaluator found no response to score")
		state.Control.CurrentStateTag = TagEvaluatorDone
		return nil
	}

	evaluation := ResponseEvaluation{OverallQuality: "acceptable", IsSufficient: true}
	err := e.envelope.InvokeStructured(ctx, e.buildPrompt(state, content, kind), &evaluation)
	if err != nil {
		slog.Warn("Evaluator degraded to neutral verdict", "kind", kind)
		evaluation = ResponseEvaluation{
			CorrectnessScore:  0.5,
			ClarityScore:      0.5,
			CompletenessScore: 0.5,
			RelevanceScore:    0.5,
			AdaptationScore:   0.5,
			OverallQuality:    "acceptable",
			IsSufficient:      true,
		}
	}

	// Plan evaluations carry no improvement suggestions.
	if kind == AgentPlanning {
		evaluation.ImprovementSuggestions = nil
	}

	switch kind {
	case AgentExamCreator:
		state.Control.CurrentStateTag = TagExamEvaluated
	case AgentMathExpert:
		state.Control.CurrentStateTag = TagMathEvaluated
	default:
		state.Control.CurrentStateTag = TagEvaluatorDone
	}

	if evaluation.IsSufficient {
		state.Control.ResponseQuality = conversation.QualitySufficient
	} else {
		state.Control.ResponseQuality = conversation.QualityInsufficient
	}
	state.Control.NeedsExternalSearch = evaluation.NeedsMoreContext

	state.AppendTurn(conversation.RoleEvaluator,
		fmt.Sprintf("evaluated %s response: %s", kind, evaluation.OverallQuality),
		map[string]any{
			"correctness":  evaluation.CorrectnessScore,
			"clarity":      evaluation.ClarityScore,
			"completeness": evaluation.CompletenessScore,
			"relevance":    evaluation.RelevanceScore,
			"adaptation":   evaluation.AdaptationScore,
			"sufficient":   evaluation.IsSufficient,
			"suggestions":  evaluation.ImprovementSuggestions,
		})

	return nil
}

// selectResponse picks what to evaluate in strict precedence: an exam
// when the tag points at the exam creator, then planning, then math,
// then whatever response is available. The tag-keyed branches apply on
// direct invocation, where the specialist's own "_done" tag is still
// current; inside the graph the supervisor overwrites the tag with its
// routing decision and selection falls through to the presence branches.
func (e *Evaluator) selectResponse(state *conversation.State) (content, kind string) {
	tag := state.Control.CurrentStateTag

	switch {
	case state.HasResponse(AgentExamCreator) && strings.HasPrefix(tag, AgentExamCreator) && tag != TagExamEvaluated:
		return state.Responses[AgentExamCreator], AgentExamCreator

	case state.HasResponse(AgentPlanning):
		return state.Responses[AgentPlanning], AgentPlanning

	case state.HasResponse(AgentMathExpert) && strings.HasPrefix(tag, AgentMathExpert) && tag != TagMathEvaluated:
		return state.Responses[AgentMathExpert], AgentMathExpert

	case state.HasResponse(AgentMathExpert) && tag != TagMathEvaluated && tag != TagEvaluatorDone:
		return state.Responses[AgentMathExpert], AgentMathExpert

	case state.HasResponse(AgentExamCreator) && tag != TagExamEvaluated && tag != TagEvaluatorDone:
		return state.Responses[AgentExamCreator], AgentExamCreator

	default:
		return "", ""
	}
}

func (e *Evaluator) buildPrompt(state *conversation.State, content, kind string) []llms.Message {
	var sb strings.Builder

	sb.WriteString("You are evaluating a tutoring system response for quality.\n\n")
	fmt.Fprintf(&sb, "Original query: %s\n", state.InitialQuery)
	fmt.Fprintf(&sb, "Student level: %s\n", state.StudentProfile.ComprehensionLevel)
	fmt.Fprintf(&sb, "Response type: %s\n\n", kind)
	fmt.Fprintf(&sb, "Response to evaluate:\n%s\n\n", truncate(content, 2000))

	sb.WriteString("Score correctness, clarity, completeness, relevance and adaptation to the student's level, each in [0,1]. ")
	sb.WriteString("Decide whether the response is sufficient and whether more external context is needed.")

	return []llms.Message{llms.User(sb.String())}
}

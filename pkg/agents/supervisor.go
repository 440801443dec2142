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

// Agent identifiers the supervisor can route to.
const (
	AgentMathExpert  = "math_expert"
	AgentExamCreator = "exam_creator"
	AgentPlanning    = "planning"
	AgentEvaluator   = "evaluator"
	AgentFinish      = "FINISH"
)

var allowedAgents = map[string]bool{
	AgentMathExpert:  true,
	AgentExamCreator: true,
	AgentPlanning:    true,
	AgentEvaluator:   true,
	AgentFinish:      true,
}

// Routing keyword lists, matched whole-word on the normalized query.
var (
	examKeywords = []string{
		"exam", "quiz", "test", "evaluation", "questions", "practice",
		"exercises", "create", "generate", "make an",
	}
	mathKeywords = []string{
		"explain", "what is", "how", "theorem", "formula", "concept",
		"definition", "solve", "prove", "solution",
	}
	planningKeywords = []string{
		"study plan", "plan", "schedule", "organize", "prepare for",
	}
)

// Supervisor decides which agent handles the conversation next. It asks
// the LLM first and falls back to a deterministic rule engine whenever
// the reply is malformed or names an unknown agent.
type Supervisor struct {
	envelope      *structured.Envelope
	historyWindow int
}

// NewSupervisor creates a supervisor over the given envelope.
func NewSupervisor(envelope *structured.Envelope, historyWindow int) *Supervisor {
	if historyWindow <= 0 {
		historyWindow = 6
	}
	return &Supervisor{envelope: envelope, historyWindow: historyWindow}
}

// Decide picks the next agent and records the decision on the state.
func (s *Supervisor) Decide(ctx context.Context, state *conversation.State) SupervisorDecision {
	decision := SupervisorDecision{}
	err := s.envelope.InvokeStructured(ctx, s.buildPrompt(state), &decision)
	if err != nil || !allowedAgents[decision.NextAgent] {
		if err == nil {
			slog.Warn("Supervisor chose an unknown agent, using rule engine", "agent", decision.NextAgent)
		}
		decision = s.ruleDecision(state)
	}

	s.recordDecision(state, decision)
	return decision
}

// ruleDecision is the deterministic routing used when the LLM cannot be
// trusted. Rule order matters.
func (s *Supervisor) ruleDecision(state *conversation.State) SupervisorDecision {
	query := normalize(state.InitialQuery)
	tag := state.Control.CurrentStateTag

	evaluated := map[string]bool{
		"evaluator_done":         true,
		"exam_creator_evaluated": true,
	}
	mathEvaluated := map[string]bool{
		"evaluator_done":        true,
		"math_expert_evaluated": true,
	}
	anyEvaluated := map[string]bool{
		"evaluator_done":         true,
		"math_expert_evaluated":  true,
		"exam_creator_evaluated": true,
	}

	switch {
	case matchesAny(query, examKeywords) && !state.HasResponse(AgentExamCreator):
		return ruled(AgentExamCreator, "the query asks for an exam or practice material", 0.8)

	case matchesAny(query, planningKeywords) && !state.HasResponse(AgentPlanning):
		return ruled(AgentPlanning, "the query asks for a study plan", 0.8)

	case matchesAny(query, mathKeywords) && !state.HasResponse(AgentMathExpert) && !state.HasResponse(AgentExamCreator):
		return ruled(AgentMathExpert, "the query asks for a mathematical explanation", 0.8)

	case state.HasResponse(AgentExamCreator) && !evaluated[tag]:
		return ruled(AgentEvaluator, "an exam response awaits evaluation", 0.9)

	case state.HasResponse(AgentMathExpert) && !mathEvaluated[tag]:
		return ruled(AgentEvaluator, "a math response awaits evaluation", 0.9)

	case anyEvaluated[tag]:
		return ruled(AgentFinish, "the response has been evaluated", 0.9)

	case state.HasResponse(AgentMathExpert) || state.HasResponse(AgentExamCreator) || state.HasResponse(AgentPlanning):
		return ruled(AgentFinish, "a response is already available", 0.7)

	default:
		return ruled(AgentMathExpert, "default route for unclassified queries", 0.5)
	}
}

func ruled(agent, reasoning string, confidence float64) SupervisorDecision {
	return SupervisorDecision{NextAgent: agent, Reasoning: reasoning, Confidence: confidence}
}

func (s *Supervisor) recordDecision(state *conversation.State, decision SupervisorDecision) {
	if state.BDI == nil {
		state.BDI = &conversation.BDI{}
	}
	if state.BDI.Beliefs == nil {
		state.BDI.Beliefs = map[string]any{}
	}
	if state.BDI.Intentions == nil {
		state.BDI.Intentions = map[string]any{}
	}
	state.BDI.Beliefs["last_decision"] = decision.NextAgent
	state.BDI.Intentions["current_action"] = decision.Reasoning

	state.Control.NextAgent = decision.NextAgent
	state.Control.CurrentStateTag = "supervisor_chose_" + decision.NextAgent

	state.AppendTurn(conversation.RoleSupervisor,
		fmt.Sprintf("routing to %s: %s", decision.NextAgent, decision.Reasoning),
		map[string]any{"confidence": decision.Confidence})
}

func (s *Supervisor) buildPrompt(state *conversation.State) []llms.Message {
	var sb strings.Builder

	sb.WriteString("You are the supervisor of a math tutoring system. Decide which agent acts next.\n\n")

	sb.WriteString("Agents:\n")
	sb.WriteString("- math_expert: deep, rigorous mathematical explanations\n")
	sb.WriteString("- exam_creator: exams, quizzes and practice questions\n")
	sb.WriteString("- planning: personalized study plans\n")
	sb.WriteString("- evaluator: scores an existing specialist response\n")
	sb.WriteString("- FINISH: the query is fully resolved\n\n")

	sb.WriteString("Rules:\n")
	sb.WriteString("1. Exam or practice requests go to exam_creator.\n")
	sb.WriteString("2. Study plan requests go to planning.\n")
	sb.WriteString("3. A specialist response that has not been evaluated must go to evaluator.\n")
	sb.WriteString("4. After a positive evaluation choose FINISH.\n\n")

	fmt.Fprintf(&sb, "Student query: %s\n", state.InitialQuery)
	fmt.Fprintf(&sb, "Current state: %s\n", state.Control.CurrentStateTag)
	fmt.Fprintf(&sb, "Comprehension level: %s\n", state.StudentProfile.ComprehensionLevel)
	fmt.Fprintf(&sb, "Responses present: math_expert=%t exam_creator=%t planning=%t\n",
		state.HasResponse(AgentMathExpert),
		state.HasResponse(AgentExamCreator),
		state.HasResponse(AgentPlanning))

	if state.BDI != nil && len(state.BDI.Beliefs) > 0 {
		fmt.Fprintf(&sb, "Beliefs: %v\n", state.BDI.Beliefs)
	}

	if tail := state.HistoryTail(s.historyWindow); len(tail) > 0 {
		sb.WriteString("\nRecent history:\n")
		for _, turn := range tail {
			fmt.Fprintf(&sb, "[%s] %s\n", turn.Role, truncate(turn.Content, 200))
		}
	}

	return []llms.Message{llms.User(sb.String())}
}

// normalize lowercases and strips punctuation so keyword matching sees
// clean word boundaries.
func normalize(s string) string {
	var sb strings.Builder
	for _, r := range strings.ToLower(s) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == ' ':
			sb.WriteRune(r)
		default:
			sb.WriteRune(' ')
		}
	}
	return " " + strings.Join(strings.Fields(sb.String()), " ") + " "
}

// matchesAny reports whether any keyword occurs whole-word in the
// normalized text.
func matchesAny(normalized string, keywords []string) bool {
	for _, kw := range keywords {
		if strings.Contains(normalized, " "+kw+" ") {
			return true
		}
	}
	return false
}

func truncate(s string, limit int) string {
	if len(s) <= limit {
		return s
	}
	return s[:limit] + "..."
}

package agents

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/Javi111003/OlivIA-RAG/pkg/conversation"
	"github.com/Javi111003/OlivIA-RAG/pkg/knowledge"
	"github.com/Javi111003/OlivIA-RAG/pkg/llms"
	"github.com/Javi111003/OlivIA-RAG/pkg/structured"
)

// anaphoraMarkers flag queries that refer back to something in the
// conversation instead of introducing a new subject.
var anaphoraMarkers = []string{
	"previous", "previously", "earlier", "we mentioned", "we talked",
	"the theorem", "the formula", "the concept", "that exercise",
	"exercise 1", "exercise 2", "exercise 3", "your exam",
	"anteriormente", "antes", "mencionamos", "hablamos de",
	"el teorema que", "la formula que", "el concepto que",
}

// MathExpert produces step-by-step mathematical explanations adapted to
// the learner's level, and feeds each interaction back into the
// knowledge profile.
type MathExpert struct {
	envelope *structured.Envelope
	updater  *knowledge.Updater
}

// NewMathExpert creates the math explainer.
func NewMathExpert(envelope *structured.Envelope, updater *knowledge.Updater) *MathExpert {
	return &MathExpert{envelope: envelope, updater: updater}
}

// Run explains the query and updates the student's knowledge profile.
func (m *MathExpert) Run(ctx context.Context, state *conversation.State) error {
	anaphoric := isAnaphoric(state.InitialQuery)

	response := MathExpertResponse{
		DifficultyLevel: difficultyFor(state.StudentProfile.ComprehensionLevel),
	}
	err := m.envelope.InvokeStructured(ctx, m.buildPrompt(state, anaphoric), &response)
	if err != nil || strings.TrimSpace(response.Explanation) == "" {
		slog.Warn("Math expert degraded to fallback explanation", "query", state.InitialQuery)
		response = fallbackExplanation(state)
	}

	rendered := renderExplanation(&response)

	state.AppendTurn(conversation.RoleMathExpert, rendered, map[string]any{
		"difficulty":       response.DifficultyLevel,
		"formula_count":    len(response.Formulas),
		"related_concepts": response.RelatedConcepts,
		"anaphoric":        anaphoric,
		"timestamp":        time.Now().UTC().Format(time.RFC3339),
	})
	state.SetResponse(AgentMathExpert, rendered)
	state.Control.CurrentStateTag = AgentMathExpert + "_done"

	m.updateKnowledge(ctx, state, response.Explanation)
	promoteComprehension(state.StudentProfile, response.DifficultyLevel)
	return nil
}

// promoteComprehension bumps a beginner to intermediate when they
// handled an advanced explanation. The mean-score level never moves
// this fast on a single interaction.
func promoteComprehension(profile *conversation.StudentProfile, difficulty string) {
	if difficulty == "advanced" && profile.ComprehensionLevel == conversation.LevelBeginner {
		profile.ComprehensionLevel = conversation.LevelIntermediate
		slog.Info("Student promoted to intermediate after an advanced explanation")
	}
}

// updateKnowledge runs the profile update for this interaction. A
// failed update never fails the explanation.
func (m *MathExpert) updateKnowledge(ctx context.Context, state *conversation.State, explanation string) {
	if m.updater == nil {
		return
	}

	profile := state.StudentProfile
	if detected := knowledge.DetectErrors(state.InitialQuery); len(detected) > 0 {
		profile.ErrorHistory = append(profile.ErrorHistory, detected...)
	}

	if _, err := m.updater.Update(ctx, profile.Knowledge, state.InitialQuery, explanation); err != nil {
		slog.Warn("Knowledge profile update failed", "error", err)
		return
	}
	profile.RefreshComprehension()
}

func (m *MathExpert) buildPrompt(state *conversation.State, anaphoric bool) []llms.Message {
	var sb strings.Builder

	sb.WriteString("You are a rigorous and patient mathematics tutor.\n\n")
	fmt.Fprintf(&sb, "Student query: %s\n", state.InitialQuery)
	fmt.Fprintf(&sb, "Comprehension level: %s\n", state.StudentProfile.ComprehensionLevel)

	if len(state.StudentProfile.StruggleTopics) > 0 {
		fmt.Fprintf(&sb, "Topics the student struggles with: %s\n",
			strings.Join(state.StudentProfile.StruggleTopics, ", "))
	}

	if anaphoric {
		sb.WriteString("\nThe query refers to something discussed earlier. ")
		sb.WriteString("Resolve the referent from the conversation history below; do NOT use retrieved material. ")
		sb.WriteString("If the referent is not in the history, say there is no previous context.\n")
		sb.WriteString("\nConversation history:\n")
		for _, turn := range state.HistoryTail(5) {
			fmt.Fprintf(&sb, "[%s] %s\n", turn.Role, truncate(turn.Content, 300))
		}
	} else if len(state.RetrievedContext) > 0 {
		sb.WriteString("\nReference material:\n")
		for _, doc := range state.RetrievedContext {
			fmt.Fprintf(&sb, "- %s\n", truncate(doc.Content, 300))
		}
	}

	sb.WriteString("\nExplain step by step, state the relevant formulas, and adapt depth to the student's level.")

	return []llms.Message{llms.User(sb.String())}
}

// isAnaphoric reports whether the query points back at earlier turns.
func isAnaphoric(query string) bool {
	text := strings.ToLower(query)
	for _, marker := range anaphoraMarkers {
		if strings.Contains(text, marker) {
			return true
		}
	}
	return false
}

func difficultyFor(level conversation.ComprehensionLevel) string {
	switch level {
	case conversation.LevelAdvanced:
		return "advanced"
	case conversation.LevelIntermediate:
		return "intermediate"
	default:
		return "basic"
	}
}

// fallbackExplanation is the deterministic degraded answer used when
// the LLM output is unusable.
func fallbackExplanation(state *conversation.State) MathExpertResponse {
	level := state.StudentProfile.ComprehensionLevel
	return MathExpertResponse{
		Explanation: fmt.Sprintf(
			"I could not generate a full explanation for %q right now. "+
				"Start from the definitions involved, work one small example by hand, "+
				"and compare each step against your textbook. Ask again and I will retry.",
			state.InitialQuery),
		DifficultyLevel: difficultyFor(level),
	}
}

func renderExplanation(r *MathExpertResponse) string {
	var sb strings.Builder

	sb.WriteString(r.Explanation)

	if len(r.Formulas) > 0 {
		sb.WriteString("\n\n**Formulas:**\n")
		for _, f := range r.Formulas {
			fmt.Fprintf(&sb, "- %s\n", f)
		}
	}
	if len(r.RelatedConcepts) > 0 {
		sb.WriteString("\n**Related concepts:** ")
		sb.WriteString(strings.Join(r.RelatedConcepts, ", "))
	}

	return sb.String()
}

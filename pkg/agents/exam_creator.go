package agents

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/Javi111003/OlivIA-RAG/pkg/conversation"
	"github.com/Javi111003/OlivIA-RAG/pkg/llms"
	"github.com/Javi111003/OlivIA-RAG/pkg/structured"
)

// ExamCreator generates practice exams sized to the learner's level.
type ExamCreator struct {
	envelope *structured.Envelope
}

// NewExamCreator creates the exam creator.
func NewExamCreator(envelope *structured.Envelope) *ExamCreator {
	return &ExamCreator{envelope: envelope}
}

// Run generates an exam for the query and records it on the state.
func (e *ExamCreator) Run(ctx context.Context, state *conversation.State) error {
	exam := ExamCreatorResponse{}
	err := e.envelope.InvokeStructured(ctx, e.buildPrompt(state), &exam)
	if err != nil || len(exam.Questions) == 0 || exam.EstimatedTimeMinutes <= 0 {
		slog.Warn("Exam creator degraded to fallback exam", "query", state.InitialQuery)
		exam = fallbackExam(state.InitialQuery, state.StudentProfile.ComprehensionLevel)
	}

	rendered := renderExam(&exam)

	state.AppendTurn(conversation.RoleExamCreator, rendered, map[string]any{
		"difficulty":     exam.DifficultyLevel,
		"question_count": len(exam.Questions),
		"estimated_time": exam.EstimatedTimeMinutes,
		"timestamp":      time.Now().UTC().Format(time.RFC3339),
	})
	state.SetResponse(AgentExamCreator, rendered)
	state.Control.CurrentStateTag = AgentExamCreator + "_done"
	return nil
}

func (e *ExamCreator) buildPrompt(state *conversation.State) []llms.Message {
	var sb strings.Builder

	sb.WriteString("You create mathematics practice exams.\n\n")
	fmt.Fprintf(&sb, "Request: %s\n", state.InitialQuery)
	fmt.Fprintf(&sb, "Student level: %s\n", state.StudentProfile.ComprehensionLevel)

	switch state.StudentProfile.ComprehensionLevel {
	case conversation.LevelAdvanced:
		sb.WriteString("Produce 2 intermediate and 2 advanced questions, about 90 minutes total.\n")
	case conversation.LevelIntermediate:
		sb.WriteString("Produce 2 basic and 2 intermediate questions, about 75 minutes total.\n")
	default:
		sb.WriteString("Produce 3 basic questions, about 45 minutes total.\n")
	}

	if len(state.RetrievedContext) > 0 {
		sb.WriteString("\nReference material:\n")
		for _, doc := range state.RetrievedContext {
			fmt.Fprintf(&sb, "- %s\n", truncate(doc.Content, 300))
		}
	}

	sb.WriteString("\nMix conceptual, procedural and application questions, ordered from easiest to hardest. Keep questions concise.")

	return []llms.Message{llms.User(sb.String())}
}

// fallbackExam is the deterministic exam used when the LLM output is
// unusable: beginners get 3 basic questions in 45 minutes, intermediate
// learners 2 basic plus 2 intermediate in 75, advanced learners 2
// intermediate plus 2 advanced in 90.
func fallbackExam(query string, level conversation.ComprehensionLevel) ExamCreatorResponse {
	basic := []string{
		fmt.Sprintf("Define the fundamental concepts involved in: %s", query),
		fmt.Sprintf("Explain step by step a basic procedure for: %s", query),
		fmt.Sprintf("Solve a simple exercise about: %s", query),
	}
	intermediate := []string{
		fmt.Sprintf("Apply the main method of %s to a new problem", query),
		fmt.Sprintf("Compare two approaches to solving a problem about: %s", query),
	}
	advanced := []string{
		fmt.Sprintf("Prove or justify a key property related to: %s", query),
		fmt.Sprintf("Solve a multi-step application problem combining %s with another topic", query),
	}

	var questions []string
	var minutes int
	var difficulty string

	switch level {
	case conversation.LevelAdvanced:
		questions = append(intermediate, advanced...)
		minutes = 90
		difficulty = "advanced"
	case conversation.LevelIntermediate:
		questions = append(basic[:2:2], intermediate...)
		minutes = 75
		difficulty = "intermediate"
	default:
		questions = basic
		minutes = 45
		difficulty = "basic"
	}

	return ExamCreatorResponse{
		ExamTitle:            fmt.Sprintf("Practice exam: %s", query),
		Questions:            questions,
		DifficultyLevel:      difficulty,
		EstimatedTimeMinutes: minutes,
		TopicsCovered:        []string{query},
	}
}

func renderExam(exam *ExamCreatorResponse) string {
	var sb strings.Builder

	fmt.Fprintf(&sb, "# %s\n\n", exam.ExamTitle)
	fmt.Fprintf(&sb, "**Difficulty:** %s | **Estimated time:** %d minutes\n\n",
		exam.DifficultyLevel, exam.EstimatedTimeMinutes)

	for i, q := range exam.Questions {
		fmt.Fprintf(&sb, "%d. %s\n", i+1, q)
	}

	if len(exam.TopicsCovered) > 0 {
		fmt.Fprintf(&sb, "\n**Topics covered:** %s\n", strings.Join(exam.TopicsCovered, ", "))
	}
	sb.WriteString("\n---\n_Generated by OlivIA_\n")

	return sb.String()
}

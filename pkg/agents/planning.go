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
	"github.com/Javi111003/OlivIA-RAG/pkg/planner"
	"github.com/Javi111003/OlivIA-RAG/pkg/structured"
)

// Planning builds a personalized study plan: the genetic optimizer
// allocates time across areas, then the LLM writes the block
// descriptions.
type Planning struct {
	envelope  *structured.Envelope
	optimizer *planner.Optimizer
}

// NewPlanning creates the planning agent.
func NewPlanning(envelope *structured.Envelope, optimizer *planner.Optimizer) *Planning {
	return &Planning{envelope: envelope, optimizer: optimizer}
}

// Run optimizes and renders a study plan for the student.
func (p *Planning) Run(ctx context.Context, state *conversation.State) error {
	topics, student := planInputs(state.StudentProfile.Knowledge)

	result := p.optimizer.Optimize(topics, student)

	response := PlanningResponse{Score: result.BestScore}
	err := p.envelope.InvokeStructured(ctx, p.buildPrompt(&result), &response)
	if err != nil || len(response.Plan) == 0 {
		slog.Warn("Planning degraded to direct plan rendering")
		response = directPlan(&result, state.StudentProfile.Knowledge)
	}

	rendered := renderPlan(&response)

	state.AppendTurn(conversation.RolePlanning, rendered, map[string]any{
		"block_count": len(response.Plan),
		"plan_score":  response.Score,
		"total_hours": result.Best.TotalTime(),
		"timestamp":   time.Now().UTC().Format(time.RFC3339),
	})
	state.SetResponse(AgentPlanning, rendered)
	state.Control.CurrentStateTag = AgentPlanning + "_done"
	return nil
}

// planInputs maps the knowledge profile onto optimizer entities. Area
// weight and difficulty live on a 0-10 scale; the optimizer expects
// [0,1].
func planInputs(profile *knowledge.Profile) (map[string]planner.Topic, *planner.Student) {
	topics := make(map[string]planner.Topic, len(profile.Areas))
	mastery := make(map[string]float64, len(profile.Areas))

	for _, id := range profile.SortedIDs() {
		area := profile.Areas[id]
		topics[area.ID] = planner.Topic{
			Name:           area.ID,
			ExamWeight:     area.Weight / 10,
			BaseDifficulty: area.Difficulty / 10,
		}
		mastery[area.ID] = area.Score
	}

	return topics, &planner.Student{TopicMastery: mastery, TargetScore: 100}
}

func (p *Planning) buildPrompt(result *planner.Result) []llms.Message {
	var sb strings.Builder

	sb.WriteString("You are presenting an optimized study plan to a student.\n\n")
	sb.WriteString("Blocks in order, with allocated hours:\n")
	for _, block := range result.Best.Blocks {
		fmt.Fprintf(&sb, "- %s: %.2f hours at difficulty %.2f\n",
			block.Topic.Name, block.TimeAllocated, block.TargetDifficulty)
	}
	fmt.Fprintf(&sb, "\nPlan quality score: %.4f\n", result.BestScore)
	sb.WriteString("\nFor every block write a one-sentence topic_description of what to study. ")
	sb.WriteString("Keep the block order and time_allocated values exactly as given, and echo the score.")

	return []llms.Message{llms.User(sb.String())}
}

// directPlan renders the optimizer output without LLM descriptions.
func directPlan(result *planner.Result, profile *knowledge.Profile) PlanningResponse {
	items := make([]PlanItem, 0, len(result.Best.Blocks))
	for _, block := range result.Best.Blocks {
		description := "Review the core definitions and work practice exercises."
		if area, ok := profile.Areas[block.Topic.Name]; ok {
			description = fmt.Sprintf("Work on %s, focusing on the fundamentals first.", area.Name)
		}
		items = append(items, PlanItem{
			Topic:            block.Topic.Name,
			TopicDescription: description,
			TimeAllocated:    block.TimeAllocated,
		})
	}
	return PlanningResponse{Plan: items, Score: result.BestScore}
}

func renderPlan(plan *PlanningResponse) string {
	var sb strings.Builder

	sb.WriteString("# Personalized study plan\n\n")
	var total float64
	for i, item := range plan.Plan {
		fmt.Fprintf(&sb, "%d. **%s** (%.1f h) - %s\n", i+1, item.Topic, item.TimeAllocated, item.TopicDescription)
		total += item.TimeAllocated
	}
	fmt.Fprintf(&sb, "\n**Total time:** %.1f hours | **Plan score:** %.3f\n", total, plan.Score)

	return sb.String()
}

package planner

import "math"

// Fitness component weights. They intentionally sum to 0.90.
const (
	coverageWeight   = 0.25
	weaknessWeight   = 0.30
	efficiencyWeight = 0.15
	smoothnessWeight = 0.10
)

// EvaluatePlan scores a plan for a student against the official topic
// catalog. Higher is better.
//
//	coverage    - fraction of official topics the plan touches
//	weakness    - time share spent on weak topics (mastery is 0-10)
//	efficiency  - 1 when within the time budget, decaying with excess
//	smoothness  - inverse of difficulty jumps between adjacent blocks
func EvaluatePlan(plan *StudyPlan, student *Student, officialTopics map[string]Topic) float64 {
	covered := make(map[string]bool)
	var totalTime, weaknessFocus, difficultyPenalty float64
	previousDifficulty := math.NaN()

	for _, block := range plan.Blocks {
		name := block.Topic.Name
		if _, ok := officialTopics[name]; !ok {
			continue
		}

		covered[name] = true
		totalTime += block.TimeAllocated

		mastery := student.TopicMastery[name]
		weaknessFocus += block.TimeAllocated * (1 - mastery*0.1)

		if !math.IsNaN(previousDifficulty) {
			difficultyPenalty += math.Abs(block.TargetDifficulty - previousDifficulty)
		}
		previousDifficulty = block.TargetDifficulty
	}

	if len(officialTopics) == 0 {
		return 0
	}
	coverage := float64(len(covered)) / float64(len(officialTopics))

	normalizedFocus := weaknessFocus / math.Max(1.0, totalTime)

	efficiency := 1.0
	if totalTime > plan.AvailableTime {
		efficiency = 1 / (1 + totalTime - plan.AvailableTime)
	}

	smoothness := 1 / (1 + difficultyPenalty)

	return coverageWeight*coverage +
		weaknessWeight*normalizedFocus +
		efficiencyWeight*efficiency +
		smoothnessWeight*smoothness
}

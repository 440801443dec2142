// Package agents implements the supervisor and specialist agents of the
// tutoring graph.
package agents

// SupervisorDecision routes the conversation to the next agent.
type SupervisorDecision struct {
	NextAgent  string  `json:"next_agent" jsonschema:"description=One of math_expert exam_creator planning evaluator FINISH"`
	Reasoning  string  `json:"reasoning" jsonschema:"description=Why this agent was chosen"`
	Confidence float64 `json:"confidence" jsonschema:"minimum=0,maximum=1"`
}

// MathExpertResponse is the structured output of the math explainer.
type MathExpertResponse struct {
	Explanation     string   `json:"explanation" jsonschema:"description=Step by step explanation"`
	Formulas        []string `json:"formulas,omitempty" jsonschema:"description=Relevant formulas"`
	DifficultyLevel string   `json:"difficulty_level" jsonschema:"description=One of basic intermediate advanced"`
	RelatedConcepts []string `json:"related_concepts,omitempty"`
}

// ExamCreatorResponse is the structured output of the exam creator.
type ExamCreatorResponse struct {
	ExamTitle            string   `json:"exam_title"`
	Questions            []string `json:"questions" jsonschema:"description=Ordered exam questions"`
	DifficultyLevel      string   `json:"difficulty_level" jsonschema:"description=One of basic intermediate advanced"`
	EstimatedTimeMinutes int      `json:"estimated_time_minutes" jsonschema:"minimum=1"`
	TopicsCovered        []string `json:"topics_covered,omitempty"`
}

// PlanItem is one rendered block of a study plan.
type PlanItem struct {
	Topic            string  `json:"topic"`
	TopicDescription string  `json:"topic_description"`
	TimeAllocated    float64 `json:"time_allocated"`
}

// PlanningResponse is the structured output of the planning agent.
type PlanningResponse struct {
	Plan  []PlanItem `json:"plan"`
	Score float64    `json:"score"`
}

// ResponseEvaluation scores a specialist response along five axes.
type ResponseEvaluation struct {
	CorrectnessScore       float64  `json:"correctness_score" jsonschema:"minimum=0,maximum=1"`
	ClarityScore           float64  `json:"clarity_score" jsonschema:"minimum=0,maximum=1"`
	CompletenessScore      float64  `json:"completeness_score" jsonschema:"minimum=0,maximum=1"`
	RelevanceScore         float64  `json:"relevance_score" jsonschema:"minimum=0,maximum=1"`
	AdaptationScore        float64  `json:"adaptation_score" jsonschema:"minimum=0,maximum=1"`
	OverallQuality         string   `json:"overall_quality" jsonschema:"description=One of poor acceptable good excellent"`
	IsSufficient           bool     `json:"is_sufficient"`
	NeedsMoreContext       bool     `json:"needs_more_context"`
	ImprovementSuggestions []string `json:"improvement_suggestions,omitempty"`
}

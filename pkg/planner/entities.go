// Package planner builds personalized study plans with a genetic
// optimizer.
package planner

// Topic is one subject a plan can allocate time to.
type Topic struct {
	Name string
	// ExamWeight is the topic's importance in the exam, in [0,1].
	ExamWeight float64
	// BaseDifficulty is the topic's intrinsic difficulty, in [0,1].
	BaseDifficulty float64
}

// Student carries the learner inputs the optimizer personalizes for.
type Student struct {
	// TopicMastery maps topic name to the learner's score in [0,10].
	TopicMastery map[string]float64
	// TargetScore is the exam score the learner aims for.
	TargetScore float64
}

// StudyBlock allocates time on one topic at a target difficulty.
type StudyBlock struct {
	Topic            Topic
	TimeAllocated    float64
	TargetDifficulty float64
}

// StudyPlan is an ordered sequence of blocks within a time budget.
// Topics are unique within a plan.
type StudyPlan struct {
	Blocks        []StudyBlock
	AvailableTime float64
}

// TotalTime sums the allocated hours.
func (p *StudyPlan) TotalTime() float64 {
	var total float64
	for _, b := range p.Blocks {
		total += b.TimeAllocated
	}
	return total
}

// clone copies the plan so mutation never aliases parent blocks.
func (p *StudyPlan) clone() StudyPlan {
	blocks := make([]StudyBlock, len(p.Blocks))
	copy(blocks, p.Blocks)
	return StudyPlan{Blocks: blocks, AvailableTime: p.AvailableTime}
}

package conversation

import (
	"github.com/Javi111003/OlivIA-RAG/pkg/knowledge"
)

// ComprehensionLevel of the learner.
type ComprehensionLevel string

const (
	LevelBeginner     ComprehensionLevel = "beginner"
	LevelIntermediate ComprehensionLevel = "intermediate"
	LevelAdvanced     ComprehensionLevel = "advanced"
)

// StudentProfile tracks what the learner knows and how they learn.
type StudentProfile struct {
	ComprehensionLevel ComprehensionLevel `json:"comprehension_level"`
	Knowledge          *knowledge.Profile `json:"knowledge"`
	MasteredTopics     []string           `json:"mastered_topics,omitempty"`
	StruggleTopics     []string           `json:"struggle_topics,omitempty"`
	Preferences        map[string]string  `json:"preferences,omitempty"`
	ErrorHistory       []string           `json:"error_history,omitempty"`
}

// NewStudentProfile creates a beginner profile over the full area catalog.
func NewStudentProfile() *StudentProfile {
	return &StudentProfile{
		ComprehensionLevel: LevelBeginner,
		Knowledge:          knowledge.NewProfile(),
		Preferences:        map[string]string{},
	}
}

// RefreshComprehension recomputes the level from the knowledge profile.
func (p *StudentProfile) RefreshComprehension() {
	switch level := p.Knowledge.ComprehensionLevel(); level {
	case knowledge.LevelAdvanced:
		p.ComprehensionLevel = LevelAdvanced
	case knowledge.LevelIntermediate:
		p.ComprehensionLevel = LevelIntermediate
	default:
		p.ComprehensionLevel = LevelBeginner
	}
}

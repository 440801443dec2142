// Package conversation defines the state record threaded through the
// tutoring graph.
package conversation

import (
	"time"

	"github.com/google/uuid"
)

// Turn roles used in chat history.
const (
	RoleUser        = "user"
	RoleSupervisor  = "supervisor"
	RoleMathExpert  = "math_expert"
	RoleExamCreator = "exam_creator"
	RolePlanning    = "planning"
	RoleEvaluator   = "evaluator"
	RoleRetriever   = "retriever"
)

// Control state tags.
const (
	TagStart  = "start"
	TagFinish = "FINISH"
)

// Turn is one chat history entry.
type Turn struct {
	Role     string         `json:"role"`
	Content  string         `json:"content"`
	Metadata map[string]any `json:"metadata,omitempty"`
}

// Document is one retrieved context entry.
type Document struct {
	Content string  `json:"content"`
	Score   float64 `json:"score"`
}

// BDI carries the supervisor's belief/desire/intention context.
type BDI struct {
	Beliefs    map[string]any `json:"beliefs,omitempty"`
	Desires    []string       `json:"desires,omitempty"`
	Intentions map[string]any `json:"intentions,omitempty"`
}

// ResponseQuality is the evaluator's verdict on a response.
type ResponseQuality string

const (
	QualitySufficient   ResponseQuality = "sufficient"
	QualityInsufficient ResponseQuality = "insufficient"
)

// Control holds routing and termination flags.
type Control struct {
	NextAgent           string          `json:"next_agent,omitempty"`
	CurrentStateTag     string          `json:"current_state_tag,omitempty"`
	NeedsExternalSearch bool            `json:"needs_external_search,omitempty"`
	ResponseQuality     ResponseQuality `json:"response_quality,omitempty"`
	FinalResponse       string          `json:"final_response,omitempty"`
}

// State is the single record the graph threads through every node.
// It is created at request entry, mutated only by node functions, and
// discarded when the request returns.
type State struct {
	ID               string            `json:"id"`
	InitialQuery     string            `json:"initial_query"`
	ChatHistory      []Turn            `json:"chat_history,omitempty"`
	RetrievedContext []Document        `json:"retrieved_context,omitempty"`
	StudentProfile   *StudentProfile   `json:"student_profile,omitempty"`
	BDI              *BDI              `json:"bdi,omitempty"`
	Responses        map[string]string `json:"responses,omitempty"`
	Control          Control           `json:"control"`
	CreatedAt        time.Time         `json:"created_at"`
}

// NewState creates the state for one incoming query.
func NewState(query string) *State {
	return &State{
		ID:             uuid.NewString(),
		InitialQuery:   query,
		StudentProfile: NewStudentProfile(),
		BDI: &BDI{
			Beliefs:    map[string]any{},
			Intentions: map[string]any{},
		},
		Responses: map[string]string{},
		Control:   Control{CurrentStateTag: TagStart},
		CreatedAt: time.Now().UTC(),
		ChatHistory: []Turn{
			{Role: RoleUser, Content: query},
		},
	}
}

// AppendTurn adds a chat history entry.
func (s *State) AppendTurn(role, content string, metadata map[string]any) {
	s.ChatHistory = append(s.ChatHistory, Turn{Role: role, Content: content, Metadata: metadata})
}

// HistoryTail returns up to n most recent turns.
func (s *State) HistoryTail(n int) []Turn {
	if n <= 0 || len(s.ChatHistory) <= n {
		return s.ChatHistory
	}
	return s.ChatHistory[len(s.ChatHistory)-n:]
}

// SetResponse records a specialist's canonical output.
func (s *State) SetResponse(specialist, content string) {
	if s.Responses == nil {
		s.Responses = map[string]string{}
	}
	s.Responses[specialist] = content
}

// HasResponse reports whether a specialist produced output already.
func (s *State) HasResponse(specialist string) bool {
	return s.Responses[specialist] != ""
}

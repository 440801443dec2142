package conversation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewState(t *testing.T) {
	s := NewState("Explain limits")

	assert.NotEmpty(t, s.ID)
	assert.Equal(t, "Explain limits", s.InitialQuery)
	assert.Equal(t, TagStart, s.Control.CurrentStateTag)
	require.Len(t, s.ChatHistory, 1)
	assert.Equal(t, RoleUser, s.ChatHistory[0].Role)
	assert.Equal(t, LevelBeginner, s.StudentProfile.ComprehensionLevel)
}

func TestHistoryTail(t *testing.T) {
	s := NewState("q")
	for i := 0; i < 7; i++ {
		s.AppendTurn(RoleSupervisor, "turn", nil)
	}

	tail := s.HistoryTail(5)
	assert.Len(t, tail, 5)
	assert.Len(t, s.HistoryTail(0), 8)
	assert.Len(t, s.HistoryTail(100), 8)
}

func TestResponses(t *testing.T) {
	s := NewState("q")
	assert.False(t, s.HasResponse(RoleMathExpert))

	s.SetResponse(RoleMathExpert, "an explanation")
	assert.True(t, s.HasResponse(RoleMathExpert))
	assert.Equal(t, "an explanation", s.Responses[RoleMathExpert])
}

func TestRefreshComprehension(t *testing.T) {
	p := NewStudentProfile()
	for _, area := range p.Knowledge.Areas {
		area.Score = 9
	}
	p.RefreshComprehension()
	assert.Equal(t, LevelAdvanced, p.ComprehensionLevel)
}

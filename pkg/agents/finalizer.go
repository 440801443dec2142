package agents

import (
	"github.com/Javi111003/OlivIA-RAG/pkg/conversation"
)

// NoAdequateResponse is emitted when no specialist produced anything.
const NoAdequateResponse = "I could not produce an adequate response to your question. Please rephrase it or ask something more specific."

// IncompleteNote marks a response collected before the run could finish
// normally.
const IncompleteNote = "\n\n_Note: this response may be incomplete._"

// Finalize picks the best available response following the priority
// order and stamps the state as finished. Running it twice yields the
// same final response.
func Finalize(state *conversation.State, priority []string, degraded bool) string {
	if state.Control.FinalResponse != "" && state.Control.CurrentStateTag == conversation.TagFinish {
		return state.Control.FinalResponse
	}

	final := NoAdequateResponse
	for _, specialist := range priority {
		if state.HasResponse(specialist) {
			final = state.Responses[specialist]
			break
		}
	}

	if degraded && final != NoAdequateResponse {
		final += IncompleteNote
	}

	state.Control.FinalResponse = final
	state.Control.CurrentStateTag = conversation.TagFinish
	return final
}

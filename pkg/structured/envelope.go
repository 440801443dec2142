// Package structured wraps an LLM provider with schema-guided invocation.
// Callers describe the expected reply shape with a Go struct; the envelope
// renders its JSON schema into the prompt and parses the reply back into
// the struct without ever panicking on malformed output.
package structured

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/invopop/jsonschema"

	"github.com/Javi111003/OlivIA-RAG/pkg/llms"
)

// ErrMalformed reports that the LLM reply could not be parsed into the
// requested shape. The output value is left at whatever defaults the
// caller seeded it with.
var ErrMalformed = errors.New("llm reply did not match the requested schema")

// Envelope issues schema-guided calls against a shared LLM provider.
// It is immutable after construction and safe for concurrent use.
type Envelope struct {
	llm llms.LLMProvider
}

// New creates an envelope over the given provider.
func New(llm llms.LLMProvider) *Envelope {
	return &Envelope{llm: llm}
}

// Invoke performs a plain chat call and returns the raw reply text.
func (e *Envelope) Invoke(ctx context.Context, messages []llms.Message) (string, error) {
	text, _, err := e.llm.Generate(ctx, messages)
	if err != nil {
		return "", fmt.Errorf("llm call failed: %w", err)
	}
	return text, nil
}

// InvokeStructured calls the LLM with schema format instructions appended
// and parses the reply into out. Parsing runs in three tiers: the raw
// reply as JSON, then the first balanced JSON object embedded in the
// reply, and finally a bail-out that returns ErrMalformed while leaving
// out untouched. Seed out with defaults before calling; fields the LLM
// omits keep their seeded values.
func (e *Envelope) InvokeStructured(ctx context.Context, messages []llms.Message, out any) error {
	schemaText, err := renderSchema(out)
	if err != nil {
		return fmt.Errorf("failed to render schema: %w", err)
	}

	prompted := append([]llms.Message{}, messages...)
	prompted = append(prompted, llms.System(formatInstructions(schemaText)))

	text, _, err := e.llm.Generate(ctx, prompted)
	if err != nil {
		slog.Warn("Structured LLM call failed", "error", err)
		return fmt.Errorf("%w: %v", ErrMalformed, err)
	}

	return Parse(text, out)
}

// Parse applies the tiered parse to an already-obtained reply.
func Parse(text string, out any) error {
	if err := json.Unmarshal([]byte(text), out); err == nil {
		return nil
	}

	if fragment, ok := extractJSONObject(text); ok {
		if err := json.Unmarshal([]byte(fragment), out); err == nil {
			return nil
		}
	}

	slog.Warn("LLM reply did not parse as structured output", "preview", preview(text))
	return ErrMalformed
}

func renderSchema(out any) (string, error) {
	reflector := jsonschema.Reflector{
		DoNotReference: true,
		ExpandedStruct: true,
	}
	schema := reflector.Reflect(out)

	data, err := json.MarshalIndent(schema, "", "  ")
	if err != nil {
		return "", err
	}
	return string(data), nil
}

func formatInstructions(schemaText string) string {
	return "Respond with a single JSON object and nothing else. " +
		"The object must conform to this JSON schema:\n\n" + schemaText +
		"\n\nDo not wrap the JSON in markdown fences or add commentary."
}

func preview(s string) string {
	const limit = 120
	if len(s) <= limit {
		return s
	}
	return s[:limit] + "..."
}

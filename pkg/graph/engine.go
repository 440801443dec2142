// Package graph runs the tutoring agents over a fixed directed graph.
package graph

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/Javi111003/OlivIA-RAG/pkg/conversation"
)

// End terminates a run when returned by a router or set as an edge
// target.
const End = conversation.TagFinish

// DefaultMaxSteps bounds a run when no limit is configured.
const DefaultMaxSteps = 12

// NodeFunc executes one node, mutating the shared state.
type NodeFunc func(ctx context.Context, state *conversation.State) error

// Router picks the next node after a conditional node ran.
type Router func(state *conversation.State) string

type conditional struct {
	router  Router
	targets []string
}

// Engine executes nodes along static and conditional edges until a
// terminal edge, the step cap, or the context deadline stops it.
type Engine struct {
	nodes        map[string]NodeFunc
	edges        map[string]string
	conditionals map[string]conditional
	entry        string
	recovery     string
	maxSteps     int
}

// Outcome describes how a run ended.
type Outcome struct {
	Steps    int
	Capped   bool
	Expired  bool
	LastNode string
}

// Degraded reports whether the run was cut short.
func (o Outcome) Degraded() bool { return o.Capped || o.Expired }

// New creates an empty engine with the given step cap.
func New(maxSteps int) *Engine {
	if maxSteps <= 0 {
		maxSteps = DefaultMaxSteps
	}
	return &Engine{
		nodes:        map[string]NodeFunc{},
		edges:        map[string]string{},
		conditionals: map[string]conditional{},
		maxSteps:     maxSteps,
	}
}

// AddNode registers a node under a unique name.
func (e *Engine) AddNode(name string, fn NodeFunc) error {
	if name == "" || name == End {
		return fmt.Errorf("invalid node name %q", name)
	}
	if fn == nil {
		return fmt.Errorf("node %s has no function", name)
	}
	if _, exists := e.nodes[name]; exists {
		return fmt.Errorf("node %s already registered", name)
	}
	e.nodes[name] = fn
	return nil
}

// AddEdge registers a static transition.
func (e *Engine) AddEdge(from, to string) {
	e.edges[from] = to
}

// AddConditionalEdges registers a router for a node. The targets are
// declarative only, used for validation and rendering.
func (e *Engine) AddConditionalEdges(from string, router Router, targets ...string) {
	e.conditionals[from] = conditional{router: router, targets: targets}
}

// SetEntryPoint names the node every run starts at.
func (e *Engine) SetEntryPoint(name string) {
	e.entry = name
}

// SetRecovery names the node a run resumes at after a node panics.
func (e *Engine) SetRecovery(name string) {
	e.recovery = name
}

// Validate checks the topology is runnable.
func (e *Engine) Validate() error {
	if e.entry == "" {
		return fmt.Errorf("no entry point set")
	}
	if _, ok := e.nodes[e.entry]; !ok {
		return fmt.Errorf("entry point %s is not a node", e.entry)
	}
	if e.recovery != "" {
		if _, ok := e.nodes[e.recovery]; !ok {
			return fmt.Errorf("recovery node %s is not a node", e.recovery)
		}
	}
	for from, to := range e.edges {
		if _, ok := e.nodes[from]; !ok {
			return fmt.Errorf("edge source %s is not a node", from)
		}
		if to != End {
			if _, ok := e.nodes[to]; !ok {
				return fmt.Errorf("edge target %s is not a node", to)
			}
		}
	}
	for from, c := range e.conditionals {
		if _, ok := e.nodes[from]; !ok {
			return fmt.Errorf("conditional source %s is not a node", from)
		}
		for _, target := range c.targets {
			if target == End {
				continue
			}
			if _, ok := e.nodes[target]; !ok {
				return fmt.Errorf("conditional target %s is not a node", target)
			}
		}
	}
	return nil
}

// Run executes the graph over the state. It never returns a partial
// transition: every executed node either completed or was recovered.
func (e *Engine) Run(ctx context.Context, state *conversation.State) (Outcome, error) {
	if err := e.Validate(); err != nil {
		return Outcome{}, err
	}

	outcome := Outcome{}
	current := e.entry

	for {
		if outcome.Steps >= e.maxSteps {
			slog.Warn("Graph run hit the step cap", "steps", outcome.Steps, "at", current)
			outcome.Capped = true
			return outcome, nil
		}
		if err := ctx.Err(); err != nil {
			slog.Warn("Graph run stopped by context", "error", err, "at", current)
			outcome.Expired = true
			return outcome, nil
		}

		outcome.Steps++
		outcome.LastNode = current

		recovered := e.step(ctx, current, state)

		next := ""
		switch {
		case recovered:
			if e.recovery == "" || current == e.recovery {
				return outcome, fmt.Errorf("node %s failed and no recovery is possible", current)
			}
			next = e.recovery
		case e.conditionals[current].router != nil:
			next = e.conditionals[current].router(state)
		default:
			next = e.edges[current]
		}

		if next == "" || next == End {
			return outcome, nil
		}
		if _, ok := e.nodes[next]; !ok {
			return outcome, fmt.Errorf("router at %s chose unknown node %s", current, next)
		}
		current = next
	}
}

// step runs one node, converting a panic into an error tag on the
// state. Returns true when the node panicked.
func (e *Engine) step(ctx context.Context, name string, state *conversation.State) (recovered bool) {
	defer func() {
		if r := recover(); r != nil {
			slog.Error("Graph node panicked", "node", name, "panic", r)
			state.Control.CurrentStateTag = name + "_error"
			state.AppendTurn(name, fmt.Sprintf("node failed: %v", r), nil)
			recovered = true
		}
	}()

	if err := e.nodes[name](ctx, state); err != nil {
		slog.Error("Graph node returned an error", "node", name, "error", err)
		state.Control.CurrentStateTag = name + "_error"
		state.AppendTurn(name, fmt.Sprintf("node failed: %v", err), nil)
	}
	return false
}

// Mermaid renders the topology as a mermaid flowchart. Conditional
// edges are dotted.
func (e *Engine) Mermaid() string {
	var sb strings.Builder
	sb.WriteString("graph TD\n")

	names := make([]string, 0, len(e.nodes))
	for name := range e.nodes {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		marker := ""
		if name == e.entry {
			marker = ":::entry"
		}
		fmt.Fprintf(&sb, "    %s[%s]%s\n", name, name, marker)
	}
	sb.WriteString("    FINISH((FINISH))\n")

	froms := make([]string, 0, len(e.edges))
	for from := range e.edges {
		froms = append(froms, from)
	}
	sort.Strings(froms)
	for _, from := range froms {
		fmt.Fprintf(&sb, "    %s --> %s\n", from, e.edges[from])
	}

	condFroms := make([]string, 0, len(e.conditionals))
	for from := range e.conditionals {
		condFroms = append(condFroms, from)
	}
	sort.Strings(condFroms)
	for _, from := range condFroms {
		targets := append([]string{}, e.conditionals[from].targets...)
		sort.Strings(targets)
		for _, target := range targets {
			fmt.Fprintf(&sb, "    %s -.-> %s\n", from, target)
		}
	}

	return sb.String()
}

// Package pipeline assembles the tutoring components into a runnable
// service: retrieval, supervisor routing, specialists and finalization.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/Javi111003/OlivIA-RAG/pkg/agents"
	"github.com/Javi111003/OlivIA-RAG/pkg/config"
	"github.com/Javi111003/OlivIA-RAG/pkg/conversation"
	"github.com/Javi111003/OlivIA-RAG/pkg/databases"
	"github.com/Javi111003/OlivIA-RAG/pkg/embedders"
	"github.com/Javi111003/OlivIA-RAG/pkg/graph"
	"github.com/Javi111003/OlivIA-RAG/pkg/knowledge"
	"github.com/Javi111003/OlivIA-RAG/pkg/llms"
	"github.com/Javi111003/OlivIA-RAG/pkg/observability"
	"github.com/Javi111003/OlivIA-RAG/pkg/planner"
	"github.com/Javi111003/OlivIA-RAG/pkg/retriever"
	"github.com/Javi111003/OlivIA-RAG/pkg/structured"
	"github.com/Javi111003/OlivIA-RAG/pkg/utils"
)

// Node names in the tutoring graph.
const (
	nodeRetriever  = "retriever"
	nodeSupervisor = "supervisor"
)

// tagRetrieverDegraded marks the state when retrieval fell back to
// placeholder documents. Later nodes overwrite the tag; the turn
// metadata keeps the permanent record.
const tagRetrieverDegraded = "retriever_degraded"

// contextTokenBudget caps how much retrieved material enters prompts.
const contextTokenBudget = 1200

// Components are the external providers the pipeline runs on. Tests
// inject doubles here.
type Components struct {
	LLM      llms.LLMProvider
	Embedder embedders.EmbedderProvider
	Database databases.DatabaseProvider
	Metrics  *observability.Metrics
}

// Result is the outcome of one tutoring run.
type Result struct {
	Answer   string
	Steps    int
	Degraded bool
	State    *conversation.State
}

// Pipeline owns the assembled agents and runs queries through them.
type Pipeline struct {
	cfg     *config.Config
	metrics *observability.Metrics

	llm      llms.LLMProvider
	embedder embedders.EmbedderProvider
	database databases.DatabaseProvider
	tokens   *utils.TokenCounter

	retriever   *retriever.Retriever
	supervisor  *agents.Supervisor
	mathExpert  *agents.MathExpert
	examCreator *agents.ExamCreator
	planning    *agents.Planning
	evaluator   *agents.Evaluator
}

// New builds the pipeline with real providers from config.
func New(cfg *config.Config) (*Pipeline, error) {
	llmCfg, ok := cfg.LLMs[cfg.Tutor.LLM]
	if !ok {
		return nil, fmt.Errorf("tutor llm %q is not configured", cfg.Tutor.LLM)
	}
	llm, err := llms.NewLLMRegistry().CreateLLMFromConfig(cfg.Tutor.LLM, llmCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create llm: %w", err)
	}

	embedderCfg, ok := cfg.Embedders[cfg.Retrieval.Embedder]
	if !ok {
		return nil, fmt.Errorf("retrieval embedder %q is not configured", cfg.Retrieval.Embedder)
	}
	embedder, err := embedders.NewEmbedderRegistry().CreateEmbedderFromConfig(cfg.Retrieval.Embedder, embedderCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create embedder: %w", err)
	}

	database, err := databases.CreateDatabaseFromConfig(&cfg.VectorStore)
	if err != nil {
		return nil, fmt.Errorf("failed to create vector store: %w", err)
	}

	metrics, err := observability.NewMetrics(&cfg.Metrics)
	if err != nil {
		return nil, fmt.Errorf("failed to create metrics: %w", err)
	}

	p, err := NewWithComponents(cfg, Components{
		LLM:      llm,
		Embedder: embedder,
		Database: database,
		Metrics:  metrics,
	})
	if err != nil {
		return nil, err
	}
	p.tokens = utils.NewTokenCounter(llmCfg.Model)
	return p, nil
}

// NewWithComponents builds the pipeline over injected providers.
func NewWithComponents(cfg *config.Config, comp Components) (*Pipeline, error) {
	if comp.LLM == nil {
		return nil, fmt.Errorf("pipeline requires an llm")
	}
	if comp.Metrics == nil {
		m, err := observability.NewMetrics(nil)
		if err != nil {
			return nil, err
		}
		comp.Metrics = m
	}

	llm := meteredLLM{LLMProvider: comp.LLM, metrics: comp.Metrics}
	envelope := structured.New(llm)

	p := &Pipeline{
		cfg:      cfg,
		metrics:  comp.Metrics,
		llm:      comp.LLM,
		embedder: comp.Embedder,
		database: comp.Database,
		tokens:   utils.NewEstimator(),

		supervisor:  agents.NewSupervisor(envelope, cfg.Tutor.HistoryWindow),
		mathExpert:  agents.NewMathExpert(envelope, knowledge.NewUpdater(envelope)),
		examCreator: agents.NewExamCreator(envelope),
		planning:    agents.NewPlanning(envelope, planner.NewOptimizer(&cfg.Planner, nil)),
		evaluator:   agents.NewEvaluator(envelope),
	}

	if comp.Embedder != nil && comp.Database != nil {
		p.retriever = retriever.New(comp.Embedder, comp.Database, cfg.VectorStore.Collection, cfg.Retrieval.TopK)
	}

	return p, nil
}

// Run answers one query through the tutoring graph.
func (p *Pipeline) Run(ctx context.Context, query string) (*Result, error) {
	if p.cfg.Tutor.DeadlineSeconds > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, time.Duration(p.cfg.Tutor.DeadlineSeconds)*time.Second)
		defer cancel()
	}

	p.metrics.RecordRequest(ctx)

	state := conversation.NewState(query)
	retrievalDegraded := false

	engine, err := p.buildGraph(&retrievalDegraded)
	if err != nil {
		return nil, err
	}

	outcome, err := engine.Run(ctx, state)
	if err != nil {
		return nil, err
	}
	p.metrics.RecordSteps(ctx, outcome.Steps)
	if outcome.Degraded() {
		p.metrics.RecordDegraded(ctx, "graph")
	}

	answer := agents.Finalize(state, p.cfg.Tutor.FinalizerPriority, outcome.Degraded())

	slog.Info("Tutoring run finished",
		"state_id", state.ID,
		"steps", outcome.Steps,
		"degraded", outcome.Degraded(),
		"retrieval_degraded", retrievalDegraded,
		"last_node", outcome.LastNode)

	return &Result{
		Answer:   answer,
		Steps:    outcome.Steps,
		Degraded: outcome.Degraded(),
		State:    state,
	}, nil
}

// Metrics exposes the pipeline's metrics surface, e.g. for the HTTP
// scrape endpoint.
func (p *Pipeline) Metrics() *observability.Metrics {
	return p.metrics
}

// Answer runs a query and returns only the final text.
func (p *Pipeline) Answer(ctx context.Context, query string) (string, error) {
	result, err := p.Run(ctx, query)
	if err != nil {
		return "", err
	}
	return result.Answer, nil
}

// Mermaid renders the tutoring graph topology.
func (p *Pipeline) Mermaid() (string, error) {
	unused := false
	engine, err := p.buildGraph(&unused)
	if err != nil {
		return "", err
	}
	return engine.Mermaid(), nil
}

// buildGraph wires the fixed tutoring topology. Specialists always
// return to the supervisor, which alone decides termination.
func (p *Pipeline) buildGraph(retrievalDegraded *bool) (*graph.Engine, error) {
	e := graph.New(p.cfg.Tutor.MaxSteps)

	if err := e.AddNode(nodeRetriever, p.retrieveNode(retrievalDegraded)); err != nil {
		return nil, err
	}
	if err := e.AddNode(nodeSupervisor, func(ctx context.Context, state *conversation.State) error {
		p.supervisor.Decide(ctx, state)
		return nil
	}); err != nil {
		return nil, err
	}
	specialists := map[string]func(context.Context, *conversation.State) error{
		agents.AgentMathExpert:  p.mathExpert.Run,
		agents.AgentExamCreator: p.examCreator.Run,
		agents.AgentPlanning:    p.planning.Run,
		agents.AgentEvaluator:   p.evaluator.Run,
	}
	for name, fn := range specialists {
		if err := e.AddNode(name, fn); err != nil {
			return nil, err
		}
		e.AddEdge(name, nodeSupervisor)
	}

	e.AddEdge(nodeRetriever, nodeSupervisor)
	e.AddConditionalEdges(nodeSupervisor, func(state *conversation.State) string {
		next := state.Control.NextAgent
		if next == "" || next == agents.AgentFinish {
			return graph.End
		}
		return next
	}, agents.AgentMathExpert, agents.AgentExamCreator, agents.AgentPlanning, agents.AgentEvaluator, graph.End)

	e.SetEntryPoint(nodeRetriever)
	e.SetRecovery(nodeSupervisor)

	return e, nil
}

// retrieveNode fetches context for the query. Retrieval never fails a
// run; a degraded fetch is recorded and the run continues on fallback
// documents.
func (p *Pipeline) retrieveNode(retrievalDegraded *bool) graph.NodeFunc {
	return func(ctx context.Context, state *conversation.State) error {
		if p.retriever == nil {
			return nil
		}

		docs, degraded := p.retriever.Retrieve(ctx, state.InitialQuery)
		state.RetrievedContext = p.capContext(docs)
		if degraded {
			*retrievalDegraded = true
			state.Control.CurrentStateTag = tagRetrieverDegraded
			p.metrics.RecordDegraded(ctx, "retriever")
		}

		state.AppendTurn(conversation.RoleRetriever,
			fmt.Sprintf("retrieved %d context documents", len(state.RetrievedContext)),
			map[string]any{"degraded": degraded})
		return nil
	}
}

// capContext drops trailing documents once the token budget is spent.
// At least one document always survives.
func (p *Pipeline) capContext(docs []conversation.Document) []conversation.Document {
	total := 0
	kept := make([]conversation.Document, 0, len(docs))
	for _, doc := range docs {
		cost := p.tokens.Count(doc.Content)
		if len(kept) > 0 && total+cost > contextTokenBudget {
			break
		}
		kept = append(kept, doc)
		total += cost
	}
	return kept
}

// Close releases all providers.
func (p *Pipeline) Close() error {
	var firstErr error
	if p.llm != nil {
		if err := p.llm.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	if p.embedder != nil {
		if err := p.embedder.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	if p.database != nil {
		if err := p.database.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// meteredLLM counts generations before delegating.
type meteredLLM struct {
	llms.LLMProvider
	metrics *observability.Metrics
}

func (m meteredLLM) Generate(ctx context.Context, messages []llms.Message) (string, int, error) {
	m.metrics.RecordLLMCall(ctx, m.GetModelName())
	return m.LLMProvider.Generate(ctx, messages)
}

package config

import "fmt"

// RetrievalConfig configures context retrieval for incoming queries.
type RetrievalConfig struct {
	// Embedder names the embedder used to vectorize queries.
	Embedder string `yaml:"embedder,omitempty" json:"embedder,omitempty"`

	// TopK is the number of documents fetched per query.
	TopK int `yaml:"top_k,omitempty" json:"top_k,omitempty"`
}

// SetDefaults applies default values.
func (c *RetrievalConfig) SetDefaults() {
	if c.Embedder == "" {
		c.Embedder = "default"
	}
	if c.TopK == 0 {
		c.TopK = 3
	}
}

// Validate checks the retrieval configuration.
func (c *RetrievalConfig) Validate() error {
	if c.TopK <= 0 {
		return fmt.Errorf("top_k must be positive")
	}
	return nil
}

// TutorConfig configures the orchestration graph driver.
type TutorConfig struct {
	// LLM names the LLM used by every agent.
	LLM string `yaml:"llm,omitempty" json:"llm,omitempty"`

	// MaxSteps caps supervisor hops per request.
	MaxSteps int `yaml:"max_steps,omitempty" json:"max_steps,omitempty"`

	// DeadlineSeconds bounds a whole request. Zero means no deadline.
	DeadlineSeconds int `yaml:"deadline_seconds,omitempty" json:"deadline_seconds,omitempty"`

	// FinalizerPriority orders which specialist response wins when the
	// run finishes with several available.
	FinalizerPriority []string `yaml:"finalizer_priority,omitempty" json:"finalizer_priority,omitempty"`

	// HistoryWindow is how many recent turns the supervisor prompt carries.
	HistoryWindow int `yaml:"history_window,omitempty" json:"history_window,omitempty"`
}

// SetDefaults applies default values.
func (c *TutorConfig) SetDefaults() {
	if c.LLM == "" {
		c.LLM = "default"
	}
	if c.MaxSteps == 0 {
		c.MaxSteps = 12
	}
	if len(c.FinalizerPriority) == 0 {
		c.FinalizerPriority = []string{"math_expert", "exam_creator", "planning"}
	}
	if c.HistoryWindow == 0 {
		c.HistoryWindow = 6
	}
}

// Validate checks the tutor configuration.
func (c *TutorConfig) Validate() error {
	if c.MaxSteps <= 0 {
		return fmt.Errorf("max_steps must be positive")
	}
	if len(c.FinalizerPriority) == 0 {
		return fmt.Errorf("finalizer_priority cannot be empty")
	}
	return nil
}

// PlannerConfig holds the genetic optimizer hyperparameters.
type PlannerConfig struct {
	// Generations run by the optimizer.
	Generations int `yaml:"generations,omitempty" json:"generations,omitempty"`

	// PopulationMin and PopulationMax bound the random population size.
	PopulationMin int `yaml:"population_min,omitempty" json:"population_min,omitempty"`
	PopulationMax int `yaml:"population_max,omitempty" json:"population_max,omitempty"`

	// MutationRate is the per-block mutation probability.
	MutationRate float64 `yaml:"mutation_rate,omitempty" json:"mutation_rate,omitempty"`

	// MinBlocks and MaxBlocks bound how many topics a plan covers.
	MinBlocks int `yaml:"min_blocks,omitempty" json:"min_blocks,omitempty"`
	MaxBlocks int `yaml:"max_blocks,omitempty" json:"max_blocks,omitempty"`

	// AvailableTimeHours is the study time budget a plan allocates.
	AvailableTimeHours float64 `yaml:"available_time_hours,omitempty" json:"available_time_hours,omitempty"`
}

// SetDefaults applies default values.
func (c *PlannerConfig) SetDefaults() {
	if c.Generations == 0 {
		c.Generations = 5
	}
	if c.PopulationMin == 0 {
		c.PopulationMin = 50
	}
	if c.PopulationMax == 0 {
		c.PopulationMax = 100
	}
	if c.MutationRate == 0 {
		c.MutationRate = 0.3
	}
	if c.MinBlocks == 0 {
		c.MinBlocks = 4
	}
	if c.MaxBlocks == 0 {
		c.MaxBlocks = 8
	}
	if c.AvailableTimeHours == 0 {
		c.AvailableTimeHours = 40
	}
}

// Validate checks the planner configuration.
func (c *PlannerConfig) Validate() error {
	if c.Generations <= 0 {
		return fmt.Errorf("generations must be positive")
	}
	if c.PopulationMin <= 0 || c.PopulationMax < c.PopulationMin {
		return fmt.Errorf("population bounds must satisfy 0 < min <= max")
	}
	if c.MutationRate < 0 || c.MutationRate > 1 {
		return fmt.Errorf("mutation_rate must be in [0,1]")
	}
	if c.MinBlocks <= 0 || c.MaxBlocks < c.MinBlocks {
		return fmt.Errorf("block bounds must satisfy 0 < min <= max")
	}
	if c.AvailableTimeHours <= 0 {
		return fmt.Errorf("available_time_hours must be positive")
	}
	return nil
}

// Package config defines the application configuration and its loader.
package config

import (
	"fmt"
)

// Config is the root configuration for the tutoring service.
type Config struct {
	// LLMs holds named LLM provider configurations.
	LLMs map[string]*LLMConfig `yaml:"llms,omitempty" json:"llms,omitempty"`

	// Embedders holds named embedder provider configurations.
	Embedders map[string]*EmbedderConfig `yaml:"embedders,omitempty" json:"embedders,omitempty"`

	// VectorStore configures the vector database backing retrieval.
	VectorStore VectorStoreConfig `yaml:"vector_store,omitempty" json:"vector_store,omitempty"`

	// Retrieval configures context retrieval.
	Retrieval RetrievalConfig `yaml:"retrieval,omitempty" json:"retrieval,omitempty"`

	// Tutor configures the orchestration graph.
	Tutor TutorConfig `yaml:"tutor,omitempty" json:"tutor,omitempty"`

	// Planner configures the study plan optimizer.
	Planner PlannerConfig `yaml:"planner,omitempty" json:"planner,omitempty"`

	// Logging configures the process logger.
	Logging LoggingConfig `yaml:"logging,omitempty" json:"logging,omitempty"`

	// Metrics configures the metrics exporter.
	Metrics MetricsConfig `yaml:"metrics,omitempty" json:"metrics,omitempty"`

	// Server configures the HTTP API.
	Server ServerConfig `yaml:"server,omitempty" json:"server,omitempty"`
}

// SetDefaults applies defaults to every section. A zero Config becomes a
// runnable one: a single "default" LLM and embedder are synthesized from
// the environment.
func (c *Config) SetDefaults() {
	if len(c.LLMs) == 0 {
		c.LLMs = map[string]*LLMConfig{
			"default": {},
		}
	}
	for _, llm := range c.LLMs {
		llm.SetDefaults()
	}

	if len(c.Embedders) == 0 {
		c.Embedders = map[string]*EmbedderConfig{
			"default": {},
		}
	}
	for _, emb := range c.Embedders {
		emb.SetDefaults()
	}

	c.VectorStore.SetDefaults()
	c.Retrieval.SetDefaults()
	c.Tutor.SetDefaults()
	c.Planner.SetDefaults()
	c.Logging.SetDefaults()
	c.Metrics.SetDefaults()
	c.Server.SetDefaults()
}

// Validate checks the configuration for internal consistency.
func (c *Config) Validate() error {
	for name, llm := range c.LLMs {
		if err := llm.Validate(); err != nil {
			return fmt.Errorf("llm '%s': %w", name, err)
		}
	}
	for name, emb := range c.Embedders {
		if err := emb.Validate(); err != nil {
			return fmt.Errorf("embedder '%s': %w", name, err)
		}
	}
	if err := c.VectorStore.Validate(); err != nil {
		return fmt.Errorf("vector_store: %w", err)
	}
	if err := c.Retrieval.Validate(); err != nil {
		return fmt.Errorf("retrieval: %w", err)
	}
	if err := c.Tutor.Validate(); err != nil {
		return fmt.Errorf("tutor: %w", err)
	}
	if err := c.Planner.Validate(); err != nil {
		return fmt.Errorf("planner: %w", err)
	}
	if _, ok := c.LLMs[c.Tutor.LLM]; !ok {
		return fmt.Errorf("tutor: llm '%s' is not defined", c.Tutor.LLM)
	}
	if _, ok := c.Embedders[c.Retrieval.Embedder]; !ok {
		return fmt.Errorf("retrieval: embedder '%s' is not defined", c.Retrieval.Embedder)
	}
	return nil
}

// Default returns a fully defaulted configuration without reading any file.
func Default() *Config {
	cfg := &Config{}
	cfg.SetDefaults()
	return cfg
}

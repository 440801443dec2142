package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	cfg := Default()

	assert.Equal(t, 12, cfg.Tutor.MaxSteps)
	assert.Equal(t, []string{"math_expert", "exam_creator", "planning"}, cfg.Tutor.FinalizerPriority)
	assert.Equal(t, 3, cfg.Retrieval.TopK)
	assert.Equal(t, 5, cfg.Planner.Generations)
	assert.Equal(t, 50, cfg.Planner.PopulationMin)
	assert.Equal(t, 100, cfg.Planner.PopulationMax)
	assert.InDelta(t, 0.3, cfg.Planner.MutationRate, 1e-9)
	assert.InDelta(t, 40.0, cfg.Planner.AvailableTimeHours, 1e-9)

	require.Contains(t, cfg.LLMs, "default")
	require.Contains(t, cfg.Embedders, "default")
	assert.NotEmpty(t, cfg.LLMs["default"].Model)
}

func TestPlannerConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*PlannerConfig)
		wantErr bool
	}{
		{"defaults valid", func(c *PlannerConfig) {}, false},
		{"zero generations", func(c *PlannerConfig) { c.Generations = -1 }, true},
		{"inverted population", func(c *PlannerConfig) { c.PopulationMin = 80; c.PopulationMax = 10 }, true},
		{"mutation rate above one", func(c *PlannerConfig) { c.MutationRate = 1.5 }, true},
		{"inverted blocks", func(c *PlannerConfig) { c.MinBlocks = 9; c.MaxBlocks = 2 }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := &PlannerConfig{}
			c.SetDefaults()
			tt.mutate(c)
			err := c.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestExpandEnvVars(t *testing.T) {
	t.Setenv("OLIVIA_TEST_KEY", "sk-test")

	assert.Equal(t, "sk-test", expandEnvVars("${OLIVIA_TEST_KEY}"))
	assert.Equal(t, "sk-test", expandEnvVars("$OLIVIA_TEST_KEY"))
	assert.Equal(t, "fallback", expandEnvVars("${OLIVIA_TEST_MISSING:-fallback}"))
	assert.Equal(t, "", expandEnvVars("${OLIVIA_TEST_MISSING}"))
	assert.Equal(t, "plain", expandEnvVars("plain"))
}

func TestLoaderLoad(t *testing.T) {
	t.Setenv("OLIVIA_TEST_API_KEY", "sk-from-env")

	dir := t.TempDir()
	path := filepath.Join(dir, "olivia.yaml")
	data := []byte(`
llms:
  default:
    provider: openai
    model: gpt-4o-mini
    api_key: ${OLIVIA_TEST_API_KEY}
embedders:
  default:
    provider: ollama
tutor:
  max_steps: 7
planner:
  mutation_rate: 0.5
`)
	require.NoError(t, os.WriteFile(path, data, 0o644))

	loader, err := NewLoader(LoaderOptions{Path: path})
	require.NoError(t, err)

	cfg, err := loader.Load()
	require.NoError(t, err)

	assert.Equal(t, "sk-from-env", cfg.LLMs["default"].APIKey)
	assert.Equal(t, 7, cfg.Tutor.MaxSteps)
	assert.InDelta(t, 0.5, cfg.Planner.MutationRate, 1e-9)
	assert.Equal(t, 3, cfg.Retrieval.TopK)
	assert.Equal(t, "nomic-embed-text", cfg.Embedders["default"].Model)
}

func TestLoaderMissingPath(t *testing.T) {
	_, err := NewLoader(LoaderOptions{})
	assert.Error(t, err)
}

package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func envMap(m map[string]string) func(string) string {
	return func(k string) string { return m[k] }
}

func validConfig() *Config {
	cfg := Default()
	cfg.Provider.APIKey = "sk-test"
	return cfg
}

func TestDefault(t *testing.T) {
	cfg := Default()
	assert.Equal(t, ProviderOpenAI, cfg.Provider.Type)
	assert.Equal(t, DefaultOpenAIModel, cfg.Provider.ModelName())
	assert.Equal(t, DefaultCount, cfg.Generation.DefaultCount)
	assert.ErrorIs(t, cfg.Validate(), ErrMissingAPIKey)
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "eduagents.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
provider:
  type: anthropic
  apiKey: sk-file
  temperature: 0.2
generation:
  defaultCount: 8
  refine: true
logging:
  format: json
`), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, ProviderAnthropic, cfg.Provider.Type)
	assert.Equal(t, "sk-file", cfg.Provider.APIKey)
	assert.InDelta(t, 0.2, cfg.Provider.Temperature, 1e-9)
	assert.EqualValues(t, DefaultMaxTokens, cfg.Provider.MaxTokens, "unset keys keep defaults")
	assert.Equal(t, 8, cfg.Generation.DefaultCount)
	assert.True(t, cfg.Generation.Refine)
	assert.Equal(t, DefaultClaudeModel, cfg.Provider.ModelName())
	assert.NoError(t, cfg.Validate())
}

func TestLoad_EmptyPath(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoad_Errors(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("provider: [unterminated"), 0o600))
	_, err = Load(path)
	assert.Error(t, err)
}

func TestApplyEnv(t *testing.T) {
	cfg := Default()
	cfg.ApplyEnv(envMap(map[string]string{
		"EDUAGENTS_PROVIDER": "Anthropic",
		"EDUAGENTS_MODEL":    "claude-test",
		"ANTHROPIC_API_KEY":  "sk-ant",
		"OPENAI_API_KEY":     "sk-openai",
	}))
	assert.Equal(t, ProviderAnthropic, cfg.Provider.Type)
	assert.Equal(t, "claude-test", cfg.Provider.ModelName())
	assert.Equal(t, "sk-ant", cfg.Provider.APIKey)
}

func TestApplyEnv_ExplicitKeyWins(t *testing.T) {
	cfg := validConfig()
	cfg.ApplyEnv(envMap(map[string]string{"OPENAI_API_KEY": "sk-openai"}))
	assert.Equal(t, "sk-test", cfg.Provider.APIKey)

	cfg.ApplyEnv(envMap(map[string]string{"EDUAGENTS_API_KEY": "sk-override"}))
	assert.Equal(t, "sk-override", cfg.Provider.APIKey)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(c *Config)
	}{
		{"unknown provider", func(c *Config) { c.Provider.Type = "gemini" }},
		{"temperature", func(c *Config) { c.Provider.Temperature = 3 }},
		{"max tokens", func(c *Config) { c.Provider.MaxTokens = 0 }},
		{"max count", func(c *Config) { c.Generation.MaxCount = 0 }},
		{"default count", func(c *Config) { c.Generation.DefaultCount = 100 }},
		{"log format", func(c *Config) { c.Logging.Format = "xml" }},
		{"sample rate", func(c *Config) { c.Telemetry.SampleRate = 1.5 }},
	}
	require.NoError(t, validConfig().Validate())
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestApplyEnv_OverridesPickMatchingKey(t *testing.T) {
	env := envMap(map[string]string{
		"OPENAI_API_KEY":    "sk-openai",
		"ANTHROPIC_API_KEY": "sk-ant",
	})

	cfg := Default()
	cfg.ApplyEnv(env, func(c *Config) { c.Provider.Type = ProviderAnthropic })
	assert.Equal(t, ProviderAnthropic, cfg.Provider.Type)
	assert.Equal(t, "sk-ant", cfg.Provider.APIKey)

	cfg = Default()
	cfg.ApplyEnv(envMap(map[string]string{"EDUAGENTS_PROVIDER": "anthropic", "OPENAI_API_KEY": "sk-openai"}),
		func(c *Config) { c.Provider.Type = ProviderOpenAI })
	assert.Equal(t, ProviderOpenAI, cfg.Provider.Type, "override wins over the environment")
	assert.Equal(t, "sk-openai", cfg.Provider.APIKey)
}

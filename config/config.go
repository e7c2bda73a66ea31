// Package config holds the explicit configuration value handed to the
// eduagents constructors at startup. Nothing outside the CLI reads the
// environment; Load and ApplyEnv are the only places that do.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

const (
	ProviderOpenAI    = "openai"
	ProviderAnthropic = "anthropic"

	DefaultProvider     = ProviderOpenAI
	DefaultOpenAIModel  = "gpt-4o-mini"
	DefaultClaudeModel  = "claude-3-5-sonnet-20241022"
	DefaultTemperature  = 0.7
	DefaultMaxTokens    = 4096
	DefaultCount        = 5
	DefaultMaxCount     = 50
	DefaultLogLevel     = "info"
	DefaultLogFormat    = "text"
	DefaultServiceName  = "eduagents"
	DefaultOTLPEndpoint = "localhost:4318"
)

// ErrMissingAPIKey is returned by Validate when no provider API key is set.
var ErrMissingAPIKey = errors.New("missing api key")

// Config is the complete runtime configuration of eduagents.
type Config struct {
	Provider   ProviderConfig   `yaml:"provider"`
	Generation GenerationConfig `yaml:"generation"`
	Logging    LoggingConfig    `yaml:"logging"`
	Telemetry  TelemetryConfig  `yaml:"telemetry"`
}

// ProviderConfig selects the model provider and its request defaults.
type ProviderConfig struct {
	Type        string  `yaml:"type"` // "openai" (default) or "anthropic"
	APIKey      string  `yaml:"apiKey"`
	BaseURL     string  `yaml:"baseUrl,omitempty"`
	Model       string  `yaml:"model,omitempty"`
	Temperature float64 `yaml:"temperature"`
	MaxTokens   int64   `yaml:"maxTokens"`
}

// GenerationConfig bounds problem counts and toggles the refine pass.
type GenerationConfig struct {
	DefaultCount int  `yaml:"defaultCount"`
	MaxCount     int  `yaml:"maxCount"`
	Refine       bool `yaml:"refine"`
}

// LoggingConfig configures the structured logger.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"` // text or json
}

// TelemetryConfig configures OpenTelemetry span export.
type TelemetryConfig struct {
	Enabled     bool    `yaml:"enabled"`
	Endpoint    string  `yaml:"endpoint,omitempty"` // OTLP/HTTP host:port
	Insecure    bool    `yaml:"insecure"`
	ServiceName string  `yaml:"serviceName,omitempty"`
	SampleRate  float64 `yaml:"sampleRate"`
}

// Default returns the baseline configuration. It carries no API key.
func Default() *Config {
	return &Config{
		Provider: ProviderConfig{
			Type:        DefaultProvider,
			Temperature: DefaultTemperature,
			MaxTokens:   DefaultMaxTokens,
		},
		Generation: GenerationConfig{
			DefaultCount: DefaultCount,
			MaxCount:     DefaultMaxCount,
		},
		Logging: LoggingConfig{
			Level:  DefaultLogLevel,
			Format: DefaultLogFormat,
		},
		Telemetry: TelemetryConfig{
			Endpoint:    DefaultOTLPEndpoint,
			ServiceName: DefaultServiceName,
			SampleRate:  1,
		},
	}
}

// Load reads a YAML file over the defaults. An empty path returns the
// defaults unchanged.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config %q: %w", path, err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config %q: %w", path, err)
	}
	return cfg, nil
}

// ApplyEnv overrides configuration from environment variables. getenv is
// usually os.Getenv; tests pass a map lookup.
//
//	EDUAGENTS_PROVIDER, EDUAGENTS_MODEL, EDUAGENTS_BASE_URL, EDUAGENTS_API_KEY
//	OPENAI_API_KEY / ANTHROPIC_API_KEY (used when no key is set yet and the
//	provider matches)
//
// overrides run after the environment and before the provider key is
// resolved, so command-line flags win over the environment and still pick
// up the key of the provider they select.
func (c *Config) ApplyEnv(getenv func(string) string, overrides ...func(c *Config)) {
	if v := strings.TrimSpace(getenv("EDUAGENTS_PROVIDER")); v != "" {
		c.Provider.Type = strings.ToLower(v)
	}
	if v := getenv("EDUAGENTS_MODEL"); v != "" {
		c.Provider.Model = v
	}
	if v := getenv("EDUAGENTS_BASE_URL"); v != "" {
		c.Provider.BaseURL = v
	}
	if v := getenv("EDUAGENTS_API_KEY"); v != "" {
		c.Provider.APIKey = v
	}
	for _, fn := range overrides {
		fn(c)
	}
	if c.Provider.APIKey == "" {
		switch c.Provider.Type {
		case ProviderAnthropic:
			c.Provider.APIKey = getenv("ANTHROPIC_API_KEY")
		default:
			c.Provider.APIKey = getenv("OPENAI_API_KEY")
		}
	}
}

// ModelName returns the configured model or the provider default.
func (p ProviderConfig) ModelName() string {
	if p.Model != "" {
		return p.Model
	}
	if p.Type == ProviderAnthropic {
		return DefaultClaudeModel
	}
	return DefaultOpenAIModel
}

// Validate checks the configuration for values the constructors cannot use.
func (c *Config) Validate() error {
	switch c.Provider.Type {
	case ProviderOpenAI, ProviderAnthropic:
	default:
		return fmt.Errorf("unknown provider %q", c.Provider.Type)
	}
	if strings.TrimSpace(c.Provider.APIKey) == "" {
		return ErrMissingAPIKey
	}
	if c.Provider.Temperature < 0 || c.Provider.Temperature > 2 {
		return fmt.Errorf("temperature %v outside 0..2", c.Provider.Temperature)
	}
	if c.Provider.MaxTokens <= 0 {
		return fmt.Errorf("maxTokens must be positive, got %d", c.Provider.MaxTokens)
	}
	if c.Generation.MaxCount <= 0 {
		return fmt.Errorf("maxCount must be positive, got %d", c.Generation.MaxCount)
	}
	if c.Generation.DefaultCount <= 0 || c.Generation.DefaultCount > c.Generation.MaxCount {
		return fmt.Errorf("defaultCount %d outside 1..%d", c.Generation.DefaultCount, c.Generation.MaxCount)
	}
	if c.Telemetry.SampleRate < 0 || c.Telemetry.SampleRate > 1 {
		return fmt.Errorf("sampleRate %v outside 0..1", c.Telemetry.SampleRate)
	}
	switch c.Logging.Format {
	case "text", "json":
	default:
		return fmt.Errorf("unknown log format %q", c.Logging.Format)
	}
	return nil
}

package config

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strconv"

	"gopkg.in/yaml.v3"
)

// Config holds all pathtutor configuration. It is built once at startup and
// passed by reference; nothing below cmd/ reads the environment.
type Config struct {
	// Core settings
	Name    string `yaml:"name"`
	Version string `yaml:"version"`

	// Completion provider
	LLM LLMConfig `yaml:"llm"`

	// Conversation behavior
	Tutor TutorConfig `yaml:"tutor"`

	// Persistence
	Store StoreConfig `yaml:"store"`
	Usage UsageConfig `yaml:"usage"`

	// Observability
	Metrics MetricsConfig `yaml:"metrics"`
	Logging LoggingConfig `yaml:"logging"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Name:    "pathtutor",
		Version: "0.3.0",

		LLM: LLMConfig{
			Provider:          "groq",
			Model:             DefaultModels["groq"],
			Timeout:           "60s",
			MaxTokens:         1024,
			Temperature:       0.2,
			RequestsPerMinute: 30,
		},

		Tutor: TutorConfig{
			HistoryTurns:  3,
			UnknownPolicy: UnknownPolicyNotice,
		},

		Store: StoreConfig{
			Enabled:      true,
			DatabasePath: filepath.Join(DefaultDataDir(), "tutor.db"),
		},

		Usage: UsageConfig{
			Enabled: true,
			Path:    filepath.Join(DefaultDataDir(), "usage.json"),
		},

		Logging: LoggingConfig{
			Level: "info",
			File:  filepath.Join(DefaultDataDir(), "logs", "tutor.log"),
		},
	}
}

// DefaultDataDir returns ~/.pathtutor, or .pathtutor when the home directory
// cannot be resolved.
func DefaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".pathtutor"
	}
	return filepath.Join(home, ".pathtutor")
}

// DefaultConfigPath returns the default location of config.yaml.
func DefaultConfigPath() string {
	return filepath.Join(DefaultDataDir(), "config.yaml")
}

// Load loads configuration from a YAML file and applies environment
// overrides. A missing file yields the defaults.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}
	if err == nil {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config: %w", err)
		}
	}

	cfg.applyEnvOverrides()

	return cfg, nil
}

// Save saves configuration to a YAML file.
func (c *Config) Save(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}

	return nil
}

// applyEnvOverrides applies environment variable overrides.
// Later keys win: GROQ > OPENAI > ANTHROPIC > GEMINI.
func (c *Config) applyEnvOverrides() {
	keys := []struct {
		envVar   string
		provider string
	}{
		{"GEMINI_API_KEY", "gemini"},
		{"ANTHROPIC_API_KEY", "anthropic"},
		{"OPENAI_API_KEY", "openai"},
		{"GROQ_API_KEY", "groq"},
	}
	for _, k := range keys {
		if key := os.Getenv(k.envVar); key != "" {
			if c.LLM.Provider != k.provider {
				c.LLM.Model = ""
			}
			c.LLM.APIKey = key
			c.LLM.Provider = k.provider
		}
	}

	if model := os.Getenv("MODEL"); model != "" {
		c.LLM.Model = model
	}
	if c.LLM.Model == "" {
		c.LLM.Model = DefaultModels[c.LLM.Provider]
	}

	if path := os.Getenv("PATHTUTOR_DB"); path != "" {
		c.Store.DatabasePath = path
	}
	if v := os.Getenv("PATHTUTOR_HISTORY_TURNS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.Tutor.HistoryTurns = n
		}
	}
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if c.LLM.APIKey == "" {
		return fmt.Errorf("LLM API key not configured (set GROQ_API_KEY, OPENAI_API_KEY, ANTHROPIC_API_KEY, or GEMINI_API_KEY)")
	}
	if !slices.Contains(ValidProviders, c.LLM.Provider) {
		return fmt.Errorf("invalid LLM provider: %s (valid: %v)", c.LLM.Provider, ValidProviders)
	}
	if c.LLM.Model == "" {
		return fmt.Errorf("no model configured for provider %s (set llm.model or MODEL)", c.LLM.Provider)
	}
	return c.Tutor.Validate()
}

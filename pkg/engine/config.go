package engine

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the top-level application configuration.
type Config struct {
	Provider ProviderConfig `yaml:"provider"`
	Servers  []ServerConfig `yaml:"servers"`
	Chat     ChatConfig     `yaml:"chat"`
}

// ProviderConfig describes the LLM provider to use.
type ProviderConfig struct {
	Kind    string `yaml:"kind"`     // "anthropic" or "openai".
	BaseURL string `yaml:"base_url"` // Optional; defaults per kind.
	APIKey  string `yaml:"api_key"`  //nolint:gosec // configuration field, not a hardcoded secret
	Model   string `yaml:"model"`
}

// ServerConfig describes one MCP backend. Exactly one of Command or URL
// must be set: Command spawns a stdio subprocess, URL connects over SSE.
type ServerConfig struct {
	Name    string   `yaml:"name"`
	Command string   `yaml:"command"`
	Args    []string `yaml:"args"`
	URL     string   `yaml:"url"`
}

// ChatConfig holds conversation loop settings.
type ChatConfig struct {
	SystemPrompt  string `yaml:"system_prompt"`
	MaxIterations int    `yaml:"max_iterations"`
	ModelTimeout  string `yaml:"model_timeout"` // Duration string, e.g. "60s".
	ToolTimeout   string `yaml:"tool_timeout"`  // Duration string, e.g. "30s".
}

// LoadConfig reads a YAML file and returns a Config. Environment variables
// referenced as ${VAR} or $VAR are expanded before parsing, so API keys can
// live in the environment (e.g. loaded from a .env file) rather than in the
// config file.
func LoadConfig(path string) (Config, error) {
	data, err := os.ReadFile(path) //nolint:gosec // path is operator-provided configuration
	if err != nil {
		return Config{}, fmt.Errorf("engine: load config: %w", err)
	}

	expanded := os.ExpandEnv(string(data))

	var cfg Config
	if err := yaml.Unmarshal([]byte(expanded), &cfg); err != nil {
		return Config{}, fmt.Errorf("engine: parse config: %w", err)
	}

	return cfg, nil
}

// Validate checks that the configuration is internally consistent.
func (c Config) Validate() error {
	switch c.Provider.Kind {
	case "anthropic", "openai":
	case "":
		return fmt.Errorf("engine: config: provider kind is required")
	default:
		return fmt.Errorf("engine: config: unknown provider kind %q", c.Provider.Kind)
	}

	if c.Provider.Model == "" {
		return fmt.Errorf("engine: config: provider model is required")
	}
	if c.Provider.APIKey == "" {
		return fmt.Errorf("engine: config: provider api_key is required")
	}

	names := make(map[string]struct{}, len(c.Servers))
	for _, s := range c.Servers {
		if s.Name == "" {
			return fmt.Errorf("engine: config: server name is required")
		}
		if _, dup := names[s.Name]; dup {
			return fmt.Errorf("engine: config: duplicate server name %q", s.Name)
		}
		names[s.Name] = struct{}{}

		if (s.Command == "") == (s.URL == "") {
			return fmt.Errorf("engine: config: server %q: exactly one of command or url is required", s.Name)
		}
	}

	if _, _, err := c.Chat.timeouts(); err != nil {
		return err
	}

	return nil
}

// timeouts parses the duration strings, mapping empty to zero (no deadline).
func (cc ChatConfig) timeouts() (model, tool time.Duration, err error) {
	if cc.ModelTimeout != "" {
		model, err = time.ParseDuration(cc.ModelTimeout)
		if err != nil {
			return 0, 0, fmt.Errorf("engine: config: model_timeout: %w", err)
		}
	}
	if cc.ToolTimeout != "" {
		tool, err = time.ParseDuration(cc.ToolTimeout)
		if err != nil {
			return 0, 0, fmt.Errorf("engine: config: tool_timeout: %w", err)
		}
	}
	return model, tool, nil
}

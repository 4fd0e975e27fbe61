// Package wizard collects an initial configuration interactively.
package wizard

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/huh"
	"github.com/docentchat/docent/pkg/engine"
)

// Run walks the user through provider and server setup and returns the
// resulting configuration.
func Run() (engine.Config, error) {
	var (
		kind       string
		model      string
		apiKey     string
		serverName string
		serverCmd  string
	)

	form := huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[string]().
				Title("Model provider").
				Options(
					huh.NewOption("Anthropic", "anthropic"),
					huh.NewOption("OpenAI", "openai"),
				).
				Value(&kind),
			huh.NewInput().
				Title("Model").
				Placeholder("claude-sonnet-4-5").
				Value(&model),
			huh.NewInput().
				Title("API key").
				Description("Use ${VAR} to read it from the environment.").
				Placeholder("${ANTHROPIC_API_KEY}").
				Value(&apiKey),
		),
		huh.NewGroup(
			huh.NewInput().
				Title("First MCP server name").
				Placeholder("docs").
				Value(&serverName),
			huh.NewInput().
				Title("Command to launch it").
				Description("Leave empty to skip; more servers can be added to the file later.").
				Placeholder("docserver").
				Value(&serverCmd),
		),
	)

	if err := form.Run(); err != nil {
		return engine.Config{}, fmt.Errorf("wizard: %w", err)
	}

	if model == "" {
		return engine.Config{}, fmt.Errorf("wizard: model is required")
	}
	if apiKey == "" {
		return engine.Config{}, fmt.Errorf("wizard: api key is required")
	}

	cfg := engine.Config{
		Provider: engine.ProviderConfig{
			Kind:   kind,
			Model:  model,
			APIKey: apiKey,
		},
		Chat: engine.ChatConfig{
			SystemPrompt: "You are a helpful assistant with access to documents and tools.",
		},
	}

	if serverName != "" && serverCmd != "" {
		parts := strings.Fields(serverCmd)
		cfg.Servers = append(cfg.Servers, engine.ServerConfig{
			Name:    serverName,
			Command: parts[0],
			Args:    parts[1:],
		})
	}

	return cfg, nil
}

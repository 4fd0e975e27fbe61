package engine

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/docentchat/docent/pkg/catalog"
	"github.com/docentchat/docent/pkg/providers/anthropic"
	"github.com/docentchat/docent/pkg/providers/openai"
	"github.com/docentchat/docent/pkg/providers/provider"
	"github.com/docentchat/docent/pkg/registry"
	"github.com/docentchat/docent/pkg/tools/mcpclient"
)

// Default API base URLs per provider kind.
const (
	anthropicBaseURL = "https://api.anthropic.com"
	openaiBaseURL    = "https://api.openai.com"
)

// Engine is the composition root: it builds the provider adapter from
// configuration, connects the configured MCP backends, and hands out chat
// sessions.
type Engine struct {
	cfg       Config
	log       *slog.Logger
	completer provider.Completer
	reg       *registry.Registry
	cat       *catalog.Catalog

	mu       sync.Mutex
	sessions map[string]*Session
}

// New creates an Engine from the given configuration. A backend that cannot
// be reached or fails its handshake is logged as a warning and excluded;
// the engine still comes up with the backends that did connect. A nil
// logger falls back to slog.Default.
func New(ctx context.Context, cfg Config, log *slog.Logger) (*Engine, error) {
	if log == nil {
		log = slog.Default()
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	completer, err := buildCompleter(cfg.Provider)
	if err != nil {
		return nil, err
	}

	e := &Engine{
		cfg:       cfg,
		log:       log,
		completer: completer,
		reg:       registry.New(),
		sessions:  make(map[string]*Session),
	}

	for _, sc := range cfg.Servers {
		client, err := connect(ctx, sc)
		if err != nil {
			if ctx.Err() != nil {
				_ = e.Close()
				return nil, ctx.Err()
			}
			log.Warn("backend unavailable", "server", sc.Name, "error", err)
			continue
		}

		if err := e.reg.Register(sc.Name, client); err != nil {
			_ = client.Close()
			_ = e.Close()
			return nil, err
		}

		log.Info("backend connected", "server", sc.Name)
	}

	e.cat = catalog.New(e.reg, log)

	return e, nil
}

// Catalog returns the engine's capability catalog.
func (e *Engine) Catalog() *catalog.Catalog { return e.cat }

// Backends returns the number of connected backends.
func (e *Engine) Backends() int { return e.reg.Len() }

// Close releases every connected backend. All cleanups run even if some
// fail; failures come back as one aggregate error.
func (e *Engine) Close() error {
	return e.reg.CloseAll()
}

// NewSession creates a new chat session with its own conversation log.
func (e *Engine) NewSession() (*Session, error) {
	modelTimeout, toolTimeout, err := e.cfg.Chat.timeouts()
	if err != nil {
		return nil, err
	}

	s := newSession(e, modelTimeout, toolTimeout)

	e.mu.Lock()
	e.sessions[s.ID()] = s
	e.mu.Unlock()

	return s, nil
}

// Session returns an existing session by ID.
func (e *Engine) Session(id string) (*Session, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()

	s, ok := e.sessions[id]
	return s, ok
}

// connect establishes one backend connection per its config.
func connect(ctx context.Context, sc ServerConfig) (*mcpclient.Client, error) {
	if sc.URL != "" {
		return mcpclient.NewSSE(ctx, sc.URL)
	}
	return mcpclient.New(ctx, sc.Command, sc.Args...)
}

// buildCompleter creates the provider adapter for the configured kind.
func buildCompleter(pc ProviderConfig) (provider.Completer, error) {
	switch pc.Kind {
	case "anthropic":
		baseURL := pc.BaseURL
		if baseURL == "" {
			baseURL = anthropicBaseURL
		}
		return anthropic.New(baseURL, pc.APIKey, pc.Model), nil
	case "openai":
		baseURL := pc.BaseURL
		if baseURL == "" {
			baseURL = openaiBaseURL
		}
		return openai.New(baseURL, pc.APIKey, pc.Model), nil
	default:
		return nil, fmt.Errorf("engine: unknown provider kind %q", pc.Kind)
	}
}

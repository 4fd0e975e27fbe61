package engine

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/docentchat/docent/pkg/agent"
	"github.com/docentchat/docent/pkg/chats/chat"
	"github.com/docentchat/docent/pkg/chats/message"
	"github.com/docentchat/docent/pkg/chats/role"
	"github.com/docentchat/docent/pkg/resolver"
	"github.com/google/uuid"
)

// Session is one interactive conversation: an append-only log, the
// mention/command resolver, and the orchestration loop. Only one Send may
// be active at a time; the conversation lives in memory for the session's
// lifetime and is never persisted.
type Session struct {
	id       string
	chat     *chat.Chat
	resolver *resolver.Resolver
	agent    *agent.Agent

	mu     sync.Mutex
	active bool
}

func newSession(e *Engine, modelTimeout, toolTimeout time.Duration) *Session {
	var msgs []message.Message
	if e.cfg.Chat.SystemPrompt != "" {
		msgs = append(msgs, message.NewText(role.System, e.cfg.Chat.SystemPrompt))
	}
	c := chat.New(msgs...)

	opts := agent.Options{
		MaxIterations: e.cfg.Chat.MaxIterations,
		ModelTimeout:  modelTimeout,
		ToolTimeout:   toolTimeout,
	}

	return &Session{
		id:       uuid.NewString(),
		chat:     c,
		resolver: resolver.New(e.cat, e.log),
		agent:    agent.New(e.completer, e.cat, c, opts, e.log),
	}
}

// ID returns the session identifier.
func (s *Session) ID() string { return s.id }

// Chat returns the session's conversation log.
func (s *Session) Chat() *chat.Chat { return s.chat }

// Send runs one complete chat interaction: the resolver turns the raw input
// into conversation turns, the loop drives model and tool calls to
// convergence, and the model's final text comes back. Send performs no UI
// side effects.
func (s *Session) Send(ctx context.Context, input string) (string, error) {
	if err := s.acquire(); err != nil {
		return "", err
	}
	defer s.release()

	if err := s.resolver.Resolve(ctx, input, s.chat); err != nil {
		return "", err
	}

	reply, err := s.agent.Run(ctx)
	if err != nil {
		return "", err
	}

	return reply.TextContent(), nil
}

func (s *Session) acquire() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.active {
		return fmt.Errorf("engine: session %s: another Send is already active", s.id)
	}
	s.active = true
	return nil
}

func (s *Session) release() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.active = false
}

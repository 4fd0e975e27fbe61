// Package agent drives the conversation/tool-orchestration loop: submit the
// conversation and tool catalog to the model, execute any tool-use requests
// against their owning backends, append the results, and resubmit until the
// model produces a final answer.
package agent

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/docentchat/docent/pkg/catalog"
	"github.com/docentchat/docent/pkg/chats/chat"
	"github.com/docentchat/docent/pkg/chats/content"
	"github.com/docentchat/docent/pkg/chats/message"
	"github.com/docentchat/docent/pkg/chats/role"
	"github.com/docentchat/docent/pkg/providers/provider"
	"github.com/docentchat/docent/pkg/tools/toolbox"
)

// DefaultMaxIterations bounds the loop when Options.MaxIterations is zero.
// A misbehaving model or tool could otherwise cycle forever.
const DefaultMaxIterations = 25

// ErrMaxIterations is returned when the loop exceeds its iteration cap
// without the model producing a final answer. The session should be
// considered unusable afterwards.
var ErrMaxIterations = errors.New("agent: max iterations reached")

// Options configures the loop.
type Options struct {
	// MaxIterations caps model round-trips. Zero means DefaultMaxIterations.
	MaxIterations int
	// ModelTimeout bounds each model call. Zero means no per-call deadline.
	ModelTimeout time.Duration
	// ToolTimeout bounds each tool invocation. Zero means no per-call
	// deadline. A timed-out tool produces an error-flagged result, not a
	// loop failure.
	ToolTimeout time.Duration
}

// Agent is the orchestration loop for one conversation. It is not safe for
// concurrent use; a session runs at most one loop at a time.
type Agent struct {
	completer provider.Completer
	catalog   *catalog.Catalog
	chat      *chat.Chat
	opts      Options
	log       *slog.Logger
}

// New creates an Agent. A nil logger falls back to slog.Default.
func New(completer provider.Completer, cat *catalog.Catalog, c *chat.Chat, opts Options, log *slog.Logger) *Agent {
	if log == nil {
		log = slog.Default()
	}
	return &Agent{
		completer: completer,
		catalog:   cat,
		chat:      c,
		opts:      opts,
		log:       log,
	}
}

// Chat returns the conversation log the loop reads and appends to.
func (a *Agent) Chat() *chat.Chat { return a.chat }

// Run executes the loop until the model replies without tool-use requests,
// then returns that final reply. Tool failures of any shape (unknown tool,
// backend error, per-tool timeout) become error-flagged tool-result turns
// the model reacts to on the next round; only model-call failures and the
// iteration cap escape as errors.
func (a *Agent) Run(ctx context.Context) (message.Message, error) {
	maxIterations := a.opts.MaxIterations
	if maxIterations <= 0 {
		maxIterations = DefaultMaxIterations
	}

	for i := 0; i < maxIterations; i++ {
		// Rebuild the catalog each round so backends may come and go
		// between iterations. Only tools are submitted to the model.
		tools := a.catalog.Tools(ctx)

		reply, err := a.complete(ctx, tools)
		if err != nil {
			return message.Message{}, err
		}

		a.chat.Append(reply)

		calls := reply.ToolCalls()
		if len(calls) == 0 {
			return reply, nil
		}

		a.log.Debug("model requested tools", "count", len(calls), "iteration", i)

		// One result turn per request, appended in request order with the
		// request's correlation ID.
		tb := a.catalog.ToolBox(ctx)
		for _, tc := range calls {
			result := a.callTool(ctx, tb, tc)
			a.chat.Append(message.New(role.Tool, result))
		}
	}

	return message.Message{}, ErrMaxIterations
}

// complete runs one model call under the configured deadline.
func (a *Agent) complete(ctx context.Context, tools []toolbox.Tool) (message.Message, error) {
	if a.opts.ModelTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, a.opts.ModelTimeout)
		defer cancel()
	}

	return a.completer.Complete(ctx, a.chat, tools)
}

// callTool runs one tool invocation under the configured deadline. The
// ToolBox already converts unknown tools and handler errors into
// error-flagged results; this adds the timeout conversion.
func (a *Agent) callTool(ctx context.Context, tb *toolbox.ToolBox, tc content.ToolCall) content.ToolResult {
	if a.opts.ToolTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, a.opts.ToolTimeout)
		defer cancel()
	}

	result := tb.Call(ctx, tc)
	if result.IsError {
		a.log.Warn("tool call failed", "tool", tc.Name, "id", tc.ID, "error", result.Content)
	}

	return result
}

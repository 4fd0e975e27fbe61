// Package resolver turns raw user input into conversation turns before the
// orchestration loop runs. It handles two lexical forms: "@identifier"
// mentions, which become resource reads injected into the user's turn, and
// "/name args" commands, which become prompt fetches. Both degrade
// gracefully: input that looks like a mention or command but resolves to
// nothing is treated as ordinary chat text.
package resolver

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/docentchat/docent/pkg/catalog"
	"github.com/docentchat/docent/pkg/chats/chat"
	"github.com/docentchat/docent/pkg/chats/message"
	"github.com/docentchat/docent/pkg/chats/role"
	"github.com/docentchat/docent/pkg/tools/capability"
)

// queryTemplate wraps the user's question together with fetched resource
// content. The note about "@" keeps the model from re-reading documents
// whose content is already present.
const queryTemplate = `The user has a question:
<query>
%s
</query>

The following context may be useful in answering it:
<context>
%s
</context>

The query may mention documents like "@report.pdf"; the "@" is only mention
syntax and the document's actual name has no "@". When a document's content
appears in the context above, answer from it directly instead of using a
tool to read the document, and don't refer to the context itself in your
answer.`

// Resolver resolves mention and command syntax against the capability
// catalog.
type Resolver struct {
	catalog *catalog.Catalog
	log     *slog.Logger
}

// New creates a Resolver. A nil logger falls back to slog.Default.
func New(cat *catalog.Catalog, log *slog.Logger) *Resolver {
	if log == nil {
		log = slog.Default()
	}
	return &Resolver{catalog: cat, log: log}
}

// Resolve parses input and appends the resulting turn(s) to c. It only ever
// appends; existing turns are never touched. Exactly one of three shapes
// results:
//   - a command that resolves to a prompt: the prompt's message sequence
//   - input with resolved mentions: one user turn wrapping query plus
//     fetched resource content
//   - anything else: one user turn with the input verbatim
//
// The returned error is non-nil only for context cancellation; lookup
// failures degrade to the verbatim shape.
func (r *Resolver) Resolve(ctx context.Context, input string, c *chat.Chat) error {
	if strings.HasPrefix(strings.TrimSpace(input), "/") {
		done, err := r.resolveCommand(ctx, input, c)
		if err != nil || done {
			return err
		}
		// Unknown command: fall through and treat as chat text.
	}

	return r.resolveMentions(ctx, input, c)
}

// resolveCommand handles "/name arg..." input. It reports done=true when a
// prompt was fetched and its messages appended. An unknown prompt or a
// fetch failure reports done=false so the caller can degrade to plain chat.
func (r *Resolver) resolveCommand(ctx context.Context, input string, c *chat.Chat) (bool, error) {
	words := strings.Fields(strings.TrimSpace(input))
	name := strings.TrimPrefix(words[0], "/")
	if name == "" {
		return false, nil
	}

	entry, err := r.catalog.FindPrompt(ctx, name)
	if err != nil {
		if ctx.Err() != nil {
			return false, ctx.Err()
		}
		r.log.Debug("command did not match a prompt", "command", name)
		return false, nil
	}

	args := mapArguments(entry.Prompt.Arguments, words[1:])

	msgs, err := entry.Owner.Backend.GetPrompt(ctx, name, args)
	if err != nil {
		if ctx.Err() != nil {
			return false, ctx.Err()
		}
		r.log.Debug("prompt fetch failed", "prompt", name, "backend", entry.Owner.Name, "error", err)
		return false, nil
	}

	c.Append(msgs...)
	return true, nil
}

// resolveMentions handles "@identifier" tokens. Resolved mentions are
// fetched and concatenated into context appended to the user's turn, in
// order of appearance. Unresolvable mentions stay as literal text.
func (r *Resolver) resolveMentions(ctx context.Context, input string, c *chat.Chat) error {
	type doc struct {
		id      string
		content string
	}

	var docs []doc
	seen := make(map[string]bool)

	for _, word := range strings.Fields(input) {
		if !strings.HasPrefix(word, "@") || len(word) < 2 {
			continue
		}
		id := word[1:]
		if seen[id] {
			continue
		}
		seen[id] = true

		text, ok, err := r.fetchResource(ctx, id)
		if err != nil {
			return err
		}
		if ok {
			docs = append(docs, doc{id: id, content: text})
		}
	}

	if len(docs) == 0 {
		c.Append(message.NewText(role.User, input))
		return nil
	}

	var b strings.Builder
	for _, d := range docs {
		fmt.Fprintf(&b, "\n<document id=%q>\n%s\n</document>\n", d.id, d.content)
	}

	c.Append(message.NewText(role.User, fmt.Sprintf(queryTemplate, input, b.String())))
	return nil
}

// fetchResource resolves and reads one mention identifier. ok=false means
// the identifier matched no readable resource and the mention should stay
// literal.
func (r *Resolver) fetchResource(ctx context.Context, id string) (string, bool, error) {
	owner, uri, err := r.catalog.ResolveResource(ctx, id)
	if err != nil {
		if ctx.Err() != nil {
			return "", false, ctx.Err()
		}
		return "", false, nil
	}

	text, err := owner.Backend.ReadResource(ctx, uri)
	if err != nil {
		if ctx.Err() != nil {
			return "", false, ctx.Err()
		}
		r.log.Debug("resource read failed", "id", id, "uri", uri, "backend", owner.Name, "error", err)
		return "", false, nil
	}

	return text, true, nil
}

// mapArguments assigns whitespace-delimited positional values onto the
// prompt's declared argument names. The last declared argument absorbs the
// rest of the line, so free-text tail arguments survive.
func mapArguments(declared []capability.PromptArgument, values []string) map[string]string {
	args := make(map[string]string, len(declared))
	for i, d := range declared {
		if i >= len(values) {
			break
		}
		if i == len(declared)-1 {
			args[d.Name] = strings.Join(values[i:], " ")
		} else {
			args[d.Name] = values[i]
		}
	}
	return args
}

// Package catalog aggregates capability discovery across every registered
// backend into one flat, deduplicated view, and resolves which backend owns
// a given capability.
package catalog

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/docentchat/docent/pkg/registry"
	"github.com/docentchat/docent/pkg/tools/capability"
	"github.com/docentchat/docent/pkg/tools/toolbox"
	"golang.org/x/sync/errgroup"
)

// ErrNotFound is returned when no registered backend currently advertises
// the requested capability.
var ErrNotFound = errors.New("catalog: capability not found")

// ResourceEntry tags a resource descriptor with its owning backend.
type ResourceEntry struct {
	Resource capability.Resource
	Owner    registry.Entry
}

// PromptEntry tags a prompt descriptor with its owning backend.
type PromptEntry struct {
	Prompt capability.Prompt
	Owner  registry.Entry
}

// Catalog assembles capability catalogs on demand. It holds no capability
// state of its own: every call is a fresh discovery pass, so backends may
// change what they advertise between calls.
type Catalog struct {
	reg *registry.Registry
	log *slog.Logger
}

// New creates a Catalog over the given registry. A nil logger falls back to
// slog.Default.
func New(reg *registry.Registry, log *slog.Logger) *Catalog {
	if log == nil {
		log = slog.Default()
	}
	return &Catalog{reg: reg, log: log}
}

// Tools returns the aggregated tool catalog. Discovery runs concurrently
// across backends; results merge in registration order. A backend that
// fails discovery is logged and excluded from this pass; one dead backend
// never aborts catalog assembly for the others. Duplicate tool names keep
// the earliest-registered backend's tool; later ones are dropped with a
// warning.
func (c *Catalog) Tools(ctx context.Context) []toolbox.Tool {
	entries := c.reg.All()
	perBackend := make([][]toolbox.Tool, len(entries))

	c.discover(ctx, entries, "tools", func(ctx context.Context, i int) error {
		tools, err := entries[i].Backend.ListTools(ctx)
		perBackend[i] = tools
		return err
	})

	var out []toolbox.Tool
	seen := make(map[string]string) // tool name -> owning backend name
	for i, tools := range perBackend {
		for _, t := range tools {
			if owner, dup := seen[t.Name]; dup {
				c.log.Warn("duplicate tool dropped",
					"tool", t.Name,
					"backend", entries[i].Name,
					"kept_from", owner)
				continue
			}
			seen[t.Name] = entries[i].Name
			out = append(out, t)
		}
	}

	return out
}

// ToolBox returns the aggregated tools already packed into a ToolBox, ready
// for dispatch by the orchestration loop.
func (c *Catalog) ToolBox(ctx context.Context) *toolbox.ToolBox {
	tb := toolbox.New()
	tb.Register(c.Tools(ctx)...)
	return tb
}

// Resources returns the aggregated resource catalog, owner-tagged, with the
// same ordering, partial-failure, and first-wins policies as Tools.
func (c *Catalog) Resources(ctx context.Context) []ResourceEntry {
	entries := c.reg.All()
	perBackend := make([][]capability.Resource, len(entries))

	c.discover(ctx, entries, "resources", func(ctx context.Context, i int) error {
		resources, err := entries[i].Backend.ListResources(ctx)
		perBackend[i] = resources
		return err
	})

	var out []ResourceEntry
	seen := make(map[string]string) // URI -> owning backend name
	for i, resources := range perBackend {
		for _, r := range resources {
			if owner, dup := seen[r.URI]; dup {
				c.log.Warn("duplicate resource dropped",
					"uri", r.URI,
					"backend", entries[i].Name,
					"kept_from", owner)
				continue
			}
			seen[r.URI] = entries[i].Name
			out = append(out, ResourceEntry{Resource: r, Owner: entries[i]})
		}
	}

	return out
}

// Prompts returns the aggregated prompt catalog, owner-tagged, with the
// same ordering, partial-failure, and first-wins policies as Tools.
func (c *Catalog) Prompts(ctx context.Context) []PromptEntry {
	entries := c.reg.All()
	perBackend := make([][]capability.Prompt, len(entries))

	c.discover(ctx, entries, "prompts", func(ctx context.Context, i int) error {
		prompts, err := entries[i].Backend.ListPrompts(ctx)
		perBackend[i] = prompts
		return err
	})

	var out []PromptEntry
	seen := make(map[string]string) // prompt name -> owning backend name
	for i, prompts := range perBackend {
		for _, p := range prompts {
			if owner, dup := seen[p.Name]; dup {
				c.log.Warn("duplicate prompt dropped",
					"prompt", p.Name,
					"backend", entries[i].Name,
					"kept_from", owner)
				continue
			}
			seen[p.Name] = entries[i].Name
			out = append(out, PromptEntry{Prompt: p, Owner: entries[i]})
		}
	}

	return out
}

// FindPrompt resolves which backend owns the named prompt. It returns
// ErrNotFound when no backend advertises it.
func (c *Catalog) FindPrompt(ctx context.Context, name string) (PromptEntry, error) {
	for _, e := range c.Prompts(ctx) {
		if e.Prompt.Name == name {
			return e, nil
		}
	}
	return PromptEntry{}, fmt.Errorf("%w: prompt %q", ErrNotFound, name)
}

// ResolveResource maps a mention identifier onto a concrete resource URI
// and its owning backend. Matching order, within registration order:
// an exact static URI, a static resource whose last URI path segment equals
// the identifier, then a single-variable template expanded with the
// identifier. Returns ErrNotFound when nothing matches.
func (c *Catalog) ResolveResource(ctx context.Context, id string) (registry.Entry, string, error) {
	resources := c.Resources(ctx)

	for _, e := range resources {
		if !e.Resource.IsTemplate && e.Resource.URI == id {
			return e.Owner, e.Resource.URI, nil
		}
	}

	for _, e := range resources {
		if !e.Resource.IsTemplate && lastSegment(e.Resource.URI) == id {
			return e.Owner, e.Resource.URI, nil
		}
	}

	for _, e := range resources {
		if !e.Resource.IsTemplate {
			continue
		}
		if uri, ok := expandSingleVariable(e.Resource.URI, id); ok {
			return e.Owner, uri, nil
		}
	}

	return registry.Entry{}, "", fmt.Errorf("%w: resource %q", ErrNotFound, id)
}

// FindOwner resolves which backend owns a capability of the given kind.
// Tools match by name, resources by mention identifier, prompts by name.
func (c *Catalog) FindOwner(ctx context.Context, kind capability.Kind, identifier string) (registry.Entry, error) {
	switch kind {
	case capability.KindTool:
		return c.findToolOwner(ctx, identifier)
	case capability.KindResource:
		owner, _, err := c.ResolveResource(ctx, identifier)
		return owner, err
	case capability.KindPrompt:
		e, err := c.FindPrompt(ctx, identifier)
		return e.Owner, err
	default:
		return registry.Entry{}, fmt.Errorf("%w: unknown kind %q", ErrNotFound, kind)
	}
}

func (c *Catalog) findToolOwner(ctx context.Context, name string) (registry.Entry, error) {
	for _, entry := range c.reg.All() {
		tools, err := entry.Backend.ListTools(ctx)
		if err != nil {
			c.log.Warn("discovery failed", "backend", entry.Name, "kind", "tools", "error", err)
			continue
		}
		for _, t := range tools {
			if t.Name == name {
				return entry, nil
			}
		}
	}
	return registry.Entry{}, fmt.Errorf("%w: tool %q", ErrNotFound, name)
}

// discover fans one discovery call out across all backends concurrently.
// Failures are logged per backend and tolerated; fn stores its result by
// index so the merge stays in registration order.
func (c *Catalog) discover(ctx context.Context, entries []registry.Entry, kind string, fn func(ctx context.Context, i int) error) {
	g, ctx := errgroup.WithContext(ctx)
	failures := make([]error, len(entries))

	for i := range entries {
		g.Go(func() error {
			failures[i] = fn(ctx, i)
			return nil
		})
	}

	_ = g.Wait()

	for i, err := range failures {
		if err != nil {
			c.log.Warn("discovery failed", "backend", entries[i].Name, "kind", kind, "error", err)
		}
	}
}

// lastSegment returns the part of a URI after the final slash.
func lastSegment(uri string) string {
	if i := strings.LastIndex(uri, "/"); i >= 0 {
		return uri[i+1:]
	}
	return uri
}

// expandSingleVariable substitutes id into a URI template that contains
// exactly one {variable}. Templates with zero or multiple variables cannot
// be satisfied by a bare mention identifier.
func expandSingleVariable(template, id string) (string, bool) {
	open := strings.Index(template, "{")
	end := strings.Index(template, "}")
	if open < 0 || end < open {
		return "", false
	}
	if strings.Contains(template[end+1:], "{") {
		return "", false
	}
	return template[:open] + id + template[end+1:], true
}

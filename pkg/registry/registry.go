// Package registry tracks the named set of connected tool backends for one
// chat session. Registration order is preserved and is the tie-break order
// for capability aggregation.
package registry

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/docentchat/docent/pkg/chats/message"
	"github.com/docentchat/docent/pkg/tools/capability"
	"github.com/docentchat/docent/pkg/tools/toolbox"
)

// Backend is one connected tool backend: discovery on one side, invocation
// on the other. *mcpclient.Client satisfies it; tests use in-process fakes.
type Backend interface {
	ListTools(ctx context.Context) ([]toolbox.Tool, error)
	ListResources(ctx context.Context) ([]capability.Resource, error)
	ListPrompts(ctx context.Context) ([]capability.Prompt, error)

	CallTool(ctx context.Context, name string, arguments json.RawMessage) (string, error)
	ReadResource(ctx context.Context, uri string) (string, error)
	GetPrompt(ctx context.Context, name string, args map[string]string) ([]message.Message, error)

	Close() error
}

// Entry pairs a backend with its registered name.
type Entry struct {
	Name    string
	Backend Backend
}

// Registry owns the session's backends. It is not safe for concurrent use;
// a session registers its backends once at startup and releases them once
// at shutdown.
type Registry struct {
	entries []Entry
	byName  map[string]Backend
}

// New creates an empty Registry.
func New() *Registry {
	return &Registry{
		byName: make(map[string]Backend),
	}
}

// Register adds a connected backend under the given name. Names must be
// unique; registering a duplicate is an error and the registry is left
// unchanged.
func (r *Registry) Register(name string, b Backend) error {
	if _, exists := r.byName[name]; exists {
		return fmt.Errorf("registry: backend %q already registered", name)
	}

	r.byName[name] = b
	r.entries = append(r.entries, Entry{Name: name, Backend: b})
	return nil
}

// Get returns a backend by name and whether it was found.
func (r *Registry) Get(name string) (Backend, bool) {
	b, ok := r.byName[name]
	return b, ok
}

// All returns the backends in registration order.
func (r *Registry) All() []Entry {
	cp := make([]Entry, len(r.entries))
	copy(cp, r.entries)
	return cp
}

// Len returns the number of registered backends.
func (r *Registry) Len() int {
	return len(r.entries)
}

// CloseAll closes every registered backend. A failing close never skips the
// remaining ones; all failures are collected and returned as one aggregate
// error. The registry is empty afterwards.
func (r *Registry) CloseAll() error {
	var errs []error
	for _, e := range r.entries {
		if err := e.Backend.Close(); err != nil {
			errs = append(errs, fmt.Errorf("registry: close %q: %w", e.Name, err))
		}
	}

	r.entries = nil
	r.byName = make(map[string]Backend)

	return errors.Join(errs...)
}

package resolver

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/docentchat/docent/pkg/catalog"
	"github.com/docentchat/docent/pkg/chats/chat"
	"github.com/docentchat/docent/pkg/chats/message"
	"github.com/docentchat/docent/pkg/chats/role"
	"github.com/docentchat/docent/pkg/registry"
	"github.com/docentchat/docent/pkg/tools/capability"
	"github.com/docentchat/docent/pkg/tools/toolbox"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeBackend struct {
	resources []capability.Resource
	prompts   []capability.Prompt
	contents  map[string]string // concrete URI -> text
	promptErr error
	readCalls int
}

func (f *fakeBackend) ListTools(context.Context) ([]toolbox.Tool, error) { return nil, nil }

func (f *fakeBackend) ListResources(context.Context) ([]capability.Resource, error) {
	return f.resources, nil
}

func (f *fakeBackend) ListPrompts(context.Context) ([]capability.Prompt, error) {
	return f.prompts, nil
}

func (f *fakeBackend) CallTool(context.Context, string, json.RawMessage) (string, error) {
	return "", nil
}

func (f *fakeBackend) ReadResource(ctx context.Context, uri string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	f.readCalls++
	text, ok := f.contents[uri]
	if !ok {
		return "", errors.New("no such resource")
	}
	return text, nil
}

func (f *fakeBackend) GetPrompt(_ context.Context, name string, args map[string]string) ([]message.Message, error) {
	if f.promptErr != nil {
		return nil, f.promptErr
	}
	return []message.Message{
		message.NewText(role.User, name+" "+args["doc_id"]),
	}, nil
}

func (f *fakeBackend) Close() error { return nil }

func docBackend() *fakeBackend {
	return &fakeBackend{
		resources: []capability.Resource{
			{URI: "docs://documents/{doc_id}", IsTemplate: true},
		},
		prompts: []capability.Prompt{
			{Name: "format", Arguments: []capability.PromptArgument{{Name: "doc_id", Required: true}}},
		},
		contents: map[string]string{
			"docs://documents/plan.md":  "the plan",
			"docs://documents/spec.txt": "the spec",
		},
	}
}

func newResolver(t *testing.T, backends ...*fakeBackend) *Resolver {
	t.Helper()

	reg := registry.New()
	names := []string{"docs", "extra"}
	for i, b := range backends {
		require.NoError(t, reg.Register(names[i], b))
	}
	return New(catalog.New(reg, nil), nil)
}

func TestPlainChatAppendsVerbatim(t *testing.T) {
	r := newResolver(t, docBackend())
	c := chat.New()

	require.NoError(t, r.Resolve(context.Background(), "what is 2+2?", c))

	require.Equal(t, 1, c.Len())
	assert.Equal(t, role.User, c.At(0).Role)
	assert.Equal(t, "what is 2+2?", c.At(0).TextContent())
}

func TestMentionInjectsContent(t *testing.T) {
	r := newResolver(t, docBackend())
	c := chat.New()

	require.NoError(t, r.Resolve(context.Background(), "summarize @plan.md for me", c))

	require.Equal(t, 1, c.Len())
	text := c.At(0).TextContent()
	assert.Contains(t, text, "summarize @plan.md for me")
	assert.Contains(t, text, `<document id="plan.md">`)
	assert.Contains(t, text, "the plan")
}

func TestMultipleMentionsInOrder(t *testing.T) {
	r := newResolver(t, docBackend())
	c := chat.New()

	require.NoError(t, r.Resolve(context.Background(), "compare @plan.md and @spec.txt", c))

	text := c.At(0).TextContent()
	plan := `<document id="plan.md">`
	spec := `<document id="spec.txt">`
	assert.Contains(t, text, plan)
	assert.Contains(t, text, spec)
	assert.Less(t, strings.Index(text, plan), strings.Index(text, spec))
}

func TestDuplicateMentionFetchedOnce(t *testing.T) {
	b := docBackend()
	r := newResolver(t, b)
	c := chat.New()

	require.NoError(t, r.Resolve(context.Background(), "@plan.md and again @plan.md", c))

	assert.Equal(t, 1, b.readCalls)
}

func TestUnresolvableMentionStaysLiteral(t *testing.T) {
	b := docBackend()
	r := newResolver(t, b)
	c := chat.New()

	require.NoError(t, r.Resolve(context.Background(), "look at @ghost.txt please", c))

	require.Equal(t, 1, c.Len())
	assert.Equal(t, "look at @ghost.txt please", c.At(0).TextContent())
	assert.Equal(t, 0, b.readCalls)
}

func TestUnreadableMentionDegrades(t *testing.T) {
	b := docBackend()
	b.contents = nil // resolves via the template, read fails
	r := newResolver(t, b)
	c := chat.New()

	require.NoError(t, r.Resolve(context.Background(), "read @plan.md", c))

	require.Equal(t, 1, c.Len())
	assert.Equal(t, "read @plan.md", c.At(0).TextContent())
}

func TestCommandFetchesPrompt(t *testing.T) {
	r := newResolver(t, docBackend())
	c := chat.New()

	require.NoError(t, r.Resolve(context.Background(), "/format report.pdf", c))

	require.Equal(t, 1, c.Len())
	assert.Equal(t, role.User, c.At(0).Role)
	assert.Equal(t, "format report.pdf", c.At(0).TextContent())
}

func TestUnknownCommandDegradesToChat(t *testing.T) {
	r := newResolver(t, docBackend())
	c := chat.New()

	require.NoError(t, r.Resolve(context.Background(), "/fermat 3 4 5", c))

	require.Equal(t, 1, c.Len())
	assert.Equal(t, "/fermat 3 4 5", c.At(0).TextContent())
}

func TestCommandWithNoBackends(t *testing.T) {
	r := newResolver(t)
	c := chat.New()

	require.NoError(t, r.Resolve(context.Background(), "/format report.pdf", c))

	require.Equal(t, 1, c.Len())
	assert.Equal(t, "/format report.pdf", c.At(0).TextContent())
}

func TestPromptFetchFailureDegradesToChat(t *testing.T) {
	b := docBackend()
	b.promptErr = errors.New("backend gone")
	r := newResolver(t, b)
	c := chat.New()

	require.NoError(t, r.Resolve(context.Background(), "/format report.pdf", c))

	require.Equal(t, 1, c.Len())
	assert.Equal(t, "/format report.pdf", c.At(0).TextContent())
}

func TestResolveOnlyAppends(t *testing.T) {
	r := newResolver(t, docBackend())
	c := chat.New(
		message.NewText(role.System, "be helpful"),
		message.NewText(role.User, "earlier question"),
		message.NewText(role.Assistant, "earlier answer"),
	)

	require.NoError(t, r.Resolve(context.Background(), "@plan.md next question", c))

	require.Equal(t, 4, c.Len())
	assert.Equal(t, "be helpful", c.At(0).TextContent())
	assert.Equal(t, "earlier question", c.At(1).TextContent())
	assert.Equal(t, "earlier answer", c.At(2).TextContent())
}

func TestCancelledContextSurfaces(t *testing.T) {
	r := newResolver(t, docBackend())
	c := chat.New()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := r.Resolve(ctx, "@plan.md", c)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestMapArguments(t *testing.T) {
	declared := []capability.PromptArgument{
		{Name: "doc_id"},
		{Name: "instructions"},
	}

	args := mapArguments(declared, []string{"plan.md", "keep", "it", "short"})
	assert.Equal(t, "plan.md", args["doc_id"])
	assert.Equal(t, "keep it short", args["instructions"])

	args = mapArguments(declared, []string{"plan.md"})
	assert.Equal(t, "plan.md", args["doc_id"])
	_, ok := args["instructions"]
	assert.False(t, ok)
}

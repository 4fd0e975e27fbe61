package registry

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/docentchat/docent/pkg/chats/message"
	"github.com/docentchat/docent/pkg/tools/capability"
	"github.com/docentchat/docent/pkg/tools/toolbox"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeBackend struct {
	closed   bool
	closeErr error
}

func (f *fakeBackend) ListTools(context.Context) ([]toolbox.Tool, error) { return nil, nil }

func (f *fakeBackend) ListResources(context.Context) ([]capability.Resource, error) {
	return nil, nil
}

func (f *fakeBackend) ListPrompts(context.Context) ([]capability.Prompt, error) { return nil, nil }

func (f *fakeBackend) CallTool(context.Context, string, json.RawMessage) (string, error) {
	return "", nil
}

func (f *fakeBackend) ReadResource(context.Context, string) (string, error) { return "", nil }

func (f *fakeBackend) GetPrompt(context.Context, string, map[string]string) ([]message.Message, error) {
	return nil, nil
}

func (f *fakeBackend) Close() error {
	f.closed = true
	return f.closeErr
}

func TestRegisterAndGet(t *testing.T) {
	r := New()
	b := &fakeBackend{}

	require.NoError(t, r.Register("docs", b))

	got, ok := r.Get("docs")
	assert.True(t, ok)
	assert.Same(t, b, got)
	assert.Equal(t, 1, r.Len())
}

func TestRegisterDuplicateName(t *testing.T) {
	r := New()
	require.NoError(t, r.Register("docs", &fakeBackend{}))

	err := r.Register("docs", &fakeBackend{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "docs")
	assert.Equal(t, 1, r.Len())
}

func TestAllKeepsRegistrationOrder(t *testing.T) {
	r := New()
	require.NoError(t, r.Register("z", &fakeBackend{}))
	require.NoError(t, r.Register("a", &fakeBackend{}))
	require.NoError(t, r.Register("m", &fakeBackend{}))

	entries := r.All()
	require.Len(t, entries, 3)
	assert.Equal(t, "z", entries[0].Name)
	assert.Equal(t, "a", entries[1].Name)
	assert.Equal(t, "m", entries[2].Name)
}

func TestGetNotFound(t *testing.T) {
	r := New()

	_, ok := r.Get("missing")
	assert.False(t, ok)
}

func TestCloseAll(t *testing.T) {
	r := New()
	a := &fakeBackend{}
	b := &fakeBackend{}
	require.NoError(t, r.Register("a", a))
	require.NoError(t, r.Register("b", b))

	require.NoError(t, r.CloseAll())
	assert.True(t, a.closed)
	assert.True(t, b.closed)
	assert.Equal(t, 0, r.Len())
}

func TestCloseAllNeverSkips(t *testing.T) {
	r := New()
	a := &fakeBackend{closeErr: errors.New("a failed")}
	b := &fakeBackend{}
	c := &fakeBackend{closeErr: errors.New("c failed")}
	require.NoError(t, r.Register("a", a))
	require.NoError(t, r.Register("b", b))
	require.NoError(t, r.Register("c", c))

	err := r.CloseAll()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "a failed")
	assert.Contains(t, err.Error(), "c failed")

	assert.True(t, a.closed)
	assert.True(t, b.closed)
	assert.True(t, c.closed)
}

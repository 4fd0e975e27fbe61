package documents

import (
	"context"
	"io"
	"testing"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStoreRead(t *testing.T) {
	s := NewStore()

	doc, err := s.Read("plan.md")
	require.NoError(t, err)
	assert.Contains(t, doc, "plan")

	_, err = s.Read("ghost.txt")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ghost.txt")
}

func TestStoreIDs(t *testing.T) {
	s := NewStore()

	ids := s.IDs()
	require.Len(t, ids, 6)
	assert.Equal(t, "deposition.md", ids[0])
	assert.Equal(t, "spec.txt", ids[5])
}

func TestStoreEdit(t *testing.T) {
	s := NewStore()

	diff, err := s.Edit("plan.md", "steps", "phases")
	require.NoError(t, err)
	assert.Contains(t, diff, "-The plan outlines the steps")
	assert.Contains(t, diff, "+The plan outlines the phases")

	doc, err := s.Read("plan.md")
	require.NoError(t, err)
	assert.Contains(t, doc, "phases")
	assert.NotContains(t, doc, "steps")
}

func TestStoreEditMissingText(t *testing.T) {
	s := NewStore()

	_, err := s.Edit("plan.md", "no such text", "anything")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "does not contain")
}

func TestStoreEditUnknownDoc(t *testing.T) {
	s := NewStore()

	_, err := s.Edit("ghost.txt", "a", "b")
	assert.Error(t, err)
}

// setupSession serves the documents backend over in-process pipes and
// returns a connected SDK client session.
func setupSession(t *testing.T) *mcp.ClientSession {
	t.Helper()

	serverReads, clientWrites := io.Pipe()
	clientReads, serverWrites := io.Pipe()

	ctx, cancel := context.WithCancel(context.Background())

	s := NewServer(NewStore())
	serverDone := make(chan error, 1)
	go func() {
		serverDone <- s.Serve(ctx, serverReads, serverWrites)
	}()
	t.Cleanup(func() {
		cancel()
		_ = clientWrites.Close()
		_ = serverWrites.Close()
		<-serverDone
	})

	client := mcp.NewClient(&mcp.Implementation{
		Name:    "test-client",
		Version: "1.0.0",
	}, nil)
	session, err := client.Connect(ctx, &mcp.IOTransport{
		Reader: clientReads,
		Writer: clientWrites,
	}, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = session.Close() })

	return session
}

func TestServerCapabilities(t *testing.T) {
	session := setupSession(t)
	ctx := context.Background()

	tools, err := session.ListTools(ctx, nil)
	require.NoError(t, err)
	require.Len(t, tools.Tools, 2)

	resources, err := session.ListResources(ctx, nil)
	require.NoError(t, err)
	require.Len(t, resources.Resources, 1)
	assert.Equal(t, "docs://documents", resources.Resources[0].URI)

	templates, err := session.ListResourceTemplates(ctx, nil)
	require.NoError(t, err)
	require.Len(t, templates.ResourceTemplates, 1)

	prompts, err := session.ListPrompts(ctx, nil)
	require.NoError(t, err)
	require.Len(t, prompts.Prompts, 2)
}

func TestServerReadTool(t *testing.T) {
	session := setupSession(t)

	result, err := session.CallTool(context.Background(), &mcp.CallToolParams{
		Name:      "read_doc_contents",
		Arguments: map[string]any{"doc_id": "report.pdf"},
	})
	require.NoError(t, err)
	require.False(t, result.IsError)

	tc, ok := result.Content[0].(*mcp.TextContent)
	require.True(t, ok)
	assert.Contains(t, tc.Text, "condenser tower")
}

func TestServerReadToolUnknownDoc(t *testing.T) {
	session := setupSession(t)

	result, err := session.CallTool(context.Background(), &mcp.CallToolParams{
		Name:      "read_doc_contents",
		Arguments: map[string]any{"doc_id": "ghost.txt"},
	})
	require.NoError(t, err)
	assert.True(t, result.IsError)
}

func TestServerDocumentResource(t *testing.T) {
	session := setupSession(t)

	read, err := session.ReadResource(context.Background(), &mcp.ReadResourceParams{
		URI: "docs://documents/spec.txt",
	})
	require.NoError(t, err)
	require.Len(t, read.Contents, 1)
	assert.Contains(t, read.Contents[0].Text, "technical requirements")
}

func TestServerListResource(t *testing.T) {
	session := setupSession(t)

	read, err := session.ReadResource(context.Background(), &mcp.ReadResourceParams{
		URI: "docs://documents",
	})
	require.NoError(t, err)
	require.Len(t, read.Contents, 1)
	assert.JSONEq(t,
		`["deposition.md","report.pdf","financials.docx","outlook.pdf","plan.md","spec.txt"]`,
		read.Contents[0].Text)
}

func TestServerSummarizePrompt(t *testing.T) {
	session := setupSession(t)

	result, err := session.GetPrompt(context.Background(), &mcp.GetPromptParams{
		Name:      "summarize",
		Arguments: map[string]string{"doc_id": "outlook.pdf"},
	})
	require.NoError(t, err)
	require.Len(t, result.Messages, 1)

	tc, ok := result.Messages[0].Content.(*mcp.TextContent)
	require.True(t, ok)
	assert.Contains(t, tc.Text, "outlook.pdf")
	assert.Contains(t, tc.Text, "read_doc_contents")
}

func TestServerFormatPromptRequiresDocID(t *testing.T) {
	session := setupSession(t)

	_, err := session.GetPrompt(context.Background(), &mcp.GetPromptParams{
		Name:      "format",
		Arguments: map[string]string{},
	})
	assert.Error(t, err)
}

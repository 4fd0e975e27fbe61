// Package mcpclient talks to one MCP server over the official MCP Go SDK.
// It exposes the three capability families (tools, resources, and prompts)
// in terms of the module's own types so callers never touch SDK types.
package mcpclient

import (
	"context"
	"encoding/json"
	"fmt"
	"os/exec"
	"strings"

	"github.com/docentchat/docent/pkg/chats/content"
	"github.com/docentchat/docent/pkg/chats/message"
	"github.com/docentchat/docent/pkg/chats/role"
	"github.com/docentchat/docent/pkg/tools/capability"
	"github.com/docentchat/docent/pkg/tools/toolbox"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// Client is a connected MCP client session. One Client owns one backend
// process (or remote endpoint) for its whole lifetime.
type Client struct {
	client  *mcp.Client
	session *mcp.ClientSession
}

// New spawns an MCP server process and returns a connected client. The SDK
// performs the protocol handshake during Connect; a handshake failure is
// returned as an error and no process is left behind.
func New(ctx context.Context, command string, args ...string) (*Client, error) {
	transport := &mcp.CommandTransport{
		Command: exec.Command(command, args...), //nolint:gosec // command comes from the operator's config
	}

	return newFromTransport(ctx, transport)
}

// NewSSE connects to an SSE-based MCP server at the given URL.
func NewSSE(ctx context.Context, url string) (*Client, error) {
	transport := &mcp.SSEClientTransport{Endpoint: url}

	return newFromTransport(ctx, transport)
}

// newFromTransport creates a Client over the given transport. Used by New
// and by tests with InMemoryTransport.
func newFromTransport(ctx context.Context, transport mcp.Transport) (*Client, error) {
	client := mcp.NewClient(&mcp.Implementation{
		Name:    "docent",
		Version: "0.1.0",
	}, nil)

	session, err := client.Connect(ctx, transport, nil)
	if err != nil {
		return nil, fmt.Errorf("mcpclient: connect: %w", err)
	}

	return &Client{client: client, session: session}, nil
}

// ListTools fetches the server's tools as toolbox.Tool values. Each Tool's
// Handler closure routes back through CallTool on this client, so the owning
// backend travels with the tool.
func (c *Client) ListTools(ctx context.Context) ([]toolbox.Tool, error) {
	result, err := c.session.ListTools(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("mcpclient: list tools: %w", err)
	}

	tools := make([]toolbox.Tool, 0, len(result.Tools))
	for _, sdkTool := range result.Tools {
		t, err := fromSDKTool(sdkTool, c)
		if err != nil {
			return nil, fmt.Errorf("mcpclient: convert tool %q: %w", sdkTool.Name, err)
		}
		tools = append(tools, t)
	}

	return tools, nil
}

// ListResources fetches the server's static resources followed by its
// resource templates, both as capability.Resource descriptors.
func (c *Client) ListResources(ctx context.Context) ([]capability.Resource, error) {
	var resources []capability.Resource

	static, err := c.session.ListResources(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("mcpclient: list resources: %w", err)
	}
	for _, r := range static.Resources {
		resources = append(resources, capability.Resource{
			URI:         r.URI,
			Name:        r.Name,
			Description: r.Description,
			MIMEType:    r.MIMEType,
		})
	}

	templates, err := c.session.ListResourceTemplates(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("mcpclient: list resource templates: %w", err)
	}
	for _, t := range templates.ResourceTemplates {
		resources = append(resources, capability.Resource{
			URI:         t.URITemplate,
			Name:        t.Name,
			Description: t.Description,
			MIMEType:    t.MIMEType,
			IsTemplate:  true,
		})
	}

	return resources, nil
}

// ListPrompts fetches the server's prompts as capability.Prompt descriptors,
// preserving the declared argument order.
func (c *Client) ListPrompts(ctx context.Context) ([]capability.Prompt, error) {
	result, err := c.session.ListPrompts(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("mcpclient: list prompts: %w", err)
	}

	prompts := make([]capability.Prompt, 0, len(result.Prompts))
	for _, p := range result.Prompts {
		cp := capability.Prompt{
			Name:        p.Name,
			Description: p.Description,
		}
		for _, a := range p.Arguments {
			cp.Arguments = append(cp.Arguments, capability.PromptArgument{
				Name:        a.Name,
				Description: a.Description,
				Required:    a.Required,
			})
		}
		prompts = append(prompts, cp)
	}

	return prompts, nil
}

// CallTool calls a named tool on the server with the given arguments.
// A server-side tool error (IsError result) is returned as a Go error whose
// message is the tool's own text output.
func (c *Client) CallTool(ctx context.Context, name string, arguments json.RawMessage) (string, error) {
	var args map[string]any
	if len(arguments) > 0 {
		if err := json.Unmarshal(arguments, &args); err != nil {
			return "", fmt.Errorf("mcpclient: unmarshal arguments: %w", err)
		}
	}

	result, err := c.session.CallTool(ctx, &mcp.CallToolParams{
		Name:      name,
		Arguments: args,
	})
	if err != nil {
		return "", fmt.Errorf("mcpclient: call tool: %w", err)
	}

	text := joinTextContent(result.Content)

	if result.IsError {
		return "", fmt.Errorf("mcpclient: tool error: %s", text)
	}

	return text, nil
}

// ReadResource reads a resource by concrete URI and returns its text
// contents. Multiple content items are joined with newlines.
func (c *Client) ReadResource(ctx context.Context, uri string) (string, error) {
	result, err := c.session.ReadResource(ctx, &mcp.ReadResourceParams{URI: uri})
	if err != nil {
		return "", fmt.Errorf("mcpclient: read resource %q: %w", uri, err)
	}

	var texts []string
	for _, item := range result.Contents {
		if item.Text != "" {
			texts = append(texts, item.Text)
		}
	}

	return strings.Join(texts, "\n"), nil
}

// GetPrompt fetches a prompt by name with the given arguments and converts
// its messages into conversation messages, keeping the server's order.
func (c *Client) GetPrompt(ctx context.Context, name string, args map[string]string) ([]message.Message, error) {
	result, err := c.session.GetPrompt(ctx, &mcp.GetPromptParams{
		Name:      name,
		Arguments: args,
	})
	if err != nil {
		return nil, fmt.Errorf("mcpclient: get prompt %q: %w", name, err)
	}

	msgs := make([]message.Message, 0, len(result.Messages))
	for _, pm := range result.Messages {
		msgs = append(msgs, fromPromptMessage(pm))
	}

	return msgs, nil
}

// Close terminates the session and releases resources. For stdio transports
// the SDK closes stdin, waits with a timeout, and escalates through
// SIGTERM/SIGKILL, so a wedged server cannot block shutdown forever.
func (c *Client) Close() error {
	return c.session.Close()
}

// fromSDKTool converts an SDK *mcp.Tool to a toolbox.Tool whose handler
// calls back through this client.
func fromSDKTool(sdkTool *mcp.Tool, c *Client) (toolbox.Tool, error) {
	schemaBytes, err := json.Marshal(sdkTool.InputSchema)
	if err != nil {
		return toolbox.Tool{}, fmt.Errorf("marshal input schema: %w", err)
	}

	name := sdkTool.Name

	return toolbox.Tool{
		Name:        sdkTool.Name,
		Description: sdkTool.Description,
		InputSchema: json.RawMessage(schemaBytes),
		Handler: func(ctx context.Context, input json.RawMessage) (string, error) {
			return c.CallTool(ctx, name, input)
		},
	}, nil
}

// fromPromptMessage maps an MCP prompt message onto the conversation model.
// Only text content survives the conversion; MCP prompt roles are limited to
// user and assistant.
func fromPromptMessage(pm *mcp.PromptMessage) message.Message {
	r := role.User
	if pm.Role == "assistant" {
		r = role.Assistant
	}

	var parts []content.Part
	if tc, ok := pm.Content.(*mcp.TextContent); ok {
		parts = append(parts, content.Text{Text: tc.Text})
	}

	return message.New(r, parts...)
}

// joinTextContent joins all TextContent items with newlines.
func joinTextContent(items []mcp.Content) string {
	var texts []string
	for _, item := range items {
		if tc, ok := item.(*mcp.TextContent); ok {
			texts = append(texts, tc.Text)
		}
	}

	return strings.Join(texts, "\n")
}

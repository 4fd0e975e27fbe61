// Package mcpserver serves tools, resources, and prompts over the MCP
// protocol using the official MCP Go SDK. The demonstration backends under
// pkg/servers are built on it.
package mcpserver

import (
	"context"
	"encoding/json"
	"io"

	"github.com/docentchat/docent/pkg/chats/message"
	"github.com/docentchat/docent/pkg/chats/role"
	"github.com/docentchat/docent/pkg/tools/capability"
	"github.com/docentchat/docent/pkg/tools/toolbox"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// ResourceFunc produces the text contents for a resource read. The uri is
// the concrete URI the client requested, template variables already filled.
type ResourceFunc func(ctx context.Context, uri string) (string, error)

// PromptFunc produces the message sequence for a prompt fetch.
type PromptFunc func(ctx context.Context, args map[string]string) ([]message.Message, error)

// Server wraps an SDK MCP server.
type Server struct {
	server *mcp.Server
}

// New creates a Server with the given implementation name and version.
func New(name, version string) *Server {
	server := mcp.NewServer(&mcp.Implementation{
		Name:    name,
		Version: version,
	}, nil)

	return &Server{server: server}
}

// RegisterTools adds tools to the server.
func (s *Server) RegisterTools(tools ...toolbox.Tool) {
	for _, t := range tools {
		s.server.AddTool(toSDKTool(t), toSDKToolHandler(t.Handler))
	}
}

// AddResource registers a resource. When res.IsTemplate is set, res.URI is
// treated as a URI template and registered as such.
func (s *Server) AddResource(res capability.Resource, fn ResourceFunc) {
	handler := toSDKResourceHandler(res.MIMEType, fn)

	if res.IsTemplate {
		s.server.AddResourceTemplate(&mcp.ResourceTemplate{
			URITemplate: res.URI,
			Name:        res.Name,
			Description: res.Description,
			MIMEType:    res.MIMEType,
		}, handler)
		return
	}

	s.server.AddResource(&mcp.Resource{
		URI:         res.URI,
		Name:        res.Name,
		Description: res.Description,
		MIMEType:    res.MIMEType,
	}, handler)
}

// AddPrompt registers a prompt.
func (s *Server) AddPrompt(p capability.Prompt, fn PromptFunc) {
	sdkPrompt := &mcp.Prompt{
		Name:        p.Name,
		Description: p.Description,
	}
	for _, a := range p.Arguments {
		sdkPrompt.Arguments = append(sdkPrompt.Arguments, &mcp.PromptArgument{
			Name:        a.Name,
			Description: a.Description,
			Required:    a.Required,
		})
	}

	s.server.AddPrompt(sdkPrompt, toSDKPromptHandler(fn))
}

// Serve reads MCP requests from in and writes responses to out, blocking
// until ctx is cancelled or the transport closes.
func (s *Server) Serve(ctx context.Context, in io.Reader, out io.Writer) error {
	transport := &mcp.IOTransport{
		Reader: io.NopCloser(in),
		Writer: nopWriteCloser{out},
	}

	return s.run(ctx, transport)
}

// run starts the server with the given transport. Exposed through Serve for
// production use; tests call it directly with InMemoryTransport.
func (s *Server) run(ctx context.Context, transport mcp.Transport) error {
	return s.server.Run(ctx, transport)
}

func toSDKTool(t toolbox.Tool) *mcp.Tool {
	return &mcp.Tool{
		Name:        t.Name,
		Description: t.Description,
		InputSchema: t.InputSchema,
	}
}

func toSDKToolHandler(h toolbox.Handler) mcp.ToolHandler {
	return func(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		args := req.Params.Arguments
		if args == nil {
			args = json.RawMessage("{}")
		}
		result, err := h(ctx, args)
		if err != nil {
			return &mcp.CallToolResult{
				Content: []mcp.Content{&mcp.TextContent{Text: err.Error()}},
				IsError: true,
			}, nil
		}

		return &mcp.CallToolResult{
			Content: []mcp.Content{&mcp.TextContent{Text: result}},
		}, nil
	}
}

func toSDKResourceHandler(mimeType string, fn ResourceFunc) mcp.ResourceHandler {
	return func(ctx context.Context, req *mcp.ReadResourceRequest) (*mcp.ReadResourceResult, error) {
		text, err := fn(ctx, req.Params.URI)
		if err != nil {
			return nil, err
		}

		return &mcp.ReadResourceResult{
			Contents: []*mcp.ResourceContents{{
				URI:      req.Params.URI,
				MIMEType: mimeType,
				Text:     text,
			}},
		}, nil
	}
}

func toSDKPromptHandler(fn PromptFunc) mcp.PromptHandler {
	return func(ctx context.Context, req *mcp.GetPromptRequest) (*mcp.GetPromptResult, error) {
		msgs, err := fn(ctx, req.Params.Arguments)
		if err != nil {
			return nil, err
		}

		result := &mcp.GetPromptResult{}
		for _, m := range msgs {
			result.Messages = append(result.Messages, &mcp.PromptMessage{
				Role:    toSDKRole(m.Role),
				Content: &mcp.TextContent{Text: m.TextContent()},
			})
		}

		return result, nil
	}
}

// toSDKRole maps conversation roles onto the two roles MCP prompts allow.
func toSDKRole(r role.Role) mcp.Role {
	if r == role.Assistant {
		return "assistant"
	}
	return "user"
}

// nopWriteCloser wraps an io.Writer as an io.WriteCloser with a no-op Close.
type nopWriteCloser struct {
	io.Writer
}

func (nopWriteCloser) Close() error { return nil }

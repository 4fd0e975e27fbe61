// Package toolbox holds executable tools and dispatches tool calls to them.
package toolbox

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/docentchat/docent/pkg/chats/content"
)

// ToolBox holds a set of tools and executes tool calls against them. Tools
// keep their registration order, and the first registration of a name wins:
// later tools with the same name are ignored. This makes aggregation across
// multiple backends deterministic.
type ToolBox struct {
	order []string
	tools map[string]Tool
}

// New creates a ToolBox ready for use.
func New() *ToolBox {
	return &ToolBox{
		tools: make(map[string]Tool),
	}
}

// Register adds tools to the ToolBox. A tool whose name is already
// registered is dropped; the earlier registration wins.
func (tb *ToolBox) Register(tools ...Tool) {
	for _, t := range tools {
		if _, exists := tb.tools[t.Name]; exists {
			continue
		}
		tb.tools[t.Name] = t
		tb.order = append(tb.order, t.Name)
	}
}

// Get returns a tool by name and whether it was found.
func (tb *ToolBox) Get(name string) (Tool, bool) {
	t, ok := tb.tools[name]
	return t, ok
}

// Len returns the number of registered tools.
func (tb *ToolBox) Len() int {
	return len(tb.order)
}

// Tools returns all registered tools in registration order.
func (tb *ToolBox) Tools() []Tool {
	result := make([]Tool, 0, len(tb.order))
	for _, name := range tb.order {
		result = append(result, tb.tools[name])
	}
	return result
}

// Call executes a tool call and returns a ToolResult. An unknown tool or a
// handler error produces a result with IsError set rather than a Go error:
// tool failures are data for the model, not control flow.
func (tb *ToolBox) Call(ctx context.Context, tc content.ToolCall) content.ToolResult {
	t, ok := tb.tools[tc.Name]
	if !ok {
		return content.ToolResult{
			ToolCallID: tc.ID,
			Content:    fmt.Sprintf("tool not found: %s", tc.Name),
			IsError:    true,
		}
	}

	result, err := t.Handler(ctx, json.RawMessage(tc.Arguments))
	if err != nil {
		return content.ToolResult{
			ToolCallID: tc.ID,
			Content:    err.Error(),
			IsError:    true,
		}
	}

	return content.ToolResult{
		ToolCallID: tc.ID,
		Content:    result,
	}
}

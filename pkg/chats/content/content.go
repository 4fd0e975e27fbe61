// Package content defines the content parts a message is composed of.
package content

// Part is one piece of content within a message.
type Part interface {
	PartKind() string
}

// Text is a plain text content part.
type Text struct {
	Text string
}

func (t Text) PartKind() string { return "text" }

// ToolCall is an assistant's request to invoke a tool. Arguments holds the
// raw JSON string exactly as the provider emitted it, so it can be replayed
// verbatim on later completions.
type ToolCall struct {
	ID        string
	Name      string
	Arguments string
}

func (tc ToolCall) PartKind() string { return "tool_call" }

// ToolResult carries the outcome of one tool invocation, correlated to its
// originating ToolCall by ToolCallID. IsError marks failures; the model is
// expected to read the content and react.
type ToolResult struct {
	ToolCallID string
	Content    string
	IsError    bool
}

func (tr ToolResult) PartKind() string { return "tool_result" }

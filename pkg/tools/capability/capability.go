// Package capability defines discovery metadata for the capabilities a
// backend advertises: tools, resources, and prompts.
package capability

// Kind distinguishes the three capability families.
type Kind string

const (
	KindTool     Kind = "tool"
	KindResource Kind = "resource"
	KindPrompt   Kind = "prompt"
)

// Resource describes an addressable piece of data a backend serves. When
// IsTemplate is true, URI is an RFC 6570 template (e.g.
// "docs://documents/{doc_id}") rather than a concrete address.
type Resource struct {
	URI         string
	Name        string
	Description string
	MIMEType    string
	IsTemplate  bool
}

// PromptArgument describes one named argument a prompt accepts.
type PromptArgument struct {
	Name        string
	Description string
	Required    bool
}

// Prompt describes a parameterized message template a backend serves.
// Arguments are in the order the backend declared them; the resolver maps
// positional command arguments onto them by position.
type Prompt struct {
	Name        string
	Description string
	Arguments   []PromptArgument
}

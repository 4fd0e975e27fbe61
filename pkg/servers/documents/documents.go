// Package documents implements the document MCP backend: an in-memory
// document store exposed through tools (read, edit), resources (ID list,
// per-document content), and prompts (format, summarize).
package documents

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"github.com/docentchat/docent/pkg/chats/message"
	"github.com/docentchat/docent/pkg/chats/role"
	"github.com/docentchat/docent/pkg/tools/capability"
	"github.com/docentchat/docent/pkg/tools/mcpserver"
	"github.com/docentchat/docent/pkg/tools/toolbox"
	"github.com/pmezard/go-difflib/difflib"
)

const (
	listURI     = "docs://documents"
	documentURI = "docs://documents/{doc_id}"
	uriPrefix   = "docs://documents/"
)

// Store is an in-memory document store. It is safe for concurrent use.
type Store struct {
	mu   sync.RWMutex
	ids  []string
	docs map[string]string
}

// NewStore creates a Store seeded with the sample documents.
func NewStore() *Store {
	seed := []struct{ id, content string }{
		{"deposition.md", "This deposition covers the testimony of Angela Smith, P.E."},
		{"report.pdf", "The report details the state of a 20m condenser tower."},
		{"financials.docx", "These financials outline the project's budget and expenditures."},
		{"outlook.pdf", "This document presents the projected future performance of the system."},
		{"plan.md", "The plan outlines the steps for the project's implementation."},
		{"spec.txt", "These specifications define the technical requirements for the equipment."},
	}

	s := &Store{docs: make(map[string]string, len(seed))}
	for _, d := range seed {
		s.ids = append(s.ids, d.id)
		s.docs[d.id] = d.content
	}
	return s
}

// IDs returns all document IDs in insertion order.
func (s *Store) IDs() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	cp := make([]string, len(s.ids))
	copy(cp, s.ids)
	return cp
}

// Read returns a document's content.
func (s *Store) Read(id string) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	doc, ok := s.docs[id]
	if !ok {
		return "", fmt.Errorf("doc with id %q not found", id)
	}
	return doc, nil
}

// Edit replaces every occurrence of oldStr in a document and returns a
// unified diff of the change so the caller sees exactly what happened.
func (s *Store) Edit(id, oldStr, newStr string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, ok := s.docs[id]
	if !ok {
		return "", fmt.Errorf("doc with id %q not found", id)
	}
	if !strings.Contains(doc, oldStr) {
		return "", fmt.Errorf("doc %q does not contain the given text", id)
	}

	edited := strings.ReplaceAll(doc, oldStr, newStr)
	s.docs[id] = edited

	diff, err := difflib.GetUnifiedDiffString(difflib.UnifiedDiff{
		A:        difflib.SplitLines(doc),
		B:        difflib.SplitLines(edited),
		FromFile: id,
		ToFile:   id,
		Context:  2,
	})
	if err != nil {
		return "", fmt.Errorf("diff: %w", err)
	}

	return diff, nil
}

// NewServer builds the MCP server around the given store.
func NewServer(store *Store) *mcpserver.Server {
	s := mcpserver.New("documents", "0.1.0")

	s.RegisterTools(
		toolbox.Tool{
			Name:        "read_doc_contents",
			Description: "Read the contents of a document and return it as a string.",
			InputSchema: json.RawMessage(`{
				"type": "object",
				"properties": {
					"doc_id": {"type": "string", "description": "Id of the document to read"}
				},
				"required": ["doc_id"]
			}`),
			Handler: func(_ context.Context, input json.RawMessage) (string, error) {
				var args struct {
					DocID string `json:"doc_id"`
				}
				if err := json.Unmarshal(input, &args); err != nil {
					return "", fmt.Errorf("invalid arguments: %w", err)
				}
				return store.Read(args.DocID)
			},
		},
		toolbox.Tool{
			Name:        "edit_document",
			Description: "Edit a document by replacing a string in its content with a new string. Returns a unified diff of the change.",
			InputSchema: json.RawMessage(`{
				"type": "object",
				"properties": {
					"doc_id": {"type": "string", "description": "Id of the document to edit"},
					"old_str": {"type": "string", "description": "The text to replace. Must match exactly, including whitespace"},
					"new_str": {"type": "string", "description": "The new text to insert in place of the old text"}
				},
				"required": ["doc_id", "old_str", "new_str"]
			}`),
			Handler: func(_ context.Context, input json.RawMessage) (string, error) {
				var args struct {
					DocID  string `json:"doc_id"`
					OldStr string `json:"old_str"`
					NewStr string `json:"new_str"`
				}
				if err := json.Unmarshal(input, &args); err != nil {
					return "", fmt.Errorf("invalid arguments: %w", err)
				}
				return store.Edit(args.DocID, args.OldStr, args.NewStr)
			},
		},
	)

	s.AddResource(capability.Resource{
		URI:         listURI,
		Name:        "documents",
		Description: "List of all available document IDs",
		MIMEType:    "application/json",
	}, func(_ context.Context, _ string) (string, error) {
		ids, err := json.Marshal(store.IDs())
		if err != nil {
			return "", err
		}
		return string(ids), nil
	})

	s.AddResource(capability.Resource{
		URI:         documentURI,
		Name:        "document",
		Description: "Content of a specific document by ID",
		MIMEType:    "text/plain",
		IsTemplate:  true,
	}, func(_ context.Context, uri string) (string, error) {
		id := strings.TrimPrefix(uri, uriPrefix)
		if id == uri || id == "" {
			return "", fmt.Errorf("unexpected document uri %q", uri)
		}
		return store.Read(id)
	})

	s.AddPrompt(capability.Prompt{
		Name:        "format",
		Description: "Rewrites the contents of the document in Markdown format.",
		Arguments: []capability.PromptArgument{
			{Name: "doc_id", Description: "Id of the document to format", Required: true},
		},
	}, func(_ context.Context, args map[string]string) ([]message.Message, error) {
		id, ok := args["doc_id"]
		if !ok || id == "" {
			return nil, fmt.Errorf("doc_id argument is required")
		}
		return []message.Message{message.NewText(role.User, formatPrompt(id))}, nil
	})

	s.AddPrompt(capability.Prompt{
		Name:        "summarize",
		Description: "Summarizes the contents of the document in a few sentences.",
		Arguments: []capability.PromptArgument{
			{Name: "doc_id", Description: "Id of the document to summarize", Required: true},
		},
	}, func(_ context.Context, args map[string]string) ([]message.Message, error) {
		id, ok := args["doc_id"]
		if !ok || id == "" {
			return nil, fmt.Errorf("doc_id argument is required")
		}
		return []message.Message{message.NewText(role.User, summarizePrompt(id))}, nil
	})

	return s
}

func formatPrompt(id string) string {
	return fmt.Sprintf(`Your goal is to reformat a document to be written with markdown syntax.

The id of the document you need to reformat is:
<document_id>
%s
</document_id>

Add in headers, bullet points, tables, etc as necessary. Feel free to add
in extra text, but don't change the meaning of the report. Use the
'edit_document' tool to edit the document. After the document has been
edited, respond with the final version of the doc. Don't explain your
changes.`, id)
}

func summarizePrompt(id string) string {
	return fmt.Sprintf(`Your goal is to summarize a document.

The id of the document you need to summarize is:
<document_id>
%s
</document_id>

Use the 'read_doc_contents' tool to read the document, then respond with a
concise summary in at most three sentences. Don't quote the document
verbatim.`, id)
}

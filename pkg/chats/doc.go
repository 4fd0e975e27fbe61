// Package chats provides the provider-agnostic conversation model.
//
// It is organized into sub-packages:
//   - [github.com/docentchat/docent/pkg/chats/role]: conversation roles (system, user, assistant, tool)
//   - [github.com/docentchat/docent/pkg/chats/content]: content parts (text, tool call, tool result)
//   - [github.com/docentchat/docent/pkg/chats/message]: messages composed of a role and content parts
//   - [github.com/docentchat/docent/pkg/chats/chat]: the append-only conversation log
//
// No provider or MCP code lives here; adapters build on top of it.
package chats

// Package tools contains the backend-facing building blocks: the ToolBox
// abstraction, capability descriptors, and the MCP client and server
// wrappers built on the official MCP Go SDK.
package tools

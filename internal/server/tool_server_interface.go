// Package server exposes the Redmine tool catalog over MCP.
package server

// ToolServer is an MCP server that answers tool calls from MCP clients.
type ToolServer interface {
	// Initialize registers the tools with the MCP server.
	Initialize() error

	// Start serves requests until the transport closes.
	Start() error

	// Stop cancels in-flight invocations.
	Stop() error
}

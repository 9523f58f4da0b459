// Package mcp exposes a configuration's commands to AI agents over the
// Model Context Protocol: listing, inspection, validation, and
// non-interactive execution.
package mcp

import (
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// NewServer creates an MCP server with the crank tools registered.
func NewServer(version string) *server.MCPServer {
	s := server.NewMCPServer(
		"crank",
		version,
		server.WithToolCapabilities(true),
	)

	s.AddTool(
		mcp.NewTool("crank/list",
			mcp.WithDescription("List every command a crank configuration defines"),
			mcp.WithString("path", mcp.Description("Path to the configuration file (discovered upward from the working directory when omitted)")),
		),
		HandleList,
	)

	s.AddTool(
		mcp.NewTool("crank/show",
			mcp.WithDescription("Show one command: its variables, actions, and subcommands"),
			mcp.WithString("command", mcp.Required(), mcp.Description("Space-separated command path, e.g. 'db migrate'")),
			mcp.WithString("path", mcp.Description("Path to the configuration file")),
		),
		HandleShow,
	)

	s.AddTool(
		mcp.NewTool("crank/validate",
			mcp.WithDescription("Validate a crank configuration file"),
			mcp.WithString("path", mcp.Description("Path to the configuration file")),
		),
		HandleValidate,
	)

	s.AddTool(
		mcp.NewTool("crank/run",
			mcp.WithDescription("Run a command non-interactively (prompted variables must be supplied in 'variables')"),
			mcp.WithString("command", mcp.Required(), mcp.Description("Space-separated command path, e.g. 'db migrate'")),
			mcp.WithString("path", mcp.Description("Path to the configuration file")),
			mcp.WithObject("variables", mcp.Description("Variable values keyed by name; these override every other source")),
			mcp.WithBoolean("yes", mcp.Description("Answer confirmations with yes")),
			mcp.WithBoolean("dry_run", mcp.Description("Describe what would run without spawning processes")),
		),
		HandleRun,
	)

	return s
}

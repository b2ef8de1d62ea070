// Package mcp exposes the dashboard to MCP clients.
package mcp

import (
	"github.com/macrat/ssdash/internal/meta"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// NewServer creates a new MCP server backed by b.
func NewServer(b Backend) *mcp.Server {
	title := "ssdash"
	instructions := "ssdash is a status dashboard of a proxy fleet. Use query_endpoints with a jq query to extract necessary information instead of fetching all data at once."

	if name := b.Snapshot().Name; name != "" {
		title = title + " (" + name + ")"
		instructions = instructions + " This dashboard's name is \"" + name + "\"."
	}

	impl := &mcp.Implementation{
		Name:    "ssdash",
		Version: meta.Version,
		Title:   title,
	}

	opts := &mcp.ServerOptions{
		Instructions: instructions,
	}

	server := mcp.NewServer(impl, opts)

	AddTools(server, b)

	return server
}

package mcp

import (
	"github.com/mark3labs/mcp-go/server"
	"github.com/rs/zerolog"

	"github.com/cartscout/cartscout/config"
	"github.com/cartscout/cartscout/internal/backend"
)

// Deps carries what the tool handlers need.
type Deps struct {
	Client *backend.Client
	Cfg    *config.Config
	Log    zerolog.Logger
}

// Serve starts the MCP stdio server with all tools registered.
func Serve(d Deps) error {
	s := server.NewMCPServer(
		"cartscout",
		"1.0.0",
		server.WithToolCapabilities(true),
	)

	registerTools(s, d)

	return server.ServeStdio(s)
}

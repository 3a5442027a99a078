package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	mcpserver "github.com/cartscout/cartscout/mcp"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start MCP stdio server",
	RunE:  runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	fmt.Fprintln(cmd.ErrOrStderr(), "Starting CartScout MCP server on stdio...")

	return mcpserver.Serve(mcpserver.Deps{
		Client: buildBackendClient(),
		Cfg:    cfg,
		Log:    log,
	})
}

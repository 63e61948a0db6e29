package cli

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/sefs/internal/adapters/driving/mcp"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Expose the organiser to MCP clients",
}

var mcpServeCmd = &cobra.Command{
	Use:   "serve",
	Short: "Organise the root and serve it over MCP",
	Long: `Watch and organise the root while answering Model Context Protocol
requests. Tools: get_tree, list_runs, reorganise. Resources: sefs://tree,
sefs://runs, sefs://settings and sefs://domains/{domain}.

JSON-RPC runs over stdio unless --port is given, in which case the
streamable HTTP transport listens on 127.0.0.1.

Examples:
  sefs mcp serve --root ~/inbox
  sefs mcp serve --root ~/inbox --port 8080

Client configuration:
  {
    "mcpServers": {
      "sefs": {
        "command": "/path/to/sefs",
        "args": ["mcp", "serve", "--root", "/path/to/inbox"]
      }
    }
  }`,
	RunE: runMCPServe,
}

func init() {
	mcpServeCmd.Flags().IntP("port", "p", 0, "HTTP port (0 = use stdio)")
	mcpCmd.AddCommand(mcpServeCmd)
	rootCmd.AddCommand(mcpCmd)
}

func runMCPServe(cmd *cobra.Command, _ []string) error {
	port, err := cmd.Flags().GetInt("port")
	if err != nil {
		return fmt.Errorf("getting port flag: %w", err)
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	session, err := open(ctx, true)
	if err != nil {
		return err
	}
	defer closeSession(cmd, session)

	ports := &mcp.Ports{
		Organiser: session.Organiser,
		Settings:  settingsService,
	}
	server, err := mcp.NewServer(ports)
	if err != nil {
		return err
	}

	if port > 0 {
		addr := fmt.Sprintf("127.0.0.1:%d", port)
		cmd.PrintErrf("MCP server listening on http://%s\n", addr)
		return serveOrganiser(ctx, session, func(ctx context.Context) error {
			return server.RunHTTP(ctx, addr)
		})
	}
	return serveOrganiser(ctx, session, server.Run)
}

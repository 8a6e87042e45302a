package main

import (
	vistamcp "github.com/hyperengineering/vista/mcp"
	"github.com/spf13/cobra"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Start MCP server for agent integration",
	Long: `Start a Model Context Protocol (MCP) server over stdio.

Example agent configuration:

  {
    "mcpServers": {
      "vista": {
        "command": "vista",
        "args": ["mcp"],
        "env": {
          "VISTA_WORKSPACE": "team-a"
        }
      }
    }
  }

Environment variables:
  VISTA_DB_PATH              Path to the settings database
  VISTA_WORKSPACE            Workspace to serve (default: default)
  VISTA_CAN_UPDATE_SETTINGS  Allow ensure to write settings (default: true)
  VISTA_REDIRECT_TARGET      Reported when no dataset exists
  VISTA_LOG_FORMAT           text or json; logs go to stderr
  VISTA_LOG_LEVEL            debug, info, warn, error`,
	Args: cobra.NoArgs,
	RunE: runMCP,
}

func init() {
	rootCmd.AddCommand(mcpCmd)
}

func runMCP(cmd *cobra.Command, args []string) error {
	client, err := newClient(cmd)
	if err != nil {
		return err
	}
	defer client.Close()

	return vistamcp.NewServer(client, version).Run()
}

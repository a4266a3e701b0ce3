package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/lawdesk/matterflow/internal/config"
	mcpserver "github.com/lawdesk/matterflow/internal/mcp"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Start the MCP server for AI agent integration",
	Long:  `Starts a Model Context Protocol (MCP) server on stdio, exposing matter status, checklist, and advance tools for AI agents.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(cfgFile)
		if err != nil {
			return fmt.Errorf("loading config: %w", err)
		}
		if err := cfg.Validate(); err != nil {
			return fmt.Errorf("invalid config: %w", err)
		}

		comps, err := buildComponents(cfg)
		if err != nil {
			return err
		}
		defer comps.db.Close()

		mcpserver.Version = Version

		fmt.Fprintf(os.Stderr, "matterflow MCP server started on stdio (db=%s)\n", cfg.DatabasePath)

		srv := mcpserver.NewServer(comps.actor)
		return srv.Serve()
	},
}

func init() {
	rootCmd.AddCommand(mcpCmd)
}

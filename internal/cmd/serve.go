package cmd

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/hargabyte/i18nsync/internal/mcp"
)

// serveCmd represents the serve command
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start MCP server for AI agent integration",
	Long: `Start an MCP (Model Context Protocol) server on stdio so agents can query
translations and preview extractions without spawning CLI commands.

The server never writes files: previews run against the current source
locale and return the rewritten module as text.

Available Tools:
  i18n_lookup    Text of a key in every language
  i18n_check     Lint summary
  i18n_preview   Extraction preview of a module
  i18n_status    Tracked modules and their sync state

Examples:
  i18nsync serve                          # All tools
  i18nsync serve --tools lookup,preview   # Specific tools only
  i18nsync serve --timeout 30m            # Exit after 30 minutes idle
  i18nsync serve --list-tools             # Show available tools`,
	RunE: runServe,
}

var (
	serveTools     string
	serveTimeout   time.Duration
	serveListTools bool
)

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().StringVar(&serveTools, "tools", "", "Comma-separated list of tools to expose (default: all)")
	serveCmd.Flags().DurationVar(&serveTimeout, "timeout", 0, "Inactivity timeout (0 for no timeout)")
	serveCmd.Flags().BoolVar(&serveListTools, "list-tools", false, "List available tools")
}

func runServe(cmd *cobra.Command, args []string) error {
	if serveListTools {
		fmt.Fprintln(cmd.OutOrStdout(), "Available MCP tools:")
		for _, name := range mcp.AllTools {
			fmt.Fprintf(cmd.OutOrStdout(), "  %s\n", name)
		}
		return nil
	}

	eng, err := loadEngine(cmd)
	if err != nil {
		return err
	}

	server, err := mcp.New(eng, mcp.Config{
		Tools:   parseToolNames(serveTools),
		Timeout: serveTimeout,
		Version: Version,
	})
	if err != nil {
		return err
	}

	logger.Info().Strs("tools", server.ListTools()).Msg("MCP server listening on stdio")
	return server.ServeStdio()
}

// parseToolNames accepts names with or without the i18n_ prefix.
func parseToolNames(s string) []string {
	var out []string
	for _, name := range splitList([]string{s}) {
		if !strings.HasPrefix(name, "i18n_") {
			name = "i18n_" + name
		}
		out = append(out, name)
	}
	return out
}

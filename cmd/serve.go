package cmd

import (
	"fmt"
	"log"
	"os"

	"github.com/spf13/cobra"

	"github.com/yahsan2/gh-mcp/pkg/config"
	"github.com/yahsan2/gh-mcp/pkg/github"
	"github.com/yahsan2/gh-mcp/pkg/tools"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the MCP server on stdio",
	Long: `Run the MCP server, reading JSON-RPC requests from stdin and writing
responses to stdout. Diagnostics go to stderr so they never corrupt the
protocol stream.

The server needs GITHUB_TOKEN set. A default repository can be configured
in .gh-mcp.yml or via GITHUB_OWNER and GITHUB_REPO.`,
	RunE: runServe,
}

var serveQuiet bool

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().BoolVarP(&serveQuiet, "quiet", "q", false, "Suppress diagnostic logging on stderr")
}

func runServe(cmd *cobra.Command, args []string) error {
	if err := config.RequireToken(); err != nil {
		return err
	}
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	if !serveQuiet {
		tools.SetLogger(log.New(os.Stderr, "gh-mcp: ", log.LstdFlags))
	}

	client, err := github.NewClient(config.Token())
	if err != nil {
		return err
	}

	srv := tools.NewServer(client, cfg, Version)
	return srv.Serve()
}

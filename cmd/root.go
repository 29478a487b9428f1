package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var Version = "dev"

var rootCmd = &cobra.Command{
	Use:   "gh-mcp",
	Short: "MCP server exposing GitHub operations as tools",
	Long: `An MCP (Model Context Protocol) server that exposes GitHub repository
operations as tools over stdio.

Tools cover:
- Issues: create (single or parallel batches), update, list, close, labels
- Pull requests: create with structured content, update, merge
- Milestones and GitHub Projects (v2) linking
- CI workflow status and job logs

Authentication uses the GITHUB_TOKEN environment variable. The default
repository comes from .gh-mcp.yml or GITHUB_OWNER/GITHUB_REPO.`,
	Version: Version,
}

func Execute() int {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	return 0
}

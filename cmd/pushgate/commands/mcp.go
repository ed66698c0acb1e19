package commands

import (
	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/roasbeef/pushgate/internal/mcp"
	"github.com/spf13/cobra"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Serve review tools over MCP on stdio",
	Long: `Runs a Model Context Protocol server on stdin/stdout exposing two
tools, review_range and review_pr, so an agent can ask for a review before
it pushes. The tools report verdicts; they never block anything.`,
	Args: cobra.NoArgs,
	RunE: runMCP,
}

func init() {
	rootCmd.AddCommand(mcpCmd)
}

func runMCP(cmd *cobra.Command, args []string) error {
	e, err := setup(cmd, false)
	if err != nil {
		return err
	}
	defer e.Close()

	server := mcp.NewServer(mcp.Config{
		Reviewer: e.newReviewer(cmd),
		Repo:     e.workDir(),
	})

	return server.Run(cmd.Context(), &sdkmcp.StdioTransport{})
}

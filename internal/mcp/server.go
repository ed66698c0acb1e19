// Package mcp exposes on-demand reviews as Model Context Protocol tools so an
// agent can ask for the same verdict the pre-push gate would produce.
package mcp

import (
	"context"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/roasbeef/pushgate/internal/build"
	"github.com/roasbeef/pushgate/internal/gitdiff"
	"github.com/roasbeef/pushgate/internal/review"
)

// RangeDiffer produces the change between two revisions of a repository.
type RangeDiffer interface {
	DefaultBase() (string, error)
	DiffRange(ctx context.Context, base, head string,
		mergeBase bool) (*gitdiff.ChangeSet, error)
}

// PRFetcher produces the change of a pull request.
type PRFetcher interface {
	Fetch(ctx context.Context, number int) (*gitdiff.ChangeSet, error)
}

// Config holds configuration for the MCP server.
type Config struct {
	// Reviewer produces verdicts.
	Reviewer review.Reviewer

	// Repo is the repository used when a tool call names none.
	Repo string

	// OpenRepo opens a repository for range reviews. Defaults to
	// gitdiff.Open.
	OpenRepo func(path string) (RangeDiffer, error)

	// PRs returns the pull request source for a repository. Defaults to
	// the gh-backed gitdiff.PRSource.
	PRs func(repoPath string) PRFetcher
}

// Server wraps the MCP server with review dependencies.
type Server struct {
	server *mcp.Server
	cfg    Config
}

// NewServer creates a new MCP server with the review tools registered.
func NewServer(cfg Config) *Server {
	if cfg.OpenRepo == nil {
		cfg.OpenRepo = func(path string) (RangeDiffer, error) {
			repo, err := gitdiff.Open(path)
			if err != nil {
				return nil, err
			}

			return repo, nil
		}
	}
	if cfg.PRs == nil {
		cfg.PRs = func(repoPath string) PRFetcher {
			return gitdiff.NewPRSource(repoPath)
		}
	}
	if cfg.Repo == "" {
		cfg.Repo = "."
	}

	mcpServer := mcp.NewServer(&mcp.Implementation{
		Name:    "pushgate",
		Version: build.Version(),
	}, nil)

	s := &Server{
		server: mcpServer,
		cfg:    cfg,
	}
	s.registerTools()

	return s
}

// Run serves on the given transport until the client disconnects or ctx
// is done.
func (s *Server) Run(ctx context.Context, transport mcp.Transport) error {
	log.InfoS(ctx, "MCP server starting", "repo", s.cfg.Repo)

	return s.server.Run(ctx, transport)
}

func (s *Server) registerTools() {
	mcp.AddTool(s.server, &mcp.Tool{
		Name: "review_range",
		Description: "Review the changes between two revisions of a " +
			"git repository and return a severity verdict",
	}, s.handleReviewRange)

	mcp.AddTool(s.server, &mcp.Tool{
		Name: "review_pr",
		Description: "Review a GitHub pull request by number and " +
			"return a severity verdict",
	}, s.handleReviewPR)
}

package mcp

import (
	"context"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/roasbeef/pushgate/internal/gitdiff"
	"github.com/roasbeef/pushgate/internal/review"
)

// ReviewResult is returned by both review tools.
type ReviewResult struct {
	Title    string         `json:"title"`
	Files    []string       `json:"files"`
	Severity string         `json:"severity"`
	Summary  string         `json:"summary,omitempty"`
	Issues   []review.Issue `json:"issues,omitempty"`

	// Unparsed is set when the reviewer's output had no usable verdict
	// and it was treated as critical.
	Unparsed bool `json:"unparsed,omitempty"`
}

// ReviewRangeArgs are the arguments for the review_range tool.
type ReviewRangeArgs struct {
	// Base is the revision to compare against.
	Base string `json:"base,omitempty" jsonschema:"Base revision; defaults to the remote's default branch"`

	// Head is the revision under review.
	Head string `json:"head,omitempty" jsonschema:"Head revision; defaults to HEAD"`

	// Repo is a path inside the repository.
	Repo string `json:"repo,omitempty" jsonschema:"Path to the git repository; defaults to the server's repository"`
}

func (s *Server) handleReviewRange(ctx context.Context,
	req *mcp.CallToolRequest,
	args ReviewRangeArgs) (*mcp.CallToolResult, ReviewResult, error) {

	repoPath := args.Repo
	if repoPath == "" {
		repoPath = s.cfg.Repo
	}

	repo, err := s.cfg.OpenRepo(repoPath)
	if err != nil {
		return nil, ReviewResult{}, err
	}

	base := args.Base
	if base == "" {
		base, err = repo.DefaultBase()
		if err != nil {
			return nil, ReviewResult{}, err
		}
	}
	head := args.Head
	if head == "" {
		head = "HEAD"
	}

	cs, err := repo.DiffRange(ctx, base, head, true)
	if err != nil {
		return nil, ReviewResult{}, err
	}

	return s.review(ctx, cs)
}

// ReviewPRArgs are the arguments for the review_pr tool.
type ReviewPRArgs struct {
	// Number is the pull request number.
	Number int `json:"number" jsonschema:"Pull request number"`

	// Repo is a path inside the repository the PR belongs to.
	Repo string `json:"repo,omitempty" jsonschema:"Path to the git repository; defaults to the server's repository"`
}

func (s *Server) handleReviewPR(ctx context.Context,
	req *mcp.CallToolRequest,
	args ReviewPRArgs) (*mcp.CallToolResult, ReviewResult, error) {

	if args.Number <= 0 {
		return nil, ReviewResult{}, fmt.Errorf("number must be a "+
			"positive pull request number, got %d", args.Number)
	}

	repoPath := args.Repo
	if repoPath == "" {
		repoPath = s.cfg.Repo
	}

	cs, err := s.cfg.PRs(repoPath).Fetch(ctx, args.Number)
	if err != nil {
		return nil, ReviewResult{}, err
	}

	return s.review(ctx, cs)
}

// review runs the reviewer over a change set. Unlike the gate, a reviewer
// failure is reported to the caller rather than treated as a pass.
func (s *Server) review(ctx context.Context,
	cs *gitdiff.ChangeSet) (*mcp.CallToolResult, ReviewResult, error) {

	result, err := Review(ctx, s.cfg.Reviewer, cs)
	if err != nil {
		return nil, ReviewResult{}, err
	}

	return nil, *result, nil
}

// Review runs reviewer over cs and shapes the verdict for callers. It is
// shared by the tools and the review command.
func Review(ctx context.Context, reviewer review.Reviewer,
	cs *gitdiff.ChangeSet) (*ReviewResult, error) {

	verdict, err := review.Run(ctx, reviewer, review.Request{
		Title: cs.Title,
		Files: cs.Files,
		Patch: cs.Patch,
	})
	if err != nil {
		return nil, err
	}

	result := &ReviewResult{
		Title:    cs.Title,
		Files:    cs.Files,
		Severity: string(verdict.Severity),
		Summary:  verdict.Summary,
		Issues:   verdict.Issues,
		Unparsed: verdict.Unparsed,
	}
	if result.Files == nil {
		result.Files = []string{}
	}

	return result, nil
}

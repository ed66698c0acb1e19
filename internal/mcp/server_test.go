package mcp

import (
	"context"
	"errors"
	"testing"

	"github.com/roasbeef/pushgate/internal/gitdiff"
	"github.com/roasbeef/pushgate/internal/review"
	"github.com/stretchr/testify/require"
)

type fakeReviewer struct {
	verdict *review.Verdict
	err     error
	last    review.Request
}

func (f *fakeReviewer) Review(_ context.Context,
	req review.Request) (*review.Verdict, error) {

	f.last = req
	return f.verdict, f.err
}

type fakeRepo struct {
	base     string
	cs       *gitdiff.ChangeSet
	gotBase  string
	gotHead  string
	gotMerge bool
}

func (f *fakeRepo) DefaultBase() (string, error) {
	if f.base == "" {
		return "", errors.New("no base")
	}
	return f.base, nil
}

func (f *fakeRepo) DiffRange(_ context.Context, base, head string,
	mergeBase bool) (*gitdiff.ChangeSet, error) {

	f.gotBase, f.gotHead, f.gotMerge = base, head, mergeBase
	return f.cs, nil
}

type fakePRs struct {
	cs     *gitdiff.ChangeSet
	number int
}

func (f *fakePRs) Fetch(_ context.Context,
	number int) (*gitdiff.ChangeSet, error) {

	f.number = number
	return f.cs, nil
}

func changeSet() *gitdiff.ChangeSet {
	return &gitdiff.ChangeSet{
		Title: "main...HEAD",
		Files: []string{"db/query.go"},
		Patch: "diff --git a/db/query.go b/db/query.go\n",
	}
}

// TestNewServer verifies the tool schemas derived from the argument types
// are accepted. AddTool panics on an invalid schema.
func TestNewServer(t *testing.T) {
	t.Parallel()

	require.NotNil(t, NewServer(Config{}))
}

// TestReviewRange verifies defaults and the verdict mapping.
func TestReviewRange(t *testing.T) {
	t.Parallel()

	repo := &fakeRepo{base: "origin/HEAD", cs: changeSet()}
	reviewer := &fakeReviewer{verdict: &review.Verdict{
		Severity: review.SeverityCritical,
		Summary:  "SQL injection",
		Issues: []review.Issue{{
			File: "db/query.go", Line: 12,
			Severity: string(review.SeverityCritical), Title: "unescaped input",
		}},
	}}

	var openedPath string
	s := NewServer(Config{
		Reviewer: reviewer,
		Repo:     "/work/repo",
		OpenRepo: func(path string) (RangeDiffer, error) {
			openedPath = path
			return repo, nil
		},
	})

	_, res, err := s.handleReviewRange(
		context.Background(), nil, ReviewRangeArgs{},
	)
	require.NoError(t, err)
	require.Equal(t, "/work/repo", openedPath)
	require.Equal(t, "origin/HEAD", repo.gotBase)
	require.Equal(t, "HEAD", repo.gotHead)
	require.True(t, repo.gotMerge)

	require.Equal(t, "critical", res.Severity)
	require.Equal(t, "SQL injection", res.Summary)
	require.Len(t, res.Issues, 1)
	require.Equal(t, []string{"db/query.go"}, reviewer.last.Files)

	_, _, err = s.handleReviewRange(context.Background(), nil,
		ReviewRangeArgs{Base: "v1", Head: "v2", Repo: "/other"})
	require.NoError(t, err)
	require.Equal(t, "/other", openedPath)
	require.Equal(t, "v1", repo.gotBase)
	require.Equal(t, "v2", repo.gotHead)
}

// TestReviewRangeNoChanges verifies an empty range isn't sent to the
// reviewer.
func TestReviewRangeNoChanges(t *testing.T) {
	t.Parallel()

	reviewer := &fakeReviewer{err: errors.New("must not run")}
	s := NewServer(Config{
		Reviewer: reviewer,
		OpenRepo: func(string) (RangeDiffer, error) {
			return &fakeRepo{base: "main", cs: &gitdiff.ChangeSet{}}, nil
		},
	})

	_, res, err := s.handleReviewRange(
		context.Background(), nil, ReviewRangeArgs{},
	)
	require.NoError(t, err)
	require.Equal(t, "none", res.Severity)
	require.NotNil(t, res.Files)
}

// TestReviewPR verifies the PR number is passed through and reviewer
// failures are reported.
func TestReviewPR(t *testing.T) {
	t.Parallel()

	prs := &fakePRs{cs: changeSet()}
	reviewer := &fakeReviewer{err: review.ErrReviewerUnavailable}
	s := NewServer(Config{
		Reviewer: reviewer,
		PRs:      func(string) PRFetcher { return prs },
	})

	_, _, err := s.handleReviewPR(
		context.Background(), nil, ReviewPRArgs{Number: 17},
	)
	require.ErrorIs(t, err, review.ErrReviewerUnavailable)
	require.Equal(t, 17, prs.number)

	_, _, err = s.handleReviewPR(
		context.Background(), nil, ReviewPRArgs{Number: 0},
	)
	require.Error(t, err)

	reviewer.err = nil
	reviewer.verdict = &review.Verdict{Severity: review.SeverityMinor}
	_, res, err := s.handleReviewPR(
		context.Background(), nil, ReviewPRArgs{Number: 17},
	)
	require.NoError(t, err)
	require.Equal(t, "minor", res.Severity)
}

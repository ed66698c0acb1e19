package gate

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/roasbeef/pushgate/internal/config"
	"github.com/roasbeef/pushgate/internal/review"
	"github.com/stretchr/testify/require"
)

// fakeReviewer returns a canned verdict or error and counts calls.
type fakeReviewer struct {
	verdict *review.Verdict
	err     error
	calls   int
	last    review.Request
}

func (f *fakeReviewer) Review(_ context.Context,
	req review.Request) (*review.Verdict, error) {

	f.calls++
	f.last = req

	return f.verdict, f.err
}

// errPrompter fails every question with the given error.
type errPrompter struct {
	err error
}

func (e errPrompter) Ask(context.Context, string) (string, error) {
	return "", e.err
}

// files returns n distinct changed paths.
func files(n int) []string {
	out := make([]string, n)
	for i := range out {
		out[i] = fmt.Sprintf("pkg/file%d.go", i)
	}

	return out
}

// attempt builds a push attempt from the given settings.
func attempt(autoReview, interactive bool, maxFiles, n int) PushAttempt {
	cfg := config.Default()
	cfg.AutoReview = autoReview
	cfg.Interactive = interactive
	cfg.MaxFiles = maxFiles

	return NewPushAttempt(cfg, "run", "feature -> origin/feature",
		files(n), "diff --git a/x b/x\n")
}

func critical(text string) *review.Verdict {
	return &review.Verdict{
		Severity: review.SeverityCritical,
		Summary:  text,
	}
}

// newGate wires a gate with a scripted operator.
func newGate(r review.Reviewer, operatorInput string) (*Gate, *bytes.Buffer) {
	var out bytes.Buffer
	g := New(Config{
		Reviewer: r,
		Prompter: NewLinePrompter(
			strings.NewReader(operatorInput), &out, 0,
		),
		Out: &out,
	})

	return g, &out
}

// TestEvaluateCriticalOperatorDeclines covers the documented scenario: a
// critical verdict and an operator typing "n" blocks the push.
func TestEvaluateCriticalOperatorDeclines(t *testing.T) {
	t.Parallel()

	r := &fakeReviewer{verdict: critical("SQL injection risk")}
	g, out := newGate(r, "n\n")

	d := g.Evaluate(context.Background(), attempt(true, true, 20, 3))
	require.False(t, d.Allow)
	require.Equal(t, ReasonOperatorDeclined, d.Reason)
	require.NotZero(t, d.ExitCode())
	require.Equal(t, 1, r.calls)
	require.Len(t, r.last.Files, 3)
	require.Contains(t, out.String(), "SQL injection risk")
	require.Contains(t, out.String(), "[Y/n]")
}

// TestEvaluateReviewerAbsent covers the documented scenario: a reviewer
// that cannot run lets the push through with a warning.
func TestEvaluateReviewerAbsent(t *testing.T) {
	t.Parallel()

	r := &fakeReviewer{err: fmt.Errorf("%w: claude not found in PATH",
		review.ErrReviewerUnavailable)}
	g, out := newGate(r, "")

	d := g.Evaluate(context.Background(), attempt(true, true, 20, 3))
	require.True(t, d.Allow)
	require.Equal(t, ReasonReviewerUnavailable, d.Reason)
	require.Zero(t, d.ExitCode())
	require.Contains(t, out.String(), "warning")
}

// TestEvaluateTooManyFiles covers the documented scenario: twelve files
// against a limit of five skips review entirely.
func TestEvaluateTooManyFiles(t *testing.T) {
	t.Parallel()

	r := &fakeReviewer{verdict: critical("never seen")}
	g, _ := newGate(r, "")

	d := g.Evaluate(context.Background(), attempt(true, true, 5, 12))
	require.True(t, d.Allow)
	require.Equal(t, ReasonTooManyFiles, d.Reason)
	require.Zero(t, r.calls)
}

// TestEvaluateShortCircuits verifies disabled review and empty pushes never
// reach the reviewer.
func TestEvaluateShortCircuits(t *testing.T) {
	t.Parallel()

	r := &fakeReviewer{verdict: critical("never seen")}
	g, _ := newGate(r, "")

	d := g.Evaluate(context.Background(), attempt(false, true, 20, 3))
	require.True(t, d.Allow)
	require.Equal(t, ReasonReviewDisabled, d.Reason)

	d = g.Evaluate(context.Background(), attempt(true, true, 20, 0))
	require.True(t, d.Allow)
	require.Equal(t, ReasonNoChanges, d.Reason)

	require.Zero(t, r.calls)
}

// TestEvaluateOperatorAnswers verifies how operator input maps onto the
// decision.
func TestEvaluateOperatorAnswers(t *testing.T) {
	t.Parallel()

	tests := []struct {
		input string
		allow bool
	}{
		{"y\n", true},
		{"Y\n", true},
		{"yes\r\n", true},
		{"\n", true},
		{"", true},
		{"n\n", false},
		{"N\n", false},
		{"no\n", false},
		{"maybe\n", false},
	}

	for _, tc := range tests {
		t.Run(fmt.Sprintf("%q", tc.input), func(t *testing.T) {
			r := &fakeReviewer{verdict: critical("bad")}
			g, _ := newGate(r, tc.input)

			d := g.Evaluate(
				context.Background(), attempt(true, true, 20, 1),
			)
			require.Equal(t, tc.allow, d.Allow)
			if tc.allow {
				require.Equal(t, ReasonOperatorApproved, d.Reason)
			} else {
				require.Equal(t, ReasonOperatorDeclined, d.Reason)
				require.Equal(t, ExitDeclined, d.ExitCode())
			}
		})
	}
}

// TestEvaluateNonInteractiveCritical verifies a critical verdict blocks
// without asking when not interactive.
func TestEvaluateNonInteractiveCritical(t *testing.T) {
	t.Parallel()

	r := &fakeReviewer{verdict: critical("secret committed")}
	g := New(Config{
		Reviewer: r,
		Prompter: errPrompter{err: errors.New("must not be asked")},
	})

	d := g.Evaluate(context.Background(), attempt(true, false, 20, 2))
	require.False(t, d.Allow)
	require.Equal(t, ReasonBlockedByVerdict, d.Reason)
	require.Equal(t, ExitBlocked, d.ExitCode())
}

// TestEvaluatePromptFailures verifies an unanswerable prompt blocks.
func TestEvaluatePromptFailures(t *testing.T) {
	t.Parallel()

	for _, err := range []error{ErrPromptTimeout, errors.New("tty gone")} {
		r := &fakeReviewer{verdict: critical("bad")}
		g := New(Config{Reviewer: r, Prompter: errPrompter{err: err}})

		d := g.Evaluate(context.Background(), attempt(true, true, 20, 1))
		require.False(t, d.Allow)
		require.Equal(t, ReasonPromptFailed, d.Reason)
		require.Equal(t, ExitBlocked, d.ExitCode())
	}
}

// TestEvaluateCleanVerdicts verifies none and minor verdicts allow.
func TestEvaluateCleanVerdicts(t *testing.T) {
	t.Parallel()

	for _, sev := range []review.Severity{
		review.SeverityNone, review.SeverityMinor,
	} {
		r := &fakeReviewer{verdict: &review.Verdict{
			Severity: sev, Summary: "nit",
		}}
		g := New(Config{Reviewer: r})

		d := g.Evaluate(context.Background(), attempt(true, false, 20, 1))
		require.True(t, d.Allow)
		require.Equal(t, ReasonVerdictClean, d.Reason)
		require.Equal(t, sev, d.Verdict.Severity)
	}
}

// TestEvaluateUnknownSeverity verifies a verdict outside the three
// severities is treated as critical.
func TestEvaluateUnknownSeverity(t *testing.T) {
	t.Parallel()

	r := &fakeReviewer{verdict: &review.Verdict{Severity: "catastrophic"}}
	g := New(Config{Reviewer: r})

	d := g.Evaluate(context.Background(), attempt(true, false, 20, 1))
	require.False(t, d.Allow)
	require.True(t, d.Verdict.Unparsed)
	require.Equal(t, review.SeverityCritical, d.Verdict.Severity)
}

// TestEvaluateNilVerdictAndReviewer verifies degenerate reviewers fail
// open.
func TestEvaluateNilVerdictAndReviewer(t *testing.T) {
	t.Parallel()

	g := New(Config{Reviewer: &fakeReviewer{}})
	d := g.Evaluate(context.Background(), attempt(true, false, 20, 1))
	require.True(t, d.Allow)
	require.Equal(t, ReasonReviewerUnavailable, d.Reason)

	g = New(Config{})
	d = g.Evaluate(context.Background(), attempt(true, false, 20, 1))
	require.True(t, d.Allow)
	require.Equal(t, ReasonReviewerUnavailable, d.Reason)
}

// TestNewPushAttemptCopiesFiles verifies the attempt doesn't alias the
// caller's slice.
func TestNewPushAttemptCopiesFiles(t *testing.T) {
	t.Parallel()

	in := []string{"a.go", "b.go"}
	a := NewPushAttempt(config.Default(), "run", "", in, "")
	in[0] = "mutated.go"

	require.Equal(t, "a.go", a.Files[0])
	require.Equal(t, 20, a.MaxFiles)
	require.True(t, a.AutoReview)
	require.True(t, a.Interactive)
}

// Package gate decides whether a push may proceed. It runs the external
// reviewer on the pushed change and, when the reviewer reports a critical
// problem, either blocks the push or asks the operator.
//
// The gate fails open: a missing or broken reviewer never blocks a push. It
// fails closed only on an explicit critical verdict (including reviewer
// output it could not read).
package gate

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/roasbeef/pushgate/internal/review"
)

// Config holds the gate's collaborators.
type Config struct {
	// Reviewer produces verdicts.
	Reviewer review.Reviewer

	// Prompter asks the operator on critical verdicts in interactive
	// mode. It may be nil when attempts are never interactive.
	Prompter Prompter

	// Out receives operator-facing messages.
	Out io.Writer
}

// Gate evaluates push attempts.
type Gate struct {
	cfg Config
}

// New creates a gate.
func New(cfg Config) *Gate {
	if cfg.Out == nil {
		cfg.Out = io.Discard
	}

	return &Gate{cfg: cfg}
}

// confirmQuestion is shown before the operator's answer is read.
const confirmQuestion = "pushgate: push anyway? [Y/n] "

// Evaluate decides one push attempt.
func (g *Gate) Evaluate(ctx context.Context, attempt PushAttempt) Decision {
	log.DebugS(ctx, "Evaluating push",
		"run_id", attempt.RunID,
		"files", len(attempt.Files),
		"max_files", attempt.MaxFiles,
		"auto_review", attempt.AutoReview,
		"interactive", attempt.Interactive,
	)

	switch {
	case !attempt.AutoReview:
		return g.allow(ctx, attempt, ReasonReviewDisabled, nil)

	case len(attempt.Files) == 0:
		return g.allow(ctx, attempt, ReasonNoChanges, nil)

	case len(attempt.Files) > attempt.MaxFiles:
		g.printf("pushgate: %d files changed (limit %d), skipping "+
			"review\n", len(attempt.Files), attempt.MaxFiles)
		return g.allow(ctx, attempt, ReasonTooManyFiles, nil)
	}

	g.printf("pushgate: reviewing %d changed file(s)...\n",
		len(attempt.Files))

	verdict, err := g.review(ctx, attempt)
	if err == nil && verdict == nil {
		err = fmt.Errorf("%w: reviewer returned no verdict",
			review.ErrReviewerUnavailable)
	}
	if err != nil {
		log.WarnS(ctx, "Reviewer unavailable, allowing push", err,
			"run_id", attempt.RunID,
		)
		g.printf("pushgate: warning: review skipped: %v\n", err)
		g.printf("pushgate: allowing push without review\n")

		return g.allow(ctx, attempt, ReasonReviewerUnavailable, nil)
	}

	// Anything outside the three severities is treated like output we
	// couldn't read.
	if !verdict.Severity.Valid() {
		verdict = &review.Verdict{
			Severity: review.SeverityCritical,
			Summary: fmt.Sprintf("unrecognized severity %q: %s",
				verdict.Severity, verdict.Summary),
			Issues:   verdict.Issues,
			Unparsed: true,
		}
	}

	switch verdict.Severity {
	case review.SeverityNone:
		g.printf("pushgate: review passed\n")
		return g.allow(ctx, attempt, ReasonVerdictClean, verdict)

	case review.SeverityMinor:
		g.printf("pushgate: review found minor issues:\n%s",
			verdict.String())
		return g.allow(ctx, attempt, ReasonVerdictClean, verdict)
	}

	g.printf("pushgate: review found critical issues:\n%s",
		verdict.String())

	if !attempt.Interactive || g.cfg.Prompter == nil {
		g.printf("pushgate: push blocked\n")
		return g.block(ctx, attempt, ReasonBlockedByVerdict, verdict)
	}

	answer, err := g.cfg.Prompter.Ask(ctx, confirmQuestion)
	switch {
	case errors.Is(err, ErrPromptTimeout):
		g.printf("pushgate: no answer, push blocked\n")
		return g.block(ctx, attempt, ReasonPromptFailed, verdict)

	case err != nil:
		log.WarnS(ctx, "Prompt failed, blocking push", err,
			"run_id", attempt.RunID,
		)
		g.printf("pushgate: could not read answer (%v), push "+
			"blocked\n", err)
		return g.block(ctx, attempt, ReasonPromptFailed, verdict)
	}

	if confirmed(answer) {
		return g.allow(ctx, attempt, ReasonOperatorApproved, verdict)
	}

	g.printf("pushgate: push aborted\n")

	return g.block(ctx, attempt, ReasonOperatorDeclined, verdict)
}

// review runs the configured reviewer. A gate without one behaves like a
// gate whose reviewer is not installed.
func (g *Gate) review(ctx context.Context,
	attempt PushAttempt) (*review.Verdict, error) {

	if g.cfg.Reviewer == nil {
		return nil, fmt.Errorf("%w: no reviewer configured",
			review.ErrReviewerUnavailable)
	}

	return g.cfg.Reviewer.Review(ctx, review.Request{
		Title: attempt.Title,
		Files: attempt.Files,
		Patch: attempt.Patch,
	})
}

// allow logs and returns an allowing decision.
func (g *Gate) allow(ctx context.Context, attempt PushAttempt, reason Reason,
	verdict *review.Verdict) Decision {

	d := Decision{Allow: true, Reason: reason, Verdict: verdict}
	g.logDecision(ctx, attempt, d)

	return d
}

// block logs and returns a blocking decision.
func (g *Gate) block(ctx context.Context, attempt PushAttempt, reason Reason,
	verdict *review.Verdict) Decision {

	d := Decision{Allow: false, Reason: reason, Verdict: verdict}
	g.logDecision(ctx, attempt, d)

	return d
}

func (g *Gate) logDecision(ctx context.Context, attempt PushAttempt,
	d Decision) {

	attrs := []any{
		"run_id", attempt.RunID,
		"decision", d.String(),
		"reason", d.Reason,
	}
	if d.Verdict != nil {
		attrs = append(attrs, "severity", d.Verdict.Severity,
			"unparsed", d.Verdict.Unparsed)
	}

	log.InfoS(ctx, "Gate decision", attrs...)
}

func (g *Gate) printf(format string, args ...any) {
	_, _ = fmt.Fprintf(g.cfg.Out, format, args...)
}

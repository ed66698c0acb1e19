package gate

import (
	"slices"

	"github.com/roasbeef/pushgate/internal/config"
	"github.com/roasbeef/pushgate/internal/review"
)

// PushAttempt is one invocation of the gate. It is built once from the
// resolved configuration and the collected diff, and not modified after.
type PushAttempt struct {
	// RunID correlates log lines for this invocation.
	RunID string

	// Title names the change for the reviewer and the operator.
	Title string

	// Files are the changed paths, in push order.
	Files []string

	// Patch is the unified diff of the change.
	Patch string

	// MaxFiles skips review when len(Files) exceeds it.
	MaxFiles int

	// AutoReview enables the reviewer.
	AutoReview bool

	// Interactive asks the operator on a critical verdict.
	Interactive bool
}

// NewPushAttempt builds an attempt from the configuration. The file slice
// is copied so later changes by the caller don't leak in.
func NewPushAttempt(cfg config.Config, runID, title string, files []string,
	patch string) PushAttempt {

	return PushAttempt{
		RunID:       runID,
		Title:       title,
		Files:       slices.Clone(files),
		Patch:       patch,
		MaxFiles:    cfg.MaxFiles,
		AutoReview:  cfg.AutoReview,
		Interactive: cfg.Interactive,
	}
}

// Reason records why the gate reached its decision.
type Reason string

const (
	ReasonReviewDisabled      Reason = "review_disabled"
	ReasonNoChanges           Reason = "no_changes"
	ReasonTooManyFiles        Reason = "too_many_files"
	ReasonReviewerUnavailable Reason = "reviewer_unavailable"
	ReasonVerdictClean        Reason = "verdict_clean"
	ReasonBlockedByVerdict    Reason = "blocked_by_verdict"
	ReasonOperatorApproved    Reason = "operator_approved"
	ReasonOperatorDeclined    Reason = "operator_declined"
	ReasonPromptFailed        Reason = "prompt_failed"
)

// Process exit codes for the hook.
const (
	// ExitAllow lets git continue the push.
	ExitAllow = 0

	// ExitBlocked aborts the push because of a critical verdict that was
	// not (or could not be) confirmed.
	ExitBlocked = 1

	// ExitDeclined aborts the push because the operator said no.
	ExitDeclined = 2
)

// Decision is the gate's final answer.
type Decision struct {
	// Allow is true when the push may proceed.
	Allow bool

	// Reason explains the decision.
	Reason Reason

	// Verdict is the reviewer's verdict, nil when no review ran.
	Verdict *review.Verdict
}

// ExitCode maps the decision onto the hook's process exit code.
func (d Decision) ExitCode() int {
	switch {
	case d.Allow:
		return ExitAllow
	case d.Reason == ReasonOperatorDeclined:
		return ExitDeclined
	default:
		return ExitBlocked
	}
}

// String returns "allow" or "block".
func (d Decision) String() string {
	if d.Allow {
		return "allow"
	}

	return "block"
}

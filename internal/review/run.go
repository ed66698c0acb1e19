package review

import (
	"context"
	"fmt"
)

// Run reviews req outside the push gate. An empty change is a "none"
// verdict without consulting the reviewer. Every reviewer failure,
// including a missing reviewer or an empty reply, is returned as an error
// wrapping ErrReviewerUnavailable.
func Run(ctx context.Context, r Reviewer, req Request) (*Verdict, error) {
	if len(req.Files) == 0 {
		return &Verdict{Severity: SeverityNone, Summary: "no changes"}, nil
	}

	if r == nil {
		return nil, fmt.Errorf("%w: no reviewer configured",
			ErrReviewerUnavailable)
	}

	verdict, err := r.Review(ctx, req)
	if err != nil {
		return nil, err
	}
	if verdict == nil {
		return nil, fmt.Errorf("%w: empty verdict", ErrReviewerUnavailable)
	}

	log.InfoS(ctx, "Review complete",
		"title", req.Title,
		"files", len(req.Files),
		"severity", verdict.Severity)

	return verdict, nil
}

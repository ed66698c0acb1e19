package review

import (
	"context"
	"errors"
)

// Severity is the reviewer's classification of a diff. It drives the gate:
// none and minor allow the push, critical blocks or asks.
type Severity string

const (
	SeverityNone     Severity = "none"
	SeverityMinor    Severity = "minor"
	SeverityCritical Severity = "critical"
)

// Valid reports whether s is one of the three known severities.
func (s Severity) Valid() bool {
	switch s {
	case SeverityNone, SeverityMinor, SeverityCritical:
		return true
	default:
		return false
	}
}

// Issue is a single finding reported alongside a verdict.
type Issue struct {
	File     string `yaml:"file" json:"file,omitempty"`
	Line     int    `yaml:"line" json:"line,omitempty"`
	Severity string `yaml:"severity" json:"severity,omitempty"`
	Title    string `yaml:"title" json:"title"`
}

// Verdict is the outcome of one review. It is consumed once and never
// persisted.
type Verdict struct {
	// Severity classifies the diff as a whole.
	Severity Severity `json:"severity"`

	// Summary is the reviewer's explanation, shown to the operator.
	Summary string `json:"summary"`

	// Issues lists individual findings, if the reviewer gave any.
	Issues []Issue `json:"issues,omitempty"`

	// Unparsed is set when the reviewer's output could not be read and
	// the verdict was synthesized as critical.
	Unparsed bool `json:"unparsed,omitempty"`
}

// Request is what a reviewer is asked to look at.
type Request struct {
	// Title identifies the change, e.g. "main -> origin/main" or
	// "PR #42".
	Title string

	// Files are the changed paths, in push order.
	Files []string

	// Patch is the unified diff of the change.
	Patch string
}

// Reviewer is the external review capability. Implementations must treat
// the underlying tool as untrusted and possibly absent: failures to run it
// are reported as errors wrapping ErrReviewerUnavailable, while output that
// runs but cannot be read becomes an Unparsed critical verdict.
type Reviewer interface {
	Review(ctx context.Context, req Request) (*Verdict, error)
}

// ErrReviewerUnavailable covers a reviewer that is missing, crashed, exited
// non-zero or timed out.
var ErrReviewerUnavailable = errors.New("reviewer unavailable")

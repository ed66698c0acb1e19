package review

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"time"

	"github.com/kballard/go-shellquote"
)

// EnvReviewInProgress is set in the reviewer's environment so that hooks
// the reviewer itself triggers can tell they are nested inside a review.
const EnvReviewInProgress = "PUSHGATE_REVIEW"

// maxStderrTail bounds the stderr excerpt quoted in errors.
const maxStderrTail = 512

// CommandConfig configures a subprocess-backed reviewer.
type CommandConfig struct {
	// Command is the reviewer command line, split with POSIX shell
	// quoting rules. The prompt is written to its stdin and the verdict
	// read from its stdout.
	Command string

	// WorkDir is the directory the reviewer runs in, normally the
	// repository work tree so it can read surrounding code.
	WorkDir string

	// Timeout is the maximum time for one review. Zero means no limit
	// beyond the caller's context.
	Timeout time.Duration
}

// CommandReviewer runs an external CLI as the reviewer.
type CommandReviewer struct {
	cfg  *CommandConfig
	argv []string
}

// NewCommandReviewer parses the command line in cfg.
func NewCommandReviewer(cfg *CommandConfig) (*CommandReviewer, error) {
	argv, err := shellquote.Split(cfg.Command)
	if err != nil {
		return nil, fmt.Errorf("parse reviewer command %q: %w",
			cfg.Command, err)
	}
	if len(argv) == 0 {
		return nil, fmt.Errorf("reviewer command is empty")
	}

	return &CommandReviewer{cfg: cfg, argv: argv}, nil
}

// Review runs the reviewer once. Any failure to obtain output is reported
// as ErrReviewerUnavailable; output that cannot be parsed yields an
// Unparsed critical verdict.
//
// NOTE: this is part of the Reviewer interface.
func (c *CommandReviewer) Review(ctx context.Context,
	req Request) (*Verdict, error) {

	if c.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.cfg.Timeout)
		defer cancel()
	}

	cmd := exec.CommandContext(ctx, c.argv[0], c.argv[1:]...)
	cmd.Dir = c.cfg.WorkDir
	cmd.Env = append(os.Environ(), EnvReviewInProgress+"=1")
	cmd.Stdin = strings.NewReader(BuildPrompt(req))

	// Reviewers may leave children holding the pipes; don't wait on
	// them forever once the reviewer itself is gone.
	cmd.WaitDelay = 5 * time.Second

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	log.DebugS(ctx, "Running reviewer",
		"argv", c.argv,
		"files", len(req.Files),
		"patch_bytes", len(req.Patch),
	)

	start := time.Now()
	err := cmd.Run()
	elapsed := time.Since(start)

	var exitErr *exec.ExitError
	switch {
	case errors.Is(ctx.Err(), context.DeadlineExceeded):
		return nil, fmt.Errorf("%w: %s timed out after %v",
			ErrReviewerUnavailable, c.argv[0],
			elapsed.Round(time.Millisecond))

	case ctx.Err() != nil:
		return nil, fmt.Errorf("%w: %v", ErrReviewerUnavailable,
			ctx.Err())

	case errors.Is(err, exec.ErrNotFound):
		return nil, fmt.Errorf("%w: %s not found in PATH",
			ErrReviewerUnavailable, c.argv[0])

	case errors.As(err, &exitErr):
		return nil, fmt.Errorf("%w: %s exited with status %d: %s",
			ErrReviewerUnavailable, c.argv[0], exitErr.ExitCode(),
			stderrTail(stderr.String()))

	case err != nil:
		return nil, fmt.Errorf("%w: %v", ErrReviewerUnavailable, err)
	}

	log.DebugS(ctx, "Reviewer finished",
		"elapsed", elapsed,
		"stdout_bytes", stdout.Len(),
	)

	return ParseVerdictOrCritical(stdout.String()), nil
}

// stderrTail returns the last part of a reviewer's stderr.
func stderrTail(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return "no stderr output"
	}
	if len(s) > maxStderrTail {
		s = "..." + cutSuffix(s, maxStderrTail)
	}

	return s
}

var _ Reviewer = (*CommandReviewer)(nil)

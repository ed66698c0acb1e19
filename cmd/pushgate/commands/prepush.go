package commands

import (
	"fmt"
	"io"
	"os"

	"github.com/mattn/go-isatty"
	"github.com/roasbeef/pushgate/internal/gate"
	"github.com/roasbeef/pushgate/internal/gitdiff"
	"github.com/roasbeef/pushgate/internal/review"
	"github.com/spf13/cobra"
)

var prePushCmd = &cobra.Command{
	Use:   "pre-push <remote> [url]",
	Short: "Review a push (git pre-push hook entry point)",
	Long: `Reviews the commits git is about to push and decides whether the push
may proceed. Git invokes this through the installed pre-push hook with the
remote name and URL as arguments and the list of refs being pushed on stdin.

Exit status 0 allows the push. A critical verdict exits 1 when the push is
blocked outright and 2 when the operator declined at the prompt. Problems
in pushgate itself (no repository, unreadable refs, a missing reviewer)
never block a push.`,
	Args: cobra.RangeArgs(1, 2),
	RunE: runPrePush,
}

func init() {
	rootCmd.AddCommand(prePushCmd)
}

// openTTY opens the controlling terminal for the confirmation prompt.
// Git hands the hook its ref list on stdin, so answers must come from
// the terminal itself.
var openTTY = func() (io.ReadWriteCloser, error) {
	tty, err := os.OpenFile("/dev/tty", os.O_RDWR, 0)
	if err != nil {
		return nil, err
	}

	if !isatty.IsTerminal(tty.Fd()) && !isatty.IsCygwinTerminal(tty.Fd()) {
		tty.Close()
		return nil, fmt.Errorf("/dev/tty is not a terminal")
	}

	return tty, nil
}

func runPrePush(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	stderr := cmd.ErrOrStderr()
	remote := args[0]

	// A push made by the reviewer itself must not be reviewed again.
	if os.Getenv(review.EnvReviewInProgress) != "" {
		return nil
	}

	e, err := setup(cmd, true)
	if err != nil {
		fmt.Fprintf(stderr, "pushgate: warning: %v; allowing push\n", err)
		return nil
	}
	defer e.Close()

	runID := newRunID()
	log.InfoS(ctx, "Pre-push hook invoked", "run_id", runID,
		"remote", remote)

	changes := &gitdiff.ChangeSet{}
	if e.cfg.AutoReview {
		updates, err := gitdiff.ParsePushUpdates(cmd.InOrStdin())
		if err == nil {
			changes, err = e.repo.CollectPush(ctx, remote, updates)
		}
		if err != nil {
			log.ErrorS(ctx, "Unable to collect pushed changes", err,
				"run_id", runID)
			fmt.Fprintf(stderr, "pushgate: warning: %v; allowing "+
				"push without review\n", err)

			return nil
		}
	}

	attempt := gate.NewPushAttempt(
		e.cfg, runID, changes.Title, changes.Files, changes.Patch,
	)

	var prompter gate.Prompter
	if attempt.AutoReview && attempt.Interactive {
		tty, err := openTTY()
		if err != nil {
			log.DebugS(ctx, "No terminal, running non-interactively",
				"reason", err)
			attempt.Interactive = false
		} else {
			defer tty.Close()
			prompter = gate.NewLinePrompter(
				tty, tty, e.cfg.PromptTimeout,
			)
		}
	}

	g := gate.New(gate.Config{
		Reviewer: e.newReviewer(cmd),
		Prompter: prompter,
		Out:      stderr,
	})

	decision := g.Evaluate(ctx, attempt)
	if decision.Allow {
		return nil
	}

	return &ExitError{Code: decision.ExitCode()}
}

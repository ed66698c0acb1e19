package commands

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/roasbeef/pushgate/internal/gitdiff"
	"github.com/roasbeef/pushgate/internal/mcp"
	"github.com/spf13/cobra"
)

var reviewCmd = &cobra.Command{
	Use:   "review",
	Short: "Run a review on demand",
	Long: `Runs the same review the pre-push hook runs, for a local range of
commits or a GitHub pull request, and prints the verdict. Nothing is
blocked: these commands only report.`,
}

var reviewRangeCmd = &cobra.Command{
	Use:   "range [base] [head]",
	Short: "Review the changes between two revisions",
	Long: `Reviews head against its merge base with base, like 'git diff
base...head'. Base defaults to the remote's default branch and head to
HEAD.`,
	Args: cobra.MaximumNArgs(2),
	RunE: runReviewRange,
}

var reviewPRCmd = &cobra.Command{
	Use:   "pr <number>",
	Short: "Review a GitHub pull request",
	Long:  `Fetches the pull request diff with the gh CLI and reviews it.`,
	Args:  cobra.ExactArgs(1),
	RunE:  runReviewPR,
}

func init() {
	reviewCmd.AddCommand(reviewRangeCmd)
	reviewCmd.AddCommand(reviewPRCmd)

	rootCmd.AddCommand(reviewCmd)
}

func runReviewRange(cmd *cobra.Command, args []string) error {
	e, err := setup(cmd, true)
	if err != nil {
		return err
	}
	defer e.Close()

	var base, head string
	if len(args) > 0 {
		base = args[0]
	}
	if len(args) > 1 {
		head = args[1]
	}

	if base == "" {
		base, err = e.repo.DefaultBase()
		if err != nil {
			return err
		}
	}
	if head == "" {
		head = "HEAD"
	}

	changes, err := e.repo.DiffRange(cmd.Context(), base, head, true)
	if err != nil {
		return err
	}

	return runManualReview(cmd, e, changes)
}

func runReviewPR(cmd *cobra.Command, args []string) error {
	number, err := strconv.Atoi(args[0])
	if err != nil || number <= 0 {
		return fmt.Errorf("invalid pull request number %q", args[0])
	}

	e, err := setup(cmd, false)
	if err != nil {
		return err
	}
	defer e.Close()

	changes, err := gitdiff.NewPRSource(e.workDir()).Fetch(
		cmd.Context(), number,
	)
	if err != nil {
		return err
	}

	return runManualReview(cmd, e, changes)
}

// runManualReview reviews a change set and prints the outcome. The file
// limit and auto_review setting only govern the hook, not explicit
// requests.
func runManualReview(cmd *cobra.Command, e *env,
	changes *gitdiff.ChangeSet) error {

	result, err := mcp.Review(cmd.Context(), e.newReviewer(cmd), changes)
	if err != nil {
		return err
	}

	if outputFormat == "json" {
		return outputJSON(cmd.OutOrStdout(), result)
	}

	printResult(cmd.OutOrStdout(), result)

	return nil
}

// printResult writes a human-readable verdict.
func printResult(w io.Writer, r *mcp.ReviewResult) {
	fmt.Fprintf(w, "%s (%d file(s))\n", r.Title, len(r.Files))
	fmt.Fprintln(w, strings.Repeat("-", 60))
	fmt.Fprintf(w, "Severity: %s\n", r.Severity)
	if r.Unparsed {
		fmt.Fprintln(w, "(reviewer output could not be parsed)")
	}
	if r.Summary != "" {
		fmt.Fprintf(w, "\n%s\n", strings.TrimSpace(r.Summary))
	}

	if len(r.Issues) > 0 {
		fmt.Fprintln(w)
	}
	for _, issue := range r.Issues {
		loc := issue.File
		if issue.Line > 0 {
			loc = fmt.Sprintf("%s:%d", issue.File, issue.Line)
		}
		if loc != "" {
			loc += ": "
		}

		fmt.Fprintf(w, "  [%s] %s%s\n", issue.Severity, loc, issue.Title)
	}
}

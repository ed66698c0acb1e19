package commands

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

var (
	// repoPath is a path inside the repository to operate on.
	repoPath string

	// configPath overrides the user-level config file.
	configPath string

	// logLevel overrides the configured console log level.
	logLevel string

	// logDir is where the rotating log file is written. Empty disables
	// file logging.
	logDir string

	// outputFormat controls output format (text, json).
	outputFormat string
)

// rootCmd is the base command for the CLI.
var rootCmd = &cobra.Command{
	Use:   "pushgate",
	Short: "Pre-push code review gate",
	Long: `pushgate runs an automated code review before a git push leaves the
machine and decides whether the push may proceed.

Install it into a repository with 'pushgate hooks install'. Git then calls
'pushgate pre-push' on every push. Reviews can also be run by hand with
'pushgate review range' or 'pushgate review pr', or by an agent through
'pushgate mcp'.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		switch outputFormat {
		case "text", "json":
			return nil
		default:
			return fmt.Errorf("unknown --format %q (want text or "+
				"json)", outputFormat)
		}
	},
}

// ExitError carries a process exit code out of a command. It has no
// message: the command already told the operator what happened.
type ExitError struct {
	Code int
}

func (e *ExitError) Error() string {
	return fmt.Sprintf("exit status %d", e.Code)
}

// ExecuteContext runs the CLI. Commands see ctx through cmd.Context().
func ExecuteContext(ctx context.Context) error {
	return rootCmd.ExecuteContext(ctx)
}

func init() {
	// Global flags.
	rootCmd.PersistentFlags().StringVar(
		&repoPath, "repo", ".",
		"Path inside the git repository to operate on",
	)
	rootCmd.PersistentFlags().StringVar(
		&configPath, "config", "",
		"User config file (default: $XDG_CONFIG_HOME/pushgate/config.yaml)",
	)
	rootCmd.PersistentFlags().StringVar(
		&logLevel, "loglevel", "",
		"Console log level: trace, debug, info, warn, error, off "+
			"(default: log_level from config)",
	)
	rootCmd.PersistentFlags().StringVar(
		&logDir, "logdir", defaultLogDir(),
		"Directory for the rotating log file; empty disables it",
	)
	rootCmd.PersistentFlags().StringVar(
		&outputFormat, "format", "text",
		"Output format: text, json",
	)
}

package commands

import (
	"encoding/json"
	"fmt"
	"io"
	"path/filepath"

	"github.com/adrg/xdg"
	"github.com/google/uuid"
	"github.com/roasbeef/pushgate/internal/build"
	"github.com/roasbeef/pushgate/internal/config"
	"github.com/roasbeef/pushgate/internal/gate"
	"github.com/roasbeef/pushgate/internal/gitdiff"
	"github.com/roasbeef/pushgate/internal/hooks"
	"github.com/roasbeef/pushgate/internal/mcp"
	"github.com/roasbeef/pushgate/internal/review"
	"github.com/spf13/cobra"
)

// defaultLogDir returns $XDG_STATE_HOME/pushgate/logs.
func defaultLogDir() string {
	return filepath.Join(xdg.StateHome, "pushgate", "logs")
}

// env is the state shared by commands that touch a repository.
type env struct {
	cfg  config.Config
	repo *gitdiff.Repo
	logs *build.LogManager

	// warnings are config sources that were present but unusable.
	warnings []error
}

// Close flushes the log file.
func (e *env) Close() {
	if e.logs != nil {
		e.logs.Close()
	}
}

// workDir is where subprocesses run: the work tree when known.
func (e *env) workDir() string {
	if e.repo != nil && e.repo.WorkTree() != "" {
		return e.repo.WorkTree()
	}

	return repoPath
}

// setup opens the repository, resolves the configuration and starts
// logging. Without needRepo a missing repository is tolerated and only
// the user-level config applies.
func setup(cmd *cobra.Command, needRepo bool) (*env, error) {
	e := &env{}

	repo, err := gitdiff.Open(repoPath)
	switch {
	case err == nil:
		e.repo = repo

	case needRepo:
		return nil, err
	}

	var workTree string
	if e.repo != nil {
		workTree = e.repo.WorkTree()
	}

	loader := config.NewLoader(workTree)
	if configPath != "" {
		loader.UserPath = configPath
	}
	e.cfg, e.warnings = loader.Load()

	level := e.cfg.LogLevel
	if cmd.Flags().Changed("loglevel") {
		level = logLevel
	}

	if _, err := build.ParseLogLevel(level); err != nil {
		e.warnings = append(e.warnings, fmt.Errorf("%w; using %q",
			err, build.DefaultLogLevel))
		level = build.DefaultLogLevel
	}

	e.logs, err = setupLogging(cmd.ErrOrStderr(), level, logDir)
	if err != nil && logDir != "" {
		e.warnings = append(e.warnings, fmt.Errorf("log file "+
			"disabled: %w", err))
		e.logs, err = setupLogging(cmd.ErrOrStderr(), level, "")
	}
	if err != nil {
		return nil, err
	}

	for _, w := range e.warnings {
		fmt.Fprintf(cmd.ErrOrStderr(), "pushgate: warning: %v\n", w)
	}

	log.DebugS(cmd.Context(), "Environment ready",
		"work_tree", workTree,
		"auto_review", e.cfg.AutoReview,
		"interactive", e.cfg.Interactive,
		"max_files", e.cfg.MaxFiles)

	return e, nil
}

// setupLogging creates the log streams and hands a subsystem logger to
// every package.
func setupLogging(console io.Writer, level,
	dir string) (*build.LogManager, error) {

	var rotator *build.LogRotatorConfig
	if dir != "" {
		rotator = build.DefaultLogRotatorConfig()
		rotator.LogDir = dir
	}

	mgr, err := build.NewLogManager(&build.LogConfig{
		Console: console,
		Level:   level,
		Rotator: rotator,
	})
	if err != nil {
		return nil, err
	}

	log = mgr.SubLogger(Subsystem)
	config.UseLogger(mgr.SubLogger(config.Subsystem))
	gate.UseLogger(mgr.SubLogger(gate.Subsystem))
	review.UseLogger(mgr.SubLogger(review.Subsystem))
	gitdiff.UseLogger(mgr.SubLogger(gitdiff.Subsystem))
	hooks.UseLogger(mgr.SubLogger(hooks.Subsystem))
	mcp.UseLogger(mgr.SubLogger(mcp.Subsystem))

	return mgr, nil
}

// newReviewer builds the configured reviewer. A reviewer that can't be
// built is reported and left nil, which the gate treats as unavailable.
func (e *env) newReviewer(cmd *cobra.Command) review.Reviewer {
	r, err := review.NewCommandReviewer(&review.CommandConfig{
		Command: e.cfg.ReviewerCommand,
		WorkDir: e.workDir(),
		Timeout: e.cfg.ReviewTimeout,
	})
	if err != nil {
		log.WarnS(cmd.Context(), "Reviewer misconfigured", err)
		return nil
	}

	return r
}

// newRunID returns a time-ordered id correlating one invocation's log
// lines.
func newRunID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.New().String()
	}

	return id.String()
}

// outputJSON writes data as indented JSON.
func outputJSON(w io.Writer, v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	fmt.Fprintln(w, string(data))

	return nil
}

package gitdiff

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
)

// ErrGHUnavailable is returned when the GitHub CLI is missing or fails.
var ErrGHUnavailable = errors.New("gh unavailable")

// CommandRunner runs name with args in dir and returns stdout.
type CommandRunner func(ctx context.Context, dir, name string,
	args ...string) ([]byte, error)

// PRSource fetches pull request diffs through the GitHub CLI.
type PRSource struct {
	// WorkDir is the repository the gh commands run in.
	WorkDir string

	// Run executes gh. Defaults to running the real binary.
	Run CommandRunner
}

// NewPRSource returns a source that runs gh in workDir.
func NewPRSource(workDir string) *PRSource {
	return &PRSource{WorkDir: workDir, Run: execRunner}
}

// Fetch returns the changed files and patch of pull request number.
func (p *PRSource) Fetch(ctx context.Context, number int) (*ChangeSet, error) {
	if number <= 0 {
		return nil, fmt.Errorf("invalid pull request number %d", number)
	}

	run := p.Run
	if run == nil {
		run = execRunner
	}
	num := strconv.Itoa(number)

	names, err := run(ctx, p.WorkDir, "gh", "pr", "diff", num, "--name-only")
	if err != nil {
		return nil, err
	}
	patch, err := run(ctx, p.WorkDir, "gh", "pr", "diff", num,
		"--color", "never")
	if err != nil {
		return nil, err
	}

	cs := &ChangeSet{
		Title: "PR #" + num,
		Patch: string(patch),
	}
	seen := make(map[string]bool)
	for _, line := range strings.Split(string(names), "\n") {
		name := strings.TrimSpace(line)
		if name == "" || seen[name] {
			continue
		}
		seen[name] = true
		cs.Files = append(cs.Files, name)
	}

	log.Debugf("PR #%d: %d file(s), %d byte patch", number, len(cs.Files),
		len(cs.Patch))

	return cs, nil
}

// execRunner runs a real process, folding failures into ErrGHUnavailable
// with the tail of stderr attached.
func execRunner(ctx context.Context, dir, name string,
	args ...string) ([]byte, error) {

	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Dir = dir

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		msg := strings.TrimSpace(stderr.String())
		if msg == "" {
			msg = err.Error()
		}

		return nil, fmt.Errorf("%w: %s %s: %s", ErrGHUnavailable, name,
			strings.Join(args, " "), msg)
	}

	return stdout.Bytes(), nil
}

// Package hooks installs and removes the pushgate pre-push hook in a git
// repository, keeping any hook that was already there.
package hooks

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

const (
	// HookName is the git hook pushgate installs.
	HookName = "pre-push"

	// BackupName is where a pre-existing foreign hook is kept. The
	// installed script runs it before reviewing.
	BackupName = "pre-push.local"
)

var (
	// ErrForeignHook is returned when removing a hook pushgate didn't
	// write.
	ErrForeignHook = errors.New("pre-push hook is not managed by pushgate")

	// ErrBackupExists is returned when a foreign hook would overwrite an
	// earlier backup.
	ErrBackupExists = errors.New("pre-push.local already exists")
)

// State describes what is installed at .git/hooks/pre-push.
type State string

const (
	StateAbsent    State = "absent"
	StateInstalled State = "installed"
	StateOutdated  State = "outdated"
	StateForeign   State = "foreign"
)

// Status is the result of inspecting a repository's hooks.
type Status struct {
	State     State  `json:"state"`
	Path      string `json:"path"`
	HasBackup bool   `json:"has_backup"`
}

// HooksDir returns the hooks directory of a git dir.
func HooksDir(gitDir string) string {
	return filepath.Join(gitDir, "hooks")
}

// Inspect reports the hook state of gitDir.
func Inspect(gitDir string) (*Status, error) {
	dir := HooksDir(gitDir)
	status := &Status{
		State: StateAbsent,
		Path:  filepath.Join(dir, HookName),
	}

	if _, err := os.Stat(filepath.Join(dir, BackupName)); err == nil {
		status.HasBackup = true
	}

	content, err := os.ReadFile(status.Path)
	switch {
	case errors.Is(err, os.ErrNotExist):
		return status, nil

	case err != nil:
		return nil, fmt.Errorf("read hook: %w", err)

	case string(content) == PrePushScript:
		status.State = StateInstalled

	case isManaged(string(content)):
		status.State = StateOutdated

	default:
		status.State = StateForeign
	}

	return status, nil
}

// Install writes the pushgate pre-push hook. A foreign hook is moved to
// pre-push.local first; if a backup already exists, force replaces it.
// Reinstalling over our own hook refreshes it in place.
func Install(gitDir string, force bool) (*Status, error) {
	status, err := Inspect(gitDir)
	if err != nil {
		return nil, err
	}

	dir := HooksDir(gitDir)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create hooks dir: %w", err)
	}

	if status.State == StateForeign {
		if status.HasBackup && !force {
			return nil, fmt.Errorf("%w in %s; rerun with --force to "+
				"replace it", ErrBackupExists, dir)
		}

		backup := filepath.Join(dir, BackupName)
		if err := os.Rename(status.Path, backup); err != nil {
			return nil, fmt.Errorf("back up existing hook: %w", err)
		}
		if err := os.Chmod(backup, 0o755); err != nil {
			return nil, fmt.Errorf("chmod backup: %w", err)
		}

		log.Infof("Moved existing pre-push hook to %s", backup)
	}

	if err := writeExecutable(status.Path, PrePushScript); err != nil {
		return nil, err
	}

	log.Infof("Installed pre-push hook at %s", status.Path)

	return Inspect(gitDir)
}

// Uninstall removes the pushgate hook and restores a backed up hook. It
// refuses to touch a hook pushgate didn't write.
func Uninstall(gitDir string) (*Status, error) {
	status, err := Inspect(gitDir)
	if err != nil {
		return nil, err
	}

	switch status.State {
	case StateAbsent:
		return status, nil

	case StateForeign:
		return nil, fmt.Errorf("%w: %s", ErrForeignHook, status.Path)
	}

	if err := os.Remove(status.Path); err != nil {
		return nil, fmt.Errorf("remove hook: %w", err)
	}
	log.Infof("Removed pre-push hook %s", status.Path)

	if status.HasBackup {
		backup := filepath.Join(HooksDir(gitDir), BackupName)
		if err := os.Rename(backup, status.Path); err != nil {
			return nil, fmt.Errorf("restore backup: %w", err)
		}
		log.Infof("Restored previous pre-push hook from %s", backup)
	}

	return Inspect(gitDir)
}

// writeExecutable replaces path with content via a temp file and rename.
func writeExecutable(path, content string) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), ".pre-push-*")
	if err != nil {
		return fmt.Errorf("create temp hook: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.WriteString(content); err != nil {
		tmp.Close()
		return fmt.Errorf("write hook: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("write hook: %w", err)
	}
	if err := os.Chmod(tmp.Name(), 0o755); err != nil {
		return fmt.Errorf("chmod hook: %w", err)
	}

	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("install hook: %w", err)
	}

	return nil
}

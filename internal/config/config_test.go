package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// writeFile writes a config fixture into dir.
func writeFile(t *testing.T, dir, name, body string) string {
	t.Helper()

	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))

	return path
}

// noEnv is a LookupEnv that never finds anything.
func noEnv(string) (string, bool) {
	return "", false
}

// TestLoadMissingFilesUsesDefaults verifies absent files fall back to the
// documented defaults without warnings.
func TestLoadMissingFilesUsesDefaults(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	l := &Loader{
		UserPath:  filepath.Join(dir, "nope.yaml"),
		RepoPath:  filepath.Join(dir, RepoFileName),
		LookupEnv: noEnv,
	}

	cfg, warnings := l.Load()
	require.Empty(t, warnings)
	require.True(t, cfg.AutoReview)
	require.True(t, cfg.Interactive)
	require.Equal(t, 20, cfg.MaxFiles)
	require.Equal(t, DefaultReviewerCommand, cfg.ReviewerCommand)
}

// TestLoadLayering verifies repo config overrides user config, and the
// environment overrides both.
func TestLoadLayering(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	user := writeFile(t, dir, "user.yaml", `
auto_review: false
max_files: 50
reviewer_command: "codex review"
`)
	repo := writeFile(t, dir, RepoFileName, `
auto_review: true
interactive: false
review_timeout: 90s
some_future_key: ignored
`)

	env := map[string]string{EnvMaxFiles: "7"}
	l := &Loader{
		UserPath: user,
		RepoPath: repo,
		LookupEnv: func(k string) (string, bool) {
			v, ok := env[k]
			return v, ok
		},
	}

	cfg, warnings := l.Load()
	require.Empty(t, warnings)
	require.True(t, cfg.AutoReview)
	require.False(t, cfg.Interactive)
	require.Equal(t, 7, cfg.MaxFiles)
	require.Equal(t, "codex review", cfg.ReviewerCommand)
	require.Equal(t, 90*time.Second, cfg.ReviewTimeout)
}

// TestLoadMalformedFileIsSkipped verifies a broken file produces a warning
// and leaves earlier layers intact.
func TestLoadMalformedFileIsSkipped(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	user := writeFile(t, dir, "user.yaml", "max_files: 3\n")
	repo := writeFile(t, dir, RepoFileName, "auto_review: [not, a, bool\n")

	l := &Loader{UserPath: user, RepoPath: repo, LookupEnv: noEnv}

	cfg, warnings := l.Load()
	require.Len(t, warnings, 1)
	require.ErrorIs(t, warnings[0], ErrMalformed)
	require.Equal(t, 3, cfg.MaxFiles)
	require.True(t, cfg.AutoReview)
}

// TestLoadBadValues verifies per-key validation problems only drop the key.
func TestLoadBadValues(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	repo := writeFile(t, dir, RepoFileName, `
review_timeout: soon
prompt_timeout: 30s
max_files: -4
`)

	env := map[string]string{EnvInteractive: "maybe"}
	l := &Loader{
		RepoPath: repo,
		LookupEnv: func(k string) (string, bool) {
			v, ok := env[k]
			return v, ok
		},
	}

	cfg, warnings := l.Load()
	require.Len(t, warnings, 2)
	require.Equal(t, DefaultReviewTimeout, cfg.ReviewTimeout)
	require.Equal(t, 30*time.Second, cfg.PromptTimeout)
	require.Equal(t, 0, cfg.MaxFiles)
	require.True(t, cfg.Interactive)
}

// TestWriteFileRoundTrip verifies the shipped config disables review and
// loads back unchanged.
func TestWriteFileRoundTrip(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), RepoFileName)
	require.NoError(t, WriteFile(path, Shipped(), false))

	err := WriteFile(path, Shipped(), false)
	require.ErrorIs(t, err, ErrExists)

	l := &Loader{RepoPath: path, LookupEnv: noEnv}
	cfg, warnings := l.Load()
	require.Empty(t, warnings)
	require.Equal(t, Shipped(), cfg)
}

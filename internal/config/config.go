// Package config loads the gate configuration. Values are layered from
// built-in defaults, the user's XDG config file, the repository's
// .pushgate.yaml and finally PUSHGATE_* environment variables. Missing or
// malformed sources never fail the load: the gate must keep working with
// defaults when its configuration is broken.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/adrg/xdg"
	"gopkg.in/yaml.v3"
)

const (
	// RepoFileName is the per-repository config file, read from the root
	// of the work tree.
	RepoFileName = ".pushgate.yaml"

	// DefaultMaxFiles bounds review cost: pushes touching more files
	// skip review.
	DefaultMaxFiles = 20

	// DefaultReviewerCommand is the reviewer invoked when none is set.
	// The prompt is written to its stdin.
	DefaultReviewerCommand = "claude -p"

	// DefaultReviewTimeout caps a single reviewer invocation.
	DefaultReviewTimeout = 5 * time.Minute
)

// Environment variables that override file values.
const (
	EnvAutoReview  = "PUSHGATE_AUTO_REVIEW"
	EnvInteractive = "PUSHGATE_INTERACTIVE"
	EnvMaxFiles    = "PUSHGATE_MAX_FILES"
)

// Config is the resolved, immutable configuration for one invocation. It is
// passed by value; nothing in the process holds a global copy.
type Config struct {
	// AutoReview enables the reviewer. When false every push is allowed
	// without review.
	AutoReview bool

	// Interactive asks the operator before blocking on a critical
	// verdict. When false a critical verdict blocks outright.
	Interactive bool

	// MaxFiles skips review when a push changes more files than this.
	MaxFiles int

	// ReviewerCommand is the command line of the external reviewer.
	ReviewerCommand string

	// ReviewTimeout caps one reviewer invocation.
	ReviewTimeout time.Duration

	// PromptTimeout caps the wait for the operator's answer. Zero waits
	// indefinitely.
	PromptTimeout time.Duration

	// LogLevel is the console log level.
	LogLevel string
}

// Default returns the documented defaults.
func Default() Config {
	return Config{
		AutoReview:      true,
		Interactive:     true,
		MaxFiles:        DefaultMaxFiles,
		ReviewerCommand: DefaultReviewerCommand,
		ReviewTimeout:   DefaultReviewTimeout,
		LogLevel:        "info",
	}
}

// fileConfig mirrors the YAML document. Pointers distinguish an absent key
// from its zero value so a layer only overrides what it sets.
type fileConfig struct {
	AutoReview      *bool   `yaml:"auto_review"`
	Interactive     *bool   `yaml:"interactive"`
	MaxFiles        *int    `yaml:"max_files"`
	ReviewerCommand *string `yaml:"reviewer_command"`
	ReviewTimeout   *string `yaml:"review_timeout"`
	PromptTimeout   *string `yaml:"prompt_timeout"`
	LogLevel        *string `yaml:"log_level"`
}

// ErrMalformed marks a config source that could not be decoded. It is only
// ever reported as a warning.
var ErrMalformed = errors.New("malformed configuration")

// Loader resolves a Config from its layered sources.
type Loader struct {
	// UserPath is the user-level config file. Empty skips the layer.
	UserPath string

	// RepoPath is the repository-level config file. Empty skips the
	// layer.
	RepoPath string

	// LookupEnv reads environment overrides. Nil skips the layer.
	LookupEnv func(string) (string, bool)
}

// DefaultUserPath returns $XDG_CONFIG_HOME/pushgate/config.yaml.
func DefaultUserPath() string {
	return filepath.Join(xdg.ConfigHome, "pushgate", "config.yaml")
}

// NewLoader returns a loader for the given work tree using the standard
// user path and the process environment.
func NewLoader(workTree string) *Loader {
	l := &Loader{
		UserPath:  DefaultUserPath(),
		LookupEnv: os.LookupEnv,
	}
	if workTree != "" {
		l.RepoPath = filepath.Join(workTree, RepoFileName)
	}

	return l
}

// Load resolves the configuration. The returned warnings describe sources
// that were present but unusable; they never prevent a result.
func (l *Loader) Load() (Config, []error) {
	cfg := Default()

	var warnings []error
	for _, path := range []string{l.UserPath, l.RepoPath} {
		if path == "" {
			continue
		}

		fc, err := readFile(path)
		switch {
		case errors.Is(err, os.ErrNotExist):
			log.Debugf("No config at %s", path)
			continue

		case err != nil:
			log.Warnf("Ignoring config %s: %v", path, err)
			warnings = append(warnings, err)
			continue
		}

		log.Debugf("Applying config from %s", path)
		warnings = append(warnings, fc.apply(&cfg, path)...)
	}

	if l.LookupEnv != nil {
		warnings = append(warnings, applyEnv(&cfg, l.LookupEnv)...)
	}

	if cfg.MaxFiles < 0 {
		cfg.MaxFiles = 0
	}

	return cfg, warnings
}

// readFile decodes a config file. Unknown keys are ignored.
func readFile(path string) (*fileConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var fc fileConfig
	if err := yaml.Unmarshal(data, &fc); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrMalformed, path, err)
	}

	return &fc, nil
}

// apply overlays the set keys of fc onto cfg. A bad duration only drops
// that key.
func (fc *fileConfig) apply(cfg *Config, path string) []error {
	var warnings []error

	if fc.AutoReview != nil {
		cfg.AutoReview = *fc.AutoReview
	}
	if fc.Interactive != nil {
		cfg.Interactive = *fc.Interactive
	}
	if fc.MaxFiles != nil {
		cfg.MaxFiles = *fc.MaxFiles
	}
	if fc.ReviewerCommand != nil &&
		strings.TrimSpace(*fc.ReviewerCommand) != "" {

		cfg.ReviewerCommand = *fc.ReviewerCommand
	}
	if fc.LogLevel != nil && *fc.LogLevel != "" {
		cfg.LogLevel = *fc.LogLevel
	}

	durations := []struct {
		key string
		val *string
		dst *time.Duration
	}{
		{"review_timeout", fc.ReviewTimeout, &cfg.ReviewTimeout},
		{"prompt_timeout", fc.PromptTimeout, &cfg.PromptTimeout},
	}
	for _, d := range durations {
		if d.val == nil {
			continue
		}

		parsed, err := time.ParseDuration(*d.val)
		if err != nil || parsed < 0 {
			warnings = append(warnings, fmt.Errorf(
				"%w: %s: %s: invalid duration %q", ErrMalformed,
				path, d.key, *d.val,
			))
			continue
		}
		*d.dst = parsed
	}

	return warnings
}

// applyEnv overlays the PUSHGATE_* variables.
func applyEnv(cfg *Config, lookup func(string) (string, bool)) []error {
	var warnings []error

	bools := []struct {
		key string
		dst *bool
	}{
		{EnvAutoReview, &cfg.AutoReview},
		{EnvInteractive, &cfg.Interactive},
	}
	for _, b := range bools {
		raw, ok := lookup(b.key)
		if !ok || raw == "" {
			continue
		}

		v, err := strconv.ParseBool(raw)
		if err != nil {
			warnings = append(warnings, fmt.Errorf(
				"%w: %s=%q", ErrMalformed, b.key, raw,
			))
			continue
		}
		*b.dst = v
	}

	if raw, ok := lookup(EnvMaxFiles); ok && raw != "" {
		v, err := strconv.Atoi(raw)
		if err != nil {
			warnings = append(warnings, fmt.Errorf(
				"%w: %s=%q", ErrMalformed, EnvMaxFiles, raw,
			))
		} else {
			cfg.MaxFiles = v
		}
	}

	return warnings
}

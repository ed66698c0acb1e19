package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// ErrExists is returned by WriteFile when the target exists and overwrite
// was not requested.
var ErrExists = errors.New("config file already exists")

// document is the on-disk form written by WriteFile and printed by
// `config show`.
type document struct {
	AutoReview      bool   `yaml:"auto_review"`
	Interactive     bool   `yaml:"interactive"`
	MaxFiles        int    `yaml:"max_files"`
	ReviewerCommand string `yaml:"reviewer_command"`
	ReviewTimeout   string `yaml:"review_timeout"`
	PromptTimeout   string `yaml:"prompt_timeout,omitempty"`
	LogLevel        string `yaml:"log_level"`
}

const fileHeader = `# pushgate configuration.
#
# auto_review: run the external reviewer on every push.
# interactive: ask before blocking on a critical verdict.
# max_files:   skip review when a push changes more files than this.
`

// Marshal renders cfg as a YAML document.
func Marshal(cfg Config) ([]byte, error) {
	doc := document{
		AutoReview:      cfg.AutoReview,
		Interactive:     cfg.Interactive,
		MaxFiles:        cfg.MaxFiles,
		ReviewerCommand: cfg.ReviewerCommand,
		ReviewTimeout:   cfg.ReviewTimeout.String(),
		LogLevel:        cfg.LogLevel,
	}
	if cfg.PromptTimeout > 0 {
		doc.PromptTimeout = cfg.PromptTimeout.String()
	}

	return yaml.Marshal(&doc)
}

// Shipped returns the configuration written by `pushgate init`. Review
// ships disabled so adopting the hook never changes push behaviour until a
// team opts in.
func Shipped() Config {
	cfg := Default()
	cfg.AutoReview = false

	return cfg
}

// WriteFile writes cfg to path with an explanatory header.
func WriteFile(path string, cfg Config, overwrite bool) error {
	if !overwrite {
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("%w: %s", ErrExists, path)
		}
	}

	body, err := Marshal(cfg)
	if err != nil {
		return fmt.Errorf("encode config: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}

	data := append([]byte(fileHeader), body...)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write config: %w", err)
	}

	log.Infof("Wrote config to %s", path)

	return nil
}

package commands

import (
	"fmt"

	"github.com/roasbeef/pushgate/internal/config"
	"github.com/spf13/cobra"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Inspect the resolved configuration",
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the configuration the hook would use",
	Long: `Prints the configuration after layering defaults, the user config
file, the repository's .pushgate.yaml and PUSHGATE_* environment
variables. Sources that could not be used are reported as warnings.`,
	Args: cobra.NoArgs,
	RunE: runConfigShow,
}

func init() {
	configCmd.AddCommand(configShowCmd)
	rootCmd.AddCommand(configCmd)
}

// configView is the JSON form of a resolved config.
type configView struct {
	AutoReview      bool     `json:"auto_review"`
	Interactive     bool     `json:"interactive"`
	MaxFiles        int      `json:"max_files"`
	ReviewerCommand string   `json:"reviewer_command"`
	ReviewTimeout   string   `json:"review_timeout"`
	PromptTimeout   string   `json:"prompt_timeout,omitempty"`
	LogLevel        string   `json:"log_level"`
	Warnings        []string `json:"warnings,omitempty"`
}

func runConfigShow(cmd *cobra.Command, args []string) error {
	e, err := setup(cmd, false)
	if err != nil {
		return err
	}
	defer e.Close()

	if outputFormat == "json" {
		view := configView{
			AutoReview:      e.cfg.AutoReview,
			Interactive:     e.cfg.Interactive,
			MaxFiles:        e.cfg.MaxFiles,
			ReviewerCommand: e.cfg.ReviewerCommand,
			ReviewTimeout:   e.cfg.ReviewTimeout.String(),
			LogLevel:        e.cfg.LogLevel,
		}
		if e.cfg.PromptTimeout > 0 {
			view.PromptTimeout = e.cfg.PromptTimeout.String()
		}
		for _, w := range e.warnings {
			view.Warnings = append(view.Warnings, w.Error())
		}

		return outputJSON(cmd.OutOrStdout(), view)
	}

	data, err := config.Marshal(e.cfg)
	if err != nil {
		return err
	}
	fmt.Fprint(cmd.OutOrStdout(), string(data))

	return nil
}

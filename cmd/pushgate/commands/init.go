package commands

import (
	"fmt"
	"path/filepath"

	"github.com/roasbeef/pushgate/internal/config"
	"github.com/spf13/cobra"
)

var (
	initUser  bool
	initForce bool
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a starter config file",
	Long: `Writes a .pushgate.yaml to the root of the repository (or, with
--user, the user-level config file). The written config has auto_review
off so installing pushgate doesn't change how pushes behave until it is
switched on.`,
	Args: cobra.NoArgs,
	RunE: runInit,
}

func init() {
	initCmd.Flags().BoolVar(
		&initUser, "user", false,
		"Write the user-level config instead of the repository's",
	)
	initCmd.Flags().BoolVar(
		&initForce, "force", false,
		"Overwrite an existing config file",
	)

	rootCmd.AddCommand(initCmd)
}

func runInit(cmd *cobra.Command, args []string) error {
	e, err := setup(cmd, !initUser)
	if err != nil {
		return err
	}
	defer e.Close()

	path := config.DefaultUserPath()
	switch {
	case initUser && configPath != "":
		path = configPath

	case !initUser:
		if e.repo.WorkTree() == "" {
			return fmt.Errorf("repository has no work tree")
		}
		path = filepath.Join(e.repo.WorkTree(), config.RepoFileName)
	}

	if err := config.WriteFile(path, config.Shipped(), initForce); err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s (auto_review: false)\n", path)

	return nil
}

package commands

import (
	"fmt"

	"github.com/roasbeef/pushgate/internal/hooks"
	"github.com/spf13/cobra"
)

var hooksCmd = &cobra.Command{
	Use:   "hooks",
	Short: "Manage the git pre-push hook",
	Long: `Manage the pre-push hook that runs pushgate on every push.

An existing pre-push hook is kept as pre-push.local and still runs before
the review. Uninstalling puts it back.`,
}

var hooksForce bool

var hooksInstallCmd = &cobra.Command{
	Use:   "install",
	Short: "Install the pre-push hook into the repository",
	RunE:  runHooksInstall,
}

var hooksUninstallCmd = &cobra.Command{
	Use:   "uninstall",
	Short: "Remove the pre-push hook and restore any previous one",
	RunE:  runHooksUninstall,
}

var hooksStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show whether the pre-push hook is installed",
	RunE:  runHooksStatus,
}

func init() {
	hooksInstallCmd.Flags().BoolVar(
		&hooksForce, "force", false,
		"Replace an existing pre-push.local backup",
	)

	hooksCmd.AddCommand(hooksInstallCmd)
	hooksCmd.AddCommand(hooksUninstallCmd)
	hooksCmd.AddCommand(hooksStatusCmd)

	rootCmd.AddCommand(hooksCmd)
}

// gitDir opens the repository and returns its .git directory.
func gitDir(cmd *cobra.Command) (string, *env, error) {
	e, err := setup(cmd, true)
	if err != nil {
		return "", nil, err
	}

	dir, err := e.repo.GitDir()
	if err != nil {
		e.Close()
		return "", nil, err
	}

	return dir, e, nil
}

func runHooksInstall(cmd *cobra.Command, args []string) error {
	dir, e, err := gitDir(cmd)
	if err != nil {
		return err
	}
	defer e.Close()

	status, err := hooks.Install(dir, hooksForce)
	if err != nil {
		return err
	}

	if outputFormat == "json" {
		return outputJSON(cmd.OutOrStdout(), status)
	}

	w := cmd.OutOrStdout()
	fmt.Fprintf(w, "Installed pre-push hook: %s\n", status.Path)
	if status.HasBackup {
		fmt.Fprintf(w, "Previous hook kept as %s and run first\n",
			hooks.BackupName)
	}
	if !e.cfg.AutoReview {
		fmt.Fprintln(w, "Note: auto_review is off in the current "+
			"config; pushes pass without review until it is enabled")
	}

	return nil
}

func runHooksUninstall(cmd *cobra.Command, args []string) error {
	dir, e, err := gitDir(cmd)
	if err != nil {
		return err
	}
	defer e.Close()

	status, err := hooks.Uninstall(dir)
	if err != nil {
		return err
	}

	if outputFormat == "json" {
		return outputJSON(cmd.OutOrStdout(), status)
	}

	w := cmd.OutOrStdout()
	if status.State == hooks.StateForeign {
		fmt.Fprintf(w, "Restored previous pre-push hook at %s\n",
			status.Path)
	} else {
		fmt.Fprintln(w, "No pushgate pre-push hook installed")
	}

	return nil
}

func runHooksStatus(cmd *cobra.Command, args []string) error {
	dir, e, err := gitDir(cmd)
	if err != nil {
		return err
	}
	defer e.Close()

	status, err := hooks.Inspect(dir)
	if err != nil {
		return err
	}

	if outputFormat == "json" {
		return outputJSON(cmd.OutOrStdout(), status)
	}

	w := cmd.OutOrStdout()
	fmt.Fprintf(w, "Hook:   %s\n", status.Path)
	fmt.Fprintf(w, "State:  %s\n", status.State)
	fmt.Fprintf(w, "Backup: %v\n", status.HasBackup)

	switch status.State {
	case hooks.StateAbsent:
		fmt.Fprintln(w, "\nRun 'pushgate hooks install' to enable.")
	case hooks.StateOutdated:
		fmt.Fprintln(w, "\nRun 'pushgate hooks install' to update.")
	case hooks.StateForeign:
		fmt.Fprintln(w, "\nAnother tool owns the hook; 'pushgate "+
			"hooks install' keeps it as "+hooks.BackupName+".")
	}

	return nil
}

package commands

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/biffhq/biff/internal/config"
)

var uninstallStatuslineCmd = &cobra.Command{
	Use:   "uninstall-statusline",
	Short: "Remove the status-bar script",
	RunE:  runUninstallStatusline,
}

func runUninstallStatusline(cmd *cobra.Command, args []string) error {
	paths := config.GetPaths()
	scriptPath := filepath.Join(paths.Config, statuslineScriptName)

	if err := os.Remove(scriptPath); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove statusline script: %w", err)
	}

	fmt.Fprintln(cmd.OutOrStdout(), "Status-bar script removed.")
	return nil
}

package commands

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/biffhq/biff/internal/config"
)

var uninstallCmd = &cobra.Command{
	Use:   "uninstall",
	Short: "Remove biff's transport registration",
	RunE:  runUninstall,
}

func runUninstall(cmd *cobra.Command, args []string) error {
	paths := config.GetPaths()
	marker := filepath.Join(paths.Config, registrationFileName)

	if err := os.Remove(marker); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove registration marker: %w", err)
	}

	fmt.Fprintln(cmd.OutOrStdout(), "Transport registration removed.")
	return nil
}

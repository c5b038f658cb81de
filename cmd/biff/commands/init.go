package commands

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/pelletier/go-toml/v2"
	"github.com/spf13/cobra"

	"github.com/biffhq/biff/internal/config"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a default .biff/config.toml for this repository",
	Long: `Create .biff/config.toml with an empty team member list and no
relay URL (LocalRelay). Edit the file afterward to add team members or
point [relay] at a cluster bus.`,
	RunE: runInit,
}

func runInit(cmd *cobra.Command, args []string) error {
	dir, err := workDir()
	if err != nil {
		return fmt.Errorf("resolve working directory: %w", err)
	}

	path := config.ProjectConfigPath(dir)
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("%s already exists", path)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("create .biff directory: %w", err)
	}

	data, err := toml.Marshal(config.Config{})
	if err != nil {
		return fmt.Errorf("marshal default config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s\n", path)
	return nil
}

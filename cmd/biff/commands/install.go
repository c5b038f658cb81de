package commands

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/biffhq/biff/internal/config"
)

var installCmd = &cobra.Command{
	Use:   "install",
	Short: "Register biff as a tool-call server with the local assistant transport",
	Long: `Write the transport registration file that tells the assistant's
tool-call client to launch "biff serve" for this repository. The exact
registration format is owned by the transport, not by biff; this writes a
plain pointer file under biff's own config directory that "biff doctor"
and "biff uninstall" both know how to find.`,
	RunE: runInstall,
}

// registrationFileName names the pointer file install/uninstall manage.
const registrationFileName = "transport.registered"

func runInstall(cmd *cobra.Command, args []string) error {
	paths := config.GetPaths()
	if err := paths.EnsurePaths(); err != nil {
		return fmt.Errorf("ensure paths: %w", err)
	}

	binary, err := os.Executable()
	if err != nil {
		return fmt.Errorf("resolve biff binary: %w", err)
	}

	marker := filepath.Join(paths.Config, registrationFileName)
	if err := os.WriteFile(marker, []byte(binary+"\n"), 0644); err != nil {
		return fmt.Errorf("write registration marker: %w", err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Registered %s at %s\n", binary, marker)
	return nil
}

package commands

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/biffhq/biff/internal/config"
)

var installStatuslineCmd = &cobra.Command{
	Use:   "install-statusline",
	Short: "Install the status-bar script that summarizes unread counts",
	Long: `Write a small shell script that aggregates every repository's
{home}/.biff/unread/{repo}.json status file into one line, for embedding in
a shell prompt or editor status bar.`,
	RunE: runInstallStatusline,
}

const statuslineScriptName = "biff-statusline.sh"

// statuslineScript sums every repo's unread count; jq is assumed present,
// matching the rest of the status-bar ecosystem biff plugs into.
const statuslineScript = `#!/bin/sh
# Prints "biff: N unread" across every repository, or nothing if none.
dir="$HOME/.biff/unread"
[ -d "$dir" ] || exit 0
total=0
for f in "$dir"/*.json; do
  [ -f "$f" ] || continue
  n=$(jq -r '.count // 0' "$f" 2>/dev/null) || n=0
  total=$((total + n))
done
[ "$total" -gt 0 ] && echo "biff: $total unread"
`

func runInstallStatusline(cmd *cobra.Command, args []string) error {
	paths := config.GetPaths()
	if err := paths.EnsurePaths(); err != nil {
		return fmt.Errorf("ensure paths: %w", err)
	}
	if err := os.MkdirAll(config.UnreadDir(), 0755); err != nil {
		return fmt.Errorf("ensure unread dir: %w", err)
	}

	scriptPath := filepath.Join(paths.Config, statuslineScriptName)
	if err := os.WriteFile(scriptPath, []byte(statuslineScript), 0755); err != nil {
		return fmt.Errorf("write statusline script: %w", err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Installed status-bar script at %s\n", scriptPath)
	return nil
}

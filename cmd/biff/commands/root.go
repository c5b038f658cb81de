// Package commands provides the CLI commands for biff.
package commands

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/biffhq/biff/internal/logging"
)

var (
	// Version information set at build time.
	Version   = "0.1.0"
	BuildTime = "dev"
)

var (
	printLogs bool
	logLevel  string
	logFile   bool
	serveDir  string
)

var rootCmd = &cobra.Command{
	Use:   "biff",
	Short: "biff - team presence and messaging beside your coding session",
	Long: `biff exposes presence (who, finger, plan), messaging (write,
read_messages), availability (mesg), and session history (last) as tool
calls for a coding assistant sharing this repository with you.

Run 'biff serve' to start the server, or 'biff install' to wire it into
your assistant's tool-call transport.`,
	Version: Version,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		logCfg := logging.Config{
			Level:     logging.ParseLevel(logLevel),
			Output:    os.Stderr,
			Pretty:    printLogs,
			LogToFile: logFile,
			Component: cmd.Name(),
		}
		if !printLogs && !logFile {
			logCfg.Level = logging.FatalLevel
		}
		logging.Init(logCfg)
	},
	Run: func(cmd *cobra.Command, args []string) {
		cmd.Help()
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&printLogs, "print-logs", false, "Print logs to stderr")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "INFO", "Log level (DEBUG|INFO|WARN|ERROR)")
	rootCmd.PersistentFlags().BoolVar(&logFile, "log-file", false, "Write logs to a timestamped file in /tmp")
	rootCmd.PersistentFlags().StringVar(&serveDir, "directory", "", "Repository directory (defaults to the current directory)")

	rootCmd.SetVersionTemplate(fmt.Sprintf("biff %s (%s)\n", Version, BuildTime))

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(installCmd)
	rootCmd.AddCommand(installStatuslineCmd)
	rootCmd.AddCommand(uninstallCmd)
	rootCmd.AddCommand(uninstallStatuslineCmd)
	rootCmd.AddCommand(doctorCmd)
	rootCmd.AddCommand(initCmd)
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

// workDir returns the --directory flag value, or the current directory.
func workDir() (string, error) {
	if serveDir != "" {
		return serveDir, nil
	}
	return os.Getwd()
}

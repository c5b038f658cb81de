package commands

import (
	"context"
	"fmt"
	"time"

	mcpserver "github.com/mark3labs/mcp-go/server"
	"github.com/spf13/cobra"

	"github.com/biffhq/biff/internal/config"
	"github.com/biffhq/biff/internal/event"
	"github.com/biffhq/biff/internal/logging"
	"github.com/biffhq/biff/internal/relay"
	"github.com/biffhq/biff/internal/repo"
	biffserver "github.com/biffhq/biff/internal/server"
	"github.com/biffhq/biff/internal/tool"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the biff MCP server over stdio for this repository",
	Long: `Start biff as a JSON-RPC-over-stdio tool-call server bound to the
repository at --directory (defaults to the current directory). Intended to
be launched by the assistant's tool-call transport, one process per
developer session.`,
	RunE: runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	dir, err := workDir()
	if err != nil {
		return fmt.Errorf("resolve working directory: %w", err)
	}

	info := repo.Resolve(dir)
	repoName := info.Name

	cfg, err := config.LoadForDirectory(dir)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	paths := config.GetPaths()
	if err := paths.EnsurePaths(); err != nil {
		return fmt.Errorf("ensure paths: %w", err)
	}

	bgCtx, cancel := context.WithCancel(context.Background())
	defer cancel()

	r, err := relay.New(bgCtx, cfg.Relay, paths.RelayDataPath())
	if err != nil {
		return fmt.Errorf("connect relay: %w", err)
	}

	mcpServer := mcpserver.NewMCPServer(
		"biff",
		Version,
		mcpserver.WithToolCapabilities(true),
		mcpserver.WithInstructions(tool.Instructions),
	)

	state := &biffserver.State{}
	readMessages := tool.Register(mcpServer, state)

	bus := event.NewBus()
	defer bus.Close()

	group, err := biffserver.Start(bgCtx, state, biffserver.Deps{
		MCPServer:    mcpServer,
		ReadMessages: readMessages,
		Relay:        r,
		Repo:         repoName,
		Bus:          bus,
		Log:          logging.Logger,
	})
	if err != nil {
		return fmt.Errorf("start: %w", err)
	}

	serveErr := make(chan error, 1)
	go func() {
		serveErr <- mcpserver.ServeStdio(mcpServer)
	}()

	err = <-serveErr
	cancel() // stop the awareness poller and (cluster-only) TTL watcher

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if shutdownErr := biffserver.Shutdown(shutdownCtx, state); shutdownErr != nil {
		logging.Warn().Err(shutdownErr).Msg("shutdown failed")
	}
	_ = group.Wait()

	return err
}

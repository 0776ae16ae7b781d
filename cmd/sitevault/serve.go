package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/sitevault/sitevault/internal/config"
	"github.com/sitevault/sitevault/internal/database"
	"github.com/sitevault/sitevault/internal/server"
	"github.com/spf13/cobra"
)

// NewServeCmd creates the serve command.
func NewServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve archived snapshots over HTTP",
		Long: `Serve starts an HTTP server exposing the archive.

The server offers a JSON API for starting archive tasks and browsing
what has been archived, and serves the snapshot files themselves under
/archive/. Archive tasks run in the background; shutting the server
down cancels them.

Endpoints:
  POST   /api/archives           start an archive task
  GET    /api/archives           list archived domains
  GET    /api/archives/{domain}  list a domain's sessions
  GET    /api/tasks              list archive tasks
  GET    /api/tasks/{id}         inspect one task
  DELETE /api/tasks/{id}         cancel a running task
  GET    /archive/...            the snapshot files

Examples:
  # Serve the default archive root on the default address
  sitevault serve

  # Serve a different root on another port
  sitevault serve --root /srv/archives --addr :9090`,
		Args: cobra.NoArgs,
		RunE: runServeCmd,
	}

	cmd.Flags().StringP("addr", "a", config.DefaultAddr,
		"Listen address")
	cmd.Flags().StringP("root", "r", config.DefaultArchiveRoot(),
		"Directory holding the snapshots")
	cmd.Flags().StringP("config", "c", "",
		"Configuration file path (default: .sitevault in current or home directory)")
	cmd.Flags().Bool("no-fetch-log", false,
		"Skip recording fetches in the sqlite log")

	return cmd
}

// runServeCmd executes the serve command.
func runServeCmd(cmd *cobra.Command, _ []string) error {
	cfg := config.NewConfig()

	var err error

	cfg.Addr, err = cmd.Flags().GetString("addr")
	if err != nil {
		return err
	}

	cfg.ArchiveRoot, err = cmd.Flags().GetString("root")
	if err != nil {
		return err
	}

	cfg.ConfigFilePath, err = cmd.Flags().GetString("config")
	if err != nil {
		return err
	}

	// Site overrides apply to server-launched sessions too
	cfg.SiteConfigs, err = loadSiteConfigs(cfg.ConfigFilePath)
	if err != nil {
		return err
	}

	noFetchLog, err := cmd.Flags().GetBool("no-fetch-log")
	if err != nil {
		return err
	}
	if !noFetchLog {
		cfg.LogDBDir = config.XDGDataDir()
	}

	cfg.Verbose = getVerboseFlag(cmd)

	// Set up structured logging
	logger := setupLogger(cfg.Verbose)
	slog.SetDefault(logger)

	// Set up context with signal handling for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle interrupt signals
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigCh
		logger.Info("received shutdown signal, stopping server...")
		cancel()
	}()

	opts := []server.Option{server.WithLogger(logger)}
	if cfg.LogDBDir != "" {
		fetchLog, err := database.Open(cfg.LogDBDir, database.DefaultOptions())
		if err != nil {
			return fmt.Errorf("failed to open fetch log: %w", err)
		}
		defer fetchLog.Close()
		opts = append(opts, server.WithFetchLog(fetchLog))
	}

	srv, err := server.New(cfg, opts...)
	if err != nil {
		return err
	}

	fmt.Printf("Serving archives from %s on %s\n", cfg.ArchiveRoot, cfg.Addr)

	return srv.Run(ctx)
}

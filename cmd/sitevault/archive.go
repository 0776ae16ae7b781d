package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/sitevault/sitevault/internal/config"
	"github.com/sitevault/sitevault/internal/database"
	"github.com/sitevault/sitevault/internal/log"
	"github.com/sitevault/sitevault/internal/report"
	"github.com/sitevault/sitevault/internal/session"
	"github.com/spf13/cobra"
)

// NewArchiveCmd creates the archive command.
func NewArchiveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "archive <url> [url...]",
		Short: "Archive a website as a browsable offline snapshot",
		Long: `Archive crawls a website and saves it as a browsable offline snapshot.

Starting from the given URL, it follows same-domain links breadth-first
up to the page budget, downloads each page's stylesheets, images, and
scripts, and rewrites all references so the snapshot works offline.
Links to pages outside the snapshot point back at the live site.

Each run creates <archive-root>/<domain>/<timestamp>/ holding the page
tree, the downloaded assets, and a _manifest.json describing the session.

Examples:
  # Archive a site with the default ten page budget
  sitevault archive https://example.com

  # Archive several sites in one invocation
  sitevault archive https://example.com https://example.org

  # Raise the page budget and slow the crawl down
  sitevault archive --max-pages 50 --delay 500ms https://example.com

  # Route requests through a SOCKS5 proxy
  sitevault archive --proxy 127.0.0.1:9050 https://example.com

  # Print the summary as JSON
  sitevault archive --json https://example.com

  # Use a custom configuration file
  sitevault archive -c myconfig.yaml https://example.com

Configuration file (.sitevault) example:
  defaults:
    maxPages: 25
  sites:
    example.com:
      cookie: "session_id=abc123"
      headers:
        Authorization: "Bearer token"
      ignorePatterns:
        - "/admin/*"`,
		Args: cobra.ArbitraryArgs,
		RunE: runArchiveCmd,
	}

	// Crawl behavior flags
	cmd.Flags().DurationP("timeout", "t", config.DefaultTimeout,
		"Connection timeout for each request")
	cmd.Flags().IntP("max-pages", "p", config.DefaultMaxPages,
		"Maximum number of pages to archive per site")
	cmd.Flags().DurationP("delay", "d", config.DefaultCrawlDelay,
		"Pause between page fetches")
	cmd.Flags().IntP("workers", "w", config.DefaultAssetWorkers,
		"Concurrent asset downloads per page")
	cmd.Flags().StringP("user-agent", "A", config.DefaultUserAgent,
		"User-Agent header for all requests")
	cmd.Flags().Int64("max-body-size", config.DefaultMaxBodySize,
		"Maximum response body size in bytes")
	cmd.Flags().String("proxy", "",
		"Route requests through a SOCKS5 proxy at the given host:port")

	// Archive location
	cmd.Flags().StringP("root", "r", config.DefaultArchiveRoot(),
		"Directory receiving the snapshots")

	// Configuration file
	cmd.Flags().StringP("config", "c", "",
		"Configuration file path (default: .sitevault in current or home directory)")

	// Summary flags
	cmd.Flags().BoolP("json", "j", false,
		"Output JSON summary (mutually exclusive with --markdown)")
	cmd.Flags().BoolP("markdown", "m", false,
		"Output Markdown summary (mutually exclusive with --json)")
	cmd.Flags().StringP("output", "o", "",
		"Write summary to specified file path (creates directories if needed)")
	cmd.Flags().Bool("no-fetch-log", false,
		"Skip recording fetches in the sqlite log")

	return cmd
}

// runArchiveCmd executes the archive command.
func runArchiveCmd(cmd *cobra.Command, args []string) error {
	// Build config from flags
	cfg, err := buildConfig(cmd, args)
	if err != nil {
		return err
	}

	// Validate configuration
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}

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
		logger.Info("received shutdown signal, cancelling...")
		cancel()
	}()

	return runArchive(ctx, cfg, logger)
}

// getVerboseFlag retrieves the verbose flag from the command or its parent.
func getVerboseFlag(cmd *cobra.Command) bool {
	verbose, err := cmd.Flags().GetBool("verbose")
	if err != nil {
		verbose, err = cmd.Root().PersistentFlags().GetBool("verbose")
		if err != nil {
			return false
		}
	}
	return verbose
}

// buildConfig creates a Config from cobra command flags.
func buildConfig(cmd *cobra.Command, args []string) (*config.Config, error) {
	cfg := config.NewConfig()

	// Get flag values
	var err error

	cfg.Timeout, err = cmd.Flags().GetDuration("timeout")
	if err != nil {
		return nil, err
	}

	cfg.MaxPages, err = cmd.Flags().GetInt("max-pages")
	if err != nil {
		return nil, err
	}

	cfg.CrawlDelay, err = cmd.Flags().GetDuration("delay")
	if err != nil {
		return nil, err
	}

	cfg.AssetWorkers, err = cmd.Flags().GetInt("workers")
	if err != nil {
		return nil, err
	}

	cfg.UserAgent, err = cmd.Flags().GetString("user-agent")
	if err != nil {
		return nil, err
	}

	cfg.MaxBodySize, err = cmd.Flags().GetInt64("max-body-size")
	if err != nil {
		return nil, err
	}

	cfg.ProxyAddress, err = cmd.Flags().GetString("proxy")
	if err != nil {
		return nil, err
	}

	cfg.ArchiveRoot, err = cmd.Flags().GetString("root")
	if err != nil {
		return nil, err
	}

	cfg.ConfigFilePath, err = cmd.Flags().GetString("config")
	if err != nil {
		return nil, err
	}

	cfg.SiteConfigs, err = loadSiteConfigs(cfg.ConfigFilePath)
	if err != nil {
		return nil, err
	}

	cfg.JSONSummary, err = cmd.Flags().GetBool("json")
	if err != nil {
		return nil, err
	}

	cfg.MarkdownSummary, err = cmd.Flags().GetBool("markdown")
	if err != nil {
		return nil, err
	}

	cfg.SummaryFile, err = cmd.Flags().GetString("output")
	if err != nil {
		return nil, err
	}

	// Record fetches in the XDG data directory unless disabled
	noFetchLog, err := cmd.Flags().GetBool("no-fetch-log")
	if err != nil {
		return nil, err
	}
	if !noFetchLog {
		cfg.LogDBDir = config.XDGDataDir()
	}

	cfg.Verbose = getVerboseFlag(cmd)

	// Get positional arguments (start URLs)
	cfg.Targets = args

	return cfg, nil
}

// loadSiteConfigs loads per-site settings from a config file.
// If the user explicitly specified a config file path, a missing file is
// an error. Without an explicit path, a missing file means empty config.
func loadSiteConfigs(configFilePath string) (*config.File, error) {
	explicitConfigPath := configFilePath != ""
	configPath := config.FindConfigFile(configFilePath)

	if configPath != "" {
		siteConfigs, err := config.LoadConfigFile(configPath)
		if err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", configPath, err)
		}
		return siteConfigs, nil
	}

	if explicitConfigPath {
		// User explicitly specified a config file that doesn't exist
		return nil, fmt.Errorf("configuration file not found: %s", configFilePath)
	}

	// Use empty config if no file found and user didn't explicitly specify one
	return &config.File{
		Sites: make(map[string]config.SiteConfig),
	}, nil
}

// setupLogger creates a structured logger based on verbosity setting.
// Credential-bearing attributes are masked before they reach the output.
func setupLogger(verbose bool) *slog.Logger {
	return log.NewLogger(os.Stderr, verbose)
}

// runArchive archives every target sequentially.
func runArchive(ctx context.Context, cfg *config.Config, logger *slog.Logger) error {
	logger.Info("starting archive run",
		"targets", cfg.Targets,
		"archiveRoot", cfg.ArchiveRoot,
		"fetchLog", cfg.LogDBDir != "",
	)

	// Open the fetch log if enabled
	var fetchLog *database.FetchLog
	if cfg.LogDBDir != "" {
		var err error
		fetchLog, err = database.Open(cfg.LogDBDir, database.DefaultOptions())
		if err != nil {
			return fmt.Errorf("failed to open fetch log: %w", err)
		}
		defer fetchLog.Close()
		logger.Info("fetch log opened", "dir", cfg.LogDBDir)
	}

	var failed int
	for _, target := range cfg.Targets {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		opts := []session.Option{session.WithLogger(logger)}
		if fetchLog != nil {
			opts = append(opts, session.WithFetchLog(fetchLog))
		}

		sess, err := session.New(target, cfg, opts...)
		if err != nil {
			return err
		}

		fmt.Printf("Archiving %s...\n", target)

		summary, err := sess.Run(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return err
			}
			failed++
			logger.Error("archive failed", "target", target, "error", err)
			fmt.Fprintf(os.Stderr, "Archive error for %s: %v\n", target, err)
			continue
		}

		fmt.Printf("Archived %d pages in %s\n\n", summary.Pages, summary.Duration.Round(time.Millisecond))

		// Generate and output the summary
		if err := outputSummary(cfg, summary); err != nil {
			logger.Error("summary output failed", "target", target, "error", err)
		}
	}

	if failed > 0 && failed == len(cfg.Targets) {
		return fmt.Errorf("no site could be archived (%d targets failed)", failed)
	}

	return nil
}

// outputSummary outputs the session summary in the requested format.
func outputSummary(cfg *config.Config, summary *session.Summary) error {
	// Determine output destination
	var output *os.File
	if cfg.SummaryFile != "" {
		// Create directories if they don't exist
		dir := filepath.Dir(cfg.SummaryFile)
		if dir != "" && dir != "." {
			if err := os.MkdirAll(dir, 0750); err != nil {
				return fmt.Errorf("failed to create output directory: %w", err)
			}
		}

		f, err := os.OpenFile(cfg.SummaryFile, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
		if err != nil {
			return fmt.Errorf("failed to create output file: %w", err)
		}
		defer f.Close()
		output = f
	} else {
		output = os.Stdout
	}

	// JSON output (summary wrapped with version metadata)
	if cfg.JSONSummary {
		writer := report.NewFullJSONWriter(output, getVersion(), report.WithPrettyPrint())
		_, err := writer.Write(summary)
		return err
	}

	// Markdown output
	if cfg.MarkdownSummary {
		writer := report.NewMarkdownWriter(output)
		_, err := writer.Write(summary)
		return err
	}

	// Human-readable summary (default)
	writer := report.NewSimpleWriter(output, report.WithVerbose(cfg.Verbose))
	_, err := writer.Write(summary)
	return err
}

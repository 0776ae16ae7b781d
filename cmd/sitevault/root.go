package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// NewRootCmd creates the root command for sitevault.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sitevault",
		Short: "Archive websites as browsable offline snapshots",
		Long: `Sitevault archives websites as browsable offline snapshots.

It crawls pages within one domain, downloads their stylesheets, images,
and scripts, and rewrites links so the snapshot works in a browser
without a network connection. Every run lands in its own timestamped
directory, so earlier snapshots of the same site are never touched.`,
		Version:       getVersion(),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// Global flags that apply to all commands
	cmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose logging")

	// Add subcommands
	cmd.AddCommand(NewArchiveCmd())
	cmd.AddCommand(NewListCmd())
	cmd.AddCommand(NewServeCmd())
	cmd.AddCommand(NewInitCmd())
	cmd.AddCommand(NewVersionCmd())

	return cmd
}

// Execute runs the root command.
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

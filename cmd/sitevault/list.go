package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/sitevault/sitevault/internal/config"
	"github.com/sitevault/sitevault/internal/database"
	"github.com/sitevault/sitevault/internal/manifest"
	"github.com/spf13/cobra"
)

// NewListCmd creates the list command.
func NewListCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list [domain]",
		Short: "List archived domains and sessions",
		Long: `List shows what the archive root contains.

Without arguments it lists every archived domain. With a domain it
lists that domain's sessions, newest first. Directories without a
manifest belong to in-flight or aborted sessions and are not shown.

Examples:
  # List every archived domain
  sitevault list

  # List the sessions archived for one domain
  sitevault list example.com

  # Show the five most recent sessions recorded in the fetch log
  sitevault list --recent 5

  # Machine-readable output
  sitevault list example.com --json`,
		Args: cobra.MaximumNArgs(1),
		RunE: runListCmd,
	}

	cmd.Flags().StringP("root", "r", config.DefaultArchiveRoot(),
		"Directory holding the snapshots")
	cmd.Flags().BoolP("json", "j", false,
		"Output the listing as JSON")
	cmd.Flags().Int("recent", 0,
		"Show the N most recent sessions recorded in the fetch log")

	return cmd
}

// runListCmd executes the list command.
func runListCmd(cmd *cobra.Command, args []string) error {
	root, err := cmd.Flags().GetString("root")
	if err != nil {
		return err
	}

	asJSON, err := cmd.Flags().GetBool("json")
	if err != nil {
		return err
	}

	recent, err := cmd.Flags().GetInt("recent")
	if err != nil {
		return err
	}

	if recent > 0 {
		return listRecentSessions(cmd.Context(), os.Stdout, config.XDGDataDir(), recent, asJSON)
	}
	if len(args) == 1 {
		return listSessions(os.Stdout, root, args[0], asJSON)
	}
	return listDomains(os.Stdout, root, asJSON)
}

// listDomains prints the archived domains under the archive root.
func listDomains(w io.Writer, root string, asJSON bool) error {
	domains, err := manifest.ListDomains(root)
	if err != nil {
		return err
	}

	if asJSON {
		return writeListJSON(w, domains)
	}

	if len(domains) == 0 {
		fmt.Fprintf(w, "No archives found under %s\n", root)
		return nil
	}

	fmt.Fprintf(w, "Archived domains in %s:\n\n", root)
	for _, domain := range domains {
		sessions, err := manifest.ListSessions(root, domain)
		if err != nil {
			return err
		}
		noun := "sessions"
		if len(sessions) == 1 {
			noun = "session"
		}
		fmt.Fprintf(w, "  • %s (%d %s)\n", domain, len(sessions), noun)
	}
	fmt.Fprintf(w, "\nRun 'sitevault list <domain>' to see the sessions of a domain.\n")

	return nil
}

// listSessions prints the archived sessions of one domain, newest first.
func listSessions(w io.Writer, root, domain string, asJSON bool) error {
	sessions, err := manifest.ListSessions(root, domain)
	if err != nil {
		return err
	}

	if asJSON {
		return writeListJSON(w, sessions)
	}

	if len(sessions) == 0 {
		fmt.Fprintf(w, "No sessions found for %s under %s\n", domain, root)
		return nil
	}

	fmt.Fprintf(w, "Sessions for %s:\n\n", domain)
	fmt.Fprintf(w, "  %-15s  %-20s  %6s  %s\n", "ID", "Archived At", "Pages", "Start URL")
	fmt.Fprintln(w, "  "+strings.Repeat("-", 70))

	for _, s := range sessions {
		fmt.Fprintf(w, "  %-15s  %-20s  %6d  %s\n",
			s.ID,
			s.ArchivedAt.Format("2006-01-02 15:04:05"),
			len(s.CrawledPages),
			s.StartURL,
		)
	}

	fmt.Fprintf(w, "\nOpen %s in a browser to view the newest snapshot offline.\n",
		filepath.Join(root, domain, sessions[0].ID, sessions[0].Entrypoint))

	return nil
}

// recentSession is the JSON shape of one fetch-log session entry.
type recentSession struct {
	Domain        string    `json:"domain"`
	SessionID     string    `json:"sessionId"` //nolint:tagliatelle // matches the manifest schema
	StartURL      string    `json:"startUrl"`  //nolint:tagliatelle // matches the manifest schema
	Pages         int       `json:"pages"`
	Assets        int       `json:"assets"`
	AssetFailures int       `json:"assetFailures"` //nolint:tagliatelle // matches the manifest schema
	RecordedAt    time.Time `json:"recordedAt"`    //nolint:tagliatelle // matches the manifest schema
}

// listRecentSessions prints the most recent sessions from the fetch log,
// across all domains.
func listRecentSessions(ctx context.Context, w io.Writer, dbDir string, limit int, asJSON bool) error {
	fetchLog, err := database.Open(dbDir, database.DefaultOptions())
	if err != nil {
		return fmt.Errorf("failed to open fetch log: %w", err)
	}
	defer fetchLog.Close()

	records, err := fetchLog.RecentSessions(ctx, limit)
	if err != nil {
		return err
	}

	if asJSON {
		recent := make([]recentSession, 0, len(records))
		for _, r := range records {
			recent = append(recent, recentSession{
				Domain:        r.Domain,
				SessionID:     r.SessionID,
				StartURL:      r.StartURL,
				Pages:         r.Pages,
				Assets:        r.Assets,
				AssetFailures: r.AssetFailures,
				RecordedAt:    r.Timestamp,
			})
		}
		return writeListJSON(w, recent)
	}

	if len(records) == 0 {
		fmt.Fprintln(w, "No sessions recorded in the fetch log yet.")
		return nil
	}

	fmt.Fprintf(w, "Last %d recorded sessions:\n\n", len(records))
	fmt.Fprintf(w, "  %-20s  %-15s  %-20s  %6s  %7s\n", "Domain", "Session", "Recorded At", "Pages", "Assets")
	fmt.Fprintln(w, "  "+strings.Repeat("-", 78))

	for _, r := range records {
		fmt.Fprintf(w, "  %-20s  %-15s  %-20s  %6d  %7d\n",
			r.Domain,
			r.SessionID,
			r.Timestamp.Format("2006-01-02 15:04:05"),
			r.Pages,
			r.Assets,
		)
	}

	return nil
}

// writeListJSON writes a listing as indented JSON.
func writeListJSON(w io.Writer, v any) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(v)
}

package main

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/sitevault/sitevault/internal/database"
	"github.com/sitevault/sitevault/internal/manifest"
)

// TestNewListCmd tests the list command creation.
func TestNewListCmd(t *testing.T) {
	t.Parallel()

	cmd := NewListCmd()

	t.Run("has correct use", func(t *testing.T) {
		t.Parallel()
		if cmd.Use != "list [domain]" {
			t.Errorf("expected use 'list [domain]', got %q", cmd.Use)
		}
	})

	t.Run("has short description", func(t *testing.T) {
		t.Parallel()
		if cmd.Short == "" {
			t.Error("expected non-empty short description")
		}
	})

	t.Run("has root flag", func(t *testing.T) {
		t.Parallel()
		flag := cmd.Flags().Lookup("root")
		if flag == nil {
			t.Fatal("expected root flag")
		}
		if flag.Shorthand != "r" {
			t.Errorf("expected shorthand 'r', got %q", flag.Shorthand)
		}
	})

	t.Run("has json flag", func(t *testing.T) {
		t.Parallel()
		flag := cmd.Flags().Lookup("json")
		if flag == nil {
			t.Fatal("expected json flag")
		}
		if flag.Shorthand != "j" {
			t.Errorf("expected shorthand 'j', got %q", flag.Shorthand)
		}
	})

	t.Run("has recent flag", func(t *testing.T) {
		t.Parallel()
		flag := cmd.Flags().Lookup("recent")
		if flag == nil {
			t.Fatal("expected recent flag")
		}
	})
}

// writeTestManifest creates a session directory with a manifest.
func writeTestManifest(t *testing.T, root, domain, id, startURL string) {
	t.Helper()

	sessionDir := filepath.Join(root, domain, id)
	if err := os.MkdirAll(sessionDir, 0750); err != nil {
		t.Fatalf("failed to create session dir: %v", err)
	}

	m := manifest.New(startURL, "index.html", time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC), []string{startURL})
	if err := m.Write(sessionDir); err != nil {
		t.Fatalf("failed to write manifest: %v", err)
	}
}

// TestListDomains tests the domain listing.
func TestListDomains(t *testing.T) {
	t.Parallel()

	t.Run("reports an empty root", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		if err := listDomains(&buf, t.TempDir(), false); err != nil {
			t.Fatalf("listDomains() error = %v", err)
		}

		if !strings.Contains(buf.String(), "No archives found") {
			t.Errorf("expected empty-root message, got %q", buf.String())
		}
	})

	t.Run("lists domains with session counts", func(t *testing.T) {
		t.Parallel()

		root := t.TempDir()
		writeTestManifest(t, root, "example.com", "20250101-000000", "https://example.com/")
		writeTestManifest(t, root, "example.org", "20250101-000000", "https://example.org/")
		writeTestManifest(t, root, "example.org", "20250102-000000", "https://example.org/")

		var buf bytes.Buffer
		if err := listDomains(&buf, root, false); err != nil {
			t.Fatalf("listDomains() error = %v", err)
		}

		output := buf.String()
		if !strings.Contains(output, "• example.com (1 session)") {
			t.Errorf("expected example.com with 1 session, got %q", output)
		}
		if !strings.Contains(output, "• example.org (2 sessions)") {
			t.Errorf("expected example.org with 2 sessions, got %q", output)
		}
	})

	t.Run("outputs JSON", func(t *testing.T) {
		t.Parallel()

		root := t.TempDir()
		writeTestManifest(t, root, "example.com", "20250101-000000", "https://example.com/")

		var buf bytes.Buffer
		if err := listDomains(&buf, root, true); err != nil {
			t.Fatalf("listDomains() error = %v", err)
		}

		var domains []string
		if err := json.Unmarshal(buf.Bytes(), &domains); err != nil {
			t.Fatalf("failed to parse JSON: %v", err)
		}
		if len(domains) != 1 || domains[0] != "example.com" {
			t.Errorf("expected [example.com], got %v", domains)
		}
	})
}

// TestListSessions tests the session listing.
func TestListSessions(t *testing.T) {
	t.Parallel()

	t.Run("prints the session table", func(t *testing.T) {
		t.Parallel()

		root := t.TempDir()
		writeTestManifest(t, root, "example.com", "20250101-000000", "https://example.com/")
		writeTestManifest(t, root, "example.com", "20250102-000000", "https://example.com/")

		var buf bytes.Buffer
		if err := listSessions(&buf, root, "example.com", false); err != nil {
			t.Fatalf("listSessions() error = %v", err)
		}

		output := buf.String()
		if !strings.Contains(output, "Sessions for example.com") {
			t.Errorf("expected sessions header, got %q", output)
		}
		if !strings.Contains(output, "Archived At") {
			t.Errorf("expected table header, got %q", output)
		}
		if !strings.Contains(output, "20250101-000000") || !strings.Contains(output, "20250102-000000") {
			t.Errorf("expected both session IDs, got %q", output)
		}

		// Footer points at the newest session's entrypoint
		newest := filepath.Join(root, "example.com", "20250102-000000", "index.html")
		if !strings.Contains(output, newest) {
			t.Errorf("expected footer to point at %s, got %q", newest, output)
		}
	})

	t.Run("reports a domain without sessions", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		if err := listSessions(&buf, t.TempDir(), "missing.example", false); err != nil {
			t.Fatalf("listSessions() error = %v", err)
		}

		if !strings.Contains(buf.String(), "No sessions found") {
			t.Errorf("expected no-sessions message, got %q", buf.String())
		}
	})

	t.Run("skips directories without manifests", func(t *testing.T) {
		t.Parallel()

		root := t.TempDir()
		writeTestManifest(t, root, "example.com", "20250101-000000", "https://example.com/")

		// An aborted session leaves a directory without a manifest
		if err := os.MkdirAll(filepath.Join(root, "example.com", "20250103-000000"), 0750); err != nil {
			t.Fatalf("failed to create dir: %v", err)
		}

		var buf bytes.Buffer
		if err := listSessions(&buf, root, "example.com", false); err != nil {
			t.Fatalf("listSessions() error = %v", err)
		}

		if strings.Contains(buf.String(), "20250103-000000") {
			t.Errorf("expected manifest-less directory to be skipped, got %q", buf.String())
		}
	})

	t.Run("outputs JSON", func(t *testing.T) {
		t.Parallel()

		root := t.TempDir()
		writeTestManifest(t, root, "example.com", "20250101-000000", "https://example.com/")

		var buf bytes.Buffer
		if err := listSessions(&buf, root, "example.com", true); err != nil {
			t.Fatalf("listSessions() error = %v", err)
		}

		var sessions []manifest.Session
		if err := json.Unmarshal(buf.Bytes(), &sessions); err != nil {
			t.Fatalf("failed to parse JSON: %v", err)
		}
		if len(sessions) != 1 {
			t.Fatalf("expected 1 session, got %d", len(sessions))
		}
		if sessions[0].StartURL != "https://example.com/" {
			t.Errorf("expected startUrl 'https://example.com/', got %q", sessions[0].StartURL)
		}
	})
}

// TestListRecentSessions tests the fetch-log backed recent listing.
func TestListRecentSessions(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	// seedFetchLog records some sessions in a fresh log database.
	seedFetchLog := func(t *testing.T, dbDir string, count int) {
		t.Helper()

		fetchLog, err := database.Open(dbDir, database.DefaultOptions())
		if err != nil {
			t.Fatalf("failed to open fetch log: %v", err)
		}
		defer fetchLog.Close()

		for i := range count {
			record := &database.SessionRecord{
				SessionID: time.Date(2025, 1, i+1, 0, 0, 0, 0, time.UTC).Format("20060102-150405"),
				Domain:    "example.com",
				StartURL:  "https://example.com/",
				Pages:     i + 1,
				Assets:    2 * (i + 1),
			}
			if err := fetchLog.InsertSessionRecord(ctx, record); err != nil {
				t.Fatalf("failed to insert session record: %v", err)
			}
		}
	}

	t.Run("reports an empty log", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		if err := listRecentSessions(ctx, &buf, t.TempDir(), 5, false); err != nil {
			t.Fatalf("listRecentSessions() error = %v", err)
		}

		if !strings.Contains(buf.String(), "No sessions recorded") {
			t.Errorf("expected empty-log message, got %q", buf.String())
		}
	})

	t.Run("prints recorded sessions", func(t *testing.T) {
		t.Parallel()

		dbDir := t.TempDir()
		seedFetchLog(t, dbDir, 2)

		var buf bytes.Buffer
		if err := listRecentSessions(ctx, &buf, dbDir, 5, false); err != nil {
			t.Fatalf("listRecentSessions() error = %v", err)
		}

		output := buf.String()
		if !strings.Contains(output, "Recorded At") {
			t.Errorf("expected table header, got %q", output)
		}
		if !strings.Contains(output, "example.com") {
			t.Errorf("expected domain in output, got %q", output)
		}
	})

	t.Run("respects the limit", func(t *testing.T) {
		t.Parallel()

		dbDir := t.TempDir()
		seedFetchLog(t, dbDir, 3)

		var buf bytes.Buffer
		if err := listRecentSessions(ctx, &buf, dbDir, 2, true); err != nil {
			t.Fatalf("listRecentSessions() error = %v", err)
		}

		var recent []recentSession
		if err := json.Unmarshal(buf.Bytes(), &recent); err != nil {
			t.Fatalf("failed to parse JSON: %v", err)
		}
		if len(recent) != 2 {
			t.Errorf("expected 2 sessions, got %d", len(recent))
		}
	})

	t.Run("outputs JSON with the manifest schema keys", func(t *testing.T) {
		t.Parallel()

		dbDir := t.TempDir()
		seedFetchLog(t, dbDir, 1)

		var buf bytes.Buffer
		if err := listRecentSessions(ctx, &buf, dbDir, 5, true); err != nil {
			t.Fatalf("listRecentSessions() error = %v", err)
		}

		output := buf.String()
		for _, key := range []string{`"sessionId"`, `"startUrl"`, `"pages"`, `"recordedAt"`} {
			if !strings.Contains(output, key) {
				t.Errorf("expected JSON key %s, got %q", key, output)
			}
		}
	})
}

package report

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/sitevault/sitevault/internal/session"
)

// SimpleWriter outputs human-readable text summaries.
// This format is designed for terminal display with clear section
// formatting.
//
// Design decision: We use plain text with ASCII formatting rather than
// ANSI colors by default because:
// 1. It works in all terminals without compatibility issues
// 2. It's easier to pipe to files or other tools
// 3. Color can be added as an option later if needed
type SimpleWriter struct {
	baseWriter

	// verbose enables the archived page list in the output.
	verbose bool
}

// SimpleWriterOption configures a SimpleWriter.
type SimpleWriterOption func(*SimpleWriter)

// WithVerbose enables verbose output with the archived page list.
func WithVerbose(verbose bool) SimpleWriterOption {
	return func(w *SimpleWriter) {
		w.verbose = verbose
	}
}

// NewSimpleWriter creates a SimpleWriter that outputs to the given writer.
func NewSimpleWriter(output io.Writer, opts ...SimpleWriterOption) *SimpleWriter {
	w := &SimpleWriter{
		baseWriter: newBaseWriter(output),
		verbose:    false,
	}

	for _, opt := range opts {
		opt(w)
	}

	return w
}

// Write outputs the summary in human-readable format.
func (w *SimpleWriter) Write(summary *session.Summary) (int, error) {
	var sb strings.Builder

	w.writeHeader(&sb, summary)
	w.writeCounts(&sb, summary)
	if w.verbose {
		w.writePages(&sb, summary)
	}
	w.writeFooter(&sb, summary)

	return w.output.Write([]byte(sb.String()))
}

// writeHeader writes the summary header with session information.
func (w *SimpleWriter) writeHeader(sb *strings.Builder, summary *session.Summary) {
	sb.WriteString("\n")
	sb.WriteString(strings.Repeat("=", 70))
	sb.WriteString("\n")
	sb.WriteString("                        SITEVAULT ARCHIVE\n")
	sb.WriteString(strings.Repeat("=", 70))
	sb.WriteString("\n\n")

	sb.WriteString(fmt.Sprintf("Start URL:   %s\n", summary.StartURL))
	sb.WriteString(fmt.Sprintf("Domain:      %s\n", summary.Domain))
	sb.WriteString(fmt.Sprintf("Session:     %s\n", summary.ID))
	sb.WriteString(fmt.Sprintf("Saved To:    %s\n", summary.Dir))
	sb.WriteString(fmt.Sprintf("Archived At: %s\n", summary.ArchivedAt.Format("2006-01-02 15:04:05 MST")))
	sb.WriteString(fmt.Sprintf("Duration:    %s\n", summary.Duration.Round(10*time.Millisecond)))

	if summary.DroppedPages > 0 {
		sb.WriteString(fmt.Sprintf("Status:      PARTIAL (%d pages dropped)\n", summary.DroppedPages))
	} else {
		sb.WriteString("Status:      Complete\n")
	}

	sb.WriteString("\n")
}

// writeCounts writes the crawl summary section.
func (w *SimpleWriter) writeCounts(sb *strings.Builder, summary *session.Summary) {
	sb.WriteString(strings.Repeat("-", 70))
	sb.WriteString("\n")
	sb.WriteString("CRAWL SUMMARY\n")
	sb.WriteString(strings.Repeat("-", 70))
	sb.WriteString("\n\n")

	sb.WriteString(fmt.Sprintf("  Pages archived: %d\n", summary.Pages))
	sb.WriteString(fmt.Sprintf("  Pages dropped:  %d\n", summary.DroppedPages))
	sb.WriteString(fmt.Sprintf("  Assets saved:   %d\n", summary.Assets))
	sb.WriteString(fmt.Sprintf("  Assets failed:  %d\n", summary.AssetFailures))
	sb.WriteString("\n")
}

// writePages writes the archived page list.
func (w *SimpleWriter) writePages(sb *strings.Builder, summary *session.Summary) {
	sb.WriteString(strings.Repeat("-", 70))
	sb.WriteString("\n")
	sb.WriteString("ARCHIVED PAGES\n")
	sb.WriteString(strings.Repeat("-", 70))
	sb.WriteString("\n\n")

	if len(summary.CrawledPages) == 0 {
		sb.WriteString("  No pages archived\n")
	} else {
		for _, page := range summary.CrawledPages {
			sb.WriteString(fmt.Sprintf("  [+] %s\n", page))
		}
	}
	sb.WriteString("\n")
}

// writeFooter writes the summary footer.
func (w *SimpleWriter) writeFooter(sb *strings.Builder, summary *session.Summary) {
	sb.WriteString(strings.Repeat("=", 70))
	sb.WriteString("\n")
	sb.WriteString(fmt.Sprintf("Open %s in a browser to view the archive offline.\n", filepath.Join(summary.Dir, summary.Entrypoint)))
	sb.WriteString(strings.Repeat("=", 70))
	sb.WriteString("\n")
}

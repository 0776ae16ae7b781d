package report

import (
	"io"
	"path/filepath"
	"strconv"
	"time"

	"github.com/nao1215/markdown"
	"github.com/nao1215/markdown/mermaid/piechart"
	"github.com/sitevault/sitevault/internal/session"
)

// MarkdownWriter outputs summaries in Markdown format.
// This format is designed for documentation and sharing.
//
// Design decision: We use the nao1215/markdown library for fluent markdown
// generation which provides:
// 1. Type-safe markdown generation
// 2. Support for tables, lists, and code blocks
// 3. GitHub-flavored markdown alerts
type MarkdownWriter struct {
	baseWriter
}

// NewMarkdownWriter creates a MarkdownWriter that outputs to the given writer.
func NewMarkdownWriter(output io.Writer) *MarkdownWriter {
	return &MarkdownWriter{
		baseWriter: newBaseWriter(output),
	}
}

// Write outputs the summary in Markdown format.
func (w *MarkdownWriter) Write(summary *session.Summary) (int, error) {
	md := markdown.NewMarkdown(w.output)

	w.writeHeader(md, summary)
	w.writeCounts(md, summary)
	w.writePages(md, summary)
	w.writeFooter(md)

	return len(md.String()), md.Build()
}

// writeHeader writes the summary header with session information.
func (w *MarkdownWriter) writeHeader(md *markdown.Markdown, summary *session.Summary) {
	md.H1("Archive Report")
	md.PlainText("")

	md.Table(markdown.TableSet{
		Header: []string{"Property", "Value"},
		Rows: [][]string{
			{"Start URL", "`" + summary.StartURL + "`"},
			{"Domain", summary.Domain},
			{"Session", summary.ID},
			{"Saved To", "`" + summary.Dir + "`"},
			{"Entrypoint", "`" + filepath.Join(summary.Dir, summary.Entrypoint) + "`"},
			{"Archived At", summary.ArchivedAt.Format("2006-01-02 15:04:05 MST")},
			{"Duration", summary.Duration.Round(10 * time.Millisecond).String()},
			{"Status", w.getStatusText(summary)},
		},
	})
	md.PlainText("")
}

// getStatusText returns the status text based on the crawl outcome.
func (w *MarkdownWriter) getStatusText(summary *session.Summary) string {
	if summary.DroppedPages > 0 {
		return "⚠️ Partial (" + strconv.Itoa(summary.DroppedPages) + " pages dropped)"
	}
	return "✅ Complete"
}

// writeCounts writes the crawl summary section.
func (w *MarkdownWriter) writeCounts(md *markdown.Markdown, summary *session.Summary) {
	md.H2("Crawl Summary")
	md.PlainText("")

	md.Table(markdown.TableSet{
		Header: []string{"Metric", "Count"},
		Rows: [][]string{
			{"Pages archived", strconv.Itoa(summary.Pages)},
			{"Pages dropped", strconv.Itoa(summary.DroppedPages)},
			{"Assets saved", strconv.Itoa(summary.Assets)},
			{"Assets failed", strconv.Itoa(summary.AssetFailures)},
		},
	})
	md.PlainText("")

	if summary.DroppedPages > 0 || summary.AssetFailures > 0 {
		w.writePieChart(md, summary)
	}

	w.writeAlert(md, summary)
}

// writePieChart writes a mermaid pie chart of the fetch outcomes.
func (w *MarkdownWriter) writePieChart(md *markdown.Markdown, summary *session.Summary) {
	chart := piechart.NewPieChart(
		io.Discard,
		piechart.WithTitle("Fetch Outcomes"),
		piechart.WithShowData(true),
	)

	if summary.Pages > 0 {
		chart.LabelAndIntValue("Pages archived", uint64(summary.Pages))
	}
	if summary.DroppedPages > 0 {
		chart.LabelAndIntValue("Pages dropped", uint64(summary.DroppedPages))
	}
	if summary.Assets > 0 {
		chart.LabelAndIntValue("Assets saved", uint64(summary.Assets))
	}
	if summary.AssetFailures > 0 {
		chart.LabelAndIntValue("Assets failed", uint64(summary.AssetFailures))
	}

	md.PlainText("")
	md.CodeBlocks(markdown.SyntaxHighlightMermaid, chart.String())
	md.PlainText("")
}

// writeAlert writes an appropriate alert based on the crawl outcome.
func (w *MarkdownWriter) writeAlert(md *markdown.Markdown, summary *session.Summary) {
	switch {
	case summary.DroppedPages > 0:
		md.Warningf(
			"%d page(s) could not be fetched. Their links point back at the live site.",
			summary.DroppedPages,
		)
	case summary.AssetFailures > 0:
		md.Importantf(
			"%d asset(s) failed to download. Those references still point at the live site.",
			summary.AssetFailures,
		)
	default:
		md.Tip("Every page and asset was archived successfully.")
	}
	md.PlainText("")
}

// writePages writes the archived page list.
func (w *MarkdownWriter) writePages(md *markdown.Markdown, summary *session.Summary) {
	md.H2("Archived Pages")
	md.PlainText("")

	if len(summary.CrawledPages) == 0 {
		md.PlainText("No pages archived.")
		md.PlainText("")
		return
	}

	md.BulletList(summary.CrawledPages...)
	md.PlainText("")
}

// writeFooter writes the summary footer.
func (w *MarkdownWriter) writeFooter(md *markdown.Markdown) {
	md.HorizontalRule()
	md.PlainText("")
	md.PlainTextf("*Report generated by [sitevault](https://github.com/sitevault/sitevault)*")
}

package engine

import (
	"fmt"
	"io"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"metasync/internal/reconcile"
)

// LibrarySummary tallies what one library's sync pass did.
type LibrarySummary struct {
	Library string

	Items    int
	Resolved int
	Missing  int
	Failed   int

	MetadataUpdated   int
	MetadataPreserved int

	AssetsUpdated   int
	AssetsSkipped   int
	AssetsFailed    int
	BytesDownloaded int64
}

func (s *LibrarySummary) apply(res itemResult) {
	switch {
	case res.err != nil:
		s.Failed++
	case res.missing:
		s.Missing++
	default:
		s.Resolved++
	}

	if res.metadataUpdated {
		s.MetadataUpdated++
	}
	if res.metadataPreserved {
		s.MetadataPreserved++
	}
	s.AssetsUpdated += res.assetsUpdated
	s.AssetsSkipped += res.assetsSkipped
	s.AssetsFailed += res.assetsFailed
	s.BytesDownloaded += res.bytesDownloaded
}

// RenderSummary writes the human-readable run report.
func RenderSummary(w io.Writer, report RunReport) {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleRounded)
	t.AppendHeader(table.Row{"Library", "Items", "Resolved", "Missing", "Failed", "Metadata", "Preserved", "Artwork", "Skipped", "Art Failed", "Downloaded"})

	var total LibrarySummary
	for _, s := range report.Libraries {
		t.AppendRow(table.Row{
			s.Library, s.Items, s.Resolved, s.Missing, s.Failed,
			s.MetadataUpdated, s.MetadataPreserved,
			s.AssetsUpdated, s.AssetsSkipped, s.AssetsFailed,
			humanBytes(s.BytesDownloaded),
		})
		total.Items += s.Items
		total.Resolved += s.Resolved
		total.Missing += s.Missing
		total.Failed += s.Failed
		total.MetadataUpdated += s.MetadataUpdated
		total.MetadataPreserved += s.MetadataPreserved
		total.AssetsUpdated += s.AssetsUpdated
		total.AssetsSkipped += s.AssetsSkipped
		total.AssetsFailed += s.AssetsFailed
		total.BytesDownloaded += s.BytesDownloaded
	}
	if len(report.Libraries) > 1 {
		t.AppendFooter(table.Row{
			"Total", total.Items, total.Resolved, total.Missing, total.Failed,
			total.MetadataUpdated, total.MetadataPreserved,
			total.AssetsUpdated, total.AssetsSkipped, total.AssetsFailed,
			humanBytes(total.BytesDownloaded),
		})
	}
	t.SetColumnConfigs([]table.ColumnConfig{{Number: 1, Align: text.AlignLeft}})
	t.Render()

	if r := report.Reconcile; r.Total() > 0 {
		fmt.Fprintf(w, "Reconciled: %d cache entries, %d failed entries, %d metadata records, %d asset files removed\n",
			r.CacheEntries, r.FailedEntries, r.MetadataRecords, r.AssetFiles)
	}
}

// humanBytes formats a byte count as a binary-prefixed size, e.g. "1.5 MiB".
func humanBytes(n int64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}
	div, exp := int64(unit), 0
	for m := n / unit; m >= unit; m /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(n)/float64(div), "KMGTPE"[exp])
}

// RenderReconcile writes the report for a standalone reconciliation pass.
func RenderReconcile(w io.Writer, r reconcile.Result) {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleRounded)
	t.AppendHeader(table.Row{"Cache Entries", "Failed Entries", "Metadata Records", "Asset Files"})
	t.AppendRow(table.Row{r.CacheEntries, r.FailedEntries, r.MetadataRecords, r.AssetFiles})
	t.Render()
}

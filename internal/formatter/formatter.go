// package formatter renders staged rows, match partitions, and libraries for
// CLI output and file export (CSV, Markdown, plain text, JSON).
package formatter

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/imanmossavat/litstage/internal/api"
	"github.com/imanmossavat/litstage/internal/shared"
	"github.com/imanmossavat/litstage/internal/staging"
)

// RowsToCSV converts a snapshot's rows to CSV with columns: ID, Source, Title, Authors, Year, Venue, Identifier, URL, Selected, Retraction
func RowsToCSV(rows []staging.Row) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	headers := []string{"ID", "Source", "Title", "Authors", "Year", "Venue", "Identifier", "URL", "Selected", "Retraction"}
	if err := writer.Write(headers); err != nil {
		return nil, fmt.Errorf("failed to write CSV headers: %w", err)
	}

	for _, row := range rows {
		record := []string{
			row.StagingID,
			string(row.Source),
			row.Title,
			row.Authors,
			row.YearString(),
			row.Venue,
			row.Identifier,
			row.URL,
			strconv.FormatBool(row.Selected),
			string(row.Retraction),
		}
		if err := writer.Write(record); err != nil {
			return nil, fmt.Errorf("failed to write CSV record: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("CSV writer error: %w", err)
	}

	return buf.Bytes(), nil
}

// RowsToText converts a snapshot to plain text, one numbered line per row.
func RowsToText(snap *staging.Snapshot) []byte {
	var buf bytes.Buffer

	buf.WriteString(fmt.Sprintf("Staged: %d", snap.TotalRows))
	if snap.TotalFiltered != snap.TotalRows {
		buf.WriteString(fmt.Sprintf(" (%d after filters)", snap.TotalFiltered))
	}
	buf.WriteString(fmt.Sprintf("\nSelected: %d\n\n", snap.Stats.Selected))

	for i, row := range snap.Rows {
		buf.WriteString(fmt.Sprintf("%d. %s\n", i+1, rowLine(row)))
	}

	return buf.Bytes()
}

// rowLine renders one row as "Title — Authors (Year, Venue) [marks]".
func rowLine(row staging.Row) string {
	title := row.Title
	if title == "" {
		title = "(untitled)"
	}

	var b strings.Builder
	b.WriteString(title)
	if row.Authors != "" {
		b.WriteString(" - " + row.Authors)
	}

	var parens []string
	if y := row.YearString(); y != "" {
		parens = append(parens, y)
	}
	if row.Venue != "" {
		parens = append(parens, row.Venue)
	}
	if len(parens) > 0 {
		b.WriteString(" (" + strings.Join(parens, ", ") + ")")
	}

	if row.Selected {
		b.WriteString(" [selected]")
	}
	if row.Retraction == staging.RetractionRetracted {
		b.WriteString(" [RETRACTED]")
	}
	return b.String()
}

// RowsToMarkdown converts a snapshot to a Markdown report.
func RowsToMarkdown(sessionID string, snap *staging.Snapshot) []byte {
	var buf bytes.Buffer

	buf.WriteString(fmt.Sprintf("# Staging %s\n\n", sessionID))
	buf.WriteString(fmt.Sprintf("**Staged**: %d\n", snap.TotalRows))
	buf.WriteString(fmt.Sprintf("**After filters**: %d\n", snap.TotalFiltered))
	buf.WriteString(fmt.Sprintf("**Selected**: %d\n\n", snap.Stats.Selected))

	buf.WriteString("## Rows\n\n")
	for i, row := range snap.Rows {
		buf.WriteString(fmt.Sprintf("%d. %s\n", i+1, rowLine(row)))
	}

	return buf.Bytes()
}

// RowsToJSON renders the snapshot rows as pretty-printed JSON.
func RowsToJSON(snap *staging.Snapshot) ([]byte, error) {
	return shared.MarshalJSON(snap.Rows, true)
}

// MatchesToText renders the matched/unmatched partition.
func MatchesToText(resp *api.MatchResponse) []byte {
	var buf bytes.Buffer

	buf.WriteString(fmt.Sprintf("Matched: %d\n", len(resp.Matched)))
	for i, m := range resp.Matched {
		buf.WriteString(fmt.Sprintf("%d. %s -> %s (%s, score %.2f)\n",
			i+1, displayTitle(m.Row), m.Record.Title, m.Method, m.Score))
	}

	buf.WriteString(fmt.Sprintf("\nUnmatched: %d\n", len(resp.Unmatched)))
	for i, u := range resp.Unmatched {
		buf.WriteString(fmt.Sprintf("%d. %s: %s\n", i+1, displayTitle(u.Row), u.Reason))
	}

	return buf.Bytes()
}

func displayTitle(row api.StagingRow) string {
	if row.Title != nil && *row.Title != "" {
		return *row.Title
	}
	if row.Identifier != nil && *row.Identifier != "" {
		return *row.Identifier
	}
	return row.StagingID
}

// LibrariesToText renders a library listing.
func LibrariesToText(libs []api.Library) []byte {
	var buf bytes.Buffer

	if len(libs) == 0 {
		buf.WriteString("No libraries.\n")
		return buf.Bytes()
	}

	for i, lib := range libs {
		buf.WriteString(fmt.Sprintf("%d. %s (%d papers) %s\n", i+1, lib.Name, lib.PaperCount, lib.LibraryID))
		if lib.Description != "" {
			buf.WriteString(fmt.Sprintf("   %s\n", lib.Description))
		}
	}

	return buf.Bytes()
}

// RecordsToText renders external records (previews, discovery results).
func RecordsToText(records []api.ExternalRecord) []byte {
	var buf bytes.Buffer

	for i, rec := range records {
		buf.WriteString(fmt.Sprintf("%d. %s - %s (%d, %s)\n",
			i+1, rec.Title, shared.FormatAuthors(rec.Authors), rec.Year, rec.Venue))
	}
	if len(records) == 0 {
		buf.WriteString("No records.\n")
	}

	return buf.Bytes()
}

// ExportResult contains the path of the file created by WriteRowsExport.
type ExportResult struct {
	File   string
	Format string
}

// WriteRowsExport exports a snapshot to the given format.
//
// Defaults to {sessionID}_rows.{ext} as the filename. Supported formats:
// csv, markdown, text, json.
func WriteRowsExport(sessionID string, snap *staging.Snapshot, format, filepath string) (*ExportResult, error) {
	var data []byte
	var ext string
	var err error

	switch format {
	case "csv":
		ext = "csv"
		data, err = RowsToCSV(snap.Rows)
	case "markdown", "md":
		ext = "md"
		data = RowsToMarkdown(sessionID, snap)
	case "text", "txt", "":
		ext = "txt"
		data = RowsToText(snap)
	case "json":
		ext = "json"
		data, err = RowsToJSON(snap)
	default:
		return nil, fmt.Errorf("%w: unsupported export format %q", shared.ErrInvalidArgument, format)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to generate export: %w", err)
	}

	if filepath == "" {
		filepath = fmt.Sprintf("%s_rows.%s", sessionID, ext)
	}
	if err := os.WriteFile(filepath, data, 0644); err != nil {
		return nil, fmt.Errorf("failed to write export file: %w", err)
	}

	return &ExportResult{File: filepath, Format: format}, nil
}

package formatter

import (
	"encoding/csv"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/imanmossavat/litstage/internal/api"
	"github.com/imanmossavat/litstage/internal/shared"
	"github.com/imanmossavat/litstage/internal/staging"
)

func intptr(v int) *int { return &v }

func sampleSnapshot() *staging.Snapshot {
	return &staging.Snapshot{
		Rows: []staging.Row{
			{
				StagingID:  "row-1",
				Source:     staging.SourceManual,
				Title:      "Attention Is All You Need",
				Authors:    "Vaswani, A.; Shazeer, N.",
				Year:       intptr(2017),
				Venue:      "NeurIPS",
				Identifier: "10.5555/3295222.3295349",
				Selected:   true,
				Retraction: staging.RetractionClear,
			},
			{
				StagingID:  "row-2",
				Source:     staging.SourceDocument,
				Retraction: staging.RetractionRetracted,
			},
		},
		TotalRows:     5,
		TotalFiltered: 2,
		Stats:         staging.Stats{Selected: 1},
	}
}

func TestRowsToCSV(t *testing.T) {
	data, err := RowsToCSV(sampleSnapshot().Rows)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	records, err := csv.NewReader(strings.NewReader(string(data))).ReadAll()
	if err != nil {
		t.Fatalf("output is not valid CSV: %v", err)
	}
	if len(records) != 3 {
		t.Fatalf("expected header plus 2 rows, got %d records", len(records))
	}
	if records[0][0] != "ID" || records[0][4] != "Year" {
		t.Errorf("unexpected header %v", records[0])
	}
	if records[1][2] != "Attention Is All You Need" || records[1][8] != "true" {
		t.Errorf("unexpected first row %v", records[1])
	}
	if records[2][4] != "" {
		t.Errorf("missing year must render empty, got %q", records[2][4])
	}
	if records[2][9] != "retracted" {
		t.Errorf("unexpected retraction cell %q", records[2][9])
	}
}

func TestRowsToText(t *testing.T) {
	out := string(RowsToText(sampleSnapshot()))

	if !strings.Contains(out, "Staged: 5 (2 after filters)") {
		t.Errorf("missing totals line in %q", out)
	}
	if !strings.Contains(out, "Selected: 1") {
		t.Errorf("missing selected count in %q", out)
	}
	if !strings.Contains(out, "1. Attention Is All You Need - Vaswani, A.; Shazeer, N. (2017, NeurIPS) [selected]") {
		t.Errorf("unexpected first line in %q", out)
	}
	if !strings.Contains(out, "2. (untitled) [RETRACTED]") {
		t.Errorf("untitled retracted row rendered wrong in %q", out)
	}

	t.Run("Totals Match When Unfiltered", func(t *testing.T) {
		snap := sampleSnapshot()
		snap.TotalFiltered = snap.TotalRows
		if strings.Contains(string(RowsToText(snap)), "after filters") {
			t.Error("filter suffix must only appear when filters narrowed the set")
		}
	})
}

func TestRowsToMarkdown(t *testing.T) {
	out := string(RowsToMarkdown("sess-1", sampleSnapshot()))

	if !strings.HasPrefix(out, "# Staging sess-1") {
		t.Errorf("missing heading in %q", out)
	}
	if !strings.Contains(out, "**Selected**: 1") {
		t.Errorf("missing selected stat in %q", out)
	}
	if !strings.Contains(out, "## Rows") {
		t.Errorf("missing rows section in %q", out)
	}
}

func TestMatchesToText(t *testing.T) {
	title := "Deep Residual Learning"
	identifier := "10.9999/unknown"
	resp := &api.MatchResponse{
		Matched: []api.MatchedRow{{
			Row:    api.StagingRow{StagingID: "row-1", Title: &title},
			Score:  0.9,
			Method: "title",
			Record: api.ExternalRecord{Title: "Deep Residual Learning for Image Recognition"},
		}},
		Unmatched: []api.UnmatchedRow{{
			Row:    api.StagingRow{StagingID: "row-2", Identifier: &identifier},
			Reason: "no index record matched",
		}},
	}

	out := string(MatchesToText(resp))
	if !strings.Contains(out, "Matched: 1") || !strings.Contains(out, "Unmatched: 1") {
		t.Errorf("missing partition counts in %q", out)
	}
	if !strings.Contains(out, "Deep Residual Learning -> Deep Residual Learning for Image Recognition (title, score 0.90)") {
		t.Errorf("unexpected matched line in %q", out)
	}
	// Rows without a title fall back to the identifier.
	if !strings.Contains(out, "10.9999/unknown: no index record matched") {
		t.Errorf("unexpected unmatched line in %q", out)
	}
}

func TestLibrariesToText(t *testing.T) {
	out := string(LibrariesToText(nil))
	if !strings.Contains(out, "No libraries.") {
		t.Errorf("unexpected empty listing %q", out)
	}

	out = string(LibrariesToText([]api.Library{
		{LibraryID: "lib-1", Name: "Deep Learning", PaperCount: 2, Description: "seminal papers"},
	}))
	if !strings.Contains(out, "1. Deep Learning (2 papers) lib-1") {
		t.Errorf("unexpected listing %q", out)
	}
	if !strings.Contains(out, "seminal papers") {
		t.Errorf("description missing from %q", out)
	}
}

func TestRecordsToText(t *testing.T) {
	out := string(RecordsToText([]api.ExternalRecord{
		{Title: "Raft", Authors: []string{"Ongaro, D.", "Ousterhout, J."}, Year: 2014, Venue: "USENIX ATC"},
	}))
	if !strings.Contains(out, "1. Raft - Ongaro, D. & Ousterhout, J. (2014, USENIX ATC)") {
		t.Errorf("unexpected record line %q", out)
	}

	if out := string(RecordsToText(nil)); !strings.Contains(out, "No records.") {
		t.Errorf("unexpected empty listing %q", out)
	}
}

func TestWriteRowsExport(t *testing.T) {
	t.Run("Explicit Path", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "rows.csv")
		res, err := WriteRowsExport("sess-1", sampleSnapshot(), "csv", path)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if res.File != path || res.Format != "csv" {
			t.Errorf("unexpected result %+v", res)
		}

		data, err := os.ReadFile(path)
		if err != nil {
			t.Fatalf("export not written: %v", err)
		}
		if !strings.HasPrefix(string(data), "ID,Source,Title") {
			t.Errorf("unexpected export contents %q", data)
		}
	})

	t.Run("Default Filename", func(t *testing.T) {
		t.Chdir(t.TempDir())
		res, err := WriteRowsExport("sess-1", sampleSnapshot(), "markdown", "")
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if res.File != "sess-1_rows.md" {
			t.Errorf("unexpected default filename %s", res.File)
		}
	})

	t.Run("Empty Format Means Text", func(t *testing.T) {
		t.Chdir(t.TempDir())
		res, err := WriteRowsExport("sess-1", sampleSnapshot(), "", "")
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if res.File != "sess-1_rows.txt" {
			t.Errorf("unexpected default filename %s", res.File)
		}
	})

	t.Run("Unsupported Format", func(t *testing.T) {
		_, err := WriteRowsExport("sess-1", sampleSnapshot(), "xlsx", "")
		if !errors.Is(err, shared.ErrInvalidArgument) {
			t.Fatalf("expected ErrInvalidArgument, got %v", err)
		}
	})

	t.Run("JSON Export", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "rows.json")
		if _, err := WriteRowsExport("sess-1", sampleSnapshot(), "json", path); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		data, _ := os.ReadFile(path)
		if !strings.Contains(string(data), `"Attention Is All You Need"`) {
			t.Errorf("unexpected JSON export %q", data)
		}
	})
}

package staging

import (
	"context"
	"errors"
	"testing"

	"github.com/imanmossavat/litstage/internal/api"
	tu "github.com/imanmossavat/litstage/internal/testing"
)

func strptr(s string) *string { return &s }
func intptr(i int) *int       { return &i }

func sampleResponse() *api.ListRowsResponse {
	return &api.ListRowsResponse{
		Rows: []api.StagingRow{
			{
				StagingID:  "row-1",
				Source:     "manual",
				Title:      strptr("Attention Is All You Need"),
				Authors:    []string{"Vaswani", "Shazeer"},
				Year:       intptr(2017),
				Venue:      strptr("NeurIPS"),
				Identifier: strptr("10.5555/3295222"),
				Selected:   true,
				Retraction: "clear",
			},
			{
				StagingID: "row-2",
				Source:    "document",
			},
		},
		TotalRows:     2,
		TotalFiltered: 2,
		Stats:         api.RowStats{Selected: 1, BySource: map[string]int{"manual": 1, "document": 1}},
	}
}

func TestEngineFetch(t *testing.T) {
	ctx := context.Background()

	t.Run("Maps Wire Rows Into Display Rows", func(t *testing.T) {
		backend := &tu.StubBackend{
			ListRowsFunc: func(ctx context.Context, sessionID string, req api.ListRowsRequest) (*api.ListRowsResponse, error) {
				return sampleResponse(), nil
			},
		}
		engine := NewEngine(backend, "sess-1", nil)

		snap, err := engine.Fetch(ctx)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if len(snap.Rows) != 2 {
			t.Fatalf("expected 2 rows, got %d", len(snap.Rows))
		}

		row := snap.Rows[0]
		if row.Title != "Attention Is All You Need" {
			t.Errorf("unexpected title: %s", row.Title)
		}
		if row.Authors != "Vaswani; Shazeer" {
			t.Errorf("expected joined authors, got %q", row.Authors)
		}
		if row.Retraction != RetractionClear {
			t.Errorf("expected clear retraction, got %s", row.Retraction)
		}
		if !row.Selected {
			t.Error("expected row-1 selected")
		}

		// Absent metadata renders as empty strings, unknown retraction.
		bare := snap.Rows[1]
		if bare.Title != "" || bare.Venue != "" || bare.Year != nil {
			t.Error("expected empty fields for bare row")
		}
		if bare.Retraction != RetractionUnknown {
			t.Errorf("expected unknown retraction, got %s", bare.Retraction)
		}

		if snap.Stats.Selected != 1 {
			t.Errorf("expected 1 selected in stats, got %d", snap.Stats.Selected)
		}
		if snap.Stats.BySource[SourceManual] != 1 {
			t.Error("expected one manual row in stats")
		}
	})

	t.Run("Sends View Parameters", func(t *testing.T) {
		var got api.ListRowsRequest
		backend := &tu.StubBackend{
			ListRowsFunc: func(ctx context.Context, sessionID string, req api.ListRowsRequest) (*api.ListRowsResponse, error) {
				got = req
				return sampleResponse(), nil
			},
		}
		engine := NewEngine(backend, "sess-1", nil)
		engine.Apply(
			Filters{
				Query:    "transformers",
				Columns:  map[Column][]string{ColumnVenue: {"NeurIPS"}},
				YearFrom: intptr(2015),
			},
			Sort{Field: SortSelected, Desc: true},
			Page{Number: 3, Size: 10},
		)

		if _, err := engine.Fetch(ctx); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if got.Query != "transformers" {
			t.Errorf("query not forwarded: %q", got.Query)
		}
		if got.SortBy != "selected" || !got.SortDesc {
			t.Errorf("sort not forwarded: %+v", got)
		}
		if got.Page != 3 || got.PageSize != 10 {
			t.Errorf("paging not forwarded: page %d size %d", got.Page, got.PageSize)
		}
		if len(got.Columns["venue"]) != 1 || got.Columns["venue"][0] != "NeurIPS" {
			t.Errorf("column filter not forwarded: %v", got.Columns)
		}
		if got.YearFrom == nil || *got.YearFrom != 2015 {
			t.Error("year range not forwarded")
		}
	})

	t.Run("Propagates Backend Failure", func(t *testing.T) {
		backend := &tu.StubBackend{
			ListRowsFunc: func(ctx context.Context, sessionID string, req api.ListRowsRequest) (*api.ListRowsResponse, error) {
				return nil, errors.New("boom")
			},
		}
		engine := NewEngine(backend, "sess-1", nil)

		if _, err := engine.Fetch(ctx); err == nil {
			t.Fatal("expected error")
		}
		if engine.Snapshot() != nil {
			t.Error("failed fetch must not install a snapshot")
		}
	})
}

func TestEngineFilters(t *testing.T) {
	ctx := context.Background()

	newEngine := func() (*Engine, *tu.StubBackend) {
		backend := &tu.StubBackend{
			ListRowsFunc: func(ctx context.Context, sessionID string, req api.ListRowsRequest) (*api.ListRowsResponse, error) {
				return sampleResponse(), nil
			},
		}
		return NewEngine(backend, "sess-1", nil), backend
	}

	t.Run("Filter Change Resets Page", func(t *testing.T) {
		engine, _ := newEngine()
		if _, err := engine.SetPage(ctx, 4); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		if _, err := engine.SetQuery(ctx, "bert"); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if engine.Page().Number != 1 {
			t.Errorf("expected page reset to 1, got %d", engine.Page().Number)
		}
	})

	t.Run("Sort Change Resets Page", func(t *testing.T) {
		engine, _ := newEngine()
		engine.SetPage(ctx, 4)

		engine.SetSort(ctx, "year", true)
		if engine.Page().Number != 1 {
			t.Errorf("expected page reset to 1, got %d", engine.Page().Number)
		}
	})

	t.Run("Clearing Last Column Filter Nils The Map", func(t *testing.T) {
		engine, _ := newEngine()
		engine.SetColumnFilter(ctx, ColumnVenue, []string{"NeurIPS"})
		engine.ClearColumnFilter(ctx, ColumnVenue)

		if engine.Filters().Columns != nil {
			t.Error("expected nil column map after clearing the only filter")
		}
		if !engine.Filters().IsZero() {
			t.Error("expected zero filters")
		}
	})

	t.Run("Empty Value Set Clears The Column", func(t *testing.T) {
		engine, _ := newEngine()
		engine.SetColumnFilter(ctx, ColumnSource, []string{"manual"})
		engine.SetColumnFilter(ctx, ColumnSource, nil)

		if len(engine.Filters().Columns) != 0 {
			t.Errorf("expected no column filters, got %v", engine.Filters().Columns)
		}
	})

	t.Run("ResetFilters Drops Everything", func(t *testing.T) {
		engine, _ := newEngine()
		engine.SetQuery(ctx, "bert")
		engine.SetYearRange(ctx, intptr(2010), intptr(2020))
		engine.SetColumnFilter(ctx, ColumnVenue, []string{"ICML"})
		engine.SetPage(ctx, 2)

		engine.ResetFilters(ctx)
		if !engine.Filters().IsZero() {
			t.Errorf("expected zero filters, got %+v", engine.Filters())
		}
		if engine.Page().Number != 1 {
			t.Errorf("expected page 1, got %d", engine.Page().Number)
		}
	})

	t.Run("Apply Clamps Page And Size", func(t *testing.T) {
		engine, _ := newEngine()
		engine.Apply(Filters{}, Sort{}, Page{Number: 0, Size: -1})
		if engine.Page().Number != 1 || engine.Page().Size != DefaultPageSize {
			t.Errorf("expected clamped page, got %+v", engine.Page())
		}
	})
}

func TestEngineMutations(t *testing.T) {
	ctx := context.Background()

	t.Run("ToggleSelection Refetches After Mutation", func(t *testing.T) {
		backend := &tu.StubBackend{
			ListRowsFunc: func(ctx context.Context, sessionID string, req api.ListRowsRequest) (*api.ListRowsResponse, error) {
				return sampleResponse(), nil
			},
			SelectRowFunc: func(ctx context.Context, sessionID, stagingID string, selected bool) error {
				if stagingID != "row-1" {
					t.Errorf("unexpected staging id %s", stagingID)
				}
				if selected {
					t.Error("expected toggle to deselect the selected row")
				}
				return nil
			},
		}
		engine := NewEngine(backend, "sess-1", nil)
		if _, err := engine.Fetch(ctx); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		if _, err := engine.ToggleSelection(ctx, "row-1"); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		want := []string{"ListRows", "SelectRow", "ListRows"}
		if len(backend.Calls) != len(want) {
			t.Fatalf("expected calls %v, got %v", want, backend.Calls)
		}
		for i := range want {
			if backend.Calls[i] != want[i] {
				t.Fatalf("expected calls %v, got %v", want, backend.Calls)
			}
		}
	})

	t.Run("ToggleSelection Rejects Unknown Row", func(t *testing.T) {
		backend := &tu.StubBackend{
			ListRowsFunc: func(ctx context.Context, sessionID string, req api.ListRowsRequest) (*api.ListRowsResponse, error) {
				return sampleResponse(), nil
			},
		}
		engine := NewEngine(backend, "sess-1", nil)
		engine.Fetch(ctx)

		if _, err := engine.ToggleSelection(ctx, "row-404"); err == nil {
			t.Fatal("expected error for row outside the snapshot")
		}
	})

	t.Run("SelectVisible Sends Current Page Ids", func(t *testing.T) {
		var gotIDs []string
		backend := &tu.StubBackend{
			ListRowsFunc: func(ctx context.Context, sessionID string, req api.ListRowsRequest) (*api.ListRowsResponse, error) {
				return sampleResponse(), nil
			},
			SelectRowsFunc: func(ctx context.Context, sessionID string, stagingIDs []string, selected bool) error {
				gotIDs = stagingIDs
				return nil
			},
		}
		engine := NewEngine(backend, "sess-1", nil)
		engine.Fetch(ctx)

		if _, err := engine.SelectVisible(ctx, true); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if len(gotIDs) != 2 || gotIDs[0] != "row-1" || gotIDs[1] != "row-2" {
			t.Errorf("expected both visible ids, got %v", gotIDs)
		}
	})

	t.Run("Failed Mutation Skips Refetch", func(t *testing.T) {
		backend := &tu.StubBackend{
			ListRowsFunc: func(ctx context.Context, sessionID string, req api.ListRowsRequest) (*api.ListRowsResponse, error) {
				return sampleResponse(), nil
			},
			DeleteRowFunc: func(ctx context.Context, sessionID, stagingID string) error {
				return errors.New("boom")
			},
		}
		engine := NewEngine(backend, "sess-1", nil)
		engine.Fetch(ctx)

		if _, err := engine.RemoveRow(ctx, "row-1"); err == nil {
			t.Fatal("expected error")
		}
		for _, call := range backend.Calls[1:] {
			if call == "ListRows" {
				t.Error("failed mutation must not trigger a refetch")
			}
		}
	})

	t.Run("CheckRetractions Returns Summary And Refetches", func(t *testing.T) {
		backend := &tu.StubBackend{
			ListRowsFunc: func(ctx context.Context, sessionID string, req api.ListRowsRequest) (*api.ListRowsResponse, error) {
				return sampleResponse(), nil
			},
			CheckRetractionFunc: func(ctx context.Context, sessionID string, stagingIDs []string) (*api.RetractionCheckResponse, error) {
				return &api.RetractionCheckResponse{Checked: 2, Retracted: 1}, nil
			},
		}
		engine := NewEngine(backend, "sess-1", nil)

		resp, snap, err := engine.CheckRetractions(ctx, nil)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if resp.Checked != 2 || resp.Retracted != 1 {
			t.Errorf("unexpected summary %+v", resp)
		}
		if snap == nil {
			t.Error("expected refetched snapshot")
		}
	})
}

func TestSnapshotClassify(t *testing.T) {
	t.Run("Nil Snapshot", func(t *testing.T) {
		var snap *Snapshot
		if snap.Classify() != EmptyNoRowsStaged {
			t.Error("nil snapshot should classify as nothing staged")
		}
	})

	t.Run("Nothing Staged", func(t *testing.T) {
		snap := &Snapshot{TotalRows: 0, TotalFiltered: 0}
		if snap.Classify() != EmptyNoRowsStaged {
			t.Error("expected EmptyNoRowsStaged")
		}
	})

	t.Run("Filters Match Nothing", func(t *testing.T) {
		snap := &Snapshot{TotalRows: 12, TotalFiltered: 0}
		if snap.Classify() != EmptyNoFilterMatch {
			t.Error("expected EmptyNoFilterMatch")
		}
	})

	t.Run("Rows Present", func(t *testing.T) {
		snap := &Snapshot{TotalRows: 12, TotalFiltered: 5}
		if snap.Classify() != EmptyNone {
			t.Error("expected EmptyNone")
		}
	})
}

func TestSnapshotColumnOptions(t *testing.T) {
	snap := &Snapshot{
		Rows: []Row{
			{StagingID: "a", Venue: "NeurIPS"},
			{StagingID: "b", Venue: "ICML"},
			{StagingID: "c", Venue: "NeurIPS"},
			{StagingID: "d"},
		},
	}

	options := snap.ColumnOptions(ColumnVenue)
	if len(options) != 2 {
		t.Fatalf("expected 2 distinct venues, got %v", options)
	}
	if options[0] != "ICML" || options[1] != "NeurIPS" {
		t.Errorf("expected sorted options, got %v", options)
	}
}

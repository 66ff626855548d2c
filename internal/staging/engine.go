package staging

import (
	"context"
	"fmt"

	"github.com/charmbracelet/log"
	"github.com/imanmossavat/litstage/internal/api"
)

// Backend is the slice of the API client the engine depends on.
type Backend interface {
	ListRows(ctx context.Context, sessionID string, req api.ListRowsRequest) (*api.ListRowsResponse, error)
	PatchRow(ctx context.Context, sessionID, stagingID string, fields map[string]*string) error
	DeleteRow(ctx context.Context, sessionID, stagingID string) error
	SelectRow(ctx context.Context, sessionID, stagingID string, selected bool) error
	SelectRows(ctx context.Context, sessionID string, stagingIDs []string, selected bool) error
	CheckRetractions(ctx context.Context, sessionID string, stagingIDs []string) (*api.RetractionCheckResponse, error)
}

// DefaultPageSize is used until the view configures its own.
const DefaultPageSize = 25

// Engine holds the authoritative client-side view of one session's staged
// rows.
//
// The engine is owned by a single UI loop and is not safe for concurrent
// use. Every mutating operation awaits the server's response before issuing
// the refetch, so a fetch started after a mutation always observes that
// mutation's effect.
type Engine struct {
	backend   Backend
	sessionID string
	logger    *log.Logger

	filters  Filters
	sort     Sort
	page     Page
	snapshot *Snapshot
	editing  *Edit
}

// NewEngine creates an Engine bound to one session.
func NewEngine(backend Backend, sessionID string, logger *log.Logger) *Engine {
	return &Engine{
		backend:   backend,
		sessionID: sessionID,
		logger:    logger,
		page:      Page{Number: 1, Size: DefaultPageSize},
	}
}

// SessionID returns the session this engine is bound to.
func (e *Engine) SessionID() string { return e.sessionID }

// Snapshot returns the last fetched snapshot, nil before the first fetch.
func (e *Engine) Snapshot() *Snapshot { return e.snapshot }

// Filters returns the active filters.
func (e *Engine) Filters() Filters { return e.filters }

// Sort returns the active sort.
func (e *Engine) Sort() Sort { return e.sort }

// Page returns the current page cursor.
func (e *Engine) Page() Page { return e.page }

// Apply sets all view parameters at once without fetching. One-shot callers
// (the CLI list command) use it to avoid a refetch per parameter; interactive
// callers use the individual setters, which keep the page cursor honest.
func (e *Engine) Apply(f Filters, s Sort, p Page) {
	e.filters = f
	e.sort = s
	if p.Number < 1 {
		p.Number = 1
	}
	if p.Size < 1 {
		p.Size = DefaultPageSize
	}
	e.page = p
}

// Fetch retrieves a fresh snapshot under the current view parameters. The
// returned snapshot fully replaces the previous one; the engine never merges
// incrementally.
func (e *Engine) Fetch(ctx context.Context) (*Snapshot, error) {
	req := api.ListRowsRequest{
		Query:    e.filters.Query,
		YearFrom: e.filters.YearFrom,
		YearTo:   e.filters.YearTo,
		SortBy:   e.sort.Field,
		SortDesc: e.sort.Desc,
		Page:     e.page.Number,
		PageSize: e.page.Size,
	}
	if len(e.filters.Columns) > 0 {
		req.Columns = make(map[string][]string, len(e.filters.Columns))
		for col, values := range e.filters.Columns {
			req.Columns[string(col)] = values
		}
	}

	resp, err := e.backend.ListRows(ctx, e.sessionID, req)
	if err != nil {
		return nil, err
	}

	snap := &Snapshot{
		Rows:          make([]Row, 0, len(resp.Rows)),
		TotalRows:     resp.TotalRows,
		TotalFiltered: resp.TotalFiltered,
		Stats: Stats{
			Selected: resp.Stats.Selected,
			BySource: make(map[Source]int, len(resp.Stats.BySource)),
		},
	}
	for _, w := range resp.Rows {
		snap.Rows = append(snap.Rows, rowFromWire(w))
	}
	for src, n := range resp.Stats.BySource {
		snap.Stats.BySource[Source(src)] = n
	}

	e.snapshot = snap
	return snap, nil
}

// SetSort changes the sort key and refetches from page 1.
func (e *Engine) SetSort(ctx context.Context, field string, desc bool) (*Snapshot, error) {
	e.sort = Sort{Field: field, Desc: desc}
	e.page.Number = 1
	return e.Fetch(ctx)
}

// SetPage moves the page cursor and refetches.
func (e *Engine) SetPage(ctx context.Context, number int) (*Snapshot, error) {
	if number < 1 {
		number = 1
	}
	e.page.Number = number
	return e.Fetch(ctx)
}

// SetPageSize changes the page size and refetches from page 1.
func (e *Engine) SetPageSize(ctx context.Context, size int) (*Snapshot, error) {
	if size < 1 {
		size = DefaultPageSize
	}
	e.page = Page{Number: 1, Size: size}
	return e.Fetch(ctx)
}

// SetQuery sets the free-text filter and refetches from page 1.
func (e *Engine) SetQuery(ctx context.Context, query string) (*Snapshot, error) {
	e.filters.Query = query
	e.page.Number = 1
	return e.Fetch(ctx)
}

// SetColumnFilter replaces one column's value set and refetches from page 1.
// An empty value set clears the column's filter.
func (e *Engine) SetColumnFilter(ctx context.Context, col Column, values []string) (*Snapshot, error) {
	if len(values) == 0 {
		return e.ClearColumnFilter(ctx, col)
	}
	if e.filters.Columns == nil {
		e.filters.Columns = map[Column][]string{}
	}
	e.filters.Columns[col] = values
	e.page.Number = 1
	return e.Fetch(ctx)
}

// SetYearRange sets the numeric from/to filter and refetches from page 1.
func (e *Engine) SetYearRange(ctx context.Context, from, to *int) (*Snapshot, error) {
	e.filters.YearFrom = from
	e.filters.YearTo = to
	e.page.Number = 1
	return e.Fetch(ctx)
}

// ClearColumnFilter removes one column's filter and refetches from page 1.
func (e *Engine) ClearColumnFilter(ctx context.Context, col Column) (*Snapshot, error) {
	delete(e.filters.Columns, col)
	if len(e.filters.Columns) == 0 {
		e.filters.Columns = nil
	}
	e.page.Number = 1
	return e.Fetch(ctx)
}

// ClearAllColumnFilters removes every column filter (keeping the free-text
// query and year range) and refetches from page 1.
func (e *Engine) ClearAllColumnFilters(ctx context.Context) (*Snapshot, error) {
	e.filters.Columns = nil
	e.page.Number = 1
	return e.Fetch(ctx)
}

// ResetFilters drops every filter and refetches from page 1. Changing
// filters while deep into the pages must never leave the user on an
// out-of-range page of a now-smaller result set.
func (e *Engine) ResetFilters(ctx context.Context) (*Snapshot, error) {
	e.filters = Filters{}
	e.page.Number = 1
	return e.Fetch(ctx)
}

// ToggleSelection flips one row's selection flag on the server and then
// refetches. Selection is never assumed locally ahead of the server's
// confirmation.
func (e *Engine) ToggleSelection(ctx context.Context, stagingID string) (*Snapshot, error) {
	row, ok := e.findRow(stagingID)
	if !ok {
		return nil, fmt.Errorf("row %s is not in the current snapshot", stagingID)
	}

	if err := e.backend.SelectRow(ctx, e.sessionID, stagingID, !row.Selected); err != nil {
		return nil, err
	}
	return e.Fetch(ctx)
}

// SelectVisible sets the selection flag on every row of the current page,
// then refetches.
func (e *Engine) SelectVisible(ctx context.Context, selectAll bool) (*Snapshot, error) {
	if e.snapshot == nil || len(e.snapshot.Rows) == 0 {
		return e.Fetch(ctx)
	}

	ids := make([]string, 0, len(e.snapshot.Rows))
	for _, row := range e.snapshot.Rows {
		ids = append(ids, row.StagingID)
	}
	if err := e.backend.SelectRows(ctx, e.sessionID, ids, selectAll); err != nil {
		return nil, err
	}
	return e.Fetch(ctx)
}

// RemoveRow deletes a staged row and refetches.
func (e *Engine) RemoveRow(ctx context.Context, stagingID string) (*Snapshot, error) {
	if err := e.backend.DeleteRow(ctx, e.sessionID, stagingID); err != nil {
		return nil, err
	}
	return e.Fetch(ctx)
}

// CheckRetractions sweeps the given rows (all staged rows when ids is empty)
// against the retraction index, then refetches so the flags are observed
// from the server.
func (e *Engine) CheckRetractions(ctx context.Context, stagingIDs []string) (*api.RetractionCheckResponse, *Snapshot, error) {
	resp, err := e.backend.CheckRetractions(ctx, e.sessionID, stagingIDs)
	if err != nil {
		return nil, nil, err
	}
	snap, err := e.Fetch(ctx)
	if err != nil {
		return resp, nil, err
	}
	return resp, snap, nil
}

// Refresh is the adapter-facing refetch callback: import adapters call it
// after their own request cycle succeeds, so added rows are observed only
// through the engine.
func (e *Engine) Refresh(ctx context.Context) error {
	_, err := e.Fetch(ctx)
	return err
}

// findRow looks a row up in the current snapshot.
func (e *Engine) findRow(stagingID string) (Row, bool) {
	if e.snapshot == nil {
		return Row{}, false
	}
	for _, row := range e.snapshot.Rows {
		if row.StagingID == stagingID {
			return row, true
		}
	}
	return Row{}, false
}

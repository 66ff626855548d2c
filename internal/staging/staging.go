// package staging implements the client-held, server-backed working set of
// candidate papers.
//
// The engine owns the view parameters (filters, sort, page) and the last
// fetched snapshot. Every mutation goes to the server first and is observed
// only through the refetch that follows; the engine never merges local edits
// into the displayed rows, so the view can never show a mix of stale and
// fresh state.
package staging

import (
	"sort"
	"strconv"
	"strings"

	"github.com/imanmossavat/litstage/internal/api"
	"github.com/imanmossavat/litstage/internal/shared"
)

// Source tags where a staged row came from.
type Source string

const (
	SourceManual    Source = "manual"
	SourceReference Source = "reference"
	SourceDocument  Source = "document"
)

// Retraction is the outcome of a retraction check; unknown until a sweep has
// run over the row.
type Retraction string

const (
	RetractionUnknown   Retraction = "unknown"
	RetractionClear     Retraction = "clear"
	RetractionRetracted Retraction = "retracted"
)

// Column names a filterable/editable staging column.
type Column string

const (
	ColumnTitle      Column = "title"
	ColumnAuthors    Column = "authors"
	ColumnYear       Column = "year"
	ColumnVenue      Column = "venue"
	ColumnIdentifier Column = "identifier"
	ColumnURL        Column = "url"
	ColumnSource     Column = "source"
)

// EditableColumns lists the columns inline editing may change.
var EditableColumns = []Column{ColumnTitle, ColumnAuthors, ColumnYear, ColumnVenue, ColumnIdentifier, ColumnURL}

// SortSelected is the synthetic sort field that orders selected rows first
// (descending) or last (ascending) without a real column behind it.
const SortSelected = "selected"

// Row is one candidate paper as displayed. All metadata fields are optional;
// absent values render as empty strings. Authors are joined with "; " for
// display and editing.
type Row struct {
	StagingID  string
	Source     Source
	Title      string
	Authors    string
	Year       *int
	Venue      string
	Identifier string
	URL        string
	Selected   bool
	Retraction Retraction
}

// YearString renders the year for display and editing.
func (r Row) YearString() string {
	if r.Year == nil {
		return ""
	}
	return strconv.Itoa(*r.Year)
}

// Field returns the row's display value for an editable column.
func (r Row) Field(col Column) string {
	switch col {
	case ColumnTitle:
		return r.Title
	case ColumnAuthors:
		return r.Authors
	case ColumnYear:
		return r.YearString()
	case ColumnVenue:
		return r.Venue
	case ColumnIdentifier:
		return r.Identifier
	case ColumnURL:
		return r.URL
	case ColumnSource:
		return string(r.Source)
	}
	return ""
}

// rowFromWire converts the API payload into a display row.
func rowFromWire(w api.StagingRow) Row {
	row := Row{
		StagingID: w.StagingID,
		Source:    Source(w.Source),
		Authors:   strings.Join(w.Authors, "; "),
		Year:      w.Year,
		Selected:  w.Selected,
	}
	if w.Title != nil {
		row.Title = *w.Title
	}
	if w.Venue != nil {
		row.Venue = *w.Venue
	}
	if w.Identifier != nil {
		row.Identifier = *w.Identifier
	}
	if w.URL != nil {
		row.URL = *w.URL
	}
	row.Retraction = Retraction(w.Retraction)
	if row.Retraction == "" {
		row.Retraction = RetractionUnknown
	}
	return row
}

// Filters are the client-only view parameters over the staged set.
type Filters struct {
	Query    string
	Columns  map[Column][]string
	YearFrom *int
	YearTo   *int
}

// IsZero reports whether no filter is active.
func (f Filters) IsZero() bool {
	return f.Query == "" && len(f.Columns) == 0 && f.YearFrom == nil && f.YearTo == nil
}

// Sort is a sort key plus direction. Field may be [SortSelected].
type Sort struct {
	Field string
	Desc  bool
}

// Page is a page cursor. Numbers start at 1.
type Page struct {
	Number int
	Size   int
}

// Stats aggregates counts over the full staged set, independent of filters.
type Stats struct {
	Selected int
	BySource map[Source]int
}

// Snapshot is the engine's authoritative view after a fetch: one page of rows
// plus the totals needed to classify empty states.
type Snapshot struct {
	Rows          []Row
	TotalRows     int
	TotalFiltered int
	Stats         Stats
}

// EmptyState distinguishes "nothing staged yet" from "filters match nothing".
// The former routes the user to import actions, the latter to filter resets;
// conflating them sends the user to the wrong remedy.
type EmptyState int

const (
	EmptyNone EmptyState = iota
	EmptyNoRowsStaged
	EmptyNoFilterMatch
)

// Classify returns the snapshot's empty state.
func (s *Snapshot) Classify() EmptyState {
	switch {
	case s == nil || s.TotalRows == 0:
		return EmptyNoRowsStaged
	case s.TotalFiltered == 0:
		return EmptyNoFilterMatch
	default:
		return EmptyNone
	}
}

// ColumnOptions derives the selectable distinct values for a column from the
// rows currently loaded. The list reflects what is visible now, not the
// global distinct set; that trade-off saves a server round trip per column.
func (s *Snapshot) ColumnOptions(col Column) []string {
	if s == nil {
		return nil
	}
	seen := map[string]bool{}
	var options []string
	for _, row := range s.Rows {
		v := row.Field(col)
		if v == "" || seen[v] {
			continue
		}
		seen[v] = true
		options = append(options, v)
	}
	sort.Strings(options)
	return options
}

// validateYear checks an edited year value. Empty is allowed (it unsets the
// field).
func validateYear(v string) error {
	if v == "" {
		return nil
	}
	if _, err := strconv.Atoi(v); err != nil {
		return shared.ErrInvalidInput
	}
	return nil
}

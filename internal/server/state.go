package server

import (
	"fmt"
	"net/http"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/imanmossavat/litstage/internal/api"
	"github.com/imanmossavat/litstage/internal/session"
	"github.com/imanmossavat/litstage/internal/shared"
)

// apiError carries an HTTP status alongside the detail message written to the
// response body.
type apiError struct {
	Status int
	Detail string
}

func (e *apiError) Error() string { return e.Detail }

func errNotFound(format string, args ...any) *apiError {
	return &apiError{Status: http.StatusNotFound, Detail: fmt.Sprintf(format, args...)}
}

func errBadRequest(format string, args ...any) *apiError {
	return &apiError{Status: http.StatusBadRequest, Detail: fmt.Sprintf(format, args...)}
}

// workflowSession is one session's server-side state.
type workflowSession struct {
	info       api.SessionInfo
	rows       []*api.StagingRow
	uploads    map[string]string               // upload id -> filename
	candidates map[string]*api.DocumentCandidate
	candOrder  []string
	confirmed  map[string]bool // staging ids with confirmed matches
	libraryID  string          // set for library-edit sessions
}

// library pairs the wire representation with its committed papers.
type library struct {
	api.Library
	papers []api.ExternalRecord
}

// Store is the backend's in-memory state.
//
// All data is seeded deterministically so repeated runs against the same
// store produce the same partitions. The failure-mode toggles exist for the
// client's end-to-end tests: expiring a session reproduces the recovery path
// and flipping the extraction outage reproduces the guided-failure path.
type Store struct {
	mu          sync.Mutex
	sessions    map[string]*workflowSession
	libraries   map[string]*library
	index       []api.ExternalRecord
	retracted   map[string]bool
	collections map[string][]api.ExternalRecord
	credentials map[string]map[string]string

	extractionDown bool
}

// NewStore creates a Store seeded with the fixed metadata index,
// reference-manager collections, and retraction list.
func NewStore() *Store {
	s := &Store{
		sessions:    map[string]*workflowSession{},
		libraries:   map[string]*library{},
		retracted:   map[string]bool{},
		collections: map[string][]api.ExternalRecord{},
		credentials: map[string]map[string]string{},
	}
	s.seed()
	return s
}

func (s *Store) seed() {
	s.index = []api.ExternalRecord{
		{IndexID: "idx-001", Title: "Attention Is All You Need", Authors: []string{"Vaswani, A.", "Shazeer, N.", "Parmar, N."}, Year: 2017, Venue: "NeurIPS", Identifier: "10.5555/3295222.3295349", URL: "https://example.org/papers/attention", CitedBy: 91000},
		{IndexID: "idx-002", Title: "Deep Residual Learning for Image Recognition", Authors: []string{"He, K.", "Zhang, X.", "Ren, S.", "Sun, J."}, Year: 2016, Venue: "CVPR", Identifier: "10.1109/cvpr.2016.90", URL: "https://example.org/papers/resnet", CitedBy: 180000},
		{IndexID: "idx-003", Title: "MapReduce: Simplified Data Processing on Large Clusters", Authors: []string{"Dean, J.", "Ghemawat, S."}, Year: 2004, Venue: "OSDI", Identifier: "10.1145/1327452.1327492", URL: "https://example.org/papers/mapreduce", CitedBy: 24000},
		{IndexID: "idx-004", Title: "The Chubby Lock Service for Loosely-Coupled Distributed Systems", Authors: []string{"Burrows, M."}, Year: 2006, Venue: "OSDI", Identifier: "10.5555/1298455.1298487", URL: "https://example.org/papers/chubby", CitedBy: 3100},
		{IndexID: "idx-005", Title: "Dynamo: Amazon's Highly Available Key-value Store", Authors: []string{"DeCandia, G.", "Hastorun, D.", "Jampani, M."}, Year: 2007, Venue: "SOSP", Identifier: "10.1145/1294261.1294281", URL: "https://example.org/papers/dynamo", CitedBy: 8900},
		{IndexID: "idx-006", Title: "Generative Adversarial Networks", Authors: []string{"Goodfellow, I.", "Pouget-Abadie, J.", "Mirza, M."}, Year: 2014, Venue: "NeurIPS", Identifier: "10.48550/arxiv.1406.2661", URL: "https://example.org/papers/gan", CitedBy: 60000},
		{IndexID: "idx-007", Title: "In Search of an Understandable Consensus Algorithm", Authors: []string{"Ongaro, D.", "Ousterhout, J."}, Year: 2014, Venue: "USENIX ATC", Identifier: "10.5555/2643634.2643666", URL: "https://example.org/papers/raft", CitedBy: 5200},
		{IndexID: "idx-008", Title: "Primary Cilia Dysfunction in Neural Progenitors", Authors: []string{"Alvarez, R.", "Kim, S."}, Year: 2019, Venue: "Cell Reports", Identifier: "10.1016/j.celrep.2019.0042", URL: "https://example.org/papers/cilia", CitedBy: 140},
	}

	// idx-008 is the seeded retraction, so a sweep always flags something.
	s.retracted["10.1016/j.celrep.2019.0042"] = true

	s.collections["col-ml"] = []api.ExternalRecord{s.index[0], s.index[1], s.index[5]}
	s.collections["col-systems"] = []api.ExternalRecord{s.index[2], s.index[4], s.index[6]}
}

// ExpireSession drops a session so subsequent calls see "session not found".
func (s *Store) ExpireSession(sessionID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, sessionID)
}

// SetExtractionDown toggles the extraction-service outage.
func (s *Store) SetExtractionDown(down bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.extractionDown = down
}

// lookup returns a live session. Callers hold s.mu. Missing, expired, and
// finalized sessions are indistinguishable to clients.
func (s *Store) lookup(sessionID string) (*workflowSession, *apiError) {
	ws, ok := s.sessions[sessionID]
	if !ok {
		return nil, errNotFound("session not found")
	}
	return ws, nil
}

func (s *Store) findRow(ws *workflowSession, stagingID string) (*api.StagingRow, *apiError) {
	for _, r := range ws.rows {
		if r.StagingID == stagingID {
			return r, nil
		}
	}
	return nil, errNotFound("row not found: %s", stagingID)
}

// resolve reconciles one row against the metadata index. Identifier match
// wins over the normalized-title match.
func (s *Store) resolve(row *api.StagingRow) (*api.ExternalRecord, float64, string) {
	if row.Identifier != nil && *row.Identifier != "" {
		want := strings.ToLower(*row.Identifier)
		for i := range s.index {
			if strings.ToLower(s.index[i].Identifier) == want {
				return &s.index[i], 1.0, "identifier"
			}
		}
	}
	if row.Title != nil && *row.Title != "" {
		want := shared.NormalizeTitleKey(*row.Title)
		for i := range s.index {
			if shared.NormalizeTitleKey(s.index[i].Title) == want {
				return &s.index[i], 0.9, "title"
			}
		}
	}
	return nil, 0, ""
}

func unmatchedReason(row *api.StagingRow) string {
	if (row.Identifier == nil || *row.Identifier == "") && (row.Title == nil || *row.Title == "") {
		return "row has neither identifier nor title"
	}
	return "no index record matched"
}

// hasIdentifier reports whether the session already stages this identifier.
func hasIdentifier(ws *workflowSession, identifier string) bool {
	for _, r := range ws.rows {
		if r.Identifier != nil && strings.EqualFold(*r.Identifier, identifier) {
			return true
		}
	}
	return false
}

func rowFromRecord(rec api.ExternalRecord, source string) *api.StagingRow {
	title := rec.Title
	venue := rec.Venue
	identifier := rec.Identifier
	url := rec.URL
	year := rec.Year
	authors := append([]string(nil), rec.Authors...)
	return &api.StagingRow{
		StagingID:  shared.GenerateID(),
		Source:     source,
		Title:      &title,
		Authors:    authors,
		Year:       &year,
		Venue:      &venue,
		Identifier: &identifier,
		URL:        &url,
		Retraction: "unknown",
	}
}

// StartSession creates a session tagged with the given use case.
func (s *Store) StartSession(useCase string) (*api.SessionInfo, error) {
	if _, err := session.ParseUseCase(useCase); err != nil {
		return nil, errBadRequest("unknown use case: %s", useCase)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	ws := &workflowSession{
		info: api.SessionInfo{
			SessionID: shared.GenerateID(),
			UseCase:   useCase,
			CreatedAt: time.Now().UTC().Format(time.RFC3339),
		},
		uploads:    map[string]string{},
		candidates: map[string]*api.DocumentCandidate{},
		confirmed:  map[string]bool{},
	}
	s.sessions[ws.info.SessionID] = ws
	return &ws.info, nil
}

// GetSession returns the backend's view of a session.
func (s *Store) GetSession(sessionID string) (*api.SessionInfo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ws, apiErr := s.lookup(sessionID)
	if apiErr != nil {
		return nil, apiErr
	}
	info := ws.info
	return &info, nil
}

// FinalizeSession ends a session; unconfirmed staged rows are discarded with it.
func (s *Store) FinalizeSession(sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, apiErr := s.lookup(sessionID); apiErr != nil {
		return apiErr
	}
	delete(s.sessions, sessionID)
	return nil
}

// CancelSession abandons a session.
func (s *Store) CancelSession(sessionID string) error {
	return s.FinalizeSession(sessionID)
}

// ListRows applies the view parameters and returns one page plus totals.
func (s *Store) ListRows(sessionID string, req api.ListRowsRequest) (*api.ListRowsResponse, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ws, apiErr := s.lookup(sessionID)
	if apiErr != nil {
		return nil, apiErr
	}

	stats := api.RowStats{BySource: map[string]int{}}
	for _, r := range ws.rows {
		if r.Selected {
			stats.Selected++
		}
		stats.BySource[r.Source]++
	}

	filtered := make([]*api.StagingRow, 0, len(ws.rows))
	for _, r := range ws.rows {
		if matchesFilters(r, req) {
			filtered = append(filtered, r)
		}
	}
	sortRows(filtered, req.SortBy, req.SortDesc)

	page, size := req.Page, req.PageSize
	if page < 1 {
		page = 1
	}
	if size < 1 {
		size = 25
	}
	start := (page - 1) * size
	end := start + size
	if start > len(filtered) {
		start = len(filtered)
	}
	if end > len(filtered) {
		end = len(filtered)
	}

	resp := &api.ListRowsResponse{
		Rows:          make([]api.StagingRow, 0, end-start),
		TotalRows:     len(ws.rows),
		TotalFiltered: len(filtered),
		Stats:         stats,
	}
	for _, r := range filtered[start:end] {
		resp.Rows = append(resp.Rows, *r)
	}
	return resp, nil
}

func rowField(r *api.StagingRow, col string) string {
	switch col {
	case "title":
		return deref(r.Title)
	case "authors":
		return strings.Join(r.Authors, "; ")
	case "year":
		if r.Year == nil {
			return ""
		}
		return strconv.Itoa(*r.Year)
	case "venue":
		return deref(r.Venue)
	case "identifier":
		return deref(r.Identifier)
	case "url":
		return deref(r.URL)
	case "source":
		return r.Source
	}
	return ""
}

func deref(p *string) string {
	if p == nil {
		return ""
	}
	return *p
}

func matchesFilters(r *api.StagingRow, req api.ListRowsRequest) bool {
	if q := strings.ToLower(strings.TrimSpace(req.Query)); q != "" {
		haystack := strings.ToLower(strings.Join([]string{
			deref(r.Title), strings.Join(r.Authors, "; "), deref(r.Venue), deref(r.Identifier),
		}, " "))
		if !strings.Contains(haystack, q) {
			return false
		}
	}

	for col, values := range req.Columns {
		if len(values) == 0 {
			continue
		}
		got := rowField(r, col)
		ok := false
		for _, v := range values {
			if got == v {
				ok = true
				break
			}
		}
		if !ok {
			return false
		}
	}

	if req.YearFrom != nil && (r.Year == nil || *r.Year < *req.YearFrom) {
		return false
	}
	if req.YearTo != nil && (r.Year == nil || *r.Year > *req.YearTo) {
		return false
	}
	return true
}

// sortRows orders rows in place. "selected" is synthetic: descending puts
// selected rows first. Rows without a year sort after rows with one.
func sortRows(rows []*api.StagingRow, sortBy string, desc bool) {
	if sortBy == "" {
		return
	}
	less := func(a, b *api.StagingRow) bool {
		switch sortBy {
		case "selected":
			if a.Selected != b.Selected {
				return !a.Selected // ascending: unselected first
			}
			return false
		case "year":
			switch {
			case a.Year == nil && b.Year == nil:
				return false
			case a.Year == nil:
				return false
			case b.Year == nil:
				return true
			default:
				return *a.Year < *b.Year
			}
		default:
			return strings.ToLower(rowField(a, sortBy)) < strings.ToLower(rowField(b, sortBy))
		}
	}
	sort.SliceStable(rows, func(i, j int) bool {
		if desc {
			return less(rows[j], rows[i])
		}
		return less(rows[i], rows[j])
	})
}

// PatchRow applies a partial update; a nil field value unsets the field.
func (s *Store) PatchRow(sessionID, stagingID string, fields map[string]*string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	ws, apiErr := s.lookup(sessionID)
	if apiErr != nil {
		return apiErr
	}
	row, apiErr := s.findRow(ws, stagingID)
	if apiErr != nil {
		return apiErr
	}

	for col, v := range fields {
		switch col {
		case "title":
			row.Title = cloned(v)
		case "venue":
			row.Venue = cloned(v)
		case "identifier":
			row.Identifier = cloned(v)
		case "url":
			row.URL = cloned(v)
		case "authors":
			if v == nil {
				row.Authors = nil
			} else {
				parts := strings.Split(*v, ";")
				authors := make([]string, 0, len(parts))
				for _, p := range parts {
					if p = strings.TrimSpace(p); p != "" {
						authors = append(authors, p)
					}
				}
				row.Authors = authors
			}
		case "year":
			if v == nil {
				row.Year = nil
			} else {
				y, err := strconv.Atoi(*v)
				if err != nil {
					return errBadRequest("year is not a number: %q", *v)
				}
				row.Year = &y
			}
		default:
			return errBadRequest("field is not editable: %s", col)
		}
	}

	// Metadata changed; any previous confirmation is void.
	delete(ws.confirmed, stagingID)
	return nil
}

func cloned(v *string) *string {
	if v == nil {
		return nil
	}
	c := *v
	return &c
}

// DeleteRow removes a staged row.
func (s *Store) DeleteRow(sessionID, stagingID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	ws, apiErr := s.lookup(sessionID)
	if apiErr != nil {
		return apiErr
	}
	for i, r := range ws.rows {
		if r.StagingID == stagingID {
			ws.rows = append(ws.rows[:i], ws.rows[i+1:]...)
			delete(ws.confirmed, stagingID)
			return nil
		}
	}
	return errNotFound("row not found: %s", stagingID)
}

// SelectRows sets the selection flag on the given rows, or a single row when
// exactly one id is passed.
func (s *Store) SelectRows(sessionID string, stagingIDs []string, selected bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	ws, apiErr := s.lookup(sessionID)
	if apiErr != nil {
		return apiErr
	}
	for _, id := range stagingIDs {
		row, apiErr := s.findRow(ws, id)
		if apiErr != nil {
			return apiErr
		}
		row.Selected = selected
	}
	return nil
}

// CheckRetractions sweeps the given rows (all rows when ids is empty) against
// the retraction list and stamps the outcome onto each row.
func (s *Store) CheckRetractions(sessionID string, stagingIDs []string) (*api.RetractionCheckResponse, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ws, apiErr := s.lookup(sessionID)
	if apiErr != nil {
		return nil, apiErr
	}

	targets := ws.rows
	if len(stagingIDs) > 0 {
		targets = targets[:0:0]
		for _, id := range stagingIDs {
			row, apiErr := s.findRow(ws, id)
			if apiErr != nil {
				return nil, apiErr
			}
			targets = append(targets, row)
		}
	}

	resp := &api.RetractionCheckResponse{}
	for _, row := range targets {
		resp.Checked++
		if row.Identifier != nil && s.retracted[strings.ToLower(*row.Identifier)] {
			row.Retraction = "retracted"
			resp.Retracted++
		} else {
			row.Retraction = "clear"
		}
	}
	return resp, nil
}

// Match partitions rows into matched and unmatched. An empty id list means
// the session's currently selected rows.
func (s *Store) Match(sessionID string, stagingIDs []string) (*api.MatchResponse, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ws, apiErr := s.lookup(sessionID)
	if apiErr != nil {
		return nil, apiErr
	}

	var targets []*api.StagingRow
	if len(stagingIDs) == 0 {
		for _, r := range ws.rows {
			if r.Selected {
				targets = append(targets, r)
			}
		}
	} else {
		for _, id := range stagingIDs {
			row, apiErr := s.findRow(ws, id)
			if apiErr != nil {
				return nil, apiErr
			}
			targets = append(targets, row)
		}
	}

	resp := &api.MatchResponse{}
	for _, row := range targets {
		rec, score, method := s.resolve(row)
		if rec == nil {
			resp.Unmatched = append(resp.Unmatched, api.UnmatchedRow{Row: *row, Reason: unmatchedReason(row)})
			continue
		}
		resp.Matched = append(resp.Matched, api.MatchedRow{Row: *row, Score: score, Method: method, Record: *rec})
	}
	return resp, nil
}

// ConfirmMatches records the confirmation of matched rows.
func (s *Store) ConfirmMatches(sessionID string, stagingIDs []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	ws, apiErr := s.lookup(sessionID)
	if apiErr != nil {
		return apiErr
	}
	for _, id := range stagingIDs {
		row, apiErr := s.findRow(ws, id)
		if apiErr != nil {
			return apiErr
		}
		if rec, _, _ := s.resolve(row); rec == nil {
			return errBadRequest("row %s has no match to confirm", id)
		}
		ws.confirmed[id] = true
	}
	return nil
}

// Rematch re-resolves a single row.
func (s *Store) Rematch(sessionID, stagingID string) (*api.RematchResponse, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ws, apiErr := s.lookup(sessionID)
	if apiErr != nil {
		return nil, apiErr
	}
	row, apiErr := s.findRow(ws, stagingID)
	if apiErr != nil {
		return nil, apiErr
	}

	rec, score, method := s.resolve(row)
	if rec == nil {
		return &api.RematchResponse{Matched: false, Reason: unmatchedReason(row)}, nil
	}
	return &api.RematchResponse{Matched: true, Score: score, Method: method, Record: rec}, nil
}

// ImportIdentifiers stages one row per previously unseen identifier.
func (s *Store) ImportIdentifiers(sessionID string, identifiers []string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ws, apiErr := s.lookup(sessionID)
	if apiErr != nil {
		return 0, apiErr
	}
	if len(identifiers) == 0 {
		return 0, errBadRequest("no identifiers provided")
	}

	added := 0
	for _, identifier := range identifiers {
		identifier = strings.TrimSpace(identifier)
		if identifier == "" || hasIdentifier(ws, identifier) {
			continue
		}

		var row *api.StagingRow
		if rec := s.recordByIdentifier(identifier); rec != nil {
			row = rowFromRecord(*rec, "manual")
		} else {
			id := identifier
			row = &api.StagingRow{StagingID: shared.GenerateID(), Source: "manual", Identifier: &id, Retraction: "unknown"}
		}
		ws.rows = append(ws.rows, row)
		added++
	}
	return added, nil
}

func (s *Store) recordByIdentifier(identifier string) *api.ExternalRecord {
	want := strings.ToLower(identifier)
	for i := range s.index {
		if strings.ToLower(s.index[i].Identifier) == want {
			return &s.index[i]
		}
	}
	return nil
}

// ImportCollection stages every previously unseen record of a collection.
func (s *Store) ImportCollection(sessionID, collectionID string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ws, apiErr := s.lookup(sessionID)
	if apiErr != nil {
		return 0, apiErr
	}
	records, ok := s.collections[collectionID]
	if !ok {
		return 0, errNotFound("collection not found: %s", collectionID)
	}

	added := 0
	for _, rec := range records {
		if hasIdentifier(ws, rec.Identifier) {
			continue
		}
		ws.rows = append(ws.rows, rowFromRecord(rec, "reference"))
		added++
	}
	return added, nil
}

// UploadDocument stores a document for extraction.
func (s *Store) UploadDocument(sessionID, filename string) (*api.UploadResponse, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ws, apiErr := s.lookup(sessionID)
	if apiErr != nil {
		return nil, apiErr
	}
	if filename == "" {
		return nil, errBadRequest("missing file")
	}

	uploadID := shared.GenerateID()
	ws.uploads[uploadID] = filename
	return &api.UploadResponse{UploadID: uploadID, Filename: filename}, nil
}

// ExtractDocument produces reference candidates for an uploaded document.
// The candidates are drawn deterministically from the metadata index, plus
// one deliberately unresolvable reference so the review step always has both
// outcomes to show.
func (s *Store) ExtractDocument(sessionID, uploadID string) ([]api.DocumentCandidate, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.extractionDown {
		return nil, &apiError{Status: http.StatusServiceUnavailable, Detail: "extraction service unavailable"}
	}

	ws, apiErr := s.lookup(sessionID)
	if apiErr != nil {
		return nil, apiErr
	}
	filename, ok := ws.uploads[uploadID]
	if !ok {
		return nil, errNotFound("upload not found: %s", uploadID)
	}

	seeds := []api.ExternalRecord{s.index[0], s.index[2], s.index[6]}
	out := make([]api.DocumentCandidate, 0, len(seeds)+1)
	for _, rec := range seeds {
		year := rec.Year
		cand := &api.DocumentCandidate{
			CandidateID: shared.GenerateID(),
			Filename:    filename,
			Title:       rec.Title,
			Authors:     append([]string(nil), rec.Authors...),
			Year:        &year,
		}
		ws.candidates[cand.CandidateID] = cand
		ws.candOrder = append(ws.candOrder, cand.CandidateID)
		out = append(out, *cand)
	}
	stray := &api.DocumentCandidate{
		CandidateID: shared.GenerateID(),
		Filename:    filename,
		Title:       "Unpublished manuscript cited in " + filename,
	}
	ws.candidates[stray.CandidateID] = stray
	ws.candOrder = append(ws.candOrder, stray.CandidateID)
	out = append(out, *stray)

	return out, nil
}

// ReviewCandidates returns the session's extracted candidates.
func (s *Store) ReviewCandidates(sessionID string) ([]api.DocumentCandidate, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ws, apiErr := s.lookup(sessionID)
	if apiErr != nil {
		return nil, apiErr
	}
	out := make([]api.DocumentCandidate, 0, len(ws.candOrder))
	for _, id := range ws.candOrder {
		out = append(out, *ws.candidates[id])
	}
	return out, nil
}

// MatchCandidates reconciles the extracted candidates against the index.
func (s *Store) MatchCandidates(sessionID string) (matched, unmatched int, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ws, apiErr := s.lookup(sessionID)
	if apiErr != nil {
		return 0, 0, apiErr
	}
	for _, id := range ws.candOrder {
		cand := ws.candidates[id]
		cand.Matched = s.recordByTitle(cand.Title) != nil
		if cand.Matched {
			matched++
		} else {
			unmatched++
		}
	}
	return matched, unmatched, nil
}

func (s *Store) recordByTitle(title string) *api.ExternalRecord {
	if title == "" {
		return nil
	}
	want := shared.NormalizeTitleKey(title)
	for i := range s.index {
		if shared.NormalizeTitleKey(s.index[i].Title) == want {
			return &s.index[i]
		}
	}
	return nil
}

// ConfirmCandidates stages the chosen candidates as rows.
func (s *Store) ConfirmCandidates(sessionID string, candidateIDs []string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ws, apiErr := s.lookup(sessionID)
	if apiErr != nil {
		return 0, apiErr
	}

	added := 0
	for _, id := range candidateIDs {
		cand, ok := ws.candidates[id]
		if !ok {
			return added, errNotFound("candidate not found: %s", id)
		}

		if rec := s.recordByTitle(cand.Title); rec != nil {
			if hasIdentifier(ws, rec.Identifier) {
				continue
			}
			ws.rows = append(ws.rows, rowFromRecord(*rec, "document"))
		} else {
			title := cand.Title
			row := &api.StagingRow{
				StagingID:  shared.GenerateID(),
				Source:     "document",
				Title:      &title,
				Authors:    append([]string(nil), cand.Authors...),
				Year:       cand.Year,
				Retraction: "unknown",
			}
			ws.rows = append(ws.rows, row)
		}
		added++
	}
	return added, nil
}

// PreviewLibrary returns what CreateLibrary would commit.
func (s *Store) PreviewLibrary(sessionID string) (*api.LibraryPreview, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ws, apiErr := s.lookup(sessionID)
	if apiErr != nil {
		return nil, apiErr
	}
	papers := s.confirmedRecords(ws)
	return &api.LibraryPreview{Count: len(papers), Papers: papers}, nil
}

// confirmedRecords resolves the confirmed rows in staging order. Callers
// hold s.mu.
func (s *Store) confirmedRecords(ws *workflowSession) []api.ExternalRecord {
	var papers []api.ExternalRecord
	for _, row := range ws.rows {
		if !ws.confirmed[row.StagingID] {
			continue
		}
		if rec, _, _ := s.resolve(row); rec != nil {
			papers = append(papers, *rec)
		}
	}
	return papers
}

// CreateLibrary commits the session's confirmed matches as a library and
// finalizes the session.
func (s *Store) CreateLibrary(sessionID, name, path, description string) (*api.Library, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ws, apiErr := s.lookup(sessionID)
	if apiErr != nil {
		return nil, apiErr
	}
	if strings.TrimSpace(name) == "" || strings.TrimSpace(path) == "" {
		return nil, errBadRequest("name and path are required")
	}
	papers := s.confirmedRecords(ws)
	if len(papers) == 0 {
		return nil, errBadRequest("no confirmed matches to commit")
	}

	lib := &library{
		Library: api.Library{
			LibraryID:   shared.GenerateID(),
			Name:        name,
			Path:        path,
			Description: description,
			PaperCount:  len(papers),
		},
		papers: papers,
	}
	s.libraries[lib.LibraryID] = lib
	delete(s.sessions, sessionID)

	out := lib.Library
	return &out, nil
}

// SelectLibrary fetches a library by id.
func (s *Store) SelectLibrary(libraryID string) (*api.Library, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	lib, ok := s.libraries[libraryID]
	if !ok {
		return nil, errNotFound("library not found: %s", libraryID)
	}
	out := lib.Library
	return &out, nil
}

// ListLibraries returns every library, ordered by name.
func (s *Store) ListLibraries() []api.Library {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]api.Library, 0, len(s.libraries))
	for _, lib := range s.libraries {
		out = append(out, lib.Library)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// StageLibraryEdit starts a library-edit session seeded from the library's
// papers. Rows arrive pre-selected so a straight re-commit keeps the library
// unchanged.
func (s *Store) StageLibraryEdit(libraryID string) (*api.SessionInfo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	lib, ok := s.libraries[libraryID]
	if !ok {
		return nil, errNotFound("library not found: %s", libraryID)
	}

	ws := &workflowSession{
		info: api.SessionInfo{
			SessionID: shared.GenerateID(),
			UseCase:   string(session.UseCaseLibraryEdit),
			CreatedAt: time.Now().UTC().Format(time.RFC3339),
		},
		uploads:    map[string]string{},
		candidates: map[string]*api.DocumentCandidate{},
		confirmed:  map[string]bool{},
		libraryID:  libraryID,
	}
	for _, rec := range lib.papers {
		row := rowFromRecord(rec, "reference")
		row.Selected = true
		ws.rows = append(ws.rows, row)
		ws.confirmed[row.StagingID] = true
	}
	s.sessions[ws.info.SessionID] = ws

	info := ws.info
	return &info, nil
}

// CommitLibraryEdit replaces the library's papers with the session's
// confirmed matches and finalizes the session.
func (s *Store) CommitLibraryEdit(sessionID string) (*api.Library, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ws, apiErr := s.lookup(sessionID)
	if apiErr != nil {
		return nil, apiErr
	}
	if ws.libraryID == "" {
		return nil, errBadRequest("session is not a library edit")
	}
	lib, ok := s.libraries[ws.libraryID]
	if !ok {
		return nil, errNotFound("library not found: %s", ws.libraryID)
	}
	papers := s.confirmedRecords(ws)
	if len(papers) == 0 {
		return nil, errBadRequest("no confirmed matches to commit")
	}

	lib.papers = papers
	lib.PaperCount = len(papers)
	delete(s.sessions, sessionID)

	out := lib.Library
	return &out, nil
}

// DiscoverRelated returns the most-cited index records not already in the
// library.
func (s *Store) DiscoverRelated(libraryID string) ([]api.ExternalRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	lib, ok := s.libraries[libraryID]
	if !ok {
		return nil, errNotFound("library not found: %s", libraryID)
	}

	have := map[string]bool{}
	for _, rec := range lib.papers {
		have[rec.Identifier] = true
	}

	var related []api.ExternalRecord
	for _, rec := range s.index {
		if !have[rec.Identifier] {
			related = append(related, rec)
		}
	}
	sort.Slice(related, func(i, j int) bool { return related[i].CitedBy > related[j].CitedBy })
	if len(related) > 3 {
		related = related[:3]
	}
	return related, nil
}

// ListIntegrations reports each provider's connection status.
func (s *Store) ListIntegrations() []api.Integration {
	s.mu.Lock()
	defer s.mu.Unlock()

	providers := []string{"reference_manager", "metadata_index"}
	out := make([]api.Integration, 0, len(providers))
	for _, p := range providers {
		_, connected := s.credentials[p]
		item := api.Integration{Provider: p, Connected: connected}
		if !connected {
			item.Detail = "no credentials submitted"
		}
		out = append(out, item)
	}
	return out
}

// SubmitCredentials stores provider credentials.
func (s *Store) SubmitCredentials(provider string, values map[string]string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if provider == "" {
		return errBadRequest("missing provider")
	}
	if len(values) == 0 {
		return errBadRequest("no credential values")
	}
	s.credentials[provider] = values
	return nil
}

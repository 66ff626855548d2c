package api

// Wire types shared with the backend. Field names follow the JSON API
// contract; optional metadata fields are pointers so "absent" and "empty"
// stay distinguishable.

// SessionInfo is the backend's view of a workflow session.
type SessionInfo struct {
	SessionID string `json:"session_id"`
	UseCase   string `json:"use_case"`
	CreatedAt string `json:"created_at"`
}

// StagingRow is one candidate paper awaiting review.
type StagingRow struct {
	StagingID  string   `json:"staging_id"`
	Source     string   `json:"source"`
	Title      *string  `json:"title"`
	Authors    []string `json:"authors"`
	Year       *int     `json:"year"`
	Venue      *string  `json:"venue"`
	Identifier *string  `json:"identifier"`
	URL        *string  `json:"url"`
	Selected   bool     `json:"selected"`
	Retraction string   `json:"retraction"`
}

// RowStats aggregates counts over the full (unfiltered) staged set.
type RowStats struct {
	Selected int            `json:"selected"`
	BySource map[string]int `json:"by_source"`
}

// ListRowsRequest carries the view parameters for a staging fetch.
type ListRowsRequest struct {
	Query    string              `json:"query,omitempty"`
	Columns  map[string][]string `json:"columns,omitempty"`
	YearFrom *int                `json:"year_from,omitempty"`
	YearTo   *int                `json:"year_to,omitempty"`
	SortBy   string              `json:"sort_by,omitempty"`
	SortDesc bool                `json:"sort_desc,omitempty"`
	Page     int                 `json:"page"`
	PageSize int                 `json:"page_size"`
}

// ListRowsResponse is a full snapshot of one page of staged rows.
type ListRowsResponse struct {
	Rows          []StagingRow `json:"rows"`
	TotalRows     int          `json:"total_rows"`
	TotalFiltered int          `json:"total_filtered"`
	Stats         RowStats     `json:"stats"`
}

// ExternalRecord is a resolved record from the metadata index.
type ExternalRecord struct {
	IndexID    string   `json:"index_id"`
	Title      string   `json:"title"`
	Authors    []string `json:"authors"`
	Year       int      `json:"year"`
	Venue      string   `json:"venue"`
	Identifier string   `json:"identifier"`
	URL        string   `json:"url"`
	CitedBy    int      `json:"cited_by"`
}

// MatchedRow pairs a staged row with its resolved external record.
type MatchedRow struct {
	Row    StagingRow     `json:"row"`
	Score  float64        `json:"score"`
	Method string         `json:"method"`
	Record ExternalRecord `json:"record"`
}

// UnmatchedRow carries the reason a staged row failed reconciliation.
type UnmatchedRow struct {
	Row    StagingRow `json:"row"`
	Reason string     `json:"reason"`
}

// MatchResponse partitions the submitted rows.
type MatchResponse struct {
	Matched   []MatchedRow   `json:"matched"`
	Unmatched []UnmatchedRow `json:"unmatched"`
}

// RematchResponse is the outcome of a single-row rematch.
type RematchResponse struct {
	Matched bool            `json:"matched"`
	Score   float64         `json:"score,omitempty"`
	Method  string          `json:"method,omitempty"`
	Record  *ExternalRecord `json:"record,omitempty"`
	Reason  string          `json:"reason,omitempty"`
}

// Library is the finalized, persisted collection of confirmed papers.
type Library struct {
	LibraryID   string `json:"library_id"`
	Name        string `json:"name"`
	Path        string `json:"path"`
	Description string `json:"description"`
	PaperCount  int    `json:"paper_count"`
}

// LibraryPreview summarizes what a create call would commit.
type LibraryPreview struct {
	Count  int              `json:"count"`
	Papers []ExternalRecord `json:"papers"`
}

// DocumentCandidate is one extracted reference from an uploaded document.
type DocumentCandidate struct {
	CandidateID string   `json:"candidate_id"`
	Filename    string   `json:"filename"`
	Title       string   `json:"title"`
	Authors     []string `json:"authors"`
	Year        *int     `json:"year"`
	Matched     bool     `json:"matched"`
}

// UploadResponse acknowledges a stored document.
type UploadResponse struct {
	UploadID string `json:"upload_id"`
	Filename string `json:"filename"`
}

// Integration reports one provider's connection status.
type Integration struct {
	Provider  string `json:"provider"`
	Connected bool   `json:"connected"`
	Detail    string `json:"detail,omitempty"`
}

// RetractionCheckResponse summarizes a retraction sweep.
type RetractionCheckResponse struct {
	Checked   int `json:"checked"`
	Retracted int `json:"retracted"`
}

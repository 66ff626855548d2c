package api

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/imanmossavat/litstage/internal/shared"
)

// ImportIdentifiers stages rows for a batch of manual identifiers (DOIs,
// arXiv ids).
func (c *Client) ImportIdentifiers(ctx context.Context, sessionID string, identifiers []string) (int, error) {
	body := map[string]any{"identifiers": identifiers}
	res := c.Request(ctx, http.MethodPost, "/session/"+sessionID+"/import/identifiers", body, nil)
	if !res.OK() {
		return 0, fmt.Errorf("%w: %s", shared.ErrAPIRequest, res.Error)
	}

	var resp struct {
		Added int `json:"added"`
	}
	if err := res.Decode(&resp); err != nil {
		return 0, err
	}
	return resp.Added, nil
}

// ImportCollection stages rows from a reference-manager collection.
func (c *Client) ImportCollection(ctx context.Context, sessionID, collectionID string) (int, error) {
	body := map[string]string{"collection_id": collectionID}
	res := c.Request(ctx, http.MethodPost, "/session/"+sessionID+"/import/collections", body, nil)
	if !res.OK() {
		return 0, fmt.Errorf("%w: %s", shared.ErrAPIRequest, res.Error)
	}

	var resp struct {
		Added int `json:"added"`
	}
	if err := res.Decode(&resp); err != nil {
		return 0, err
	}
	return resp.Added, nil
}

// UploadDocument stores one document for reference extraction.
func (c *Client) UploadDocument(ctx context.Context, sessionID, filename string, contents io.Reader) (*UploadResponse, error) {
	opts := &RequestOptions{FileField: "file", FileName: filename, File: contents}
	res := c.Request(ctx, http.MethodPost, "/session/"+sessionID+"/import/documents/upload", nil, opts)
	if !res.OK() {
		return nil, fmt.Errorf("%w: %s", shared.ErrAPIRequest, res.Error)
	}

	var resp UploadResponse
	if err := res.Decode(&resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// ExtractDocument runs reference extraction over an uploaded document.
//
// An unavailable extraction service is a distinct, actionable failure: it
// maps to [shared.ErrExtractionUnavailable] with a remediation link rather
// than a generic transport error.
func (c *Client) ExtractDocument(ctx context.Context, sessionID, uploadID string) ([]DocumentCandidate, error) {
	body := map[string]string{"upload_id": uploadID}
	res := c.Request(ctx, http.MethodPost, "/session/"+sessionID+"/import/documents/extract", body, nil)
	if !res.OK() {
		if isExtractionOutage(res) {
			return nil, fmt.Errorf("%w: %s (see %s)", shared.ErrExtractionUnavailable, res.Error, shared.ExtractionGuideURL)
		}
		return nil, fmt.Errorf("%w: %s", shared.ErrAPIRequest, res.Error)
	}

	var resp struct {
		Candidates []DocumentCandidate `json:"candidates"`
	}
	if err := res.Decode(&resp); err != nil {
		return nil, err
	}
	return resp.Candidates, nil
}

// ReviewDocumentCandidates returns the session's extracted candidates for
// review. State lives server-side, so the review step can be re-entered
// after a restart.
func (c *Client) ReviewDocumentCandidates(ctx context.Context, sessionID string) ([]DocumentCandidate, error) {
	res := c.Request(ctx, http.MethodGet, "/session/"+sessionID+"/import/documents/review", nil, nil)
	if !res.OK() {
		return nil, fmt.Errorf("%w: %s", shared.ErrAPIRequest, res.Error)
	}

	var resp struct {
		Candidates []DocumentCandidate `json:"candidates"`
	}
	if err := res.Decode(&resp); err != nil {
		return nil, err
	}
	return resp.Candidates, nil
}

// MatchDocumentCandidates reconciles the extracted candidates against the
// metadata index.
func (c *Client) MatchDocumentCandidates(ctx context.Context, sessionID string) (matched, unmatched int, err error) {
	res := c.Request(ctx, http.MethodPost, "/session/"+sessionID+"/import/documents/match", nil, nil)
	if !res.OK() {
		return 0, 0, fmt.Errorf("%w: %s", shared.ErrAPIRequest, res.Error)
	}

	var resp struct {
		Matched   int `json:"matched"`
		Unmatched int `json:"unmatched"`
	}
	if err := res.Decode(&resp); err != nil {
		return 0, 0, err
	}
	return resp.Matched, resp.Unmatched, nil
}

// ConfirmDocumentCandidates stages the confirmed candidates as rows.
func (c *Client) ConfirmDocumentCandidates(ctx context.Context, sessionID string, candidateIDs []string) (int, error) {
	body := map[string]any{"candidate_ids": candidateIDs}
	res := c.Request(ctx, http.MethodPost, "/session/"+sessionID+"/import/documents/confirm", body, nil)
	if !res.OK() {
		return 0, fmt.Errorf("%w: %s", shared.ErrAPIRequest, res.Error)
	}

	var resp struct {
		Added int `json:"added"`
	}
	if err := res.Decode(&resp); err != nil {
		return 0, err
	}
	return resp.Added, nil
}

// isExtractionOutage recognizes the extraction service being down, as
// opposed to a bad upload or a generic failure.
func isExtractionOutage(res Result) bool {
	if res.Status == http.StatusBadGateway || res.Status == http.StatusServiceUnavailable {
		return true
	}
	return strings.Contains(strings.ToLower(res.Error), "extraction service")
}

package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/imanmossavat/litstage/internal/shared"
)

// ListRows fetches one page of staged rows under the given view parameters.
func (c *Client) ListRows(ctx context.Context, sessionID string, req ListRowsRequest) (*ListRowsResponse, error) {
	res := c.Request(ctx, http.MethodPost, "/session/"+sessionID+"/staging/list", req, nil)
	if !res.OK() {
		return nil, fmt.Errorf("%w: %s", shared.ErrAPIRequest, res.Error)
	}

	var resp ListRowsResponse
	if err := res.Decode(&resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// PatchRow applies a partial update to a staged row. Fields map editable
// column names to new values; a JSON null value unsets the field.
func (c *Client) PatchRow(ctx context.Context, sessionID, stagingID string, fields map[string]*string) error {
	body := map[string]any{"fields": fields}
	res := c.Request(ctx, http.MethodPatch, "/session/"+sessionID+"/staging/rows/"+stagingID, body, nil)
	if !res.OK() {
		return fmt.Errorf("%w: %s", shared.ErrAPIRequest, res.Error)
	}
	return nil
}

// DeleteRow removes a staged row from the session.
func (c *Client) DeleteRow(ctx context.Context, sessionID, stagingID string) error {
	res := c.Request(ctx, http.MethodDelete, "/session/"+sessionID+"/staging/rows/"+stagingID, nil, nil)
	if !res.OK() {
		return fmt.Errorf("%w: %s", shared.ErrAPIRequest, res.Error)
	}
	return nil
}

// SelectRow sets a single row's selection flag.
func (c *Client) SelectRow(ctx context.Context, sessionID, stagingID string, selected bool) error {
	body := map[string]bool{"selected": selected}
	res := c.Request(ctx, http.MethodPost, "/session/"+sessionID+"/staging/rows/"+stagingID+"/select", body, nil)
	if !res.OK() {
		return fmt.Errorf("%w: %s", shared.ErrAPIRequest, res.Error)
	}
	return nil
}

// SelectRows sets the selection flag on a batch of rows in one call.
func (c *Client) SelectRows(ctx context.Context, sessionID string, stagingIDs []string, selected bool) error {
	body := map[string]any{"staging_ids": stagingIDs, "selected": selected}
	res := c.Request(ctx, http.MethodPost, "/session/"+sessionID+"/staging/select", body, nil)
	if !res.OK() {
		return fmt.Errorf("%w: %s", shared.ErrAPIRequest, res.Error)
	}
	return nil
}

// CheckRetractions runs a retraction sweep over the given rows (or every
// staged row when stagingIDs is empty).
func (c *Client) CheckRetractions(ctx context.Context, sessionID string, stagingIDs []string) (*RetractionCheckResponse, error) {
	body := map[string]any{"staging_ids": stagingIDs}
	res := c.Request(ctx, http.MethodPost, "/session/"+sessionID+"/staging/retractions", body, nil)
	if !res.OK() {
		return nil, fmt.Errorf("%w: %s", shared.ErrAPIRequest, res.Error)
	}

	var resp RetractionCheckResponse
	if err := res.Decode(&resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// RawRows returns the undecoded list response, used by the api CLI command
// for debugging.
func (c *Client) RawRows(ctx context.Context, sessionID string, req ListRowsRequest) (json.RawMessage, error) {
	res := c.Request(ctx, http.MethodPost, "/session/"+sessionID+"/staging/list", req, nil)
	if !res.OK() {
		return nil, fmt.Errorf("%w: %s", shared.ErrAPIRequest, res.Error)
	}
	return res.Data, nil
}

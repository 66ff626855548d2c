package api

import (
	"context"
	"fmt"
	"net/http"

	"github.com/imanmossavat/litstage/internal/shared"
)

// Match submits the given staged rows for reconciliation against the
// metadata index and returns the matched/unmatched partition.
func (c *Client) Match(ctx context.Context, sessionID string, stagingIDs []string) (*MatchResponse, error) {
	body := map[string]any{"staging_ids": stagingIDs}
	res := c.Request(ctx, http.MethodPost, "/session/"+sessionID+"/match", body, nil)
	if !res.OK() {
		return nil, fmt.Errorf("%w: %s", shared.ErrAPIRequest, res.Error)
	}

	var resp MatchResponse
	if err := res.Decode(&resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// ConfirmMatches confirms the given matched rows, advancing the workflow
// toward library creation.
func (c *Client) ConfirmMatches(ctx context.Context, sessionID string, stagingIDs []string) error {
	body := map[string]any{"staging_ids": stagingIDs}
	res := c.Request(ctx, http.MethodPost, "/session/"+sessionID+"/match/confirm", body, nil)
	if !res.OK() {
		return fmt.Errorf("%w: %s", shared.ErrAPIRequest, res.Error)
	}
	return nil
}

// Rematch re-submits a single row for reconciliation, typically after its
// metadata was edited.
func (c *Client) Rematch(ctx context.Context, sessionID, stagingID string) (*RematchResponse, error) {
	body := map[string]string{"staging_id": stagingID}
	res := c.Request(ctx, http.MethodPost, "/session/"+sessionID+"/match/rematch", body, nil)
	if !res.OK() {
		return nil, fmt.Errorf("%w: %s", shared.ErrAPIRequest, res.Error)
	}

	var resp RematchResponse
	if err := res.Decode(&resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

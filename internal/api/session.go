package api

import (
	"context"
	"fmt"
	"net/http"

	"github.com/imanmossavat/litstage/internal/session"
	"github.com/imanmossavat/litstage/internal/shared"
)

// StartSession starts a new workflow session tagged with the given use case.
//
// Implements [session.Starter] so the recovery coordinator can obtain
// replacement sessions through the same client.
func (c *Client) StartSession(ctx context.Context, useCase session.UseCase) (*session.Session, error) {
	res := c.Request(ctx, http.MethodPost, "/session/start", map[string]string{"use_case": string(useCase)}, nil)
	if !res.OK() {
		return nil, fmt.Errorf("%w: %s", shared.ErrAPIRequest, res.Error)
	}

	var info SessionInfo
	if err := res.Decode(&info); err != nil {
		return nil, err
	}
	uc, err := session.ParseUseCase(info.UseCase)
	if err != nil {
		return nil, err
	}
	return &session.Session{ID: info.SessionID, UseCase: uc}, nil
}

// GetSession fetches the backend's view of a session.
func (c *Client) GetSession(ctx context.Context, sessionID string) (*SessionInfo, error) {
	res := c.Request(ctx, http.MethodGet, "/session/"+sessionID, nil, nil)
	if !res.OK() {
		return nil, fmt.Errorf("%w: %s", shared.ErrAPIRequest, res.Error)
	}

	var info SessionInfo
	if err := res.Decode(&info); err != nil {
		return nil, err
	}
	return &info, nil
}

// FinalizeSession ends a workflow session. The backend discards any staged
// rows that were never confirmed.
func (c *Client) FinalizeSession(ctx context.Context, sessionID string) error {
	res := c.Request(ctx, http.MethodPost, "/session/"+sessionID+"/finalize", nil, nil)
	if !res.OK() {
		return fmt.Errorf("%w: %s", shared.ErrAPIRequest, res.Error)
	}
	return nil
}

// CancelSession abandons a workflow session without committing anything.
func (c *Client) CancelSession(ctx context.Context, sessionID string) error {
	res := c.Request(ctx, http.MethodDelete, "/session/"+sessionID, nil, nil)
	if !res.OK() {
		return fmt.Errorf("%w: %s", shared.ErrAPIRequest, res.Error)
	}
	return nil
}

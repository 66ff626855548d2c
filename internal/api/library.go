package api

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"github.com/imanmossavat/litstage/internal/session"
	"github.com/imanmossavat/litstage/internal/shared"
)

// PreviewLibrary returns what a create call would commit for the session's
// confirmed matches.
func (c *Client) PreviewLibrary(ctx context.Context, sessionID string) (*LibraryPreview, error) {
	body := map[string]string{"session_id": sessionID}
	res := c.Request(ctx, http.MethodPost, "/library/preview", body, nil)
	if !res.OK() {
		return nil, fmt.Errorf("%w: %s", shared.ErrAPIRequest, res.Error)
	}

	var preview LibraryPreview
	if err := res.Decode(&preview); err != nil {
		return nil, err
	}
	return &preview, nil
}

// CreateLibrary commits the session's confirmed matches as a persisted
// library and finalizes the session server-side.
func (c *Client) CreateLibrary(ctx context.Context, sessionID, name, path, description string) (*Library, error) {
	body := map[string]string{
		"session_id":  sessionID,
		"name":        name,
		"path":        path,
		"description": description,
	}
	res := c.Request(ctx, http.MethodPost, "/library/create", body, nil)
	if !res.OK() {
		return nil, fmt.Errorf("%w: %s", shared.ErrAPIRequest, res.Error)
	}

	var lib Library
	if err := res.Decode(&lib); err != nil {
		return nil, err
	}
	return &lib, nil
}

// SelectLibrary fetches a library by id.
func (c *Client) SelectLibrary(ctx context.Context, libraryID string) (*Library, error) {
	q := url.Values{"library_id": {libraryID}}
	res := c.Request(ctx, http.MethodGet, "/library/select", nil, &RequestOptions{Query: q})
	if !res.OK() {
		return nil, fmt.Errorf("%w: %s", shared.ErrAPIRequest, res.Error)
	}

	var lib Library
	if err := res.Decode(&lib); err != nil {
		return nil, err
	}
	return &lib, nil
}

// ListLibraries returns every persisted library.
func (c *Client) ListLibraries(ctx context.Context) ([]Library, error) {
	res := c.Request(ctx, http.MethodGet, "/library", nil, nil)
	if !res.OK() {
		return nil, fmt.Errorf("%w: %s", shared.ErrAPIRequest, res.Error)
	}

	var libs []Library
	if err := res.Decode(&libs); err != nil {
		return nil, err
	}
	return libs, nil
}

// StageLibraryEdit starts a library-edit session whose staging rows are
// re-populated from the library's existing papers.
func (c *Client) StageLibraryEdit(ctx context.Context, libraryID string) (*session.Session, error) {
	body := map[string]string{"library_id": libraryID}
	res := c.Request(ctx, http.MethodPost, "/library/edit/stage", body, nil)
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

// CommitLibraryEdit applies a library-edit session back onto its library.
func (c *Client) CommitLibraryEdit(ctx context.Context, sessionID string) (*Library, error) {
	body := map[string]string{"session_id": sessionID}
	res := c.Request(ctx, http.MethodPost, "/library/edit/commit", body, nil)
	if !res.OK() {
		return nil, fmt.Errorf("%w: %s", shared.ErrAPIRequest, res.Error)
	}

	var lib Library
	if err := res.Decode(&lib); err != nil {
		return nil, err
	}
	return &lib, nil
}

// DiscoverRelated asks the backend's crawler for papers related to an
// existing library.
func (c *Client) DiscoverRelated(ctx context.Context, libraryID string) ([]ExternalRecord, error) {
	body := map[string]string{"library_id": libraryID}
	res := c.Request(ctx, http.MethodPost, "/library/discover", body, nil)
	if !res.OK() {
		return nil, fmt.Errorf("%w: %s", shared.ErrAPIRequest, res.Error)
	}

	var related []ExternalRecord
	if err := res.Decode(&related); err != nil {
		return nil, err
	}
	return related, nil
}

package api

import (
	"context"
	"fmt"
	"net/http"

	"github.com/imanmossavat/litstage/internal/shared"
	"golang.org/x/oauth2"
)

// ListIntegrations returns the connection status of every provider.
func (c *Client) ListIntegrations(ctx context.Context) ([]Integration, error) {
	res := c.Request(ctx, http.MethodGet, "/settings/integrations", nil, nil)
	if !res.OK() {
		return nil, fmt.Errorf("%w: %s", shared.ErrAPIRequest, res.Error)
	}

	var resp struct {
		Integrations []Integration `json:"integrations"`
	}
	if err := res.Decode(&resp); err != nil {
		return nil, err
	}
	return resp.Integrations, nil
}

// SubmitCredentials stores provider credentials on the backend.
func (c *Client) SubmitCredentials(ctx context.Context, provider string, values map[string]string) error {
	body := map[string]any{"provider": provider, "values": values}
	res := c.Request(ctx, http.MethodPost, "/settings/credentials", body, nil)
	if !res.OK() {
		return fmt.Errorf("%w: %s", shared.ErrAPIRequest, res.Error)
	}
	return nil
}

const (
	referenceManagerAuthURL  = "https://ref.example.com/oauth/authorize"
	referenceManagerTokenURL = "https://ref.example.com/oauth/token"
)

// ReferenceManagerOAuth builds the OAuth2 config for the reference-manager
// provider from local credentials.
func ReferenceManagerOAuth(cfg shared.ReferenceManagerConfig) (*oauth2.Config, error) {
	if cfg.ClientID == "" || cfg.ClientSecret == "" {
		return nil, fmt.Errorf("%w: reference manager client_id/client_secret", shared.ErrMissingCredentials)
	}
	redirect := cfg.RedirectURI
	if redirect == "" {
		redirect = "http://localhost:8080/callback"
	}

	return &oauth2.Config{
		ClientID:     cfg.ClientID,
		ClientSecret: cfg.ClientSecret,
		RedirectURL:  redirect,
		Scopes:       []string{"collections.read"},
		Endpoint: oauth2.Endpoint{
			AuthURL:  referenceManagerAuthURL,
			TokenURL: referenceManagerTokenURL,
		},
	}, nil
}

// ConnectReferenceManager exchanges an auth code and submits the resulting
// token to the backend, connecting the reference-manager integration.
func (c *Client) ConnectReferenceManager(ctx context.Context, conf *oauth2.Config, authCode string) error {
	token, err := conf.Exchange(ctx, authCode)
	if err != nil {
		return fmt.Errorf("failed to exchange auth code: %w", err)
	}
	return c.SubmitCredentials(ctx, "reference_manager", map[string]string{
		"access_token":  token.AccessToken,
		"refresh_token": token.RefreshToken,
	})
}

package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/imanmossavat/litstage/internal/api"
	"github.com/imanmossavat/litstage/internal/shared"
	"github.com/urfave/cli/v3"
)

// SettingsIntegrations prints each provider's connection status.
func (r *Runner) SettingsIntegrations(ctx context.Context, cmd *cli.Command) error {
	integrations, err := r.client.ListIntegrations(ctx)
	if err != nil {
		return err
	}

	r.writePlainHeader("Integrations")
	for _, in := range integrations {
		status := "not connected"
		if in.Connected {
			status = "connected"
		}
		line := fmt.Sprintf("%-20s %s", in.Provider, status)
		if in.Detail != "" {
			line += " (" + in.Detail + ")"
		}
		r.writePlain("%s\n", line)
	}
	return nil
}

// SettingsCredentials submits provider credentials to the backend.
func (r *Runner) SettingsCredentials(ctx context.Context, cmd *cli.Command) error {
	values := map[string]string{}
	for _, pair := range cmd.StringSlice("value") {
		k, v, ok := strings.Cut(pair, "=")
		if !ok || k == "" {
			return fmt.Errorf("%w: expected key=value, got %q", shared.ErrInvalidArgument, pair)
		}
		values[k] = v
	}
	if len(values) == 0 {
		return fmt.Errorf("%w: at least one --value key=value", shared.ErrMissingArgument)
	}

	provider := cmd.String("provider")
	if err := r.client.SubmitCredentials(ctx, provider, values); err != nil {
		return err
	}

	r.writePlain("Stored credentials for %s\n", provider)
	return nil
}

// SettingsConnectReference walks the reference-manager OAuth2 flow. Without
// --code it prints the authorization URL; with it, it exchanges the code and
// connects the integration.
func (r *Runner) SettingsConnectReference(ctx context.Context, cmd *cli.Command) error {
	config := r.config
	if path := cmd.String("config"); path != "" {
		if _, err := os.Stat(path); err == nil {
			loaded, err := shared.LoadConfig(path)
			if err != nil {
				return err
			}
			config = loaded
		}
	}

	conf, err := api.ReferenceManagerOAuth(config.Credentials.ReferenceManager)
	if err != nil {
		return fmt.Errorf("%w: fill in [credentials.reference_manager] in config.toml", err)
	}

	code := cmd.String("code")
	if code == "" {
		url := conf.AuthCodeURL(shared.GenerateID())
		if err := shared.OpenBrowser(url); err != nil {
			r.logger.Debug("could not open browser", "error", err)
		}
		r.writePlain("Authorize access in the browser, then re-run with --code:\n\n")
		r.writePlain("  %s\n", url)
		return nil
	}

	if err := r.client.ConnectReferenceManager(ctx, conf, code); err != nil {
		return err
	}
	r.writePlain("Reference manager connected. Import with 'litstage import collection <id>'.\n")
	return nil
}

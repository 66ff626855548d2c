package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/imanmossavat/litstage/internal/shared"
	"github.com/urfave/cli/v3"
)

// APIGet makes a direct GET request against the backend and prints the raw
// response, pretty-printed when it is JSON.
func (r *Runner) APIGet(ctx context.Context, cmd *cli.Command) error {
	path := cmd.StringArg("path")
	if path == "" {
		return fmt.Errorf("%w: endpoint path", shared.ErrMissingArgument)
	}

	r.logger.Info("GET request", "path", path)

	res := r.client.Request(ctx, http.MethodGet, path, nil, nil)
	if !res.OK() {
		return fmt.Errorf("%w: status %d: %s", shared.ErrAPIRequest, res.Status, res.Error)
	}

	var decoded any
	if err := json.Unmarshal(res.Data, &decoded); err == nil {
		return r.writeJSON(decoded, true)
	}
	r.output.Write(res.Data)
	r.output.Write([]byte("\n"))
	return nil
}

// APIPost makes a direct POST request with a JSON body.
func (r *Runner) APIPost(ctx context.Context, cmd *cli.Command) error {
	path := cmd.StringArg("path")
	if path == "" {
		return fmt.Errorf("%w: endpoint path", shared.ErrMissingArgument)
	}

	data := cmd.String("data")
	var body any
	if err := json.Unmarshal([]byte(data), &body); err != nil {
		return fmt.Errorf("%w: data is not valid JSON: %v", shared.ErrInvalidInput, err)
	}

	r.logger.Info("POST request", "path", path)

	res := r.client.Request(ctx, http.MethodPost, path, body, nil)
	if !res.OK() {
		return fmt.Errorf("%w: status %d: %s", shared.ErrAPIRequest, res.Status, res.Error)
	}

	var decoded any
	if err := json.Unmarshal(res.Data, &decoded); err == nil {
		return r.writeJSON(decoded, true)
	}
	r.output.Write(res.Data)
	r.output.Write([]byte("\n"))
	return nil
}

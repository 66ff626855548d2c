package main

import (
	"context"
	"fmt"

	"github.com/imanmossavat/litstage/internal/server"
	"github.com/urfave/cli/v3"
)

// Serve runs the in-memory reference backend, mainly for local development
// and end-to-end testing against a deterministic metadata index.
func (r *Runner) Serve(ctx context.Context, cmd *cli.Command) error {
	host := r.config.Server.Host
	if cmd.IsSet("host") {
		host = cmd.String("host")
	}
	port := r.config.Server.Port
	if cmd.IsSet("port") {
		port = cmd.Int("port")
	}

	store := server.NewStore()
	handler := server.New(store, r.logger)

	addr := fmt.Sprintf("%s:%d", host, port)
	r.writePlain("Serving reference backend on http://%s/api/v1\n", addr)
	return server.Run(ctx, addr, handler, r.logger)
}

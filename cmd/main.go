package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/imanmossavat/litstage/internal/api"
	"github.com/imanmossavat/litstage/internal/library"
	"github.com/imanmossavat/litstage/internal/repositories"
	"github.com/imanmossavat/litstage/internal/session"
	"github.com/imanmossavat/litstage/internal/shared"
	"github.com/urfave/cli/v3"
)

func main() {
	logger := shared.NewLogger(nil)

	config := shared.DefaultConfig()
	if _, err := os.Stat("config.toml"); err == nil {
		if loadedConfig, err := shared.LoadConfig("config.toml"); err == nil {
			config = loadedConfig
		}
	}

	var store session.Store
	if db, err := shared.NewDatabase(config.Database.Path); err == nil {
		shared.ConfigureDatabase(db, config.Database.MaxOpenConns, config.Database.MaxIdleConns)
		store = repositories.NewWorkflowRepository(db)
		defer db.Close()
	} else {
		logger.Debug("client-state database unavailable, session tracking is in-memory", "err", err)
	}

	registry := session.NewRegistry(session.RegistryOpts{
		Store:       store,
		Logger:      logger,
		BootstrapID: os.Getenv("LITSTAGE_SESSION"),
	})

	client := api.NewClient(api.ClientOpts{
		BaseURL:           config.API.BaseURL,
		Timeout:           time.Duration(config.API.TimeoutSeconds) * time.Second,
		RequestsPerSecond: config.API.RequestsPerSecond,
		Logger:            logger,
		Registry:          registry,
	})

	coordinator := session.NewCoordinator(session.CoordinatorOpts{
		Registry:  registry,
		Starter:   client,
		Navigator: &cliNavigator{out: os.Stdout},
		Logger:    logger,
	})
	client.SetRecoverer(coordinator)

	runner := NewRunner(RunnerOpts{
		Config:    config,
		Client:    client,
		Registry:  registry,
		Libraries: library.NewService(client, registry, logger),
		Logger:    logger,
	})

	app := &cli.Command{
		Name:     "litstage",
		Usage:    "Stage, review & commit literature libraries",
		Version:  "0.3.0",
		Commands: runner.register(),
	}

	if err := app.Run(context.Background(), os.Args); err != nil {
		err_ := errors.Unwrap(err)
		if errors.Is(err_, shared.ErrNotImplemented) {
			logger.Warn("not implemented")
			os.Exit(0)
		} else {
			logger.Fatalf("application error: %v", err)
		}
	}
}

// cliNavigator implements [session.Navigator] for plain CLI runs: there is no
// view to switch, so it prints where the replaced workflow resumes.
type cliNavigator struct {
	out io.Writer
}

func (n *cliNavigator) NavigateToCheckpoint(useCase session.UseCase) {
	fmt.Fprintf(n.out, "\nThe workflow session expired and was replaced (%s). Staged rows were reset; resume with 'litstage stage list'.\n", useCase)
}

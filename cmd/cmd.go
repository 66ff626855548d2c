// submodule cmd contains command definitions
package main

import "github.com/urfave/cli/v3"

// sessionCommand handles workflow session lifecycle operations
func sessionCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "session",
		Aliases: []string{"sess"},
		Usage:   "Manage the workflow session",
		Commands: []*cli.Command{
			{
				Name:  "start",
				Usage: "Start a new workflow session",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "use-case",
						Usage: "Workflow use case (library_creation, library_edit, crawler_rerun)",
						Value: "library_creation",
					},
				},
				Action: r.SessionStart,
			},
			{
				Name:   "status",
				Usage:  "Show the tracked session and its backend state",
				Action: r.SessionStatus,
			},
			{
				Name:   "finalize",
				Usage:  "Finalize the session, discarding unconfirmed rows",
				Action: r.SessionFinalize,
			},
			{
				Name:   "cancel",
				Usage:  "Abandon the session without committing anything",
				Action: r.SessionCancel,
			},
		},
	}
}

// importCommand handles staging rows from the three import sources
func importCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "import",
		Usage: "Stage rows from identifiers, collections, or documents",
		Commands: []*cli.Command{
			{
				Name:      "ids",
				Usage:     "Stage rows for manually entered identifiers (DOIs, arXiv ids)",
				ArgsUsage: "<identifier>...",
				Action:    r.ImportIdentifiers,
			},
			{
				Name:      "collection",
				Usage:     "Stage rows from a reference-manager collection",
				ArgsUsage: "<collection-id>",
				Action:    r.ImportCollection,
			},
			{
				Name:      "doc",
				Usage:     "Upload a document and extract reference candidates",
				ArgsUsage: "<file>",
				Action:    r.ImportDocument,
			},
			{
				Name:   "doc-review",
				Usage:  "Show the session's extracted candidates",
				Action: r.ImportDocumentReview,
			},
			{
				Name:   "doc-match",
				Usage:  "Reconcile extracted candidates against the metadata index",
				Action: r.ImportDocumentMatch,
			},
			{
				Name:      "doc-confirm",
				Usage:     "Stage the chosen candidates as rows",
				ArgsUsage: "<candidate-id>...",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "matched",
						Usage: "Confirm every candidate the index matched",
					},
				},
				Action: r.ImportDocumentConfirm,
			},
		},
	}
}

// stageCommand handles operations over the staged working set
func stageCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "stage",
		Usage: "Filter, select, and edit staged rows",
		Commands: []*cli.Command{
			{
				Name:  "list",
				Usage: "List staged rows under filters, sort, and paging",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "query", Aliases: []string{"q"}, Usage: "Free-text filter over title, authors, venue, identifier"},
					&cli.StringSliceFlag{Name: "filter", Aliases: []string{"F"}, Usage: "Column filter as column=value, repeatable"},
					&cli.IntFlag{Name: "year-from", Usage: "Lower bound on publication year"},
					&cli.IntFlag{Name: "year-to", Usage: "Upper bound on publication year"},
					&cli.StringFlag{Name: "sort", Usage: "Sort column (title, year, venue, source, selected)"},
					&cli.BoolFlag{Name: "desc", Usage: "Sort descending"},
					&cli.IntFlag{Name: "page", Value: 1},
					&cli.IntFlag{Name: "page-size", Value: 25},
					&cli.BoolFlag{Name: "json", Usage: "Output raw JSON"},
					&cli.StringFlag{Name: "export", Usage: "Write to file in the given format (csv, markdown, text, json)"},
					&cli.StringFlag{Name: "output", Aliases: []string{"o"}, Usage: "Export file path"},
				},
				Action: r.StageList,
			},
			{
				Name:      "select",
				Usage:     "Set the selection flag on rows",
				ArgsUsage: "<staging-id>...",
				Flags: []cli.Flag{
					&cli.BoolFlag{Name: "deselect", Usage: "Clear the flag instead of setting it"},
				},
				Action: r.StageSelect,
			},
			{
				Name:      "edit",
				Usage:     "Apply a partial update to one row",
				ArgsUsage: "<staging-id>",
				Flags: []cli.Flag{
					&cli.StringSliceFlag{
						Name:    "set",
						Aliases: []string{"s"},
						Usage:   "Field update as field=value; empty value unsets, repeatable",
					},
				},
				Action: r.StageEdit,
			},
			{
				Name:      "remove",
				Usage:     "Remove a staged row",
				ArgsUsage: "<staging-id>",
				Action:    r.StageRemove,
			},
			{
				Name:      "retractions",
				Usage:     "Sweep staged rows against the retraction index",
				ArgsUsage: "[staging-id]...",
				Action:    r.StageRetractions,
			},
		},
	}
}

// matchCommand handles reconciliation against the metadata index
func matchCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "match",
		Usage: "Reconcile selected rows against the metadata index",
		Commands: []*cli.Command{
			{
				Name:   "run",
				Usage:  "Partition the selected rows into matched and unmatched",
				Action: r.MatchRun,
			},
			{
				Name:  "confirm",
				Usage: "Confirm matched rows, excluding any passed ids",
				Flags: []cli.Flag{
					&cli.StringSliceFlag{
						Name:  "exclude",
						Usage: "Staging id to leave unconfirmed, repeatable",
					},
				},
				Action: r.MatchConfirm,
			},
			{
				Name:      "rematch",
				Usage:     "Edit an unmatched row's metadata and re-submit it",
				ArgsUsage: "<staging-id>",
				Flags: []cli.Flag{
					&cli.StringSliceFlag{
						Name:    "set",
						Aliases: []string{"s"},
						Usage:   "Field update as field=value before rematching, repeatable",
					},
				},
				Action: r.MatchRematch,
			},
		},
	}
}

// libraryCommand handles persisted-library operations
func libraryCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "library",
		Aliases: []string{"lib"},
		Usage:   "Preview, commit, and maintain libraries",
		Commands: []*cli.Command{
			{
				Name:   "preview",
				Usage:  "Show what a create call would commit",
				Action: r.LibraryPreview,
			},
			{
				Name:  "create",
				Usage: "Commit the session's confirmed matches as a library",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "name", Required: true, Usage: "Library name"},
					&cli.StringFlag{Name: "path", Required: true, Usage: "Library path"},
					&cli.StringFlag{Name: "description", Usage: "Library description"},
				},
				Action: r.LibraryCreate,
			},
			{
				Name:   "list",
				Usage:  "List every persisted library",
				Action: r.LibraryList,
			},
			{
				Name:      "show",
				Usage:     "Show one library",
				ArgsUsage: "<library-id>",
				Action:    r.LibraryShow,
			},
			{
				Name:      "edit",
				Usage:     "Start an edit session seeded from a library's papers",
				ArgsUsage: "<library-id>",
				Action:    r.LibraryEdit,
			},
			{
				Name:   "commit",
				Usage:  "Apply the edit session back onto its library",
				Action: r.LibraryCommit,
			},
			{
				Name:      "discover",
				Usage:     "Crawl the index for papers related to a library",
				ArgsUsage: "<library-id>",
				Action:    r.LibraryDiscover,
			},
		},
	}
}

// settingsCommand handles provider integrations
func settingsCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "settings",
		Usage: "Provider integrations and credentials",
		Commands: []*cli.Command{
			{
				Name:   "integrations",
				Usage:  "Show each provider's connection status",
				Action: r.SettingsIntegrations,
			},
			{
				Name:  "credentials",
				Usage: "Submit provider credentials to the backend",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "provider", Required: true, Usage: "Provider name"},
					&cli.StringSliceFlag{Name: "value", Usage: "Credential as key=value, repeatable"},
				},
				Action: r.SettingsCredentials,
			},
			{
				Name:  "connect-reference",
				Usage: "Connect the reference manager via OAuth2",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "code", Usage: "Authorization code from the provider redirect"},
					&cli.StringFlag{
						Name:    "config",
						Aliases: []string{"c"},
						Usage:   "Path to configuration file",
						Value:   "config.toml",
					},
				},
				Action: r.SettingsConnectReference,
			},
		},
	}
}

// apiCommand handles direct API calls for debugging
func apiCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "api",
		Usage: "Direct API calls to the curation backend",
		Commands: []*cli.Command{
			{
				Name:  "get",
				Usage: "Direct GET, prints raw JSON",
				Arguments: []cli.Argument{
					&cli.StringArg{
						Name: "path",
					},
				},
				Action: r.APIGet,
			},
			{
				Name:  "post",
				Usage: "Direct POST with JSON body",
				Arguments: []cli.Argument{
					&cli.StringArg{
						Name: "path",
					},
				},
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "data",
						Aliases:  []string{"d"},
						Usage:    "JSON body to send",
						Required: true,
					},
				},
				Action: r.APIPost,
			},
		},
	}
}

// serveCommand runs the bundled reference backend
func serveCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Run the in-memory reference backend",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "host", Usage: "Listen host (defaults to config)"},
			&cli.IntFlag{Name: "port", Usage: "Listen port (defaults to config)"},
		},
		Action: r.Serve,
	}
}

// setupCommand handles setup operations for configuration and client state.
func setupCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "setup",
		Usage: "Initialize config and the client-state database",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to configuration file",
				Value:   "config.toml",
			},
		},
		Action: r.Setup,
	}
}

// tuiCommand returns the top-level TUI command for interactive staging review.
func tuiCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "tui",
		Aliases: []string{"interactive", "ui"},
		Usage:   "Launch the interactive staging review TUI",
		Action:  r.TUI,
	}
}

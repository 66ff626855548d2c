package main

import (
	"context"
	"fmt"

	"github.com/imanmossavat/litstage/internal/formatter"
	"github.com/imanmossavat/litstage/internal/session"
	"github.com/imanmossavat/litstage/internal/shared"
	"github.com/urfave/cli/v3"
)

// LibraryPreview shows what a create call would commit.
func (r *Runner) LibraryPreview(ctx context.Context, cmd *cli.Command) error {
	s, err := r.requireSession()
	if err != nil {
		return err
	}

	preview, err := r.libraries.Preview(ctx, s.ID)
	if err != nil {
		return err
	}

	r.writePlainHeader(fmt.Sprintf("Library preview (%d papers)", preview.Count))
	r.output.Write(formatter.RecordsToText(preview.Papers))
	return nil
}

// LibraryCreate commits the session's confirmed matches as a library. The
// backend finalizes the session as part of the commit.
func (r *Runner) LibraryCreate(ctx context.Context, cmd *cli.Command) error {
	s, err := r.requireSession()
	if err != nil {
		return err
	}

	lib, err := r.libraries.Create(ctx, s.ID, cmd.String("name"), cmd.String("path"), cmd.String("description"))
	if err != nil {
		return err
	}

	r.writePlain("Created library %q (%s) with %d papers\n", lib.Name, lib.LibraryID, lib.PaperCount)
	return nil
}

// LibraryList prints every persisted library.
func (r *Runner) LibraryList(ctx context.Context, cmd *cli.Command) error {
	libs, err := r.libraries.List(ctx)
	if err != nil {
		return err
	}

	r.writePlainHeader("Libraries")
	r.output.Write(formatter.LibrariesToText(libs))
	return nil
}

// LibraryShow prints one library.
func (r *Runner) LibraryShow(ctx context.Context, cmd *cli.Command) error {
	lib, err := r.libraries.Get(ctx, cmd.Args().First())
	if err != nil {
		return err
	}

	r.writePlain("Library:     %s\n", lib.LibraryID)
	r.writePlain("Name:        %s\n", lib.Name)
	r.writePlain("Path:        %s\n", lib.Path)
	if lib.Description != "" {
		r.writePlain("Description: %s\n", lib.Description)
	}
	r.writePlain("Papers:      %d\n", lib.PaperCount)
	return nil
}

// LibraryEdit starts an edit session seeded from the library's papers and
// tracks it as the current session.
func (r *Runner) LibraryEdit(ctx context.Context, cmd *cli.Command) error {
	libraryID := cmd.Args().First()
	if libraryID == "" {
		return fmt.Errorf("%w: library id", shared.ErrMissingArgument)
	}

	sess, err := r.libraries.StageEdit(ctx, libraryID)
	if err != nil {
		return err
	}

	r.writePlain("Started edit session %s for library %s\n", sess.ID, libraryID)
	r.writePlain("The library's papers are staged; review with 'litstage stage list',\n")
	r.writePlain("then apply with 'litstage library commit'.\n")
	return nil
}

// LibraryCommit applies the edit session back onto its library.
func (r *Runner) LibraryCommit(ctx context.Context, cmd *cli.Command) error {
	s, err := r.requireSession()
	if err != nil {
		return err
	}
	if s.UseCase != session.UseCaseLibraryEdit {
		return fmt.Errorf("%w: session %s is a %s session, not a library edit", shared.ErrInvalidInput, s.ID, s.UseCase)
	}

	lib, err := r.libraries.CommitEdit(ctx, s.ID)
	if err != nil {
		return err
	}

	r.writePlain("Committed edits to library %q: now %d papers\n", lib.Name, lib.PaperCount)
	return nil
}

// LibraryDiscover asks the backend's crawler for papers related to a library.
func (r *Runner) LibraryDiscover(ctx context.Context, cmd *cli.Command) error {
	libraryID := cmd.Args().First()
	if libraryID == "" {
		return fmt.Errorf("%w: library id", shared.ErrMissingArgument)
	}

	related, err := r.libraries.Discover(ctx, libraryID)
	if err != nil {
		return err
	}

	r.writePlainHeader("Related papers")
	r.output.Write(formatter.RecordsToText(related))
	if len(related) > 0 {
		r.writePlain("\nStage them into an edit session with 'litstage library edit %s'\n", libraryID)
		r.writePlain("followed by 'litstage import ids <identifier>...'.\n")
	}
	return nil
}

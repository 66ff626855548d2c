package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/imanmossavat/litstage/internal/importer"
	"github.com/imanmossavat/litstage/internal/shared"
	"github.com/urfave/cli/v3"
)

// ImportIdentifiers stages rows for manually entered identifiers.
func (r *Runner) ImportIdentifiers(ctx context.Context, cmd *cli.Command) error {
	engine, err := r.engineForSession()
	if err != nil {
		return err
	}

	manual := importer.NewManual(r.client, engine.Refresh, r.logger)
	added, err := manual.AddIdentifiers(ctx, engine.SessionID(), cmd.Args().Slice())
	if err != nil {
		return err
	}

	r.writePlain("Staged %d rows from %d identifiers\n", added, cmd.Args().Len())
	return nil
}

// ImportCollection stages rows from a reference-manager collection.
func (r *Runner) ImportCollection(ctx context.Context, cmd *cli.Command) error {
	engine, err := r.engineForSession()
	if err != nil {
		return err
	}

	ref := importer.NewReferenceManager(r.client, engine.Refresh, r.logger)
	added, err := ref.ImportCollection(ctx, engine.SessionID(), cmd.Args().First())
	if err != nil {
		return err
	}

	r.writePlain("Staged %d rows from collection %s\n", added, cmd.Args().First())
	return nil
}

// ImportDocument uploads a document and runs reference extraction over it.
// An extraction-service outage gets its own guidance instead of a bare error.
func (r *Runner) ImportDocument(ctx context.Context, cmd *cli.Command) error {
	path := cmd.Args().First()
	if path == "" {
		return fmt.Errorf("%w: document file", shared.ErrMissingArgument)
	}

	engine, err := r.engineForSession()
	if err != nil {
		return err
	}

	doc := importer.NewDocument(r.client, engine.Refresh, r.logger)
	upload, err := doc.UploadFile(ctx, engine.SessionID(), path)
	if err != nil {
		return err
	}
	r.writePlain("Uploaded %s (upload %s)\n", upload.Filename, upload.UploadID)

	candidates, err := doc.Extract(ctx, engine.SessionID(), upload.UploadID)
	if err != nil {
		if errors.Is(err, shared.ErrExtractionUnavailable) {
			r.writePlain("The extraction service is currently unavailable.\n")
			r.writePlain("Your upload is stored; retry later with 'litstage import doc-review'.\n")
			r.writePlain("Troubleshooting: %s\n", shared.ExtractionGuideURL)
		}
		return err
	}

	r.writePlain("Extracted %d candidates. Review them with 'litstage import doc-review'.\n", len(candidates))
	return nil
}

// ImportDocumentReview prints the session's extracted candidates.
func (r *Runner) ImportDocumentReview(ctx context.Context, cmd *cli.Command) error {
	engine, err := r.engineForSession()
	if err != nil {
		return err
	}

	doc := importer.NewDocument(r.client, engine.Refresh, r.logger)
	candidates, err := doc.Review(ctx, engine.SessionID())
	if err != nil {
		return err
	}

	if len(candidates) == 0 {
		r.writePlain("No extracted candidates. Upload a document with 'litstage import doc <file>'.\n")
		return nil
	}

	r.writePlainHeader("Extracted candidates")
	for _, c := range candidates {
		mark := " "
		if c.Matched {
			mark = "*"
		}
		line := fmt.Sprintf("%s %s  %s", mark, c.CandidateID, c.Title)
		if len(c.Authors) > 0 {
			line += " - " + shared.FormatAuthors(c.Authors)
		}
		if c.Year != nil {
			line += fmt.Sprintf(" (%d)", *c.Year)
		}
		r.writePlain("%s\n", line)
	}
	r.writePlain("\n* = matched against the metadata index\n")
	return nil
}

// ImportDocumentMatch reconciles the extracted candidates against the index.
func (r *Runner) ImportDocumentMatch(ctx context.Context, cmd *cli.Command) error {
	engine, err := r.engineForSession()
	if err != nil {
		return err
	}

	doc := importer.NewDocument(r.client, engine.Refresh, r.logger)
	matched, unmatched, err := doc.MatchCandidates(ctx, engine.SessionID())
	if err != nil {
		return err
	}

	r.writePlain("Matched %d candidates, %d unmatched\n", matched, unmatched)
	r.writePlain("Stage the matched ones with 'litstage import doc-confirm --matched'.\n")
	return nil
}

// ImportDocumentConfirm stages the chosen candidates as rows. With --matched,
// every candidate the index matched is confirmed.
func (r *Runner) ImportDocumentConfirm(ctx context.Context, cmd *cli.Command) error {
	engine, err := r.engineForSession()
	if err != nil {
		return err
	}

	doc := importer.NewDocument(r.client, engine.Refresh, r.logger)

	ids := cmd.Args().Slice()
	if cmd.Bool("matched") {
		candidates, err := doc.Review(ctx, engine.SessionID())
		if err != nil {
			return err
		}
		for _, c := range candidates {
			if c.Matched {
				ids = append(ids, c.CandidateID)
			}
		}
	}

	added, err := doc.Confirm(ctx, engine.SessionID(), ids)
	if err != nil {
		return err
	}

	r.writePlain("Staged %d rows from %d candidates\n", added, len(ids))
	return nil
}

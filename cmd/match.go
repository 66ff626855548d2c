package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/imanmossavat/litstage/internal/api"
	"github.com/imanmossavat/litstage/internal/formatter"
	"github.com/imanmossavat/litstage/internal/match"
	"github.com/imanmossavat/litstage/internal/shared"
	"github.com/urfave/cli/v3"
)

// reviewForSession builds a match review flow bound to the tracked session.
func (r *Runner) reviewForSession() (*match.Review, error) {
	s, err := r.requireSession()
	if err != nil {
		return nil, err
	}
	return match.NewReview(r.client, s.ID, r.logger), nil
}

// MatchRun reconciles the selected rows and prints the partition.
func (r *Runner) MatchRun(ctx context.Context, cmd *cli.Command) error {
	review, err := r.reviewForSession()
	if err != nil {
		return err
	}
	if err := review.Run(ctx); err != nil {
		return err
	}

	resp := &api.MatchResponse{Unmatched: review.Unmatched()}
	for _, m := range review.Matched() {
		resp.Matched = append(resp.Matched, m.MatchedRow)
	}

	r.writePlainHeader("Reconciliation")
	r.output.Write(formatter.MatchesToText(resp))
	if len(resp.Matched) > 0 {
		r.writePlain("\nConfirm the matched rows with 'litstage match confirm'.\n")
	}
	return nil
}

// MatchConfirm re-runs reconciliation and confirms the matched rows, minus
// any --exclude ids.
func (r *Runner) MatchConfirm(ctx context.Context, cmd *cli.Command) error {
	review, err := r.reviewForSession()
	if err != nil {
		return err
	}
	if err := review.Run(ctx); err != nil {
		return err
	}

	for _, id := range cmd.StringSlice("exclude") {
		if err := review.SetConfirm(id, false); err != nil {
			return err
		}
	}

	confirmed, err := review.Confirm(ctx)
	if err != nil {
		if errors.Is(err, shared.ErrInvalidInput) {
			return fmt.Errorf("%w: nothing to confirm, run 'litstage match run' first", shared.ErrInvalidInput)
		}
		return err
	}

	r.writePlain("Confirmed %d matched rows\n", confirmed)
	r.writePlain("Commit them with 'litstage library create --name ... --path ...'.\n")
	return nil
}

// MatchRematch patches one row's metadata and re-submits it for
// reconciliation.
func (r *Runner) MatchRematch(ctx context.Context, cmd *cli.Command) error {
	stagingID := cmd.Args().First()
	if stagingID == "" {
		return fmt.Errorf("%w: staging id", shared.ErrMissingArgument)
	}

	fields, err := parseFieldArgs(cmd.StringSlice("set"))
	if err != nil {
		return err
	}

	review, err := r.reviewForSession()
	if err != nil {
		return err
	}

	resp, err := review.EditAndRematch(ctx, stagingID, fields)
	if err != nil && resp == nil {
		return err
	}

	if resp.Matched {
		r.writePlain("Row %s now matches %q (%s, score %.2f)\n",
			stagingID, resp.Record.Title, resp.Method, resp.Score)
	} else {
		r.writePlain("Row %s is still unmatched: %s\n", stagingID, resp.Reason)
	}
	if err != nil {
		// The rematch itself succeeded; only the partition reload failed.
		r.writePlain("Warning: %v\n", err)
	}
	return nil
}

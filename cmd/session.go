package main

import (
	"context"
	"fmt"

	"github.com/imanmossavat/litstage/internal/session"
	"github.com/urfave/cli/v3"
)

// SessionStart starts a new workflow session and records it as current.
func (r *Runner) SessionStart(ctx context.Context, cmd *cli.Command) error {
	useCase, err := session.ParseUseCase(cmd.String("use-case"))
	if err != nil {
		return err
	}

	if existing := r.registry.Get(); existing != nil {
		r.logger.Info("replacing tracked session", "previous", existing.ID)
	}

	sess, err := r.client.StartSession(ctx, useCase)
	if err != nil {
		return fmt.Errorf("failed to start session: %w", err)
	}
	r.registry.Set(sess.ID, sess.UseCase)

	r.writePlain("Started %s session %s\n", sess.UseCase, sess.ID)
	r.writePlain("Stage rows with 'litstage import ids <doi>...'\n")
	return nil
}

// SessionStatus shows the tracked session alongside the backend's view of it.
func (r *Runner) SessionStatus(ctx context.Context, cmd *cli.Command) error {
	s, err := r.requireSession()
	if err != nil {
		return err
	}

	r.writePlain("Session:  %s\n", s.ID)
	r.writePlain("Use case: %s\n", s.UseCase)

	info, err := r.client.GetSession(ctx, s.ID)
	if err != nil {
		r.writePlain("Backend:  unreachable or expired (%v)\n", err)
		return nil
	}
	r.writePlain("Backend:  active since %s\n", info.CreatedAt)
	return nil
}

// SessionFinalize ends the session; the backend discards unconfirmed rows.
func (r *Runner) SessionFinalize(ctx context.Context, cmd *cli.Command) error {
	s, err := r.requireSession()
	if err != nil {
		return err
	}

	if err := r.client.FinalizeSession(ctx, s.ID); err != nil {
		return fmt.Errorf("failed to finalize session: %w", err)
	}
	r.registry.Clear()

	r.writePlain("Finalized session %s\n", s.ID)
	return nil
}

// SessionCancel abandons the session without committing anything.
func (r *Runner) SessionCancel(ctx context.Context, cmd *cli.Command) error {
	s, err := r.requireSession()
	if err != nil {
		return err
	}

	if err := r.client.CancelSession(ctx, s.ID); err != nil {
		return fmt.Errorf("failed to cancel session: %w", err)
	}
	r.registry.Clear()

	r.writePlain("Cancelled session %s\n", s.ID)
	return nil
}

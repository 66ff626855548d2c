package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/imanmossavat/litstage/internal/formatter"
	"github.com/imanmossavat/litstage/internal/shared"
	"github.com/imanmossavat/litstage/internal/staging"
	"github.com/urfave/cli/v3"
)

// StageList fetches one page of staged rows under the requested filters, sort,
// and paging, then prints or exports it.
func (r *Runner) StageList(ctx context.Context, cmd *cli.Command) error {
	engine, err := r.engineForSession()
	if err != nil {
		return err
	}

	filters := staging.Filters{Query: cmd.String("query")}
	for _, pair := range cmd.StringSlice("filter") {
		col, value, ok := strings.Cut(pair, "=")
		if !ok || col == "" || value == "" {
			return fmt.Errorf("%w: expected column=value, got %q", shared.ErrInvalidArgument, pair)
		}
		if filters.Columns == nil {
			filters.Columns = map[staging.Column][]string{}
		}
		filters.Columns[staging.Column(col)] = append(filters.Columns[staging.Column(col)], value)
	}
	if cmd.IsSet("year-from") {
		from := cmd.Int("year-from")
		filters.YearFrom = &from
	}
	if cmd.IsSet("year-to") {
		to := cmd.Int("year-to")
		filters.YearTo = &to
	}

	engine.Apply(
		filters,
		staging.Sort{Field: cmd.String("sort"), Desc: cmd.Bool("desc")},
		staging.Page{Number: cmd.Int("page"), Size: cmd.Int("page-size")},
	)

	snap, err := engine.Fetch(ctx)
	if err != nil {
		return err
	}

	if cmd.IsSet("export") || cmd.IsSet("output") {
		result, err := formatter.WriteRowsExport(engine.SessionID(), snap, cmd.String("export"), cmd.String("output"))
		if err != nil {
			return err
		}
		r.writePlain("Exported %d rows to %s\n", len(snap.Rows), result.File)
		return nil
	}

	if cmd.Bool("json") {
		return r.writeJSON(snap, true)
	}

	switch snap.Classify() {
	case staging.EmptyNoRowsStaged:
		r.writePlain("No rows staged yet. Add some with 'litstage import ids <doi>...'\n")
		return nil
	case staging.EmptyNoFilterMatch:
		r.writePlain("No staged rows match the active filters (%d staged in total).\n", snap.TotalRows)
		return nil
	}

	r.writePlainHeader(fmt.Sprintf("Staged rows (page %d)", engine.Page().Number))
	r.output.Write(formatter.RowsToText(snap))
	return nil
}

// StageSelect sets or clears the selection flag on the given rows.
func (r *Runner) StageSelect(ctx context.Context, cmd *cli.Command) error {
	ids := cmd.Args().Slice()
	if len(ids) == 0 {
		return fmt.Errorf("%w: at least one staging id", shared.ErrMissingArgument)
	}

	s, err := r.requireSession()
	if err != nil {
		return err
	}

	selected := !cmd.Bool("deselect")
	if err := r.client.SelectRows(ctx, s.ID, ids, selected); err != nil {
		return err
	}

	verb := "Selected"
	if !selected {
		verb = "Deselected"
	}
	r.writePlain("%s %d rows\n", verb, len(ids))
	return nil
}

// StageEdit applies a partial update to one row. An empty value unsets the
// field on the server.
func (r *Runner) StageEdit(ctx context.Context, cmd *cli.Command) error {
	stagingID := cmd.Args().First()
	if stagingID == "" {
		return fmt.Errorf("%w: staging id", shared.ErrMissingArgument)
	}

	fields, err := parseFieldArgs(cmd.StringSlice("set"))
	if err != nil {
		return err
	}
	if len(fields) == 0 {
		return fmt.Errorf("%w: at least one --set field=value", shared.ErrMissingArgument)
	}

	s, err := r.requireSession()
	if err != nil {
		return err
	}

	if err := r.client.PatchRow(ctx, s.ID, stagingID, fields); err != nil {
		return err
	}
	r.writePlain("Updated row %s (%d fields)\n", stagingID, len(fields))
	return nil
}

// StageRemove deletes a staged row.
func (r *Runner) StageRemove(ctx context.Context, cmd *cli.Command) error {
	stagingID := cmd.Args().First()
	if stagingID == "" {
		return fmt.Errorf("%w: staging id", shared.ErrMissingArgument)
	}

	s, err := r.requireSession()
	if err != nil {
		return err
	}

	if err := r.client.DeleteRow(ctx, s.ID, stagingID); err != nil {
		return err
	}
	r.writePlain("Removed row %s\n", stagingID)
	return nil
}

// StageRetractions sweeps the given rows (all staged rows when none are
// passed) against the retraction index.
func (r *Runner) StageRetractions(ctx context.Context, cmd *cli.Command) error {
	s, err := r.requireSession()
	if err != nil {
		return err
	}

	resp, err := r.client.CheckRetractions(ctx, s.ID, cmd.Args().Slice())
	if err != nil {
		return err
	}

	r.writePlain("Checked %d rows: %d retracted\n", resp.Checked, resp.Retracted)
	if resp.Retracted > 0 {
		r.writePlain("Retracted rows are flagged in 'litstage stage list'.\n")
	}
	return nil
}

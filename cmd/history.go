package main

import (
	"context"
	"fmt"

	"github.com/desertthunder/m3ux/internal/models"
	"github.com/desertthunder/m3ux/internal/repositories"
	"github.com/desertthunder/m3ux/internal/server"
	"github.com/desertthunder/m3ux/internal/shared"
	"github.com/desertthunder/m3ux/internal/ui"
	"github.com/urfave/cli/v3"
)

// History lists recorded runs, newest first.
func (r *Runner) History(ctx context.Context, cmd *cli.Command) error {
	runs, closeDB, err := r.runRepository(cmd)
	if err != nil {
		return err
	}
	defer closeDB()

	criteria := map[string]any{"limit": int(cmd.Int("limit"))}
	if outcome := cmd.String("outcome"); outcome != "" {
		criteria["outcome"] = models.RunOutcome(outcome)
	}

	list, err := runs.List(criteria)
	if err != nil {
		return err
	}

	if cmd.Bool("json") {
		return r.writeJSON(server.NewRunViews(list), true)
	}

	if len(list) == 0 {
		return r.writePlain("%s\n", r.palette.Help("no runs recorded"))
	}
	return r.writePlain("%s", ui.RunTable(list).Render(r.palette))
}

// HistoryShow prints one recorded run.
func (r *Runner) HistoryShow(ctx context.Context, cmd *cli.Command) error {
	id := cmd.Args().First()
	if id == "" {
		return fmt.Errorf("%w: run id", shared.ErrMissingArgument)
	}

	runs, closeDB, err := r.runRepository(cmd)
	if err != nil {
		return err
	}
	defer closeDB()

	run, err := runs.Get(id)
	if err != nil {
		return err
	}

	if cmd.Bool("json") {
		return r.writeJSON(server.NewRunViews([]*models.Run{run})[0], true)
	}
	return r.writePlain("%s", ui.RunTable([]*models.Run{run}).Render(r.palette))
}

// HistoryDelete removes a run from the history. The row is kept with deleted_at set.
func (r *Runner) HistoryDelete(ctx context.Context, cmd *cli.Command) error {
	id := cmd.Args().First()
	if id == "" {
		return fmt.Errorf("%w: run id", shared.ErrMissingArgument)
	}

	runs, closeDB, err := r.runRepository(cmd)
	if err != nil {
		return err
	}
	defer closeDB()

	if err := runs.Delete(id); err != nil {
		return err
	}
	return r.writePlain("%s\n", r.palette.Success(fmt.Sprintf("✓ Run %s deleted", id)))
}

// runRepository opens the configured database for history commands. History needs database.path.
func (r *Runner) runRepository(cmd *cli.Command) (*repositories.RunRepository, func(), error) {
	config, err := r.loadConfig(cmd)
	if err != nil {
		return nil, nil, err
	}

	db, closeDB, err := r.openDatabase(config)
	if err != nil {
		return nil, nil, err
	}
	if db == nil {
		closeDB()
		return nil, nil, fmt.Errorf("%w: database.path is empty, run history is disabled", shared.ErrInvalidConfig)
	}
	return repositories.NewRunRepository(db), closeDB, nil
}

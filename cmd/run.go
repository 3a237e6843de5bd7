package main

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/m3ux/internal/gate"
	"github.com/desertthunder/m3ux/internal/rules"
	"github.com/desertthunder/m3ux/internal/shared"
	"github.com/desertthunder/m3ux/internal/tasks"
	"github.com/desertthunder/m3ux/internal/ui"
	"github.com/gofrs/flock"
	"github.com/urfave/cli/v3"
)

// Run executes one pipeline pass under the process lock.
func (r *Runner) Run(ctx context.Context, cmd *cli.Command) error {
	r.setVerbosity(cmd)

	config, err := r.loadConfig(cmd)
	if err != nil {
		return err
	}
	if s := cmd.String("source"); s != "" {
		config.Source.URL = s
	}
	if o := cmd.String("output"); o != "" {
		config.Output.Path = o
	}
	if err := config.Validate(); err != nil {
		return err
	}

	unlock, err := r.acquireLock(config.Lock.Path)
	if err != nil {
		return err
	}
	defer unlock()

	db, closeDB, err := r.openDatabase(config)
	if err != nil {
		return err
	}
	defer closeDB()

	logger := shared.WithLogger(r.logger, "cmd", "run")
	pipeline, err := r.newPipeline(config, db, logger)
	if err != nil {
		return err
	}

	opts := pipelineOptions(config)
	opts.Force = cmd.Bool("force")
	opts.DryRun = cmd.Bool("dry-run")

	progress := make(chan tasks.ProgressUpdate, 8)
	done := make(chan struct{})
	go func() {
		defer close(done)
		for u := range progress {
			logger.Debug(u.Message, "phase", u.Phase.String(), "step", fmt.Sprintf("%d/%d", u.Step, u.Total))
		}
	}()

	result, err := pipeline.Run(ctx, opts, progress)
	close(progress)
	<-done
	if err != nil {
		return err
	}

	return r.writePlain("%s", ui.RunReport(r.palette, result, opts.OutputPath, opts.DryRun))
}

// newPipeline compiles the configured rules and wires the pipeline. db may be nil.
func (r *Runner) newPipeline(config *shared.Config, db *sql.DB, logger *log.Logger) (*tasks.Pipeline, error) {
	rs, err := rules.FromConfig(config.Rules)
	if err != nil {
		return nil, err
	}

	store, err := r.digestStore(config, db)
	if err != nil {
		return nil, err
	}

	return tasks.NewPipeline(
		r.newFetcher(config),
		r.sink,
		gate.New(store, logger),
		rules.NewEngine(rs, logger),
		r.history(db),
		logger,
	), nil
}

func pipelineOptions(config *shared.Config) tasks.Options {
	return tasks.Options{
		SourceURL:   config.Source.URL,
		OutputPath:  config.Output.Path,
		Generator:   config.Output.Generator,
		Placeholder: config.Output.Placeholder,
	}
}

// acquireLock takes the run lock without waiting. A held lock fails with [shared.ErrLocked].
func (r *Runner) acquireLock(path string) (func(), error) {
	if path == "" {
		return func() {}, nil
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create lock directory: %w", err)
		}
	}

	lock := flock.New(path)
	ok, err := lock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("failed to acquire lock %s: %w", path, err)
	}
	if !ok {
		return nil, fmt.Errorf("%w: %s", shared.ErrLocked, path)
	}

	return func() {
		if err := lock.Unlock(); err != nil {
			r.logger.Warn("failed to release lock", "path", path, "error", err)
		}
	}, nil
}

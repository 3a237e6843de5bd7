package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/desertthunder/m3ux/internal/repositories"
	"github.com/desertthunder/m3ux/internal/server"
	"github.com/desertthunder/m3ux/internal/shared"
	"github.com/desertthunder/m3ux/internal/tasks"
	"github.com/urfave/cli/v3"
)

// Serve runs the pipeline on the refresh interval and serves the output over HTTP until interrupted.
//
// The run lock is held for the lifetime of the process so a cron-driven `run` cannot race the scheduler.
func (r *Runner) Serve(ctx context.Context, cmd *cli.Command) error {
	r.setVerbosity(cmd)

	config, err := r.loadConfig(cmd)
	if err != nil {
		return err
	}
	if addr := cmd.String("addr"); addr != "" {
		config.Server.Addr = addr
	}
	if interval := cmd.String("interval"); interval != "" {
		config.Server.RefreshInterval = interval
	}
	if err := config.Validate(); err != nil {
		return err
	}
	interval, err := config.Server.Refresh()
	if err != nil {
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

	logger := shared.WithLogger(r.logger, "cmd", "serve")
	pipeline, err := r.newPipeline(config, db, logger)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	metrics := server.NewMetrics()
	status := server.NewStatus()
	opts := server.Options{
		Addr:       config.Server.Addr,
		OutputPath: config.Output.Path,
		Metrics:    metrics,
		Status:     status,
		Logger:     logger,
	}
	if db != nil {
		opts.Runs = repositories.NewRunRepository(db)
	}
	srv := server.New(opts)

	hook := func(result *tasks.Result, err error, elapsed time.Duration) {
		metrics.ObserveRun(result, err, elapsed)
		status.ObserveRun(result, err, elapsed)
	}
	scheduler := tasks.NewScheduler(pipeline, pipelineOptions(config), interval, hook, logger)

	done := make(chan struct{})
	go func() {
		defer close(done)
		scheduler.Start(ctx)
	}()

	err = srv.ListenAndServe(ctx)
	stop()
	<-done
	return err
}

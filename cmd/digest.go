package main

import (
	"context"

	"github.com/desertthunder/m3ux/internal/gate"
	"github.com/urfave/cli/v3"
)

// DigestShow prints the stored digest for the configured source.
func (r *Runner) DigestShow(ctx context.Context, cmd *cli.Command) error {
	g, done, err := r.openGate(cmd)
	if err != nil {
		return err
	}
	defer done()

	digest, ok, err := g.Stored(ctx)
	if err != nil {
		return err
	}
	if !ok {
		return r.writePlain("%s\n", r.palette.Help("no digest stored, the next run will process"))
	}
	return r.writePlain("%s\n", digest)
}

// DigestReset clears the stored digest.
func (r *Runner) DigestReset(ctx context.Context, cmd *cli.Command) error {
	g, done, err := r.openGate(cmd)
	if err != nil {
		return err
	}
	defer done()

	if err := g.Reset(ctx); err != nil {
		return err
	}
	r.logger.Info("digest cleared")
	return r.writePlain("%s\n", r.palette.Success("✓ Digest cleared"))
}

func (r *Runner) openGate(cmd *cli.Command) (*gate.Gate, func(), error) {
	config, err := r.loadConfig(cmd)
	if err != nil {
		return nil, nil, err
	}

	db, closeDB, err := r.openDatabase(config)
	if err != nil {
		return nil, nil, err
	}

	store, err := r.digestStore(config, db)
	if err != nil {
		closeDB()
		return nil, nil, err
	}
	return gate.New(store, r.logger), closeDB, nil
}

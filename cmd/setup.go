package main

import (
	"context"
	"fmt"

	"github.com/desertthunder/m3ux/internal/shared"
	"github.com/urfave/cli/v3"
)

// SetupConfig writes the built-in config template to the --config path.
func (r *Runner) SetupConfig(ctx context.Context, cmd *cli.Command) error {
	path := cmd.String("config")
	if err := shared.CreateConfigFile(path); err != nil {
		return err
	}

	r.logger.Info("config file created", "path", path)
	r.writePlain("%s\n", r.palette.Success("✓ Config written to "+path))
	r.writePlain("Next: edit [source] and [[rules]], then run 'm3ux run --config %s'\n", path)
	return nil
}

// SetupDatabase initializes the database and runs migrations.
func (r *Runner) SetupDatabase(ctx context.Context, cmd *cli.Command) error {
	config, err := r.loadConfig(cmd)
	if err != nil {
		return err
	}
	if config.Database.Path == "" {
		return fmt.Errorf("%w: database.path is empty", shared.ErrInvalidConfig)
	}

	r.logger.Info("initializing database", "path", config.Database.Path)

	db, err := shared.OpenConfigured(config.Database)
	if err != nil {
		return fmt.Errorf("failed to create database: %w", err)
	}
	defer db.Close()

	versions, err := shared.AppliedVersions(db)
	if err != nil {
		return err
	}
	r.logger.Infof("setup complete for database: %v", config.Database.Path)
	return r.writePlain("%s\n", r.palette.Success(fmt.Sprintf("✓ Database ready at %s (%d migrations applied)", config.Database.Path, len(versions))))
}

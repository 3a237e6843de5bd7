package main

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"net/http"
	"os"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/m3ux/internal/gate"
	"github.com/desertthunder/m3ux/internal/repositories"
	"github.com/desertthunder/m3ux/internal/services"
	"github.com/desertthunder/m3ux/internal/shared"
	"github.com/desertthunder/m3ux/internal/tasks"
	"github.com/desertthunder/m3ux/internal/ui"
	"github.com/urfave/cli/v3"
)

// Runner holds all dependencies for CLI commands and provides methods for each command action.
type Runner struct {
	config     *shared.Config
	configPath string
	fetcher    services.Fetcher
	sink       services.Sink
	db         *sql.DB
	httpClient *http.Client
	logger     *log.Logger
	output     io.Writer
	palette    *ui.Palette
}

// RunnerOpts contains configuration options for creating a Runner.
//
// Config, Fetcher, Sink and Database are normally built per command from the config file;
// setting them pins the value for every command.
type RunnerOpts struct {
	Config     *shared.Config
	ConfigPath string
	Fetcher    services.Fetcher
	Sink       services.Sink
	Database   *sql.DB
	HTTPClient *http.Client
	Logger     *log.Logger
	Output     io.Writer
	Palette    *ui.Palette
}

// NewRunner creates a new Runner with the provided configuration
func NewRunner(opts RunnerOpts) *Runner {
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}
	if opts.Output == nil {
		opts.Output = os.Stdout
	}
	if opts.HTTPClient == nil {
		opts.HTTPClient = http.DefaultClient
	}
	if opts.Sink == nil {
		opts.Sink = services.FileSink{}
	}
	if opts.Palette == nil {
		opts.Palette = ui.Default()
	}

	return &Runner{
		config:     opts.Config,
		configPath: opts.ConfigPath,
		fetcher:    opts.Fetcher,
		sink:       opts.Sink,
		db:         opts.Database,
		httpClient: opts.HTTPClient,
		logger:     opts.Logger,
		output:     opts.Output,
		palette:    opts.Palette,
	}
}

func (r *Runner) register() []*cli.Command {
	commands := []*cli.Command{}
	for _, fn := range [](func(*Runner) *cli.Command){
		runCommand, inspectCommand, rulesCommand, digestCommand, historyCommand, serveCommand, setupCommand,
	} {
		commands = append(commands, fn(r))
	}

	return commands
}

// loadConfig resolves the configuration for a command.
//
// A pinned config wins and is copied so flag overrides stay per command. Otherwise the --config file is read; a missing file falls back to the
// embedded defaults unless the flag was set explicitly.
func (r *Runner) loadConfig(cmd *cli.Command) (*shared.Config, error) {
	if r.config != nil {
		config := *r.config
		return &config, nil
	}

	path := cmd.String("config")
	if r.configPath != "" && !cmd.IsSet("config") {
		path = r.configPath
	}

	config, err := shared.LoadConfig(path)
	switch {
	case err == nil:
		r.logger.Debug("loaded config", "path", path)
		return config, nil
	case errors.Is(err, fs.ErrNotExist) && !cmd.IsSet("config"):
		r.logger.Debug("config file not found, using defaults", "path", path)
		return shared.DefaultConfig(), nil
	case errors.Is(err, fs.ErrNotExist):
		return nil, fmt.Errorf("%w: %s", shared.ErrMissingConfig, path)
	default:
		return nil, fmt.Errorf("%w: %w", shared.ErrInvalidConfig, err)
	}
}

// newFetcher returns the pinned fetcher or one built from the source settings.
func (r *Runner) newFetcher(config *shared.Config) services.Fetcher {
	if r.fetcher != nil {
		return r.fetcher
	}
	return services.NewFetcher(config.Source.URL, services.FetcherOpts{
		Token:          config.Source.Token,
		Timeout:        time.Duration(config.Source.TimeoutSeconds) * time.Second,
		Retries:        config.Source.Retries,
		RetryPerSecond: config.Source.RetryPerSecond,
		Client:         r.httpClient,
		Logger:         r.logger,
	})
}

// openDatabase returns the pinned database or opens the configured one with migrations applied.
//
// The returned close func is a no-op for a pinned database.
func (r *Runner) openDatabase(config *shared.Config) (*sql.DB, func(), error) {
	if r.db != nil {
		return r.db, func() {}, nil
	}
	if config.Database.Path == "" {
		return nil, func() {}, nil
	}

	db, err := shared.OpenConfigured(config.Database)
	if err != nil {
		return nil, nil, err
	}
	return db, func() { db.Close() }, nil
}

// digestStore builds the configured digest store. db may be nil for the file backend.
func (r *Runner) digestStore(config *shared.Config, db *sql.DB) (gate.DigestStore, error) {
	switch config.Digest.Backend {
	case shared.DigestBackendFile:
		return gate.NewFileStore(config.Digest.Path), nil
	case shared.DigestBackendSQLite:
		if db == nil {
			return nil, fmt.Errorf("%w: sqlite digest backend needs database.path", shared.ErrInvalidConfig)
		}
		return gate.NewSQLiteStore(db, config.Source.URL), nil
	default:
		return nil, fmt.Errorf("%w: unknown digest backend %q", shared.ErrInvalidConfig, config.Digest.Backend)
	}
}

// history returns the run recorder backed by db, or nil when history is disabled.
func (r *Runner) history(db *sql.DB) tasks.RunRecorder {
	if db == nil {
		return nil
	}
	return repositories.NewRunRepository(db)
}

func (r *Runner) setVerbosity(cmd *cli.Command) {
	if cmd.Bool("verbose") {
		shared.SetLogLevel(r.logger, log.DebugLevel)
	}
}

func (r *Runner) writeJSON(data any, pretty bool) error {
	var output []byte
	var err error

	if pretty {
		output, err = json.MarshalIndent(data, "", "  ")
	} else {
		output, err = json.Marshal(data)
	}

	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}

	if _, err := r.output.Write(output); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}

	if _, err := r.output.Write([]byte("\n")); err != nil {
		return fmt.Errorf("failed to write newline: %w", err)
	}

	return nil
}

func (r *Runner) writePlain(format string, args ...any) error {
	text := fmt.Sprintf(format, args...)
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

package tasks

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/m3ux/internal/gate"
	"github.com/desertthunder/m3ux/internal/models"
	"github.com/desertthunder/m3ux/internal/playlist"
	"github.com/desertthunder/m3ux/internal/rules"
	"github.com/desertthunder/m3ux/internal/services"
	"github.com/desertthunder/m3ux/internal/shared"
)

// RunRecorder persists finished runs. repositories.RunRepository implements it.
type RunRecorder interface {
	RecordRun(run *models.Run) error
}

// Options configures a single [Pipeline.Run].
type Options struct {
	SourceURL   string // document to fetch
	OutputPath  string // where the rendered playlist is written
	Generator   string // "Generated by" header text
	Placeholder string // written when the source is unchanged and no output exists
	Force       bool   // bypass the change gate
	DryRun      bool   // do not write output or commit the digest
}

// Result describes a finished run.
type Result struct {
	RunID       string // empty when history is disabled or recording failed
	Changed     bool   // the gate reported a change, or Force was set
	Skipped     bool   // the source was unchanged and no processing happened
	Parsed      int    // records produced by the parser
	Emitted     int    // records written after rules were applied
	Digest      string
	Diagnostics []models.Diagnostic
	Output      string // rendered text; empty for skipped runs
}

// Warnings counts non-applied diagnostics.
func (r *Result) Warnings() int {
	n := 0
	for _, d := range r.Diagnostics {
		if d.IsWarning() {
			n++
		}
	}
	return n
}

// Pipeline wires the fetcher, change gate, rule engine, sink and run history together.
type Pipeline struct {
	fetcher services.Fetcher
	sink    services.Sink
	gate    *gate.Gate
	engine  *rules.Engine
	history RunRecorder
	logger  *log.Logger
	now     func() time.Time
}

// NewPipeline creates a Pipeline. history and logger may be nil.
func NewPipeline(fetcher services.Fetcher, sink services.Sink, g *gate.Gate, engine *rules.Engine, history RunRecorder, logger *log.Logger) *Pipeline {
	if logger == nil {
		logger = shared.NopLogger()
	}
	return &Pipeline{
		fetcher: fetcher,
		sink:    sink,
		gate:    g,
		engine:  engine,
		history: history,
		logger:  logger,
		now:     time.Now,
	}
}

// SetClock overrides the header timestamp source.
func (p *Pipeline) SetClock(now func() time.Time) {
	p.now = now
}

// sendProgress sends a progress update through the channel without blocking.
func (p *Pipeline) sendProgress(progress chan<- ProgressUpdate, update ProgressUpdate) {
	if progress == nil {
		return
	}
	select {
	case progress <- update:
	default:
	}
}

// Run executes one pipeline pass. Only retrieval and sink failures are returned as errors.
func (p *Pipeline) Run(ctx context.Context, opts Options, progress chan<- ProgressUpdate) (*Result, error) {
	if opts.SourceURL == "" {
		return nil, fmt.Errorf("%w: source url", shared.ErrMissingArgument)
	}
	if opts.OutputPath == "" {
		return nil, fmt.Errorf("%w: output path", shared.ErrMissingArgument)
	}

	logger := p.logger.With("source", opts.SourceURL)

	p.sendProgress(progress, fetchingUpdate(opts.SourceURL))
	raw, err := p.fetcher.Fetch(ctx, opts.SourceURL)
	if err != nil {
		if !errors.Is(err, shared.ErrRetrieval) {
			err = fmt.Errorf("%w: %w", shared.ErrRetrieval, err)
		}
		return nil, err
	}

	result := &Result{Digest: gate.Digest(raw), Changed: true}

	if !opts.Force {
		result.Changed = p.gate.ShouldRun(ctx, raw)
	} else {
		logger.Info("forced run, ignoring stored digest")
	}
	p.sendProgress(progress, gateUpdate(result.Changed, result.Digest))

	if !result.Changed {
		result.Skipped = true
		if err := p.writePlaceholder(opts); err != nil {
			return nil, err
		}
		p.record(opts, result, models.RunSkipped, progress)
		return result, nil
	}

	records, diags := playlist.Parse(raw)
	result.Parsed = len(records)
	p.sendProgress(progress, parsedUpdate(len(records)))
	for _, d := range diags {
		logger.Warn("parser dropped a record", "detail", d.Detail)
	}

	records, applied := p.engine.Apply(records)
	result.Emitted = len(records)
	result.Diagnostics = append(diags, applied...)
	p.sendProgress(progress, appliedUpdate(len(p.engine.Rules()), len(records)))

	result.Output = playlist.Render(records, playlist.Header{
		Generator:   opts.Generator,
		Source:      opts.SourceURL,
		GeneratedAt: p.now(),
		Rules:       rules.Summaries(p.engine.Rules()),
	})
	p.sendProgress(progress, renderedUpdate(len(result.Output)))

	if opts.DryRun {
		p.sendProgress(progress, writtenUpdate(opts.OutputPath, true))
		logger.Info("dry run complete", "parsed", result.Parsed, "emitted", result.Emitted)
		p.record(opts, result, models.RunDryRun, progress)
		return result, nil
	}

	if err := p.sink.Write(opts.OutputPath, result.Output); err != nil {
		if !errors.Is(err, shared.ErrSink) {
			err = fmt.Errorf("%w: %w", shared.ErrSink, err)
		}
		return nil, err
	}
	p.sendProgress(progress, writtenUpdate(opts.OutputPath, false))
	logger.Info("playlist written", "path", opts.OutputPath, "parsed", result.Parsed, "emitted", result.Emitted)

	if err := p.gate.Commit(ctx, raw); err != nil {
		logger.Warn("could not store digest, next run will reprocess", "error", err)
	} else {
		p.sendProgress(progress, committedUpdate(result.Digest))
	}

	p.record(opts, result, models.RunProcessed, progress)
	return result, nil
}

// writePlaceholder keeps a fresh deployment from serving nothing when the first run is a skip.
func (p *Pipeline) writePlaceholder(opts Options) error {
	if opts.DryRun || opts.Placeholder == "" || p.sink.Exists(opts.OutputPath) {
		return nil
	}

	text := playlist.FileMarker + "\n" + opts.Placeholder + "\n"
	if err := p.sink.Write(opts.OutputPath, text); err != nil {
		if !errors.Is(err, shared.ErrSink) {
			err = fmt.Errorf("%w: %w", shared.ErrSink, err)
		}
		return err
	}
	p.logger.Info("wrote placeholder output", "path", opts.OutputPath)
	return nil
}

func (p *Pipeline) record(opts Options, result *Result, outcome models.RunOutcome, progress chan<- ProgressUpdate) {
	if p.history == nil {
		return
	}

	run := models.NewRun(opts.SourceURL, outcome)
	run.Digest = result.Digest
	run.Parsed = result.Parsed
	run.Emitted = result.Emitted
	run.Warnings = result.Warnings()
	run.OutputPath = opts.OutputPath

	if err := p.history.RecordRun(run); err != nil {
		p.logger.Warn("could not record run", "error", err)
		return
	}
	result.RunID = run.ID()
	p.sendProgress(progress, recordedUpdate(run.ID()))
}

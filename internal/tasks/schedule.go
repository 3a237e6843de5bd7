package tasks

import (
	"context"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/m3ux/internal/shared"
)

// RunHook observes every scheduled run. result is nil when err is set.
type RunHook func(result *Result, err error, elapsed time.Duration)

// Scheduler repeats a pipeline run on a fixed interval. Runs never overlap.
type Scheduler struct {
	pipeline *Pipeline
	opts     Options
	interval time.Duration
	hook     RunHook
	logger   *log.Logger
}

// NewScheduler creates a Scheduler. hook and logger may be nil.
func NewScheduler(p *Pipeline, opts Options, interval time.Duration, hook RunHook, logger *log.Logger) *Scheduler {
	if logger == nil {
		logger = shared.NopLogger()
	}
	if hook == nil {
		hook = func(*Result, error, time.Duration) {}
	}
	return &Scheduler{pipeline: p, opts: opts, interval: interval, hook: hook, logger: logger}
}

// RunOnce performs a single run and reports it to the hook. Errors are logged, not returned.
func (s *Scheduler) RunOnce(ctx context.Context) {
	start := time.Now()
	result, err := s.pipeline.Run(ctx, s.opts, nil)
	elapsed := time.Since(start)

	if err != nil {
		s.logger.Error("scheduled run failed", "error", err, "elapsed", elapsed)
	} else {
		s.logger.Info("scheduled run finished", "skipped", result.Skipped, "emitted", result.Emitted, "elapsed", elapsed)
	}
	s.hook(result, err, elapsed)
}

// Start runs immediately, then once per interval until ctx is done.
//
// A non-positive interval performs the first run only.
func (s *Scheduler) Start(ctx context.Context) {
	s.RunOnce(ctx)
	if s.interval <= 0 {
		return
	}

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.RunOnce(ctx)
		}
	}
}

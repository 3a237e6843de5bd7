package models

import (
	"fmt"
	"time"
)

// RunOutcome is the terminal state of a pipeline run.
type RunOutcome string

const (
	RunSkipped   RunOutcome = "skipped"   // source digest unchanged
	RunProcessed RunOutcome = "processed" // output written and digest committed
	RunDryRun    RunOutcome = "dry_run"   // processed without writing or committing
)

// Run is one recorded pipeline invocation.
type Run struct {
	id         string
	sequence   int
	Source     string
	Digest     string
	Outcome    RunOutcome
	Parsed     int
	Emitted    int
	Warnings   int
	OutputPath string
	createdAt  time.Time
	updatedAt  time.Time
	deletedAt  *time.Time
}

// NewRun creates a Run stamped with the current time. The ID is assigned on persistence.
func NewRun(source string, outcome RunOutcome) *Run {
	now := time.Now().UTC()
	return &Run{Source: source, Outcome: outcome, createdAt: now, updatedAt: now}
}

func (r *Run) ID() string            { return r.id }
func (r *Run) SetID(id string)       { r.id = id }
func (r *Run) Sequence() int         { return r.sequence }
func (r *Run) SetSequence(n int)     { r.sequence = n }
func (r *Run) CreatedAt() time.Time  { return r.createdAt }
func (r *Run) UpdatedAt() time.Time  { return r.updatedAt }
func (r *Run) DeletedAt() *time.Time { return r.deletedAt }

func (r *Run) SetCreatedAt(t time.Time)  { r.createdAt = t }
func (r *Run) SetUpdatedAt(t time.Time)  { r.updatedAt = t }
func (r *Run) SetDeletedAt(t *time.Time) { r.deletedAt = t }

// Touch bumps UpdatedAt.
func (r *Run) Touch() { r.updatedAt = time.Now().UTC() }

// Validate checks required fields and the outcome value.
func (r *Run) Validate() error {
	if r.Source == "" {
		return fmt.Errorf("run source is required")
	}
	switch r.Outcome {
	case RunSkipped, RunProcessed, RunDryRun:
	default:
		return fmt.Errorf("unknown run outcome %q", r.Outcome)
	}
	if r.Parsed < 0 || r.Emitted < 0 || r.Warnings < 0 {
		return fmt.Errorf("run counts must not be negative")
	}
	return nil
}

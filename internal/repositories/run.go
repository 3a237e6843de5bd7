package repositories

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/desertthunder/m3ux/internal/models"
	"github.com/desertthunder/m3ux/internal/shared"
)

var _ models.Repository[*models.Run] = (*RunRepository)(nil)

// RunRepository implements [models.Repository] for [models.Run] persistence.
type RunRepository struct {
	db *sql.DB
}

// NewRunRepository creates a new [RunRepository] with the given database connection
func NewRunRepository(db *sql.DB) *RunRepository {
	return &RunRepository{db: db}
}

const runColumns = `id, sequence, source, digest, outcome, parsed, emitted, warnings, output_path, created_at, updated_at, deleted_at`

// Create inserts a run with a generated ID and sequence.
func (r *RunRepository) Create(run *models.Run) error {
	if err := run.Validate(); err != nil {
		return fmt.Errorf("%w: %w", shared.ErrInvalidModel, err)
	}

	sequence, err := NextSequence(r.db, "runs")
	if err != nil {
		return fmt.Errorf("failed to generate sequence: %w", err)
	}

	id := shared.GenerateID()

	query := `
		INSERT INTO runs (id, sequence, source, digest, outcome, parsed, emitted, warnings, output_path, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	_, err = r.db.Exec(query, id, sequence, run.Source, run.Digest, string(run.Outcome),
		run.Parsed, run.Emitted, run.Warnings, run.OutputPath, run.CreatedAt(), run.UpdatedAt())
	if err != nil {
		return fmt.Errorf("failed to insert run: %w", err)
	}

	run.SetID(id)
	run.SetSequence(sequence)
	return nil
}

// Get retrieves a run by ID, excluding soft-deleted runs
func (r *RunRepository) Get(id string) (*models.Run, error) {
	query := `SELECT ` + runColumns + ` FROM runs WHERE id = ? AND deleted_at IS NULL`

	run, err := scanRun(r.db.QueryRow(query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", shared.ErrRunNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query run: %w", err)
	}
	return run, nil
}

// Update rewrites the mutable fields of a run and bumps updated_at.
func (r *RunRepository) Update(run *models.Run) error {
	if err := run.Validate(); err != nil {
		return fmt.Errorf("%w: %w", shared.ErrInvalidModel, err)
	}
	run.Touch()

	query := `
		UPDATE runs
		SET digest = ?, outcome = ?, parsed = ?, emitted = ?, warnings = ?, output_path = ?, updated_at = ?
		WHERE id = ? AND deleted_at IS NULL
	`
	res, err := r.db.Exec(query, run.Digest, string(run.Outcome), run.Parsed, run.Emitted,
		run.Warnings, run.OutputPath, run.UpdatedAt(), run.ID())
	if err != nil {
		return fmt.Errorf("failed to update run: %w", err)
	}
	return requireRow(res, run.ID())
}

// Delete soft-deletes a run.
func (r *RunRepository) Delete(id string) error {
	res, err := r.db.Exec("UPDATE runs SET deleted_at = ? WHERE id = ? AND deleted_at IS NULL", time.Now().UTC(), id)
	if err != nil {
		return fmt.Errorf("failed to delete run: %w", err)
	}
	return requireRow(res, id)
}

// List returns runs newest first.
//
// Supported criteria: "source" (string), "outcome" ([models.RunOutcome] or string) and
// "limit" (int, zero or missing means no limit).
func (r *RunRepository) List(criteria map[string]any) ([]*models.Run, error) {
	var (
		where = []string{"deleted_at IS NULL"}
		args  []any
	)

	if v, ok := criteria["source"].(string); ok && v != "" {
		where = append(where, "source = ?")
		args = append(args, v)
	}
	switch v := criteria["outcome"].(type) {
	case models.RunOutcome:
		where = append(where, "outcome = ?")
		args = append(args, string(v))
	case string:
		where = append(where, "outcome = ?")
		args = append(args, v)
	}

	query := `SELECT ` + runColumns + ` FROM runs WHERE ` + strings.Join(where, " AND ") + ` ORDER BY sequence DESC`
	if limit, ok := criteria["limit"].(int); ok && limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	defer rows.Close()

	var runs []*models.Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

// RecordRun persists a run. It lets the repository serve as the pipeline's run recorder.
func (r *RunRepository) RecordRun(run *models.Run) error {
	return r.Create(run)
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRun(s scanner) (*models.Run, error) {
	var (
		id, source, digest, outcome, outputPath string
		sequence, parsed, emitted, warnings     int
		createdAt, updatedAt                    time.Time
		deletedAt                               sql.NullTime
	)

	err := s.Scan(&id, &sequence, &source, &digest, &outcome, &parsed, &emitted, &warnings,
		&outputPath, &createdAt, &updatedAt, &deletedAt)
	if err != nil {
		return nil, err
	}

	run := models.NewRun(source, models.RunOutcome(outcome))
	run.SetID(id)
	run.SetSequence(sequence)
	run.Digest = digest
	run.Parsed = parsed
	run.Emitted = emitted
	run.Warnings = warnings
	run.OutputPath = outputPath
	run.SetCreatedAt(createdAt)
	run.SetUpdatedAt(updatedAt)
	if deletedAt.Valid {
		run.SetDeletedAt(&deletedAt.Time)
	}
	return run, nil
}

func requireRow(res sql.Result, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check affected rows: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("%w: %s", shared.ErrRunNotFound, id)
	}
	return nil
}

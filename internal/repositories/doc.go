// Package repositories implements SQLite persistence for recorded pipeline runs.
//
// [RunRepository] implements [models.Repository] for [models.Run]. Runs are soft deleted via
// deleted_at and excluded from queries by default.
//
// Sequence numbers give runs a stable, human-readable order (run #42) independent of UUIDs and
// timestamps. [NextSequence] atomically increments a per-table counter row.
package repositories

// Package tasks runs the playlist update pipeline with real-time progress reporting.
//
// # Flow
//
// [Pipeline.Run] performs one update:
//
//  1. Fetch the source document (fatal on failure)
//  2. Ask the change gate whether the source changed (skipped with Options.Force)
//     - unchanged: write the placeholder if no output exists yet, record a skipped run, stop
//  3. Parse the document into records
//  4. Apply the configured rules in order
//  5. Render the output with a provenance header
//  6. Write the output through the sink (fatal on failure, skipped with Options.DryRun)
//  7. Commit the source digest (skipped with Options.DryRun)
//  8. Record the run in history
//
// Parser and rule soft failures never stop a run; they are returned as diagnostics in
// [Result]. Digest commit and history failures are logged and the run still succeeds.
//
// # Progress Reporting
//
// Runs accept an optional channel of [ProgressUpdate]. Updates use select with default so a
// slow or absent reader never blocks the pipeline.
package tasks

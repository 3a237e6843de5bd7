// Package services implements the collaborators at the edge of the pipeline.
//
// # Retrieval
//
// [Fetcher] returns the raw playlist text for a source. [NewFetcher] picks:
//   - [HTTPFetcher] for http(s) sources, with an optional bearer token (golang.org/x/oauth2),
//     a per-attempt timeout and retries on transport errors, 429 and 5xx responses, paced by
//     a [rate.Limiter]
//   - [FileFetcher] for local paths and file:// URLs
//
// Every failure wraps [shared.ErrRetrieval], which the pipeline treats as fatal.
//
// # Output
//
// [FileSink] writes the rendered playlist through a temporary file and a rename, so readers
// never observe a half-written playlist. Failures wrap [shared.ErrSink].
package services

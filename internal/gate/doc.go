// Package gate decides whether a playlist source changed since the last successful run.
//
// [Gate.ShouldRun] compares the MD5 digest of the raw text with the stored one; [Gate.Commit]
// stores the current digest after a successful run. The digest is an optimization only:
// a store read failure counts as "changed", and an MD5 collision would skip one legitimate
// update.
//
// Stores:
//   - [FileStore] : a single scalar hash file
//   - [SQLiteStore] : one row per source in the digests table
//   - [MemoryStore] : in-process, for dry runs and tests
package gate

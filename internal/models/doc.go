// Package models defines the value types shared between the m3ux pipeline stages and its persistence layer.
//
// The package contains two categories of types:
//
// 1. Pipeline values
//   - [Diagnostic] : one soft-failure or decision report emitted by the parser or a rule step
//   - [Report] : the ordered diagnostic collector returned alongside a transformed playlist
//
// 2. Persistent Entities
//   - [Run] : one pipeline invocation, recorded in the run history
//
// Persistent entities implement the [Model] interface providing ID, timestamps and validation.
// The [Repository] interface defines standard CRUD operations for database access.
package models

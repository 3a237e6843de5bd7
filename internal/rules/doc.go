// Package rules applies an ordered list of reordering and relabeling steps to a playlist.
//
// # Rule kinds
//
//   - [KindRelabel] : set the group of every matching record
//   - [KindDuplicateAfter] : copy the first matching record, relabel the copy, insert it after an anchor
//   - [KindMoveAfter] : move every matching record, as one block in original order, after an anchor
//   - [KindMoveToEnd] : relabel the first matching record and move it to the tail
//   - [KindRewrite] : regexp-rewrite metadata lines and literal-rewrite locators of matching records
//
// Steps run in order and each one sees the mutations of the steps before it. A lookup
// miss never fails the run: the step becomes a no-op and a [models.Diagnostic] with
// [models.OutcomeSkipped] is added to the report.
//
// All "first match" lookups pick the lowest current index.
package rules

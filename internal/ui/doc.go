// Package ui renders terminal reports with [lipgloss] styles.
//
// A [Palette] is a small stylesheet. [Default] returns the colored palette used on terminals;
// [Plain] renders unstyled text for pipes and tests.
//
// Renderers:
//   - [Table] : column-aligned table used for channel listings and run history
//   - [ChannelTable] : one row per playlist record
//   - [RunTable] : one row per recorded pipeline run
//   - [RunReport] : summary of a pipeline run followed by its diagnostics
package ui

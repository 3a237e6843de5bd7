package ui

import (
	"fmt"
	"strings"

	"github.com/desertthunder/m3ux/internal/models"
	"github.com/desertthunder/m3ux/internal/shared"
	"github.com/desertthunder/m3ux/internal/tasks"
)

// RunReport summarizes a pipeline result and lists its diagnostics.
func RunReport(p *Palette, r *tasks.Result, outputPath string, dryRun bool) string {
	var b strings.Builder

	switch {
	case r.Skipped:
		b.WriteString(p.Success("Source unchanged, nothing to do"))
	case dryRun:
		b.WriteString(p.Success(fmt.Sprintf("Dry run: %d channels parsed, %d would be written", r.Parsed, r.Emitted)))
	default:
		b.WriteString(p.Success(fmt.Sprintf("Wrote %d channels to %s", r.Emitted, outputPath)))
	}
	b.WriteString("\n")

	fmt.Fprintf(&b, "%s %s\n", p.Help("digest:"), shared.ShortDigest(r.Digest))
	if r.RunID != "" {
		fmt.Fprintf(&b, "%s %s\n", p.Help("run:"), r.RunID)
	}

	if len(r.Diagnostics) > 0 {
		b.WriteString("\n")
		b.WriteString(Diagnostics(p, r.Diagnostics))
	}
	return b.String()
}

// Diagnostics renders one line per diagnostic, warnings highlighted.
func Diagnostics(p *Palette, diags []models.Diagnostic) string {
	var b strings.Builder
	for _, d := range diags {
		line := fmt.Sprintf("%-8s %s: %s", d.Outcome, d.Step, d.Detail)
		if d.IsWarning() {
			b.WriteString(p.Warning(line))
		} else {
			b.WriteString(line)
		}
		b.WriteString("\n")
	}
	return b.String()
}

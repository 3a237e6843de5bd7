package rules

import (
	"slices"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/m3ux/internal/models"
	"github.com/desertthunder/m3ux/internal/playlist"
	"github.com/desertthunder/m3ux/internal/shared"
)

// Engine applies a fixed rule list.
type Engine struct {
	rules  []Rule
	logger *log.Logger
}

// NewEngine creates an Engine for rs. A nil logger discards output.
func NewEngine(rs []Rule, logger *log.Logger) *Engine {
	if logger == nil {
		logger = shared.NopLogger()
	}
	return &Engine{rules: rs, logger: logger}
}

// Rules returns the engine's rules in application order.
func (e *Engine) Rules() []Rule {
	return e.rules
}

// Apply runs every rule in order over a copy of records and returns the result with
// one or more diagnostics per rule. The input slice is not modified.
func (e *Engine) Apply(records []playlist.Record) ([]playlist.Record, []models.Diagnostic) {
	out := slices.Clone(records)
	var report models.Report

	for _, r := range e.rules {
		before := len(report.Diagnostics)

		switch r.Kind {
		case KindRelabel:
			out = e.relabel(out, r, &report)
		case KindDuplicateAfter:
			out = e.duplicateAfter(out, r, &report)
		case KindMoveAfter:
			out = e.moveAfter(out, r, &report)
		case KindMoveToEnd:
			out = e.moveToEnd(out, r, &report)
		case KindRewrite:
			out = e.rewrite(out, r, &report)
		default:
			report.Add(r.Name, models.OutcomeSkipped, "unknown rule kind %q", r.Kind)
		}

		for _, d := range report.Diagnostics[before:] {
			if d.IsWarning() {
				e.logger.Warn("rule step was a no-op", "step", d.Step, "detail", d.Detail)
			} else {
				e.logger.Info("rule step applied", "step", d.Step, "detail", d.Detail)
			}
		}
	}

	return out, report.Diagnostics
}

func (e *Engine) relabel(records []playlist.Record, r Rule, report *models.Report) []playlist.Record {
	indices := playlist.FindAll(records, r.Match)
	if len(indices) == 0 {
		report.Add(r.Name, models.OutcomeSkipped, "no record matches %s", r.Match)
		return records
	}

	relabeled := make([]string, 0, len(indices))
	for _, i := range indices {
		records[i].SetGroup(r.TargetGroup)
		relabeled = append(relabeled, records[i].DisplayName)
	}
	report.Add(r.Name, models.OutcomeApplied, "set group %q on %s", r.TargetGroup, strings.Join(relabeled, ", "))
	return records
}

func (e *Engine) duplicateAfter(records []playlist.Record, r Rule, report *models.Report) []playlist.Record {
	src := playlist.FindFirst(records, r.Match)
	if src < 0 {
		report.Add(r.Name, models.OutcomeSkipped, "source %s not found", r.Match)
		return records
	}
	anchor := playlist.FindFirst(records, r.Anchor)
	if anchor < 0 {
		report.Add(r.Name, models.OutcomeSkipped, "anchor %s not found", r.Anchor)
		return records
	}

	clone := records[src].Clone()
	clone.SetGroup(r.TargetGroup)
	records = InsertAfter(records, anchor, clone)

	report.Add(r.Name, models.OutcomeApplied, "copied %q after %q at position %d as %q",
		clone.DisplayName, records[anchor].DisplayName, anchor+1, r.TargetGroup)
	return records
}

func (e *Engine) moveAfter(records []playlist.Record, r Rule, report *models.Report) []playlist.Record {
	anchor := playlist.FindFirst(records, r.Anchor)
	if anchor < 0 {
		report.Add(r.Name, models.OutcomeSkipped, "anchor %s not found", r.Anchor)
		return records
	}

	sources := slices.DeleteFunc(playlist.FindAll(records, r.Match), func(i int) bool { return i == anchor })
	if len(sources) == 0 {
		report.Add(r.Name, models.OutcomeSkipped, "no record matches %s", r.Match)
		return records
	}

	moved := make([]string, 0, len(sources))
	for _, i := range sources {
		moved = append(moved, records[i].DisplayName)
	}
	anchorName := records[anchor].DisplayName

	records, at := RelocateAfter(records, sources, anchor)
	report.Add(r.Name, models.OutcomeApplied, "moved %s after %q at position %d",
		strings.Join(moved, ", "), anchorName, at)
	return records
}

func (e *Engine) moveToEnd(records []playlist.Record, r Rule, report *models.Report) []playlist.Record {
	i := playlist.FindFirst(records, r.Match)
	if i < 0 {
		report.Add(r.Name, models.OutcomeSkipped, "no record matches %s", r.Match)
		return records
	}

	name := records[i].DisplayName
	if r.TargetGroup != "" {
		records[i].SetGroup(r.TargetGroup)
	}
	records = MoveToTail(records, i)

	report.Add(r.Name, models.OutcomeApplied, "moved %q to the end", name)
	return records
}

func (e *Engine) rewrite(records []playlist.Record, r Rule, report *models.Report) []playlist.Record {
	changed := 0
	for _, i := range playlist.FindAll(records, r.Match) {
		meta, loc := records[i].MetadataLine, records[i].LocatorLine
		if r.MetadataPattern != nil {
			meta = r.MetadataPattern.ReplaceAllString(meta, r.MetadataReplace)
		}
		if r.LocatorFind != "" {
			loc = strings.ReplaceAll(loc, r.LocatorFind, r.LocatorReplace)
		}
		if meta == records[i].MetadataLine && loc == records[i].LocatorLine {
			continue
		}
		records[i].Rewrite(meta, loc)
		changed++
	}

	if changed == 0 {
		report.Add(r.Name, models.OutcomeSkipped, "nothing to rewrite for %s", r.Match)
		return records
	}
	report.Add(r.Name, models.OutcomeApplied, "rewrote %d records", changed)
	return records
}

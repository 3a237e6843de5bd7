package models

import "fmt"

// Outcome classifies what a pipeline step did.
type Outcome string

const (
	OutcomeApplied Outcome = "applied" // the step changed the playlist
	OutcomeSkipped Outcome = "skipped" // a lookup missed; the step was a no-op
	OutcomeDropped Outcome = "dropped" // the parser discarded an incomplete record
)

// Diagnostic is one structured report from the parser or a rule step.
type Diagnostic struct {
	Step    string
	Outcome Outcome
	Detail  string
}

func (d Diagnostic) String() string {
	return fmt.Sprintf("[%s] %s: %s", d.Outcome, d.Step, d.Detail)
}

// IsWarning reports whether the diagnostic describes a soft failure rather than a change.
func (d Diagnostic) IsWarning() bool {
	return d.Outcome != OutcomeApplied
}

// Report collects diagnostics in the order they were produced.
type Report struct {
	Diagnostics []Diagnostic
}

// Add appends a diagnostic built from its parts.
func (r *Report) Add(step string, outcome Outcome, format string, args ...any) {
	r.Diagnostics = append(r.Diagnostics, Diagnostic{
		Step:    step,
		Outcome: outcome,
		Detail:  fmt.Sprintf(format, args...),
	})
}

// Merge appends every diagnostic from other.
func (r *Report) Merge(other []Diagnostic) {
	r.Diagnostics = append(r.Diagnostics, other...)
}

// Warnings counts the diagnostics that are not [OutcomeApplied].
func (r *Report) Warnings() int {
	n := 0
	for _, d := range r.Diagnostics {
		if d.IsWarning() {
			n++
		}
	}
	return n
}

// ForStep returns the diagnostics reported under step.
func (r *Report) ForStep(step string) []Diagnostic {
	var out []Diagnostic
	for _, d := range r.Diagnostics {
		if d.Step == step {
			out = append(out, d)
		}
	}
	return out
}

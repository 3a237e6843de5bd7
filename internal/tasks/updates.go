package tasks

import "fmt"

// ProgressUpdate represents a progress event during a pipeline run.
//
// Used to send real-time updates to the CLI layer for display.
type ProgressUpdate struct {
	Phase   Phase  // Pipeline phase
	Step    int    // Current step number
	Total   int    // Total steps in the run
	Message string // Human-readable message for display
	Data    any    // Optional phase-specific data
}

// Pipeline phase enumeration
type Phase int

const (
	Fetch Phase = iota
	Gate
	Parse
	Apply
	Render
	Write
	Commit
	Record
)

// totalPhases is the step count reported in every [ProgressUpdate].
const totalPhases = int(Record) + 1

func (p Phase) String() string {
	switch p {
	case Fetch:
		return "fetch"
	case Gate:
		return "gate"
	case Parse:
		return "parse"
	case Apply:
		return "apply"
	case Render:
		return "render"
	case Write:
		return "write"
	case Commit:
		return "commit"
	case Record:
		return "record"
	default:
		return ""
	}
}

func newUpdate(p Phase, message string, data any) ProgressUpdate {
	return ProgressUpdate{Phase: p, Step: int(p) + 1, Total: totalPhases, Message: message, Data: data}
}

func fetchingUpdate(source string) ProgressUpdate {
	return newUpdate(Fetch, fmt.Sprintf("Fetching %s...", source), nil)
}

func gateUpdate(changed bool, digest string) ProgressUpdate {
	if changed {
		return newUpdate(Gate, "Source changed", digest)
	}
	return newUpdate(Gate, "Source unchanged", digest)
}

func parsedUpdate(count int) ProgressUpdate {
	return newUpdate(Parse, fmt.Sprintf("Parsed %d channels", count), count)
}

func appliedUpdate(rules, count int) ProgressUpdate {
	return newUpdate(Apply, fmt.Sprintf("Applied %d rules, %d channels", rules, count), count)
}

func renderedUpdate(size int) ProgressUpdate {
	return newUpdate(Render, fmt.Sprintf("Rendered %d bytes", size), size)
}

func writtenUpdate(path string, dryRun bool) ProgressUpdate {
	if dryRun {
		return newUpdate(Write, fmt.Sprintf("Dry run, not writing %s", path), path)
	}
	return newUpdate(Write, fmt.Sprintf("Wrote %s", path), path)
}

func committedUpdate(digest string) ProgressUpdate {
	return newUpdate(Commit, "Committed source digest", digest)
}

func recordedUpdate(id string) ProgressUpdate {
	return newUpdate(Record, "Recorded run", id)
}

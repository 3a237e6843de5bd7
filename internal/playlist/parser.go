package playlist

import (
	"strings"

	"github.com/desertthunder/m3ux/internal/models"
)

// Line markers of the extended M3U format.
const (
	FileMarker     = "#EXTM3U"
	MetadataMarker = "#EXTINF:"
	CommentPrefix  = "#"
)

// ParseStep is the step name used on parser diagnostics.
const ParseStep = "parse"

// Parse converts raw playlist text into records in document order.
//
// Blank lines, the file marker and comment lines are skipped. A metadata line opens a
// pending record; the next non-comment line becomes its locator and emits it. A pending
// record that is superseded by another metadata line, or still open at end of input, is
// dropped and reported. A locator with no pending record is dropped and reported too.
func Parse(text string) ([]Record, []models.Diagnostic) {
	var (
		records []Record
		report  models.Report
		pending *Record
		openAt  int
	)

	for n, raw := range strings.Split(text, "\n") {
		line := strings.TrimSpace(raw)
		lineNo := n + 1

		switch {
		case line == "" || strings.HasPrefix(line, FileMarker):
			continue
		case strings.HasPrefix(line, MetadataMarker):
			if pending != nil {
				report.Add(ParseStep, models.OutcomeDropped,
					"line %d: %q superseded by line %d before any locator", openAt, pending.DisplayName, lineNo)
			}
			r := NewRecord(line, len(records))
			pending, openAt = &r, lineNo
		case strings.HasPrefix(line, CommentPrefix):
			continue
		case pending == nil:
			report.Add(ParseStep, models.OutcomeDropped, "line %d: locator without metadata line", lineNo)
		default:
			pending.LocatorLine = line
			records = append(records, *pending)
			pending = nil
		}
	}

	if pending != nil {
		report.Add(ParseStep, models.OutcomeDropped,
			"line %d: %q has no locator before end of input", openAt, pending.DisplayName)
	}

	return records, report.Diagnostics
}

package playlist

import (
	"fmt"
	"strings"
	"time"
)

// TimestampLayout formats [Header.GeneratedAt].
const TimestampLayout = "2006-01-02 15:04:05"

// Header is the provenance comment block written before the channel data.
type Header struct {
	Generator   string    // "Generated by" text; omitted when empty
	Source      string    // where the input came from
	GeneratedAt time.Time // processing time
	Rules       []string  // one human-readable line per applied rule
}

// Render writes the header block followed by each record's metadata and locator lines.
func Render(records []Record, h Header) string {
	var b strings.Builder
	writeHeader(&b, h)
	for _, r := range records {
		b.WriteString(r.MetadataLine)
		b.WriteByte('\n')
		b.WriteString(r.LocatorLine)
		b.WriteByte('\n')
	}
	return b.String()
}

func writeHeader(b *strings.Builder, h Header) {
	b.WriteString(FileMarker + "\n")
	if h.Generator != "" {
		fmt.Fprintf(b, "# Generated by %s\n", oneLine(h.Generator))
	}
	if h.Source != "" {
		fmt.Fprintf(b, "# Source: %s\n", oneLine(h.Source))
	}
	if !h.GeneratedAt.IsZero() {
		fmt.Fprintf(b, "# Processed at: %s\n", h.GeneratedAt.Format(TimestampLayout))
	}
	if len(h.Rules) > 0 {
		b.WriteString("# Rules:\n")
		for i, rule := range h.Rules {
			fmt.Fprintf(b, "# %d. %s\n", i+1, oneLine(rule))
		}
	}
	b.WriteByte('\n')
}

var lineBreaks = strings.NewReplacer("\r\n", " ", "\n", " ", "\r", " ")

// oneLine keeps a header field on its comment line.
func oneLine(s string) string {
	return lineBreaks.Replace(s)
}

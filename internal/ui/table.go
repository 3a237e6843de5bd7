package ui

import (
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/desertthunder/m3ux/internal/models"
	"github.com/desertthunder/m3ux/internal/playlist"
	"github.com/desertthunder/m3ux/internal/shared"
)

// Table renders static rows in aligned columns.
type Table struct {
	Title   string
	Headers []string
	Rows    [][]string
}

// NewTable creates a Table with the given title and headers.
func NewTable(title string, headers ...string) *Table {
	return &Table{Title: title, Headers: headers}
}

// AddRow adds a row. Cells beyond the header count are ignored.
func (t *Table) AddRow(cells ...string) {
	t.Rows = append(t.Rows, cells)
}

// Render draws the table. An empty table renders as the empty string.
func (t *Table) Render(p *Palette) string {
	if len(t.Rows) == 0 {
		return ""
	}

	widths := make([]int, len(t.Headers))
	for i, h := range t.Headers {
		widths[i] = lipgloss.Width(h)
	}
	for _, row := range t.Rows {
		for i, cell := range row {
			if i < len(widths) {
				widths[i] = max(widths[i], lipgloss.Width(cell))
			}
		}
	}
	// padding on both sides
	for i := range widths {
		widths[i] += 2
	}

	var b strings.Builder
	if t.Title != "" {
		b.WriteString(p.Title(t.Title))
		b.WriteString("\n")
	}

	sep := p.Help("|")
	for i, h := range t.Headers {
		if i > 0 {
			b.WriteString(sep)
		}
		b.WriteString(p.head.Width(widths[i]).Render(h))
	}
	b.WriteString("\n")

	total := len(widths) - 1
	for _, w := range widths {
		total += w
	}
	b.WriteString(p.Help(strings.Repeat("-", total)))
	b.WriteString("\n")

	for _, row := range t.Rows {
		for i := range widths {
			if i > 0 {
				b.WriteString(sep)
			}
			cell := ""
			if i < len(row) {
				cell = row[i]
			}
			b.WriteString(p.cell.Width(widths[i]).Render(cell))
		}
		b.WriteString("\n")
	}
	return b.String()
}

// ChannelTable lists records in sequence order.
func ChannelTable(title string, records []playlist.Record) *Table {
	t := NewTable(title, "#", "Name", "Group", "tvg-name", "Locator")
	for i, r := range records {
		t.AddRow(strconv.Itoa(i+1), r.DisplayName, r.Group, r.TvgName, r.LocatorLine)
	}
	return t
}

// RunTable lists recorded runs, newest first as given.
func RunTable(runs []*models.Run) *Table {
	t := NewTable("Run history", "Run", "When", "Outcome", "Digest", "Parsed", "Emitted", "Warnings")
	for _, r := range runs {
		t.AddRow(
			strconv.Itoa(r.Sequence()),
			r.CreatedAt().Local().Format(playlist.TimestampLayout),
			string(r.Outcome),
			shared.ShortDigest(r.Digest),
			strconv.Itoa(r.Parsed),
			strconv.Itoa(r.Emitted),
			strconv.Itoa(r.Warnings),
		)
	}
	return t
}

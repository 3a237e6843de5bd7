// package formatter exports playlist records to various formats (CSV, JSON, Markdown, plain text)
package formatter

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/desertthunder/m3ux/internal/playlist"
	"github.com/desertthunder/m3ux/internal/shared"
)

// Supported export formats.
const (
	FormatCSV      = "csv"
	FormatJSON     = "json"
	FormatMarkdown = "markdown"
	FormatText     = "text"
)

// Channel is the exported view of a [playlist.Record].
type Channel struct {
	Position int    `json:"position"`
	Name     string `json:"name"`
	Group    string `json:"group,omitempty"`
	TvgName  string `json:"tvg_name,omitempty"`
	Locator  string `json:"locator"`
}

// Channels converts records to their exported view, numbered from 1.
func Channels(records []playlist.Record) []Channel {
	out := make([]Channel, len(records))
	for i, r := range records {
		out[i] = Channel{
			Position: i + 1,
			Name:     r.DisplayName,
			Group:    r.Group,
			TvgName:  r.TvgName,
			Locator:  r.LocatorLine,
		}
	}
	return out
}

// Export renders records in the named format.
func Export(records []playlist.Record, format string) ([]byte, error) {
	switch strings.ToLower(format) {
	case FormatCSV:
		return ExportToCSV(records)
	case FormatJSON:
		return ExportToJSON(records)
	case FormatMarkdown, "md":
		return ExportToMarkdown(records)
	case FormatText, "txt":
		return ExportToText(records)
	default:
		return nil, fmt.Errorf("%w: unknown format %q", shared.ErrInvalidArgument, format)
	}
}

// ExportToCSV converts records to CSV with columns: Position, Name, Group, TvgName, Locator
func ExportToCSV(records []playlist.Record) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	headers := []string{"Position", "Name", "Group", "TvgName", "Locator"}
	if err := writer.Write(headers); err != nil {
		return nil, fmt.Errorf("failed to write CSV headers: %w", err)
	}

	for _, ch := range Channels(records) {
		row := []string{strconv.Itoa(ch.Position), ch.Name, ch.Group, ch.TvgName, ch.Locator}
		if err := writer.Write(row); err != nil {
			return nil, fmt.Errorf("failed to write CSV record: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("CSV writer error: %w", err)
	}

	return buf.Bytes(), nil
}

// ExportToJSON converts records to an indented JSON array of [Channel].
func ExportToJSON(records []playlist.Record) ([]byte, error) {
	data, err := json.MarshalIndent(Channels(records), "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal channels: %w", err)
	}
	return append(data, '\n'), nil
}

// ExportToMarkdown converts records to a Markdown list grouped by group-title in first-seen order
func ExportToMarkdown(records []playlist.Record) ([]byte, error) {
	var (
		buf    bytes.Buffer
		order  []string
		groups = map[string][]Channel{}
	)

	for _, ch := range Channels(records) {
		if _, ok := groups[ch.Group]; !ok {
			order = append(order, ch.Group)
		}
		groups[ch.Group] = append(groups[ch.Group], ch)
	}

	fmt.Fprintf(&buf, "**Channels**: %d\n", len(records))
	for _, g := range order {
		title := g
		if title == "" {
			title = "Ungrouped"
		}
		fmt.Fprintf(&buf, "\n## %s\n\n", title)
		for _, ch := range groups[g] {
			fmt.Fprintf(&buf, "%d. %s <%s>\n", ch.Position, ch.Name, ch.Locator)
		}
	}

	return buf.Bytes(), nil
}

// ExportToText converts records to plain text, one channel per line
func ExportToText(records []playlist.Record) ([]byte, error) {
	var buf bytes.Buffer

	fmt.Fprintf(&buf, "Channels: %d\n\n", len(records))
	for _, ch := range Channels(records) {
		if ch.Group != "" {
			fmt.Fprintf(&buf, "%d. %s [%s]\n", ch.Position, ch.Name, ch.Group)
		} else {
			fmt.Fprintf(&buf, "%d. %s\n", ch.Position, ch.Name)
		}
	}

	return buf.Bytes(), nil
}

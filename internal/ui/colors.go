package ui

import (
	"github.com/charmbracelet/lipgloss"
)

var styles = NewPalette("#7D56F4", "#04B575", "#FF0000", "#FFA500", "#626262")

// struct Palette is a simple stylesheet built with named [lipgloss.Style] fields
type Palette struct {
	title lipgloss.Style
	ok    lipgloss.Style
	err   lipgloss.Style
	warn  lipgloss.Style
	help  lipgloss.Style
	head  lipgloss.Style
	cell  lipgloss.Style
}

func NewPalette(t, s, e, w, h string) *Palette {
	return &Palette{
		title: NewBold(t).MarginBottom(1),
		ok:    NewBold(s),
		err:   NewBold(e),
		warn:  NewStyle(w),
		help:  NewEm(h),
		head:  NewBold(t).Padding(0, 1),
		cell:  lipgloss.NewStyle().Padding(0, 1),
	}
}

// Plain returns a Palette that renders text unstyled, for pipes and tests.
func Plain() *Palette {
	s := lipgloss.NewStyle()
	return &Palette{title: s, ok: s, err: s, warn: s, help: s, head: s.Padding(0, 1), cell: s.Padding(0, 1)}
}

// Default returns the shared colored Palette.
func Default() *Palette { return styles }

func (p *Palette) Title(s string) string   { return p.title.Render(s) }
func (p *Palette) Success(s string) string { return p.ok.Render(s) }
func (p *Palette) Error(s string) string   { return p.err.Render(s) }
func (p *Palette) Warning(s string) string { return p.warn.Render(s) }
func (p *Palette) Help(s string) string    { return p.help.Render(s) }

func NewStyle(fg string) lipgloss.Style {
	return lipgloss.NewStyle().Foreground(lipgloss.Color(fg))
}

func NewBold(fg string) lipgloss.Style {
	return NewStyle(fg).Bold(true)
}

func NewEm(fg string) lipgloss.Style {
	return NewStyle(fg).Italic(true)
}

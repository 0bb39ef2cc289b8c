package render

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"

	"github.com/xraph/anvil/features"
)

// Text renders aligned plain-text tables with footnotes.
type Text struct {
	Color bool
}

type palette struct {
	title   *color.Color
	success *color.Color
	failure *color.Color
	concern *color.Color
	note    *color.Color
}

func (t *Text) palette() palette {
	p := palette{
		title:   color.New(color.Bold, color.Underline),
		success: color.New(color.FgGreen),
		failure: color.New(color.FgRed, color.Bold),
		concern: color.New(color.FgYellow),
		note:    color.New(color.FgHiBlack),
	}
	for _, c := range []*color.Color{p.title, p.success, p.failure, p.concern, p.note} {
		if t.Color {
			c.EnableColor()
		} else {
			c.DisableColor()
		}
	}
	return p
}

func (p palette) state(s features.State) *color.Color {
	switch s {
	case features.Success:
		return p.success
	case features.Failure:
		return p.failure
	default:
		return p.concern
	}
}

// Render implements Renderer.
func (t *Text) Render(w io.Writer, tables []*features.Table) error {
	p := t.palette()
	var b strings.Builder

	for i, table := range tables {
		if i > 0 {
			b.WriteString("\n")
		}
		t.table(&b, p, table)
	}

	total := features.Total(tables)
	fmt.Fprintf(&b, "\n%s %d supported, %d failed, %d see comment\n",
		p.title.Sprint("Summary:"), total.Success, total.Failure, total.Concern)

	_, err := io.WriteString(w, b.String())
	return err
}

func (t *Text) table(b *strings.Builder, p palette, table *features.Table) {
	b.WriteString(p.title.Sprint(table.Name))
	b.WriteString("\n")
	if table.Description != "" {
		b.WriteString(table.Description)
		b.WriteString("\n")
	}
	b.WriteString("\n")

	var notes footnotes

	header := append([]string{"Feature"}, table.Adapters...)
	rows := make([][]string, len(table.Features))
	states := make([][]features.State, len(table.Features))
	for i, f := range table.Features {
		rows[i] = []string{f.Name}
		for _, c := range f.Cells {
			text := c.Text
			if m := notes.mark(c); m != "" {
				text += " " + m
			}
			rows[i] = append(rows[i], text)
			states[i] = append(states[i], c.State)
		}
	}

	widths := make([]int, len(header))
	for col, h := range header {
		widths[col] = len(h)
	}
	for _, row := range rows {
		for col, cell := range row {
			if col < len(widths) && len(cell) > widths[col] {
				widths[col] = len(cell)
			}
		}
	}

	for col, h := range header {
		b.WriteString(pad(h, widths[col], col == len(header)-1))
	}
	b.WriteString("\n")

	for i, row := range rows {
		for col, cell := range row {
			if col >= len(widths) {
				break
			}
			padded := pad(cell, widths[col], col == len(row)-1)
			if col > 0 {
				padded = p.state(states[i][col-1]).Sprint(padded)
			}
			b.WriteString(padded)
		}
		b.WriteString("\n")
	}

	if len(notes.notes) > 0 {
		b.WriteString("\n")
		for i, n := range notes.notes {
			b.WriteString(p.note.Sprintf("[%d] %s", i+1, n))
			b.WriteString("\n")
		}
	}
}

// pad left-aligns s in a column of width w followed by a two-space gutter.
// The last column is not padded.
func pad(s string, w int, last bool) string {
	if last {
		return s
	}
	return s + strings.Repeat(" ", w-len(s)+2)
}

package render

import (
	"fmt"
	"io"
	"strings"

	"github.com/xraph/anvil/features"
)

// Markdown renders one GitHub-flavoured table per group.
type Markdown struct{}

// Render implements Renderer.
func (m *Markdown) Render(w io.Writer, tables []*features.Table) error {
	var b strings.Builder

	for i, table := range tables {
		if i > 0 {
			b.WriteString("\n")
		}
		fmt.Fprintf(&b, "## %s\n\n", table.Name)
		if table.Description != "" {
			b.WriteString(table.Description)
			b.WriteString("\n\n")
		}

		b.WriteString("| Feature |")
		for _, a := range table.Adapters {
			fmt.Fprintf(&b, " %s |", escapeCell(a))
		}
		b.WriteString("\n| --- |")
		b.WriteString(strings.Repeat(" --- |", len(table.Adapters)))
		b.WriteString("\n")

		var notes footnotes
		for _, f := range table.Features {
			fmt.Fprintf(&b, "| %s |", escapeCell(f.Name))
			for _, c := range f.Cells {
				text := c.Text
				if mark := notes.mark(c); mark != "" {
					text += " " + mark
				}
				fmt.Fprintf(&b, " %s |", escapeCell(text))
			}
			b.WriteString("\n")
		}

		if len(notes.notes) > 0 {
			b.WriteString("\n")
			for i, n := range notes.notes {
				fmt.Fprintf(&b, "%d. %s\n", i+1, strings.ReplaceAll(n, "\n", " "))
			}
		}
	}

	_, err := io.WriteString(w, b.String())
	return err
}

func escapeCell(s string) string {
	s = strings.ReplaceAll(s, "|", `\|`)
	return strings.ReplaceAll(s, "\n", "<br>")
}

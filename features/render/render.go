// Package render writes feature tables as text, markdown, YAML or JSON.
package render

import (
	"fmt"
	"io"
	"os"

	"golang.org/x/term"

	"github.com/xraph/anvil/features"
)

// Output formats.
const (
	FormatText     = "text"
	FormatMarkdown = "markdown"
	FormatYAML     = "yaml"
	FormatJSON     = "json"
)

// Color modes.
const (
	ColorAuto   = "auto"
	ColorAlways = "always"
	ColorNever  = "never"
)

// Renderer writes tables to w.
type Renderer interface {
	Render(w io.Writer, tables []*features.Table) error
}

// ForFormat returns the renderer for name. color only affects text output.
func ForFormat(name string, color bool) (Renderer, error) {
	switch name {
	case FormatText, "":
		return &Text{Color: color}, nil
	case FormatMarkdown, "md":
		return &Markdown{}, nil
	case FormatYAML, "yml":
		return &YAML{}, nil
	case FormatJSON:
		return &JSON{Indent: true}, nil
	default:
		return nil, fmt.Errorf("unknown format %q", name)
	}
}

// ColorEnabled resolves a color mode for w. In auto mode color is used when
// w is a terminal and NO_COLOR is unset.
func ColorEnabled(mode string, w io.Writer) bool {
	switch mode {
	case ColorAlways:
		return true
	case ColorNever:
		return false
	}

	if os.Getenv("NO_COLOR") != "" {
		return false
	}
	f, ok := w.(interface{ Fd() uintptr })
	return ok && term.IsTerminal(int(f.Fd()))
}

// footnotes numbers cell comments and errors in the order they are added.
type footnotes struct {
	notes []string
}

// mark returns the marker for c, or "" when c has nothing to say.
func (f *footnotes) mark(c features.Cell) string {
	note := cellNote(c)
	if note == "" {
		return ""
	}
	f.notes = append(f.notes, note)
	return fmt.Sprintf("[%d]", len(f.notes))
}

func cellNote(c features.Cell) string {
	switch {
	case c.Comment != "" && c.Err != nil:
		return c.Comment + " (" + c.Err.Error() + ")"
	case c.Comment != "":
		return c.Comment
	case c.Err != nil:
		return c.Err.Error()
	default:
		return ""
	}
}

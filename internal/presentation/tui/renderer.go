package tui

import (
	"os"

	"github.com/charmbracelet/glamour"
	"golang.org/x/term"
)

// DefaultWidth is the wrap width used when stdout is not a terminal.
const DefaultWidth = 80

// Width returns the terminal width of f, or DefaultWidth.
func Width(f *os.File) int {
	if f == nil || !term.IsTerminal(int(f.Fd())) {
		return DefaultWidth
	}
	w, _, err := term.GetSize(int(f.Fd()))
	if err != nil || w <= 0 {
		return DefaultWidth
	}
	return w
}

// NewRenderer returns a function that renders markdown for out.
// Terminals get an automatic light or dark style; anything else gets the
// plain notty style.
func NewRenderer(out *os.File) (func(string) (string, error), error) {
	style := glamour.WithStandardStyle("notty")
	if out != nil && term.IsTerminal(int(out.Fd())) {
		style = glamour.WithAutoStyle()
	}
	r, err := glamour.NewTermRenderer(style, glamour.WithWordWrap(Width(out)))
	if err != nil {
		return nil, err
	}
	return r.Render, nil
}

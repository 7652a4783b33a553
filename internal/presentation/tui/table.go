// Package tui holds terminal presentation helpers: banner, markdown
// rendering and aligned tables.
package tui

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
)

var (
	// Subtle styles table headers and secondary text.
	Subtle = color.New(color.FgHiBlack)
	// Good marks positive states.
	Good = color.New(color.FgGreen)
	// Bad marks negative states.
	Bad = color.New(color.FgRed)
)

// Table writes an aligned table. Nothing is written when rows is empty.
func Table(w io.Writer, headers []string, rows [][]string) {
	if len(rows) == 0 {
		return
	}
	widths := make([]int, len(headers))
	for i, h := range headers {
		widths[i] = len(h)
	}
	for _, row := range rows {
		for i, cell := range row {
			if i < len(widths) && len(cell) > widths[i] {
				widths[i] = len(cell)
			}
		}
	}

	header, sep := "  ", "  "
	for i, h := range headers {
		header += fmt.Sprintf("%-*s  ", widths[i], h)
		sep += strings.Repeat("─", widths[i]) + "  "
	}
	Subtle.Fprintln(w, strings.TrimRight(header, " "))
	Subtle.Fprintln(w, strings.TrimRight(sep, " "))

	for _, row := range rows {
		line := "  "
		for i, cell := range row {
			if i < len(widths) {
				line += fmt.Sprintf("%-*s  ", widths[i], cell)
			}
		}
		fmt.Fprintln(w, strings.TrimRight(line, " "))
	}
}

// StatusIcon returns a check or cross.
func StatusIcon(ok bool) string {
	if ok {
		return Good.Sprint("✓")
	}
	return Bad.Sprint("✗")
}

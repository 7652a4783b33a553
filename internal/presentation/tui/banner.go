package tui

import (
	"fmt"
	"io"

	"github.com/muesli/termenv"
)

// PrintBanner writes the warp banner to w.
func PrintBanner(w io.Writer, subtitle string) {
	p := termenv.NewOutput(w).EnvColorProfile()
	lines := []struct{ text, color string }{
		{" __      ____ _ _ __ _ __ ", "#818cf8"},
		{" \\ \\ /\\ / / _` | '__| '_ \\", "#a78bfa"},
		{"  \\ V  V / (_| | |  | |_) |", "#c084fc"},
		{"   \\_/\\_/ \\__,_|_|  | .__/", "#e879f9"},
		{"                    |_|   ", "#f472b6"},
	}
	fmt.Fprintln(w)
	for _, l := range lines {
		fmt.Fprintln(w, p.String(l.text).Foreground(p.Color(l.color)))
	}
	if subtitle != "" {
		fmt.Fprintln(w, p.String("  "+subtitle).Faint())
	}
	fmt.Fprintln(w)
}

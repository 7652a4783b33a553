package cli

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/aretw0/warp/pkg/ports"
	"gopkg.in/yaml.v3"
)

// Output formats accepted by the show and export commands.
const (
	FormatSummary = "summary"
	FormatMermaid = "mermaid"
	FormatYAML    = "yaml"
	FormatJSON    = "json"
)

// Printer writes command output. Markdown, when set, renders note text.
type Printer struct {
	W        io.Writer
	Markdown func(string) (string, error)
}

func (p Printer) markdown(s string) string {
	if p.Markdown == nil {
		return s
	}
	out, err := p.Markdown(s)
	if err != nil {
		return s
	}
	return out
}

func (p Printer) encode(v any, format string) error {
	switch format {
	case FormatJSON:
		enc := json.NewEncoder(p.W)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	case FormatYAML, "":
		enc := yaml.NewEncoder(p.W)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return err
		}
		return enc.Close()
	default:
		return fmt.Errorf("unknown format %q", format)
	}
}

// PromptConfirmer asks on out and reads a y/N answer from in.
func PromptConfirmer(in io.Reader, out io.Writer) ports.Confirmer {
	r := bufio.NewReader(in)
	return ports.ConfirmFunc(func(prompt string) bool {
		fmt.Fprintf(out, "%s [y/N] ", prompt)
		line, err := r.ReadString('\n')
		if err != nil && line == "" {
			return false
		}
		switch strings.ToLower(strings.TrimSpace(line)) {
		case "y", "yes":
			return true
		}
		return false
	})
}

// AlwaysConfirm approves every prompt.
var AlwaysConfirm ports.Confirmer = ports.ConfirmFunc(func(string) bool { return true })

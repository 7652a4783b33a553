package tui_test

import (
	"bytes"
	"strings"
	"testing"

	"github.com/aretw0/warp/internal/presentation/tui"
	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTable(t *testing.T) {
	color.NoColor = true
	var buf bytes.Buffer
	tui.Table(&buf, []string{"ID", "NAME"}, [][]string{{"1", "Sales"}, {"22", "Ops"}})

	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	require.Len(t, lines, 4)
	assert.Equal(t, "  ID  NAME", lines[0])
	assert.Equal(t, "  1   Sales", lines[2])
	assert.Equal(t, "  22  Ops", lines[3])
}

func TestTable_EmptyWritesNothing(t *testing.T) {
	var buf bytes.Buffer
	tui.Table(&buf, []string{"ID"}, nil)
	assert.Empty(t, buf.String())
}

func TestRenderer_NonTerminal(t *testing.T) {
	render, err := tui.NewRenderer(nil)
	require.NoError(t, err)
	out, err := render("# Title\n\nSome **bold** text.")
	require.NoError(t, err)
	assert.Contains(t, out, "Title")
	assert.Contains(t, out, "bold")
	assert.Equal(t, tui.DefaultWidth, tui.Width(nil))
}

func TestPrintBanner(t *testing.T) {
	var buf bytes.Buffer
	tui.PrintBanner(&buf, "dev engine")
	assert.Contains(t, buf.String(), "dev engine")
}

package nodeui

import "github.com/aretw0/warp/pkg/protocol"

// HeaderHeight and Padding are added to the measured form height when a
// panel opens.
const (
	HeaderHeight = 30.0
	Padding      = 20.0
)

// Measurer returns the content height of a form.
type Measurer func(f *Form) float64

const (
	lineHeight   = 18.0
	controlGap   = 8.0
	inputHeight  = 28.0
	checkHeight  = 22.0
	textareaRows = 3
)

// DefaultMeasurer approximates the height a form takes when drawn with one
// control per row.
func DefaultMeasurer(f *Form) float64 {
	var h float64
	for _, c := range f.Controls {
		h += lineHeight
		switch c.Type {
		case protocol.FieldCheckbox:
			h += checkHeight
		case protocol.FieldTextarea:
			rows := c.Rows
			if rows <= 0 {
				rows = textareaRows
			}
			h += float64(rows)*lineHeight + 10
		default:
			h += inputHeight
		}
		if c.Description != "" {
			h += lineHeight
		}
		h += controlGap
	}
	return h
}

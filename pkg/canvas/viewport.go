package canvas

import "github.com/aretw0/warp/pkg/graph"

// Zoom factors applied per wheel tick.
const (
	ZoomIn  = 1.1
	ZoomOut = 0.9
)

// Viewport maps model coordinates to screen coordinates:
// screen = model*Scale + Translate.
type Viewport struct {
	Translate graph.Point
	Scale     float64
}

// DefaultViewport is the identity transform.
func DefaultViewport() Viewport {
	return Viewport{Scale: 1}
}

// ToModel converts a screen point to model coordinates.
func (v Viewport) ToModel(screen graph.Point) graph.Point {
	return screen.Sub(v.Translate).Scale(1 / v.Scale)
}

// ToScreen converts a model point to screen coordinates.
func (v Viewport) ToScreen(model graph.Point) graph.Point {
	return model.Scale(v.Scale).Add(v.Translate)
}

// ZoomAt multiplies the scale by factor, keeping the model point under the
// screen point o fixed.
func (v Viewport) ZoomAt(o graph.Point, factor float64) Viewport {
	s0 := v.Scale
	s1 := s0 * factor
	f := o.Sub(v.Translate).Scale(1 / s0)
	return Viewport{Translate: o.Sub(f.Scale(s1)), Scale: s1}
}

package graph

import "math"

// Point is a position in world coordinates.
type Point struct {
	X float64 `json:"x" yaml:"x" mapstructure:"x"`
	Y float64 `json:"y" yaml:"y" mapstructure:"y"`
}

// Add returns p translated by q.
func (p Point) Add(q Point) Point { return Point{X: p.X + q.X, Y: p.Y + q.Y} }

// Sub returns the vector from q to p.
func (p Point) Sub(q Point) Point { return Point{X: p.X - q.X, Y: p.Y - q.Y} }

// Scale multiplies both coordinates by s.
func (p Point) Scale(s float64) Point { return Point{X: p.X * s, Y: p.Y * s} }

// Size is a width/height pair.
type Size struct {
	Width  float64 `json:"width" yaml:"width" mapstructure:"width"`
	Height float64 `json:"height" yaml:"height" mapstructure:"height"`
}

// Rect is an axis-aligned bounding box.
type Rect struct {
	Min  Point
	Size Size
}

// Max returns the bottom-right corner.
func (r Rect) Max() Point {
	return Point{X: r.Min.X + r.Size.Width, Y: r.Min.Y + r.Size.Height}
}

// Center returns the middle of the box.
func (r Rect) Center() Point {
	return Point{X: r.Min.X + r.Size.Width/2, Y: r.Min.Y + r.Size.Height/2}
}

// Contains reports whether p lies inside r, edges included.
func (r Rect) Contains(p Point) bool {
	max := r.Max()
	return p.X >= r.Min.X && p.X <= max.X && p.Y >= r.Min.Y && p.Y <= max.Y
}

// Encloses reports whether o lies entirely within r.
func (r Rect) Encloses(o Rect) bool {
	return r.Contains(o.Min) && r.Contains(o.Max())
}

// segmentDistance returns the distance from p to the segment ab.
func segmentDistance(p, a, b Point) float64 {
	ab := b.Sub(a)
	lenSq := ab.X*ab.X + ab.Y*ab.Y
	if lenSq == 0 {
		return math.Hypot(p.X-a.X, p.Y-a.Y)
	}
	ap := p.Sub(a)
	t := (ap.X*ab.X + ap.Y*ab.Y) / lenSq
	t = math.Max(0, math.Min(1, t))
	proj := a.Add(ab.Scale(t))
	return math.Hypot(p.X-proj.X, p.Y-proj.Y)
}

// Package geometry provides the viewport/image coordinate transforms used
// by the interactive crop editor. A Mapper is stateless given the current
// scale and offset; all rounding is half-away-from-zero so the two
// directions stay mutually inverse within one pixel.
package geometry

import "math"

// CanvasMultiple is the fixed canvas-to-scaled-image size ratio. Sizing the
// canvas at a multiple of the scaled image keeps panning free without
// resizing the canvas on every zoom step.
const CanvasMultiple = 3

// Point is a pixel position. Whether it lives in image space or viewport
// space depends on context.
type Point struct {
	X int
	Y int
}

// Add returns p shifted by q.
func (p Point) Add(q Point) Point {
	return Point{X: p.X + q.X, Y: p.Y + q.Y}
}

// Sub returns p shifted by the negative of q.
func (p Point) Sub(q Point) Point {
	return Point{X: p.X - q.X, Y: p.Y - q.Y}
}

// Rect is an axis-aligned rectangle with integer pixel coordinates.
type Rect struct {
	X int
	Y int
	W int
	H int
}

// Right returns the exclusive right edge coordinate.
func (r Rect) Right() int {
	return r.X + r.W
}

// Bottom returns the exclusive bottom edge coordinate.
func (r Rect) Bottom() int {
	return r.Y + r.H
}

// IsEmpty returns true if the rectangle has no area.
func (r Rect) IsEmpty() bool {
	return r.W <= 0 || r.H <= 0
}

// Contains reports whether p lies inside the rectangle.
func (r Rect) Contains(p Point) bool {
	return p.X >= r.X && p.X < r.Right() && p.Y >= r.Y && p.Y < r.Bottom()
}

// Center returns the center point of the rectangle.
func (r Rect) Center() Point {
	return Point{X: r.X + r.W/2, Y: r.Y + r.H/2}
}

// Mapper translates between image space and viewport space for a given
// zoom scale. The scaled image is centered inside a canvas sized at
// CanvasMultiple times the scaled image, so Offset equals the scaled
// image size.
type Mapper struct {
	// Scale is the current zoom factor.
	Scale float64
	// Offset is the top-left corner of the scaled image within the canvas.
	Offset Point
}

// NewMapper builds a Mapper for the given scale and source image size.
func NewMapper(scale float64, imageW, imageH int) Mapper {
	scaledW := round(float64(imageW) * scale)
	scaledH := round(float64(imageH) * scale)
	return Mapper{
		Scale: scale,
		Offset: Point{
			X: (CanvasMultiple*scaledW - scaledW) / 2,
			Y: (CanvasMultiple*scaledH - scaledH) / 2,
		},
	}
}

// CanvasSize returns the canvas dimensions for the given source image size.
func (m Mapper) CanvasSize(imageW, imageH int) (int, int) {
	return CanvasMultiple * round(float64(imageW)*m.Scale),
		CanvasMultiple * round(float64(imageH)*m.Scale)
}

// ToImage converts a viewport-space point to image space.
func (m Mapper) ToImage(p Point) Point {
	return Point{
		X: round(float64(p.X-m.Offset.X) / m.Scale),
		Y: round(float64(p.Y-m.Offset.Y) / m.Scale),
	}
}

// ToViewport converts an image-space point to viewport space.
func (m Mapper) ToViewport(p Point) Point {
	return Point{
		X: round(float64(p.X)*m.Scale) + m.Offset.X,
		Y: round(float64(p.Y)*m.Scale) + m.Offset.Y,
	}
}

// RectToViewport converts an image-space rectangle to viewport space.
// Width and height are scaled directly so the transformed rectangle does
// not drift by independent corner rounding.
func (m Mapper) RectToViewport(r Rect) Rect {
	tl := m.ToViewport(Point{X: r.X, Y: r.Y})
	return Rect{
		X: tl.X,
		Y: tl.Y,
		W: round(float64(r.W) * m.Scale),
		H: round(float64(r.H) * m.Scale),
	}
}

// round rounds half away from zero. math.Round has exactly this contract.
func round(f float64) int {
	return int(math.Round(f))
}

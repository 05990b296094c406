// Package region provides the crop rectangle model and its editing
// operations. All operations are pure: they take the prior rectangle and
// return a new one, clamped to the image bounds. An operation that would
// shrink the rectangle below the minimum size or invert it is rejected
// entirely, leaving the prior rectangle in force; such rejections arise
// from continuous pointer motion and are never reported as errors.
package region

import (
	"math"

	"github.com/hyase/cropbatch/internal/geometry"
)

// MinSize is the smallest width and height, in source pixels, a rectangle
// may reach during interactive editing.
const MinSize = 10

// Handle identifies which part of the rectangle a drag manipulates.
type Handle int

// Drag handles, in hit-test precedence order.
const (
	HandleNone Handle = iota
	HandleTopLeft
	HandleTopRight
	HandleBottomLeft
	HandleBottomRight
	HandleTop
	HandleBottom
	HandleLeft
	HandleRight
	HandleMove
)

// String returns the handle name for logging.
func (h Handle) String() string {
	switch h {
	case HandleTopLeft:
		return "resize_tl"
	case HandleTopRight:
		return "resize_tr"
	case HandleBottomLeft:
		return "resize_bl"
	case HandleBottomRight:
		return "resize_br"
	case HandleTop:
		return "resize_t"
	case HandleBottom:
		return "resize_b"
	case HandleLeft:
		return "resize_l"
	case HandleRight:
		return "resize_r"
	case HandleMove:
		return "move"
	default:
		return "none"
	}
}

// IsCorner reports whether the handle drags two edges at once.
func (h Handle) IsCorner() bool {
	switch h {
	case HandleTopLeft, HandleTopRight, HandleBottomLeft, HandleBottomRight:
		return true
	default:
		return false
	}
}

// IsEdge reports whether the handle drags a single edge.
func (h Handle) IsEdge() bool {
	switch h {
	case HandleTop, HandleBottom, HandleLeft, HandleRight:
		return true
	default:
		return false
	}
}

// Bounds is the source image extent rectangles are clamped against.
type Bounds struct {
	W int
	H int
}

// Aspect is an optional width:height lock applied during editing.
type Aspect struct {
	// Locked enables the constraint.
	Locked bool
	// Ratio is width divided by height. Must be positive when Locked.
	Ratio float64
}

// Valid reports whether r satisfies the rectangle invariants against b.
func Valid(r geometry.Rect, b Bounds) bool {
	return r.X >= 0 && r.Y >= 0 &&
		r.W >= 1 && r.H >= 1 &&
		r.Right() <= b.W && r.Bottom() <= b.H
}

// FromDrag builds a new-selection rectangle between the mouse-down anchor
// and the current pointer, both in image space. The pointer is clamped to
// the image first. Under an aspect lock the rectangle stays anchored at
// the mouse-down point and grows into the quadrant indicated by the drag
// direction, with the dominant axis driving the other dimension.
func FromDrag(anchor, pointer geometry.Point, b Bounds, a Aspect) geometry.Rect {
	pointer.X = clamp(pointer.X, 0, b.W)
	pointer.Y = clamp(pointer.Y, 0, b.H)

	if !a.Locked {
		return normalized(anchor, pointer)
	}

	dx := pointer.X - anchor.X
	dy := pointer.Y - anchor.Y

	w := iabs(dx)
	h := iabs(dy)
	if float64(iabs(dy))*a.Ratio > float64(iabs(dx)) {
		w = round(float64(h) * a.Ratio)
	} else {
		h = round(float64(w) / a.Ratio)
	}

	// Shrink to whatever fits in the drag-direction quadrant, keeping ratio.
	maxW, maxH := b.W-anchor.X, b.H-anchor.Y
	if dx < 0 {
		maxW = anchor.X
	}
	if dy < 0 {
		maxH = anchor.Y
	}
	if w > maxW {
		w = maxW
		h = round(float64(w) / a.Ratio)
	}
	if h > maxH {
		h = maxH
		w = round(float64(h) * a.Ratio)
	}

	r := geometry.Rect{X: anchor.X, Y: anchor.Y, W: w, H: h}
	if dx < 0 {
		r.X = anchor.X - w
	}
	if dy < 0 {
		r.Y = anchor.Y - h
	}
	return r
}

// Move shifts the rectangle by delta (image space), clamping the position
// so the rectangle stays inside the bounds. Size is preserved.
func Move(r geometry.Rect, delta geometry.Point, b Bounds) geometry.Rect {
	r.X = clamp(r.X+delta.X, 0, b.W-r.W)
	r.Y = clamp(r.Y+delta.Y, 0, b.H-r.H)
	return r
}

// Resize applies an edge or corner drag to the rectangle. delta is the
// pointer displacement since mouse-down, in image space, and r is the
// rectangle captured at mouse-down. The second return value is false when
// the operation is rejected: a result below MinSize in either dimension,
// an inverted rectangle, or a single-edge drag under an active aspect
// lock. A rejected operation returns r unchanged.
func Resize(r geometry.Rect, h Handle, delta geometry.Point, b Bounds, a Aspect) (geometry.Rect, bool) {
	if a.Locked && h.IsEdge() {
		return r, false
	}

	left, top := r.X, r.Y
	right, bottom := r.Right(), r.Bottom()

	switch h {
	case HandleTopLeft:
		left += delta.X
		top += delta.Y
	case HandleTopRight:
		right += delta.X
		top += delta.Y
	case HandleBottomLeft:
		left += delta.X
		bottom += delta.Y
	case HandleBottomRight:
		right += delta.X
		bottom += delta.Y
	case HandleTop:
		top += delta.Y
	case HandleBottom:
		bottom += delta.Y
	case HandleLeft:
		left += delta.X
	case HandleRight:
		right += delta.X
	default:
		return r, false
	}

	if a.Locked && h.IsCorner() {
		left, top, right, bottom = lockCorner(h, delta, a.Ratio, left, top, right, bottom)
	}

	if right-left < MinSize || bottom-top < MinSize {
		return r, false
	}

	left = max(0, left)
	top = max(0, top)
	right = min(b.W, right)
	bottom = min(b.H, bottom)

	if a.Locked && h.IsCorner() {
		left, top, right, bottom = reconcileRatio(h, a.Ratio, left, top, right, bottom)
	}

	return geometry.Rect{X: left, Y: top, W: right - left, H: bottom - top}, true
}

// lockCorner recomputes the non-dragged dimension of a corner resize from
// the dragged one. Width drives height unless the dominant drag axis is
// vertical; the vertical displacement is normalized by the ratio before
// comparing, and ties resolve to width-drives-height.
func lockCorner(h Handle, delta geometry.Point, ratio float64, left, top, right, bottom int) (int, int, int, int) {
	heightDominant := float64(iabs(delta.Y))*ratio > float64(iabs(delta.X))

	if heightDominant {
		w := round(float64(bottom-top) * ratio)
		switch h {
		case HandleTopLeft, HandleBottomLeft:
			left = right - w
		case HandleTopRight, HandleBottomRight:
			right = left + w
		}
	} else {
		ht := round(float64(right-left) / ratio)
		switch h {
		case HandleTopLeft, HandleTopRight:
			top = bottom - ht
		case HandleBottomLeft, HandleBottomRight:
			bottom = top + ht
		}
	}
	return left, top, right, bottom
}

// reconcileRatio restores the aspect ratio after a bounds clamp shrank one
// dimension, pulling the dragged corner in while the opposite corner stays
// anchored.
func reconcileRatio(h Handle, ratio float64, left, top, right, bottom int) (int, int, int, int) {
	w, ht := right-left, bottom-top
	fitW := min(w, round(float64(ht)*ratio))
	fitH := round(float64(fitW) / ratio)

	switch h {
	case HandleTopLeft:
		left = right - fitW
		top = bottom - fitH
	case HandleTopRight:
		right = left + fitW
		top = bottom - fitH
	case HandleBottomLeft:
		left = right - fitW
		bottom = top + fitH
	case HandleBottomRight:
		right = left + fitW
		bottom = top + fitH
	}
	return left, top, right, bottom
}

// SetX moves the rectangle horizontally to x, clamped so the rectangle
// stays inside the bounds at its current width.
func SetX(r geometry.Rect, x int, b Bounds) geometry.Rect {
	r.X = clamp(x, 0, b.W-r.W)
	return r
}

// SetY moves the rectangle vertically to y, clamped so the rectangle
// stays inside the bounds at its current height.
func SetY(r geometry.Rect, y int, b Bounds) geometry.Rect {
	r.Y = clamp(y, 0, b.H-r.H)
	return r
}

// SetWidth resizes the rectangle to width w, clamped between MinSize and
// the room remaining to the right of the current position.
func SetWidth(r geometry.Rect, w int, b Bounds) geometry.Rect {
	r.W = clamp(w, MinSize, b.W-r.X)
	return r
}

// SetHeight resizes the rectangle to height h, clamped between MinSize and
// the room remaining below the current position.
func SetHeight(r geometry.Rect, h int, b Bounds) geometry.Rect {
	r.H = clamp(h, MinSize, b.H-r.Y)
	return r
}

func normalized(a, b geometry.Point) geometry.Rect {
	x1, x2 := a.X, b.X
	if x1 > x2 {
		x1, x2 = x2, x1
	}
	y1, y2 := a.Y, b.Y
	if y1 > y2 {
		y1, y2 = y2, y1
	}
	return geometry.Rect{X: x1, Y: y1, W: x2 - x1, H: y2 - y1}
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func iabs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

func round(f float64) int {
	return int(math.Round(f))
}

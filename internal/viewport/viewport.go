// Package viewport provides zoom and pan state for the crop editor,
// independent of crop editing itself. Zoom is anchored at the cursor: the
// image-space point under the pointer before a wheel step is still under
// the pointer afterwards.
package viewport

import (
	"math"

	"github.com/hyase/cropbatch/internal/geometry"
)

// Zoom limits and behavior constants.
const (
	// MinScale and MaxScale bound the zoom factor.
	MinScale = 0.1
	MaxScale = 10.0
	// ZoomBase is the multiplicative step applied per wheel notch.
	ZoomBase = 1.1
	// WheelNotch is the wheel delta corresponding to one notch.
	WheelNotch = 120.0
	// FitMargin leaves a 5% border when fitting the image to the window.
	FitMargin = 0.95
)

// Navigator holds the zoom scale and scroll offset of the editor window
// over the canvas. It is owned by the event-processing thread and is not
// safe for concurrent use.
type Navigator struct {
	// Scale is the current zoom factor, within [MinScale, MaxScale].
	Scale float64
	// Scroll is the top-left of the visible window within the canvas.
	Scroll geometry.Point

	imageW int
	imageH int
	winW   int
	winH   int

	// userZoomed records a manual zoom since the last load, which
	// suppresses the fit-to-window reset on the next load.
	userZoomed bool
}

// New creates a Navigator at 100% zoom for the given window size.
func New(winW, winH int) *Navigator {
	return &Navigator{Scale: 1.0, winW: winW, winH: winH}
}

// Mapper returns the coordinate mapper for the current scale and image.
func (n *Navigator) Mapper() geometry.Mapper {
	return geometry.NewMapper(n.Scale, n.imageW, n.imageH)
}

// Load installs a new source image. Scale resets to fit-to-window unless
// the user zoomed manually since the previous load; the scroll offset
// recenters on the image either way, and the manual-zoom flag is cleared.
func (n *Navigator) Load(imageW, imageH int) {
	n.imageW = imageW
	n.imageH = imageH

	if !n.userZoomed {
		n.fit()
	}
	n.userZoomed = false
	n.recenter()
}

// Resize updates the window size and recenters the view.
func (n *Navigator) Resize(winW, winH int) {
	n.winW = winW
	n.winH = winH
	n.recenter()
}

// ZoomAt applies a wheel zoom step anchored at the cursor. cursor is in
// window coordinates; wheelDelta follows the convention of one notch per
// 120 units, positive zooming in.
func (n *Navigator) ZoomAt(cursor geometry.Point, wheelDelta int) {
	anchor := n.ToImage(cursor)

	factor := math.Pow(ZoomBase, float64(wheelDelta)/WheelNotch)
	n.Scale = clampScale(n.Scale * factor)
	n.userZoomed = true

	// Solve the scroll offset so the anchor point stays under the cursor.
	canvasPt := n.Mapper().ToViewport(anchor)
	n.Scroll = canvasPt.Sub(cursor)
}

// Pan shifts the scroll offset by the negative pointer delta, so the
// content follows the pointer.
func (n *Navigator) Pan(delta geometry.Point) {
	n.Scroll = n.Scroll.Sub(delta)
}

// ToImage converts a window-space point to image space.
func (n *Navigator) ToImage(p geometry.Point) geometry.Point {
	return n.Mapper().ToImage(p.Add(n.Scroll))
}

// ToWindow converts an image-space point to window space.
func (n *Navigator) ToWindow(p geometry.Point) geometry.Point {
	return n.Mapper().ToViewport(p).Sub(n.Scroll)
}

// fit sets the scale so the whole image is visible, capped at 100% and
// shrunk by FitMargin.
func (n *Navigator) fit() {
	if n.imageW <= 0 || n.imageH <= 0 || n.winW <= 0 || n.winH <= 0 {
		n.Scale = 1.0
		return
	}
	scaleW := float64(n.winW) / float64(n.imageW)
	scaleH := float64(n.winH) / float64(n.imageH)
	n.Scale = clampScale(math.Min(math.Min(scaleW, scaleH), 1.0) * FitMargin)
}

// recenter positions the window over the middle of the canvas, where the
// scaled image sits.
func (n *Navigator) recenter() {
	canvasW, canvasH := n.Mapper().CanvasSize(n.imageW, n.imageH)
	n.Scroll = geometry.Point{
		X: canvasW/2 - n.winW/2,
		Y: canvasH/2 - n.winH/2,
	}
}

func clampScale(s float64) float64 {
	if s < MinScale {
		return MinScale
	}
	if s > MaxScale {
		return MaxScale
	}
	return s
}

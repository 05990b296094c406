// Package interact provides the pointer-event state machine that edits the
// crop rectangle through a zoomed and panned viewport. The controller is
// owned by a single event-processing thread: each event is fully handled
// before the next is accepted, and no operation blocks.
package interact

import (
	"github.com/hyase/cropbatch/internal/geometry"
	"github.com/hyase/cropbatch/internal/region"
	"github.com/hyase/cropbatch/internal/viewport"
)

// HandleSize is the drawn size of a resize handle in viewport pixels. The
// hit-test zone around each handle extends HandleSize+2 pixels on each
// axis.
const HandleSize = 8

// State is the controller's interaction state.
type State int

// Interaction states.
const (
	StateIdle State = iota
	StateCreating
	StateDragging
	StatePanning
)

// String returns the state name for logging.
func (s State) String() string {
	switch s {
	case StateCreating:
		return "creating"
	case StateDragging:
		return "dragging"
	case StatePanning:
		return "panning"
	default:
		return "idle"
	}
}

// Cursor is the affordance the shell should display for the current
// pointer position.
type Cursor int

// Cursor affordances.
const (
	CursorArrow Cursor = iota
	CursorMove
	CursorSizeFDiag // top-left / bottom-right
	CursorSizeBDiag // top-right / bottom-left
	CursorSizeVer   // top / bottom edges
	CursorSizeHor   // left / right edges
)

// Controller consumes pointer events and produces continuous ("changing")
// and committed ("changed") crop rectangle updates.
type Controller struct {
	// OnChanging is invoked with the in-progress rectangle during a drag.
	// May be nil.
	OnChanging func(geometry.Rect)
	// OnChanged is invoked with the final rectangle when an edit commits.
	// May be nil.
	OnChanged func(geometry.Rect)

	nav    *viewport.Navigator
	bounds region.Bounds
	aspect region.Aspect

	rect  geometry.Rect
	state State

	// Drag session, valid only while a button is held.
	dragMode      region.Handle
	anchorRect    geometry.Rect
	anchorPointer geometry.Point // image space at primary down
	panPointer    geometry.Point // global window space at secondary down
	panScroll     geometry.Point
}

// New creates a controller for the given navigator and image bounds.
func New(nav *viewport.Navigator, bounds region.Bounds) *Controller {
	return &Controller{nav: nav, bounds: bounds}
}

// State returns the current interaction state.
func (c *Controller) State() State {
	return c.state
}

// Rect returns the current crop rectangle.
func (c *Controller) Rect() geometry.Rect {
	return c.rect
}

// Bounds returns the image bounds the rectangle is clamped against.
func (c *Controller) Bounds() region.Bounds {
	return c.bounds
}

// SetAspect installs or clears the aspect-ratio constraint for subsequent
// edits.
func (c *Controller) SetAspect(a region.Aspect) {
	c.aspect = a
}

// Reset clears the rectangle and returns to idle, for a new image load.
func (c *Controller) Reset(bounds region.Bounds) {
	c.bounds = bounds
	c.rect = geometry.Rect{}
	c.state = StateIdle
	c.dragMode = region.HandleNone
}

// PrimaryDown begins a drag or a new selection. p is in window space.
func (c *Controller) PrimaryDown(p geometry.Point) {
	if c.state != StateIdle {
		return
	}

	imgPt := c.nav.ToImage(p)

	if h := c.hitTest(p); h != region.HandleNone && !c.rect.IsEmpty() {
		c.state = StateDragging
		c.dragMode = h
		c.anchorRect = c.rect
		c.anchorPointer = imgPt
		return
	}

	if imgPt.X >= 0 && imgPt.X <= c.bounds.W && imgPt.Y >= 0 && imgPt.Y <= c.bounds.H {
		c.state = StateCreating
		c.anchorPointer = imgPt
		c.rect = geometry.Rect{X: imgPt.X, Y: imgPt.Y}
	}
}

// PrimaryUp ends a drag or selection, committing a non-empty rectangle.
func (c *Controller) PrimaryUp() {
	if c.state != StateCreating && c.state != StateDragging {
		return
	}
	c.state = StateIdle
	c.dragMode = region.HandleNone
	if !c.rect.IsEmpty() && c.OnChanged != nil {
		c.OnChanged(c.rect)
	}
}

// SecondaryDown begins panning, capturing the current scroll offset and
// the global pointer position.
func (c *Controller) SecondaryDown(p geometry.Point) {
	if c.state != StateIdle {
		return
	}
	c.state = StatePanning
	c.panPointer = p
	c.panScroll = c.nav.Scroll
}

// SecondaryUp ends panning.
func (c *Controller) SecondaryUp() {
	if c.state == StatePanning {
		c.state = StateIdle
	}
}

// PointerMove handles pointer motion in the current state and returns the
// cursor affordance to display.
func (c *Controller) PointerMove(p geometry.Point) Cursor {
	switch c.state {
	case StateCreating:
		c.rect = region.FromDrag(c.anchorPointer, c.nav.ToImage(p), c.bounds, c.aspect)
		if c.OnChanging != nil {
			c.OnChanging(c.rect)
		}
		return CursorArrow

	case StateDragging:
		delta := c.nav.ToImage(p).Sub(c.anchorPointer)

		next := c.rect
		if c.dragMode == region.HandleMove {
			next = region.Move(c.anchorRect, delta, c.bounds)
		} else if r, ok := region.Resize(c.anchorRect, c.dragMode, delta, c.bounds, c.aspect); ok {
			next = r
		}

		if next != c.rect {
			c.rect = next
			if c.OnChanging != nil {
				c.OnChanging(c.rect)
			}
		}
		return cursorFor(c.dragMode)

	case StatePanning:
		c.nav.Scroll = c.panScroll.Sub(p.Sub(c.panPointer))
		return CursorMove

	default:
		return cursorFor(c.hitTest(p))
	}
}

// EditX applies a direct numeric edit of the rectangle's x position. The
// edit bypasses the drag state machine but obeys the same bounds
// invariants, and commits immediately.
func (c *Controller) EditX(x int) {
	c.edit(region.SetX(c.rect, x, c.bounds))
}

// EditY applies a direct numeric edit of the rectangle's y position.
func (c *Controller) EditY(y int) {
	c.edit(region.SetY(c.rect, y, c.bounds))
}

// EditWidth applies a direct numeric edit of the rectangle's width.
func (c *Controller) EditWidth(w int) {
	c.edit(region.SetWidth(c.rect, w, c.bounds))
}

// EditHeight applies a direct numeric edit of the rectangle's height.
func (c *Controller) EditHeight(h int) {
	c.edit(region.SetHeight(c.rect, h, c.bounds))
}

func (c *Controller) edit(next geometry.Rect) {
	if c.rect.IsEmpty() || c.state != StateIdle {
		return
	}
	if next == c.rect {
		return
	}
	c.rect = next
	if c.OnChanged != nil {
		c.OnChanged(c.rect)
	}
}

// hitTest resolves the pointer position to a drag handle. Precedence:
// corner zones, edge-midpoint zones, rectangle interior, none.
func (c *Controller) hitTest(p geometry.Point) region.Handle {
	if c.rect.IsEmpty() {
		return region.HandleNone
	}

	m := c.nav.Mapper()
	vr := m.RectToViewport(c.rect)
	vr.X -= c.nav.Scroll.X
	vr.Y -= c.nav.Scroll.Y

	const tolerance = HandleSize + 2

	near := func(x, y int) bool {
		return iabs(p.X-x) < tolerance && iabs(p.Y-y) < tolerance
	}

	cx := vr.X + vr.W/2
	cy := vr.Y + vr.H/2

	switch {
	case near(vr.X, vr.Y):
		return region.HandleTopLeft
	case near(vr.Right(), vr.Y):
		return region.HandleTopRight
	case near(vr.X, vr.Bottom()):
		return region.HandleBottomLeft
	case near(vr.Right(), vr.Bottom()):
		return region.HandleBottomRight
	case near(cx, vr.Y):
		return region.HandleTop
	case near(cx, vr.Bottom()):
		return region.HandleBottom
	case near(vr.X, cy):
		return region.HandleLeft
	case near(vr.Right(), cy):
		return region.HandleRight
	case vr.Contains(p):
		return region.HandleMove
	default:
		return region.HandleNone
	}
}

// cursorFor maps a handle to its cursor affordance.
func cursorFor(h region.Handle) Cursor {
	switch h {
	case region.HandleMove:
		return CursorMove
	case region.HandleTopLeft, region.HandleBottomRight:
		return CursorSizeFDiag
	case region.HandleTopRight, region.HandleBottomLeft:
		return CursorSizeBDiag
	case region.HandleTop, region.HandleBottom:
		return CursorSizeVer
	case region.HandleLeft, region.HandleRight:
		return CursorSizeHor
	default:
		return CursorArrow
	}
}

func iabs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

// Package dragdrop tracks one drag session over the tree: the row currently
// under the pointer, the spring-load timer that auto-expands a hovered closed
// folder, and the continuous auto-scroll that kicks in near the container
// edges. The controller is a standalone state machine; a thin adapter wires
// it into whatever concrete rendering surface exists.
package dragdrop

import (
	"errors"
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/foldview/foldview/pkg/sched"
)

// ErrNoGeometry means a row or container had no measurable bounds. The
// current interaction step is aborted rather than corrupting scroll state.
var ErrNoGeometry = errors.New("dragdrop: geometry unavailable")

// Rect is a container's client rectangle in pointer coordinates.
type Rect struct {
	Top, Left, Bottom, Right float64
}

// Height returns the rectangle's height.
func (r Rect) Height() float64 { return r.Bottom - r.Top }

// Contains reports whether the point lies inside the rectangle.
func (r Rect) Contains(x, y float64) bool {
	return x >= r.Left && x <= r.Right && y >= r.Top && y <= r.Bottom
}

// Row is the drop-target resolution of one pointer position.
type Row struct {
	Path  string
	IsDir bool
}

// Surface is the rendering surface's geometry, injected so the controller
// never touches a concrete widget.
type Surface interface {
	// RowAt hit-tests the row under a pointer position.
	RowAt(x, y float64) (Row, bool)
	// Bounds returns the scroll container's client rect.
	Bounds() (Rect, error)
	ScrollTop() float64
	SetScrollTop(float64)
	ScrollHeight() float64
	ClientHeight() float64
}

// State is the controller's position in the session state machine.
type State int

const (
	StateIdle State = iota
	StateDragging
	StateSpringPending
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateDragging:
		return "dragging"
	case StateSpringPending:
		return "spring-pending"
	default:
		return "unknown"
	}
}

const (
	// DefaultSpringDelay is how long a closed folder must stay hovered
	// before it spring-opens.
	DefaultSpringDelay = 500 * time.Millisecond
	// DefaultEdgeZonePx is the height of the auto-scroll zones at the top
	// and bottom of the container.
	DefaultEdgeZonePx = 28.0
	// DefaultMaxSpeedPx is the auto-scroll speed at the very edge, per frame.
	DefaultMaxSpeedPx = 20.0
)

// Config wires a Controller to its collaborators.
type Config struct {
	Surface   Surface
	Scheduler sched.Scheduler
	// IsOpen reads the expand flag for a directory path.
	IsOpen func(path string) bool
	// OpenPath expands a directory; fire-and-forget, the controller never
	// waits for or verifies the expansion.
	OpenPath func(path string)
	// SetDropTarget updates the active drop-target marker. The empty
	// string clears it.
	SetDropTarget func(path string)
	Logger        zerolog.Logger

	SpringDelay time.Duration
	EdgeZonePx  float64
	MaxSpeedPx  float64
}

// Controller runs one drag session at a time.
type Controller struct {
	cfg Config

	mu        sync.Mutex
	dragging  bool
	target    string
	hasTarget bool

	springTimer  sched.Timer
	springPath   string
	springOpened map[string]struct{}

	velocity     float64
	lastX, lastY float64
	framePending bool
	frameCancel  sched.CancelFunc
}

// New creates a Controller in the idle state.
func New(cfg Config) *Controller {
	if cfg.SpringDelay <= 0 {
		cfg.SpringDelay = DefaultSpringDelay
	}
	if cfg.EdgeZonePx <= 0 {
		cfg.EdgeZonePx = DefaultEdgeZonePx
	}
	if cfg.MaxSpeedPx <= 0 {
		cfg.MaxSpeedPx = DefaultMaxSpeedPx
	}
	return &Controller{
		cfg:          cfg,
		springOpened: make(map[string]struct{}),
	}
}

// UpdateDragState handles one drag-enter/drag-over position. hint, when
// non-nil, is a DOM-hit-test result preferred over the surface's own
// RowAt resolution.
func (c *Controller) UpdateDragState(x, y float64, hint *Row) error {
	c.mu.Lock()
	c.dragging = true
	c.lastX, c.lastY = x, y
	c.mu.Unlock()

	row, ok := c.resolve(x, y, hint)
	c.setTarget(row, ok)

	bounds, err := c.cfg.Surface.Bounds()
	if err != nil {
		c.stopAutoScroll()
		return fmt.Errorf("%w: %v", ErrNoGeometry, err)
	}
	c.updateVelocity(y, bounds)
	return nil
}

// HandleDragLeave distinguishes a leave toward a descendant element still
// inside the container (a no-op) from a genuine exit, which resets the
// whole session.
func (c *Controller) HandleDragLeave(x, y float64) error {
	bounds, err := c.cfg.Surface.Bounds()
	if err != nil {
		c.Cleanup()
		return fmt.Errorf("%w: %v", ErrNoGeometry, err)
	}
	if bounds.Contains(x, y) {
		return nil
	}
	c.Cleanup()
	return nil
}

// Cleanup unconditionally resets the session: the drop-target marker is
// cleared, any pending spring timer is cancelled, the spring-opened set is
// emptied and the auto-scroll loop stops. Safe to call repeatedly and from
// any state.
func (c *Controller) Cleanup() {
	c.mu.Lock()
	c.cancelSpringLocked()
	c.springOpened = make(map[string]struct{})
	c.velocity = 0
	hadTarget := c.hasTarget
	c.target = ""
	c.hasTarget = false
	c.dragging = false
	cancel := c.frameCancel
	c.frameCancel = nil
	c.framePending = false
	c.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	if hadTarget && c.cfg.SetDropTarget != nil {
		c.cfg.SetDropTarget("")
	}
}

// State reports the session state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	switch {
	case !c.dragging:
		return StateIdle
	case c.springTimer != nil:
		return StateSpringPending
	default:
		return StateDragging
	}
}

// Target returns the active drop-target path, if any.
func (c *Controller) Target() (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.target, c.hasTarget
}

// Velocity returns the current edge-scroll velocity in px per frame.
// Negative scrolls up.
func (c *Controller) Velocity() float64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.velocity
}

// SpringOpened reports whether the path was spring-opened this session.
func (c *Controller) SpringOpened(path string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.springOpened[path]
	return ok
}

func (c *Controller) resolve(x, y float64, hint *Row) (Row, bool) {
	if hint != nil {
		return *hint, true
	}
	return c.cfg.Surface.RowAt(x, y)
}

// setTarget records a drop-target change: the marker callback fires, any
// pending spring timer is cancelled, and a new one is armed if the target is
// a closed directory not yet spring-opened this session.
func (c *Controller) setTarget(row Row, ok bool) {
	newPath := ""
	if ok {
		newPath = row.Path
	}

	c.mu.Lock()
	if c.hasTarget == ok && c.target == newPath {
		c.mu.Unlock()
		return
	}

	c.cancelSpringLocked()
	c.target = newPath
	c.hasTarget = ok

	arm := ok && row.IsDir &&
		c.cfg.IsOpen != nil && !c.cfg.IsOpen(row.Path) &&
		!c.springOpenedLocked(row.Path)
	if arm {
		path := row.Path
		c.springPath = path
		c.springTimer = c.cfg.Scheduler.AfterFunc(c.cfg.SpringDelay, func() {
			c.springFire(path)
		})
	}
	c.mu.Unlock()

	if c.cfg.SetDropTarget != nil {
		c.cfg.SetDropTarget(newPath)
	}
}

func (c *Controller) springOpenedLocked(path string) bool {
	_, ok := c.springOpened[path]
	return ok
}

func (c *Controller) cancelSpringLocked() {
	if c.springTimer != nil {
		c.springTimer.Stop()
		c.springTimer = nil
	}
	c.springPath = ""
}

// springFire runs when the spring timer elapses. The hovered path is
// re-checked at fire time instead of trusting the closure's captured state,
// which defuses timer races against target changes.
func (c *Controller) springFire(path string) {
	c.mu.Lock()
	if !c.dragging || !c.hasTarget || c.target != path || c.springPath != path {
		c.mu.Unlock()
		return
	}
	c.springTimer = nil
	c.springPath = ""
	if c.cfg.IsOpen != nil && c.cfg.IsOpen(path) {
		c.mu.Unlock()
		return
	}
	c.springOpened[path] = struct{}{}
	c.mu.Unlock()

	c.cfg.Logger.Debug().Str("path", path).Msg("spring-loading folder")
	if c.cfg.OpenPath != nil {
		c.cfg.OpenPath(path)
	}
}

// velocityFor maps a pointer height to an edge-scroll velocity. Speed scales
// quadratically with proximity to the edge and evaluates to zero once the
// scroll position can move no further in that direction.
func (c *Controller) velocityFor(y float64, bounds Rect) float64 {
	if y < bounds.Top || y > bounds.Bottom {
		return 0
	}

	zone := c.cfg.EdgeZonePx
	v := 0.0
	if d := y - bounds.Top; d < zone {
		v = -c.cfg.MaxSpeedPx * math.Pow(1-d/zone, 2)
	} else if d := bounds.Bottom - y; d < zone {
		v = c.cfg.MaxSpeedPx * math.Pow(1-d/zone, 2)
	}
	if v == 0 {
		return 0
	}

	maxScroll := c.cfg.Surface.ScrollHeight() - c.cfg.Surface.ClientHeight()
	if maxScroll < 0 {
		maxScroll = 0
	}
	top := c.cfg.Surface.ScrollTop()
	if v > 0 && top >= maxScroll {
		return 0
	}
	if v < 0 && top <= 0 {
		return 0
	}
	return v
}

// updateVelocity recomputes the edge velocity and keeps the auto-scroll
// frame loop alive while it is non-zero. Scheduling while a frame is already
// pending is a no-op.
func (c *Controller) updateVelocity(y float64, bounds Rect) {
	v := c.velocityFor(y, bounds)

	c.mu.Lock()
	c.velocity = v
	schedule := v != 0 && c.dragging && !c.framePending
	if schedule {
		c.framePending = true
	}
	c.mu.Unlock()

	if schedule {
		cancel := c.cfg.Scheduler.RequestFrame(c.autoScrollStep)
		c.mu.Lock()
		c.frameCancel = cancel
		c.mu.Unlock()
	}
}

// autoScrollStep advances the scroll position by one frame's velocity,
// re-resolves the drop target at the last pointer position (the row under a
// fixed screen point changes as content scrolls) and reschedules itself
// while velocity remains non-zero.
func (c *Controller) autoScrollStep() {
	c.mu.Lock()
	c.framePending = false
	c.frameCancel = nil
	if !c.dragging || c.velocity == 0 {
		c.mu.Unlock()
		return
	}
	v := c.velocity
	x, y := c.lastX, c.lastY
	c.mu.Unlock()

	s := c.cfg.Surface
	maxScroll := s.ScrollHeight() - s.ClientHeight()
	if maxScroll < 0 {
		maxScroll = 0
	}
	next := s.ScrollTop() + v
	if next < 0 {
		next = 0
	}
	if next > maxScroll {
		next = maxScroll
	}
	s.SetScrollTop(next)

	row, ok := s.RowAt(x, y)
	c.setTarget(row, ok)

	bounds, err := s.Bounds()
	if err != nil {
		c.stopAutoScroll()
		return
	}
	c.updateVelocity(y, bounds)
}

// stopAutoScroll zeroes the velocity and cancels any pending frame.
func (c *Controller) stopAutoScroll() {
	c.mu.Lock()
	c.velocity = 0
	cancel := c.frameCancel
	c.frameCancel = nil
	c.framePending = false
	c.mu.Unlock()

	if cancel != nil {
		cancel()
	}
}

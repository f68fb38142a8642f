package dragdrop

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/foldview/foldview/pkg/sched"
)

// fakeSurface lays rows out vertically at a fixed row height and scrolls by
// adjusting which content row sits under a screen point.
type fakeSurface struct {
	mu        sync.Mutex
	bounds    Rect
	boundsErr error
	rowH      float64
	rows      []Row
	scrollTop float64
}

func (s *fakeSurface) RowAt(x, y float64) (Row, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if y < s.bounds.Top || y > s.bounds.Bottom {
		return Row{}, false
	}
	idx := int((y - s.bounds.Top + s.scrollTop) / s.rowH)
	if idx < 0 || idx >= len(s.rows) {
		return Row{}, false
	}
	return s.rows[idx], true
}

func (s *fakeSurface) Bounds() (Rect, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.boundsErr != nil {
		return Rect{}, s.boundsErr
	}
	return s.bounds, nil
}

func (s *fakeSurface) ScrollTop() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.scrollTop
}

func (s *fakeSurface) SetScrollTop(v float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.scrollTop = v
}

func (s *fakeSurface) ScrollHeight() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return float64(len(s.rows)) * s.rowH
}

func (s *fakeSurface) ClientHeight() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.bounds.Height()
}

// harness bundles a controller with recording callbacks and an open-state map
// the tests mutate directly.
type harness struct {
	ctrl    *Controller
	surface *fakeSurface
	clock   *sched.Manual

	mu      sync.Mutex
	open    map[string]bool
	opened  []string
	markers []string
}

func newHarness(t *testing.T, rows []Row) *harness {
	t.Helper()
	h := &harness{
		surface: &fakeSurface{
			bounds: Rect{Top: 0, Left: 0, Bottom: 240, Right: 400},
			rowH:   24,
			rows:   rows,
		},
		clock: sched.NewManual(),
		open:  make(map[string]bool),
	}
	h.ctrl = New(Config{
		Surface:   h.surface,
		Scheduler: h.clock,
		IsOpen: func(path string) bool {
			h.mu.Lock()
			defer h.mu.Unlock()
			return h.open[path]
		},
		OpenPath: func(path string) {
			h.mu.Lock()
			defer h.mu.Unlock()
			h.open[path] = true
			h.opened = append(h.opened, path)
		},
		SetDropTarget: func(path string) {
			h.mu.Lock()
			defer h.mu.Unlock()
			h.markers = append(h.markers, path)
		},
		Logger: zerolog.Nop(),
	})
	return h
}

func (h *harness) openedPaths() []string {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := make([]string, len(h.opened))
	copy(out, h.opened)
	return out
}

func (h *harness) markerLog() []string {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := make([]string, len(h.markers))
	copy(out, h.markers)
	return out
}

func rowsFixture() []Row {
	return []Row{
		{Path: "src", IsDir: true},
		{Path: "src/main.go"},
		{Path: "docs", IsDir: true},
		{Path: "readme.md"},
	}
}

func TestHoverClosedFolderSpringOpensAfterDelay(t *testing.T) {
	h := newHarness(t, rowsFixture())

	// Row 0 ("src") spans y 0..24; hover its middle.
	if err := h.ctrl.UpdateDragState(50, 12, nil); err != nil {
		t.Fatalf("UpdateDragState: %v", err)
	}
	if got := h.ctrl.State(); got != StateSpringPending {
		t.Fatalf("state = %v, want spring-pending", got)
	}

	h.clock.Advance(DefaultSpringDelay - time.Millisecond)
	if len(h.openedPaths()) != 0 {
		t.Fatalf("folder opened before the delay elapsed")
	}

	h.clock.Advance(time.Millisecond)
	if got := h.openedPaths(); len(got) != 1 || got[0] != "src" {
		t.Fatalf("opened = %v, want [src]", got)
	}
	if got := h.ctrl.State(); got != StateDragging {
		t.Fatalf("state after spring = %v, want dragging", got)
	}
	if !h.ctrl.SpringOpened("src") {
		t.Fatalf("src not recorded as spring-opened")
	}
}

func TestTargetChangeCancelsPendingSpring(t *testing.T) {
	h := newHarness(t, rowsFixture())

	if err := h.ctrl.UpdateDragState(50, 12, nil); err != nil {
		t.Fatalf("UpdateDragState: %v", err)
	}
	// Move onto the file row before the timer fires.
	if err := h.ctrl.UpdateDragState(50, 36, nil); err != nil {
		t.Fatalf("UpdateDragState: %v", err)
	}

	h.clock.Advance(DefaultSpringDelay * 2)
	if got := h.openedPaths(); len(got) != 0 {
		t.Fatalf("opened = %v, want none after target change", got)
	}
	if got := h.ctrl.State(); got != StateDragging {
		t.Fatalf("state = %v, want dragging", got)
	}
}

func TestSpringRevalidatesOpenFlagAtFireTime(t *testing.T) {
	h := newHarness(t, rowsFixture())

	if err := h.ctrl.UpdateDragState(50, 12, nil); err != nil {
		t.Fatalf("UpdateDragState: %v", err)
	}

	// The folder gets expanded by other means while the timer is pending.
	h.mu.Lock()
	h.open["src"] = true
	h.mu.Unlock()

	h.clock.Advance(DefaultSpringDelay)
	if got := h.openedPaths(); len(got) != 0 {
		t.Fatalf("opened = %v, want none for an already-open folder", got)
	}
	if h.ctrl.SpringOpened("src") {
		t.Fatalf("already-open folder recorded as spring-opened")
	}
}

func TestSpringFiresAtMostOncePerSession(t *testing.T) {
	h := newHarness(t, rowsFixture())

	if err := h.ctrl.UpdateDragState(50, 12, nil); err != nil {
		t.Fatalf("UpdateDragState: %v", err)
	}
	h.clock.Advance(DefaultSpringDelay)
	if got := h.openedPaths(); len(got) != 1 {
		t.Fatalf("opened = %v, want one spring open", got)
	}

	// The folder is collapsed again, then re-hovered within the same
	// session. The spring must not re-arm.
	h.mu.Lock()
	h.open["src"] = false
	h.mu.Unlock()
	if err := h.ctrl.UpdateDragState(50, 36, nil); err != nil {
		t.Fatalf("UpdateDragState: %v", err)
	}
	if err := h.ctrl.UpdateDragState(50, 12, nil); err != nil {
		t.Fatalf("UpdateDragState: %v", err)
	}
	if got := h.ctrl.State(); got != StateDragging {
		t.Fatalf("state = %v, want dragging (no new spring)", got)
	}
	h.clock.Advance(DefaultSpringDelay * 2)
	if got := h.openedPaths(); len(got) != 1 {
		t.Fatalf("opened = %v, want still one open", got)
	}

	// A new session starts with a cleared spring-opened set.
	h.ctrl.Cleanup()
	if err := h.ctrl.UpdateDragState(50, 12, nil); err != nil {
		t.Fatalf("UpdateDragState: %v", err)
	}
	h.clock.Advance(DefaultSpringDelay)
	if got := h.openedPaths(); len(got) != 2 {
		t.Fatalf("opened = %v, want re-arm after cleanup", got)
	}
}

func TestDropTargetMarkerFollowsHoveredRow(t *testing.T) {
	h := newHarness(t, rowsFixture())

	if err := h.ctrl.UpdateDragState(50, 12, nil); err != nil {
		t.Fatalf("UpdateDragState: %v", err)
	}
	// Moving within the same row must not re-fire the callback.
	if err := h.ctrl.UpdateDragState(60, 20, nil); err != nil {
		t.Fatalf("UpdateDragState: %v", err)
	}
	if err := h.ctrl.UpdateDragState(50, 60, nil); err != nil {
		t.Fatalf("UpdateDragState: %v", err)
	}
	h.ctrl.Cleanup()

	want := []string{"src", "docs", ""}
	got := h.markerLog()
	if len(got) != len(want) {
		t.Fatalf("markers = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("markers = %v, want %v", got, want)
		}
	}
}

func TestHintRowPreferredOverHitTest(t *testing.T) {
	h := newHarness(t, rowsFixture())

	hint := &Row{Path: "docs", IsDir: true}
	if err := h.ctrl.UpdateDragState(50, 12, hint); err != nil {
		t.Fatalf("UpdateDragState: %v", err)
	}
	if path, ok := h.ctrl.Target(); !ok || path != "docs" {
		t.Fatalf("target = %q/%v, want docs from hint", path, ok)
	}
}

func TestEdgeVelocityQuadraticFalloff(t *testing.T) {
	rows := make([]Row, 100)
	for i := range rows {
		rows[i] = Row{Path: "f"}
	}
	h := newHarness(t, rows)

	// Bottom edge is y=240, zone 28px. At the edge itself the speed is the
	// maximum; halfway into the zone it is a quarter of it.
	if err := h.ctrl.UpdateDragState(50, 240, nil); err != nil {
		t.Fatalf("UpdateDragState: %v", err)
	}
	if v := h.ctrl.Velocity(); v != DefaultMaxSpeedPx {
		t.Fatalf("velocity at edge = %v, want %v", v, DefaultMaxSpeedPx)
	}

	if err := h.ctrl.UpdateDragState(50, 240-14, nil); err != nil {
		t.Fatalf("UpdateDragState: %v", err)
	}
	if v, want := h.ctrl.Velocity(), DefaultMaxSpeedPx*0.25; v != want {
		t.Fatalf("velocity mid-zone = %v, want %v", v, want)
	}

	// Outside both zones the velocity is zero.
	if err := h.ctrl.UpdateDragState(50, 120, nil); err != nil {
		t.Fatalf("UpdateDragState: %v", err)
	}
	if v := h.ctrl.Velocity(); v != 0 {
		t.Fatalf("velocity mid-container = %v, want 0", v)
	}
}

func TestAutoScrollAdvancesAndStopsAtClamp(t *testing.T) {
	rows := make([]Row, 20)
	for i := range rows {
		rows[i] = Row{Path: "f"}
	}
	h := newHarness(t, rows)
	// Content 480px, viewport 240px, so maxScroll is 240.

	if err := h.ctrl.UpdateDragState(50, 239, nil); err != nil {
		t.Fatalf("UpdateDragState: %v", err)
	}
	if h.ctrl.Velocity() <= 0 {
		t.Fatalf("velocity = %v, want downward scroll", h.ctrl.Velocity())
	}

	prev := h.surface.ScrollTop()
	for i := 0; i < 100; i++ {
		if h.clock.PendingFrames() == 0 {
			break
		}
		h.clock.Step()
		cur := h.surface.ScrollTop()
		if cur < prev {
			t.Fatalf("scrollTop went backwards: %v -> %v", prev, cur)
		}
		prev = cur
	}

	if got := h.surface.ScrollTop(); got != 240 {
		t.Fatalf("scrollTop = %v, want clamped at 240", got)
	}
	if v := h.ctrl.Velocity(); v != 0 {
		t.Fatalf("velocity at clamp = %v, want 0", v)
	}
	if h.clock.PendingFrames() != 0 {
		t.Fatalf("frame loop still scheduled after clamp")
	}
}

func TestTopEdgeAtScrollZeroProducesNoVelocity(t *testing.T) {
	rows := make([]Row, 20)
	for i := range rows {
		rows[i] = Row{Path: "f"}
	}
	h := newHarness(t, rows)

	if err := h.ctrl.UpdateDragState(50, 1, nil); err != nil {
		t.Fatalf("UpdateDragState: %v", err)
	}
	if v := h.ctrl.Velocity(); v != 0 {
		t.Fatalf("velocity = %v, want 0 at top clamp", v)
	}
	if h.clock.PendingFrames() != 0 {
		t.Fatalf("frame scheduled with zero velocity")
	}
}

func TestDragLeaveInsideBoundsIsNoop(t *testing.T) {
	h := newHarness(t, rowsFixture())

	if err := h.ctrl.UpdateDragState(50, 12, nil); err != nil {
		t.Fatalf("UpdateDragState: %v", err)
	}
	if err := h.ctrl.HandleDragLeave(100, 100); err != nil {
		t.Fatalf("HandleDragLeave: %v", err)
	}
	if path, ok := h.ctrl.Target(); !ok || path != "src" {
		t.Fatalf("target = %q/%v, want untouched", path, ok)
	}

	if err := h.ctrl.HandleDragLeave(500, 500); err != nil {
		t.Fatalf("HandleDragLeave: %v", err)
	}
	if got := h.ctrl.State(); got != StateIdle {
		t.Fatalf("state after outside leave = %v, want idle", got)
	}
	if _, ok := h.ctrl.Target(); ok {
		t.Fatalf("target survived outside leave")
	}
}

func TestCleanupIsIdempotent(t *testing.T) {
	h := newHarness(t, rowsFixture())

	h.ctrl.Cleanup()
	h.ctrl.Cleanup()
	if got := h.ctrl.State(); got != StateIdle {
		t.Fatalf("state = %v, want idle", got)
	}

	if err := h.ctrl.UpdateDragState(50, 12, nil); err != nil {
		t.Fatalf("UpdateDragState: %v", err)
	}
	h.ctrl.Cleanup()
	h.ctrl.Cleanup()
	if markers := h.markerLog(); markers[len(markers)-1] != "" {
		t.Fatalf("markers = %v, want trailing clear", markers)
	}
}

func TestMissingGeometryAbortsStep(t *testing.T) {
	h := newHarness(t, rowsFixture())
	h.surface.mu.Lock()
	h.surface.boundsErr = errors.New("detached")
	h.surface.mu.Unlock()

	err := h.ctrl.UpdateDragState(50, 12, nil)
	if !errors.Is(err, ErrNoGeometry) {
		t.Fatalf("err = %v, want ErrNoGeometry", err)
	}
	if v := h.ctrl.Velocity(); v != 0 {
		t.Fatalf("velocity = %v, want 0 after geometry failure", v)
	}
}

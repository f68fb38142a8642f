package window

import (
	"testing"

	"github.com/foldview/foldview/pkg/sched"
)

func TestUpdaterCoalescesRequests(t *testing.T) {
	m := sched.NewManual()
	computes := 0
	u := NewUpdater(m, func() Range { computes++; return Range{0, 10} }, func(Range) {})

	u.Request()
	u.Request()
	u.Request()

	if m.PendingFrames() != 1 {
		t.Errorf("pending frames = %d, want 1 (coalesced)", m.PendingFrames())
	}
	m.Step()
	if computes != 1 {
		t.Errorf("computes = %d, want 1", computes)
	}
}

func TestUpdaterSkipsRepaintWhenRangeUnchanged(t *testing.T) {
	m := sched.NewManual()
	r := Range{5, 25}
	renders := 0
	u := NewUpdater(m, func() Range { return r }, func(Range) { renders++ })

	u.Request()
	m.Step()
	if renders != 1 {
		t.Fatalf("first run renders = %d, want 1", renders)
	}

	u.Request()
	m.Step()
	if renders != 1 {
		t.Errorf("unchanged range re-rendered, renders = %d", renders)
	}

	r = Range{6, 26}
	u.Request()
	m.Step()
	if renders != 2 {
		t.Errorf("changed range did not render, renders = %d", renders)
	}
}

func TestUpdaterInvalidateForcesRepaint(t *testing.T) {
	m := sched.NewManual()
	renders := 0
	u := NewUpdater(m, func() Range { return Range{0, 1} }, func(Range) { renders++ })

	u.Request()
	m.Step()
	u.Invalidate()
	u.Request()
	m.Step()

	if renders != 2 {
		t.Errorf("renders = %d, want 2 after Invalidate", renders)
	}
}

func TestUpdaterCancelClearsPendingAndDetaches(t *testing.T) {
	m := sched.NewManual()
	ran := false
	u := NewUpdater(m, func() Range { ran = true; return Range{} }, func(Range) {})

	u.Request()
	u.Cancel()
	u.Cancel() // idempotent

	m.Step()
	if ran {
		t.Error("cancelled updater still computed")
	}
	if u.Pending() {
		t.Error("cancelled updater reports pending")
	}

	u.Request()
	m.Step()
	if ran {
		t.Error("detached updater accepted a new request")
	}
}

package sched

import (
	"testing"
	"time"
)

func TestManualStepRunsQueuedFrames(t *testing.T) {
	m := NewManual()
	ran := 0
	m.RequestFrame(func() { ran++ })
	m.RequestFrame(func() { ran++ })

	if got := m.Step(); got != 2 {
		t.Errorf("Step() = %d, want 2", got)
	}
	if ran != 2 {
		t.Errorf("ran = %d, want 2", ran)
	}
	if m.Step() != 0 {
		t.Error("second Step should run nothing")
	}
}

func TestManualFrameCancel(t *testing.T) {
	m := NewManual()
	ran := false
	cancel := m.RequestFrame(func() { ran = true })
	cancel()
	cancel() // double cancel is safe

	if m.PendingFrames() != 0 {
		t.Error("cancelled frame still pending")
	}
	m.Step()
	if ran {
		t.Error("cancelled frame ran")
	}
}

func TestManualFramesRequestedDuringStepDeferToNextStep(t *testing.T) {
	m := NewManual()
	order := []string{}
	m.RequestFrame(func() {
		order = append(order, "first")
		m.RequestFrame(func() { order = append(order, "second") })
	})

	m.Step()
	if len(order) != 1 {
		t.Fatalf("expected only first frame in step 1, got %v", order)
	}
	m.Step()
	if len(order) != 2 || order[1] != "second" {
		t.Fatalf("expected second frame in step 2, got %v", order)
	}
}

func TestManualAdvanceFiresTimersInOrder(t *testing.T) {
	m := NewManual()
	var order []int
	m.AfterFunc(300*time.Millisecond, func() { order = append(order, 300) })
	m.AfterFunc(100*time.Millisecond, func() { order = append(order, 100) })

	m.Advance(200 * time.Millisecond)
	if len(order) != 1 || order[0] != 100 {
		t.Fatalf("after 200ms got %v, want [100]", order)
	}

	m.Advance(200 * time.Millisecond)
	if len(order) != 2 || order[1] != 300 {
		t.Fatalf("after 400ms got %v, want [100 300]", order)
	}
}

func TestManualTimerStop(t *testing.T) {
	m := NewManual()
	fired := false
	timer := m.AfterFunc(time.Second, func() { fired = true })

	if !timer.Stop() {
		t.Error("first Stop should report pending")
	}
	if timer.Stop() {
		t.Error("second Stop should report not pending")
	}

	m.Advance(2 * time.Second)
	if fired {
		t.Error("stopped timer fired")
	}
}

func TestWallRequestFrameFires(t *testing.T) {
	w := &Wall{Interval: time.Millisecond}
	done := make(chan struct{})
	w.RequestFrame(func() { close(done) })

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("frame never fired")
	}
}

func TestWallCancelStopsFrame(t *testing.T) {
	w := &Wall{Interval: 50 * time.Millisecond}
	fired := make(chan struct{}, 1)
	cancel := w.RequestFrame(func() { fired <- struct{}{} })
	cancel()

	select {
	case <-fired:
		t.Fatal("cancelled frame fired")
	case <-time.After(150 * time.Millisecond):
	}
}

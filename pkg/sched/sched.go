// Package sched abstracts the timer and animation-frame scheduling that the
// windowing and drag-drop components depend on. The rendering surface drives
// one cooperative loop; components never spin goroutines of their own, they
// only ask the scheduler for "one frame from now" or "one timer at delay d".
package sched

import (
	"sort"
	"sync"
	"time"
)

// CancelFunc cancels a pending frame request. Safe to call more than once
// and after the frame has fired.
type CancelFunc func()

// Timer is a stoppable one-shot timer. Stop reports whether the timer was
// still pending.
type Timer interface {
	Stop() bool
}

// Scheduler schedules frame callbacks and one-shot timers.
type Scheduler interface {
	// RequestFrame schedules fn to run on the next frame tick.
	RequestFrame(fn func()) CancelFunc
	// AfterFunc schedules fn to run once after d.
	AfterFunc(d time.Duration, fn func()) Timer
}

// FrameInterval approximates one display frame at 60fps.
const FrameInterval = 16 * time.Millisecond

// Wall is the production Scheduler, backed by wall-clock timers.
type Wall struct {
	// Interval between a frame request and its callback. Zero means
	// FrameInterval.
	Interval time.Duration
}

// NewWall creates a wall-clock scheduler ticking at ~60fps.
func NewWall() *Wall {
	return &Wall{Interval: FrameInterval}
}

// RequestFrame schedules fn one frame interval from now.
func (w *Wall) RequestFrame(fn func()) CancelFunc {
	interval := w.Interval
	if interval <= 0 {
		interval = FrameInterval
	}
	t := time.AfterFunc(interval, fn)
	return func() { t.Stop() }
}

// AfterFunc schedules fn once after d.
func (w *Wall) AfterFunc(d time.Duration, fn func()) Timer {
	return time.AfterFunc(d, fn)
}

// Manual is a deterministic Scheduler for tests: frames run when Step is
// called and timers fire when Advance moves the fake clock past them.
type Manual struct {
	mu     sync.Mutex
	now    time.Duration
	frames []*manualFrame
	timers []*manualTimer
}

// NewManual creates a manual scheduler with the clock at zero.
func NewManual() *Manual {
	return &Manual{}
}

type manualFrame struct {
	fn        func()
	cancelled bool
}

type manualTimer struct {
	m       *Manual
	at      time.Duration
	fn      func()
	stopped bool
	fired   bool
}

func (t *manualTimer) Stop() bool {
	t.m.mu.Lock()
	defer t.m.mu.Unlock()
	if t.fired || t.stopped {
		return false
	}
	t.stopped = true
	return true
}

// RequestFrame queues fn for the next Step.
func (m *Manual) RequestFrame(fn func()) CancelFunc {
	m.mu.Lock()
	defer m.mu.Unlock()
	f := &manualFrame{fn: fn}
	m.frames = append(m.frames, f)
	return func() {
		m.mu.Lock()
		f.cancelled = true
		m.mu.Unlock()
	}
}

// AfterFunc queues fn to fire when the fake clock reaches now+d.
func (m *Manual) AfterFunc(d time.Duration, fn func()) Timer {
	m.mu.Lock()
	defer m.mu.Unlock()
	t := &manualTimer{m: m, at: m.now + d, fn: fn}
	m.timers = append(m.timers, t)
	return t
}

// Step runs every frame callback queued so far and returns how many ran.
// Frames requested while stepping run on the next Step, matching the
// one-pending-callback-per-concern coalescing model.
func (m *Manual) Step() int {
	m.mu.Lock()
	frames := m.frames
	m.frames = nil
	m.mu.Unlock()

	ran := 0
	for _, f := range frames {
		if f.cancelled {
			continue
		}
		f.fn()
		ran++
	}
	return ran
}

// PendingFrames returns the number of uncancelled queued frames.
func (m *Manual) PendingFrames() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, f := range m.frames {
		if !f.cancelled {
			n++
		}
	}
	return n
}

// Advance moves the fake clock forward by d, firing due timers in order.
func (m *Manual) Advance(d time.Duration) {
	m.mu.Lock()
	target := m.now + d
	m.mu.Unlock()

	for {
		t := m.nextDue(target)
		if t == nil {
			break
		}
		m.mu.Lock()
		m.now = t.at
		t.fired = true
		m.mu.Unlock()
		t.fn()
	}

	m.mu.Lock()
	m.now = target
	m.mu.Unlock()
}

// nextDue pops the earliest pending timer at or before target.
func (m *Manual) nextDue(target time.Duration) *manualTimer {
	m.mu.Lock()
	defer m.mu.Unlock()

	sort.SliceStable(m.timers, func(i, j int) bool { return m.timers[i].at < m.timers[j].at })
	for _, t := range m.timers {
		if t.stopped || t.fired {
			continue
		}
		if t.at <= target {
			return t
		}
	}
	return nil
}

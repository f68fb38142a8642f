package window

import (
	"sync"

	"github.com/foldview/foldview/pkg/sched"
)

// Updater coalesces window recomputation to at most once per frame.
// Requesting while a recompute is already scheduled is a no-op, not a queue.
// When the frame runs, the freshly computed range is compared against the
// last range actually handed to the renderer; a repaint is requested only if
// they differ.
type Updater struct {
	scheduler sched.Scheduler
	compute   func() Range
	render    func(Range)

	mu           sync.Mutex
	pending      bool
	cancel       sched.CancelFunc
	hasRendered  bool
	lastRendered Range
	detached     bool
}

// NewUpdater wires a compute function (reads live geometry, returns the
// current range) to a render function (repaints for a new range).
func NewUpdater(s sched.Scheduler, compute func() Range, render func(Range)) *Updater {
	return &Updater{scheduler: s, compute: compute, render: render}
}

// Request schedules a recompute on the next frame. No-op if one is already
// pending or the updater was cancelled.
func (u *Updater) Request() {
	u.mu.Lock()
	if u.pending || u.detached {
		u.mu.Unlock()
		return
	}
	u.pending = true
	u.mu.Unlock()

	cancel := u.scheduler.RequestFrame(u.run)
	u.mu.Lock()
	u.cancel = cancel
	u.mu.Unlock()
}

func (u *Updater) run() {
	u.mu.Lock()
	if u.detached {
		u.mu.Unlock()
		return
	}
	u.pending = false
	u.cancel = nil
	u.mu.Unlock()

	r := u.compute()

	u.mu.Lock()
	changed := !u.hasRendered || r != u.lastRendered
	if changed {
		u.lastRendered = r
		u.hasRendered = true
	}
	u.mu.Unlock()

	if changed {
		u.render(r)
	}
}

// Invalidate forgets the last rendered range so the next recompute always
// repaints, e.g. after the row list itself changed under an unchanged range.
func (u *Updater) Invalidate() {
	u.mu.Lock()
	u.hasRendered = false
	u.mu.Unlock()
}

// Pending reports whether a recompute is scheduled.
func (u *Updater) Pending() bool {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.pending
}

// Cancel clears any pending frame and detaches the updater for good; later
// Requests are ignored. Safe to call multiple times.
func (u *Updater) Cancel() {
	u.mu.Lock()
	cancel := u.cancel
	u.pending = false
	u.cancel = nil
	u.detached = true
	u.mu.Unlock()

	if cancel != nil {
		cancel()
	}
}

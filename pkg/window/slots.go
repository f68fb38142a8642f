package window

import "github.com/foldview/foldview/pkg/model"

// SlotHost is the rendering surface's view of the row pool. Slots are
// positional: slot identity tracks a position between the spacers, never a
// specific row. Surplus slots are removed from the tail, deficit slots are
// appended before the bottom spacer, and every slot is repainted as if
// freshly bound on each apply.
type SlotHost interface {
	// SlotCount returns the number of row slots currently materialized.
	SlotCount() int
	// AppendSlot materializes one slot at the tail, before the bottom spacer.
	AppendSlot()
	// TrimSlot removes the tail slot.
	TrimSlot()
	// Paint binds the row at absolute index absIndex to the given slot.
	Paint(slot int, absIndex int, entry model.TreeEntry)
	// SetSpacers sizes the two placeholder elements.
	SetSpacers(topPx, bottomPx int)
}

// SlotState is the retained per-slot record. It lives in the pool's arena,
// addressed by slot index, decoupled from whatever object the host uses to
// render the slot.
type SlotState struct {
	AbsIndex int
	Path     string
}

// SlotPool reconciles a SlotHost toward a VirtualWindow and keeps the
// per-slot state arena.
type SlotPool struct {
	states []SlotState
}

// NewSlotPool creates an empty pool.
func NewSlotPool() *SlotPool {
	return &SlotPool{}
}

// Apply reconciles the host's slot count toward the window's row count and
// repaints every slot.
func (p *SlotPool) Apply(win VirtualWindow, host SlotHost) {
	want := len(win.VisibleItems)

	for host.SlotCount() > want {
		host.TrimSlot()
	}
	for host.SlotCount() < want {
		host.AppendSlot()
	}

	if cap(p.states) < want {
		p.states = make([]SlotState, want)
	}
	p.states = p.states[:want]

	for i, entry := range win.VisibleItems {
		abs := win.RangeStart + i
		p.states[i] = SlotState{AbsIndex: abs, Path: entry.Path}
		host.Paint(i, abs, entry)
	}

	host.SetSpacers(win.TopSpacerPx, win.BottomSpacerPx)
}

// State returns the retained record for a slot index.
func (p *SlotPool) State(slot int) (SlotState, bool) {
	if slot < 0 || slot >= len(p.states) {
		return SlotState{}, false
	}
	return p.states[slot], true
}

// Len returns the number of live slots.
func (p *SlotPool) Len() int { return len(p.states) }

// Reset drops all retained slot state.
func (p *SlotPool) Reset() { p.states = p.states[:0] }

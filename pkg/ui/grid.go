package ui

import "github.com/foldview/foldview/pkg/model"

// rowGrid is the terminal rendering surface behind the slot pool: one string
// per slot, one terminal row per slot. Spacer "pixels" are terminal rows.
type rowGrid struct {
	lines      []string
	topRows    int
	bottomRows int
	render     func(absIndex int, entry model.TreeEntry) string
}

func (g *rowGrid) SlotCount() int { return len(g.lines) }

func (g *rowGrid) AppendSlot() { g.lines = append(g.lines, "") }

func (g *rowGrid) TrimSlot() { g.lines = g.lines[:len(g.lines)-1] }

func (g *rowGrid) Paint(slot int, absIndex int, entry model.TreeEntry) {
	g.lines[slot] = g.render(absIndex, entry)
}

func (g *rowGrid) SetSpacers(topPx, bottomPx int) {
	g.topRows = topPx
	g.bottomRows = bottomPx
}

// Package window computes which contiguous sub-range of a large row list
// must exist as real rows at a given scroll position, with stable spacer
// sizing so the scrollbar never jumps.
package window

import (
	"math"

	"github.com/foldview/foldview/pkg/model"
)

// Config tunes the virtualization window.
type Config struct {
	// Threshold is the row count at which virtualization activates.
	Threshold int
	// RowHeight is the fixed pixel height of one row.
	RowHeight int
	// OverscanRows are rendered beyond the viewport on each side.
	OverscanRows int
	// MinRows is the floor on rendered rows even for a tiny viewport.
	MinRows int
}

// DefaultConfig returns the standard tuning.
func DefaultConfig() Config {
	return Config{
		Threshold:    2500,
		RowHeight:    24,
		OverscanRows: 80,
		MinRows:      200,
	}
}

func (c Config) withDefaults() Config {
	d := DefaultConfig()
	if c.Threshold <= 0 {
		c.Threshold = d.Threshold
	}
	if c.RowHeight <= 0 {
		c.RowHeight = d.RowHeight
	}
	if c.OverscanRows < 0 {
		c.OverscanRows = d.OverscanRows
	}
	if c.MinRows <= 0 {
		c.MinRows = d.MinRows
	}
	return c
}

// Range is a half-open row interval [Start, End).
type Range struct {
	Start int
	End   int
}

// Len returns the number of rows in the range.
func (r Range) Len() int { return r.End - r.Start }

// VirtualWindow is the materialized slice of the row list plus the spacer
// heights standing in for everything outside it. When Virtualized is false
// the window is the entire list and both spacers are zero.
type VirtualWindow struct {
	RangeStart     int
	VisibleItems   []model.TreeEntry
	TopSpacerPx    int
	BottomSpacerPx int
	Virtualized    bool
}

type rangeInput struct {
	totalRows  int
	viewportPx float64
	scrollPx   float64
}

// Windower computes virtualization windows. The last computed range is
// memoized so identical inputs return the identical value and callers can
// cheaply detect "no change".
type Windower struct {
	cfg Config

	memoValid bool
	lastIn    rangeInput
	lastOut   Range
}

// New creates a Windower. Zero config fields fall back to defaults.
func New(cfg Config) *Windower {
	return &Windower{cfg: cfg.withDefaults()}
}

// Config returns the effective configuration.
func (w *Windower) Config() Config { return w.cfg }

// ShouldVirtualize reports whether a list of n rows gets windowed. Small
// lists are returned verbatim so they stay byte-identical to an unwindowed
// renderer.
func (w *Windower) ShouldVirtualize(n int) bool {
	return n >= w.cfg.Threshold
}

// ComputeVisibleRange returns the half-open row range that must be
// materialized for the given geometry. Idempotent: identical inputs return
// the identical Range.
func (w *Windower) ComputeVisibleRange(totalRows int, viewportHeightPx, scrollTopPx float64) Range {
	in := rangeInput{totalRows: totalRows, viewportPx: viewportHeightPx, scrollPx: scrollTopPx}
	if w.memoValid && in == w.lastIn {
		return w.lastOut
	}

	out := w.computeRange(totalRows, viewportHeightPx, scrollTopPx)
	w.lastIn = in
	w.lastOut = out
	w.memoValid = true
	return out
}

func (w *Windower) computeRange(totalRows int, viewportHeightPx, scrollTopPx float64) Range {
	if totalRows <= 0 {
		return Range{}
	}

	visibleRowCount := int(math.Ceil(viewportHeightPx / float64(w.cfg.RowHeight)))
	if visibleRowCount < w.cfg.MinRows {
		visibleRowCount = w.cfg.MinRows
	}

	firstVisible := int(math.Floor(scrollTopPx / float64(w.cfg.RowHeight)))
	if firstVisible > totalRows-1 {
		firstVisible = totalRows - 1
	}
	if firstVisible < 0 {
		firstVisible = 0
	}

	start := firstVisible - w.cfg.OverscanRows
	if start < 0 {
		start = 0
	}

	end := firstVisible + visibleRowCount + w.cfg.OverscanRows
	if end > totalRows {
		end = totalRows
	}
	if end < start+1 {
		end = start + 1
	}

	return Range{Start: start, End: end}
}

// ComputeWindow produces the full VirtualWindow for the row list. Rows below
// the threshold are returned verbatim with zero spacers.
func (w *Windower) ComputeWindow(rows []model.TreeEntry, viewportHeightPx, scrollTopPx float64) VirtualWindow {
	total := len(rows)
	if !w.ShouldVirtualize(total) {
		return VirtualWindow{VisibleItems: rows}
	}

	r := w.ComputeVisibleRange(total, viewportHeightPx, scrollTopPx)
	below := total - r.End
	if below < 0 {
		below = 0
	}
	return VirtualWindow{
		RangeStart:     r.Start,
		VisibleItems:   rows[r.Start:r.End],
		TopSpacerPx:    r.Start * w.cfg.RowHeight,
		BottomSpacerPx: below * w.cfg.RowHeight,
		Virtualized:    true,
	}
}

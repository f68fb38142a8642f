// Package ui is the terminal file-tree browser: a bubbletea program wiring
// the open-state store, the fetch coordinator and the virtualization window
// into a navigable list of rows.
package ui

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/mattn/go-runewidth"

	"github.com/foldview/foldview/pkg/fetch"
	"github.com/foldview/foldview/pkg/model"
	"github.com/foldview/foldview/pkg/openstate"
	"github.com/foldview/foldview/pkg/window"
)

// Refresher invalidates cached directory listings before a forced refetch.
type Refresher interface {
	Invalidate()
}

// Config wires a Browser to its collaborators.
type Config struct {
	Coordinator *fetch.Coordinator
	Store       *openstate.Store
	// Refresher is optional; nil disables the refresh keybinding's cache
	// invalidation (the refetch still happens).
	Refresher Refresher
	RootPath  string
	// Reveal jumps to this path once the first listing arrives.
	Reveal string
	Theme  *Theme
	// Window tunes the row virtualization. RowHeight is in terminal rows,
	// so it should be 1.
	Window window.Config
}

type treeLoadedMsg struct {
	res fetch.Result
	err error
}

// Browser is the bubbletea model for the tree browser.
type Browser struct {
	coord     *fetch.Coordinator
	store     *openstate.Store
	refresher Refresher
	theme     Theme
	rootPath  string
	reveal    string

	rows   []model.TreeEntry
	cursor int
	offset int

	width  int
	height int

	loading  bool
	status   string
	spin     spinner.Model
	windower *window.Windower
	pool     *window.SlotPool
	grid     *rowGrid
}

// NewBrowser creates a Browser. The first fetch is issued from Init.
func NewBrowser(cfg Config) *Browser {
	theme := DefaultTheme()
	if cfg.Theme != nil {
		theme = *cfg.Theme
	}
	wcfg := cfg.Window
	if wcfg.RowHeight <= 0 {
		wcfg.RowHeight = 1
	}
	if wcfg.OverscanRows <= 0 {
		wcfg.OverscanRows = 40
	}
	if wcfg.MinRows <= 0 {
		wcfg.MinRows = 120
	}

	sp := spinner.New()
	sp.Spinner = spinner.Dot

	b := &Browser{
		coord:     cfg.Coordinator,
		store:     cfg.Store,
		refresher: cfg.Refresher,
		theme:     theme,
		rootPath:  model.Normalize(cfg.RootPath),
		reveal:    model.Normalize(cfg.Reveal),
		loading:   true,
		spin:      sp,
		windower:  window.New(wcfg),
		pool:      window.NewSlotPool(),
	}
	b.grid = &rowGrid{render: b.renderRow}
	return b
}

// Init issues the initial fetch.
func (b *Browser) Init() tea.Cmd {
	return tea.Batch(b.spin.Tick, b.fetchCmd(b.reveal))
}

func (b *Browser) fetchCmd(reveal string) tea.Cmd {
	return func() tea.Msg {
		res, err := b.coord.Fetch(context.Background(), b.rootPath, reveal)
		return treeLoadedMsg{res: res, err: err}
	}
}

// Update handles one message.
func (b *Browser) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		b.width = msg.Width
		b.height = msg.Height
		b.clampScroll()
		return b, nil

	case spinner.TickMsg:
		if !b.loading {
			return b, nil
		}
		var cmd tea.Cmd
		b.spin, cmd = b.spin.Update(msg)
		return b, cmd

	case treeLoadedMsg:
		return b.onTreeLoaded(msg)

	case tea.KeyMsg:
		return b.onKey(msg)
	}
	return b, nil
}

func (b *Browser) onTreeLoaded(msg treeLoadedMsg) (tea.Model, tea.Cmd) {
	if msg.err != nil && errors.Is(msg.err, fetch.ErrStaleResponse) {
		// A newer fetch is still in flight; its result wins.
		return b, nil
	}
	b.loading = false
	if msg.err != nil {
		b.status = "fetch failed: " + msg.err.Error()
		return b, nil
	}

	b.rows = msg.res.Items
	if msg.res.Source == fetch.SourceFallback {
		b.status = "listing service unreachable, showing client-side listing"
	} else {
		b.status = ""
	}

	if b.reveal != "" {
		if i := b.indexOf(b.reveal); i >= 0 {
			b.cursor = i
		}
		b.reveal = ""
	}
	b.clampCursor()
	b.clampScroll()
	return b, nil
}

func (b *Browser) onKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c", "q":
		return b, tea.Quit

	case "j", "down":
		b.cursor++
		b.clampCursor()
		b.clampScroll()

	case "k", "up":
		b.cursor--
		b.clampCursor()
		b.clampScroll()

	case "g", "home":
		b.cursor = 0
		b.clampScroll()

	case "G", "end":
		b.cursor = len(b.rows) - 1
		b.clampCursor()
		b.clampScroll()

	case "pgdown", "ctrl+d":
		b.cursor += b.bodyHeight()
		b.clampCursor()
		b.clampScroll()

	case "pgup", "ctrl+u":
		b.cursor -= b.bodyHeight()
		b.clampCursor()
		b.clampScroll()

	case "enter", " ", "l", "h":
		return b.toggleSelected(msg.String())

	case "y":
		if row, ok := b.selected(); ok {
			if err := clipboard.WriteAll(row.Path); err != nil {
				b.status = "copy failed: " + err.Error()
			} else {
				b.status = "copied " + row.Path
			}
		}

	case "r":
		if b.refresher != nil {
			b.refresher.Invalidate()
		}
		b.loading = true
		b.status = ""
		return b, tea.Batch(b.spin.Tick, b.fetchCmd(""))
	}
	return b, nil
}

// toggleSelected flips the selected directory's expand flag and refetches.
// "l" only expands and "h" only collapses, vim-style; enter and space flip.
func (b *Browser) toggleSelected(key string) (tea.Model, tea.Cmd) {
	row, ok := b.selected()
	if !ok || !row.IsDir() {
		return b, nil
	}

	open := b.store.IsOpen(row.Path)
	switch key {
	case "l":
		if open {
			return b, nil
		}
		b.store.Set(row.Path, true)
	case "h":
		if !open {
			return b, nil
		}
		b.store.Set(row.Path, false)
	default:
		b.store.Toggle(row.Path)
	}

	b.loading = true
	return b, tea.Batch(b.spin.Tick, b.fetchCmd(""))
}

// View renders header, windowed rows and footer.
func (b *Browser) View() string {
	if b.width == 0 || b.height == 0 {
		return "loading..."
	}

	var sb strings.Builder
	sb.WriteString(b.renderHeader())
	sb.WriteString("\n")

	body := b.bodyHeight()
	win := b.windower.ComputeWindow(b.rows, float64(body), float64(b.offset))
	b.pool.Apply(win, b.grid)

	// The window may carry overscan rows; clip to the viewport.
	rel := b.offset - win.RangeStart
	if rel < 0 {
		rel = 0
	}
	for i := 0; i < body; i++ {
		if rel+i < len(b.grid.lines) {
			sb.WriteString(b.grid.lines[rel+i])
		}
		sb.WriteString("\n")
	}

	sb.WriteString(b.renderFooter())
	return sb.String()
}

func (b *Browser) renderHeader() string {
	root := b.rootPath
	if root == "" {
		root = "/"
	}
	title := fmt.Sprintf("foldview %s (%d items)", root, len(b.rows))
	if b.loading {
		title = b.spin.View() + " " + title
	}
	return b.theme.Header.Render(runewidth.Truncate(title, b.width, "…"))
}

func (b *Browser) renderFooter() string {
	if b.status != "" {
		return b.theme.Status.Render(runewidth.Truncate(b.status, b.width, "…"))
	}
	help := "j/k move · enter toggle · y copy path · r refresh · q quit"
	return b.theme.Help.Render(runewidth.Truncate(help, b.width, "…"))
}

// renderRow paints one absolute row index. Called by the slot pool.
func (b *Browser) renderRow(absIndex int, entry model.TreeEntry) string {
	depth := strings.Count(entry.Path, "/")
	indent := strings.Repeat("  ", depth)

	indicator := "  "
	if entry.IsDir() {
		if b.store.IsOpen(entry.Path) {
			indicator = "▾ "
		} else {
			indicator = "▸ "
		}
	}

	name := entry.Name
	if entry.IsDir() {
		name += "/"
	}
	maxName := b.width - len(indent) - 2
	if maxName < 1 {
		maxName = 1
	}
	name = runewidth.Truncate(name, maxName, "…")

	style := b.theme.File
	if entry.IsDir() {
		style = b.theme.Dir
	}
	line := indent + indicator + style.Render(name)
	if absIndex == b.cursor {
		line = b.theme.Selected.Render(indent + indicator + name)
	}
	return line
}

func (b *Browser) selected() (model.TreeEntry, bool) {
	if b.cursor < 0 || b.cursor >= len(b.rows) {
		return model.TreeEntry{}, false
	}
	return b.rows[b.cursor], true
}

func (b *Browser) indexOf(path string) int {
	for i, row := range b.rows {
		if row.Path == path {
			return i
		}
	}
	return -1
}

func (b *Browser) bodyHeight() int {
	h := b.height - 2
	if h < 1 {
		h = 1
	}
	return h
}

func (b *Browser) clampCursor() {
	if b.cursor >= len(b.rows) {
		b.cursor = len(b.rows) - 1
	}
	if b.cursor < 0 {
		b.cursor = 0
	}
}

// clampScroll keeps the cursor inside the viewport.
func (b *Browser) clampScroll() {
	body := b.bodyHeight()
	if b.cursor < b.offset {
		b.offset = b.cursor
	}
	if b.cursor >= b.offset+body {
		b.offset = b.cursor - body + 1
	}
	if b.offset < 0 {
		b.offset = 0
	}
}

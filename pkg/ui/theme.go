package ui

import "github.com/charmbracelet/lipgloss"

// Theme bundles the visual styling for the browser.
type Theme struct {
	Primary  lipgloss.AdaptiveColor
	Muted    lipgloss.AdaptiveColor
	Accent   lipgloss.AdaptiveColor
	Selected lipgloss.Style
	Dir      lipgloss.Style
	File     lipgloss.Style
	Header   lipgloss.Style
	Help     lipgloss.Style
	Status   lipgloss.Style
}

// DefaultTheme returns the standard adaptive palette.
func DefaultTheme() Theme {
	primary := lipgloss.AdaptiveColor{Light: "#1565c0", Dark: "#64b5f6"}
	muted := lipgloss.AdaptiveColor{Light: "#757575", Dark: "#9e9e9e"}
	accent := lipgloss.AdaptiveColor{Light: "#2e7d32", Dark: "#81c784"}
	return Theme{
		Primary:  primary,
		Muted:    muted,
		Accent:   accent,
		Selected: lipgloss.NewStyle().Reverse(true),
		Dir:      lipgloss.NewStyle().Foreground(primary).Bold(true),
		File:     lipgloss.NewStyle(),
		Header:   lipgloss.NewStyle().Foreground(primary).Bold(true),
		Help:     lipgloss.NewStyle().Foreground(muted),
		Status:   lipgloss.NewStyle().Foreground(accent),
	}
}

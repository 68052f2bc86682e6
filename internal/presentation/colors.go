// Package presentation maps signals to the colors and labels shown on cards.
package presentation

import (
	"SignalDesk/internal/model"

	"github.com/charmbracelet/lipgloss"
)

// Accent colors.
const (
	Teal  = lipgloss.Color("#26A69A")
	Red   = lipgloss.Color("#EF5350")
	Amber = lipgloss.Color("#FFC107")
	Green = lipgloss.Color("#4CAF50")
	Gray  = lipgloss.Color("#9E9E9E")
)

// DirectionColor returns the card accent for a trade direction.
func DirectionColor(d model.Direction) lipgloss.Color {
	switch d {
	case model.DirectionLong:
		return Teal
	case model.DirectionShort:
		return Red
	default:
		return Gray
	}
}

// StatusColor returns the badge color for a signal status. Unknown statuses
// get the neutral gray.
func StatusColor(s model.Status) lipgloss.Color {
	switch s {
	case model.StatusActive:
		return Amber
	case model.StatusHitTarget:
		return Green
	case model.StatusStopped:
		return Red
	default:
		return Gray
	}
}

package ui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"
)

// Box drawing characters
const (
	TopLeft     = "╭"
	TopRight    = "╮"
	BottomLeft  = "╰"
	BottomRight = "╯"
	Horizontal  = "─"
	Vertical    = "│"
	LeftT       = "├"
	RightT      = "┤"
)

// Color palette
const (
	ColorBorder  = "240"
	ColorHeader  = "252"
	ColorID      = "214"
	ColorName    = "81"
	ColorText    = "252"
	ColorRunning = "82"
	ColorStopped = "245"
	ColorPending = "214"
	ColorFailed  = "196"
	ColorMuted   = "240"
	ColorHint    = "245"
)

// Shared styles
var (
	BorderStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color(ColorBorder))
	HeaderStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color(ColorHeader))
	IDStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color(ColorID))
	NameStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color(ColorName))
	TextStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color(ColorText))
	RunningStyle = lipgloss.NewStyle().Foreground(lipgloss.Color(ColorRunning))
	StoppedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color(ColorStopped))
	PendingStyle = lipgloss.NewStyle().Foreground(lipgloss.Color(ColorPending))
	FailedStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color(ColorFailed))
	MutedStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color(ColorMuted))
	HintStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color(ColorHint))
)

// StateStyle returns the style for an instance, volume or snapshot state
func StateStyle(state string) lipgloss.Style {
	switch state {
	case "running", "in-use", "completed", "available":
		return RunningStyle
	case "pending", "stopping", "shutting-down", "creating":
		return PendingStyle
	case "error", "terminated", "deleting":
		return FailedStyle
	default:
		return StoppedStyle
	}
}

// stateIndicator returns the glyph shown before a state
func stateIndicator(state string) string {
	switch state {
	case "running", "in-use", "completed", "available":
		return "●"
	case "pending", "stopping", "shutting-down", "creating":
		return "◐"
	default:
		return "○"
	}
}

// padRight pads a string to the specified display width using runewidth
func padRight(s string, width int) string {
	sw := runewidth.StringWidth(s)
	if sw >= width {
		return runewidth.Truncate(s, width, "...")
	}
	return s + strings.Repeat(" ", width-sw)
}

// boxLine wraps content of the given plain width in vertical borders
func boxLine(content string, plainWidth, width int) string {
	if plainWidth < width {
		content += strings.Repeat(" ", width-plainWidth)
	}
	return BorderStyle.Render(Vertical) + content + BorderStyle.Render(Vertical) + "\n"
}

// boxRule draws a horizontal rule between the given corner characters
func boxRule(left, right string, width int) string {
	return BorderStyle.Render(left+strings.Repeat(Horizontal, width)+right) + "\n"
}

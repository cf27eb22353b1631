package ui

import "github.com/charmbracelet/lipgloss"

// Color palette - single lime accent for a distinctive look.
const (
	ColorLime     = "154" // Primary accent (#AFFF00)
	ColorLimeDim  = "106" // Dimmed lime for secondary accents
	ColorWhite    = "255" // Headers, important text
	ColorGray     = "245" // Secondary text, labels
	ColorDarkGray = "238" // Separators
	ColorRed      = "196" // Errors
	ColorYellow   = "220" // Warnings
)

// Styles holds the styles used when rendering CLI output.
type Styles struct {
	Header   lipgloss.Style // section headers
	Rank     lipgloss.Style // result ordinal
	Source   lipgloss.Style // origin file path
	Strategy lipgloss.Style // strategy tag on each hit
	Score    lipgloss.Style // numeric score
	Label    lipgloss.Style // field labels
	Dim      lipgloss.Style // separators, de-emphasized text
	Warning  lipgloss.Style
	Error    lipgloss.Style
}

// DefaultStyles returns the colored styles for interactive terminals.
func DefaultStyles() Styles {
	return Styles{
		Header:   lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color(ColorLime)),
		Rank:     lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color(ColorWhite)),
		Source:   lipgloss.NewStyle().Foreground(lipgloss.Color(ColorLime)),
		Strategy: lipgloss.NewStyle().Foreground(lipgloss.Color(ColorLimeDim)),
		Score:    lipgloss.NewStyle().Foreground(lipgloss.Color(ColorGray)),
		Label:    lipgloss.NewStyle().Foreground(lipgloss.Color(ColorGray)),
		Dim:      lipgloss.NewStyle().Foreground(lipgloss.Color(ColorDarkGray)),
		Warning:  lipgloss.NewStyle().Foreground(lipgloss.Color(ColorYellow)),
		Error:    lipgloss.NewStyle().Foreground(lipgloss.Color(ColorRed)),
	}
}

// NoColorStyles returns unstyled components for plain output.
func NoColorStyles() Styles {
	return Styles{
		Header:   lipgloss.NewStyle(),
		Rank:     lipgloss.NewStyle(),
		Source:   lipgloss.NewStyle(),
		Strategy: lipgloss.NewStyle(),
		Score:    lipgloss.NewStyle(),
		Label:    lipgloss.NewStyle(),
		Dim:      lipgloss.NewStyle(),
		Warning:  lipgloss.NewStyle(),
		Error:    lipgloss.NewStyle(),
	}
}

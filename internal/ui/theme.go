package ui

import "github.com/charmbracelet/lipgloss"

// Theme defines the color palette for rendered output.
// Tokyo Night tones.
type Theme struct {
	TextPrimary lipgloss.Color
	TextDim     lipgloss.Color
	Border      lipgloss.Color

	Accent  lipgloss.Color
	Success lipgloss.Color
	Warning lipgloss.Color
	Error   lipgloss.Color
	Info    lipgloss.Color
}

// DefaultTheme is the dark theme used when color is enabled.
var DefaultTheme = Theme{
	TextPrimary: lipgloss.Color("#c0caf5"),
	TextDim:     lipgloss.Color("#565f89"),
	Border:      lipgloss.Color("#414868"),

	Accent:  lipgloss.Color("#7aa2f7"), // Blue
	Success: lipgloss.Color("#9ece6a"), // Green
	Warning: lipgloss.Color("#e0af68"), // Amber
	Error:   lipgloss.Color("#f7768e"), // Red/Pink
	Info:    lipgloss.Color("#7dcfff"), // Cyan
}

// Styles provides pre-configured lipgloss styles.
type Styles struct {
	Header  lipgloss.Style
	Label   lipgloss.Style
	Value   lipgloss.Style
	Hex     lipgloss.Style
	Success lipgloss.Style
	Warning lipgloss.Style
	Error   lipgloss.Style
	Dim     lipgloss.Style
	Box     lipgloss.Style
}

// NewStyles creates styles from a Theme.
func NewStyles(t Theme) Styles {
	return Styles{
		Header: lipgloss.NewStyle().
			Foreground(t.Accent).
			Bold(true),
		Label: lipgloss.NewStyle().
			Foreground(t.TextDim).
			Width(12),
		Value:   lipgloss.NewStyle().Foreground(t.TextPrimary),
		Hex:     lipgloss.NewStyle().Foreground(t.Info),
		Success: lipgloss.NewStyle().Foreground(t.Success),
		Warning: lipgloss.NewStyle().Foreground(t.Warning),
		Error:   lipgloss.NewStyle().Foreground(t.Error).Bold(true),
		Dim:     lipgloss.NewStyle().Foreground(t.TextDim),
		Box: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(t.Border).
			Padding(0, 1),
	}
}

// PlainStyles keeps layout (label width) but drops color and borders.
func PlainStyles() Styles {
	plain := lipgloss.NewStyle()
	return Styles{
		Header:  plain,
		Label:   plain.Width(12),
		Value:   plain,
		Hex:     plain,
		Success: plain,
		Warning: plain,
		Error:   plain,
		Dim:     plain,
		Box:     plain,
	}
}

// StylesFor picks colored or plain styles.
func StylesFor(color bool) Styles {
	if color {
		return NewStyles(DefaultTheme)
	}
	return PlainStyles()
}

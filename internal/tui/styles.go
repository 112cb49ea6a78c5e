package tui

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/coreman2200/marquee/internal/bitmap"
)

var (
	ColorBorder = lipgloss.Color("#2e7de9")
	ColorText   = lipgloss.Color("#a9b1d6")
	ColorOff    = lipgloss.Color("#2a2a2a")
	ColorWarn   = lipgloss.Color("#ff9e64")
	ColorError  = lipgloss.Color("#f7768e")
	ColorActive = lipgloss.Color("#7aa2f7")
)

type styles struct {
	On, Off lipgloss.Style
	Panel   lipgloss.Style
	Header  lipgloss.Style
	Tab     lipgloss.Style
	TabOn   lipgloss.Style
	Message lipgloss.Style
	Error   lipgloss.Style
}

// newStyles builds the palette around the LED colour, falling back to the
// default amber for unparsable values.
func newStyles(led string) styles {
	if _, err := bitmap.ParseLEDColor(led); err != nil {
		led = bitmap.DefaultLEDColor
	}
	return styles{
		On:      lipgloss.NewStyle().Foreground(lipgloss.Color(led)),
		Off:     lipgloss.NewStyle().Foreground(ColorOff),
		Panel:   lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(ColorBorder).Padding(0, 1),
		Header:  lipgloss.NewStyle().Bold(true).Foreground(ColorActive),
		Tab:     lipgloss.NewStyle().Foreground(ColorText).Padding(0, 1),
		TabOn:   lipgloss.NewStyle().Foreground(lipgloss.Color(led)).Bold(true).Padding(0, 1),
		Message: lipgloss.NewStyle().Foreground(ColorWarn),
		Error:   lipgloss.NewStyle().Foreground(ColorError),
	}
}

package formatter

import (
	"fmt"
	"strings"

	"github.com/alexanderramin/arbor/internal/domain"
	"github.com/charmbracelet/lipgloss"
)

// Gruvbox-inspired color palette.
var (
	ColorGreen  = lipgloss.Color("#8ec07c")
	ColorYellow = lipgloss.Color("#fabd2f")
	ColorRed    = lipgloss.Color("#fb4934")
	ColorBlue   = lipgloss.Color("#83a598")
	ColorPurple = lipgloss.Color("#d3869b")
	ColorDim    = lipgloss.Color("#928374")
	ColorFg     = lipgloss.Color("#ebdbb2")
	ColorHeader = lipgloss.Color("#fe8019")
)

// Predefined lipgloss styles.
var (
	StyleGreen      = lipgloss.NewStyle().Foreground(ColorGreen)
	StyleYellow     = lipgloss.NewStyle().Foreground(ColorYellow)
	StyleYellowBold = lipgloss.NewStyle().Foreground(ColorYellow).Bold(true)
	StyleRed        = lipgloss.NewStyle().Foreground(ColorRed)
	StyleBlue       = lipgloss.NewStyle().Foreground(ColorBlue)
	StylePurple     = lipgloss.NewStyle().Foreground(ColorPurple)
	StyleDim        = lipgloss.NewStyle().Foreground(ColorDim)
	StyleFg         = lipgloss.NewStyle().Foreground(ColorFg)
	StyleHeader     = lipgloss.NewStyle().Foreground(ColorHeader).Bold(true)
	StyleBold       = lipgloss.NewStyle().Foreground(ColorFg).Bold(true)
)

// JobStatusPill returns a colored indicator for a migration job status.
func JobStatusPill(status domain.JobStatus) string {
	switch status {
	case domain.JobCompleted:
		return StyleGreen.Render("✔ COMPLETED")
	case domain.JobFailed:
		return StyleRed.Render("✖ FAILED")
	case domain.JobRunning:
		return StyleYellowBold.Render("▶ RUNNING")
	case domain.JobRolledBack:
		return StylePurple.Render("↺ ROLLED BACK")
	default:
		return StyleDim.Render("○ " + string(status))
	}
}

// ConfidenceBadge colors a planned move's confidence.
func ConfidenceBadge(c domain.Confidence) string {
	if c == domain.ConfidenceLow {
		return StyleYellow.Render("LOW")
	}
	return StyleGreen.Render("HIGH")
}

// Header renders a section header with the orange header style and an underline.
func Header(text string) string {
	upper := strings.ToUpper(text)
	line := strings.Repeat("─", len(upper))
	return fmt.Sprintf("%s\n%s", StyleHeader.Render(upper), StyleDim.Render(line))
}

// Dim renders text in the muted/dim color.
func Dim(text string) string {
	return StyleDim.Render(text)
}

// Bold renders text in bold with the foreground color.
func Bold(text string) string {
	return StyleBold.Render(text)
}

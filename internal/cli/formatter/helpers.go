package formatter

import (
	"fmt"
	"strings"
	"time"

	"github.com/alexanderramin/arbor/internal/domain"
	"github.com/charmbracelet/lipgloss"
)

// RenderBox wraps content in a rounded-border box with an optional title.
func RenderBox(title string, content string) string {
	boxStyle := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(ColorDim).
		PaddingLeft(2).
		PaddingRight(2).
		PaddingTop(1).
		PaddingBottom(1)

	if title != "" {
		titleRendered := StyleHeader.Render(strings.ToUpper(title))
		return boxStyle.Render(titleRendered + "\n\n" + content)
	}
	return boxStyle.Render(content)
}

// HumanTimestamp returns a relative timestamp for recent times and a date
// otherwise.
func HumanTimestamp(t time.Time) string {
	return HumanTimestampFrom(t, time.Now())
}

// HumanTimestampFrom is HumanTimestamp against a fixed reference time.
func HumanTimestampFrom(t, now time.Time) string {
	diff := now.Sub(t)
	switch {
	case diff < 0:
		return t.Format("Jan 2, 2006 15:04")
	case diff < time.Minute:
		return "Just now"
	case diff < time.Hour:
		return fmt.Sprintf("%dm ago", int(diff.Minutes()))
	case diff < 24*time.Hour:
		return fmt.Sprintf("%dh ago", int(diff.Hours()))
	default:
		return t.Format("Jan 2, 2006 15:04")
	}
}

// ItemStatusPill returns a colored indicator for a work item status.
func ItemStatusPill(status domain.ItemStatus) string {
	switch status {
	case domain.ItemTodo:
		return StyleBlue.Render("○ Todo")
	case domain.ItemInProgress:
		return StyleGreen.Render("● In Progress")
	case domain.ItemDone:
		return StyleDim.Render("✔ Done")
	default:
		return StyleDim.Render(string(status))
	}
}

// TruncID returns the first 8 characters of an ID, dimmed.
func TruncID(id string) string {
	if len(id) > 8 {
		id = id[:8]
	}
	return StyleDim.Render(id)
}

// ParentLabel renders an optional parent id, "(root)" when absent.
func ParentLabel(id *string) string {
	if id == nil {
		return Dim("(root)")
	}
	return TruncID(*id)
}

func joinTypes(types []domain.ItemType) string {
	parts := make([]string, len(types))
	for i, t := range types {
		parts[i] = string(t)
	}
	return strings.Join(parts, ", ")
}

func bulletList(lines []string, style lipgloss.Style) string {
	var b strings.Builder
	for _, l := range lines {
		b.WriteString(style.Render("  • ") + l + "\n")
	}
	return b.String()
}

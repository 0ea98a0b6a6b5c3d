package formatter

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// TreeItem represents a single node in a tree display.
type TreeItem struct {
	ID     string
	Title  string
	Label  string
	Level  int
	IsLast bool
	Status string
	Detail string
}

const (
	treeBranch = "├─ "
	treeCorner = "└─ "
	treePipe   = "│  "
	treeBlank  = "   "
)

// RenderTree renders items (in preorder) as an indented tree using
// box-drawing connectors. Done items get a green ✔ prefix, in-progress items
// an amber ▶ prefix, and detail badges are right-aligned.
func RenderTree(items []TreeItem) string {
	if len(items) == 0 {
		return ""
	}

	type lineInfo struct {
		content string
		badge   string
	}

	lines := make([]lineInfo, len(items))
	maxContentWidth := 0
	// open[l] is true while the ancestor at level l still has siblings below.
	var open []bool

	for idx, item := range items {
		if len(open) > item.Level {
			open = open[:item.Level]
		}
		for len(open) < item.Level {
			open = append(open, false)
		}

		var prefix strings.Builder
		for l := 1; l < item.Level; l++ {
			if open[l] {
				prefix.WriteString(treePipe)
			} else {
				prefix.WriteString(treeBlank)
			}
		}
		if item.Level > 0 {
			if item.IsLast {
				prefix.WriteString(treeCorner)
			} else {
				prefix.WriteString(treeBranch)
			}
		}
		open = append(open, !item.IsLast)

		title := item.Title
		if item.Label != "" {
			title = StylePurple.Render(item.Label) + " " + title
		}
		if item.ID != "" {
			title += " " + TruncID(item.ID)
		}

		statusPrefix := ""
		switch strings.ToLower(item.Status) {
		case "done":
			statusPrefix = StyleGreen.Render("✔ ")
		case "in_progress":
			statusPrefix = StyleYellowBold.Render("▶ ")
		}

		content := prefix.String() + statusPrefix + title
		lines[idx].content = content
		if item.Detail != "" {
			lines[idx].badge = StyleBlue.Render(fmt.Sprintf("[ %s ]", item.Detail))
		}
		if w := lipgloss.Width(content); w > maxContentWidth {
			maxContentWidth = w
		}
	}

	var b strings.Builder
	for _, li := range lines {
		if li.badge != "" {
			pad := max(maxContentWidth-lipgloss.Width(li.content), 0)
			b.WriteString(li.content + strings.Repeat(" ", pad) + "  " + li.badge + "\n")
		} else {
			b.WriteString(li.content + "\n")
		}
	}
	return b.String()
}

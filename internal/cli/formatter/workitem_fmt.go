package formatter

import (
	"fmt"
	"slices"
	"strings"

	"github.com/alexanderramin/arbor/internal/domain"
	"github.com/alexanderramin/arbor/internal/service"
)

// FormatOutline renders a company tree from rows in preorder.
func FormatOutline(rows []service.OutlineRow) string {
	if len(rows) == 0 {
		return Dim("No work items yet.") + "\n"
	}
	items := make([]TreeItem, len(rows))
	for i, r := range rows {
		detail := ""
		if r.Item.Order != nil {
			detail = fmt.Sprintf("#%d", *r.Item.Order)
		}
		items[i] = TreeItem{
			ID:     r.Item.ID,
			Title:  r.Item.Title,
			Label:  r.Label,
			Level:  r.Depth,
			IsLast: lastAtDepth(rows, i),
			Status: string(r.Item.Status),
			Detail: detail,
		}
	}
	return RenderTree(items)
}

// lastAtDepth reports whether no later sibling of rows[i] follows before
// the walk climbs above its depth.
func lastAtDepth(rows []service.OutlineRow, i int) bool {
	d := rows[i].Depth
	for _, r := range rows[i+1:] {
		if r.Depth == d {
			return false
		}
		if r.Depth < d {
			return true
		}
	}
	return true
}

// FormatItem renders a single work item.
func FormatItem(w *domain.WorkItem) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s %s  %s\n", StylePurple.Render(string(w.Type)), Bold(w.Title), ItemStatusPill(w.Status))
	fmt.Fprintf(&b, "%s %s\n", Dim("ID:    "), w.ID)
	fmt.Fprintf(&b, "%s %s", Dim("Parent:"), ParentLabel(w.ParentID))
	if w.Order != nil {
		fmt.Fprintf(&b, "  %s", Dim(fmt.Sprintf("order %d", *w.Order)))
	}
	b.WriteString("\n")
	return b.String()
}

// FormatDeletePreview lists what removing a subtree would take with it.
func FormatDeletePreview(p *service.SubtreePreview) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Deleting %s removes %d items:\n", TruncID(p.RootID), len(p.IDs))
	types := make([]domain.ItemType, 0, len(p.Counts))
	for t := range p.Counts {
		types = append(types, t)
	}
	slices.Sort(types)
	for _, t := range types {
		fmt.Fprintf(&b, "  %s %d\n", StylePurple.Render(fmt.Sprintf("%-16s", t)), p.Counts[t])
	}
	return b.String()
}

// FormatTreeCheck renders the result of a structural audit.
func FormatTreeCheck(c *service.TreeCheck) string {
	if c.OK() {
		return StyleGreen.Render("✔ ") + fmt.Sprintf("%d items, no problems found.\n", c.Items)
	}
	head := StyleRed.Render("✖ ") + fmt.Sprintf("%d items, %d problems:\n", c.Items, len(c.Problems))
	return head + bulletList(c.Problems, StyleRed)
}

package formatter

import (
	"fmt"
	"slices"
	"strings"

	"github.com/alexanderramin/arbor/internal/domain"
)

// FormatHierarchyConfig renders one product's config under preset labels.
func FormatHierarchyConfig(cfg domain.HierarchyConfig, p domain.Preset) string {
	scope := "company-wide"
	if cfg.ProductID != "" {
		scope = "product " + cfg.ProductID
	}
	var b strings.Builder
	fmt.Fprintf(&b, "%s %s  %s\n\n", Dim("Scope:"), scope, Dim("("+p.Name+")"))
	for i, t := range cfg.Order {
		mark := StyleDim.Render("○")
		if cfg.IsEnabled(t) {
			mark = StyleGreen.Render("●")
		}
		fmt.Fprintf(&b, "  %2d. %s %s %s\n", i+1, mark, p.Label(t), Dim(string(t)))
	}
	return b.String()
}

// FormatPresetList renders the available frameworks, marking current.
func FormatPresetList(presets []domain.Preset, current string) string {
	rows := make([][]string, 0, len(presets))
	for _, p := range presets {
		id := p.ID
		if p.ID == current {
			id = StyleGreen.Render("* " + p.ID)
		}
		rows = append(rows, []string{id, p.Name, string(p.ContainerType), p.Description})
	}
	return RenderTable([]string{"ID", "NAME", "CONTAINER", "DESCRIPTION"}, rows)
}

// FormatPreset renders a preset's nesting rules in display order.
func FormatPreset(p domain.Preset) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s %s\n", Bold(p.Name), Dim("("+p.ID+")"))
	if p.Description != "" {
		b.WriteString(p.Description + "\n")
	}
	fmt.Fprintf(&b, "\n%s %s\n", Dim("Enabled:"), joinTypes(p.EnabledTypes))
	b.WriteString("\n" + Header("Nesting") + "\n")
	for _, parent := range p.Order {
		children := p.Hierarchy[parent]
		if len(children) == 0 {
			continue
		}
		fmt.Fprintf(&b, "  %s → %s\n", StylePurple.Render(p.Label(parent)), joinTypes(children))
	}
	if len(p.TypeAliases) > 0 {
		b.WriteString("\n" + Header("Aliases") + "\n")
		from := make([]domain.ItemType, 0, len(p.TypeAliases))
		for t := range p.TypeAliases {
			from = append(from, t)
		}
		slices.Sort(from)
		for _, t := range from {
			fmt.Fprintf(&b, "  %s → %s\n", t, p.TypeAliases[t])
		}
	}
	return b.String()
}

package hierarchy

import "github.com/alexanderramin/arbor/internal/domain"

// CollectSubtreeIDs returns rootID and all of its descendants in post-order:
// every child appears before its parent. Deleting ids in the returned order
// never removes a node while one of its children still exists. Ids listed in
// ChildrenIDs but missing from items are skipped.
func CollectSubtreeIDs(items map[string]*domain.WorkItem, rootID string) []string {
	var out []string
	visited := make(map[string]bool)
	var visit func(id string)
	visit = func(id string) {
		if visited[id] {
			return
		}
		item, ok := items[id]
		if !ok {
			return
		}
		visited[id] = true
		for _, childID := range item.ChildrenIDs {
			visit(childID)
		}
		out = append(out, id)
	}
	visit(rootID)
	return out
}

// SubtreeStats counts the items behind ids by type. Unknown ids are ignored.
func SubtreeStats(items map[string]*domain.WorkItem, ids []string) map[domain.ItemType]int {
	stats := make(map[domain.ItemType]int)
	for _, id := range ids {
		if item, ok := items[id]; ok {
			stats[item.Type]++
		}
	}
	return stats
}

// Package hierarchy holds the pure work-item tree engine: type rules,
// sibling ordering, subtree traversal, config repair, re-parenting and
// migration planning. Nothing in here performs I/O; every function takes
// the effective configuration as an argument.
package hierarchy

import (
	"slices"

	"github.com/alexanderramin/arbor/internal/domain"
)

// IsAllowedChild reports whether h lets a parent of type parent hold a child
// of type child. A parent type missing from h allows nothing.
func IsAllowedChild(parent, child domain.ItemType, h domain.Hierarchy) bool {
	children, ok := h[parent]
	if !ok {
		return false
	}
	return slices.Contains(children, child)
}

// EnabledDescendants returns the enabled types reachable from parent in h.
// Enabled types stop the walk; disabled types are passed through so their
// own children are lifted up to parent. Result order follows h.
func EnabledDescendants(parent domain.ItemType, h domain.Hierarchy, enabled func(domain.ItemType) bool) []domain.ItemType {
	var out []domain.ItemType
	seen := map[domain.ItemType]bool{parent: true}
	var visit func(t domain.ItemType)
	visit = func(t domain.ItemType) {
		for _, c := range h[t] {
			if seen[c] {
				continue
			}
			seen[c] = true
			if enabled(c) {
				out = append(out, c)
				continue
			}
			visit(c)
		}
	}
	visit(parent)
	return out
}

// EffectiveHierarchy projects h onto an enabled-type set: only enabled types
// appear as keys, and each key's children are its EnabledDescendants.
func EffectiveHierarchy(h domain.Hierarchy, enabled func(domain.ItemType) bool) domain.Hierarchy {
	out := make(domain.Hierarchy, len(h))
	for parent := range h {
		if !enabled(parent) {
			continue
		}
		out[parent] = EnabledDescendants(parent, h, enabled)
	}
	return out
}

// LegalParentTypes lists the types that may hold child under h. Types in
// rank come first in rank order; any others follow alphabetically.
func LegalParentTypes(child domain.ItemType, h domain.Hierarchy, rank []domain.ItemType) []domain.ItemType {
	var ranked, rest []domain.ItemType
	for _, t := range rank {
		if IsAllowedChild(t, child, h) {
			ranked = append(ranked, t)
		}
	}
	for t := range h {
		if !slices.Contains(rank, t) && IsAllowedChild(t, child, h) {
			rest = append(rest, t)
		}
	}
	slices.Sort(rest)
	return append(ranked, rest...)
}

// IsLegalRoot reports whether an item of type t may have no parent: the
// tenant root itself, or any type allowed directly under it.
func IsLegalRoot(t domain.ItemType, h domain.Hierarchy) bool {
	return t == domain.TenantRootType || IsAllowedChild(domain.TenantRootType, t, h)
}

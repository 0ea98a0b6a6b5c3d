package hierarchy

import (
	"fmt"
	"slices"

	"github.com/alexanderramin/arbor/internal/domain"
)

// Resolver finds a replacement parent for items whose parent is no longer
// legal under a target hierarchy.
type Resolver struct {
	Tree          *Tree
	Hierarchy     domain.Hierarchy
	Enabled       func(domain.ItemType) bool
	ContainerType domain.ItemType
}

// Resolution is the outcome of Resolve.
//
// Resolved is false when no legal parent exists in scope; the caller must
// queue the item for manual review. Moved is true when ParentID differs
// from the item's current parent.
type Resolution struct {
	ParentID   *string
	Confidence domain.Confidence
	Resolved   bool
	Moved      bool
	Candidates []string
}

// Resolve decides where itemID (with type itemType, which may differ from
// its stored type when a retype is planned) should live.
//
// Candidate order, used when more than one legal parent exists: ancestors of
// the item first, nearest first, then every other candidate by ascending id.
// Any pick among several candidates, any pick outside the item's enclosing
// container, and any adoption of a root that may not be a root is LOW
// confidence.
func (r Resolver) Resolve(itemID string, itemType domain.ItemType) (Resolution, error) {
	item, ok := r.Tree.Get(itemID)
	if !ok {
		return Resolution{}, fmt.Errorf("resolving %s: %w", itemID, ErrItemNotFound)
	}

	if item.ParentID == nil {
		if IsLegalRoot(itemType, r.Hierarchy) {
			return Resolution{Resolved: true, Confidence: domain.ConfidenceHigh}, nil
		}
	} else if parent, ok := r.Tree.Get(*item.ParentID); ok && IsAllowedChild(parent.Type, itemType, r.Hierarchy) {
		return Resolution{
			ParentID:   domain.CloneStrPtr(item.ParentID),
			Resolved:   true,
			Confidence: domain.ConfidenceHigh,
		}, nil
	}

	container := r.Tree.EnclosingContainer(itemID, r.ContainerType)
	all := r.candidates(item, itemType)

	var pool []*domain.WorkItem
	confidence := domain.ConfidenceHigh
	if container != nil {
		for _, c := range all {
			if c.ID == container.ID || r.Tree.EnclosingContainer(c.ID, r.ContainerType) == container {
				pool = append(pool, c)
			}
		}
		if len(pool) == 0 {
			pool = all
			confidence = domain.ConfidenceLow
		}
	} else {
		pool = all
	}

	res := Resolution{Candidates: make([]string, 0, len(pool))}
	for _, c := range pool {
		res.Candidates = append(res.Candidates, c.ID)
	}
	if len(pool) == 0 {
		return res, nil
	}
	if len(pool) > 1 || item.ParentID == nil {
		confidence = domain.ConfidenceLow
	}
	res.ParentID = domain.StrPtr(pool[0].ID)
	res.Resolved = true
	res.Moved = !domain.StrPtrEqual(item.ParentID, res.ParentID)
	res.Confidence = confidence
	return res, nil
}

// candidates lists every enabled item in the tree that may legally hold
// itemType, excluding the item itself and its own descendants.
func (r Resolver) candidates(item *domain.WorkItem, itemType domain.ItemType) []*domain.WorkItem {
	ancestors := r.Tree.Ancestors(item.ID)
	depth := make(map[string]int, len(ancestors))
	for i, a := range ancestors {
		depth[a.ID] = i
	}

	var out []*domain.WorkItem
	for _, c := range r.Tree.All() {
		if c.ID == item.ID || c.CompanyID != item.CompanyID {
			continue
		}
		if !r.Enabled(c.Type) || !IsAllowedChild(c.Type, itemType, r.Hierarchy) {
			continue
		}
		if r.Tree.IsAncestor(item.ID, c.ID) {
			continue
		}
		out = append(out, c)
	}

	slices.SortFunc(out, func(a, b *domain.WorkItem) int {
		da, aIsAnc := depth[a.ID]
		db, bIsAnc := depth[b.ID]
		switch {
		case aIsAnc && bIsAnc:
			return da - db
		case aIsAnc:
			return -1
		case bIsAnc:
			return 1
		}
		switch {
		case a.ID < b.ID:
			return -1
		case a.ID > b.ID:
			return 1
		}
		return 0
	})
	return out
}

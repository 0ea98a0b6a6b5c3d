package hierarchy

import (
	"errors"
	"fmt"
	"slices"

	"github.com/alexanderramin/arbor/internal/domain"
)

var (
	ErrCycle        = errors.New("move would make an item its own ancestor")
	ErrCrossTenant  = errors.New("parent belongs to another company")
	ErrItemNotFound = errors.New("item not found in tree")
	ErrDuplicateID  = errors.New("item id already present")
	ErrHasChildren  = errors.New("item still has children")
)

// Tree is an id-indexed adjacency list over one company's work items.
// ChildrenIDs is rebuilt from ParentID when the tree is built and is then
// maintained by Add, Move and Remove so both ends never diverge.
type Tree struct {
	items map[string]*domain.WorkItem
	ids   []string
}

// NewTree indexes deep copies of items. ChildrenIDs read from storage is
// discarded and recomputed from ParentID.
func NewTree(items []*domain.WorkItem) *Tree {
	t := &Tree{items: make(map[string]*domain.WorkItem, len(items))}
	for _, it := range items {
		if _, dup := t.items[it.ID]; dup {
			continue
		}
		c := it.Clone()
		c.ChildrenIDs = nil
		t.items[c.ID] = c
		t.ids = append(t.ids, c.ID)
	}
	for _, id := range t.ids {
		item := t.items[id]
		if item.ParentID == nil {
			continue
		}
		if parent, ok := t.items[*item.ParentID]; ok {
			parent.AddChild(id)
		}
	}
	return t
}

// Clone returns an independent copy of the tree.
func (t *Tree) Clone() *Tree {
	c := &Tree{
		items: make(map[string]*domain.WorkItem, len(t.items)),
		ids:   slices.Clone(t.ids),
	}
	for id, it := range t.items {
		c.items[id] = it.Clone()
	}
	return c
}

// Len returns the number of items.
func (t *Tree) Len() int { return len(t.ids) }

// Get looks up an item by id.
func (t *Tree) Get(id string) (*domain.WorkItem, bool) {
	it, ok := t.items[id]
	return it, ok
}

// Index exposes the id map for read-only helpers such as CollectSubtreeIDs.
func (t *Tree) Index() map[string]*domain.WorkItem { return t.items }

// All returns every item in insertion order.
func (t *Tree) All() []*domain.WorkItem {
	out := make([]*domain.WorkItem, 0, len(t.ids))
	for _, id := range t.ids {
		out = append(out, t.items[id])
	}
	return out
}

// Children returns the children of id sorted by cmp.
func (t *Tree) Children(id string, cmp Comparator) []*domain.WorkItem {
	parent, ok := t.items[id]
	if !ok {
		return nil
	}
	out := make([]*domain.WorkItem, 0, len(parent.ChildrenIDs))
	for _, cid := range parent.ChildrenIDs {
		if c, ok := t.items[cid]; ok {
			out = append(out, c)
		}
	}
	cmp.SortSiblings(out)
	return out
}

// Roots returns items without a resolvable parent, sorted by cmp.
func (t *Tree) Roots(cmp Comparator) []*domain.WorkItem {
	var out []*domain.WorkItem
	for _, id := range t.ids {
		it := t.items[id]
		if it.ParentID == nil {
			out = append(out, it)
			continue
		}
		if _, ok := t.items[*it.ParentID]; !ok {
			out = append(out, it)
		}
	}
	cmp.SortSiblings(out)
	return out
}

// Ancestors returns the chain of parents of id, nearest first. The walk
// stops at a missing parent or at a repeated node.
func (t *Tree) Ancestors(id string) []*domain.WorkItem {
	item, ok := t.items[id]
	if !ok {
		return nil
	}
	var out []*domain.WorkItem
	seen := map[string]bool{id: true}
	for item.ParentID != nil {
		parent, ok := t.items[*item.ParentID]
		if !ok || seen[parent.ID] {
			break
		}
		seen[parent.ID] = true
		out = append(out, parent)
		item = parent
	}
	return out
}

// IsAncestor reports whether ancestorID is a strict ancestor of id.
func (t *Tree) IsAncestor(ancestorID, id string) bool {
	for _, a := range t.Ancestors(id) {
		if a.ID == ancestorID {
			return true
		}
	}
	return false
}

// EnclosingContainer walks up from id's parent and returns the first
// ancestor of containerType, or nil.
func (t *Tree) EnclosingContainer(id string, containerType domain.ItemType) *domain.WorkItem {
	if containerType == "" {
		return nil
	}
	for _, a := range t.Ancestors(id) {
		if a.Type == containerType {
			return a
		}
	}
	return nil
}

// Preorder lists every id parent-before-children, siblings ordered by cmp.
// Items caught in a parent cycle are appended afterwards in id order so the
// result always covers the whole tree.
func (t *Tree) Preorder(cmp Comparator) []string {
	out := make([]string, 0, len(t.ids))
	visited := make(map[string]bool, len(t.ids))
	var visit func(it *domain.WorkItem)
	visit = func(it *domain.WorkItem) {
		if visited[it.ID] {
			return
		}
		visited[it.ID] = true
		out = append(out, it.ID)
		for _, c := range t.Children(it.ID, cmp) {
			visit(c)
		}
	}
	for _, r := range t.Roots(cmp) {
		visit(r)
	}
	if len(out) < len(t.ids) {
		rest := make([]string, 0, len(t.ids)-len(out))
		for _, id := range t.ids {
			if !visited[id] {
				rest = append(rest, id)
			}
		}
		slices.Sort(rest)
		for _, id := range rest {
			visit(t.items[id])
		}
	}
	return out
}

// Add inserts item under its ParentID (or as a root).
func (t *Tree) Add(item *domain.WorkItem) error {
	if _, dup := t.items[item.ID]; dup {
		return fmt.Errorf("adding %s: %w", item.ID, ErrDuplicateID)
	}
	c := item.Clone()
	c.ChildrenIDs = nil
	if c.ParentID != nil {
		parent, ok := t.items[*c.ParentID]
		if !ok {
			return fmt.Errorf("parent %s: %w", *c.ParentID, ErrItemNotFound)
		}
		if parent.CompanyID != c.CompanyID {
			return fmt.Errorf("adding %s under %s: %w", c.ID, parent.ID, ErrCrossTenant)
		}
		parent.AddChild(c.ID)
	}
	t.items[c.ID] = c
	t.ids = append(t.ids, c.ID)
	return nil
}

// Move re-parents id under newParentID (nil makes it a root), updating both
// the old and new parent's ChildrenIDs. Moving an item to the parent it
// already has is a no-op.
func (t *Tree) Move(id string, newParentID *string) error {
	item, ok := t.items[id]
	if !ok {
		return fmt.Errorf("moving %s: %w", id, ErrItemNotFound)
	}
	if domain.StrPtrEqual(item.ParentID, newParentID) {
		return nil
	}
	if newParentID != nil {
		parent, ok := t.items[*newParentID]
		if !ok {
			return fmt.Errorf("new parent %s: %w", *newParentID, ErrItemNotFound)
		}
		if parent.ID == id || t.IsAncestor(id, parent.ID) {
			return fmt.Errorf("moving %s under %s: %w", id, parent.ID, ErrCycle)
		}
		if parent.CompanyID != item.CompanyID {
			return fmt.Errorf("moving %s under %s: %w", id, parent.ID, ErrCrossTenant)
		}
	}

	if item.ParentID != nil {
		if old, ok := t.items[*item.ParentID]; ok {
			old.RemoveChild(id)
		}
	}
	item.ParentID = domain.CloneStrPtr(newParentID)
	if newParentID != nil {
		t.items[*newParentID].AddChild(id)
	}
	return nil
}

// Remove deletes a leaf item and detaches it from its parent.
func (t *Tree) Remove(id string) error {
	item, ok := t.items[id]
	if !ok {
		return fmt.Errorf("removing %s: %w", id, ErrItemNotFound)
	}
	for _, cid := range item.ChildrenIDs {
		if _, ok := t.items[cid]; ok {
			return fmt.Errorf("removing %s: %w", id, ErrHasChildren)
		}
	}
	if item.ParentID != nil {
		if parent, ok := t.items[*item.ParentID]; ok {
			parent.RemoveChild(id)
		}
	}
	delete(t.items, id)
	t.ids = slices.DeleteFunc(t.ids, func(x string) bool { return x == id })
	return nil
}

// RemoveSubtree deletes rootID and its descendants in collector order and
// returns the deleted ids.
func (t *Tree) RemoveSubtree(rootID string) ([]string, error) {
	ids := CollectSubtreeIDs(t.items, rootID)
	if len(ids) == 0 {
		return nil, fmt.Errorf("removing subtree %s: %w", rootID, ErrItemNotFound)
	}
	for _, id := range ids {
		if err := t.Remove(id); err != nil {
			return nil, err
		}
	}
	return ids, nil
}

// CheckInvariants verifies the forest invariants: every parent reference
// resolves inside the same company, no item is its own ancestor, and
// ChildrenIDs is exactly the inverse of ParentID.
func (t *Tree) CheckInvariants() error {
	var errs []error
	expected := make(map[string]map[string]bool, len(t.items))
	for _, id := range t.ids {
		item := t.items[id]
		if item.ParentID == nil {
			continue
		}
		parent, ok := t.items[*item.ParentID]
		if !ok {
			errs = append(errs, fmt.Errorf("item %s: parent %s does not exist", id, *item.ParentID))
			continue
		}
		if parent.CompanyID != item.CompanyID {
			errs = append(errs, fmt.Errorf("item %s: parent %s is in company %s", id, parent.ID, parent.CompanyID))
		}
		if expected[parent.ID] == nil {
			expected[parent.ID] = make(map[string]bool)
		}
		expected[parent.ID][id] = true
	}

	for _, id := range t.ids {
		seen := map[string]bool{id: true}
		cur := t.items[id]
		for cur.ParentID != nil {
			next, ok := t.items[*cur.ParentID]
			if !ok {
				break
			}
			if seen[next.ID] {
				errs = append(errs, fmt.Errorf("item %s: %w", id, ErrCycle))
				break
			}
			seen[next.ID] = true
			cur = next
		}
	}

	for _, id := range t.ids {
		item := t.items[id]
		want := expected[id]
		if len(want) != len(item.ChildrenIDs) {
			errs = append(errs, fmt.Errorf("item %s: childrenIds has %d entries, %d items point at it",
				id, len(item.ChildrenIDs), len(want)))
			continue
		}
		for _, cid := range item.ChildrenIDs {
			if !want[cid] {
				errs = append(errs, fmt.Errorf("item %s: childrenIds lists %s which points elsewhere", id, cid))
			}
		}
	}
	return errors.Join(errs...)
}

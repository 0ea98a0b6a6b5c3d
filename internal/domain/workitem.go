package domain

import (
	"slices"
	"time"
)

// WorkItem is a node in a company's planning forest.
//
// ParentID is the source of truth for the tree shape. ChildrenIDs is a
// denormalized inverse kept in sync by every operation that moves items.
type WorkItem struct {
	ID          string
	CompanyID   string
	Type        ItemType
	ParentID    *string
	ChildrenIDs []string
	Order       *int
	Title       string
	Status      ItemStatus
	Estimate    *float64
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// IsRoot reports whether the item has no parent.
func (w *WorkItem) IsRoot() bool {
	return w.ParentID == nil
}

// ParentIDOrEmpty returns the parent id, or "" for roots.
func (w *WorkItem) ParentIDOrEmpty() string {
	if w.ParentID == nil {
		return ""
	}
	return *w.ParentID
}

// HasChild reports whether id is listed in ChildrenIDs.
func (w *WorkItem) HasChild(id string) bool {
	return slices.Contains(w.ChildrenIDs, id)
}

// AddChild appends id to ChildrenIDs unless already present.
func (w *WorkItem) AddChild(id string) {
	if !w.HasChild(id) {
		w.ChildrenIDs = append(w.ChildrenIDs, id)
	}
}

// RemoveChild drops id from ChildrenIDs.
func (w *WorkItem) RemoveChild(id string) {
	w.ChildrenIDs = slices.DeleteFunc(w.ChildrenIDs, func(c string) bool { return c == id })
}

// Placement returns the item's current parent/order/type triple.
func (w *WorkItem) Placement() Placement {
	return Placement{
		ParentID: CloneStrPtr(w.ParentID),
		Order:    CloneIntPtr(w.Order),
		Type:     w.Type,
	}
}

// Apply sets the item's parent, order and type from p.
func (w *WorkItem) Apply(p Placement) {
	w.ParentID = CloneStrPtr(p.ParentID)
	w.Order = CloneIntPtr(p.Order)
	w.Type = p.Type
}

// Clone returns a deep copy safe to mutate independently.
func (w *WorkItem) Clone() *WorkItem {
	c := *w
	c.ParentID = CloneStrPtr(w.ParentID)
	c.Order = CloneIntPtr(w.Order)
	c.ChildrenIDs = slices.Clone(w.ChildrenIDs)
	if w.Estimate != nil {
		v := *w.Estimate
		c.Estimate = &v
	}
	return &c
}

// Placement is the part of a work item a migration may change.
type Placement struct {
	ParentID *string
	Order    *int
	Type     ItemType
}

// Equal compares two placements by value.
func (p Placement) Equal(o Placement) bool {
	return StrPtrEqual(p.ParentID, o.ParentID) && IntPtrEqual(p.Order, o.Order) && p.Type == o.Type
}

package testutil

import (
	"time"

	"github.com/alexanderramin/arbor/internal/domain"
	"github.com/google/uuid"
)

// Work item options
type ItemOption func(*domain.WorkItem)

func WithID(id string) ItemOption {
	return func(w *domain.WorkItem) {
		w.ID = id
	}
}

func WithParentID(id string) ItemOption {
	return func(w *domain.WorkItem) {
		w.ParentID = &id
	}
}

func WithOrder(i int) ItemOption {
	return func(w *domain.WorkItem) {
		w.Order = &i
	}
}

func WithEstimate(e float64) ItemOption {
	return func(w *domain.WorkItem) {
		w.Estimate = &e
	}
}

func WithCreatedAt(t time.Time) ItemOption {
	return func(w *domain.WorkItem) {
		w.CreatedAt = t
		w.UpdatedAt = t
	}
}

func NewTestItem(companyID string, typ domain.ItemType, title string, opts ...ItemOption) *domain.WorkItem {
	now := time.Now().UTC()
	w := &domain.WorkItem{
		ID:        uuid.New().String(),
		CompanyID: companyID,
		Type:      typ,
		Title:     title,
		Status:    domain.ItemTodo,
		CreatedAt: now,
		UpdatedAt: now,
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Link makes children direct children of parent, keeping ParentID and
// ChildrenIDs in agreement. The items are expected to be stored afterwards.
func Link(parent *domain.WorkItem, children ...*domain.WorkItem) {
	for _, c := range children {
		id := parent.ID
		c.ParentID = &id
		parent.AddChild(c.ID)
	}
}

package hierarchy

import (
	"fmt"
	"slices"
	"strings"

	"github.com/alexanderramin/arbor/internal/domain"
)

// Comparator orders siblings. Build one per effective type order; the zero
// value ranks every type equally.
type Comparator struct {
	rank map[domain.ItemType]int
}

// NewComparator ranks types by their position in order. Types not listed
// rank after every listed type.
func NewComparator(order []domain.ItemType) Comparator {
	rank := make(map[domain.ItemType]int, len(order))
	for i, t := range order {
		if _, dup := rank[t]; !dup {
			rank[t] = i
		}
	}
	return Comparator{rank: rank}
}

// DefaultComparator ranks types by domain.CanonicalTypes.
func DefaultComparator() Comparator {
	return NewComparator(domain.CanonicalTypes)
}

func (c Comparator) typeRank(t domain.ItemType) int {
	if r, ok := c.rank[t]; ok {
		return r
	}
	return len(c.rank)
}

// Compare returns -1, 0 or 1 using the canonical sibling rules:
//  1. items with an explicit Order before items without one
//  2. Order ascending
//  3. type rank ascending
//  4. Title, case-sensitive
func (c Comparator) Compare(a, b *domain.WorkItem) int {
	if (a.Order == nil) != (b.Order == nil) {
		if a.Order != nil {
			return -1
		}
		return 1
	}
	if a.Order != nil && *a.Order != *b.Order {
		if *a.Order < *b.Order {
			return -1
		}
		return 1
	}

	ra, rb := c.typeRank(a.Type), c.typeRank(b.Type)
	if ra != rb {
		if ra < rb {
			return -1
		}
		return 1
	}

	return strings.Compare(a.Title, b.Title)
}

// SortSiblings sorts items in place by Compare.
func (c Comparator) SortSiblings(items []*domain.WorkItem) {
	slices.SortStableFunc(items, c.Compare)
}

// Reorder moves itemID to newIndex within siblings (sorted by c first) and
// rewrites every sibling's Order to its position 0..n-1. It returns only the
// siblings whose Order changed. newIndex is clamped to the valid range.
func (c Comparator) Reorder(siblings []*domain.WorkItem, itemID string, newIndex int) ([]*domain.WorkItem, error) {
	sorted := slices.Clone(siblings)
	c.SortSiblings(sorted)

	from := slices.IndexFunc(sorted, func(w *domain.WorkItem) bool { return w.ID == itemID })
	if from < 0 {
		return nil, fmt.Errorf("item %s is not among the siblings", itemID)
	}
	if newIndex < 0 {
		newIndex = 0
	}
	if newIndex > len(sorted)-1 {
		newIndex = len(sorted) - 1
	}

	moved := sorted[from]
	sorted = slices.Delete(sorted, from, from+1)
	sorted = slices.Insert(sorted, newIndex, moved)

	var changed []*domain.WorkItem
	for i, w := range sorted {
		if w.Order != nil && *w.Order == i {
			continue
		}
		w.Order = domain.IntPtr(i)
		changed = append(changed, w)
	}
	return changed, nil
}

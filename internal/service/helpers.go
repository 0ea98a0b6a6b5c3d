package service

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/alexanderramin/arbor/internal/domain"
	"github.com/alexanderramin/arbor/internal/hierarchy"
	"github.com/alexanderramin/arbor/internal/repository"
)

// relink moves item from its current parent to newParentID, updating the
// ChildrenIDs of both parents through items. item itself is not written;
// the caller applies the new placement and saves it in the same transaction.
func relink(ctx context.Context, items repository.WorkItemRepo, item *domain.WorkItem, newParentID *string, now time.Time) error {
	if domain.StrPtrEqual(item.ParentID, newParentID) {
		return nil
	}
	if newParentID != nil {
		parent, err := items.GetByID(ctx, *newParentID)
		if err != nil {
			return fmt.Errorf("loading new parent: %w", err)
		}
		if parent.CompanyID != item.CompanyID {
			return fmt.Errorf("moving %s under %s: %w", item.ID, parent.ID, hierarchy.ErrCrossTenant)
		}
		if err := ensureNotDescendant(ctx, items, item.ID, parent); err != nil {
			return err
		}
		parent.AddChild(item.ID)
		parent.UpdatedAt = now
		if err := items.Update(ctx, parent); err != nil {
			return err
		}
	}
	if item.ParentID != nil {
		old, err := items.GetByID(ctx, *item.ParentID)
		switch {
		case errors.Is(err, repository.ErrNotFound):
		case err != nil:
			return fmt.Errorf("loading old parent: %w", err)
		default:
			old.RemoveChild(item.ID)
			old.UpdatedAt = now
			if err := items.Update(ctx, old); err != nil {
				return err
			}
		}
	}
	return nil
}

// ensureNotDescendant walks up from parent and fails with ErrCycle when it
// meets id.
func ensureNotDescendant(ctx context.Context, items repository.WorkItemRepo, id string, parent *domain.WorkItem) error {
	seen := map[string]bool{}
	for cur := parent; cur != nil; {
		if cur.ID == id {
			return fmt.Errorf("moving %s under %s: %w", id, parent.ID, hierarchy.ErrCycle)
		}
		if cur.ParentID == nil || seen[cur.ID] {
			return nil
		}
		seen[cur.ID] = true
		next, err := items.GetByID(ctx, *cur.ParentID)
		if errors.Is(err, repository.ErrNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		cur = next
	}
	return nil
}

// auditTree reports every structural problem in one company's stored items:
// dangling or cross-tenant parents, cycles, and stored ChildrenIDs that
// disagree with the ParentID references.
func auditTree(items []*domain.WorkItem) []string {
	tree := hierarchy.NewTree(items)
	problems := joinedMessages(tree.CheckInvariants())

	for _, stored := range items {
		derived, ok := tree.Get(stored.ID)
		if !ok {
			continue
		}
		want := slices.Clone(derived.ChildrenIDs)
		got := slices.Clone(stored.ChildrenIDs)
		slices.Sort(want)
		slices.Sort(got)
		if !slices.Equal(want, got) {
			problems = append(problems, fmt.Sprintf("item %s: stored childrenIds [%s], parent references [%s]",
				stored.ID, strings.Join(got, ","), strings.Join(want, ",")))
		}
	}
	return problems
}

func joinedMessages(err error) []string {
	if err == nil {
		return nil
	}
	var out []string
	if joined, ok := err.(interface{ Unwrap() []error }); ok {
		for _, e := range joined.Unwrap() {
			out = append(out, e.Error())
		}
		return out
	}
	return []string{err.Error()}
}

// containerOf returns the product (container-type item) scoping item, which
// may be item itself.
func containerOf(tree *hierarchy.Tree, item *domain.WorkItem, containerType domain.ItemType) *domain.WorkItem {
	if item == nil || containerType == "" {
		return nil
	}
	if item.Type == containerType {
		return item
	}
	return tree.EnclosingContainer(item.ID, containerType)
}

// checkPlacement tests whether an item of type child may sit under parent
// (nil for a root) in target.
func checkPlacement(target hierarchy.Target, parent *domain.WorkItem, child domain.ItemType) error {
	if !target.Config.IsEnabled(child) {
		return fmt.Errorf("%s is disabled under %s: %w", child, target.Preset.ID, ErrTypeNotAllowed)
	}
	if parent == nil {
		if hierarchy.IsLegalRoot(child, target.Hierarchy) {
			return nil
		}
		return fmt.Errorf("%s cannot be a root: %w", child, ErrTypeNotAllowed)
	}
	if !hierarchy.IsAllowedChild(parent.Type, child, target.Hierarchy) {
		return fmt.Errorf("%s cannot hold %s: %w", parent.Type, child, ErrTypeNotAllowed)
	}
	return nil
}

package service

import (
	"context"
	"fmt"
	"time"

	"github.com/alexanderramin/arbor/internal/db"
	"github.com/alexanderramin/arbor/internal/domain"
	"github.com/alexanderramin/arbor/internal/hierarchy"
	"github.com/alexanderramin/arbor/internal/repository"
	"github.com/google/uuid"
)

type workItemService struct {
	items       repository.WorkItemRepo
	hierarchies HierarchyService
	uow         db.UnitOfWork
	observer    UseCaseObserver
}

func NewWorkItemService(
	items repository.WorkItemRepo,
	hierarchies HierarchyService,
	uow db.UnitOfWork,
	observers ...UseCaseObserver,
) WorkItemService {
	return &workItemService{
		items:       items,
		hierarchies: hierarchies,
		uow:         uow,
		observer:    useCaseObserverOrNoop(observers),
	}
}

func (s *workItemService) Create(ctx context.Context, w *domain.WorkItem) (err error) {
	startedAt := time.Now().UTC()
	fields := map[string]any{"company_id": w.CompanyID, "type": string(w.Type)}
	defer observe(ctx, s.observer, "create-work-item", startedAt, fields, &err)

	if !w.Type.Valid() {
		return fmt.Errorf("unknown type %q: %w", w.Type, ErrTypeNotAllowed)
	}
	tree, err := s.companyTree(ctx, w.CompanyID)
	if err != nil {
		return err
	}
	var parent *domain.WorkItem
	if w.ParentID != nil {
		if parent, err = s.items.GetByID(ctx, *w.ParentID); err != nil {
			return fmt.Errorf("loading parent: %w", err)
		}
		if parent.CompanyID != w.CompanyID {
			return fmt.Errorf("adding under %s: %w", parent.ID, hierarchy.ErrCrossTenant)
		}
	}
	target, err := s.targetUnder(ctx, tree, w.CompanyID, parent)
	if err != nil {
		return err
	}
	if err = checkPlacement(target, parent, w.Type); err != nil {
		return err
	}

	if w.ID == "" {
		w.ID = uuid.New().String()
	}
	if w.Status == "" {
		w.Status = domain.ItemTodo
	}
	now := time.Now().UTC()
	w.CreatedAt = now
	w.UpdatedAt = now
	w.ChildrenIDs = nil
	fields["item_id"] = w.ID

	return s.uow.WithinTx(ctx, func(ctx context.Context, tx db.DBTX) error {
		txItems := repository.NewSQLiteWorkItemRepo(tx)
		if err := txItems.Create(ctx, w); err != nil {
			return err
		}
		if parent == nil {
			return nil
		}
		p, err := txItems.GetByID(ctx, parent.ID)
		if err != nil {
			return err
		}
		p.AddChild(w.ID)
		p.UpdatedAt = now
		return txItems.Update(ctx, p)
	})
}

func (s *workItemService) GetByID(ctx context.Context, id string) (*domain.WorkItem, error) {
	return s.items.GetByID(ctx, id)
}

func (s *workItemService) ListByCompany(ctx context.Context, companyID string) ([]*domain.WorkItem, error) {
	return s.items.ListByCompany(ctx, companyID)
}

// Children returns parentID's children in sibling order, using the custom
// type order of the product the parent belongs to.
func (s *workItemService) Children(ctx context.Context, parentID string) ([]*domain.WorkItem, error) {
	parent, err := s.items.GetByID(ctx, parentID)
	if err != nil {
		return nil, err
	}
	tree, err := s.companyTree(ctx, parent.CompanyID)
	if err != nil {
		return nil, err
	}
	target, err := s.targetUnder(ctx, tree, parent.CompanyID, parent)
	if err != nil {
		return nil, err
	}
	kids, err := s.items.ListChildren(ctx, parentID)
	if err != nil {
		return nil, err
	}
	hierarchy.NewComparator(target.Config.Order).SortSiblings(kids)
	return kids, nil
}

// Outline lists the company's items parent-before-children with their depth
// and the current framework's label for their type.
func (s *workItemService) Outline(ctx context.Context, companyID string) ([]OutlineRow, error) {
	tree, err := s.companyTree(ctx, companyID)
	if err != nil {
		return nil, err
	}
	target, err := s.hierarchies.Effective(ctx, companyID, "")
	if err != nil {
		return nil, err
	}
	ids := tree.Preorder(hierarchy.NewComparator(target.Config.Order))
	rows := make([]OutlineRow, 0, len(ids))
	for _, id := range ids {
		item, _ := tree.Get(id)
		rows = append(rows, OutlineRow{
			Item:  item,
			Depth: len(tree.Ancestors(id)),
			Label: target.Preset.Label(item.Type),
		})
	}
	return rows, nil
}

// Move re-parents id under newParentID; "" makes it a root. The item loses
// its explicit Order so it sorts after ranked siblings at the destination.
func (s *workItemService) Move(ctx context.Context, id, newParentID string) (_ *domain.WorkItem, err error) {
	startedAt := time.Now().UTC()
	fields := map[string]any{"item_id": id, "new_parent_id": newParentID}
	defer observe(ctx, s.observer, "move-work-item", startedAt, fields, &err)

	item, err := s.items.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	tree, err := s.companyTree(ctx, item.CompanyID)
	if err != nil {
		return nil, err
	}

	var parent *domain.WorkItem
	var parentID *string
	if newParentID != "" {
		if parent, err = s.items.GetByID(ctx, newParentID); err != nil {
			return nil, fmt.Errorf("loading new parent: %w", err)
		}
		if parent.CompanyID != item.CompanyID {
			return nil, fmt.Errorf("moving %s under %s: %w", id, parent.ID, hierarchy.ErrCrossTenant)
		}
		parentID = domain.StrPtr(parent.ID)
	}
	if domain.StrPtrEqual(item.ParentID, parentID) {
		return item, nil
	}
	if err = tree.Clone().Move(id, parentID); err != nil {
		return nil, err
	}
	target, err := s.targetUnder(ctx, tree, item.CompanyID, parent)
	if err != nil {
		return nil, err
	}
	if err = checkPlacement(target, parent, item.Type); err != nil {
		return nil, err
	}

	var moved *domain.WorkItem
	err = s.uow.WithinTx(ctx, func(ctx context.Context, tx db.DBTX) error {
		txItems := repository.NewSQLiteWorkItemRepo(tx)
		cur, err := txItems.GetByID(ctx, id)
		if err != nil {
			return err
		}
		now := time.Now().UTC()
		if err := relink(ctx, txItems, cur, parentID, now); err != nil {
			return err
		}
		cur.ParentID = domain.CloneStrPtr(parentID)
		cur.Order = nil
		cur.UpdatedAt = now
		if err := txItems.Update(ctx, cur); err != nil {
			return err
		}
		moved = cur
		return nil
	})
	if err != nil {
		return nil, err
	}
	return moved, nil
}

// Reorder places id at index among its siblings and renumbers them. It
// returns the siblings whose Order changed.
func (s *workItemService) Reorder(ctx context.Context, id string, index int) (_ []*domain.WorkItem, err error) {
	startedAt := time.Now().UTC()
	fields := map[string]any{"item_id": id, "index": index}
	defer observe(ctx, s.observer, "reorder-work-item", startedAt, fields, &err)

	item, err := s.items.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	tree, err := s.companyTree(ctx, item.CompanyID)
	if err != nil {
		return nil, err
	}

	var parent *domain.WorkItem
	var siblings []*domain.WorkItem
	if item.ParentID != nil {
		parent, _ = tree.Get(*item.ParentID)
		siblings, err = s.items.ListChildren(ctx, *item.ParentID)
		if err != nil {
			return nil, err
		}
	} else {
		for _, r := range tree.Roots(hierarchy.Comparator{}) {
			siblings = append(siblings, r.Clone())
		}
	}
	target, err := s.targetUnder(ctx, tree, item.CompanyID, parent)
	if err != nil {
		return nil, err
	}

	changed, err := hierarchy.NewComparator(target.Config.Order).Reorder(siblings, id, index)
	if err != nil {
		return nil, err
	}
	err = s.uow.WithinTx(ctx, func(ctx context.Context, tx db.DBTX) error {
		txItems := repository.NewSQLiteWorkItemRepo(tx)
		now := time.Now().UTC()
		for _, w := range changed {
			cur, err := txItems.GetByID(ctx, w.ID)
			if err != nil {
				return err
			}
			cur.Order = domain.CloneIntPtr(w.Order)
			cur.UpdatedAt = now
			if err := txItems.Update(ctx, cur); err != nil {
				return err
			}
			w.UpdatedAt = now
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return changed, nil
}

func (s *workItemService) PreviewDelete(ctx context.Context, id string) (*SubtreePreview, error) {
	item, err := s.items.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	tree, err := s.companyTree(ctx, item.CompanyID)
	if err != nil {
		return nil, err
	}
	ids := hierarchy.CollectSubtreeIDs(tree.Index(), id)
	return &SubtreePreview{
		RootID: id,
		IDs:    ids,
		Counts: hierarchy.SubtreeStats(tree.Index(), ids),
	}, nil
}

// DeleteSubtree removes id and all of its descendants in one transaction,
// children first, and detaches id from its parent.
func (s *workItemService) DeleteSubtree(ctx context.Context, id string) (_ *SubtreePreview, err error) {
	startedAt := time.Now().UTC()
	fields := map[string]any{"item_id": id}
	defer observe(ctx, s.observer, "delete-subtree", startedAt, fields, &err)

	preview, err := s.PreviewDelete(ctx, id)
	if err != nil {
		return nil, err
	}
	fields["deleted"] = len(preview.IDs)

	err = s.uow.WithinTx(ctx, func(ctx context.Context, tx db.DBTX) error {
		txItems := repository.NewSQLiteWorkItemRepo(tx)
		root, err := txItems.GetByID(ctx, id)
		if err != nil {
			return err
		}
		for _, did := range preview.IDs {
			if err := txItems.Delete(ctx, did); err != nil {
				return err
			}
		}
		if root.ParentID == nil {
			return nil
		}
		parent, err := txItems.GetByID(ctx, *root.ParentID)
		if err != nil {
			return err
		}
		parent.RemoveChild(id)
		parent.UpdatedAt = time.Now().UTC()
		return txItems.Update(ctx, parent)
	})
	if err != nil {
		return nil, err
	}
	return preview, nil
}

// CheckTree audits a company's stored tree: structural invariants, stored
// ChildrenIDs against ParentID, and type legality under each product's
// effective hierarchy.
func (s *workItemService) CheckTree(ctx context.Context, companyID string) (*TreeCheck, error) {
	items, err := s.items.ListByCompany(ctx, companyID)
	if err != nil {
		return nil, err
	}
	check := &TreeCheck{Items: len(items), Problems: auditTree(items)}

	tree := hierarchy.NewTree(items)
	targets := map[string]hierarchy.Target{}
	for _, id := range tree.Preorder(hierarchy.DefaultComparator()) {
		item, _ := tree.Get(id)
		var parent *domain.WorkItem
		if item.ParentID != nil {
			if parent, _ = tree.Get(*item.ParentID); parent == nil {
				continue
			}
		}
		target, err := s.cachedTarget(ctx, targets, tree, companyID, parent)
		if err != nil {
			return nil, err
		}
		if err := checkPlacement(target, parent, item.Type); err != nil {
			check.Problems = append(check.Problems, fmt.Sprintf("item %s: %v", id, err))
		}
	}
	return check, nil
}

func (s *workItemService) companyTree(ctx context.Context, companyID string) (*hierarchy.Tree, error) {
	items, err := s.items.ListByCompany(ctx, companyID)
	if err != nil {
		return nil, fmt.Errorf("loading company %s: %w", companyID, err)
	}
	return hierarchy.NewTree(items), nil
}

// targetUnder resolves the effective hierarchy governing the children of
// parent: the config of parent's product, or the company-wide config when
// parent is nil or outside any product.
func (s *workItemService) targetUnder(ctx context.Context, tree *hierarchy.Tree, companyID string, parent *domain.WorkItem) (hierarchy.Target, error) {
	base, err := s.hierarchies.Effective(ctx, companyID, "")
	if err != nil {
		return hierarchy.Target{}, err
	}
	c := containerOf(tree, parent, base.Preset.ContainerType)
	if c == nil {
		return base, nil
	}
	return s.hierarchies.Effective(ctx, companyID, c.ID)
}

func (s *workItemService) cachedTarget(ctx context.Context, cache map[string]hierarchy.Target, tree *hierarchy.Tree, companyID string, parent *domain.WorkItem) (hierarchy.Target, error) {
	key := ""
	if parent != nil {
		key = parent.ID
	}
	if t, ok := cache[key]; ok {
		return t, nil
	}
	t, err := s.targetUnder(ctx, tree, companyID, parent)
	if err != nil {
		return hierarchy.Target{}, err
	}
	cache[key] = t
	return t, nil
}

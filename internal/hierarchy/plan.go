package hierarchy

import (
	"fmt"

	"github.com/alexanderramin/arbor/internal/domain"
	"github.com/google/uuid"
)

// placeholderNamespace seeds the name-based UUIDs of synthesized containers
// so that planning the same input twice yields the same ids.
var placeholderNamespace = uuid.MustParse("6f1c2a4e-8d0b-4a53-9a57-3c1e7d0b2f91")

// Target is a framework preset resolved into the effective hierarchy a
// migration must bring a company's tree into.
type Target struct {
	Preset    domain.Preset
	Config    domain.HierarchyConfig
	Hierarchy domain.Hierarchy
}

// NewTarget resolves preset into its effective config and hierarchy.
func NewTarget(preset domain.Preset) Target {
	return TargetFor(preset, Resolve(preset, "", nil))
}

// TargetFor pairs preset with an already resolved product config.
func TargetFor(preset domain.Preset, cfg domain.HierarchyConfig) Target {
	return Target{
		Preset:    preset,
		Config:    cfg,
		Hierarchy: EffectiveHierarchy(preset.Hierarchy, cfg.IsEnabled),
	}
}

// Plan is the full set of changes a migration would make. Creations must
// be applied before Moves; Moves are listed parent-before-children.
type Plan struct {
	Moves        []domain.PlannedMove
	Creations    []domain.PlannedContainer
	ReviewQueue  []domain.ReviewItem
	InvalidItems int
	ValidItems   int
}

// Summary returns the counts a completed run of the plan would report.
func (p Plan) Summary() domain.MigrationSummary {
	return domain.MigrationSummary{
		CreatedContainers: len(p.Creations),
		MovedItems:        len(p.Moves),
		FlaggedForReview:  len(p.ReviewQueue),
		InvalidItems:      p.InvalidItems,
	}
}

// Steps is the number of persistence steps applying the plan takes.
func (p Plan) Steps() int {
	return len(p.Creations) + len(p.Moves)
}

// BuildPlan classifies every item of one company against target and
// decides moves, placeholder creations and review entries. Items are
// visited parent-before-children on a private copy of the tree so that each
// child sees its parent's final position. BuildPlan is deterministic.
func BuildPlan(companyID string, items []*domain.WorkItem, target Target) (Plan, error) {
	tree := NewTree(items)
	cmp := NewComparator(target.Config.Order)
	resolver := Resolver{
		Tree:          tree,
		Hierarchy:     target.Hierarchy,
		Enabled:       target.Config.IsEnabled,
		ContainerType: target.Preset.ContainerType,
	}
	p := &planner{
		companyID: companyID,
		tree:      tree,
		target:    target,
		resolver:  resolver,
	}

	var plan Plan
	for _, id := range tree.Preorder(cmp) {
		if err := p.visit(id, &plan); err != nil {
			return Plan{}, err
		}
	}
	return plan, nil
}

type planner struct {
	companyID string
	tree      *Tree
	target    Target
	resolver  Resolver
}

func (p *planner) visit(id string, plan *Plan) error {
	item, _ := p.tree.Get(id)
	typ := item.Type

	if !p.target.Config.IsEnabled(typ) {
		alias, ok := p.target.Preset.TypeAliases[typ]
		if !ok || !p.target.Config.IsEnabled(alias) {
			plan.InvalidItems++
			plan.ReviewQueue = append(plan.ReviewQueue, domain.ReviewItem{
				ItemID: item.ID,
				Title:  item.Title,
				Type:   item.Type,
				Reason: domain.ReasonDisabledType,
			})
			return nil
		}
		typ = alias
	}

	res, err := p.resolver.Resolve(id, typ)
	if err != nil {
		return err
	}

	if res.Resolved && !res.Moved && typ == item.Type {
		plan.ValidItems++
		return nil
	}
	plan.InvalidItems++

	if res.Resolved {
		if err := p.move(plan, item, res.ParentID, typ, res.Confidence); err != nil {
			return err
		}
		if res.Confidence == domain.ConfidenceLow {
			plan.ReviewQueue = append(plan.ReviewQueue, domain.ReviewItem{
				ItemID:       item.ID,
				Title:        item.Title,
				Type:         typ,
				Reason:       domain.ReasonAmbiguousParent,
				CandidateIDs: res.Candidates,
			})
		}
		return nil
	}

	parentID, ok, err := p.synthesize(plan, item, typ)
	if err != nil {
		return err
	}
	if ok {
		return p.move(plan, item, parentID, typ, domain.ConfidenceHigh)
	}

	plan.ReviewQueue = append(plan.ReviewQueue, domain.ReviewItem{
		ItemID: item.ID,
		Title:  item.Title,
		Type:   item.Type,
		Reason: domain.ReasonUnresolvedParent,
	})
	return nil
}

// move records a planned move and applies it to the working tree. A move to
// a new parent clears Order so the item sorts after explicitly ranked
// siblings; a pure retype keeps it.
func (p *planner) move(plan *Plan, item *domain.WorkItem, parentID *string, typ domain.ItemType, conf domain.Confidence) error {
	from := item.Placement()
	to := domain.Placement{ParentID: domain.CloneStrPtr(parentID), Order: domain.CloneIntPtr(item.Order), Type: typ}
	if !domain.StrPtrEqual(item.ParentID, parentID) {
		to.Order = nil
		if err := p.tree.Move(item.ID, parentID); err != nil {
			return fmt.Errorf("planning move of %s: %w", item.ID, err)
		}
	}
	item.Apply(to)
	plan.Moves = append(plan.Moves, domain.PlannedMove{
		ItemID:     item.ID,
		Title:      item.Title,
		From:       from,
		To:         to,
		Confidence: conf,
	})
	return nil
}

// synthesize creates a placeholder parent for item when no item of any
// legal parent type exists anywhere in the company. The placeholder takes
// the first legal parent type (in target order) that some ancestor of the
// item can legally hold, and hangs under the nearest such ancestor. When no
// ancestor can hold any legal parent type, the placeholder becomes a root
// if its type may sit directly under the tenant root.
func (p *planner) synthesize(plan *Plan, item *domain.WorkItem, typ domain.ItemType) (*string, bool, error) {
	legal := LegalParentTypes(typ, p.target.Hierarchy, p.target.Config.Order)
	if len(legal) == 0 {
		return nil, false, nil
	}
	for _, other := range p.tree.All() {
		for _, t := range legal {
			if other.Type == t && other.ID != item.ID {
				return nil, false, nil
			}
		}
	}

	ancestors := p.tree.Ancestors(item.ID)
	for _, t := range legal {
		for _, anchor := range ancestors {
			if !p.target.Config.IsEnabled(anchor.Type) || !IsAllowedChild(anchor.Type, t, p.target.Hierarchy) {
				continue
			}
			id, err := p.placeholder(plan, t, domain.StrPtr(anchor.ID))
			return id, err == nil, err
		}
	}
	for _, t := range legal {
		if IsLegalRoot(t, p.target.Hierarchy) {
			id, err := p.placeholder(plan, t, nil)
			return id, err == nil, err
		}
	}
	return nil, false, nil
}

// placeholder returns the id of the placeholder of type t under parentID,
// planning its creation the first time it is asked for.
func (p *planner) placeholder(plan *Plan, t domain.ItemType, parentID *string) (*string, error) {
	anchor := ""
	if parentID != nil {
		anchor = *parentID
	}
	id := PlaceholderID(p.companyID, anchor, t)
	if _, exists := p.tree.Get(id); exists {
		return domain.StrPtr(id), nil
	}
	container := domain.PlannedContainer{
		ID:       id,
		Type:     t,
		Title:    fmt.Sprintf("Unassigned %s", p.target.Preset.Label(t)),
		ParentID: domain.CloneStrPtr(parentID),
	}
	if err := p.tree.Add(&domain.WorkItem{
		ID:        container.ID,
		CompanyID: p.companyID,
		Type:      container.Type,
		Title:     container.Title,
		ParentID:  domain.CloneStrPtr(container.ParentID),
		Status:    domain.ItemTodo,
	}); err != nil {
		return nil, fmt.Errorf("planning placeholder %s: %w", id, err)
	}
	plan.Creations = append(plan.Creations, container)
	return domain.StrPtr(id), nil
}

// PlaceholderID derives the stable id of the placeholder of type t under
// anchorID in companyID. Root placeholders use an empty anchorID.
func PlaceholderID(companyID, anchorID string, t domain.ItemType) string {
	return uuid.NewSHA1(placeholderNamespace, []byte(companyID+"|"+anchorID+"|"+string(t))).String()
}

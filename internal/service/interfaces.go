package service

import (
	"context"
	"errors"

	"github.com/alexanderramin/arbor/internal/domain"
	"github.com/alexanderramin/arbor/internal/hierarchy"
)

// ErrTypeNotAllowed is returned when an edit would place an item under a
// parent whose type may not hold it under the effective hierarchy.
var ErrTypeNotAllowed = errors.New("type not allowed here")

type WorkItemService interface {
	Create(ctx context.Context, w *domain.WorkItem) error
	GetByID(ctx context.Context, id string) (*domain.WorkItem, error)
	ListByCompany(ctx context.Context, companyID string) ([]*domain.WorkItem, error)
	Children(ctx context.Context, parentID string) ([]*domain.WorkItem, error)
	Outline(ctx context.Context, companyID string) ([]OutlineRow, error)
	Move(ctx context.Context, id, newParentID string) (*domain.WorkItem, error)
	Reorder(ctx context.Context, id string, index int) ([]*domain.WorkItem, error)
	PreviewDelete(ctx context.Context, id string) (*SubtreePreview, error)
	DeleteSubtree(ctx context.Context, id string) (*SubtreePreview, error)
	CheckTree(ctx context.Context, companyID string) (*TreeCheck, error)
}

// HierarchyService owns per-product hierarchy configs. productID "" is the
// company-wide config used for items outside any product.
type HierarchyService interface {
	Get(ctx context.Context, companyID, productID string) (domain.HierarchyConfig, error)
	Set(ctx context.Context, companyID string, cfg domain.HierarchyConfig) error
	Effective(ctx context.Context, companyID, productID string) (hierarchy.Target, error)
}

type FrameworkService interface {
	Current(ctx context.Context, companyID string) (domain.Preset, error)
	Presets() []domain.Preset
	Preset(id string) (domain.Preset, error)
}

type MigrationService interface {
	Start(ctx context.Context, req MigrationRequest) (*MigrationResult, error)
	Rollback(ctx context.Context, jobID string) (*RollbackResult, error)
	Get(ctx context.Context, jobID string) (*domain.MigrationJob, error)
	Report(ctx context.Context, jobID string) (*domain.MigrationReport, error)
	MoveLog(ctx context.Context, jobID string) ([]domain.MoveLogEntry, error)
	List(ctx context.Context, companyID string) ([]*domain.MigrationJob, error)
}

// OutlineRow is one line of a company's tree in display order.
type OutlineRow struct {
	Item  *domain.WorkItem
	Depth int
	Label string
}

// SubtreePreview lists what deleting a subtree removes. IDs are in
// deletion-safe order (children before parents).
type SubtreePreview struct {
	RootID string
	IDs    []string
	Counts map[domain.ItemType]int
}

// TreeCheck is the result of a structural audit of one company's tree.
type TreeCheck struct {
	Items    int
	Problems []string
}

// OK reports whether the audit found nothing.
func (c *TreeCheck) OK() bool { return len(c.Problems) == 0 }

type MigrationRequest struct {
	CompanyID    string
	TargetPreset string
	Mode         domain.MigrationMode
	MovedBy      string
}

type MigrationResult struct {
	Job    *domain.MigrationJob
	Report *domain.MigrationReport
}

// RollbackResult lists entries that could not be reverted. The job only
// reaches ROLLED_BACK when Failures is empty.
type RollbackResult struct {
	Job      *domain.MigrationJob
	Reverted int
	Removed  int
	Failures []domain.ItemFailure
}

package repository

import (
	"context"

	"github.com/alexanderramin/arbor/internal/domain"
)

type WorkItemRepo interface {
	Create(ctx context.Context, w *domain.WorkItem) error
	GetByID(ctx context.Context, id string) (*domain.WorkItem, error)
	ListByCompany(ctx context.Context, companyID string) ([]*domain.WorkItem, error)
	ListChildren(ctx context.Context, parentID string) ([]*domain.WorkItem, error)
	Update(ctx context.Context, w *domain.WorkItem) error
	Delete(ctx context.Context, id string) error
}

// HierarchyConfigRepo stores per-product hierarchy overrides. productID ""
// holds the company-wide override.
type HierarchyConfigRepo interface {
	Get(ctx context.Context, companyID, productID string) (*domain.HierarchyConfig, error)
	Upsert(ctx context.Context, companyID string, cfg *domain.HierarchyConfig) error
}

type FrameworkRepo interface {
	Get(ctx context.Context, companyID string) (*domain.FrameworkSettings, error)
	Upsert(ctx context.Context, s *domain.FrameworkSettings) error
}

type MigrationJobRepo interface {
	Create(ctx context.Context, j *domain.MigrationJob) error
	GetByID(ctx context.Context, id string) (*domain.MigrationJob, error)
	ListByCompany(ctx context.Context, companyID string) ([]*domain.MigrationJob, error)
	Update(ctx context.Context, j *domain.MigrationJob) error
}

// MoveLogRepo is append-only. Append assigns Seq.
type MoveLogRepo interface {
	Append(ctx context.Context, e *domain.MoveLogEntry) error
	ListByJob(ctx context.Context, jobID string) ([]domain.MoveLogEntry, error)
}

type MigrationReportRepo interface {
	Save(ctx context.Context, r *domain.MigrationReport) error
	GetByJob(ctx context.Context, jobID string) (*domain.MigrationReport, error)
}

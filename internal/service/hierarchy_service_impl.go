package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/alexanderramin/arbor/internal/db"
	"github.com/alexanderramin/arbor/internal/domain"
	"github.com/alexanderramin/arbor/internal/hierarchy"
	"github.com/alexanderramin/arbor/internal/repository"
)

type hierarchyService struct {
	configs    repository.HierarchyConfigRepo
	frameworks FrameworkService
	logger     *slog.Logger
	observer   UseCaseObserver
}

func NewHierarchyService(
	configs repository.HierarchyConfigRepo,
	frameworks FrameworkService,
	logger *slog.Logger,
	observers ...UseCaseObserver,
) HierarchyService {
	return &hierarchyService{
		configs:    configs,
		frameworks: frameworks,
		logger:     loggerOrDiscard(logger),
		observer:   useCaseObserverOrNoop(observers),
	}
}

// Get returns the product's config. A missing config is created from the
// current preset's defaults; a stored config that fails validation is
// repaired, written back, and logged.
func (s *hierarchyService) Get(ctx context.Context, companyID, productID string) (domain.HierarchyConfig, error) {
	p, err := s.frameworks.Current(ctx, companyID)
	if err != nil {
		return domain.HierarchyConfig{}, err
	}

	stored, err := s.configs.Get(ctx, companyID, productID)
	if errors.Is(err, repository.ErrNotFound) {
		cfg := hierarchy.Resolve(p, productID, nil)
		cfg.UpdatedAt = time.Now().UTC()
		if err := s.configs.Upsert(ctx, companyID, &cfg); err != nil {
			return domain.HierarchyConfig{}, fmt.Errorf("creating default hierarchy config: %w", err)
		}
		return cfg, nil
	}
	if err != nil {
		return domain.HierarchyConfig{}, err
	}

	if verr := hierarchy.Validate(*stored); verr != nil {
		repaired := hierarchy.EnsureValid(*stored)
		repaired.UpdatedAt = time.Now().UTC()
		s.logger.WarnContext(ctx, "repaired hierarchy config",
			"company_id", companyID,
			"product_id", productID,
			"reason", verr.Error(),
			"enabled_types", repaired.EnabledTypes,
		)
		if err := s.configs.Upsert(ctx, companyID, &repaired); err != nil {
			return domain.HierarchyConfig{}, fmt.Errorf("saving repaired hierarchy config: %w", err)
		}
		return repaired, nil
	}
	return *stored, nil
}

func (s *hierarchyService) Set(ctx context.Context, companyID string, cfg domain.HierarchyConfig) (err error) {
	startedAt := time.Now().UTC()
	fields := map[string]any{"company_id": companyID, "product_id": cfg.ProductID}
	defer observe(ctx, s.observer, "set-hierarchy-config", startedAt, fields, &err)

	if err = hierarchy.Validate(cfg); err != nil {
		return err
	}
	if stored, gerr := s.configs.Get(ctx, companyID, cfg.ProductID); gerr == nil && hierarchy.Equal(*stored, cfg) {
		fields["changed"] = false
		return nil
	}
	cfg.UpdatedAt = time.Now().UTC()
	return s.configs.Upsert(ctx, companyID, &cfg)
}

func (s *hierarchyService) Effective(ctx context.Context, companyID, productID string) (hierarchy.Target, error) {
	p, err := s.frameworks.Current(ctx, companyID)
	if err != nil {
		return hierarchy.Target{}, err
	}
	cfg, err := s.Get(ctx, companyID, productID)
	if err != nil {
		return hierarchy.Target{}, err
	}
	return hierarchy.TargetFor(p, cfg), nil
}

// resetConfigs overwrites the company-wide config and the config of every
// container in productIDs with p's defaults. Used when the company switches
// frameworks, since overrides written under the old preset no longer apply.
func resetConfigs(ctx context.Context, tx db.DBTX, companyID string, p domain.Preset, productIDs []string, now time.Time) error {
	configs := repository.NewSQLiteHierarchyConfigRepo(tx)
	for _, pid := range append([]string{""}, productIDs...) {
		cfg := hierarchy.Resolve(p, pid, nil)
		cfg.UpdatedAt = now
		if err := configs.Upsert(ctx, companyID, &cfg); err != nil {
			return fmt.Errorf("resetting hierarchy config %q: %w", pid, err)
		}
	}
	return nil
}

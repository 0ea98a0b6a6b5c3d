package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/alexanderramin/arbor/internal/db"
	"github.com/alexanderramin/arbor/internal/domain"
)

// SQLiteHierarchyConfigRepo implements HierarchyConfigRepo. Stored configs
// are returned exactly as written; repairing them is the caller's job.
type SQLiteHierarchyConfigRepo struct {
	db db.DBTX
}

func NewSQLiteHierarchyConfigRepo(conn db.DBTX) *SQLiteHierarchyConfigRepo {
	return &SQLiteHierarchyConfigRepo{db: conn}
}

func (r *SQLiteHierarchyConfigRepo) Get(ctx context.Context, companyID, productID string) (*domain.HierarchyConfig, error) {
	query := `SELECT enabled_types, type_order, updated_at FROM hierarchy_configs
		WHERE company_id = ? AND product_id = ?`
	var enabledStr, orderStr, updatedAtStr string
	err := r.db.QueryRowContext(ctx, query, companyID, productID).Scan(&enabledStr, &orderStr, &updatedAtStr)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("hierarchy config %s/%s: %w", companyID, productID, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("scanning hierarchy config: %w", err)
	}

	cfg := &domain.HierarchyConfig{ProductID: productID}
	if cfg.EnabledTypes, err = decodeTypes(enabledStr); err != nil {
		return nil, fmt.Errorf("decoding enabled_types: %w", err)
	}
	if cfg.Order, err = decodeTypes(orderStr); err != nil {
		return nil, fmt.Errorf("decoding type_order: %w", err)
	}
	if cfg.UpdatedAt, err = parseTime(updatedAtStr, "updated_at"); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (r *SQLiteHierarchyConfigRepo) Upsert(ctx context.Context, companyID string, cfg *domain.HierarchyConfig) error {
	enabled, err := encodeTypes(cfg.EnabledTypes)
	if err != nil {
		return fmt.Errorf("encoding enabled_types: %w", err)
	}
	order, err := encodeTypes(cfg.Order)
	if err != nil {
		return fmt.Errorf("encoding type_order: %w", err)
	}
	query := `INSERT INTO hierarchy_configs (company_id, product_id, enabled_types, type_order, updated_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(company_id, product_id) DO UPDATE SET
			enabled_types = excluded.enabled_types,
			type_order = excluded.type_order,
			updated_at = excluded.updated_at`
	if _, err := r.db.ExecContext(ctx, query, companyID, cfg.ProductID, enabled, order, formatTime(cfg.UpdatedAt)); err != nil {
		return fmt.Errorf("upserting hierarchy config: %w", err)
	}
	return nil
}

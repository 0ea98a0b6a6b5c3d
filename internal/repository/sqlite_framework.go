package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/alexanderramin/arbor/internal/db"
	"github.com/alexanderramin/arbor/internal/domain"
)

// SQLiteFrameworkRepo implements FrameworkRepo.
type SQLiteFrameworkRepo struct {
	db db.DBTX
}

func NewSQLiteFrameworkRepo(conn db.DBTX) *SQLiteFrameworkRepo {
	return &SQLiteFrameworkRepo{db: conn}
}

func (r *SQLiteFrameworkRepo) Get(ctx context.Context, companyID string) (*domain.FrameworkSettings, error) {
	var s domain.FrameworkSettings
	var updatedAtStr string
	err := r.db.QueryRowContext(ctx,
		`SELECT company_id, preset_id, updated_at FROM framework_settings WHERE company_id = ?`, companyID,
	).Scan(&s.CompanyID, &s.PresetID, &updatedAtStr)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("framework settings %s: %w", companyID, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("scanning framework settings: %w", err)
	}
	if s.UpdatedAt, err = parseTime(updatedAtStr, "updated_at"); err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *SQLiteFrameworkRepo) Upsert(ctx context.Context, s *domain.FrameworkSettings) error {
	query := `INSERT INTO framework_settings (company_id, preset_id, updated_at)
		VALUES (?, ?, ?)
		ON CONFLICT(company_id) DO UPDATE SET
			preset_id = excluded.preset_id,
			updated_at = excluded.updated_at`
	if _, err := r.db.ExecContext(ctx, query, s.CompanyID, s.PresetID, formatTime(s.UpdatedAt)); err != nil {
		return fmt.Errorf("upserting framework settings: %w", err)
	}
	return nil
}

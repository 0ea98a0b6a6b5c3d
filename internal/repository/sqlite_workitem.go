package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/alexanderramin/arbor/internal/db"
	"github.com/alexanderramin/arbor/internal/domain"
)

// workItemColumns is the canonical SELECT column list for work_items.
const workItemColumns = `id, company_id, type, parent_id, children_ids, order_index,
		title, status, estimate, created_at, updated_at`

// SQLiteWorkItemRepo implements WorkItemRepo using a SQLite database.
type SQLiteWorkItemRepo struct {
	db db.DBTX
}

// NewSQLiteWorkItemRepo creates a new SQLiteWorkItemRepo.
func NewSQLiteWorkItemRepo(conn db.DBTX) *SQLiteWorkItemRepo {
	return &SQLiteWorkItemRepo{db: conn}
}

func (r *SQLiteWorkItemRepo) Create(ctx context.Context, w *domain.WorkItem) error {
	children, err := encodeIDs(w.ChildrenIDs)
	if err != nil {
		return fmt.Errorf("encoding children of %s: %w", w.ID, err)
	}
	query := `INSERT INTO work_items (id, company_id, type, parent_id, children_ids, order_index,
		title, status, estimate, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	_, err = r.db.ExecContext(ctx, query,
		w.ID,
		w.CompanyID,
		string(w.Type),
		nullableStr(w.ParentID),
		children,
		nullableInt(w.Order),
		w.Title,
		string(w.Status),
		nullableFloat(w.Estimate),
		formatTime(w.CreatedAt),
		formatTime(w.UpdatedAt),
	)
	if err != nil {
		return fmt.Errorf("inserting work item: %w", err)
	}
	return nil
}

func (r *SQLiteWorkItemRepo) GetByID(ctx context.Context, id string) (*domain.WorkItem, error) {
	query := `SELECT ` + workItemColumns + ` FROM work_items WHERE id = ?`
	w, err := scanWorkItem(r.db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("work item %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("scanning work item: %w", err)
	}
	return w, nil
}

func (r *SQLiteWorkItemRepo) ListByCompany(ctx context.Context, companyID string) ([]*domain.WorkItem, error) {
	query := `SELECT ` + workItemColumns + ` FROM work_items WHERE company_id = ? ORDER BY created_at, id`
	rows, err := r.db.QueryContext(ctx, query, companyID)
	if err != nil {
		return nil, fmt.Errorf("listing work items by company: %w", err)
	}
	defer rows.Close()
	return scanWorkItems(rows)
}

func (r *SQLiteWorkItemRepo) ListChildren(ctx context.Context, parentID string) ([]*domain.WorkItem, error) {
	query := `SELECT ` + workItemColumns + ` FROM work_items WHERE parent_id = ? ORDER BY created_at, id`
	rows, err := r.db.QueryContext(ctx, query, parentID)
	if err != nil {
		return nil, fmt.Errorf("listing children of %s: %w", parentID, err)
	}
	defer rows.Close()
	return scanWorkItems(rows)
}

func (r *SQLiteWorkItemRepo) Update(ctx context.Context, w *domain.WorkItem) error {
	children, err := encodeIDs(w.ChildrenIDs)
	if err != nil {
		return fmt.Errorf("encoding children of %s: %w", w.ID, err)
	}
	query := `UPDATE work_items SET type = ?, parent_id = ?, children_ids = ?, order_index = ?,
		title = ?, status = ?, estimate = ?, updated_at = ?
		WHERE id = ?`
	res, err := r.db.ExecContext(ctx, query,
		string(w.Type),
		nullableStr(w.ParentID),
		children,
		nullableInt(w.Order),
		w.Title,
		string(w.Status),
		nullableFloat(w.Estimate),
		formatTime(w.UpdatedAt),
		w.ID,
	)
	if err != nil {
		return fmt.Errorf("updating work item: %w", err)
	}
	return checkAffected(res, "updating work item", w.ID)
}

func (r *SQLiteWorkItemRepo) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM work_items WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("deleting work item: %w", err)
	}
	return checkAffected(res, "deleting work item", id)
}

func scanWorkItem(row rowScanner) (*domain.WorkItem, error) {
	var w domain.WorkItem
	var typeStr, statusStr, childrenStr, createdAtStr, updatedAtStr string
	var parentID sql.NullString
	var order sql.NullInt64
	var estimate sql.NullFloat64

	if err := row.Scan(
		&w.ID, &w.CompanyID, &typeStr, &parentID, &childrenStr, &order,
		&w.Title, &statusStr, &estimate, &createdAtStr, &updatedAtStr,
	); err != nil {
		return nil, err
	}

	w.Type = domain.ItemType(typeStr)
	w.Status = domain.ItemStatus(statusStr)
	w.ParentID = strPtr(parentID)
	w.Order = intPtr(order)
	w.Estimate = floatPtr(estimate)

	var err error
	if w.ChildrenIDs, err = decodeIDs(childrenStr); err != nil {
		return nil, fmt.Errorf("decoding children_ids of %s: %w", w.ID, err)
	}
	if w.CreatedAt, err = parseTime(createdAtStr, "created_at"); err != nil {
		return nil, err
	}
	if w.UpdatedAt, err = parseTime(updatedAtStr, "updated_at"); err != nil {
		return nil, err
	}
	return &w, nil
}

func scanWorkItems(rows *sql.Rows) ([]*domain.WorkItem, error) {
	var items []*domain.WorkItem
	for rows.Next() {
		w, err := scanWorkItem(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning work item row: %w", err)
		}
		items = append(items, w)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating work items: %w", err)
	}
	return items, nil
}

package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/alexanderramin/arbor/internal/db"
	"github.com/alexanderramin/arbor/internal/domain"
)

const migrationJobColumns = `id, company_id, from_preset, to_preset, mode, status,
		processed, total, created_containers, moved_items, flagged_for_review, invalid_items,
		error, created_at, updated_at`

// SQLiteMigrationJobRepo implements MigrationJobRepo.
type SQLiteMigrationJobRepo struct {
	db db.DBTX
}

func NewSQLiteMigrationJobRepo(conn db.DBTX) *SQLiteMigrationJobRepo {
	return &SQLiteMigrationJobRepo{db: conn}
}

func (r *SQLiteMigrationJobRepo) Create(ctx context.Context, j *domain.MigrationJob) error {
	query := `INSERT INTO migration_jobs (` + migrationJobColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	_, err := r.db.ExecContext(ctx, query,
		j.ID, j.CompanyID, j.FromPreset, j.ToPreset, string(j.Mode), string(j.Status),
		j.Progress.Processed, j.Progress.Total,
		j.Summary.CreatedContainers, j.Summary.MovedItems, j.Summary.FlaggedForReview, j.Summary.InvalidItems,
		j.Error, formatTime(j.CreatedAt), formatTime(j.UpdatedAt),
	)
	if err != nil {
		return fmt.Errorf("inserting migration job: %w", err)
	}
	return nil
}

func (r *SQLiteMigrationJobRepo) GetByID(ctx context.Context, id string) (*domain.MigrationJob, error) {
	query := `SELECT ` + migrationJobColumns + ` FROM migration_jobs WHERE id = ?`
	j, err := scanMigrationJob(r.db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("migration job %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("scanning migration job: %w", err)
	}
	return j, nil
}

// ListByCompany returns jobs newest first.
func (r *SQLiteMigrationJobRepo) ListByCompany(ctx context.Context, companyID string) ([]*domain.MigrationJob, error) {
	query := `SELECT ` + migrationJobColumns + ` FROM migration_jobs
		WHERE company_id = ? ORDER BY created_at DESC, id`
	rows, err := r.db.QueryContext(ctx, query, companyID)
	if err != nil {
		return nil, fmt.Errorf("listing migration jobs: %w", err)
	}
	defer rows.Close()

	var jobs []*domain.MigrationJob
	for rows.Next() {
		j, err := scanMigrationJob(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning migration job row: %w", err)
		}
		jobs = append(jobs, j)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating migration jobs: %w", err)
	}
	return jobs, nil
}

func (r *SQLiteMigrationJobRepo) Update(ctx context.Context, j *domain.MigrationJob) error {
	query := `UPDATE migration_jobs SET status = ?, processed = ?, total = ?,
		created_containers = ?, moved_items = ?, flagged_for_review = ?, invalid_items = ?,
		error = ?, updated_at = ?
		WHERE id = ?`
	res, err := r.db.ExecContext(ctx, query,
		string(j.Status), j.Progress.Processed, j.Progress.Total,
		j.Summary.CreatedContainers, j.Summary.MovedItems, j.Summary.FlaggedForReview, j.Summary.InvalidItems,
		j.Error, formatTime(j.UpdatedAt), j.ID,
	)
	if err != nil {
		return fmt.Errorf("updating migration job: %w", err)
	}
	return checkAffected(res, "updating migration job", j.ID)
}

func scanMigrationJob(row rowScanner) (*domain.MigrationJob, error) {
	var j domain.MigrationJob
	var modeStr, statusStr, createdAtStr, updatedAtStr string
	if err := row.Scan(
		&j.ID, &j.CompanyID, &j.FromPreset, &j.ToPreset, &modeStr, &statusStr,
		&j.Progress.Processed, &j.Progress.Total,
		&j.Summary.CreatedContainers, &j.Summary.MovedItems, &j.Summary.FlaggedForReview, &j.Summary.InvalidItems,
		&j.Error, &createdAtStr, &updatedAtStr,
	); err != nil {
		return nil, err
	}
	j.Mode = domain.MigrationMode(modeStr)
	j.Status = domain.JobStatus(statusStr)

	var err error
	if j.CreatedAt, err = parseTime(createdAtStr, "created_at"); err != nil {
		return nil, err
	}
	if j.UpdatedAt, err = parseTime(updatedAtStr, "updated_at"); err != nil {
		return nil, err
	}
	return &j, nil
}

// SQLiteMoveLogRepo implements MoveLogRepo.
type SQLiteMoveLogRepo struct {
	db db.DBTX
}

func NewSQLiteMoveLogRepo(conn db.DBTX) *SQLiteMoveLogRepo {
	return &SQLiteMoveLogRepo{db: conn}
}

func (r *SQLiteMoveLogRepo) Append(ctx context.Context, e *domain.MoveLogEntry) error {
	query := `INSERT INTO move_log (job_id, item_id,
			prev_parent_id, prev_order, prev_type,
			next_parent_id, next_order, next_type,
			moved_by, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		RETURNING seq`
	err := r.db.QueryRowContext(ctx, query,
		e.JobID, e.ItemID,
		nullableStr(e.Prev.ParentID), nullableInt(e.Prev.Order), string(e.Prev.Type),
		nullableStr(e.Next.ParentID), nullableInt(e.Next.Order), string(e.Next.Type),
		e.MovedBy, formatTime(e.CreatedAt),
	).Scan(&e.Seq)
	if err != nil {
		return fmt.Errorf("appending move log entry for %s: %w", e.ItemID, err)
	}
	return nil
}

// ListByJob returns the job's entries in the order they were applied.
func (r *SQLiteMoveLogRepo) ListByJob(ctx context.Context, jobID string) ([]domain.MoveLogEntry, error) {
	query := `SELECT seq, job_id, item_id,
			prev_parent_id, prev_order, prev_type,
			next_parent_id, next_order, next_type,
			moved_by, created_at
		FROM move_log WHERE job_id = ? ORDER BY seq`
	rows, err := r.db.QueryContext(ctx, query, jobID)
	if err != nil {
		return nil, fmt.Errorf("listing move log: %w", err)
	}
	defer rows.Close()

	var entries []domain.MoveLogEntry
	for rows.Next() {
		var e domain.MoveLogEntry
		var prevParent, nextParent sql.NullString
		var prevOrder, nextOrder sql.NullInt64
		var prevType, nextType, createdAtStr string
		if err := rows.Scan(&e.Seq, &e.JobID, &e.ItemID,
			&prevParent, &prevOrder, &prevType,
			&nextParent, &nextOrder, &nextType,
			&e.MovedBy, &createdAtStr,
		); err != nil {
			return nil, fmt.Errorf("scanning move log entry: %w", err)
		}
		e.Prev = domain.Placement{ParentID: strPtr(prevParent), Order: intPtr(prevOrder), Type: domain.ItemType(prevType)}
		e.Next = domain.Placement{ParentID: strPtr(nextParent), Order: intPtr(nextOrder), Type: domain.ItemType(nextType)}
		if e.CreatedAt, err = parseTime(createdAtStr, "created_at"); err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating move log: %w", err)
	}
	return entries, nil
}

// SQLiteMigrationReportRepo stores one JSON report per job.
type SQLiteMigrationReportRepo struct {
	db db.DBTX
}

func NewSQLiteMigrationReportRepo(conn db.DBTX) *SQLiteMigrationReportRepo {
	return &SQLiteMigrationReportRepo{db: conn}
}

func (r *SQLiteMigrationReportRepo) Save(ctx context.Context, rep *domain.MigrationReport) error {
	body, err := json.Marshal(rep)
	if err != nil {
		return fmt.Errorf("encoding migration report: %w", err)
	}
	query := `INSERT INTO migration_reports (job_id, body, created_at) VALUES (?, ?, ?)
		ON CONFLICT(job_id) DO UPDATE SET body = excluded.body`
	if _, err := r.db.ExecContext(ctx, query, rep.JobID, string(body), formatTime(time.Now())); err != nil {
		return fmt.Errorf("saving migration report: %w", err)
	}
	return nil
}

func (r *SQLiteMigrationReportRepo) GetByJob(ctx context.Context, jobID string) (*domain.MigrationReport, error) {
	var body string
	err := r.db.QueryRowContext(ctx, `SELECT body FROM migration_reports WHERE job_id = ?`, jobID).Scan(&body)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("migration report %s: %w", jobID, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("scanning migration report: %w", err)
	}
	var rep domain.MigrationReport
	if err := json.Unmarshal([]byte(body), &rep); err != nil {
		return nil, fmt.Errorf("decoding migration report: %w", err)
	}
	return &rep, nil
}

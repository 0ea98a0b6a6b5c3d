package db

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
)

// Migrate runs all schema migrations.
func Migrate(db *sql.DB) error {
	for i, stmt := range migrations {
		if _, err := db.Exec(stmt); err != nil {
			// Tolerate "duplicate column name" errors from ALTER TABLE
			// since the migration system re-runs all statements.
			if strings.Contains(err.Error(), "duplicate column name") {
				continue
			}
			return fmt.Errorf("migration %d: %w", i, err)
		}
	}
	if err := migrateBackfillChildrenIDs(db); err != nil {
		return fmt.Errorf("backfilling children_ids: %w", err)
	}
	return nil
}

var migrations = []string{
	`CREATE TABLE IF NOT EXISTS work_items (
		id           TEXT PRIMARY KEY,
		company_id   TEXT NOT NULL,
		type         TEXT NOT NULL,
		parent_id    TEXT REFERENCES work_items(id),
		order_index  INTEGER,
		title        TEXT NOT NULL,
		status       TEXT NOT NULL DEFAULT 'todo'
		             CHECK(status IN ('todo','in_progress','done')),
		created_at   TEXT NOT NULL,
		updated_at   TEXT NOT NULL
	)`,

	`CREATE INDEX IF NOT EXISTS idx_work_items_company ON work_items(company_id)`,
	`CREATE INDEX IF NOT EXISTS idx_work_items_parent ON work_items(parent_id)`,

	`CREATE TABLE IF NOT EXISTS hierarchy_configs (
		company_id    TEXT NOT NULL,
		product_id    TEXT NOT NULL DEFAULT '',
		enabled_types TEXT NOT NULL,
		type_order    TEXT NOT NULL,
		updated_at    TEXT NOT NULL,
		PRIMARY KEY (company_id, product_id)
	)`,

	`CREATE TABLE IF NOT EXISTS framework_settings (
		company_id TEXT PRIMARY KEY,
		preset_id  TEXT NOT NULL,
		updated_at TEXT NOT NULL
	)`,

	`CREATE TABLE IF NOT EXISTS migration_jobs (
		id                 TEXT PRIMARY KEY,
		company_id         TEXT NOT NULL,
		from_preset        TEXT NOT NULL,
		to_preset          TEXT NOT NULL,
		mode               TEXT NOT NULL CHECK(mode IN ('DRY_RUN','APPLY')),
		status             TEXT NOT NULL
		                   CHECK(status IN ('QUEUED','RUNNING','COMPLETED','FAILED','ROLLED_BACK')),
		processed          INTEGER NOT NULL DEFAULT 0,
		total              INTEGER NOT NULL DEFAULT 0,
		created_containers INTEGER NOT NULL DEFAULT 0,
		moved_items        INTEGER NOT NULL DEFAULT 0,
		flagged_for_review INTEGER NOT NULL DEFAULT 0,
		invalid_items      INTEGER NOT NULL DEFAULT 0,
		error              TEXT NOT NULL DEFAULT '',
		created_at         TEXT NOT NULL,
		updated_at         TEXT NOT NULL
	)`,

	`CREATE INDEX IF NOT EXISTS idx_migration_jobs_company ON migration_jobs(company_id)`,

	`CREATE TABLE IF NOT EXISTS move_log (
		seq            INTEGER PRIMARY KEY AUTOINCREMENT,
		job_id         TEXT NOT NULL REFERENCES migration_jobs(id) ON DELETE CASCADE,
		item_id        TEXT NOT NULL,
		prev_parent_id TEXT,
		prev_order     INTEGER,
		prev_type      TEXT NOT NULL,
		next_parent_id TEXT,
		next_order     INTEGER,
		next_type      TEXT NOT NULL,
		moved_by       TEXT NOT NULL DEFAULT '',
		created_at     TEXT NOT NULL,
		UNIQUE (job_id, item_id)
	)`,

	`CREATE TABLE IF NOT EXISTS migration_reports (
		job_id     TEXT PRIMARY KEY REFERENCES migration_jobs(id) ON DELETE CASCADE,
		body       TEXT NOT NULL,
		created_at TEXT NOT NULL
	)`,

	// Add estimate to work_items
	`ALTER TABLE work_items ADD COLUMN estimate REAL`,

	// Add children_ids cache to work_items; filled by migrateBackfillChildrenIDs
	`ALTER TABLE work_items ADD COLUMN children_ids TEXT NOT NULL DEFAULT ''`,
}

// migrateBackfillChildrenIDs rebuilds the children_ids cache for rows that
// have never had one written. parent_id is authoritative.
func migrateBackfillChildrenIDs(db *sql.DB) error {
	ctx := context.Background()

	var pending int
	if err := db.QueryRowContext(ctx, `SELECT COUNT(*) FROM work_items WHERE children_ids = ''`).Scan(&pending); err != nil {
		return fmt.Errorf("counting rows without children_ids: %w", err)
	}
	if pending == 0 {
		return nil
	}

	rows, err := db.QueryContext(ctx, `SELECT id, parent_id FROM work_items ORDER BY created_at, id`)
	if err != nil {
		return fmt.Errorf("listing work item parents: %w", err)
	}
	children := make(map[string][]string)
	var ids []string
	for rows.Next() {
		var id string
		var parentID sql.NullString
		if err := rows.Scan(&id, &parentID); err != nil {
			rows.Close()
			return fmt.Errorf("scanning work item parent: %w", err)
		}
		ids = append(ids, id)
		if parentID.Valid {
			children[parentID.String] = append(children[parentID.String], id)
		}
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return fmt.Errorf("iterating work item parents: %w", err)
	}
	rows.Close()

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("starting backfill transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	for _, id := range ids {
		kids := children[id]
		if kids == nil {
			kids = []string{}
		}
		encoded, err := json.Marshal(kids)
		if err != nil {
			return fmt.Errorf("encoding children of %s: %w", id, err)
		}
		if _, err := tx.ExecContext(ctx,
			`UPDATE work_items SET children_ids = ? WHERE id = ? AND children_ids = ''`,
			string(encoded), id,
		); err != nil {
			return fmt.Errorf("backfilling children_ids for %s: %w", id, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing children_ids backfill: %w", err)
	}
	return nil
}

package testutil

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"sync/atomic"

	"github.com/alexanderramin/arbor/internal/db"
)

// FailOnNthExecUoW is a test UoW that injects an error on the Nth ExecContext
// call within a transaction. This enables rollback tests that fail a
// multi-write operation (e.g. the two ends of a move) half way through.
//
// ExecContext calls are counted starting at 1 per transaction. QueryContext
// and QueryRowContext are not counted (reads pass through normally).
type FailOnNthExecUoW struct {
	DB     *sql.DB
	FailOn int32
	Err    error
}

func (u *FailOnNthExecUoW) WithinTx(ctx context.Context, fn func(ctx context.Context, tx db.DBTX) error) error {
	tx, err := u.DB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}

	wrapped := &failOnNthExec{DBTX: tx, failOn: u.FailOn, err: u.Err}
	if fnErr := fn(ctx, wrapped); fnErr != nil {
		_ = tx.Rollback()
		return fnErr
	}
	return tx.Commit()
}

type failOnNthExec struct {
	db.DBTX
	count  atomic.Int32
	failOn int32
	err    error
}

func (f *failOnNthExec) ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error) {
	n := f.count.Add(1)
	if n == f.failOn {
		return nil, f.err
	}
	return f.DBTX.ExecContext(ctx, query, args...)
}

// FailingDB wraps a DBTX and fails every ExecContext whose statement
// contains Match. Reads pass through. Remaining counts how many more
// statements to fail; a negative value fails forever.
type FailingDB struct {
	db.DBTX
	Match     string
	Err       error
	Remaining atomic.Int32
	hits      atomic.Int32
}

// NewFailingDB fails every write matching match.
func NewFailingDB(inner db.DBTX, match string, err error) *FailingDB {
	f := &FailingDB{DBTX: inner, Match: match, Err: err}
	f.Remaining.Store(-1)
	return f
}

func (f *FailingDB) ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error) {
	if strings.Contains(query, f.Match) {
		if left := f.Remaining.Load(); left != 0 {
			if left > 0 {
				f.Remaining.Add(-1)
			}
			f.hits.Add(1)
			return nil, f.Err
		}
	}
	return f.DBTX.ExecContext(ctx, query, args...)
}

// Hits reports how many statements were failed.
func (f *FailingDB) Hits() int {
	return int(f.hits.Load())
}

// FailingUoW runs transactions against the real DB but hands callbacks a
// FailingDB sharing the same match rules.
type FailingUoW struct {
	DB   *sql.DB
	Fail *FailingDB
}

func (u *FailingUoW) WithinTx(ctx context.Context, fn func(ctx context.Context, tx db.DBTX) error) error {
	tx, err := u.DB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	wrapped := &FailingDB{DBTX: tx, Match: u.Fail.Match, Err: u.Fail.Err}
	wrapped.Remaining.Store(u.Fail.Remaining.Load())
	fnErr := fn(ctx, wrapped)
	u.Fail.Remaining.Store(wrapped.Remaining.Load())
	u.Fail.hits.Add(wrapped.hits.Load())
	if fnErr != nil {
		_ = tx.Rollback()
		return fnErr
	}
	return tx.Commit()
}

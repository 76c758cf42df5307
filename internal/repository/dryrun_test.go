package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var errNoDatabase = errors.New("no database in dry run")

// dryRunPool lets gorm open transactions without a server. In DryRun mode the
// callbacks never reach it.
type dryRunPool struct{}

func (dryRunPool) PrepareContext(ctx context.Context, query string) (*sql.Stmt, error) {
	return nil, errNoDatabase
}

func (dryRunPool) ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error) {
	return nil, errNoDatabase
}

func (dryRunPool) QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error) {
	return nil, errNoDatabase
}

func (dryRunPool) QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row {
	return nil
}

func (dryRunPool) BeginTx(ctx context.Context, opts *sql.TxOptions) (gorm.ConnPool, error) {
	return &dryRunTx{}, nil
}

type dryRunTx struct {
	dryRunPool
}

func (*dryRunTx) Commit() error   { return nil }
func (*dryRunTx) Rollback() error { return nil }

// sqlRecorder collects every statement gorm renders, with bind values inlined.
type sqlRecorder struct {
	mu         sync.Mutex
	statements []string
}

func (r *sqlRecorder) LogMode(logger.LogLevel) logger.Interface    { return r }
func (r *sqlRecorder) Info(context.Context, string, ...interface{})  {}
func (r *sqlRecorder) Warn(context.Context, string, ...interface{})  {}
func (r *sqlRecorder) Error(context.Context, string, ...interface{}) {}

func (r *sqlRecorder) Trace(ctx context.Context, begin time.Time, fc func() (string, int64), err error) {
	statement, _ := fc()
	r.mu.Lock()
	r.statements = append(r.statements, statement)
	r.mu.Unlock()
}

// find returns the index and text of the first statement containing every fragment.
func (r *sqlRecorder) find(fragments ...string) (int, string) {
	r.mu.Lock()
	defer r.mu.Unlock()
next:
	for i, s := range r.statements {
		for _, f := range fragments {
			if !strings.Contains(s, f) {
				continue next
			}
		}
		return i, s
	}
	return -1, ""
}

func (r *sqlRecorder) mustFind(t *testing.T, fragments ...string) (int, string) {
	t.Helper()
	i, s := r.find(fragments...)
	if i < 0 {
		t.Fatalf("no statement contains %q; recorded:\n%s", fragments, r.dump())
	}
	return i, s
}

func (r *sqlRecorder) dump() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return strings.Join(r.statements, "\n")
}

// newDryRunDB returns a postgres-dialect gorm handle that renders SQL without
// executing it.
func newDryRunDB(t *testing.T) (*gorm.DB, *sqlRecorder) {
	t.Helper()
	rec := &sqlRecorder{}
	db, err := gorm.Open(postgres.New(postgres.Config{Conn: dryRunPool{}}), &gorm.Config{
		DryRun:                 true,
		Logger:                 rec,
		DisableAutomaticPing:   true,
		SkipDefaultTransaction: true,
		NowFunc:                func() time.Time { return time.Date(2030, 6, 1, 0, 0, 0, 0, time.UTC) },
	})
	if err != nil {
		t.Fatalf("open dry run db: %v", err)
	}
	return db, rec
}

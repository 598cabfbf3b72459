// Package store persists opinions' entities in SQLite or PostgreSQL. Queries
// are built with bun on top of the database/sql handle the driver opens.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	_ "modernc.org/sqlite"

	"github.com/eringen/opinions/model"
)

// Supported driver names.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "pgx"
)

// timeLayout is fixed width so text ordering matches time ordering.
const timeLayout = "2006-01-02T15:04:05.000000Z"

// Error is a failure reported by the database driver.
type Error struct {
	Op  string
	Err error
}

func (e *Error) Error() string {
	return fmt.Sprintf("store: %s: %v", e.Op, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Store wraps a bun database and provides CRUD operations for every entity.
type Store struct {
	db  *bun.DB
	now func() time.Time
}

// Open connects to the database named by driver and dsn and creates any
// missing tables. For SQLite the dsn is a file path whose directory is created.
func Open(driver, dsn string) (*Store, error) {
	switch driver {
	case DriverSQLite:
		return openSQLite(dsn)
	case DriverPostgres:
		return openPostgres(dsn)
	default:
		return nil, fmt.Errorf("store: unsupported driver %q", driver)
	}
}

func openSQLite(path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, err
		}
	}
	sqldb, err := sql.Open(DriverSQLite, path)
	if err != nil {
		return nil, err
	}
	// WAL lets readers proceed during writes; the busy timeout makes writers
	// wait instead of failing with SQLITE_BUSY.
	if _, err := sqldb.Exec(`
		PRAGMA journal_mode=WAL;
		PRAGMA busy_timeout=5000;
		PRAGMA synchronous=NORMAL;
		PRAGMA foreign_keys=ON;
	`); err != nil {
		sqldb.Close()
		return nil, err
	}
	sqldb.SetMaxOpenConns(4)
	sqldb.SetMaxIdleConns(4)
	return newStore(bun.NewDB(sqldb, sqlitedialect.New()))
}

func openPostgres(dsn string) (*Store, error) {
	sqldb, err := sql.Open(DriverPostgres, dsn)
	if err != nil {
		return nil, err
	}
	if err := sqldb.Ping(); err != nil {
		sqldb.Close()
		return nil, fmt.Errorf("store: ping postgres: %w", err)
	}
	sqldb.SetMaxOpenConns(10)
	sqldb.SetMaxIdleConns(5)
	sqldb.SetConnMaxLifetime(time.Hour)
	return newStore(bun.NewDB(sqldb, pgdialect.New()))
}

func newStore(db *bun.DB) (*Store, error) {
	s := &Store{db: db, now: time.Now}
	if err := s.ensureSchema(context.Background()); err != nil {
		db.Close()
		return nil, fmt.Errorf("store: ensure schema: %w", err)
	}
	return s, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Ping checks that the database is reachable.
func (s *Store) Ping(ctx context.Context) error {
	if err := s.db.PingContext(ctx); err != nil {
		return &Error{Op: "ping", Err: err}
	}
	return nil
}

var tables = []any{
	(*postRow)(nil),
	(*bookRow)(nil),
	(*categoryRow)(nil),
	(*userRow)(nil),
	(*profileRow)(nil),
	(*roleGrantRow)(nil),
	(*reviewRow)(nil),
	(*imageRow)(nil),
}

var indexes = []struct {
	model   any
	name    string
	columns []string
}{
	{(*postRow)(nil), "idx_posts_status_created", []string{"status", "created_at"}},
	{(*postRow)(nil), "idx_posts_slug", []string{"slug"}},
	{(*postRow)(nil), "idx_posts_category", []string{"category"}},
	{(*reviewRow)(nil), "idx_reviews_book", []string{"book_id", "created_at"}},
}

func (s *Store) ensureSchema(ctx context.Context) error {
	for _, m := range tables {
		if _, err := s.db.NewCreateTable().Model(m).IfNotExists().Exec(ctx); err != nil {
			return err
		}
	}
	for _, idx := range indexes {
		if _, err := s.db.NewCreateIndex().
			Model(idx.model).
			Index(idx.name).
			Column(idx.columns...).
			IfNotExists().
			Exec(ctx); err != nil {
			return err
		}
	}
	return nil
}

// inTx runs fn in a transaction. Errors returned by fn pass through as they
// are; failures to begin or commit are reported as a store Error.
func (s *Store) inTx(ctx context.Context, op string, fn func(ctx context.Context, tx bun.Tx) error) error {
	var fnErr error
	err := s.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		fnErr = fn(ctx, tx)
		return fnErr
	})
	if err != nil && fnErr == nil {
		return &Error{Op: op, Err: err}
	}
	return err
}

// wrap translates driver errors: missing rows become model.ErrNotFound and
// everything else is reported as a store Error.
func (s *Store) wrap(op string, err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return model.ErrNotFound
	}
	return &Error{Op: op, Err: err}
}

func (s *Store) affected(res sql.Result, op string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return &Error{Op: op, Err: err}
	}
	if n == 0 {
		return model.ErrNotFound
	}
	return nil
}

func (s *Store) deleteByID(ctx context.Context, db bun.IDB, table any, op, id string) error {
	res, err := db.NewDelete().Model(table).Where("id = ?", id).Exec(ctx)
	if err != nil {
		return s.wrap(op, err)
	}
	return s.affected(res, op)
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}

// likeEscaper escapes LIKE wildcards so user input matches literally.
var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func containsPattern(search string) string {
	return "%" + likeEscaper.Replace(strings.ToLower(search)) + "%"
}

func (s *Store) stamp(t time.Time) time.Time {
	if t.IsZero() {
		t = s.now()
	}
	return t.UTC()
}

func encodeTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func decodeTime(v string) time.Time {
	t, err := time.Parse(timeLayout, v)
	if err != nil {
		t, _ = time.Parse(time.RFC3339Nano, v)
	}
	return t
}

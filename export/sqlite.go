package export

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	_ "modernc.org/sqlite" // Pure Go SQLite driver
)

// SQLiteSink writes into a SQLite database file inside one transaction.
type SQLiteSink struct {
	db *sql.DB
	tx *sql.Tx
}

// NewSQLiteSink opens dbPath and starts the run transaction. The dbPath can
// be ":memory:" for an in-memory database.
func NewSQLiteSink(ctx context.Context, dbPath string) (*SQLiteSink, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, err
	}

	// A single connection keeps ":memory:" databases alive across calls
	db.SetMaxOpenConns(1)

	if _, err := db.ExecContext(ctx, "PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, err
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		db.Close()
		return nil, err
	}

	return &SQLiteSink{
		db: db,
		tx: tx,
	}, nil
}

func (*SQLiteSink) Name() string {
	return "sqlite"
}

func (ss *SQLiteSink) Exec(ctx context.Context, stmt string, args ...any) error {
	_, err := ss.tx.ExecContext(ctx, stmt, args...)
	return err
}

func (ss *SQLiteSink) Insert(ctx context.Context, table string, columns []string, rows [][]any) error {
	if len(rows) == 0 {
		return nil
	}

	placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(columns)), ", ")
	query := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)", table, strings.Join(columns, ", "), placeholders)

	stmt, err := ss.tx.PrepareContext(ctx, query)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, row := range rows {
		if _, err := stmt.ExecContext(ctx, row...); err != nil {
			return fmt.Errorf("insert into %s: %w", table, err)
		}
	}

	return nil
}

func (ss *SQLiteSink) Commit(ctx context.Context) error {
	return ss.tx.Commit()
}

func (ss *SQLiteSink) Rollback(ctx context.Context) error {
	return ss.tx.Rollback()
}

func (ss *SQLiteSink) Close() error {
	// No-op once the transaction is finished
	ss.tx.Rollback()
	return ss.db.Close()
}

// DB exposes the underlying database, mainly for reading results back.
func (ss *SQLiteSink) DB() *sql.DB {
	return ss.db
}

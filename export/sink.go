package export

import (
	"context"
	"strings"
)

// Sink receives the rows of one export run inside a single transaction.
type Sink interface {
	// Name returns the identifier name defined for this sink
	Name() string
	// Exec runs a statement without results, e.g. table creation.
	Exec(ctx context.Context, stmt string, args ...any) error
	// Insert writes rows into table; every row holds one value per column.
	Insert(ctx context.Context, table string, columns []string, rows [][]any) error
	// Commit makes every write of the run visible.
	Commit(ctx context.Context) error
	// Rollback discards every write of the run.
	Rollback(ctx context.Context) error
	// Close releases the connection. Uncommitted writes are discarded.
	Close() error
}

// Open picks a sink for target: postgres URLs use PostgreSQL, anything else
// is treated as a SQLite database path.
func Open(ctx context.Context, target string) (Sink, error) {
	if strings.HasPrefix(target, "postgres://") || strings.HasPrefix(target, "postgresql://") {
		return NewPostgresSink(ctx, target)
	}

	return NewSQLiteSink(ctx, target)
}

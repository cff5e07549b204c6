package database

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// DBTX is the subset of pgx operations shared by *pgxpool.Pool and pgx.Tx.
// Repositories use it so the same query code serves both transactional and
// non-transactional paths.
type DBTX interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// TransactionManager starts database transactions
type TransactionManager interface {
	BeginTx(ctx context.Context) (pgx.Tx, error)
}

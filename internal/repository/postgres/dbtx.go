package postgres

import (
	"context"
	"database/sql"
)

// DBTX is satisfied by both *sqlx.DB and *sqlx.Tx, so repositories run inside a test transaction unchanged
type DBTX interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
	GetContext(ctx context.Context, dest interface{}, query string, args ...interface{}) error
	SelectContext(ctx context.Context, dest interface{}, query string, args ...interface{}) error
	NamedExecContext(ctx context.Context, query string, arg interface{}) (sql.Result, error)
}

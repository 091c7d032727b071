package postgres

import (
	"context"
	"database/sql"
)

type txKeyType struct{}

// TxKey carries an open *sql.Tx through context so repositories join a
// transaction started by the service layer without signature changes.
var TxKey = txKeyType{}

type execer interface {
	ExecContext(context.Context, string, ...any) (sql.Result, error)
	QueryContext(context.Context, string, ...any) (*sql.Rows, error)
	QueryRowContext(context.Context, string, ...any) *sql.Row
}

func GetExecutor(ctx context.Context, db *sql.DB) execer {
	if tx, ok := ctx.Value(TxKey).(*sql.Tx); ok {
		return tx
	}
	return db
}

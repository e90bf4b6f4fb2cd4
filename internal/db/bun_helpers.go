package db

import (
	"context"
	"database/sql"

	"github.com/uptrace/bun"
)

// ExecRaw executes a raw statement on a *bun.DB or bun.Tx. Bun refuses
// Update/Delete queries without a WHERE clause, so full-table writes go here.
func ExecRaw(ctx context.Context, exec bun.IDB, query string, args ...any) (sql.Result, error) {
	return exec.NewRaw(query, args...).Exec(ctx)
}

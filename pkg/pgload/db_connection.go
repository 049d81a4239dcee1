package pgload

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// Querier is the statement surface shared by connections and transactions.
type Querier interface {
	// Exec executes a query without returning any rows.
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)

	// QueryRow executes a query that is expected to return at most one row.
	// Errors are deferred until Row's Scan method is called.
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Tx is an open transaction on the loader's connection.
// pgx.Tx satisfies this interface.
type Tx interface {
	Querier

	// CopyFrom bulk-loads rows with the COPY protocol and returns the row count.
	CopyFrom(ctx context.Context, tableName pgx.Identifier, columnNames []string, rowSrc pgx.CopyFromSource) (int64, error)

	Commit(ctx context.Context) error

	// Rollback is a no-op after Commit.
	Rollback(ctx context.Context) error
}

// DBConnection is the single connection a load runs on.
//
// Thread-Safety: NOT safe for concurrent use; a load owns its connection exclusively.
type DBConnection interface {
	Querier

	// Begin starts a transaction.
	Begin(ctx context.Context) (Tx, error)
}

// TableManager performs the destination table lifecycle for a load.
// Table names are single identifiers used verbatim and always quoted.
type TableManager interface {
	// Exists reports whether the table is present.
	Exists(ctx context.Context, q Querier, table string) (bool, error)

	// Replace drops the table if it exists and creates it from schema.
	Replace(ctx context.Context, q Querier, table string, schema Schema) error

	// Append bulk-writes the batch rows and returns the number of rows written.
	Append(ctx context.Context, tx Tx, table string, batch Batch) (int64, error)
}

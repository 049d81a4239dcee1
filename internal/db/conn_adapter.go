package db

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/vvka-141/pgload/pkg/pgload"
)

// ConnAdapter adapts an acquired *pgxpool.Conn to pgload.DBConnection.
// Close releases the connection back to its pool.
//
// Thread-Safety: NOT safe for concurrent use.
type ConnAdapter struct {
	conn *pgxpool.Conn
}

// NewConnAdapter wraps conn. Panics if conn is nil.
func NewConnAdapter(conn *pgxpool.Conn) *ConnAdapter {
	if conn == nil {
		panic("conn cannot be nil")
	}
	return &ConnAdapter{conn: conn}
}

// Exec executes a query without returning any rows.
func (a *ConnAdapter) Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	return a.conn.Exec(ctx, sql, args...)
}

// QueryRow executes a query that is expected to return at most one row.
func (a *ConnAdapter) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	return a.conn.QueryRow(ctx, sql, args...)
}

// Begin starts a transaction. The returned pgx.Tx satisfies pgload.Tx.
func (a *ConnAdapter) Begin(ctx context.Context) (pgload.Tx, error) {
	return a.conn.Begin(ctx)
}

// Close releases the connection to the pool. Safe to call multiple times.
func (a *ConnAdapter) Close() error {
	if a.conn != nil {
		a.conn.Release()
		a.conn = nil
	}
	return nil
}

var _ pgload.DBConnection = (*ConnAdapter)(nil)

package table

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/vvka-141/pgload/pkg/pgload"
)

const queryTableExists = "SELECT to_regclass($1) IS NOT NULL"

// Manager implements pgload.TableManager.
type Manager struct{}

// New creates a new table Manager.
func New() pgload.TableManager {
	return &Manager{}
}

// Exists checks if the table is visible in the current search_path.
func (m *Manager) Exists(ctx context.Context, q pgload.Querier, table string) (bool, error) {
	var exists bool
	err := q.QueryRow(ctx, queryTableExists, quote(table)).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check table existence: %w", err)
	}
	return exists, nil
}

// Replace drops the table if present and creates it with schema's columns in order.
// Run it inside a transaction so readers never see the table missing.
func (m *Manager) Replace(ctx context.Context, q pgload.Querier, table string, schema pgload.Schema) error {
	if len(schema) == 0 {
		return fmt.Errorf("cannot create table %q without columns", table)
	}

	if _, err := q.Exec(ctx, "DROP TABLE IF EXISTS "+quote(table)); err != nil {
		return fmt.Errorf("failed to drop table %q: %w", table, err)
	}

	if _, err := q.Exec(ctx, CreateTableSQL(table, schema)); err != nil {
		return fmt.Errorf("failed to create table %q: %w", table, err)
	}
	return nil
}

// Append writes the batch with COPY. A short write is an error.
func (m *Manager) Append(ctx context.Context, tx pgload.Tx, table string, batch pgload.Batch) (int64, error) {
	if batch.Len() == 0 {
		return 0, nil
	}

	n, err := tx.CopyFrom(ctx, pgx.Identifier{table}, batch.Schema.Names(), pgx.CopyFromRows(batch.Rows))
	if err != nil {
		return n, fmt.Errorf("copy into %q: %w", table, err)
	}
	if n != int64(batch.Len()) {
		return n, fmt.Errorf("copy into %q wrote %d of %d rows", table, n, batch.Len())
	}
	return n, nil
}

// CreateTableSQL renders the CREATE TABLE statement for schema.
func CreateTableSQL(table string, schema pgload.Schema) string {
	var b strings.Builder
	b.WriteString("CREATE TABLE ")
	b.WriteString(quote(table))
	b.WriteString(" (\n")
	for i, col := range schema {
		b.WriteString("\t")
		b.WriteString(quote(col.Name))
		b.WriteString(" ")
		b.WriteString(col.Type.SQL())
		if i < len(schema)-1 {
			b.WriteString(",")
		}
		b.WriteString("\n")
	}
	b.WriteString(")")
	return b.String()
}

func quote(name string) string {
	return pgx.Identifier{name}.Sanitize()
}

// Verify Manager implements the TableManager interface at compile time
var _ pgload.TableManager = (*Manager)(nil)

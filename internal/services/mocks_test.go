package services

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/vvka-141/pgload/pkg/pgload"
)

type mockConnector struct {
	pool   *pgxpool.Pool
	err    error
	closed bool
}

func (m *mockConnector) Connect(_ context.Context) (*pgxpool.Pool, error) {
	return m.pool, m.err
}

func (m *mockConnector) Close() error {
	m.closed = true
	return nil
}

// mockSource yields prepared batches, then err (if any).
type mockSource struct {
	batches []pgload.RawBatch
	err     error
	pos     int
	closed  bool
}

func (m *mockSource) Next() bool {
	if m.pos >= len(m.batches) {
		return false
	}
	m.pos++
	return true
}

func (m *mockSource) Batch() pgload.RawBatch { return m.batches[m.pos-1] }

func (m *mockSource) Err() error {
	if m.pos >= len(m.batches) {
		return m.err
	}
	return nil
}

func (m *mockSource) Close() error {
	m.closed = true
	return nil
}

func openerFor(src *mockSource, err error) pgload.SourceOpener {
	return func(_ string, _ int) (pgload.BatchSource, error) {
		if err != nil {
			return nil, err
		}
		return src, nil
	}
}

// journal records the order of database side effects across mocks.
type journal struct {
	mu      sync.Mutex
	entries []string
}

func (j *journal) add(format string, args ...any) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.entries = append(j.entries, fmt.Sprintf(format, args...))
}

type mockTx struct {
	j         *journal
	id        int
	commitErr error
}

func (m *mockTx) Exec(_ context.Context, _ string, _ ...any) (pgconn.CommandTag, error) {
	return pgconn.CommandTag{}, nil
}

func (m *mockTx) QueryRow(_ context.Context, _ string, _ ...any) pgx.Row {
	return errRow{errors.New("not implemented")}
}

func (m *mockTx) CopyFrom(_ context.Context, _ pgx.Identifier, _ []string, _ pgx.CopyFromSource) (int64, error) {
	return 0, errors.New("not implemented")
}

func (m *mockTx) Commit(_ context.Context) error {
	if m.commitErr != nil {
		m.j.add("commit-failed tx%d", m.id)
		return m.commitErr
	}
	m.j.add("commit tx%d", m.id)
	return nil
}

func (m *mockTx) Rollback(_ context.Context) error {
	m.j.add("rollback tx%d", m.id)
	return nil
}

type mockConn struct {
	j         *journal
	txCount   int
	beginErr  error
	execErr   error
	commitErr error
	execSQL   []string
}

func (m *mockConn) Exec(_ context.Context, sql string, _ ...any) (pgconn.CommandTag, error) {
	m.execSQL = append(m.execSQL, sql)
	return pgconn.CommandTag{}, m.execErr
}

func (m *mockConn) QueryRow(_ context.Context, _ string, _ ...any) pgx.Row {
	return errRow{errors.New("not implemented")}
}

func (m *mockConn) Begin(_ context.Context) (pgload.Tx, error) {
	if m.beginErr != nil {
		return nil, m.beginErr
	}
	m.txCount++
	m.j.add("begin tx%d", m.txCount)
	return &mockTx{j: m.j, id: m.txCount, commitErr: m.commitErr}, nil
}

type errRow struct{ err error }

func (r errRow) Scan(_ ...any) error { return r.err }

type mockSessions struct {
	conn     *mockConn
	err      error
	closed   bool
	opened   int
	lastConf pgload.LoadConfig
}

func (m *mockSessions) OpenSession(_ context.Context, config pgload.LoadConfig) (*pgload.Session, error) {
	m.opened++
	m.lastConf = config
	if m.err != nil {
		return nil, m.err
	}
	return pgload.NewSession(m.conn, closerFunc(func() error {
		m.closed = true
		return nil
	})), nil
}

type closerFunc func() error

func (f closerFunc) Close() error { return f() }

type mockTables struct {
	j          *journal
	existing   bool
	existsErr  error
	replaced   pgload.Schema
	replaceErr error
	appendErr  map[int]error
	appended   []pgload.Batch
}

func (m *mockTables) Exists(_ context.Context, _ pgload.Querier, _ string) (bool, error) {
	return m.existing, m.existsErr
}

func (m *mockTables) Replace(_ context.Context, _ pgload.Querier, table string, schema pgload.Schema) error {
	if m.replaceErr != nil {
		return m.replaceErr
	}
	m.j.add("replace %s", table)
	m.replaced = schema
	return nil
}

func (m *mockTables) Append(_ context.Context, tx pgload.Tx, _ string, batch pgload.Batch) (int64, error) {
	if err := m.appendErr[batch.Index]; err != nil {
		return 0, err
	}
	m.j.add("append batch%d tx%d", batch.Index, tx.(*mockTx).id)
	m.appended = append(m.appended, batch)
	return int64(batch.Len()), nil
}

// recordingLogger keeps Verbose and Info lines for assertions.
type recordingLogger struct {
	mu      sync.Mutex
	info    []string
	verbose []string
}

func (l *recordingLogger) Verbose(format string, args ...interface{}) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.verbose = append(l.verbose, fmt.Sprintf(format, args...))
}

func (l *recordingLogger) Info(format string, args ...interface{}) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.info = append(l.info, fmt.Sprintf(format, args...))
}

func (l *recordingLogger) Error(_ string, _ ...interface{}) {}

type mockLogger struct{}

func (m *mockLogger) Verbose(_ string, _ ...interface{}) {}
func (m *mockLogger) Info(_ string, _ ...interface{})    {}
func (m *mockLogger) Error(_ string, _ ...interface{})   {}

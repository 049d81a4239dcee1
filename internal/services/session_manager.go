package services

import (
	"context"
	"fmt"
	"io"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/vvka-141/pgload/internal/db"
	"github.com/vvka-141/pgload/pkg/pgload"
)

// SessionManager connects to the destination database for a load.
// Responsibility: parse the connection string, apply auth settings, connect through
// the connector for the auth method and hold exactly one connection.
//
// SessionManager is thread-safe for concurrent use as long as the injected dependencies
// (connectorFactory, logger) are also thread-safe.
type SessionManager struct {
	connectorFactory func(*pgload.ConnectionConfig) (pgload.Connector, error)
	logger           pgload.Logger
}

// NewSessionManager creates a new SessionManager with all dependencies injected.
//
// Panics if any dependency is nil. This is intentional fail-fast behavior
// to prevent cryptic nil pointer dereferences later. Panics indicate
// programmer error (incorrect dependency injection setup).
func NewSessionManager(
	connectorFactory func(*pgload.ConnectionConfig) (pgload.Connector, error),
	logger pgload.Logger,
) *SessionManager {
	if connectorFactory == nil {
		panic("connectorFactory cannot be nil")
	}
	if logger == nil {
		panic("logger cannot be nil")
	}

	return &SessionManager{
		connectorFactory: connectorFactory,
		logger:           logger,
	}
}

// OpenSession connects to the destination and acquires the single connection the load runs on.
//
// The caller is responsible for closing the session: defer session.Close().
// Close releases the connection, then closes the pool and any connector resources.
func (sm *SessionManager) OpenSession(ctx context.Context, config pgload.LoadConfig) (*pgload.Session, error) {
	connConfig, err := sm.connectionConfig(config)
	if err != nil {
		return nil, err
	}

	connector, err := sm.connectorFactory(connConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create connector: %w", err)
	}
	// Connectors with resources of their own (the Cloud SQL dialer) are closed with the session.
	connectorCloser, _ := connector.(io.Closer)

	sm.logger.Verbose("Connecting to database '%s' on %s:%d (%s)", connConfig.Database, connConfig.Host, connConfig.Port, connConfig.AuthMethod)
	pool, err := connector.Connect(ctx)
	if err != nil {
		closeQuietly(connectorCloser)
		return nil, fmt.Errorf("failed to connect to database %q: %w", connConfig.Database, err)
	}

	conn, err := pool.Acquire(ctx)
	if err != nil {
		pool.Close()
		closeQuietly(connectorCloser)
		return nil, &pgload.ConnectionError{
			Host:     connConfig.Host,
			Port:     connConfig.Port,
			Database: connConfig.Database,
			Err:      fmt.Errorf("failed to acquire connection: %w", err),
		}
	}

	sm.logger.Info("✓ Connected to database `%s`", connConfig.Database)
	return newSession(db.NewConnAdapter(conn), poolCloser{pool}, connectorCloser), nil
}

// releasableConn is an acquired connection that goes back to its pool on Close.
type releasableConn interface {
	pgload.DBConnection
	io.Closer
}

// newSession orders the closers: the connection is released before the pool
// closes, since pgxpool.Pool.Close waits for every acquired connection.
func newSession(conn releasableConn, pool, connector io.Closer) *pgload.Session {
	return pgload.NewSession(conn, conn, pool, connector)
}

// connectionConfig parses the connection string and applies the auth settings of the load.
func (sm *SessionManager) connectionConfig(config pgload.LoadConfig) (*pgload.ConnectionConfig, error) {
	connConfig, err := db.ParseConnectionString(config.ConnectionString)
	if err != nil {
		return nil, fmt.Errorf("failed to parse connection string: %v: %w", err, pgload.ErrInvalidConfig)
	}

	if connConfig.AppName == "" {
		connConfig.AppName = pgload.DefaultAppName
	}

	connConfig.AuthMethod = config.AuthMethod
	connConfig.AWSRegion = config.AWSRegion
	connConfig.GoogleInstance = config.GoogleInstance
	connConfig.AzureTenantID = config.AzureTenantID
	connConfig.AzureClientID = config.AzureClientID
	connConfig.AzureClientSecret = config.AzureClientSecret

	return connConfig, nil
}

// poolCloser lets a pool be closed through io.Closer.
type poolCloser struct {
	pool *pgxpool.Pool
}

func (p poolCloser) Close() error {
	p.pool.Close()
	return nil
}

func closeQuietly(c io.Closer) {
	if c != nil {
		_ = c.Close()
	}
}

var _ pgload.SessionOpener = (*SessionManager)(nil)

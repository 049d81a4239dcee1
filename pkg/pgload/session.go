package pgload

import (
	"context"
	"errors"
	"io"
)

// Session owns the destination resources of one load: the connection the load
// runs on and everything behind it (the pool, connector resources such as a
// Cloud SQL dialer).
//
// Thread-Safety: NOT safe for concurrent use.
//
// Example usage:
//
//	session, err := opener.OpenSession(ctx, config)
//	if err != nil {
//	    return err
//	}
//	defer session.Close()
type Session struct {
	conn    DBConnection
	closers []io.Closer
}

// NewSession creates a new Session. closers are closed in order by Close,
// so list the connection release first and the pool after it.
//
// Panics if conn is nil (programmer error).
func NewSession(conn DBConnection, closers ...io.Closer) *Session {
	if conn == nil {
		panic("conn cannot be nil")
	}

	return &Session{
		conn:    conn,
		closers: closers,
	}
}

// Conn returns the connection the load runs on.
func (s *Session) Conn() DBConnection {
	return s.conn
}

// Close releases all resources associated with the session.
// This method is idempotent and safe to call multiple times.
func (s *Session) Close() error {
	var errs []error
	for _, c := range s.closers {
		if c != nil {
			errs = append(errs, c.Close())
		}
	}
	s.closers = nil
	return errors.Join(errs...)
}

// SessionOpener connects to the destination described by a LoadConfig.
type SessionOpener interface {
	// OpenSession connects and returns a session holding exactly one connection.
	// Connection failures are *ConnectionError.
	OpenSession(ctx context.Context, config LoadConfig) (*Session, error)
}

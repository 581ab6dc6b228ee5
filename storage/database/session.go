package database

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"
)

// ErrSessionClosed is returned when a session is used after it committed,
// rolled back or closed.
var ErrSessionClosed = errors.New("database: session is closed")

type sessionState int

const (
	stateOpen sessionState = iota
	stateCommitted
	stateRolledBack
	stateClosed
)

// Session is a unit-of-work handle bound to one connection. It moves
// open -> committed|rolled back -> closed and never back; Close rolls back
// whatever was not finalized.
//
// Errors returned by the underlying store pass through unwrapped: callers
// own the error kind, this layer only owns the rollback-and-close guarantee.
type Session struct {
	tx    *sqlx.Tx
	state sessionState
}

func (s *Session) Exec(ctx context.Context, query string, args ...interface{}) (sql.Result, error) {
	if s.state != stateOpen {
		return nil, ErrSessionClosed
	}
	return s.tx.ExecContext(ctx, query, args...)
}

// NamedExec executes a statement with :name parameters bound from arg
// (a map, struct, or slice of either for multi-row statements).
func (s *Session) NamedExec(ctx context.Context, query string, arg interface{}) (sql.Result, error) {
	if s.state != stateOpen {
		return nil, ErrSessionClosed
	}
	return s.tx.NamedExecContext(ctx, query, arg)
}

func (s *Session) Get(ctx context.Context, dest interface{}, query string, args ...interface{}) error {
	if s.state != stateOpen {
		return ErrSessionClosed
	}
	return s.tx.GetContext(ctx, dest, query, args...)
}

func (s *Session) Select(ctx context.Context, dest interface{}, query string, args ...interface{}) error {
	if s.state != stateOpen {
		return ErrSessionClosed
	}
	return s.tx.SelectContext(ctx, dest, query, args...)
}

func (s *Session) Commit() error {
	if s.state != stateOpen {
		return ErrSessionClosed
	}
	s.state = stateCommitted
	return s.tx.Commit()
}

func (s *Session) Rollback() error {
	if s.state != stateOpen {
		return ErrSessionClosed
	}
	s.state = stateRolledBack
	return s.tx.Rollback()
}

// Close releases the session. A still-open transaction is rolled back;
// closing an already finalized or closed session is a no-op.
func (s *Session) Close() error {
	switch s.state {
	case stateOpen:
		s.state = stateClosed
		return s.tx.Rollback()
	case stateClosed:
		return nil
	default:
		s.state = stateClosed
		return nil
	}
}

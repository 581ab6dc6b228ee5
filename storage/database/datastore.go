package database

import (
	"context"

	"github.com/jmoiron/sqlx"

	"github.com/tkamala/darasa/core"
)

// Datastore owns the process-wide connection pool. It is constructed once,
// passed by reference to whatever needs it, and shut down on exit; no
// package-level singletons.
type Datastore struct {
	db *sqlx.DB
}

func NewDatastore(conf *core.Config) (*Datastore, error) {
	db, err := Open(conf)
	if err != nil {
		return nil, err
	}

	db.SetMaxOpenConns(conf.Database.MaxOpenConns)
	db.SetMaxIdleConns(conf.Database.MaxIdleConns)
	db.SetConnMaxLifetime(conf.Database.ConnMaxLifetime)

	if conf.Database.PrePing {
		if err := ping(db); err != nil {
			_ = db.Close()
			return nil, err
		}
	}
	return &Datastore{db: sqlx.NewDb(db, conf.Database.Engine)}, nil
}

// DB exposes the underlying pool to repositories for plain (non-session) reads.
func (ds *Datastore) DB() *sqlx.DB { return ds.db }

func (ds *Datastore) Shutdown() error { return ds.db.Close() }

// OpenSession begins a new unit of work bound to one connection. The caller
// owns the session and must Close it; a failure to begin surfaces unmodified.
func (ds *Datastore) OpenSession(ctx context.Context) (*Session, error) {
	tx, err := ds.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, err
	}
	return &Session{tx: tx}, nil
}

// WithSession runs fn with a freshly opened session and guarantees release:
// on fn error the session is rolled back and the error returned unchanged;
// the session is closed on every path. Committing (if wanted) is fn's call.
func (ds *Datastore) WithSession(ctx context.Context, fn func(sess *Session) error) error {
	sess, err := ds.OpenSession(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = sess.Close() }()

	if err := fn(sess); err != nil {
		_ = sess.Rollback()
		return err
	}
	return nil
}

// RunInTransaction executes fn inside one session. It commits if and only if
// fn returns a nil error and returns fn's result; on fn error it rolls back
// and returns that error unchanged. Exactly one commit-or-rollback happens
// per invocation.
func (ds *Datastore) RunInTransaction(ctx context.Context, fn func(sess *Session) (interface{}, error)) (interface{}, error) {
	sess, err := ds.OpenSession(ctx)
	if err != nil {
		return nil, err
	}
	defer func() { _ = sess.Close() }()

	res, err := fn(sess)
	if err != nil {
		_ = sess.Rollback()
		return nil, err
	}
	if err := sess.Commit(); err != nil {
		return nil, err
	}
	return res, nil
}

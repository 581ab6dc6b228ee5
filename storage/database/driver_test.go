package database

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"io"

	"github.com/jmoiron/sqlx"
)

// A minimal database/sql driver that records every begin/exec/commit/rollback
// so the session and batch contracts can be asserted without a live store.

type execCall struct {
	query string
	args  []driver.Value
}

type fakeConn struct {
	connectErr error
	execErrOn  int // fail the n-th exec (1-based); 0 = never
	execErr    error
	commitErr  error

	begins    int
	commits   int
	rollbacks int
	execs     []execCall
}

type fakeConnector struct{ conn *fakeConn }

func (c *fakeConnector) Connect(context.Context) (driver.Conn, error) {
	if c.conn.connectErr != nil {
		return nil, c.conn.connectErr
	}
	return c.conn, nil
}

func (c *fakeConnector) Driver() driver.Driver { return fakeDriver{} }

type fakeDriver struct{}

func (fakeDriver) Open(string) (driver.Conn, error) { return nil, driver.ErrBadConn }

func (c *fakeConn) Prepare(query string) (driver.Stmt, error) {
	return &fakeStmt{conn: c, query: query}, nil
}

func (c *fakeConn) Close() error { return nil }

func (c *fakeConn) Begin() (driver.Tx, error) {
	c.begins++
	return &fakeTx{conn: c}, nil
}

type fakeTx struct{ conn *fakeConn }

func (t *fakeTx) Commit() error {
	t.conn.commits++
	return t.conn.commitErr
}

func (t *fakeTx) Rollback() error {
	t.conn.rollbacks++
	return nil
}

type fakeStmt struct {
	conn  *fakeConn
	query string
}

func (s *fakeStmt) Close() error  { return nil }
func (s *fakeStmt) NumInput() int { return -1 }

func (s *fakeStmt) Exec(args []driver.Value) (driver.Result, error) {
	s.conn.execs = append(s.conn.execs, execCall{query: s.query, args: args})
	if s.conn.execErrOn > 0 && len(s.conn.execs) == s.conn.execErrOn {
		return nil, s.conn.execErr
	}
	return driver.RowsAffected(1), nil
}

func (s *fakeStmt) Query(args []driver.Value) (driver.Rows, error) {
	return fakeRows{}, nil
}

type fakeRows struct{}

func (fakeRows) Columns() []string              { return nil }
func (fakeRows) Close() error                   { return nil }
func (fakeRows) Next(dest []driver.Value) error { return io.EOF }

func newFakeDatastore() (*Datastore, *fakeConn) {
	conn := &fakeConn{}
	db := sql.OpenDB(&fakeConnector{conn: conn})
	db.SetMaxOpenConns(1)
	return &Datastore{db: sqlx.NewDb(db, "postgres")}, conn
}

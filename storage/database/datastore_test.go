package database

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errBoom = errors.New("boom")

func TestDatastore_OpenSession_connectError(t *testing.T) {
	ds, conn := newFakeDatastore()
	conn.connectErr = errBoom

	sess, err := ds.OpenSession(context.Background())
	assert.Nil(t, sess)
	assert.Equal(t, errBoom, err) // surfaced unmodified
	assert.Zero(t, conn.begins)
	assert.Zero(t, conn.rollbacks)
}

func TestDatastore_WithSession_closesOnReturn(t *testing.T) {
	ds, conn := newFakeDatastore()

	var captured *Session
	err := ds.WithSession(context.Background(), func(sess *Session) error {
		captured = sess
		_, err := sess.Exec(context.Background(), "DELETE FROM widgets")
		return err
	})
	require.NoError(t, err)

	// session is released: the open transaction was rolled back on Close
	// and the handle is unusable afterwards
	assert.Equal(t, 1, conn.begins)
	assert.Equal(t, 1, conn.rollbacks)
	assert.Zero(t, conn.commits)

	_, err = captured.Exec(context.Background(), "DELETE FROM widgets")
	assert.Equal(t, ErrSessionClosed, err)
}

func TestDatastore_WithSession_closesOnError(t *testing.T) {
	ds, conn := newFakeDatastore()

	var captured *Session
	err := ds.WithSession(context.Background(), func(sess *Session) error {
		captured = sess
		return errBoom
	})
	assert.Equal(t, errBoom, err) // original error, unwrapped

	assert.Equal(t, 1, conn.begins)
	assert.Equal(t, 1, conn.rollbacks) // exactly one: Close is a no-op after Rollback
	assert.Zero(t, conn.commits)

	_, err = captured.Exec(context.Background(), "DELETE FROM widgets")
	assert.Equal(t, ErrSessionClosed, err)
}

func TestDatastore_RunInTransaction_commitsOnSuccess(t *testing.T) {
	ds, conn := newFakeDatastore()

	res, err := ds.RunInTransaction(context.Background(), func(sess *Session) (interface{}, error) {
		if _, err := sess.Exec(context.Background(), "DELETE FROM widgets"); err != nil {
			return nil, err
		}
		return 42, nil
	})
	require.NoError(t, err)
	assert.Equal(t, 42, res)

	assert.Equal(t, 1, conn.begins)
	assert.Equal(t, 1, conn.commits)
	assert.Zero(t, conn.rollbacks)
}

func TestDatastore_RunInTransaction_commitError(t *testing.T) {
	ds, conn := newFakeDatastore()
	conn.commitErr = errBoom

	var captured *Session
	res, err := ds.RunInTransaction(context.Background(), func(sess *Session) (interface{}, error) {
		captured = sess
		return 42, nil
	})
	assert.Nil(t, res)
	assert.Equal(t, errBoom, err) // the store's commit error, unmodified

	assert.Equal(t, 1, conn.commits)
	assert.Zero(t, conn.rollbacks) // no rollback may follow a commit attempt

	_, err = captured.Exec(context.Background(), "DELETE FROM widgets")
	assert.Equal(t, ErrSessionClosed, err)
}

func TestDatastore_RunInTransaction_rollsBackOnError(t *testing.T) {
	ds, conn := newFakeDatastore()

	res, err := ds.RunInTransaction(context.Background(), func(sess *Session) (interface{}, error) {
		return "ignored", errBoom
	})
	assert.Nil(t, res)
	assert.Equal(t, errBoom, err) // re-raised, not wrapped

	assert.Equal(t, 1, conn.begins)
	assert.Zero(t, conn.commits)
	assert.Equal(t, 1, conn.rollbacks)
}

func TestSession_stateMachine(t *testing.T) {
	t.Run("commit is final", func(t *testing.T) {
		ds, conn := newFakeDatastore()
		sess, err := ds.OpenSession(context.Background())
		require.NoError(t, err)

		require.NoError(t, sess.Commit())
		assert.Equal(t, ErrSessionClosed, sess.Commit())
		assert.Equal(t, ErrSessionClosed, sess.Rollback())
		_, err = sess.NamedExec(context.Background(), "DELETE FROM widgets", map[string]interface{}{})
		assert.Equal(t, ErrSessionClosed, err)

		require.NoError(t, sess.Close())
		require.NoError(t, sess.Close()) // idempotent

		assert.Equal(t, 1, conn.commits)
		assert.Zero(t, conn.rollbacks) // no rollback may follow a commit
	})

	t.Run("rollback is final", func(t *testing.T) {
		ds, conn := newFakeDatastore()
		sess, err := ds.OpenSession(context.Background())
		require.NoError(t, err)

		require.NoError(t, sess.Rollback())
		assert.Equal(t, ErrSessionClosed, sess.Commit())
		require.NoError(t, sess.Close())

		assert.Zero(t, conn.commits)
		assert.Equal(t, 1, conn.rollbacks)
	})

	t.Run("close rolls back an open session", func(t *testing.T) {
		ds, conn := newFakeDatastore()
		sess, err := ds.OpenSession(context.Background())
		require.NoError(t, err)

		require.NoError(t, sess.Close())
		assert.Equal(t, 1, conn.rollbacks)

		err = sess.Get(context.Background(), new(int), "SELECT 1")
		assert.Equal(t, ErrSessionClosed, err)
	})
}

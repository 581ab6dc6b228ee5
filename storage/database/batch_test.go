package database

import (
	"context"
	"database/sql/driver"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tkamala/darasa/core"
)

type widgetEntity struct{}

func (widgetEntity) TableName() string { return "widgets" }
func (widgetEntity) Columns() []string { return []string{"a"} }

func widgetRecords(n int) []core.Record {
	records := make([]core.Record, 0, n)
	for i := 1; i <= n; i++ {
		records = append(records, core.Record{"a": i})
	}
	return records
}

func TestBatchInsert_chunksAndCommitsOnce(t *testing.T) {
	ds, conn := newFakeDatastore()

	err := ds.BatchInsert(context.Background(), widgetEntity{}, widgetRecords(3), 2)
	require.NoError(t, err)

	// 3 records at size 2: one round trip for [1 2], one for [3], one commit
	require.Len(t, conn.execs, 2)
	assert.Equal(t, []driver.Value{int64(1), int64(2)}, conn.execs[0].args)
	assert.Equal(t, []driver.Value{int64(3)}, conn.execs[1].args)
	for _, call := range conn.execs {
		assert.True(t, strings.HasPrefix(call.query, `INSERT INTO "widgets" ("a") VALUES`), call.query)
	}
	assert.Equal(t, 1, conn.begins)
	assert.Equal(t, 1, conn.commits)
	assert.Zero(t, conn.rollbacks)
}

func TestBatchInsert_flushCount(t *testing.T) {
	for _, tt := range []struct {
		n, size, flushes int
	}{
		{10, 3, 4},
		{10, 5, 2},
		{10, 10, 1},
		{10, 100, 1},
		{1, 1, 1},
	} {
		ds, conn := newFakeDatastore()
		require.NoError(t, ds.BatchInsert(context.Background(), widgetEntity{}, widgetRecords(tt.n), tt.size))
		assert.Len(t, conn.execs, tt.flushes, "n=%d size=%d", tt.n, tt.size)
		assert.Equal(t, 1, conn.commits)
	}
}

func TestBatchInsert_defaultSize(t *testing.T) {
	ds, conn := newFakeDatastore()

	require.NoError(t, ds.BatchInsert(context.Background(), widgetEntity{}, widgetRecords(25)))
	assert.Len(t, conn.execs, 1) // well under DefaultBatchSize
	assert.Equal(t, 1, conn.commits)
}

func TestBatchInsert_emptyInput(t *testing.T) {
	ds, conn := newFakeDatastore()

	require.NoError(t, ds.BatchInsert(context.Background(), widgetEntity{}, nil, 2))
	assert.Empty(t, conn.execs)
	assert.Equal(t, 1, conn.commits)
	assert.Zero(t, conn.rollbacks)
}

func TestBatchInsert_allOrNothing(t *testing.T) {
	ds, conn := newFakeDatastore()
	conn.execErrOn = 2 // first chunk lands, second blows up
	conn.execErr = errBoom

	err := ds.BatchInsert(context.Background(), widgetEntity{}, widgetRecords(5), 2)
	assert.Equal(t, errBoom, err) // the store's error, unwrapped

	assert.Len(t, conn.execs, 2) // no chunk after the failure
	assert.Zero(t, conn.commits)
	assert.Equal(t, 1, conn.rollbacks)
}

func TestBatchInsert_commitError(t *testing.T) {
	ds, conn := newFakeDatastore()
	conn.commitErr = errBoom

	err := ds.BatchInsert(context.Background(), widgetEntity{}, widgetRecords(3), 2)
	assert.Equal(t, errBoom, err) // the store's error, unwrapped

	assert.Len(t, conn.execs, 2)
	assert.Equal(t, 1, conn.commits)
	assert.Zero(t, conn.rollbacks) // no rollback may follow a commit attempt
}

func TestBatchUpdate_appliesDescriptors(t *testing.T) {
	ds, conn := newFakeDatastore()

	updates := []core.Record{
		{"id": 1, "a": 10},
		{"id": 2, "a": 20, "b": 30},
		{"id": 999, "a": 40}, // no such row: silently skipped by the store
	}
	require.NoError(t, ds.BatchUpdate(context.Background(), widgetEntity{}, updates, 2))

	require.Len(t, conn.execs, 3)
	assert.Equal(t, `UPDATE "widgets" SET "a" = $1 WHERE "id" = $2`, conn.execs[0].query)
	assert.Equal(t, []driver.Value{int64(10), int64(1)}, conn.execs[0].args)
	// non-id fields are applied in a stable order
	assert.Equal(t, `UPDATE "widgets" SET "a" = $1, "b" = $2 WHERE "id" = $3`, conn.execs[1].query)
	assert.Equal(t, []driver.Value{int64(20), int64(30), int64(2)}, conn.execs[1].args)
	assert.Equal(t, []driver.Value{int64(40), int64(999)}, conn.execs[2].args)

	assert.Equal(t, 1, conn.commits)
	assert.Zero(t, conn.rollbacks)
}

func TestBatchUpdate_missingID(t *testing.T) {
	ds, conn := newFakeDatastore()

	updates := []core.Record{
		{"id": 1, "a": 10},
		{"a": 20}, // no id: the whole batch must fail
	}
	err := ds.BatchUpdate(context.Background(), widgetEntity{}, updates)
	assert.Equal(t, ErrMissingID, err)

	assert.Zero(t, conn.commits)
	assert.Equal(t, 1, conn.rollbacks)
}

func TestBatchUpdate_idOnlyDescriptor(t *testing.T) {
	ds, conn := newFakeDatastore()

	require.NoError(t, ds.BatchUpdate(context.Background(), widgetEntity{}, []core.Record{{"id": 7}}))
	assert.Empty(t, conn.execs) // nothing to set
	assert.Equal(t, 1, conn.commits)
}

func TestBatchUpdate_allOrNothing(t *testing.T) {
	ds, conn := newFakeDatastore()
	conn.execErrOn = 2
	conn.execErr = errBoom

	updates := []core.Record{
		{"id": 1, "a": 10},
		{"id": 2, "a": 20},
		{"id": 3, "a": 30},
	}
	err := ds.BatchUpdate(context.Background(), widgetEntity{}, updates)
	assert.Equal(t, errBoom, err)

	assert.Len(t, conn.execs, 2)
	assert.Zero(t, conn.commits)
	assert.Equal(t, 1, conn.rollbacks)
}

func TestExecuteStatement(t *testing.T) {
	t.Run("binds named params and commits", func(t *testing.T) {
		ds, conn := newFakeDatastore()

		res, err := ds.ExecuteStatement(context.Background(),
			`UPDATE "widgets" SET "a" = :a WHERE "id" = :id`,
			map[string]interface{}{"a": 5, "id": 1})
		require.NoError(t, err)

		affected, err := res.RowsAffected()
		require.NoError(t, err)
		assert.Equal(t, int64(1), affected)

		require.Len(t, conn.execs, 1)
		assert.Equal(t, `UPDATE "widgets" SET "a" = $1 WHERE "id" = $2`, conn.execs[0].query)
		assert.Equal(t, []driver.Value{int64(5), int64(1)}, conn.execs[0].args)
		assert.Equal(t, 1, conn.commits)
		assert.Zero(t, conn.rollbacks)
	})

	t.Run("nil params", func(t *testing.T) {
		ds, conn := newFakeDatastore()

		_, err := ds.ExecuteStatement(context.Background(), `DELETE FROM "widgets"`, nil)
		require.NoError(t, err)
		require.Len(t, conn.execs, 1)
		assert.Empty(t, conn.execs[0].args)
		assert.Equal(t, 1, conn.commits)
	})

	t.Run("rolls back on failure", func(t *testing.T) {
		ds, conn := newFakeDatastore()
		conn.execErrOn = 1
		conn.execErr = errBoom

		res, err := ds.ExecuteStatement(context.Background(), `DELETE FROM "widgets"`, nil)
		assert.Nil(t, res)
		assert.Equal(t, errBoom, err)
		assert.Zero(t, conn.commits)
		assert.Equal(t, 1, conn.rollbacks)
	})
}

package database

import (
	"context"
	"database/sql"
	"errors"
	"sort"
	"strings"

	"github.com/tkamala/darasa/core"
)

// DefaultBatchSize is the chunk size used when the caller does not supply one.
const DefaultBatchSize = 1000

// ErrMissingID is returned (after rolling back the whole batch) when an
// update descriptor carries no "id" field.
var ErrMissingID = errors.New("database: update descriptor missing id")

// BatchInsert writes records into the entity's table in consecutive chunks
// of at most batchSize (default DefaultBatchSize) rows. Each chunk is sent
// as one multi-row INSERT inside a single transaction; the transaction is
// committed once after the last chunk. Any failure rolls the whole batch
// back and returns the store's error unchanged: either every record is
// durably written, or none is.
//
// Every record must be keyed by exactly the entity's Columns.
func (ds *Datastore) BatchInsert(ctx context.Context, ent core.BatchEntity, records []core.Record, batchSize ...int) error {
	size := DefaultBatchSize
	if len(batchSize) > 0 && batchSize[0] > 0 {
		size = batchSize[0]
	}

	sess, err := ds.OpenSession(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = sess.Close() }()

	stmt := insertStatement(ent)
	for start := 0; start < len(records); start += size {
		end := start + size
		if end > len(records) {
			end = len(records)
		}
		chunk := make([]map[string]interface{}, 0, end-start)
		for _, rec := range records[start:end] {
			chunk = append(chunk, rec)
		}
		// one round trip per chunk: the rows reach the transaction
		// without ending it
		if _, err := sess.NamedExec(ctx, stmt, chunk); err != nil {
			_ = sess.Rollback()
			return err
		}
	}
	return sess.Commit()
}

// BatchUpdate applies update descriptors to the entity's table in chunks of
// at most batchSize. Each descriptor must carry an "id" plus the fields to
// change; a descriptor whose id matches no row changes nothing and is
// skipped silently. One commit after the last chunk; any failure rolls the
// whole batch back and returns the store's error unchanged.
func (ds *Datastore) BatchUpdate(ctx context.Context, ent core.BatchEntity, updates []core.Record, batchSize ...int) error {
	size := DefaultBatchSize
	if len(batchSize) > 0 && batchSize[0] > 0 {
		size = batchSize[0]
	}

	sess, err := ds.OpenSession(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = sess.Close() }()

	for start := 0; start < len(updates); start += size {
		end := start + size
		if end > len(updates) {
			end = len(updates)
		}
		for _, desc := range updates[start:end] {
			if _, ok := desc["id"]; !ok {
				_ = sess.Rollback()
				return ErrMissingID
			}
			fields := make([]string, 0, len(desc)-1)
			for name := range desc {
				if name != "id" {
					fields = append(fields, name)
				}
			}
			if len(fields) == 0 {
				continue // nothing to apply
			}
			sort.Strings(fields)

			if _, err := sess.NamedExec(ctx, updateStatement(ent, fields), map[string]interface{}(desc)); err != nil {
				_ = sess.Rollback()
				return err
			}
		}
	}
	return sess.Commit()
}

// ExecuteStatement runs one parameterized statement in its own transaction,
// committing on success. Parameters are always bound by name (:name), never
// interpolated into the statement text.
func (ds *Datastore) ExecuteStatement(ctx context.Context, stmt string, params map[string]interface{}) (sql.Result, error) {
	if params == nil {
		params = map[string]interface{}{}
	}

	sess, err := ds.OpenSession(ctx)
	if err != nil {
		return nil, err
	}
	defer func() { _ = sess.Close() }()

	res, err := sess.NamedExec(ctx, stmt, params)
	if err != nil {
		_ = sess.Rollback()
		return nil, err
	}
	if err := sess.Commit(); err != nil {
		return nil, err
	}
	return res, nil
}

func insertStatement(ent core.BatchEntity) string {
	cols := ent.Columns()
	quoted := make([]string, 0, len(cols))
	binds := make([]string, 0, len(cols))
	for _, col := range cols {
		quoted = append(quoted, quoteIdent(col))
		binds = append(binds, ":"+col)
	}
	return "INSERT INTO " + quoteIdent(ent.TableName()) +
		" (" + strings.Join(quoted, ", ") + ") VALUES (" + strings.Join(binds, ", ") + ")"
}

func updateStatement(ent core.BatchEntity, fields []string) string {
	sets := make([]string, 0, len(fields))
	for _, f := range fields {
		sets = append(sets, quoteIdent(f)+" = :"+f)
	}
	return "UPDATE " + quoteIdent(ent.TableName()) +
		" SET " + strings.Join(sets, ", ") + ` WHERE "id" = :id`
}

func quoteIdent(s string) string { return `"` + s + `"` }

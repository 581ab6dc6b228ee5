package core

// Record is one row of field name -> value pairs, as produced by file
// imports and consumed by the batch writer.
type Record map[string]interface{}

// BatchEntity is implemented by models that can be written in bulk.
// Columns lists the insertable columns in a fixed order; every Record
// passed alongside the entity must be keyed by these column names.
type BatchEntity interface {
	TableName() string
	Columns() []string
}

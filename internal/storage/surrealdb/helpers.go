package surrealdb

import (
	"context"

	"github.com/surrealdb/surrealdb.go"
)

// queryRows runs a SurrealQL statement and returns the rows of its first
// result set. A nil or empty result set maps to a nil slice.
func queryRows[T any](ctx context.Context, db *surrealdb.DB, sql string, vars map[string]any) ([]T, error) {
	results, err := surrealdb.Query[[]T](ctx, db, sql, vars)
	if err != nil {
		return nil, err
	}
	if results == nil || len(*results) == 0 {
		return nil, nil
	}
	return (*results)[0].Result, nil
}

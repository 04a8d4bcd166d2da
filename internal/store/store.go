package store

import (
	"context"
	"database/sql"
)

// connector hands out the shared, migrated database handle.
type connector interface {
	Acquire(ctx context.Context) (*sql.DB, error)
}

// nullable maps an empty or nil string pointer to NULL.
func nullable(s *string) any {
	if s == nil || *s == "" {
		return nil
	}
	return *s
}

func stringPtr(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	s := ns.String
	return &s
}

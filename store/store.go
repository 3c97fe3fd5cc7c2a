// Package store provides the SQLite persistence layer for the browser
// shell: page cache, history, bookmarks, downloads, session snapshots, and
// persisted settings.
//
// Privacy gating is deliberately NOT here. The shell composes this store
// with the privacy enforcer and refuses writes before they reach SQL; the
// store itself stays a dumb persistence layer so tests can exercise it in
// any mode.
package store

import (
	"database/sql"

	"github.com/omnibrowser/redix/dbopen"
	"github.com/omnibrowser/redix/idgen"
)

// Store is the shell database handle.
type Store struct {
	DB    *sql.DB
	newID idgen.Generator
}

// Open opens (or creates) the shell SQLite database at path, applies the
// production pragmas and the schema.
func Open(path string, opts ...dbopen.Option) (*Store, error) {
	allOpts := append([]dbopen.Option{
		dbopen.WithMkdirAll(),
		dbopen.WithSchema(Schema),
	}, opts...)

	db, err := dbopen.Open(path, allOpts...)
	if err != nil {
		return nil, err
	}
	return New(db), nil
}

// New wraps an already opened database. The schema must be applied.
func New(db *sql.DB) *Store {
	return &Store{DB: db, newID: idgen.Default}
}

// Close closes the database.
func (s *Store) Close() error {
	return s.DB.Close()
}

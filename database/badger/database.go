// Package badger implements the repo interface on an embedded BadgerDB
// key-value store.
//
// Object metadata lives under "<objects table>/<oid>" and each lock set
// under "<locks table>/<repo>". There is no schema, so Migrate is a no-op.
package badger

import (
	"context"
	"errors"
	"fmt"

	badger "github.com/dgraph-io/badger/v4"
	"github.com/dgraph-io/badger/v4/options"
	"github.com/sagarc03/lfsgate"
)

// InMemory is the DSN that opens a store without a backing directory.
const InMemory = ":memory:"

var errClosed = errors.New("badger: database is closed")

type database struct {
	db     *badger.DB
	tables lfsgate.Tables
}

// Connect opens the BadgerDB directory named by dsn, or an in-memory store
// for InMemory.
func Connect(_ context.Context, dsn string, tables lfsgate.Tables) (*database, error) {
	var opts badger.Options
	if dsn == InMemory {
		opts = badger.DefaultOptions("").WithInMemory(true)
	} else {
		opts = badger.DefaultOptions(dsn)
	}
	opts = opts.WithLogger(nil).WithCompression(options.None)

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("connect badger: %w", err)
	}

	return &database{db: db, tables: tables}, nil
}

// Ping reports whether the store is still open.
func (d *database) Ping(_ context.Context) error {
	if d.db.IsClosed() {
		return errClosed
	}
	return nil
}

// Migrate is a no-op; key prefixes need no setup.
func (d *database) Migrate(ctx context.Context) error {
	return d.Ping(ctx)
}

// Validate checks the key prefixes derived from the table names.
func (d *database) Validate(ctx context.Context) error {
	if err := d.tables.Validate(); err != nil {
		return fmt.Errorf("validate: %w", err)
	}
	return d.Ping(ctx)
}

// GetRepo returns the MetaDataRepo for store operations.
func (d *database) GetRepo() lfsgate.MetaDataRepo {
	return &repo{
		db:            d.db,
		objectsPrefix: d.tables.Objects + "/",
		locksPrefix:   d.tables.Locks + "/",
	}
}

// Close flushes and closes the store.
func (d *database) Close() error {
	if d.db.IsClosed() {
		return nil
	}
	return d.db.Close()
}

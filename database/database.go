// Copyright (c) 2013-2017 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package database defines the capability-set abstraction the chain and
// mempool packages store their persistent state through: a small
// transactional key/value interface, independent of the storage engine
// underneath it. ChainDB is built entirely against these interfaces; see
// the ldb subpackage for the goleveldb-backed production implementation
// and the memdb subpackage for the in-memory implementation used in tests.
package database

import "github.com/pkg/errors"

// ErrNotFound is returned by Get and Cursor.Seek when the requested key does
// not exist.
var ErrNotFound = errors.New("key not found")

// DataAccessor is the minimal read/write capability set shared by Database
// and Transaction: both can get, put, delete and test for a key.
type DataAccessor interface {
	// Put sets the value for key, creating or overwriting any existing
	// entry.
	Put(key []byte, value []byte) error

	// Get returns the value for key. It returns ErrNotFound if the key
	// does not exist.
	Get(key []byte) ([]byte, error)

	// Has reports whether key exists.
	Has(key []byte) (bool, error)

	// Delete removes key. It does not error if the key does not exist.
	Delete(key []byte) error
}

// Database is a handle to the underlying storage engine: anything it can do
// outside of an explicit transaction, plus the ability to begin one and to
// open a prefix cursor.
//
// Database itself satisfies DataAccessor by performing each operation in
// its own implicit transaction, the way the chain and mempool packages use
// it for one-off reads outside of a batched update.
type Database interface {
	DataAccessor

	// Begin starts a new transaction. Only one write transaction may be
	// open at a time; concurrent read-only use through the Database
	// handle itself remains unaffected.
	Begin() (Transaction, error)

	// Cursor opens an iterator over every key sharing the given prefix,
	// in ascending key order.
	Cursor(prefix []byte) (Cursor, error)

	// Close releases the underlying storage engine's resources. The
	// handle must not be used afterward.
	Close() error
}

// Transaction is a Database handle scoped to a single atomic batch of
// writes (and a consistent read snapshot, where the backing engine
// supports one). Callers must call Commit or Rollback exactly once.
type Transaction interface {
	DataAccessor

	// Cursor opens an iterator scoped to this transaction's view.
	Cursor(prefix []byte) (Cursor, error)

	// Commit applies every write made through this transaction
	// atomically.
	Commit() error

	// Rollback discards every write made through this transaction.
	Rollback() error
}

// Copyright (c) 2013-2017 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package ldb is the goleveldb-backed implementation of the database
// package's Database/Transaction/Cursor interfaces.
package ldb

import (
	"github.com/ledgerbase/ledgerd/database"
	"github.com/pkg/errors"
	"github.com/syndtr/goleveldb/leveldb"
	"github.com/syndtr/goleveldb/leveldb/opt"
	"github.com/syndtr/goleveldb/leveldb/util"
)

// LevelDB is a Database implementation backed by a single goleveldb store
// on disk.
type LevelDB struct {
	ldb *leveldb.DB
}

// NewLevelDB opens (creating if necessary) a goleveldb store at path.
func NewLevelDB(path string) (*LevelDB, error) {
	options := &opt.Options{
		Filter: nil,
	}
	db, err := leveldb.OpenFile(path, options)
	if err != nil {
		return nil, errors.Wrapf(err, "error opening database at %s", path)
	}
	return &LevelDB{ldb: db}, nil
}

// Put sets the value for key.
func (db *LevelDB) Put(key []byte, value []byte) error {
	return db.ldb.Put(key, value, nil)
}

// Get returns the value for key, or database.ErrNotFound.
func (db *LevelDB) Get(key []byte) ([]byte, error) {
	value, err := db.ldb.Get(key, nil)
	if err == leveldb.ErrNotFound {
		return nil, errors.WithStack(database.ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return value, nil
}

// Has reports whether key exists.
func (db *LevelDB) Has(key []byte) (bool, error) {
	return db.ldb.Has(key, nil)
}

// Delete removes key.
func (db *LevelDB) Delete(key []byte) error {
	return db.ldb.Delete(key, nil)
}

// Cursor opens an iterator over every key sharing the given prefix.
func (db *LevelDB) Cursor(prefix []byte) (database.Cursor, error) {
	it := db.ldb.NewIterator(util.BytesPrefix(prefix), nil)
	return newCursor(it, prefix), nil
}

// Begin starts a new leveldb transaction.
func (db *LevelDB) Begin() (database.Transaction, error) {
	ldbTx, err := db.ldb.OpenTransaction()
	if err != nil {
		return nil, errors.Wrap(err, "error beginning leveldb transaction")
	}
	return &transaction{ldbTx: ldbTx}, nil
}

// Close closes the underlying store.
func (db *LevelDB) Close() error {
	return db.ldb.Close()
}

// Copyright (c) 2013-2017 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package ldb

import (
	"github.com/ledgerbase/ledgerd/database"
	"github.com/pkg/errors"
	"github.com/syndtr/goleveldb/leveldb"
	"github.com/syndtr/goleveldb/leveldb/util"
)

// transaction wraps a goleveldb *leveldb.Transaction to satisfy
// database.Transaction.
type transaction struct {
	ldbTx    *leveldb.Transaction
	isClosed bool
}

// Put sets the value for key within this transaction.
func (tx *transaction) Put(key []byte, value []byte) error {
	return tx.ldbTx.Put(key, value, nil)
}

// Get returns the value for key, or database.ErrNotFound.
func (tx *transaction) Get(key []byte) ([]byte, error) {
	value, err := tx.ldbTx.Get(key, nil)
	if err == leveldb.ErrNotFound {
		return nil, errors.WithStack(database.ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return value, nil
}

// Has reports whether key exists within this transaction's view.
func (tx *transaction) Has(key []byte) (bool, error) {
	return tx.ldbTx.Has(key, nil)
}

// Delete removes key within this transaction.
func (tx *transaction) Delete(key []byte) error {
	return tx.ldbTx.Delete(key, nil)
}

// Cursor opens an iterator scoped to this transaction's snapshot.
func (tx *transaction) Cursor(prefix []byte) (database.Cursor, error) {
	it := tx.ldbTx.NewIterator(util.BytesPrefix(prefix), nil)
	return newCursor(it, prefix), nil
}

// Commit applies every write made through this transaction atomically.
func (tx *transaction) Commit() error {
	if tx.isClosed {
		return errors.New("cannot commit an already closed transaction")
	}
	tx.isClosed = true
	return tx.ldbTx.Commit()
}

// Rollback discards every write made through this transaction.
func (tx *transaction) Rollback() error {
	if tx.isClosed {
		return errors.New("cannot roll back an already closed transaction")
	}
	tx.isClosed = true
	tx.ldbTx.Discard()
	return nil
}

// Copyright (c) 2013-2017 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package ldb

import (
	"bytes"
	"encoding/hex"

	"github.com/ledgerbase/ledgerd/database"
	"github.com/pkg/errors"
	"github.com/syndtr/goleveldb/leveldb/iterator"
	"github.com/syndtr/goleveldb/leveldb/util"
)

// levelDBCursor is a thin wrapper around a native leveldb iterator, scoped
// to a single key prefix.
type levelDBCursor struct {
	ldbIterator iterator.Iterator
	prefix      []byte
	isClosed    bool
}

func newCursor(it iterator.Iterator, prefix []byte) *levelDBCursor {
	return &levelDBCursor{ldbIterator: it, prefix: prefix}
}

// Next moves the iterator to the next key/value pair. It returns true if it
// moved to a pair, and false once the iterator is exhausted or the cursor is
// closed.
func (c *levelDBCursor) Next() bool {
	if c.isClosed {
		return false
	}
	return c.ldbIterator.Next()
}

// First moves the iterator to the first key/value pair. It returns false if
// such a pair does not exist or if the cursor is closed.
func (c *levelDBCursor) First() bool {
	if c.isClosed {
		return false
	}
	return c.ldbIterator.First()
}

// Seek moves the iterator to the first key/value pair whose key equals the
// given key. It returns database.ErrNotFound if no such pair exists.
func (c *levelDBCursor) Seek(key []byte) error {
	if c.isClosed {
		return errors.New("cannot seek a closed cursor")
	}

	fullKey := append(append([]byte{}, c.prefix...), key...)
	notFoundErr := errors.Wrapf(database.ErrNotFound, "key %s not found",
		hex.EncodeToString(key))
	if !c.ldbIterator.Seek(fullKey) {
		return notFoundErr
	}

	currentKey := c.ldbIterator.Key()
	if currentKey == nil || !bytes.Equal(currentKey, fullKey) {
		return notFoundErr
	}
	return nil
}

// Key returns the key of the current key/value pair, with the cursor's
// prefix stripped off.
func (c *levelDBCursor) Key() ([]byte, error) {
	if c.isClosed {
		return nil, errors.New("cannot get the key of a closed cursor")
	}
	fullKey := c.ldbIterator.Key()
	if fullKey == nil {
		return nil, errors.Wrapf(database.ErrNotFound, "cursor is exhausted")
	}
	return bytes.TrimPrefix(fullKey, c.prefix), nil
}

// Value returns the value of the current key/value pair.
func (c *levelDBCursor) Value() ([]byte, error) {
	if c.isClosed {
		return nil, errors.New("cannot get the value of a closed cursor")
	}
	value := c.ldbIterator.Value()
	if value == nil {
		return nil, errors.Wrapf(database.ErrNotFound, "cursor is exhausted")
	}
	return value, nil
}

// Error returns any error accumulated by the underlying iterator.
func (c *levelDBCursor) Error() error {
	return c.ldbIterator.Error()
}

// Close releases the cursor's resources.
func (c *levelDBCursor) Close() error {
	if c.isClosed {
		return errors.New("cannot close an already closed cursor")
	}
	c.isClosed = true
	c.ldbIterator.Release()
	return nil
}

// Copyright (c) 2013-2017 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package memdb is an in-memory implementation of the database package's
// interfaces, used by chain and mempool tests so they don't need a real
// goleveldb store on disk.
package memdb

import (
	"bytes"
	"sort"
	"sync"

	"github.com/ledgerbase/ledgerd/database"
	"github.com/pkg/errors"
)

// MemDB is a Database backed by a plain map guarded by a mutex. Begin
// returns a copy-on-write transaction: writes are buffered and only applied
// to the backing map on Commit, so a Rollback (or a panic recovered by the
// caller) leaves the store untouched.
type MemDB struct {
	mu   sync.RWMutex
	data map[string][]byte
}

// New creates an empty MemDB.
func New() *MemDB {
	return &MemDB{data: make(map[string][]byte)}
}

// Put sets the value for key.
func (db *MemDB) Put(key []byte, value []byte) error {
	db.mu.Lock()
	defer db.mu.Unlock()
	db.data[string(key)] = append([]byte{}, value...)
	return nil
}

// Get returns the value for key, or database.ErrNotFound.
func (db *MemDB) Get(key []byte) ([]byte, error) {
	db.mu.RLock()
	defer db.mu.RUnlock()
	value, ok := db.data[string(key)]
	if !ok {
		return nil, errors.WithStack(database.ErrNotFound)
	}
	return value, nil
}

// Has reports whether key exists.
func (db *MemDB) Has(key []byte) (bool, error) {
	db.mu.RLock()
	defer db.mu.RUnlock()
	_, ok := db.data[string(key)]
	return ok, nil
}

// Delete removes key.
func (db *MemDB) Delete(key []byte) error {
	db.mu.Lock()
	defer db.mu.Unlock()
	delete(db.data, string(key))
	return nil
}

// Cursor opens an iterator over every key sharing the given prefix, taken
// as a point-in-time snapshot of the map.
func (db *MemDB) Cursor(prefix []byte) (database.Cursor, error) {
	db.mu.RLock()
	defer db.mu.RUnlock()

	var keys []string
	for k := range db.data {
		if bytes.HasPrefix([]byte(k), prefix) {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)

	entries := make([]memEntry, len(keys))
	for i, k := range keys {
		entries[i] = memEntry{key: []byte(k)[len(prefix):], value: db.data[k]}
	}
	return &memCursor{entries: entries, pos: -1}, nil
}

// Begin starts a new buffered transaction.
func (db *MemDB) Begin() (database.Transaction, error) {
	return &memTx{db: db, writes: make(map[string][]byte), deletes: make(map[string]struct{})}, nil
}

// Close is a no-op for MemDB; there is no backing file to release.
func (db *MemDB) Close() error {
	return nil
}

type memEntry struct {
	key   []byte
	value []byte
}

type memCursor struct {
	entries []memEntry
	pos     int
}

func (c *memCursor) Next() bool {
	if c.pos+1 >= len(c.entries) {
		c.pos = len(c.entries)
		return false
	}
	c.pos++
	return true
}

func (c *memCursor) First() bool {
	if len(c.entries) == 0 {
		return false
	}
	c.pos = 0
	return true
}

func (c *memCursor) Seek(key []byte) error {
	for i, e := range c.entries {
		if bytes.Equal(e.key, key) {
			c.pos = i
			return nil
		}
	}
	return errors.WithStack(database.ErrNotFound)
}

func (c *memCursor) Key() ([]byte, error) {
	if c.pos < 0 || c.pos >= len(c.entries) {
		return nil, errors.WithStack(database.ErrNotFound)
	}
	return c.entries[c.pos].key, nil
}

func (c *memCursor) Value() ([]byte, error) {
	if c.pos < 0 || c.pos >= len(c.entries) {
		return nil, errors.WithStack(database.ErrNotFound)
	}
	return c.entries[c.pos].value, nil
}

func (c *memCursor) Error() error { return nil }
func (c *memCursor) Close() error { return nil }

// memTx buffers writes and deletes until Commit, giving callers rollback
// semantics without touching the backing map.
type memTx struct {
	db      *MemDB
	writes  map[string][]byte
	deletes map[string]struct{}
	closed  bool
}

func (tx *memTx) Put(key []byte, value []byte) error {
	k := string(key)
	delete(tx.deletes, k)
	tx.writes[k] = append([]byte{}, value...)
	return nil
}

func (tx *memTx) Get(key []byte) ([]byte, error) {
	k := string(key)
	if _, deleted := tx.deletes[k]; deleted {
		return nil, errors.WithStack(database.ErrNotFound)
	}
	if v, ok := tx.writes[k]; ok {
		return v, nil
	}
	return tx.db.Get(key)
}

func (tx *memTx) Has(key []byte) (bool, error) {
	k := string(key)
	if _, deleted := tx.deletes[k]; deleted {
		return false, nil
	}
	if _, ok := tx.writes[k]; ok {
		return true, nil
	}
	return tx.db.Has(key)
}

func (tx *memTx) Delete(key []byte) error {
	k := string(key)
	delete(tx.writes, k)
	tx.deletes[k] = struct{}{}
	return nil
}

func (tx *memTx) Cursor(prefix []byte) (database.Cursor, error) {
	// Committed-then-buffered view: apply the transaction's pending
	// writes/deletes on top of a fresh snapshot of the backing store.
	tx.db.mu.RLock()
	merged := make(map[string][]byte, len(tx.db.data))
	for k, v := range tx.db.data {
		merged[k] = v
	}
	tx.db.mu.RUnlock()

	for k := range tx.deletes {
		delete(merged, k)
	}
	for k, v := range tx.writes {
		merged[k] = v
	}

	var keys []string
	for k := range merged {
		if bytes.HasPrefix([]byte(k), prefix) {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)

	entries := make([]memEntry, len(keys))
	for i, k := range keys {
		entries[i] = memEntry{key: []byte(k)[len(prefix):], value: merged[k]}
	}
	return &memCursor{entries: entries, pos: -1}, nil
}

func (tx *memTx) Commit() error {
	if tx.closed {
		return errors.New("cannot commit an already closed transaction")
	}
	tx.closed = true

	tx.db.mu.Lock()
	defer tx.db.mu.Unlock()
	for k := range tx.deletes {
		delete(tx.db.data, k)
	}
	for k, v := range tx.writes {
		tx.db.data[k] = v
	}
	return nil
}

func (tx *memTx) Rollback() error {
	if tx.closed {
		return errors.New("cannot roll back an already closed transaction")
	}
	tx.closed = true
	return nil
}

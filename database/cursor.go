// Copyright (c) 2013-2017 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package database

// Cursor iterates, in ascending key order, over every key/value pair
// sharing the prefix it was opened with. ChainDB itself does not open
// cursors; its lookups, the prune queue included, are keyed Gets.
type Cursor interface {
	// Next advances to the next key/value pair, returning false once
	// exhausted or after the cursor has been closed.
	Next() bool

	// First moves to the first key/value pair under the prefix,
	// returning false if none exists.
	First() bool

	// Seek moves to the key/value pair whose key equals key. It returns
	// ErrNotFound if no such pair exists.
	Seek(key []byte) error

	// Key returns the current key, or nil if the cursor is exhausted.
	Key() ([]byte, error)

	// Value returns the current value, or nil if the cursor is
	// exhausted.
	Value() ([]byte, error)

	// Error returns any error accumulated during iteration. Exhausting
	// the cursor normally is not an error.
	Error() error

	// Close releases the cursor's resources.
	Close() error
}

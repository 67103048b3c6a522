// Copyright (c) 2013-2017 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package database_test

import (
	"errors"
	"testing"

	"github.com/ledgerbase/ledgerd/database"
	"github.com/ledgerbase/ledgerd/database/memdb"
)

func TestTransactionPutCommit(t *testing.T) {
	db := memdb.New()

	tx, err := db.Begin()
	if err != nil {
		t.Fatalf("Begin unexpectedly failed: %s", err)
	}
	key := []byte("k")
	if err := tx.Put(key, []byte("v1")); err != nil {
		t.Fatalf("Put unexpectedly failed: %s", err)
	}

	// The write must not be visible outside the transaction until commit.
	if _, err := db.Get(key); !errors.Is(err, database.ErrNotFound) {
		t.Fatalf("expected ErrNotFound before commit, got %v", err)
	}

	if err := tx.Commit(); err != nil {
		t.Fatalf("Commit unexpectedly failed: %s", err)
	}

	got, err := db.Get(key)
	if err != nil {
		t.Fatalf("Get unexpectedly failed: %s", err)
	}
	if string(got) != "v1" {
		t.Fatalf("expected v1, got %s", got)
	}
}

func TestTransactionRollback(t *testing.T) {
	db := memdb.New()
	if err := db.Put([]byte("k"), []byte("v0")); err != nil {
		t.Fatalf("Put unexpectedly failed: %s", err)
	}

	tx, err := db.Begin()
	if err != nil {
		t.Fatalf("Begin unexpectedly failed: %s", err)
	}
	if err := tx.Put([]byte("k"), []byte("v1")); err != nil {
		t.Fatalf("Put unexpectedly failed: %s", err)
	}
	if err := tx.Delete([]byte("other")); err != nil {
		t.Fatalf("Delete unexpectedly failed: %s", err)
	}
	if err := tx.Rollback(); err != nil {
		t.Fatalf("Rollback unexpectedly failed: %s", err)
	}

	got, err := db.Get([]byte("k"))
	if err != nil {
		t.Fatalf("Get unexpectedly failed: %s", err)
	}
	if string(got) != "v0" {
		t.Fatalf("rollback did not restore original value, got %s", got)
	}
}

func TestCursorIteratesInKeyOrder(t *testing.T) {
	db := memdb.New()
	for _, k := range []string{"b", "a", "c"} {
		if err := db.Put([]byte("p"+k), []byte(k)); err != nil {
			t.Fatalf("Put unexpectedly failed: %s", err)
		}
	}
	if err := db.Put([]byte("q-other"), []byte("skip")); err != nil {
		t.Fatalf("Put unexpectedly failed: %s", err)
	}

	cursor, err := db.Cursor([]byte("p"))
	if err != nil {
		t.Fatalf("Cursor unexpectedly failed: %s", err)
	}
	defer cursor.Close()

	var got []string
	for ok := cursor.First(); ok; ok = cursor.Next() {
		value, err := cursor.Value()
		if err != nil {
			t.Fatalf("Value unexpectedly failed: %s", err)
		}
		got = append(got, string(value))
	}

	want := []string{"a", "b", "c"}
	if len(got) != len(want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("expected %v, got %v", want, got)
		}
	}
}

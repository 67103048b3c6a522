// Copyright (c) 2013-2016 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package blockchain

import (
	"bytes"
	"reflect"
	"testing"

	"github.com/davecgh/go-spew/spew"

	"github.com/ledgerbase/ledgerd/wire"
)

func TestCoinsSerializeRoundTrip(t *testing.T) {
	tx := &wire.MsgTx{
		Version: 1,
		TxOut: []*wire.TxOut{
			{Value: 5000000000, PkScript: payToPubKeyHashScript(bytes.Repeat([]byte{0x01}, 20))},
			{Value: 1234, PkScript: payToScriptHashScript(bytes.Repeat([]byte{0x02}, 20))},
			{Value: 9999, PkScript: []byte{0x6a, 0x04, 0xde, 0xad, 0xbe, 0xef}},
		},
	}
	coins := NewCoinsFromTx(tx, 150, true)
	coins.Spend(1)

	var buf bytes.Buffer
	if err := coins.Serialize(&buf); err != nil {
		t.Fatalf("Serialize: %s", err)
	}

	got, err := DeserializeCoins(buf.Bytes(), coins.TxHash)
	if err != nil {
		t.Fatalf("DeserializeCoins: %s", err)
	}

	if !reflect.DeepEqual(coins, got) {
		t.Fatalf("round trip mismatch:\nwant: %s\ngot:  %s", spew.Sdump(coins), spew.Sdump(got))
	}
}

func TestCoinsScanDeferredMatchesDeserialize(t *testing.T) {
	tx := &wire.MsgTx{
		TxOut: []*wire.TxOut{
			{Value: 1, PkScript: payToPubKeyHashScript(bytes.Repeat([]byte{0x03}, 20))},
			{Value: 2, PkScript: []byte{0x51}},
		},
	}
	coins := NewCoinsFromTx(tx, 10, false)

	var buf bytes.Buffer
	if err := coins.Serialize(&buf); err != nil {
		t.Fatalf("Serialize: %s", err)
	}

	deferred, err := ScanDeferredCoins(buf.Bytes())
	if err != nil {
		t.Fatalf("ScanDeferredCoins: %s", err)
	}
	if len(deferred) != len(coins.Outputs) {
		t.Fatalf("got %d deferred entries, want %d", len(deferred), len(coins.Outputs))
	}

	for i, want := range coins.Outputs {
		got, err := deferred[i].ToCoin()
		if err != nil {
			t.Fatalf("ToCoin(%d): %s", i, err)
		}
		if !reflect.DeepEqual(want, got) {
			t.Fatalf("deferred coin %d mismatch:\nwant: %s\ngot:  %s", i, spew.Sdump(want), spew.Sdump(got))
		}
	}
}

func TestCoinsIsEmptyAfterSpendingAllOutputs(t *testing.T) {
	tx := &wire.MsgTx{
		TxOut: []*wire.TxOut{
			{Value: 1, PkScript: []byte{0x51}},
			{Value: 2, PkScript: []byte{0x52}},
		},
	}
	coins := NewCoinsFromTx(tx, 1, false)
	if coins.IsEmpty() {
		t.Fatalf("fresh Coins bundle should not be empty")
	}

	coins.Spend(0)
	if coins.IsEmpty() {
		t.Fatalf("bundle with one unspent output should not be empty")
	}

	coins.Spend(1)
	if !coins.IsEmpty() {
		t.Fatalf("bundle with every output spent should be empty")
	}

	if coins.Get(0) != nil || coins.Spend(0) != nil {
		t.Fatalf("already-spent output should read back nil")
	}
	if coins.Get(5) != nil {
		t.Fatalf("out-of-range Get should return nil, not panic")
	}
}

// Copyright (c) 2013-2016 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package blockchain

import (
	"testing"
	"time"

	"github.com/ledgerbase/ledgerd/chainhash"
	"github.com/ledgerbase/ledgerd/wire"
)

func TestSequenceLockActive(t *testing.T) {
	mtp := time.Unix(1000, 0)

	tests := []struct {
		name   string
		lock   SequenceLock
		height int32
		mtp    time.Time
		want   bool
	}{
		{"disabled", SequenceLock{Seconds: -1, BlockHeight: -1}, 100, mtp, true},
		{"height not yet reached", SequenceLock{Seconds: -1, BlockHeight: 100}, 100, mtp, false},
		{"height satisfied", SequenceLock{Seconds: -1, BlockHeight: 99}, 100, mtp, true},
		{"seconds not yet reached", SequenceLock{Seconds: 1000, BlockHeight: -1}, 100, mtp, false},
		{"seconds satisfied", SequenceLock{Seconds: 999, BlockHeight: -1}, 100, mtp, true},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			if got := test.lock.Active(test.height, test.mtp); got != test.want {
				t.Fatalf("Active() = %v, want %v", got, test.want)
			}
		})
	}
}

func TestCalcSequenceLockVersion1Disabled(t *testing.T) {
	chain := newTestChain(t)
	tip := chain.Tip()

	tx := wire.NewMsgTx(1)
	tx.TxIn = []*wire.TxIn{{PreviousOutpoint: wire.Outpoint{Hash: chainhash.Hash{1}, Index: 0}}}

	view := NewCoinView()
	lock, err := CalcSequenceLock(chain.db, tip, tx, view, tip.Height+1)
	if err != nil {
		t.Fatalf("CalcSequenceLock: %s", err)
	}
	if lock.Seconds != -1 || lock.BlockHeight != -1 {
		t.Fatalf("version-1 tx should be exempt from BIP68, got %+v", lock)
	}
}

func TestCalcSequenceLockBlockHeightForm(t *testing.T) {
	chain := newTestChain(t)
	genesis := chain.Tip()

	block := nextBlock(t, chain, genesis)
	if err := chain.Add(block); err != nil {
		t.Fatalf("Add: %s", err)
	}

	spent := block.Transactions[0]
	spentHash := spent.TxHash()

	tx := wire.NewMsgTx(2)
	tx.TxIn = []*wire.TxIn{{
		PreviousOutpoint: wire.Outpoint{Hash: spentHash, Index: 0},
		Sequence:         2, // relative lock-time of 2 blocks
	}}
	tx.TxOut = []*wire.TxOut{{Value: 1, PkScript: []byte{0x51}}}

	view := NewCoinView()
	view.AddCoin(spentHash, 0, &wire.Coin{
		Value:      spent.TxOut[0].Value,
		PkScript:   spent.TxOut[0].PkScript,
		Height:     genesis.Height + 1,
		IsCoinbase: true,
	}, genesis.Height+1, true)

	tip := chain.Tip()
	lock, err := CalcSequenceLock(chain.db, tip, tx, view, tip.Height+1)
	if err != nil {
		t.Fatalf("CalcSequenceLock: %s", err)
	}

	wantHeight := (genesis.Height + 1) + 2 - 1
	if lock.BlockHeight != wantHeight {
		t.Fatalf("BlockHeight = %d, want %d", lock.BlockHeight, wantHeight)
	}
	if lock.Seconds != -1 {
		t.Fatalf("Seconds = %d, want -1 (block-count form only)", lock.Seconds)
	}

	if lock.Active(tip.Height, time.Now()) {
		t.Fatalf("lock should not be active yet at the confirming height")
	}
	if !lock.Active(wantHeight+1, time.Now()) {
		t.Fatalf("lock should be active once its block height is cleared")
	}
}

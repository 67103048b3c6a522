// Copyright (c) 2013-2016 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package blockchain

import (
	"testing"
	"time"

	"github.com/ledgerbase/ledgerd/chainhash"
)

func TestAddExtendsTip(t *testing.T) {
	chain := newTestChain(t)
	genesis := chain.Tip()

	block := nextBlock(t, chain, genesis)
	if err := chain.Add(block); err != nil {
		t.Fatalf("Add: %s", err)
	}

	tip := chain.Tip()
	if tip.Height != genesis.Height+1 {
		t.Fatalf("tip height = %d, want %d", tip.Height, genesis.Height+1)
	}
	if tip.Hash != block.BlockHash() {
		t.Fatalf("tip hash = %s, want %s", tip.Hash, block.BlockHash())
	}
}

func TestAddRejectsDuplicateBlock(t *testing.T) {
	chain := newTestChain(t)
	block := nextBlock(t, chain, chain.Tip())

	if err := chain.Add(block); err != nil {
		t.Fatalf("first Add: %s", err)
	}
	err := chain.Add(block)
	if !IsErrorCode(err, ErrDuplicateBlock) {
		t.Fatalf("second Add: got %v, want ErrDuplicateBlock", err)
	}
}

func TestAddParksOrphan(t *testing.T) {
	chain := newTestChain(t)
	genesis := chain.Tip()

	block1 := nextBlock(t, chain, genesis)
	entry1 := newChainEntry(&block1.Header, genesis)
	block2 := nextBlock(t, chain, entry1)

	if err := chain.Add(block2); err != nil {
		t.Fatalf("Add orphan: %s", err)
	}
	if chain.Tip().Height != genesis.Height {
		t.Fatalf("tip advanced on an orphan block")
	}
	if !chain.HasOrphan(block2.BlockHash()) {
		t.Fatalf("block2 not tracked as an orphan")
	}

	if err := chain.Add(block1); err != nil {
		t.Fatalf("Add parent: %s", err)
	}
	if chain.Tip().Height != genesis.Height+2 {
		t.Fatalf("tip height = %d, want %d (orphan should have resolved)", chain.Tip().Height, genesis.Height+2)
	}
	if chain.HasOrphan(block2.BlockHash()) {
		t.Fatalf("block2 still tracked as an orphan after its parent landed")
	}
}

func TestAddRejectsBadMerkleRoot(t *testing.T) {
	chain := newTestChain(t)
	block := nextBlock(t, chain, chain.Tip())
	block.Header.MerkleRoot = chainhash.Hash{}

	err := chain.Add(block)
	if !IsErrorCode(err, ErrBadMerkleRoot) {
		t.Fatalf("Add: got %v, want ErrBadMerkleRoot", err)
	}
}

func TestAddRejectsStaleTimestamp(t *testing.T) {
	chain := newTestChain(t)
	genesis := chain.Tip()
	block := nextBlock(t, chain, genesis)
	block.Header.Timestamp = genesis.Timestamp.Add(-time.Second)
	solveBlock(block)

	err := chain.Add(block)
	if !IsErrorCode(err, ErrTimeTooOld) {
		t.Fatalf("Add: got %v, want ErrTimeTooOld", err)
	}
}

func TestReorganizeSwitchesToHeavierBranch(t *testing.T) {
	chain := newTestChain(t)
	genesis := chain.Tip()

	// Branch A: two blocks from genesis.
	a1 := nextBlock(t, chain, genesis)
	if err := chain.Add(a1); err != nil {
		t.Fatalf("Add a1: %s", err)
	}
	a1Entry := chain.Tip()
	a2 := nextBlock(t, chain, a1Entry)
	if err := chain.Add(a2); err != nil {
		t.Fatalf("Add a2: %s", err)
	}

	// Branch B: three blocks from genesis, overtaking A on cumulative
	// work purely by being longer (RegressionNetParams gives every block
	// equal, near-minimal difficulty).
	b1 := nextBlock(t, chain, genesis)
	b1.Header.Timestamp = a1.Header.Timestamp.Add(time.Second)
	solveBlock(b1)
	if err := chain.Add(b1); err != nil {
		t.Fatalf("Add b1: %s", err)
	}
	b1Entry := newChainEntry(&b1.Header, genesis)

	b2 := nextBlock(t, chain, b1Entry)
	if err := chain.Add(b2); err != nil {
		t.Fatalf("Add b2: %s", err)
	}
	b2Entry := newChainEntry(&b2.Header, b1Entry)

	b3 := nextBlock(t, chain, b2Entry)
	if err := chain.Add(b3); err != nil {
		t.Fatalf("Add b3: %s", err)
	}

	tip := chain.Tip()
	if tip.Hash != b3.BlockHash() {
		t.Fatalf("tip = %s, want branch B's tip %s", tip.Hash, b3.BlockHash())
	}
	if tip.Height != genesis.Height+3 {
		t.Fatalf("tip height = %d, want %d", tip.Height, genesis.Height+3)
	}
}

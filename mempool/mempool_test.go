// Copyright (c) 2013-2016 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package mempool

import (
	"testing"

	"github.com/ledgerbase/ledgerd/wire"
)

// spendTx builds a version-2 transaction spending spent's first output,
// reaching BIP68/CSV semantics via its sequence field.
func spendTx(spent *wire.MsgTx, value int64, sequence uint32) *wire.MsgTx {
	tx := wire.NewMsgTx(2)
	tx.TxIn = []*wire.TxIn{{
		PreviousOutpoint: wire.Outpoint{Hash: spent.TxHash(), Index: 0},
		Sequence:         sequence,
	}}
	tx.TxOut = []*wire.TxOut{{Value: value, PkScript: []byte{0x51}}}
	return tx
}

func TestProcessTransactionAcceptsSpendOfMaturedCoinbase(t *testing.T) {
	h := newTestHarness(t)

	// Mature the genesis-adjacent coinbase past CoinbaseMaturity (100 on
	// RegressionNetParams) so it is spendable.
	var spendable *wire.MsgTx
	for i := 0; i < 101; i++ {
		block := h.mineBlock(t)
		if i == 0 {
			spendable = block.Transactions[0]
		}
	}

	tx := spendTx(spendable, testSubsidy-1000, wire.MaxTxInSequenceNum)
	accepted, err := h.pool.ProcessTransaction(tx, false)
	if err != nil {
		t.Fatalf("ProcessTransaction: %s", err)
	}
	if len(accepted) != 1 || accepted[0].Hash != tx.TxHash() {
		t.Fatalf("unexpected accepted set: %+v", accepted)
	}
	if !h.pool.HasTx(tx.TxHash()) {
		t.Fatalf("transaction not recorded in pool")
	}
	if len(h.fees.txs) != 1 {
		t.Fatalf("fee estimator observed %d transactions, want 1", len(h.fees.txs))
	}
}

func TestProcessTransactionRejectsImmatureCoinbaseSpend(t *testing.T) {
	h := newTestHarness(t)
	block := h.mineBlock(t)
	spendable := block.Transactions[0]

	tx := spendTx(spendable, testSubsidy-1000, wire.MaxTxInSequenceNum)
	_, err := h.pool.ProcessTransaction(tx, false)
	if err == nil {
		t.Fatalf("expected rejection of immature coinbase spend")
	}
	if !IsRejectCode(err, RejectInvalid) {
		t.Fatalf("got %v, want RejectInvalid", err)
	}
}

func TestProcessTransactionRejectsPoolDoubleSpend(t *testing.T) {
	h := newTestHarness(t)
	var spendable *wire.MsgTx
	for i := 0; i < 101; i++ {
		block := h.mineBlock(t)
		if i == 0 {
			spendable = block.Transactions[0]
		}
	}

	a := spendTx(spendable, testSubsidy-1000, wire.MaxTxInSequenceNum)
	if _, err := h.pool.ProcessTransaction(a, false); err != nil {
		t.Fatalf("admitting A: %s", err)
	}

	b := spendTx(spendable, testSubsidy-2000, wire.MaxTxInSequenceNum)
	_, err := h.pool.ProcessTransaction(b, false)
	if err == nil {
		t.Fatalf("expected B to be rejected as a double-spend of A")
	}
	if !IsRejectCode(err, RejectDuplicate) {
		t.Fatalf("got %v, want RejectDuplicate", err)
	}
	if h.pool.HasTx(b.TxHash()) {
		t.Fatalf("B should not have been admitted")
	}
}

func TestProcessTransactionParksOrphanThenResolves(t *testing.T) {
	h := newTestHarness(t)
	var spendable *wire.MsgTx
	for i := 0; i < 101; i++ {
		block := h.mineBlock(t)
		if i == 0 {
			spendable = block.Transactions[0]
		}
	}

	parent := spendTx(spendable, testSubsidy-1000, wire.MaxTxInSequenceNum)
	child := spendTx(parent, testSubsidy-2000, wire.MaxTxInSequenceNum)

	accepted, err := h.pool.ProcessTransaction(child, true)
	if err != nil {
		t.Fatalf("ProcessTransaction(child): %s", err)
	}
	if len(accepted) != 0 {
		t.Fatalf("child should have parked as an orphan, not been accepted directly")
	}
	if !h.pool.HasOrphan(child.TxHash()) {
		t.Fatalf("child not tracked as an orphan")
	}

	accepted, err = h.pool.ProcessTransaction(parent, true)
	if err != nil {
		t.Fatalf("ProcessTransaction(parent): %s", err)
	}
	if len(accepted) != 2 {
		t.Fatalf("expected parent + resolved child, got %d entries", len(accepted))
	}
	if !h.pool.HasTx(parent.TxHash()) || !h.pool.HasTx(child.TxHash()) {
		t.Fatalf("parent and child should both be in the pool")
	}
	if h.pool.HasOrphan(child.TxHash()) {
		t.Fatalf("child should no longer be an orphan")
	}
}

func TestProcessTransactionRejectsOrphanWhenDisallowed(t *testing.T) {
	h := newTestHarness(t)
	var spendable *wire.MsgTx
	for i := 0; i < 101; i++ {
		block := h.mineBlock(t)
		if i == 0 {
			spendable = block.Transactions[0]
		}
	}

	parent := spendTx(spendable, testSubsidy-1000, wire.MaxTxInSequenceNum)
	child := spendTx(parent, testSubsidy-2000, wire.MaxTxInSequenceNum)

	_, err := h.pool.ProcessTransaction(child, false)
	if err == nil {
		t.Fatalf("expected rejection when orphans are disallowed")
	}
	if h.pool.HasOrphan(child.TxHash()) {
		t.Fatalf("child should not have been parked")
	}
}

func TestHandleBlockConnectedRemovesConfirmedTx(t *testing.T) {
	h := newTestHarness(t)
	var spendable *wire.MsgTx
	for i := 0; i < 101; i++ {
		block := h.mineBlock(t)
		if i == 0 {
			spendable = block.Transactions[0]
		}
	}

	tx := spendTx(spendable, testSubsidy-1000, wire.MaxTxInSequenceNum)
	if _, err := h.pool.ProcessTransaction(tx, false); err != nil {
		t.Fatalf("ProcessTransaction: %s", err)
	}

	h.mineBlock(t, tx)

	if h.pool.HasTx(tx.TxHash()) {
		t.Fatalf("confirmed transaction should have been removed from the pool")
	}
	if len(h.fees.blocks) == 0 {
		t.Fatalf("fee estimator should have observed the confirming block")
	}
}

func TestMiningDescsReflectsPoolContents(t *testing.T) {
	h := newTestHarness(t)
	var spendable *wire.MsgTx
	for i := 0; i < 101; i++ {
		block := h.mineBlock(t)
		if i == 0 {
			spendable = block.Transactions[0]
		}
	}

	tx := spendTx(spendable, testSubsidy-1000, wire.MaxTxInSequenceNum)
	if _, err := h.pool.ProcessTransaction(tx, false); err != nil {
		t.Fatalf("ProcessTransaction: %s", err)
	}

	descs := h.pool.MiningDescs()
	if len(descs) != 1 || descs[0].Tx.TxHash() != tx.TxHash() {
		t.Fatalf("unexpected mining descriptors: %+v", descs)
	}
	if !h.pool.HaveTransaction(tx.TxHash()) {
		t.Fatalf("HaveTransaction should report the pooled tx")
	}
}

func TestRejectCodeString(t *testing.T) {
	if got := RejectDuplicate.String(); got != "duplicate" {
		t.Fatalf("RejectDuplicate.String() = %q, want %q", got, "duplicate")
	}
	if got := RejectNonBIP68Final.String(); got != "non-BIP68-final" {
		t.Fatalf("RejectNonBIP68Final.String() = %q, want %q", got, "non-BIP68-final")
	}
}

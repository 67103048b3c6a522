// Copyright (c) 2013-2016 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package blockchain

import (
	"math"
	"testing"

	"github.com/ledgerbase/ledgerd/chaincfg"
	"github.com/ledgerbase/ledgerd/chainhash"
	"github.com/ledgerbase/ledgerd/database/memdb"
	"github.com/ledgerbase/ledgerd/txscript"
	"github.com/ledgerbase/ledgerd/wire"
)

// acceptAllVerifier is a txscript.Verifier stub that always succeeds; the
// blockchain package treats script execution as a black-box predicate, so
// its own tests exercise everything around that boundary rather than
// through it.
type acceptAllVerifier struct{}

func (acceptAllVerifier) VerifyInputs(tx *wire.MsgTx, flags txscript.ScriptFlags) (int, error) {
	return -1, nil
}

func (acceptAllVerifier) VerifyInputsParallel(tx *wire.MsgTx, flags txscript.ScriptFlags) (int, error) {
	return -1, nil
}

// zeroSigOps is a txscript.SigOpsCounter stub reporting no sigops, keeping
// the sigop-cost limit out of the chain package's own tests.
type zeroSigOps struct{}

func (zeroSigOps) CountSigOps(tx *wire.MsgTx) int { return 0 }

// newTestChain returns a fresh Chain over an in-memory database on
// chaincfg.RegressionNetParams, whose near-maximal PowLimit and
// ReduceMinDifficulty setting let tests mine blocks with only a few nonce
// tries each (see solveBlock).
func newTestChain(t *testing.T) *Chain {
	t.Helper()
	params := chaincfg.RegressionNetParams
	db, err := OpenChainDB(memdb.New(), &params, PruneConfig{})
	if err != nil {
		t.Fatalf("OpenChainDB: %s", err)
	}
	chain, err := NewChain(&params, db, acceptAllVerifier{}, zeroSigOps{})
	if err != nil {
		t.Fatalf("NewChain: %s", err)
	}
	return chain
}

// coinbaseTx returns a single-output coinbase transaction valid for a block
// at height, paying value to an arbitrary non-empty script.
func coinbaseTx(height int32, value int64) *wire.MsgTx {
	tx := wire.NewMsgTx(1)
	tx.TxIn = []*wire.TxIn{{
		PreviousOutpoint: wire.Outpoint{Index: math.MaxUint32},
		SignatureScript:  []byte{byte(height), 0x51},
	}}
	tx.TxOut = []*wire.TxOut{{Value: value, PkScript: []byte{0x51}}}
	return tx
}

// nextBlock builds a valid successor to prev containing extra (a coinbase
// covering the block subsidy plus any fees is prepended automatically),
// with header fields set so it clears checkProofOfWork, contextualChecks'
// timestamp/retarget checks, and checkBlockSanity's merkle-root check on
// RegressionNetParams.
func nextBlock(t *testing.T, chain *Chain, prev *ChainEntry, extra ...*wire.MsgTx) *wire.MsgBlock {
	t.Helper()
	subsidy := blockSubsidy(prev.Height+1, chain.params)
	var fees int64
	for _, tx := range extra {
		fees += txFeeForTest(t, chain, tx)
	}
	txs := append([]*wire.MsgTx{coinbaseTx(prev.Height+1, subsidy+fees)}, extra...)

	hashes := make([]chainhash.Hash, len(txs))
	for i, tx := range txs {
		hashes[i] = tx.TxHash()
	}

	block := &wire.MsgBlock{
		Header: wire.BlockHeader{
			Version:    1,
			PrevBlock:  prev.Hash,
			Timestamp:  prev.Timestamp.Add(chain.params.TargetTimePerBlock),
			Bits:       chain.params.PowLimitBits,
			MerkleRoot: wire.CalcMerkleRoot(hashes),
		},
		Transactions: txs,
	}
	solveBlock(block)
	return block
}

// solveBlock increments the header nonce until the block hash meets the
// target its bits encode; at the regtest limit about half of all hashes do.
func solveBlock(block *wire.MsgBlock) {
	target := CompactToBig(block.Header.Bits)
	for {
		hash := block.BlockHash()
		if hashToBig(&hash).Cmp(target) <= 0 {
			return
		}
		block.Header.Nonce++
	}
}

// txFeeForTest sums a transaction's resolved input value minus its output
// value, resolving inputs against the chain's persisted UTXO set.
func txFeeForTest(t *testing.T, chain *Chain, tx *wire.MsgTx) int64 {
	t.Helper()
	var in, out int64
	for _, txin := range tx.TxIn {
		coins, err := chain.DB().Coins(txin.PreviousOutpoint.Hash)
		if err != nil {
			t.Fatalf("resolving test fee input: %s", err)
		}
		coin := coins.Get(txin.PreviousOutpoint.Index)
		if coin == nil {
			t.Fatalf("resolving test fee input: coin not found")
		}
		in += coin.Value
	}
	for _, txout := range tx.TxOut {
		out += txout.Value
	}
	return in - out
}

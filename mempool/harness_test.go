// Copyright (c) 2013-2016 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package mempool

import (
	"math"
	"math/big"
	"testing"

	"github.com/ledgerbase/ledgerd/blockchain"
	"github.com/ledgerbase/ledgerd/chaincfg"
	"github.com/ledgerbase/ledgerd/chainhash"
	"github.com/ledgerbase/ledgerd/database/memdb"
	"github.com/ledgerbase/ledgerd/txscript"
	"github.com/ledgerbase/ledgerd/wire"
)

// testSubsidy is the block subsidy at every height this package's tests
// reach; RegressionNetParams halves only every 150 blocks, far past what
// any test here builds.
const testSubsidy = 50 * 100000000

type acceptAllVerifier struct{}

func (acceptAllVerifier) VerifyInputs(tx *wire.MsgTx, flags txscript.ScriptFlags) (int, error) {
	return -1, nil
}

func (acceptAllVerifier) VerifyInputsParallel(tx *wire.MsgTx, flags txscript.ScriptFlags) (int, error) {
	return -1, nil
}

type zeroSigOps struct{}

func (zeroSigOps) CountSigOps(tx *wire.MsgTx) int { return 0 }

// acceptAllStandardness treats every transaction as standard, keeping the
// require-standard gate out of tests that don't target it specifically.
type acceptAllStandardness struct{}

func (acceptAllStandardness) IsStandardTx(tx *wire.MsgTx, height int32) (bool, error) {
	return true, nil
}

// recordingFeeEstimator captures every observation the pool pushes to it,
// so tests can assert the pool actually drives the FeeEstimator sink.
type recordingFeeEstimator struct {
	txs    []*MempoolEntry
	blocks []int32
}

func (r *recordingFeeEstimator) ObserveTransaction(entry *MempoolEntry) {
	r.txs = append(r.txs, entry)
}

func (r *recordingFeeEstimator) ObserveBlock(height int32, txs []*MempoolEntry) {
	r.blocks = append(r.blocks, height)
}

// testHarness bundles a Chain and the TxPool tracking it, plus the fee
// estimator stub, for tests that need to drive admission against real
// chain state.
type testHarness struct {
	chain  *blockchain.Chain
	pool   *TxPool
	fees   *recordingFeeEstimator
	params *chaincfg.Params
}

func newTestHarness(t *testing.T) *testHarness {
	t.Helper()
	params := chaincfg.RegressionNetParams

	db, err := blockchain.OpenChainDB(memdb.New(), &params, blockchain.PruneConfig{})
	if err != nil {
		t.Fatalf("OpenChainDB: %s", err)
	}
	chain, err := blockchain.NewChain(&params, db, acceptAllVerifier{}, zeroSigOps{})
	if err != nil {
		t.Fatalf("NewChain: %s", err)
	}

	fees := &recordingFeeEstimator{}
	pool := New(&Config{
		Policy: Policy{
			MaxTxVersion:       2,
			MaxOrphanTxs:       10,
			MaxOrphanTxSize:    100000,
			MaxPoolSize:        1 << 20,
			MinRelayTxFee:      0,
			FreeTxRelayLimit:   15,
			MaxSigOpsCostPerTx: 80000,
			MaxAncestors:       25,
		},
		Params:       &params,
		Chain:        chain,
		Verifier:     acceptAllVerifier{},
		SigOps:       zeroSigOps{},
		Standard:     acceptAllStandardness{},
		FeeEstimator: fees,
	})
	pool.Subscribe(chain)

	return &testHarness{chain: chain, pool: pool, fees: fees, params: &params}
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

// mineBlock extends the harness's chain with a block containing extra
// (paying any fees to the coinbase), at the regtest proof-of-work limit
// (found with a short nonce search) and a timestamp safely past the tip's
// median time.
func (h *testHarness) mineBlock(t *testing.T, extra ...*wire.MsgTx) *wire.MsgBlock {
	t.Helper()
	prev := h.chain.Tip()

	var fees int64
	for _, tx := range extra {
		var in, out int64
		for _, txin := range tx.TxIn {
			coins, err := h.chain.DB().Coins(txin.PreviousOutpoint.Hash)
			if err != nil {
				t.Fatalf("resolving fee input: %s", err)
			}
			coin := coins.Get(txin.PreviousOutpoint.Index)
			in += coin.Value
		}
		for _, txout := range tx.TxOut {
			out += txout.Value
		}
		fees += in - out
	}

	txs := append([]*wire.MsgTx{coinbaseTx(prev.Height+1, testSubsidy+fees)}, extra...)
	hashes := make([]chainhash.Hash, len(txs))
	for i, tx := range txs {
		hashes[i] = tx.TxHash()
	}

	block := &wire.MsgBlock{
		Header: wire.BlockHeader{
			Version:    1,
			PrevBlock:  prev.Hash,
			Timestamp:  prev.Timestamp.Add(h.params.TargetTimePerBlock),
			Bits:       h.params.PowLimitBits,
			MerkleRoot: wire.CalcMerkleRoot(hashes),
		},
		Transactions: txs,
	}

	target := blockchain.CompactToBig(block.Header.Bits)
	for {
		hash := block.BlockHash()
		var reversed [chainhash.HashSize]byte
		for i := range reversed {
			reversed[i] = hash[chainhash.HashSize-1-i]
		}
		if new(big.Int).SetBytes(reversed[:]).Cmp(target) <= 0 {
			break
		}
		block.Header.Nonce++
	}

	if err := h.chain.Add(block); err != nil {
		t.Fatalf("Add block: %s", err)
	}
	return block
}

// Copyright (c) 2013-2016 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package blockchain

import (
	"strconv"
	"time"

	"github.com/ledgerbase/ledgerd/chaincfg"
	"github.com/ledgerbase/ledgerd/txscript"
	"github.com/ledgerbase/ledgerd/wire"
)

// maxSatoshi is the maximum number of satoshi that can exist: 21 million
// bitcoin, each divisible into 100 million units.
const maxSatoshi = 21000000 * 100000000

// maxBlockSigOpsCost is the maximum aggregate sigop cost a single block may
// carry across all of its transactions.
const maxBlockSigOpsCost = 80000

// maxTimeOffset bounds how far a block's timestamp may sit ahead of the
// validating node's own clock.
const maxTimeOffset = 2 * time.Hour

// blockSubsidy returns the block reward at height: 50 BTC, halving every
// SubsidyReductionInterval blocks, floored to zero once the halving shift
// would overflow.
func blockSubsidy(height int32, params *chaincfg.Params) int64 {
	if params.SubsidyReductionInterval <= 0 {
		return baseSubsidy
	}
	halvings := uint(height) / uint(params.SubsidyReductionInterval)
	if halvings >= 64 {
		return 0
	}
	return baseSubsidy >> halvings
}

const baseSubsidy = 50 * 100000000

// checkBlockSanity validates structural properties of block that do not
// depend on chain context: coinbase placement, merkle root, and per-tx
// sanity.
func checkBlockSanity(block *wire.MsgBlock) error {
	if len(block.Transactions) == 0 {
		return ruleError(ErrNoTransactions, "block has no transactions")
	}
	if !block.Transactions[0].IsCoinBase() {
		return ruleError(ErrFirstTxNotCoinbase, "first transaction in block is not a coinbase")
	}
	for _, tx := range block.Transactions[1:] {
		if tx.IsCoinBase() {
			return ruleError(ErrMultipleCoinbases, "block contains more than one coinbase")
		}
	}
	for _, tx := range block.Transactions {
		if err := checkTransactionSanity(tx); err != nil {
			return err
		}
	}

	merkleRoot := wire.CalcMerkleRoot(block.TxHashes())
	if merkleRoot != block.Header.MerkleRoot {
		return ruleError(ErrBadMerkleRoot, "merkle root does not match computed value")
	}
	return nil
}

// checkTransactionSanity validates properties of tx that can be checked in
// isolation, without resolving its inputs: presence of inputs/outputs,
// output value range, and (for non-coinbase) absence of a null outpoint or
// duplicate input.
func checkTransactionSanity(tx *wire.MsgTx) error {
	if len(tx.TxIn) == 0 {
		return ruleError(ErrNoTxInputs, "transaction has no inputs")
	}
	if len(tx.TxOut) == 0 {
		return ruleError(ErrNoTxOutputs, "transaction has no outputs")
	}

	var total int64
	for _, out := range tx.TxOut {
		if out.Value < 0 || out.Value > maxSatoshi {
			return ruleError(ErrBadTxOutValue, "bad-txns-vout-negative or too large")
		}
		total += out.Value
		if total < 0 || total > maxSatoshi {
			return ruleError(ErrBadTxOutValue, "bad-txns-txouttotal-toolarge")
		}
	}

	if tx.IsCoinBase() {
		return nil
	}

	seen := make(map[wire.Outpoint]struct{}, len(tx.TxIn))
	for _, in := range tx.TxIn {
		if in.PreviousOutpoint.IsNull() {
			return ruleError(ErrBadTxInput, "bad-txns-prevout-null")
		}
		if _, ok := seen[in.PreviousOutpoint]; ok {
			return ruleError(ErrDuplicateTxInputs, "bad-txns-inputs-duplicate")
		}
		seen[in.PreviousOutpoint] = struct{}{}
	}
	return nil
}

// verifyTransaction resolves tx's inputs against view, checks maturity,
// value conservation, finality, and (if a Verifier is configured) script
// execution, then spends the resolved inputs out of view. It returns the
// spent coins (for the block's undo record) and the fee the transaction
// pays.
func (c *Chain) verifyTransaction(tx *wire.MsgTx, view *CoinView, prev *ChainEntry, height int32, mtp time.Time, flags txscript.ScriptFlags, verifier txscript.Verifier) ([]SpentCoin, int64, error) {
	var totalIn, totalOut int64
	for _, in := range tx.TxIn {
		coin := view.Get(in.PreviousOutpoint.Hash, in.PreviousOutpoint.Index)
		if coin == nil {
			return nil, 0, ruleError(ErrMissingTxOut, "bad-txns-inputs-missingorspent")
		}
		if coin.IsCoinbase && height-coin.Height < int32(c.params.CoinbaseMaturity) {
			return nil, 0, ruleError(ErrImmatureSpend, "bad-txns-premature-spend-of-coinbase")
		}
		in.Coin = coin
		totalIn += coin.Value
	}
	for _, out := range tx.TxOut {
		totalOut += out.Value
	}
	if totalIn < totalOut {
		return nil, 0, ruleError(ErrSpendTooHigh, "bad-txns-in-belowout")
	}

	if !tx.IsFinalized(height, mtp.Unix()) {
		return nil, 0, ruleError(ErrUnfinalizedTx, "bad-txns-nonfinal")
	}

	if flags&txscript.ScriptVerifyCheckSequenceVerify != 0 {
		lock, err := CalcSequenceLock(c.db, prev, tx, view, height)
		if err != nil {
			return nil, 0, err
		}
		if !lock.Active(height, mtp) {
			return nil, 0, ruleError(ErrUnfinalizedTx, "bad-txns-nonfinal")
		}
	}

	if verifier != nil {
		if idx, err := verifier.VerifyInputsParallel(tx, flags); err != nil {
			code := ErrScriptValidation
			if flags&txscript.ScriptBip16 != 0 {
				code = ErrMandatoryScriptValidation
			}
			return nil, 0, ruleError(code, scriptErrorDescription(idx, err))
		}
	}

	spent := make([]SpentCoin, 0, len(tx.TxIn))
	for _, in := range tx.TxIn {
		coin := view.Spend(in.PreviousOutpoint.Hash, in.PreviousOutpoint.Index)
		spent = append(spent, SpentCoin{Hash: in.PreviousOutpoint.Hash, Index: in.PreviousOutpoint.Index, Coin: coin})
	}
	return spent, totalIn - totalOut, nil
}

func scriptErrorDescription(idx int, err error) string {
	return "mandatory-script-verify-flag-failed: input " + strconv.Itoa(idx) + ": " + err.Error()
}

// Copyright (c) 2013-2016 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package blockchain

import (
	"testing"

	"github.com/ledgerbase/ledgerd/chaincfg"
	"github.com/ledgerbase/ledgerd/wire"
)

func TestBlockSubsidyHalves(t *testing.T) {
	params := &chaincfg.RegressionNetParams
	interval := int32(params.SubsidyReductionInterval)

	if got := blockSubsidy(0, params); got != baseSubsidy {
		t.Fatalf("subsidy at height 0 = %d, want %d", got, baseSubsidy)
	}
	if got := blockSubsidy(interval, params); got != baseSubsidy/2 {
		t.Fatalf("subsidy at first halving = %d, want %d", got, baseSubsidy/2)
	}
	if got := blockSubsidy(interval*64, params); got != 0 {
		t.Fatalf("subsidy after 64 halvings = %d, want 0", got)
	}
}

func TestCheckTransactionSanityRejectsEmptyInputs(t *testing.T) {
	tx := wire.NewMsgTx(1)
	tx.TxOut = []*wire.TxOut{{Value: 1, PkScript: []byte{0x51}}}

	err := checkTransactionSanity(tx)
	if !IsErrorCode(err, ErrNoTxInputs) {
		t.Fatalf("got %v, want ErrNoTxInputs", err)
	}
}

func TestCheckTransactionSanityRejectsDuplicateInputs(t *testing.T) {
	tx := wire.NewMsgTx(1)
	op := wire.Outpoint{Index: 0}
	tx.TxIn = []*wire.TxIn{
		{PreviousOutpoint: op},
		{PreviousOutpoint: op},
	}
	tx.TxOut = []*wire.TxOut{{Value: 1, PkScript: []byte{0x51}}}

	err := checkTransactionSanity(tx)
	if !IsErrorCode(err, ErrDuplicateTxInputs) {
		t.Fatalf("got %v, want ErrDuplicateTxInputs", err)
	}
}

func TestCheckTransactionSanityRejectsOutOfRangeValue(t *testing.T) {
	tx := wire.NewMsgTx(1)
	tx.TxIn = []*wire.TxIn{{PreviousOutpoint: wire.Outpoint{Index: 0, Hash: [32]byte{1}}}}
	tx.TxOut = []*wire.TxOut{{Value: maxSatoshi + 1, PkScript: []byte{0x51}}}

	err := checkTransactionSanity(tx)
	if !IsErrorCode(err, ErrBadTxOutValue) {
		t.Fatalf("got %v, want ErrBadTxOutValue", err)
	}
}

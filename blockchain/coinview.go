// Copyright (c) 2013-2016 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package blockchain

import (
	"sort"

	"github.com/ledgerbase/ledgerd/chainhash"
	"github.com/ledgerbase/ledgerd/wire"
)

// CoinView is a block-local overlay over the persistent UTXO set: reads
// resolve only against the coins already installed here (callers seed it
// from ChainDB first; a miss returns nil), and every spend or new output
// accumulates here, so only the net change a block produces needs to reach
// ChainDB.
type CoinView struct {
	entries map[chainhash.Hash]*Coins
}

// NewCoinView returns an empty overlay.
func NewCoinView() *CoinView {
	return &CoinView{entries: make(map[chainhash.Hash]*Coins)}
}

// Add installs a whole Coins bundle, replacing any bundle already held for
// the same transaction hash. Used to seed the overlay from a bulk
// ChainDB read.
func (v *CoinView) Add(coins *Coins) {
	v.entries[coins.TxHash] = coins
}

// AddCoin installs a single confirmed output, creating a backing Coins
// bundle of the right width (all other slots unknown/spent) if this is
// the first output seen for that transaction.
func (v *CoinView) AddCoin(txHash chainhash.Hash, index uint32, coin *wire.Coin, height int32, isCoinbase bool) {
	bundle, ok := v.entries[txHash]
	if !ok {
		bundle = &Coins{
			Version:    coinsVersion,
			TxHash:     txHash,
			Height:     height,
			IsCoinbase: isCoinbase,
			Outputs:    make([]*wire.Coin, index+1),
		}
		v.entries[txHash] = bundle
	} else if int(index) >= len(bundle.Outputs) {
		grown := make([]*wire.Coin, index+1)
		copy(grown, bundle.Outputs)
		bundle.Outputs = grown
	}
	bundle.Outputs[index] = coin
}

// AddTx installs every output of tx as a freshly confirmed Coins bundle at
// height, overwriting whatever was previously held for its hash.
func (v *CoinView) AddTx(tx *wire.MsgTx, height int32, isCoinbase bool) {
	v.Add(NewCoinsFromTx(tx, height, isCoinbase))
}

// Get returns the coin at (hash, index) without removing it, or nil if it
// is unknown to the overlay or already spent.
func (v *CoinView) Get(hash chainhash.Hash, index uint32) *wire.Coin {
	bundle, ok := v.entries[hash]
	if !ok {
		return nil
	}
	return bundle.Get(index)
}

// Has reports whether (hash, index) resolves to an unspent coin.
func (v *CoinView) Has(hash chainhash.Hash, index uint32) bool {
	return v.Get(hash, index) != nil
}

// Spend removes and returns the coin at (hash, index); the bundle is left
// in place (possibly now empty) so ChainDB.applyConnect can tell whether to
// delete or rewrite it.
func (v *CoinView) Spend(hash chainhash.Hash, index uint32) *wire.Coin {
	bundle, ok := v.entries[hash]
	if !ok {
		return nil
	}
	return bundle.Spend(index)
}

// FillCoins resolves every input of tx against the overlay, returning false
// (and touching nothing) if any prevout is missing or already spent.
// Coinbase transactions (a single null-outpoint input) trivially succeed.
func (v *CoinView) FillCoins(tx *wire.MsgTx) bool {
	if tx.IsCoinBase() {
		return true
	}
	for _, in := range tx.TxIn {
		if !v.Has(in.PreviousOutpoint.Hash, in.PreviousOutpoint.Index) {
			return false
		}
	}
	return true
}

// Entry returns the raw Coins bundle backing hash and whether the overlay
// holds one for it (nil and false if not).
func (v *CoinView) Entry(hash chainhash.Hash) (*Coins, bool) {
	bundle, ok := v.entries[hash]
	return bundle, ok
}

// ToArray returns every bundle held in the overlay in a deterministic
// (hash-sorted) order; iteration order is otherwise irrelevant to
// correctness, but a stable order keeps tests reproducible.
func (v *CoinView) ToArray() []*Coins {
	result := make([]*Coins, 0, len(v.entries))
	for _, bundle := range v.entries {
		result = append(result, bundle)
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].TxHash.String() < result[j].TxHash.String()
	})
	return result
}

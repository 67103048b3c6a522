// Copyright (c) 2014-2016 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package mining

import (
	"time"

	"github.com/ledgerbase/ledgerd/chainhash"
	"github.com/ledgerbase/ledgerd/wire"
)

// TxDesc is a descriptor about a transaction in a transaction source along
// with additional metadata used to prioritize it for inclusion in a block
// template.
type TxDesc struct {
	// Tx is the transaction associated with the entry.
	Tx *wire.MsgTx

	// Added is the time when the entry was added to the source pool.
	Added time.Time

	// Height is the chain height at which the entry was added to the
	// source pool.
	Height int32

	// Fee is the total fee the transaction associated with the entry pays,
	// in base units.
	Fee int64

	// FeePerKB is the fee the transaction pays per 1000 bytes of its
	// serialized size.
	FeePerKB int64
}

// TxSource represents a source of transactions to consider for inclusion in
// new block templates.
//
// The interface contract requires that all of these methods are safe for
// concurrent access with respect to the source. A block template assembler
// is the intended consumer of this interface; assembling the template
// itself (transaction selection, size/sigop budgeting, coinbase
// construction) is not a concern this package addresses.
type TxSource interface {
	// LastUpdated returns the last time a transaction was added to or
	// removed from the source pool.
	LastUpdated() time.Time

	// MiningDescs returns a slice of mining descriptors for all the
	// transactions in the source pool.
	MiningDescs() []*TxDesc

	// HaveTransaction returns whether or not the passed transaction hash
	// exists in the source pool.
	HaveTransaction(hash chainhash.Hash) bool
}

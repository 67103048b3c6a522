// Copyright (c) 2013-2016 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package feeestimator provides the event sink mempool.TxPool drives as it
// admits and confirms transactions. No estimation algorithm lives here: a
// real fee-rate estimator is an external collaborator that would implement
// mempool.FeeEstimator by consuming the same two observations this package's
// NopEstimator discards.
package feeestimator

import "github.com/ledgerbase/ledgerd/mempool"

// NopEstimator discards every observation. It satisfies
// mempool.FeeEstimator for callers that have no fee-rate estimator wired up
// yet but still need a TxPool to run.
type NopEstimator struct{}

// ObserveTransaction does nothing.
func (NopEstimator) ObserveTransaction(entry *mempool.MempoolEntry) {}

// ObserveBlock does nothing.
func (NopEstimator) ObserveBlock(height int32, txs []*mempool.MempoolEntry) {}

// Copyright (c) 2013-2016 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package mempool

import (
	"time"

	"github.com/ledgerbase/ledgerd/blockchain"
	"github.com/ledgerbase/ledgerd/chaincfg"
	"github.com/ledgerbase/ledgerd/txscript"
)

// feeHalflife is a half-life, in blocks, for the pool's rolling minimum
// relay fee rate. No code reads it: the rolling minimum is never decayed.
const feeHalflife = 12

// freeRelayDecayInterval is the period over which the free-transaction
// relay allowance decays by its usual factor.
const freeRelayDecayInterval = 10 * time.Minute

// maxOrphanTTL bounds how long an orphan transaction may sit in the orphan
// pool before the next scan evicts it regardless of space pressure.
const maxOrphanTTL = 15 * time.Minute

// Policy houses the configuration knobs that shape admission beyond bare
// consensus validity: standardness, fee gating, and resource bounds.
type Policy struct {
	// MaxTxVersion is the highest transaction version accepted; versions
	// above this are rejected as nonstandard.
	MaxTxVersion int32

	// RequireStandard, when true, rejects nonstandard transactions and
	// inputs (the inverse of chaincfg.Params.RelayNonStdTxs).
	RequireStandard bool

	// MaxOrphanTxs bounds the number of orphan transactions held at
	// once; the pool evicts at random when full.
	MaxOrphanTxs int

	// MaxOrphanTxSize bounds the serialized size of any single orphan,
	// limiting memory exhaustion from large orphans.
	MaxOrphanTxSize int

	// MaxPoolSize bounds the pool's total estimated memory usage; once it
	// is exceeded the pool evicts entries older than mempoolExpiry (oldest
	// first), then the lowest fee-rate entries.
	MaxPoolSize int64

	// MinRelayTxFee is the minimum fee rate, in satoshis per 1000 bytes,
	// considered non-zero for relay purposes.
	MinRelayTxFee int64

	// FreeTxRelayLimit bounds the rate, in KB per minute, at which
	// the pool accepts free (zero- or below-minimum-fee) transactions.
	FreeTxRelayLimit float64

	// RelayPriority, when true, allows a transaction below MinRelayTxFee
	// to be admitted anyway if its priority clears FreeThreshold.
	RelayPriority bool

	// FreeThreshold is the minimum priority (coin-age-weighted value per
	// byte) a below-fee transaction must clear under RelayPriority.
	FreeThreshold float64

	// MaxSigOpsCostPerTx bounds the aggregate sigop cost of any single
	// transaction admitted to the pool.
	MaxSigOpsCostPerTx int

	// MaxAncestors bounds the length of a transaction's in-pool ancestor
	// chain; deeper chains are rejected to keep package-relay bounded.
	MaxAncestors int

	// MaxOrphanTTL bounds how long an orphan may sit unresolved before
	// the next scan evicts it.
	MaxOrphanTTL time.Duration
}

// Config bundles a Policy with the collaborators the pool needs to resolve
// inputs, classify standardness, verify scripts, and observe confirmed
// activity: the chain it tracks, a script verifier/sigop-counter/
// standardness-checker (all boundary interfaces owned by txscript), and an
// optional fee-estimator sink.
type Config struct {
	Policy Policy

	Params *chaincfg.Params

	Chain *blockchain.Chain

	Verifier     txscript.Verifier
	SigOps       txscript.SigOpsCounter
	Standard     txscript.StandardnessChecker
	FeeEstimator FeeEstimator
}

// FeeEstimator receives a stream of confirmed/pool activity so an external
// component can build a fee-rate estimate. No estimation algorithm is
// implemented here; this is strictly the observation sink the pool drives.
type FeeEstimator interface {
	// ObserveTransaction records that entry entered the pool at the fee
	// rate it paid.
	ObserveTransaction(entry *MempoolEntry)

	// ObserveBlock records that the transactions in txs were confirmed
	// at height.
	ObserveBlock(height int32, txs []*MempoolEntry)
}

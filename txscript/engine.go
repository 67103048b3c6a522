// Copyright (c) 2013-2017 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package txscript defines the boundary between the chain/mempool core and
// the script interpreter and signature-verification machinery. The
// interpreter itself, ECDSA/Schnorr verification, and hash primitives are
// external collaborators: this package only names the predicates the core
// calls through (Verifier.VerifyInputs) and the flag sets that select which
// consensus/standardness rules are active for a given check.
package txscript

import (
	"github.com/ledgerbase/ledgerd/wire"
)

// ScriptFlags is a bitmask defining the script-execution rules in effect for
// a given verification. Mandatory flags are consensus-critical; standard
// flags add relay-policy-only checks on top.
type ScriptFlags uint32

const (
	// ScriptBip16 defines whether the bip16 pay-to-script-hash rules are
	// enabled.
	ScriptBip16 ScriptFlags = 1 << iota

	// ScriptVerifyDERSignatures defines that signatures are required to
	// comply with the DER format.
	ScriptVerifyDERSignatures

	// ScriptVerifyLowS defines that signatures are required to comply with
	// the strict low S requirement.
	ScriptVerifyLowS

	// ScriptVerifyCheckLockTimeVerify defines whether to allow execution
	// of the OP_CHECKLOCKTIMEVERIFY opcode (BIP65).
	ScriptVerifyCheckLockTimeVerify

	// ScriptVerifyCheckSequenceVerify defines whether to allow execution
	// of the OP_CHECKSEQUENCEVERIFY opcode (BIP112).
	ScriptVerifyCheckSequenceVerify

	// ScriptVerifyWitness defines whether or not segwit-style witness
	// verification is in effect (BIP141).
	ScriptVerifyWitness

	// ScriptVerifyMinimalData defines whether signatures must use the
	// smallest possible push operator.
	ScriptVerifyMinimalData

	// ScriptVerifyCleanStack defines that the stack must contain only one
	// element after evaluation and that the element must be true.
	ScriptVerifyCleanStack

	// ScriptVerifyNullFail defines that signatures must be empty on
	// failed CHECKSIG/CHECKMULTISIG.
	ScriptVerifyNullFail

	// ScriptDiscourageUpgradableNops defines whether to discourage the use
	// of NOPs reserved for future soft-fork upgrades. It is relay policy
	// only, never consensus-critical.
	ScriptDiscourageUpgradableNops
)

// StandardVerifyFlags are the flags applied to mempool admission and relay:
// the mandatory flags plus extra standardness constraints.
const StandardVerifyFlags = MandatoryVerifyFlags |
	ScriptVerifyDERSignatures |
	ScriptVerifyLowS |
	ScriptVerifyMinimalData |
	ScriptVerifyCleanStack |
	ScriptVerifyNullFail |
	ScriptDiscourageUpgradableNops

// MandatoryVerifyFlags are the flags every block connecting to the chain
// must satisfy regardless of deployment state; failing these is a
// ban-worthy consensus violation rather than a relay-policy rejection.
// ScriptVerifyCheckSequenceVerify and ScriptVerifyWitness are deployment
// gated (BIP9) and are added on top of this base set once their
// respective deployment's threshold state is ACTIVE at the block being
// verified; see blockchain.activeScriptFlags.
const MandatoryVerifyFlags = ScriptBip16 |
	ScriptVerifyCheckLockTimeVerify

// LockTimeThreshold is re-exported from wire for callers that only import
// txscript; transactions with LockTime below this value are interpreted as
// block heights, at or above as Unix timestamps.
const LockTimeThreshold = wire.LockTimeThreshold

// Verifier verifies the scripts of a transaction's inputs against their
// resolved coins. Implementations may fan input verification out across a
// worker pool; VerifyInputs must behave as a single atomic predicate from
// the caller's perspective: the first failing input aborts the whole call.
type Verifier interface {
	// VerifyInputs checks every input of tx against the coins it spends,
	// in order, under the given flag set. Each input's wire.TxIn.Coin
	// must already be populated. It returns the index of the first
	// failing input and a descriptive error, or (-1, nil) if every input
	// validated.
	VerifyInputs(tx *wire.MsgTx, flags ScriptFlags) (failedInputIndex int, err error)

	// VerifyInputsParallel is equivalent to VerifyInputs but allowed to
	// check inputs concurrently; it is used for block connection, where
	// every input must be checked regardless of ordering. Pool mechanics
	// are left entirely to the implementation.
	VerifyInputsParallel(tx *wire.MsgTx, flags ScriptFlags) (failedInputIndex int, err error)
}

// SigOpsCounter computes the signature-operation cost of a transaction or a
// single output script, used to enforce the per-tx and per-block sigop
// limits. The concrete opcode-counting logic lives in the script
// interpreter; this interface is the boundary the core calls through.
type SigOpsCounter interface {
	// CountSigOps returns the sigop cost of tx given its resolved inputs.
	// Coins must already be attached to each TxIn (see wire.TxIn.Coin).
	CountSigOps(tx *wire.MsgTx) int
}

// StandardnessChecker classifies scripts and transactions as standard or
// not, for the mempool's require-standard gate. The concrete template
// matching (P2PKH, P2SH, P2WPKH, multisig bounds, ...) lives in the script
// interpreter; this interface is the boundary the core calls through.
type StandardnessChecker interface {
	// IsStandardTx reports whether tx and all of its input/output scripts
	// match one of the recognized standard templates.
	IsStandardTx(tx *wire.MsgTx, height int32) (bool, error)
}

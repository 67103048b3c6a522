// Copyright (c) 2013-2016 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package blockchain

import "fmt"

// ErrorCode identifies the specific reason a RuleError was raised.
type ErrorCode int

const (
	// ErrDuplicateBlock indicates a block with the same hash already exists.
	ErrDuplicateBlock ErrorCode = iota

	// ErrBlockTooBig indicates the serialized block exceeds the maximum
	// allowed size.
	ErrBlockTooBig

	// ErrInvalidTime indicates the block's timestamp could not be parsed.
	ErrInvalidTime

	// ErrTimeTooOld indicates the block's timestamp is not after the
	// median time of the preceding blocks.
	ErrTimeTooOld

	// ErrTimeTooNew indicates the block's timestamp is too far in the
	// future.
	ErrTimeTooNew

	// ErrDifficultyTooLow indicates the block's claimed difficulty is
	// lower than the minimum allowed for the network.
	ErrDifficultyTooLow

	// ErrUnexpectedDifficulty indicates the block's claimed bits do not
	// match the value computed from the retarget rules.
	ErrUnexpectedDifficulty

	// ErrHighHash indicates the block hash does not satisfy the claimed
	// proof-of-work target.
	ErrHighHash

	// ErrBadMerkleRoot indicates the merkle root computed from the
	// block's transactions does not match the one in the header.
	ErrBadMerkleRoot

	// ErrBadCheckpoint indicates a block at a checkpoint height does not
	// match the checkpoint hash.
	ErrBadCheckpoint

	// ErrForkTooOld indicates a reorg target is below the last checkpoint.
	ErrForkTooOld

	// ErrNoTransactions indicates a block contains no transactions.
	ErrNoTransactions

	// ErrNoTxInputs indicates a transaction has no inputs.
	ErrNoTxInputs

	// ErrNoTxOutputs indicates a transaction has no outputs.
	ErrNoTxOutputs

	// ErrBadTxOutValue indicates a transaction output value is outside
	// the valid satoshi range.
	ErrBadTxOutValue

	// ErrDuplicateTxInputs indicates a transaction spends the same
	// outpoint more than once.
	ErrDuplicateTxInputs

	// ErrBadTxInput indicates a transaction input references a null
	// outpoint outside of a coinbase.
	ErrBadTxInput

	// ErrMissingTxOut indicates a transaction input spends an outpoint
	// that does not exist in the UTXO set.
	ErrMissingTxOut

	// ErrUnfinalizedTx indicates a transaction is not yet final per its
	// locktime/sequence fields.
	ErrUnfinalizedTx

	// ErrDuplicateTx indicates a non-coinbase transaction duplicates one
	// already fully spent earlier in the chain (BIP30).
	ErrDuplicateTx

	// ErrImmatureSpend indicates an input attempts to spend a coinbase
	// output before it has matured.
	ErrImmatureSpend

	// ErrSpendTooHigh indicates a transaction's outputs exceed its inputs.
	ErrSpendTooHigh

	// ErrTooManySigOps indicates a transaction or block exceeds the
	// sigop-cost limit.
	ErrTooManySigOps

	// ErrFirstTxNotCoinbase indicates the first transaction in a block is
	// not a coinbase.
	ErrFirstTxNotCoinbase

	// ErrMultipleCoinbases indicates a block contains more than one
	// coinbase transaction.
	ErrMultipleCoinbases

	// ErrScriptMalformed indicates a script could not be parsed.
	ErrScriptMalformed

	// ErrScriptValidation indicates a transaction input's script failed
	// verification.
	ErrScriptValidation

	// ErrMandatoryScriptValidation indicates a script failed verification
	// under a mandatory (consensus-critical) flag.
	ErrMandatoryScriptValidation

	// ErrParentBlockUnknown indicates a block's previous block is not in
	// the database.
	ErrParentBlockUnknown

	// ErrInvalidAncestorBlock indicates a block descends from a block
	// previously rejected as invalid.
	ErrInvalidAncestorBlock

	// ErrReorgDepthExceeded indicates a reorganization would disconnect
	// blocks below the pruning horizon.
	ErrReorgDepthExceeded

	// ErrMissingCoinbaseHeight indicates a block version requiring the
	// BIP34 height-in-coinbase rule does not carry it.
	ErrMissingCoinbaseHeight

	// ErrBadVersion indicates a block's version is outdated relative to
	// the supermajority of recent blocks that have upgraded.
	ErrBadVersion
)

var errorCodeStrings = map[ErrorCode]string{
	ErrDuplicateBlock:            "ErrDuplicateBlock",
	ErrBlockTooBig:               "ErrBlockTooBig",
	ErrInvalidTime:               "ErrInvalidTime",
	ErrTimeTooOld:                "ErrTimeTooOld",
	ErrTimeTooNew:                "ErrTimeTooNew",
	ErrDifficultyTooLow:          "ErrDifficultyTooLow",
	ErrUnexpectedDifficulty:      "ErrUnexpectedDifficulty",
	ErrHighHash:                  "ErrHighHash",
	ErrBadMerkleRoot:             "ErrBadMerkleRoot",
	ErrBadCheckpoint:             "ErrBadCheckpoint",
	ErrForkTooOld:                "ErrForkTooOld",
	ErrNoTransactions:            "ErrNoTransactions",
	ErrNoTxInputs:                "ErrNoTxInputs",
	ErrNoTxOutputs:               "ErrNoTxOutputs",
	ErrBadTxOutValue:             "ErrBadTxOutValue",
	ErrDuplicateTxInputs:         "ErrDuplicateTxInputs",
	ErrBadTxInput:                "ErrBadTxInput",
	ErrMissingTxOut:              "ErrMissingTxOut",
	ErrUnfinalizedTx:             "ErrUnfinalizedTx",
	ErrDuplicateTx:               "ErrDuplicateTx",
	ErrImmatureSpend:             "ErrImmatureSpend",
	ErrSpendTooHigh:              "ErrSpendTooHigh",
	ErrTooManySigOps:             "ErrTooManySigOps",
	ErrFirstTxNotCoinbase:        "ErrFirstTxNotCoinbase",
	ErrMultipleCoinbases:         "ErrMultipleCoinbases",
	ErrScriptMalformed:           "ErrScriptMalformed",
	ErrScriptValidation:          "ErrScriptValidation",
	ErrMandatoryScriptValidation: "ErrMandatoryScriptValidation",
	ErrParentBlockUnknown:        "ErrParentBlockUnknown",
	ErrInvalidAncestorBlock:      "ErrInvalidAncestorBlock",
	ErrReorgDepthExceeded:        "ErrReorgDepthExceeded",
	ErrMissingCoinbaseHeight:     "ErrMissingCoinbaseHeight",
	ErrBadVersion:                "ErrBadVersion",
}

// String returns the ErrorCode in human-readable form.
func (e ErrorCode) String() string {
	if s, ok := errorCodeStrings[e]; ok {
		return s
	}
	return fmt.Sprintf("Unknown ErrorCode (%d)", int(e))
}

// banScore maps each ErrorCode to the ban-worthiness score named in the
// error handling design: 0 for purely informational conditions, up to 100
// for a provably invalid block that should get its sender banned.
var banScore = map[ErrorCode]int{
	ErrDuplicateBlock:            0,
	ErrBlockTooBig:               100,
	ErrInvalidTime:               100,
	ErrTimeTooOld:                100,
	ErrTimeTooNew:                20,
	ErrDifficultyTooLow:          0,
	ErrUnexpectedDifficulty:      100,
	ErrHighHash:                  100,
	ErrBadMerkleRoot:             100,
	ErrBadCheckpoint:             100,
	ErrForkTooOld:                0,
	ErrNoTransactions:            100,
	ErrNoTxInputs:                100,
	ErrNoTxOutputs:               100,
	ErrBadTxOutValue:             100,
	ErrDuplicateTxInputs:         100,
	ErrBadTxInput:                100,
	ErrMissingTxOut:              100,
	ErrUnfinalizedTx:             100,
	ErrDuplicateTx:               100,
	ErrImmatureSpend:             100,
	ErrSpendTooHigh:              100,
	ErrTooManySigOps:             100,
	ErrFirstTxNotCoinbase:        100,
	ErrMultipleCoinbases:         100,
	ErrScriptMalformed:           100,
	ErrScriptValidation:          0,
	ErrMandatoryScriptValidation: 100,
	ErrParentBlockUnknown:        0,
	ErrInvalidAncestorBlock:      100,
	ErrReorgDepthExceeded:        0,
	ErrMissingCoinbaseHeight:     100,
	ErrBadVersion:                100,
}

// RuleError identifies a consensus or structural rule violation. It carries
// the offending ErrorCode plus a human-readable description; Score reports
// the associated ban-worthiness so a peer layer (outside this module) can
// decide whether to disconnect or ban the sender.
type RuleError struct {
	ErrorCode   ErrorCode
	Description string
}

// Error satisfies the error interface.
func (e RuleError) Error() string {
	return e.Description
}

// Score returns this error's ban-worthiness, 0 (informational) to 100
// (provably invalid, ban-worthy).
func (e RuleError) Score() int {
	return banScore[e.ErrorCode]
}

func ruleError(c ErrorCode, desc string) RuleError {
	return RuleError{ErrorCode: c, Description: desc}
}

// IsErrorCode reports whether err is a RuleError carrying code c.
func IsErrorCode(err error, c ErrorCode) bool {
	ruleErr, ok := err.(RuleError)
	return ok && ruleErr.ErrorCode == c
}

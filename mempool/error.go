// Copyright (c) 2013-2016 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package mempool

import "fmt"

// RejectCode categorizes why admission rejected a transaction, mirroring
// the reject codes a peer layer would relay back to the transaction's
// sender.
type RejectCode int

const (
	// RejectInvalid indicates the transaction is structurally or
	// consensus invalid.
	RejectInvalid RejectCode = iota

	// RejectNonstandard indicates the transaction (or one of its inputs)
	// does not match a recognized standard template.
	RejectNonstandard

	// RejectDuplicate indicates the transaction double-spends an output
	// another pool transaction already spends.
	RejectDuplicate

	// RejectAlreadyKnown indicates the transaction is already present in
	// the pool or already confirmed; distinguished from RejectDuplicate (a conflicting spend)
	// for callers that want to treat "already have it" as a no-op rather
	// than a rejection.
	RejectAlreadyKnown

	// RejectInsufficientFee indicates the transaction's fee does not
	// meet the pool's current minimum relay rate.
	RejectInsufficientFee

	// RejectHighFee indicates the transaction's fee exceeds a fixed
	// absolute cap (MinRelayTxFee*10000), whatever its size, suggesting a fee-calculation mistake by the
	// sender rather than a deliberate high-priority bid.
	RejectHighFee

	// RejectNonmandatoryScript indicates script execution failed under a
	// standardness-only (non-mandatory) verify flag.
	RejectNonmandatoryScript

	// RejectMandatoryScript indicates script execution failed under a
	// consensus-mandatory verify flag; this is never legitimate and
	// scores as ban-worthy.
	RejectMandatoryScript

	// RejectNonBIP68Final indicates an input's BIP68 relative lock-time
	// has not yet matured.
	RejectNonBIP68Final

	// RejectNonFinal indicates the transaction's absolute locktime has
	// not yet matured.
	RejectNonFinal

	// RejectCoinbase indicates a standalone coinbase transaction was
	// submitted directly to the pool.
	RejectCoinbase

	// RejectPrematureVersion2Tx indicates a version-2-or-above
	// transaction (which implies CSV semantics) was submitted before the
	// CSV deployment is active.
	RejectPrematureVersion2Tx

	// RejectNoWitnessYet indicates a witness transaction was submitted
	// before the segwit deployment is active.
	RejectNoWitnessYet
)

var rejectCodeStrings = map[RejectCode]string{
	RejectInvalid:             "invalid",
	RejectNonstandard:         "nonstandard",
	RejectDuplicate:           "duplicate",
	RejectAlreadyKnown:        "alreadyknown",
	RejectInsufficientFee:     "insufficientfee",
	RejectHighFee:             "highfee",
	RejectNonmandatoryScript:  "nonmandatory-script",
	RejectMandatoryScript:     "mandatory-script",
	RejectNonBIP68Final:       "non-BIP68-final",
	RejectNonFinal:            "non-final",
	RejectCoinbase:            "coinbase",
	RejectPrematureVersion2Tx: "premature-version2-tx",
	RejectNoWitnessYet:        "no-witness-yet",
}

// String returns the RejectCode's wire-level reject reason string.
func (c RejectCode) String() string {
	if s, ok := rejectCodeStrings[c]; ok {
		return s
	}
	return fmt.Sprintf("unknown reject code (%d)", int(c))
}

// rejectScore maps each RejectCode to its ban-worthiness: 0 for conditions
// an honest, unsynchronized peer could legitimately trigger, up to 100 for
// conditions that only a malicious or broken sender could cause.
var rejectScore = map[RejectCode]int{
	RejectInvalid:             100,
	RejectNonstandard:         0,
	RejectDuplicate:           0,
	RejectAlreadyKnown:        0,
	RejectInsufficientFee:     0,
	RejectHighFee:             0,
	RejectNonmandatoryScript:  0,
	RejectMandatoryScript:     100,
	RejectNonBIP68Final:       0,
	RejectNonFinal:            0,
	RejectCoinbase:            100,
	RejectPrematureVersion2Tx: 0,
	RejectNoWitnessYet:        0,
}

// TxRuleError identifies why the pool refused to admit a transaction.
type TxRuleError struct {
	RejectCode  RejectCode
	Description string
}

// Error satisfies the error interface.
func (e TxRuleError) Error() string {
	return e.Description
}

// Score returns this rejection's ban-worthiness, 0 (informational) to 100
// (provably invalid, ban-worthy).
func (e TxRuleError) Score() int {
	return rejectScore[e.RejectCode]
}

func txRuleError(code RejectCode, desc string) TxRuleError {
	return TxRuleError{RejectCode: code, Description: desc}
}

// chainRuleError wraps a blockchain.RuleError surfaced while resolving an
// input or applying chain-level tx-sanity rules, classifying it under
// RejectInvalid so callers that only switch on RejectCode still see a
// sensible bucket.
func chainRuleError(err error) TxRuleError {
	return txRuleError(RejectInvalid, err.Error())
}

// IsRejectCode reports whether err is a TxRuleError carrying code c.
func IsRejectCode(err error, c RejectCode) bool {
	ruleErr, ok := err.(TxRuleError)
	return ok && ruleErr.RejectCode == c
}

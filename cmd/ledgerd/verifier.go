// Copyright (c) 2013-2016 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package main

import (
	"github.com/ledgerbase/ledgerd/txscript"
	"github.com/ledgerbase/ledgerd/wire"
)

// passthroughScriptEngine is a placeholder txscript.Verifier /
// txscript.SigOpsCounter / txscript.StandardnessChecker. The script
// interpreter, signature verification, and hashing primitives this core
// consumes as black-box predicates are out of scope for this module (see
// the txscript package doc); a deployment wires a real engine in here by
// replacing this type with one satisfying the same three interfaces.
type passthroughScriptEngine struct{}

func (passthroughScriptEngine) VerifyInputs(tx *wire.MsgTx, flags txscript.ScriptFlags) (int, error) {
	return -1, nil
}

func (passthroughScriptEngine) VerifyInputsParallel(tx *wire.MsgTx, flags txscript.ScriptFlags) (int, error) {
	return -1, nil
}

func (passthroughScriptEngine) CountSigOps(tx *wire.MsgTx) int {
	return 0
}

func (passthroughScriptEngine) IsStandardTx(tx *wire.MsgTx, height int32) (bool, error) {
	return true, nil
}

// Copyright (c) 2013-2016 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package blockchain

import (
	"fmt"

	"github.com/ledgerbase/ledgerd/chaincfg"
	"github.com/ledgerbase/ledgerd/txscript"
)

// ThresholdState is a BIP9 soft-fork deployment's current state:
// DEFINED -> STARTED -> (LOCKED_IN | FAILED) -> ACTIVE. LOCKED_IN and
// ACTIVE are separated by one more confirmation window so that every node
// has a full window's notice before the new rules become mandatory.
type ThresholdState int

const (
	ThresholdDefined ThresholdState = iota
	ThresholdStarted
	ThresholdLockedIn
	ThresholdActive
	ThresholdFailed
)

func (s ThresholdState) String() string {
	switch s {
	case ThresholdDefined:
		return "defined"
	case ThresholdStarted:
		return "started"
	case ThresholdLockedIn:
		return "locked_in"
	case ThresholdActive:
		return "active"
	case ThresholdFailed:
		return "failed"
	default:
		return fmt.Sprintf("unknown threshold state (%d)", int(s))
	}
}

// deploymentState computes deployment's ThresholdState as of prev (i.e. the
// state that governs the next block after prev), by replaying every
// confirmation window from the deployment's first eligible window up to
// and including prev's.
//
// Transitions are evaluated once per confirmation-window boundary: DEFINED
// moves to STARTED once a window's median time reaches StartTime (straight
// to FAILED if ExpireTime has already passed); STARTED moves to LOCKED_IN
// once a window has at least RuleChangeActivationThreshold blocks
// signaling the deployment's bit, or to FAILED if ExpireTime passes first;
// LOCKED_IN always moves to ACTIVE after one further window; ACTIVE and
// FAILED are terminal.
func deploymentState(src ancestorSource, params *chaincfg.Params, deployment *chaincfg.ConsensusDeployment, prev *ChainEntry) (ThresholdState, error) {
	window := int32(params.MinerConfirmationWindow)
	if prev == nil || prev.Height+1 < window {
		return ThresholdDefined, nil
	}

	windowEnds, err := confirmationWindowEnds(src, prev, window)
	if err != nil {
		return ThresholdDefined, err
	}

	state := ThresholdDefined
	for _, node := range windowEnds {
		switch state {
		case ThresholdDefined:
			medianTime, err := node.calcPastMedianTime(src)
			if err != nil {
				return state, err
			}
			t := uint64(medianTime.Unix())
			switch {
			case t >= deployment.ExpireTime:
				state = ThresholdFailed
			case t >= deployment.StartTime:
				state = ThresholdStarted
			}

		case ThresholdStarted:
			medianTime, err := node.calcPastMedianTime(src)
			if err != nil {
				return state, err
			}
			if uint64(medianTime.Unix()) >= deployment.ExpireTime {
				state = ThresholdFailed
				continue
			}
			count, err := countSignalingBlocks(src, node, deployment.BitNumber, window)
			if err != nil {
				return state, err
			}
			if count >= int32(params.RuleChangeActivationThreshold) {
				state = ThresholdLockedIn
			}

		case ThresholdLockedIn:
			state = ThresholdActive

		case ThresholdActive, ThresholdFailed:
			// Terminal: nothing left to evaluate.
		}
	}
	return state, nil
}

// confirmationWindowEnds returns, in chronological order, the last entry of
// every confirmation window from the first window prev falls within back to
// the deployment's very first eligible window.
func confirmationWindowEnds(src ancestorSource, prev *ChainEntry, window int32) ([]*ChainEntry, error) {
	cur := prev
	for (cur.Height+1)%window != 0 {
		parent, err := src.entryByHash(&cur.PrevBlock)
		if err != nil {
			return nil, err
		}
		cur = parent
	}

	var ends []*ChainEntry
	for {
		ends = append(ends, cur)
		if cur.Height+1 == window {
			break
		}
		back, err := ancestorAtDistance(src, cur, window)
		if err != nil {
			return nil, err
		}
		cur = back
	}

	for i, j := 0, len(ends)-1; i < j; i, j = i+1, j-1 {
		ends[i], ends[j] = ends[j], ends[i]
	}
	return ends, nil
}

// countSignalingBlocks counts, among the window blocks ending at node
// (inclusive), how many carry bit in their version per the BIP9 top-bits
// signaling convention.
func countSignalingBlocks(src ancestorSource, node *ChainEntry, bit uint8, window int32) (int32, error) {
	count := int32(0)
	cur := node
	for i := int32(0); i < window; i++ {
		if cur.hasBit(bit) {
			count++
		}
		if cur.Height == 0 {
			break
		}
		parent, err := src.entryByHash(&cur.PrevBlock)
		if err != nil {
			return 0, err
		}
		cur = parent
	}
	return count, nil
}

// activeDeployments returns every deployment in params whose state at prev
// is ThresholdActive.
func activeDeployments(src ancestorSource, params *chaincfg.Params, prev *ChainEntry) ([]chaincfg.ConsensusDeployment, error) {
	var active []chaincfg.ConsensusDeployment
	for _, deployment := range params.Deployments {
		state, err := deploymentState(src, params, &deployment, prev)
		if err != nil {
			return nil, err
		}
		if state == ThresholdActive {
			active = append(active, deployment)
		}
	}
	return active, nil
}

// activeScriptFlags returns the verification flags in effect for a block
// connecting on top of prev: the always-mandatory base set plus
// ScriptVerifyCheckSequenceVerify and ScriptVerifyWitness once their
// respective deployments (CSV, Segwit) are ACTIVE at prev.
func activeScriptFlags(src ancestorSource, params *chaincfg.Params, prev *ChainEntry) (txscript.ScriptFlags, error) {
	flags := txscript.ScriptFlags(txscript.MandatoryVerifyFlags)

	csvState, err := deploymentState(src, params, &params.Deployments[chaincfg.DeploymentCSV], prev)
	if err != nil {
		return 0, err
	}
	if csvState == ThresholdActive {
		flags |= txscript.ScriptVerifyCheckSequenceVerify
	}

	segwitState, err := deploymentState(src, params, &params.Deployments[chaincfg.DeploymentSegwit], prev)
	if err != nil {
		return 0, err
	}
	if segwitState == ThresholdActive {
		flags |= txscript.ScriptVerifyWitness
	}

	return flags, nil
}

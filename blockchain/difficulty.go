// Copyright (c) 2013-2016 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package blockchain

import (
	"math/big"
	"time"

	"github.com/ledgerbase/ledgerd/chaincfg"
)

// retargetInterval returns the number of blocks between difficulty
// retargets for params.
func retargetInterval(params *chaincfg.Params) int32 {
	return int32(params.TargetTimespan / params.TargetTimePerBlock)
}

// calcNextRequiredDifficulty computes the "bits" field a block extending
// prev at newBlockTime must carry. At a retarget boundary the target is
// adjusted by the ratio of the actual to the expected timespan of the
// preceding interval, clamped to RetargetAdjustmentFactor in either
// direction; off-boundary it is unchanged, except on networks that opt
// into the special minimum-difficulty escape hatch for long inter-block
// gaps (regtest/testnet-style networks).
func calcNextRequiredDifficulty(src ancestorSource, params *chaincfg.Params, prev *ChainEntry, newBlockTime time.Time) (uint32, error) {
	if prev == nil {
		return params.PowLimitBits, nil
	}

	interval := retargetInterval(params)
	nextHeight := prev.Height + 1

	if nextHeight%interval != 0 {
		if params.ReduceMinDifficulty {
			allowMinTime := prev.Timestamp.Add(params.MinDiffReductionTime)
			if newBlockTime.After(allowMinTime) {
				return params.PowLimitBits, nil
			}
			return findPrevReducedDifficulty(src, params, prev)
		}
		return prev.Bits, nil
	}

	firstNode, err := ancestorAtDistance(src, prev, interval-1)
	if err != nil {
		return 0, err
	}

	actualTimespan := prev.Timestamp.Sub(firstNode.Timestamp)
	adjustedTimespan := clampTimespan(actualTimespan, params)

	oldTarget := CompactToBig(prev.Bits)
	newTarget := new(big.Int).Mul(oldTarget, big.NewInt(int64(adjustedTimespan/time.Second)))
	newTarget.Div(newTarget, big.NewInt(int64(params.TargetTimespan/time.Second)))

	powLimit := CompactToBig(params.PowLimitBits)
	if newTarget.Cmp(powLimit) > 0 {
		newTarget = powLimit
	}
	return BigToCompact(newTarget), nil
}

// clampTimespan bounds actual to [target/factor, target*factor].
func clampTimespan(actual time.Duration, params *chaincfg.Params) time.Duration {
	minTimespan := params.TargetTimespan / time.Duration(params.RetargetAdjustmentFactor)
	maxTimespan := params.TargetTimespan * time.Duration(params.RetargetAdjustmentFactor)
	switch {
	case actual < minTimespan:
		return minTimespan
	case actual > maxTimespan:
		return maxTimespan
	default:
		return actual
	}
}

// findPrevReducedDifficulty walks back through entries carrying the
// network's minimum difficulty at a non-retarget height to find the last
// block that doesn't, restoring the difficulty trend after a burst of
// minimum-difficulty blocks mined under the reduction rule.
func findPrevReducedDifficulty(src ancestorSource, params *chaincfg.Params, start *ChainEntry) (uint32, error) {
	interval := retargetInterval(params)
	cur := start
	for cur.Height%interval != 0 && cur.Bits == params.PowLimitBits {
		parent, err := src.entryByHash(&cur.PrevBlock)
		if err != nil {
			return 0, err
		}
		cur = parent
	}
	return cur.Bits, nil
}

// ancestorAtDistance returns the ancestor of e exactly distance blocks back
// (distance 0 returns e itself). If fewer than distance ancestors exist, the
// oldest available one is returned.
func ancestorAtDistance(src ancestorSource, e *ChainEntry, distance int32) (*ChainEntry, error) {
	if distance == 0 {
		return e, nil
	}
	ancestors, err := e.ancestors(src, int(distance))
	if err != nil {
		return nil, err
	}
	if len(ancestors) < int(distance) {
		return ancestors[len(ancestors)-1], nil
	}
	return ancestors[distance-1], nil
}

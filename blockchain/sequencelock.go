// Copyright (c) 2013-2016 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package blockchain

import (
	"time"

	"github.com/ledgerbase/ledgerd/wire"
)

// SequenceLock represents the converted relative lock-time in seconds and
// absolute block height that a transaction's inputs impose via BIP68. A
// value of -1 in either field means that input imposes no constraint of
// that kind.
type SequenceLock struct {
	Seconds     int64
	BlockHeight int32
}

// Active reports whether lock has been satisfied for inclusion in a block
// at height with the given median-time-past.
func (lock *SequenceLock) Active(height int32, mtp time.Time) bool {
	return lock.Seconds < mtp.Unix() && lock.BlockHeight < height
}

// CalcSequenceLock computes the relative lock-time constraint BIP68 imposes
// on tx, given its resolved inputs in view. tip is the chain tip the
// resulting lock should be evaluated against (its ancestor chain supplies
// the median-time-past of each input's confirming block); nextHeight is the
// height tx would occupy if included next (used for inputs that are
// themselves unconfirmed, i.e. still in the mempool).
//
// Transactions below version 2 are not subject to BIP68 and always return
// an inactive (-1, -1) lock; so does a coinbase, which has no spendable
// predecessor to impose a constraint.
func CalcSequenceLock(src ancestorSource, tip *ChainEntry, tx *wire.MsgTx, view *CoinView, nextHeight int32) (*SequenceLock, error) {
	lock := &SequenceLock{Seconds: -1, BlockHeight: -1}
	if tx.Version < 2 || tx.IsCoinBase() {
		return lock, nil
	}

	for _, in := range tx.TxIn {
		if in.Sequence&wire.SequenceLockTimeDisabled != 0 {
			continue
		}

		coin := view.Get(in.PreviousOutpoint.Hash, in.PreviousOutpoint.Index)
		if coin == nil {
			return nil, ruleError(ErrMissingTxOut, "bad-txns-inputs-missingorspent")
		}
		inputHeight := coin.Height
		if inputHeight < 0 {
			inputHeight = nextHeight
		}

		relativeLock := int64(in.Sequence & wire.SequenceLockTimeMask)

		if in.Sequence&wire.SequenceLockTimeIsSeconds != 0 {
			distance := tip.Height - (inputHeight - 1)
			ancestor := tip
			if distance > 0 {
				var err error
				ancestor, err = ancestorAtDistance(src, tip, distance)
				if err != nil {
					return nil, err
				}
			}
			mtp, err := ancestor.calcPastMedianTime(src)
			if err != nil {
				return nil, err
			}
			timeLock := mtp.Unix() + (relativeLock << wire.SequenceLockTimeGranularity) - 1
			if timeLock > lock.Seconds {
				lock.Seconds = timeLock
			}
		} else {
			blockHeight := inputHeight + int32(relativeLock) - 1
			if blockHeight > lock.BlockHeight {
				lock.BlockHeight = blockHeight
			}
		}
	}

	return lock, nil
}

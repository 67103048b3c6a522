// Copyright (c) 2013-2016 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package blockchain

import (
	"math/big"
	"sort"
	"time"

	"github.com/ledgerbase/ledgerd/chainhash"
	"github.com/ledgerbase/ledgerd/wire"
)

// medianTimeBlocks is the number of previous blocks whose timestamps are
// used to calculate the median time used for validating block timestamps
// and lock times.
const medianTimeBlocks = 11

// topMask and topBits isolate the BIP9 version-bits signaling top three
// bits: a version only counts as signaling for any deployment bit if the
// top three bits equal 001.
const (
	topMask = 0xe0000000
	topBits = 0x20000000
)

// ChainEntry is the in-memory representation of a stored block header: the
// header fields plus the height and cumulative chainwork derived once at
// construction, so that neither must be recomputed by walking the whole
// header chain at boot.
type ChainEntry struct {
	Hash       chainhash.Hash
	Version    int32
	PrevBlock  chainhash.Hash
	MerkleRoot chainhash.Hash
	Timestamp  time.Time
	Bits       uint32
	Nonce      uint32

	Height    int32
	Chainwork *big.Int
}

// newChainEntry builds a ChainEntry for a block whose parent is prev (nil
// for genesis). Chainwork saturates at 2**256, matching the contract that
// it never needs recomputation relative to a stored prior value.
func newChainEntry(header *wire.BlockHeader, prev *ChainEntry) *ChainEntry {
	entry := &ChainEntry{
		Hash:       header.BlockHash(),
		Version:    header.Version,
		PrevBlock:  header.PrevBlock,
		MerkleRoot: header.MerkleRoot,
		Timestamp:  header.Timestamp,
		Bits:       header.Bits,
		Nonce:      header.Nonce,
	}

	proof := CalcWork(header.Bits)
	if prev == nil {
		entry.Height = 0
		entry.Chainwork = proof
		return entry
	}

	entry.Height = prev.Height + 1
	work := new(big.Int).Add(prev.Chainwork, proof)
	if work.Cmp(oneLsh256) > 0 {
		work = new(big.Int).Set(oneLsh256)
	}
	entry.Chainwork = work
	return entry
}

// Header reconstructs the wire.BlockHeader this entry was built from.
func (e *ChainEntry) Header() wire.BlockHeader {
	return wire.BlockHeader{
		Version:    e.Version,
		PrevBlock:  e.PrevBlock,
		MerkleRoot: e.MerkleRoot,
		Timestamp:  e.Timestamp,
		Bits:       e.Bits,
		Nonce:      e.Nonce,
	}
}

// ancestorSource resolves a parent entry by hash; ChainDB implements it, so
// entry.go's ancestor-walking methods have no dependency on ChainDB's own
// struct definition (keeping entry.go unit-testable in isolation).
type ancestorSource interface {
	entryByHash(hash *chainhash.Hash) (*ChainEntry, error)
}

// ancestors walks prev_block pointers through src starting at e (exclusive)
// for up to max entries, ordered nearest-ancestor first. It stops early at
// genesis.
func (e *ChainEntry) ancestors(src ancestorSource, max int) ([]*ChainEntry, error) {
	result := make([]*ChainEntry, 0, max)
	cur := e
	for len(result) < max && cur.Height > 0 {
		parent, err := src.entryByHash(&cur.PrevBlock)
		if err != nil {
			return nil, err
		}
		result = append(result, parent)
		cur = parent
	}
	return result, nil
}

// calcPastMedianTime returns the median of this entry's own timestamp and
// the medianTimeBlocks-1 preceding it on the ancestor chain (BIP113's
// "median time past").
func (e *ChainEntry) calcPastMedianTime(src ancestorSource) (time.Time, error) {
	timestamps := make([]int64, 0, medianTimeBlocks)
	timestamps = append(timestamps, e.Timestamp.Unix())

	ancestors, err := e.ancestors(src, medianTimeBlocks-1)
	if err != nil {
		return time.Time{}, err
	}
	for _, a := range ancestors {
		timestamps = append(timestamps, a.Timestamp.Unix())
	}

	sort.Slice(timestamps, func(i, j int) bool { return timestamps[i] < timestamps[j] })
	return time.Unix(timestamps[len(timestamps)/2], 0), nil
}

// isSuperMajority reports whether at least required of the majorityWindow
// most recent entries strictly before e have a version greater than or
// equal to version. It is used for both the majority-reject-outdated and
// majority-enforce-upgrade soft-fork rules.
func (e *ChainEntry) isSuperMajority(src ancestorSource, version int32, majorityWindow, required int) (bool, error) {
	ancestors, err := e.ancestors(src, majorityWindow)
	if err != nil {
		return false, err
	}

	count := 0
	for _, a := range ancestors {
		if a.Version >= version {
			count++
		}
		if count >= required {
			return true, nil
		}
	}
	return false, nil
}

// hasBit reports whether this entry's version signals deployment bit with
// the BIP9 top-bits convention (top 3 bits must read 001).
func (e *ChainEntry) hasBit(bit uint8) bool {
	return uint32(e.Version)&topMask == topBits && uint32(e.Version)&(1<<bit) != 0
}

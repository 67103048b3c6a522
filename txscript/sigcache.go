// Copyright (c) 2015-2017 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package txscript

import "sync"

// SigCacheEntry identifies a signature that has already been verified
// against a given signature hash and public key.
type SigCacheEntry struct {
	SigHash   [32]byte
	Signature string
	PubKey    string
}

// SigCache mediates a concurrency-safe cache of already-verified
// signatures, so that re-validating the same (sighash, signature, pubkey)
// triple during a reorg or relay burst does not pay for ECDSA/Schnorr
// verification twice. The verification routine that populates the cache
// lives outside this package; SigCache only remembers outcomes the caller
// has already computed.
type SigCache struct {
	sync.RWMutex
	validSigs  map[SigCacheEntry]struct{}
	maxEntries uint
}

// NewSigCache creates and initializes a new instance of SigCache. The
// maxEntries parameter is the maximum number of entries allowed to exist in
// the SigCache at any particular moment.
func NewSigCache(maxEntries uint) *SigCache {
	return &SigCache{
		validSigs:  make(map[SigCacheEntry]struct{}, maxEntries),
		maxEntries: maxEntries,
	}
}

// Exists returns true if the entry is already known to be valid.
func (s *SigCache) Exists(entry SigCacheEntry) bool {
	s.RLock()
	_, ok := s.validSigs[entry]
	s.RUnlock()
	return ok
}

// Add records that entry's signature has already been checked and found
// valid. If the cache is full, an arbitrary existing entry is evicted to
// make room; this is deliberately cheaper than tracking recency and is
// acceptable because a false cache miss only costs one re-verification.
func (s *SigCache) Add(entry SigCacheEntry) {
	s.Lock()
	defer s.Unlock()

	if s.maxEntries == 0 {
		return
	}

	if uint(len(s.validSigs)) >= s.maxEntries {
		for k := range s.validSigs {
			delete(s.validSigs, k)
			break
		}
	}
	s.validSigs[entry] = struct{}{}
}

// Copyright (c) 2013-2016 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package mempool implements the transaction pool: admission, orphan
// handling, fee-rate-based eviction, double-spend detection, and the
// confirmation/reorganization paths that keep the pool in sync with the
// chain it tracks.
package mempool

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/ledgerbase/ledgerd/blockchain"
	"github.com/ledgerbase/ledgerd/chaincfg"
	"github.com/ledgerbase/ledgerd/chainhash"
	"github.com/ledgerbase/ledgerd/mining"
	"github.com/ledgerbase/ledgerd/txscript"
	"github.com/ledgerbase/ledgerd/wire"
	"github.com/pkg/errors"
)

// ErrMempoolFull is returned by addTx when the pool is over its size bound
// and eviction could not bring it back under, a back-pressure signal rather
// than a rejection of the specific transaction.
var ErrMempoolFull = errors.New("mempool: pool is full")

// TxPool satisfies mining.TxSource so a block template assembler can draw
// candidate transactions from it without an import cycle back into this
// package.
var _ mining.TxSource = (*TxPool)(nil)

// ErrOrphanPoolFull is returned when the orphan pool is at capacity and no
// victim could be evicted to make room.
var ErrOrphanPoolFull = errors.New("mempool: orphan pool is full")

// MempoolEntry describes one transaction admitted to the pool along with
// the bookkeeping admission and eviction need.
type MempoolEntry struct {
	Tx       *wire.MsgTx
	Hash     chainhash.Hash
	Height   int32     // height_at_entry: chain tip height when admitted
	Size     int64     // vsize
	Priority float64   // priority_at_entry
	Fee      int64     // satoshis
	Time     time.Time // ts
	FeeRate  float64   // satoshis per 1000 bytes, used for eviction ordering

	ChainValue int64 // sum of resolved input values

	// Ancestor-aggregate fields, computed once at admission: Count is this
	// entry plus its in-pool ancestors, Sizes/Fees the corresponding
	// aggregate size/fee. Count feeds the ancestor-chain limit; eviction
	// does not read these fields.
	Count int64
	Sizes int64
	Fees  int64

	Dependencies bool // true iff any input spends another pool entry
}

type orphanTx struct {
	tx         *wire.MsgTx
	expiration time.Time
}

// TxPool is the mempool's top-level handle: a single coherent admission
// pipeline plus orphan and conflict bookkeeping, safe for concurrent access
// from multiple callers.
type TxPool struct {
	lastUpdated int64 // unix seconds, accessed atomically

	mtx sync.RWMutex
	cfg Config

	pool    map[chainhash.Hash]*MempoolEntry
	spents  map[wire.Outpoint]*MempoolEntry
	orphans map[chainhash.Hash]*orphanTx
	waiting map[chainhash.Hash][]chainhash.Hash

	size int64 // running serialized-size estimate, bytes

	minFeeRate     float64 // current dynamic minimum relay rate, sat/KB
	lastRateUpdate time.Time

	freeCount      float64
	freeLastTime   time.Time
	nextOrphanScan time.Time
}

// New constructs an empty pool bound to cfg.
func New(cfg *Config) *TxPool {
	now := time.Now()
	return &TxPool{
		cfg:            *cfg,
		pool:           make(map[chainhash.Hash]*MempoolEntry),
		spents:         make(map[wire.Outpoint]*MempoolEntry),
		orphans:        make(map[chainhash.Hash]*orphanTx),
		waiting:        make(map[chainhash.Hash][]chainhash.Hash),
		minFeeRate:     float64(cfg.Policy.MinRelayTxFee),
		lastRateUpdate: now,
		freeLastTime:   now,
		nextOrphanScan: now.Add(orphanExpireScanInterval),
	}
}

// orphanExpireScanInterval is the minimum period between orphan-pool
// expiry scans; the scan only runs opportunistically when an orphan is
// added, not on an unconditional timer.
const orphanExpireScanInterval = 5 * time.Minute

// Count returns the number of transactions currently admitted to the pool.
func (mp *TxPool) Count() int {
	mp.mtx.RLock()
	defer mp.mtx.RUnlock()
	return len(mp.pool)
}

// HasTx reports whether hash names a transaction currently in the pool.
func (mp *TxPool) HasTx(hash chainhash.Hash) bool {
	mp.mtx.RLock()
	defer mp.mtx.RUnlock()
	_, ok := mp.pool[hash]
	return ok
}

// HasOrphan reports whether hash names a transaction currently parked in
// the orphan pool.
func (mp *TxPool) HasOrphan(hash chainhash.Hash) bool {
	mp.mtx.RLock()
	defer mp.mtx.RUnlock()
	_, ok := mp.orphans[hash]
	return ok
}

// FetchEntry returns the pool entry for hash, if present.
func (mp *TxPool) FetchEntry(hash chainhash.Hash) (*MempoolEntry, bool) {
	mp.mtx.RLock()
	defer mp.mtx.RUnlock()
	e, ok := mp.pool[hash]
	return e, ok
}

// CheckSpend returns the pool transaction that spends op, if any.
func (mp *TxPool) CheckSpend(op wire.Outpoint) *MempoolEntry {
	mp.mtx.RLock()
	defer mp.mtx.RUnlock()
	return mp.spents[op]
}

// LastUpdated returns the time the pool's contents last changed.
func (mp *TxPool) LastUpdated() time.Time {
	return time.Unix(atomic.LoadInt64(&mp.lastUpdated), 0)
}

// HaveTransaction reports whether hash names a transaction currently in the
// pool. It satisfies mining.TxSource.
func (mp *TxPool) HaveTransaction(hash chainhash.Hash) bool {
	return mp.HasTx(hash)
}

// MiningDescs returns a mining descriptor for every transaction currently
// admitted to the pool. It satisfies mining.TxSource, letting a block
// template assembler (out of scope here) draw candidate transactions from
// the pool without depending on mempool's internal entry representation.
func (mp *TxPool) MiningDescs() []*mining.TxDesc {
	mp.mtx.RLock()
	defer mp.mtx.RUnlock()

	descs := make([]*mining.TxDesc, 0, len(mp.pool))
	for _, entry := range mp.pool {
		descs = append(descs, &mining.TxDesc{
			Tx:       entry.Tx,
			Added:    entry.Time,
			Height:   entry.Height,
			Fee:      entry.Fee,
			FeePerKB: int64(entry.FeeRate * 1000),
		})
	}
	return descs
}

func (mp *TxPool) touch() {
	atomic.StoreInt64(&mp.lastUpdated, time.Now().Unix())
}

// ProcessTransaction is the external admission entry point (spec step
// "add_tx"): it runs the fail-fast admission pipeline and, on success,
// resolves any orphans that were waiting on tx. allowOrphan controls
// whether an unresolvable input parks tx as an orphan (true) or is
// reported as a plain rejection (false) — disabled for transactions
// reinserted during a re-org, which must either resolve immediately or be
// dropped.
func (mp *TxPool) ProcessTransaction(tx *wire.MsgTx, allowOrphan bool) ([]*MempoolEntry, error) {
	mp.mtx.Lock()
	defer mp.mtx.Unlock()

	missing, entry, err := mp.maybeAcceptTransaction(tx)
	if err != nil {
		return nil, err
	}
	if len(missing) > 0 {
		if !allowOrphan {
			return nil, txRuleError(RejectInvalid, "referenced transaction not found and orphans disallowed here")
		}
		if err := mp.maybeAddOrphan(tx); err != nil {
			return nil, err
		}
		return nil, nil
	}

	accepted := []*MempoolEntry{entry}
	accepted = append(accepted, mp.processOrphans(tx)...)
	mp.touch()
	return accepted, nil
}

// maybeAcceptTransaction runs admission steps 1-8 (alreadyknown/sanity/
// standardness/double-spend/fill-coins/verify/insert) and returns either
// the accepted entry, or the list of this transaction's unresolved parent
// hashes (an orphan), or an error.
func (mp *TxPool) maybeAcceptTransaction(tx *wire.MsgTx) ([]chainhash.Hash, *MempoolEntry, error) {
	hash := tx.TxHash()

	// Step 1: already known, in the pool or already mined.
	if _, ok := mp.pool[hash]; ok {
		return nil, nil, txRuleError(RejectAlreadyKnown, "already have transaction "+hash.String())
	}
	if _, err := mp.cfg.Chain.DB().Coins(hash); err == nil {
		return nil, nil, txRuleError(RejectAlreadyKnown, "transaction already exists in chain")
	} else if !errors.Is(err, blockchain.ErrCoinsNotFound) {
		return nil, nil, err
	}

	// Step 2: structural sanity.
	if err := checkTransactionSanity(tx); err != nil {
		return nil, nil, chainRuleError(err)
	}

	// Step 3: coinbase transactions are never standalone mempool entries.
	if tx.IsCoinBase() {
		return nil, nil, txRuleError(RejectCoinbase, "transaction "+hash.String()+" is an individual coinbase")
	}

	tip := mp.cfg.Chain.Tip()
	nextHeight := tip.Height + 1
	mtp, err := mp.cfg.Chain.MedianTimePast()
	if err != nil {
		return nil, nil, err
	}

	if !tx.IsFinalized(nextHeight, mtp.Unix()) {
		return nil, nil, txRuleError(RejectNonFinal, "transaction is not final")
	}

	// Step 4: standardness gate.
	if mp.cfg.Policy.RequireStandard {
		if err := mp.checkStandard(tx, nextHeight); err != nil {
			return nil, nil, err
		}
	}

	// Step 5: double-spend check against spents (I5/I6).
	if err := mp.checkPoolDoubleSpend(tx); err != nil {
		return nil, nil, err
	}

	// Step 6: fill coins from the pool, then the chain; park as orphan on
	// any miss.
	view := blockchain.NewCoinView()
	var missing []chainhash.Hash
	var parentsInPool []wire.Outpoint
	for _, in := range tx.TxIn {
		op := in.PreviousOutpoint
		if view.Has(op.Hash, op.Index) {
			continue
		}
		if coin, ok := mp.resolvePoolCoin(op); ok {
			view.AddCoin(op.Hash, op.Index, coin, -1, false)
			parentsInPool = append(parentsInPool, op)
			continue
		}
		coins, err := mp.cfg.Chain.DB().Coins(op.Hash)
		if err == nil {
			if coin := coins.Get(op.Index); coin != nil {
				view.AddCoin(op.Hash, op.Index, coin, coins.Height, coins.IsCoinbase)
				continue
			}
		} else if !errors.Is(err, blockchain.ErrCoinsNotFound) {
			return nil, nil, err
		}
		missing = append(missing, op.Hash)
	}
	if len(missing) > 0 {
		return missing, nil, nil
	}

	// Step 7: verify.
	entry, err := mp.verify(tx, view, nextHeight, mtp, parentsInPool)
	if err != nil {
		return nil, nil, err
	}

	// Step 8: insert.
	mp.insert(entry)

	// Step 9: eviction.
	mp.evict()

	log.Debugf("accepted transaction %s (pool size: %d)", hash, len(mp.pool))
	return nil, entry, nil
}

// resolvePoolCoin resolves op against an existing pool entry's outputs, if
// the spending output isn't itself already spent by another pool entry.
func (mp *TxPool) resolvePoolCoin(op wire.Outpoint) (*wire.Coin, bool) {
	entry, ok := mp.pool[op.Hash]
	if !ok {
		return nil, false
	}
	if int(op.Index) >= len(entry.Tx.TxOut) {
		return nil, false
	}
	if _, spent := mp.spents[op]; spent {
		return nil, false
	}
	out := entry.Tx.TxOut[op.Index]
	return &wire.Coin{Value: out.Value, PkScript: out.PkScript, Height: -1, IsCoinbase: false}, true
}

// checkPoolDoubleSpend enforces I5/I6: tx may not spend any outpoint
// already spent by a transaction in the pool.
func (mp *TxPool) checkPoolDoubleSpend(tx *wire.MsgTx) error {
	for _, in := range tx.TxIn {
		if spender, ok := mp.spents[in.PreviousOutpoint]; ok {
			return txRuleError(RejectDuplicate, "output "+in.PreviousOutpoint.String()+
				" already spent by transaction "+spender.Hash.String()+" in the pool")
		}
	}
	return nil
}

// checkStandard applies the standardness gate (step 4): locktime finality
// under lock-flags, version gating against CSV activation, witness gating
// against segwit activation, and template matching via the injected
// StandardnessChecker.
func (mp *TxPool) checkStandard(tx *wire.MsgTx, nextHeight int32) error {
	if tx.Version > mp.cfg.Policy.MaxTxVersion {
		return txRuleError(RejectNonstandard, "version too high")
	}
	if tx.Version >= 2 {
		csvActive, err := mp.cfg.Chain.DeploymentActive(chaincfg.DeploymentCSV)
		if err != nil {
			return err
		}
		if !csvActive {
			return txRuleError(RejectPrematureVersion2Tx, "premature version2 transaction before CSV activation")
		}
	}
	if tx.HasWitness() {
		segwitActive, err := mp.cfg.Chain.DeploymentActive(chaincfg.DeploymentSegwit)
		if err != nil {
			return err
		}
		if !segwitActive {
			return txRuleError(RejectNoWitnessYet, "witness transaction before segwit activation")
		}
	}
	if mp.cfg.Standard != nil {
		ok, err := mp.cfg.Standard.IsStandardTx(tx, nextHeight)
		if err != nil {
			return err
		}
		if !ok {
			return txRuleError(RejectNonstandard, "transaction does not match a standard template")
		}
	}
	return nil
}

// verify runs step 7's checks that require the resolved CoinView: sequence
// locks, sigop cost, the dynamic minimum fee, the free-relay rate limit,
// the absurd-fee guard, the ancestor-chain-length limit, input checks
// (coinbase maturity and value conservation, done inline here; the
// duplicate-input scan runs earlier, in checkTransactionSanity), and
// script execution.
func (mp *TxPool) verify(tx *wire.MsgTx, view *blockchain.CoinView, nextHeight int32, mtp time.Time, parentsInPool []wire.Outpoint) (*MempoolEntry, error) {
	hash := tx.TxHash()

	lock, err := mp.cfg.Chain.CalcSequenceLock(tx, view)
	if err != nil {
		return nil, err
	}
	if !lock.Active(nextHeight, mtp) {
		return nil, txRuleError(RejectNonBIP68Final, "transaction's sequence locks on inputs not met")
	}

	if mp.cfg.SigOps != nil && mp.cfg.SigOps.CountSigOps(tx) > mp.cfg.Policy.MaxSigOpsCostPerTx {
		return nil, txRuleError(RejectNonstandard, "transaction exceeds the sigop-cost limit")
	}

	var totalIn int64
	for _, in := range tx.TxIn {
		coin := view.Get(in.PreviousOutpoint.Hash, in.PreviousOutpoint.Index)
		if coin == nil {
			return nil, txRuleError(RejectInvalid, "bad-txns-inputs-missingorspent")
		}
		if coin.IsCoinbase && nextHeight-coin.Height < int32(mp.cfg.Params.CoinbaseMaturity) {
			return nil, txRuleError(RejectInvalid, "bad-txns-premature-spend-of-coinbase")
		}
		in.Coin = coin
		totalIn += coin.Value
	}
	var totalOut int64
	for _, out := range tx.TxOut {
		totalOut += out.Value
	}
	if totalIn < totalOut {
		return nil, txRuleError(RejectInvalid, "bad-txns-in-belowout")
	}
	fee := totalIn - totalOut

	size := int64(tx.SerializeSize())
	minFee := calcMinRequiredFee(size, mp.minFeeRate)
	priority := computePriority(tx, view, nextHeight)

	if fee < minFee {
		if !(mp.cfg.Policy.RelayPriority && priority > mp.cfg.Policy.FreeThreshold) {
			return nil, txRuleError(RejectInsufficientFee, "transaction fee is below the required amount")
		}
		if err := mp.limitFreeRelay(size); err != nil {
			return nil, err
		}
	}

	if mp.cfg.Policy.MinRelayTxFee > 0 && fee > mp.cfg.Policy.MinRelayTxFee*10000 {
		return nil, txRuleError(RejectHighFee, "transaction fee is absurdly high")
	}

	if count := mp.ancestorCount(parentsInPool); count > mp.cfg.Policy.MaxAncestors {
		return nil, txRuleError(RejectNonstandard, "transaction has too many unconfirmed ancestors")
	}

	if mp.cfg.Verifier != nil {
		flags := txscript.StandardVerifyFlags
		if idx, err := mp.cfg.Verifier.VerifyInputs(tx, flags); err != nil {
			code := RejectNonmandatoryScript
			if _, mandatoryErr := mp.cfg.Verifier.VerifyInputs(tx, txscript.MandatoryVerifyFlags); mandatoryErr != nil {
				code = RejectMandatoryScript
			}
			return nil, txRuleError(code, "mandatory-script-verify-flag-failed: input "+hash.String()+
				" index "+itoa(idx)+": "+err.Error())
		}
	}

	entry := &MempoolEntry{
		Tx:           tx,
		Hash:         hash,
		Height:       nextHeight - 1,
		Size:         size,
		Priority:     priority,
		Fee:          fee,
		Time:         time.Now(),
		FeeRate:      feeRate(fee, size),
		ChainValue:   totalIn,
		Dependencies: len(parentsInPool) > 0,
	}
	for _, op := range parentsInPool {
		if parent, ok := mp.pool[op.Hash]; ok {
			entry.Count += parent.Count
			entry.Sizes += parent.Sizes
			entry.Fees += parent.Fees
		}
	}
	entry.Count++
	entry.Sizes += size
	entry.Fees += fee

	return entry, nil
}

// ancestorCount returns the longest in-pool ancestor chain length implied
// by parentsInPool (each parent's own ancestor count, maximized, plus one
// for this transaction).
func (mp *TxPool) ancestorCount(parentsInPool []wire.Outpoint) int {
	count := 0
	for _, op := range parentsInPool {
		if parent, ok := mp.pool[op.Hash]; ok && int(parent.Count) > count {
			count = int(parent.Count)
		}
	}
	return count + 1
}

// insert records entry in the pool's indexes (step 8).
func (mp *TxPool) insert(entry *MempoolEntry) {
	mp.pool[entry.Hash] = entry
	for _, in := range entry.Tx.TxIn {
		mp.spents[in.PreviousOutpoint] = entry
	}
	mp.size += entry.Size
	if mp.cfg.FeeEstimator != nil {
		mp.cfg.FeeEstimator.ObserveTransaction(entry)
	}
}

// removeEntry deletes entry from every index, without touching its inputs'
// resolution (the caller decides whether those coins are now free or owned
// by the chain).
func (mp *TxPool) removeEntry(entry *MempoolEntry) {
	delete(mp.pool, entry.Hash)
	for _, in := range entry.Tx.TxIn {
		if mp.spents[in.PreviousOutpoint] == entry {
			delete(mp.spents, in.PreviousOutpoint)
		}
	}
	mp.size -= entry.Size
}

// removeWithDescendants removes entry and every pool transaction that
// (transitively) spends one of its outputs, emitting a conflict log line
// for each descendant removed this way.
func (mp *TxPool) removeWithDescendants(entry *MempoolEntry, reason string) {
	prevOut := wire.Outpoint{Hash: entry.Hash}
	for i := range entry.Tx.TxOut {
		prevOut.Index = uint32(i)
		if child := mp.spents[prevOut]; child != nil && child != entry {
			mp.removeWithDescendants(child, reason)
		}
	}
	mp.removeEntry(entry)
	log.Debugf("removed transaction %s from pool: %s", entry.Hash, reason)
}

// evict implements step 9: while the pool exceeds its configured size, it
// first evicts entries older than MaxOrphanTTL's confirmed-entry analogue
// (mempoolExpiry), then, if still over, the lowest fee-rate entry; each
// eviction bumps the rolling minimum fee rate to at least the evicted
// entry's own rate plus a minimum increment, so a burst of evictions
// raises the bar for what gets in next.
func (mp *TxPool) evict() {
	if mp.size <= mp.cfg.Policy.MaxPoolSize {
		return
	}

	now := time.Now()
	for mp.size > mp.cfg.Policy.MaxPoolSize {
		var victim *MempoolEntry
		for _, e := range mp.pool {
			if now.Sub(e.Time) <= mempoolExpiry {
				continue
			}
			if victim == nil || e.Time.Before(victim.Time) {
				victim = e
			}
		}
		if victim == nil {
			for _, e := range mp.pool {
				if victim == nil || e.FeeRate < victim.FeeRate {
					victim = e
				}
			}
		}
		if victim == nil {
			return
		}
		mp.removeWithDescendants(victim, "evicted for pool size")
		bumped := victim.FeeRate + minReasonableRelayFee
		if bumped > mp.minFeeRate {
			mp.minFeeRate = bumped
		}
	}
}

// mempoolExpiry is the age past which an entry becomes eligible for
// size-pressure eviction ahead of a still-fresh lower-fee entry.
const mempoolExpiry = 2 * time.Hour

// minReasonableRelayFee is added to an evicted entry's own rate when
// bumping the rolling minimum, so the bar moves strictly upward.
const minReasonableRelayFee = 1000

// limitFreeRelay enforces the free-transaction rate limit: an
// exponentially decaying counter of free bytes relayed, capped at
// FreeTxRelayLimit*10*1000 bytes, which with the counter's ten-minute time
// constant allows about FreeTxRelayLimit KB per minute.
func (mp *TxPool) limitFreeRelay(size int64) error {
	now := time.Now()
	elapsed := now.Sub(mp.freeLastTime).Seconds()
	mp.freeCount *= decayFactor(elapsed)
	mp.freeLastTime = now

	limit := mp.cfg.Policy.FreeTxRelayLimit * 10 * 1000
	if mp.freeCount+float64(size) >= limit {
		return txRuleError(RejectInsufficientFee, "free transaction rate limit exceeded")
	}
	mp.freeCount += float64(size)
	return nil
}

// decayFactor is (1 - 1/600)^elapsedSeconds, the per-second multiplicative
// decay with a 600-second (10-minute) time constant: after 600 seconds the
// counter is down to about 1/e (roughly 37%) of its value.
func decayFactor(elapsedSeconds float64) float64 {
	const base = 1 - 1.0/600
	result := 1.0
	for i := 0; i < int(elapsedSeconds); i++ {
		result *= base
	}
	return result
}

// calcMinRequiredFee computes the pool's reject-fee threshold for a
// transaction of the given size against the current dynamic minimum rate.
// That rate starts at MinRelayTxFee and is only raised, by evict; it does
// not decay back toward the configured floor as the pool empties.
func calcMinRequiredFee(size int64, rate float64) int64 {
	fee := int64(rate * float64(size) / 1000)
	if fee < 0 {
		fee = 0
	}
	return fee
}

func feeRate(fee, size int64) float64 {
	if size == 0 {
		return 0
	}
	return float64(fee) / float64(size) * 1000
}

// computePriority approximates classic coin-age priority: sum(input value
// * input age in blocks) / serialized size. Unconfirmed inputs (height -1)
// contribute zero age.
func computePriority(tx *wire.MsgTx, view *blockchain.CoinView, nextHeight int32) float64 {
	var weighted float64
	for _, in := range tx.TxIn {
		coin := view.Get(in.PreviousOutpoint.Hash, in.PreviousOutpoint.Index)
		if coin == nil || coin.Height < 0 {
			continue
		}
		age := nextHeight - coin.Height
		if age < 0 {
			age = 0
		}
		weighted += float64(coin.Value) * float64(age)
	}
	size := tx.SerializeSize()
	if size == 0 {
		return 0
	}
	return weighted / float64(size)
}

func itoa(n int) string {
	if n < 0 {
		return "-" + itoa(-n)
	}
	if n < 10 {
		return string(rune('0' + n))
	}
	return itoa(n/10) + string(rune('0'+n%10))
}

// checkTransactionSanity validates properties of tx checkable in isolation:
// presence of inputs/outputs and absence of a null outpoint or duplicate
// input (a standalone mempool transaction may never be a coinbase, so the
// null-outpoint rule applies unconditionally here, unlike the in-block
// check).
func checkTransactionSanity(tx *wire.MsgTx) error {
	if len(tx.TxIn) == 0 {
		return errors.New("transaction has no inputs")
	}
	if len(tx.TxOut) == 0 {
		return errors.New("transaction has no outputs")
	}
	var total int64
	for _, out := range tx.TxOut {
		if out.Value < 0 {
			return errors.New("bad-txns-vout-negative")
		}
		total += out.Value
	}
	seen := make(map[wire.Outpoint]struct{}, len(tx.TxIn))
	for _, in := range tx.TxIn {
		if in.PreviousOutpoint.IsNull() {
			return errors.New("bad-txns-prevout-null")
		}
		if _, ok := seen[in.PreviousOutpoint]; ok {
			return errors.New("bad-txns-inputs-duplicate")
		}
		seen[in.PreviousOutpoint] = struct{}{}
	}
	return nil
}

// maybeAddOrphan parks tx in the orphan pool, keyed by each of its missing
// parents, evicting expired or random victims to honor MaxOrphanTxs.
func (mp *TxPool) maybeAddOrphan(tx *wire.MsgTx) error {
	if tx.SerializeSize() > mp.cfg.Policy.MaxOrphanTxSize {
		return txRuleError(RejectNonstandard, "orphan transaction size exceeds limit")
	}

	mp.limitNumOrphans()
	if len(mp.orphans) >= mp.cfg.Policy.MaxOrphanTxs && mp.cfg.Policy.MaxOrphanTxs > 0 {
		return ErrOrphanPoolFull
	}

	hash := tx.TxHash()
	ttl := mp.cfg.Policy.MaxOrphanTTL
	if ttl == 0 {
		ttl = maxOrphanTTL
	}
	mp.orphans[hash] = &orphanTx{tx: tx, expiration: time.Now().Add(ttl)}
	for _, in := range tx.TxIn {
		mp.waiting[in.PreviousOutpoint.Hash] = append(mp.waiting[in.PreviousOutpoint.Hash], hash)
	}
	log.Debugf("stored orphan transaction %s (total orphans: %d)", hash, len(mp.orphans))
	return nil
}

// limitNumOrphans evicts expired orphans, then (if still at capacity) an
// arbitrary victim (map iteration order is unspecified, which is sufficient
// here — no ordering guarantee is needed beyond "not always the same one").
func (mp *TxPool) limitNumOrphans() {
	now := time.Now()
	if now.After(mp.nextOrphanScan) {
		for hash, o := range mp.orphans {
			if now.After(o.expiration) {
				mp.removeOrphan(hash)
			}
		}
		mp.nextOrphanScan = now.Add(orphanExpireScanInterval)
	}

	if mp.cfg.Policy.MaxOrphanTxs <= 0 || len(mp.orphans) < mp.cfg.Policy.MaxOrphanTxs {
		return
	}
	for hash := range mp.orphans {
		mp.removeOrphan(hash)
		break
	}
}

func (mp *TxPool) removeOrphan(hash chainhash.Hash) {
	o, ok := mp.orphans[hash]
	if !ok {
		return
	}
	for _, in := range o.tx.TxIn {
		waiting := mp.waiting[in.PreviousOutpoint.Hash]
		for i, h := range waiting {
			if h == hash {
				waiting = append(waiting[:i], waiting[i+1:]...)
				break
			}
		}
		if len(waiting) == 0 {
			delete(mp.waiting, in.PreviousOutpoint.Hash)
		} else {
			mp.waiting[in.PreviousOutpoint.Hash] = waiting
		}
	}
	delete(mp.orphans, hash)
}

// processOrphans implements step 10: after accepted's admission, every
// orphan waiting on accepted's hash is run through maybeAcceptTransaction
// again from step 1.
func (mp *TxPool) processOrphans(accepted *wire.MsgTx) []*MempoolEntry {
	hash := accepted.TxHash()
	var processed []*MempoolEntry

	queue := append([]chainhash.Hash(nil), mp.waiting[hash]...)
	for len(queue) > 0 {
		orphanHash := queue[0]
		queue = queue[1:]

		o, ok := mp.orphans[orphanHash]
		if !ok {
			continue
		}
		mp.removeOrphan(orphanHash)

		missing, entry, err := mp.maybeAcceptTransaction(o.tx)
		if err != nil {
			log.Debugf("discarding orphan %s: %s", orphanHash, err)
			continue
		}
		if len(missing) > 0 {
			if err := mp.maybeAddOrphan(o.tx); err != nil {
				log.Debugf("could not re-park orphan %s: %s", orphanHash, err)
			}
			continue
		}
		processed = append(processed, entry)
		queue = append(queue, mp.waiting[entry.Hash]...)
	}
	return processed
}

// HandleBlockConnected implements the confirmation path: every non-coinbase
// transaction in block is removed from the pool without disconnecting its
// inputs (the chain now owns them), and any orphan whose missing parent
// just landed is resolved.
func (mp *TxPool) HandleBlockConnected(block *wire.MsgBlock, height int32) {
	mp.mtx.Lock()
	defer mp.mtx.Unlock()

	var confirmed []*MempoolEntry
	for _, tx := range block.Transactions[1:] {
		hash := tx.TxHash()
		if entry, ok := mp.pool[hash]; ok {
			mp.removeEntry(entry)
			confirmed = append(confirmed, entry)
			log.Debugf("transaction %s confirmed in block at height %d", hash, height)
		}
		mp.processOrphans(tx)
	}
	if mp.cfg.FeeEstimator != nil && len(confirmed) > 0 {
		mp.cfg.FeeEstimator.ObserveBlock(height, confirmed)
	}
	mp.touch()
}

// HandleBlockDisconnected implements the re-org path: every non-coinbase
// transaction in block is reinserted into the pool at the block's own
// height, bypassing the fee gates (the network already accepted it once).
func (mp *TxPool) HandleBlockDisconnected(block *wire.MsgBlock, height int32) {
	mp.mtx.Lock()
	defer mp.mtx.Unlock()

	for _, tx := range block.Transactions[1:] {
		hash := tx.TxHash()
		if _, ok := mp.pool[hash]; ok {
			continue
		}
		view := blockchain.NewCoinView()
		resolved := true
		for _, in := range tx.TxIn {
			op := in.PreviousOutpoint
			if coin, ok := mp.resolvePoolCoin(op); ok {
				view.AddCoin(op.Hash, op.Index, coin, -1, false)
				continue
			}
			coins, err := mp.cfg.Chain.DB().Coins(op.Hash)
			if err != nil || coins.Get(op.Index) == nil {
				resolved = false
				break
			}
			coin := coins.Get(op.Index)
			view.AddCoin(op.Hash, op.Index, coin, coins.Height, coins.IsCoinbase)
		}
		if !resolved {
			continue
		}

		var fee, size int64 = 0, int64(tx.SerializeSize())
		var totalIn, totalOut int64
		for _, in := range tx.TxIn {
			totalIn += view.Get(in.PreviousOutpoint.Hash, in.PreviousOutpoint.Index).Value
		}
		for _, out := range tx.TxOut {
			totalOut += out.Value
		}
		fee = totalIn - totalOut

		entry := &MempoolEntry{
			Tx:         tx,
			Hash:       hash,
			Height:     height,
			Size:       size,
			Fee:        fee,
			Time:       time.Now(),
			FeeRate:    feeRate(fee, size),
			ChainValue: totalIn,
		}
		entry.Count, entry.Sizes, entry.Fees = 1, size, fee
		mp.insert(entry)
		log.Debugf("reinserted transaction %s from disconnected block at height %d", hash, height)
	}
	mp.touch()
}

// Subscribe wires the pool to chain's notifications so it tracks
// confirmation and re-org without the caller needing to forward events by
// hand.
func (mp *TxPool) Subscribe(chain *blockchain.Chain) {
	chain.Subscribe(func(n *blockchain.Notification) {
		switch n.Type {
		case blockchain.NTBlockConnected:
			data := n.Data.(*blockchain.BlockConnectedNotificationData)
			mp.HandleBlockConnected(data.Block, data.Entry.Height)
		case blockchain.NTBlockDisconnected:
			data := n.Data.(*blockchain.BlockDisconnectedNotificationData)
			mp.HandleBlockDisconnected(data.Block, data.Entry.Height)
		}
	})
}

// ReplaceTransaction implements the explicit conflict-resolution path
// (distinct from the default admission pipeline's flat RejectDuplicate):
// it removes every pool transaction tx's inputs collide with, together
// with their descendants, then admits tx in their place. Unlike
// ProcessTransaction's step-5 rejection, this is opt-in — callers exercise
// it only when they intend a deliberate replacement (e.g. a wallet
// bumping its own unconfirmed spend), never as part of ordinary relay.
func (mp *TxPool) ReplaceTransaction(tx *wire.MsgTx) ([]*MempoolEntry, error) {
	mp.mtx.Lock()
	defer mp.mtx.Unlock()

	seen := make(map[chainhash.Hash]struct{})
	for _, in := range tx.TxIn {
		if spender, ok := mp.spents[in.PreviousOutpoint]; ok {
			if _, already := seen[spender.Hash]; already {
				continue
			}
			seen[spender.Hash] = struct{}{}
			mp.removeWithDescendants(spender, "replaced by conflicting transaction "+tx.TxHash().String())
		}
	}

	missing, entry, err := mp.maybeAcceptTransaction(tx)
	if err != nil {
		return nil, err
	}
	if len(missing) > 0 {
		return nil, txRuleError(RejectInvalid, "replacement transaction has unresolved inputs")
	}
	accepted := []*MempoolEntry{entry}
	accepted = append(accepted, mp.processOrphans(tx)...)
	mp.touch()
	return accepted, nil
}

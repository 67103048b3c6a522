// Copyright (c) 2013-2016 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package blockchain

import (
	"sync"
	"time"

	"github.com/ledgerbase/ledgerd/chaincfg"
	"github.com/ledgerbase/ledgerd/chainhash"
	"github.com/ledgerbase/ledgerd/txscript"
	"github.com/ledgerbase/ledgerd/wire"
	"github.com/pkg/errors"
)

// Pre-BIP9 block-version supermajority thresholds: once BlockRejectNumRequired
// of the last BlockUpgradeNumToCheck blocks carry a version at or above the
// threshold, blocks below the threshold are rejected outright. Only this
// reject rule is checked; BlockEnforceNumRequired is not read anywhere.
const (
	blockVersion2 = 2 // BIP34: block height in coinbase
	blockVersion3 = 3 // BIP66: strict DER signatures
	blockVersion4 = 4 // BIP65: OP_CHECKLOCKTIMEVERIFY
)

// Chain is the single serializing owner of the best-chain state machine: it
// receives candidate blocks, resolves orphans, chooses the best branch by
// cumulative chainwork, and drives ChainDB through connect/disconnect as
// the tip moves. Every mutating operation holds chainLock for its whole
// duration, so observers never see a half-applied block or a reorg caught
// mid-flight.
type Chain struct {
	params   *chaincfg.Params
	db       *ChainDB
	verifier txscript.Verifier
	sigOps   txscript.SigOpsCounter

	chainLock sync.RWMutex
	tip       *ChainEntry

	orphans       map[chainhash.Hash]*wire.MsgBlock
	orphansByPrev map[chainhash.Hash][]chainhash.Hash

	notifications     []NotificationCallback
	notificationsLock sync.RWMutex
}

// NewChain constructs a Chain over an already-open ChainDB. verifier and
// sigOps may be nil, in which case script execution and sigop-cost
// enforcement are skipped (useful for tests that only exercise the UTXO and
// branch-selection machinery).
func NewChain(params *chaincfg.Params, db *ChainDB, verifier txscript.Verifier, sigOps txscript.SigOpsCounter) (*Chain, error) {
	tip, err := db.Tip()
	if err != nil {
		return nil, err
	}
	return &Chain{
		params:        params,
		db:            db,
		verifier:      verifier,
		sigOps:        sigOps,
		tip:           tip,
		orphans:       make(map[chainhash.Hash]*wire.MsgBlock),
		orphansByPrev: make(map[chainhash.Hash][]chainhash.Hash),
	}, nil
}

// Tip returns the current main-chain tip.
func (c *Chain) Tip() *ChainEntry {
	c.chainLock.RLock()
	defer c.chainLock.RUnlock()
	return c.tip
}

// DB returns the ChainDB this Chain drives, for callers (e.g. the mempool)
// that need read-only access to persisted chain state.
func (c *Chain) DB() *ChainDB {
	return c.db
}

// MedianTimePast returns the current tip's median time past (the median of
// its own timestamp and the preceding medianTimeBlocks-1), the reference
// point mempool admission uses for locktime finality.
func (c *Chain) MedianTimePast() (time.Time, error) {
	c.chainLock.RLock()
	defer c.chainLock.RUnlock()
	return c.tip.calcPastMedianTime(c.db)
}

// DeploymentActive reports whether the named deployment (a
// chaincfg.Deployment* index) is ThresholdActive as of the current tip.
func (c *Chain) DeploymentActive(deployment uint32) (bool, error) {
	c.chainLock.RLock()
	defer c.chainLock.RUnlock()
	state, err := deploymentState(c.db, c.params, &c.params.Deployments[deployment], c.tip)
	if err != nil {
		return false, err
	}
	return state == ThresholdActive, nil
}

// CalcSequenceLock computes tx's BIP68 relative lock-time constraint
// against the current tip, resolving its inputs from view.
func (c *Chain) CalcSequenceLock(tx *wire.MsgTx, view *CoinView) (*SequenceLock, error) {
	c.chainLock.RLock()
	defer c.chainLock.RUnlock()
	return CalcSequenceLock(c.db, c.tip, tx, view, c.tip.Height+1)
}

// HasOrphan reports whether hash names a block currently parked awaiting
// its parent.
func (c *Chain) HasOrphan(hash chainhash.Hash) bool {
	c.chainLock.RLock()
	defer c.chainLock.RUnlock()
	_, ok := c.orphans[hash]
	return ok
}

// Add submits block for acceptance: duplicate/PoW checks, orphan parking,
// contextual validation, branch selection, and (if it wins) connection or
// reorganization, followed by resolution of any orphans that were waiting
// on this block's hash.
func (c *Chain) Add(block *wire.MsgBlock) error {
	c.chainLock.Lock()
	defer c.chainLock.Unlock()
	return c.receive(block)
}

// receive implements state-machine steps 1-2: duplicate/PoW rejection and
// prev-block resolution (parking as an orphan if the parent is unknown).
func (c *Chain) receive(block *wire.MsgBlock) error {
	hash := block.BlockHash()

	if _, err := c.db.entryByHash(&hash); err == nil {
		return ruleError(ErrDuplicateBlock, "block already known")
	} else if !errors.Is(err, ErrEntryNotFound) {
		return err
	}

	if err := checkBlockSanity(block); err != nil {
		return err
	}
	if !c.checkProofOfWork(&hash, block.Header.Bits) {
		return ruleError(ErrHighHash, "block hash does not satisfy the claimed proof of work")
	}

	prevHash := block.Header.PrevBlock
	prev, err := c.db.entryByHash(&prevHash)
	if errors.Is(err, ErrEntryNotFound) {
		c.orphans[hash] = block
		c.orphansByPrev[prevHash] = append(c.orphansByPrev[prevHash], hash)
		return nil
	}
	if err != nil {
		return err
	}

	return c.acceptBlock(block, prev)
}

// checkProofOfWork reports whether hash satisfies the target bits encodes,
// and that the target itself does not exceed the network's PoW limit.
func (c *Chain) checkProofOfWork(hash *chainhash.Hash, bits uint32) bool {
	target := CompactToBig(bits)
	if target.Sign() <= 0 || target.Cmp(c.params.PowLimit) > 0 {
		return false
	}
	return hashToBig(hash).Cmp(target) <= 0
}

// acceptBlock implements state-machine steps 3-5: contextual checks against
// prev, ChainEntry construction, and branch selection, followed by orphan
// resolution on success.
func (c *Chain) acceptBlock(block *wire.MsgBlock, prev *ChainEntry) error {
	if err := c.contextualChecks(block, prev); err != nil {
		return err
	}

	entry := newChainEntry(&block.Header, prev)

	if err := c.checkCheckpoint(entry); err != nil {
		return err
	}

	if entry.Chainwork.Cmp(c.tip.Chainwork) > 0 {
		if prev.Hash == c.tip.Hash {
			if err := c.connect(entry, block); err != nil {
				return err
			}
		} else {
			if err := c.reorganize(entry, block); err != nil {
				return err
			}
		}
	} else {
		if err := c.db.Save(entry, block, nil, nil, false); err != nil {
			return err
		}
	}

	c.resolveOrphans(entry.Hash)
	return nil
}

// contextualChecks verifies a candidate block's timestamp, claimed
// difficulty, and version against the state implied by prev.
func (c *Chain) contextualChecks(block *wire.MsgBlock, prev *ChainEntry) error {
	if block.Header.Timestamp.After(time.Now().Add(maxTimeOffset)) {
		return ruleError(ErrTimeTooNew, "block timestamp too far in the future")
	}

	mtp, err := prev.calcPastMedianTime(c.db)
	if err != nil {
		return err
	}
	if !block.Header.Timestamp.After(mtp) {
		return ruleError(ErrTimeTooOld, "block timestamp is not after median time of last 11 blocks")
	}

	expectedBits, err := calcNextRequiredDifficulty(c.db, c.params, prev, block.Header.Timestamp)
	if err != nil {
		return err
	}
	if block.Header.Bits != expectedBits {
		return ruleError(ErrUnexpectedDifficulty, "block bits does not match the expected retarget value")
	}

	if err := c.checkVersionThresholds(block, prev); err != nil {
		return err
	}
	return nil
}

// checkVersionThresholds enforces the pre-BIP9 supermajority rules: once
// enough recent blocks signal a version, blocks below it are rejected.
func (c *Chain) checkVersionThresholds(block *wire.MsgBlock, prev *ChainEntry) error {
	window := int(c.params.BlockUpgradeNumToCheck)
	required := int(c.params.BlockRejectNumRequired)
	if window == 0 {
		return nil
	}

	for _, version := range []int32{blockVersion4, blockVersion3, blockVersion2} {
		if block.Header.Version >= version {
			continue
		}
		outdated, err := prev.isSuperMajority(c.db, version, window, required)
		if err != nil {
			return err
		}
		if outdated {
			return ruleError(ErrBadVersion, "block version rejected by supermajority of recent blocks")
		}
	}
	return nil
}

// checkCheckpoint enforces a matching hash at any configured checkpoint
// height.
func (c *Chain) checkCheckpoint(entry *ChainEntry) error {
	if !c.params.UseCheckpoints {
		return nil
	}
	for _, checkpoint := range c.params.Checkpoints {
		if checkpoint.Height == entry.Height && *checkpoint.Hash != entry.Hash {
			return ruleError(ErrBadCheckpoint, "block does not match checkpoint hash at this height")
		}
	}
	return nil
}

// lastCheckpointHeight returns the height of the highest configured
// checkpoint, or -1 if none are configured.
func (c *Chain) lastCheckpointHeight() int32 {
	height := int32(-1)
	for _, checkpoint := range c.params.Checkpoints {
		if checkpoint.Height > height {
			height = checkpoint.Height
		}
	}
	return height
}

// connect extends the main chain with entry/block directly on top of the
// current tip: it builds a CoinView, verifies every transaction, applies
// the resulting UTXO changes, persists the block, advances the tip, and
// fires the connect notifications.
func (c *Chain) connect(entry *ChainEntry, block *wire.MsgBlock) error {
	prev := c.tip
	view, spent, err := c.verifyBlock(entry, block, prev)
	if err != nil {
		return err
	}

	if err := c.db.Save(entry, block, view, spent, true); err != nil {
		return err
	}

	c.tip = entry
	c.sendNotification(NTBlockConnected, &BlockConnectedNotificationData{Entry: entry, Block: block})
	return nil
}

// verifyBlock runs the full connect-time validation of block against the
// UTXO state implied by prev: it seeds a CoinView from distinct prevouts,
// verifies each transaction (value conservation, maturity, finality,
// scripts), checks the coinbase does not overpay, and enforces the
// aggregate sigop-cost limit. It skips script execution for blocks at or
// below the last configured checkpoint, per the checkpoint fast-path.
func (c *Chain) verifyBlock(entry *ChainEntry, block *wire.MsgBlock, prev *ChainEntry) (*CoinView, []SpentCoin, error) {
	mtp, err := prev.calcPastMedianTime(c.db)
	if err != nil {
		return nil, nil, err
	}

	flags, err := activeScriptFlags(c.db, c.params, prev)
	if err != nil {
		return nil, nil, err
	}
	skipScripts := c.params.UseCheckpoints && entry.Height <= c.lastCheckpointHeight()

	view, err := c.buildCoinView(block)
	if err != nil {
		return nil, nil, err
	}

	verifier := c.verifier
	if skipScripts {
		verifier = nil
	}

	var spent []SpentCoin
	var totalFees int64
	for _, tx := range block.Transactions[1:] {
		txSpent, fee, err := c.verifyTransaction(tx, view, prev, entry.Height, mtp, flags, verifier)
		if err != nil {
			return nil, nil, err
		}
		spent = append(spent, txSpent...)
		totalFees += fee
		view.AddTx(tx, entry.Height, false)
	}

	coinbase := block.Transactions[0]
	var coinbaseOut int64
	for _, out := range coinbase.TxOut {
		coinbaseOut += out.Value
	}
	if coinbaseOut > blockSubsidy(entry.Height, c.params)+totalFees {
		return nil, nil, ruleError(ErrBadTxOutValue, "bad-cb-amount")
	}
	view.AddTx(coinbase, entry.Height, true)

	if c.sigOps != nil {
		total := 0
		for _, tx := range block.Transactions {
			total += c.sigOps.CountSigOps(tx)
		}
		if total > maxBlockSigOpsCost {
			return nil, nil, ruleError(ErrTooManySigOps, "block exceeds aggregate sigop-cost limit")
		}
	}

	return view, spent, nil
}

// buildCoinView seeds a CoinView with every distinct prevout the block
// references, read once each from ChainDB (cache-then-disk). Prevouts
// produced earlier in the same block are absent here and instead resolve
// once verifyBlock adds that earlier transaction's outputs to the view.
func (c *Chain) buildCoinView(block *wire.MsgBlock) (*CoinView, error) {
	view := NewCoinView()
	seen := make(map[wire.Outpoint]struct{})
	for _, tx := range block.Transactions {
		if tx.IsCoinBase() {
			continue
		}
		for _, in := range tx.TxIn {
			op := in.PreviousOutpoint
			if _, ok := seen[op]; ok {
				continue
			}
			seen[op] = struct{}{}

			coins, err := c.db.Coins(op.Hash)
			if errors.Is(err, ErrCoinsNotFound) {
				continue
			}
			if err != nil {
				return nil, err
			}
			if coin := coins.Get(op.Index); coin != nil {
				view.AddCoin(op.Hash, op.Index, coin, coins.Height, coins.IsCoinbase)
			}
		}
	}
	return view, nil
}

// reorganize switches the main chain to the branch ending at entry/block:
// it walks back from both the current tip and entry to their common
// ancestor, disconnects the old branch down to (exclusive of) the fork,
// re-verifies and reconnects the new branch from the fork up to entry, and
// fires a single reorg notification once the whole batch lands.
func (c *Chain) reorganize(entry *ChainEntry, block *wire.MsgBlock) error {
	oldTip := c.tip

	fork, oldBranch, newBranch, err := c.findFork(entry)
	if err != nil {
		return err
	}

	blocksByHash := map[chainhash.Hash]*wire.MsgBlock{entry.Hash: block}
	for _, e := range newBranch[:len(newBranch)-1] {
		b, err := c.db.Block(e.Hash)
		if err != nil {
			return err
		}
		blocksByHash[e.Hash] = b
	}

	for _, e := range oldBranch {
		if _, err := c.db.Block(e.Hash); errors.Is(err, ErrBlockNotFound) {
			return ruleError(ErrReorgDepthExceeded, "reorganization reaches beyond the pruning horizon")
		} else if err != nil {
			return err
		}
	}

	for i, e := range oldBranch {
		disconnected, err := c.db.Disconnect(e)
		if errors.Is(err, ErrBlockNotFound) {
			return ruleError(ErrReorgDepthExceeded, "reorganization reaches beyond the pruning horizon")
		}
		if err != nil {
			return err
		}
		if i+1 < len(oldBranch) {
			c.tip = oldBranch[i+1]
		} else {
			c.tip = fork
		}
		c.sendNotification(NTBlockDisconnected, &BlockDisconnectedNotificationData{Entry: e, Block: disconnected})
	}

	for i, e := range newBranch {
		b := blocksByHash[e.Hash]
		if b == nil {
			b, err = c.db.Block(e.Hash)
			if err != nil {
				return err
			}
		}

		parent := fork
		if i > 0 {
			parent = newBranch[i-1]
		}
		view, spent, err := c.verifyBlock(e, b, parent)
		if err != nil {
			return err
		}
		if err := c.db.Reconnect(e, view, spent); err != nil {
			return err
		}
		c.tip = e
		c.sendNotification(NTBlockConnected, &BlockConnectedNotificationData{Entry: e, Block: b})
	}

	c.sendNotification(NTReorganization, &ReorganizationNotificationData{
		OldTip: oldTip.Header(),
		NewTip: entry.Header(),
	})
	return nil
}

// findFork walks back from both the current tip and candidate via
// prev_block pointers until they meet, returning the common ancestor plus
// the two branches: oldBranch ordered tip-to-fork-exclusive (disconnect
// order) and newBranch ordered fork-exclusive-to-candidate (reconnect
// order).
func (c *Chain) findFork(candidate *ChainEntry) (fork *ChainEntry, oldBranch, newBranch []*ChainEntry, err error) {
	left := c.tip
	right := candidate

	var leftChain, rightChain []*ChainEntry
	for left.Height > right.Height {
		leftChain = append(leftChain, left)
		left, err = c.db.entryByHash(&left.PrevBlock)
		if err != nil {
			return nil, nil, nil, err
		}
	}
	for right.Height > left.Height {
		rightChain = append(rightChain, right)
		right, err = c.db.entryByHash(&right.PrevBlock)
		if err != nil {
			return nil, nil, nil, err
		}
	}
	for left.Hash != right.Hash {
		leftChain = append(leftChain, left)
		rightChain = append(rightChain, right)
		left, err = c.db.entryByHash(&left.PrevBlock)
		if err != nil {
			return nil, nil, nil, err
		}
		right, err = c.db.entryByHash(&right.PrevBlock)
		if err != nil {
			return nil, nil, nil, err
		}
	}

	for i, j := 0, len(rightChain)-1; i < j; i, j = i+1, j-1 {
		rightChain[i], rightChain[j] = rightChain[j], rightChain[i]
	}
	return left, leftChain, rightChain, nil
}

// resolveOrphans re-enters, at the contextual-checks step, every block
// that was parked awaiting parentHash.
func (c *Chain) resolveOrphans(parentHash chainhash.Hash) {
	waiting := c.orphansByPrev[parentHash]
	if len(waiting) == 0 {
		return
	}
	delete(c.orphansByPrev, parentHash)

	for _, hash := range waiting {
		block, ok := c.orphans[hash]
		if !ok {
			continue
		}
		delete(c.orphans, hash)

		prev, err := c.db.entryByHash(&parentHash)
		if err != nil {
			continue
		}
		if err := c.acceptBlock(block, prev); err != nil {
			continue
		}
	}
}

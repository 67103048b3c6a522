// Copyright (c) 2013-2016 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package blockchain

import (
	"bytes"
	"encoding/binary"
	"io"
	"math/big"

	"github.com/ledgerbase/ledgerd/chaincfg"
	"github.com/ledgerbase/ledgerd/chainhash"
	"github.com/ledgerbase/ledgerd/database"
	"github.com/ledgerbase/ledgerd/wire"
	"github.com/pkg/errors"
)

// Single-byte key-space prefixes. Integer suffixes are big-endian so that
// height-keyed entries (H, q) sort correctly for range scans.
const (
	prefixTip        byte = 'R'
	prefixEntry      byte = 'e'
	prefixHeight     byte = 'h'
	prefixHashAtH    byte = 'H'
	prefixNext       byte = 'n'
	prefixBlock      byte = 'b'
	prefixCoins      byte = 'c'
	prefixUndo       byte = 'u'
	prefixPruneQueue byte = 'q'
	prefixSchema     byte = 'V'
)

// schemaVersion is written once at genesis and checked on every Open.
const schemaVersion = 1

var (
	// ErrEntryNotFound is returned when a ChainEntry lookup misses both
	// cache and disk.
	ErrEntryNotFound = errors.New("chain entry not found")

	// ErrCoinsNotFound is returned when a Coins lookup misses both cache
	// and disk.
	ErrCoinsNotFound = errors.New("coins not found")

	// ErrBlockNotFound is returned when a raw block lookup misses disk.
	ErrBlockNotFound = errors.New("block not found")
)

func tipKey() []byte                { return []byte{prefixTip} }
func entryKey(hash chainhash.Hash) []byte { return append([]byte{prefixEntry}, hash[:]...) }
func heightKey(hash chainhash.Hash) []byte { return append([]byte{prefixHeight}, hash[:]...) }
func nextKey(hash chainhash.Hash) []byte   { return append([]byte{prefixNext}, hash[:]...) }
func blockKey(hash chainhash.Hash) []byte  { return append([]byte{prefixBlock}, hash[:]...) }
func coinsKey(hash chainhash.Hash) []byte  { return append([]byte{prefixCoins}, hash[:]...) }
func undoKey(hash chainhash.Hash) []byte   { return append([]byte{prefixUndo}, hash[:]...) }

func hashAtHeightKey(height int32) []byte {
	return append([]byte{prefixHashAtH}, encodeHeight(height)...)
}

func pruneQueueKey(height int32) []byte {
	return append([]byte{prefixPruneQueue}, encodeHeight(height)...)
}

func encodeHeight(height int32) []byte {
	var b [4]byte
	binary.BigEndian.PutUint32(b[:], uint32(height))
	return b[:]
}

// SpentCoin records the pre-spend state of a single output a connecting
// block consumed, so Save can write it into that block's undo record and
// Disconnect can later restore it verbatim.
type SpentCoin struct {
	Hash  chainhash.Hash
	Index uint32
	Coin  *wire.Coin
}

// PruneConfig controls ChainDB's block/undo pruning behavior. A zero value
// disables pruning (the default: this spec's scope keeps a full archival
// node).
type PruneConfig struct {
	Enabled         bool
	PruneAfterHeight int32
	KeepBlocks       int32
}

// ChainDB is the persistent store backing Chain: headers, heights,
// main-chain pointers, raw blocks, and the UTXO set, behind a small
// hash/height LRU cache layer.
type ChainDB struct {
	db     database.Database
	params *chaincfg.Params
	prune  PruneConfig

	byHash    *lruCache
	byHeight  *lruCache
	coinCache *lruCache
}

// cacheSize is (retarget_interval+1)*2+100, sized so that retargeting,
// majority-window checks, locator construction, and a reasonable reorg
// depth all hit cache.
func cacheSize(params *chaincfg.Params) int {
	retargetInterval := int(params.TargetTimespan / params.TargetTimePerBlock)
	return (retargetInterval+1)*2 + 100
}

// OpenChainDB opens db for use as a ChainDB, writing the network genesis
// block/entry/height/tip if the store is empty.
func OpenChainDB(db database.Database, params *chaincfg.Params, prune PruneConfig) (*ChainDB, error) {
	size := cacheSize(params)
	cdb := &ChainDB{
		db:        db,
		params:    params,
		prune:     prune,
		byHash:    newLRUCache(size),
		byHeight:  newLRUCache(size),
		coinCache: newLRUCache(size),
	}

	has, err := db.Has(tipKey())
	if err != nil {
		return nil, err
	}
	if has {
		if err := cdb.checkSchemaVersion(); err != nil {
			return nil, err
		}
		return cdb, nil
	}

	if err := cdb.writeGenesis(); err != nil {
		return nil, err
	}
	return cdb, nil
}

// checkSchemaVersion refuses to open a database stamped with a different
// schema version than this build writes.
func (db *ChainDB) checkSchemaVersion() error {
	raw, err := db.db.Get([]byte{prefixSchema})
	if errors.Is(err, database.ErrNotFound) {
		return errors.New("chaindb: missing schema version key")
	}
	if err != nil {
		return err
	}
	version := binary.LittleEndian.Uint32(raw)
	if version != schemaVersion {
		return errors.Errorf("chaindb: unsupported schema version %d (expected %d)", version, schemaVersion)
	}
	return nil
}

func (db *ChainDB) writeGenesis() error {
	genesis := db.params.GenesisBlock
	entry := newChainEntry(&genesis.Header, nil)
	hash := entry.Hash

	tx, err := db.db.Begin()
	if err != nil {
		return err
	}

	var blockBuf bytes.Buffer
	if err := genesis.Serialize(&blockBuf); err != nil {
		tx.Rollback()
		return err
	}

	if err := tx.Put(entryKey(hash), serializeChainEntry(entry)); err != nil {
		tx.Rollback()
		return err
	}
	if err := tx.Put(heightKey(hash), encodeHeight(entry.Height)); err != nil {
		tx.Rollback()
		return err
	}
	if err := tx.Put(blockKey(hash), blockBuf.Bytes()); err != nil {
		tx.Rollback()
		return err
	}
	if err := tx.Put(hashAtHeightKey(entry.Height), hash[:]); err != nil {
		tx.Rollback()
		return err
	}
	if err := tx.Put(tipKey(), hash[:]); err != nil {
		tx.Rollback()
		return err
	}
	var versionBuf [4]byte
	binary.LittleEndian.PutUint32(versionBuf[:], schemaVersion)
	if err := tx.Put([]byte{prefixSchema}, versionBuf[:]); err != nil {
		tx.Rollback()
		return err
	}

	if err := tx.Commit(); err != nil {
		return err
	}

	db.byHash.add(hash, entry)
	db.byHeight.add(entry.Height, entry)
	return nil
}

// Tip returns the ChainEntry currently recorded as the main-chain tip.
func (db *ChainDB) Tip() (*ChainEntry, error) {
	raw, err := db.db.Get(tipKey())
	if err != nil {
		return nil, err
	}
	var hash chainhash.Hash
	copy(hash[:], raw)
	return db.entryByHash(&hash)
}

// entryByHash satisfies ancestorSource for entry.go's ancestor-walking
// methods.
func (db *ChainDB) entryByHash(hash *chainhash.Hash) (*ChainEntry, error) {
	if cached, ok := db.byHash.get(*hash); ok {
		return cached.(*ChainEntry), nil
	}

	raw, err := db.db.Get(entryKey(*hash))
	if errors.Is(err, database.ErrNotFound) {
		return nil, ErrEntryNotFound
	}
	if err != nil {
		return nil, err
	}

	entry, err := deserializeChainEntry(raw)
	if err != nil {
		return nil, err
	}
	db.byHash.add(*hash, entry)
	return entry, nil
}

// EntryByHash looks up a ChainEntry by hash, consulting the hash cache
// before falling through to disk.
func (db *ChainDB) EntryByHash(hash *chainhash.Hash) (*ChainEntry, error) {
	return db.entryByHash(hash)
}

// EntryByHeight looks up the main-chain ChainEntry at height, consulting
// the height cache before falling through to disk (H[height] then e[hash]).
func (db *ChainDB) EntryByHeight(height int32) (*ChainEntry, error) {
	if cached, ok := db.byHeight.get(height); ok {
		return cached.(*ChainEntry), nil
	}

	raw, err := db.db.Get(hashAtHeightKey(height))
	if errors.Is(err, database.ErrNotFound) {
		return nil, ErrEntryNotFound
	}
	if err != nil {
		return nil, err
	}
	var hash chainhash.Hash
	copy(hash[:], raw)

	entry, err := db.entryByHash(&hash)
	if err != nil {
		return nil, err
	}
	db.byHeight.add(height, entry)
	return entry, nil
}

// IsMainChain reports whether hash names a block on the currently-best
// chain: true if it is the tip, else its recorded height must map back to
// it via H[height].
func (db *ChainDB) IsMainChain(hash chainhash.Hash) (bool, error) {
	tip, err := db.db.Get(tipKey())
	if err != nil {
		return false, err
	}
	if bytes.Equal(tip, hash[:]) {
		return true, nil
	}

	heightRaw, err := db.db.Get(heightKey(hash))
	if errors.Is(err, database.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	height := int32(binary.BigEndian.Uint32(heightRaw))

	atHeight, err := db.db.Get(hashAtHeightKey(height))
	if errors.Is(err, database.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return bytes.Equal(atHeight, hash[:]), nil
}

// Block reads the raw block stored for hash.
func (db *ChainDB) Block(hash chainhash.Hash) (*wire.MsgBlock, error) {
	raw, err := db.db.Get(blockKey(hash))
	if errors.Is(err, database.ErrNotFound) {
		return nil, ErrBlockNotFound
	}
	if err != nil {
		return nil, err
	}
	block := &wire.MsgBlock{}
	if err := block.Deserialize(bytes.NewReader(raw)); err != nil {
		return nil, err
	}
	return block, nil
}

// Coins reads the Coins bundle for a transaction hash, through the coin
// cache.
func (db *ChainDB) Coins(txHash chainhash.Hash) (*Coins, error) {
	if cached, ok := db.coinCache.get(txHash); ok {
		return cached.(*Coins), nil
	}

	raw, err := db.db.Get(coinsKey(txHash))
	if errors.Is(err, database.ErrNotFound) {
		return nil, ErrCoinsNotFound
	}
	if err != nil {
		return nil, err
	}

	coins, err := DeserializeCoins(raw, txHash)
	if err != nil {
		return nil, err
	}
	db.coinCache.add(txHash, coins)
	return coins, nil
}

// Save persists entry/block (always), and on connect additionally updates
// the main-chain pointers, applies view to the UTXO set, writes an undo
// record for spent, and enqueues pruning if configured. It is one atomic
// batch: either every write lands or none does.
func (db *ChainDB) Save(entry *ChainEntry, block *wire.MsgBlock, view *CoinView, spent []SpentCoin, connect bool) error {
	tx, err := db.db.Begin()
	if err != nil {
		return err
	}

	if err := db.writeEntryBlock(tx, entry, block); err != nil {
		tx.Rollback()
		return err
	}

	if connect {
		if err := db.applyConnect(tx, entry, view, spent); err != nil {
			tx.Rollback()
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return err
	}

	db.byHash.add(entry.Hash, entry)
	if connect {
		db.byHeight.add(entry.Height, entry)
	}
	return nil
}

func (db *ChainDB) writeEntryBlock(tx database.Transaction, entry *ChainEntry, block *wire.MsgBlock) error {
	if err := tx.Put(entryKey(entry.Hash), serializeChainEntry(entry)); err != nil {
		return err
	}
	if err := tx.Put(heightKey(entry.Hash), encodeHeight(entry.Height)); err != nil {
		return err
	}
	var blockBuf bytes.Buffer
	if err := block.Serialize(&blockBuf); err != nil {
		return err
	}
	return tx.Put(blockKey(entry.Hash), blockBuf.Bytes())
}

func (db *ChainDB) applyConnect(tx database.Transaction, entry *ChainEntry, view *CoinView, spent []SpentCoin) error {
	if err := tx.Put(nextKey(entry.PrevBlock), entry.Hash[:]); err != nil {
		return err
	}
	if err := tx.Put(hashAtHeightKey(entry.Height), entry.Hash[:]); err != nil {
		return err
	}
	if err := tx.Put(tipKey(), entry.Hash[:]); err != nil {
		return err
	}

	for _, bundle := range view.ToArray() {
		if bundle.IsEmpty() {
			if err := tx.Delete(coinsKey(bundle.TxHash)); err != nil {
				return err
			}
			db.coinCache.remove(bundle.TxHash)
			continue
		}
		var buf bytes.Buffer
		if err := bundle.Serialize(&buf); err != nil {
			return err
		}
		if err := tx.Put(coinsKey(bundle.TxHash), buf.Bytes()); err != nil {
			return err
		}
		db.coinCache.add(bundle.TxHash, bundle)
	}

	var undoBuf bytes.Buffer
	if err := serializeUndoRecords(&undoBuf, spent); err != nil {
		return err
	}
	if len(spent) > 0 {
		if err := tx.Put(undoKey(entry.Hash), undoBuf.Bytes()); err != nil {
			return err
		}
	}

	if db.prune.Enabled && entry.Height > db.prune.PruneAfterHeight {
		target := entry.Height + db.prune.KeepBlocks
		if err := tx.Put(pruneQueueKey(target), entry.Hash[:]); err != nil {
			return err
		}
	}
	if db.prune.Enabled {
		if err := db.dequeuePrune(tx, entry.Height); err != nil {
			return err
		}
	}
	return nil
}

func (db *ChainDB) dequeuePrune(tx database.Transaction, height int32) error {
	key := pruneQueueKey(height)
	raw, err := tx.Get(key)
	if errors.Is(err, database.ErrNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	var hash chainhash.Hash
	copy(hash[:], raw)

	if err := tx.Delete(blockKey(hash)); err != nil {
		return err
	}
	if err := tx.Delete(undoKey(hash)); err != nil {
		return err
	}
	return tx.Delete(key)
}

// Reconnect re-applies a previously side-chain entry's block during a
// reorganization: view changes and chain pointers are written, but e/h/b
// are left untouched (the entry was already stored when first accepted as
// a side chain).
func (db *ChainDB) Reconnect(entry *ChainEntry, view *CoinView, spent []SpentCoin) error {
	tx, err := db.db.Begin()
	if err != nil {
		return err
	}
	if err := db.applyConnect(tx, entry, view, spent); err != nil {
		tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return err
	}
	db.byHeight.add(entry.Height, entry)
	return nil
}

// Disconnect undoes entry's connection: main-chain pointers are rolled
// back to its parent, and every coin it spent is restored to the UTXO set
// from its undo record. It returns the block that was disconnected so the
// caller can emit a disconnect event.
func (db *ChainDB) Disconnect(entry *ChainEntry) (*wire.MsgBlock, error) {
	block, err := db.Block(entry.Hash)
	if err != nil {
		return nil, err
	}

	tx, err := db.db.Begin()
	if err != nil {
		return nil, err
	}

	if err := tx.Delete(nextKey(entry.PrevBlock)); err != nil {
		tx.Rollback()
		return nil, err
	}
	if err := tx.Delete(hashAtHeightKey(entry.Height)); err != nil {
		tx.Rollback()
		return nil, err
	}
	if err := tx.Put(tipKey(), entry.PrevBlock[:]); err != nil {
		tx.Rollback()
		return nil, err
	}

	undoRaw, err := tx.Get(undoKey(entry.Hash))
	if err != nil && !errors.Is(err, database.ErrNotFound) {
		tx.Rollback()
		return nil, err
	}
	if err == nil {
		spent, err := deserializeUndoRecords(bytes.NewReader(undoRaw))
		if err != nil {
			tx.Rollback()
			return nil, err
		}
		for _, s := range spent {
			bundle, err := db.readOrFetchForRestore(tx, s.Hash)
			if err != nil {
				tx.Rollback()
				return nil, err
			}
			bundle.growTo(s.Index)
			bundle.Outputs[s.Index] = s.Coin
			var buf bytes.Buffer
			if err := bundle.Serialize(&buf); err != nil {
				tx.Rollback()
				return nil, err
			}
			if err := tx.Put(coinsKey(s.Hash), buf.Bytes()); err != nil {
				tx.Rollback()
				return nil, err
			}
			db.coinCache.add(s.Hash, bundle)
		}
		if err := tx.Delete(undoKey(entry.Hash)); err != nil {
			tx.Rollback()
			return nil, err
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}

	db.byHeight.remove(entry.Height)
	return block, nil
}

func (db *ChainDB) readOrFetchForRestore(tx database.Transaction, txHash chainhash.Hash) (*Coins, error) {
	raw, err := tx.Get(coinsKey(txHash))
	if errors.Is(err, database.ErrNotFound) {
		return &Coins{Version: coinsVersion, TxHash: txHash, Outputs: nil}, nil
	}
	if err != nil {
		return nil, err
	}
	return DeserializeCoins(raw, txHash)
}

func (c *Coins) growTo(index uint32) {
	if int(index) < len(c.Outputs) {
		return
	}
	grown := make([]*wire.Coin, index+1)
	copy(grown, c.Outputs)
	c.Outputs = grown
}

// GetUndoView builds a CoinView over every distinct prevout block
// references, preferring that block's own undo record (if it has one from
// a prior connect/disconnect cycle) over the current disk state, so that
// re-verifying the block during a reorganization sees exactly the inputs
// it originally connected against.
func (db *ChainDB) GetUndoView(block *wire.MsgBlock) (*CoinView, error) {
	type outpointKey struct {
		hash  chainhash.Hash
		index uint32
	}

	undoMap := make(map[outpointKey]*wire.Coin)
	if raw, err := db.db.Get(undoKey(block.BlockHash())); err == nil {
		spent, err := deserializeUndoRecords(bytes.NewReader(raw))
		if err != nil {
			return nil, err
		}
		for _, s := range spent {
			undoMap[outpointKey{s.Hash, s.Index}] = s.Coin
		}
	} else if !errors.Is(err, database.ErrNotFound) {
		return nil, err
	}

	view := NewCoinView()
	for _, txn := range block.Transactions {
		if txn.IsCoinBase() {
			continue
		}
		for _, in := range txn.TxIn {
			op := in.PreviousOutpoint
			key := outpointKey{op.Hash, op.Index}
			if coin, ok := undoMap[key]; ok {
				view.AddCoin(op.Hash, op.Index, coin, coin.Height, coin.IsCoinbase)
				continue
			}
			if view.Has(op.Hash, op.Index) {
				continue
			}
			coins, err := db.Coins(op.Hash)
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

func serializeChainEntry(e *ChainEntry) []byte {
	var buf bytes.Buffer
	header := e.Header()
	_ = header.Serialize(&buf)
	_ = writeUint32(&buf, uint32(e.Height))

	work := make([]byte, 32)
	e.Chainwork.FillBytes(work)
	buf.Write(work)
	return buf.Bytes()
}

func deserializeChainEntry(raw []byte) (*ChainEntry, error) {
	r := bytes.NewReader(raw)

	var header wire.BlockHeader
	if err := header.Deserialize(r); err != nil {
		return nil, err
	}
	height, err := readUint32(r)
	if err != nil {
		return nil, err
	}
	work := make([]byte, 32)
	if _, err := io.ReadFull(r, work); err != nil {
		return nil, err
	}

	return &ChainEntry{
		Hash:       header.BlockHash(),
		Version:    header.Version,
		PrevBlock:  header.PrevBlock,
		MerkleRoot: header.MerkleRoot,
		Timestamp:  header.Timestamp,
		Bits:       header.Bits,
		Nonce:      header.Nonce,
		Height:     int32(height),
		Chainwork:  new(big.Int).SetBytes(work),
	}, nil
}

func serializeUndoRecords(w io.Writer, spent []SpentCoin) error {
	if err := wire.WriteVarInt(w, uint64(len(spent))); err != nil {
		return err
	}
	for _, s := range spent {
		if _, err := w.Write(s.Hash[:]); err != nil {
			return err
		}
		if err := wire.WriteVarInt(w, uint64(s.Index)); err != nil {
			return err
		}
		height := s.Coin.Height
		if height < 0 {
			height = unconfirmedHeight
		}
		if err := writeUint32(w, uint32(height)<<1|boolToUint32(s.Coin.IsCoinbase)); err != nil {
			return err
		}
		if err := writeOutputEntry(w, s.Coin); err != nil {
			return err
		}
	}
	return nil
}

func deserializeUndoRecords(r io.Reader) ([]SpentCoin, error) {
	count, err := wire.ReadVarInt(r)
	if err != nil {
		return nil, err
	}

	records := make([]SpentCoin, count)
	for i := range records {
		var hash chainhash.Hash
		if _, err := io.ReadFull(r, hash[:]); err != nil {
			return nil, err
		}
		index, err := wire.ReadVarInt(r)
		if err != nil {
			return nil, err
		}
		packed, err := readUint32(r)
		if err != nil {
			return nil, err
		}
		isCoinbase := packed&1 != 0
		height := int32(packed >> 1)
		if height == unconfirmedHeight {
			height = -1
		}
		coin, err := readOutputEntry(r, height, isCoinbase)
		if err != nil {
			return nil, err
		}
		records[i] = SpentCoin{Hash: hash, Index: uint32(index), Coin: coin}
	}
	return records, nil
}

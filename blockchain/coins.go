// Copyright (c) 2013-2016 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package blockchain

import (
	"bytes"
	"encoding/binary"
	"io"

	"github.com/ledgerbase/ledgerd/chainhash"
	"github.com/ledgerbase/ledgerd/wire"
	"github.com/pkg/errors"
)

func writeUint32(w io.Writer, v uint32) error {
	var b [4]byte
	binary.LittleEndian.PutUint32(b[:], v)
	_, err := w.Write(b[:])
	return err
}

func readUint32(r io.Reader) (uint32, error) {
	var b [4]byte
	if _, err := io.ReadFull(r, b[:]); err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(b[:]), nil
}

// coinsVersion is the only Coins serialization version this implementation
// writes or understands.
const coinsVersion = 0

// unconfirmedHeight is the sentinel Height value for a Coins bundle backing
// a transaction that has not yet been confirmed in a block (used when the
// mempool fills a CoinView from its own unconfirmed outputs).
const unconfirmedHeight = 0x7FFFFFFF

// output compression template prefixes.
const (
	prefixUncompressed byte = 0
	prefixPubKeyHash   byte = 1
	prefixScriptHash   byte = 2

	spentEntryMarker byte = 0xFF
)

// Coins is the per-transaction unspent-output bundle: one entry per output
// of the transaction, nil where the output has been spent. It is the unit
// ChainDB persists under the `c[tx_hash]` key.
type Coins struct {
	Version    int32
	TxHash     chainhash.Hash
	Height     int32
	IsCoinbase bool
	Outputs    []*wire.Coin
}

// NewCoinsFromTx builds a fresh Coins bundle from every output of tx,
// confirmed (or pending confirmation) at height.
func NewCoinsFromTx(tx *wire.MsgTx, height int32, isCoinbase bool) *Coins {
	outputs := make([]*wire.Coin, len(tx.TxOut))
	for i, out := range tx.TxOut {
		outputs[i] = &wire.Coin{
			Value:      out.Value,
			PkScript:   out.PkScript,
			Height:     height,
			IsCoinbase: isCoinbase,
		}
	}
	return &Coins{
		Version:    coinsVersion,
		TxHash:     tx.TxHash(),
		Height:     height,
		IsCoinbase: isCoinbase,
		Outputs:    outputs,
	}
}

// IsEmpty reports whether every output in the bundle has been spent; an
// empty bundle is deleted from disk rather than rewritten.
func (c *Coins) IsEmpty() bool {
	for _, o := range c.Outputs {
		if o != nil {
			return false
		}
	}
	return true
}

// Spend removes and returns output index, or nil if it was already spent or
// out of range.
func (c *Coins) Spend(index uint32) *wire.Coin {
	if int(index) >= len(c.Outputs) {
		return nil
	}
	coin := c.Outputs[index]
	c.Outputs[index] = nil
	return coin
}

// Get returns output index without removing it, or nil if spent/missing.
func (c *Coins) Get(index uint32) *wire.Coin {
	if int(index) >= len(c.Outputs) {
		return nil
	}
	return c.Outputs[index]
}

// Serialize encodes the bundle in the fixed on-disk format:
//
//	varint(version) u32((height<<1)|coinbase) output_entry*
//
// where each output_entry is 0xFF for a spent slot, or a 1-byte template
// prefix followed by the compressed or raw script and a varint value.
func (c *Coins) Serialize(w io.Writer) error {
	if err := wire.WriteVarInt(w, uint64(c.Version)); err != nil {
		return err
	}

	height := c.Height
	if height < 0 {
		height = unconfirmedHeight
	}
	packed := uint32(height)<<1 | boolToUint32(c.IsCoinbase)
	if err := writeUint32(w, packed); err != nil {
		return err
	}

	for _, coin := range c.Outputs {
		if coin == nil {
			if _, err := w.Write([]byte{spentEntryMarker}); err != nil {
				return err
			}
			continue
		}
		if err := writeOutputEntry(w, coin); err != nil {
			return err
		}
	}
	return nil
}

// DeserializeCoins decodes a Coins bundle from a complete serialized
// buffer. Output entries are self-delimiting (each knows its own length),
// so the bundle is decoded by reading entries until the buffer is
// exhausted rather than from an externally-tracked output count.
func DeserializeCoins(buffer []byte, txHash chainhash.Hash) (*Coins, error) {
	r := bytes.NewReader(buffer)

	version, err := wire.ReadVarInt(r)
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

	var outputs []*wire.Coin
	for r.Len() > 0 {
		coin, err := readOutputEntry(r, height, isCoinbase)
		if err != nil {
			return nil, err
		}
		outputs = append(outputs, coin)
	}

	return &Coins{
		Version:    int32(version),
		TxHash:     txHash,
		Height:     height,
		IsCoinbase: isCoinbase,
		Outputs:    outputs,
	}, nil
}

func writeOutputEntry(w io.Writer, coin *wire.Coin) error {
	if hash, ok := matchPayToPubKeyHash(coin.PkScript); ok {
		if _, err := w.Write([]byte{prefixPubKeyHash}); err != nil {
			return err
		}
		if _, err := w.Write(hash); err != nil {
			return err
		}
		return wire.WriteVarInt(w, uint64(coin.Value))
	}
	if hash, ok := matchPayToScriptHash(coin.PkScript); ok {
		if _, err := w.Write([]byte{prefixScriptHash}); err != nil {
			return err
		}
		if _, err := w.Write(hash); err != nil {
			return err
		}
		return wire.WriteVarInt(w, uint64(coin.Value))
	}

	if _, err := w.Write([]byte{prefixUncompressed}); err != nil {
		return err
	}
	if err := wire.WriteVarBytes(w, coin.PkScript); err != nil {
		return err
	}
	return wire.WriteVarInt(w, uint64(coin.Value))
}

func readOutputEntry(r io.Reader, height int32, isCoinbase bool) (*wire.Coin, error) {
	prefix := make([]byte, 1)
	if _, err := io.ReadFull(r, prefix); err != nil {
		return nil, err
	}

	switch prefix[0] {
	case spentEntryMarker:
		return nil, nil

	case prefixPubKeyHash:
		hash := make([]byte, 20)
		if _, err := io.ReadFull(r, hash); err != nil {
			return nil, err
		}
		value, err := wire.ReadVarInt(r)
		if err != nil {
			return nil, err
		}
		return &wire.Coin{
			Value:      int64(value),
			PkScript:   payToPubKeyHashScript(hash),
			Height:     height,
			IsCoinbase: isCoinbase,
		}, nil

	case prefixScriptHash:
		hash := make([]byte, 20)
		if _, err := io.ReadFull(r, hash); err != nil {
			return nil, err
		}
		value, err := wire.ReadVarInt(r)
		if err != nil {
			return nil, err
		}
		return &wire.Coin{
			Value:      int64(value),
			PkScript:   payToScriptHashScript(hash),
			Height:     height,
			IsCoinbase: isCoinbase,
		}, nil

	case prefixUncompressed:
		script, err := wire.ReadVarBytes(r, 10000, "coin pk script")
		if err != nil {
			return nil, err
		}
		value, err := wire.ReadVarInt(r)
		if err != nil {
			return nil, err
		}
		return &wire.Coin{
			Value:      int64(value),
			PkScript:   script,
			Height:     height,
			IsCoinbase: isCoinbase,
		}, nil

	default:
		return nil, errors.Errorf("unknown coin output entry prefix %#x", prefix[0])
	}
}

// Standard script templates recognized for compression. These are pattern
// matches on raw opcode bytes, not script execution: matching the shape of
// a P2PKH/P2SH output to choose a compact on-disk encoding is independent
// of actually running the script, which remains the interpreter's job.
const (
	opDup         = 0x76
	opHash160     = 0xa9
	opEqualVerify = 0x88
	opCheckSig    = 0xac
	opEqual       = 0x87
	opData20      = 0x14
)

func matchPayToPubKeyHash(script []byte) ([]byte, bool) {
	if len(script) != 25 ||
		script[0] != opDup || script[1] != opHash160 || script[2] != opData20 ||
		script[23] != opEqualVerify || script[24] != opCheckSig {
		return nil, false
	}
	return script[3:23], true
}

func matchPayToScriptHash(script []byte) ([]byte, bool) {
	if len(script) != 23 ||
		script[0] != opHash160 || script[1] != opData20 || script[22] != opEqual {
		return nil, false
	}
	return script[2:22], true
}

func payToPubKeyHashScript(hash []byte) []byte {
	script := make([]byte, 0, 25)
	script = append(script, opDup, opHash160, opData20)
	script = append(script, hash...)
	script = append(script, opEqualVerify, opCheckSig)
	return script
}

func payToScriptHashScript(hash []byte) []byte {
	script := make([]byte, 0, 23)
	script = append(script, opHash160, opData20)
	script = append(script, hash...)
	script = append(script, opEqual)
	return script
}

func boolToUint32(b bool) uint32 {
	if b {
		return 1
	}
	return 0
}

// DeferredCoin remembers the byte range of a single output entry within an
// already-fetched, still-serialized Coins buffer, so that reading one coin
// from a many-output transaction does not require decoding the whole
// bundle. ToCoin decodes on demand; the common case — reading one output
// during input resolution — stays allocation-free beyond that single coin.
type DeferredCoin struct {
	buffer     []byte
	offset     int
	size       int
	height     int32
	isCoinbase bool
}

// ScanDeferredCoins parses just enough of a serialized Coins buffer to
// build an offset table for every output slot, without allocating a Coin
// for any of them. Entries are read until the buffer is exhausted.
func ScanDeferredCoins(buffer []byte) ([]*DeferredCoin, error) {
	r := bytes.NewReader(buffer)

	if _, err := wire.ReadVarInt(r); err != nil {
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

	var deferred []*DeferredCoin
	for r.Len() > 0 {
		start := len(buffer) - r.Len()
		if err := skipOutputEntry(r); err != nil {
			return nil, err
		}
		end := len(buffer) - r.Len()
		deferred = append(deferred, &DeferredCoin{
			buffer:     buffer,
			offset:     start,
			size:       end - start,
			height:     height,
			isCoinbase: isCoinbase,
		})
	}
	return deferred, nil
}

// ToCoin decodes this single output entry on demand.
func (d *DeferredCoin) ToCoin() (*wire.Coin, error) {
	r := bytes.NewReader(d.buffer[d.offset : d.offset+d.size])
	return readOutputEntry(r, d.height, d.isCoinbase)
}

func skipOutputEntry(r *bytes.Reader) error {
	prefix, err := r.ReadByte()
	if err != nil {
		return err
	}
	switch prefix {
	case spentEntryMarker:
		return nil
	case prefixPubKeyHash, prefixScriptHash:
		if _, err := r.Seek(20, io.SeekCurrent); err != nil {
			return err
		}
		_, err := wire.ReadVarInt(r)
		return err
	case prefixUncompressed:
		scriptLen, err := wire.ReadVarInt(r)
		if err != nil {
			return err
		}
		if _, err := r.Seek(int64(scriptLen), io.SeekCurrent); err != nil {
			return err
		}
		_, err = wire.ReadVarInt(r)
		return err
	default:
		return errors.Errorf("unknown coin output entry prefix %#x", prefix)
	}
}

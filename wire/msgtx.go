package wire

import (
	"bytes"
	"io"
	"math"

	"github.com/ledgerbase/ledgerd/chainhash"
)

// MaxTxInSequenceNum is the maximum sequence number the sequence field of a
// transaction input can be.
const MaxTxInSequenceNum uint32 = 0xffffffff

// SequenceLockTimeDisabled is the bit flag on a transaction input's sequence
// number that, when set, disables the relative lock-time (BIP68).
const SequenceLockTimeDisabled = 1 << 31

// SequenceLockTimeIsSeconds is the bit flag on a transaction input's
// sequence number that, when set, interprets the relative lock-time as
// units of 512 seconds rather than a block count (BIP68).
const SequenceLockTimeIsSeconds = 1 << 22

// SequenceLockTimeGranularity is the number of bits to shift a seconds-based
// relative lock-time value to convert it to the 512-second units BIP68
// specifies.
const SequenceLockTimeGranularity = 9

// SequenceLockTimeMask extracts the relative lock-time value (block count or
// 512-second units, per SequenceLockTimeIsSeconds) from a sequence number.
const SequenceLockTimeMask = 0x0000ffff

// LockTimeThreshold is the number below which a lock time is interpreted as
// a block height and at or above which it is interpreted as a Unix time.
const LockTimeThreshold = 5e8 // Tue Nov 5 00:53:20 1985 UTC

// witnessMarkerFlag is the first two bytes of a witness-serialized
// transaction that would otherwise collide with a transaction with zero
// inputs: marker byte 0x00 followed by a non-zero flag byte.
const (
	witnessMarkerByte = 0x00
	witnessFlagByte   = 0x01
)

// TxVersion is the current latest supported transaction version.
const TxVersion = 2

// MsgTx implements a bitcoin transaction: an ordered list of inputs and
// outputs plus a locktime. A transaction has two hashes: TxHash (the legacy,
// non-witness serialization) and WitnessHash (the witness serialization,
// equal to TxHash if the transaction carries no witness data).
type MsgTx struct {
	Version  int32
	TxIn     []*TxIn
	TxOut    []*TxOut
	LockTime uint32
}

// NewMsgTx returns a new bitcoin tx message that conforms to the Message
// interface. The return instance has the passed version and there are no
// transaction inputs or outputs. Also, the lock time is set to
// zero to indicate the transaction is valid immediately as opposed to some
// time in future.
func NewMsgTx(version int32) *MsgTx {
	return &MsgTx{Version: version}
}

// HasWitness returns true if the transaction has at least one input with
// witness data.
func (msg *MsgTx) HasWitness() bool {
	for _, txIn := range msg.TxIn {
		if len(txIn.Witness) > 0 {
			return true
		}
	}
	return false
}

// IsCoinBase determines whether the transaction is a coinbase transaction.
// A coinbase transaction is a special transaction created by miners that has
// no inputs other than a single null outpoint.
func (msg *MsgTx) IsCoinBase() bool {
	return len(msg.TxIn) == 1 && msg.TxIn[0].PreviousOutpoint.IsNull()
}

// TxHash generates the legacy (non-witness) double sha256 hash of the
// transaction.
func (msg *MsgTx) TxHash() chainhash.Hash {
	var buf bytes.Buffer
	_ = msg.serialize(&buf, false)
	return chainhash.HashH(buf.Bytes())
}

// WitnessHash generates the witness-inclusive double sha256 hash of the
// transaction. It equals TxHash when the transaction has no witness data.
func (msg *MsgTx) WitnessHash() chainhash.Hash {
	if !msg.HasWitness() {
		return msg.TxHash()
	}
	var buf bytes.Buffer
	_ = msg.serialize(&buf, true)
	return chainhash.HashH(buf.Bytes())
}

// SerializeSize returns the number of bytes it would take to serialize the
// transaction, including any witness data.
func (msg *MsgTx) SerializeSize() int {
	var buf bytes.Buffer
	_ = msg.serialize(&buf, msg.HasWitness())
	return buf.Len()
}

// Serialize encodes the transaction to w, including witness data when
// present.
func (msg *MsgTx) Serialize(w io.Writer) error {
	return msg.serialize(w, msg.HasWitness())
}

func (msg *MsgTx) serialize(w io.Writer, withWitness bool) error {
	if err := writeUint32(w, uint32(msg.Version)); err != nil {
		return err
	}

	if withWitness {
		if _, err := w.Write([]byte{witnessMarkerByte, witnessFlagByte}); err != nil {
			return err
		}
	}

	if err := WriteVarInt(w, uint64(len(msg.TxIn))); err != nil {
		return err
	}
	for _, ti := range msg.TxIn {
		if err := writeTxIn(w, ti); err != nil {
			return err
		}
	}

	if err := WriteVarInt(w, uint64(len(msg.TxOut))); err != nil {
		return err
	}
	for _, to := range msg.TxOut {
		if err := writeTxOut(w, to); err != nil {
			return err
		}
	}

	if withWitness {
		for _, ti := range msg.TxIn {
			if err := writeTxInWitness(w, ti.Witness); err != nil {
				return err
			}
		}
	}

	return writeUint32(w, msg.LockTime)
}

// Deserialize decodes a transaction from r, transparently detecting the
// witness marker/flag pair the way segwit transactions are framed.
func (msg *MsgTx) Deserialize(r io.Reader) error {
	version, err := readUint32(r)
	if err != nil {
		return err
	}
	msg.Version = int32(version)

	count, err := ReadVarInt(r)
	if err != nil {
		return err
	}

	withWitness := false
	if count == 0 {
		// Possible witness marker: a zero input count is never valid for a
		// real transaction, so it signals marker+flag framing instead.
		flag, err := ReadVarInt(r)
		if err != nil {
			return err
		}
		if flag != witnessFlagByte {
			return newMessageError("MsgTx.Deserialize", "witness flag byte must be 0x01")
		}
		withWitness = true
		count, err = ReadVarInt(r)
		if err != nil {
			return err
		}
	}

	msg.TxIn = make([]*TxIn, count)
	for i := range msg.TxIn {
		ti := &TxIn{}
		if err := readTxIn(r, ti); err != nil {
			return err
		}
		msg.TxIn[i] = ti
	}

	outCount, err := ReadVarInt(r)
	if err != nil {
		return err
	}
	msg.TxOut = make([]*TxOut, outCount)
	for i := range msg.TxOut {
		to := &TxOut{}
		if err := readTxOut(r, to); err != nil {
			return err
		}
		msg.TxOut[i] = to
	}

	if withWitness {
		for _, ti := range msg.TxIn {
			witness, err := readTxInWitness(r)
			if err != nil {
				return err
			}
			ti.Witness = witness
		}
	}

	lockTime, err := readUint32(r)
	if err != nil {
		return err
	}
	msg.LockTime = lockTime
	return nil
}

// IsFinalized determines whether the transaction is finalized with respect
// to the given block height and block time per locktime and per-input
// sequence rules.
func (msg *MsgTx) IsFinalized(blockHeight int32, blockTime int64) bool {
	if msg.LockTime == 0 {
		return true
	}

	lockTimeAsHeight := int64(msg.LockTime) < LockTimeThreshold
	var lockReached bool
	if lockTimeAsHeight {
		lockReached = int64(msg.LockTime) < int64(blockHeight)
	} else {
		lockReached = int64(msg.LockTime) < blockTime
	}
	if lockReached {
		return true
	}

	for _, txIn := range msg.TxIn {
		if txIn.Sequence != math.MaxUint32 {
			return false
		}
	}
	return true
}

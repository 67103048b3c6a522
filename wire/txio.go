package wire

import "io"

// maxWitnessItemSize is the maximum allowed size of an item within an input's
// witness data.
const maxWitnessItemSize = 11000

// maxScriptSize is the maximum allowed length of a raw script.
const maxScriptSize = 10000

// TxWitness defines the witness for a TxIn. A witness is to be interpreted as
// a slice of byte slices, or a stack with one or many elements.
type TxWitness [][]byte

// TxIn defines a bitcoin transaction input.
type TxIn struct {
	PreviousOutpoint Outpoint
	SignatureScript  []byte
	Sequence         uint32
	Witness          TxWitness

	// Coin is a resolved reference to the output being spent. It is
	// populated only transiently, during verification, and is never
	// serialized.
	Coin *Coin
}

// NewTxIn returns a new bitcoin transaction input with the provided
// previous outpoint point and signature script with a default sequence of
// MaxTxInSequenceNum.
func NewTxIn(prevOut *Outpoint, signatureScript []byte, witness TxWitness) *TxIn {
	return &TxIn{
		PreviousOutpoint: *prevOut,
		SignatureScript:  signatureScript,
		Sequence:         MaxTxInSequenceNum,
		Witness:          witness,
	}
}

// SerializeSize returns the number of bytes it would take to serialize the
// the transaction input, not including any witness data.
func (t *TxIn) SerializeSize() int {
	return 32 + 4 + VarIntSerializeSize(uint64(len(t.SignatureScript))) +
		len(t.SignatureScript) + 4
}

func writeTxIn(w io.Writer, ti *TxIn) error {
	if err := writeHash(w, &ti.PreviousOutpoint.Hash); err != nil {
		return err
	}
	if err := writeUint32(w, ti.PreviousOutpoint.Index); err != nil {
		return err
	}
	if err := WriteVarBytes(w, ti.SignatureScript); err != nil {
		return err
	}
	return writeUint32(w, ti.Sequence)
}

func readTxIn(r io.Reader, ti *TxIn) error {
	if err := readHash(r, &ti.PreviousOutpoint.Hash); err != nil {
		return err
	}
	index, err := readUint32(r)
	if err != nil {
		return err
	}
	ti.PreviousOutpoint.Index = index

	script, err := ReadVarBytes(r, maxScriptSize, "signature script")
	if err != nil {
		return err
	}
	ti.SignatureScript = script

	seq, err := readUint32(r)
	if err != nil {
		return err
	}
	ti.Sequence = seq
	return nil
}

func writeTxInWitness(w io.Writer, witness TxWitness) error {
	if err := WriteVarInt(w, uint64(len(witness))); err != nil {
		return err
	}
	for _, item := range witness {
		if err := WriteVarBytes(w, item); err != nil {
			return err
		}
	}
	return nil
}

func readTxInWitness(r io.Reader) (TxWitness, error) {
	count, err := ReadVarInt(r)
	if err != nil {
		return nil, err
	}
	witness := make(TxWitness, count)
	for i := uint64(0); i < count; i++ {
		item, err := ReadVarBytes(r, maxWitnessItemSize, "witness item")
		if err != nil {
			return nil, err
		}
		witness[i] = item
	}
	return witness, nil
}

// TxOut defines a bitcoin transaction output.
type TxOut struct {
	Value    int64
	PkScript []byte
}

// NewTxOut returns a new bitcoin transaction output with the provided
// transaction value and public key script.
func NewTxOut(value int64, pkScript []byte) *TxOut {
	return &TxOut{Value: value, PkScript: pkScript}
}

// SerializeSize returns the number of bytes it would take to serialize the
// the transaction output.
func (t *TxOut) SerializeSize() int {
	return 8 + VarIntSerializeSize(uint64(len(t.PkScript))) + len(t.PkScript)
}

func writeTxOut(w io.Writer, to *TxOut) error {
	if err := writeUint64(w, uint64(to.Value)); err != nil {
		return err
	}
	return WriteVarBytes(w, to.PkScript)
}

func readTxOut(r io.Reader, to *TxOut) error {
	value, err := readUint64(r)
	if err != nil {
		return err
	}
	to.Value = int64(value)

	script, err := ReadVarBytes(r, maxScriptSize, "pk script")
	if err != nil {
		return err
	}
	to.PkScript = script
	return nil
}

package wire

// Coin is a resolved reference to the output an input spends: the output's
// value and script plus the context needed to evaluate maturity and standard
// templates. It is attached to a TxIn transiently during verification; it is
// never part of the wire encoding of a transaction.
type Coin struct {
	Value      int64
	PkScript   []byte
	Height     int32
	IsCoinbase bool
}

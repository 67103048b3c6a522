package wire

import (
	"fmt"
	"math"

	"github.com/ledgerbase/ledgerd/chainhash"
)

// Outpoint defines a data type that is used to track previous transaction
// outputs. A null outpoint (zero hash, max uint32 index) marks a coinbase
// input.
type Outpoint struct {
	Hash  chainhash.Hash
	Index uint32
}

// NewOutpoint returns a new bitcoin transaction outpoint point with the
// provided hash and index.
func NewOutpoint(hash *chainhash.Hash, index uint32) *Outpoint {
	return &Outpoint{Hash: *hash, Index: index}
}

// String returns the Outpoint in the human-readable form "hash:index".
func (o Outpoint) String() string {
	return fmt.Sprintf("%s:%d", o.Hash.String(), o.Index)
}

// IsNull returns true iff the outpoint is the null outpoint that marks a
// coinbase input: zero hash, index 0xFFFFFFFF.
func (o Outpoint) IsNull() bool {
	return o.Index == math.MaxUint32 && o.Hash == chainhash.ZeroHash
}

// Copyright (c) 2014-2016 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package chaincfg defines the network parameters used to distinguish the
// four supported networks (main, testnet, regtest, segnet): genesis block,
// proof-of-work limit, maturity and halving schedule, checkpoints, and the
// BIP9 deployment table.
package chaincfg

import (
	"errors"
	"math"
	"math/big"
	"time"

	"github.com/ledgerbase/ledgerd/chainhash"
	"github.com/ledgerbase/ledgerd/wire"
)

var bigOne = big.NewInt(1)

// mainPowLimit is the highest proof-of-work value a main-network block can
// have: 2^224 - 1.
var mainPowLimit = new(big.Int).Sub(new(big.Int).Lsh(bigOne, 224), bigOne)

// regressionPowLimit is the highest proof-of-work value a regtest block can
// have: 2^255 - 1, which about half of all block hashes meet.
var regressionPowLimit = new(big.Int).Sub(new(big.Int).Lsh(bigOne, 255), bigOne)

// testNetPowLimit is the highest proof-of-work value a testnet block can
// have: 2^224 - 1.
var testNetPowLimit = new(big.Int).Sub(new(big.Int).Lsh(bigOne, 224), bigOne)

// segNetPowLimit is the highest proof-of-work value a segnet block can
// have.
var segNetPowLimit = new(big.Int).Sub(new(big.Int).Lsh(bigOne, 255), bigOne)

const (
	difficultyAdjustmentInterval = 2016
	minRetargetTimespan          = int64(targetTimespan / 4)
	maxRetargetTimespan          = int64(targetTimespan * 4)
	targetTimespan               = time.Hour * 24 * 14
	targetSpacing                = time.Minute * 10
)

// Checkpoint identifies a known-good point in the chain: synced clients may
// reject any alternative chain that does not contain this (height, hash)
// pair, preventing deep reorgs below the checkpoint.
type Checkpoint struct {
	Height int32
	Hash   *chainhash.Hash
}

// ConsensusDeployment defines a BIP9 soft-fork deployment: the version bit
// it claims and the window during which miners may signal for it.
type ConsensusDeployment struct {
	// BitNumber is the bit in the block header version field used to
	// signal this deployment.
	BitNumber uint8

	// StartTime is the median time past after which signaling begins.
	StartTime uint64

	// ExpireTime is the median time past after which the deployment is
	// considered failed if it has not locked in.
	ExpireTime uint64
}

// Deployment identifiers, used to index Params.Deployments.
const (
	DeploymentTestDummy = iota
	DeploymentCSV
	DeploymentSegwit

	// DefinedDeployments is the number of defined deployments and must
	// always come last.
	DefinedDeployments
)

// Params defines the consensus and relay-policy parameters that
// differentiate one network from another.
type Params struct {
	// Name is the human-readable network identifier ("main", "testnet",
	// "regtest", "segnet").
	Name string

	// Net is the magic value used to identify this network on the wire.
	Net uint32

	// GenesisBlock is the first block of the chain.
	GenesisBlock *wire.MsgBlock

	// GenesisHash is the cached hash of GenesisBlock.
	GenesisHash *chainhash.Hash

	// PowLimit is the highest allowed proof-of-work target.
	PowLimit *big.Int

	// PowLimitBits is PowLimit in compact form.
	PowLimitBits uint32

	// CoinbaseMaturity is the number of confirmations a coinbase output
	// needs before it can be spent.
	CoinbaseMaturity uint16

	// SubsidyReductionInterval is the number of blocks between halvings.
	SubsidyReductionInterval int32

	// TargetTimespan is the desired amount of time for DifficultyAdjustmentInterval
	// blocks, used to compute the retarget ratio.
	TargetTimespan time.Duration

	// TargetTimePerBlock is the desired spacing between blocks.
	TargetTimePerBlock time.Duration

	// RetargetAdjustmentFactor bounds how much the difficulty may change
	// in a single retarget (4x up or down, per Bitcoin's rules).
	RetargetAdjustmentFactor int64

	// ReduceMinDifficulty, when true, allows a special minimum-difficulty
	// rule after a long block-time gap (regtest/testnet behavior).
	ReduceMinDifficulty bool

	// MinDiffReductionTime is the gap after which ReduceMinDifficulty
	// kicks in.
	MinDiffReductionTime time.Duration

	// GenerateSupported indicates whether CPU mining is meaningful on
	// this network (mining itself is out of this module's scope; no code
	// in this module reads this flag).
	GenerateSupported bool

	// Checkpoints, ordered from oldest to newest.
	Checkpoints []Checkpoint

	// RuleChangeActivationThreshold is the number of blocks, within a
	// MinerConfirmationWindow, that must signal for a deployment for it
	// to lock in.
	RuleChangeActivationThreshold uint32

	// MinerConfirmationWindow is the size of the BIP9 signaling window.
	MinerConfirmationWindow uint32

	// Deployments holds the BIP9 deployment definitions indexed by the
	// Deployment* constants above.
	Deployments [DefinedDeployments]ConsensusDeployment

	// RelayNonStdTxs controls whether the mempool's standardness gate is
	// enforced on this network.
	RelayNonStdTxs bool

	// BlockEnforceNumRequired is the number of the most recent
	// BlockUpgradeNumToCheck blocks that must signal a new block version
	// before nodes begin enforcing the rules that version introduces.
	BlockEnforceNumRequired uint64

	// BlockRejectNumRequired is the number of the most recent
	// BlockUpgradeNumToCheck blocks that must signal a new block version
	// before nodes reject blocks with the old version outright.
	BlockRejectNumRequired uint64

	// BlockUpgradeNumToCheck is the number of preceding blocks examined
	// for the pre-BIP9 majority-version upgrade checks.
	BlockUpgradeNumToCheck uint64

	// UseCheckpoints controls whether blocks at checkpoint heights must
	// match the checkpoint hash and whether script checks are skipped at or
	// below the last checkpoint. Reorg depth is not limited by checkpoints.
	UseCheckpoints bool
}

// TimeToSeconds is a convenience over time.Time.Unix kept here because most
// BIP9/MTP arithmetic in this package works in int64 Unix seconds.
func TimeToSeconds(t time.Time) int64 {
	return t.Unix()
}

// MainNetParams defines the parameters for the main network.
var MainNetParams = Params{
	Name:         "mainnet",
	Net:          0xd9b4bef9,
	GenesisBlock: &mainNetGenesisBlock,
	GenesisHash:  &mainNetGenesisHash,

	PowLimit:                 mainPowLimit,
	PowLimitBits:             0x1d00ffff,
	CoinbaseMaturity:         100,
	SubsidyReductionInterval: 210000,
	TargetTimespan:           targetTimespan,
	TargetTimePerBlock:       targetSpacing,
	RetargetAdjustmentFactor: 4,
	ReduceMinDifficulty:      false,
	GenerateSupported:        false,

	Checkpoints: []Checkpoint{
		{Height: 11111, Hash: newHashFromStr("0000000069e244f73d78e8fd29ba2fd2ed618bd6fa2ee92559f542fdb26e7c1d")},
		{Height: 33333, Hash: newHashFromStr("000000002dd5588a74784eaa7ab0507a18ad16a236e7b1ce69f00d7ddfb5d0a6")},
	},

	RuleChangeActivationThreshold: 1916, // 95% of 2016
	MinerConfirmationWindow:       2016,
	Deployments: [DefinedDeployments]ConsensusDeployment{
		DeploymentTestDummy: {BitNumber: 28, StartTime: 1199145601, ExpireTime: 1230767999},
		DeploymentCSV:       {BitNumber: 0, StartTime: 1462060800, ExpireTime: 1493596800},
		DeploymentSegwit:    {BitNumber: 1, StartTime: 1479168000, ExpireTime: 1510704000},
	},

	RelayNonStdTxs: false,

	BlockEnforceNumRequired: 750,
	BlockRejectNumRequired:  950,
	BlockUpgradeNumToCheck:  1000,
	UseCheckpoints:          true,
}

// TestNetParams defines the parameters for the public test network.
var TestNetParams = Params{
	Name:         "testnet",
	Net:          0x0709110b,
	GenesisBlock: &testNetGenesisBlock,
	GenesisHash:  &testNetGenesisHash,

	PowLimit:                 testNetPowLimit,
	PowLimitBits:             0x1d00ffff,
	CoinbaseMaturity:         100,
	SubsidyReductionInterval: 210000,
	TargetTimespan:           targetTimespan,
	TargetTimePerBlock:       targetSpacing,
	RetargetAdjustmentFactor: 4,
	ReduceMinDifficulty:      true,
	MinDiffReductionTime:     targetSpacing * 2,
	GenerateSupported:        true,

	Checkpoints: nil,

	RuleChangeActivationThreshold: 1512, // 75% of 2016
	MinerConfirmationWindow:       2016,
	Deployments: [DefinedDeployments]ConsensusDeployment{
		DeploymentTestDummy: {BitNumber: 28, StartTime: 1199145601, ExpireTime: 1230767999},
		DeploymentCSV:       {BitNumber: 0, StartTime: 1456790400, ExpireTime: 1493596800},
		DeploymentSegwit:    {BitNumber: 1, StartTime: 1462060800, ExpireTime: 1493596800},
	},

	RelayNonStdTxs: true,

	BlockEnforceNumRequired: 51,
	BlockRejectNumRequired:  75,
	BlockUpgradeNumToCheck:  100,
	UseCheckpoints:          true,
}

// RegressionNetParams defines the parameters for the regression test
// network, used for deterministic local testing. Difficulty retargeting is
// effectively disabled (PowLimitBits admits about half of all hashes) and
// checkpoints are empty so any chain can be built from genesis.
var RegressionNetParams = Params{
	Name:         "regtest",
	Net:          0xdab5bffa,
	GenesisBlock: &regTestGenesisBlock,
	GenesisHash:  &regTestGenesisHash,

	PowLimit:                 regressionPowLimit,
	PowLimitBits:             0x207fffff,
	CoinbaseMaturity:         100,
	SubsidyReductionInterval: 150,
	TargetTimespan:           targetTimespan,
	TargetTimePerBlock:       targetSpacing,
	RetargetAdjustmentFactor: 4,
	ReduceMinDifficulty:      true,
	MinDiffReductionTime:     targetSpacing * 2,
	GenerateSupported:        true,

	Checkpoints: nil,

	RuleChangeActivationThreshold: 108, // 75% of 144
	MinerConfirmationWindow:       144,
	Deployments: [DefinedDeployments]ConsensusDeployment{
		DeploymentTestDummy: {BitNumber: 28, StartTime: 0, ExpireTime: math.MaxInt64},
		DeploymentCSV:       {BitNumber: 0, StartTime: 0, ExpireTime: math.MaxInt64},
		DeploymentSegwit:    {BitNumber: 1, StartTime: 0, ExpireTime: math.MaxInt64},
	},

	RelayNonStdTxs: true,

	BlockEnforceNumRequired: 0,
	BlockRejectNumRequired:  0,
	BlockUpgradeNumToCheck:  0,
	UseCheckpoints:          false,
}

// SegNetParams defines the parameters for the segwit test network named in
// the external interface surface.
var SegNetParams = Params{
	Name:         "segnet",
	Net:          0xc4a1abdc,
	GenesisBlock: &segNetGenesisBlock,
	GenesisHash:  &segNetGenesisHash,

	PowLimit:                 segNetPowLimit,
	PowLimitBits:             0x207fffff,
	CoinbaseMaturity:         100,
	SubsidyReductionInterval: 210000,
	TargetTimespan:           targetTimespan,
	TargetTimePerBlock:       targetSpacing,
	RetargetAdjustmentFactor: 4,
	ReduceMinDifficulty:      true,
	MinDiffReductionTime:     targetSpacing * 2,
	GenerateSupported:        true,

	Checkpoints: nil,

	RuleChangeActivationThreshold: 15, // 75% of 20
	MinerConfirmationWindow:       20,
	Deployments: [DefinedDeployments]ConsensusDeployment{
		DeploymentTestDummy: {BitNumber: 28, StartTime: 0, ExpireTime: math.MaxInt64},
		DeploymentCSV:       {BitNumber: 0, StartTime: 0, ExpireTime: math.MaxInt64},
		DeploymentSegwit:    {BitNumber: 1, StartTime: 0, ExpireTime: math.MaxInt64},
	},

	RelayNonStdTxs: true,

	BlockEnforceNumRequired: 11,
	BlockRejectNumRequired:  15,
	BlockUpgradeNumToCheck:  20,
	UseCheckpoints:          false,
}

// ErrDuplicateNet is returned by Register when a network has already been
// registered, either as a default network or by a previous Register call.
var ErrDuplicateNet = errors.New("duplicate network")

var registeredNets = make(map[uint32]struct{})

// Register records params as a known network. Library packages may look up
// networks registered this way without depending on chaincfg's default set
// directly. It is safe to call only during init, before concurrent access
// begins.
func Register(params *Params) error {
	if _, ok := registeredNets[params.Net]; ok {
		return ErrDuplicateNet
	}
	registeredNets[params.Net] = struct{}{}
	return nil
}

func mustRegister(params *Params) {
	if err := Register(params); err != nil {
		panic("chaincfg: failed to register network: " + err.Error())
	}
}

func newHashFromStr(hexStr string) *chainhash.Hash {
	hash, err := chainhash.NewHashFromStr(hexStr)
	if err != nil {
		panic(err)
	}
	return hash
}

func init() {
	mustRegister(&MainNetParams)
	mustRegister(&TestNetParams)
	mustRegister(&RegressionNetParams)
	mustRegister(&SegNetParams)
}

// Copyright (c) 2013-2016 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/pkg/errors"

	"github.com/ledgerbase/ledgerd/blockchain"
	"github.com/ledgerbase/ledgerd/database/ffldb/ldb"
	"github.com/ledgerbase/ledgerd/feeestimator"
	"github.com/ledgerbase/ledgerd/logger"
	"github.com/ledgerbase/ledgerd/mempool"
)

var log, _ = logger.Get(logger.SubsystemTags.BTCD)

// ledgerd bundles the services this composition root stands up: the
// persistent chain database, the chain state machine built on it, and the
// mempool tracking that chain.
type ledgerd struct {
	db    *ldb.LevelDB
	chain *blockchain.Chain
	pool  *mempool.TxPool
}

func newLedgerd(cfg *config) (*ledgerd, error) {
	if err := os.MkdirAll(cfg.dataDir, 0o700); err != nil {
		return nil, errors.Wrap(err, "creating data directory")
	}

	db, err := ldb.NewLevelDB(cfg.dataDir)
	if err != nil {
		return nil, errors.Wrap(err, "opening chain database")
	}

	chainDB, err := blockchain.OpenChainDB(db, cfg.netParams, blockchain.PruneConfig{
		Enabled:          cfg.PruneAfter > 0,
		PruneAfterHeight: cfg.PruneAfter,
		KeepBlocks:       cfg.KeepBlocks,
	})
	if err != nil {
		db.Close()
		return nil, errors.Wrap(err, "opening chain store")
	}

	engine := passthroughScriptEngine{}
	chain, err := blockchain.NewChain(cfg.netParams, chainDB, engine, engine)
	if err != nil {
		db.Close()
		return nil, errors.Wrap(err, "constructing chain")
	}

	pool := mempool.New(&mempool.Config{
		Policy: mempool.Policy{
			MaxTxVersion:       2,
			RequireStandard:    !cfg.netParams.RelayNonStdTxs,
			MaxOrphanTxs:       100,
			MaxOrphanTxSize:    100000,
			MaxPoolSize:        300 * 1024 * 1024,
			MinRelayTxFee:      1000,
			FreeTxRelayLimit:   15,
			MaxSigOpsCostPerTx: 80000,
			MaxAncestors:       25,
			MaxOrphanTTL:       15 * time.Minute,
		},
		Params:       cfg.netParams,
		Chain:        chain,
		Verifier:     engine,
		SigOps:       engine,
		Standard:     engine,
		FeeEstimator: feeestimator.NopEstimator{},
	})
	pool.Subscribe(chain)

	return &ledgerd{db: db, chain: chain, pool: pool}, nil
}

func (l *ledgerd) shutdown() {
	if err := l.db.Close(); err != nil {
		log.Errorf("Error closing chain database: %s", err)
	}
}

func main() {
	cfg, err := parseConfig()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	logger.InitLogRotators(cfg.logFile, cfg.errLogFile)

	log.Infof("Starting ledgerd (network: %s, datadir: %s)", cfg.netParams.Name, cfg.dataDir)

	node, err := newLedgerd(cfg)
	if err != nil {
		log.Errorf("Error starting ledgerd: %s", err)
		os.Exit(1)
	}

	log.Infof("Chain tip at height %d", node.chain.Tip().Height)

	interrupt := make(chan os.Signal, 1)
	signal.Notify(interrupt, os.Interrupt, syscall.SIGTERM)
	<-interrupt

	log.Infof("Shutting down ledgerd")
	node.shutdown()
}

// Copyright (c) 2013-2016 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package main

import (
	"path/filepath"

	"github.com/jessevdk/go-flags"
	"github.com/pkg/errors"

	"github.com/ledgerbase/ledgerd/chaincfg"
)

const (
	defaultDataDirname = "data"
	defaultLogFilename = "ledgerd.log"
	defaultErrFilename = "ledgerd_err.log"
)

// config holds the flags this composition root understands. It deliberately
// excludes everything the core doesn't need to stand up: no peer-to-peer
// listen address, no RPC credentials, no wallet path.
type config struct {
	HomeDir     string `long:"datadir" description:"Directory to store the chain database and logs"`
	TestNet     bool   `long:"testnet" description:"Use the test network"`
	RegTest     bool   `long:"regtest" description:"Use the regression test network"`
	SegNet      bool   `long:"segnet" description:"Use the (deprecated) segwit test network"`
	PruneAfter  int32  `long:"pruneafter" description:"Prune raw block and undo data of blocks above this height (0 disables pruning)"`
	KeepBlocks  int32  `long:"keepblocks" description:"Number of blocks a connected block's raw block and undo data are kept before pruning"`
	netParams   *chaincfg.Params
	dataDir     string
	logFile     string
	errLogFile  string
}

func parseConfig() (*config, error) {
	cfg := &config{
		HomeDir:    defaultHomeDir(),
		KeepBlocks: 288,
	}
	parser := flags.NewParser(cfg, flags.PrintErrors|flags.HelpFlag)
	_, err := parser.Parse()
	if err != nil {
		return nil, err
	}

	numNets := 0
	cfg.netParams = &chaincfg.MainNetParams
	if cfg.TestNet {
		cfg.netParams = &chaincfg.TestNetParams
		numNets++
	}
	if cfg.RegTest {
		cfg.netParams = &chaincfg.RegressionNetParams
		numNets++
	}
	if cfg.SegNet {
		cfg.netParams = &chaincfg.SegNetParams
		numNets++
	}
	if numNets > 1 {
		return nil, errors.New("only one of --testnet, --regtest, --segnet may be used")
	}

	cfg.dataDir = filepath.Join(cfg.HomeDir, defaultDataDirname, cfg.netParams.Name)
	cfg.logFile = filepath.Join(cfg.HomeDir, "logs", cfg.netParams.Name, defaultLogFilename)
	cfg.errLogFile = filepath.Join(cfg.HomeDir, "logs", cfg.netParams.Name, defaultErrFilename)

	if cfg.PruneAfter < 0 {
		return nil, errors.New("pruneafter may not be negative")
	}
	if cfg.KeepBlocks < 0 {
		return nil, errors.New("keepblocks may not be negative")
	}

	return cfg, nil
}

func defaultHomeDir() string {
	return filepath.Join(".", "ledgerd-data")
}

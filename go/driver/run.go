// Copyright (c) 2024 Fantom Foundation
//
// Use of this software is governed by the Business Source License included
// in the LICENSE file and at fantom.foundation/bsl11.
//
// Change Date: 2028-4-16
//
// On the date above, in accordance with the Business Source License, use of
// this software will be governed by the GNU Lesser General Public License v3.

package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/Fantom-foundation/Orbis/go/chainspec"
	cliUtils "github.com/Fantom-foundation/Orbis/go/driver/cli"
	"github.com/Fantom-foundation/Orbis/go/executor"
	"github.com/Fantom-foundation/Orbis/go/rollup"
	"github.com/Fantom-foundation/Orbis/go/store"
	"github.com/dsnet/golib/unitconv"
	"github.com/ethereum/go-ethereum/log"
	"github.com/urfave/cli/v2"
)

var RunCmd = cliUtils.AddCpuProfiling(cli.Command{
	Action:    doRun,
	Name:      "run",
	Usage:     "Execute and verify the blocks of the given fixtures",
	ArgsUsage: "<fixture>...",
	Flags: []cli.Flag{
		cliUtils.ChainFlag,
		cliUtils.VMFlag,
		cliUtils.JobsFlag,
		cliUtils.DbFlag,
	},
})

// counters collect the progress of all workers.
type counters struct {
	blocks atomic.Int64
	gas    atomic.Uint64
}

func doRun(context *cli.Context) error {
	paths := context.Args().Slice()
	if len(paths) == 0 {
		return fmt.Errorf("missing fixture argument")
	}

	chain, err := cliUtils.ChainFlag.Fetch(context)
	if err != nil {
		return err
	}
	vm, err := cliUtils.VMFlag.Fetch(context)
	if err != nil {
		return err
	}
	dbDir := cliUtils.DbFlag.Fetch(context)
	if dbDir != "" {
		if err := os.MkdirAll(dbDir, 0700); err != nil {
			return fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	var progress counters
	printer := startProgressPrinter(&progress, 5*time.Second)
	defer printer.stop()

	failures := runFixtures(paths, cliUtils.JobsFlag.Fetch(context), func(path string) error {
		return runFixture(path, chain, vm, dbDir, &progress)
	})

	for _, path := range paths {
		if err, failed := failures[path]; failed {
			fmt.Printf("FAIL %s: %v\n", path, err)
		} else {
			fmt.Printf("PASS %s\n", path)
		}
	}
	fmt.Printf("Executed %d blocks using %d gas\n", progress.blocks.Load(), progress.gas.Load())
	if len(failures) > 0 {
		return fmt.Errorf("%d of %d fixtures failed", len(failures), len(paths))
	}
	return nil
}

// runFixtures processes the given paths with a team of workers and returns
// the errors of all failed paths.
func runFixtures(paths []string, numJobs int, run func(path string) error) map[string]error {
	var mutex sync.Mutex
	failures := map[string]error{}

	var wg sync.WaitGroup
	wg.Add(numJobs)
	pathChannel := make(chan string, 10*numJobs)
	for i := 0; i < numJobs; i++ {
		go func() {
			defer wg.Done()
			for path := range pathChannel {
				if err := run(path); err != nil {
					mutex.Lock()
					failures[path] = err
					mutex.Unlock()
				}
			}
		}()
	}

	for _, path := range paths {
		pathChannel <- path
	}
	close(pathChannel)
	wg.Wait()
	return failures
}

// runFixture replays all blocks of a fixture as one batch and commits the
// resulting state. If dbDir is set, the state is kept in a badger database
// in a sub-directory named after the fixture.
func runFixture(path string, chain *chainspec.Spec, vm rollup.VM, dbDir string, progress *counters) (err error) {
	fixture, err := LoadFixture(path)
	if err != nil {
		return err
	}
	if fixture.Chain != "" {
		if chain, err = chainspec.Resolve(fixture.Chain); err != nil {
			return err
		}
	}

	var db *store.Store
	if dbDir == "" {
		db = store.NewMemory()
	} else {
		name := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
		if db, err = store.Open(filepath.Join(dbDir, name)); err != nil {
			return err
		}
	}
	defer func() {
		err = errors.Join(err, db.Close())
	}()

	if err := db.Alloc(fixture.Alloc); err != nil {
		return fmt.Errorf("failed to allocate initial state: %w", err)
	}

	batch := executor.NewBatchExecutor(executor.NewFactory(chain, executor.NewEvmConfig(vm)), db)
	for _, fixtureBlock := range fixture.Blocks {
		block, err := fixtureBlock.Block()
		if err != nil {
			return err
		}
		if block.Number() > 0 {
			if err := db.SetBlockHash(block.Number()-1, block.Header.ParentHash); err != nil {
				return err
			}
		}
		if err := batch.ExecuteAndVerifyOne(block, fixtureBlock.TotalDifficulty); err != nil {
			return fmt.Errorf("block %d: %w", block.Number(), err)
		}
		progress.blocks.Add(1)
		progress.gas.Add(block.Header.GasUsed)
	}

	outcome := batch.Finalize()
	log.Info("Fixture executed", "fixture", path, "chain", chain.Name(), "first", outcome.FirstBlock, "blocks", len(outcome.Receipts))
	return db.Commit(outcome.Bundle)
}

type progressPrinter struct {
	done        chan bool
	printerDone chan bool
}

func startProgressPrinter(progress *counters, interval time.Duration) *progressPrinter {
	res := &progressPrinter{
		done:        make(chan bool),
		printerDone: make(chan bool),
	}
	go func() {
		defer close(res.printerDone)
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		startTime := time.Now()
		lastTime := startTime
		lastGas := uint64(0)
		for {
			select {
			case <-res.done:
				return
			case curTime := <-ticker.C:
				gas := progress.gas.Load()
				rate := float64(gas-lastGas) / curTime.Sub(lastTime).Seconds()
				lastTime, lastGas = curTime, gas
				fmt.Printf(
					"[t=%4d:%02d] - Processed %d blocks, %sgas/s\n",
					int(curTime.Sub(startTime).Round(time.Second).Minutes()),
					int(curTime.Sub(startTime).Round(time.Second).Seconds())%60,
					progress.blocks.Load(),
					unitconv.FormatPrefix(rate, unitconv.SI, 0),
				)
			}
		}
	}()
	return res
}

func (p *progressPrinter) stop() {
	close(p.done)
	<-p.printerDone
}

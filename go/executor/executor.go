// Copyright (c) 2024 Fantom Foundation
//
// Use of this software is governed by the Business Source License included
// in the LICENSE file and at fantom.foundation/bsl11.
//
// Change Date: 2028-4-16
//
// On the date above, in accordance with the Business Source License, use of
// this software will be governed by the GNU Lesser General Public License v3.

package executor

import (
	"github.com/Fantom-foundation/Orbis/go/rollup"
	"github.com/Fantom-foundation/Orbis/go/state"
	"github.com/ethereum/go-ethereum/log"
	"github.com/holiman/uint256"
)

// BlockExecutionOutput is the result of executing a single block.
type BlockExecutionOutput struct {
	State    *state.BundleState
	Receipts rollup.Receipts
	GasUsed  uint64
	Requests rollup.Requests
}

// BlockExecutor executes individual blocks on top of a database.
type BlockExecutor struct {
	factory *Factory
	db      rollup.Database
	hook    rollup.StateHook
}

func NewBlockExecutor(factory *Factory, db rollup.Database) *BlockExecutor {
	return &BlockExecutor{factory: factory, db: db}
}

// WithStateHook registers a hook notified about all state changes of the
// executed blocks.
func (e *BlockExecutor) WithStateHook(hook rollup.StateHook) *BlockExecutor {
	e.hook = hook
	return e
}

// Execute runs all phases of the block. The database is not modified; the
// changes are returned as a bundle.
func (e *BlockExecutor) Execute(block *rollup.Block, totalDifficulty *uint256.Int) (*BlockExecutionOutput, error) {
	strategy := e.factory.Create(e.db)
	strategy.WithStateHook(e.hook)

	output, requests, err := executeBlock(strategy, block, totalDifficulty)
	if err != nil {
		return nil, err
	}
	bundle, err := strategy.Finish()
	if err != nil {
		return nil, err
	}
	return &BlockExecutionOutput{
		State:    bundle,
		Receipts: output.Receipts,
		GasUsed:  output.GasUsed,
		Requests: requests,
	}, nil
}

func executeBlock(strategy *Strategy, block *rollup.Block, totalDifficulty *uint256.Int) (*ExecuteOutput, rollup.Requests, error) {
	if err := strategy.ApplyPreExecutionChanges(block, totalDifficulty); err != nil {
		return nil, nil, err
	}
	output, err := strategy.ExecuteTransactions(block, totalDifficulty)
	if err != nil {
		return nil, nil, err
	}
	requests, err := strategy.ApplyPostExecutionChanges(block, totalDifficulty, output.Receipts)
	if err != nil {
		return nil, nil, err
	}
	return output, requests, nil
}

// ExecutionOutcome collects the results of a range of consecutive blocks.
type ExecutionOutcome struct {
	Bundle *state.BundleState
	// Receipts holds the receipts of each block, starting at FirstBlock.
	Receipts   []rollup.Receipts
	Requests   []rollup.Requests
	FirstBlock uint64
}

// BlockReceipts returns the receipts of the block with the given number.
func (o *ExecutionOutcome) BlockReceipts(number uint64) (rollup.Receipts, bool) {
	if number < o.FirstBlock || number-o.FirstBlock >= uint64(len(o.Receipts)) {
		return nil, false
	}
	return o.Receipts[number-o.FirstBlock], true
}

// BatchExecutor executes consecutive blocks on a single state, validating
// each block after its execution. The changes of all blocks accumulate in
// one bundle, which keeps the reverts of each block.
type BatchExecutor struct {
	factory    *Factory
	state      *state.State
	hook       rollup.StateHook
	receipts   []rollup.Receipts
	requests   []rollup.Requests
	firstBlock *uint64
}

func NewBatchExecutor(factory *Factory, db rollup.Database) *BatchExecutor {
	return &BatchExecutor{
		factory: factory,
		state:   state.NewBuilder(db).WithBundleUpdate().Build(),
	}
}

// WithStateHook registers a hook notified about all state changes of the
// executed blocks.
func (e *BatchExecutor) WithStateHook(hook rollup.StateHook) *BatchExecutor {
	e.hook = hook
	return e
}

// ExecuteAndVerifyOne executes the next block of the batch and checks the
// result against the block's header. A failed block leaves the batch
// unusable.
func (e *BatchExecutor) ExecuteAndVerifyOne(block *rollup.Block, totalDifficulty *uint256.Int) error {
	if e.firstBlock == nil {
		number := block.Number()
		e.firstBlock = &number
	}

	strategy := e.factory.CreateWithState(e.state)
	strategy.WithStateHook(e.hook)
	output, requests, err := executeBlock(strategy, block, totalDifficulty)
	if err != nil {
		return err
	}
	if err := strategy.ValidateBlockPostExecution(block, output.Receipts, requests); err != nil {
		return err
	}
	e.state.MergeTransitions(state.Reverts)

	e.receipts = append(e.receipts, output.Receipts)
	e.requests = append(e.requests, requests)
	log.Debug("Executed block of batch", "block", block.Number(), "gasUsed", output.GasUsed, "bundleSize", e.SizeHint())
	return nil
}

// SizeHint estimates the size of the accumulated bundle.
func (e *BatchExecutor) SizeHint() int {
	return e.state.Bundle().Size()
}

// Finalize hands out the accumulated outcome of all executed blocks.
func (e *BatchExecutor) Finalize() *ExecutionOutcome {
	res := &ExecutionOutcome{
		Bundle:   e.state.TakeBundle(),
		Receipts: e.receipts,
		Requests: e.requests,
	}
	if e.firstBlock != nil {
		res.FirstBlock = *e.firstBlock
	}
	e.receipts, e.requests, e.firstBlock = nil, nil, nil
	return res
}

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
	"errors"
	"reflect"
	"strings"
	"testing"

	"github.com/Fantom-foundation/Orbis/go/chainspec"
	blockexecutor "github.com/Fantom-foundation/Orbis/go/executor"
	"github.com/Fantom-foundation/Orbis/go/rollup"
	"github.com/Fantom-foundation/Orbis/go/store"
	"github.com/holiman/uint256"
	"golang.org/x/exp/maps"
)

// Scenario represents a test scenario for block execution. A scenario
// consists of a world state before and after the block, the block to be
// executed, the chain it is executed on, and the expected receipts. If an
// error is expected, the block must be rejected and no state is checked.
//
// The commitments of the block's header, gas used, receipts root and logs
// bloom, are derived from the expected receipts.
type Scenario struct {
	Chain    *chainspec.Spec
	Before   WorldState
	After    WorldState
	Block    rollup.Block
	Receipts rollup.Receipts
	Error    error
}

func (s *Scenario) Run(t *testing.T, vm rollup.VM) {
	t.Helper()
	factory := blockexecutor.NewFactory(s.Chain, blockexecutor.NewEvmConfig(vm))
	block := s.block()

	db := newScenarioStore(t, s.Before)
	output, err := blockexecutor.NewBlockExecutor(factory, db).Execute(block, new(uint256.Int))
	if s.Error != nil {
		if !errors.Is(err, s.Error) {
			t.Fatalf("unexpected error, want %v, got %v", s.Error, err)
		}
		return
	}
	if err != nil {
		t.Fatalf("failed to execute block: %v", err)
	}

	// check the receipts
	if want, got := len(s.Receipts), len(output.Receipts); want != got {
		t.Fatalf("unexpected number of receipts, want %d, got %d", want, got)
	}
	for i, want := range s.Receipts {
		if got := output.Receipts[i]; !reflect.DeepEqual(want, got) {
			t.Errorf("unexpected receipt %d, want %+v, got %+v", i, want, got)
		}
	}
	if want, got := block.Header.GasUsed, output.GasUsed; want != got {
		t.Errorf("unexpected gas used, want %d, got %d", want, got)
	}

	// check the world state after the block
	if err := db.Commit(output.State); err != nil {
		t.Fatalf("failed to commit block: %v", err)
	}
	addresses := append(maps.Keys(s.Before), maps.Keys(s.After)...)
	addresses = append(addresses, output.State.Addresses()...)
	keys := map[rollup.Address][]rollup.Key{}
	for _, world := range []WorldState{s.Before, s.After} {
		for address, account := range world {
			keys[address] = append(keys[address], maps.Keys(account.Storage)...)
		}
	}
	for address, account := range output.State.State {
		keys[address] = append(keys[address], maps.Keys(account.Storage)...)
	}
	got, err := readWorldState(db, addresses, keys)
	if err != nil {
		t.Fatalf("failed to read world state: %v", err)
	}
	if want := s.After; !want.Equal(got) {
		diff := strings.Join(got.Diff(want), "\n\t")
		t.Fatalf("unexpected world state after the block: \n\t%v", diff)
	}

	// the header commitments derived from the receipts have to be accepted
	// by the validating batch executor
	batch := blockexecutor.NewBatchExecutor(factory, newScenarioStore(t, s.Before))
	if err := batch.ExecuteAndVerifyOne(block, new(uint256.Int)); err != nil {
		t.Errorf("block was not accepted by batch executor: %v", err)
	}
}

// block returns a copy of the scenario's block with the header commitments
// derived from the expected receipts.
func (s *Scenario) block() *rollup.Block {
	res := s.Block
	if len(s.Receipts) > 0 {
		res.Header.GasUsed = s.Receipts[len(s.Receipts)-1].CumulativeGasUsed
	}
	res.Header.ReceiptsRoot = blockexecutor.ReceiptsRoot(s.Chain, res.Number(), res.Timestamp(), s.Receipts)
	res.Header.LogsBloom = s.Receipts.LogsBloom()
	return &res
}

func (s *Scenario) Clone() Scenario {
	return Scenario{
		Chain:    s.Chain,
		Before:   s.Before.Clone(),
		After:    s.After.Clone(),
		Block:    s.Block,
		Receipts: s.Receipts,
		Error:    s.Error,
	}
}

func newScenarioStore(t *testing.T, state WorldState) *store.Store {
	t.Helper()
	db := store.NewMemory()
	if err := db.Alloc(state.Alloc()); err != nil {
		t.Fatalf("failed to initialize world state: %v", err)
	}
	return db
}

// getVMs creates an instance of every registered VM.
func getVMs(t *testing.T) map[string]rollup.VM {
	t.Helper()
	res := map[string]rollup.VM{}
	for _, name := range rollup.RegisteredVMs() {
		vm, err := rollup.NewVM(name)
		if err != nil {
			t.Fatalf("failed to create VM %s: %v", name, err)
		}
		res[name] = vm
	}
	return res
}

// Copyright (c) 2024 Fantom Foundation
//
// Use of this software is governed by the Business Source License included
// in the LICENSE file and at fantom.foundation/bsl11.
//
// Change Date: 2028-4-16
//
// On the date above, in accordance with the Business Source License, use of
// this software will be governed by the GNU Lesser General Public License v3.

// Package executor executes the blocks of an Optimism style rollup. A
// Factory binds a chain spec and a VM to fresh states and creates one
// Strategy per block. BlockExecutor and BatchExecutor drive the phases of
// these strategies.
package executor

import (
	"github.com/Fantom-foundation/Orbis/go/rollup"
	"github.com/Fantom-foundation/Orbis/go/state"
)

// Factory creates execution strategies. It holds no state besides its
// configuration and may be shared by concurrent block executions.
type Factory struct {
	chainSpec rollup.ChainSpec
	evmConfig *EvmConfig
}

func NewFactory(chainSpec rollup.ChainSpec, evmConfig *EvmConfig) *Factory {
	return &Factory{chainSpec: chainSpec, evmConfig: evmConfig}
}

func (f *Factory) ChainSpec() rollup.ChainSpec {
	return f.chainSpec
}

// Create builds a new state over the given database, tracking all changes
// in a bundle, and returns a strategy owning it.
func (f *Factory) Create(db rollup.Database) *Strategy {
	return f.CreateWithState(state.NewBuilder(db).WithBundleUpdate().Build())
}

// CreateWithState returns a strategy operating on the given state. The
// state must not be used by any other strategy at the same time.
func (f *Factory) CreateWithState(db *state.State) *Strategy {
	return newStrategy(f.chainSpec, f.evmConfig, db)
}

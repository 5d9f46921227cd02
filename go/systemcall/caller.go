// Copyright (c) 2024 Fantom Foundation
//
// Use of this software is governed by the Business Source License included
// in the LICENSE file and at fantom.foundation/bsl11.
//
// Change Date: 2028-4-16
//
// On the date above, in accordance with the Business Source License, use of
// this software will be governed by the GNU Lesser General Public License v3.

// Package systemcall performs the contract calls mandated by the protocol
// before the transactions of a block are executed.
package systemcall

import (
	"github.com/Fantom-foundation/Orbis/go/rollup"
	"github.com/Fantom-foundation/Orbis/go/state"
	"github.com/ethereum/go-ethereum/log"
	"github.com/holiman/uint256"
)

// BeaconRootsCallGasLimit is the gas available to the EIP-4788 system call.
const BeaconRootsCallGasLimit = 30_000_000

// Caller issues system calls through a VM and forwards all resulting state
// changes to an optional state hook.
type Caller struct {
	chainSpec rollup.ChainSpec
	vm        rollup.VM
	hook      rollup.StateHook
}

// NewCaller creates a caller without a state hook.
func NewCaller(chainSpec rollup.ChainSpec, vm rollup.VM) *Caller {
	return &Caller{chainSpec: chainSpec, vm: vm, hook: rollup.NoopStateHook{}}
}

// WithStateHook installs the hook to be notified about state changes. A nil
// hook disables notifications.
func (c *Caller) WithStateHook(hook rollup.StateHook) {
	if hook == nil {
		hook = rollup.NoopStateHook{}
	}
	c.hook = hook
}

// OnState forwards the given state change to the installed hook.
func (c *Caller) OnState(result *rollup.ResultAndState) {
	c.hook.OnState(result)
}

// ApplyBeaconRootContractCall stores the parent beacon block root in the
// EIP-4788 contract. Blocks before Cancun are left untouched. The Cancun
// genesis block must declare a zero root and performs no call.
//
// The call is executed by the system address in an environment derived
// from the given one with the block gas limit raised to the call's limit
// and a zero base fee. The given environment is not modified.
func (c *Caller) ApplyBeaconRootContractCall(
	env *rollup.Env,
	timestamp, number uint64,
	parentBeaconBlockRoot *rollup.Hash,
	db *state.State,
) error {
	if !c.chainSpec.IsForkActiveAtTimestamp(rollup.Cancun, timestamp) {
		return nil
	}
	if parentBeaconBlockRoot == nil {
		return ErrMissingParentBeaconBlockRoot
	}
	root := *parentBeaconBlockRoot
	if number == 0 {
		if !root.IsZero() {
			return &GenesisParentBeaconBlockRootNotZeroError{Root: root}
		}
		return nil
	}

	to := rollup.BeaconRootsAddress
	callEnv := *env
	callEnv.Block.GasLimit = BeaconRootsCallGasLimit
	callEnv.Block.BaseFee = uint256.Int{}
	callEnv.Tx = rollup.TxEnv{
		Caller:     rollup.SystemAddress,
		GasLimit:   BeaconRootsCallGasLimit,
		TransactTo: &to,
		Data:       rollup.Data(root[:]),
	}

	res, err := c.vm.Transact(&callEnv, db)
	if err != nil {
		return &BeaconRootContractCallError{Root: root, Err: err}
	}
	delete(res.State, rollup.SystemAddress)
	delete(res.State, env.Block.Coinbase)

	log.Trace("Applied beacon root contract call", "block", number, "root", root, "status", res.Result.Status)
	c.OnState(&res)
	db.Commit(res.State)
	return nil
}

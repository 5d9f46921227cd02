// Copyright (c) 2024 Fantom Foundation
//
// Use of this software is governed by the Business Source License included
// in the LICENSE file and at fantom.foundation/bsl11.
//
// Change Date: 2028-4-16
//
// On the date above, in accordance with the Business Source License, use of
// this software will be governed by the GNU Lesser General Public License v3.

package floria

import (
	"github.com/Fantom-foundation/Orbis/go/rollup"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
)

// callResult is the outcome of the top-level frame of a transaction.
type callResult struct {
	status     rollup.ExecutionStatus
	output     rollup.Data
	gasLeft    uint64
	logs       []rollup.Log
	haltReason string
}

// unsupportedCode is reported for contracts with bytecode. The reference
// processor covers transfers, deposits, precompiles and system contracts
// but does not interpret EVM code.
const unsupportedCode = "bytecode execution not supported"

func call(ctx *runContext, env *rollup.Env, gas uint64) callResult {
	tx := &env.Tx
	recipient := *tx.TransactTo

	snapshot := ctx.snapshot()
	if !ctx.canTransferValue(&tx.Value, tx.Caller, &recipient) {
		return callResult{status: rollup.ExecutionRevert, gasLeft: gas}
	}
	ctx.transferValue(&tx.Value, tx.Caller, recipient)

	result := dispatch(ctx, env, recipient, gas)
	if result.status != rollup.ExecutionSuccess {
		ctx.restore(snapshot)
	}
	return result
}

func dispatch(ctx *runContext, env *rollup.Env, recipient rollup.Address, gas uint64) callResult {
	if result, isPrecompiled := handlePrecompiled(env.Cfg.Spec, env.Tx.Data, recipient, gas); isPrecompiled {
		return result
	}
	if result, isBeaconRoots := handleBeaconRoots(ctx, env, recipient, gas); isBeaconRoots {
		return result
	}
	if len(ctx.getCode(recipient)) == 0 {
		return callResult{status: rollup.ExecutionSuccess, gasLeft: gas}
	}
	return callResult{status: rollup.ExecutionHalt, haltReason: unsupportedCode}
}

// create deploys a new contract at the address derived from the sender and
// its nonce before the transaction.
func create(ctx *runContext, env *rollup.Env, nonce uint64, gas uint64) callResult {
	tx := &env.Tx
	address := createAddress(tx.Caller, nonce)

	if ctx.getNonce(address) != 0 || !ctx.account(address).Info.HasNoCode() {
		return callResult{status: rollup.ExecutionHalt, haltReason: "contract address collision"}
	}

	snapshot := ctx.snapshot()
	if !ctx.canTransferValue(&tx.Value, tx.Caller, &address) {
		return callResult{status: rollup.ExecutionRevert, gasLeft: gas}
	}
	ctx.markCreated(address)
	if env.Cfg.Spec >= rollup.SpuriousDragon {
		ctx.setNonce(address, 1)
	}
	ctx.transferValue(&tx.Value, tx.Caller, address)

	if len(tx.Data) != 0 {
		ctx.restore(snapshot)
		return callResult{status: rollup.ExecutionHalt, haltReason: unsupportedCode}
	}
	return callResult{status: rollup.ExecutionSuccess, output: address[:], gasLeft: gas}
}

func createAddress(sender rollup.Address, nonce uint64) rollup.Address {
	return rollup.Address(crypto.CreateAddress(common.Address(sender), nonce))
}

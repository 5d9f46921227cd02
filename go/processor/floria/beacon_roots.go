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
	"encoding/binary"

	"github.com/Fantom-foundation/Orbis/go/rollup"
)

const (
	// historyBufferLength is the size of the ring buffer of the EIP-4788
	// beacon roots contract.
	historyBufferLength = 8191

	beaconRootsSetGas = 2 * 22_100
	beaconRootsGetGas = 2 * 2_100
)

// handleBeaconRoots emulates the EIP-4788 beacon roots contract. Calls by
// the system address store the root of the parent beacon block, all other
// calls look up the root stored for a timestamp.
func handleBeaconRoots(ctx *runContext, env *rollup.Env, recipient rollup.Address, gas uint64) (callResult, bool) {
	if recipient != rollup.BeaconRootsAddress || env.Cfg.Spec < rollup.Cancun {
		return callResult{}, false
	}
	if env.Tx.Caller == rollup.SystemAddress {
		return setBeaconRoot(ctx, env, gas), true
	}
	return getBeaconRoot(ctx, env, gas), true
}

func setBeaconRoot(ctx *runContext, env *rollup.Env, gas uint64) callResult {
	if gas < beaconRootsSetGas {
		return callResult{status: rollup.ExecutionHalt, haltReason: "out of gas"}
	}
	if len(env.Tx.Data) != 32 {
		return callResult{status: rollup.ExecutionRevert, gasLeft: gas}
	}
	timestamp := env.Block.Timestamp
	timestampKey, rootKey := beaconRootKeys(timestamp)
	ctx.setStorage(rollup.BeaconRootsAddress, timestampKey, wordFromUint64(timestamp))
	ctx.setStorage(rollup.BeaconRootsAddress, rootKey, rollup.Word(env.Tx.Data))
	return callResult{status: rollup.ExecutionSuccess, gasLeft: gas - beaconRootsSetGas}
}

func getBeaconRoot(ctx *runContext, env *rollup.Env, gas uint64) callResult {
	if gas < beaconRootsGetGas {
		return callResult{status: rollup.ExecutionHalt, haltReason: "out of gas"}
	}
	gas -= beaconRootsGetGas
	input := env.Tx.Data
	if len(input) != 32 {
		return callResult{status: rollup.ExecutionRevert, gasLeft: gas}
	}
	requested := rollup.Word(input)
	if requested.IsZero() {
		return callResult{status: rollup.ExecutionRevert, gasLeft: gas}
	}
	for _, b := range requested[:24] {
		if b != 0 {
			return callResult{status: rollup.ExecutionRevert, gasLeft: gas}
		}
	}
	timestamp := binary.BigEndian.Uint64(requested[24:])
	timestampKey, rootKey := beaconRootKeys(timestamp)
	if ctx.getStorage(rollup.BeaconRootsAddress, timestampKey) != requested {
		return callResult{status: rollup.ExecutionRevert, gasLeft: gas}
	}
	root := ctx.getStorage(rollup.BeaconRootsAddress, rootKey)
	return callResult{status: rollup.ExecutionSuccess, output: root[:], gasLeft: gas}
}

func beaconRootKeys(timestamp uint64) (rollup.Key, rollup.Key) {
	index := timestamp % historyBufferLength
	return rollup.Key(wordFromUint64(index)), rollup.Key(wordFromUint64(index + historyBufferLength))
}

func wordFromUint64(v uint64) rollup.Word {
	var res rollup.Word
	binary.BigEndian.PutUint64(res[24:], v)
	return res
}

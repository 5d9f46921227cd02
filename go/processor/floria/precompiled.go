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
	geth "github.com/ethereum/go-ethereum/core/vm"
)

func handlePrecompiled(spec rollup.Hardfork, input rollup.Data, address rollup.Address, gas uint64) (callResult, bool) {
	contract, ok := precompiledContract(address, spec)
	if !ok {
		return callResult{}, false
	}
	gasCost := contract.RequiredGas(input)
	if gas < gasCost {
		return callResult{status: rollup.ExecutionHalt, haltReason: "out of gas"}, true
	}
	gas -= gasCost
	output, err := contract.Run(input)
	if err != nil {
		// precompiled contracts only return errors on invalid input
		return callResult{status: rollup.ExecutionHalt, haltReason: err.Error()}, true
	}
	return callResult{
		status:  rollup.ExecutionSuccess,
		output:  output,
		gasLeft: gas,
	}, true
}

func precompiledContract(address rollup.Address, spec rollup.Hardfork) (geth.PrecompiledContract, bool) {
	var precompiles map[common.Address]geth.PrecompiledContract
	switch {
	case spec >= rollup.Cancun:
		precompiles = geth.PrecompiledContractsCancun
	case spec >= rollup.Berlin:
		precompiles = geth.PrecompiledContractsBerlin
	case spec >= rollup.Istanbul:
		precompiles = geth.PrecompiledContractsIstanbul
	case spec >= rollup.Byzantium:
		precompiles = geth.PrecompiledContractsByzantium
	default:
		precompiles = geth.PrecompiledContractsHomestead
	}
	contract, ok := precompiles[common.Address(address)]
	return contract, ok
}

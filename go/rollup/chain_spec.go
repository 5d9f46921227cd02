// Copyright (c) 2024 Fantom Foundation
//
// Use of this software is governed by the Business Source License included
// in the LICENSE file and at fantom.foundation/bsl11.
//
// Change Date: 2028-4-16
//
// On the date above, in accordance with the Business Source License, use of
// this software will be governed by the GNU Lesser General Public License v3.

package rollup

import (
	"fmt"

	"github.com/holiman/uint256"
)

//go:generate mockgen -source chain_spec.go -destination chain_spec_mock.go -package rollup

// ChainSpec provides read-only access to the hardfork schedule and the
// protocol constants of a chain.
type ChainSpec interface {
	ChainID() uint64
	IsForkActiveAtBlock(fork Hardfork, number uint64) bool
	IsForkActiveAtTimestamp(fork Hardfork, timestamp uint64) bool
	// ParisStatusAtBlock reports whether the merge is known to be active at
	// the given block. Chains activating Paris by total difficulty without
	// a known fork block report ParisUnknown.
	ParisStatusAtBlock(number uint64) ParisStatus
	// TerminalTotalDifficulty is the merge threshold, nil if unset.
	TerminalTotalDifficulty() *uint256.Int
	// Create2DeployerCode is the bytecode force-deployed at the Canyon
	// transition, nil if the deployment is not configured.
	Create2DeployerCode() Code
}

// ParisStatus is the activation status of the merge at a given block.
type ParisStatus int

const (
	ParisUnknown ParisStatus = iota
	ParisActive
	ParisInactive
)

func (s ParisStatus) String() string {
	switch s {
	case ParisUnknown:
		return "unknown"
	case ParisActive:
		return "active"
	case ParisInactive:
		return "inactive"
	default:
		return fmt.Sprintf("ParisStatus(%d)", int(s))
	}
}

// Features is the set of protocol rules in effect for one block. It is
// derived once per block from the chain spec and consulted by all phases
// of the block execution.
type Features struct {
	Number    uint64
	Timestamp uint64

	// Spec is the most recent active hardfork.
	Spec Hardfork

	// StateClear enables EIP-161 pruning of touched empty accounts.
	StateClear bool
	Byzantium  bool
	Paris      ParisStatus
	Shanghai   bool
	Cancun     bool
	Bedrock    bool
	Regolith   bool
	Canyon     bool

	// Create2DeployerTransition is set for the first block of Canyon,
	// assuming a block time of two seconds.
	Create2DeployerTransition bool
}

// ActiveFeatures evaluates the chain's hardfork schedule for the block with
// the given number and timestamp.
func ActiveFeatures(spec ChainSpec, number, timestamp uint64) Features {
	canyon := spec.IsForkActiveAtTimestamp(Canyon, timestamp)
	var previous uint64
	if timestamp >= 2 {
		previous = timestamp - 2
	}
	canyonBefore := spec.IsForkActiveAtTimestamp(Canyon, previous)
	return Features{
		Number:                    number,
		Timestamp:                 timestamp,
		Spec:                      latestActiveHardfork(spec, number, timestamp),
		StateClear:                spec.IsForkActiveAtBlock(SpuriousDragon, number),
		Byzantium:                 spec.IsForkActiveAtBlock(Byzantium, number),
		Paris:                     spec.ParisStatusAtBlock(number),
		Shanghai:                  spec.IsForkActiveAtTimestamp(Shanghai, timestamp),
		Cancun:                    spec.IsForkActiveAtTimestamp(Cancun, timestamp),
		Bedrock:                   spec.IsForkActiveAtBlock(Bedrock, number),
		Regolith:                  spec.IsForkActiveAtTimestamp(Regolith, timestamp),
		Canyon:                    canyon,
		Create2DeployerTransition: canyon && !canyonBefore,
	}
}

func latestActiveHardfork(spec ChainSpec, number, timestamp uint64) Hardfork {
	forks := Hardforks()
	for i := len(forks) - 1; i > 0; i-- {
		fork := forks[i]
		if spec.IsForkActiveAtTimestamp(fork, timestamp) || spec.IsForkActiveAtBlock(fork, number) {
			return fork
		}
	}
	return Frontier
}

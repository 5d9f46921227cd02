// Copyright (c) 2024 Fantom Foundation
//
// Use of this software is governed by the Business Source License included
// in the LICENSE file and at fantom.foundation/bsl11.
//
// Change Date: 2028-4-16
//
// On the date above, in accordance with the Business Source License, use of
// this software will be governed by the GNU Lesser General Public License v3.

package chainspec

import (
	"fmt"
	"sort"
	"strings"

	"github.com/Fantom-foundation/Orbis/go/rollup"
	"github.com/holiman/uint256"
)

const (
	canyonTime  = 1704992401
	ecotoneTime = 1710374401
	fjordTime   = 1720627201
)

// OPMainnet is the schedule of OP Mainnet, which migrated to Bedrock from a
// legacy chain.
func OPMainnet() *Spec {
	bedrock := uint64(105235063)
	b := NewBuilder().Name("op-mainnet").ChainID(10)
	for fork := rollup.Frontier; fork <= rollup.MuirGlacier; fork++ {
		if fork != rollup.DAO {
			b.WithFork(fork, AtBlock(0))
		}
	}
	return b.
		WithFork(rollup.Berlin, AtBlock(3950000)).
		WithFork(rollup.London, AtBlock(bedrock)).
		WithFork(rollup.ArrowGlacier, AtBlock(bedrock)).
		WithFork(rollup.GrayGlacier, AtBlock(bedrock)).
		WithFork(rollup.Paris, AtTotalDifficulty(new(uint256.Int), &bedrock)).
		WithFork(rollup.Bedrock, AtBlock(bedrock)).
		WithFork(rollup.Regolith, AtTimestamp(0)).
		WithFork(rollup.Shanghai, AtTimestamp(canyonTime)).
		WithFork(rollup.Canyon, AtTimestamp(canyonTime)).
		WithFork(rollup.Cancun, AtTimestamp(ecotoneTime)).
		WithFork(rollup.Ecotone, AtTimestamp(ecotoneTime)).
		WithFork(rollup.Fjord, AtTimestamp(fjordTime)).
		Build()
}

// BaseMainnet is the schedule of Base, which started at Bedrock.
func BaseMainnet() *Spec {
	return NewBuilder().Name("base-mainnet").ChainID(8453).
		BedrockActivated().
		WithFork(rollup.ArrowGlacier, AtBlock(0)).
		WithFork(rollup.GrayGlacier, AtBlock(0)).
		WithFork(rollup.Regolith, AtTimestamp(0)).
		WithFork(rollup.Shanghai, AtTimestamp(canyonTime)).
		WithFork(rollup.Canyon, AtTimestamp(canyonTime)).
		WithFork(rollup.Cancun, AtTimestamp(ecotoneTime)).
		WithFork(rollup.Ecotone, AtTimestamp(ecotoneTime)).
		WithFork(rollup.Fjord, AtTimestamp(fjordTime)).
		Build()
}

// Dev is a local development chain with all hardforks active at genesis.
func Dev() *Spec {
	return NewBuilder().Name("dev").ChainID(1337).FjordActivated().Build()
}

var presets = map[string]func() *Spec{
	"op-mainnet":   OPMainnet,
	"optimism":     OPMainnet,
	"base-mainnet": BaseMainnet,
	"base":         BaseMainnet,
	"dev":          Dev,
}

// ByName returns the preset with the given name.
func ByName(name string) (*Spec, error) {
	factory, found := presets[strings.ToLower(name)]
	if !found {
		return nil, fmt.Errorf("unknown chain %q, use one of %v", name, PresetNames())
	}
	return factory(), nil
}

// PresetNames lists the names of all presets.
func PresetNames() []string {
	res := make([]string, 0, len(presets))
	for name := range presets {
		res = append(res, name)
	}
	sort.Strings(res)
	return res
}

// Resolve interprets the argument as a preset name or, failing that, as
// the path of a chain spec file.
func Resolve(nameOrPath string) (*Spec, error) {
	if _, found := presets[strings.ToLower(nameOrPath)]; found {
		return ByName(nameOrPath)
	}
	return LoadFile(nameOrPath)
}

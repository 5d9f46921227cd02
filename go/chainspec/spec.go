// Copyright (c) 2024 Fantom Foundation
//
// Use of this software is governed by the Business Source License included
// in the LICENSE file and at fantom.foundation/bsl11.
//
// Change Date: 2028-4-16
//
// On the date above, in accordance with the Business Source License, use of
// this software will be governed by the GNU Lesser General Public License v3.

// Package chainspec provides the hardfork schedules of the supported
// networks. A schedule is a table mapping each hardfork to the condition
// activating it; the engine evaluates it once per block.
package chainspec

import (
	"fmt"
	"strings"

	"github.com/Fantom-foundation/Orbis/go/rollup"
	"github.com/holiman/uint256"
)

// Spec is an immutable chain specification.
type Spec struct {
	name                string
	chainID             uint64
	forks               map[rollup.Hardfork]ForkCondition
	create2DeployerCode rollup.Code
}

var _ rollup.ChainSpec = (*Spec)(nil)

func (s *Spec) Name() string {
	return s.name
}

func (s *Spec) ChainID() uint64 {
	return s.chainID
}

// Fork returns the activation condition of the given hardfork.
func (s *Spec) Fork(fork rollup.Hardfork) ForkCondition {
	return s.forks[fork]
}

func (s *Spec) IsForkActiveAtBlock(fork rollup.Hardfork, number uint64) bool {
	return s.forks[fork].ActiveAtBlock(number)
}

func (s *Spec) IsForkActiveAtTimestamp(fork rollup.Hardfork, timestamp uint64) bool {
	return s.forks[fork].ActiveAtTimestamp(timestamp)
}

func (s *Spec) ParisStatusAtBlock(number uint64) rollup.ParisStatus {
	paris := s.forks[rollup.Paris]
	switch paris.Kind {
	case Never:
		return rollup.ParisInactive
	case ByBlock:
		return parisStatus(paris.ActiveAtBlock(number))
	case ByTotalDifficulty:
		if paris.ForkBlock != nil {
			return parisStatus(paris.ActiveAtBlock(number))
		}
	}
	return rollup.ParisUnknown
}

func parisStatus(active bool) rollup.ParisStatus {
	if active {
		return rollup.ParisActive
	}
	return rollup.ParisInactive
}

func (s *Spec) TerminalTotalDifficulty() *uint256.Int {
	paris := s.forks[rollup.Paris]
	if paris.Kind != ByTotalDifficulty || paris.TotalDifficulty == nil {
		return nil
	}
	return new(uint256.Int).Set(paris.TotalDifficulty)
}

func (s *Spec) Create2DeployerCode() rollup.Code {
	return s.create2DeployerCode
}

// ScheduledFork is an entry of the activation table.
type ScheduledFork struct {
	Fork      rollup.Hardfork
	Condition ForkCondition
}

// Schedule lists all configured hardforks in activation order.
func (s *Spec) Schedule() []ScheduledFork {
	var res []ScheduledFork
	for _, fork := range rollup.Hardforks() {
		if cond, found := s.forks[fork]; found && cond.Kind != Never {
			res = append(res, ScheduledFork{Fork: fork, Condition: cond})
		}
	}
	return res
}

func (s *Spec) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s (chain id %d)", s.name, s.chainID)
	for _, entry := range s.Schedule() {
		fmt.Fprintf(&b, "\n  %-15s %v", entry.Fork, entry.Condition)
	}
	return b.String()
}

// Builder assembles a Spec. The activation helpers mirror the cumulative
// nature of hardforks: activating a fork activates all its predecessors.
type Builder struct {
	spec Spec
}

func NewBuilder() *Builder {
	return &Builder{spec: Spec{forks: map[rollup.Hardfork]ForkCondition{}}}
}

// FromSpec starts a builder with a copy of the given spec.
func FromSpec(spec *Spec) *Builder {
	b := NewBuilder()
	b.spec.name = spec.name
	b.spec.chainID = spec.chainID
	b.spec.create2DeployerCode = spec.create2DeployerCode
	for fork, cond := range spec.forks {
		b.spec.forks[fork] = cond
	}
	return b
}

func (b *Builder) Name(name string) *Builder {
	b.spec.name = name
	return b
}

func (b *Builder) ChainID(id uint64) *Builder {
	b.spec.chainID = id
	return b
}

func (b *Builder) WithFork(fork rollup.Hardfork, cond ForkCondition) *Builder {
	b.spec.forks[fork] = cond
	return b
}

func (b *Builder) WithoutFork(fork rollup.Hardfork) *Builder {
	delete(b.spec.forks, fork)
	return b
}

func (b *Builder) Create2DeployerCode(code rollup.Code) *Builder {
	b.spec.create2DeployerCode = code
	return b
}

// LondonActivated activates all block based Ethereum forks up to London at
// genesis.
func (b *Builder) LondonActivated() *Builder {
	for fork := rollup.Frontier; fork <= rollup.London; fork++ {
		if fork != rollup.DAO {
			b.WithFork(fork, AtBlock(0))
		}
	}
	return b
}

func (b *Builder) ParisActivated() *Builder {
	genesis := uint64(0)
	return b.LondonActivated().WithFork(rollup.Paris, AtTotalDifficulty(new(uint256.Int), &genesis))
}

func (b *Builder) BedrockActivated() *Builder {
	return b.ParisActivated().WithFork(rollup.Bedrock, AtBlock(0))
}

func (b *Builder) RegolithActivated() *Builder {
	return b.BedrockActivated().WithFork(rollup.Regolith, AtTimestamp(0))
}

// CanyonActivated also activates Shanghai, which Canyon includes.
func (b *Builder) CanyonActivated() *Builder {
	return b.RegolithActivated().
		WithFork(rollup.Shanghai, AtTimestamp(0)).
		WithFork(rollup.Canyon, AtTimestamp(0))
}

// EcotoneActivated also activates Cancun, which Ecotone includes.
func (b *Builder) EcotoneActivated() *Builder {
	return b.CanyonActivated().
		WithFork(rollup.Cancun, AtTimestamp(0)).
		WithFork(rollup.Ecotone, AtTimestamp(0))
}

func (b *Builder) FjordActivated() *Builder {
	return b.EcotoneActivated().WithFork(rollup.Fjord, AtTimestamp(0))
}

// Build returns the assembled spec. The builder may be reused afterwards
// without affecting the returned spec.
func (b *Builder) Build() *Spec {
	res := FromSpec(&b.spec).spec
	return &res
}

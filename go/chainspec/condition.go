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

	"github.com/holiman/uint256"
)

// ConditionKind names the way a fork is activated.
type ConditionKind int

const (
	Never ConditionKind = iota
	ByBlock
	ByTimestamp
	ByTotalDifficulty
)

// ForkCondition is the activation rule of a single hardfork. The zero value
// never activates.
type ForkCondition struct {
	Kind      ConditionKind
	Block     uint64
	Timestamp uint64

	// TotalDifficulty is the threshold of a difficulty based activation.
	TotalDifficulty *uint256.Int
	// ForkBlock is the first block past the threshold, if known.
	ForkBlock *uint64
}

// AtBlock activates a fork at the given block number.
func AtBlock(number uint64) ForkCondition {
	return ForkCondition{Kind: ByBlock, Block: number}
}

// AtTimestamp activates a fork at the given block timestamp.
func AtTimestamp(timestamp uint64) ForkCondition {
	return ForkCondition{Kind: ByTimestamp, Timestamp: timestamp}
}

// AtTotalDifficulty activates a fork once the chain's total difficulty
// reaches the given threshold. The fork block is optional.
func AtTotalDifficulty(ttd *uint256.Int, forkBlock *uint64) ForkCondition {
	return ForkCondition{Kind: ByTotalDifficulty, TotalDifficulty: ttd, ForkBlock: forkBlock}
}

// ActiveAtBlock reports whether the condition is met by the given block.
// Difficulty based conditions are only met if their fork block is known.
func (c ForkCondition) ActiveAtBlock(number uint64) bool {
	switch c.Kind {
	case ByBlock:
		return number >= c.Block
	case ByTotalDifficulty:
		return c.ForkBlock != nil && number >= *c.ForkBlock
	}
	return false
}

// ActiveAtTimestamp reports whether a timestamp based condition is met.
func (c ForkCondition) ActiveAtTimestamp(timestamp uint64) bool {
	return c.Kind == ByTimestamp && timestamp >= c.Timestamp
}

// ActiveAtTotalDifficulty reports whether a difficulty based condition is
// met by a block with the given difficulty, given the total difficulty up
// to and including that block.
func (c ForkCondition) ActiveAtTotalDifficulty(totalDifficulty, difficulty *uint256.Int) bool {
	if c.Kind != ByTotalDifficulty || c.TotalDifficulty == nil || totalDifficulty == nil {
		return false
	}
	parent := new(uint256.Int)
	if difficulty == nil || !totalDifficulty.Lt(difficulty) {
		parent.Set(totalDifficulty)
		if difficulty != nil {
			parent.Sub(parent, difficulty)
		}
	}
	return !parent.Lt(c.TotalDifficulty)
}

func (c ForkCondition) String() string {
	switch c.Kind {
	case Never:
		return "never"
	case ByBlock:
		return fmt.Sprintf("block:%d", c.Block)
	case ByTimestamp:
		return fmt.Sprintf("time:%d", c.Timestamp)
	case ByTotalDifficulty:
		if c.ForkBlock != nil {
			return fmt.Sprintf("ttd:%v@block:%d", c.TotalDifficulty, *c.ForkBlock)
		}
		return fmt.Sprintf("ttd:%v", c.TotalDifficulty)
	default:
		return fmt.Sprintf("ConditionKind(%d)", c.Kind)
	}
}

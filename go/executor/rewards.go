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
	"github.com/Fantom-foundation/Orbis/go/rollup"
	"github.com/holiman/uint256"
)

var (
	ether = uint256.NewInt(1_000_000_000_000_000_000)
	gwei  = uint256.NewInt(1_000_000_000)

	frontierBlockReward       = new(uint256.Int).Mul(uint256.NewInt(5), ether)
	byzantiumBlockReward      = new(uint256.Int).Mul(uint256.NewInt(3), ether)
	constantinopleBlockReward = new(uint256.Int).Mul(uint256.NewInt(2), ether)
)

// baseBlockReward is the mining reward of a block, nil for blocks after
// the merge.
func baseBlockReward(chainSpec rollup.ChainSpec, features rollup.Features, totalDifficulty *uint256.Int) *uint256.Int {
	if isMerged(features.Paris, totalDifficulty, chainSpec.TerminalTotalDifficulty()) {
		return nil
	}
	switch {
	case chainSpec.IsForkActiveAtBlock(rollup.Constantinople, features.Number):
		return constantinopleBlockReward
	case features.Byzantium:
		return byzantiumBlockReward
	default:
		return frontierBlockReward
	}
}

// blockReward is the reward of the block's beneficiary including the
// inclusion reward for ommers.
func blockReward(base *uint256.Int, ommers int) *uint256.Int {
	res := new(uint256.Int).Rsh(base, 5)
	res.Mul(res, uint256.NewInt(uint64(ommers)))
	return res.Add(res, base)
}

// maxOmmerDepth is the largest distance between a block and an ommer that
// still earns a reward.
const maxOmmerDepth = 7

// ommerReward is the reward of an ommer's beneficiary. Ommers have to be
// older than the block by at most maxOmmerDepth blocks.
func ommerReward(base *uint256.Int, blockNumber, ommerNumber uint64) (*uint256.Int, error) {
	if ommerNumber >= blockNumber || blockNumber-ommerNumber > maxOmmerDepth {
		return nil, &InvalidOmmerError{BlockNumber: blockNumber, OmmerNumber: ommerNumber}
	}
	res := uint256.NewInt(8 + ommerNumber - blockNumber)
	res.Mul(res, base)
	return res.Rsh(res, 3), nil
}

// postBlockBalanceIncrements collects the balance increments of a block:
// mining rewards before the merge and withdrawals from Shanghai on.
// Withdrawal amounts are converted from gwei to wei.
func postBlockBalanceIncrements(
	chainSpec rollup.ChainSpec,
	features rollup.Features,
	block *rollup.Block,
	totalDifficulty *uint256.Int,
) (map[rollup.Address]*uint256.Int, error) {
	increments := map[rollup.Address]*uint256.Int{}
	add := func(address rollup.Address, amount *uint256.Int) {
		if current, found := increments[address]; found {
			current.Add(current, amount)
			return
		}
		increments[address] = new(uint256.Int).Set(amount)
	}

	if base := baseBlockReward(chainSpec, features, totalDifficulty); base != nil {
		for _, ommer := range block.Ommers {
			reward, err := ommerReward(base, block.Number(), ommer.Number)
			if err != nil {
				return nil, err
			}
			add(ommer.Beneficiary, reward)
		}
		add(block.Header.Beneficiary, blockReward(base, len(block.Ommers)))
	}

	if features.Shanghai {
		for _, withdrawal := range block.Withdrawals {
			if withdrawal.Amount == 0 {
				continue
			}
			amount := new(uint256.Int).Mul(uint256.NewInt(withdrawal.Amount), gwei)
			add(withdrawal.Address, amount)
		}
	}
	return increments, nil
}

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
	"fmt"

	"github.com/Fantom-foundation/Orbis/go/rollup"
	"github.com/holiman/uint256"
)

// EvmConfig derives the execution environments of blocks and transactions
// and provides the VM executing them.
type EvmConfig struct {
	vm rollup.VM
}

func NewEvmConfig(vm rollup.VM) *EvmConfig {
	return &EvmConfig{vm: vm}
}

func (c *EvmConfig) VM() rollup.VM {
	return c.vm
}

// FillCfgAndBlockEnv sets the configuration and block part of the given
// environment. After the merge the header's mix hash is the randomness
// beacon and the difficulty is zero.
func (c *EvmConfig) FillCfgAndBlockEnv(
	env *rollup.Env,
	chainSpec rollup.ChainSpec,
	features rollup.Features,
	header *rollup.Header,
	totalDifficulty *uint256.Int,
) {
	env.Cfg = rollup.CfgEnv{
		ChainID: chainSpec.ChainID(),
		Spec:    features.Spec,
	}
	env.Block = rollup.BlockEnv{
		Number:        header.Number,
		Coinbase:      header.Beneficiary,
		Timestamp:     header.Timestamp,
		GasLimit:      header.GasLimit,
		Difficulty:    header.Difficulty,
		ExcessBlobGas: header.ExcessBlobGas,
	}
	if header.BaseFee != nil {
		env.Block.BaseFee = *header.BaseFee
	}
	if isMerged(features.Paris, totalDifficulty, chainSpec.TerminalTotalDifficulty()) {
		prevRandao := header.MixHash
		env.Block.PrevRandao = &prevRandao
		env.Block.Difficulty = uint256.Int{}
	}
}

// FillTxEnv sets the transaction part of an environment from a
// transaction and its recovered sender.
func (c *EvmConfig) FillTxEnv(env *rollup.TxEnv, tx *rollup.Transaction, sender rollup.Address) error {
	enveloped, err := tx.MarshalBinary()
	if err != nil {
		return fmt.Errorf("failed to encode transaction: %w", err)
	}
	*env = rollup.TxEnv{
		Caller:     sender,
		GasLimit:   tx.Gas(),
		TransactTo: tx.To(),
		Value:      *tx.Value(),
		Data:       tx.Data(),
		AccessList: tx.AccessList(),
	}
	if chainID := tx.ChainID(); chainID != nil {
		id := chainID.Uint64()
		env.ChainID = &id
	}

	switch inner := tx.Inner().(type) {
	case *rollup.LegacyTx, *rollup.AccessListTx:
		env.GasPrice = *tx.GasPrice()
		nonce := tx.Nonce()
		env.Nonce = &nonce
	case *rollup.DynamicFeeTx:
		env.GasPrice = *tx.GasFeeCap()
		env.GasPriorityFee = tx.GasTipCap()
		nonce := tx.Nonce()
		env.Nonce = &nonce
	case *rollup.BlobTx:
		env.GasPrice = *tx.GasFeeCap()
		env.GasPriorityFee = tx.GasTipCap()
		nonce := tx.Nonce()
		env.Nonce = &nonce
		env.BlobHashes = inner.BlobHashes
		env.MaxFeePerBlobGas = inner.BlobFeeCap
	case *rollup.DepositTx:
		isSystemTx := inner.IsSystemTransaction
		env.Optimism.SourceHash = tx.SourceHash()
		env.Optimism.Mint = inner.Mint
		env.Optimism.IsSystemTransaction = &isSystemTx
	default:
		panic(fmt.Sprintf("unsupported transaction variant %T", inner))
	}
	env.Optimism.EnvelopedTx = enveloped
	return nil
}

// isMerged resolves the three states of the merge activation. An unknown
// status is decided by the total difficulty reached by the block.
func isMerged(status rollup.ParisStatus, totalDifficulty, terminalTotalDifficulty *uint256.Int) bool {
	switch status {
	case rollup.ParisActive:
		return true
	case rollup.ParisInactive:
		return false
	default:
		return totalDifficulty != nil && terminalTotalDifficulty != nil && !totalDifficulty.Lt(terminalTotalDifficulty)
	}
}

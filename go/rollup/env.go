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

import "github.com/holiman/uint256"

// CfgEnv is the chain configuration part of the execution environment.
type CfgEnv struct {
	ChainID uint64
	// Spec is the most recent hardfork active for the block.
	Spec Hardfork
}

// BlockEnv describes the block a transaction is executed in.
type BlockEnv struct {
	Number        uint64
	Coinbase      Address
	Timestamp     uint64
	GasLimit      uint64
	BaseFee       uint256.Int
	Difficulty    uint256.Int
	PrevRandao    *Hash
	ExcessBlobGas *uint64
}

// OptimismFields carries the rollup specific transaction attributes.
type OptimismFields struct {
	SourceHash          *Hash
	Mint                *uint256.Int
	IsSystemTransaction *bool
	// EnvelopedTx is the consensus encoding of the transaction, used by
	// the VM to charge the L1 data fee.
	EnvelopedTx Data
}

// TxEnv describes the transaction to be executed.
type TxEnv struct {
	Caller           Address
	GasLimit         uint64
	GasPrice         uint256.Int
	GasPriorityFee   *uint256.Int
	TransactTo       *Address
	Value            uint256.Int
	Data             Data
	Nonce            *uint64
	ChainID          *uint64
	AccessList       AccessList
	BlobHashes       []Hash
	MaxFeePerBlobGas *uint256.Int
	Optimism         OptimismFields
}

// IsDeposit reports whether the environment describes a deposit.
func (tx *TxEnv) IsDeposit() bool {
	return tx.Optimism.SourceHash != nil
}

// IsSystemTransaction reports whether the deposit is a system transaction.
func (tx *TxEnv) IsSystemTransaction() bool {
	return tx.Optimism.IsSystemTransaction != nil && *tx.Optimism.IsSystemTransaction
}

// Env is the complete execution environment of a transaction.
type Env struct {
	Cfg   CfgEnv
	Block BlockEnv
	Tx    TxEnv
}

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
)

// validationError is a constant error rejecting a block as invalid.
type validationError string

func (e validationError) Error() string {
	return string(e)
}

func (e validationError) Is(target error) bool {
	return target == rollup.ErrBlockValidation
}

// executionError is a constant error reporting that a block could not be
// executed.
type executionError string

func (e executionError) Error() string {
	return string(e)
}

func (e executionError) Is(target error) bool {
	return target == rollup.ErrBlockExecution
}

const (
	ErrBlobTransactionRejected    = validationError("blob transactions are not supported")
	ErrForceCreate2DeployerFail   = executionError("failed to force create2 deployer account code")
	ErrCreate2DeployerCodeUnknown = executionError("create2 deployer code neither configured nor known to the database")
	ErrIncrementBalanceFailed     = executionError("failed to increment balance")
	ErrPhaseOrder                 = executionError("block execution phases called out of order")
)

// TransactionGasLimitError is reported for transactions requesting more gas
// than is left in the block.
type TransactionGasLimitError struct {
	TransactionGasLimit uint64
	BlockAvailableGas   uint64
}

func (e *TransactionGasLimitError) Error() string {
	return fmt.Sprintf(
		"transaction gas limit %d is more than blocks available gas %d",
		e.TransactionGasLimit, e.BlockAvailableGas,
	)
}

func (e *TransactionGasLimitError) Is(target error) bool {
	return target == rollup.ErrBlockValidation
}

// InvalidOmmerError is reported for ommers that are not within the
// rewarded depth of the including block.
type InvalidOmmerError struct {
	BlockNumber, OmmerNumber uint64
}

func (e *InvalidOmmerError) Error() string {
	return fmt.Sprintf("ommer %d is not rewardable in block %d", e.OmmerNumber, e.BlockNumber)
}

func (e *InvalidOmmerError) Is(target error) bool {
	return target == rollup.ErrBlockValidation
}

// AccountLoadError is reported if the sender of a deposit can not be
// loaded to record its nonce.
type AccountLoadError struct {
	Address rollup.Address
	Err     error
}

func (e *AccountLoadError) Error() string {
	return fmt.Sprintf("failed to load account %v: %v", e.Address, e.Err)
}

func (e *AccountLoadError) Unwrap() error {
	return e.Err
}

func (e *AccountLoadError) Is(target error) bool {
	return target == rollup.ErrBlockExecution
}

// EVMError wraps a failure of the VM while executing a transaction.
type EVMError struct {
	Hash rollup.Hash
	Err  error
}

func (e *EVMError) Error() string {
	return fmt.Sprintf("EVM reported invalid transaction (%v): %v", e.Hash, e.Err)
}

func (e *EVMError) Unwrap() error {
	return e.Err
}

func (e *EVMError) Is(target error) bool {
	return target == rollup.ErrBlockValidation
}

// ReceiptRootMismatchError is reported if the receipts of an executed
// block do not match the root declared in its header.
type ReceiptRootMismatchError struct {
	Got, Expected rollup.Hash
}

func (e *ReceiptRootMismatchError) Error() string {
	return fmt.Sprintf("receipt root mismatch: got %v, expected %v", e.Got, e.Expected)
}

func (e *ReceiptRootMismatchError) Is(target error) bool {
	return target == rollup.ErrConsensus
}

// BloomMismatchError is reported if the logs of an executed block do not
// match the bloom filter declared in its header.
type BloomMismatchError struct {
	Got, Expected rollup.Bloom
}

func (e *BloomMismatchError) Error() string {
	return fmt.Sprintf("header bloom filter mismatch: got %v, expected %v", e.Got, e.Expected)
}

func (e *BloomMismatchError) Is(target error) bool {
	return target == rollup.ErrConsensus
}

// GasUsedMismatchError is reported if the gas used by an executed block
// differs from the value declared in its header. ReceiptGas lists the gas
// spent by each transaction of the block.
type GasUsedMismatchError struct {
	Got, Expected uint64
	ReceiptGas    []uint64
}

func (e *GasUsedMismatchError) Error() string {
	return fmt.Sprintf("block gas used mismatch: got %d, expected %d; gas spent by each transaction: %v", e.Got, e.Expected, e.ReceiptGas)
}

func (e *GasUsedMismatchError) Is(target error) bool {
	return target == rollup.ErrConsensus
}

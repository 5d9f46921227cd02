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
	"fmt"
	"math"

	"github.com/Fantom-foundation/Orbis/go/rollup"
	"github.com/ethereum/go-ethereum/log"
	"github.com/holiman/uint256"
)

const (
	TxGas                     = 21_000
	TxGasContractCreation     = 53_000
	TxDataNonZeroGasFrontier  = 68
	TxDataNonZeroGasEIP2028   = 16
	TxDataZeroGasEIP2028      = 4
	TxAccessListAddressGas    = 2400
	TxAccessListStorageKeyGas = 1900
	InitCodeWordGas           = 2
)

const (
	ErrNonceTooLow          = rollup.ConstError("nonce too low")
	ErrNonceTooHigh         = rollup.ConstError("nonce too high")
	ErrNonceMax             = rollup.ConstError("nonce has max value")
	ErrGasLimitTooHigh      = rollup.ConstError("transaction gas limit exceeds block gas limit")
	ErrFeeCapTooLow         = rollup.ConstError("max fee per gas less than block base fee")
	ErrTipAboveFeeCap       = rollup.ConstError("max priority fee per gas higher than max fee per gas")
	ErrInsufficientFunds    = rollup.ConstError("insufficient funds for gas * price + value")
	ErrIntrinsicGas         = rollup.ConstError("intrinsic gas too low")
	ErrSystemTxPostRegolith = rollup.ConstError("system transactions are not supported after Regolith")
	ErrUnsupportedVMConfig  = rollup.ConstError("floria does not accept a configuration")
)

// BaseFeeVaultAddress collects the base fee of all transactions from
// Bedrock on, instead of burning it.
var BaseFeeVaultAddress = rollup.HexToAddress("0x4200000000000000000000000000000000000019")

func init() {
	if err := rollup.RegisterVMFactory("floria", newProcessor); err != nil {
		panic(err)
	}
}

func newProcessor(config any) (rollup.VM, error) {
	if config != nil {
		return nil, ErrUnsupportedVMConfig
	}
	return NewProcessor(), nil
}

// NewProcessor creates the reference transaction processor. It covers
// value transfers, deposits, contract creation without init code,
// precompiled contracts and the beacon roots system contract.
func NewProcessor() rollup.VM {
	return &processor{}
}

type processor struct{}

func (p *processor) Transact(env *rollup.Env, db rollup.Database) (rollup.ResultAndState, error) {
	ctx := newRunContext(db)

	var result rollup.ExecutionResult
	var err error
	if env.Tx.IsDeposit() {
		result, err = p.runDeposit(ctx, env)
	} else {
		result, err = p.run(ctx, env)
	}
	if err == nil {
		err = ctx.err
	}
	if err != nil {
		return rollup.ResultAndState{}, err
	}
	log.Trace("Transaction processed", "caller", env.Tx.Caller, "status", result.Status, "gasUsed", result.GasUsed)
	return rollup.ResultAndState{Result: result, State: ctx.evmState()}, nil
}

func (p *processor) run(ctx *runContext, env *rollup.Env) (rollup.ExecutionResult, error) {
	tx := &env.Tx
	spec := env.Cfg.Spec

	if tx.GasLimit > env.Block.GasLimit {
		return rollup.ExecutionResult{}, fmt.Errorf("%w: %d > %d", ErrGasLimitTooHigh, tx.GasLimit, env.Block.GasLimit)
	}
	price, err := effectiveGasPrice(env)
	if err != nil {
		return rollup.ExecutionResult{}, err
	}
	intrinsicGas := setupGasBilling(spec, tx)
	if tx.GasLimit < intrinsicGas {
		return rollup.ExecutionResult{}, fmt.Errorf("%w: have %d, want %d", ErrIntrinsicGas, tx.GasLimit, intrinsicGas)
	}
	nonce, err := handleNonce(ctx, tx)
	if err != nil {
		return rollup.ExecutionResult{}, err
	}
	if err := buyGas(ctx, tx, price); err != nil {
		return rollup.ExecutionResult{}, err
	}
	ctx.setNonce(tx.Caller, nonce+1)

	res := execute(ctx, env, nonce, tx.GasLimit-intrinsicGas)
	gasUsed := tx.GasLimit - res.gasLeft

	// refund unused gas and pay the fees
	refund := new(uint256.Int).Mul(uint256.NewInt(res.gasLeft), price)
	ctx.addBalance(tx.Caller, refund)

	tip := new(uint256.Int).Set(price)
	if spec >= rollup.London {
		tip.Sub(tip, &env.Block.BaseFee)
	}
	ctx.addBalance(env.Block.Coinbase, tip.Mul(tip, uint256.NewInt(gasUsed)))
	if spec >= rollup.Bedrock {
		baseFee := new(uint256.Int).Mul(&env.Block.BaseFee, uint256.NewInt(gasUsed))
		ctx.addBalance(BaseFeeVaultAddress, baseFee)
	}

	return toExecutionResult(res, gasUsed), nil
}

// runDeposit executes a deposit. The mint and the nonce increment of a
// deposit are kept even if the execution fails.
func (p *processor) runDeposit(ctx *runContext, env *rollup.Env) (rollup.ExecutionResult, error) {
	tx := &env.Tx
	spec := env.Cfg.Spec

	if tx.IsSystemTransaction() && spec >= rollup.Regolith {
		return rollup.ExecutionResult{}, ErrSystemTxPostRegolith
	}
	if tx.Optimism.Mint != nil {
		ctx.addBalance(tx.Caller, tx.Optimism.Mint)
	}
	nonce := ctx.getNonce(tx.Caller)
	ctx.setNonce(tx.Caller, nonce+1)

	snapshot := ctx.snapshot()
	res := callResult{status: rollup.ExecutionHalt, haltReason: "intrinsic gas too low"}
	if intrinsicGas := setupGasBilling(spec, tx); tx.GasLimit >= intrinsicGas {
		res = execute(ctx, env, nonce, tx.GasLimit-intrinsicGas)
	}
	if res.status != rollup.ExecutionSuccess {
		ctx.restore(snapshot)
	}

	var gasUsed uint64
	switch {
	case spec >= rollup.Regolith:
		gasUsed = tx.GasLimit - res.gasLeft
	case tx.IsSystemTransaction():
		gasUsed = 0
	default:
		gasUsed = tx.GasLimit
	}
	return toExecutionResult(res, gasUsed), nil
}

func execute(ctx *runContext, env *rollup.Env, nonce uint64, gas uint64) callResult {
	var res callResult
	if env.Tx.TransactTo == nil {
		res = create(ctx, env, nonce, gas)
	} else {
		res = call(ctx, env, gas)
	}
	if res.status == rollup.ExecutionHalt {
		res.gasLeft = 0
	}
	return res
}

func toExecutionResult(res callResult, gasUsed uint64) rollup.ExecutionResult {
	result := rollup.ExecutionResult{
		Status:     res.status,
		GasUsed:    gasUsed,
		Output:     res.output,
		HaltReason: res.haltReason,
	}
	if res.status == rollup.ExecutionSuccess {
		result.Logs = res.logs
	}
	return result
}

// effectiveGasPrice computes the price paid per unit of gas. From London on
// it is the base fee plus the priority fee, capped by the fee cap.
func effectiveGasPrice(env *rollup.Env) (*uint256.Int, error) {
	tx := &env.Tx
	if env.Cfg.Spec < rollup.London {
		return new(uint256.Int).Set(&tx.GasPrice), nil
	}
	feeCap := &tx.GasPrice
	baseFee := &env.Block.BaseFee
	if feeCap.Lt(baseFee) {
		return nil, fmt.Errorf("%w: fee cap %v, base fee %v", ErrFeeCapTooLow, feeCap, baseFee)
	}
	if tx.GasPriorityFee == nil {
		return new(uint256.Int).Set(feeCap), nil
	}
	if tx.GasPriorityFee.Gt(feeCap) {
		return nil, fmt.Errorf("%w: tip %v, fee cap %v", ErrTipAboveFeeCap, tx.GasPriorityFee, feeCap)
	}
	price := new(uint256.Int).Add(baseFee, tx.GasPriorityFee)
	if price.Gt(feeCap) {
		price.Set(feeCap)
	}
	return price, nil
}

func setupGasBilling(spec rollup.Hardfork, tx *rollup.TxEnv) uint64 {
	isCreate := tx.TransactTo == nil
	var gas uint64
	if isCreate && spec >= rollup.Homestead {
		gas = TxGasContractCreation
	} else {
		gas = TxGas
	}

	if len(tx.Data) > 0 {
		nonZeroBytes := uint64(0)
		for _, inputByte := range tx.Data {
			if inputByte != 0 {
				nonZeroBytes++
			}
		}
		zeroBytes := uint64(len(tx.Data)) - nonZeroBytes
		nonZeroGas := uint64(TxDataNonZeroGasFrontier)
		if spec >= rollup.Istanbul {
			nonZeroGas = TxDataNonZeroGasEIP2028
		}
		gas += zeroBytes * TxDataZeroGasEIP2028
		gas += nonZeroBytes * nonZeroGas

		if isCreate && spec >= rollup.Shanghai {
			gas += InitCodeWordGas * ((uint64(len(tx.Data)) + 31) / 32)
		}
	}

	if spec >= rollup.Berlin {
		gas += uint64(len(tx.AccessList)) * TxAccessListAddressGas
		for _, accessTuple := range tx.AccessList {
			gas += uint64(len(accessTuple.StorageKeys)) * TxAccessListStorageKeyGas
		}
	}
	return gas
}

// handleNonce checks the transaction nonce, if given, against the state
// and returns the current nonce of the caller.
func handleNonce(ctx *runContext, tx *rollup.TxEnv) (uint64, error) {
	stateNonce := ctx.getNonce(tx.Caller)
	if stateNonce == math.MaxUint64 {
		return 0, fmt.Errorf("%w: address %v", ErrNonceMax, tx.Caller)
	}
	if tx.Nonce == nil {
		return stateNonce, nil
	}
	if messageNonce := *tx.Nonce; messageNonce < stateNonce {
		return 0, fmt.Errorf("%w: address %v, tx: %d state: %d", ErrNonceTooLow, tx.Caller, messageNonce, stateNonce)
	} else if messageNonce > stateNonce {
		return 0, fmt.Errorf("%w: address %v, tx: %d state: %d", ErrNonceTooHigh, tx.Caller, messageNonce, stateNonce)
	}
	return stateNonce, nil
}

// buyGas charges the caller for the full gas limit at the given price. The
// balance must also cover the gas limit at the fee cap plus the value.
func buyGas(ctx *runContext, tx *rollup.TxEnv, price *uint256.Int) error {
	gasLimit := uint256.NewInt(tx.GasLimit)
	maxCost, overflow := new(uint256.Int).MulOverflow(gasLimit, &tx.GasPrice)
	if !overflow {
		_, overflow = maxCost.AddOverflow(maxCost, &tx.Value)
	}
	balance := ctx.getBalance(tx.Caller)
	if overflow || balance.Lt(maxCost) {
		return fmt.Errorf("%w: address %v have %v want %v", ErrInsufficientFunds, tx.Caller, &balance, maxCost)
	}
	cost := new(uint256.Int).Mul(gasLimit, price)
	ctx.setBalance(tx.Caller, *balance.Sub(&balance, cost))
	return nil
}

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
	"github.com/Fantom-foundation/Orbis/go/state"
	"github.com/Fantom-foundation/Orbis/go/systemcall"
	"github.com/ethereum/go-ethereum/log"
	"github.com/holiman/uint256"
)

type phase int

const (
	phaseCreated phase = iota
	phasePreExecuted
	phaseTransactionsExecuted
	phasePostExecuted
	phaseFinalized
)

func (p phase) String() string {
	switch p {
	case phaseCreated:
		return "created"
	case phasePreExecuted:
		return "pre-executed"
	case phaseTransactionsExecuted:
		return "transactions-executed"
	case phasePostExecuted:
		return "post-executed"
	case phaseFinalized:
		return "finalized"
	default:
		return fmt.Sprintf("phase(%d)", int(p))
	}
}

// ExecuteOutput is the result of executing the transactions of a block.
type ExecuteOutput struct {
	Receipts rollup.Receipts
	GasUsed  uint64
}

// Strategy executes a single block on a state it owns exclusively. The
// phases ApplyPreExecutionChanges, ExecuteTransactions,
// ApplyPostExecutionChanges and Finish have to be called once each, in
// this order. A failing phase leaves the state in an undefined condition;
// the strategy must then be dropped without finishing it.
type Strategy struct {
	chainSpec    rollup.ChainSpec
	evmConfig    *EvmConfig
	state        *state.State
	systemCaller *systemcall.Caller

	phase    phase
	features rollup.Features
}

func newStrategy(chainSpec rollup.ChainSpec, evmConfig *EvmConfig, db *state.State) *Strategy {
	return &Strategy{
		chainSpec:    chainSpec,
		evmConfig:    evmConfig,
		state:        db,
		systemCaller: systemcall.NewCaller(chainSpec, evmConfig.VM()),
	}
}

// WithStateHook registers a hook notified about the state changes of all
// system calls and transactions. A nil hook disables notifications.
func (s *Strategy) WithStateHook(hook rollup.StateHook) {
	s.systemCaller.WithStateHook(hook)
}

// State gives access to the state the strategy operates on.
func (s *Strategy) State() *state.State {
	return s.state
}

func (s *Strategy) enter(operation string, from, to phase) error {
	if s.phase != from {
		return fmt.Errorf("%w: %s called in phase %v", ErrPhaseOrder, operation, s.phase)
	}
	s.phase = to
	return nil
}

func (s *Strategy) checkBlock(block *rollup.Block) error {
	if s.features.Number != block.Number() || s.features.Timestamp != block.Timestamp() {
		return fmt.Errorf("%w: block %d is not the block %d being executed", ErrPhaseOrder, block.Number(), s.features.Number)
	}
	return nil
}

// blockEnv recomputes the environment of the block.
func (s *Strategy) blockEnv(block *rollup.Block, totalDifficulty *uint256.Int) *rollup.Env {
	env := &rollup.Env{}
	s.evmConfig.FillCfgAndBlockEnv(env, s.chainSpec, s.features, &block.Header, totalDifficulty)
	return env
}

// ApplyPreExecutionChanges prepares the state for the block's
// transactions: it configures EIP-161 state clearing, stores the parent
// beacon block root and deploys the create2 deployer at the Canyon
// transition.
func (s *Strategy) ApplyPreExecutionChanges(block *rollup.Block, totalDifficulty *uint256.Int) error {
	if err := s.enter("ApplyPreExecutionChanges", phaseCreated, phasePreExecuted); err != nil {
		return err
	}
	s.features = rollup.ActiveFeatures(s.chainSpec, block.Number(), block.Timestamp())
	s.state.SetStateClearFlag(s.features.StateClear)

	env := s.blockEnv(block, totalDifficulty)
	err := s.systemCaller.ApplyBeaconRootContractCall(
		env,
		block.Timestamp(),
		block.Number(),
		block.Header.ParentBeaconRoot,
		s.state,
	)
	if err != nil {
		return err
	}
	return ensureCreate2Deployer(s.chainSpec, s.features, s.state)
}

// ExecuteTransactions runs all transactions of the block in order and
// commits their state changes. The first invalid transaction aborts the
// block.
func (s *Strategy) ExecuteTransactions(block *rollup.Block, totalDifficulty *uint256.Int) (*ExecuteOutput, error) {
	if err := s.enter("ExecuteTransactions", phasePreExecuted, phaseTransactionsExecuted); err != nil {
		return nil, err
	}
	if err := s.checkBlock(block); err != nil {
		return nil, err
	}

	env := s.blockEnv(block, totalDifficulty)
	vm := s.evmConfig.VM()
	receipts := make(rollup.Receipts, 0, len(block.Transactions))
	var cumulativeGasUsed uint64
	for _, entry := range block.Transactions {
		tx, sender := entry.Tx, entry.Sender

		// system transactions were exempt from the block gas limit before
		// Regolith
		var available uint64
		if cumulativeGasUsed < block.Header.GasLimit {
			available = block.Header.GasLimit - cumulativeGasUsed
		}
		if tx.Gas() > available && (s.features.Regolith || !tx.IsSystemTx()) {
			return nil, &TransactionGasLimitError{
				TransactionGasLimit: tx.Gas(),
				BlockAvailableGas:   available,
			}
		}
		if tx.IsBlob() {
			return nil, fmt.Errorf("%w: %v", ErrBlobTransactionRejected, tx.Hash())
		}

		var depositNonce *uint64
		if s.features.Regolith && tx.IsDeposit() {
			acc, err := s.state.LoadCacheAccount(sender)
			if err != nil {
				return nil, &AccountLoadError{Address: sender, Err: err}
			}
			var nonce uint64
			if acc.Info != nil {
				nonce = acc.Info.Nonce
			}
			depositNonce = &nonce
		}

		if err := s.evmConfig.FillTxEnv(&env.Tx, tx, sender); err != nil {
			return nil, &EVMError{Hash: tx.Hash(), Err: err}
		}
		res, err := vm.Transact(env, s.state)
		if err != nil {
			return nil, &EVMError{Hash: tx.Hash(), Err: err}
		}
		log.Trace("Executed transaction", "block", block.Number(), "hash", tx.Hash(), "status", res.Result.Status, "gasUsed", res.Result.GasUsed)

		s.systemCaller.OnState(&res)
		s.state.Commit(res.State)
		cumulativeGasUsed += res.Result.GasUsed

		receipt := &rollup.Receipt{
			Type:              tx.Type(),
			Success:           res.Result.IsSuccess(),
			CumulativeGasUsed: cumulativeGasUsed,
			Logs:              res.Result.Logs,
			DepositNonce:      depositNonce,
		}
		if tx.IsDeposit() && s.features.Canyon {
			version := uint64(1)
			receipt.DepositReceiptVersion = &version
		}
		receipts = append(receipts, receipt)
	}

	log.Debug("Executed block transactions", "block", block.Number(), "transactions", len(receipts), "gasUsed", cumulativeGasUsed)
	return &ExecuteOutput{Receipts: receipts, GasUsed: cumulativeGasUsed}, nil
}

// ApplyPostExecutionChanges pays block rewards and withdrawals. The
// returned requests are always empty on this network.
func (s *Strategy) ApplyPostExecutionChanges(
	block *rollup.Block,
	totalDifficulty *uint256.Int,
	receipts rollup.Receipts,
) (rollup.Requests, error) {
	if err := s.enter("ApplyPostExecutionChanges", phaseTransactionsExecuted, phasePostExecuted); err != nil {
		return nil, err
	}
	if err := s.checkBlock(block); err != nil {
		return nil, err
	}

	increments, err := postBlockBalanceIncrements(s.chainSpec, s.features, block, totalDifficulty)
	if err != nil {
		return nil, err
	}
	if err := s.state.IncrementBalances(increments); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrIncrementBalanceFailed, err)
	}
	return rollup.Requests{}, nil
}

// Finish merges the state transitions of the block, retaining reverts,
// and hands out the resulting bundle. It must be called exactly once.
func (s *Strategy) Finish() (*state.BundleState, error) {
	if err := s.enter("Finish", phasePostExecuted, phaseFinalized); err != nil {
		return nil, err
	}
	s.state.MergeTransitions(state.Reverts)
	return s.state.TakeBundle(), nil
}

// ValidateBlockPostExecution checks the outcome of the block against the
// commitments in its header.
func (s *Strategy) ValidateBlockPostExecution(block *rollup.Block, receipts rollup.Receipts, requests rollup.Requests) error {
	return validateBlockPostExecution(s.chainSpec, block, receipts)
}

// Copyright (c) 2024 Fantom Foundation
//
// Use of this software is governed by the Business Source License included
// in the LICENSE file and at fantom.foundation/bsl11.
//
// Change Date: 2028-4-16
//
// On the date above, in accordance with the Business Source License, use of
// this software will be governed by the GNU Lesser General Public License v3.

// Package state provides the write-buffered view of the world state used
// while executing blocks. Reads fall through to a rollup.Database, changes
// are buffered in memory and accumulated into a BundleState that can be
// persisted or reverted by the caller.
package state

import (
	"fmt"

	"github.com/Fantom-foundation/Orbis/go/rollup"
	"github.com/ethereum/go-ethereum/log"
	"github.com/holiman/uint256"
)

// State is the State View of a block execution. It implements
// rollup.Database, so the VM reads through its cache. A State is owned by
// a single execution and must not be shared between goroutines.
type State struct {
	database rollup.Database

	accounts    map[rollup.Address]*CacheAccount
	contracts   map[rollup.Hash]rollup.Code
	blockHashes map[uint64]rollup.Hash

	// transitions is nil if bundle updates are disabled.
	transitions *TransitionState
	bundle      *BundleState

	stateClear bool
}

var _ rollup.Database = (*State)(nil)

// Basic returns the info of an account, nil if it does not exist.
func (s *State) Basic(address rollup.Address) (*rollup.AccountInfo, error) {
	acc, err := s.LoadCacheAccount(address)
	if err != nil {
		return nil, err
	}
	return acc.Info.Clone(), nil
}

// Storage returns the present value of a storage slot.
func (s *State) Storage(address rollup.Address, key rollup.Key) (rollup.Word, error) {
	acc, err := s.LoadCacheAccount(address)
	if err != nil {
		return rollup.Word{}, err
	}
	if value, found := acc.Storage[key]; found {
		return value, nil
	}
	var value rollup.Word
	if !acc.Status.isStorageKnown() {
		value, err = s.database.Storage(address, key)
		if err != nil {
			return rollup.Word{}, &ProviderError{Op: "storage", Address: address, Err: err}
		}
	}
	acc.Storage[key] = value
	return value, nil
}

// CodeByHash returns the code with the given hash.
func (s *State) CodeByHash(hash rollup.Hash) (rollup.Code, error) {
	if code, found := s.contracts[hash]; found {
		return code, nil
	}
	if code, found := s.bundle.Contracts[hash]; found {
		return code, nil
	}
	if hash == rollup.EmptyCodeHash || hash == (rollup.Hash{}) {
		return nil, nil
	}
	code, err := s.database.CodeByHash(hash)
	if err != nil {
		return nil, &ProviderError{Op: fmt.Sprintf("code %v", hash), Err: err}
	}
	s.contracts[hash] = code
	return code, nil
}

// BlockHash returns the hash of the block with the given number.
func (s *State) BlockHash(number uint64) (rollup.Hash, error) {
	if hash, found := s.blockHashes[number]; found {
		return hash, nil
	}
	hash, err := s.database.BlockHash(number)
	if err != nil {
		return rollup.Hash{}, &ProviderError{Op: fmt.Sprintf("hash of block %d", number), Err: err}
	}
	s.blockHashes[number] = hash
	return hash, nil
}

// LoadCacheAccount returns the cached account, loading it from the
// database on first access.
func (s *State) LoadCacheAccount(address rollup.Address) (*CacheAccount, error) {
	if acc, found := s.accounts[address]; found {
		return acc, nil
	}
	if acc, found := s.bundle.State[address]; found {
		res := &CacheAccount{
			Info:    acc.Info.Clone(),
			Storage: make(map[rollup.Key]rollup.Word, len(acc.Storage)),
			Status:  acc.Status,
		}
		if res.Info != nil && !res.Info.HasNoCode() {
			res.Info.Code = s.bundle.Contracts[res.Info.CodeHash]
		}
		for key, slot := range acc.Storage {
			res.Storage[key] = slot.PresentValue
		}
		s.accounts[address] = res
		return res, nil
	}
	info, err := s.database.Basic(address)
	if err != nil {
		return nil, &ProviderError{Op: "account", Address: address, Err: err}
	}
	if info != nil && info.Code == nil && !info.HasNoCode() {
		if code, found := s.contracts[info.CodeHash]; found {
			info.Code = code
		}
	}
	acc := newLoadedAccount(info)
	s.accounts[address] = acc
	return acc, nil
}

// SetStateClearFlag enables or disables EIP-161 pruning of touched empty
// accounts for subsequent commits.
func (s *State) SetStateClearFlag(enabled bool) {
	s.stateClear = enabled
}

// StateClear reports whether EIP-161 pruning is enabled.
func (s *State) StateClear() bool {
	return s.stateClear
}

// Commit applies the state diff produced by a VM. All accounts of the diff
// must have been loaded through this state before.
func (s *State) Commit(changes rollup.EvmState) {
	transitions := make([]AddressTransition, 0, len(changes))
	for _, address := range sortedAddresses(changes) {
		account := changes[address]
		if !account.IsTouched() {
			continue
		}
		cached, found := s.accounts[address]
		if !found {
			panic(fmt.Sprintf("account %v committed without being loaded", address))
		}
		if transition := s.applyAccount(cached, account); transition != nil {
			transitions = append(transitions, AddressTransition{Address: address, Transition: transition})
		}
	}
	s.addTransitions(transitions)
}

func (s *State) applyAccount(cached *CacheAccount, account *rollup.Account) *TransitionAccount {
	if account.IsSelfDestructed() {
		return cached.selfDestruct()
	}
	storage := changedStorage(account.Storage)
	if len(account.Info.Code) > 0 {
		s.contracts[account.Info.CodeHash] = account.Info.Code
	}
	if account.IsCreated() {
		return cached.newlyCreated(account.Info, storage)
	}
	if account.IsEmpty() {
		if s.stateClear {
			return cached.touchEmptyEIP161()
		}
		return cached.touchCreatePreEIP161(storage)
	}
	return cached.change(account.Info, storage)
}

func changedStorage(storage map[rollup.Key]rollup.StorageSlot) map[rollup.Key]rollup.StorageSlot {
	res := make(map[rollup.Key]rollup.StorageSlot, len(storage))
	for key, slot := range storage {
		if slot.IsChanged() {
			res[key] = slot
		}
	}
	return res
}

// IncrementBalances adds the given amounts to the balances of the listed
// accounts, creating missing accounts. Zero amounts are ignored.
func (s *State) IncrementBalances(balances map[rollup.Address]*uint256.Int) error {
	transitions := make([]AddressTransition, 0, len(balances))
	for _, address := range sortedAddresses(balances) {
		amount := balances[address]
		if amount == nil || amount.IsZero() {
			continue
		}
		acc, err := s.LoadCacheAccount(address)
		if err != nil {
			return err
		}
		transitions = append(transitions, AddressTransition{
			Address:    address,
			Transition: acc.incrementBalance(amount),
		})
	}
	s.addTransitions(transitions)
	return nil
}

func (s *State) addTransitions(transitions []AddressTransition) {
	if s.transitions != nil {
		s.transitions.AddTransitions(transitions)
	}
}

// MergeTransitions folds all transitions recorded since the last merge
// into the bundle.
func (s *State) MergeTransitions(retention BundleRetention) {
	if s.transitions == nil {
		return
	}
	transitions := s.transitions.take()
	s.bundle.applyTransitions(transitions, retention)
	log.Trace("Merged state transitions", "accounts", len(transitions.Transitions), "retention", retention)
}

// TakeBundle returns the accumulated bundle and starts a new, empty one.
func (s *State) TakeBundle() *BundleState {
	res := s.bundle
	s.bundle = NewBundleState()
	return res
}

// Bundle gives read access to the bundle accumulated so far.
func (s *State) Bundle() *BundleState {
	return s.bundle
}

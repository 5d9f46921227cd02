// Copyright (c) 2024 Fantom Foundation
//
// Use of this software is governed by the Business Source License included
// in the LICENSE file and at fantom.foundation/bsl11.
//
// Change Date: 2028-4-16
//
// On the date above, in accordance with the Business Source License, use of
// this software will be governed by the GNU Lesser General Public License v3.

package store

import (
	"github.com/Fantom-foundation/Orbis/go/rollup"
	"github.com/Fantom-foundation/Orbis/go/state"
	"github.com/holiman/uint256"
)

// GenesisAccount is the initial content of an account.
type GenesisAccount struct {
	Balance *uint256.Int               `json:"balance"`
	Nonce   uint64                     `json:"nonce,omitempty"`
	Code    rollup.Code                `json:"code,omitempty"`
	Storage map[rollup.Key]rollup.Word `json:"storage,omitempty"`
}

// GenesisAlloc lists the accounts of an initial state.
type GenesisAlloc map[rollup.Address]GenesisAccount

// Bundle converts the allocation into a bundle creating all its accounts.
func (a GenesisAlloc) Bundle() *state.BundleState {
	res := state.NewBundleState()
	for address, account := range a {
		info := rollup.AccountInfo{Nonce: account.Nonce, CodeHash: rollup.EmptyCodeHash}
		if account.Balance != nil {
			info.Balance = *account.Balance
		}
		if len(account.Code) > 0 {
			info.CodeHash = account.Code.Hash()
			res.Contracts[info.CodeHash] = account.Code
		}
		storage := make(map[rollup.Key]rollup.StorageSlot, len(account.Storage))
		for key, value := range account.Storage {
			storage[key] = rollup.StorageSlot{PresentValue: value}
		}
		res.State[address] = &state.BundleAccount{
			Info:    &info,
			Storage: storage,
			Status:  state.InMemoryChange,
		}
	}
	return res
}

// Alloc writes the given accounts into the store.
func (s *Store) Alloc(alloc GenesisAlloc) error {
	return s.Commit(alloc.Bundle())
}

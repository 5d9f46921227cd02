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
	"bytes"
	"fmt"
	"maps"

	"github.com/Fantom-foundation/Orbis/go/rollup"
	"github.com/Fantom-foundation/Orbis/go/store"
	"github.com/holiman/uint256"
)

// ----------------------------------------------------------------------------
// WorldState
// ----------------------------------------------------------------------------

// WorldState models the world state of a chain for testing. It is mainly
// intended to describe the states before and after the execution of a block
// in test scenarios. Empty accounts are ignored, matching the pruning of
// empty accounts after Spurious Dragon.
type WorldState map[rollup.Address]Account

func (s WorldState) Equal(other WorldState) bool {
	return equalMapsIgnoringZero(s, other, func(a, b Account) bool {
		return a.Equal(&b)
	})
}

func (s WorldState) Clone() WorldState {
	if s == nil {
		return nil
	}
	res := make(WorldState, len(s))
	for k, v := range s {
		res[k] = v.Clone()
	}
	return res
}

func (s WorldState) Diff(other WorldState) []string {
	return diffMaps("", s, other, func(address rollup.Address, a, b Account) []string {
		if a.Equal(&b) {
			return nil
		}
		return a.Diff(fmt.Sprintf("%v/", address), &b)
	})
}

// Alloc converts the world state into a genesis allocation.
func (s WorldState) Alloc() store.GenesisAlloc {
	res := store.GenesisAlloc{}
	for address, account := range s {
		if account.IsEmpty() {
			continue
		}
		balance := account.Balance
		res[address] = store.GenesisAccount{
			Balance: &balance,
			Nonce:   account.Nonce,
			Code:    bytes.Clone(account.Code),
			Storage: maps.Clone(account.Storage),
		}
	}
	return res
}

// readWorldState loads the given accounts and storage slots from a
// database. Accounts that do not exist are omitted.
func readWorldState(db rollup.Database, addresses []rollup.Address, keys map[rollup.Address][]rollup.Key) (WorldState, error) {
	res := WorldState{}
	for _, address := range addresses {
		info, err := db.Basic(address)
		if err != nil {
			return nil, err
		}
		if info == nil {
			continue
		}
		account := Account{Balance: info.Balance, Nonce: info.Nonce}
		if !info.HasNoCode() {
			if account.Code, err = db.CodeByHash(info.CodeHash); err != nil {
				return nil, err
			}
		}
		for _, key := range keys[address] {
			value, err := db.Storage(address, key)
			if err != nil {
				return nil, err
			}
			if value.IsZero() {
				continue
			}
			if account.Storage == nil {
				account.Storage = Storage{}
			}
			account.Storage[key] = value
		}
		res[address] = account
	}
	return res, nil
}

// ----------------------------------------------------------------------------
// Account
// ----------------------------------------------------------------------------

// Account represents an account in the world state. The default account is
// an empty account, that is ignored by the world state.
type Account struct {
	Balance uint256.Int
	Nonce   uint64
	Code    rollup.Code
	Storage Storage
}

// NewAccount creates an account holding the given balance.
func NewAccount(balance uint64) Account {
	return Account{Balance: *uint256.NewInt(balance)}
}

func (a *Account) IsEmpty() bool {
	return a.Balance.IsZero() && a.Nonce == 0 && len(a.Code) == 0 && a.Storage.Equal(nil)
}

func (a *Account) Equal(other *Account) bool {
	return a.Balance.Eq(&other.Balance) &&
		a.Nonce == other.Nonce &&
		bytes.Equal(a.Code, other.Code) &&
		a.Storage.Equal(other.Storage)
}

func (a *Account) Clone() Account {
	return Account{
		Balance: a.Balance,
		Nonce:   a.Nonce,
		Code:    bytes.Clone(a.Code),
		Storage: a.Storage.Clone(),
	}
}

func (a *Account) Diff(prefix string, other *Account) []string {
	var res []string
	if !a.Balance.Eq(&other.Balance) {
		res = append(res, fmt.Sprintf("different balance: %v != %v", &a.Balance, &other.Balance))
	}
	if a.Nonce != other.Nonce {
		res = append(res, fmt.Sprintf("different nonce: %v != %v", a.Nonce, other.Nonce))
	}
	if !bytes.Equal(a.Code, other.Code) {
		res = append(res, fmt.Sprintf("different code: 0x%x != 0x%x", []byte(a.Code), []byte(other.Code)))
	}
	res = append(res, a.Storage.Diff("Storage/", other.Storage)...)
	for i, diff := range res {
		res[i] = prefix + diff
	}
	return res
}

// ----------------------------------------------------------------------------
// Storage
// ----------------------------------------------------------------------------

// Storage represents the storage of an account in the world state. Zero-valued
// entries are ignored in the storage.
type Storage map[rollup.Key]rollup.Word

func (s Storage) Equal(other Storage) bool {
	return equalMapsIgnoringZero(s, other, func(a, b rollup.Word) bool {
		return a == b
	})
}

func (s Storage) Clone() Storage {
	return maps.Clone(s)
}

func (s Storage) Diff(prefix string, other Storage) []string {
	return diffMaps(prefix, s, other, func(k rollup.Key, a, b rollup.Word) []string {
		if a == b {
			return nil
		}
		return []string{
			fmt.Sprintf("different value for key %x: %v != %v", k, a, b),
		}
	})
}

// ----------------------------------------------------------------------------
// Helpers
// ----------------------------------------------------------------------------

// equalMapsIgnoringZero compares two maps, ignoring zero-valued entries.
func equalMapsIgnoringZero[K comparable, V any](a, b map[K]V, equal func(V, V) bool) bool {
	for k, v := range a {
		if !equal(v, b[k]) {
			return false
		}
	}
	for k, v := range b {
		if !equal(v, a[k]) {
			return false
		}
	}
	return true
}

// diffMaps compares two maps and returns a list of differences.
func diffMaps[K comparable, V any](prefix string, a, b map[K]V, diff func(K, V, V) []string) []string {
	var diffs []string
	for k, v := range a {
		diffs = append(diffs, diff(k, v, b[k])...)
	}
	for k, v := range b {
		if _, overlap := a[k]; !overlap {
			diffs = append(diffs, diff(k, a[k], v)...)
		}
	}
	for i, diff := range diffs {
		diffs[i] = prefix + diff
	}
	return diffs
}

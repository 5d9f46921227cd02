// Copyright (c) 2024 Fantom Foundation
//
// Use of this software is governed by the Business Source License included
// in the LICENSE file and at fantom.foundation/bsl11.
//
// Change Date: 2028-4-16
//
// On the date above, in accordance with the Business Source License, use of
// this software will be governed by the GNU Lesser General Public License v3.

package state

import (
	"fmt"

	"github.com/Fantom-foundation/Orbis/go/rollup"
)

// BundleRetention controls what is kept when transitions are merged into
// the bundle.
type BundleRetention int

const (
	// PlainState keeps only the resulting state.
	PlainState BundleRetention = iota
	// Reverts additionally records how to undo each merge.
	Reverts
)

func (r BundleRetention) String() string {
	switch r {
	case PlainState:
		return "PlainState"
	case Reverts:
		return "Reverts"
	default:
		return fmt.Sprintf("BundleRetention(%d)", int(r))
	}
}

// BundleAccount is the net change of an account over all merged blocks.
// Infos held by the bundle never carry code; code is kept in the bundle's
// contract table.
type BundleAccount struct {
	Info         *rollup.AccountInfo
	OriginalInfo *rollup.AccountInfo
	Storage      map[rollup.Key]rollup.StorageSlot
	Status       AccountStatus
}

// WasDestroyed reports whether the persistent storage of the account has to
// be discarded before the bundle's slots are written.
func (a *BundleAccount) WasDestroyed() bool {
	return a.Status.WasDestroyed()
}

// IsInfoChanged reports whether the account info differs from the original.
func (a *BundleAccount) IsInfoChanged() bool {
	return !a.Info.Equal(a.OriginalInfo)
}

// IsUnchanged reports whether the account is identical to its original.
func (a *BundleAccount) IsUnchanged() bool {
	if a.IsInfoChanged() || a.WasDestroyed() {
		return false
	}
	for _, slot := range a.Storage {
		if slot.IsChanged() {
			return false
		}
	}
	return true
}

func (a *BundleAccount) update(info *rollup.AccountInfo, transition *TransitionAccount) AccountRevert {
	revert := AccountRevert{
		Account:        infoRevert(a.Info, info),
		Storage:        map[rollup.Key]rollup.Word{},
		PreviousStatus: a.Status,
	}
	if transition.StorageWasDestroyed {
		revert.WipeStorage = true
		for key, slot := range a.Storage {
			revert.Storage[key] = slot.PresentValue
			slot.PresentValue = rollup.Word{}
			a.Storage[key] = slot
		}
	}
	for key, slot := range transition.Storage {
		cur, found := a.Storage[key]
		if !found {
			revert.Storage[key] = slot.OriginalValue
			a.Storage[key] = slot
			continue
		}
		if _, recorded := revert.Storage[key]; !recorded {
			revert.Storage[key] = cur.PresentValue
		}
		cur.PresentValue = slot.PresentValue
		a.Storage[key] = cur
	}
	a.Info = info
	a.Status = transition.Status
	return revert
}

// revert undoes a merge and reports whether the account is back to its
// original state.
func (a *BundleAccount) revert(revert AccountRevert) bool {
	a.Status = revert.PreviousStatus
	switch revert.Account.Kind {
	case RevertDeleteIt:
		a.Info = nil
	case RevertToInfo:
		a.Info = revert.Account.Info.Clone()
	}
	if revert.WipeStorage {
		for key, slot := range a.Storage {
			slot.PresentValue = slot.OriginalValue
			a.Storage[key] = slot
		}
	}
	for key, value := range revert.Storage {
		slot := a.Storage[key]
		slot.PresentValue = value
		a.Storage[key] = slot
	}
	return a.IsUnchanged()
}

// InfoRevertKind names the action restoring an account's info.
type InfoRevertKind uint8

const (
	RevertDoNothing InfoRevertKind = iota
	RevertDeleteIt
	RevertToInfo
)

// AccountInfoRevert restores the info of an account.
type AccountInfoRevert struct {
	Kind InfoRevertKind
	// Info is the info to restore for RevertToInfo.
	Info *rollup.AccountInfo
}

func infoRevert(previous, current *rollup.AccountInfo) AccountInfoRevert {
	switch {
	case previous.Equal(current):
		return AccountInfoRevert{Kind: RevertDoNothing}
	case previous == nil:
		return AccountInfoRevert{Kind: RevertDeleteIt}
	default:
		return AccountInfoRevert{Kind: RevertToInfo, Info: previous.WithoutCode()}
	}
}

// AccountRevert restores an account to the state before a merge.
type AccountRevert struct {
	Account AccountInfoRevert
	// Storage holds the previous value of every slot changed by the merge.
	Storage        map[rollup.Key]rollup.Word
	PreviousStatus AccountStatus
	// WipeStorage is set if the merge wiped the account's storage. Slots
	// not listed in Storage revert to their original values.
	WipeStorage bool
}

// AddressRevert pairs an account with its revert.
type AddressRevert struct {
	Address rollup.Address
	Revert  AccountRevert
}

// BundleState is the accumulated state change of one or more blocks.
type BundleState struct {
	State     map[rollup.Address]*BundleAccount
	Contracts map[rollup.Hash]rollup.Code
	// Reverts holds one list per merge, sorted by address. Merges without
	// changes contribute an empty list.
	Reverts [][]AddressRevert
}

// NewBundleState creates an empty bundle.
func NewBundleState() *BundleState {
	return &BundleState{
		State:     map[rollup.Address]*BundleAccount{},
		Contracts: map[rollup.Hash]rollup.Code{},
	}
}

// Account returns the bundle entry of the given account.
func (b *BundleState) Account(address rollup.Address) (*BundleAccount, bool) {
	acc, found := b.State[address]
	return acc, found
}

// Addresses lists all accounts of the bundle in ascending order.
func (b *BundleState) Addresses() []rollup.Address {
	return sortedAddresses(b.State)
}

// IsEmpty reports whether the bundle holds no account changes.
func (b *BundleState) IsEmpty() bool {
	return len(b.State) == 0
}

// Size is the number of accounts plus the number of storage slots held.
func (b *BundleState) Size() int {
	res := len(b.State)
	for _, acc := range b.State {
		res += len(acc.Storage)
	}
	return res
}

func (b *BundleState) applyTransitions(transitions *TransitionState, retention BundleRetention) {
	reverts := make([]AddressRevert, 0, len(transitions.Transitions))
	for _, address := range sortedAddresses(transitions.Transitions) {
		transition := transitions.Transitions[address]
		if transition.Info != nil && len(transition.Info.Code) > 0 {
			b.Contracts[transition.Info.CodeHash] = transition.Info.Code
		}
		info := transition.Info.WithoutCode()

		var revert AccountRevert
		if acc, found := b.State[address]; found {
			revert = acc.update(info, transition)
		} else {
			acc := &BundleAccount{
				Info:         info,
				OriginalInfo: transition.PreviousInfo.WithoutCode(),
				Storage:      make(map[rollup.Key]rollup.StorageSlot, len(transition.Storage)),
				Status:       transition.Status,
			}
			revert = AccountRevert{
				Account:        infoRevert(acc.OriginalInfo, info),
				Storage:        make(map[rollup.Key]rollup.Word, len(transition.Storage)),
				PreviousStatus: transition.PreviousStatus,
				WipeStorage:    transition.StorageWasDestroyed,
			}
			for key, slot := range transition.Storage {
				acc.Storage[key] = slot
				revert.Storage[key] = slot.OriginalValue
			}
			b.State[address] = acc
		}
		if retention == Reverts {
			reverts = append(reverts, AddressRevert{Address: address, Revert: revert})
		}
	}
	if retention == Reverts {
		b.Reverts = append(b.Reverts, reverts)
	}
}

// RevertLatest undoes the most recent merge recorded with Reverts
// retention. Accounts that end up unchanged are dropped from the bundle.
// It reports false if there is nothing to revert.
func (b *BundleState) RevertLatest() bool {
	if len(b.Reverts) == 0 {
		return false
	}
	latest := b.Reverts[len(b.Reverts)-1]
	b.Reverts = b.Reverts[:len(b.Reverts)-1]
	for _, entry := range latest {
		acc, found := b.State[entry.Address]
		if !found {
			continue
		}
		if acc.revert(entry.Revert) {
			delete(b.State, entry.Address)
		}
	}
	return true
}

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
	"github.com/holiman/uint256"
)

// AccountStatus tracks the life cycle of an account within the blocks
// processed by a State. It determines whether storage reads need to reach
// the database and whether the persistent storage has to be wiped.
type AccountStatus uint8

const (
	// LoadedNotExisting accounts were looked up but are absent in the database.
	LoadedNotExisting AccountStatus = iota
	// Loaded accounts are unmodified copies of the database entry.
	Loaded
	// LoadedEmptyEIP161 accounts exist in the database but are empty.
	LoadedEmptyEIP161
	// InMemoryChange accounts were modified and have no storage in the
	// database.
	InMemoryChange
	// Changed accounts were modified and may have storage in the database.
	Changed
	// Destroyed accounts were self-destructed or pruned.
	Destroyed
	// DestroyedChanged accounts were modified after being destroyed.
	DestroyedChanged
	// DestroyedAgain accounts were destroyed more than once.
	DestroyedAgain
)

var accountStatusNames = map[AccountStatus]string{
	LoadedNotExisting: "LoadedNotExisting",
	Loaded:            "Loaded",
	LoadedEmptyEIP161: "LoadedEmptyEIP161",
	InMemoryChange:    "InMemoryChange",
	Changed:           "Changed",
	Destroyed:         "Destroyed",
	DestroyedChanged:  "DestroyedChanged",
	DestroyedAgain:    "DestroyedAgain",
}

func (s AccountStatus) String() string {
	if name, found := accountStatusNames[s]; found {
		return name
	}
	return fmt.Sprintf("AccountStatus(%d)", s)
}

// WasDestroyed reports whether the persistent storage of the account is
// no longer valid.
func (s AccountStatus) WasDestroyed() bool {
	return s == Destroyed || s == DestroyedChanged || s == DestroyedAgain
}

// isStorageKnown reports whether all storage of the account is held in
// memory, so missing slots are zero without consulting the database.
func (s AccountStatus) isStorageKnown() bool {
	return s == LoadedNotExisting || s == InMemoryChange || s.WasDestroyed()
}

func (s AccountStatus) onChanged(hadNoNonceAndCode bool) AccountStatus {
	switch s {
	case LoadedNotExisting, LoadedEmptyEIP161, InMemoryChange:
		return InMemoryChange
	case Loaded:
		if hadNoNonceAndCode {
			return InMemoryChange
		}
		return Changed
	case Changed:
		return Changed
	default:
		return DestroyedChanged
	}
}

func (s AccountStatus) onTouchedEmptyPostEIP161() AccountStatus {
	switch s {
	case LoadedNotExisting:
		return LoadedNotExisting
	case Destroyed, DestroyedAgain:
		return DestroyedAgain
	default:
		return Destroyed
	}
}

func (s AccountStatus) onSelfDestructed() AccountStatus {
	if s.WasDestroyed() {
		return DestroyedAgain
	}
	return Destroyed
}

func (s AccountStatus) onCreated() AccountStatus {
	if s.WasDestroyed() {
		return DestroyedChanged
	}
	return InMemoryChange
}

// CacheAccount is the in-memory view of an account. A nil Info stands for
// an account that does not exist.
type CacheAccount struct {
	Info    *rollup.AccountInfo
	Storage map[rollup.Key]rollup.Word
	Status  AccountStatus
}

func newLoadedAccount(info *rollup.AccountInfo) *CacheAccount {
	res := &CacheAccount{
		Info:    info,
		Storage: map[rollup.Key]rollup.Word{},
		Status:  Loaded,
	}
	switch {
	case info == nil:
		res.Status = LoadedNotExisting
	case info.IsEmpty():
		res.Status = LoadedEmptyEIP161
	}
	return res
}

// Exists reports whether the account is present after all changes.
func (a *CacheAccount) Exists() bool {
	return a.Info != nil
}

func (a *CacheAccount) isEmptyOrMissing() bool {
	return a.Info == nil || a.Info.IsEmpty()
}

// change applies new account info and storage values.
func (a *CacheAccount) change(info rollup.AccountInfo, storage map[rollup.Key]rollup.StorageSlot) *TransitionAccount {
	previousInfo := a.Info.Clone()
	previousStatus := a.Status
	hadNoNonceAndCode := previousInfo != nil && previousInfo.Nonce == 0 && previousInfo.HasNoCode()
	for key, slot := range storage {
		a.Storage[key] = slot.PresentValue
	}
	a.Info = &info
	a.Status = previousStatus.onChanged(hadNoNonceAndCode)
	return &TransitionAccount{
		Info:           info.Clone(),
		Status:         a.Status,
		PreviousInfo:   previousInfo,
		PreviousStatus: previousStatus,
		Storage:        storage,
	}
}

// newlyCreated replaces the account by a freshly created one.
func (a *CacheAccount) newlyCreated(info rollup.AccountInfo, storage map[rollup.Key]rollup.StorageSlot) *TransitionAccount {
	previousInfo := a.Info.Clone()
	previousStatus := a.Status
	a.Storage = make(map[rollup.Key]rollup.Word, len(storage))
	for key, slot := range storage {
		a.Storage[key] = slot.PresentValue
	}
	a.Info = &info
	a.Status = previousStatus.onCreated()
	return &TransitionAccount{
		Info:           info.Clone(),
		Status:         a.Status,
		PreviousInfo:   previousInfo,
		PreviousStatus: previousStatus,
		Storage:        storage,
	}
}

// selfDestruct removes the account and its storage.
func (a *CacheAccount) selfDestruct() *TransitionAccount {
	previousInfo := a.Info
	previousStatus := a.Status
	a.Info = nil
	a.Storage = map[rollup.Key]rollup.Word{}
	a.Status = previousStatus.onSelfDestructed()
	if previousStatus == LoadedNotExisting {
		return nil
	}
	return &TransitionAccount{
		Status:              a.Status,
		PreviousInfo:        previousInfo,
		PreviousStatus:      previousStatus,
		Storage:             map[rollup.Key]rollup.StorageSlot{},
		StorageWasDestroyed: true,
	}
}

// touchEmptyEIP161 prunes a touched empty account.
func (a *CacheAccount) touchEmptyEIP161() *TransitionAccount {
	previousInfo := a.Info
	previousStatus := a.Status
	a.Info = nil
	a.Storage = map[rollup.Key]rollup.Word{}
	a.Status = previousStatus.onTouchedEmptyPostEIP161()
	switch previousStatus {
	case LoadedNotExisting, Destroyed, DestroyedAgain:
		return nil
	}
	return &TransitionAccount{
		Status:              a.Status,
		PreviousInfo:        previousInfo,
		PreviousStatus:      previousStatus,
		Storage:             map[rollup.Key]rollup.StorageSlot{},
		StorageWasDestroyed: true,
	}
}

// touchCreatePreEIP161 materializes a touched empty account, which is what
// happens to such accounts before state clearing was introduced.
func (a *CacheAccount) touchCreatePreEIP161(storage map[rollup.Key]rollup.StorageSlot) *TransitionAccount {
	previousStatus := a.Status
	var status AccountStatus
	switch previousStatus {
	case LoadedNotExisting:
		status = InMemoryChange
	case Destroyed, DestroyedAgain:
		status = DestroyedChanged
	case Loaded:
		if !a.isEmptyOrMissing() {
			return nil
		}
		status = LoadedEmptyEIP161
	default:
		// already present as an empty account
		return nil
	}
	previousInfo := a.Info.Clone()
	info := rollup.NewAccountInfo(new(uint256.Int), 0)
	for key, slot := range storage {
		a.Storage[key] = slot.PresentValue
	}
	a.Info = &info
	a.Status = status
	return &TransitionAccount{
		Info:           info.Clone(),
		Status:         status,
		PreviousInfo:   previousInfo,
		PreviousStatus: previousStatus,
		Storage:        storage,
	}
}

// incrementBalance adds the given amount to the balance of the account,
// creating it if needed.
func (a *CacheAccount) incrementBalance(amount *uint256.Int) *TransitionAccount {
	info := rollup.NewAccountInfo(new(uint256.Int), 0)
	if a.Info != nil {
		info = *a.Info.Clone()
	}
	info.Balance.Add(&info.Balance, amount)
	return a.change(info, nil)
}

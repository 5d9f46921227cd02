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

import (
	"fmt"

	"github.com/holiman/uint256"
)

// AccountInfo is the non-storage part of an account. Code is optional; if
// it is nil it can be resolved through the code hash.
type AccountInfo struct {
	Balance  uint256.Int
	Nonce    uint64
	CodeHash Hash
	Code     Code
}

// NewAccountInfo creates the info of an account without code.
func NewAccountInfo(balance *uint256.Int, nonce uint64) AccountInfo {
	return AccountInfo{Balance: *balance, Nonce: nonce, CodeHash: EmptyCodeHash}
}

// HasNoCode reports whether the account has no deployed code.
func (a *AccountInfo) HasNoCode() bool {
	return a.CodeHash == EmptyCodeHash || a.CodeHash == Hash{}
}

// IsEmpty reports whether the account is empty in the sense of EIP-161.
func (a *AccountInfo) IsEmpty() bool {
	return a.Balance.IsZero() && a.Nonce == 0 && a.HasNoCode()
}

// Equal compares balance, nonce and code hash of two infos. A nil info
// equals only another nil info.
func (a *AccountInfo) Equal(b *AccountInfo) bool {
	if a == nil || b == nil {
		return a == b
	}
	return a.Balance.Eq(&b.Balance) && a.Nonce == b.Nonce && a.CodeHash == b.CodeHash
}

// Clone returns a copy of the info, nil for a nil info.
func (a *AccountInfo) Clone() *AccountInfo {
	if a == nil {
		return nil
	}
	res := *a
	return &res
}

// WithoutCode returns a copy of the info that does not carry the code.
func (a *AccountInfo) WithoutCode() *AccountInfo {
	res := a.Clone()
	if res != nil {
		res.Code = nil
	}
	return res
}

func (a *AccountInfo) String() string {
	if a == nil {
		return "<none>"
	}
	return fmt.Sprintf("{balance: %v, nonce: %d, code: %v}", &a.Balance, a.Nonce, a.CodeHash)
}

// AccountStatus is a set of flags describing what happened to an account
// during the execution of a transaction.
type AccountStatus uint8

const (
	AccountTouched AccountStatus = 1 << iota
	AccountCreated
	AccountSelfDestructed
	AccountLoadedAsNotExisting
)

// StorageSlot tracks the value of a slot before the transaction and after.
type StorageSlot struct {
	OriginalValue Word
	PresentValue  Word
}

func (s StorageSlot) IsChanged() bool {
	return s.OriginalValue != s.PresentValue
}

// Account is the state of an account as produced by the VM.
type Account struct {
	Info    AccountInfo
	Storage map[Key]StorageSlot
	Status  AccountStatus
}

func (a *Account) MarkTouch()            { a.Status |= AccountTouched }
func (a *Account) IsTouched() bool       { return a.Status&AccountTouched != 0 }
func (a *Account) MarkCreated()          { a.Status |= AccountCreated }
func (a *Account) IsCreated() bool       { return a.Status&AccountCreated != 0 }
func (a *Account) MarkSelfDestruct()     { a.Status |= AccountSelfDestructed }
func (a *Account) IsSelfDestructed() bool { return a.Status&AccountSelfDestructed != 0 }

// IsEmpty reports whether the account is empty in the sense of EIP-161.
func (a *Account) IsEmpty() bool {
	return a.Info.IsEmpty()
}

// EvmState is the state diff produced by executing one transaction.
type EvmState map[Address]*Account

// ExecutionStatus distinguishes the outcomes of a transaction.
type ExecutionStatus uint8

const (
	ExecutionSuccess ExecutionStatus = iota
	ExecutionRevert
	ExecutionHalt
)

func (s ExecutionStatus) String() string {
	switch s {
	case ExecutionSuccess:
		return "success"
	case ExecutionRevert:
		return "revert"
	case ExecutionHalt:
		return "halt"
	default:
		return fmt.Sprintf("ExecutionStatus(%d)", s)
	}
}

// ExecutionResult is the outcome of a transaction that was included in a
// block. Logs are only retained for successful executions.
type ExecutionResult struct {
	Status      ExecutionStatus
	GasUsed     uint64
	GasRefunded uint64
	Logs        []Log
	Output      Data
	HaltReason  string
}

func (r *ExecutionResult) IsSuccess() bool {
	return r.Status == ExecutionSuccess
}

// ResultAndState bundles the result of a transaction with its state diff.
type ResultAndState struct {
	Result ExecutionResult
	State  EvmState
}

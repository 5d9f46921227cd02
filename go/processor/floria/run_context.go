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
	"github.com/Fantom-foundation/Orbis/go/rollup"
	"github.com/holiman/uint256"
)

// runContext is the working state of a single transaction. All accounts
// are loaded from the underlying database on first access; modifications
// are recorded in a journal so they can be rolled back to a snapshot.
type runContext struct {
	db       rollup.Database
	accounts map[rollup.Address]*rollup.Account
	journal  []func()
	err      error
}

func newRunContext(db rollup.Database) *runContext {
	return &runContext{
		db:       db,
		accounts: map[rollup.Address]*rollup.Account{},
	}
}

// account returns the working copy of an account. Database failures are
// recorded in the context and reported after the transaction; an empty
// account is used in the meantime.
func (r *runContext) account(address rollup.Address) *rollup.Account {
	if acc, found := r.accounts[address]; found {
		return acc
	}
	acc := &rollup.Account{Storage: map[rollup.Key]rollup.StorageSlot{}}
	info, err := r.db.Basic(address)
	if err != nil && r.err == nil {
		r.err = err
	}
	if info == nil {
		acc.Info = rollup.NewAccountInfo(new(uint256.Int), 0)
		acc.Status = rollup.AccountLoadedAsNotExisting
	} else {
		acc.Info = *info
	}
	r.accounts[address] = acc
	return acc
}

func (r *runContext) snapshot() int {
	return len(r.journal)
}

func (r *runContext) restore(snapshot int) {
	for i := len(r.journal) - 1; i >= snapshot; i-- {
		r.journal[i]()
	}
	r.journal = r.journal[:snapshot]
}

func (r *runContext) touch(address rollup.Address) {
	acc := r.account(address)
	if acc.IsTouched() {
		return
	}
	acc.MarkTouch()
	r.journal = append(r.journal, func() { acc.Status &^= rollup.AccountTouched })
}

func (r *runContext) getBalance(address rollup.Address) uint256.Int {
	return r.account(address).Info.Balance
}

func (r *runContext) setBalance(address rollup.Address, balance uint256.Int) {
	acc := r.account(address)
	previous := acc.Info.Balance
	acc.Info.Balance = balance
	r.journal = append(r.journal, func() { acc.Info.Balance = previous })
	r.touch(address)
}

func (r *runContext) getNonce(address rollup.Address) uint64 {
	return r.account(address).Info.Nonce
}

func (r *runContext) setNonce(address rollup.Address, nonce uint64) {
	acc := r.account(address)
	previous := acc.Info.Nonce
	acc.Info.Nonce = nonce
	r.journal = append(r.journal, func() { acc.Info.Nonce = previous })
	r.touch(address)
}

func (r *runContext) getCode(address rollup.Address) rollup.Code {
	acc := r.account(address)
	if acc.Info.Code != nil || acc.Info.HasNoCode() {
		return acc.Info.Code
	}
	code, err := r.db.CodeByHash(acc.Info.CodeHash)
	if err != nil && r.err == nil {
		r.err = err
	}
	acc.Info.Code = code
	return code
}

func (r *runContext) getStorage(address rollup.Address, key rollup.Key) rollup.Word {
	acc := r.account(address)
	if slot, found := acc.Storage[key]; found {
		return slot.PresentValue
	}
	var value rollup.Word
	if acc.Status&rollup.AccountLoadedAsNotExisting == 0 {
		var err error
		value, err = r.db.Storage(address, key)
		if err != nil && r.err == nil {
			r.err = err
		}
	}
	acc.Storage[key] = rollup.StorageSlot{OriginalValue: value, PresentValue: value}
	return value
}

func (r *runContext) setStorage(address rollup.Address, key rollup.Key, value rollup.Word) {
	r.getStorage(address, key)
	acc := r.account(address)
	slot := acc.Storage[key]
	previous := slot.PresentValue
	slot.PresentValue = value
	acc.Storage[key] = slot
	r.journal = append(r.journal, func() {
		slot := acc.Storage[key]
		slot.PresentValue = previous
		acc.Storage[key] = slot
	})
	r.touch(address)
}

func (r *runContext) setCode(address rollup.Address, code rollup.Code) {
	acc := r.account(address)
	previousCode, previousHash := acc.Info.Code, acc.Info.CodeHash
	acc.Info.Code = code
	acc.Info.CodeHash = code.Hash()
	r.journal = append(r.journal, func() {
		acc.Info.Code, acc.Info.CodeHash = previousCode, previousHash
	})
	r.touch(address)
}

func (r *runContext) markCreated(address rollup.Address) {
	acc := r.account(address)
	if acc.IsCreated() {
		return
	}
	acc.MarkCreated()
	r.journal = append(r.journal, func() { acc.Status &^= rollup.AccountCreated })
	r.touch(address)
}

// canTransferValue reports whether the sender can afford the value and the
// recipient's balance does not overflow.
func (r *runContext) canTransferValue(value *uint256.Int, sender rollup.Address, recipient *rollup.Address) bool {
	if value.IsZero() {
		return true
	}
	senderBalance := r.getBalance(sender)
	if senderBalance.Lt(value) {
		return false
	}
	if recipient == nil || sender == *recipient {
		return true
	}
	receiverBalance := r.getBalance(*recipient)
	_, overflow := new(uint256.Int).AddOverflow(&receiverBalance, value)
	return !overflow
}

// transferValue moves value between accounts. It is only to be called
// after canTransferValue.
func (r *runContext) transferValue(value *uint256.Int, sender, recipient rollup.Address) {
	r.touch(recipient)
	if value.IsZero() || sender == recipient {
		return
	}
	senderBalance := r.getBalance(sender)
	receiverBalance := r.getBalance(recipient)
	r.setBalance(sender, *senderBalance.Sub(&senderBalance, value))
	r.setBalance(recipient, *receiverBalance.Add(&receiverBalance, value))
}

func (r *runContext) addBalance(address rollup.Address, amount *uint256.Int) {
	balance := r.getBalance(address)
	r.setBalance(address, *balance.Add(&balance, amount))
}

// evmState converts the working copies into the state diff of the
// transaction.
func (r *runContext) evmState() rollup.EvmState {
	res := make(rollup.EvmState, len(r.accounts))
	for address, acc := range r.accounts {
		res[address] = acc
	}
	return res
}

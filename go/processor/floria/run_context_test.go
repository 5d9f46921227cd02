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
	"errors"
	"testing"

	"github.com/Fantom-foundation/Orbis/go/rollup"
	"github.com/holiman/uint256"
	"go.uber.org/mock/gomock"
)

var (
	sender    = rollup.Address{1}
	recipient = rollup.Address{2}
	coinbase  = rollup.Address{3}
)

func accountInfo(balance, nonce uint64) *rollup.AccountInfo {
	info := rollup.NewAccountInfo(uint256.NewInt(balance), nonce)
	return &info
}

func contractInfo(code rollup.Code) *rollup.AccountInfo {
	info := rollup.NewAccountInfo(new(uint256.Int), 1)
	info.Code = code
	info.CodeHash = code.Hash()
	return &info
}

// newTestDatabase creates a database mock serving the given accounts. All
// storage slots are zero.
func newTestDatabase(ctrl *gomock.Controller, accounts map[rollup.Address]*rollup.AccountInfo) *rollup.MockDatabase {
	db := rollup.NewMockDatabase(ctrl)
	db.EXPECT().Basic(gomock.Any()).DoAndReturn(func(address rollup.Address) (*rollup.AccountInfo, error) {
		return accounts[address].Clone(), nil
	}).AnyTimes()
	db.EXPECT().Storage(gomock.Any(), gomock.Any()).Return(rollup.Word{}, nil).AnyTimes()
	db.EXPECT().CodeByHash(gomock.Any()).DoAndReturn(func(hash rollup.Hash) (rollup.Code, error) {
		for _, info := range accounts {
			if info.CodeHash == hash {
				return info.Code, nil
			}
		}
		return nil, nil
	}).AnyTimes()
	return db
}

func TestRunContext_AccountsAreLoadedOnce(t *testing.T) {
	ctrl := gomock.NewController(t)
	db := rollup.NewMockDatabase(ctrl)
	db.EXPECT().Basic(sender).Return(accountInfo(10, 2), nil)

	ctx := newRunContext(db)
	balance := ctx.getBalance(sender)
	if want, got := uint64(10), balance.Uint64(); want != got {
		t.Errorf("unexpected balance, want %d, got %d", want, got)
	}
	if want, got := uint64(2), ctx.getNonce(sender); want != got {
		t.Errorf("unexpected nonce, want %d, got %d", want, got)
	}
}

func TestRunContext_MissingAccountIsMarkedAsNotExisting(t *testing.T) {
	ctrl := gomock.NewController(t)
	db := rollup.NewMockDatabase(ctrl)
	db.EXPECT().Basic(sender).Return(nil, nil)

	ctx := newRunContext(db)
	acc := ctx.account(sender)
	if acc.Status&rollup.AccountLoadedAsNotExisting == 0 {
		t.Errorf("missing account should be marked as not existing")
	}
	if acc.Info.CodeHash != rollup.EmptyCodeHash {
		t.Errorf("missing account should have the empty code hash, got %v", acc.Info.CodeHash)
	}
	if acc.IsTouched() {
		t.Errorf("loading an account must not touch it")
	}
}

func TestRunContext_StorageOfMissingAccountIsNotLoaded(t *testing.T) {
	ctrl := gomock.NewController(t)
	db := rollup.NewMockDatabase(ctrl)
	db.EXPECT().Basic(sender).Return(nil, nil)

	ctx := newRunContext(db)
	if got := ctx.getStorage(sender, rollup.Key{1}); !got.IsZero() {
		t.Errorf("unexpected storage value %v", got)
	}
}

func TestRunContext_RestoreRevertsAllModifications(t *testing.T) {
	ctrl := gomock.NewController(t)
	db := newTestDatabase(ctrl, map[rollup.Address]*rollup.AccountInfo{
		sender: accountInfo(100, 5),
	})

	ctx := newRunContext(db)
	ctx.getBalance(sender)
	snapshot := ctx.snapshot()

	ctx.setBalance(sender, *uint256.NewInt(50))
	ctx.setNonce(sender, 6)
	ctx.setStorage(sender, rollup.Key{1}, rollup.Word{2})
	ctx.setCode(sender, rollup.Code{0x60})
	ctx.markCreated(sender)
	ctx.restore(snapshot)

	acc := ctx.account(sender)
	if want, got := uint64(100), acc.Info.Balance.Uint64(); want != got {
		t.Errorf("unexpected balance, want %d, got %d", want, got)
	}
	if want, got := uint64(5), acc.Info.Nonce; want != got {
		t.Errorf("unexpected nonce, want %d, got %d", want, got)
	}
	if got := acc.Storage[rollup.Key{1}].PresentValue; !got.IsZero() {
		t.Errorf("unexpected storage value %v", got)
	}
	if acc.Info.CodeHash != rollup.EmptyCodeHash {
		t.Errorf("code was not restored")
	}
	if acc.IsCreated() || acc.IsTouched() {
		t.Errorf("status flags were not restored, got %v", acc.Status)
	}
}

func TestRunContext_NestedSnapshots(t *testing.T) {
	ctrl := gomock.NewController(t)
	db := newTestDatabase(ctrl, map[rollup.Address]*rollup.AccountInfo{})

	ctx := newRunContext(db)
	ctx.setNonce(sender, 1)
	outer := ctx.snapshot()
	ctx.setNonce(sender, 2)
	inner := ctx.snapshot()
	ctx.setNonce(sender, 3)

	ctx.restore(inner)
	if want, got := uint64(2), ctx.getNonce(sender); want != got {
		t.Errorf("unexpected nonce, want %d, got %d", want, got)
	}
	ctx.restore(outer)
	if want, got := uint64(1), ctx.getNonce(sender); want != got {
		t.Errorf("unexpected nonce, want %d, got %d", want, got)
	}
	if !ctx.account(sender).IsTouched() {
		t.Errorf("modification before the snapshot should keep the account touched")
	}
}

func TestRunContext_DatabaseErrorsAreRecorded(t *testing.T) {
	injected := errors.New("injected")
	ctrl := gomock.NewController(t)
	db := rollup.NewMockDatabase(ctrl)
	db.EXPECT().Basic(sender).Return(nil, injected)
	db.EXPECT().Basic(recipient).Return(nil, errors.New("second"))

	ctx := newRunContext(db)
	ctx.getBalance(sender)
	ctx.getBalance(recipient)
	if !errors.Is(ctx.err, injected) {
		t.Errorf("expected first error to be recorded, got %v", ctx.err)
	}
}

func TestRunContext_StorageKeepsOriginalValue(t *testing.T) {
	ctrl := gomock.NewController(t)
	db := rollup.NewMockDatabase(ctrl)
	db.EXPECT().Basic(recipient).Return(accountInfo(0, 1), nil)
	db.EXPECT().Storage(recipient, rollup.Key{1}).Return(rollup.Word{7}, nil)

	ctx := newRunContext(db)
	ctx.setStorage(recipient, rollup.Key{1}, rollup.Word{8})
	ctx.setStorage(recipient, rollup.Key{1}, rollup.Word{9})

	slot := ctx.evmState()[recipient].Storage[rollup.Key{1}]
	if want, got := (rollup.StorageSlot{OriginalValue: rollup.Word{7}, PresentValue: rollup.Word{9}}), slot; want != got {
		t.Errorf("unexpected slot, want %v, got %v", want, got)
	}
}

func TestRunContext_TransferValue(t *testing.T) {
	maxBalance := new(uint256.Int).SetAllOne()
	tests := map[string]struct {
		senderBalance    *uint256.Int
		recipientBalance *uint256.Int
		value            uint64
		possible         bool
	}{
		"zero value":             {uint256.NewInt(0), uint256.NewInt(0), 0, true},
		"sufficient balance":     {uint256.NewInt(10), uint256.NewInt(0), 10, true},
		"insufficient balance":   {uint256.NewInt(9), uint256.NewInt(0), 10, false},
		"recipient overflow":     {uint256.NewInt(10), maxBalance, 10, false},
		"recipient at the limit": {uint256.NewInt(10), new(uint256.Int).SubUint64(maxBalance, 10), 10, true},
	}

	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			senderInfo := rollup.NewAccountInfo(test.senderBalance, 0)
			recipientInfo := rollup.NewAccountInfo(test.recipientBalance, 0)
			db := newTestDatabase(ctrl, map[rollup.Address]*rollup.AccountInfo{
				sender:    &senderInfo,
				recipient: &recipientInfo,
			})

			ctx := newRunContext(db)
			value := uint256.NewInt(test.value)
			if got := ctx.canTransferValue(value, sender, &recipient); got != test.possible {
				t.Fatalf("unexpected transfer check, want %v, got %v", test.possible, got)
			}
			if !test.possible {
				return
			}
			ctx.transferValue(value, sender, recipient)
			senderBalance := ctx.getBalance(sender)
			recipientBalance := ctx.getBalance(recipient)
			if want := new(uint256.Int).Sub(test.senderBalance, value); !senderBalance.Eq(want) {
				t.Errorf("unexpected sender balance, want %v, got %v", want, &senderBalance)
			}
			if want := new(uint256.Int).Add(test.recipientBalance, value); !recipientBalance.Eq(want) {
				t.Errorf("unexpected recipient balance, want %v, got %v", want, &recipientBalance)
			}
			if !ctx.account(recipient).IsTouched() {
				t.Errorf("recipient should be touched")
			}
		})
	}
}

func TestRunContext_SelfTransferKeepsBalance(t *testing.T) {
	ctrl := gomock.NewController(t)
	db := newTestDatabase(ctrl, map[rollup.Address]*rollup.AccountInfo{
		sender: accountInfo(10, 0),
	})

	ctx := newRunContext(db)
	value := uint256.NewInt(10)
	if !ctx.canTransferValue(value, sender, &sender) {
		t.Fatalf("self transfer should be possible")
	}
	ctx.transferValue(value, sender, sender)
	balance := ctx.getBalance(sender)
	if want, got := uint64(10), balance.Uint64(); want != got {
		t.Errorf("unexpected balance, want %d, got %d", want, got)
	}
}

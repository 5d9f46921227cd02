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
	"errors"
	"reflect"
	"testing"

	"github.com/Fantom-foundation/Orbis/go/chainspec"
	"github.com/Fantom-foundation/Orbis/go/processor/floria"
	"github.com/Fantom-foundation/Orbis/go/rollup"
	"github.com/Fantom-foundation/Orbis/go/state"
	"github.com/Fantom-foundation/Orbis/go/store"
	"github.com/holiman/uint256"
	"go.uber.org/mock/gomock"
	"pgregory.net/rand"
)

const testChainID = 10

var (
	alice     = rollup.Address{0xA1}
	bob       = rollup.Address{0xB0}
	carol     = rollup.Address{0xCA}
	depositor = rollup.Address{0xDE}
	coinbase  = rollup.Address{0xC0}
)

func newTestStore(t *testing.T, alloc store.GenesisAlloc) *store.Store {
	t.Helper()
	db := store.NewMemory()
	if err := db.Alloc(alloc); err != nil {
		t.Fatalf("failed to allocate accounts: %v", err)
	}
	return db
}

func defaultAlloc() store.GenesisAlloc {
	oneEther := new(uint256.Int).Set(ether)
	return store.GenesisAlloc{
		alice:     {Balance: oneEther},
		bob:       {Balance: new(uint256.Int).Set(oneEther)},
		depositor: {Balance: new(uint256.Int), Nonce: 3},
	}
}

func transferTx(nonce uint64, to rollup.Address, value uint64) *rollup.Transaction {
	return rollup.NewTx(&rollup.DynamicFeeTx{
		ChainID:   uint256.NewInt(testChainID),
		Nonce:     nonce,
		GasTipCap: uint256.NewInt(1),
		GasFeeCap: uint256.NewInt(100),
		Gas:       21_000,
		To:        &to,
		Value:     uint256.NewInt(value),
	})
}

func depositTx(from, to rollup.Address, gas uint64, system bool) *rollup.Transaction {
	return rollup.NewTx(&rollup.DepositTx{
		SourceHash:          rollup.Hash{0x50, byte(gas)},
		From:                from,
		To:                  &to,
		Mint:                uint256.NewInt(0),
		Value:               uint256.NewInt(0),
		Gas:                 gas,
		IsSystemTransaction: system,
	})
}

func withSender(tx *rollup.Transaction, sender rollup.Address) rollup.TxWithSender {
	return rollup.TxWithSender{Tx: tx, Sender: sender}
}

func newBlock(number, timestamp uint64, txs ...rollup.TxWithSender) *rollup.Block {
	return &rollup.Block{
		Header: rollup.Header{
			Number:      number,
			Timestamp:   timestamp,
			GasLimit:    30_000_000,
			BaseFee:     uint256.NewInt(10),
			Beneficiary: coinbase,
		},
		Transactions: txs,
	}
}

func testChain(activate func(*chainspec.Builder) *chainspec.Builder) *chainspec.Spec {
	return activate(chainspec.NewBuilder().ChainID(testChainID)).Build()
}

var (
	bedrockChain  = testChain((*chainspec.Builder).BedrockActivated)
	regolithChain = testChain((*chainspec.Builder).RegolithActivated)
	canyonChain   = testChain((*chainspec.Builder).CanyonActivated)
	ecotoneChain  = testChain((*chainspec.Builder).EcotoneActivated)
)

func newFloriaFactory(chain rollup.ChainSpec) *Factory {
	return NewFactory(chain, NewEvmConfig(floria.NewProcessor()))
}

// runPhases runs all phases of a block on a fresh strategy.
func runPhases(t *testing.T, factory *Factory, db rollup.Database, block *rollup.Block) (*ExecuteOutput, *state.BundleState, error) {
	t.Helper()
	strategy := factory.Create(db)
	if err := strategy.ApplyPreExecutionChanges(block, new(uint256.Int)); err != nil {
		return nil, nil, err
	}
	output, err := strategy.ExecuteTransactions(block, new(uint256.Int))
	if err != nil {
		return nil, nil, err
	}
	if _, err := strategy.ApplyPostExecutionChanges(block, new(uint256.Int), output.Receipts); err != nil {
		return nil, nil, err
	}
	bundle, err := strategy.Finish()
	if err != nil {
		return nil, nil, err
	}
	return output, bundle, nil
}

func TestStrategy_ReceiptsFollowTransactionOrder(t *testing.T) {
	block := newBlock(1, 10,
		withSender(transferTx(0, bob, 1000), alice),
		withSender(depositTx(depositor, carol, 100_000, false), depositor),
		withSender(transferTx(1, carol, 1000), alice),
		withSender(transferTx(0, alice, 5), bob),
	)
	output, _, err := runPhases(t, newFloriaFactory(canyonChain), newTestStore(t, defaultAlloc()), block)
	if err != nil {
		t.Fatalf("failed to execute block: %v", err)
	}

	if want, got := len(block.Transactions), len(output.Receipts); want != got {
		t.Fatalf("unexpected number of receipts, want %d, got %d", want, got)
	}
	var previous uint64
	for i, receipt := range output.Receipts {
		if want, got := block.Transactions[i].Tx.Type(), receipt.Type; want != got {
			t.Errorf("receipt %d has wrong type, want %v, got %v", i, want, got)
		}
		if !receipt.Success {
			t.Errorf("transaction %d failed", i)
		}
		if receipt.CumulativeGasUsed < previous {
			t.Errorf("cumulative gas used decreased at receipt %d", i)
		}
		previous = receipt.CumulativeGasUsed
	}
	if want, got := previous, output.GasUsed; want != got {
		t.Errorf("gas used does not match last receipt, want %d, got %d", want, got)
	}
	if want, got := uint64(4*21_000), output.GasUsed; want != got {
		t.Errorf("unexpected gas used, want %d, got %d", want, got)
	}
}

func TestStrategy_DepositReceiptFieldsDependOnHardfork(t *testing.T) {
	three := uint64(3)
	one := uint64(1)
	tests := map[string]struct {
		chain          *chainspec.Spec
		depositNonce   *uint64
		receiptVersion *uint64
	}{
		"bedrock":  {bedrockChain, nil, nil},
		"regolith": {regolithChain, &three, nil},
		"canyon":   {canyonChain, &three, &one},
		"ecotone":  {ecotoneChain, &three, &one},
	}

	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			alloc := defaultAlloc()
			alloc[rollup.BeaconRootsAddress] = store.GenesisAccount{Balance: new(uint256.Int), Nonce: 1, Code: rollup.Code{0x60}}
			block := newBlock(1, 10,
				withSender(transferTx(0, bob, 1000), alice),
				withSender(depositTx(depositor, carol, 100_000, false), depositor),
			)
			block.Header.ParentBeaconRoot = &rollup.Hash{1}

			output, _, err := runPhases(t, newFloriaFactory(test.chain), newTestStore(t, alloc), block)
			if err != nil {
				t.Fatalf("failed to execute block: %v", err)
			}

			regular, deposit := output.Receipts[0], output.Receipts[1]
			if regular.DepositNonce != nil || regular.DepositReceiptVersion != nil {
				t.Errorf("regular transaction must not have deposit fields")
			}
			if !reflect.DeepEqual(test.depositNonce, deposit.DepositNonce) {
				t.Errorf("unexpected deposit nonce, want %v, got %v", test.depositNonce, deposit.DepositNonce)
			}
			if !reflect.DeepEqual(test.receiptVersion, deposit.DepositReceiptVersion) {
				t.Errorf("unexpected receipt version, want %v, got %v", test.receiptVersion, deposit.DepositReceiptVersion)
			}
		})
	}
}

func TestStrategy_SystemTransactionsAreExemptFromGasLimitBeforeRegolith(t *testing.T) {
	newGasLimitedBlock := func(system bool) *rollup.Block {
		block := newBlock(1, 10, withSender(depositTx(depositor, carol, 100_000, system), depositor))
		block.Header.GasLimit = 50_000
		return block
	}
	tests := map[string]struct {
		chain  *chainspec.Spec
		system bool
		fails  bool
	}{
		"system pre regolith":   {bedrockChain, true, false},
		"regular pre regolith":  {bedrockChain, false, true},
		"system post regolith":  {regolithChain, true, true},
		"regular post regolith": {regolithChain, false, true},
		"system post canyon":    {canyonChain, true, true},
	}

	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			_, _, err := runPhases(t, newFloriaFactory(test.chain), newTestStore(t, defaultAlloc()), newGasLimitedBlock(test.system))
			if !test.fails {
				if err != nil {
					t.Errorf("unexpected error: %v", err)
				}
				return
			}
			var gasErr *TransactionGasLimitError
			if !errors.As(err, &gasErr) {
				t.Fatalf("expected gas limit error, got %v", err)
			}
			if gasErr.TransactionGasLimit != 100_000 || gasErr.BlockAvailableGas != 50_000 {
				t.Errorf("unexpected error content: %v", gasErr)
			}
			if !errors.Is(err, rollup.ErrBlockValidation) {
				t.Errorf("gas limit error should be a validation error")
			}
		})
	}
}

func TestStrategy_GasLimitAboveBlockLimitProducesNoReceipts(t *testing.T) {
	tx := rollup.NewTx(&rollup.DynamicFeeTx{
		ChainID:   uint256.NewInt(testChainID),
		GasTipCap: uint256.NewInt(1),
		GasFeeCap: uint256.NewInt(100),
		Gas:       30_000_001,
		To:        &bob,
		Value:     uint256.NewInt(0),
	})
	strategy := newFloriaFactory(canyonChain).Create(newTestStore(t, defaultAlloc()))
	block := newBlock(1, 10, withSender(tx, alice))
	if err := strategy.ApplyPreExecutionChanges(block, nil); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	output, err := strategy.ExecuteTransactions(block, nil)
	var gasErr *TransactionGasLimitError
	if !errors.As(err, &gasErr) {
		t.Fatalf("expected gas limit error, got %v", err)
	}
	if output != nil {
		t.Errorf("failed execution must not produce receipts")
	}
}

func TestStrategy_BlobTransactionsAreRejected(t *testing.T) {
	blobTx := rollup.NewTx(&rollup.BlobTx{
		ChainID:    uint256.NewInt(testChainID),
		GasTipCap:  uint256.NewInt(1),
		GasFeeCap:  uint256.NewInt(100),
		Gas:        21_000,
		To:         bob,
		Value:      uint256.NewInt(0),
		BlobFeeCap: uint256.NewInt(1),
		BlobHashes: []rollup.Hash{{1}},
	})
	for name, chain := range map[string]*chainspec.Spec{
		"bedrock":  bedrockChain,
		"regolith": regolithChain,
		"canyon":   canyonChain,
		"ecotone":  ecotoneChain,
	} {
		t.Run(name, func(t *testing.T) {
			alloc := defaultAlloc()
			alloc[rollup.BeaconRootsAddress] = store.GenesisAccount{Balance: new(uint256.Int), Nonce: 1, Code: rollup.Code{0x60}}
			block := newBlock(1, 10, withSender(transferTx(0, bob, 1), alice), withSender(blobTx, alice))
			block.Header.ParentBeaconRoot = &rollup.Hash{}

			_, _, err := runPhases(t, newFloriaFactory(chain), newTestStore(t, alloc), block)
			if !errors.Is(err, ErrBlobTransactionRejected) {
				t.Errorf("expected blob rejection, got %v", err)
			}
			if !errors.Is(err, rollup.ErrBlockValidation) {
				t.Errorf("blob rejection should be a validation error")
			}
		})
	}
}

func TestStrategy_PhasesMustBeCalledInOrder(t *testing.T) {
	block := newBlock(1, 10)
	tests := map[string]func(s *Strategy) error{
		"execute before pre-execution": func(s *Strategy) error {
			_, err := s.ExecuteTransactions(block, nil)
			return err
		},
		"post-execution before execution": func(s *Strategy) error {
			if err := s.ApplyPreExecutionChanges(block, nil); err != nil {
				return err
			}
			_, err := s.ApplyPostExecutionChanges(block, nil, nil)
			return err
		},
		"pre-execution twice": func(s *Strategy) error {
			if err := s.ApplyPreExecutionChanges(block, nil); err != nil {
				return err
			}
			return s.ApplyPreExecutionChanges(block, nil)
		},
		"finish before post-execution": func(s *Strategy) error {
			_, err := s.Finish()
			return err
		},
		"finish twice": func(s *Strategy) error {
			if _, _, err := executeBlock(s, block, nil); err != nil {
				return err
			}
			if _, err := s.Finish(); err != nil {
				return err
			}
			_, err := s.Finish()
			return err
		},
		"different block": func(s *Strategy) error {
			if err := s.ApplyPreExecutionChanges(block, nil); err != nil {
				return err
			}
			_, err := s.ExecuteTransactions(newBlock(2, 12), nil)
			return err
		},
	}

	for name, run := range tests {
		t.Run(name, func(t *testing.T) {
			strategy := newFloriaFactory(canyonChain).Create(newTestStore(t, defaultAlloc()))
			if err := run(strategy); !errors.Is(err, ErrPhaseOrder) {
				t.Errorf("expected phase order error, got %v", err)
			}
		})
	}
}

func TestStrategy_VMErrorsAbortTheBlock(t *testing.T) {
	injected := errors.New("injected")
	ctrl := gomock.NewController(t)
	vm := rollup.NewMockVM(ctrl)
	vm.EXPECT().Transact(gomock.Any(), gomock.Any()).Return(rollup.ResultAndState{}, injected)

	tx := transferTx(0, bob, 1)
	block := newBlock(1, 10, withSender(tx, alice), withSender(transferTx(1, bob, 1), alice))
	factory := NewFactory(regolithChain, NewEvmConfig(vm))
	_, _, err := runPhases(t, factory, newTestStore(t, defaultAlloc()), block)

	var evmErr *EVMError
	if !errors.As(err, &evmErr) {
		t.Fatalf("expected EVM error, got %v", err)
	}
	if want, got := tx.Hash(), evmErr.Hash; want != got {
		t.Errorf("unexpected transaction hash, want %v, got %v", want, got)
	}
	if !errors.Is(err, injected) {
		t.Errorf("VM error is not wrapped")
	}
}

func TestStrategy_BlockGasIsExhaustedIfVMOverspends(t *testing.T) {
	ctrl := gomock.NewController(t)
	vm := rollup.NewMockVM(ctrl)
	vm.EXPECT().Transact(gomock.Any(), gomock.Any()).Return(rollup.ResultAndState{
		Result: rollup.ExecutionResult{Status: rollup.ExecutionSuccess, GasUsed: 30_000_005},
	}, nil)

	block := newBlock(1, 10, withSender(transferTx(0, bob, 1), alice), withSender(transferTx(1, bob, 1), alice))
	_, _, err := runPhases(t, NewFactory(regolithChain, NewEvmConfig(vm)), newTestStore(t, defaultAlloc()), block)

	var gasErr *TransactionGasLimitError
	if !errors.As(err, &gasErr) {
		t.Fatalf("expected gas limit error, got %v", err)
	}
	if gasErr.TransactionGasLimit != 21_000 || gasErr.BlockAvailableGas != 0 {
		t.Errorf("unexpected error content: %v", gasErr)
	}
}

func TestStrategy_ReceiptsReflectExecutionResults(t *testing.T) {
	ctrl := gomock.NewController(t)
	vm := rollup.NewMockVM(ctrl)
	logs := []rollup.Log{{Address: bob, Topics: []rollup.Hash{{1}}}}
	gomock.InOrder(
		vm.EXPECT().Transact(gomock.Any(), gomock.Any()).DoAndReturn(func(env *rollup.Env, db rollup.Database) (rollup.ResultAndState, error) {
			if env.Tx.Caller != alice || env.Tx.GasLimit != 21_000 || env.Block.Number != 1 {
				t.Errorf("unexpected environment %+v", env)
			}
			return rollup.ResultAndState{Result: rollup.ExecutionResult{Status: rollup.ExecutionSuccess, GasUsed: 21_000, Logs: logs}}, nil
		}),
		vm.EXPECT().Transact(gomock.Any(), gomock.Any()).Return(rollup.ResultAndState{
			Result: rollup.ExecutionResult{Status: rollup.ExecutionRevert, GasUsed: 15_000},
		}, nil),
	)

	block := newBlock(1, 10, withSender(transferTx(0, bob, 1), alice), withSender(transferTx(1, bob, 1), alice))
	output, _, err := runPhases(t, NewFactory(regolithChain, NewEvmConfig(vm)), newTestStore(t, defaultAlloc()), block)
	if err != nil {
		t.Fatalf("failed to execute block: %v", err)
	}

	want := rollup.Receipts{
		{Type: rollup.DynamicFeeTxType, Success: true, CumulativeGasUsed: 21_000, Logs: logs},
		{Type: rollup.DynamicFeeTxType, Success: false, CumulativeGasUsed: 36_000},
	}
	if !reflect.DeepEqual(want, output.Receipts) {
		t.Errorf("unexpected receipts, want %v, got %v", want, output.Receipts)
	}
	if want, got := uint64(36_000), output.GasUsed; want != got {
		t.Errorf("unexpected gas used, want %d, got %d", want, got)
	}
}

func TestStrategy_StateHookIsNotifiedForEveryTransaction(t *testing.T) {
	ctrl := gomock.NewController(t)
	hook := rollup.NewMockStateHook(ctrl)
	hook.EXPECT().OnState(gomock.Any()).Times(2)

	block := newBlock(1, 10,
		withSender(transferTx(0, bob, 1000), alice),
		withSender(depositTx(depositor, carol, 100_000, false), depositor),
	)
	strategy := newFloriaFactory(canyonChain).Create(newTestStore(t, defaultAlloc()))
	strategy.WithStateHook(hook)
	if _, _, err := executeBlock(strategy, block, nil); err != nil {
		t.Fatalf("failed to execute block: %v", err)
	}
}

func TestStrategy_DepositSenderLoadFailureIsReported(t *testing.T) {
	injected := errors.New("injected")
	ctrl := gomock.NewController(t)
	db := rollup.NewMockDatabase(ctrl)
	db.EXPECT().Basic(depositor).Return(nil, injected)

	block := newBlock(1, 10, withSender(depositTx(depositor, carol, 100_000, false), depositor))
	_, _, err := runPhases(t, newFloriaFactory(regolithChain), db, block)

	var loadErr *AccountLoadError
	if !errors.As(err, &loadErr) {
		t.Fatalf("expected account load error, got %v", err)
	}
	if loadErr.Address != depositor || !errors.Is(err, injected) {
		t.Errorf("unexpected error content: %v", err)
	}
}

func TestStrategy_BeaconRootIsStoredFromCancun(t *testing.T) {
	alloc := defaultAlloc()
	alloc[rollup.BeaconRootsAddress] = store.GenesisAccount{Balance: new(uint256.Int), Nonce: 1, Code: rollup.Code{0x60}}
	block := newBlock(1, 12, withSender(transferTx(0, bob, 1000), alice))
	root := rollup.Hash{0xBE, 0xAC}
	block.Header.ParentBeaconRoot = &root

	_, bundle, err := runPhases(t, newFloriaFactory(ecotoneChain), newTestStore(t, alloc), block)
	if err != nil {
		t.Fatalf("failed to execute block: %v", err)
	}
	account, found := bundle.Account(rollup.BeaconRootsAddress)
	if !found {
		t.Fatalf("beacon roots contract was not modified")
	}
	rootKey := rollup.Key{30: 0x20, 31: 0x0b}
	if want, got := rollup.Word(root), account.Storage[rootKey].PresentValue; want != got {
		t.Errorf("unexpected stored root, want %v, got %v", want, got)
	}
	if _, found := bundle.Account(rollup.SystemAddress); found {
		t.Errorf("system address must not be part of the bundle")
	}
}

func TestStrategy_MissingBeaconRootFailsFromCancun(t *testing.T) {
	block := newBlock(1, 12, withSender(transferTx(0, bob, 1000), alice))
	_, _, err := runPhases(t, newFloriaFactory(ecotoneChain), newTestStore(t, defaultAlloc()), block)
	if err == nil {
		t.Errorf("block without parent beacon root should fail")
	}
}

func TestStrategy_FinishRetainsReverts(t *testing.T) {
	block := newBlock(1, 10, withSender(transferTx(0, bob, 1000), alice))
	_, bundle, err := runPhases(t, newFloriaFactory(canyonChain), newTestStore(t, defaultAlloc()), block)
	if err != nil {
		t.Fatalf("failed to execute block: %v", err)
	}
	if want, got := 1, len(bundle.Reverts); want != got {
		t.Fatalf("unexpected number of revert lists, want %d, got %d", want, got)
	}
	acc, found := bundle.Account(bob)
	if !found {
		t.Fatalf("recipient is missing in bundle")
	}
	want := new(uint256.Int).AddUint64(ether, 1000)
	if !acc.Info.Balance.Eq(want) {
		t.Errorf("unexpected balance, want %v, got %v", want, &acc.Info.Balance)
	}
}

func TestStrategy_ExecutionIsDeterministic(t *testing.T) {
	rnd := rand.New(42)
	senders := []rollup.Address{alice, bob, carol}
	recipients := []rollup.Address{alice, bob, carol, depositor, {0x01, 0x02}}
	nonces := map[rollup.Address]uint64{}

	alloc := defaultAlloc()
	alloc[carol] = store.GenesisAccount{Balance: new(uint256.Int).Set(ether)}

	var txs []rollup.TxWithSender
	for i := 0; i < 50; i++ {
		if rnd.Intn(5) == 0 {
			txs = append(txs, withSender(depositTx(depositor, recipients[rnd.Intn(len(recipients))], uint64(21_000+i), false), depositor))
			continue
		}
		sender := senders[rnd.Intn(len(senders))]
		recipient := recipients[rnd.Intn(len(recipients))]
		txs = append(txs, withSender(transferTx(nonces[sender], recipient, rnd.Uint64n(1_000_000)), sender))
		nonces[sender]++
	}
	block := newBlock(1, 10, txs...)

	run := func() (*ExecuteOutput, *state.BundleState) {
		output, bundle, err := runPhases(t, newFloriaFactory(canyonChain), newTestStore(t, alloc), block)
		if err != nil {
			t.Fatalf("failed to execute block: %v", err)
		}
		return output, bundle
	}
	wantOutput, wantBundle := run()
	for i := 0; i < 3; i++ {
		output, bundle := run()
		if !reflect.DeepEqual(wantOutput, output) {
			t.Errorf("receipts differ between runs")
		}
		if !reflect.DeepEqual(wantBundle, bundle) {
			t.Errorf("bundles differ between runs")
		}
	}
}

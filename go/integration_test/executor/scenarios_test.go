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
	"testing"

	"github.com/Fantom-foundation/Orbis/go/chainspec"
	blockexecutor "github.com/Fantom-foundation/Orbis/go/executor"
	"github.com/Fantom-foundation/Orbis/go/processor/floria"
	"github.com/Fantom-foundation/Orbis/go/rollup"
	"github.com/Fantom-foundation/Orbis/go/systemcall"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/holiman/uint256"
)

const (
	chainID      = 10
	aliceBalance = 10_000_000
)

var (
	alice     = rollup.Address{0xA1}
	bob       = rollup.Address{0xB0}
	carol     = rollup.Address{0xCA}
	depositor = rollup.Address{0xDE}
	coinbase  = rollup.Address{0xC0}
	vault     = floria.BaseFeeVaultAddress
)

func chain(activate func(*chainspec.Builder) *chainspec.Builder) *chainspec.Spec {
	return activate(chainspec.NewBuilder().ChainID(chainID)).Build()
}

var (
	bedrock  = chain((*chainspec.Builder).BedrockActivated)
	regolith = chain((*chainspec.Builder).RegolithActivated)
	canyon   = chain((*chainspec.Builder).CanyonActivated)
	ecotone  = chain((*chainspec.Builder).EcotoneActivated)
)

// header is a block header with a base fee of 10 and a gas limit of 30M.
func header(number, timestamp uint64) rollup.Header {
	return rollup.Header{
		Number:      number,
		Timestamp:   timestamp,
		GasLimit:    30_000_000,
		BaseFee:     uint256.NewInt(10),
		Beneficiary: coinbase,
	}
}

func block(txs ...rollup.TxWithSender) rollup.Block {
	return rollup.Block{Header: header(1, 10), Transactions: txs}
}

// payment creates a transaction with a fee cap of 20 and a tip of 5, which
// results in a gas price of 15 at a base fee of 10.
func payment(nonce uint64, to *rollup.Address, value uint64, gas uint64, data rollup.Data) rollup.TxWithSender {
	tx := rollup.NewTx(&rollup.DynamicFeeTx{
		ChainID:   uint256.NewInt(chainID),
		Nonce:     nonce,
		GasTipCap: uint256.NewInt(5),
		GasFeeCap: uint256.NewInt(20),
		Gas:       gas,
		To:        to,
		Value:     uint256.NewInt(value),
		Data:      data,
	})
	return rollup.TxWithSender{Tx: tx, Sender: alice}
}

func deposit(to rollup.Address, mint, value, gas uint64, system bool) rollup.TxWithSender {
	tx := rollup.NewTx(&rollup.DepositTx{
		SourceHash:          rollup.Hash{0x50, byte(mint)},
		From:                depositor,
		To:                  &to,
		Mint:                uint256.NewInt(mint),
		Value:               uint256.NewInt(value),
		Gas:                 gas,
		IsSystemTransaction: system,
	})
	return rollup.TxWithSender{Tx: tx, Sender: depositor}
}

func receipt(txType rollup.TxType, success bool, cumulativeGas uint64) *rollup.Receipt {
	return &rollup.Receipt{Type: txType, Success: success, CumulativeGasUsed: cumulativeGas}
}

func depositReceipt(success bool, cumulativeGas uint64, nonce *uint64, version *uint64) *rollup.Receipt {
	res := receipt(rollup.DepositTxType, success, cumulativeGas)
	res.DepositNonce = nonce
	res.DepositReceiptVersion = version
	return res
}

func ptr[T any](v T) *T {
	return &v
}

// fees returns the balances of the sender, the coinbase and the base fee
// vault after paying for the given gas at a price of 15.
func fees(gasUsed uint64, value uint64) (sender, tip, baseFee Account) {
	return NewAccount(aliceBalance - gasUsed*15 - value), NewAccount(gasUsed * 5), NewAccount(gasUsed * 10)
}

func withNonce(account Account, nonce uint64) Account {
	account.Nonce = nonce
	return account
}

func beaconRootKeys(timestamp uint64) (rollup.Key, rollup.Key) {
	index := timestamp % 8191
	return rollup.Key(uint256.NewInt(index).Bytes32()), rollup.Key(uint256.NewInt(index + 8191).Bytes32())
}

func getScenarios() map[string]Scenario {
	scenarios := map[string]Scenario{}

	sender, tip, baseFee := fees(21_000, 1000)
	scenarios["transfer pays tip and base fee"] = Scenario{
		Chain:  canyon,
		Before: WorldState{alice: NewAccount(aliceBalance)},
		After: WorldState{
			alice:    withNonce(sender, 1),
			bob:      NewAccount(1000),
			coinbase: tip,
			vault:    baseFee,
		},
		Block:    block(payment(0, &bob, 1000, 21_000, nil)),
		Receipts: rollup.Receipts{receipt(rollup.DynamicFeeTxType, true, 21_000)},
	}

	sender, tip, baseFee = fees(2*21_000, 2000)
	scenarios["transfers are executed in order"] = Scenario{
		Chain:  canyon,
		Before: WorldState{alice: NewAccount(aliceBalance)},
		After: WorldState{
			alice:    withNonce(sender, 2),
			bob:      NewAccount(1000),
			carol:    NewAccount(1000),
			coinbase: tip,
			vault:    baseFee,
		},
		Block: block(payment(0, &bob, 1000, 21_000, nil), payment(1, &carol, 1000, 21_000, nil)),
		Receipts: rollup.Receipts{
			receipt(rollup.DynamicFeeTxType, true, 21_000),
			receipt(rollup.DynamicFeeTxType, true, 42_000),
		},
	}

	created := rollup.Address(crypto.CreateAddress(common.Address(alice), 0))
	sender, tip, baseFee = fees(53_000, 50)
	scenarios["contract creation"] = Scenario{
		Chain:  canyon,
		Before: WorldState{alice: NewAccount(aliceBalance)},
		After: WorldState{
			alice:    withNonce(sender, 1),
			created:  withNonce(NewAccount(50), 1),
			coinbase: tip,
			vault:    baseFee,
		},
		Block:    block(payment(0, nil, 50, 100_000, nil)),
		Receipts: rollup.Receipts{receipt(rollup.DynamicFeeTxType, true, 53_000)},
	}

	identity := rollup.Address{19: 0x04}
	sender, tip, baseFee = fees(21_000+4*16+18, 0)
	scenarios["precompiled contract call"] = Scenario{
		Chain:  canyon,
		Before: WorldState{alice: NewAccount(aliceBalance)},
		After: WorldState{
			alice:    withNonce(sender, 1),
			coinbase: tip,
			vault:    baseFee,
		},
		Block:    block(payment(0, &identity, 0, 50_000, rollup.Data{1, 2, 3, 4})),
		Receipts: rollup.Receipts{receipt(rollup.DynamicFeeTxType, true, 21_082)},
	}

	contract := Account{Nonce: 1, Code: rollup.Code{0x60, 0x00}}
	sender, tip, baseFee = fees(30_000, 0)
	scenarios["failed execution consumes all gas"] = Scenario{
		Chain:  canyon,
		Before: WorldState{alice: NewAccount(aliceBalance), bob: contract},
		After: WorldState{
			alice:    withNonce(sender, 1),
			bob:      contract,
			coinbase: tip,
			vault:    baseFee,
		},
		Block:    block(payment(0, &bob, 1000, 30_000, nil)),
		Receipts: rollup.Receipts{receipt(rollup.DynamicFeeTxType, false, 30_000)},
	}

	for name, test := range map[string]struct {
		chain   *chainspec.Spec
		gas     uint64
		nonce   *uint64
		version *uint64
	}{
		"bedrock":  {bedrock, 50_000, nil, nil},
		"regolith": {regolith, 21_000, ptr[uint64](3), nil},
		"canyon":   {canyon, 21_000, ptr[uint64](3), ptr[uint64](1)},
	} {
		scenarios["deposit mints and transfers on "+name] = Scenario{
			Chain:  test.chain,
			Before: WorldState{depositor: Account{Nonce: 3}},
			After: WorldState{
				depositor: withNonce(NewAccount(300), 4),
				carol:     NewAccount(200),
			},
			Block:    block(deposit(carol, 500, 200, 50_000, false)),
			Receipts: rollup.Receipts{depositReceipt(true, test.gas, test.nonce, test.version)},
		}
	}

	scenarios["failed deposit keeps mint and nonce"] = Scenario{
		Chain:  regolith,
		Before: WorldState{depositor: Account{Nonce: 3}},
		After: WorldState{
			depositor: withNonce(NewAccount(100), 4),
		},
		Block:    block(deposit(carol, 100, 200, 50_000, false)),
		Receipts: rollup.Receipts{depositReceipt(false, 21_000, ptr[uint64](3), nil)},
	}

	systemBlock := block(deposit(carol, 0, 0, 1_000_000, true), payment(0, &bob, 1000, 21_000, nil))
	systemBlock.Header.GasLimit = 50_000
	sender, tip, baseFee = fees(21_000, 1000)
	scenarios["system deposit before regolith is free"] = Scenario{
		Chain:  bedrock,
		Before: WorldState{alice: NewAccount(aliceBalance), depositor: Account{Nonce: 3}},
		After: WorldState{
			alice:     withNonce(sender, 1),
			bob:       NewAccount(1000),
			depositor: Account{Nonce: 4},
			coinbase:  tip,
			vault:     baseFee,
		},
		Block: systemBlock,
		Receipts: rollup.Receipts{
			depositReceipt(true, 0, nil, nil),
			receipt(rollup.DynamicFeeTxType, true, 21_000),
		},
	}

	withdrawals := block()
	withdrawals.Withdrawals = []rollup.Withdrawal{
		{Index: 0, Validator: 1, Address: carol, Amount: 5},
		{Index: 1, Validator: 1, Address: bob, Amount: 0},
	}
	scenarios["withdrawals are paid in gwei"] = Scenario{
		Chain:  canyon,
		Before: WorldState{},
		After:  WorldState{carol: NewAccount(5_000_000_000)},
		Block:  withdrawals,
	}

	beaconRoots := Account{Nonce: 1, Code: rollup.Code{0x60, 0x00}}
	root := rollup.Hash{0xBE, 0xAC, 0x04}
	timestampKey, rootKey := beaconRootKeys(12)
	rootBlock := block()
	rootBlock.Header.Timestamp = 12
	rootBlock.Header.ParentBeaconRoot = &root
	scenarios["beacon root is stored"] = Scenario{
		Chain:  ecotone,
		Before: WorldState{rollup.BeaconRootsAddress: beaconRoots},
		After: WorldState{
			rollup.BeaconRootsAddress: Account{
				Nonce:   1,
				Code:    beaconRoots.Code,
				Storage: Storage{timestampKey: rollup.Word{31: 12}, rootKey: rollup.Word(root)},
			},
		},
		Block: rootBlock,
	}

	deployerCode := rollup.Code{0x60, 0x80, 0x60, 0x40}
	create2Chain := chainspec.FromSpec(regolith).
		WithFork(rollup.Shanghai, chainspec.AtTimestamp(100)).
		WithFork(rollup.Canyon, chainspec.AtTimestamp(100)).
		Create2DeployerCode(deployerCode).
		Build()
	create2Block := block()
	create2Block.Header.Timestamp = 100
	scenarios["create2 deployer is installed at canyon"] = Scenario{
		Chain:  create2Chain,
		Before: WorldState{blockexecutor.Create2DeployerAddress: NewAccount(1)},
		After:  WorldState{blockexecutor.Create2DeployerAddress: Account{Balance: *uint256.NewInt(1), Code: deployerCode}},
		Block:  create2Block,
	}

	blob := rollup.NewTx(&rollup.BlobTx{
		ChainID:    uint256.NewInt(chainID),
		GasTipCap:  uint256.NewInt(5),
		GasFeeCap:  uint256.NewInt(20),
		Gas:        21_000,
		To:         bob,
		Value:      uint256.NewInt(0),
		BlobFeeCap: uint256.NewInt(1),
		BlobHashes: []rollup.Hash{{0x01}},
	})
	scenarios["blob transactions are rejected"] = Scenario{
		Chain:  canyon,
		Before: WorldState{alice: NewAccount(aliceBalance)},
		Block:  block(rollup.TxWithSender{Tx: blob, Sender: alice}),
		Error:  blockexecutor.ErrBlobTransactionRejected,
	}

	tooMuchGas := block(payment(0, &bob, 0, 21_000, nil), payment(1, &bob, 0, 21_000, nil))
	tooMuchGas.Header.GasLimit = 30_000
	scenarios["block gas limit is enforced"] = Scenario{
		Chain:  canyon,
		Before: WorldState{alice: NewAccount(aliceBalance)},
		Block:  tooMuchGas,
		Error:  rollup.ErrBlockValidation,
	}

	scenarios["invalid nonce is rejected"] = Scenario{
		Chain:  canyon,
		Before: WorldState{alice: NewAccount(aliceBalance)},
		Block:  block(payment(1, &bob, 0, 21_000, nil)),
		Error:  floria.ErrNonceTooHigh,
	}

	scenarios["system deposits are rejected after regolith"] = Scenario{
		Chain:  regolith,
		Before: WorldState{depositor: Account{Nonce: 3}},
		Block:  block(deposit(carol, 0, 0, 100_000, true)),
		Error:  floria.ErrSystemTxPostRegolith,
	}

	scenarios["missing parent beacon root is rejected"] = Scenario{
		Chain:  ecotone,
		Before: WorldState{rollup.BeaconRootsAddress: beaconRoots},
		Block:  block(),
		Error:  systemcall.ErrMissingParentBeaconBlockRoot,
	}

	return scenarios
}

func TestExecutor_Scenarios(t *testing.T) {
	for vmName, vm := range getVMs(t) {
		for name, scenario := range getScenarios() {
			t.Run(vmName+"/"+name, func(t *testing.T) {
				scenario.Run(t, vm)
			})
		}
	}
}

func TestScenario_Clone(t *testing.T) {
	for name, scenario := range getScenarios() {
		t.Run(name, func(t *testing.T) {
			clone := scenario.Clone()
			if !scenario.Before.Equal(clone.Before) || !scenario.After.Equal(clone.After) {
				t.Fatalf("clone differs from original")
			}
			for address, account := range clone.Before {
				account.Nonce++
				clone.Before[address] = account
			}
			if len(clone.Before) > 0 && scenario.Before.Equal(clone.Before) {
				t.Errorf("modifying clone affects original")
			}
		})
	}
}

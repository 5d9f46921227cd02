// Copyright (c) 2024 Fantom Foundation
//
// Use of this software is governed by the Business Source License included
// in the LICENSE file and at fantom.foundation/bsl11.
//
// Change Date: 2028-4-16
//
// On the date above, in accordance with the Business Source License, use of
// this software will be governed by the GNU Lesser General Public License v3.

package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/Fantom-foundation/Orbis/go/rollup"
	"github.com/Fantom-foundation/Orbis/go/store"
	"github.com/holiman/uint256"
)

// Fixture is a sequence of blocks replayed on top of an initial state. The
// chain may be given as a preset name or the path of a chain spec file; if
// it is empty, the chain selected on the command line is used.
type Fixture struct {
	Chain  string             `json:"chain,omitempty"`
	Alloc  store.GenesisAlloc `json:"alloc"`
	Blocks []FixtureBlock     `json:"blocks"`
}

// FixtureBlock is a block with consensus encoded transactions. Senders are
// listed per transaction; for deposits the sender may be omitted.
type FixtureBlock struct {
	Header          rollup.Header       `json:"header"`
	Transactions    []rollup.Data       `json:"transactions,omitempty"`
	Senders         []rollup.Address    `json:"senders,omitempty"`
	Ommers          []rollup.Header     `json:"ommers,omitempty"`
	Withdrawals     []rollup.Withdrawal `json:"withdrawals,omitempty"`
	TotalDifficulty *uint256.Int        `json:"totalDifficulty,omitempty"`
}

func LoadFixture(path string) (*Fixture, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var res Fixture
	if err := json.Unmarshal(data, &res); err != nil {
		return nil, fmt.Errorf("failed to parse fixture %s: %w", path, err)
	}
	return &res, nil
}

func (f *Fixture) Save(path string) error {
	data, err := json.MarshalIndent(f, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0600)
}

// Block decodes the transactions of the fixture block.
func (b *FixtureBlock) Block() (*rollup.Block, error) {
	if len(b.Senders) > len(b.Transactions) {
		return nil, fmt.Errorf("block %d lists %d senders for %d transactions", b.Header.Number, len(b.Senders), len(b.Transactions))
	}
	txs := make([]rollup.TxWithSender, 0, len(b.Transactions))
	for i, data := range b.Transactions {
		tx := new(rollup.Transaction)
		if err := tx.UnmarshalBinary(data); err != nil {
			return nil, fmt.Errorf("invalid transaction %d of block %d: %w", i, b.Header.Number, err)
		}
		sender, err := b.sender(i, tx)
		if err != nil {
			return nil, err
		}
		txs = append(txs, rollup.TxWithSender{Tx: tx, Sender: sender})
	}
	return &rollup.Block{
		Header:       b.Header,
		Transactions: txs,
		Ommers:       b.Ommers,
		Withdrawals:  b.Withdrawals,
	}, nil
}

func (b *FixtureBlock) sender(i int, tx *rollup.Transaction) (rollup.Address, error) {
	deposit, isDeposit := tx.Inner().(*rollup.DepositTx)
	if i < len(b.Senders) {
		if isDeposit && deposit.From != b.Senders[i] {
			return rollup.Address{}, fmt.Errorf("sender of deposit %d of block %d does not match its origin", i, b.Header.Number)
		}
		return b.Senders[i], nil
	}
	if isDeposit {
		return deposit.From, nil
	}
	return rollup.Address{}, fmt.Errorf("missing sender of transaction %d of block %d", i, b.Header.Number)
}

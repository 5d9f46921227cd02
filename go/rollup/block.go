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

import "github.com/holiman/uint256"

// Header holds the block header fields consumed by block execution.
type Header struct {
	ParentHash       Hash
	Beneficiary      Address
	Number           uint64
	Timestamp        uint64
	GasLimit         uint64
	GasUsed          uint64
	BaseFee          *uint256.Int
	Difficulty       uint256.Int
	MixHash          Hash
	ReceiptsRoot     Hash
	LogsBloom        Bloom
	ParentBeaconRoot *Hash
	ExcessBlobGas    *uint64
}

// TxWithSender pairs a transaction with its recovered sender.
type TxWithSender struct {
	Tx     *Transaction
	Sender Address
}

// Withdrawal is an EIP-4895 withdrawal. Amounts are given in gwei.
type Withdrawal struct {
	Index     uint64
	Validator uint64
	Address   Address
	Amount    uint64
}

// Block is a header together with its ordered transactions. Blocks are
// never modified by the engine.
type Block struct {
	Header       Header
	Transactions []TxWithSender
	Ommers       []Header
	Withdrawals  []Withdrawal
}

// Number is a shortcut for the header's block number.
func (b *Block) Number() uint64 {
	return b.Header.Number
}

// Timestamp is a shortcut for the header's timestamp.
func (b *Block) Timestamp() uint64 {
	return b.Header.Timestamp
}

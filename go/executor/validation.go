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
	"github.com/Fantom-foundation/Orbis/go/rollup"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/trie"
)

// validateBlockPostExecution compares the receipts produced by executing a
// block with the commitments of its header. Receipts root and logs bloom
// are only checked from Byzantium on, since earlier receipts commit to
// intermediate state roots.
func validateBlockPostExecution(chainSpec rollup.ChainSpec, block *rollup.Block, receipts rollup.Receipts) error {
	features := rollup.ActiveFeatures(chainSpec, block.Number(), block.Timestamp())
	if features.Byzantium {
		if err := verifyReceipts(features, block.Header.ReceiptsRoot, block.Header.LogsBloom, receipts); err != nil {
			return err
		}
	}

	var gasUsed uint64
	if len(receipts) > 0 {
		gasUsed = receipts[len(receipts)-1].CumulativeGasUsed
	}
	if block.Header.GasUsed != gasUsed {
		return &GasUsedMismatchError{
			Got:        gasUsed,
			Expected:   block.Header.GasUsed,
			ReceiptGas: gasSpentByTransaction(receipts),
		}
	}
	return nil
}

func verifyReceipts(features rollup.Features, expectedRoot rollup.Hash, expectedBloom rollup.Bloom, receipts rollup.Receipts) error {
	if root := receiptsRoot(features, receipts); root != expectedRoot {
		return &ReceiptRootMismatchError{Got: root, Expected: expectedRoot}
	}
	if bloom := receipts.LogsBloom(); bloom != expectedBloom {
		return &BloomMismatchError{Got: bloom, Expected: expectedBloom}
	}
	return nil
}

// receiptsRoot computes the trie root of the receipts. Between Regolith
// and Canyon the deposit nonce was not part of the committed encoding.
func receiptsRoot(features rollup.Features, receipts rollup.Receipts) rollup.Hash {
	if features.Regolith && !features.Canyon {
		stripped := make(rollup.Receipts, len(receipts))
		for i, receipt := range receipts {
			copied := *receipt
			copied.DepositNonce = nil
			stripped[i] = &copied
		}
		receipts = stripped
	}
	return rollup.Hash(types.DeriveSha(receipts, trie.NewStackTrie(nil)))
}

func gasSpentByTransaction(receipts rollup.Receipts) []uint64 {
	res := make([]uint64, len(receipts))
	var previous uint64
	for i, receipt := range receipts {
		res[i] = receipt.CumulativeGasUsed - previous
		previous = receipt.CumulativeGasUsed
	}
	return res
}

// ReceiptsRoot computes the receipts root committed to by the header of a
// block with the given number and timestamp.
func ReceiptsRoot(chainSpec rollup.ChainSpec, number, timestamp uint64, receipts rollup.Receipts) rollup.Hash {
	return receiptsRoot(rollup.ActiveFeatures(chainSpec, number, timestamp), receipts)
}

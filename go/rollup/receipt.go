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
	"bytes"
	"fmt"

	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/rlp"
)

// Log is an event emitted during transaction execution.
type Log struct {
	Address Address
	Topics  []Hash
	Data    Data
}

// Bloom is the 2048-bit filter over log addresses and topics.
type Bloom types.Bloom

// Or merges the other filter into this one.
func (b *Bloom) Or(other Bloom) {
	for i := range b {
		b[i] |= other[i]
	}
}

func (b Bloom) String() string {
	return fmt.Sprintf("0x%x", b[:])
}

func (b Bloom) MarshalText() ([]byte, error) {
	return bytesToText(b[:])
}

func (b *Bloom) UnmarshalText(data []byte) error {
	return textToBytes(b[:], data)
}

// Receipt is the outcome of one transaction of a block.
type Receipt struct {
	Type              TxType
	Success           bool
	CumulativeGasUsed uint64
	Logs              []Log

	// DepositNonce is the sender nonce before a deposit was executed. It is
	// only recorded from Regolith on.
	DepositNonce *uint64

	// DepositReceiptVersion is set for deposits from Canyon on.
	DepositReceiptVersion *uint64
}

// Bloom computes the bloom filter of the receipt's logs.
func (r *Receipt) Bloom() Bloom {
	var bloom types.Bloom
	for _, log := range r.Logs {
		bloom.Add(log.Address[:])
		for _, topic := range log.Topics {
			bloom.Add(topic[:])
		}
	}
	return Bloom(bloom)
}

type receiptRLP struct {
	PostStateOrStatus []byte
	CumulativeGasUsed uint64
	Bloom             Bloom
	Logs              []Log
}

type depositReceiptRLP struct {
	PostStateOrStatus     []byte
	CumulativeGasUsed     uint64
	Bloom                 Bloom
	Logs                  []Log
	DepositNonce          *uint64 `rlp:"optional"`
	DepositReceiptVersion *uint64 `rlp:"optional"`
}

var (
	receiptStatusFailed     = []byte{}
	receiptStatusSuccessful = []byte{0x01}
)

// EncodeConsensus writes the consensus encoding of the receipt, the form
// committed to by the receipts root.
func (r *Receipt) EncodeConsensus(w *bytes.Buffer) error {
	status := receiptStatusFailed
	if r.Success {
		status = receiptStatusSuccessful
	}
	logs := r.Logs
	if logs == nil {
		logs = []Log{}
	}
	if r.Type != LegacyTxType {
		w.WriteByte(byte(r.Type))
	}
	if r.Type == DepositTxType {
		return rlp.Encode(w, &depositReceiptRLP{
			PostStateOrStatus:     status,
			CumulativeGasUsed:     r.CumulativeGasUsed,
			Bloom:                 r.Bloom(),
			Logs:                  logs,
			DepositNonce:          r.DepositNonce,
			DepositReceiptVersion: r.DepositReceiptVersion,
		})
	}
	return rlp.Encode(w, &receiptRLP{
		PostStateOrStatus: status,
		CumulativeGasUsed: r.CumulativeGasUsed,
		Bloom:             r.Bloom(),
		Logs:              logs,
	})
}

// Receipts is the ordered list of receipts of a block. It implements the
// list interface used for deriving the receipts root.
type Receipts []*Receipt

func (rs Receipts) Len() int {
	return len(rs)
}

func (rs Receipts) EncodeIndex(i int, w *bytes.Buffer) {
	if err := rs[i].EncodeConsensus(w); err != nil {
		panic(fmt.Sprintf("failed to encode receipt %d: %v", i, err))
	}
}

// LogsBloom combines the bloom filters of all receipts.
func (rs Receipts) LogsBloom() Bloom {
	var res Bloom
	for _, r := range rs {
		res.Or(r.Bloom())
	}
	return res
}

// Requests are protocol-level requests produced by block execution. The
// list is always empty on this network.
type Requests []Data

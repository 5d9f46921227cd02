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
	"sync/atomic"

	"github.com/ethereum/go-ethereum/rlp"
	"github.com/holiman/uint256"
)

// TxType is the EIP-2718 envelope type of a transaction.
type TxType uint8

const (
	LegacyTxType     TxType = 0x00
	AccessListTxType TxType = 0x01
	DynamicFeeTxType TxType = 0x02
	BlobTxType       TxType = 0x03
	DepositTxType    TxType = 0x7E
)

const (
	ErrEmptyTransaction   = ConstError("empty transaction encoding")
	ErrTxTypeNotSupported = ConstError("transaction type not supported")
)

func (t TxType) String() string {
	switch t {
	case LegacyTxType:
		return "legacy"
	case AccessListTxType:
		return "access-list"
	case DynamicFeeTxType:
		return "dynamic-fee"
	case BlobTxType:
		return "blob"
	case DepositTxType:
		return "deposit"
	default:
		return fmt.Sprintf("TxType(%d)", uint8(t))
	}
}

// AccessTuple is an element of an EIP-2930 access list.
type AccessTuple struct {
	Address     Address
	StorageKeys []Key
}

type AccessList []AccessTuple

// TxData is the closed set of transaction variants. Its methods are
// unexported so that only the variants of this package can implement it,
// and each variant has to answer every per-variant question explicitly.
type TxData interface {
	txType() TxType
	chainID() *uint256.Int
	nonce() uint64
	gas() uint64
	gasPrice() *uint256.Int
	gasTipCap() *uint256.Int
	gasFeeCap() *uint256.Int
	to() *Address
	value() *uint256.Int
	data() Data
	accessList() AccessList
	isSystemTx() bool
}

// LegacyTx is a pre-EIP-2718 transaction.
type LegacyTx struct {
	Nonce    uint64
	GasPrice *uint256.Int
	Gas      uint64
	To       *Address `rlp:"nil"`
	Value    *uint256.Int
	Data     Data
	V, R, S  *uint256.Int
}

// AccessListTx is an EIP-2930 transaction.
type AccessListTx struct {
	ChainID    *uint256.Int
	Nonce      uint64
	GasPrice   *uint256.Int
	Gas        uint64
	To         *Address `rlp:"nil"`
	Value      *uint256.Int
	Data       Data
	AccessList AccessList
	V, R, S    *uint256.Int
}

// DynamicFeeTx is an EIP-1559 transaction.
type DynamicFeeTx struct {
	ChainID    *uint256.Int
	Nonce      uint64
	GasTipCap  *uint256.Int
	GasFeeCap  *uint256.Int
	Gas        uint64
	To         *Address `rlp:"nil"`
	Value      *uint256.Int
	Data       Data
	AccessList AccessList
	V, R, S    *uint256.Int
}

// BlobTx is an EIP-4844 transaction. It is never valid on a rollup, but
// it has to be decodable to be rejected with a precise reason.
type BlobTx struct {
	ChainID    *uint256.Int
	Nonce      uint64
	GasTipCap  *uint256.Int
	GasFeeCap  *uint256.Int
	Gas        uint64
	To         Address
	Value      *uint256.Int
	Data       Data
	AccessList AccessList
	BlobFeeCap *uint256.Int
	BlobHashes []Hash
	V, R, S    *uint256.Int
}

// DepositTx is a transaction derived from the settlement layer. It carries
// no signature; the sender is given by the L1 deposit event.
type DepositTx struct {
	SourceHash          Hash
	From                Address
	To                  *Address `rlp:"nil"`
	Mint                *uint256.Int
	Value               *uint256.Int
	Gas                 uint64
	IsSystemTransaction bool
	Data                Data
}

func (tx *LegacyTx) txType() TxType     { return LegacyTxType }
func (tx *AccessListTx) txType() TxType { return AccessListTxType }
func (tx *DynamicFeeTx) txType() TxType { return DynamicFeeTxType }
func (tx *BlobTx) txType() TxType       { return BlobTxType }
func (tx *DepositTx) txType() TxType    { return DepositTxType }

func (tx *LegacyTx) chainID() *uint256.Int {
	// EIP-155: v = chainId * 2 + 35 + {0,1}
	if tx.V == nil || tx.V.LtUint64(35) {
		return nil
	}
	id := new(uint256.Int).SubUint64(tx.V, 35)
	return id.Rsh(id, 1)
}
func (tx *AccessListTx) chainID() *uint256.Int { return tx.ChainID }
func (tx *DynamicFeeTx) chainID() *uint256.Int { return tx.ChainID }
func (tx *BlobTx) chainID() *uint256.Int       { return tx.ChainID }
func (tx *DepositTx) chainID() *uint256.Int    { return nil }

func (tx *LegacyTx) nonce() uint64     { return tx.Nonce }
func (tx *AccessListTx) nonce() uint64 { return tx.Nonce }
func (tx *DynamicFeeTx) nonce() uint64 { return tx.Nonce }
func (tx *BlobTx) nonce() uint64       { return tx.Nonce }
func (tx *DepositTx) nonce() uint64    { return 0 }

func (tx *LegacyTx) gas() uint64     { return tx.Gas }
func (tx *AccessListTx) gas() uint64 { return tx.Gas }
func (tx *DynamicFeeTx) gas() uint64 { return tx.Gas }
func (tx *BlobTx) gas() uint64       { return tx.Gas }
func (tx *DepositTx) gas() uint64    { return tx.Gas }

func (tx *LegacyTx) gasPrice() *uint256.Int     { return tx.GasPrice }
func (tx *AccessListTx) gasPrice() *uint256.Int { return tx.GasPrice }
func (tx *DynamicFeeTx) gasPrice() *uint256.Int { return tx.GasFeeCap }
func (tx *BlobTx) gasPrice() *uint256.Int       { return tx.GasFeeCap }
func (tx *DepositTx) gasPrice() *uint256.Int    { return nil }

func (tx *LegacyTx) gasTipCap() *uint256.Int     { return tx.GasPrice }
func (tx *AccessListTx) gasTipCap() *uint256.Int { return tx.GasPrice }
func (tx *DynamicFeeTx) gasTipCap() *uint256.Int { return tx.GasTipCap }
func (tx *BlobTx) gasTipCap() *uint256.Int       { return tx.GasTipCap }
func (tx *DepositTx) gasTipCap() *uint256.Int    { return nil }

func (tx *LegacyTx) gasFeeCap() *uint256.Int     { return tx.GasPrice }
func (tx *AccessListTx) gasFeeCap() *uint256.Int { return tx.GasPrice }
func (tx *DynamicFeeTx) gasFeeCap() *uint256.Int { return tx.GasFeeCap }
func (tx *BlobTx) gasFeeCap() *uint256.Int       { return tx.GasFeeCap }
func (tx *DepositTx) gasFeeCap() *uint256.Int    { return nil }

func (tx *LegacyTx) to() *Address     { return tx.To }
func (tx *AccessListTx) to() *Address { return tx.To }
func (tx *DynamicFeeTx) to() *Address { return tx.To }
func (tx *BlobTx) to() *Address       { return &tx.To }
func (tx *DepositTx) to() *Address    { return tx.To }

func (tx *LegacyTx) value() *uint256.Int     { return tx.Value }
func (tx *AccessListTx) value() *uint256.Int { return tx.Value }
func (tx *DynamicFeeTx) value() *uint256.Int { return tx.Value }
func (tx *BlobTx) value() *uint256.Int       { return tx.Value }
func (tx *DepositTx) value() *uint256.Int    { return tx.Value }

func (tx *LegacyTx) data() Data     { return tx.Data }
func (tx *AccessListTx) data() Data { return tx.Data }
func (tx *DynamicFeeTx) data() Data { return tx.Data }
func (tx *BlobTx) data() Data       { return tx.Data }
func (tx *DepositTx) data() Data    { return tx.Data }

func (tx *LegacyTx) accessList() AccessList     { return nil }
func (tx *AccessListTx) accessList() AccessList { return tx.AccessList }
func (tx *DynamicFeeTx) accessList() AccessList { return tx.AccessList }
func (tx *BlobTx) accessList() AccessList       { return tx.AccessList }
func (tx *DepositTx) accessList() AccessList    { return nil }

func (tx *LegacyTx) isSystemTx() bool     { return false }
func (tx *AccessListTx) isSystemTx() bool { return false }
func (tx *DynamicFeeTx) isSystemTx() bool { return false }
func (tx *BlobTx) isSystemTx() bool       { return false }
func (tx *DepositTx) isSystemTx() bool    { return tx.IsSystemTransaction }

// Transaction is an immutable transaction of any supported variant.
type Transaction struct {
	inner TxData
	hash  atomic.Pointer[Hash]
}

// NewTx wraps the given variant into a transaction.
func NewTx(inner TxData) *Transaction {
	return &Transaction{inner: inner}
}

// Inner returns the variant wrapped by this transaction.
func (tx *Transaction) Inner() TxData { return tx.inner }

func (tx *Transaction) Type() TxType             { return tx.inner.txType() }
func (tx *Transaction) ChainID() *uint256.Int    { return tx.inner.chainID() }
func (tx *Transaction) Nonce() uint64            { return tx.inner.nonce() }
func (tx *Transaction) Gas() uint64              { return tx.inner.gas() }
func (tx *Transaction) GasPrice() *uint256.Int   { return orZero(tx.inner.gasPrice()) }
func (tx *Transaction) GasTipCap() *uint256.Int  { return orZero(tx.inner.gasTipCap()) }
func (tx *Transaction) GasFeeCap() *uint256.Int  { return orZero(tx.inner.gasFeeCap()) }
func (tx *Transaction) To() *Address             { return tx.inner.to() }
func (tx *Transaction) Value() *uint256.Int      { return orZero(tx.inner.value()) }
func (tx *Transaction) Data() Data               { return tx.inner.data() }
func (tx *Transaction) AccessList() AccessList   { return tx.inner.accessList() }
func (tx *Transaction) IsSystemTx() bool         { return tx.inner.isSystemTx() }
func (tx *Transaction) IsDeposit() bool          { return tx.Type() == DepositTxType }
func (tx *Transaction) IsBlob() bool             { return tx.Type() == BlobTxType }
func (tx *Transaction) IsContractCreation() bool { return tx.To() == nil }

// BlobHashes returns the versioned blob hashes of a blob transaction.
func (tx *Transaction) BlobHashes() []Hash {
	if blob, ok := tx.inner.(*BlobTx); ok {
		return blob.BlobHashes
	}
	return nil
}

// BlobGasFeeCap returns the maximum fee per blob gas, nil for non-blob
// transactions.
func (tx *Transaction) BlobGasFeeCap() *uint256.Int {
	if blob, ok := tx.inner.(*BlobTx); ok {
		return blob.BlobFeeCap
	}
	return nil
}

// SourceHash returns the L1 source hash of a deposit, nil otherwise.
func (tx *Transaction) SourceHash() *Hash {
	if deposit, ok := tx.inner.(*DepositTx); ok {
		return &deposit.SourceHash
	}
	return nil
}

// Mint returns the amount minted on L2 by a deposit, nil otherwise.
func (tx *Transaction) Mint() *uint256.Int {
	if deposit, ok := tx.inner.(*DepositTx); ok {
		return deposit.Mint
	}
	return nil
}

// Hash returns the keccak256 hash of the consensus encoding.
func (tx *Transaction) Hash() Hash {
	if hash := tx.hash.Load(); hash != nil {
		return *hash
	}
	enc, err := tx.MarshalBinary()
	if err != nil {
		panic(fmt.Sprintf("failed to encode transaction: %v", err))
	}
	hash := Keccak256Hash(enc)
	tx.hash.Store(&hash)
	return hash
}

// MarshalBinary produces the consensus encoding: an RLP list for legacy
// transactions and the type byte followed by the RLP payload otherwise.
func (tx *Transaction) MarshalBinary() ([]byte, error) {
	if tx.Type() == LegacyTxType {
		return rlp.EncodeToBytes(tx.inner)
	}
	var buf bytes.Buffer
	buf.WriteByte(byte(tx.Type()))
	if err := rlp.Encode(&buf, tx.inner); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (tx *Transaction) UnmarshalBinary(b []byte) error {
	if len(b) == 0 {
		return ErrEmptyTransaction
	}
	if b[0] > 0x7f {
		var inner LegacyTx
		if err := rlp.DecodeBytes(b, &inner); err != nil {
			return err
		}
		tx.inner = &inner
		tx.hash.Store(nil)
		return nil
	}
	var inner TxData
	switch TxType(b[0]) {
	case AccessListTxType:
		inner = new(AccessListTx)
	case DynamicFeeTxType:
		inner = new(DynamicFeeTx)
	case BlobTxType:
		inner = new(BlobTx)
	case DepositTxType:
		inner = new(DepositTx)
	default:
		return fmt.Errorf("%w: %v", ErrTxTypeNotSupported, TxType(b[0]))
	}
	if err := rlp.DecodeBytes(b[1:], inner); err != nil {
		return err
	}
	tx.inner = inner
	tx.hash.Store(nil)
	return nil
}

func (tx *Transaction) MarshalText() ([]byte, error) {
	enc, err := tx.MarshalBinary()
	if err != nil {
		return nil, err
	}
	return bytesToText(enc)
}

func (tx *Transaction) UnmarshalText(data []byte) error {
	enc, err := textToVarBytes(data)
	if err != nil {
		return err
	}
	return tx.UnmarshalBinary(enc)
}

func orZero(v *uint256.Int) *uint256.Int {
	if v == nil {
		return new(uint256.Int)
	}
	return v
}

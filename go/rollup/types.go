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
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"golang.org/x/crypto/sha3"
)

// Address is a 20-byte account address.
type Address [20]byte

// Hash is a 32-byte keccak256 digest.
type Hash [32]byte

// Key addresses a storage slot of an account.
type Key [32]byte

// Word is the content of a storage slot.
type Word [32]byte

// Code is the deployed bytecode of a contract.
type Code []byte

// Data is an opaque byte sequence like call data or log payloads.
type Data []byte

var (
	// EmptyCodeHash is the keccak256 hash of empty code.
	EmptyCodeHash = Keccak256Hash(nil)

	// SystemAddress is the caller of protocol-mandated system calls.
	SystemAddress = HexToAddress("0xfffffffffffffffffffffffffffffffffffffffe")

	// BeaconRootsAddress hosts the EIP-4788 beacon roots contract.
	BeaconRootsAddress = HexToAddress("0x000F3df6D732807Ef1319fB7B8bB8522d0Beac02")
)

// HexToAddress converts a 0x-prefixed hex string into an address. Invalid
// input results in a zero address.
func HexToAddress(s string) Address {
	return Address(common.HexToAddress(s))
}

// HexToHash converts a 0x-prefixed hex string into a hash.
func HexToHash(s string) Hash {
	return Hash(common.HexToHash(s))
}

// Keccak256Hash computes the keccak256 digest of the concatenated inputs.
func Keccak256Hash(data ...[]byte) Hash {
	hasher := sha3.NewLegacyKeccak256()
	for _, d := range data {
		hasher.Write(d)
	}
	var res Hash
	hasher.Sum(res[:0])
	return res
}

func (a Address) String() string {
	return fmt.Sprintf("0x%x", a[:])
}

func (a Address) MarshalText() ([]byte, error) {
	return bytesToText(a[:])
}

func (a *Address) UnmarshalText(data []byte) error {
	return textToBytes(a[:], data)
}

func (h Hash) String() string {
	return fmt.Sprintf("0x%x", h[:])
}

func (h Hash) IsZero() bool {
	return h == Hash{}
}

func (h Hash) MarshalText() ([]byte, error) {
	return bytesToText(h[:])
}

func (h *Hash) UnmarshalText(data []byte) error {
	return textToBytes(h[:], data)
}

func (k Key) String() string {
	return fmt.Sprintf("0x%x", k[:])
}

func (k Key) MarshalText() ([]byte, error) {
	return bytesToText(k[:])
}

func (k *Key) UnmarshalText(data []byte) error {
	return textToBytes(k[:], data)
}

func (w Word) String() string {
	return fmt.Sprintf("0x%x", w[:])
}

func (w Word) IsZero() bool {
	return w == Word{}
}

func (w Word) MarshalText() ([]byte, error) {
	return bytesToText(w[:])
}

func (w *Word) UnmarshalText(data []byte) error {
	return textToBytes(w[:], data)
}

// Hash returns the keccak256 hash of the code.
func (c Code) Hash() Hash {
	if len(c) == 0 {
		return EmptyCodeHash
	}
	return Keccak256Hash(c)
}

func (c Code) MarshalText() ([]byte, error) {
	return bytesToText(c)
}

func (c *Code) UnmarshalText(data []byte) error {
	res, err := textToVarBytes(data)
	if err != nil {
		return err
	}
	*c = res
	return nil
}

func (d Data) MarshalText() ([]byte, error) {
	return bytesToText(d)
}

func (d *Data) UnmarshalText(data []byte) error {
	res, err := textToVarBytes(data)
	if err != nil {
		return err
	}
	*d = res
	return nil
}

func bytesToText(data []byte) ([]byte, error) {
	return []byte(fmt.Sprintf("0x%x", data)), nil
}

func textToBytes(trg []byte, data []byte) error {
	s := string(data)
	if !strings.HasPrefix(s, "0x") {
		return fmt.Errorf("invalid format, does not start with 0x: %v", s)
	}
	data, err := hex.DecodeString(s[2:])
	if err != nil {
		return err
	}
	if want, got := len(trg), len(data); want != got {
		return fmt.Errorf("invalid format, wanted %d bytes, got %d", want, got)
	}
	copy(trg[:], data)
	return nil
}

func textToVarBytes(data []byte) ([]byte, error) {
	s := string(data)
	if !strings.HasPrefix(s, "0x") {
		return nil, fmt.Errorf("invalid format, does not start with 0x: %v", s)
	}
	return hex.DecodeString(s[2:])
}

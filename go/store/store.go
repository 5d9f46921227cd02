// Copyright (c) 2024 Fantom Foundation
//
// Use of this software is governed by the Business Source License included
// in the LICENSE file and at fantom.foundation/bsl11.
//
// Change Date: 2028-4-16
//
// On the date above, in accordance with the Business Source License, use of
// this software will be governed by the GNU Lesser General Public License v3.

// Package store provides the persistent world state consumed by block
// execution. A Store serves the reads of the State View and persists the
// bundles produced by executed blocks.
package store

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"sort"

	"github.com/Fantom-foundation/Orbis/go/rollup"
	"github.com/Fantom-foundation/Orbis/go/state"
	"github.com/ethereum/go-ethereum/log"
	"github.com/ethereum/go-ethereum/rlp"
	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/holiman/uint256"
	"golang.org/x/exp/maps"
)

const codeCacheSize = 1024

var (
	accountPrefix   = []byte("a")
	storagePrefix   = []byte("s")
	codePrefix      = []byte("c")
	blockHashPrefix = []byte("h")
)

func accountKey(address rollup.Address) []byte {
	return append(bytes.Clone(accountPrefix), address[:]...)
}

func storageAccountPrefix(address rollup.Address) []byte {
	return append(bytes.Clone(storagePrefix), address[:]...)
}

func storageKey(address rollup.Address, key rollup.Key) []byte {
	return append(storageAccountPrefix(address), key[:]...)
}

func codeKey(hash rollup.Hash) []byte {
	return append(bytes.Clone(codePrefix), hash[:]...)
}

func blockHashKey(number uint64) []byte {
	return binary.BigEndian.AppendUint64(bytes.Clone(blockHashPrefix), number)
}

// storedAccount is the persistent encoding of an account.
type storedAccount struct {
	Nonce    uint64
	Balance  *uint256.Int
	CodeHash rollup.Hash
}

// Store is a world state kept in a key/value backend. It implements
// rollup.Database. A Store may be read concurrently, while commits must
// not overlap with reads of the affected accounts.
type Store struct {
	kv    KeyValueStore
	codes *lru.Cache[rollup.Hash, rollup.Code]
}

var _ rollup.Database = (*Store)(nil)

// New creates a store on top of the given backend.
func New(kv KeyValueStore) (*Store, error) {
	codes, err := lru.New[rollup.Hash, rollup.Code](codeCacheSize)
	if err != nil {
		return nil, err
	}
	return &Store{kv: kv, codes: codes}, nil
}

// NewMemory creates an empty volatile store.
func NewMemory() *Store {
	res, err := New(NewMemoryKeyValueStore())
	if err != nil {
		panic(fmt.Sprintf("failed to create in-memory store: %v", err))
	}
	return res
}

// Open opens a persistent store in the given directory.
func Open(dir string) (*Store, error) {
	kv, err := OpenBadger(dir)
	if err != nil {
		return nil, err
	}
	res, err := New(kv)
	if err != nil {
		return nil, fmt.Errorf("failed to create store: %w", errors.Join(err, kv.Close()))
	}
	return res, nil
}

func (s *Store) Basic(address rollup.Address) (*rollup.AccountInfo, error) {
	data, found, err := s.kv.Get(accountKey(address))
	if err != nil || !found {
		return nil, err
	}
	var account storedAccount
	if err := rlp.DecodeBytes(data, &account); err != nil {
		return nil, fmt.Errorf("invalid account encoding of %v: %w", address, err)
	}
	return &rollup.AccountInfo{
		Balance:  *account.Balance,
		Nonce:    account.Nonce,
		CodeHash: account.CodeHash,
	}, nil
}

func (s *Store) Storage(address rollup.Address, key rollup.Key) (rollup.Word, error) {
	data, found, err := s.kv.Get(storageKey(address, key))
	if err != nil || !found {
		return rollup.Word{}, err
	}
	if len(data) > len(rollup.Word{}) {
		return rollup.Word{}, fmt.Errorf("invalid storage value of %v/%v: %x", address, key, data)
	}
	var res rollup.Word
	copy(res[len(res)-len(data):], data)
	return res, nil
}

func (s *Store) CodeByHash(hash rollup.Hash) (rollup.Code, error) {
	if hash == rollup.EmptyCodeHash || hash == (rollup.Hash{}) {
		return nil, nil
	}
	if code, found := s.codes.Get(hash); found {
		return code, nil
	}
	code, found, err := s.kv.Get(codeKey(hash))
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, fmt.Errorf("unknown code hash %v", hash)
	}
	s.codes.Add(hash, code)
	return code, nil
}

// BlockHash returns the recorded hash of the given block, the zero hash if
// the block is unknown.
func (s *Store) BlockHash(number uint64) (rollup.Hash, error) {
	data, found, err := s.kv.Get(blockHashKey(number))
	if err != nil || !found {
		return rollup.Hash{}, err
	}
	var res rollup.Hash
	copy(res[:], data)
	return res, nil
}

// SetBlockHash records the hash of a block.
func (s *Store) SetBlockHash(number uint64, hash rollup.Hash) error {
	return s.kv.Update(func(w Writer) error {
		return w.Put(blockHashKey(number), hash[:])
	})
}

// Commit persists the given bundle. Storage of destroyed accounts is
// wiped before their remaining slots are written.
func (s *Store) Commit(bundle *state.BundleState) error {
	slots := 0
	err := s.kv.Update(func(w Writer) error {
		hashes := maps.Keys(bundle.Contracts)
		sort.Slice(hashes, func(i, j int) bool { return bytes.Compare(hashes[i][:], hashes[j][:]) < 0 })
		for _, hash := range hashes {
			if err := w.Put(codeKey(hash), bundle.Contracts[hash]); err != nil {
				return err
			}
		}
		for _, address := range bundle.Addresses() {
			acc := bundle.State[address]
			if acc.WasDestroyed() {
				if err := w.DeletePrefix(storageAccountPrefix(address)); err != nil {
					return err
				}
			}
			if err := writeAccount(w, address, acc.Info); err != nil {
				return err
			}
			for key, slot := range acc.Storage {
				if err := writeSlot(w, address, key, slot.PresentValue); err != nil {
					return err
				}
			}
			slots += len(acc.Storage)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to commit bundle: %w", err)
	}
	for hash, code := range bundle.Contracts {
		s.codes.Add(hash, code)
	}
	log.Debug("Committed state bundle", "accounts", len(bundle.State), "slots", slots, "contracts", len(bundle.Contracts))
	return nil
}

func writeAccount(w Writer, address rollup.Address, info *rollup.AccountInfo) error {
	if info == nil {
		return w.Delete(accountKey(address))
	}
	data, err := rlp.EncodeToBytes(&storedAccount{
		Nonce:    info.Nonce,
		Balance:  &info.Balance,
		CodeHash: info.CodeHash,
	})
	if err != nil {
		return err
	}
	return w.Put(accountKey(address), data)
}

func writeSlot(w Writer, address rollup.Address, key rollup.Key, value rollup.Word) error {
	if value == (rollup.Word{}) {
		return w.Delete(storageKey(address, key))
	}
	return w.Put(storageKey(address, key), bytes.TrimLeft(value[:], "\x00"))
}

func (s *Store) Close() error {
	return s.kv.Close()
}

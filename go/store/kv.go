// Copyright (c) 2024 Fantom Foundation
//
// Use of this software is governed by the Business Source License included
// in the LICENSE file and at fantom.foundation/bsl11.
//
// Change Date: 2028-4-16
//
// On the date above, in accordance with the Business Source License, use of
// this software will be governed by the GNU Lesser General Public License v3.

package store

import (
	"github.com/ethereum/go-ethereum/ethdb"
	"github.com/ethereum/go-ethereum/ethdb/memorydb"
)

// KeyValueStore is the raw storage backend of a Store.
type KeyValueStore interface {
	// Get returns the value of the given key and whether it was found.
	Get(key []byte) ([]byte, bool, error)
	// Update applies all writes of the given function as one unit. If the
	// function fails, none of its writes are applied.
	Update(func(Writer) error) error
	Close() error
}

// Writer collects the modifications of an update.
type Writer interface {
	Put(key, value []byte) error
	Delete(key []byte) error
	// DeletePrefix removes all entries starting with the given prefix that
	// were present before the update started.
	DeletePrefix(prefix []byte) error
}

// ethdbStore adapts go-ethereum key/value databases.
type ethdbStore struct {
	db ethdb.KeyValueStore
}

// NewMemoryKeyValueStore creates a volatile backend.
func NewMemoryKeyValueStore() KeyValueStore {
	return FromEthdb(memorydb.New())
}

// FromEthdb wraps a go-ethereum key/value database, e.g. a LevelDB or
// Pebble instance.
func FromEthdb(db ethdb.KeyValueStore) KeyValueStore {
	return &ethdbStore{db: db}
}

func (s *ethdbStore) Get(key []byte) ([]byte, bool, error) {
	found, err := s.db.Has(key)
	if err != nil || !found {
		return nil, false, err
	}
	value, err := s.db.Get(key)
	if err != nil {
		return nil, false, err
	}
	return value, true, nil
}

func (s *ethdbStore) Update(update func(Writer) error) error {
	batch := s.db.NewBatch()
	if err := update(&ethdbWriter{db: s.db, batch: batch}); err != nil {
		return err
	}
	return batch.Write()
}

func (s *ethdbStore) Close() error {
	return s.db.Close()
}

type ethdbWriter struct {
	db    ethdb.KeyValueStore
	batch ethdb.Batch
}

func (w *ethdbWriter) Put(key, value []byte) error {
	return w.batch.Put(key, value)
}

func (w *ethdbWriter) Delete(key []byte) error {
	return w.batch.Delete(key)
}

func (w *ethdbWriter) DeletePrefix(prefix []byte) error {
	it := w.db.NewIterator(prefix, nil)
	defer it.Release()
	for it.Next() {
		if err := w.batch.Delete(it.Key()); err != nil {
			return err
		}
	}
	return it.Error()
}

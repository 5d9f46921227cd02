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
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/dgraph-io/badger/v2"
	"github.com/dgraph-io/badger/v2/options"
	"github.com/ethereum/go-ethereum/log"
)

const (
	badgerGcDiscardRatio   = 0.5 // collect value log files with at least 50% garbage
	badgerGcInterval       = 10 * time.Minute
	badgerGcCheckInterval  = time.Minute
	badgerGcSize           = 1 << 20 // 1 MB
	badgerValueLogFileSize = 1<<26 - 1
)

type badgerStore struct {
	db     *badger.DB
	name   string
	cancel context.CancelFunc
	done   chan struct{}
}

// OpenBadger opens or creates a badger database in the given directory.
// An empty directory creates an in-memory instance.
func OpenBadger(dir string) (KeyValueStore, error) {
	logger := log.New("db", "badger")
	opts := badger.DefaultOptions(dir)
	if dir == "" {
		opts = opts.WithInMemory(true)
	} else {
		if err := os.MkdirAll(dir, 0700); err != nil {
			return nil, fmt.Errorf("failed to create badger directory %q: %w", dir, err)
		}
		opts.ValueLogLoadingMode = options.FileIO
		opts.TableLoadingMode = options.FileIO
		opts.ValueThreshold = 1024
		opts.ValueLogFileSize = badgerValueLogFileSize
	}
	opts.Logger = badgerLogger{logger}

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open badger database in %q: %w", dir, err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	res := &badgerStore{
		db:     db,
		name:   dir,
		cancel: cancel,
		done:   make(chan struct{}),
	}
	if dir == "" {
		close(res.done)
	} else {
		go res.runGC(ctx, logger)
	}
	return res, nil
}

func (s *badgerStore) runGC(ctx context.Context, logger log.Logger) {
	defer close(s.done)
	ticker := time.NewTicker(badgerGcCheckInterval)
	defer ticker.Stop()

	lastGc := time.Now()
	_, lastVlogSize := s.db.Size()
	for {
		select {
		case <-ticker.C:
			lsmSize, vlogSize := s.db.Size()
			if time.Since(lastGc) <= badgerGcInterval && lastVlogSize+badgerGcSize <= vlogSize {
				continue
			}
			start := time.Now()
			logger.Debug("Starting value log GC", "name", s.name, "lsmSize", lsmSize, "vlogSize", vlogSize)
			err := s.db.RunValueLogGC(badgerGcDiscardRatio)
			switch {
			case errors.Is(err, badger.ErrNoRewrite):
				logger.Debug("Nothing to collect", "name", s.name)
				lastVlogSize = vlogSize
			case err != nil:
				logger.Error("Value log GC failed", "name", s.name, "err", err)
				lastVlogSize = vlogSize
			default:
				lsmSize, vlogSize = s.db.Size()
				logger.Debug("Finished value log GC", "name", s.name, "lsmSize", lsmSize, "vlogSize", vlogSize, "elapsed", time.Since(start))
				lastVlogSize = vlogSize
			}
			lastGc = time.Now()
		case <-ctx.Done():
			return
		}
	}
}

func (s *badgerStore) Get(key []byte) ([]byte, bool, error) {
	var value []byte
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(key)
		if err != nil {
			return err
		}
		value, err = item.ValueCopy(nil)
		return err
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return value, true, nil
}

func (s *badgerStore) Update(update func(Writer) error) error {
	w := &badgerWriter{db: s.db, txn: s.db.NewTransaction(true)}
	defer func() { w.txn.Discard() }()
	if err := update(w); err != nil {
		return err
	}
	return w.txn.Commit()
}

func (s *badgerStore) Close() error {
	s.cancel()
	<-s.done
	return s.db.Close()
}

// badgerWriter splits updates exceeding badger's transaction limits into
// several transactions.
type badgerWriter struct {
	db  *badger.DB
	txn *badger.Txn
}

func (w *badgerWriter) apply(op func(*badger.Txn) error) error {
	err := op(w.txn)
	if !errors.Is(err, badger.ErrTxnTooBig) {
		return err
	}
	if err := w.txn.Commit(); err != nil {
		return err
	}
	w.txn = w.db.NewTransaction(true)
	return op(w.txn)
}

func (w *badgerWriter) Put(key, value []byte) error {
	return w.apply(func(txn *badger.Txn) error {
		return txn.Set(key, value)
	})
}

func (w *badgerWriter) Delete(key []byte) error {
	return w.apply(func(txn *badger.Txn) error {
		return txn.Delete(key)
	})
}

func (w *badgerWriter) DeletePrefix(prefix []byte) error {
	var keys [][]byte
	err := w.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		opts.Prefix = prefix
		it := txn.NewIterator(opts)
		defer it.Close()
		for it.Rewind(); it.Valid(); it.Next() {
			keys = append(keys, it.Item().KeyCopy(nil))
		}
		return nil
	})
	if err != nil {
		return err
	}
	for _, key := range keys {
		if err := w.Delete(key); err != nil {
			return err
		}
	}
	return nil
}

// badgerLogger forwards badger's log output to the go-ethereum logger.
type badgerLogger struct {
	logger log.Logger
}

func format(msg string, args []interface{}) string {
	return strings.TrimSpace(fmt.Sprintf(msg, args...))
}

func (l badgerLogger) Errorf(msg string, args ...interface{}) {
	l.logger.Error(format(msg, args))
}

func (l badgerLogger) Warningf(msg string, args ...interface{}) {
	l.logger.Warn(format(msg, args))
}

func (l badgerLogger) Infof(msg string, args ...interface{}) {
	l.logger.Debug(format(msg, args))
}

func (l badgerLogger) Debugf(msg string, args ...interface{}) {
	l.logger.Trace(format(msg, args))
}

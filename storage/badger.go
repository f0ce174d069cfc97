// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package storage

import (
	"bytes"
	"errors"
	"os"
	"time"

	"github.com/dgraph-io/badger/v4"

	"github.com/bitmark-inc/logger"
	"github.com/bitmark-inc/termstore/fault"
	"github.com/bitmark-inc/termstore/metrics"
)

// value log garbage collection
const (
	gcInterval     = 5 * time.Minute
	gcDiscardRatio = 0.5
)

type badgerEngine struct {
	db  *badger.DB
	log *logger.L
}

// route badger's internal messages to the storage log channel
type badgerLogger struct {
	log *logger.L
}

func (l *badgerLogger) Errorf(format string, args ...interface{}) {
	l.log.Errorf(format, args...)
}

func (l *badgerLogger) Warningf(format string, args ...interface{}) {
	l.log.Warnf(format, args...)
}

func (l *badgerLogger) Infof(format string, args ...interface{}) {
	l.log.Infof(format, args...)
}

func (l *badgerLogger) Debugf(format string, args ...interface{}) {
	l.log.Debugf(format, args...)
}

func openBadger(name string, readOnly bool, log *logger.L) (*badgerEngine, error) {
	if readOnly {
		if _, err := os.Stat(name); nil != err {
			return nil, fault.Storage("open", err)
		}
	} else if err := os.MkdirAll(name, 0o700); nil != err {
		return nil, fault.Storage("open", err)
	}

	opts := badger.DefaultOptions(name).
		WithReadOnly(readOnly).
		WithSyncWrites(false).
		WithNumVersionsToKeep(1).
		WithLogger(&badgerLogger{log: log})

	db, err := badger.Open(opts)
	if nil != err {
		return nil, fault.Storage("open", err)
	}
	return &badgerEngine{
		db:  db,
		log: log,
	}, nil
}

func (e *badgerEngine) Get(key []byte) ([]byte, bool, error) {
	var value []byte
	err := e.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(key)
		if nil != err {
			return err
		}
		value, err = item.ValueCopy(nil)
		return err
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, false, nil
	}
	if nil != err {
		return nil, false, fault.Storage("get", err)
	}
	return value, true, nil
}

func (e *badgerEngine) Has(key []byte) (bool, error) {
	err := e.db.View(func(txn *badger.Txn) error {
		_, err := txn.Get(key)
		return err
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return false, nil
	}
	if nil != err {
		return false, fault.Storage("has", err)
	}
	return true, nil
}

func (e *badgerEngine) Put(key []byte, value []byte) error {
	err := e.db.Update(func(txn *badger.Txn) error {
		return txn.Set(key, value)
	})
	return fault.Storage("put", err)
}

// Update - optimistic read-merge-write, retried while another writer
// commits the same key first
func (e *badgerEngine) Update(key []byte, fn MergeFunc) ([]byte, error) {
	for {
		var result []byte
		var mergeErr error

		err := e.db.Update(func(txn *badger.Txn) error {
			var current []byte
			item, err := txn.Get(key)
			if nil == err {
				current, err = item.ValueCopy(nil)
				if nil != err {
					return err
				}
			} else if !errors.Is(err, badger.ErrKeyNotFound) {
				return err
			}

			next, err := fn(current)
			if nil != err {
				mergeErr = err
				result = current
				return err
			}
			result = next
			if nil != current && bytes.Equal(current, next) {
				return nil
			}
			return txn.Set(key, next)
		})

		if nil != mergeErr {
			return result, mergeErr
		}
		if errors.Is(err, badger.ErrConflict) {
			metrics.UpdateRetries.Inc()
			continue
		}
		if nil != err {
			return nil, fault.Storage("update", err)
		}
		return result, nil
	}
}

func (e *badgerEngine) NewIterator(start []byte, limit []byte) Iterator {
	txn := e.db.NewTransaction(false)
	return &badgerIterator{
		txn:   txn,
		iter:  txn.NewIterator(badger.DefaultIteratorOptions),
		start: start,
		limit: limit,
	}
}

func (e *badgerEngine) Last(start []byte, limit []byte) ([]byte, []byte, bool, error) {
	var key, value []byte
	found := false

	err := e.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Reverse = true
		iter := txn.NewIterator(opts)
		defer iter.Close()

		// reverse seek finds the largest key <= the target
		if nil == limit {
			iter.Rewind()
		} else {
			iter.Seek(limit)
		}
		for ; iter.Valid(); iter.Next() {
			item := iter.Item()
			k := item.KeyCopy(nil)
			if nil != limit && bytes.Compare(k, limit) >= 0 {
				continue
			}
			if bytes.Compare(k, start) < 0 {
				return nil
			}
			v, err := item.ValueCopy(nil)
			if nil != err {
				return err
			}
			key = k
			value = v
			found = true
			return nil
		}
		return nil
	})
	if nil != err {
		return nil, nil, false, fault.Storage("last", err)
	}
	return key, value, found, nil
}

func (e *badgerEngine) Sync() error {
	return fault.Storage("sync", e.db.Sync())
}

// Compact - flatten the LSM tree then rewrite value log files until
// nothing is left to reclaim
func (e *badgerEngine) Compact() error {
	err := e.db.Flatten(2)
	if nil != err {
		return fault.Storage("compact", err)
	}
	for {
		err := e.db.RunValueLogGC(gcDiscardRatio)
		if errors.Is(err, badger.ErrNoRewrite) {
			return nil
		}
		if nil != err {
			return fault.Storage("compact", err)
		}
	}
}

func (e *badgerEngine) Close() error {
	return fault.Storage("close", e.db.Close())
}

type badgerIterator struct {
	txn     *badger.Txn
	iter    *badger.Iterator
	start   []byte
	limit   []byte
	started bool
	seeking bool
	key     []byte
	value   []byte
	err     error
}

func (i *badgerIterator) Next() bool {
	switch {
	case i.seeking:
		i.seeking = false
	case !i.started:
		i.started = true
		if 0 == len(i.start) {
			i.iter.Rewind()
		} else {
			i.iter.Seek(i.start)
		}
	default:
		i.iter.Next()
	}
	return i.load()
}

func (i *badgerIterator) Seek(key []byte) {
	if bytes.Compare(key, i.start) < 0 {
		key = i.start
	}
	i.started = true
	i.seeking = true
	i.iter.Seek(key)
}

func (i *badgerIterator) load() bool {
	i.key = nil
	i.value = nil
	if nil != i.err || !i.iter.Valid() {
		return false
	}
	item := i.iter.Item()
	key := item.KeyCopy(nil)
	if nil != i.limit && bytes.Compare(key, i.limit) >= 0 {
		return false
	}
	value, err := item.ValueCopy(nil)
	if nil != err {
		i.err = err
		return false
	}
	i.key = key
	i.value = value
	return true
}

func (i *badgerIterator) Key() []byte {
	return i.key
}

func (i *badgerIterator) Value() []byte {
	return i.value
}

func (i *badgerIterator) Release() {
	i.iter.Close()
	i.txn.Discard()
}

func (i *badgerIterator) Error() error {
	return fault.Storage("iterate", i.err)
}

// background process reclaiming value log space
type valueLogGC struct {
	db       *badger.DB
	log      *logger.L
	interval time.Duration
}

func (g *valueLogGC) Run(args interface{}, shutdown <-chan struct{}) {
	ticker := time.NewTicker(g.interval)
	defer ticker.Stop()

loop:
	for {
		select {
		case <-shutdown:
			break loop
		case <-ticker.C:
			err := g.db.RunValueLogGC(gcDiscardRatio)
			if nil == err {
				g.log.Debug("value log GC completed")
			} else if !errors.Is(err, badger.ErrNoRewrite) {
				g.log.Warnf("value log GC error: %s", err)
			}
		}
	}
}

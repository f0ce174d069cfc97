// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package storage

import (
	"github.com/bitmark-inc/termstore/fault"
	"github.com/bitmark-inc/termstore/metrics"
)

// PoolHandle - a key range of the store selected by a prefix
type PoolHandle struct {
	prefix []byte
	limit  []byte
	db     *DB
	cache  *readCache
}

// Element - a binary data item
type Element struct {
	Key   []byte
	Value []byte
}

func newPoolHandle(db *DB, prefix []byte) *PoolHandle {
	return &PoolHandle{
		prefix: prefix,
		limit:  prefixLimit(prefix),
		db:     db,
	}
}

// the first key after all keys starting with prefix, nil if none
func prefixLimit(prefix []byte) []byte {
	limit := make([]byte, len(prefix))
	copy(limit, prefix)
	for i := len(limit) - 1; i >= 0; i -= 1 {
		if limit[i] < 0xff {
			limit[i] += 1
			return limit[:i+1]
		}
	}
	return nil
}

// prepend the prefix onto the key
func (p *PoolHandle) prefixKey(key []byte) []byte {
	prefixedKey := make([]byte, len(p.prefix), len(p.prefix)+len(key))
	copy(prefixedKey, p.prefix)
	return append(prefixedKey, key...)
}

// Partition - a sub range of this pool whose keys all start with sub
func (p *PoolHandle) Partition(sub []byte) *PoolHandle {
	partition := newPoolHandle(p.db, p.prefixKey(sub))
	partition.cache = p.cache
	return partition
}

// Get - read a value for a given key
//
// found is false if the key is absent, which is not an error
func (p *PoolHandle) Get(key []byte) ([]byte, bool, error) {
	p.db.RLock()
	defer p.db.RUnlock()
	if p.db.closed {
		return nil, false, fault.StoreClosed
	}

	fullKey := p.prefixKey(key)
	if nil != p.cache {
		if value, found := p.cache.get(fullKey); found {
			metrics.CacheLookups.WithLabelValues("hit").Inc()
			return value, true, nil
		}
		metrics.CacheLookups.WithLabelValues("miss").Inc()
	}

	value, found, err := p.db.engine.Get(fullKey)
	metrics.StorageOperations.WithLabelValues("get", metrics.Outcome(err)).Inc()
	if nil != err {
		return nil, false, err
	}
	if found && nil != p.cache {
		p.cache.set(fullKey, value)
	}
	return value, found, nil
}

// Has - check if a key exists
func (p *PoolHandle) Has(key []byte) (bool, error) {
	p.db.RLock()
	defer p.db.RUnlock()
	if p.db.closed {
		return false, fault.StoreClosed
	}

	fullKey := p.prefixKey(key)
	if nil != p.cache {
		if _, found := p.cache.get(fullKey); found {
			return true, nil
		}
	}
	found, err := p.db.engine.Has(fullKey)
	metrics.StorageOperations.WithLabelValues("has", metrics.Outcome(err)).Inc()
	return found, err
}

// Put - store a key/value bytes pair
func (p *PoolHandle) Put(key []byte, value []byte) error {
	p.db.RLock()
	defer p.db.RUnlock()
	if p.db.closed {
		return fault.StoreClosed
	}

	fullKey := p.prefixKey(key)
	err := p.db.engine.Put(fullKey, value)
	metrics.StorageOperations.WithLabelValues("put", metrics.Outcome(err)).Inc()
	if nil == err && nil != p.cache {
		p.cache.set(fullKey, value)
	}
	return err
}

// Update - atomically merge a new value into one key
//
// returns the value stored after the merge
func (p *PoolHandle) Update(key []byte, fn MergeFunc) ([]byte, error) {
	p.db.RLock()
	defer p.db.RUnlock()
	if p.db.closed {
		return nil, fault.StoreClosed
	}

	fullKey := p.prefixKey(key)
	value, err := p.db.engine.Update(fullKey, fn)
	metrics.StorageOperations.WithLabelValues("update", metrics.Outcome(err)).Inc()
	if nil == err && nil != p.cache && nil != value {
		p.cache.set(fullKey, value)
	}
	return value, err
}

// PutIfAbsent - store value unless the key already exists
//
// returns the value now stored and whether this call stored it; a
// lost race returns the winning value
func (p *PoolHandle) PutIfAbsent(key []byte, value []byte) ([]byte, bool, error) {
	if nil != p.cache {
		if existing, found, err := p.Get(key); nil != err {
			return nil, false, err
		} else if found {
			return existing, false, nil
		}
	}

	// an engine may run the merge more than once, only the last run counts
	stored := false
	result, err := p.Update(key, func(current []byte) ([]byte, error) {
		stored = nil == current
		if !stored {
			return current, nil
		}
		return value, nil
	})
	if nil != err {
		return nil, false, err
	}
	return result, stored, nil
}

// LastElement - get the last element in a pool
func (p *PoolHandle) LastElement() (Element, bool, error) {
	p.db.RLock()
	defer p.db.RUnlock()
	if p.db.closed {
		return Element{}, false, fault.StoreClosed
	}

	key, value, found, err := p.db.engine.Last(p.prefix, p.limit)
	if nil != err || !found {
		return Element{}, false, err
	}
	return Element{
		Key:   key[len(p.prefix):], // strip the prefix
		Value: value,
	}, true, nil
}

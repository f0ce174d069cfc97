// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package storage

import (
	"bytes"
	"hash/fnv"
	"sync"

	"github.com/syndtr/goleveldb/leveldb"
	"github.com/syndtr/goleveldb/leveldb/iterator"
	ldb_opt "github.com/syndtr/goleveldb/leveldb/opt"
	ldb_util "github.com/syndtr/goleveldb/leveldb/util"

	"github.com/bitmark-inc/termstore/fault"
)

// number of mutexes that per-key updates are spread over
const levelStripes = 256

// key written with a synchronous write to force an fsync
var syncKey = []byte{0x00, 'S', 'Y', 'N', 'C'}

type levelEngine struct {
	db      *leveldb.DB
	stripes [levelStripes]sync.Mutex
}

func openLevelDB(name string, readOnly bool) (*levelEngine, error) {
	opt := &ldb_opt.Options{
		ErrorIfExist:   false,
		ErrorIfMissing: readOnly,
		ReadOnly:       readOnly,
	}

	db, err := leveldb.OpenFile(name, opt)
	if nil != err {
		return nil, fault.Storage("open", err)
	}
	return &levelEngine{
		db: db,
	}, nil
}

func (e *levelEngine) stripe(key []byte) *sync.Mutex {
	h := fnv.New32a()
	h.Write(key)
	return &e.stripes[h.Sum32()%levelStripes]
}

func (e *levelEngine) Get(key []byte) ([]byte, bool, error) {
	value, err := e.db.Get(key, nil)
	if leveldb.ErrNotFound == err {
		return nil, false, nil
	}
	if nil != err {
		return nil, false, fault.Storage("get", err)
	}
	return value, true, nil
}

func (e *levelEngine) Has(key []byte) (bool, error) {
	found, err := e.db.Has(key, nil)
	if nil != err {
		return false, fault.Storage("has", err)
	}
	return found, nil
}

func (e *levelEngine) Put(key []byte, value []byte) error {
	m := e.stripe(key)
	m.Lock()
	defer m.Unlock()

	return fault.Storage("put", e.db.Put(key, value, nil))
}

// Update - read, merge and write one key under its stripe lock
func (e *levelEngine) Update(key []byte, fn MergeFunc) ([]byte, error) {
	m := e.stripe(key)
	m.Lock()
	defer m.Unlock()

	current, err := e.db.Get(key, nil)
	if leveldb.ErrNotFound == err {
		current = nil
	} else if nil != err {
		return nil, fault.Storage("update", err)
	}

	next, err := fn(current)
	if nil != err {
		return current, err
	}
	if nil != current && bytes.Equal(current, next) {
		return current, nil
	}

	err = e.db.Put(key, next, nil)
	if nil != err {
		return current, fault.Storage("update", err)
	}
	return next, nil
}

func (e *levelEngine) NewIterator(start []byte, limit []byte) Iterator {
	r := &ldb_util.Range{
		Start: start,
		Limit: limit,
	}
	return &levelIterator{
		iter: e.db.NewIterator(r, nil),
	}
}

func (e *levelEngine) Last(start []byte, limit []byte) ([]byte, []byte, bool, error) {
	r := &ldb_util.Range{
		Start: start,
		Limit: limit,
	}
	iter := e.db.NewIterator(r, nil)

	var key, value []byte
	found := false
	if iter.Last() {
		key = copyBytes(iter.Key())
		value = copyBytes(iter.Value())
		found = true
	}
	iter.Release()
	err := iter.Error()
	if nil != err {
		return nil, nil, false, fault.Storage("last", err)
	}
	return key, value, found, nil
}

// Sync - a synchronous write flushes the journal of all previous writes
func (e *levelEngine) Sync() error {
	err := e.db.Put(syncKey, []byte{1}, &ldb_opt.WriteOptions{Sync: true})
	return fault.Storage("sync", err)
}

func (e *levelEngine) Compact() error {
	return fault.Storage("compact", e.db.CompactRange(ldb_util.Range{}))
}

func (e *levelEngine) Close() error {
	return fault.Storage("close", e.db.Close())
}

type levelIterator struct {
	iter    iterator.Iterator
	seeking bool
	sought  bool
}

func (i *levelIterator) Next() bool {
	if i.seeking {
		i.seeking = false
		return i.sought
	}
	return i.iter.Next()
}

func (i *levelIterator) Seek(key []byte) {
	i.seeking = true
	i.sought = i.iter.Seek(key)
}

// contents of the returned slice must not be modified, and are
// only valid until the next call to Next, so copy them
func (i *levelIterator) Key() []byte {
	return copyBytes(i.iter.Key())
}

func (i *levelIterator) Value() []byte {
	return copyBytes(i.iter.Value())
}

func (i *levelIterator) Release() {
	i.iter.Release()
}

func (i *levelIterator) Error() error {
	return fault.Storage("iterate", i.iter.Error())
}

func copyBytes(b []byte) []byte {
	if nil == b {
		return nil
	}
	c := make([]byte, len(b))
	copy(c, b)
	return c
}

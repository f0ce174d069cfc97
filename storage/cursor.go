// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package storage

import (
	"context"

	"github.com/bitmark-inc/termstore/fault"
)

// FetchCursor - cursor structure
type FetchCursor struct {
	pool  *PoolHandle
	start []byte
}

// NewFetchCursor - initialise a cursor to the start of a key range
func (p *PoolHandle) NewFetchCursor() *FetchCursor {
	return &FetchCursor{
		pool:  p,
		start: p.prefix,
	}
}

// Seek - move cursor to specific key position
func (cursor *FetchCursor) Seek(key []byte) *FetchCursor {
	cursor.start = cursor.pool.prefixKey(key)
	return cursor
}

// Fetch - return some elements starting from the cursor position
//
// the cursor advances past the last element returned
func (cursor *FetchCursor) Fetch(count int) ([]Element, error) {
	if nil == cursor {
		return nil, fault.InvalidCursor
	}
	if count <= 0 {
		return nil, fault.InvalidCount
	}

	results := make([]Element, 0, count)
	err := cursor.walk(context.Background(), func(key []byte, value []byte) error {
		results = append(results, Element{
			Key:   key,
			Value: value,
		})
		if len(results) >= count {
			return errStopWalk
		}
		return nil
	})
	if nil != err {
		return nil, err
	}

	if n := len(results); n > 0 {
		// the immediate successor of the last key
		cursor.start = append(cursor.pool.prefixKey(results[n-1].Key), 0x00)
	}
	return results, nil
}

// Map - run a function on all elements in the range
func (cursor *FetchCursor) Map(f func(key []byte, value []byte) error) error {
	return cursor.MapContext(context.Background(), f)
}

// MapContext - run a function on all elements in the range, stopping
// if the context is done
func (cursor *FetchCursor) MapContext(ctx context.Context, f func(key []byte, value []byte) error) error {
	if nil == cursor {
		return fault.InvalidCursor
	}
	err := cursor.walk(ctx, f)
	if errStopWalk == err {
		return nil
	}
	return err
}

// sentinel to end a walk early without an error
var errStopWalk = fault.ProcessError("stop walk")

// elements read per lock hold during a walk
const walkBatch = 256

// read up to count elements from start while holding the store lock
func (p *PoolHandle) readBatch(start []byte, count int) ([]Element, error) {
	p.db.RLock()
	defer p.db.RUnlock()
	if p.db.closed {
		return nil, fault.StoreClosed
	}

	iter := p.db.engine.NewIterator(start, p.limit)
	elements := make([]Element, 0, count)
	for len(elements) < count && iter.Next() {
		elements = append(elements, Element{
			Key:   iter.Key(),
			Value: iter.Value(),
		})
	}
	iter.Release()
	return elements, iter.Error()
}

// callbacks run without the store lock held, so they may read or
// write through any pool
func (cursor *FetchCursor) walk(ctx context.Context, f func(key []byte, value []byte) error) error {
	p := cursor.pool
	start := cursor.start

	for {
		batch, err := p.readBatch(start, walkBatch)
		if nil != err {
			return err
		}
		for _, e := range batch {
			select {
			case <-ctx.Done():
				return fault.CancelledByContext
			default:
			}
			if err := f(e.Key[len(p.prefix):], e.Value); nil != err {
				if errStopWalk == err {
					return nil
				}
				return err
			}
		}
		if len(batch) < walkBatch {
			return nil
		}
		// the immediate successor of the last key
		start = append(batch[len(batch)-1].Key, 0x00)
	}
}

// Partitions - enumerate the distinct sub-prefixes of width bytes
//
// uses seek-skip so only one key per partition is read
func (p *PoolHandle) Partitions(ctx context.Context, width int, f func(sub []byte) error) error {
	if width <= 0 {
		return fault.InvalidCount
	}

	subs, err := p.partitionKeys(ctx, width)
	if nil != err {
		return err
	}
	for _, sub := range subs {
		if nil != ctx.Err() {
			return fault.CancelledByContext
		}
		if err := f(sub); nil != err {
			return err
		}
	}
	return nil
}

// the sub-prefixes are collected under the lock and handed out after
// it is released
func (p *PoolHandle) partitionKeys(ctx context.Context, width int) ([][]byte, error) {
	p.db.RLock()
	defer p.db.RUnlock()
	if p.db.closed {
		return nil, fault.StoreClosed
	}

	iter := p.db.engine.NewIterator(p.prefix, p.limit)

	subs := [][]byte{}
	var err error
scanning:
	for iter.Next() {
		select {
		case <-ctx.Done():
			err = fault.CancelledByContext
			break scanning
		default:
		}

		key := iter.Key()
		if len(key) < len(p.prefix)+width {
			continue scanning
		}
		sub := make([]byte, width)
		copy(sub, key[len(p.prefix):len(p.prefix)+width])
		subs = append(subs, sub)

		next := prefixLimit(key[:len(p.prefix)+width])
		if nil == next {
			break scanning
		}
		iter.Seek(next)
	}
	iter.Release()
	if nil == err {
		err = iter.Error()
	}
	return subs, err
}

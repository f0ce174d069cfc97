// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package counter

import (
	"sync/atomic"
)

// Counter - type to denote a counter that can be synchronously increments or decremented
// just a 64 bit unsigned integer
type Counter uint64

// Increment - add 1 to a counter, returns new value
func (ic *Counter) Increment() uint64 {
	return atomic.AddUint64((*uint64)(ic), 1)
}

// Decrement - subtract 1 from a counter, returns new value
func (ic *Counter) Decrement() uint64 {
	return atomic.AddUint64((*uint64)(ic), ^uint64(0))
}

// Uint64 - returns current value
func (ic *Counter) Uint64() uint64 {
	return atomic.LoadUint64((*uint64)(ic))
}

// IsZero - check if zero
func (ic *Counter) IsZero() bool {
	return atomic.LoadUint64((*uint64)(ic)) == 0
}

// Sequence - a 32 bit signed allocator
//
// the zero value hands out 1, 2, 3...; use NewSequence to start
// elsewhere, e.g. at math.MinInt32+1 for nids
type Sequence struct {
	next int64
}

// NewSequence - create a sequence whose first allocation is first
func NewSequence(first int32) *Sequence {
	return &Sequence{
		next: int64(first) - 1,
	}
}

// Next - allocate the next value
//
// ok is false once the 32 bit range is exhausted
func (s *Sequence) Next() (int32, bool) {
	n := atomic.AddInt64(&s.next, 1)
	if n > 1<<31-1 {
		return 0, false
	}
	return int32(n), true
}

// Peek - the value the next call to Next would return
func (s *Sequence) Peek() int64 {
	return atomic.LoadInt64(&s.next) + 1
}

// Advance - ensure that Next returns a value strictly greater than seen
//
// used when recovering the allocator from persisted data
func (s *Sequence) Advance(seen int32) {
	for {
		current := atomic.LoadInt64(&s.next)
		if current >= int64(seen) {
			return
		}
		if atomic.CompareAndSwapInt64(&s.next, current, int64(seen)) {
			return
		}
	}
}

// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package stamp

import (
	"hash/fnv"
	"sync"

	"github.com/bitmark-inc/logger"
	"github.com/bitmark-inc/termstore/counter"
	"github.com/bitmark-inc/termstore/fault"
	"github.com/bitmark-inc/termstore/identifier"
	"github.com/bitmark-inc/termstore/metrics"
	"github.com/bitmark-inc/termstore/storage"
)

const lockStripes = 64

// scalar key holding the allocation high-water mark
var highWaterKey = []byte("stamp.next")

// Source - read access to stamps, as needed by coordinate resolution
type Source interface {
	Get(seq Sequence) (Stamp, bool, error)
}

// Service - stamp sequence allocation and lookup
type Service struct {
	pools *storage.Pools
	next  *counter.Sequence
	locks [lockStripes]sync.Mutex
	log   *logger.L

	// committed and canceled stamps never change
	final sync.Map
}

// New - create the service and recover the allocator
func New(db *storage.DB) (*Service, error) {
	s := &Service{
		pools: &db.Pool,
		next:  counter.NewSequence(1),
		log:   logger.New("stamp"),
	}

	last, found, err := db.Pool.SequenceToStamp.LastElement()
	if nil != err {
		return nil, err
	}
	if found {
		seq, err := SequenceFromBytes(last.Key)
		if nil != err {
			return nil, err
		}
		s.next.Advance(int32(seq))
	}

	mark, found, err := db.Pool.Scalars.Get(highWaterKey)
	if nil != err {
		return nil, err
	}
	if found {
		seq, err := SequenceFromBytes(mark)
		if nil != err {
			return nil, err
		}
		s.next.Advance(int32(seq) - 1)
	}

	s.log.Infof("next stamp sequence: %d", s.next.Peek())
	db.RegisterFlusher(s)
	return s, nil
}

// Flush - persist the allocation high-water mark
func (s *Service) Flush() error {
	return s.pools.Scalars.Put(highWaterKey, Sequence(s.next.Peek()).Bytes())
}

func (s *Service) stripe(key []byte) *sync.Mutex {
	h := fnv.New32a()
	h.Write(key)
	return &s.locks[h.Sum32()%lockStripes]
}

func (s *Service) allocate(st Stamp) (Sequence, error) {
	n, ok := s.next.Next()
	if !ok {
		s.log.Critical("stamp sequence space exhausted")
		return NoSequence, fault.InvalidStampSequence
	}
	seq := Sequence(n)
	err := s.pools.SequenceToStamp.Put(seq.Bytes(), st.Pack())
	if nil != err {
		return NoSequence, err
	}
	return seq, nil
}

// GetStampSequence - content addressed sequence of a stamp tuple
//
// identical tuples always give the same sequence
func (s *Service) GetStampSequence(status Status, t int64, author identifier.Nid, module identifier.Nid, path identifier.Nid) (Sequence, error) {
	if Active != status && Inactive != status {
		return NoSequence, fault.UnknownStatus
	}
	if Canceled == t {
		return NoSequence, fault.InvalidStampSequence
	}

	st := Stamp{
		Status: status,
		Time:   t,
		Author: author,
		Module: module,
		Path:   path,
	}
	key := st.Pack()

	seq, found, err := s.lookup(key)
	if nil != err || found {
		return seq, err
	}

	m := s.stripe(key)
	m.Lock()
	defer m.Unlock()

	seq, found, err = s.lookup(key)
	if nil != err || found {
		return seq, err
	}

	seq, err = s.allocate(st)
	if nil != err {
		return NoSequence, err
	}

	stored, inserted, err := s.pools.StampToSequence.PutIfAbsent(key, seq.Bytes())
	if nil != err {
		return NoSequence, err
	}
	if !inserted {
		return SequenceFromBytes(stored)
	}
	metrics.StampsAllocated.WithLabelValues("content").Inc()
	return seq, nil
}

func (s *Service) lookup(key []byte) (Sequence, bool, error) {
	value, found, err := s.pools.StampToSequence.Get(key)
	if nil != err || !found {
		return NoSequence, false, err
	}
	seq, err := SequenceFromBytes(value)
	if nil != err {
		return NoSequence, false, err
	}
	return seq, true, nil
}

// PendingSequence - a fresh transaction private sequence with time
// Uncommitted
func (s *Service) PendingSequence(status Status, author identifier.Nid, module identifier.Nid, path identifier.Nid) (Sequence, error) {
	if Active != status && Inactive != status {
		return NoSequence, fault.UnknownStatus
	}
	seq, err := s.allocate(Stamp{
		Status: status,
		Time:   Uncommitted,
		Author: author,
		Module: module,
		Path:   path,
	})
	if nil != err {
		return NoSequence, err
	}
	metrics.StampsAllocated.WithLabelValues("pending").Inc()
	s.log.Debugf("pending sequence: %d", seq)
	return seq, nil
}

// Commit - give a pending sequence its commit time
//
// allowed exactly once; the committed tuple also becomes content
// addressable unless an identical tuple already has a sequence, in
// which case both sequences stand for the same stamp
func (s *Service) Commit(seq Sequence, instant int64, comment string) (Stamp, error) {
	if Uncommitted == instant || Canceled == instant {
		return Stamp{}, fault.UncommittedStampTime
	}

	st, err := s.finalise(seq, instant)
	if nil != err {
		return Stamp{}, err
	}

	_, _, err = s.pools.StampToSequence.PutIfAbsent(st.Pack(), seq.Bytes())
	if nil != err {
		return Stamp{}, err
	}

	if "" != comment {
		err = s.pools.StampComments.Put(seq.Bytes(), []byte(comment))
		if nil != err {
			return Stamp{}, err
		}
	}
	s.log.Debugf("committed sequence: %d  stamp: %s", seq, st)
	return st, nil
}

// Cancel - abandon a pending sequence, its versions are never visible
func (s *Service) Cancel(seq Sequence) error {
	_, err := s.finalise(seq, Canceled)
	if nil == err {
		s.log.Debugf("canceled sequence: %d", seq)
	}
	return err
}

// move a pending stamp to its final time
func (s *Service) finalise(seq Sequence, instant int64) (Stamp, error) {
	var result Stamp
	_, err := s.pools.SequenceToStamp.Update(seq.Bytes(), func(current []byte) ([]byte, error) {
		if nil == current {
			return nil, fault.StampNotFound
		}
		st, err := Unpack(current)
		if nil != err {
			return nil, err
		}
		if Uncommitted != st.Time {
			return nil, fault.NotPendingStamp
		}
		st.Time = instant
		result = st
		return st.Pack(), nil
	})
	if nil != err {
		return Stamp{}, err
	}
	s.final.Store(seq, result)
	return result, nil
}

// Get - the stamp of a sequence
func (s *Service) Get(seq Sequence) (Stamp, bool, error) {
	if st, ok := s.final.Load(seq); ok {
		return st.(Stamp), true, nil
	}

	value, found, err := s.pools.SequenceToStamp.Get(seq.Bytes())
	if nil != err || !found {
		return Stamp{}, false, err
	}
	st, err := Unpack(value)
	if nil != err {
		return Stamp{}, false, err
	}
	if Uncommitted != st.Time {
		s.final.Store(seq, st)
	}
	return st, true, nil
}

// Comment - the commit comment of a sequence, if any
func (s *Service) Comment(seq Sequence) (string, bool, error) {
	value, found, err := s.pools.StampComments.Get(seq.Bytes())
	if nil != err || !found {
		return "", false, err
	}
	return string(value), true, nil
}

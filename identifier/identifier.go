// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package identifier binds UUIDs to dense nids and nids to their
// assemblage
package identifier

import (
	"fmt"
	"hash/fnv"
	"math"
	"sync"

	"github.com/google/uuid"

	"github.com/bitmark-inc/logger"
	"github.com/bitmark-inc/termstore/counter"
	"github.com/bitmark-inc/termstore/fault"
	"github.com/bitmark-inc/termstore/metrics"
	"github.com/bitmark-inc/termstore/storage"
	"github.com/bitmark-inc/termstore/util"
)

// Nid - dense identifier of a component, bound once to a UUID
type Nid int32

// nid limits
const (
	NoNid Nid = math.MinInt32     // never allocated
	First Nid = math.MinInt32 + 1 // first nid handed out
)

// Bytes - sortable key form
func (n Nid) Bytes() []byte {
	return util.SortableInt32(int32(n))
}

// NidFromBytes - inverse of Bytes
func NidFromBytes(b []byte) (Nid, error) {
	if 4 != len(b) {
		return NoNid, fault.InvalidNid
	}
	return Nid(util.FromSortableInt32(b)), nil
}

func (n Nid) String() string {
	return fmt.Sprintf("%d", int32(n))
}

// FromName - deterministic UUID for a well known name
func FromName(namespace uuid.UUID, name string) uuid.UUID {
	return uuid.NewSHA1(namespace, []byte(name))
}

// number of mutexes allocation is spread over
const lockStripes = 64

// scalar key holding the allocation high-water mark
var highWaterKey = []byte("identifier.next")

// Service - UUID to nid bijection and nid to assemblage registry
type Service struct {
	pools *storage.Pools
	next  *counter.Sequence
	locks [lockStripes]sync.Mutex
	log   *logger.L
}

// New - create the service and recover the allocator
func New(db *storage.DB) (*Service, error) {
	s := &Service{
		pools: &db.Pool,
		next:  counter.NewSequence(int32(First)),
		log:   logger.New("identifier"),
	}

	last, found, err := db.Pool.NidToUUID.LastElement()
	if nil != err {
		return nil, err
	}
	if found {
		n, err := NidFromBytes(last.Key)
		if nil != err {
			return nil, err
		}
		s.next.Advance(int32(n))
	}

	mark, found, err := db.Pool.Scalars.Get(highWaterKey)
	if nil != err {
		return nil, err
	}
	if found {
		n, err := NidFromBytes(mark)
		if nil != err {
			return nil, err
		}
		s.next.Advance(int32(n) - 1)
	}

	s.log.Infof("next nid: %d", s.next.Peek())
	db.RegisterFlusher(s)
	return s, nil
}

// Flush - persist the allocation high-water mark
func (s *Service) Flush() error {
	next := s.next.Peek()
	if next > math.MaxInt32 {
		next = math.MaxInt32
	}
	return s.pools.Scalars.Put(highWaterKey, Nid(next).Bytes())
}

func (s *Service) stripe(id uuid.UUID) *sync.Mutex {
	h := fnv.New32a()
	h.Write(id[:])
	return &s.locks[h.Sum32()%lockStripes]
}

// AssignNid - existing nid of a UUID or allocate the next one
//
// concurrent callers for the same UUID all receive the one nid that
// was allocated
func (s *Service) AssignNid(id uuid.UUID) (Nid, error) {
	n, found, err := s.NidForUUID(id)
	if nil != err || found {
		return n, err
	}

	m := s.stripe(id)
	m.Lock()
	defer m.Unlock()

	n, found, err = s.NidForUUID(id)
	if nil != err || found {
		return n, err
	}

	next, ok := s.next.Next()
	if !ok {
		s.log.Critical("nid space exhausted")
		return NoNid, fault.InvalidNid
	}
	n = Nid(next)

	// reverse mapping first so recovery never reuses a published nid
	err = s.pools.NidToUUID.Put(n.Bytes(), id[:])
	if nil != err {
		return NoNid, err
	}

	stored, inserted, err := s.pools.UUIDToNid.PutIfAbsent(id[:], n.Bytes())
	if nil != err {
		return NoNid, err
	}
	if !inserted {
		return NidFromBytes(stored)
	}

	metrics.NidsAllocated.Inc()
	s.log.Debugf("assigned nid: %d  uuid: %s", n, id)
	return n, nil
}

// NidForUUID - lookup only, found is false if never assigned
func (s *Service) NidForUUID(id uuid.UUID) (Nid, bool, error) {
	value, found, err := s.pools.UUIDToNid.Get(id[:])
	if nil != err || !found {
		return NoNid, false, err
	}
	n, err := NidFromBytes(value)
	if nil != err {
		return NoNid, false, err
	}
	return n, true, nil
}

// UUIDForNid - the UUID a nid was assigned for
func (s *Service) UUIDForNid(n Nid) (uuid.UUID, bool, error) {
	value, found, err := s.pools.NidToUUID.Get(n.Bytes())
	if nil != err || !found {
		return uuid.Nil, false, err
	}
	id, err := uuid.FromBytes(value)
	if nil != err {
		return uuid.Nil, false, fault.InvalidNid
	}
	return id, true, nil
}

// SetAssemblageForNid - bind a nid to its assemblage
//
// the first write wins; repeating the same value succeeds, a
// different value fails with a consistency error
func (s *Service) SetAssemblageForNid(n Nid, assemblage Nid) error {
	stored, inserted, err := s.pools.NidToAssemblage.PutIfAbsent(n.Bytes(), assemblage.Bytes())
	if nil != err || inserted {
		return err
	}

	existing, err := NidFromBytes(stored)
	if nil != err {
		return err
	}
	if existing != assemblage {
		s.log.Errorf("nid: %d  assemblage: %d  rejected rebind to: %d", n, existing, assemblage)
		return fault.AssemblageConflict
	}
	return nil
}

// AssemblageForNid - the assemblage a nid belongs to
func (s *Service) AssemblageForNid(n Nid) (Nid, bool, error) {
	value, found, err := s.pools.NidToAssemblage.Get(n.Bytes())
	if nil != err || !found {
		return NoNid, false, err
	}
	a, err := NidFromBytes(value)
	if nil != err {
		return NoNid, false, err
	}
	return a, true, nil
}

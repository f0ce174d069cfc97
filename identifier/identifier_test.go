// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package identifier_test

import (
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bitmark-inc/termstore/fault"
	"github.com/bitmark-inc/termstore/identifier"
	"github.com/bitmark-inc/termstore/storage"
)

func TestNidBytesOrder(t *testing.T) {
	a := identifier.First
	b := identifier.Nid(0)

	assert.Less(t, string(a.Bytes()), string(b.Bytes()), "key order follows nid order")

	n, err := identifier.NidFromBytes(b.Bytes())
	assert.NoError(t, err)
	assert.Equal(t, b, n)

	_, err = identifier.NidFromBytes([]byte{1})
	assert.Equal(t, fault.InvalidNid, err)
}

func TestAssignNid(t *testing.T) {
	for _, kind := range []storage.EngineKind{storage.LevelDB, storage.Badger} {
		db := openStore(t, kind, t.TempDir())
		s, err := identifier.New(db)
		require.NoError(t, err)

		first := uuid.New()
		second := uuid.New()

		n1, err := s.AssignNid(first)
		require.NoError(t, err)
		assert.Equal(t, identifier.First, n1, "%s: first allocation", kind)

		n2, err := s.AssignNid(second)
		require.NoError(t, err)
		assert.Equal(t, identifier.First+1, n2, "%s: second allocation", kind)

		again, err := s.AssignNid(first)
		require.NoError(t, err)
		assert.Equal(t, n1, again, "%s: existing mapping", kind)

		id, found, err := s.UUIDForNid(n2)
		assert.NoError(t, err)
		assert.True(t, found)
		assert.Equal(t, second, id)

		_, found, err = s.NidForUUID(uuid.New())
		assert.NoError(t, err)
		assert.False(t, found, "lookup must not allocate")

		require.NoError(t, db.Shutdown(false))
	}
}

func TestAssignNidConcurrent(t *testing.T) {
	for _, kind := range []storage.EngineKind{storage.LevelDB, storage.Badger} {
		db := openStore(t, kind, t.TempDir())
		s, err := identifier.New(db)
		require.NoError(t, err)

		id := uuid.New()

		const callers = 32
		results := make([]identifier.Nid, callers)
		wg := sync.WaitGroup{}
		for i := 0; i < callers; i += 1 {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				n, err := s.AssignNid(id)
				assert.NoError(t, err)
				results[i] = n
			}(i)
		}
		wg.Wait()

		for i := 1; i < callers; i += 1 {
			assert.Equal(t, results[0], results[i], "%s: caller %d disagrees", kind, i)
		}

		// exactly one slot was used
		next, err := s.AssignNid(uuid.New())
		require.NoError(t, err)
		assert.Equal(t, results[0]+1, next, "%s: more than one allocation", kind)

		require.NoError(t, db.Shutdown(false))
	}
}

func TestAllocatorRecovers(t *testing.T) {
	directory := t.TempDir()

	db := openStore(t, storage.LevelDB, directory)
	s, err := identifier.New(db)
	require.NoError(t, err)

	var last identifier.Nid
	for i := 0; i < 5; i += 1 {
		last, err = s.AssignNid(uuid.New())
		require.NoError(t, err)
	}
	require.NoError(t, db.Shutdown(false))

	db = openStore(t, storage.LevelDB, directory)
	defer db.Shutdown(false)
	s, err = identifier.New(db)
	require.NoError(t, err)

	n, err := s.AssignNid(uuid.New())
	require.NoError(t, err)
	assert.Equal(t, last+1, n, "nids are never reused")
}

func TestAssemblageImmutable(t *testing.T) {
	db := openStore(t, storage.LevelDB, t.TempDir())
	defer db.Shutdown(false)
	s, err := identifier.New(db)
	require.NoError(t, err)

	nid := identifier.Nid(10)
	a := identifier.Nid(-5)
	b := identifier.Nid(-6)

	_, found, err := s.AssemblageForNid(nid)
	assert.NoError(t, err)
	assert.False(t, found)

	assert.NoError(t, s.SetAssemblageForNid(nid, a))

	err = s.SetAssemblageForNid(nid, b)
	assert.Equal(t, fault.AssemblageConflict, err)
	assert.True(t, fault.IsErrConsistency(err))

	assert.NoError(t, s.SetAssemblageForNid(nid, a), "same value is a no-op")

	assemblage, found, err := s.AssemblageForNid(nid)
	assert.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, a, assemblage)
}

func TestFromName(t *testing.T) {
	ns := uuid.MustParse("6ba7b810-9dad-11d1-80b4-00c04fd430c8")
	assert.Equal(t, identifier.FromName(ns, "concept"), identifier.FromName(ns, "concept"))
	assert.NotEqual(t, identifier.FromName(ns, "concept"), identifier.FromName(ns, "path"))
	assert.Equal(t, uuid.Version(5), identifier.FromName(ns, "concept").Version())
}

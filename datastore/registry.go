// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package datastore

import (
	"bytes"

	"github.com/bitmark-inc/termstore/chronicle"
	"github.com/bitmark-inc/termstore/fault"
	"github.com/bitmark-inc/termstore/identifier"
	"github.com/bitmark-inc/termstore/storage"
)

// write once registry entry, a lost race with the same value succeeds
func putOnce(pool *storage.PoolHandle, key []byte, value []byte, conflict error) error {
	stored, _, err := pool.PutIfAbsent(key, value)
	if nil != err {
		return err
	}
	if !bytes.Equal(stored, value) {
		return conflict
	}
	return nil
}

// SetObjectType - the item kind of an assemblage, fixed once set
func (s *Store) SetObjectType(assemblage identifier.Nid, t chronicle.ObjectType) error {
	return putOnce(s.db.Pool.ObjectTypes, assemblage.Bytes(), []byte{byte(t)}, fault.ObjectTypeConflict)
}

// ObjectType - the item kind of an assemblage
func (s *Store) ObjectType(assemblage identifier.Nid) (chronicle.ObjectType, bool, error) {
	data, found, err := s.db.Pool.ObjectTypes.Get(assemblage.Bytes())
	if nil != err || !found {
		return 0, false, err
	}
	if 1 != len(data) {
		return 0, false, fault.RecordTruncated
	}
	return chronicle.ObjectType(data[0]), true, nil
}

// SetVersionType - the payload kind of an assemblage, fixed once set
func (s *Store) SetVersionType(assemblage identifier.Nid, kind chronicle.Kind) error {
	return putOnce(s.db.Pool.VersionTypes, assemblage.Bytes(), []byte{byte(kind)}, fault.VersionTypeConflict)
}

// VersionType - the payload kind of an assemblage
func (s *Store) VersionType(assemblage identifier.Nid) (chronicle.Kind, bool, error) {
	data, found, err := s.db.Pool.VersionTypes.Get(assemblage.Bytes())
	if nil != err || !found {
		return 0, false, err
	}
	if 1 != len(data) {
		return 0, false, fault.RecordTruncated
	}
	kind := chronicle.Kind(data[0])
	if !kind.IsValid() {
		return 0, false, fault.UnknownPayloadKind
	}
	return kind, true, nil
}

// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package datastore

import (
	"github.com/bitmark-inc/termstore/coordinate"
	"github.com/bitmark-inc/termstore/fault"
	"github.com/bitmark-inc/termstore/identifier"
	"github.com/bitmark-inc/termstore/storage"
	"github.com/bitmark-inc/termstore/util"
)

// scalar value tags
const (
	longScalar   byte = 'l'
	stringScalar byte = 's'
	bytesScalar  byte = 'b'
)

// user scalars live under their own sub prefix so they never meet the
// allocator high-water marks
func (s *Store) scalars() *storage.PoolHandle {
	return s.db.Pool.Scalars.Partition([]byte{'$'})
}

func (s *Store) putScalar(key string, tag byte, value []byte) error {
	return s.scalars().Put([]byte(key), append([]byte{tag}, value...))
}

func (s *Store) getScalar(key string, tag byte) ([]byte, bool, error) {
	data, found, err := s.scalars().Get([]byte(key))
	if nil != err || !found {
		return nil, false, err
	}
	if 0 == len(data) || tag != data[0] {
		return nil, false, fault.ScalarTypeMismatch
	}
	return data[1:], true, nil
}

// PutLong - store an integer scalar
func (s *Store) PutLong(key string, value int64) error {
	return s.putScalar(key, longScalar, util.AppendInt64(nil, value))
}

// GetLong - read an integer scalar
func (s *Store) GetLong(key string) (int64, bool, error) {
	data, found, err := s.getScalar(key, longScalar)
	if nil != err || !found {
		return 0, false, err
	}
	r := util.NewReader(data)
	value := r.Int64()
	return value, nil == r.Err(), r.Err()
}

// PutString - store a text scalar
func (s *Store) PutString(key string, value string) error {
	return s.putScalar(key, stringScalar, []byte(value))
}

// GetString - read a text scalar
func (s *Store) GetString(key string) (string, bool, error) {
	data, found, err := s.getScalar(key, stringScalar)
	return string(data), found, err
}

// PutBytes - store a binary scalar
func (s *Store) PutBytes(key string, value []byte) error {
	return s.putScalar(key, bytesScalar, value)
}

// GetBytes - read a binary scalar
func (s *Store) GetBytes(key string) ([]byte, bool, error) {
	return s.getScalar(key, bytesScalar)
}

// SetPathOrigins - where a path branched from its parents
func (s *Store) SetPathOrigins(path identifier.Nid, origins []coordinate.Position) error {
	buffer := util.AppendVarint64(nil, uint64(len(origins)))
	for _, o := range origins {
		buffer = util.AppendInt64(buffer, o.Time)
		buffer = util.AppendInt32(buffer, int32(o.Path))
	}
	return s.db.Pool.PathOrigins.Put(path.Bytes(), buffer)
}

// PathOrigins - origins of a path, empty for a root path
func (s *Store) PathOrigins(path identifier.Nid) ([]coordinate.Position, error) {
	data, found, err := s.db.Pool.PathOrigins.Get(path.Bytes())
	if nil != err || !found {
		return nil, err
	}
	r := util.NewReader(data)
	n := r.Varint64()
	origins := []coordinate.Position{}
	for i := uint64(0); i < n && nil == r.Err(); i += 1 {
		t := r.Int64()
		p := r.Int32()
		origins = append(origins, coordinate.Position{Time: t, Path: identifier.Nid(p)})
	}
	if nil != r.Err() {
		return nil, r.Err()
	}
	return origins, nil
}

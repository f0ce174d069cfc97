// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package datastore

import (
	"context"

	"github.com/bitmark-inc/termstore/chronicle"
	"github.com/bitmark-inc/termstore/fault"
	"github.com/bitmark-inc/termstore/identifier"
	"github.com/bitmark-inc/termstore/util"
)

// ForEachNidOfAssemblage - every nid stored in an assemblage partition
// in ascending order
func (s *Store) ForEachNidOfAssemblage(ctx context.Context, assemblage identifier.Nid, f func(nid identifier.Nid) error) error {
	partition := s.db.Pool.Chronicles.Partition(assemblage.Bytes())
	return partition.NewFetchCursor().MapContext(ctx, func(key []byte, value []byte) error {
		nid, err := identifier.NidFromBytes(key)
		if nil != err {
			return err
		}
		return f(nid)
	})
}

// ForEachChronicleOfAssemblage - every chronicle of an assemblage, decoded
func (s *Store) ForEachChronicleOfAssemblage(ctx context.Context, assemblage identifier.Nid, f func(c *chronicle.Chronicle) error) error {
	partition := s.db.Pool.Chronicles.Partition(assemblage.Bytes())
	return partition.NewFetchCursor().MapContext(ctx, func(key []byte, value []byte) error {
		c, err := chronicle.Unpack(value)
		if nil != err {
			return err
		}
		return f(c)
	})
}

// ForEachSemanticOfComponent - the semantics referencing a component,
// ascending by nid
func (s *Store) ForEachSemanticOfComponent(ctx context.Context, component identifier.Nid, f func(c *chronicle.Chronicle) error) error {
	nids, err := s.SemanticNidsForComponent(component)
	if nil != err {
		return err
	}
	for _, nid := range nids {
		if nil != ctx.Err() {
			return fault.CancelledByContext
		}
		c, found, err := s.GetChronicle(nid)
		if nil != err {
			return err
		}
		if !found {
			continue
		}
		if err := f(c); nil != err {
			return err
		}
	}
	return nil
}

// ForEachReverseIndexEntry - the whole component to semantics index
func (s *Store) ForEachReverseIndexEntry(ctx context.Context, f func(component identifier.Nid, semantics []identifier.Nid) error) error {
	return s.db.Pool.ReverseIndex.NewFetchCursor().MapContext(ctx, func(key []byte, value []byte) error {
		component, err := identifier.NidFromBytes(key)
		if nil != err {
			return err
		}
		return f(component, toNids(util.BytesToInt32s(value)))
	})
}

// Assemblages - the assemblages holding chronicles, found from the
// partition key convention alone
func (s *Store) Assemblages(ctx context.Context) ([]identifier.Nid, error) {
	result := []identifier.Nid{}
	err := s.db.Pool.Chronicles.Partitions(ctx, 4, func(sub []byte) error {
		assemblage, err := identifier.NidFromBytes(sub)
		if nil != err {
			return err
		}
		result = append(result, assemblage)
		return nil
	})
	if nil != err {
		return nil, err
	}
	return result, nil
}

// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package datastore

import (
	"github.com/bitmark-inc/termstore/identifier"
	"github.com/bitmark-inc/termstore/taxonomy"
)

// TaxonomyMerge - combines stored and delta taxonomy bytes
type TaxonomyMerge func(current []byte, delta []byte) ([]byte, error)

// AccumulateAndGetTaxonomyData - merge a delta into a concept's record
//
// current is nil for a new key; merge is normally taxonomy.Merge whose
// union does not depend on arrival order
func (s *Store) AccumulateAndGetTaxonomyData(assemblage identifier.Nid, concept identifier.Nid, delta []byte, merge TaxonomyMerge) ([]byte, error) {
	return s.db.Pool.Taxonomy.Update(chronicleKey(assemblage, concept), func(current []byte) ([]byte, error) {
		return merge(current, delta)
	})
}

// AddTaxonomyEdges - accumulate edges with taxonomy.Merge
func (s *Store) AddTaxonomyEdges(assemblage identifier.Nid, concept identifier.Nid, edges ...taxonomy.Edge) error {
	_, err := s.AccumulateAndGetTaxonomyData(assemblage, concept, taxonomy.NewRecord(edges...).Pack(), taxonomy.Merge)
	return err
}

// TaxonomyRecord - the record of one concept
func (s *Store) TaxonomyRecord(assemblage identifier.Nid, concept identifier.Nid) (taxonomy.Record, bool, error) {
	data, found, err := s.db.Pool.Taxonomy.Get(chronicleKey(assemblage, concept))
	if nil != err || !found {
		return taxonomy.Record{}, false, err
	}
	r, err := taxonomy.Unpack(data)
	if nil != err {
		return taxonomy.Record{}, false, err
	}
	return r, true, nil
}

// TaxonomySnapshot - a taxonomy view under a resolver
func (s *Store) TaxonomySnapshot(assemblage identifier.Nid, resolver taxonomy.Resolver) *taxonomy.Snapshot {
	return taxonomy.NewSnapshot(s, assemblage, resolver)
}

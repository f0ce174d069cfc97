// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package datastore

import (
	"github.com/bitmark-inc/termstore/chronicle"
	"github.com/bitmark-inc/termstore/identifier"
	"github.com/bitmark-inc/termstore/stamp"
	"github.com/bitmark-inc/termstore/taxonomy"
)

// TrackStatedTaxonomy - keep a taxonomy assemblage in step with the
// definitions committed to a logic assemblage
//
// every committed definition gets STATED edges to the concepts directly
// under its sets; parents of earlier versions that are gone get edges
// under an INACTIVE sequence
func (s *Store) TrackStatedTaxonomy(logicAssemblage identifier.Nid, taxonomyAssemblage identifier.Nid) {
	s.stated.Lock()
	defer s.stated.Unlock()
	s.stated.taxonomies[logicAssemblage] = taxonomyAssemblage
}

func (s *Store) statedTaxonomyOf(logicAssemblage identifier.Nid) (identifier.Nid, bool) {
	s.stated.RLock()
	defer s.stated.RUnlock()
	assemblage, ok := s.stated.taxonomies[logicAssemblage]
	return assemblage, ok
}

// stated edges of the definitions written by this transaction, called
// with the transaction locked and before its stamp is committed
func (t *Transaction) writeStatedEdges() error {
	for _, c := range t.written {
		if chronicle.LogicGraphKind != c.Kind() {
			continue
		}
		assemblage, ok := t.store.statedTaxonomyOf(c.Envelope().Assemblage)
		if !ok {
			continue
		}

		var current []identifier.Nid
		written := false
		retired := false
		prior := map[identifier.Nid]struct{}{}
		for _, v := range c.Versions() {
			p, ok := v.Payload().(chronicle.LogicGraphPayload)
			if !ok {
				continue
			}
			switch v.Sequence() {
			case t.sequence:
				current = p.Expression.DirectConcepts()
				written = true
			case t.retraction:
				retired = true
				fallthrough
			default:
				for _, parent := range p.Expression.DirectConcepts() {
					prior[parent] = struct{}{}
				}
			}
		}
		if !written && !retired {
			continue
		}

		concept := c.Envelope().Referenced
		for _, parent := range current {
			delete(prior, parent)
			if err := addStatedEdges(t.store, assemblage, concept, parent, t.sequence); nil != err {
				return err
			}
		}
		for parent := range prior {
			retraction, err := t.retractionLocked()
			if nil != err {
				return err
			}
			if err := addStatedEdges(t.store, assemblage, concept, parent, retraction); nil != err {
				return err
			}
		}
	}
	return nil
}

func addStatedEdges(s *Store, assemblage identifier.Nid, child identifier.Nid, parent identifier.Nid, seq stamp.Sequence) error {
	err := s.AddTaxonomyEdges(assemblage, child, taxonomy.Edge{
		Destination: parent,
		Sequence:    seq,
		Flags:       taxonomy.Stated | taxonomy.Parent,
	})
	if nil != err {
		return err
	}
	return s.AddTaxonomyEdges(assemblage, parent, taxonomy.Edge{
		Destination: child,
		Sequence:    seq,
		Flags:       taxonomy.Stated | taxonomy.Child,
	})
}

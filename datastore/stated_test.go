// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package datastore_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bitmark-inc/termstore/chronicle"
	"github.com/bitmark-inc/termstore/coordinate"
	"github.com/bitmark-inc/termstore/datastore"
	"github.com/bitmark-inc/termstore/identifier"
	"github.com/bitmark-inc/termstore/logic"
	"github.com/bitmark-inc/termstore/stamp"
)

func isA(t *testing.T, concept identifier.Nid, parents ...identifier.Nid) chronicle.LogicGraphPayload {
	b := logic.NewBuilder(concept)
	refs := make([]logic.Ref, len(parents))
	for i, p := range parents {
		refs[i] = b.Concept(p)
	}
	b.NecessarySet(b.And(refs...))
	e, err := b.Build()
	require.NoError(t, err)
	return chronicle.LogicGraphPayload{Expression: e}
}

func TestStatedTaxonomy(t *testing.T) {
	forEachEngine(t, func(t *testing.T, s *datastore.Store) {
		logicAssemblage := newNid(t, s)
		taxonomyAssemblage := newNid(t, s)
		untracked := newNid(t, s)
		author := newNid(t, s)
		module := newNid(t, s)
		path := newNid(t, s)
		concept := newNid(t, s)
		first := newNid(t, s)
		second := newNid(t, s)

		s.TrackStatedTaxonomy(logicAssemblage, taxonomyAssemblage)

		edit := func(status stamp.Status, instant int64, f func(tx *datastore.Transaction)) {
			tx, err := s.OpenTransaction(status, author, module, path)
			require.NoError(t, err)
			f(tx)
			_, err = tx.Commit("edit", instant)
			require.NoError(t, err)
		}
		parentsAt := func(at int64, assemblage identifier.Nid) []identifier.Nid {
			sc := coordinate.NewStampCoordinate(coordinate.PathPrecedence, coordinate.Position{Time: at, Path: path}, nil, nil)
			calc, err := coordinate.NewCalculator(sc, s.Stamps(), s)
			require.NoError(t, err)
			parents, err := s.TaxonomySnapshot(assemblage, calc).Parents(concept)
			require.NoError(t, err)
			return parents
		}
		childrenOf := func(parent identifier.Nid) []identifier.Nid {
			sc := coordinate.NewStampCoordinate(coordinate.PathPrecedence, coordinate.Position{Time: coordinate.Latest, Path: path}, nil, nil)
			calc, err := coordinate.NewCalculator(sc, s.Stamps(), s)
			require.NoError(t, err)
			children, err := s.TaxonomySnapshot(taxonomyAssemblage, calc).Children(parent)
			require.NoError(t, err)
			return children
		}

		definition := newComponent(t, s, chronicle.LogicGraphKind, concept, logicAssemblage)
		other := newComponent(t, s, chronicle.LogicGraphKind, concept, untracked)
		edit(stamp.Active, 100, func(tx *datastore.Transaction) {
			_, err := tx.AddVersion(definition, isA(t, concept, first))
			require.NoError(t, err)
			_, err = tx.AddVersion(other, isA(t, concept, second))
			require.NoError(t, err)
		})
		assert.Equal(t, []identifier.Nid{first}, parentsAt(coordinate.Latest, taxonomyAssemblage))
		assert.Equal(t, []identifier.Nid{concept}, childrenOf(first))
		assert.Empty(t, parentsAt(coordinate.Latest, untracked), "only tracked assemblages get edges")

		edit(stamp.Active, 200, func(tx *datastore.Transaction) {
			_, err := tx.AddVersion(definition, isA(t, concept, second))
			require.NoError(t, err)
		})
		assert.Equal(t, []identifier.Nid{second}, parentsAt(coordinate.Latest, taxonomyAssemblage))
		assert.Equal(t, []identifier.Nid{first}, parentsAt(150, taxonomyAssemblage), "history is kept")
		assert.Empty(t, childrenOf(first), "removed parent is retracted")
		assert.Equal(t, []identifier.Nid{concept}, childrenOf(second))

		edit(stamp.Active, 300, func(tx *datastore.Transaction) {
			_, err := tx.RetireVersion(definition, isA(t, concept, second))
			require.NoError(t, err)
		})
		assert.Empty(t, parentsAt(coordinate.Latest, taxonomyAssemblage), "retired definition")
		assert.Equal(t, []identifier.Nid{second}, parentsAt(250, taxonomyAssemblage))

		edit(stamp.Active, 400, func(tx *datastore.Transaction) {
			_, err := tx.AddVersion(definition, isA(t, concept, first))
			require.NoError(t, err)
		})
		assert.Equal(t, []identifier.Nid{first}, parentsAt(coordinate.Latest, taxonomyAssemblage))

		edit(stamp.Inactive, 500, func(tx *datastore.Transaction) {
			_, err := tx.AddVersion(definition, isA(t, concept, first))
			require.NoError(t, err)
		})
		assert.Empty(t, parentsAt(coordinate.Latest, taxonomyAssemblage), "inactive definition")
	})
}

func TestRetireVersion(t *testing.T) {
	forEachEngine(t, func(t *testing.T, s *datastore.Store) {
		path := newNid(t, s)
		c := newComponent(t, s, chronicle.StringKind, newNid(t, s), newNid(t, s))

		tx, err := s.OpenTransaction(stamp.Active, newNid(t, s), newNid(t, s), path)
		require.NoError(t, err)
		_, err = tx.AddVersion(c, chronicle.StringPayload{Text: "V1"})
		require.NoError(t, err)
		_, err = tx.Commit("", 100)
		require.NoError(t, err)

		tx, err = s.OpenTransaction(stamp.Active, newNid(t, s), newNid(t, s), path)
		require.NoError(t, err)
		v, err := tx.RetireVersion(c, chronicle.StringPayload{Text: "V1"})
		require.NoError(t, err)
		retraction, err := tx.Retraction()
		require.NoError(t, err)
		assert.Equal(t, retraction, v.Sequence())
		_, err = tx.Commit("", 200)
		require.NoError(t, err)

		stored, found, err := s.GetChronicle(c.Nid())
		require.NoError(t, err)
		require.True(t, found)
		sc := coordinate.NewStampCoordinate(coordinate.PathPrecedence, coordinate.Position{Time: coordinate.Latest, Path: path}, nil, []stamp.Status{stamp.Active})
		_, found, err = coordinate.LatestVersion(stored, sc, s.Stamps(), s)
		require.NoError(t, err)
		assert.False(t, found, "retired under an active only coordinate")

		sc = sc.WithTime(150)
		v, found, err = coordinate.LatestVersion(stored, sc, s.Stamps(), s)
		require.NoError(t, err)
		require.True(t, found)
		assert.Equal(t, chronicle.StringPayload{Text: "V1"}, v.Payload())
	})
}

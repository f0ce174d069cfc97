// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package logic_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bitmark-inc/termstore/fault"
	"github.com/bitmark-inc/termstore/identifier"
	"github.com/bitmark-inc/termstore/logic"
)

const (
	concept  = identifier.Nid(-2000)
	parent   = identifier.Nid(-2001)
	role     = identifier.Nid(-2002)
	value    = identifier.Nid(-2003)
	universe = identifier.Nid(-2004)
)

func sample(t *testing.T) *logic.Expression {
	b := logic.NewBuilder(concept)
	b.NecessarySet(b.And(b.Concept(parent), b.Some(role, b.Concept(value))))
	e, err := b.Build()
	require.NoError(t, err)
	return e
}

func TestBuild(t *testing.T) {
	e := sample(t)

	assert.Equal(t, concept, e.Concept())
	assert.Equal(t, 6, e.NodeCount(), "root, set, and, concept, role, value")
	assert.Equal(t, logic.DefinitionRoot, e.Node(e.Root()).Semantic)
	assert.Equal(t, []identifier.Nid{value, role, parent}, e.ReferencedConcepts())
}

func TestBuildOnce(t *testing.T) {
	b := logic.NewBuilder(concept)
	b.NecessarySet(b.And(b.Concept(parent)))

	_, err := b.Build()
	require.NoError(t, err)

	_, err = b.Build()
	assert.Equal(t, fault.ExpressionAlreadyBuilt, err)
	assert.True(t, fault.IsErrConsistency(err))
}

func TestBuildInvalid(t *testing.T) {
	b := logic.NewBuilder(concept)
	_, err := b.Build()
	assert.Equal(t, fault.ExpressionEmpty, err, "no sets")

	b = logic.NewBuilder(concept)
	b.NecessarySet(b.Concept(parent))
	_, err = b.Build()
	assert.Equal(t, fault.ExpressionMalformed, err, "set must hold an AND")

	b = logic.NewBuilder(concept)
	b.Concept(universe)
	b.NecessarySet(b.And(b.Concept(parent)))
	_, err = b.Build()
	assert.Equal(t, fault.ExpressionMalformed, err, "orphan node")

	b = logic.NewBuilder(concept)
	c := b.Concept(parent)
	b.NecessarySet(b.And(c))
	b.SufficientSet(b.And(c))
	_, err = b.Build()
	assert.Equal(t, fault.ExpressionMalformed, err, "shared node")
}

func TestPackRoundTrip(t *testing.T) {
	e := sample(t)

	actual, err := logic.Unpack(e.Pack())
	require.NoError(t, err)
	assert.True(t, e.Equal(actual))
	assert.Equal(t, e.String(), actual.String())
}

func TestUnpackErrors(t *testing.T) {
	packed := sample(t).Pack()

	_, err := logic.Unpack(packed[:len(packed)-1])
	assert.Equal(t, fault.RecordTruncated, err)

	_, err = logic.Unpack(append(append([]byte{}, packed...), 0))
	assert.Equal(t, fault.ExpressionMalformed, err, "trailing bytes")

	bad := append([]byte{}, packed...)
	bad[0] = 99
	_, err = logic.Unpack(bad)
	assert.Equal(t, fault.UnknownFormatVersion, err)

	// first node semantic follows version, concept and count bytes
	bad = append([]byte{}, packed...)
	bad[6] = 77
	_, err = logic.Unpack(bad)
	assert.Equal(t, fault.UnknownNodeSemantic, err)
}

func TestEqual(t *testing.T) {
	a := sample(t)
	b := sample(t)
	assert.True(t, a.Equal(b))

	builder := logic.NewBuilder(concept)
	builder.NecessarySet(builder.And(builder.Concept(universe), builder.Some(role, builder.Concept(value))))
	c, err := builder.Build()
	require.NoError(t, err)
	assert.False(t, a.Equal(c), "same size, different content")
	assert.Equal(t, a.NodeCount(), c.NodeCount())
}

func TestDirectConcepts(t *testing.T) {
	assert.Equal(t, []identifier.Nid{parent}, sample(t).DirectConcepts(), "value is under a role")

	b := logic.NewBuilder(concept)
	b.NecessarySet(b.And(b.Concept(parent)))
	b.SufficientSet(b.And(b.Concept(universe), b.Some(role, b.Concept(value))))
	e, err := b.Build()
	require.NoError(t, err)
	assert.Equal(t, []identifier.Nid{parent, universe}, e.DirectConcepts())

	var none *logic.Expression
	assert.Nil(t, none.DirectConcepts())
}

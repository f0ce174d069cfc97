// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package classifier_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bitmark-inc/logger"
	"github.com/bitmark-inc/termstore/classifier"
	"github.com/bitmark-inc/termstore/identifier"
	"github.com/bitmark-inc/termstore/logic"
)

const (
	concept   identifier.Nid = 100
	parent    identifier.Nid = 101
	value     identifier.Nid = 102
	whole     identifier.Nid = 103
	other     identifier.Nid = 104
	roleGroup identifier.Nid = 200
	finding   identifier.Nid = 201
	partOf    identifier.Nid = 202
	onlyRole  identifier.Nid = 203
)

func newTranslator() *classifier.Translator {
	return classifier.NewTranslator(roleGroup, []identifier.Nid{partOf}, logger.New("test"))
}

func TestTranslateNecessarySet(t *testing.T) {
	b := logic.NewBuilder(concept)
	b.NecessarySet(b.And(b.Concept(parent)))
	e, err := b.Build()
	require.NoError(t, err)

	axioms, err := newTranslator().Translate(e)
	require.NoError(t, err)
	require.Len(t, axioms, 1)
	assert.Equal(t, classifier.Named{Concept: concept}, axioms[0].Sub)
	assert.Equal(t, classifier.Named{Concept: parent}, axioms[0].Super)
}

func TestTranslateSufficientSet(t *testing.T) {
	b := logic.NewBuilder(concept)
	b.SufficientSet(b.And(b.Concept(parent), b.Concept(other)))
	e, err := b.Build()
	require.NoError(t, err)

	axioms, err := newTranslator().Translate(e)
	require.NoError(t, err)
	require.Len(t, axioms, 2)

	definition := classifier.Conjunction{Operands: []classifier.Class{
		classifier.Named{Concept: parent},
		classifier.Named{Concept: other},
	}}
	assert.Equal(t, classifier.Named{Concept: concept}, axioms[0].Sub)
	assert.Equal(t, definition.String(), axioms[0].Super.String())
	assert.Equal(t, definition.String(), axioms[1].Sub.String())
	assert.Equal(t, classifier.Named{Concept: concept}, axioms[1].Super)
}

func TestTranslateRoleGrouping(t *testing.T) {
	b := logic.NewBuilder(concept)
	b.NecessarySet(b.And(
		b.Concept(parent),
		b.Some(finding, b.Concept(value)),
		b.Some(partOf, b.Concept(whole)),
		b.All(onlyRole, b.Concept(other)),
	))
	e, err := b.Build()
	require.NoError(t, err)

	axioms, err := newTranslator().Translate(e)
	require.NoError(t, err)
	require.Len(t, axioms, 1)

	expected := classifier.Conjunction{Operands: []classifier.Class{
		classifier.Named{Concept: parent},
		classifier.Existential{Role: partOf, Filler: classifier.Named{Concept: whole}},
		classifier.Existential{
			Role:   roleGroup,
			Filler: classifier.Existential{Role: finding, Filler: classifier.Named{Concept: value}},
		},
	}}
	assert.Equal(t, expected.String(), axioms[0].Super.String(), "universal restriction dropped, finding grouped")
}

func TestTranslateExplicitGroup(t *testing.T) {
	b := logic.NewBuilder(concept)
	b.NecessarySet(b.And(
		b.Some(roleGroup, b.And(b.Some(finding, b.Concept(value)))),
	))
	e, err := b.Build()
	require.NoError(t, err)

	axioms, err := newTranslator().Translate(e)
	require.NoError(t, err)
	require.Len(t, axioms, 1)

	expected := classifier.Existential{
		Role:   roleGroup,
		Filler: classifier.Existential{Role: finding, Filler: classifier.Named{Concept: value}},
	}
	assert.Equal(t, expected.String(), axioms[0].Super.String(), "an explicit group is not grouped again")
}

func TestTranslateOnlyUniversal(t *testing.T) {
	b := logic.NewBuilder(concept)
	b.NecessarySet(b.And(b.All(onlyRole, b.Concept(other))))
	e, err := b.Build()
	require.NoError(t, err)

	axioms, err := newTranslator().Translate(e)
	require.NoError(t, err)
	assert.Empty(t, axioms)
}

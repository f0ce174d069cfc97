// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package coordinate_test

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bitmark-inc/termstore/chronicle"
	"github.com/bitmark-inc/termstore/coordinate"
	"github.com/bitmark-inc/termstore/identifier"
	"github.com/bitmark-inc/termstore/stamp"
)

const (
	english        = identifier.Nid(400)
	french         = identifier.Nid(401)
	fullySpecified = identifier.Nid(500)
	regularName    = identifier.Nid(501)
	usDialect      = identifier.Nid(600)
	gbDialect      = identifier.Nid(601)
)

type dialectTable map[identifier.Nid]map[identifier.Nid]coordinate.Acceptability

func (d dialectTable) Acceptability(dialect identifier.Nid, description identifier.Nid, calc *coordinate.Calculator) (coordinate.Acceptability, error) {
	return d[dialect][description], nil
}

func newDescription(t *testing.T, nid identifier.Nid, seq stamp.Sequence, text string, language identifier.Nid, descriptionType identifier.Nid) *chronicle.Chronicle {
	c, err := chronicle.New(chronicle.Envelope{
		UUID:       uuid.New(),
		Nid:        nid,
		Assemblage: identifier.Nid(1),
		Kind:       chronicle.DescriptionKind,
		Referenced: identifier.Nid(2),
	})
	require.NoError(t, err)
	_, err = c.Commit(c.CreateMutableVersion(seq).SetPayload(chronicle.DescriptionPayload{
		Text:     text,
		Language: language,
		Type:     descriptionType,
	}))
	require.NoError(t, err)
	return c
}

func TestSpecifiedDescription(t *testing.T) {
	stamps := memoryStamps{}
	s := stamps.add(stamp.Active, 10, coreModule, mainPath)
	retired := stamps.add(stamp.Inactive, 10, coreModule, mainPath)

	descriptions := []*chronicle.Chronicle{
		newDescription(t, 10, s, "Heart structure (body structure)", english, fullySpecified),
		newDescription(t, 11, s, "Heart", english, regularName),
		newDescription(t, 12, s, "Cardiac structure", english, regularName),
		newDescription(t, 13, s, "Coeur", french, regularName),
		newDescription(t, 14, retired, "Old heart", english, regularName),
	}
	dialects := dialectTable{
		usDialect: {11: coordinate.Acceptable, 12: coordinate.Preferred, 14: coordinate.Preferred},
		gbDialect: {11: coordinate.Preferred},
	}

	calc, err := coordinate.NewCalculator(onPath(mainPath, coordinate.Latest).WithStatuses(stamp.Active), stamps, nil)
	require.NoError(t, err)

	us := coordinate.NewLanguageCoordinate(english, []identifier.Nid{usDialect, gbDialect}, []identifier.Nid{regularName, fullySpecified})
	d, found, err := coordinate.SpecifiedDescription(descriptions, us, calc, dialects)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, "Cardiac structure", d.Payload.Text, "preferred beats acceptable")

	gb := us.WithDialects(gbDialect, usDialect)
	d, found, err = coordinate.SpecifiedDescription(descriptions, gb, calc, dialects)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, "Heart", d.Payload.Text, "first dialect wins")

	fsn := us.WithDescriptionTypes(fullySpecified, regularName)
	name, found, err := coordinate.FullyQualifiedName(descriptions, fsn, fullySpecified, calc, nil)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, "Heart structure (body structure)", name)

	fr := coordinate.NewLanguageCoordinate(french, nil, nil)
	name, found, err = coordinate.PreferredName(descriptions, fr, regularName, calc, nil)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, "Coeur", name)

	_, found, err = coordinate.FullyQualifiedName(descriptions, fr, fullySpecified, calc, nil)
	require.NoError(t, err)
	assert.False(t, found)

	// no dialect accepts the only candidate of the first type
	none := coordinate.NewLanguageCoordinate(english, []identifier.Nid{gbDialect}, []identifier.Nid{fullySpecified})
	_, found, err = coordinate.SpecifiedDescription(descriptions, none, calc, dialects)
	require.NoError(t, err)
	assert.False(t, found)
}

// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package classifier_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bitmark-inc/termstore/classifier"
	"github.com/bitmark-inc/termstore/fault"
	"github.com/bitmark-inc/termstore/identifier"
)

func named(n identifier.Nid) classifier.Named {
	return classifier.Named{Concept: n}
}

func sub(a identifier.Nid, super classifier.Class) classifier.Axiom {
	return classifier.Axiom{Sub: named(a), Super: super}
}

func TestStructuralChain(t *testing.T) {
	r := classifier.NewStructuralReasoner()
	require.NoError(t, r.Load([]classifier.Axiom{
		sub(1, named(2)),
		sub(2, named(3)),
	}))

	affected, err := r.Classify(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []identifier.Nid{1, 2}, affected)

	assert.Equal(t, []identifier.Nid{2}, r.Parents(1), "transitive parent is not direct")
	assert.Equal(t, []identifier.Nid{3}, r.Parents(2))
	assert.Empty(t, r.Parents(3))
}

func TestStructuralSufficientDefinition(t *testing.T) {
	const (
		base     identifier.Nid = 1
		filler   identifier.Nid = 2
		defined  identifier.Nid = 3
		instance identifier.Nid = 4
		role     identifier.Nid = 9
	)
	definition := classifier.Conjunction{Operands: []classifier.Class{
		named(base),
		classifier.Existential{Role: role, Filler: named(filler)},
	}}

	r := classifier.NewStructuralReasoner()
	require.NoError(t, r.Load([]classifier.Axiom{
		sub(defined, definition),
		{Sub: definition, Super: named(defined)},
		sub(instance, definition),
	}))
	_, err := r.Classify(context.Background())
	require.NoError(t, err)

	assert.Equal(t, []identifier.Nid{base}, r.Parents(defined))
	assert.Equal(t, []identifier.Nid{defined}, r.Parents(instance), "recognised by the sufficient set")
}

func TestStructuralExistentialChain(t *testing.T) {
	const (
		f    identifier.Nid = 1
		g    identifier.Nid = 2
		h    identifier.Nid = 3
		k    identifier.Nid = 4
		role identifier.Nid = 9
	)
	someH := classifier.Existential{Role: role, Filler: named(h)}

	r := classifier.NewStructuralReasoner()
	require.NoError(t, r.Load([]classifier.Axiom{
		sub(f, classifier.Existential{Role: role, Filler: named(g)}),
		sub(g, named(h)),
		sub(k, someH),
		{Sub: someH, Super: named(k)},
	}))
	_, err := r.Classify(context.Background())
	require.NoError(t, err)

	assert.Equal(t, []identifier.Nid{k}, r.Parents(f))
}

func TestStructuralIncremental(t *testing.T) {
	r := classifier.NewStructuralReasoner()
	require.NoError(t, r.Load([]classifier.Axiom{
		sub(1, named(2)),
		sub(3, named(2)),
	}))
	_, err := r.Classify(context.Background())
	require.NoError(t, err)

	// 4 slots in between 1 and 2
	require.NoError(t, r.Load([]classifier.Axiom{
		sub(4, named(2)),
		sub(1, named(4)),
	}))
	affected, err := r.Classify(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []identifier.Nid{1, 4}, affected, "3 is untouched")
	assert.Equal(t, []identifier.Nid{4}, r.Parents(1))
	assert.Equal(t, []identifier.Nid{2}, r.Parents(3))
}

func TestStructuralEquivalent(t *testing.T) {
	r := classifier.NewStructuralReasoner()
	require.NoError(t, r.Load([]classifier.Axiom{
		sub(1, named(2)),
		sub(2, named(1)),
		sub(2, named(3)),
	}))
	_, err := r.Classify(context.Background())
	require.NoError(t, err)

	assert.Equal(t, []identifier.Nid{3}, r.Parents(1), "equivalents are not parents")
	assert.Equal(t, []identifier.Nid{3}, r.Parents(2))
}

func TestStructuralCancelled(t *testing.T) {
	r := classifier.NewStructuralReasoner()
	require.NoError(t, r.Load([]classifier.Axiom{sub(1, named(2))}))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := r.Classify(ctx)
	assert.Equal(t, fault.CancelledByContext, err)
}

// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package chronicle_test

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bitmark-inc/termstore/chronicle"
	"github.com/bitmark-inc/termstore/fault"
	"github.com/bitmark-inc/termstore/identifier"
	"github.com/bitmark-inc/termstore/logic"
	"github.com/bitmark-inc/termstore/stamp"
	"github.com/bitmark-inc/termstore/storage"
)

// records which visitor method ran
type kindRecorder struct {
	kinds []chronicle.Kind
}

func (r *kindRecorder) VisitConcept(p chronicle.ConceptPayload) error {
	r.kinds = append(r.kinds, chronicle.ConceptKind)
	return nil
}

func (r *kindRecorder) VisitString(p chronicle.StringPayload) error {
	r.kinds = append(r.kinds, chronicle.StringKind)
	return nil
}

func (r *kindRecorder) VisitDescription(p chronicle.DescriptionPayload) error {
	r.kinds = append(r.kinds, chronicle.DescriptionKind)
	return nil
}

func (r *kindRecorder) VisitComponentNid(p chronicle.ComponentNidPayload) error {
	r.kinds = append(r.kinds, chronicle.ComponentNidKind)
	return nil
}

func (r *kindRecorder) VisitLogicGraph(p chronicle.LogicGraphPayload) error {
	r.kinds = append(r.kinds, chronicle.LogicGraphKind)
	return nil
}

func (r *kindRecorder) VisitDynamic(p chronicle.DynamicPayload) error {
	r.kinds = append(r.kinds, chronicle.DynamicKind)
	return nil
}

func (r *kindRecorder) VisitLong(p chronicle.LongPayload) error {
	r.kinds = append(r.kinds, chronicle.LongKind)
	return nil
}

func (r *kindRecorder) VisitMember(p chronicle.MemberPayload) error {
	r.kinds = append(r.kinds, chronicle.MemberKind)
	return nil
}

func expression(t *testing.T) *logic.Expression {
	b := logic.NewBuilder(-10)
	b.SufficientSet(b.And(b.Concept(-11), b.Some(-12, b.Concept(-13))))
	e, err := b.Build()
	require.NoError(t, err)
	return e
}

func samplePayloads(t *testing.T) []chronicle.Payload {
	return []chronicle.Payload{
		chronicle.ConceptPayload{},
		chronicle.StringPayload{Text: "hello"},
		chronicle.DescriptionPayload{Text: "Heart attack", Language: -1, Type: -2, CaseSignificance: -3},
		chronicle.ComponentNidPayload{Component: 77},
		chronicle.LogicGraphPayload{Expression: expression(t)},
		chronicle.DynamicPayload{Values: []chronicle.DynamicValue{
			chronicle.BooleanValue(true),
			chronicle.LongValue(-9),
			chronicle.DoubleValue(2.5),
			chronicle.StringValue("text"),
			chronicle.NidValue(-42),
			chronicle.BytesValue([]byte{1, 2, 3}),
		}},
		chronicle.LongPayload{Value: 1 << 40},
		chronicle.MemberPayload{},
	}
}

func TestVisitorDispatch(t *testing.T) {
	r := &kindRecorder{}
	expected := []chronicle.Kind{}
	for _, p := range samplePayloads(t) {
		require.NoError(t, p.Accept(r))
		expected = append(expected, p.Kind())
	}
	assert.Equal(t, expected, r.kinds)
}

func TestVersionRoundTrip(t *testing.T) {
	for i, p := range samplePayloads(t) {
		referenced := identifier.Nid(5)
		if chronicle.ConceptKind == p.Kind() {
			referenced = identifier.NoNid
		}
		c, err := chronicle.New(chronicle.Envelope{
			UUID:       uuid.New(),
			Nid:        identifier.Nid(100 + i),
			Assemblage: -50,
			Kind:       p.Kind(),
			Referenced: referenced,
		})
		require.NoError(t, err)

		_, err = c.Commit(c.CreateMutableVersion(stamp.Sequence(i + 1)).SetPayload(p))
		require.NoError(t, err, "kind: %s", p.Kind())

		actual, err := chronicle.Unpack(c.Pack())
		require.NoError(t, err, "kind: %s", p.Kind())
		assert.Equal(t, c.Envelope(), actual.Envelope())
		require.Equal(t, 1, actual.VersionCount())

		v := actual.Versions()[0]
		assert.Equal(t, stamp.Sequence(i+1), v.Sequence())
		if lg, ok := p.(chronicle.LogicGraphPayload); ok {
			assert.True(t, lg.Expression.Equal(v.Payload().(chronicle.LogicGraphPayload).Expression))
		} else {
			assert.Equal(t, p, v.Payload(), "kind: %s", p.Kind())
		}
	}
}

func TestCommitRules(t *testing.T) {
	c, err := chronicle.New(chronicle.Envelope{
		UUID:       uuid.New(),
		Nid:        1,
		Assemblage: -50,
		Kind:       chronicle.StringKind,
		Referenced: 2,
	})
	require.NoError(t, err)

	b := c.CreateMutableVersion(1)
	_, err = c.Commit(b)
	assert.Equal(t, fault.BuilderPayloadMissing, err)

	b.SetPayload(chronicle.LongPayload{Value: 1})
	_, err = c.Commit(b)
	assert.Equal(t, fault.PayloadKindMismatch, err)
	assert.True(t, fault.IsErrConsistency(err))

	b.SetPayload(chronicle.StringPayload{Text: "v1"})
	v, err := c.Commit(b)
	require.NoError(t, err)
	assert.Equal(t, stamp.Sequence(1), v.Sequence())

	_, err = c.Commit(b)
	assert.Equal(t, fault.BuilderAlreadyCommitted, err)

	_, err = c.Commit(c.CreateMutableVersion(2).SetPayload(chronicle.StringPayload{Text: "v2"}))
	require.NoError(t, err)

	versions := c.Versions()
	require.Len(t, versions, 2, "append never replaces")
	assert.Equal(t, chronicle.StringPayload{Text: "v1"}, versions[0].Payload())
	assert.Equal(t, chronicle.StringPayload{Text: "v2"}, versions[1].Payload())

	other, err := chronicle.New(c.Envelope())
	require.NoError(t, err)
	_, err = other.Commit(c.CreateMutableVersion(3).SetPayload(chronicle.StringPayload{Text: "x"}))
	assert.Equal(t, fault.ChronicleEnvelopeMismatch, err, "builder of another chronicle")
}

func TestUnknownKindTag(t *testing.T) {
	c, err := chronicle.New(chronicle.Envelope{
		UUID:       uuid.New(),
		Nid:        1,
		Assemblage: -50,
		Kind:       chronicle.LongKind,
		Referenced: 2,
	})
	require.NoError(t, err)
	_, err = c.Commit(c.CreateMutableVersion(1).SetPayload(chronicle.LongPayload{Value: 3}))
	require.NoError(t, err)

	envelope, versions, err := chronicle.SplitRecords(c.Pack())
	require.NoError(t, err)
	envelope[1] = 99 // kind tag follows the format byte

	_, err = chronicle.Unpack(chronicle.JoinRecords(envelope, versions))
	assert.Equal(t, fault.UnknownPayloadKind, err)
	assert.True(t, fault.IsErrConsistency(err))

	_, err = chronicle.UnpackVersion(chronicle.Kind(99), versions[0])
	assert.Equal(t, fault.UnknownPayloadKind, err)

	_, err = chronicle.New(chronicle.Envelope{Kind: 0})
	assert.Equal(t, fault.UnknownPayloadKind, err)
}

func TestSplitJoin(t *testing.T) {
	envelope := []byte{1, 2, 3}
	versions := [][]byte{{4}, {5, 6}, {}}

	e, v, err := chronicle.SplitRecords(chronicle.JoinRecords(envelope, versions))
	require.NoError(t, err)
	assert.Equal(t, envelope, e)
	assert.Equal(t, versions, v)

	_, _, err = chronicle.SplitRecords([]byte{5, 1})
	assert.Equal(t, fault.RecordTruncated, err)
}

func TestFactory(t *testing.T) {
	db, err := storage.Open(storage.Configuration{
		Directory: t.TempDir(),
		Name:      "test",
		Engine:    storage.LevelDB,
	})
	require.NoError(t, err)
	defer db.Shutdown(false)

	ids, err := identifier.New(db)
	require.NoError(t, err)
	factory := chronicle.NewFactory(ids)

	assemblage := identifier.Nid(-7)
	concept, err := factory.CreateComponent(chronicle.ConceptKind, identifier.NoNid, assemblage)
	require.NoError(t, err)

	a, found, err := ids.AssemblageForNid(concept.Nid())
	assert.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, assemblage, a)

	semantic, err := factory.CreateComponent(chronicle.StringKind, concept.Nid(), -8)
	require.NoError(t, err)
	assert.Equal(t, concept.Nid(), semantic.Envelope().Referenced)
	assert.NotEqual(t, concept.Nid(), semantic.Nid())

	_, err = factory.CreateComponent(chronicle.StringKind, identifier.NoNid, -8)
	assert.Equal(t, fault.MissingParameters, err)

	// same uuid, different assemblage
	_, err = factory.CreateComponentWithUUID(concept.Envelope().UUID, chronicle.ConceptKind, identifier.NoNid, -9)
	assert.Equal(t, fault.AssemblageConflict, err)
}

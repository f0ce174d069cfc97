// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package chronicle holds the append-only version history of one
// component and its binary layout
package chronicle

import (
	"sync"

	"github.com/google/uuid"

	"github.com/bitmark-inc/termstore/fault"
	"github.com/bitmark-inc/termstore/identifier"
	"github.com/bitmark-inc/termstore/stamp"
)

// Envelope - the identity of a chronicle, fixed at creation
type Envelope struct {
	UUID       uuid.UUID
	Nid        identifier.Nid
	Assemblage identifier.Nid
	Kind       Kind
	Referenced identifier.Nid // NoNid for concepts
}

// Version - one immutable version
type Version struct {
	sequence stamp.Sequence
	payload  Payload
}

// Sequence - the stamp of this version
func (v Version) Sequence() stamp.Sequence {
	return v.sequence
}

// Payload - the kind specific content
func (v Version) Payload() Payload {
	return v.payload
}

// Chronicle - identity plus an append-only set of versions
type Chronicle struct {
	sync.RWMutex
	envelope Envelope
	versions []Version
}

// New - an empty chronicle for an envelope
func New(envelope Envelope) (*Chronicle, error) {
	if !envelope.Kind.IsValid() {
		return nil, fault.UnknownPayloadKind
	}
	return &Chronicle{
		envelope: envelope,
	}, nil
}

// Envelope - identity of the chronicle
func (c *Chronicle) Envelope() Envelope {
	return c.envelope
}

// Nid - shorthand for Envelope().Nid
func (c *Chronicle) Nid() identifier.Nid {
	return c.envelope.Nid
}

// Kind - shorthand for Envelope().Kind
func (c *Chronicle) Kind() Kind {
	return c.envelope.Kind
}

// Versions - a snapshot of the versions in append order
func (c *Chronicle) Versions() []Version {
	c.RLock()
	defer c.RUnlock()
	return append([]Version(nil), c.versions...)
}

// VersionCount - number of versions
func (c *Chronicle) VersionCount() int {
	c.RLock()
	defer c.RUnlock()
	return len(c.versions)
}

// VersionBuilder - the short lived mutable form of a version, scoped
// to one stamp sequence
type VersionBuilder struct {
	sync.Mutex
	chronicle *Chronicle
	sequence  stamp.Sequence
	payload   Payload
	committed bool
}

// CreateMutableVersion - start a version under seq
//
// concept and member chronicles get their empty payload up front
func (c *Chronicle) CreateMutableVersion(seq stamp.Sequence) *VersionBuilder {
	b := &VersionBuilder{
		chronicle: c,
		sequence:  seq,
	}
	switch c.envelope.Kind {
	case ConceptKind:
		b.payload = ConceptPayload{}
	case MemberKind:
		b.payload = MemberPayload{}
	}
	return b
}

// SetPayload - set the content of the version
func (b *VersionBuilder) SetPayload(p Payload) *VersionBuilder {
	b.Lock()
	b.payload = p
	b.Unlock()
	return b
}

// Sequence - the stamp this builder writes under
func (b *VersionBuilder) Sequence() stamp.Sequence {
	return b.sequence
}

// Commit - append the built version
//
// a builder commits once; existing versions are never replaced
func (c *Chronicle) Commit(b *VersionBuilder) (Version, error) {
	b.Lock()
	defer b.Unlock()

	if b.chronicle != c {
		return Version{}, fault.ChronicleEnvelopeMismatch
	}
	if b.committed {
		return Version{}, fault.BuilderAlreadyCommitted
	}
	if nil == b.payload {
		return Version{}, fault.BuilderPayloadMissing
	}
	if b.payload.Kind() != c.envelope.Kind {
		return Version{}, fault.PayloadKindMismatch
	}
	if lg, ok := b.payload.(LogicGraphPayload); ok && nil == lg.Expression {
		return Version{}, fault.BuilderPayloadMissing
	}

	v := Version{
		sequence: b.sequence,
		payload:  b.payload,
	}
	b.committed = true

	c.Lock()
	c.versions = append(c.versions, v)
	c.Unlock()
	return v, nil
}

// NidAssigner - the identifier operations a factory needs
type NidAssigner interface {
	AssignNid(id uuid.UUID) (identifier.Nid, error)
	SetAssemblageForNid(nid identifier.Nid, assemblage identifier.Nid) error
}

// Factory - creates components with their nid and assemblage bound
type Factory struct {
	ids NidAssigner
}

// NewFactory - factory over an identifier service
func NewFactory(ids NidAssigner) *Factory {
	return &Factory{
		ids: ids,
	}
}

// CreateComponent - a new component with a random UUID
//
// referenced is NoNid for a concept and required otherwise
func (f *Factory) CreateComponent(kind Kind, referenced identifier.Nid, assemblage identifier.Nid) (*Chronicle, error) {
	return f.CreateComponentWithUUID(uuid.New(), kind, referenced, assemblage)
}

// CreateComponentWithUUID - a component with a caller chosen UUID
func (f *Factory) CreateComponentWithUUID(id uuid.UUID, kind Kind, referenced identifier.Nid, assemblage identifier.Nid) (*Chronicle, error) {
	if !kind.IsValid() {
		return nil, fault.UnknownPayloadKind
	}
	if ConceptKind == kind {
		if identifier.NoNid != referenced {
			return nil, fault.InvalidNid
		}
	} else if identifier.NoNid == referenced {
		return nil, fault.MissingParameters
	}

	nid, err := f.ids.AssignNid(id)
	if nil != err {
		return nil, err
	}
	err = f.ids.SetAssemblageForNid(nid, assemblage)
	if nil != err {
		return nil, err
	}

	return New(Envelope{
		UUID:       id,
		Nid:        nid,
		Assemblage: assemblage,
		Kind:       kind,
		Referenced: referenced,
	})
}

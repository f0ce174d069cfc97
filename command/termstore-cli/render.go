// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package main

import (
	"encoding/hex"
	"fmt"
	"strconv"

	"github.com/google/uuid"

	"github.com/bitmark-inc/termstore/chronicle"
	"github.com/bitmark-inc/termstore/datastore"
	"github.com/bitmark-inc/termstore/fault"
	"github.com/bitmark-inc/termstore/identifier"
	"github.com/bitmark-inc/termstore/metadata"
	"github.com/bitmark-inc/termstore/stamp"
)

type versionItem struct {
	Sequence stamp.Sequence         `json:"sequence"`
	Stamp    string                 `json:"stamp"`
	Comment  string                 `json:"comment,omitempty"`
	Payload  map[string]interface{} `json:"payload"`
}

type chronicleItem struct {
	UUID       uuid.UUID      `json:"uuid"`
	Nid        identifier.Nid `json:"nid"`
	Kind       string         `json:"kind"`
	Assemblage string         `json:"assemblage"`
	Referenced string         `json:"referenced,omitempty"`
	Versions   []versionItem  `json:"versions"`
}

// payloadRenderer - JSON friendly fields of one payload
type payloadRenderer struct {
	concepts *metadata.Concepts
	fields   map[string]interface{}
}

func newPayloadRenderer(concepts *metadata.Concepts) *payloadRenderer {
	return &payloadRenderer{
		concepts: concepts,
	}
}

func (r *payloadRenderer) render(p chronicle.Payload) (map[string]interface{}, error) {
	r.fields = map[string]interface{}{
		"kind": p.Kind().String(),
	}
	if err := p.Accept(r); nil != err {
		return nil, err
	}
	return r.fields, nil
}

// metadata concepts show their names
func (r *payloadRenderer) name(nid identifier.Nid) string {
	if nil != r.concepts {
		if name := r.concepts.Name(nid); "" != name {
			return name
		}
	}
	return nid.String()
}

func (r *payloadRenderer) VisitConcept(p chronicle.ConceptPayload) error {
	return nil
}

func (r *payloadRenderer) VisitString(p chronicle.StringPayload) error {
	r.fields["text"] = p.Text
	return nil
}

func (r *payloadRenderer) VisitDescription(p chronicle.DescriptionPayload) error {
	r.fields["text"] = p.Text
	r.fields["language"] = r.name(p.Language)
	r.fields["type"] = r.name(p.Type)
	r.fields["caseSignificance"] = r.name(p.CaseSignificance)
	return nil
}

func (r *payloadRenderer) VisitComponentNid(p chronicle.ComponentNidPayload) error {
	r.fields["component"] = r.name(p.Component)
	return nil
}

func (r *payloadRenderer) VisitLogicGraph(p chronicle.LogicGraphPayload) error {
	if nil == p.Expression {
		r.fields["expression"] = nil
		return nil
	}
	r.fields["nodes"] = p.Expression.NodeCount()
	r.fields["expression"] = p.Expression.String()
	return nil
}

func (r *payloadRenderer) VisitDynamic(p chronicle.DynamicPayload) error {
	values := make([]interface{}, 0, len(p.Values))
	for _, v := range p.Values {
		switch v.Type {
		case chronicle.DynamicBoolean:
			values = append(values, 0 != v.Long)
		case chronicle.DynamicLong:
			values = append(values, v.Long)
		case chronicle.DynamicDouble:
			values = append(values, v.Double)
		case chronicle.DynamicString:
			values = append(values, v.Text)
		case chronicle.DynamicNid:
			values = append(values, r.name(identifier.Nid(v.Long)))
		case chronicle.DynamicBytes:
			values = append(values, hex.EncodeToString(v.Bytes))
		default:
			return fmt.Errorf("dynamic type: %d: %w", v.Type, fault.UnknownPayloadKind)
		}
	}
	r.fields["values"] = values
	return nil
}

func (r *payloadRenderer) VisitLong(p chronicle.LongPayload) error {
	r.fields["value"] = p.Value
	return nil
}

func (r *payloadRenderer) VisitMember(p chronicle.MemberPayload) error {
	return nil
}

// every version of a chronicle with its stamp and comment
func renderChronicle(store *datastore.Store, concepts *metadata.Concepts, c *chronicle.Chronicle) (*chronicleItem, error) {
	e := c.Envelope()
	renderer := newPayloadRenderer(concepts)

	item := &chronicleItem{
		UUID:       e.UUID,
		Nid:        e.Nid,
		Kind:       e.Kind.String(),
		Assemblage: renderer.name(e.Assemblage),
		Versions:   make([]versionItem, 0, c.VersionCount()),
	}

	if identifier.NoNid != e.Referenced {
		item.Referenced = renderer.name(e.Referenced)
	}

	for _, v := range c.Versions() {
		s, found, err := store.Stamps().Get(v.Sequence())
		if nil != err {
			return nil, err
		}
		text := "unknown stamp"
		if found {
			text = s.String()
		}
		comment, _, err := store.Stamps().Comment(v.Sequence())
		if nil != err {
			return nil, err
		}
		fields, err := renderer.render(v.Payload())
		if nil != err {
			return nil, err
		}
		item.Versions = append(item.Versions, versionItem{
			Sequence: v.Sequence(),
			Stamp:    text,
			Comment:  comment,
			Payload:  fields,
		})
	}
	return item, nil
}

// a component given as a nid, a UUID or a metadata concept name
func parseComponent(store *datastore.Store, concepts *metadata.Concepts, text string) (identifier.Nid, error) {
	if "" == text {
		return identifier.NoNid, fmt.Errorf("missing component")
	}
	if n, err := strconv.ParseInt(text, 10, 32); nil == err {
		return identifier.Nid(n), nil
	}
	if id, err := uuid.Parse(text); nil == err {
		nid, found, err := store.Identifiers().NidForUUID(id)
		if nil != err {
			return identifier.NoNid, err
		}
		if !found {
			return identifier.NoNid, fmt.Errorf("component: %q: %w", text, fault.NidNotFound)
		}
		return nid, nil
	}
	if nid, ok := concepts.Lookup(text); ok {
		return nid, nil
	}
	return identifier.NoNid, fmt.Errorf("component: %q: %w", text, fault.NidNotFound)
}

// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package chronicle

import (
	"fmt"
	"math"

	"github.com/bitmark-inc/termstore/fault"
	"github.com/bitmark-inc/termstore/identifier"
	"github.com/bitmark-inc/termstore/logic"
	"github.com/bitmark-inc/termstore/util"
)

// Kind - the payload kind of a chronicle, fixed at creation
type Kind byte

// payload kinds
const (
	ConceptKind Kind = iota + 1
	StringKind
	DescriptionKind
	ComponentNidKind
	LogicGraphKind
	DynamicKind
	LongKind
	MemberKind
)

var kindNames = map[Kind]string{
	ConceptKind:      "CONCEPT",
	StringKind:       "STRING",
	DescriptionKind:  "DESCRIPTION",
	ComponentNidKind: "COMPONENT_NID",
	LogicGraphKind:   "LOGIC_GRAPH",
	DynamicKind:      "DYNAMIC",
	LongKind:         "LONG",
	MemberKind:       "MEMBER",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("KIND(%d)", byte(k))
}

// ParseKind - from the text form
func ParseKind(s string) (Kind, error) {
	for k, name := range kindNames {
		if name == s {
			return k, nil
		}
	}
	return 0, fault.UnknownPayloadKind
}

// IsValid - a known kind
func (k Kind) IsValid() bool {
	_, ok := kindNames[k]
	return ok
}

// ObjectType - the item kind of an assemblage
type ObjectType byte

// object types
const (
	ConceptObject ObjectType = iota + 1
	SemanticObject
)

func (o ObjectType) String() string {
	switch o {
	case ConceptObject:
		return "CONCEPT"
	case SemanticObject:
		return "SEMANTIC"
	default:
		return fmt.Sprintf("OBJECT(%d)", byte(o))
	}
}

// ObjectType - concepts for the concept kind, semantics otherwise
func (k Kind) ObjectType() ObjectType {
	if ConceptKind == k {
		return ConceptObject
	}
	return SemanticObject
}

// Payload - the kind specific content of a version
//
// the set of implementations is closed: only this package can add
// one, and every PayloadVisitor must handle all of them
type Payload interface {
	Kind() Kind
	Accept(v PayloadVisitor) error
	pack(buffer []byte) []byte
}

// PayloadVisitor - exhaustive dispatch over payload kinds
type PayloadVisitor interface {
	VisitConcept(p ConceptPayload) error
	VisitString(p StringPayload) error
	VisitDescription(p DescriptionPayload) error
	VisitComponentNid(p ComponentNidPayload) error
	VisitLogicGraph(p LogicGraphPayload) error
	VisitDynamic(p DynamicPayload) error
	VisitLong(p LongPayload) error
	VisitMember(p MemberPayload) error
}

// ConceptPayload - a concept version carries no fields
type ConceptPayload struct{}

// StringPayload - free text semantic
type StringPayload struct {
	Text string
}

// DescriptionPayload - a term for a concept
type DescriptionPayload struct {
	Text             string
	Language         identifier.Nid
	Type             identifier.Nid
	CaseSignificance identifier.Nid
}

// ComponentNidPayload - a reference to another component
type ComponentNidPayload struct {
	Component identifier.Nid
}

// LogicGraphPayload - a stated or inferred definition
type LogicGraphPayload struct {
	Expression *logic.Expression
}

// DynamicPayload - typed column values
type DynamicPayload struct {
	Values []DynamicValue
}

// LongPayload - a 64 bit value
type LongPayload struct {
	Value int64
}

// MemberPayload - membership only, no fields
type MemberPayload struct{}

// Kind implementations
func (ConceptPayload) Kind() Kind      { return ConceptKind }
func (StringPayload) Kind() Kind       { return StringKind }
func (DescriptionPayload) Kind() Kind  { return DescriptionKind }
func (ComponentNidPayload) Kind() Kind { return ComponentNidKind }
func (LogicGraphPayload) Kind() Kind   { return LogicGraphKind }
func (DynamicPayload) Kind() Kind      { return DynamicKind }
func (LongPayload) Kind() Kind         { return LongKind }
func (MemberPayload) Kind() Kind       { return MemberKind }

// Accept implementations
func (p ConceptPayload) Accept(v PayloadVisitor) error      { return v.VisitConcept(p) }
func (p StringPayload) Accept(v PayloadVisitor) error       { return v.VisitString(p) }
func (p DescriptionPayload) Accept(v PayloadVisitor) error  { return v.VisitDescription(p) }
func (p ComponentNidPayload) Accept(v PayloadVisitor) error { return v.VisitComponentNid(p) }
func (p LogicGraphPayload) Accept(v PayloadVisitor) error   { return v.VisitLogicGraph(p) }
func (p DynamicPayload) Accept(v PayloadVisitor) error      { return v.VisitDynamic(p) }
func (p LongPayload) Accept(v PayloadVisitor) error         { return v.VisitLong(p) }
func (p MemberPayload) Accept(v PayloadVisitor) error       { return v.VisitMember(p) }

func (ConceptPayload) pack(buffer []byte) []byte { return buffer }
func (MemberPayload) pack(buffer []byte) []byte  { return buffer }

func (p StringPayload) pack(buffer []byte) []byte {
	return util.AppendString(buffer, p.Text)
}

func (p DescriptionPayload) pack(buffer []byte) []byte {
	buffer = util.AppendString(buffer, p.Text)
	buffer = util.AppendInt32(buffer, int32(p.Language))
	buffer = util.AppendInt32(buffer, int32(p.Type))
	return util.AppendInt32(buffer, int32(p.CaseSignificance))
}

func (p ComponentNidPayload) pack(buffer []byte) []byte {
	return util.AppendInt32(buffer, int32(p.Component))
}

func (p LogicGraphPayload) pack(buffer []byte) []byte {
	return util.AppendBytes(buffer, p.Expression.Pack())
}

func (p DynamicPayload) pack(buffer []byte) []byte {
	buffer = util.AppendVarint64(buffer, uint64(len(p.Values)))
	for _, v := range p.Values {
		buffer = v.pack(buffer)
	}
	return buffer
}

func (p LongPayload) pack(buffer []byte) []byte {
	return util.AppendInt64(buffer, p.Value)
}

// decode the fields of one payload
//
// an unknown kind is a consistency error, never skipped
func unpackPayload(kind Kind, r *util.Reader) (Payload, error) {
	var p Payload
	switch kind {
	case ConceptKind:
		p = ConceptPayload{}
	case StringKind:
		p = StringPayload{Text: r.String()}
	case DescriptionKind:
		p = DescriptionPayload{
			Text:             r.String(),
			Language:         identifier.Nid(r.Int32()),
			Type:             identifier.Nid(r.Int32()),
			CaseSignificance: identifier.Nid(r.Int32()),
		}
	case ComponentNidKind:
		p = ComponentNidPayload{Component: identifier.Nid(r.Int32())}
	case LogicGraphKind:
		packed := r.Bytes()
		if nil != r.Err() {
			return nil, r.Err()
		}
		e, err := logic.Unpack(packed)
		if nil != err {
			return nil, err
		}
		p = LogicGraphPayload{Expression: e}
	case DynamicKind:
		count := r.Varint64()
		if count > uint64(r.Remaining()) {
			return nil, fault.RecordTruncated
		}
		values := make([]DynamicValue, 0, count)
		for i := uint64(0); i < count && nil == r.Err(); i += 1 {
			v, err := unpackDynamicValue(r)
			if nil != err {
				return nil, err
			}
			values = append(values, v)
		}
		p = DynamicPayload{Values: values}
	case LongKind:
		p = LongPayload{Value: r.Int64()}
	case MemberKind:
		p = MemberPayload{}
	default:
		return nil, fault.UnknownPayloadKind
	}
	if nil != r.Err() {
		return nil, r.Err()
	}
	return p, nil
}

// DynamicType - the type of one dynamic column value
type DynamicType byte

// dynamic column types
const (
	DynamicBoolean DynamicType = iota + 1
	DynamicLong
	DynamicDouble
	DynamicString
	DynamicNid
	DynamicBytes
)

// DynamicValue - one typed column of a DYNAMIC payload
type DynamicValue struct {
	Type   DynamicType
	Long   int64 // boolean (0/1), long and nid
	Double float64
	Text   string
	Bytes  []byte
}

// BooleanValue - a boolean dynamic value
func BooleanValue(b bool) DynamicValue {
	v := DynamicValue{Type: DynamicBoolean}
	if b {
		v.Long = 1
	}
	return v
}

// LongValue - a long dynamic value
func LongValue(n int64) DynamicValue { return DynamicValue{Type: DynamicLong, Long: n} }

// DoubleValue - a double dynamic value
func DoubleValue(f float64) DynamicValue { return DynamicValue{Type: DynamicDouble, Double: f} }

// StringValue - a string dynamic value
func StringValue(s string) DynamicValue { return DynamicValue{Type: DynamicString, Text: s} }

// NidValue - a component reference dynamic value
func NidValue(n identifier.Nid) DynamicValue { return DynamicValue{Type: DynamicNid, Long: int64(n)} }

// Bytes - an opaque dynamic value
func BytesValue(b []byte) DynamicValue { return DynamicValue{Type: DynamicBytes, Bytes: b} }

func (v DynamicValue) pack(buffer []byte) []byte {
	buffer = append(buffer, byte(v.Type))
	switch v.Type {
	case DynamicBoolean, DynamicLong, DynamicNid:
		buffer = util.AppendInt64(buffer, v.Long)
	case DynamicDouble:
		buffer = util.AppendVarint64(buffer, math.Float64bits(v.Double))
	case DynamicString:
		buffer = util.AppendString(buffer, v.Text)
	case DynamicBytes:
		buffer = util.AppendBytes(buffer, v.Bytes)
	}
	return buffer
}

func unpackDynamicValue(r *util.Reader) (DynamicValue, error) {
	v := DynamicValue{Type: DynamicType(r.Byte())}
	switch v.Type {
	case DynamicBoolean, DynamicLong, DynamicNid:
		v.Long = r.Int64()
	case DynamicDouble:
		v.Double = math.Float64frombits(r.Varint64())
	case DynamicString:
		v.Text = r.String()
	case DynamicBytes:
		v.Bytes = r.Bytes()
	default:
		if nil != r.Err() {
			return v, r.Err()
		}
		return v, fault.UnknownPayloadKind
	}
	return v, r.Err()
}

// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package metadata names the well known concepts every store carries
//
// each concept has a name based UUID so its nid can be found in any
// store; Bootstrap writes the concepts themselves, a fully qualified
// name for each and a stated definition placing it under its parent
package metadata

import (
	"fmt"
	"reflect"

	"github.com/google/uuid"

	"github.com/bitmark-inc/termstore/fault"
	"github.com/bitmark-inc/termstore/identifier"
)

// Namespace - UUID namespace of metadata concept names
var Namespace = uuid.MustParse("d96cb69b-2ad4-4c1f-9d6c-b6d93e1d4f5c")

// Concepts - nids of the metadata concepts
//
// note all must be exported (i.e. initial capital) or Resolve will fail;
// the parent tag names the field of the stated parent, the root has none
type Concepts struct {
	Root                  identifier.Nid `concept:"Terminology metadata"`
	Assemblage            identifier.Nid `concept:"Assemblage" parent:"Root"`
	ConceptAssemblage     identifier.Nid `concept:"Concept assemblage" parent:"Assemblage"`
	DescriptionAssemblage identifier.Nid `concept:"Description assemblage" parent:"Assemblage"`
	StatedLogic           identifier.Nid `concept:"Stated logic assemblage" parent:"Assemblage"`
	InferredLogic         identifier.Nid `concept:"Inferred logic assemblage" parent:"Assemblage"`
	StatedTaxonomy        identifier.Nid `concept:"Stated taxonomy assemblage" parent:"Assemblage"`
	InferredTaxonomy      identifier.Nid `concept:"Inferred taxonomy assemblage" parent:"Assemblage"`
	Dialect               identifier.Nid `concept:"Dialect assemblage" parent:"Assemblage"`
	USDialect             identifier.Nid `concept:"US English dialect" parent:"Dialect"`
	GBDialect             identifier.Nid `concept:"GB English dialect" parent:"Dialect"`
	Language              identifier.Nid `concept:"Language" parent:"Root"`
	English               identifier.Nid `concept:"English language" parent:"Language"`
	DescriptionType       identifier.Nid `concept:"Description type" parent:"Root"`
	FullyQualifiedName    identifier.Nid `concept:"Fully qualified name" parent:"DescriptionType"`
	RegularName           identifier.Nid `concept:"Regular name" parent:"DescriptionType"`
	Definition            identifier.Nid `concept:"Definition description type" parent:"DescriptionType"`
	CaseSignificance      identifier.Nid `concept:"Case significance" parent:"Root"`
	CaseInsensitive       identifier.Nid `concept:"Description not case sensitive" parent:"CaseSignificance"`
	Acceptability         identifier.Nid `concept:"Acceptability" parent:"Root"`
	Preferred             identifier.Nid `concept:"Preferred" parent:"Acceptability"`
	Acceptable            identifier.Nid `concept:"Acceptable" parent:"Acceptability"`
	Path                  identifier.Nid `concept:"Path" parent:"Root"`
	MasterPath            identifier.Nid `concept:"Master path" parent:"Path"`
	DevelopmentPath       identifier.Nid `concept:"Development path" parent:"Path"`
	Module                identifier.Nid `concept:"Module" parent:"Root"`
	CoreModule            identifier.Nid `concept:"Core metadata module" parent:"Module"`
	User                  identifier.Nid `concept:"User" parent:"Root"`
	SystemUser            identifier.Nid `concept:"System user" parent:"User"`
	Role                  identifier.Nid `concept:"Role" parent:"Root"`
	RoleGroup             identifier.Nid `concept:"Role group" parent:"Role"`
	PartOf                identifier.Nid `concept:"Part of" parent:"Role"`
	Laterality            identifier.Nid `concept:"Laterality" parent:"Role"`
	Classifier            identifier.Nid `concept:"Classifier" parent:"Root"`
	StructuralClassifier  identifier.Nid `concept:"Structural EL++ classifier" parent:"Classifier"`
	DescriptionProfile    identifier.Nid `concept:"EL++ description profile" parent:"Root"`
}

// Entry - one metadata concept
type Entry struct {
	Field  string
	Name   string
	UUID   uuid.UUID
	Nid    identifier.Nid
	Parent identifier.Nid // NoNid for the root
}

// UUIDFor - the UUID of a metadata concept name
func UUIDFor(name string) uuid.UUID {
	return identifier.FromName(Namespace, name)
}

// Assigner - the identifier operation Resolve needs
type Assigner interface {
	AssignNid(id uuid.UUID) (identifier.Nid, error)
}

// Resolve - nids of every metadata concept, allocating if needed
func Resolve(ids Assigner) (*Concepts, error) {
	c := &Concepts{}

	conceptType := reflect.TypeOf(*c)
	conceptValue := reflect.ValueOf(c).Elem()
	nidType := reflect.TypeOf(identifier.NoNid)

	for i := 0; i < conceptType.NumField(); i += 1 {
		fieldInfo := conceptType.Field(i)
		name := fieldInfo.Tag.Get("concept")
		if "" == name || nidType != fieldInfo.Type {
			return nil, fmt.Errorf("metadata: %s: %w", fieldInfo.Name, fault.InvalidStructPointer)
		}
		n, err := ids.AssignNid(UUIDFor(name))
		if nil != err {
			return nil, err
		}
		conceptValue.Field(i).Set(reflect.ValueOf(n))
	}
	return c, nil
}

// Entries - every metadata concept in declaration order
func (c *Concepts) Entries() []Entry {
	conceptType := reflect.TypeOf(*c)
	conceptValue := reflect.ValueOf(*c)

	entries := make([]Entry, 0, conceptType.NumField())
	for i := 0; i < conceptType.NumField(); i += 1 {
		fieldInfo := conceptType.Field(i)
		e := Entry{
			Field:  fieldInfo.Name,
			Name:   fieldInfo.Tag.Get("concept"),
			Nid:    conceptValue.Field(i).Interface().(identifier.Nid),
			Parent: identifier.NoNid,
		}
		e.UUID = UUIDFor(e.Name)
		if parent := fieldInfo.Tag.Get("parent"); "" != parent {
			e.Parent = conceptValue.FieldByName(parent).Interface().(identifier.Nid)
		}
		entries = append(entries, e)
	}
	return entries
}

// Name - the metadata name of a nid, empty if not metadata
func (c *Concepts) Name(nid identifier.Nid) string {
	for _, e := range c.Entries() {
		if e.Nid == nid {
			return e.Name
		}
	}
	return ""
}

// NeverGroupRoles - roles that are not wrapped in a role group
func (c *Concepts) NeverGroupRoles() []identifier.Nid {
	return []identifier.Nid{c.PartOf, c.Laterality}
}

// Lookup - the nid of a metadata name
func (c *Concepts) Lookup(name string) (identifier.Nid, bool) {
	for _, e := range c.Entries() {
		if e.Name == name {
			return e.Nid, true
		}
	}
	return identifier.NoNid, false
}

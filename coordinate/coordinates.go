// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package coordinate

import (
	"golang.org/x/crypto/sha3"

	"github.com/bitmark-inc/termstore/identifier"
	"github.com/bitmark-inc/termstore/util"
)

// LanguageCoordinate - selects descriptions
type LanguageCoordinate struct {
	language         identifier.Nid
	dialects         []identifier.Nid
	descriptionTypes []identifier.Nid
}

// NewLanguageCoordinate - dialect and type lists are in preference order
//
// identifier.NoNid as language matches any language
func NewLanguageCoordinate(language identifier.Nid, dialects []identifier.Nid, descriptionTypes []identifier.Nid) LanguageCoordinate {
	return LanguageCoordinate{
		language:         language,
		dialects:         append([]identifier.Nid(nil), dialects...),
		descriptionTypes: append([]identifier.Nid(nil), descriptionTypes...),
	}
}

// Language - language concept
func (c LanguageCoordinate) Language() identifier.Nid {
	return c.language
}

// Dialects - dialect assemblages in preference order
func (c LanguageCoordinate) Dialects() []identifier.Nid {
	return append([]identifier.Nid(nil), c.dialects...)
}

// DescriptionTypes - description types in preference order
func (c LanguageCoordinate) DescriptionTypes() []identifier.Nid {
	return append([]identifier.Nid(nil), c.descriptionTypes...)
}

// WithDescriptionTypes - a copy with a different type preference
func (c LanguageCoordinate) WithDescriptionTypes(types ...identifier.Nid) LanguageCoordinate {
	c.descriptionTypes = append([]identifier.Nid(nil), types...)
	return c
}

// WithDialects - a copy with a different dialect preference
func (c LanguageCoordinate) WithDialects(dialects ...identifier.Nid) LanguageCoordinate {
	c.dialects = append([]identifier.Nid(nil), dialects...)
	return c
}

func (c LanguageCoordinate) pack(buffer []byte) []byte {
	buffer = append(buffer, 'L')
	buffer = util.AppendInt32(buffer, int32(c.language))
	buffer = appendNids(buffer, c.dialects)
	return appendNids(buffer, c.descriptionTypes)
}

// Digest - sha3 over the canonical form
func (c LanguageCoordinate) Digest() Digest {
	return sha3.Sum256(c.pack(nil))
}

// LogicCoordinate - names the assemblages of the logic views
type LogicCoordinate struct {
	StatedAssemblage   identifier.Nid
	InferredAssemblage identifier.Nid
	Classifier         identifier.Nid
	DescriptionProfile identifier.Nid
	RoleGroup          identifier.Nid
}

func (c LogicCoordinate) pack(buffer []byte) []byte {
	buffer = append(buffer, 'G')
	for _, n := range []identifier.Nid{c.StatedAssemblage, c.InferredAssemblage, c.Classifier, c.DescriptionProfile, c.RoleGroup} {
		buffer = util.AppendInt32(buffer, int32(n))
	}
	return buffer
}

// Digest - sha3 over the canonical form
func (c LogicCoordinate) Digest() Digest {
	return sha3.Sum256(c.pack(nil))
}

// Premise - which logic view a taxonomy follows
type Premise byte

// the premises
const (
	Stated   Premise = 1
	Inferred Premise = 2
)

func (p Premise) String() string {
	if Stated == p {
		return "STATED"
	}
	return "INFERRED"
}

// TaxonomyCoordinate - a complete view for taxonomy navigation
type TaxonomyCoordinate struct {
	Premise  Premise
	Stamp    StampCoordinate
	Language LanguageCoordinate
	Logic    LogicCoordinate
}

// Assemblage - the taxonomy assemblage the premise selects
func (c TaxonomyCoordinate) Assemblage() identifier.Nid {
	if Stated == c.Premise {
		return c.Logic.StatedAssemblage
	}
	return c.Logic.InferredAssemblage
}

// WithPremise - a copy following the other view
func (c TaxonomyCoordinate) WithPremise(p Premise) TaxonomyCoordinate {
	c.Premise = p
	return c
}

// Digest - sha3 over all components
func (c TaxonomyCoordinate) Digest() Digest {
	buffer := []byte{'T', byte(c.Premise)}
	buffer = c.Stamp.pack(buffer)
	buffer = c.Language.pack(buffer)
	buffer = c.Logic.pack(buffer)
	return sha3.Sum256(buffer)
}

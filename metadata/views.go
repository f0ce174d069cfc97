// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package metadata

import (
	"context"

	"github.com/bitmark-inc/termstore/chronicle"
	"github.com/bitmark-inc/termstore/coordinate"
	"github.com/bitmark-inc/termstore/datastore"
	"github.com/bitmark-inc/termstore/identifier"
	"github.com/bitmark-inc/termstore/stamp"
)

// StampCoordinate - latest on the development path, active only
func (c *Concepts) StampCoordinate() coordinate.StampCoordinate {
	return coordinate.NewStampCoordinate(
		coordinate.PathPrecedence,
		coordinate.Position{Time: coordinate.Latest, Path: c.DevelopmentPath},
		nil,
		[]stamp.Status{stamp.Active},
	)
}

// LanguageCoordinate - US English, regular name first
func (c *Concepts) LanguageCoordinate() coordinate.LanguageCoordinate {
	return coordinate.NewLanguageCoordinate(
		c.English,
		[]identifier.Nid{c.USDialect, c.GBDialect},
		[]identifier.Nid{c.RegularName, c.FullyQualifiedName, c.Definition},
	)
}

// LogicCoordinate - the stated and inferred logic assemblages
func (c *Concepts) LogicCoordinate() coordinate.LogicCoordinate {
	return coordinate.LogicCoordinate{
		StatedAssemblage:   c.StatedLogic,
		InferredAssemblage: c.InferredLogic,
		Classifier:         c.StructuralClassifier,
		DescriptionProfile: c.DescriptionProfile,
		RoleGroup:          c.RoleGroup,
	}
}

// TaxonomyAssemblage - the taxonomy assemblage of a logic assemblage
func (c *Concepts) TaxonomyAssemblage(logicAssemblage identifier.Nid) identifier.Nid {
	if c.StatedLogic == logicAssemblage {
		return c.StatedTaxonomy
	}
	return c.InferredTaxonomy
}

// Dialects - acceptability of descriptions from dialect membership
// semantics stored in the datastore
type Dialects struct {
	store    *datastore.Store
	concepts *Concepts
}

// NewDialects - acceptability source for coordinate.SpecifiedDescription
func NewDialects(store *datastore.Store, concepts *Concepts) *Dialects {
	return &Dialects{store: store, concepts: concepts}
}

// Acceptability - the latest active membership of description in dialect
func (d *Dialects) Acceptability(dialect identifier.Nid, description identifier.Nid, calc *coordinate.Calculator) (coordinate.Acceptability, error) {
	result := coordinate.NotAcceptable
	err := d.store.ForEachSemanticOfComponent(context.Background(), description, func(c *chronicle.Chronicle) error {
		if dialect != c.Envelope().Assemblage || chronicle.ComponentNidKind != c.Kind() {
			return nil
		}
		v, found, err := calc.Latest(c)
		if nil != err || !found {
			return err
		}
		st, found, err := d.store.Stamps().Get(v.Sequence())
		if nil != err || !found || stamp.Active != st.Status {
			return err
		}
		switch v.Payload().(chronicle.ComponentNidPayload).Component {
		case d.concepts.Preferred:
			result = coordinate.Preferred
		case d.concepts.Acceptable:
			if coordinate.NotAcceptable == result {
				result = coordinate.Acceptable
			}
		}
		return nil
	})
	return result, err
}

// Descriptions - description chronicles of a concept
func Descriptions(ctx context.Context, store *datastore.Store, concept identifier.Nid) ([]*chronicle.Chronicle, error) {
	descriptions := []*chronicle.Chronicle{}
	err := store.ForEachSemanticOfComponent(ctx, concept, func(c *chronicle.Chronicle) error {
		if chronicle.DescriptionKind == c.Kind() {
			descriptions = append(descriptions, c)
		}
		return nil
	})
	return descriptions, err
}

// PreferredName - display text of a concept, falling back to its nid
func PreferredName(ctx context.Context, store *datastore.Store, c *Concepts, concept identifier.Nid, language coordinate.LanguageCoordinate, calc *coordinate.Calculator) (string, error) {
	descriptions, err := Descriptions(ctx, store, concept)
	if nil != err {
		return "", err
	}
	d, found, err := coordinate.SpecifiedDescription(descriptions, language, calc, NewDialects(store, c))
	if nil != err {
		return "", err
	}
	if !found {
		return concept.String(), nil
	}
	return d.Payload.Text, nil
}

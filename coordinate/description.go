// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package coordinate

import (
	"sort"

	"github.com/bitmark-inc/termstore/chronicle"
	"github.com/bitmark-inc/termstore/identifier"
)

// Acceptability - how a dialect regards a description
type Acceptability byte

// the acceptabilities, in rank order
const (
	NotAcceptable Acceptability = 0
	Preferred     Acceptability = 1
	Acceptable    Acceptability = 2
)

func (a Acceptability) String() string {
	switch a {
	case Preferred:
		return "PREFERRED"
	case Acceptable:
		return "ACCEPTABLE"
	default:
		return "NOT_ACCEPTABLE"
	}
}

// AcceptabilitySource - dialect membership of descriptions
type AcceptabilitySource interface {
	Acceptability(dialect identifier.Nid, description identifier.Nid, calc *Calculator) (Acceptability, error)
}

// Description - a resolved description
type Description struct {
	Nid     identifier.Nid
	Version chronicle.Version
	Payload chronicle.DescriptionPayload
}

// SpecifiedDescription - the first description matching the preferences
//
// types are walked in order; within a type, dialects are walked in
// order and a PREFERRED description beats an ACCEPTABLE one in the same
// dialect; with no dialects any matching description is taken; ties
// go to the lowest nid
func SpecifiedDescription(descriptions []*chronicle.Chronicle, language LanguageCoordinate, calc *Calculator, acceptability AcceptabilitySource) (Description, bool, error) {
	candidates := make([]Description, 0, len(descriptions))
	for _, c := range descriptions {
		if chronicle.DescriptionKind != c.Kind() {
			continue
		}
		v, found, err := calc.Latest(c)
		if nil != err {
			return Description{}, false, err
		}
		if !found {
			continue
		}
		payload := v.Payload().(chronicle.DescriptionPayload)
		if identifier.NoNid != language.language && payload.Language != language.language {
			continue
		}
		candidates = append(candidates, Description{Nid: c.Nid(), Version: v, Payload: payload})
	}
	sort.Slice(candidates, func(i, j int) bool { return candidates[i].Nid < candidates[j].Nid })

	for _, descriptionType := range language.descriptionTypes {
		ofType := []Description{}
		for _, d := range candidates {
			if d.Payload.Type == descriptionType {
				ofType = append(ofType, d)
			}
		}
		if 0 == len(ofType) {
			continue
		}
		if 0 == len(language.dialects) || nil == acceptability {
			return ofType[0], true, nil
		}

		for _, dialect := range language.dialects {
			best := -1
			bestRank := NotAcceptable
			for i, d := range ofType {
				a, err := acceptability.Acceptability(dialect, d.Nid, calc)
				if nil != err {
					return Description{}, false, err
				}
				if NotAcceptable != a && (best < 0 || a < bestRank) {
					best = i
					bestRank = a
				}
			}
			if best >= 0 {
				return ofType[best], true, nil
			}
		}
	}
	return Description{}, false, nil
}

// PreferredName - a description of the regular name type
func PreferredName(descriptions []*chronicle.Chronicle, language LanguageCoordinate, regularName identifier.Nid, calc *Calculator, acceptability AcceptabilitySource) (string, bool, error) {
	d, found, err := SpecifiedDescription(descriptions, language.WithDescriptionTypes(regularName), calc, acceptability)
	return d.Payload.Text, found, err
}

// FullyQualifiedName - a description of the fully specified type
func FullyQualifiedName(descriptions []*chronicle.Chronicle, language LanguageCoordinate, fullySpecified identifier.Nid, calc *Calculator, acceptability AcceptabilitySource) (string, bool, error) {
	d, found, err := SpecifiedDescription(descriptions, language.WithDescriptionTypes(fullySpecified), calc, acceptability)
	return d.Payload.Text, found, err
}

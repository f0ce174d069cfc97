// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package classifier

import (
	"github.com/bitmark-inc/logger"
	"github.com/bitmark-inc/termstore/fault"
	"github.com/bitmark-inc/termstore/identifier"
	"github.com/bitmark-inc/termstore/logic"
)

// Translator - turns stated definitions into axioms
type Translator struct {
	roleGroup  identifier.Nid
	neverGroup map[identifier.Nid]struct{}
	log        *logger.L
}

// NewTranslator - roles in neverGroup are not wrapped in a role group
func NewTranslator(roleGroup identifier.Nid, neverGroup []identifier.Nid, log *logger.L) *Translator {
	t := &Translator{
		roleGroup:  roleGroup,
		neverGroup: make(map[identifier.Nid]struct{}, len(neverGroup)),
		log:        log,
	}
	for _, r := range neverGroup {
		t.neverGroup[r] = struct{}{}
	}
	return t
}

// Translate - the axioms of one definition
//
// a necessary set gives concept <= set; a sufficient set also gives
// set <= concept; universal restrictions are outside EL++ and are
// skipped with a warning
func (t *Translator) Translate(e *logic.Expression) ([]Axiom, error) {
	concept := Named{Concept: e.Concept()}
	root := e.Node(e.Root())

	axioms := []Axiom{}
	for _, setIndex := range root.Children {
		set := e.Node(setIndex)
		if 1 != len(set.Children) {
			return nil, fault.ExpressionMalformed
		}
		class, err := t.conjunction(e, set.Children[0], true)
		if nil != err {
			return nil, err
		}
		if nil == class {
			continue
		}
		switch set.Semantic {
		case logic.NecessarySet:
			axioms = append(axioms, Axiom{Sub: concept, Super: class})
		case logic.SufficientSet:
			axioms = append(axioms, Axiom{Sub: concept, Super: class}, Axiom{Sub: class, Super: concept})
		default:
			return nil, fault.ExpressionMalformed
		}
	}
	return axioms, nil
}

// conjunction of an AND node, nil if every child was skipped
//
// only the AND directly under a set is role grouped
func (t *Translator) conjunction(e *logic.Expression, index int, group bool) (Class, error) {
	node := e.Node(index)
	if logic.And != node.Semantic {
		return nil, fault.ExpressionMalformed
	}

	operands := []Class{}
	grouped := []Class{}
	for _, childIndex := range node.Children {
		child := e.Node(childIndex)
		switch child.Semantic {
		case logic.Concept:
			operands = append(operands, Named{Concept: child.Concept})
		case logic.RoleSome:
			class, err := t.role(e, childIndex)
			if nil != err {
				return nil, err
			}
			if nil == class {
				continue
			}
			if _, never := t.neverGroup[child.Concept]; !group || never || t.roleGroup == child.Concept {
				operands = append(operands, class)
			} else {
				grouped = append(grouped, class)
			}
		case logic.RoleAll:
			t.log.Warnf("concept: %d  universal restriction on role: %d skipped", e.Concept(), child.Concept)
		default:
			return nil, fault.ExpressionMalformed
		}
	}
	if len(grouped) > 0 {
		operands = append(operands, Existential{Role: t.roleGroup, Filler: conjoin(grouped)})
	}
	if 0 == len(operands) {
		return nil, nil
	}
	return conjoin(operands), nil
}

// existential of a ROLE_SOME node, nil if its filler was skipped
func (t *Translator) role(e *logic.Expression, index int) (Class, error) {
	node := e.Node(index)
	if 1 != len(node.Children) {
		return nil, fault.ExpressionMalformed
	}
	fillerIndex := node.Children[0]
	filler := e.Node(fillerIndex)

	var class Class
	switch filler.Semantic {
	case logic.Concept:
		class = Named{Concept: filler.Concept}
	case logic.And:
		c, err := t.conjunction(e, fillerIndex, false)
		if nil != err || nil == c {
			return nil, err
		}
		class = c
	default:
		return nil, fault.ExpressionMalformed
	}
	return Existential{Role: node.Concept, Filler: class}, nil
}

func conjoin(operands []Class) Class {
	if 1 == len(operands) {
		return operands[0]
	}
	return Conjunction{Operands: operands}
}

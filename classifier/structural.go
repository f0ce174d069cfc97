// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package classifier

import (
	"context"
	"sort"
	"sync"

	"github.com/bitmark-inc/termstore/fault"
	"github.com/bitmark-inc/termstore/identifier"
)

// an internal class, named or introduced by normalisation
type atom int

// normal forms:
//   all of lhs <= rhs
//   lhs <= some role.rhs
//   some role.lhs <= rhs
type conjunctionRule struct {
	lhs []atom
	rhs atom
}

type existsRight struct {
	role identifier.Nid
	rhs  atom
}

type roleAtom struct {
	role identifier.Nid
	atom atom
}

type edge struct {
	role   identifier.Nid
	target atom
}

// subsumption job: atom a joined the subsumers of x
type job struct {
	x atom
	a atom
}

// structural - EL++ completion over normalised axioms
//
// saturation is monotone so new axioms extend the existing closure
type structural struct {
	sync.Mutex

	named   map[identifier.Nid]atom
	names   map[atom]identifier.Nid
	count   int
	leftOf  map[string]atom
	rightOf map[string]atom

	conjunctions map[atom][]*conjunctionRule
	existsRight  map[atom][]existsRight
	existsLeft   map[roleAtom][]atom

	subsumers    map[atom]map[atom]struct{}
	successors   map[atom][]edge
	predecessors map[atom][]edge
	edges        map[atom]map[edge]struct{}

	queue   []job
	defined map[identifier.Nid]struct{} // left hand concepts since the last Classify
	parents map[identifier.Nid][]identifier.Nid
}

// NewStructuralReasoner - the built in reasoner
func NewStructuralReasoner() Reasoner {
	return &structural{
		named:        make(map[identifier.Nid]atom),
		names:        make(map[atom]identifier.Nid),
		leftOf:       make(map[string]atom),
		rightOf:      make(map[string]atom),
		conjunctions: make(map[atom][]*conjunctionRule),
		existsRight:  make(map[atom][]existsRight),
		existsLeft:   make(map[roleAtom][]atom),
		subsumers:    make(map[atom]map[atom]struct{}),
		successors:   make(map[atom][]edge),
		predecessors: make(map[atom][]edge),
		edges:        make(map[atom]map[edge]struct{}),
		defined:      make(map[identifier.Nid]struct{}),
		parents:      make(map[identifier.Nid][]identifier.Nid),
	}
}

func (s *structural) fresh() atom {
	s.count += 1
	a := atom(s.count)
	s.subsumers[a] = map[atom]struct{}{}
	s.push(a, a)
	return a
}

func (s *structural) namedAtom(n identifier.Nid) atom {
	if a, ok := s.named[n]; ok {
		return a
	}
	a := s.fresh()
	s.named[n] = a
	s.names[a] = n
	return a
}

func (s *structural) push(x atom, a atom) {
	if _, ok := s.subsumers[x][a]; ok {
		return
	}
	s.subsumers[x][a] = struct{}{}
	s.queue = append(s.queue, job{x: x, a: a})
}

// Load - normalise and index axioms, existing closures are extended
func (s *structural) Load(axioms []Axiom) error {
	s.Lock()
	defer s.Unlock()
	for _, a := range axioms {
		if n, ok := a.Sub.(Named); ok {
			s.defined[n.Concept] = struct{}{}
		}
		lhs, err := s.left(a.Sub)
		if nil != err {
			return err
		}
		err = s.right(lhs, a.Super)
		if nil != err {
			return err
		}
	}
	return nil
}

// an atom equivalent to or below c, for use on the left of an axiom
func (s *structural) left(c Class) (atom, error) {
	switch c := c.(type) {
	case Named:
		return s.namedAtom(c.Concept), nil
	}
	if a, ok := s.leftOf[c.key()]; ok {
		return a, nil
	}

	var result atom
	switch c := c.(type) {
	case Conjunction:
		lhs := make([]atom, 0, len(c.Operands))
		for _, o := range c.Operands {
			a, err := s.left(o)
			if nil != err {
				return 0, err
			}
			lhs = append(lhs, a)
		}
		result = s.fresh()
		s.addConjunction(lhs, result)
	case Existential:
		filler, err := s.left(c.Filler)
		if nil != err {
			return 0, err
		}
		result = s.fresh()
		s.addExistsLeft(c.Role, filler, result)
	default:
		return 0, fault.UnsupportedConstructor
	}
	s.leftOf[c.key()] = result
	return result, nil
}

// add lhs <= c
func (s *structural) right(lhs atom, c Class) error {
	switch c := c.(type) {
	case Named:
		s.addConjunction([]atom{lhs}, s.namedAtom(c.Concept))
	case Conjunction:
		for _, o := range c.Operands {
			if err := s.right(lhs, o); nil != err {
				return err
			}
		}
	case Existential:
		filler, err := s.rightAtom(c.Filler)
		if nil != err {
			return err
		}
		s.addExistsRight(lhs, c.Role, filler)
	default:
		return fault.UnsupportedConstructor
	}
	return nil
}

// an atom equivalent to or above c, for use as an existential filler
func (s *structural) rightAtom(c Class) (atom, error) {
	if n, ok := c.(Named); ok {
		return s.namedAtom(n.Concept), nil
	}
	if a, ok := s.rightOf[c.key()]; ok {
		return a, nil
	}
	a := s.fresh()
	s.rightOf[c.key()] = a
	return a, s.right(a, c)
}

func (s *structural) addConjunction(lhs []atom, rhs atom) {
	rule := &conjunctionRule{lhs: lhs, rhs: rhs}
	for _, a := range lhs {
		s.conjunctions[a] = append(s.conjunctions[a], rule)
	}
	// existing closures that already satisfy the rule
	for x, set := range s.subsumers {
		if containsAll(set, lhs) {
			s.push(x, rhs)
		}
	}
}

func (s *structural) addExistsRight(lhs atom, role identifier.Nid, rhs atom) {
	s.existsRight[lhs] = append(s.existsRight[lhs], existsRight{role: role, rhs: rhs})
	for x, set := range s.subsumers {
		if _, ok := set[lhs]; ok {
			s.link(x, role, rhs)
		}
	}
}

func (s *structural) addExistsLeft(role identifier.Nid, filler atom, rhs atom) {
	key := roleAtom{role: role, atom: filler}
	s.existsLeft[key] = append(s.existsLeft[key], rhs)
	for y, set := range s.subsumers {
		if _, ok := set[filler]; !ok {
			continue
		}
		for _, e := range s.predecessors[y] {
			if e.role == role {
				s.push(e.target, rhs)
			}
		}
	}
}

// record x --role--> y and apply existing left existentials
func (s *structural) link(x atom, role identifier.Nid, y atom) {
	e := edge{role: role, target: y}
	if _, ok := s.edges[x][e]; ok {
		return
	}
	if nil == s.edges[x] {
		s.edges[x] = map[edge]struct{}{}
	}
	s.edges[x][e] = struct{}{}
	s.successors[x] = append(s.successors[x], e)
	s.predecessors[y] = append(s.predecessors[y], edge{role: role, target: x})

	for a := range s.subsumers[y] {
		for _, b := range s.existsLeft[roleAtom{role: role, atom: a}] {
			s.push(x, b)
		}
	}
}

func (s *structural) saturate(ctx context.Context) error {
	for n := 0; len(s.queue) > 0; n += 1 {
		if 0 == n%1024 && nil != ctx.Err() {
			return fault.CancelledByContext
		}
		j := s.queue[0]
		s.queue = s.queue[1:]

		for _, rule := range s.conjunctions[j.a] {
			if containsAll(s.subsumers[j.x], rule.lhs) {
				s.push(j.x, rule.rhs)
			}
		}
		for _, r := range s.existsRight[j.a] {
			s.link(j.x, r.role, r.rhs)
		}
		for _, p := range s.predecessors[j.x] {
			for _, b := range s.existsLeft[roleAtom{role: p.role, atom: j.a}] {
				s.push(p.target, b)
			}
		}
	}
	return nil
}

// Classify - saturate and report changed and newly defined concepts
func (s *structural) Classify(ctx context.Context) ([]identifier.Nid, error) {
	s.Lock()
	defer s.Unlock()

	err := s.saturate(ctx)
	if nil != err {
		return nil, err
	}

	affected := map[identifier.Nid]struct{}{}
	for n := range s.defined {
		affected[n] = struct{}{}
	}
	for n, a := range s.named {
		parents := s.directParents(a)
		if !equalNids(parents, s.parents[n]) {
			affected[n] = struct{}{}
		}
		s.parents[n] = parents
	}
	s.defined = make(map[identifier.Nid]struct{})

	result := make([]identifier.Nid, 0, len(affected))
	for n := range affected {
		result = append(result, n)
	}
	sort.Slice(result, func(i, j int) bool { return result[i] < result[j] })
	return result, nil
}

// named strict subsumers, equivalent concepts excluded
func (s *structural) strict(a atom) []atom {
	result := []atom{}
	for b := range s.subsumers[a] {
		if b == a {
			continue
		}
		if _, named := s.names[b]; !named {
			continue
		}
		if _, equivalent := s.subsumers[b][a]; equivalent {
			continue
		}
		result = append(result, b)
	}
	return result
}

func (s *structural) directParents(a atom) []identifier.Nid {
	candidates := s.strict(a)
	parents := []identifier.Nid{}
	for _, p := range candidates {
		direct := true
		for _, q := range candidates {
			if p == q {
				continue
			}
			_, below := s.subsumers[q][p]
			_, equivalent := s.subsumers[p][q]
			if below && !equivalent {
				direct = false
				break
			}
		}
		if direct {
			parents = append(parents, s.names[p])
		}
	}
	sort.Slice(parents, func(i, j int) bool { return parents[i] < parents[j] })
	return parents
}

// Parents - direct parents as of the last Classify
func (s *structural) Parents(concept identifier.Nid) []identifier.Nid {
	s.Lock()
	defer s.Unlock()
	return append([]identifier.Nid(nil), s.parents[concept]...)
}

func containsAll(set map[atom]struct{}, atoms []atom) bool {
	for _, a := range atoms {
		if _, ok := set[a]; !ok {
			return false
		}
	}
	return true
}

func equalNids(a []identifier.Nid, b []identifier.Nid) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

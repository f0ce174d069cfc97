// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package logic

import (
	"sync"

	"github.com/bitmark-inc/termstore/fault"
	"github.com/bitmark-inc/termstore/identifier"
)

// Ref - a node under construction
type Ref int

// Builder - assembles exactly one Expression
//
//   b := logic.NewBuilder(concept)
//   b.NecessarySet(b.And(b.Concept(parent), b.Some(role, b.Concept(value))))
//   expression, err := b.Build()
type Builder struct {
	sync.Mutex
	concept identifier.Nid
	nodes   []Node
	built   bool
}

// NewBuilder - start a definition of concept
func NewBuilder(concept identifier.Nid) *Builder {
	return &Builder{
		concept: concept,
		nodes: []Node{
			{Semantic: DefinitionRoot, Concept: identifier.NoNid},
		},
	}
}

func (b *Builder) add(semantic NodeSemantic, concept identifier.Nid, children ...Ref) Ref {
	b.Lock()
	defer b.Unlock()

	n := Node{
		Semantic: semantic,
		Concept:  concept,
	}
	for _, c := range children {
		n.Children = append(n.Children, int(c))
	}
	b.nodes = append(b.nodes, n)
	return Ref(len(b.nodes) - 1)
}

// Concept - a named concept
func (b *Builder) Concept(concept identifier.Nid) Ref {
	return b.add(Concept, concept)
}

// And - conjunction
func (b *Builder) And(children ...Ref) Ref {
	return b.add(And, identifier.NoNid, children...)
}

// Some - existential restriction over role
func (b *Builder) Some(role identifier.Nid, restriction Ref) Ref {
	return b.add(RoleSome, role, restriction)
}

// All - universal restriction over role
func (b *Builder) All(role identifier.Nid, restriction Ref) Ref {
	return b.add(RoleAll, role, restriction)
}

// NecessarySet - attach a necessary condition to the root
func (b *Builder) NecessarySet(and Ref) Ref {
	return b.attach(NecessarySet, and)
}

// SufficientSet - attach a necessary and sufficient condition to the root
func (b *Builder) SufficientSet(and Ref) Ref {
	return b.attach(SufficientSet, and)
}

func (b *Builder) attach(semantic NodeSemantic, and Ref) Ref {
	r := b.add(semantic, identifier.NoNid, and)
	b.Lock()
	b.nodes[0].Children = append(b.nodes[0].Children, int(r))
	b.Unlock()
	return r
}

// Build - validate and return the expression
//
// a builder yields one expression only; later calls fail
func (b *Builder) Build() (*Expression, error) {
	b.Lock()
	defer b.Unlock()

	if b.built {
		return nil, fault.ExpressionAlreadyBuilt
	}

	err := validate(b.nodes)
	if nil != err {
		return nil, err
	}
	b.built = true

	nodes := make([]Node, len(b.nodes))
	for i, n := range b.nodes {
		nodes[i] = Node{
			Semantic: n.Semantic,
			Concept:  n.Concept,
			Children: append([]int(nil), n.Children...),
		}
	}
	return &Expression{
		concept: b.concept,
		nodes:   nodes,
	}, nil
}

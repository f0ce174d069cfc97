// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package logic holds concept definitions as node arrays rooted at a
// definition root
package logic

import (
	"fmt"
	"sort"
	"strings"

	"github.com/bitmark-inc/termstore/fault"
	"github.com/bitmark-inc/termstore/identifier"
	"github.com/bitmark-inc/termstore/util"
)

// NodeSemantic - the meaning of a node
type NodeSemantic byte

// node semantics
const (
	DefinitionRoot NodeSemantic = iota + 1
	NecessarySet
	SufficientSet
	And
	Concept
	RoleSome
	RoleAll
)

var semanticNames = map[NodeSemantic]string{
	DefinitionRoot: "DEFINITION_ROOT",
	NecessarySet:   "NECESSARY_SET",
	SufficientSet:  "SUFFICIENT_SET",
	And:            "AND",
	Concept:        "CONCEPT",
	RoleSome:       "ROLE_SOME",
	RoleAll:        "ROLE_ALL",
}

func (s NodeSemantic) String() string {
	if name, ok := semanticNames[s]; ok {
		return name
	}
	return fmt.Sprintf("SEMANTIC(%d)", byte(s))
}

// Node - one element of an expression
//
// Concept is the concept of a CONCEPT node and the role type of a
// ROLE_SOME or ROLE_ALL node, otherwise NoNid
type Node struct {
	Semantic NodeSemantic
	Concept  identifier.Nid
	Children []int
}

// Expression - an immutable concept definition
type Expression struct {
	concept identifier.Nid
	nodes   []Node
}

// Concept - the concept this expression defines
func (e *Expression) Concept() identifier.Nid {
	return e.concept
}

// NodeCount - number of nodes including the root
func (e *Expression) NodeCount() int {
	return len(e.nodes)
}

// Node - a copy of the node at index
func (e *Expression) Node(index int) Node {
	n := e.nodes[index]
	n.Children = append([]int(nil), n.Children...)
	return n
}

// Root - index of the definition root
func (e *Expression) Root() int {
	return 0
}

// ReferencedConcepts - sorted distinct concepts and role types used
func (e *Expression) ReferencedConcepts() []identifier.Nid {
	seen := make(map[identifier.Nid]struct{})
	for _, n := range e.nodes {
		switch n.Semantic {
		case Concept, RoleSome, RoleAll:
			seen[n.Concept] = struct{}{}
		}
	}
	result := make([]identifier.Nid, 0, len(seen))
	for nid := range seen {
		result = append(result, nid)
	}
	sort.Slice(result, func(i, j int) bool { return result[i] < result[j] })
	return result
}

// DirectConcepts - concepts directly under the AND of each set, the
// stated parents of the defined concept
func (e *Expression) DirectConcepts() []identifier.Nid {
	if nil == e {
		return nil
	}
	result := []identifier.Nid{}
	for _, set := range e.nodes[0].Children {
		for _, and := range e.nodes[set].Children {
			for _, child := range e.nodes[and].Children {
				if Concept == e.nodes[child].Semantic {
					result = append(result, e.nodes[child].Concept)
				}
			}
		}
	}
	return result
}

// Equal - same concept and identical node arrays
func (e *Expression) Equal(other *Expression) bool {
	if nil == e || nil == other {
		return e == other
	}
	if e.concept != other.concept || len(e.nodes) != len(other.nodes) {
		return false
	}
	for i := range e.nodes {
		a := e.nodes[i]
		b := other.nodes[i]
		if a.Semantic != b.Semantic || a.Concept != b.Concept || len(a.Children) != len(b.Children) {
			return false
		}
		for j := range a.Children {
			if a.Children[j] != b.Children[j] {
				return false
			}
		}
	}
	return true
}

// String - indented rendering for logs and the admin tool
func (e *Expression) String() string {
	var b strings.Builder
	var walk func(index int, depth int)
	walk = func(index int, depth int) {
		n := e.nodes[index]
		b.WriteString(strings.Repeat("  ", depth))
		b.WriteString(n.Semantic.String())
		switch n.Semantic {
		case Concept, RoleSome, RoleAll:
			fmt.Fprintf(&b, " %d", n.Concept)
		case DefinitionRoot:
			fmt.Fprintf(&b, " of %d", e.concept)
		}
		b.WriteString("\n")
		for _, c := range n.Children {
			walk(c, depth+1)
		}
	}
	walk(0, 0)
	return b.String()
}

// check the profile shape: the root holds sets, each set holds one
// AND, an AND holds concepts and roles, a role holds one AND or concept
func validate(nodes []Node) error {
	for _, n := range nodes {
		if _, ok := semanticNames[n.Semantic]; !ok {
			return fault.UnknownNodeSemantic
		}
	}
	if 0 == len(nodes) || DefinitionRoot != nodes[0].Semantic {
		return fault.ExpressionEmpty
	}
	if 0 == len(nodes[0].Children) {
		return fault.ExpressionEmpty
	}

	parents := make([]int, len(nodes))
	for i := range parents {
		parents[i] = -1
	}

	for i, n := range nodes {
		for _, c := range n.Children {
			if c <= 0 || c >= len(nodes) || -1 != parents[c] {
				return fault.ExpressionMalformed
			}
			parents[c] = i
			child := nodes[c].Semantic
			ok := false
			switch n.Semantic {
			case DefinitionRoot:
				ok = NecessarySet == child || SufficientSet == child
			case NecessarySet, SufficientSet:
				ok = And == child && 1 == len(n.Children)
			case And:
				ok = Concept == child || RoleSome == child || RoleAll == child
			case RoleSome, RoleAll:
				ok = (And == child || Concept == child) && 1 == len(n.Children)
			}
			if !ok {
				return fault.ExpressionMalformed
			}
		}
		switch n.Semantic {
		case DefinitionRoot:
			if 0 != i {
				return fault.ExpressionMalformed
			}
		case Concept:
			if 0 != len(n.Children) {
				return fault.ExpressionMalformed
			}
		case NecessarySet, SufficientSet, And, RoleSome, RoleAll:
			if 0 == len(n.Children) {
				return fault.ExpressionMalformed
			}
		default:
			return fault.UnknownNodeSemantic
		}
	}

	for i := 1; i < len(nodes); i += 1 {
		if -1 == parents[i] {
			return fault.ExpressionMalformed
		}
	}
	return nil
}

// current packed format
const packVersion = 1

// Pack - bytes carried by a LOGIC_GRAPH payload
func (e *Expression) Pack() []byte {
	buffer := []byte{packVersion}
	buffer = util.AppendInt32(buffer, int32(e.concept))
	buffer = util.AppendVarint64(buffer, uint64(len(e.nodes)))
	for _, n := range e.nodes {
		buffer = append(buffer, byte(n.Semantic))
		buffer = util.AppendInt32(buffer, int32(n.Concept))
		buffer = util.AppendVarint64(buffer, uint64(len(n.Children)))
		for _, c := range n.Children {
			buffer = util.AppendVarint64(buffer, uint64(c))
		}
	}
	return buffer
}

// Unpack - inverse of Pack, the result is validated
func Unpack(buffer []byte) (*Expression, error) {
	r := util.NewReader(buffer)
	if packVersion != r.Byte() {
		if nil != r.Err() {
			return nil, r.Err()
		}
		return nil, fault.UnknownFormatVersion
	}
	concept := identifier.Nid(r.Int32())
	count := r.Varint64()
	if nil != r.Err() {
		return nil, r.Err()
	}
	if count > uint64(r.Remaining()) {
		return nil, fault.RecordTruncated
	}

	nodes := make([]Node, 0, count)
	for i := uint64(0); i < count; i += 1 {
		n := Node{
			Semantic: NodeSemantic(r.Byte()),
			Concept:  identifier.Nid(r.Int32()),
		}
		children := r.Varint64()
		if nil != r.Err() {
			return nil, r.Err()
		}
		if children > uint64(r.Remaining()) {
			return nil, fault.RecordTruncated
		}
		if children > 0 {
			n.Children = make([]int, children)
			for j := range n.Children {
				n.Children[j] = int(r.Varint64())
			}
		}
		nodes = append(nodes, n)
	}
	if nil != r.Err() {
		return nil, r.Err()
	}
	if 0 != r.Remaining() {
		return nil, fault.ExpressionMalformed
	}

	err := validate(nodes)
	if nil != err {
		return nil, err
	}
	return &Expression{
		concept: concept,
		nodes:   nodes,
	}, nil
}

// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package taxonomy holds packed is-a adjacency per concept
//
// a record is a sorted set of (destination, stamp sequence, flags)
// int32 triples; records only ever grow, an edge is retracted by a
// later edge with an INACTIVE stamp
package taxonomy

import (
	"sort"
	"strings"

	"github.com/bitmark-inc/termstore/fault"
	"github.com/bitmark-inc/termstore/identifier"
	"github.com/bitmark-inc/termstore/stamp"
	"github.com/bitmark-inc/termstore/util"
)

// Flags - relationship flags of an edge
type Flags int32

// edge flags
const (
	Stated        Flags = 1 << iota // from a stated definition
	Inferred                        // from classification
	Parent                          // destination is a parent
	Child                           // destination is a child
	ConceptStatus                   // destination is the concept itself
	Other                           // non is-a relationship
)

func (f Flags) String() string {
	names := []string{}
	for i, name := range []string{"STATED", "INFERRED", "PARENT", "CHILD", "STATUS", "OTHER"} {
		if 0 != f&(1<<i) {
			names = append(names, name)
		}
	}
	return strings.Join(names, "|")
}

// Edge - one taxonomy triple
type Edge struct {
	Destination identifier.Nid
	Sequence    stamp.Sequence
	Flags       Flags
}

func (e Edge) less(o Edge) bool {
	if e.Destination != o.Destination {
		return e.Destination < o.Destination
	}
	if e.Sequence != o.Sequence {
		return e.Sequence < o.Sequence
	}
	return e.Flags < o.Flags
}

// Record - the adjacency of one concept in one taxonomy assemblage
type Record struct {
	edges []Edge
}

// NewRecord - a record from edges in any order, duplicates removed
func NewRecord(edges ...Edge) Record {
	sorted := append([]Edge(nil), edges...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].less(sorted[j]) })

	unique := sorted[:0]
	for i, e := range sorted {
		if 0 == i || e != sorted[i-1] {
			unique = append(unique, e)
		}
	}
	return Record{edges: unique}
}

// Edges - the triples in sorted order
func (r Record) Edges() []Edge {
	return append([]Edge(nil), r.edges...)
}

// Len - number of triples
func (r Record) Len() int {
	return len(r.edges)
}

// Union - set union of two records
func (r Record) Union(o Record) Record {
	result := make([]Edge, 0, len(r.edges)+len(o.edges))
	i, j := 0, 0
	for i < len(r.edges) && j < len(o.edges) {
		a := r.edges[i]
		b := o.edges[j]
		switch {
		case a == b:
			result = append(result, a)
			i += 1
			j += 1
		case a.less(b):
			result = append(result, a)
			i += 1
		default:
			result = append(result, b)
			j += 1
		}
	}
	result = append(result, r.edges[i:]...)
	result = append(result, o.edges[j:]...)
	return Record{edges: result}
}

// Pack - packed int32 array
func (r Record) Pack() []byte {
	values := make([]int32, 0, 3*len(r.edges))
	for _, e := range r.edges {
		values = append(values, int32(e.Destination), int32(e.Sequence), int32(e.Flags))
	}
	return util.Int32sToBytes(values)
}

// Unpack - inverse of Pack
func Unpack(buffer []byte) (Record, error) {
	if 0 != len(buffer)%12 {
		return Record{}, fault.InvalidTaxonomyRecord
	}
	values := util.BytesToInt32s(buffer)
	edges := make([]Edge, 0, len(values)/3)
	for i := 0; i < len(values); i += 3 {
		edges = append(edges, Edge{
			Destination: identifier.Nid(values[i]),
			Sequence:    stamp.Sequence(values[i+1]),
			Flags:       Flags(values[i+2]),
		})
	}
	return NewRecord(edges...), nil
}

// Merge - merge function for accumulating taxonomy data
//
// commutative and idempotent: the stored result never depends on the
// order deltas arrive in
func Merge(current []byte, delta []byte) ([]byte, error) {
	a, err := Unpack(current)
	if nil != err {
		return nil, err
	}
	b, err := Unpack(delta)
	if nil != err {
		return nil, err
	}
	return a.Union(b).Pack(), nil
}

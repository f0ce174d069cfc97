// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package taxonomy

import (
	"context"
	"sort"

	"github.com/bitmark-inc/termstore/fault"
	"github.com/bitmark-inc/termstore/identifier"
	"github.com/bitmark-inc/termstore/stamp"
)

// Source - read access to stored records
type Source interface {
	TaxonomyRecord(assemblage identifier.Nid, concept identifier.Nid) (Record, bool, error)
}

// Resolver - decides edge visibility under a view of the store
type Resolver interface {
	// IsLatestActive - true if the latest visible of seqs is ACTIVE
	IsLatestActive(seqs []stamp.Sequence) (bool, error)
}

// Snapshot - the taxonomy of one assemblage as seen by a resolver
type Snapshot struct {
	source     Source
	assemblage identifier.Nid
	resolver   Resolver
}

// NewSnapshot - a read only view
func NewSnapshot(source Source, assemblage identifier.Nid, resolver Resolver) *Snapshot {
	return &Snapshot{
		source:     source,
		assemblage: assemblage,
		resolver:   resolver,
	}
}

// Parents - visible parents of concept
func (s *Snapshot) Parents(concept identifier.Nid) ([]identifier.Nid, error) {
	return s.related(concept, Parent)
}

// Children - visible children of concept
func (s *Snapshot) Children(concept identifier.Nid) ([]identifier.Nid, error) {
	return s.related(concept, Child)
}

// destinations whose edges with direction are visible and active
func (s *Snapshot) related(concept identifier.Nid, direction Flags) ([]identifier.Nid, error) {
	r, found, err := s.source.TaxonomyRecord(s.assemblage, concept)
	if nil != err || !found {
		return nil, err
	}

	// edges are sorted by destination so each group is contiguous
	result := []identifier.Nid{}
	edges := r.edges
	for i := 0; i < len(edges); {
		j := i
		seqs := []stamp.Sequence{}
		for ; j < len(edges) && edges[j].Destination == edges[i].Destination; j += 1 {
			if 0 != edges[j].Flags&direction {
				seqs = append(seqs, edges[j].Sequence)
			}
		}
		if len(seqs) > 0 {
			active, err := s.resolver.IsLatestActive(seqs)
			if nil != err {
				return nil, err
			}
			if active {
				result = append(result, edges[i].Destination)
			}
		}
		i = j
	}
	return result, nil
}

// IsKindOf - true if child is parent or a descendant of it
func (s *Snapshot) IsKindOf(ctx context.Context, child identifier.Nid, parent identifier.Nid) (bool, error) {
	if child == parent {
		return true, nil
	}
	found := false
	err := s.walkAncestors(ctx, child, func(n identifier.Nid) bool {
		found = n == parent
		return !found
	})
	return found, err
}

// Ancestors - all visible ancestors in ascending nid order
func (s *Snapshot) Ancestors(ctx context.Context, concept identifier.Nid) ([]identifier.Nid, error) {
	result := []identifier.Nid{}
	err := s.walkAncestors(ctx, concept, func(n identifier.Nid) bool {
		result = append(result, n)
		return true
	})
	if nil != err {
		return nil, err
	}
	sort.Slice(result, func(i, j int) bool { return result[i] < result[j] })
	return result, nil
}

// breadth first over parents, each ancestor visited once
func (s *Snapshot) walkAncestors(ctx context.Context, concept identifier.Nid, f func(identifier.Nid) bool) error {
	seen := map[identifier.Nid]struct{}{concept: {}}
	queue := []identifier.Nid{concept}
	for len(queue) > 0 {
		select {
		case <-ctx.Done():
			return fault.CancelledByContext
		default:
		}

		current := queue[0]
		queue = queue[1:]
		parents, err := s.Parents(current)
		if nil != err {
			return err
		}
		for _, p := range parents {
			if _, ok := seen[p]; ok {
				continue
			}
			seen[p] = struct{}{}
			if !f(p) {
				return nil
			}
			queue = append(queue, p)
		}
	}
	return nil
}

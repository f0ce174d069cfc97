// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package coordinate

import (
	"github.com/bitmark-inc/termstore/chronicle"
	"github.com/bitmark-inc/termstore/identifier"
	"github.com/bitmark-inc/termstore/stamp"
)

// PathSource - where each path branched from its parent paths
type PathSource interface {
	PathOrigins(path identifier.Nid) ([]Position, error)
}

// a path visible from the position, up to limit
type segment struct {
	limit    int64
	distance int // 0 for the position path, +1 per origin hop
}

// Calculator - resolves visibility for one stamp coordinate
//
// a calculator is read only after construction and safe for
// concurrent use
type Calculator struct {
	coordinate StampCoordinate
	stamps     stamp.Source
	route      map[identifier.Nid]segment
}

// NewCalculator - precompute the visible path segments
//
// paths may be nil under ANNOTATION precedence
func NewCalculator(c StampCoordinate, stamps stamp.Source, paths PathSource) (*Calculator, error) {
	calc := &Calculator{
		coordinate: c,
		stamps:     stamps,
	}
	if PathPrecedence != c.precedence {
		return calc, nil
	}

	calc.route = map[identifier.Nid]segment{}
	type step struct {
		path identifier.Nid
		segment
	}
	queue := []step{{path: c.position.Path, segment: segment{limit: c.position.Time}}}
	for len(queue) > 0 {
		s := queue[0]
		queue = queue[1:]

		// a path reached twice keeps the nearest hop and the widest window
		if old, ok := calc.route[s.path]; ok {
			if old.distance <= s.distance && old.limit >= s.limit {
				continue
			}
			if old.distance < s.distance {
				s.distance = old.distance
			}
			if old.limit > s.limit {
				s.limit = old.limit
			}
		}
		calc.route[s.path] = s.segment

		if nil == paths {
			continue
		}
		origins, err := paths.PathOrigins(s.path)
		if nil != err {
			return nil, err
		}
		for _, o := range origins {
			limit := o.Time
			if s.limit < limit {
				limit = s.limit
			}
			queue = append(queue, step{
				path:    o.Path,
				segment: segment{limit: limit, distance: s.distance + 1},
			})
		}
	}
	return calc, nil
}

// Coordinate - the coordinate this calculator resolves
func (calc *Calculator) Coordinate() StampCoordinate {
	return calc.coordinate
}

// rank of a visible stamp, larger is preferred
type rank struct {
	depth    int
	time     int64
	sequence stamp.Sequence
}

func (r rank) greater(o rank) bool {
	if r.depth != o.depth {
		return r.depth > o.depth
	}
	if r.time != o.time {
		return r.time > o.time
	}
	return r.sequence > o.sequence
}

// status filter is not applied here
func (calc *Calculator) visible(seq stamp.Sequence) (stamp.Stamp, rank, bool, error) {
	st, found, err := calc.stamps.Get(seq)
	if nil != err || !found {
		return stamp.Stamp{}, rank{}, false, err
	}
	if !st.IsCommitted() || st.Time > calc.coordinate.position.Time {
		return st, rank{}, false, nil
	}
	if !calc.coordinate.AllowsModule(st.Module) {
		return st, rank{}, false, nil
	}
	r := rank{time: st.Time, sequence: seq}
	if PathPrecedence == calc.coordinate.precedence {
		s, ok := calc.route[st.Path]
		if !ok || st.Time > s.limit {
			return st, rank{}, false, nil
		}
		r.depth = -s.distance
	}
	return st, r, true, nil
}

// IsVisible - true if a version with this stamp can be seen
func (calc *Calculator) IsVisible(seq stamp.Sequence) (bool, error) {
	_, _, ok, err := calc.visible(seq)
	return ok, err
}

// latest of a set of sequences, ignoring the status filter
func (calc *Calculator) latest(seqs []stamp.Sequence) (int, stamp.Stamp, bool, error) {
	best := -1
	bestStamp := stamp.Stamp{}
	bestRank := rank{}
	for i, seq := range seqs {
		st, r, ok, err := calc.visible(seq)
		if nil != err {
			return -1, stamp.Stamp{}, false, err
		}
		if ok && (best < 0 || r.greater(bestRank)) {
			best = i
			bestStamp = st
			bestRank = r
		}
	}
	return best, bestStamp, best >= 0, nil
}

// IsLatestActive - true if the latest visible of seqs is ACTIVE
func (calc *Calculator) IsLatestActive(seqs []stamp.Sequence) (bool, error) {
	_, st, found, err := calc.latest(seqs)
	if nil != err || !found {
		return false, err
	}
	return stamp.Active == st.Status, nil
}

// Latest - the latest visible version of a chronicle
//
// the latest version is chosen first and then the status filter is
// applied, so a component retired before the position is not found
// under an ACTIVE only coordinate
func (calc *Calculator) Latest(c *chronicle.Chronicle) (chronicle.Version, bool, error) {
	versions := c.Versions()
	seqs := make([]stamp.Sequence, len(versions))
	for i, v := range versions {
		seqs[i] = v.Sequence()
	}
	i, st, found, err := calc.latest(seqs)
	if nil != err || !found {
		return chronicle.Version{}, false, err
	}
	if !calc.coordinate.AllowsStatus(st.Status) {
		return chronicle.Version{}, false, nil
	}
	return versions[i], true, nil
}

// LatestStamp - the stamp of the latest visible version
func (calc *Calculator) LatestStamp(c *chronicle.Chronicle) (stamp.Stamp, bool, error) {
	v, found, err := calc.Latest(c)
	if nil != err || !found {
		return stamp.Stamp{}, false, err
	}
	return calc.stamps.Get(v.Sequence())
}

// LatestVersion - one shot resolution for a single chronicle
func LatestVersion(c *chronicle.Chronicle, coordinate StampCoordinate, stamps stamp.Source, paths PathSource) (chronicle.Version, bool, error) {
	calc, err := NewCalculator(coordinate, stamps, paths)
	if nil != err {
		return chronicle.Version{}, false, err
	}
	return calc.Latest(c)
}

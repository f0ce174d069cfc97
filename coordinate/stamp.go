// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package coordinate selects consistent read views of the store
//
// coordinates are immutable values: every With... method returns a
// modified copy and the receiver is never changed
package coordinate

import (
	"encoding/hex"
	"fmt"
	"math"
	"sort"

	"golang.org/x/crypto/sha3"

	"github.com/bitmark-inc/termstore/identifier"
	"github.com/bitmark-inc/termstore/stamp"
	"github.com/bitmark-inc/termstore/util"
)

// Latest - a position time that sees every committed stamp
const Latest int64 = math.MaxInt64

// Precedence - how versions on different paths are ranked
type Precedence byte

// the precedences
const (
	PathPrecedence       Precedence = 1 // only the position path and its origins
	AnnotationPrecedence Precedence = 2 // any path, latest time wins
)

func (p Precedence) String() string {
	switch p {
	case PathPrecedence:
		return "PATH"
	case AnnotationPrecedence:
		return "ANNOTATION"
	default:
		return fmt.Sprintf("PRECEDENCE(%d)", byte(p))
	}
}

// Position - a point on a path
type Position struct {
	Time int64
	Path identifier.Nid
}

// Digest - stable hash identifying a coordinate
type Digest [32]byte

func (d Digest) String() string {
	return hex.EncodeToString(d[:])
}

// StampCoordinate - selects visible stamps
type StampCoordinate struct {
	precedence Precedence
	position   Position
	modules    []identifier.Nid
	statuses   []stamp.Status
}

// NewStampCoordinate - an empty module or status list allows all
func NewStampCoordinate(precedence Precedence, position Position, modules []identifier.Nid, statuses []stamp.Status) StampCoordinate {
	return StampCoordinate{
		precedence: precedence,
		position:   position,
		modules:    sortedNids(modules),
		statuses:   sortedStatuses(statuses),
	}
}

// Precedence - the ranking rule
func (c StampCoordinate) Precedence() Precedence {
	return c.precedence
}

// Position - the read position
func (c StampCoordinate) Position() Position {
	return c.position
}

// Modules - allowed modules, empty for all
func (c StampCoordinate) Modules() []identifier.Nid {
	return append([]identifier.Nid(nil), c.modules...)
}

// Statuses - allowed statuses, empty for all
func (c StampCoordinate) Statuses() []stamp.Status {
	return append([]stamp.Status(nil), c.statuses...)
}

// WithTime - a copy at a different time on the same path
func (c StampCoordinate) WithTime(t int64) StampCoordinate {
	c.position.Time = t
	return c
}

// WithPath - a copy on a different path
func (c StampCoordinate) WithPath(path identifier.Nid) StampCoordinate {
	c.position.Path = path
	return c
}

// WithPrecedence - a copy with a different ranking rule
func (c StampCoordinate) WithPrecedence(p Precedence) StampCoordinate {
	c.precedence = p
	return c
}

// WithModules - a copy with a different module filter
func (c StampCoordinate) WithModules(modules ...identifier.Nid) StampCoordinate {
	c.modules = sortedNids(modules)
	return c
}

// WithStatuses - a copy with a different status filter
func (c StampCoordinate) WithStatuses(statuses ...stamp.Status) StampCoordinate {
	c.statuses = sortedStatuses(statuses)
	return c
}

// AllowsModule - module filter
func (c StampCoordinate) AllowsModule(module identifier.Nid) bool {
	if 0 == len(c.modules) {
		return true
	}
	i := sort.Search(len(c.modules), func(i int) bool { return c.modules[i] >= module })
	return i < len(c.modules) && c.modules[i] == module
}

// AllowsStatus - status filter
func (c StampCoordinate) AllowsStatus(status stamp.Status) bool {
	if 0 == len(c.statuses) {
		return true
	}
	for _, s := range c.statuses {
		if s == status {
			return true
		}
	}
	return false
}

func (c StampCoordinate) pack(buffer []byte) []byte {
	buffer = append(buffer, 'S', byte(c.precedence))
	buffer = util.AppendInt64(buffer, c.position.Time)
	buffer = util.AppendInt32(buffer, int32(c.position.Path))
	buffer = appendNids(buffer, c.modules)
	buffer = util.AppendVarint64(buffer, uint64(len(c.statuses)))
	for _, s := range c.statuses {
		buffer = append(buffer, byte(s))
	}
	return buffer
}

// Digest - sha3 over the canonical form
func (c StampCoordinate) Digest() Digest {
	return sha3.Sum256(c.pack(nil))
}

func (c StampCoordinate) String() string {
	t := "latest"
	if Latest != c.position.Time {
		t = fmt.Sprintf("%d", c.position.Time)
	}
	return fmt.Sprintf("%s@%s path:%d modules:%v statuses:%v", c.precedence, t, c.position.Path, c.modules, c.statuses)
}

func sortedNids(nids []identifier.Nid) []identifier.Nid {
	if 0 == len(nids) {
		return nil
	}
	s := append([]identifier.Nid(nil), nids...)
	sort.Slice(s, func(i, j int) bool { return s[i] < s[j] })
	return s
}

func sortedStatuses(statuses []stamp.Status) []stamp.Status {
	if 0 == len(statuses) {
		return nil
	}
	s := append([]stamp.Status(nil), statuses...)
	sort.Slice(s, func(i, j int) bool { return s[i] < s[j] })
	return s
}

func appendNids(buffer []byte, nids []identifier.Nid) []byte {
	buffer = util.AppendVarint64(buffer, uint64(len(nids)))
	for _, n := range nids {
		buffer = util.AppendInt32(buffer, int32(n))
	}
	return buffer
}

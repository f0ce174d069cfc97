// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package stamp canonicalises (status, time, author, module, path)
// tuples into compact sequences
package stamp

import (
	"encoding/binary"
	"fmt"
	"math"
	"time"

	"github.com/bitmark-inc/termstore/fault"
	"github.com/bitmark-inc/termstore/identifier"
	"github.com/bitmark-inc/termstore/util"
)

// Sequence - compact reference to a stamp
//
// a distinct type from identifier.Nid so the two cannot be mixed
type Sequence int32

// NoSequence - never allocated
const NoSequence Sequence = 0

// Bytes - sortable key form
func (s Sequence) Bytes() []byte {
	return util.SortableInt32(int32(s))
}

// SequenceFromBytes - inverse of Bytes
func SequenceFromBytes(b []byte) (Sequence, error) {
	if 4 != len(b) {
		return NoSequence, fault.InvalidStampSequence
	}
	return Sequence(util.FromSortableInt32(b)), nil
}

// Status - whether a component is active as of a stamp
type Status byte

// the statuses
const (
	Active   Status = 1
	Inactive Status = 2
)

func (s Status) String() string {
	switch s {
	case Active:
		return "ACTIVE"
	case Inactive:
		return "INACTIVE"
	default:
		return fmt.Sprintf("STATUS(%d)", byte(s))
	}
}

// ParseStatus - from the text form
func ParseStatus(s string) (Status, error) {
	switch s {
	case "ACTIVE", "active":
		return Active, nil
	case "INACTIVE", "inactive":
		return Inactive, nil
	default:
		return 0, fault.UnknownStatus
	}
}

// time sentinels
const (
	Uncommitted int64 = math.MaxInt64 // inside an open transaction
	Canceled    int64 = math.MinInt64 // transaction abandoned
)

// Stamp - one bitemporal fact-commit
type Stamp struct {
	Status Status
	Time   int64 // epoch milliseconds or a sentinel
	Author identifier.Nid
	Module identifier.Nid
	Path   identifier.Nid
}

// IsCommitted - true if readers may see versions with this stamp
func (s Stamp) IsCommitted() bool {
	return Uncommitted != s.Time && Canceled != s.Time
}

// Instant - the commit time, zero time for a sentinel
func (s Stamp) Instant() time.Time {
	if !s.IsCommitted() {
		return time.Time{}
	}
	return time.UnixMilli(s.Time).UTC()
}

func (s Stamp) String() string {
	t := ""
	switch s.Time {
	case Uncommitted:
		t = "UNCOMMITTED"
	case Canceled:
		t = "CANCELED"
	default:
		t = s.Instant().Format(time.RFC3339Nano)
	}
	return fmt.Sprintf("%s %s a:%d m:%d p:%d", s.Status, t, s.Author, s.Module, s.Path)
}

// length of a packed stamp
const packedLength = 1 + 8 + 3*4

// Pack - canonical fixed length form, also the content address
func (s Stamp) Pack() []byte {
	buffer := make([]byte, 0, packedLength)
	buffer = append(buffer, byte(s.Status))
	buffer = binary.BigEndian.AppendUint64(buffer, uint64(s.Time)^(1<<63))
	buffer = append(buffer, s.Author.Bytes()...)
	buffer = append(buffer, s.Module.Bytes()...)
	buffer = append(buffer, s.Path.Bytes()...)
	return buffer
}

// Unpack - inverse of Pack
func Unpack(buffer []byte) (Stamp, error) {
	if packedLength != len(buffer) {
		return Stamp{}, fault.RecordTruncated
	}
	status := Status(buffer[0])
	if Active != status && Inactive != status {
		return Stamp{}, fault.UnknownStatus
	}
	return Stamp{
		Status: status,
		Time:   int64(binary.BigEndian.Uint64(buffer[1:9]) ^ (1 << 63)),
		Author: identifier.Nid(util.FromSortableInt32(buffer[9:13])),
		Module: identifier.Nid(util.FromSortableInt32(buffer[13:17])),
		Path:   identifier.Nid(util.FromSortableInt32(buffer[17:21])),
	}, nil
}

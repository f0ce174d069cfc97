// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package chronicle

import (
	"github.com/bitmark-inc/termstore/fault"
	"github.com/bitmark-inc/termstore/identifier"
	"github.com/bitmark-inc/termstore/stamp"
	"github.com/bitmark-inc/termstore/util"
)

// current envelope format
const formatVersion = 1

// stored layout:
//
//   bytes(envelope) ++ [ bytes(version) ]
//
//   envelope = format ++ kind ++ uuid(16) ++ nid ++ assemblage ++ flag [ ++ referenced ]
//   version  = sequence ++ kind specific fields
//
// each record carries a Varint64 length so versions can be merged
// without decoding their payloads

// PackEnvelope - the envelope record
func PackEnvelope(e Envelope) []byte {
	buffer := make([]byte, 0, 32)
	buffer = append(buffer, formatVersion, byte(e.Kind))
	buffer = append(buffer, e.UUID[:]...)
	buffer = util.AppendInt32(buffer, int32(e.Nid))
	buffer = util.AppendInt32(buffer, int32(e.Assemblage))
	if identifier.NoNid == e.Referenced {
		buffer = append(buffer, 0)
	} else {
		buffer = append(buffer, 1)
		buffer = util.AppendInt32(buffer, int32(e.Referenced))
	}
	return buffer
}

// UnpackEnvelope - inverse of PackEnvelope
func UnpackEnvelope(record []byte) (Envelope, error) {
	r := util.NewReader(record)
	format := r.Byte()
	if nil == r.Err() && formatVersion != format {
		return Envelope{}, fault.UnknownFormatVersion
	}
	kind := Kind(r.Byte())
	id := r.Fixed(16)
	e := Envelope{
		Kind:       kind,
		Nid:        identifier.Nid(r.Int32()),
		Assemblage: identifier.Nid(r.Int32()),
		Referenced: identifier.NoNid,
	}
	if 1 == r.Byte() {
		e.Referenced = identifier.Nid(r.Int32())
	}
	if nil != r.Err() {
		return Envelope{}, r.Err()
	}
	if !kind.IsValid() {
		return Envelope{}, fault.UnknownPayloadKind
	}
	copy(e.UUID[:], id)
	return e, nil
}

// PackVersion - one version record
func PackVersion(v Version) []byte {
	buffer := util.AppendInt32(nil, int32(v.sequence))
	return v.payload.pack(buffer)
}

// UnpackVersion - decode one version record of a chronicle of kind
func UnpackVersion(kind Kind, record []byte) (Version, error) {
	r := util.NewReader(record)
	seq := stamp.Sequence(r.Int32())
	if nil != r.Err() {
		return Version{}, r.Err()
	}
	p, err := unpackPayload(kind, r)
	if nil != err {
		return Version{}, err
	}
	if 0 != r.Remaining() {
		return Version{}, fault.RecordTruncated
	}
	return Version{
		sequence: seq,
		payload:  p,
	}, nil
}

// JoinRecords - the stored form of an envelope and version records
func JoinRecords(envelope []byte, versions [][]byte) []byte {
	size := len(envelope) + 2
	for _, v := range versions {
		size += len(v) + 2
	}
	buffer := make([]byte, 0, size)
	buffer = util.AppendBytes(buffer, envelope)
	for _, v := range versions {
		buffer = util.AppendBytes(buffer, v)
	}
	return buffer
}

// SplitRecords - inverse of JoinRecords, payloads are not decoded
func SplitRecords(data []byte) ([]byte, [][]byte, error) {
	r := util.NewReader(data)
	envelope := r.Bytes()
	versions := [][]byte{}
	for nil == r.Err() && r.Remaining() > 0 {
		versions = append(versions, r.Bytes())
	}
	if nil != r.Err() {
		return nil, nil, r.Err()
	}
	return envelope, versions, nil
}

// Pack - the stored form of a chronicle
func (c *Chronicle) Pack() []byte {
	versions := c.Versions()
	records := make([][]byte, len(versions))
	for i, v := range versions {
		records[i] = PackVersion(v)
	}
	return JoinRecords(PackEnvelope(c.envelope), records)
}

// Unpack - decode a stored chronicle
func Unpack(data []byte) (*Chronicle, error) {
	envelopeRecord, records, err := SplitRecords(data)
	if nil != err {
		return nil, err
	}
	envelope, err := UnpackEnvelope(envelopeRecord)
	if nil != err {
		return nil, err
	}

	versions := make([]Version, 0, len(records))
	for _, record := range records {
		v, err := UnpackVersion(envelope.Kind, record)
		if nil != err {
			return nil, err
		}
		versions = append(versions, v)
	}
	return &Chronicle{
		envelope: envelope,
		versions: versions,
	}, nil
}

// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package datastore

import (
	"bytes"
	"sort"

	"github.com/bitmark-inc/termstore/chronicle"
	"github.com/bitmark-inc/termstore/fault"
	"github.com/bitmark-inc/termstore/identifier"
	"github.com/bitmark-inc/termstore/metrics"
	"github.com/bitmark-inc/termstore/util"
)

// key of a chronicle within the chronicle pool
func chronicleKey(assemblage identifier.Nid, nid identifier.Nid) []byte {
	return append(assemblage.Bytes(), nid.Bytes()...)
}

// PutChronologyData - merge a chronicle into the store
//
// the stored version set becomes the union of stored and written
// version records, compared byte for byte; a different envelope for
// the same nid is a consistency error and the key is left unchanged
func (s *Store) PutChronologyData(c *chronicle.Chronicle) error {
	err := s.putChronologyData(c)
	metrics.ChroniclesWritten.WithLabelValues(metrics.Outcome(err)).Inc()
	return err
}

func (s *Store) putChronologyData(c *chronicle.Chronicle) error {
	envelope := c.Envelope()

	err := s.ids.SetAssemblageForNid(envelope.Nid, envelope.Assemblage)
	if nil != err {
		return err
	}
	err = s.SetObjectType(envelope.Assemblage, envelope.Kind.ObjectType())
	if nil != err {
		return err
	}
	err = s.SetVersionType(envelope.Assemblage, envelope.Kind)
	if nil != err {
		return err
	}

	envelopeRecord, versionRecords, err := chronicle.SplitRecords(c.Pack())
	if nil != err {
		return err
	}

	key := chronicleKey(envelope.Assemblage, envelope.Nid)
	_, err = s.db.Pool.Chronicles.Update(key, func(current []byte) ([]byte, error) {
		return mergeChronology(current, envelopeRecord, versionRecords)
	})
	if nil != err {
		s.log.Errorf("put nid: %d  error: %s", envelope.Nid, err)
		return err
	}

	if identifier.NoNid != envelope.Referenced {
		err = s.addReverseIndex(envelope.Referenced, envelope.Nid)
		if nil != err {
			return err
		}
	}
	return nil
}

// union of version records, current is nil for a new key
func mergeChronology(current []byte, envelope []byte, versions [][]byte) ([]byte, error) {
	if nil == current {
		return chronicle.JoinRecords(envelope, uniqueRecords(nil, versions)), nil
	}

	storedEnvelope, stored, err := chronicle.SplitRecords(current)
	if nil != err {
		return nil, err
	}
	if !bytes.Equal(storedEnvelope, envelope) {
		return nil, fault.ChronicleEnvelopeMismatch
	}
	merged := uniqueRecords(stored, versions)
	if len(merged) == len(stored) {
		return current, nil
	}
	return chronicle.JoinRecords(storedEnvelope, merged), nil
}

// append the records of add not already present, keeping order
func uniqueRecords(existing [][]byte, add [][]byte) [][]byte {
	result := append([][]byte(nil), existing...)
	seen := make(map[string]struct{}, len(existing)+len(add))
	for _, r := range existing {
		seen[string(r)] = struct{}{}
	}
	for _, r := range add {
		if _, ok := seen[string(r)]; ok {
			continue
		}
		seen[string(r)] = struct{}{}
		result = append(result, r)
	}
	return result
}

// GetChronologyVersionData - the stored bytes of a chronicle
//
// found is false for an unknown nid
func (s *Store) GetChronologyVersionData(nid identifier.Nid) ([]byte, bool, error) {
	assemblage, found, err := s.ids.AssemblageForNid(nid)
	if nil != err || !found {
		return nil, false, err
	}
	return s.db.Pool.Chronicles.Get(chronicleKey(assemblage, nid))
}

// GetChronicle - decoded form of GetChronologyVersionData
func (s *Store) GetChronicle(nid identifier.Nid) (*chronicle.Chronicle, bool, error) {
	data, found, err := s.GetChronologyVersionData(nid)
	if nil != err || !found {
		return nil, false, err
	}
	c, err := chronicle.Unpack(data)
	if nil != err {
		s.log.Criticalf("nid: %d  undecodable chronicle: %s", nid, err)
		return nil, false, err
	}
	return c, true, nil
}

// insert a referencing semantic into the sorted reverse index
func (s *Store) addReverseIndex(component identifier.Nid, semantic identifier.Nid) error {
	_, err := s.db.Pool.ReverseIndex.Update(component.Bytes(), func(current []byte) ([]byte, error) {
		return insertSorted(current, int32(semantic)), nil
	})
	return err
}

// binary search insert, the same buffer is returned if present
func insertSorted(current []byte, value int32) []byte {
	values := util.BytesToInt32s(current)
	i := sort.Search(len(values), func(i int) bool { return values[i] >= value })
	if i < len(values) && values[i] == value {
		return current
	}
	values = append(values, 0)
	copy(values[i+1:], values[i:])
	values[i] = value
	return util.Int32sToBytes(values)
}

// SemanticNidsForComponent - sorted nids of semantics referencing a component
func (s *Store) SemanticNidsForComponent(component identifier.Nid) ([]identifier.Nid, error) {
	data, _, err := s.db.Pool.ReverseIndex.Get(component.Bytes())
	if nil != err {
		return nil, err
	}
	return toNids(util.BytesToInt32s(data)), nil
}

func toNids(values []int32) []identifier.Nid {
	nids := make([]identifier.Nid, len(values))
	for i, v := range values {
		nids[i] = identifier.Nid(v)
	}
	return nids
}

// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package datastore

import (
	"sync"

	"github.com/bitmark-inc/termstore/chronicle"
	"github.com/bitmark-inc/termstore/fault"
	"github.com/bitmark-inc/termstore/identifier"
	"github.com/bitmark-inc/termstore/metrics"
	"github.com/bitmark-inc/termstore/stamp"
)

// Change - one chronicle written by a committed transaction
type Change struct {
	Chronicle *chronicle.Chronicle
	Sequence  stamp.Sequence
	Stamp     stamp.Stamp
}

// ChangeListener - told about committed writes
//
// called on the committing goroutine after the stamp is final, so the
// changes are already visible to readers
type ChangeListener interface {
	Committed(changes []Change)
}

// AddChangeListener - listen to one assemblage, or every assemblage
// for identifier.NoNid
func (s *Store) AddChangeListener(assemblage identifier.Nid, l ChangeListener) {
	s.listeners.Lock()
	defer s.listeners.Unlock()
	if identifier.NoNid == assemblage {
		s.listeners.all = append(s.listeners.all, l)
		return
	}
	s.listeners.byAssemblage[assemblage] = append(s.listeners.byAssemblage[assemblage], l)
}

func (s *Store) notify(changes []Change) {
	if 0 == len(changes) {
		return
	}
	s.listeners.RLock()
	all := append([]ChangeListener(nil), s.listeners.all...)
	grouped := map[identifier.Nid][]Change{}
	order := []identifier.Nid{}
	for _, c := range changes {
		a := c.Chronicle.Envelope().Assemblage
		if _, ok := s.listeners.byAssemblage[a]; !ok {
			continue
		}
		if _, ok := grouped[a]; !ok {
			order = append(order, a)
		}
		grouped[a] = append(grouped[a], c)
	}
	byAssemblage := make(map[identifier.Nid][]ChangeListener, len(order))
	for _, a := range order {
		byAssemblage[a] = append([]ChangeListener(nil), s.listeners.byAssemblage[a]...)
	}
	s.listeners.RUnlock()

	for _, l := range all {
		l.Committed(changes)
	}
	for _, a := range order {
		for _, l := range byAssemblage[a] {
			l.Committed(grouped[a])
		}
	}
}

// Transaction - writes under one pending stamp sequence
type Transaction struct {
	sync.Mutex
	store      *Store
	sequence   stamp.Sequence
	retraction stamp.Sequence
	template   stamp.Stamp
	written    []*chronicle.Chronicle
	seen       map[identifier.Nid]struct{}
	closed     bool
}

// OpenTransaction - start a transaction for one author, module and path
func (s *Store) OpenTransaction(status stamp.Status, author identifier.Nid, module identifier.Nid, path identifier.Nid) (*Transaction, error) {
	seq, err := s.stamps.PendingSequence(status, author, module, path)
	if nil != err {
		return nil, err
	}
	return &Transaction{
		store:    s,
		sequence: seq,
		template: stamp.Stamp{
			Status: status,
			Author: author,
			Module: module,
			Path:   path,
		},
		seen: make(map[identifier.Nid]struct{}),
	}, nil
}

// Sequence - the pending stamp of this transaction
func (t *Transaction) Sequence() stamp.Sequence {
	return t.sequence
}

// Retraction - a second pending sequence with INACTIVE status that
// commits or cancels with this transaction
func (t *Transaction) Retraction() (stamp.Sequence, error) {
	t.Lock()
	defer t.Unlock()
	if t.closed {
		return stamp.NoSequence, fault.TransactionClosed
	}
	return t.retractionLocked()
}

func (t *Transaction) retractionLocked() (stamp.Sequence, error) {
	if stamp.Inactive == t.template.Status {
		return t.sequence, nil
	}
	if stamp.NoSequence != t.retraction {
		return t.retraction, nil
	}
	seq, err := t.store.stamps.PendingSequence(stamp.Inactive, t.template.Author, t.template.Module, t.template.Path)
	if nil != err {
		return stamp.NoSequence, err
	}
	t.retraction = seq
	return seq, nil
}

// Write - store a chronicle now, its new versions stay invisible until
// commit
func (t *Transaction) Write(c *chronicle.Chronicle) error {
	t.Lock()
	defer t.Unlock()
	if t.closed {
		return fault.TransactionClosed
	}
	err := t.store.PutChronologyData(c)
	if nil != err {
		return err
	}
	if _, ok := t.seen[c.Nid()]; !ok {
		t.seen[c.Nid()] = struct{}{}
		t.written = append(t.written, c)
	}
	return nil
}

// AddVersion - build, append and write one version under this
// transaction's stamp
func (t *Transaction) AddVersion(c *chronicle.Chronicle, payload chronicle.Payload) (chronicle.Version, error) {
	b := c.CreateMutableVersion(t.sequence)
	if nil != payload {
		b.SetPayload(payload)
	}
	v, err := c.Commit(b)
	if nil != err {
		return chronicle.Version{}, err
	}
	return v, t.Write(c)
}

// RetireVersion - build, append and write one version under the
// retraction sequence, hiding the chronicle once committed
func (t *Transaction) RetireVersion(c *chronicle.Chronicle, payload chronicle.Payload) (chronicle.Version, error) {
	seq, err := t.Retraction()
	if nil != err {
		return chronicle.Version{}, err
	}
	b := c.CreateMutableVersion(seq)
	if nil != payload {
		b.SetPayload(payload)
	}
	v, err := c.Commit(b)
	if nil != err {
		return chronicle.Version{}, err
	}
	return v, t.Write(c)
}

// Commit - make the written versions visible at instant
func (t *Transaction) Commit(comment string, instant int64) (stamp.Stamp, error) {
	t.Lock()
	if t.closed {
		t.Unlock()
		return stamp.Stamp{}, fault.TransactionClosed
	}
	err := t.writeStatedEdges()
	if nil != err {
		t.Unlock()
		metrics.Transactions.WithLabelValues("error").Inc()
		return stamp.Stamp{}, err
	}
	st, err := t.store.stamps.Commit(t.sequence, instant, comment)
	if nil == err && stamp.NoSequence != t.retraction {
		_, err = t.store.stamps.Commit(t.retraction, instant, comment)
	}
	if nil != err {
		t.Unlock()
		metrics.Transactions.WithLabelValues("error").Inc()
		return stamp.Stamp{}, err
	}
	t.closed = true
	written := t.written
	t.Unlock()

	metrics.Transactions.WithLabelValues("committed").Inc()
	t.store.log.Debugf("committed sequence: %d  chronicles: %d", t.sequence, len(written))

	changes := make([]Change, len(written))
	for i, c := range written {
		changes[i] = Change{Chronicle: c, Sequence: t.sequence, Stamp: st}
	}
	t.store.notify(changes)
	return st, nil
}

// Cancel - abandon the transaction, its versions are never visible
func (t *Transaction) Cancel() error {
	t.Lock()
	defer t.Unlock()
	if t.closed {
		return fault.TransactionClosed
	}
	err := t.store.stamps.Cancel(t.sequence)
	if nil == err && stamp.NoSequence != t.retraction {
		err = t.store.stamps.Cancel(t.retraction)
	}
	if nil != err {
		return err
	}
	t.closed = true
	metrics.Transactions.WithLabelValues("canceled").Inc()
	return nil
}

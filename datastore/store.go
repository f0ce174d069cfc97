// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package datastore is the storage contract of the terminology store
//
// it joins the key value pools with the identifier and stamp services:
// chronicles are merged per assemblage partition, reverse and taxonomy
// indices are kept by single key atomic updates, and transactions
// publish pending versions by committing their stamp
package datastore

import (
	"sync"

	"github.com/google/uuid"

	"github.com/bitmark-inc/logger"
	"github.com/bitmark-inc/termstore/chronicle"
	"github.com/bitmark-inc/termstore/identifier"
	"github.com/bitmark-inc/termstore/stamp"
	"github.com/bitmark-inc/termstore/storage"
)

// Store - one opened terminology store
type Store struct {
	db      *storage.DB
	ids     *identifier.Service
	stamps  *stamp.Service
	factory *chronicle.Factory
	log     *logger.L

	listeners struct {
		sync.RWMutex
		byAssemblage map[identifier.Nid][]ChangeListener
		all          []ChangeListener
	}

	stated struct {
		sync.RWMutex
		taxonomies map[identifier.Nid]identifier.Nid
	}
}

// Open - open or create a store
func Open(configuration storage.Configuration) (*Store, error) {
	db, err := storage.Open(configuration)
	if nil != err {
		return nil, err
	}
	s, err := newStore(db)
	if nil != err {
		db.Shutdown(false)
		return nil, err
	}
	return s, nil
}

// New - a store over an already opened database
func New(db *storage.DB) (*Store, error) {
	return newStore(db)
}

func newStore(db *storage.DB) (*Store, error) {
	log := logger.New("datastore")

	ids, err := identifier.New(db)
	if nil != err {
		return nil, err
	}
	stamps, err := stamp.New(db)
	if nil != err {
		return nil, err
	}

	s := &Store{
		db:      db,
		ids:     ids,
		stamps:  stamps,
		factory: chronicle.NewFactory(ids),
		log:     log,
	}
	s.listeners.byAssemblage = make(map[identifier.Nid][]ChangeListener)
	s.stated.taxonomies = make(map[identifier.Nid]identifier.Nid)

	log.Infof("started: %s  id: %s", db.State(), db.ID())
	return s, nil
}

// Startup - whether the store was created by this open, and its id
func (s *Store) Startup() (storage.StartState, uuid.UUID) {
	return s.db.State(), s.db.ID()
}

// Identifiers - the nid service
func (s *Store) Identifiers() *identifier.Service {
	return s.ids
}

// Stamps - the stamp service
func (s *Store) Stamps() *stamp.Service {
	return s.stamps
}

// Factory - creates chronicles with fresh nids
func (s *Store) Factory() *chronicle.Factory {
	return s.factory
}

// AssignNid - nid for a UUID, allocating if needed
func (s *Store) AssignNid(id uuid.UUID) (identifier.Nid, error) {
	return s.ids.AssignNid(id)
}

// Sync - flush listeners, commit and fsync in the background
func (s *Store) Sync() <-chan error {
	return s.db.Sync()
}

// Compact - explicit compaction
func (s *Store) Compact() error {
	return s.db.Compact()
}

// Shutdown - flush, optionally compact, then close
func (s *Store) Shutdown(compact bool) error {
	s.log.Infof("shutdown: compact: %t", compact)
	err := s.db.Shutdown(compact)
	s.log.Flush()
	return err
}

// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package classifier

import (
	"sync"

	"github.com/bitmark-inc/logger"
	"github.com/bitmark-inc/termstore/coordinate"
	"github.com/bitmark-inc/termstore/datastore"
	"github.com/bitmark-inc/termstore/metadata"
)

// Key - identity of a classifier
type Key struct {
	Stamp coordinate.Digest
	Logic coordinate.Digest
}

// KeyOf - the key of a coordinate pair
func KeyOf(sc coordinate.StampCoordinate, lc coordinate.LogicCoordinate) Key {
	return Key{
		Stamp: sc.Digest(),
		Logic: lc.Digest(),
	}
}

// Registry - the classifiers of one store, one per coordinate pair
type Registry struct {
	sync.Mutex
	store       *datastore.Store
	options     Options
	classifiers map[Key]*Classifier
	log         *logger.L
}

// NewRegistry - empty registry over a store
func NewRegistry(store *datastore.Store, options Options) *Registry {
	return &Registry{
		store:       store,
		options:     options,
		classifiers: make(map[Key]*Classifier),
		log:         logger.New("classifier"),
	}
}

// MetadataOptions - options from the well-known concepts
func MetadataOptions(c *metadata.Concepts) Options {
	return Options{
		NeverGroup:       c.NeverGroupRoles(),
		StatedTaxonomy:   c.StatedTaxonomy,
		InferredTaxonomy: c.InferredTaxonomy,
		Author:           c.SystemUser,
		Module:           c.CoreModule,
		Workers:          4,
		Reasoner:         NewStructuralReasoner,
	}
}

// Classifier - the classifier of a coordinate pair, created on first
// use and listening to the stated assemblage from then on
func (r *Registry) Classifier(sc coordinate.StampCoordinate, lc coordinate.LogicCoordinate) *Classifier {
	key := KeyOf(sc, lc)

	r.Lock()
	defer r.Unlock()

	if c, ok := r.classifiers[key]; ok {
		return c
	}
	c := newClassifier(r.store, sc, lc, r.options, r.log)
	r.classifiers[key] = c
	r.store.AddChangeListener(lc.StatedAssemblage, c)
	r.log.Infof("classifier: stamp: %s  logic: %s", key.Stamp, key.Logic)
	return c
}

// Len - number of classifiers
func (r *Registry) Len() int {
	r.Lock()
	defer r.Unlock()
	return len(r.classifiers)
}

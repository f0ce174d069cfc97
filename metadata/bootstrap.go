// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package metadata

import (
	"github.com/bitmark-inc/logger"
	"github.com/bitmark-inc/termstore/chronicle"
	"github.com/bitmark-inc/termstore/coordinate"
	"github.com/bitmark-inc/termstore/datastore"
	"github.com/bitmark-inc/termstore/identifier"
	"github.com/bitmark-inc/termstore/logic"
	"github.com/bitmark-inc/termstore/stamp"
)

// scalar recording the bootstrap instant
const bootstrapKey = "metadata.bootstrap"

// Bootstrap - write the metadata concepts once
//
// a store that is already bootstrapped only has its nids resolved;
// either way the stated taxonomy follows the stated definitions from
// here on
func Bootstrap(store *datastore.Store, instant int64) (*Concepts, error) {
	log := logger.New("metadata")

	c, err := Resolve(store)
	if nil != err {
		return nil, err
	}
	store.TrackStatedTaxonomy(c.StatedLogic, c.StatedTaxonomy)

	when, found, err := store.GetLong(bootstrapKey)
	if nil != err {
		return nil, err
	}
	if found {
		log.Debugf("already bootstrapped at: %d", when)
		return c, nil
	}

	err = store.SetPathOrigins(c.DevelopmentPath, []coordinate.Position{{Time: coordinate.Latest, Path: c.MasterPath}})
	if nil != err {
		return nil, err
	}

	tx, err := store.OpenTransaction(stamp.Active, c.SystemUser, c.CoreModule, c.DevelopmentPath)
	if nil != err {
		return nil, err
	}
	for _, e := range c.Entries() {
		err := writeEntry(store, tx, c, e)
		if nil != err {
			log.Errorf("concept: %q  error: %s", e.Name, err)
			tx.Cancel()
			return nil, err
		}
	}
	st, err := tx.Commit("metadata bootstrap", instant)
	if nil != err {
		return nil, err
	}

	err = store.PutLong(bootstrapKey, instant)
	if nil != err {
		return nil, err
	}
	log.Infof("bootstrapped: %d concepts  stamp: %s", len(c.Entries()), st)
	return c, nil
}

// concept, fully qualified name with US preference and stated parent
func writeEntry(store *datastore.Store, tx *datastore.Transaction, c *Concepts, e Entry) error {
	factory := store.Factory()

	concept, err := factory.CreateComponentWithUUID(e.UUID, chronicle.ConceptKind, identifier.NoNid, c.ConceptAssemblage)
	if nil != err {
		return err
	}
	if _, err := tx.AddVersion(concept, nil); nil != err {
		return err
	}

	description, err := factory.CreateComponentWithUUID(UUIDFor(e.Name+" (fully qualified name)"), chronicle.DescriptionKind, e.Nid, c.DescriptionAssemblage)
	if nil != err {
		return err
	}
	_, err = tx.AddVersion(description, chronicle.DescriptionPayload{
		Text:             e.Name,
		Language:         c.English,
		Type:             c.FullyQualifiedName,
		CaseSignificance: c.CaseInsensitive,
	})
	if nil != err {
		return err
	}

	for _, dialect := range []identifier.Nid{c.USDialect, c.GBDialect} {
		member, err := factory.CreateComponentWithUUID(UUIDFor(e.Name+" in "+c.Name(dialect)), chronicle.ComponentNidKind, description.Nid(), dialect)
		if nil != err {
			return err
		}
		if _, err := tx.AddVersion(member, chronicle.ComponentNidPayload{Component: c.Preferred}); nil != err {
			return err
		}
	}

	if identifier.NoNid == e.Parent {
		return nil
	}
	b := logic.NewBuilder(e.Nid)
	b.NecessarySet(b.And(b.Concept(e.Parent)))
	expression, err := b.Build()
	if nil != err {
		return err
	}
	definition, err := factory.CreateComponentWithUUID(UUIDFor(e.Name+" stated definition"), chronicle.LogicGraphKind, e.Nid, c.StatedLogic)
	if nil != err {
		return err
	}
	_, err = tx.AddVersion(definition, chronicle.LogicGraphPayload{Expression: expression})
	return err
}

// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package main

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/bitmark-inc/termstore/classifier"
	"github.com/bitmark-inc/termstore/configuration"
	"github.com/bitmark-inc/termstore/datastore"
	"github.com/bitmark-inc/termstore/fault"
	"github.com/bitmark-inc/termstore/identifier"
	"github.com/bitmark-inc/termstore/metadata"
)

// registry with the never group roles of the configuration
func newRegistry(store *datastore.Store, concepts *metadata.Concepts, options *configuration.Configuration) (*classifier.Registry, error) {
	neverGroup, err := resolveRoles(store, concepts, options.Classifier.NeverGroup)
	if nil != err {
		return nil, err
	}
	o := classifier.MetadataOptions(concepts)
	o.NeverGroup = neverGroup
	o.Workers = options.Classifier.Workers
	return classifier.NewRegistry(store, o), nil
}

// a role is a metadata concept name or the UUID of a stored concept
func resolveRoles(store *datastore.Store, concepts *metadata.Concepts, roles []string) ([]identifier.Nid, error) {
	nids := make([]identifier.Nid, 0, len(roles))
	for _, role := range roles {
		if id, err := uuid.Parse(role); nil == err {
			nid, found, err := store.Identifiers().NidForUUID(id)
			if nil != err {
				return nil, err
			}
			if !found {
				return nil, fmt.Errorf("role: %q: %w", role, fault.NidNotFound)
			}
			nids = append(nids, nid)
			continue
		}
		nid, ok := concepts.Lookup(role)
		if !ok {
			return nil, fmt.Errorf("role: %q: %w", role, fault.NidNotFound)
		}
		nids = append(nids, nid)
	}
	return nids, nil
}

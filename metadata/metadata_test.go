// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package metadata_test

import (
	"context"
	"fmt"
	"os"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bitmark-inc/logger"
	"github.com/bitmark-inc/termstore/coordinate"
	"github.com/bitmark-inc/termstore/datastore"
	"github.com/bitmark-inc/termstore/identifier"
	"github.com/bitmark-inc/termstore/metadata"
	"github.com/bitmark-inc/termstore/storage"
)

func TestMain(m *testing.M) {
	directory, err := os.MkdirTemp("", "metadata-log")
	if nil != err {
		panic(fmt.Sprintf("temporary directory failed: %s", err))
	}

	logConfig := logger.Configuration{
		Directory: directory,
		File:      "metadata.log",
		Size:      1048576,
		Count:     10,
		Console:   false,
		Levels: map[string]string{
			logger.DefaultTag: "trace",
		},
	}
	if err := logger.Initialise(logConfig); err != nil {
		panic(fmt.Sprintf("logger initialization failed: %s", err))
	}

	rc := m.Run()

	logger.Finalise()
	os.RemoveAll(directory)
	os.Exit(rc)
}

type countingAssigner map[uuid.UUID]identifier.Nid

func (a countingAssigner) AssignNid(id uuid.UUID) (identifier.Nid, error) {
	if n, ok := a[id]; ok {
		return n, nil
	}
	n := identifier.First + identifier.Nid(len(a))
	a[id] = n
	return n, nil
}

func TestResolve(t *testing.T) {
	ids := countingAssigner{}
	c, err := metadata.Resolve(ids)
	require.NoError(t, err)

	again, err := metadata.Resolve(ids)
	require.NoError(t, err)
	assert.Equal(t, c, again)

	entries := c.Entries()
	assert.Len(t, ids, len(entries), "one nid per concept")
	assert.Equal(t, identifier.NoNid, entries[0].Parent)
	for _, e := range entries[1:] {
		assert.NotEqual(t, identifier.NoNid, e.Parent, e.Name)
	}

	assert.Equal(t, "English language", c.Name(c.English))
	assert.Equal(t, "", c.Name(identifier.Nid(-5)))

	n, ok := c.Lookup("Part of")
	assert.True(t, ok)
	assert.Equal(t, c.PartOf, n)
	_, ok = c.Lookup("no such concept")
	assert.False(t, ok)
	assert.Equal(t, metadata.UUIDFor("English language"), identifier.FromName(metadata.Namespace, "English language"))
	assert.Equal(t, c.StatedTaxonomy, c.TaxonomyAssemblage(c.StatedLogic))
	assert.Equal(t, c.InferredTaxonomy, c.TaxonomyAssemblage(c.InferredLogic))
}

func TestBootstrap(t *testing.T) {
	store, err := datastore.Open(storage.Configuration{
		Directory: t.TempDir(),
		Name:      "test",
		Engine:    storage.LevelDB,
	})
	require.NoError(t, err)
	defer store.Shutdown(false)

	c, err := metadata.Bootstrap(store, 1000)
	require.NoError(t, err)

	again, err := metadata.Bootstrap(store, 2000)
	require.NoError(t, err)
	assert.Equal(t, c, again)

	count := 0
	err = store.ForEachNidOfAssemblage(context.Background(), c.ConceptAssemblage, func(nid identifier.Nid) error {
		count += 1
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, len(c.Entries()), count, "second bootstrap wrote nothing")

	calc, err := coordinate.NewCalculator(c.StampCoordinate(), store.Stamps(), store)
	require.NoError(t, err)

	name, err := metadata.PreferredName(context.Background(), store, c, c.English, c.LanguageCoordinate(), calc)
	require.NoError(t, err)
	assert.Equal(t, "English language", name)

	// master path sees nothing written on development
	master, err := coordinate.NewCalculator(c.StampCoordinate().WithPath(c.MasterPath), store.Stamps(), store)
	require.NoError(t, err)
	name, err = metadata.PreferredName(context.Background(), store, c, c.English, c.LanguageCoordinate(), master)
	require.NoError(t, err)
	assert.Equal(t, c.English.String(), name)

	dialects := metadata.NewDialects(store, c)
	descriptions, err := metadata.Descriptions(context.Background(), store, c.Root)
	require.NoError(t, err)
	require.Len(t, descriptions, 1)
	a, err := dialects.Acceptability(c.GBDialect, descriptions[0].Nid(), calc)
	require.NoError(t, err)
	assert.Equal(t, coordinate.Preferred, a)

	stated := store.TaxonomySnapshot(c.StatedTaxonomy, calc)
	parents, err := stated.Parents(c.USDialect)
	require.NoError(t, err)
	assert.Equal(t, []identifier.Nid{c.Dialect}, parents)
	children, err := stated.Children(c.Dialect)
	require.NoError(t, err)
	assert.ElementsMatch(t, []identifier.Nid{c.USDialect, c.GBDialect}, children)
	parents, err = stated.Parents(c.Root)
	require.NoError(t, err)
	assert.Empty(t, parents)
}

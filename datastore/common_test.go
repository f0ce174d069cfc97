// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package datastore_test

import (
	"fmt"
	"os"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/bitmark-inc/logger"
	"github.com/bitmark-inc/termstore/chronicle"
	"github.com/bitmark-inc/termstore/datastore"
	"github.com/bitmark-inc/termstore/identifier"
	"github.com/bitmark-inc/termstore/storage"
)

func TestMain(m *testing.M) {
	directory, err := os.MkdirTemp("", "datastore-log")
	if nil != err {
		panic(fmt.Sprintf("temporary directory failed: %s", err))
	}

	logConfig := logger.Configuration{
		Directory: directory,
		File:      "datastore.log",
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

var engines = []storage.EngineKind{storage.LevelDB, storage.Badger}

func openStore(t *testing.T, kind storage.EngineKind, directory string) *datastore.Store {
	s, err := datastore.Open(storage.Configuration{
		Directory: directory,
		Name:      "test",
		Engine:    kind,
	})
	require.NoError(t, err, "open %s", kind)
	return s
}

// run a test once per engine, each with its own store
func forEachEngine(t *testing.T, f func(t *testing.T, s *datastore.Store)) {
	for _, kind := range engines {
		kind := kind
		t.Run(kind.String(), func(t *testing.T) {
			s := openStore(t, kind, t.TempDir())
			defer s.Shutdown(false)
			f(t, s)
		})
	}
}

// a fresh nid to use as an assemblage, author, module or path
func newNid(t *testing.T, s *datastore.Store) identifier.Nid {
	n, err := s.AssignNid(uuid.New())
	require.NoError(t, err)
	return n
}

func newComponent(t *testing.T, s *datastore.Store, kind chronicle.Kind, referenced identifier.Nid, assemblage identifier.Nid) *chronicle.Chronicle {
	c, err := s.Factory().CreateComponent(kind, referenced, assemblage)
	require.NoError(t, err)
	return c
}

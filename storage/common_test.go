// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package storage_test

import (
	"fmt"
	"os"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/bitmark-inc/logger"
	"github.com/bitmark-inc/termstore/storage"
)

func TestMain(m *testing.M) {
	directory, err := os.MkdirTemp("", "storage-log")
	if nil != err {
		panic(fmt.Sprintf("temporary directory failed: %s", err))
	}

	logConfig := logger.Configuration{
		Directory: directory,
		File:      "storage.log",
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

// open a fresh store in a test owned directory
func openStore(t *testing.T, kind storage.EngineKind, directory string) *storage.DB {
	db, err := storage.Open(storage.Configuration{
		Directory: directory,
		Name:      "test",
		Engine:    kind,
	})
	require.NoError(t, err, "open %s", kind)
	return db
}

// run a test once per engine, each with its own store
func forEachEngine(t *testing.T, f func(t *testing.T, db *storage.DB)) {
	for _, kind := range engines {
		kind := kind
		t.Run(kind.String(), func(t *testing.T) {
			db := openStore(t, kind, t.TempDir())
			defer db.Shutdown(false)
			f(t, db)
		})
	}
}

// a string data item
type stringElement struct {
	key   string
	value string
}

func makeElements(input []stringElement) []storage.Element {
	output := make([]storage.Element, 0, len(input))
	for _, e := range input {
		output = append(output, storage.Element{
			Key:   []byte(e.key),
			Value: []byte(e.value),
		})
	}
	return output
}

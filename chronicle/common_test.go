// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package chronicle_test

import (
	"fmt"
	"os"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/bitmark-inc/logger"
	"github.com/bitmark-inc/termstore/storage"
)

func TestMain(m *testing.M) {
	directory, err := os.MkdirTemp("", "chronicle-log")
	if nil != err {
		panic(fmt.Sprintf("temporary directory failed: %s", err))
	}

	logConfig := logger.Configuration{
		Directory: directory,
		File:      "chronicle.log",
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

func openStore(t *testing.T, kind storage.EngineKind, directory string) *storage.DB {
	db, err := storage.Open(storage.Configuration{
		Directory: directory,
		Name:      "test",
		Engine:    kind,
	})
	require.NoError(t, err)
	return db
}

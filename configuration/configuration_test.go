// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package configuration_test

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bitmark-inc/termstore/configuration"
	"github.com/bitmark-inc/termstore/fault"
	"github.com/bitmark-inc/termstore/storage"
	"github.com/bitmark-inc/termstore/util"
)

func TestDefaults(t *testing.T) {
	fileName := writeConfiguration(t, `
local M = {}
M.data_directory = "."
return M
`)
	options, err := configuration.Get(fileName, nil)
	require.NoError(t, err)

	directory := filepath.Dir(fileName)
	assert.Equal(t, filepath.Clean(directory), filepath.Clean(options.DataDirectory))
	assert.Equal(t, filepath.Join(directory, "data"), options.Database.Directory)
	assert.Equal(t, filepath.Join(directory, "log"), options.Logging.Directory)
	assert.True(t, util.EnsureFileExists(options.Database.Directory), "database directory created")
	assert.Equal(t, "", options.PidFile)
	assert.Equal(t, []string{"Part of", "Laterality"}, options.Classifier.NeverGroup)

	s := options.Storage(false)
	assert.Equal(t, storage.LevelDB, s.Engine)
	assert.Equal(t, "termstore", s.Name)
	assert.Equal(t, 10*time.Second, s.SyncInterval)
	assert.Equal(t, time.Second, s.MinSyncGap)
}

func TestOverrides(t *testing.T) {
	fileName := writeConfiguration(t, `
local M = {}
M.data_directory = arg[0]:match("(.*)/")
M.pidfile = "termstored.pid"
M.database = {
    name = "terms",
    engine = engine,
    sync_interval = 0,
    compact_on_shutdown = true,
}
M.classifier = {
    never_group = { "Laterality" },
    workers = 2,
}
M.metrics = {
    listen = "127.0.0.1:9109",
}
M.logging = {
    size = 4096,
    count = 2,
    levels = {
        DEFAULT = "info",
        storage = "debug",
    },
}
return M
`)
	options, err := configuration.Get(fileName, map[string]string{"engine": "badger"})
	require.NoError(t, err)

	directory := filepath.Dir(fileName)
	assert.Equal(t, filepath.Join(directory, "termstored.pid"), options.PidFile)
	assert.Equal(t, "terms", options.Database.Name)
	assert.True(t, options.Database.Compact)
	assert.Equal(t, []string{"Laterality"}, options.Classifier.NeverGroup)
	assert.Equal(t, 2, options.Classifier.Workers)
	assert.Equal(t, "127.0.0.1:9109", options.Metrics.Listen)
	assert.Equal(t, 4096, options.Logging.Size)
	assert.Equal(t, "debug", options.Logging.Levels["storage"])

	s := options.Storage(true)
	assert.Equal(t, storage.Badger, s.Engine)
	assert.True(t, s.ReadOnly)
	assert.Equal(t, time.Duration(0), s.SyncInterval)
}

func TestInvalid(t *testing.T) {
	cases := map[string]string{
		"missing data directory": `return {}`,
		"unknown engine":         `return { data_directory = ".", database = { engine = "paper" } }`,
		"path as database name":  `return { data_directory = ".", database = { name = "a/b" } }`,
		"negative interval":      `return { data_directory = ".", database = { sync_interval = -1 } }`,
		"no workers":             `return { data_directory = ".", classifier = { workers = 0 } }`,
		"missing directory":      `return { data_directory = "/no/such/directory" }`,
		"lua error":              `return {`,
	}
	for name, text := range cases {
		_, err := configuration.Get(writeConfiguration(t, text), nil)
		assert.Error(t, err, name)
	}

	_, err := configuration.Get(writeConfiguration(t, `return 7`), nil)
	assert.Equal(t, fault.ConfigurationNotTable, err)
}

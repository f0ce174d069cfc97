// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package configuration

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/bitmark-inc/logger"
	"github.com/bitmark-inc/termstore/fault"
	"github.com/bitmark-inc/termstore/storage"
	"github.com/bitmark-inc/termstore/util"
)

// basic defaults (directories and files are relative to the "DataDirectory" from Configuration file)
const (
	defaultDataDirectory = "" // this will error; use "." for the same directory as the config file

	defaultDatabaseDirectory = "data"
	defaultDatabaseName      = "termstore"
	defaultDatabaseEngine    = "leveldb"
	defaultSyncInterval      = 10 // seconds
	defaultMinimumSyncGap    = 1  // seconds

	defaultLogDirectory = "log"
	defaultLogFile      = "termstored.log"
	defaultLogCount     = 10          //  number of log files retained
	defaultLogSize      = 1024 * 1024 // rotate when <logfile> exceeds this size

	defaultWorkers = 4
)

// LoglevelMap - to hold log levels
type LoglevelMap map[string]string

// path expanded or calculated defaults
var (
	defaultLogLevels = LoglevelMap{
		logger.DefaultTag: "critical",
	}
	defaultNeverGroup = []string{"Part of", "Laterality"}
)

// DatabaseType - store location and engine
type DatabaseType struct {
	Directory      string `gluamapper:"directory" json:"directory"`
	Name           string `gluamapper:"name" json:"name"`
	Engine         string `gluamapper:"engine" json:"engine"`
	SyncInterval   int    `gluamapper:"sync_interval" json:"sync_interval"`
	MinimumSyncGap int    `gluamapper:"minimum_sync_gap" json:"minimum_sync_gap"`
	Compact        bool   `gluamapper:"compact_on_shutdown" json:"compact_on_shutdown"`
}

// ClassifierType - classification settings
//
// never group entries are metadata concept names or role UUIDs
type ClassifierType struct {
	NeverGroup []string `gluamapper:"never_group" json:"never_group"`
	Workers    int      `gluamapper:"workers" json:"workers"`
	OnStart    bool     `gluamapper:"classify_on_start" json:"classify_on_start"`
}

// MetricsType - prometheus and profiling endpoint
type MetricsType struct {
	Listen  string `gluamapper:"listen" json:"listen"`
	Profile bool   `gluamapper:"profile" json:"profile"`
}

// Configuration - the daemon configuration
type Configuration struct {
	DataDirectory string               `gluamapper:"data_directory" json:"data_directory"`
	PidFile       string               `gluamapper:"pidfile" json:"pidfile"`
	Database      DatabaseType         `gluamapper:"database" json:"database"`
	Classifier    ClassifierType       `gluamapper:"classifier" json:"classifier"`
	Metrics       MetricsType          `gluamapper:"metrics" json:"metrics"`
	Logging       logger.Configuration `gluamapper:"logging" json:"logging"`
}

// Get - read, decode and verify the configuration
func Get(configurationFileName string, variables map[string]string) (*Configuration, error) {

	configurationFileName, err := filepath.Abs(filepath.Clean(configurationFileName))
	if nil != err {
		return nil, err
	}

	// absolute path to the main directory
	dataDirectory, _ := filepath.Split(configurationFileName)

	options := &Configuration{

		DataDirectory: defaultDataDirectory,
		PidFile:       "", // no PidFile by default

		Database: DatabaseType{
			Directory:      defaultDatabaseDirectory,
			Name:           defaultDatabaseName,
			Engine:         defaultDatabaseEngine,
			SyncInterval:   defaultSyncInterval,
			MinimumSyncGap: defaultMinimumSyncGap,
		},

		// decoding merges into existing slices and maps so
		// defaults that are collections are applied afterwards
		Classifier: ClassifierType{
			Workers: defaultWorkers,
		},

		Logging: logger.Configuration{
			Directory: defaultLogDirectory,
			File:      defaultLogFile,
			Size:      defaultLogSize,
			Count:     defaultLogCount,
		},
	}

	if err := ParseConfigurationFile(configurationFileName, options, variables); err != nil {
		return nil, err
	}

	if nil == options.Classifier.NeverGroup {
		options.Classifier.NeverGroup = append([]string(nil), defaultNeverGroup...)
	}
	if nil == options.Logging.Levels {
		options.Logging.Levels = make(map[string]string, len(defaultLogLevels))
		for k, v := range defaultLogLevels {
			options.Logging.Levels[k] = v
		}
	}

	if _, err := storage.ParseEngineKind(options.Database.Engine); nil != err {
		return nil, fmt.Errorf("engine: %q: %w", options.Database.Engine, err)
	}
	if options.Database.SyncInterval < 0 || options.Database.MinimumSyncGap < 0 || options.Classifier.Workers <= 0 {
		return nil, fault.InvalidCount
	}

	// ensure absolute data directory
	if "" == options.DataDirectory || "~" == options.DataDirectory {
		return nil, fmt.Errorf("path: %q is not a valid directory", options.DataDirectory)
	} else if "." == options.DataDirectory {
		options.DataDirectory = dataDirectory // same directory as the configuration file
	} else {
		options.DataDirectory = filepath.Clean(options.DataDirectory)
	}

	// this directory must exist - i.e. must be created prior to running
	if fileInfo, err := os.Stat(options.DataDirectory); nil != err {
		return nil, err
	} else if !fileInfo.IsDir() {
		return nil, fmt.Errorf("path: %q is not a directory", options.DataDirectory)
	}

	// optional absolute paths i.e. blank or an absolute path
	if "" != options.PidFile {
		options.PidFile = util.EnsureAbsolute(options.DataDirectory, options.PidFile)
	}

	// fail if any of these are not simple file names i.e. must
	// not contain path seperator
	for _, f := range []string{options.Database.Name, options.Logging.File} {
		switch filepath.Dir(f) {
		case "", ".":
		default:
			return nil, fmt.Errorf("files: %q is not plain name", f)
		}
	}

	// make absolute and create directories if they do not already exist
	for _, d := range []*string{
		&options.Database.Directory,
		&options.Logging.Directory,
	} {
		*d = util.EnsureAbsolute(options.DataDirectory, *d)
		if err := util.EnsureDirectory(*d); nil != err {
			return nil, err
		}
	}

	return options, nil
}

// Storage - the storage settings of the database section
func (c *Configuration) Storage(readOnly bool) storage.Configuration {
	kind, _ := storage.ParseEngineKind(c.Database.Engine)
	return storage.Configuration{
		Directory:    c.Database.Directory,
		Name:         c.Database.Name,
		Engine:       kind,
		ReadOnly:     readOnly,
		SyncInterval: time.Duration(c.Database.SyncInterval) * time.Second,
		MinSyncGap:   time.Duration(c.Database.MinimumSyncGap) * time.Second,
	}
}

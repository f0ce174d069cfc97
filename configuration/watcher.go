// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package configuration

import (
	"path/filepath"

	"github.com/fsnotify/fsnotify"

	"github.com/bitmark-inc/logger"
	"github.com/bitmark-inc/termstore/fault"
	"github.com/bitmark-inc/termstore/util"
)

// ReloadFunc - called with the configuration read after a change
type ReloadFunc func(*Configuration)

// Watcher - background process re-reading the configuration file
// when it changes and applying its log levels
type Watcher struct {
	log       *logger.L
	watcher   *fsnotify.Watcher
	filePath  string
	variables map[string]string
	reload    ReloadFunc
}

// NewWatcher - watch the directory of a configuration file
//
// the directory is watched since editors replace files rather than
// write them in place; reload may be nil
func NewWatcher(fileName string, variables map[string]string, reload ReloadFunc) (*Watcher, error) {
	filePath, err := filepath.Abs(filepath.Clean(fileName))
	if nil != err {
		return nil, err
	}
	if !util.EnsureFileExists(filePath) {
		return nil, fault.ConfigurationNotFound
	}

	watcher, err := fsnotify.NewWatcher()
	if nil != err {
		return nil, err
	}
	err = watcher.Add(filepath.Dir(filePath))
	if nil != err {
		watcher.Close()
		return nil, err
	}

	return &Watcher{
		log:       logger.New("config-watcher"),
		watcher:   watcher,
		filePath:  filePath,
		variables: variables,
		reload:    reload,
	}, nil
}

// Run - background.Process
func (w *Watcher) Run(args interface{}, shutdown <-chan struct{}) {
	log := w.log
	defer w.watcher.Close()

	log.Infof("watching: %s", w.filePath)
loop:
	for {
		select {
		case <-shutdown:
			break loop

		case event, ok := <-w.watcher.Events:
			if !ok {
				break loop
			}
			if filepath.Clean(event.Name) != w.filePath {
				continue loop
			}
			log.Debugf("file event: %v", event)
			if !isChange(event) {
				continue loop
			}
			w.apply()

		case err, ok := <-w.watcher.Errors:
			if !ok {
				break loop
			}
			log.Errorf("watcher error: %s", err)
		}
	}
	log.Info("stopped")
}

func (w *Watcher) apply() {
	options, err := Get(w.filePath, w.variables)
	if nil != err {
		w.log.Errorf("reload error: %s", err)
		return
	}
	logger.LoadLevels(options.Logging.Levels)
	w.log.Infof("log levels reloaded: %v", options.Logging.Levels)
	if nil != w.reload {
		w.reload(options)
	}
}

func isChange(event fsnotify.Event) bool {
	return event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) != 0
}

// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package main

import (
	"context"
	"fmt"
	"net/http"
	_ "net/http/pprof"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/bitmark-inc/exitwithstatus"
	"github.com/bitmark-inc/getoptions"
	"github.com/bitmark-inc/logger"
	"github.com/bitmark-inc/termstore/background"
	"github.com/bitmark-inc/termstore/classifier"
	"github.com/bitmark-inc/termstore/configuration"
	"github.com/bitmark-inc/termstore/datastore"
	"github.com/bitmark-inc/termstore/metadata"
)

// set by the linker: go build -ldflags "-X main.version=M.N" ./...
var version = "zero" // do not change this value

// main program
func main() {
	// ensure exit handler is first
	defer exitwithstatus.Handler()

	flags := []getoptions.Option{
		{Long: "help", HasArg: getoptions.NO_ARGUMENT, Short: 'h'},
		{Long: "verbose", HasArg: getoptions.NO_ARGUMENT, Short: 'v'},
		{Long: "quiet", HasArg: getoptions.NO_ARGUMENT, Short: 'q'},
		{Long: "version", HasArg: getoptions.NO_ARGUMENT, Short: 'V'},
		{Long: "config-file", HasArg: getoptions.REQUIRED_ARGUMENT, Short: 'c'},
		{Long: "memory-stats", HasArg: getoptions.NO_ARGUMENT, Short: 'm'},
	}

	program, options, arguments, err := getoptions.GetOS(flags)
	if nil != err {
		exitwithstatus.Message("%s: getoptions error: %s", program, err)
	}

	if len(options["version"]) > 0 {
		processSetupCommand(program, []string{"version"})
		return
	}

	if len(options["help"]) > 0 {
		processSetupCommand(program, []string{"help"})
		return
	}

	// these commands do not require the configuration
	if len(arguments) > 0 && processSetupCommand(program, arguments) {
		return
	}

	if 1 != len(options["config-file"]) {
		exitwithstatus.Message("%s: only one config-file option is required, %d were detected", program, len(options["config-file"]))
	}

	// read options and parse the configuration file
	configurationFile := options["config-file"][0]
	variables := map[string]string{
		"version": version,
	}
	theConfiguration, err := configuration.Get(configurationFile, variables)
	if nil != err {
		exitwithstatus.Message("%s: failed to read configuration from: %q  error: %s", program, configurationFile, err)
	}

	// these commands require the configuration and
	// perform enquiries on the configuration
	if len(arguments) > 0 && processConfigCommand(arguments, theConfiguration) {
		return
	}

	// start logging
	if err = logger.Initialise(theConfiguration.Logging); nil != err {
		exitwithstatus.Message("%s: logger setup failed with error: %s", program, err)
	}
	defer logger.Finalise()

	// create a logger channel for the main program
	log := logger.New("main")
	defer log.Info("finished")
	log.Info("starting…")
	log.Infof("version: %s", version)
	log.Debugf("theConfiguration: %v", theConfiguration)

	// ------------------
	// start of real main
	// ------------------

	// optional PID file
	// use if not running under a supervisor program like daemon(8)
	if "" != theConfiguration.PidFile {
		lockFile, err := os.OpenFile(theConfiguration.PidFile, os.O_WRONLY|os.O_EXCL|os.O_CREATE, os.ModeExclusive|0600)
		if err != nil {
			if os.IsExist(err) {
				exitwithstatus.Message("%s: another instance is already running", program)
			}
			exitwithstatus.Message("%s: PID file: %q creation failed, error: %s", program, theConfiguration.PidFile, err)
		}
		fmt.Fprintf(lockFile, "%d\n", os.Getpid())
		lockFile.Close()
		defer os.Remove(theConfiguration.PidFile)
	}

	// metrics listener, the default mux also carries the
	// pprof handlers so it is only used when profiling
	if "" != theConfiguration.Metrics.Listen {
		mux := http.NewServeMux()
		if theConfiguration.Metrics.Profile {
			mux = http.DefaultServeMux
		}
		mux.Handle("/metrics", promhttp.Handler())
		go func() {
			log.Warnf("metrics listener on: %s  profile: %t", theConfiguration.Metrics.Listen, theConfiguration.Metrics.Profile)
			err := http.ListenAndServe(theConfiguration.Metrics.Listen, mux)
			exitwithstatus.Message("metrics listener error: %s", err)
		}()
	}

	// start the data storage
	log.Infof("database: %q  engine: %s", theConfiguration.Database.Name, theConfiguration.Database.Engine)
	store, err := datastore.Open(theConfiguration.Storage(false))
	if nil != err {
		log.Criticalf("datastore open error: %s", err)
		exitwithstatus.Message("datastore open error: %s", err)
	}
	defer func() {
		if err := store.Shutdown(theConfiguration.Database.Compact); nil != err {
			log.Errorf("datastore shutdown error: %s", err)
		}
	}()

	state, id := store.Startup()
	log.Infof("datastore: %s  id: %s", state, id)

	concepts, err := metadata.Bootstrap(store, time.Now().UnixMilli())
	if nil != err {
		log.Criticalf("metadata bootstrap error: %s", err)
		exitwithstatus.Message("metadata bootstrap error: %s", err)
	}

	// these commands are allowed to access the datastore
	if len(arguments) > 0 && processDataCommand(log, arguments, store, concepts, theConfiguration) {
		return
	}

	registry, err := newRegistry(store, concepts, theConfiguration)
	if nil != err {
		log.Criticalf("classifier setup error: %s", err)
		exitwithstatus.Message("classifier setup error: %s", err)
	}
	worker := classifier.NewWorker(registry)

	processes := background.Processes{worker}

	watcher, err := configuration.NewWatcher(configurationFile, variables, nil)
	if nil != err {
		log.Errorf("configuration watcher error: %s", err)
	} else {
		processes = append(processes, watcher)
	}

	// if memory logging enabled
	if len(options["memory-stats"]) > 0 {
		processes = append(processes, &memoryStats{log: logger.New("memory"), worker: worker})
	}

	bg := background.Start(processes, nil)
	defer bg.Stop()

	if theConfiguration.Classifier.OnStart {
		go func() {
			result := <-worker.Submit(context.Background(), concepts.StampCoordinate(), concepts.LogicCoordinate())
			if nil != result.Err {
				log.Errorf("initial classification error: %s", result.Err)
				return
			}
			log.Infof("initial classification affected: %d concepts", len(result.Affected))
		}()
	}

	// wait for CTRL-C before shutting down to allow manual testing
	if 0 == len(options["quiet"]) {
		fmt.Printf("\n\nWaiting for CTRL-C (SIGINT) or 'kill <pid>' (SIGTERM)…")
	}

	// turn Signals into channel messages
	ch := make(chan os.Signal, 1)
	signal.Notify(ch, syscall.SIGINT, syscall.SIGTERM)
	sig := <-ch
	log.Infof("received signal: %v", sig)
	if 0 == len(options["quiet"]) {
		fmt.Printf("\nreceived signal: %v\n", sig)
		fmt.Printf("\nshutting down…\n")
	}

	log.Info("shutting down…")
}

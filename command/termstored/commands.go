// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/bitmark-inc/exitwithstatus"
	"github.com/bitmark-inc/logger"
	"github.com/bitmark-inc/termstore/configuration"
	"github.com/bitmark-inc/termstore/datastore"
	"github.com/bitmark-inc/termstore/identifier"
	"github.com/bitmark-inc/termstore/metadata"
)

// setup command handler
//
// commands that need neither the configuration file nor the datastore
func processSetupCommand(program string, arguments []string) bool {

	command := "help"
	if len(arguments) > 0 {
		command = arguments[0]
	}

	switch command {
	case "start", "run":
		return false // continue processing

	case "config-test", "cfg", "classify", "c", "compact", "info", "i":
		return false // defer processing until configuration is read

	case "version", "v":
		fmt.Printf("%s\n", version)

	default:
		switch command {
		case "help", "h", "?":
		case "", " ":
			fmt.Printf("error: missing command\n")
		default:
			fmt.Printf("error: no such command: %q\n", command)
		}

		fmt.Printf("usage: %s [--help] [--verbose] [--quiet] --config-file=FILE [[command|help] arguments...]", program)

		fmt.Printf("supported commands:\n\n")
		fmt.Printf("  help                       (h)      - display this message\n\n")
		fmt.Printf("  version                    (v)      - display version sting\n\n")

		fmt.Printf("  start                      (run)    - just run the program, same as no arguments\n")
		fmt.Printf("                                        for convienience when passing script arguments\n")
		fmt.Printf("\n")

		fmt.Printf("  config-test                (cfg)    - just check the configuration file\n")
		fmt.Printf("\n")

		fmt.Printf("  info                       (i)      - datastore id and assemblage counts\n")
		fmt.Printf("\n")

		fmt.Printf("  classify                   (c)      - classify the development path and write\n")
		fmt.Printf("                                        the inferred results, then exit\n")
		fmt.Printf("\n")

		fmt.Printf("  compact                             - compact the database, then exit\n")
		fmt.Printf("\n")

		exitwithstatus.Exit(1)
	}

	// indicate processing complete and prefor normal exit from main
	return true
}

// configuration command handler
//
// the returned bool is false if the command is not handled here
func processConfigCommand(arguments []string, options *configuration.Configuration) bool {

	command := "help"
	if len(arguments) > 0 {
		command = arguments[0]
	}

	switch command {
	case "config-test", "cfg":
		text, err := json.MarshalIndent(options, "", "  ")
		if nil != err {
			exitwithstatus.Message("error: %s", err)
		}
		fmt.Printf("configuration: %s\n", text)

	default:
		return false
	}
	return true
}

// datastore command handler
//
// the returned bool is false if the command is not handled here
func processDataCommand(log *logger.L, arguments []string, store *datastore.Store, concepts *metadata.Concepts, options *configuration.Configuration) bool {

	command := "help"
	if len(arguments) > 0 {
		command = arguments[0]
	}

	switch command {
	case "start", "run":
		return false // continue processing

	case "info", "i":
		state, id := store.Startup()
		fmt.Printf("datastore: %s\n", id)
		fmt.Printf("state:     %s\n", state)
		assemblages, err := store.Assemblages(context.Background())
		if nil != err {
			exitwithstatus.Message("assemblages error: %s", err)
		}
		for _, a := range assemblages {
			count := 0
			err := store.ForEachNidOfAssemblage(context.Background(), a, func(_ identifier.Nid) error {
				count += 1
				return nil
			})
			if nil != err {
				exitwithstatus.Message("assemblage: %d  error: %s", a, err)
			}
			name := concepts.Name(a)
			if "" == name {
				name = a.String()
			}
			fmt.Printf("%-32s %d\n", name, count)
		}

	case "classify", "c":
		registry, err := newRegistry(store, concepts, options)
		if nil != err {
			exitwithstatus.Message("classifier setup error: %s", err)
		}
		c := registry.Classifier(concepts.StampCoordinate(), concepts.LogicCoordinate())
		start := time.Now()
		affected, err := c.Reclassify(context.Background(), start.UnixMilli())
		if nil != err {
			log.Errorf("classify error: %s", err)
			exitwithstatus.Message("classify error: %s", err)
		}
		fmt.Printf("affected: %d  time: %s\n", len(affected), time.Since(start))

	case "compact":
		log.Info("compacting")
		if err := store.Compact(); nil != err {
			exitwithstatus.Message("compact error: %s", err)
		}
		fmt.Printf("compacted\n")

	default:
		exitwithstatus.Message("error: no such command: %q", command)
	}
	return true
}

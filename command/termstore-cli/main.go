// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/urfave/cli"

	"github.com/bitmark-inc/logger"
	"github.com/bitmark-inc/termstore/configuration"
	"github.com/bitmark-inc/termstore/coordinate"
	"github.com/bitmark-inc/termstore/datastore"
	"github.com/bitmark-inc/termstore/identifier"
	"github.com/bitmark-inc/termstore/metadata"
)

type session struct {
	config   *configuration.Configuration
	store    *datastore.Store
	concepts *metadata.Concepts
	verbose  bool
	e        io.Writer
	w        io.Writer
}

// set by the linker: go build -ldflags "-X main.version=M.N" ./...
var version = "zero" // do not change this value

func main() {

	app := cli.NewApp()
	app.Name = "termstore-cli"
	app.Usage = "inspect and maintain a termstore datastore"
	app.Version = version
	app.HideVersion = true

	app.Writer = os.Stdout
	app.ErrWriter = os.Stderr

	app.Flags = []cli.Flag{
		cli.BoolFlag{
			Name:  "verbose, v",
			Usage: " verbose result",
		},
		cli.StringFlag{
			Name:   "config-file, c",
			Value:  "",
			Usage:  "*daemon configuration `FILE`",
			EnvVar: "TERMSTORE_CONFIG",
		},
	}
	app.Commands = []cli.Command{
		{
			Name:   "info",
			Usage:  "datastore identity and start state",
			Action: runInfo,
		},
		{
			Name:   "assemblages",
			Usage:  "list assemblages with their types and sizes",
			Action: runAssemblages,
		},
		{
			Name:      "dump",
			Usage:     "dump every chronicle of an assemblage",
			ArgsUsage: "\n   (* = required)",
			Flags: []cli.Flag{
				cli.StringFlag{
					Name:  "assemblage, a",
					Value: "",
					Usage: "*assemblage `NID|UUID|NAME`",
				},
				cli.IntFlag{
					Name:  "count, n",
					Value: 0,
					Usage: " stop after `COUNT` chronicles, 0 for all",
				},
			},
			Action: runDump,
		},
		{
			Name:      "show",
			Usage:     "show one component with its latest version and semantics",
			ArgsUsage: "\n   (* = required)",
			Flags: []cli.Flag{
				cli.StringFlag{
					Name:  "component, k",
					Value: "",
					Usage: "*component `NID|UUID|NAME`",
				},
				cli.Int64Flag{
					Name:  "time, t",
					Value: 0,
					Usage: " resolve as of epoch `MILLISECONDS`, 0 for latest",
				},
			},
			Action: runShow,
		},
		{
			Name:   "classify",
			Usage:  "classify the development path and write the inferred results",
			Action: runClassify,
		},
		{
			Name:   "compact",
			Usage:  "compact the database",
			Action: runCompact,
		},
		{
			Name:  "version",
			Usage: "display program version",
			Action: func(c *cli.Context) error {
				fmt.Fprintf(c.App.Writer, "%s\n", version)
				return nil
			},
		},
	}

	app.Before = func(c *cli.Context) error {

		e := c.App.ErrWriter
		w := c.App.Writer
		verbose := c.GlobalBool("verbose")

		// to suppress reading config file if certain commands
		command := c.Args().Get(0)
		if "" == command || "version" == command || "help" == command || "h" == command {
			return nil
		}

		file := c.GlobalString("config-file")
		if "" == file {
			return fmt.Errorf("missing configuration file")
		}
		if verbose {
			fmt.Fprintf(e, "reading config file: %s\n", file)
		}

		options, err := configuration.Get(file, map[string]string{"version": version})
		if nil != err {
			return err
		}

		// log beside the daemon's log file
		options.Logging.File = app.Name + ".log"
		options.Logging.Console = false
		if err := logger.Initialise(options.Logging); nil != err {
			return err
		}

		store, err := datastore.Open(options.Storage(false))
		if nil != err {
			logger.Finalise()
			return err
		}
		concepts, err := metadata.Bootstrap(store, time.Now().UnixMilli())
		if nil != err {
			store.Shutdown(false)
			logger.Finalise()
			return err
		}

		c.App.Metadata["session"] = &session{
			config:   options,
			store:    store,
			concepts: concepts,
			verbose:  verbose,
			e:        e,
			w:        w,
		}
		return nil
	}

	app.After = func(c *cli.Context) error {
		s, ok := c.App.Metadata["session"].(*session)
		if !ok {
			return nil
		}
		defer logger.Finalise()
		if s.verbose {
			fmt.Fprintf(s.e, "closing datastore\n")
		}
		return s.store.Shutdown(false)
	}

	err := app.Run(os.Args)
	if nil != err {
		fmt.Fprintf(app.ErrWriter, "terminated with error: %s\n", err)
		os.Exit(1)
	}
}

func getSession(c *cli.Context) *session {
	return c.App.Metadata["session"].(*session)
}

func (s *session) preferredName(ctx context.Context, concept identifier.Nid, calc *coordinate.Calculator) (string, error) {
	return metadata.PreferredName(ctx, s.store, s.concepts, concept, s.concepts.LanguageCoordinate(), calc)
}

func (s *session) names(ctx context.Context, concepts []identifier.Nid, calc *coordinate.Calculator) ([]string, error) {
	result := make([]string, 0, len(concepts))
	for _, concept := range concepts {
		name, err := s.preferredName(ctx, concept, calc)
		if nil != err {
			return nil, err
		}
		result = append(result, name)
	}
	return result, nil
}

// calculator on the development path, latest when t is zero
func newCalculator(s *session, t int64) (*coordinate.Calculator, error) {
	sc := s.concepts.StampCoordinate()
	if 0 != t {
		sc = sc.WithTime(t)
	}
	return coordinate.NewCalculator(sc, s.store.Stamps(), s.store)
}

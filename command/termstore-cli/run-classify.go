// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package main

import (
	"context"
	"time"

	"github.com/urfave/cli"

	"github.com/bitmark-inc/termstore/classifier"
	"github.com/bitmark-inc/termstore/identifier"
)

type classifyReply struct {
	Affected int    `json:"affected"`
	State    string `json:"state"`
	Elapsed  string `json:"elapsed"`
}

func runClassify(c *cli.Context) error {

	s := getSession(c)

	options := classifier.MetadataOptions(s.concepts)
	options.Workers = s.config.Classifier.Workers
	options.NeverGroup = make([]identifier.Nid, 0, len(s.config.Classifier.NeverGroup))
	for _, role := range s.config.Classifier.NeverGroup {
		nid, err := parseComponent(s.store, s.concepts, role)
		if nil != err {
			return err
		}
		options.NeverGroup = append(options.NeverGroup, nid)
	}

	registry := classifier.NewRegistry(s.store, options)
	cl := registry.Classifier(s.concepts.StampCoordinate(), s.concepts.LogicCoordinate())

	start := time.Now()
	affected, err := cl.Reclassify(context.Background(), start.UnixMilli())
	if nil != err {
		return err
	}

	reply := classifyReply{
		Affected: len(affected),
		State:    cl.State().String(),
		Elapsed:  time.Since(start).String(),
	}
	return printJson(s.w, reply)
}

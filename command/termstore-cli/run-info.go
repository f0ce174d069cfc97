// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package main

import (
	"github.com/google/uuid"
	"github.com/urfave/cli"
)

type infoReply struct {
	Datastore uuid.UUID `json:"datastore"`
	State     string    `json:"state"`
	Directory string    `json:"directory"`
	Engine    string    `json:"engine"`
}

func runInfo(c *cli.Context) error {

	s := getSession(c)

	state, id := s.store.Startup()
	info := infoReply{
		Datastore: id,
		State:     state.String(),
		Directory: s.config.Database.Directory,
		Engine:    s.config.Database.Engine,
	}
	return printJson(s.w, info)
}

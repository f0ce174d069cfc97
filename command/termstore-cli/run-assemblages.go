// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package main

import (
	"context"
	"fmt"

	"github.com/urfave/cli"

	"github.com/bitmark-inc/termstore/identifier"
)

type assemblageItem struct {
	Nid         identifier.Nid `json:"nid"`
	Name        string         `json:"name,omitempty"`
	ObjectType  string         `json:"objectType,omitempty"`
	VersionType string         `json:"versionType,omitempty"`
	Count       int            `json:"count"`
}

func runAssemblages(c *cli.Context) error {

	s := getSession(c)
	ctx := context.Background()

	assemblages, err := s.store.Assemblages(ctx)
	if nil != err {
		return err
	}

	items := make([]assemblageItem, 0, len(assemblages))
	for _, a := range assemblages {
		item := assemblageItem{
			Nid:  a,
			Name: s.concepts.Name(a),
		}
		if t, ok, err := s.store.ObjectType(a); nil != err {
			return err
		} else if ok {
			item.ObjectType = t.String()
		}
		if k, ok, err := s.store.VersionType(a); nil != err {
			return err
		} else if ok {
			item.VersionType = k.String()
		}
		err := s.store.ForEachNidOfAssemblage(ctx, a, func(_ identifier.Nid) error {
			item.Count += 1
			return nil
		})
		if nil != err {
			return err
		}
		items = append(items, item)
	}

	if s.verbose {
		fmt.Fprintf(s.e, "assemblages: %d\n", len(items))
	}
	return printJson(s.w, items)
}
